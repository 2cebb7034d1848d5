package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/packtrack/internal/item"
	"github.com/roach88/packtrack/internal/pack"
	"github.com/roach88/packtrack/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Variant string
	Init    string
	Journal string
	Label   string
	Apply   []string // code:action
}

// SectionReport is the level of one section.
type SectionReport struct {
	Path  string `json:"path"`
	Level string `json:"level"`
}

// LocationReport is the level and status of one location.
type LocationReport struct {
	Path     string          `json:"path"`
	Level    string          `json:"level"`
	Status   string          `json:"status"`
	Sections []SectionReport `json:"sections"`
}

// RunReport identifies a journal run written by check.
type RunReport struct {
	Token        string `json:"token"`
	Seq          int64  `json:"seq"`
	SnapshotHash string `json:"snapshot_hash"`
	Fresh        bool   `json:"fresh"`
}

// CheckResult is the output of check.
type CheckResult struct {
	Variant       string           `json:"variant"`
	SectionPolicy string           `json:"section_policy"`
	Locations     []LocationReport `json:"locations"`
	Run           *RunReport       `json:"run,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <pack-dir>",
		Short: "Resolve every location of a pack",
		Long: `Open a pack, run its init script and print the accessibility level of
every location and section in tree order.

--apply performs item actions before resolving, e.g. --apply bombs:primary.
With --journal (or PACKTRACK_JOURNAL) the resolved snapshot is recorded as a
new run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Variant, "variant", "", "active variant UID")
	cmd.Flags().StringVar(&opts.Init, "init", "", "init script (default "+pack.DefaultInitScript+")")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database to record the run in")
	cmd.Flags().StringVar(&opts.Label, "label", "check", "run label")
	cmd.Flags().StringArrayVar(&opts.Apply, "apply", nil, "item action code:primary|secondary (repeatable)")

	return cmd
}

func runCheck(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(opts.RootOptions, cmd)

	actions, err := parseApply(opts.Apply)
	if err != nil {
		return err
	}

	session, err := openSession(ctx, opts.RootOptions, dir, opts.Variant, opts.Init)
	if err != nil {
		return err
	}
	defer session.Close()
	t := session.Tracker

	for _, a := range actions {
		if err := t.ApplyItemAction(a.code, a.action); err != nil {
			return WrapExitError(ExitCommandError, "apply "+a.code, err)
		}
		out.VerboseLog("Applied %s %s", a.action, a.code)
	}

	result := CheckResult{Variant: opts.Variant, SectionPolicy: opts.sectionPolicy()}
	for _, loc := range t.LocationsRecursive() {
		lr := LocationReport{
			Path:     loc.Path,
			Level:    t.LocationAccessibilityLevel(loc).String(),
			Status:   string(t.LocationSummary(loc).Status()),
			Sections: []SectionReport{},
		}
		for _, sec := range t.Sections(loc) {
			lr.Sections = append(lr.Sections, SectionReport{
				Path:  sec.Path,
				Level: t.SectionAccessibilityLevel(sec).String(),
			})
		}
		result.Locations = append(result.Locations, lr)
	}

	journal, err := openJournal(opts.RootOptions, opts.Journal)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
		run, fresh, err := journal.RecordSnapshot(ctx, store.Record{
			Variant:  opts.Variant,
			Label:    opts.Label,
			Snapshot: t.Snapshot(),
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		result.Run = &RunReport{Token: run.Token, Seq: run.Seq, SnapshotHash: run.SnapshotHash, Fresh: fresh}
	}

	if out.JSON() {
		return out.Success(result)
	}
	printCheck(out, result)
	return nil
}

type itemAction struct {
	code   string
	action item.Action
}

func parseApply(specs []string) ([]itemAction, error) {
	actions := make([]itemAction, 0, len(specs))
	for _, s := range specs {
		code, name, ok := strings.Cut(s, ":")
		if !ok {
			name = "primary"
		}
		if code == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --apply %q: missing item code", s))
		}
		action, err := item.ParseAction(name)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --apply %q", s), err)
		}
		actions = append(actions, itemAction{code: code, action: action})
	}
	return actions, nil
}

func printCheck(out *OutputFormatter, result CheckResult) {
	out.Printf("Section policy: %s\n\n", result.SectionPolicy)
	for _, loc := range result.Locations {
		out.Printf("%-40s %-15s %s\n", loc.Path, loc.Level, loc.Status)
		for _, sec := range loc.Sections {
			out.Printf("  %-38s %s\n", sec.Path, sec.Level)
		}
	}
	if result.Run != nil {
		state := "existing snapshot"
		if result.Run.Fresh {
			state = "new snapshot"
		}
		out.Printf("\nRecorded run %s (seq %d, %s %s)\n", result.Run.Token, result.Run.Seq, state, shortHash(result.Run.SnapshotHash))
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
