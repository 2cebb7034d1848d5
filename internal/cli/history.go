package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/packtrack/internal/store"
)

// HistoryRow is one run's level for a path.
type HistoryRow struct {
	Seq     int64  `json:"seq"`
	Run     string `json:"run"`
	Variant string `json:"variant"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Level   string `json:"level"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <journal-db> <path>",
		Short: "Show how a location's level changed across runs",
		Long: `List the level of a location or section in every journaled run, oldest
first. Paths are slash-joined, e.g. "Castle/Vault".`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runHistory(opts *RootOptions, db, path string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	journal, err := openExistingJournal(db)
	if err != nil {
		return err
	}
	defer journal.Close()

	entries, err := journal.History(cmd.Context(), path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	rows := make([]HistoryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HistoryRow{
			Seq:     e.Run.Seq,
			Run:     e.Run.Token,
			Variant: e.Run.Variant,
			Label:   e.Run.Label,
			Kind:    e.Kind,
			Level:   e.Level,
		})
	}

	if out.JSON() {
		return out.Success(rows)
	}
	if len(rows) == 0 {
		out.Printf("No runs recorded for %s.\n", path)
		return nil
	}
	for _, r := range rows {
		out.Printf("%4d  %-15s %-12s %s\n", r.Seq, r.Level, r.Variant, r.Label)
	}
	return nil
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "diff <journal-db> <from-run> <to-run>",
		Short:         "List level changes between two journaled runs",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
}

func runDiff(opts *RootOptions, db, from, to string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	journal, err := openExistingJournal(db)
	if err != nil {
		return err
	}
	defer journal.Close()

	changes, err := journal.Diff(cmd.Context(), from, to)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to diff runs", err)
	}

	if out.JSON() {
		return out.Success(changes)
	}
	if len(changes) == 0 {
		out.Printf("No changes.\n")
		return nil
	}
	for _, c := range changes {
		out.Printf("%-8s %-40s %s -> %s\n", c.Kind, c.Path, orDash(c.From), orDash(c.To))
	}
	return nil
}

func orDash(level string) string {
	if level == "" {
		return "-"
	}
	return level
}

// openExistingJournal opens a journal that must already exist; store.Open
// would otherwise create an empty one.
func openExistingJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path), err)
	}
	journal, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return journal, nil
}
