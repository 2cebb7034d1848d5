package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/packtrack/internal/config"
	"github.com/roach88/packtrack/internal/engine"
)

// RootOptions holds global flags and the process configuration shared by
// all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Config config.Config
	Logger *slog.Logger

	shutdown func(context.Context) error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the packtrack CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "packtrack",
		Short: "packtrack - randomizer pack tracker",
		Long:  "Load tracker packs, resolve location accessibility and journal how it changes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.init(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))

	return cmd, opts
}

// init loads PACKTRACK_* configuration, builds the logger and installs the
// telemetry providers.
func (o *RootOptions) init(stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	o.Config = cfg
	o.Logger = cfg.Logger(stderr)

	shutdown, err := setupTelemetry(cfg.TraceExporter, stderr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up telemetry", err)
	}
	o.shutdown = shutdown
	return nil
}

// logger returns the configured logger, or a discarding one before init.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// engineOptions translates the resolution settings, falling back to engine
// defaults before init.
func (o *RootOptions) engineOptions() ([]engine.EngineOption, error) {
	if o.Config.MaxDepth == 0 {
		return nil, nil
	}
	return o.Config.EngineOptions()
}

// sectionPolicy names the section policy engineOptions resolves with.
func (o *RootOptions) sectionPolicy() string {
	if o.Config.MaxDepth == 0 {
		return engine.SectionOwnRules.String()
	}
	p, err := engine.ParseSectionPolicy(o.Config.SectionPolicy)
	if err != nil {
		return o.Config.SectionPolicy
	}
	return p.String()
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)

	if opts.shutdown != nil {
		if serr := opts.shutdown(context.Background()); serr != nil {
			fmt.Fprintf(stderr, "Error: flush traces: %v\n", serr)
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
