package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/packtrack/internal/rule"
)

// ParsedRule is one rule in parse output.
type ParsedRule struct {
	Source    string    `json:"source"`
	Canonical string    `json:"canonical"`
	AST       rule.Rule `json:"ast"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <rule>...",
		Short: "Parse access rules",
		Long: `Parse access rule text and print its canonical form.

With --format json the parsed tree is included. A malformed rule prints its
diagnostics and exits with code 2.`,
		Example: `  packtrack parse '$has_sword,[bow]'
  packtrack parse --format json '{bombs}' '@Castle/Vault'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args, cmd)
		},
	}
}

func runParse(opts *RootOptions, texts []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	parsed := make([]ParsedRule, 0, len(texts))
	for _, text := range texts {
		r, err := rule.Parse(text)
		if err != nil {
			var se *rule.SyntaxError
			if !errors.As(err, &se) {
				return WrapExitError(ExitCommandError, "parse failed", err)
			}
			if out.JSON() {
				_ = out.Error(CodeSyntax, se.Error(), se.Diagnostics)
			} else {
				fmt.Fprint(out.GetErrWriter(), se.Report())
			}
			return WrapExitError(ExitCommandError, "invalid rule", err)
		}
		parsed = append(parsed, ParsedRule{Source: text, Canonical: r.String(), AST: r})
	}

	if out.JSON() {
		return out.Success(parsed)
	}
	for _, p := range parsed {
		out.Printf("%s\n", p.Canonical)
	}
	return nil
}
