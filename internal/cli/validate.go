package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/packtrack/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind string
}

// Diagnostic is one reported problem in a validated file.
type Diagnostic struct {
	Code    string   `json:"code"`
	Field   string   `json:"field,omitempty"`
	Line    int      `json:"line,omitempty"`
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// ValidationResult is the outcome of validating one file.
type ValidationResult struct {
	File     string       `json:"file"`
	Kind     string       `json:"kind"`
	Valid    bool         `json:"valid"`
	Records  int          `json:"records"`
	Errors   []Diagnostic `json:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate --kind <kind> <file>",
		Short: "Validate a pack authoring file",
		Long: `Compile one maps, items, locations or layouts file against its schema.

Locations files also have every access rule parsed; records with a malformed
rule are reported as errors, and sections that reference each other in a
loop are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "file kind (maps|items|locations|layouts)")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runValidate(opts *ValidateOptions, file string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	kind := compiler.Kind(opts.Kind)
	if !slices.Contains(compiler.Kinds(), kind) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid kind %q: must be one of %v", opts.Kind, compiler.Kinds()))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	c, err := compiler.New(compiler.WithLogger(opts.logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create compiler", err)
	}

	out.VerboseLog("Validating %s as %s", file, kind)
	result := validateFile(c, kind, file, data)
	return reportValidation(out, result)
}

func validateFile(c *compiler.Compiler, kind compiler.Kind, file string, data []byte) ValidationResult {
	res := ValidationResult{File: file, Kind: string(kind)}

	var err error
	switch kind {
	case compiler.KindMaps:
		maps, e := c.CompileMaps(data, file)
		res.Records, err = len(maps), e
	case compiler.KindItems:
		items, e := c.CompileItems(data, file)
		res.Records, err = len(items), e
	case compiler.KindLayouts:
		layouts, e := c.CompileLayouts(data, file)
		res.Records, err = len(layouts), e
	case compiler.KindLocations:
		locs, e := c.CompileLocations(data, file)
		if e != nil {
			err = e
			break
		}
		res.Records = len(locs.Locations)
		for _, d := range locs.Dropped {
			res.Errors = append(res.Errors, fromCompileError(d))
		}
		for _, w := range compiler.AnalyzeCycles(locs.Locations) {
			res.Warnings = append(res.Warnings, Diagnostic{Code: w.Code, Message: w.Message, Path: w.Path})
		}
	}

	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			res.Errors = append(res.Errors, fromCompileError(ce))
		} else {
			res.Errors = append(res.Errors, Diagnostic{Code: compiler.ErrCodeDecode, Message: err.Error()})
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func fromCompileError(ce *compiler.CompileError) Diagnostic {
	d := Diagnostic{Code: ce.Code, Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		d.Line = ce.Pos.Line()
	}
	return d
}

func reportValidation(out *OutputFormatter, res ValidationResult) error {
	var failure error
	if !res.Valid {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%s: %d error(s)", res.File, len(res.Errors)))
	}

	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: res}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: CodeInvalid, Message: failure.Error(), Details: res.Errors}
		}
		if err := out.encode(resp); err != nil {
			return err
		}
		return failure
	}

	for _, d := range res.Errors {
		out.Printf("%s\n", formatDiagnostic("error", d))
	}
	for _, d := range res.Warnings {
		out.Printf("%s\n", formatDiagnostic("warning", d))
	}
	if failure != nil {
		return failure
	}
	out.Printf("✓ %s: %d %s record(s) valid\n", res.File, res.Records, res.Kind)
	return nil
}

func formatDiagnostic(severity string, d Diagnostic) string {
	s := fmt.Sprintf("%s [%s]", severity, d.Code)
	if d.Line > 0 {
		s += fmt.Sprintf(" line %d", d.Line)
	}
	if d.Field != "" {
		s += " " + d.Field
	}
	return s + ": " + d.Message
}
