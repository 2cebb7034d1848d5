package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile error codes (E100-E199).
const (
	ErrCodeSyntax      = "E100" // file is not valid JSON/CUE
	ErrCodeSchema      = "E101" // file does not match the record schema
	ErrCodeDecode      = "E102" // record could not be decoded
	ErrCodeRuleSyntax  = "E103" // access rule does not parse; record dropped
	ErrCodeRefCycle    = "E110" // sections reference each other in a loop
	ErrCodeUnsupported = "E199" // unknown authoring kind
)

// CompileError is a load failure with source context.
type CompileError struct {
	Code    string
	File    string
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	var where string
	switch {
	case e.Pos.IsValid() && (e.File == "" || e.Pos.Filename() == e.File):
		where = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	case e.File != "":
		where = e.File + ": "
	}
	if e.Field != "" {
		return fmt.Sprintf("%s[%s] %s: %s", where, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s[%s] %s", where, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsCompileError reports whether err wraps a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// Diagnostic is a non-fatal problem with one record of a file.
type Diagnostic = CompileError

// formatCUEError extracts the first positioned error from a CUE error list.
func formatCUEError(code, file string, err error) *CompileError {
	ce := &CompileError{Code: code, File: file, Message: err.Error(), Err: err}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return ce
	}

	first := errs[0]
	ce.Message = first.Error()
	// Prefer a position in the authoring file over one in the schema.
	for _, pos := range cueerrors.Positions(first) {
		if !ce.Pos.IsValid() || (pos.Filename() == file && ce.Pos.Filename() != file) {
			ce.Pos = pos
		}
	}
	if path := first.Path(); len(path) > 0 {
		ce.Field = joinPath(path)
	}
	return ce
}

func joinPath(path []string) string {
	var out string
	for i, p := range path {
		switch {
		case isIndex(p):
			out += "[" + p + "]"
		case i > 0:
			out += "." + p
		default:
			out += p
		}
	}
	return out
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
