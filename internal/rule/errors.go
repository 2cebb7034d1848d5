package rule

import (
	"errors"
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into the rule text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Diagnostic is one parse problem.
type Diagnostic struct {
	Message string `json:"message"`
	Span    Span   `json:"span"`
}

// SyntaxError is returned by Parse for malformed rule text.
type SyntaxError struct {
	Source      string
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("rule %q: syntax error", e.Source)
	}
	d := e.Diagnostics[0]
	return fmt.Sprintf("rule %q: %s (bytes %d..%d)", e.Source, d.Message, d.Span.Start, d.Span.End)
}

// Report renders the diagnostics under the source line with carets marking the
// offending span.
//
//	$has_sword,,bow
//	           ^ unexpected ',', expected rule
func (e *SyntaxError) Report() string {
	var buf strings.Builder
	buf.WriteString(e.Source)
	buf.WriteByte('\n')
	for _, d := range e.Diagnostics {
		width := d.Span.End - d.Span.Start
		if width < 1 {
			width = 1
		}
		buf.WriteString(strings.Repeat(" ", d.Span.Start))
		buf.WriteString(strings.Repeat("^", width))
		buf.WriteByte(' ')
		buf.WriteString(d.Message)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// IsSyntaxError reports whether err wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
