package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/packtrack/internal/rule"
	"github.com/roach88/packtrack/internal/script"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Subject  string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s %s: expected %s, got %s", e.Type, e.Subject, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in order.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := h.evaluate(ctx, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertLevel:
		return h.assertLevel(a)
	case AssertSummary:
		return h.assertSummary(a)
	case AssertRule:
		return h.assertRule(a)
	case AssertProviderCount:
		return h.assertProviderCount(a)
	case AssertHandlers:
		return h.assertHandlers(a)
	case AssertHistory:
		return h.assertHistory(ctx, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func (h *Harness) assertLevel(a Assertion) error {
	for _, e := range h.last {
		if e.Path == a.Path {
			if e.Level != a.Expect {
				return &AssertionError{Type: a.Type, Subject: a.Path, Expected: a.Expect, Actual: e.Level}
			}
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Subject: a.Path, Expected: a.Expect, Actual: "no such location or section"}
}

func (h *Harness) assertSummary(a Assertion) error {
	t := h.session.Tracker
	for _, loc := range t.LocationsRecursive() {
		if loc.Path != a.Path {
			continue
		}
		got := t.LocationSummary(loc).Status()
		if string(got) != a.Expect {
			return &AssertionError{Type: a.Type, Subject: a.Path, Expected: a.Expect, Actual: string(got)}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Subject: a.Path, Expected: a.Expect, Actual: "no such location"}
}

func (h *Harness) assertRule(a Assertion) error {
	r, err := rule.Parse(a.Rule)
	if err != nil {
		return err
	}
	got := h.session.Tracker.Engine().ResolveRule(r).String()
	if got != a.Expect {
		return &AssertionError{Type: a.Type, Subject: fmt.Sprintf("%q", a.Rule), Expected: a.Expect, Actual: got}
	}
	return nil
}

func (h *Harness) assertProviderCount(a Assertion) error {
	got, err := h.session.Tracker.ProviderCountForCode(a.Code)
	if err != nil {
		return err
	}
	if got != *a.Count {
		return &AssertionError{Type: a.Type, Subject: a.Code, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(got)}
	}
	return nil
}

func (h *Harness) assertHandlers(a Assertion) error {
	kind, err := script.ParseHandlerKind(a.Handler)
	if err != nil {
		return err
	}
	got := len(h.session.Scripts.Handlers(kind))
	if got != *a.Count {
		return &AssertionError{Type: a.Type, Subject: a.Handler, Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(got)}
	}
	return nil
}

func (h *Harness) assertHistory(ctx context.Context, a Assertion) error {
	entries, err := h.journal.History(ctx, a.Path)
	if err != nil {
		return err
	}
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Level
	}
	if strings.Join(got, ",") != strings.Join(a.Levels, ",") {
		return &AssertionError{
			Type:     a.Type,
			Subject:  a.Path,
			Expected: "[" + strings.Join(a.Levels, " ") + "]",
			Actual:   "[" + strings.Join(got, " ") + "]",
		}
	}
	return nil
}
