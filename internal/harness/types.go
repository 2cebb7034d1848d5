package harness

import (
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/store"
)

// TraceEvent is one journaled step: what ran and which levels it changed.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Step    string         `json:"step"`
	Error   string         `json:"error,omitempty"`
	Changes []store.Change `json:"changes"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every step ran and every assertion held.
	Pass bool `json:"pass"`

	// SectionPolicy names the policy the levels were resolved under.
	SectionPolicy string `json:"section_policy"`

	// Trace has the initial open followed by one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step failures and failed assertions.
	Errors []string `json:"errors,omitempty"`

	// Final is the snapshot after the last step.
	Final ir.Snapshot `json:"final"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
