package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/packtrack/internal/engine"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/item"
	"github.com/roach88/packtrack/internal/pack"
	"github.com/roach88/packtrack/internal/script"
	"github.com/roach88/packtrack/internal/store"
	"github.com/roach88/packtrack/internal/testutil"
)

// Harness runs one scenario against an open session.
type Harness struct {
	session *pack.Session
	journal *store.Store
	logger  *slog.Logger
	last    ir.Snapshot
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sends session logs to l instead of discarding them.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario in a fresh session with a fresh in-memory journal.
//
// Errors opening the pack or journal are returned; failing steps and
// assertions are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	policy, err := engine.ParseSectionPolicy(scenario.SectionPolicy)
	if err != nil {
		return nil, err
	}

	journal, err := store.Open(":memory:", store.WithTokenGenerator(testutil.NewSequentialTokens(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer journal.Close()

	session, err := pack.OpenDir(ctx, scenario.Pack, scenario.Variant, pack.Options{
		InitScript:    scenario.Init,
		Logger:        cfg.logger,
		EngineOptions: []engine.EngineOption{engine.WithSectionPolicy(policy)},
	})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	h := &Harness{session: session, journal: journal, logger: cfg.logger}
	result := NewResult()
	result.SectionPolicy = policy.String()

	if err := h.record(ctx, scenario.Variant, "open", "", result); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		var failure string
		if err := h.apply(ctx, step); err != nil {
			failure = err.Error()
			result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Describe(), err))
		}
		if err := h.record(ctx, scenario.Variant, step.Describe(), failure, result); err != nil {
			return nil, err
		}
	}
	result.Final = h.last

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// apply performs one step.
func (h *Harness) apply(ctx context.Context, step Step) error {
	t := h.session.Tracker
	switch {
	case step.Item != "":
		it, ok := t.ItemByCode(step.Item)
		if !ok {
			return fmt.Errorf("no item provides code %q", step.Item)
		}
		switch {
		case step.Action != "":
			action, err := item.ParseAction(step.Action)
			if err != nil {
				return err
			}
			it.Apply(action)
			return nil
		case step.Stage != nil:
			return it.SetStage(*step.Stage)
		case step.Active != nil:
			return it.SetActive(*step.Active)
		case step.Quantity != nil:
			return it.SetQuantity(*step.Quantity)
		case step.Left != nil:
			return it.SetLeft(*step.Left)
		case step.Right != nil:
			return it.SetRight(*step.Right)
		}
	case step.Lua != "":
		return h.session.Scripts.DoString(ctx, "scenario", step.Lua)
	case step.Notify != "":
		kind, err := script.ParseHandlerKind(step.Notify)
		if err != nil {
			return err
		}
		return h.session.Scripts.Notify(ctx, kind, step.Args...)
	}
	return fmt.Errorf("empty step")
}

// record journals the current levels and appends the trace event.
func (h *Harness) record(ctx context.Context, variant, label, failure string, result *Result) error {
	snap := h.session.Tracker.Snapshot()
	run, _, err := h.journal.RecordSnapshot(ctx, store.Record{
		Variant:  variant,
		Label:    label,
		Snapshot: snap,
	})
	if err != nil {
		return fmt.Errorf("journal step %q: %w", label, err)
	}

	result.Trace = append(result.Trace, TraceEvent{
		Seq:     run.Seq,
		Step:    label,
		Error:   failure,
		Changes: store.DiffSnapshots(h.last, snap),
	})
	h.last = snap
	return nil
}
