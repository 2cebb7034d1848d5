package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/graph"
	"github.com/roach88/packtrack/internal/rule"
)

// DefaultMaxDepth is the default bound on rule nesting per query.
const DefaultMaxDepth = 256

// World is the state rules resolve against. The tracker implements it.
type World interface {
	ProviderCountForItem(code string) int
	Location(lid graph.LocationID) (graph.Location, bool)
	Section(sid graph.SectionID) (graph.Section, bool)
	FindSection(location, section string) (graph.Section, bool)
}

// ValueKind classifies a script return value.
type ValueKind int

const (
	ValueNil ValueKind = iota
	ValueBool
	ValueNumber
	ValueOther
)

// ScriptValue is the first return value of a script call.
type ScriptValue struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	// TypeName is the script engine's name for the value's type.
	TypeName string
}

// ScriptCaller dispatches rule calls to script-global functions.
type ScriptCaller interface {
	Call(name string, args []string) (ScriptValue, error)
}

// SectionPolicy selects which rules gate a section once its location is
// reachable.
type SectionPolicy int

const (
	// SectionOwnRules ANDs the location's level with the OR of the section's
	// own rules. A section without rules takes its location's level.
	SectionOwnRules SectionPolicy = iota
	// SectionParentRules gives every section its location's level and ignores
	// the section's own rules.
	SectionParentRules
)

// ParseSectionPolicy converts "own" or "parent".
func ParseSectionPolicy(s string) (SectionPolicy, error) {
	switch s {
	case "own", "":
		return SectionOwnRules, nil
	case "parent":
		return SectionParentRules, nil
	}
	return 0, fmt.Errorf("unknown section policy %q", s)
}

func (p SectionPolicy) String() string {
	if p == SectionParentRules {
		return "parent"
	}
	return "own"
}

// Engine resolves rules, locations and sections against a World.
//
// An Engine is single-threaded: it must not be used from more than one
// goroutine at a time, and script calls run on the caller's goroutine.
type Engine struct {
	world    World
	scripts  ScriptCaller
	logger   *slog.Logger
	maxDepth int
	policy   SectionPolicy
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithScripts sets the dispatcher for Call and AccessibilityLevelCall.
// Without one, every call degrades as a script failure.
func WithScripts(s ScriptCaller) EngineOption {
	return func(e *Engine) {
		e.scripts = s
	}
}

// WithLogger sets the logger runtime errors are reported to.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMaxDepth sets the nesting quota per query.
func WithMaxDepth(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithSectionPolicy sets how sections are gated.
func WithSectionPolicy(p SectionPolicy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// New creates an Engine over world.
func New(world World, opts ...EngineOption) *Engine {
	e := &Engine{
		world:    world,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxDepth,
		policy:   SectionOwnRules,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetScripts replaces the script dispatcher. The pack wiring attaches the
// script host after both sides exist.
func (e *Engine) SetScripts(s ScriptCaller) {
	e.scripts = s
}

// ResolveRule resolves a single rule.
func (e *Engine) ResolveRule(r rule.Rule) access.Level {
	return e.newEvaluation().rule(r)
}

// LocationLevel resolves a location.
func (e *Engine) LocationLevel(lid graph.LocationID) access.Level {
	return e.newEvaluation().location(lid)
}

// SectionLevel resolves a section.
func (e *Engine) SectionLevel(sid graph.SectionID) access.Level {
	return e.newEvaluation().section(sid)
}

// CallCount invokes c and interprets the result as a provider count:
// numbers are truncated, booleans count 1 or 0.
func (e *Engine) CallCount(c rule.Call) (int, error) {
	v, err := e.invoke(c.Name, c.Args)
	if err != nil {
		return 0, NewScriptError(c.String(), err)
	}
	switch v.Kind {
	case ValueNumber:
		return clampToInt(v.Number), nil
	case ValueBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	}
	return 0, NewScriptError(c.String(), fmt.Errorf("returned %s, expected number or boolean", v.TypeName))
}

func (e *Engine) invoke(name string, args []string) (ScriptValue, error) {
	if e.scripts == nil {
		return ScriptValue{}, errors.New("no script host attached")
	}
	return e.scripts.Call(name, args)
}

func (e *Engine) report(err *RuntimeError) {
	level := slog.LevelWarn
	if err.Code == ErrCodeDanglingID {
		level = slog.LevelError
	}
	e.logger.Log(context.Background(), level, "rule resolution degraded",
		"code", string(err.Code),
		"node", err.Node,
		"error", err.Error())
}

// evaluation holds the per-query guard state.
type evaluation struct {
	*Engine
	guard *CycleGuard
	quota *DepthQuota
}

func (e *Engine) newEvaluation() *evaluation {
	return &evaluation{
		Engine: e,
		guard:  NewCycleGuard(),
		quota:  NewDepthQuota(e.maxDepth),
	}
}

func (ev *evaluation) rule(r rule.Rule) access.Level {
	if err := ev.quota.Enter(); err != nil {
		ev.report(&RuntimeError{
			Code:    ErrCodeDepthExceeded,
			Message: "rule nesting too deep",
			Node:    describe(r),
			Err:     err,
		})
		return access.None
	}
	defer ev.quota.Leave()

	switch n := r.(type) {
	case rule.Multi:
		var and access.AndCombiner
		for _, child := range n.Rules {
			and.Add(ev.rule(child))
		}
		return and.Finish()

	case rule.Item:
		if ev.world.ProviderCountForItem(n.Code) > 0 {
			return access.Normal
		}
		return access.None

	case rule.Call:
		return ev.call(n)

	case rule.AccessibilityLevelCall:
		return ev.levelCall(n)

	case rule.Reference:
		sec, ok := ev.world.FindSection(n.Location, n.Section)
		if !ok {
			ev.report(NewMissingReferenceError(n.Location, n.Section))
			return access.None
		}
		return ev.section(sec.ID)

	case rule.Checkable:
		if ev.rule(n.Rule) == access.None {
			return access.None
		}
		return access.Inspect

	case rule.Optional:
		inner := ev.rule(n.Rule)
		if inner == access.None {
			return access.SequenceBreak
		}
		return inner
	}

	ev.report(&RuntimeError{
		Code:    ErrCodeDanglingID,
		Message: fmt.Sprintf("unknown rule node %T", r),
		Node:    describe(r),
	})
	return access.None
}

func (ev *evaluation) call(c rule.Call) access.Level {
	v, err := ev.invoke(c.Name, c.Args)
	if err != nil {
		ev.report(NewScriptError(c.String(), err))
		return access.None
	}

	switch v.Kind {
	case ValueNumber:
		if v.Number > 0 {
			return access.Normal
		}
		return access.None
	case ValueBool:
		if v.Bool {
			return access.Normal
		}
		return access.None
	}

	ev.report(NewScriptError(c.String(), fmt.Errorf("returned %s, expected number or boolean", v.TypeName)))
	return access.None
}

func (ev *evaluation) levelCall(c rule.AccessibilityLevelCall) access.Level {
	v, err := ev.invoke(c.Name, c.Args)
	if err != nil {
		ev.report(NewScriptError(c.String(), err))
		return access.None
	}

	if v.Kind == ValueNumber && v.Number == math.Trunc(v.Number) {
		if level, ok := access.FromOrdinal(int(v.Number)); ok {
			return level
		}
	}

	ev.report(&RuntimeError{
		Code:    ErrCodeInvalidLevel,
		Message: "script returned an invalid accessibility level",
		Node:    c.String(),
		Details: map[string]string{"type": v.TypeName, "value": formatValue(v)},
	})
	return access.Normal
}

func (ev *evaluation) location(lid graph.LocationID) access.Level {
	key := lid.Erase()
	if !ev.guard.Enter(key) {
		ev.report(NewCycleError("location " + lid.String()))
		return access.None
	}
	defer ev.guard.Leave(key)

	loc, ok := ev.world.Location(lid)
	if !ok {
		ev.report(NewDanglingIDError("location", lid.String()))
		return access.None
	}

	if loc.HasParent() && ev.location(loc.Parent) == access.None {
		return access.None
	}

	var or access.OrCombiner
	for _, r := range loc.Rules {
		or.Add(ev.rule(r))
	}
	return or.Finish()
}

func (ev *evaluation) section(sid graph.SectionID) access.Level {
	key := sid.Erase()
	if !ev.guard.Enter(key) {
		ev.report(NewCycleError("section " + sid.String()))
		return access.None
	}
	defer ev.guard.Leave(key)

	sec, ok := ev.world.Section(sid)
	if !ok {
		ev.report(NewDanglingIDError("section", sid.String()))
		return access.None
	}

	parent := ev.location(sec.Location)
	if parent == access.None {
		return access.None
	}
	if ev.policy == SectionParentRules || len(sec.Rules) == 0 {
		return parent
	}

	var or access.OrCombiner
	for _, r := range sec.Rules {
		or.Add(ev.rule(r))
	}
	return access.And(parent, or.Finish())
}

func describe(r rule.Rule) string {
	if r == nil {
		return "<nil>"
	}
	if err := rule.Validate(r); err != nil {
		return fmt.Sprintf("%T", r)
	}
	return r.String()
}

func formatValue(v ScriptValue) string {
	switch v.Kind {
	case ValueNumber:
		return fmt.Sprintf("%g", v.Number)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueNil:
		return "nil"
	}
	return v.TypeName
}

func clampToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
