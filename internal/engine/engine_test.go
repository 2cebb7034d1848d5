package engine

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/graph"
	"github.com/roach88/packtrack/internal/id"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/rule"
)

// world is a graph plus a fixed item inventory.
type world struct {
	*graph.Graph
	items map[string]int

	// orphan, when set, is returned for lookups of its own id so tests can
	// model a location whose parent id resolves to nothing.
	orphan *graph.Location
}

func (w *world) ProviderCountForItem(code string) int {
	return w.items[code]
}

func (w *world) Location(lid graph.LocationID) (graph.Location, bool) {
	if w.orphan != nil && w.orphan.ID == lid {
		return *w.orphan, true
	}
	return w.Graph.Location(lid)
}

func newWorld(t *testing.T, tree ...ir.Location) (*world, []graph.LocationID) {
	t.Helper()
	g := graph.New()
	roots := g.Add(id.NewAllocator(), tree)
	require.NoError(t, g.Verify())
	return &world{Graph: g, items: map[string]int{}}, roots
}

// scripts answers calls from a table keyed by function name.
type scripts struct {
	values map[string]ScriptValue
	calls  []string
}

func (s *scripts) Call(name string, args []string) (ScriptValue, error) {
	s.calls = append(s.calls, name+"|"+strings.Join(args, "|"))
	v, ok := s.values[name]
	if !ok {
		return ScriptValue{}, errors.New("attempt to call a nil value")
	}
	return v, nil
}

func number(n float64) ScriptValue {
	return ScriptValue{Kind: ValueNumber, Number: n, TypeName: "number"}
}

func boolean(b bool) ScriptValue {
	return ScriptValue{Kind: ValueBool, Bool: b, TypeName: "boolean"}
}

func loc(name string, rules string, sections ...ir.Section) ir.Location {
	l := ir.Location{Name: name, Sections: sections}
	if rules != "" {
		l.AccessRules = []string{rules}
		l.Rules = []rule.Rule{rule.MustParse(rules)}
	}
	return l
}

func sec(name string, rules ...string) ir.Section {
	s := ir.Section{Name: name, AccessRules: rules}
	for _, r := range rules {
		s.Rules = append(s.Rules, rule.MustParse(r))
	}
	return s
}

func capture() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestResolveRule_Item(t *testing.T) {
	w, _ := newWorld(t)
	e := New(w)

	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("sword")))

	w.items["sword"] = 1
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("sword")))
}

func TestResolveRule_MultiIsAnd(t *testing.T) {
	w, _ := newWorld(t)
	w.items["sword"] = 1
	e := New(w)

	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("sword,bow")))
	w.items["bow"] = 2
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("sword,bow")))
	assert.Equal(t, access.SequenceBreak, e.ResolveRule(rule.MustParse("sword,[hookshot]")))
}

func TestResolveRule_CheckableAndOptional(t *testing.T) {
	w, _ := newWorld(t)
	w.items["lamp"] = 1
	e := New(w)

	tests := []struct {
		text string
		want access.Level
	}{
		{"{lamp}", access.Inspect},
		{"{flippers}", access.None},
		{"[lamp]", access.Normal},
		{"[flippers]", access.SequenceBreak},
		{"[{lamp}]", access.Inspect},
		{"{[flippers]}", access.Inspect},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ResolveRule(rule.MustParse(tt.text)))
		})
	}
}

func TestResolveRule_Call(t *testing.T) {
	w, _ := newWorld(t)
	s := &scripts{values: map[string]ScriptValue{
		"positive": number(3),
		"zero":     number(0),
		"yes":      boolean(true),
		"no":       boolean(false),
		"table":    {Kind: ValueOther, TypeName: "table"},
	}}
	logger, buf := capture()
	e := New(w, WithScripts(s), WithLogger(logger))

	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("$positive")))
	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("$zero")))
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("$yes")))
	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("$no")))
	assert.Empty(t, buf.String())

	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("$table")))
	assert.Contains(t, buf.String(), "SCRIPT_FAILED")

	buf.Reset()
	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("$missing|a|b")))
	assert.Contains(t, buf.String(), "SCRIPT_FAILED")
	assert.Equal(t, "missing|a|b", s.calls[len(s.calls)-1])
}

func TestResolveRule_CallWithoutScripts(t *testing.T) {
	w, _ := newWorld(t)
	e := New(w)

	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("$anything")))
	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("^$anything")))
}

func TestResolveRule_LevelCall(t *testing.T) {
	w, _ := newWorld(t)
	s := &scripts{values: map[string]ScriptValue{
		"inspect":  number(float64(access.Inspect.Ordinal())),
		"cleared":  number(float64(access.Cleared.Ordinal())),
		"too_big":  number(42),
		"fraction": number(1.5),
		"word":     {Kind: ValueOther, TypeName: "string"},
	}}
	logger, buf := capture()
	e := New(w, WithScripts(s), WithLogger(logger))

	assert.Equal(t, access.Inspect, e.ResolveRule(rule.MustParse("^$inspect")))
	assert.Equal(t, access.Cleared, e.ResolveRule(rule.MustParse("^$cleared")))

	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("^$too_big")))
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("^$fraction")))
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("^$word")))
	assert.Contains(t, buf.String(), "INVALID_LEVEL")
}

func TestResolveRule_CallAndReference(t *testing.T) {
	w, _ := newWorld(t, loc("cave", "", sec("chest")))
	s := &scripts{values: map[string]ScriptValue{"has_sword": boolean(true)}}
	e := New(w, WithScripts(s))

	assert.Equal(t, access.Inspect, e.ResolveRule(rule.MustParse("$has_sword,{@cave/chest}")))
}

func TestResolveRule_MissingReference(t *testing.T) {
	w, _ := newWorld(t, loc("cave", "", sec("chest")))
	logger, buf := capture()
	e := New(w, WithLogger(logger))

	assert.Equal(t, access.None, e.ResolveRule(rule.MustParse("@cave/nowhere")))
	assert.Contains(t, buf.String(), "MISSING_REFERENCE")
	assert.Equal(t, access.SequenceBreak, e.ResolveRule(rule.MustParse("[@lake/island]")))
}

func TestLocationLevel_OrOfRules(t *testing.T) {
	w, roots := newWorld(t,
		ir.Location{Name: "empty"},
		ir.Location{
			Name:        "gated",
			AccessRules: []string{"{lamp}", "[boots]"},
			Rules:       []rule.Rule{rule.MustParse("{lamp}"), rule.MustParse("[boots]")},
		},
	)
	w.items["lamp"] = 1
	e := New(w)

	assert.Equal(t, access.Normal, e.LocationLevel(roots[0]))
	assert.Equal(t, access.SequenceBreak, e.LocationLevel(roots[1]))
}

func TestLocationLevel_NoneParentGatesChild(t *testing.T) {
	w, roots := newWorld(t, loc("child", "", sec("chest")))
	child, ok := w.Graph.Location(roots[0])
	require.True(t, ok)
	logger, buf := capture()
	e := New(w, WithLogger(logger))

	assert.Equal(t, access.Normal, e.LocationLevel(child.ID))
	assert.Empty(t, buf.String())

	// Point the child at a parent id the graph never minted.
	alloc := id.NewAllocator()
	for range 100 {
		child.Parent = id.Next[graph.Location](alloc)
	}
	w.orphan = &child

	assert.Equal(t, access.None, e.LocationLevel(child.ID))
	assert.Equal(t, access.None, e.SectionLevel(child.Sections[0]))
	assert.Contains(t, buf.String(), "DANGLING_ID")
}

func TestSectionLevel_Policies(t *testing.T) {
	w, roots := newWorld(t,
		loc("castle", "{lamp}",
			sec("plain"),
			sec("optional", "[boots]"),
		),
	)
	w.items["lamp"] = 1
	castle, ok := w.Graph.Location(roots[0])
	require.True(t, ok)
	plain, optional := castle.Sections[0], castle.Sections[1]

	own := New(w)
	assert.Equal(t, access.Inspect, own.LocationLevel(castle.ID))
	assert.Equal(t, access.Inspect, own.SectionLevel(plain))
	assert.Equal(t, access.SequenceBreak, own.SectionLevel(optional))

	parent := New(w, WithSectionPolicy(SectionParentRules))
	assert.Equal(t, access.Inspect, parent.SectionLevel(plain))
	assert.Equal(t, access.Inspect, parent.SectionLevel(optional))
}

func TestParseSectionPolicy(t *testing.T) {
	p, err := ParseSectionPolicy("parent")
	require.NoError(t, err)
	assert.Equal(t, SectionParentRules, p)
	assert.Equal(t, "parent", p.String())

	p, err = ParseSectionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SectionOwnRules, p)
	assert.Equal(t, "own", p.String())

	_, err = ParseSectionPolicy("sibling")
	assert.Error(t, err)
}

func TestSectionLevel_ReferenceCycleTerminates(t *testing.T) {
	w, roots := newWorld(t,
		loc("a", "", sec("x", "{@b/y}")),
		loc("b", "", sec("y", "[@a/x]")),
	)
	a, ok := w.Graph.Location(roots[0])
	require.True(t, ok)
	logger, buf := capture()
	e := New(w, WithLogger(logger))

	// a/x -> b/y -> a/x is cut to None, which Optional lifts to SequenceBreak,
	// which Checkable then reports as Inspect.
	assert.Equal(t, access.Inspect, e.SectionLevel(a.Sections[0]))
	assert.Contains(t, buf.String(), "CYCLE_DETECTED")
}

func TestResolveRule_SelfReferenceTerminates(t *testing.T) {
	w, roots := newWorld(t, loc("a", "", sec("x", "@a/x")))
	a, ok := w.Graph.Location(roots[0])
	require.True(t, ok)
	e := New(w)

	// The re-entry resolves to None, which the section's OR ignores.
	assert.Equal(t, access.Normal, e.SectionLevel(a.Sections[0]))
	assert.Equal(t, access.Normal, e.ResolveRule(rule.MustParse("@a/x,@a/x")))
}

func TestResolveRule_DepthQuota(t *testing.T) {
	w, _ := newWorld(t)
	w.items["lamp"] = 1
	logger, buf := capture()
	e := New(w, WithLogger(logger), WithMaxDepth(4))

	assert.Equal(t, access.Inspect, e.ResolveRule(rule.MustParse("{{lamp}}")))
	// The fifth level is cut to None and the wrappers above it still apply.
	assert.Equal(t, access.Inspect, e.ResolveRule(rule.MustParse("[{[{[{lamp}]}]}]")))
	assert.Contains(t, buf.String(), "DEPTH_EXCEEDED")
}

func TestCallCount(t *testing.T) {
	w, _ := newWorld(t)
	s := &scripts{values: map[string]ScriptValue{
		"three": number(3.9),
		"yes":   boolean(true),
		"str":   {Kind: ValueOther, TypeName: "string"},
	}}
	e := New(w, WithScripts(s))

	n, err := e.CallCount(rule.Call{Name: "three"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = e.CallCount(rule.Call{Name: "yes"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.CallCount(rule.Call{Name: "str"})
	assert.True(t, HasCode(err, ErrCodeScriptFailed))

	_, err = e.CallCount(rule.Call{Name: "absent"})
	assert.True(t, HasCode(err, ErrCodeScriptFailed))
}
