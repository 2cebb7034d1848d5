package tracker

import (
	"fmt"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/graph"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/item"
	"github.com/roach88/packtrack/internal/rule"
)

// LocationAccessibilityLevel resolves a location.
func (t *Tracker) LocationAccessibilityLevel(loc graph.Location) access.Level {
	return t.engine.LocationLevel(loc.ID)
}

// SectionAccessibilityLevel resolves a section.
func (t *Tracker) SectionAccessibilityLevel(sec graph.Section) access.Level {
	return t.engine.SectionLevel(sec.ID)
}

// LocationSummary aggregates the levels of a location's sections.
func (t *Tracker) LocationSummary(loc graph.Location) access.Summary {
	levels := make([]access.Level, 0, len(loc.Sections))
	for _, sid := range loc.Sections {
		levels = append(levels, t.engine.SectionLevel(sid))
	}
	return access.Summarize(levels)
}

// ProviderCountForItem sums what every item provides for code.
func (t *Tracker) ProviderCountForItem(code string) int {
	total := 0
	for _, it := range t.items {
		total += it.ProviderCount(code)
	}
	return total
}

// ProviderCountForCode parses text and counts it. Only a bare item code or a
// $call is accepted; a call's number is truncated and a boolean counts 1 or 0.
func (t *Tracker) ProviderCountForCode(text string) (int, error) {
	r, err := rule.Parse(text)
	if err != nil {
		return 0, err
	}

	switch n := r.(type) {
	case rule.Item:
		return t.ProviderCountForItem(n.Code), nil
	case rule.Call:
		return t.engine.CallCount(n)
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCodeRule, text)
}

// ItemByCode returns the first item, in load order, that can provide code.
func (t *Tracker) ItemByCode(code string) (*item.StatefulItem, bool) {
	for _, it := range t.items {
		if it.Definition().AllCodes().Contains(code) {
			return it, true
		}
	}
	return nil, false
}

// ApplyItemAction clicks the item that provides code.
func (t *Tracker) ApplyItemAction(code string, action item.Action) error {
	it, ok := t.ItemByCode(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownItem, code)
	}
	it.Apply(action)
	t.logger.Debug("item action applied",
		"item", it.Name(),
		"code", code,
		"action", action.String())
	return nil
}

// Snapshot resolves every location and section, in tree order.
func (t *Tracker) Snapshot() ir.Snapshot {
	var snap ir.Snapshot
	for _, loc := range t.LocationsRecursive() {
		snap = append(snap, ir.LevelEntry{
			Kind:  ir.KindLocation,
			Path:  loc.Path,
			Level: t.engine.LocationLevel(loc.ID).String(),
		})
		for _, sec := range t.Sections(loc) {
			snap = append(snap, ir.LevelEntry{
				Kind:  ir.KindSection,
				Path:  sec.Path,
				Level: t.engine.SectionLevel(sec.ID).String(),
			})
		}
	}
	return snap
}
