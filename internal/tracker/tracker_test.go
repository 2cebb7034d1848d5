package tracker

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/compiler"
	"github.com/roach88/packtrack/internal/engine"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/item"
)

const itemsJSON = `[
	{"name": "Lamp", "type": "toggle", "codes": "lamp"},
	{"name": "Boots", "type": "toggle", "codes": "boots"},
	{"name": "Bombs", "type": "consumable", "codes": "bombs", "max_quantity": 2},
	{
		"name": "Sword",
		"type": "progressive",
		"allow_disabled": true,
		"stages": [
			{"codes": "sword1"},
			{"codes": "sword2"},
		],
	},
]`

const locationsJSON = `[
	{
		"name": "Castle",
		"access_rules": ["lamp"],
		"sections": [
			{"name": "Courtyard"},
			{"name": "Vault", "access_rules": ["{bombs}"]},
		],
		"children": [
			{"name": "Tower", "access_rules": ["[boots]"], "sections": [{"name": "Top"}]},
		],
	},
	{
		"name": "Lake",
		"sections": [{"name": "Island", "access_rules": ["sword2,@Castle/Courtyard"]}],
	},
]`

func packFS() fstest.MapFS {
	return fstest.MapFS{
		"items/items.json":         {Data: []byte(itemsJSON)},
		"locations/locations.json": {Data: []byte(locationsJSON)},
		"maps/maps.json":           {Data: []byte(`[{"name": "world", "img": "images/world.png"}]`)},
		"layouts/tracker.json":     {Data: []byte(`{"tracker_default": {"type": "container"}}`)},
		"locations/broken.json":    {Data: []byte(`[{"name": "Broken", "access_rules": ["{lamp"]}, {"name": "Fine"}]`)},
		"locations/cycle.json": {Data: []byte(`[
			{"name": "Loop", "sections": [{"name": "A", "access_rules": ["@Loop/B"]}, {"name": "B", "access_rules": ["@Loop/A"]}]}
		]`)},
	}
}

func newTracker(t *testing.T, opts ...Option) *Tracker {
	t.Helper()
	tr, err := New(packFS(), "standard", opts...)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, tr.AddItems(ctx, "items/items.json"))
	report, err := tr.AddLocations(ctx, "locations/locations.json")
	require.NoError(t, err)
	require.Len(t, report.Roots, 2)
	require.Empty(t, report.Dropped)
	require.NoError(t, tr.Verify())
	return tr
}

func levels(tr *Tracker) map[string]string {
	out := make(map[string]string)
	for _, e := range tr.Snapshot() {
		out[e.Path] = e.Level
	}
	return out
}

func TestTracker_ActiveVariantUID(t *testing.T) {
	tr := newTracker(t)
	assert.Equal(t, "standard", tr.ActiveVariantUID())
}

func TestTracker_AddMapsAndLayouts(t *testing.T) {
	tr := newTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.AddMaps(ctx, "./maps/maps.json"))
	require.Len(t, tr.Maps(), 1)
	assert.Equal(t, ir.ShapeRect, tr.Maps()[0].LocationShape)

	require.NoError(t, tr.AddLayouts(ctx, `layouts\tracker.json`))
	require.NoError(t, tr.AddLayouts(ctx, "layouts/tracker.json"))
	require.Len(t, tr.Layouts(), 1)
	layout, ok := tr.Layout("tracker_default")
	require.True(t, ok)
	assert.JSONEq(t, `{"type": "container"}`, string(layout.Tree))
}

func TestTracker_AddRejectsEscapingPaths(t *testing.T) {
	tr := newTracker(t)
	ctx := context.Background()

	for _, p := range []string{"../secrets.json", "/etc/passwd", "maps/../../x.json", ""} {
		err := tr.AddMaps(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestTracker_AddReportsFileContext(t *testing.T) {
	tr := newTracker(t)

	err := tr.AddMaps(context.Background(), "maps/missing.json")
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "maps/missing.json", le.Path)

	err = tr.AddItems(context.Background(), "maps/maps.json")
	require.Error(t, err)
	assert.True(t, compiler.IsCompileError(err))
	assert.Contains(t, err.Error(), "maps/maps.json")
}

func TestTracker_Locations(t *testing.T) {
	tr := newTracker(t)

	roots := tr.Locations()
	require.Len(t, roots, 2)
	assert.Equal(t, "Castle", roots[0].Name)
	assert.Equal(t, "Lake", roots[1].Name)

	all := tr.LocationsRecursive()
	require.Len(t, all, 3)
	assert.Equal(t, "Castle/Tower", all[1].Path)
}

func TestTracker_LevelsFollowItems(t *testing.T) {
	tr := newTracker(t)

	// A failing rule never blocks an OR on its own; only Optional and
	// Checkable wrappers shape the result.
	assert.Equal(t, map[string]string{
		"Castle":           "Normal",
		"Castle/Courtyard": "Normal",
		"Castle/Vault":     "Normal",
		"Castle/Tower":     "SequenceBreak",
		"Castle/Tower/Top": "SequenceBreak",
		"Lake":             "Normal",
		"Lake/Island":      "Normal",
	}, levels(tr))

	require.NoError(t, tr.ApplyItemAction("boots", item.Primary))
	require.NoError(t, tr.ApplyItemAction("bombs", item.Primary))
	got := levels(tr)
	assert.Equal(t, "Inspect", got["Castle/Vault"])
	assert.Equal(t, "Normal", got["Castle/Tower"])
	assert.Equal(t, "Normal", got["Castle/Tower/Top"])
}

func TestTracker_SectionPolicy(t *testing.T) {
	tr := newTracker(t, WithEngineOptions(engine.WithSectionPolicy(engine.SectionParentRules)))
	require.NoError(t, tr.ApplyItemAction("bombs", item.Primary))

	castle, ok := tr.FindLocation("Castle")
	require.True(t, ok)
	vault := tr.Sections(castle)[1]
	assert.Equal(t, access.Normal, tr.SectionAccessibilityLevel(vault))
	assert.Equal(t, access.Normal, tr.LocationAccessibilityLevel(castle))
}

func TestTracker_LocationSummary(t *testing.T) {
	tr := newTracker(t)
	require.NoError(t, tr.ApplyItemAction("bombs", item.Primary))

	castle, ok := tr.FindLocation("Castle")
	require.True(t, ok)
	summary := tr.LocationSummary(castle)
	assert.Equal(t, 2, summary.Sections)
	assert.True(t, summary.Checkable)
	assert.Equal(t, access.StatusCheckable, summary.Status())
}

func TestTracker_ProviderCounts(t *testing.T) {
	tr := newTracker(t)

	assert.Equal(t, 0, tr.ProviderCountForItem("lamp"))
	require.NoError(t, tr.ApplyItemAction("lamp", item.Primary))
	assert.Equal(t, 1, tr.ProviderCountForItem("lamp"))

	for range 3 {
		require.NoError(t, tr.ApplyItemAction("bombs", item.Primary))
	}
	n, err := tr.ProviderCountForCode("bombs")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, tr.ApplyItemAction("sword2", item.Primary))
	assert.Equal(t, 1, tr.ProviderCountForItem("sword1"))
	assert.Equal(t, 1, tr.ProviderCountForItem("sword2"))
	require.NoError(t, tr.ApplyItemAction("sword1", item.Secondary))
	assert.Equal(t, 0, tr.ProviderCountForItem("sword1"))

	_, err = tr.ProviderCountForCode("{lamp}")
	assert.ErrorIs(t, err, ErrInvalidCodeRule)
	_, err = tr.ProviderCountForCode("lamp,boots")
	assert.ErrorIs(t, err, ErrInvalidCodeRule)
	_, err = tr.ProviderCountForCode("[")
	assert.Error(t, err)

	_, err = tr.ProviderCountForCode("$no_scripts")
	assert.True(t, engine.HasCode(err, engine.ErrCodeScriptFailed))

	assert.ErrorIs(t, tr.ApplyItemAction("hammer", item.Primary), ErrUnknownItem)
}

type constScripts map[string]engine.ScriptValue

func (c constScripts) Call(name string, _ []string) (engine.ScriptValue, error) {
	v, ok := c[name]
	if !ok {
		return engine.ScriptValue{}, errors.New("missing")
	}
	return v, nil
}

func TestTracker_AttachScripts(t *testing.T) {
	tr := newTracker(t)
	tr.AttachScripts(constScripts{"count": {Kind: engine.ValueNumber, Number: 4, TypeName: "number"}})

	n, err := tr.ProviderCountForCode("$count|x")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTracker_AddLocationsDropsMalformedRecords(t *testing.T) {
	tr := newTracker(t)

	report, err := tr.AddLocations(context.Background(), "locations/broken.json")
	require.NoError(t, err)
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, "Broken.access_rules[0]", report.Dropped[0].Field)
	require.Len(t, report.Roots, 1)

	_, ok := tr.FindLocation("Broken")
	assert.False(t, ok)
	_, ok = tr.FindLocation("Fine")
	assert.True(t, ok)
}

func TestTracker_AddLocationsReportsCycles(t *testing.T) {
	tr := newTracker(t)

	report, err := tr.AddLocations(context.Background(), "locations/cycle.json")
	require.NoError(t, err)
	require.Len(t, report.Cycles, 1)
	assert.Equal(t, []string{"Loop/A", "Loop/B", "Loop/A"}, report.Cycles[0].Path)

	// The loop still resolves: each section sees the other cut to None, which
	// its OR ignores.
	got := levels(tr)
	assert.Equal(t, "Normal", got["Loop/A"])
}

func TestTracker_SnapshotHashIsStable(t *testing.T) {
	a := newTracker(t).Snapshot()
	b := newTracker(t).Snapshot()
	assert.Equal(t, ir.MustSnapshotHash(a), ir.MustSnapshotHash(b))

	tr := newTracker(t)
	require.NoError(t, tr.ApplyItemAction("bombs", item.Primary))
	assert.NotEqual(t, ir.MustSnapshotHash(a), ir.MustSnapshotHash(tr.Snapshot()))
}

func TestPackPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"scripts/init.lua", "scripts/init.lua", true},
		{"./scripts//init.lua", "scripts/init.lua", true},
		{`scripts\logic.lua`, "scripts/logic.lua", true},
		{"scripts/../items.json", "items.json", true},
		{"../outside.lua", "", false},
		{"/abs.lua", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		got, err := PackPath(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidPath, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
