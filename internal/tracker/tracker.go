package tracker

import (
	"io"
	"io/fs"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/packtrack/internal/compiler"
	"github.com/roach88/packtrack/internal/engine"
	"github.com/roach88/packtrack/internal/graph"
	"github.com/roach88/packtrack/internal/id"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/item"
)

var tracer = otel.Tracer("packtrack.tracker")

// Tracker owns the state of one session.
type Tracker struct {
	fsys    fs.FS
	variant string
	logger  *slog.Logger

	compiler *compiler.Compiler
	engine   *engine.Engine

	alloc    *id.Allocator
	graph    *graph.Graph
	authored []ir.Location
	maps     []ir.Map
	items    []*item.StatefulItem
	layouts  []ir.Layout

	recordsLoaded metric.Int64Counter
}

// Option configures a Tracker.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	meters     metric.MeterProvider
	engineOpts []engine.EngineOption
}

// WithLogger sets the logger for the tracker, its items and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMeterProvider sets where tracker metrics are recorded. The default is
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meters = mp
	}
}

// WithEngineOptions passes options through to the resolution engine.
func WithEngineOptions(opts ...engine.EngineOption) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// New creates an empty Tracker reading authoring files from fsys. variant
// is the UID of the pack variant being tracked.
func New(fsys fs.FS, variant string, opts ...Option) (*Tracker, error) {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		meters: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := compiler.New(compiler.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	counter, err := o.meters.Meter("packtrack.tracker").Int64Counter("packtrack.tracker.records_loaded",
		metric.WithDescription("Authoring records merged into the tracker"))
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		fsys:          fsys,
		variant:       variant,
		logger:        o.logger,
		compiler:      c,
		alloc:         id.NewAllocator(),
		graph:         graph.New(),
		recordsLoaded: counter,
	}
	engineOpts := append([]engine.EngineOption{engine.WithLogger(o.logger)}, o.engineOpts...)
	t.engine = engine.New(t, engineOpts...)
	return t, nil
}

// ActiveVariantUID reports the pack variant being tracked.
func (t *Tracker) ActiveVariantUID() string {
	return t.variant
}

// FS returns the pack file system.
func (t *Tracker) FS() fs.FS {
	return t.fsys
}

// AttachScripts routes rule calls to s.
func (t *Tracker) AttachScripts(s engine.ScriptCaller) {
	t.engine.SetScripts(s)
}

// Engine returns the resolution engine.
func (t *Tracker) Engine() *engine.Engine {
	return t.engine
}

// Maps lists the loaded maps in load order.
func (t *Tracker) Maps() []ir.Map {
	return append([]ir.Map(nil), t.maps...)
}

// Layouts lists the loaded layouts in load order.
func (t *Tracker) Layouts() []ir.Layout {
	return append([]ir.Layout(nil), t.layouts...)
}

// Layout returns the layout with the given name.
func (t *Tracker) Layout(name string) (ir.Layout, bool) {
	for _, l := range t.layouts {
		if l.Name == name {
			return l, true
		}
	}
	return ir.Layout{}, false
}

// Items lists the session's items in load order.
func (t *Tracker) Items() []*item.StatefulItem {
	return append([]*item.StatefulItem(nil), t.items...)
}

// Locations lists the top-level locations.
func (t *Tracker) Locations() []graph.Location {
	return t.resolveLocations(t.graph.Roots())
}

// LocationsRecursive lists every location, parents before children.
func (t *Tracker) LocationsRecursive() []graph.Location {
	return t.resolveLocations(t.graph.All())
}

func (t *Tracker) resolveLocations(ids []graph.LocationID) []graph.Location {
	out := make([]graph.Location, 0, len(ids))
	for _, lid := range ids {
		if loc, ok := t.graph.Location(lid); ok {
			out = append(out, loc)
		}
	}
	return out
}

// Location returns the location with the given id.
func (t *Tracker) Location(lid graph.LocationID) (graph.Location, bool) {
	return t.graph.Location(lid)
}

// Section returns the section with the given id.
func (t *Tracker) Section(sid graph.SectionID) (graph.Section, bool) {
	return t.graph.Section(sid)
}

// FindSection resolves a location and section name the way a rule
// Reference does.
func (t *Tracker) FindSection(location, section string) (graph.Section, bool) {
	return t.graph.FindSection(location, section)
}

// FindLocation returns the first location with the given name.
func (t *Tracker) FindLocation(name string) (graph.Location, bool) {
	return t.graph.FindLocation(name)
}

// Sections lists the sections of a location in authoring order.
func (t *Tracker) Sections(loc graph.Location) []graph.Section {
	out := make([]graph.Section, 0, len(loc.Sections))
	for _, sid := range loc.Sections {
		if sec, ok := t.graph.Section(sid); ok {
			out = append(out, sec)
		}
	}
	return out
}

// Verify checks the graph's structural invariants.
func (t *Tracker) Verify() error {
	return t.graph.Verify()
}

