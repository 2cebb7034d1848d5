package tracker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/packtrack/internal/compiler"
	"github.com/roach88/packtrack/internal/graph"
	"github.com/roach88/packtrack/internal/item"
)

// LoadReport describes one merged locations file.
type LoadReport struct {
	Path  string
	Roots []graph.LocationID

	// Dropped lists locations and sections skipped for malformed rules.
	Dropped []*compiler.Diagnostic

	// Cycles lists reference loops across every location loaded so far.
	Cycles []compiler.CycleWarning
}

// load reads path and runs merge inside a span.
func (t *Tracker) load(ctx context.Context, kind compiler.Kind, path string, merge func(clean string, data []byte) (int, error)) error {
	_, span := tracer.Start(ctx, "tracker.Add"+string(kind),
		trace.WithAttributes(attribute.String("pack.path", path)),
	)
	defer span.End()

	fail := func(err error) error {
		err = &LoadError{Op: "add " + string(kind), Path: path, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	clean, data, err := ReadFile(t.fsys, path)
	if err != nil {
		return fail(err)
	}

	n, err := merge(clean, data)
	if err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.Int("pack.records", n))
	span.SetStatus(codes.Ok, "")
	t.recordsLoaded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", string(kind))))
	t.logger.Debug("authoring file merged",
		"kind", string(kind),
		"path", clean,
		"records", n)
	return nil
}

// AddMaps merges a maps file.
func (t *Tracker) AddMaps(ctx context.Context, path string) error {
	return t.load(ctx, compiler.KindMaps, path, func(clean string, data []byte) (int, error) {
		maps, err := t.compiler.CompileMaps(data, clean)
		if err != nil {
			return 0, err
		}
		t.maps = append(t.maps, maps...)
		return len(maps), nil
	})
}

// AddItems merges an items file. Every item starts in its initial state.
func (t *Tracker) AddItems(ctx context.Context, path string) error {
	return t.load(ctx, compiler.KindItems, path, func(clean string, data []byte) (int, error) {
		defs, err := t.compiler.CompileItems(data, clean)
		if err != nil {
			return 0, err
		}
		for _, def := range defs {
			t.items = append(t.items, item.New(def, item.WithLogger(t.logger)))
		}
		return len(defs), nil
	})
}

// AddLocations merges a locations file, flattening every tree into the
// graph. Records with malformed rules are dropped and listed in the report.
func (t *Tracker) AddLocations(ctx context.Context, path string) (*LoadReport, error) {
	report := &LoadReport{Path: path}
	err := t.load(ctx, compiler.KindLocations, path, func(clean string, data []byte) (int, error) {
		res, err := t.compiler.CompileLocations(data, clean)
		if err != nil {
			return 0, err
		}

		report.Path = clean
		report.Dropped = res.Dropped
		report.Roots = t.graph.Add(t.alloc, res.Locations)
		t.authored = append(t.authored, res.Locations...)

		report.Cycles = compiler.AnalyzeCycles(t.authored)
		for _, w := range report.Cycles {
			t.logger.Warn("access rules form a reference cycle",
				"code", w.Code,
				"path", w.Path)
		}
		return len(res.Locations), nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// AddLayouts merges a layouts file. A layout replaces an earlier one with the
// same name.
func (t *Tracker) AddLayouts(ctx context.Context, path string) error {
	return t.load(ctx, compiler.KindLayouts, path, func(clean string, data []byte) (int, error) {
		layouts, err := t.compiler.CompileLayouts(data, clean)
		if err != nil {
			return 0, err
		}
		for _, l := range layouts {
			replaced := false
			for i := range t.layouts {
				if t.layouts[i].Name == l.Name {
					t.layouts[i] = l
					replaced = true
					break
				}
			}
			if !replaced {
				t.layouts = append(t.layouts, l)
			}
		}
		return len(layouts), nil
	})
}
