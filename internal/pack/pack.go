// Package pack wires a tracking session together: a Tracker over the pack's
// files, a script host bound to it, and the pack's init script.
package pack

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/packtrack/internal/engine"
	"github.com/roach88/packtrack/internal/script"
	"github.com/roach88/packtrack/internal/tracker"
)

var tracer = otel.Tracer("packtrack.pack")

// DefaultInitScript is the script a pack runs on open.
const DefaultInitScript = "scripts/init.lua"

// Options configures Open.
type Options struct {
	// InitScript is the pack-relative entry script. Empty means
	// DefaultInitScript.
	InitScript string

	Logger        *slog.Logger
	EngineOptions []engine.EngineOption
}

// Session is an open pack.
type Session struct {
	Tracker *tracker.Tracker
	Scripts *script.Host
}

// Close releases the script host.
func (s *Session) Close() {
	s.Scripts.Close()
}

// OpenDir opens the pack rooted at dir.
func OpenDir(ctx context.Context, dir, variant string, opts Options) (*Session, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open pack: %s is not a directory", dir)
	}
	return Open(ctx, os.DirFS(dir), variant, opts)
}

// Open creates a session over fsys and runs the init script. A failing init
// script fails the open.
func Open(ctx context.Context, fsys fs.FS, variant string, opts Options) (*Session, error) {
	ctx, span := tracer.Start(ctx, "pack.Open",
		trace.WithAttributes(attribute.String("pack.variant", variant)),
	)
	defer span.End()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	initScript := opts.InitScript
	if initScript == "" {
		initScript = DefaultInitScript
	}

	fail := func(err error) (*Session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("open pack: %w", err)
	}

	t, err := tracker.New(fsys, variant,
		tracker.WithLogger(logger),
		tracker.WithEngineOptions(opts.EngineOptions...),
	)
	if err != nil {
		return fail(err)
	}

	host := script.New(t, script.WithLogger(logger))
	if err := host.LoadScript(ctx, initScript); err != nil {
		host.Close()
		return fail(err)
	}
	if err := t.Verify(); err != nil {
		host.Close()
		return fail(err)
	}

	locations, sections := 0, 0
	for _, loc := range t.LocationsRecursive() {
		locations++
		sections += len(loc.Sections)
	}
	span.SetAttributes(
		attribute.Int("pack.items", len(t.Items())),
		attribute.Int("pack.locations", locations),
		attribute.Int("pack.sections", sections),
	)
	span.SetStatus(codes.Ok, "")
	logger.Info("pack opened",
		"variant", variant,
		"items", len(t.Items()),
		"locations", locations,
		"sections", sections)

	return &Session{Tracker: t, Scripts: host}, nil
}
