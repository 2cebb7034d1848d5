package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Shopify/go-lua"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/compiler"
	"github.com/roach88/packtrack/internal/tracker"
)

var tracer = otel.Tracer("packtrack.script")

// ErrClosed is returned by a Host after Close.
var ErrClosed = errors.New("script host is closed")

// Host is a sandboxed Lua state bound to one Tracker.
type Host struct {
	l       *lua.State
	tracker *tracker.Tracker
	logger  *slog.Logger

	// ctx is the context of the outermost script run, used for tracker
	// merges triggered from Lua.
	ctx context.Context

	cell     borrowCell
	handlers handlerRegistry
	closed   bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger that receives script output and handler
// failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// New creates a Host bound to t and attaches it to t as the rule call
// dispatcher.
func New(t *tracker.Tracker, opts ...Option) *Host {
	h := &Host{
		l:       lua.NewState(),
		tracker: t,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.openSandbox()
	h.handlers.init(h.l)
	h.registerGlobals()
	t.AttachScripts(h)
	return h
}

// openSandbox opens the safe subset of the standard library.
func (h *Host) openSandbox() {
	libs := []struct {
		name string
		open lua.Function
	}{
		{"_G", lua.BaseOpen},
		{"string", lua.StringOpen},
		{"table", lua.TableOpen},
		{"math", lua.MathOpen},
		{"bit32", lua.Bit32Open},
	}
	for _, lib := range libs {
		lua.Require(h.l, lib.name, lib.open, true)
		h.l.Pop(1)
	}

	for _, name := range []string{"dofile", "loadfile"} {
		h.l.PushNil()
		h.l.SetGlobal(name)
	}

	h.l.PushGoFunction(h.print)
	h.l.SetGlobal("print")
}

// print sends script output to the logger, arguments joined by tabs.
func (h *Host) print(l *lua.State) int {
	n := l.Top()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, describe(l, i))
	}
	h.logger.Info(strings.Join(parts, "\t"), "source", "lua")
	return 0
}

func (h *Host) registerGlobals() {
	l := h.l
	l.NewTable()
	for _, level := range access.All() {
		l.PushInteger(level.Ordinal())
		l.SetField(-2, level.String())
	}
	l.SetGlobal("AccessibilityLevel")

	h.registerTracker()
	h.registerScriptHost()
	h.registerArchipelago()
}

// LoadScript runs a pack-relative Lua file. A failing script is an error
// the caller should treat as fatal to pack initialization.
func (h *Host) LoadScript(ctx context.Context, path string) error {
	if h.closed {
		return ErrClosed
	}
	ctx, span := tracer.Start(ctx, "script.LoadScript",
		trace.WithAttributes(attribute.String("pack.path", path)),
	)
	defer span.End()

	restore := h.enter(ctx)
	defer restore()

	if err := h.loadScript(path); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// DoString runs a chunk of Lua source. name labels the chunk in errors.
func (h *Host) DoString(ctx context.Context, name, src string) error {
	if h.closed {
		return ErrClosed
	}
	restore := h.enter(ctx)
	defer restore()
	return h.run(name, []byte(src))
}

// enter records ctx for the duration of an outermost run.
func (h *Host) enter(ctx context.Context) func() {
	prev := h.ctx
	h.ctx = ctx
	return func() { h.ctx = prev }
}

func (h *Host) loadScript(path string) error {
	clean, data, err := tracker.ReadFile(h.tracker.FS(), path)
	if err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	if err := h.run(clean, data); err != nil {
		return fmt.Errorf("load script %s: %w", clean, err)
	}
	h.logger.Debug("script loaded", "path", clean)
	return nil
}

// run compiles and executes src, leaving the stack as it found it.
func (h *Host) run(name string, src []byte) error {
	l := h.l
	top := l.Top()
	defer l.SetTop(top)

	if err := lua.LoadBuffer(l, string(compiler.StripBOM(src)), "@"+name, "t"); err != nil {
		return err
	}
	return l.ProtectedCall(0, 0, 0)
}

// WithTracker runs fn with shared access to the tracker.
func (h *Host) WithTracker(fn func(*tracker.Tracker) error) error {
	if err := h.cell.borrow(); err != nil {
		return err
	}
	defer h.cell.release()
	return fn(h.tracker)
}

// WithTrackerMut runs fn with exclusive access to the tracker.
func (h *Host) WithTrackerMut(fn func(*tracker.Tracker) error) error {
	if err := h.cell.borrowMut(); err != nil {
		return err
	}
	defer h.cell.releaseMut()
	return fn(h.tracker)
}

// Close releases every registered handler. The Host must not be used
// afterwards.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.handlers.releaseAll(h.l, h.logger)
	h.closed = true
}
