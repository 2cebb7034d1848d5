package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Shopify/go-lua"
)

// HandlerKind is a category of multiworld sync event.
type HandlerKind string

const (
	HandlerClear     HandlerKind = "clear"
	HandlerItem      HandlerKind = "item"
	HandlerLocation  HandlerKind = "location"
	HandlerRetrieved HandlerKind = "retrieved"
	HandlerSetReply  HandlerKind = "set_reply"
)

var handlerKinds = []HandlerKind{HandlerClear, HandlerItem, HandlerLocation, HandlerRetrieved, HandlerSetReply}

// ParseHandlerKind converts "clear", "item", "location", "retrieved" or
// "set_reply".
func ParseHandlerKind(s string) (HandlerKind, error) {
	for _, k := range handlerKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown handler kind %q", s)
}

// method is the Archipelago method that registers handlers of this kind.
func (k HandlerKind) method() string {
	switch k {
	case HandlerClear:
		return "AddClearHandler"
	case HandlerItem:
		return "AddItemHandler"
	case HandlerLocation:
		return "AddLocationHandler"
	case HandlerRetrieved:
		return "AddRetrievedHandler"
	case HandlerSetReply:
		return "AddSetReplyHandler"
	}
	return ""
}

// handlersKey names the registry table that keeps callbacks alive between
// calls. Handlers hold integer handles into it, never the functions.
const handlersKey = "packtrack.handlers"

type handler struct {
	name   string
	handle int
}

type handlerRegistry struct {
	next   int
	byKind map[HandlerKind][]handler
}

func (r *handlerRegistry) init(l *lua.State) {
	r.byKind = make(map[HandlerKind][]handler)
	l.NewTable()
	l.SetField(lua.RegistryIndex, handlersKey)
}

// add stores the function on top of the stack under a new handle and pops
// it.
func (r *handlerRegistry) add(l *lua.State, kind HandlerKind, name string) {
	r.next++
	l.Field(lua.RegistryIndex, handlersKey)
	l.Insert(-2)
	l.RawSetInt(-2, r.next)
	l.Pop(1)
	r.byKind[kind] = append(r.byKind[kind], handler{name: name, handle: r.next})
}

// push pushes the function stored under handle, or nil.
func (r *handlerRegistry) push(l *lua.State, handle int) {
	l.Field(lua.RegistryIndex, handlersKey)
	l.RawGetInt(-1, handle)
	l.Remove(-2)
}

// releaseAll clears every handle. A handle with nothing behind it is logged
// and skipped.
func (r *handlerRegistry) releaseAll(l *lua.State, logger *slog.Logger) {
	kinds := make([]string, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	l.Field(lua.RegistryIndex, handlersKey)
	for _, k := range kinds {
		for _, hd := range r.byKind[HandlerKind(k)] {
			l.RawGetInt(-1, hd.handle)
			missing := l.IsNil(-1)
			l.Pop(1)
			if missing {
				logger.Error("failed to release handler",
					"kind", k,
					"name", hd.name,
					"handle", hd.handle)
				continue
			}
			l.PushNil()
			l.RawSetInt(-2, hd.handle)
		}
	}
	l.Pop(1)
	r.byKind = make(map[HandlerKind][]handler)
}

// Handlers lists the names of the handlers registered for kind, in
// registration order.
func (h *Host) Handlers(kind HandlerKind) []string {
	out := make([]string, 0, len(h.handlers.byKind[kind]))
	for _, hd := range h.handlers.byKind[kind] {
		out = append(out, hd.name)
	}
	return out
}

// Notify calls every handler of kind with args, in registration order. A
// failing handler is logged and the others still run; the failures are
// returned joined.
//
// Supported argument types are nil, bool, integers, float64, string, []any
// and map[string]any.
func (h *Host) Notify(ctx context.Context, kind HandlerKind, args ...any) error {
	if h.closed {
		return ErrClosed
	}
	restore := h.enter(ctx)
	defer restore()

	var errs []error
	for _, hd := range h.handlers.byKind[kind] {
		if err := h.callHandler(hd, args); err != nil {
			h.logger.Error("handler failed",
				"kind", string(kind),
				"name", hd.name,
				"error", err)
			errs = append(errs, fmt.Errorf("%s handler %q: %w", kind, hd.name, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Host) callHandler(hd handler, args []any) error {
	l := h.l
	top := l.Top()
	defer l.SetTop(top)

	if !l.CheckStack(len(args) + 1) {
		return fmt.Errorf("%w: %d arguments", ErrStackOverflow, len(args))
	}
	h.handlers.push(l, hd.handle)
	if !l.IsFunction(-1) {
		return fmt.Errorf("handle %d does not hold a function", hd.handle)
	}
	for _, a := range args {
		if err := pushValue(l, a); err != nil {
			return err
		}
	}
	return l.ProtectedCall(len(args), 0, 0)
}

// pushValue converts a Go value to Lua.
func pushValue(l *lua.State, v any) error {
	switch v := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int64:
		l.PushNumber(float64(v))
	case float64:
		l.PushNumber(v)
	case string:
		l.PushString(v)
	case []any:
		if !l.CheckStack(2) {
			return ErrStackOverflow
		}
		l.NewTable()
		for i, e := range v {
			if err := pushValue(l, e); err != nil {
				return err
			}
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		if !l.CheckStack(2) {
			return ErrStackOverflow
		}
		l.NewTable()
		for k, e := range v {
			if err := pushValue(l, e); err != nil {
				return err
			}
			l.SetField(-2, k)
		}
	default:
		return fmt.Errorf("cannot pass %T to a script", v)
	}
	return nil
}
