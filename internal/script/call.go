package script

import (
	"errors"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/roach88/packtrack/internal/engine"
)

// ErrNotFunction is returned when a rule calls a global that is not a
// function.
var ErrNotFunction = errors.New("not a function")

// ErrStackOverflow is returned when arguments do not fit on the Lua stack.
var ErrStackOverflow = errors.New("lua stack overflow")

// Call invokes the global function name with string arguments and returns
// its first result. It implements engine.ScriptCaller.
func (h *Host) Call(name string, args []string) (engine.ScriptValue, error) {
	if h.closed {
		return engine.ScriptValue{}, ErrClosed
	}
	if err := h.cell.borrow(); err != nil {
		return engine.ScriptValue{}, err
	}
	defer h.cell.release()

	l := h.l
	top := l.Top()
	defer l.SetTop(top)

	if !l.CheckStack(len(args) + 1) {
		return engine.ScriptValue{}, fmt.Errorf("%w: %d arguments", ErrStackOverflow, len(args))
	}
	l.Global(name)
	if !l.IsFunction(-1) {
		return engine.ScriptValue{}, fmt.Errorf("%w: global %q is %s", ErrNotFunction, name, lua.TypeNameOf(l, -1))
	}
	for _, a := range args {
		l.PushString(a)
	}
	if err := l.ProtectedCall(len(args), 1, 0); err != nil {
		return engine.ScriptValue{}, err
	}
	return scriptValue(l, -1), nil
}

func scriptValue(l *lua.State, index int) engine.ScriptValue {
	v := engine.ScriptValue{TypeName: lua.TypeNameOf(l, index)}
	switch l.TypeOf(index) {
	case lua.TypeNil:
		v.Kind = engine.ValueNil
	case lua.TypeBoolean:
		v.Kind = engine.ValueBool
		v.Bool = l.ToBoolean(index)
	case lua.TypeNumber:
		v.Kind = engine.ValueNumber
		v.Number, _ = l.ToNumber(index)
	default:
		v.Kind = engine.ValueOther
	}
	return v
}
