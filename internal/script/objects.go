package script

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Shopify/go-lua"
)

// object describes a strict global: a userdata whose metatable resolves
// methods and read-only fields and rejects everything else.
type object struct {
	name    string
	methods map[string]lua.Function
	fields  map[string]func(*lua.State)
}

// register creates the metatable and the global for o.
func (h *Host) register(o object) {
	l := h.l
	lua.NewMetaTable(l, o.name)

	l.PushGoFunction(func(l *lua.State) int {
		key := describe(l, 2)
		if fn, ok := o.methods[key]; ok {
			l.PushGoFunction(fn)
			return 1
		}
		if field, ok := o.fields[key]; ok {
			field(l)
			return 1
		}
		lua.Errorf(l, "`%s.%s` does not exist", o.name, key)
		return 0
	})
	l.SetField(-2, "__index")

	l.PushGoFunction(func(l *lua.State) int {
		key := describe(l, 2)
		if _, ok := o.fields[key]; ok {
			lua.Errorf(l, "`%s.%s` is read-only", o.name, key)
		}
		if _, ok := o.methods[key]; ok {
			lua.Errorf(l, "`%s.%s` is read-only", o.name, key)
		}
		lua.Errorf(l, "`%s.%s` does not exist", o.name, key)
		return 0
	})
	l.SetField(-2, "__newindex")

	l.PushGoFunction(func(l *lua.State) int {
		l.PushString(o.name)
		return 1
	})
	l.SetField(-2, "__tostring")
	l.Pop(1)

	l.PushUserData(&o)
	lua.SetMetaTableNamed(l, o.name)
	l.SetGlobal(o.name)
}

// describe renders the value at index the way Lua's tostring does for
// primitive types.
func describe(l *lua.State, index int) string {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return strconv.FormatBool(l.ToBoolean(index))
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return formatNumber(n)
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	}
	return lua.TypeNameOf(l, index)
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return fmt.Sprintf("%.14g", n)
}
