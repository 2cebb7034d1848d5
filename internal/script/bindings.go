package script

import (
	"context"

	"github.com/Shopify/go-lua"

	"github.com/roach88/packtrack/internal/tracker"
)

const (
	trackerName     = "Tracker"
	scriptHostName  = "ScriptHost"
	archipelagoName = "Archipelago"
)

func (h *Host) registerTracker() {
	merge := func(add func(ctx context.Context, path string) error) lua.Function {
		return func(l *lua.State) int {
			lua.CheckUserData(l, 1, trackerName)
			path := lua.CheckString(l, 2)
			err := h.WithTrackerMut(func(*tracker.Tracker) error {
				return add(h.ctx, path)
			})
			if err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			return 0
		}
	}

	h.register(object{
		name: trackerName,
		methods: map[string]lua.Function{
			"AddMaps":  merge(h.tracker.AddMaps),
			"AddItems": merge(h.tracker.AddItems),
			"AddLocations": merge(func(ctx context.Context, path string) error {
				_, err := h.tracker.AddLocations(ctx, path)
				return err
			}),
			"AddLayouts":           merge(h.tracker.AddLayouts),
			"ProviderCountForCode": h.providerCountForCode,
		},
		fields: map[string]func(*lua.State){
			"ActiveVariantUID": func(l *lua.State) {
				l.PushString(h.tracker.ActiveVariantUID())
			},
		},
	})
}

func (h *Host) providerCountForCode(l *lua.State) int {
	lua.CheckUserData(l, 1, trackerName)
	code := lua.CheckString(l, 2)

	var count int
	err := h.WithTracker(func(t *tracker.Tracker) error {
		n, err := t.ProviderCountForCode(code)
		count = n
		return err
	})
	if err != nil {
		lua.Errorf(l, "%s", err.Error())
	}
	l.PushInteger(count)
	return 1
}

func (h *Host) registerScriptHost() {
	h.register(object{
		name: scriptHostName,
		methods: map[string]lua.Function{
			"LoadScript": func(l *lua.State) int {
				lua.CheckUserData(l, 1, scriptHostName)
				path := lua.CheckString(l, 2)
				if err := h.loadScript(path); err != nil {
					lua.Errorf(l, "LoadScript: failed to execute: %s", err.Error())
				}
				return 0
			},
		},
	})
}

func (h *Host) registerArchipelago() {
	add := func(kind HandlerKind) lua.Function {
		return func(l *lua.State) int {
			lua.CheckUserData(l, 1, archipelagoName)
			name := lua.CheckString(l, 2)
			if !l.IsFunction(3) {
				lua.Errorf(l, "callback must be a function")
			}
			l.PushValue(3)
			h.handlers.add(l, kind, name)
			h.logger.Debug("handler registered", "kind", string(kind), "name", name)
			return 0
		}
	}

	methods := make(map[string]lua.Function, len(handlerKinds))
	for _, kind := range handlerKinds {
		methods[kind.method()] = add(kind)
	}
	h.register(object{name: archipelagoName, methods: methods})
}
