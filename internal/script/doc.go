// Package script hosts the pack's Lua scripts.
//
// A Host owns one sandboxed Lua 5.2 state. Scripts see four globals besides
// the safe standard libraries:
//
//	Tracker             AddMaps, AddItems, AddLocations, AddLayouts,
//	                    ProviderCountForCode, ActiveVariantUID
//	ScriptHost          LoadScript
//	Archipelago         AddClearHandler, AddItemHandler, AddLocationHandler,
//	                    AddRetrievedHandler, AddSetReplyHandler
//	AccessibilityLevel  None, Partial, Inspect, SequenceBreak, Normal, Cleared
//
// The bound objects are strict: reading or writing a member they do not
// have raises an error in the script.
//
// The Host also serves rule calls ($name|arg) for the engine. Tracker access
// from either side goes through a borrow guard: mutations need exclusive
// access, queries and rule calls share it. A script that tries to mutate the
// tracker from inside a rule call fails instead of changing state under a
// running query.
//
// A Host is single-threaded, like the Lua state it wraps.
package script
