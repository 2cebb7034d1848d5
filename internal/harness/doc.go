// Package harness runs YAML tracking scenarios against a pack.
//
// A scenario opens a pack for a variant, applies a list of steps (item
// changes, Lua snippets, handler notifications) and then checks assertions
// on the resulting levels. Every step is journaled to an in-memory SQLite
// store so assertions can look at how a level evolved.
//
// # Scenario Format
//
//	name: vault_opens
//	description: "Bombs open the vault"
//	pack: ../packs/castle        # relative to the scenario file
//	variant: standard
//	init: scripts/init.lua       # optional
//	section_policy: own          # optional: own | parent
//	steps:
//	  - item: bombs
//	    action: primary
//	  - item: sword
//	    stage: 1
//	  - lua: |
//	      Tracker:AddLocations("extra.json")
//	  - notify: item
//	    args: [1, 1001, "Bombs", {player: "p1"}]
//	assertions:
//	  - type: level
//	    path: Castle/Vault
//	    expect: Inspect
//	  - type: history
//	    path: Castle/Vault
//	    levels: [None, Inspect, Inspect, Inspect, Inspect]
//
// # Assertion Types
//
//   - level: the final level of a location or section path
//   - summary: the aggregated status of a location
//   - rule: the level an ad hoc rule resolves to
//   - provider_count: how much of a code the items provide
//   - handlers: how many callbacks of a kind the scripts registered
//   - history: the level of a path after the initial open and every step
//
// # Determinism
//
// Run tokens come from testutil.SequentialTokens and the journal lives in
// memory, so the trace of a scenario is byte-identical across runs and can
// be compared against a golden file.
package harness
