// Package engine resolves access rules to accessibility levels.
//
// Resolution is a pure function of the current tracker state. Nothing is
// cached; every query walks the rules again, so item and script changes need
// no invalidation bookkeeping.
//
// RESOLUTION:
//
//   - Multi: AND of all children
//   - Item: Normal when the provider count is positive, else None
//   - Call: script result; numbers like Item, booleans true/false, anything else None
//   - AccessibilityLevelCall: script-returned ordinal; an invalid ordinal is Normal
//   - Reference: the named section's level, unchanged
//   - Checkable: None stays None, anything else is Inspect
//   - Optional: None becomes SequenceBreak, anything else passes through
//
// A location is the OR of its own rules, forced to None when its parent is
// None. Sections are gated the same way on their location; see SectionPolicy.
//
// FAILURE MODEL:
//
// Data and script faults never abort a query. They are logged as
// RuntimeErrors and the offending node degrades (usually to None).
//
// TERMINATION:
//
// Reference cycles are cut by a visiting set (CycleGuard) and rule nesting is
// bounded by a depth quota (DepthQuota). Script calls have no timeout: a
// non-terminating script blocks the query.
package engine
