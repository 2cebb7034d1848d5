// Package tracker owns the state of one tracking session and answers
// accessibility queries against it.
//
// A Tracker holds the maps, items, layouts and the flattened location graph
// of a pack. Authoring files are merged in through the Add* methods, which
// read pack-relative paths from the pack's file system. Queries are
// delegated to an engine.Engine that resolves rules against the Tracker
// itself; nothing is cached, so item mutations are visible to the next query
// without invalidation.
//
// A Tracker is not safe for concurrent use. The script host serializes
// access to it with a borrow guard.
package tracker
