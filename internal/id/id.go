// Package id provides typed, monotonically increasing identifiers for graph nodes.
//
// An ID[T] carries its node kind in the type parameter so a location id cannot be
// passed where a section id is expected. IDs are minted by an Allocator during
// flattening, never reused and never persisted.
package id

import (
	"fmt"
	"sync/atomic"
)

// ID is an opaque 64-bit identifier tagged with the kind of node it names.
//
// The zero value is invalid; allocators start handing out values at 1.
type ID[T any] struct {
	v uint64
}

// Any is the kind tag of an erased ID.
type Any struct{}

// Value returns the raw counter value.
func (i ID[T]) Value() uint64 {
	return i.v
}

// Valid reports whether the id was minted by an allocator.
func (i ID[T]) Valid() bool {
	return i.v != 0
}

// Erase drops the kind tag.
func (i ID[T]) Erase() ID[Any] {
	return ID[Any]{v: i.v}
}

// String implements fmt.Stringer.
func (i ID[T]) String() string {
	return fmt.Sprintf("#%d", i.v)
}

// Retype reinterprets an id under another kind tag. Callers must know the
// underlying node really is a U.
func Retype[U, T any](i ID[T]) ID[U] {
	return ID[U]{v: i.v}
}

// Allocator mints ids from a single shared counter, so ids of different kinds
// never collide once erased.
//
// Thread-safety: safe for concurrent use (atomic counter), although the
// tracker only allocates from one goroutine.
type Allocator struct {
	seq atomic.Uint64
}

// NewAllocator creates an allocator whose first id is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next mints the next id of kind T.
func Next[T any](a *Allocator) ID[T] {
	return ID[T]{v: a.seq.Add(1)}
}

// Current returns the last minted counter value without advancing.
func (a *Allocator) Current() uint64 {
	return a.seq.Load()
}
