package engine

import "fmt"

// DepthQuota bounds rule nesting within one query.
//
// CycleGuard catches reference loops (A -> B -> A); the quota catches
// pathologically deep but acyclic nesting ({[{[{[...]}]}]}). Together they
// guarantee every query terminates.
type DepthQuota struct {
	max     int
	current int
}

// NewDepthQuota creates a quota allowing max nested rule evaluations.
func NewDepthQuota(max int) *DepthQuota {
	return &DepthQuota{max: max}
}

// Enter descends one level. It returns DepthExceededError past the limit, in
// which case the caller must not Leave.
func (q *DepthQuota) Enter() error {
	if q.current >= q.max {
		return &DepthExceededError{Depth: q.current + 1, Limit: q.max}
	}
	q.current++
	return nil
}

// Leave ascends one level.
func (q *DepthQuota) Leave() {
	if q.current > 0 {
		q.current--
	}
}

// Current returns the current depth.
func (q *DepthQuota) Current() int {
	return q.current
}

// DepthExceededError reports a query that nested past the quota.
type DepthExceededError struct {
	Depth int
	Limit int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("rule nesting exceeded depth quota: %d > %d", e.Depth, e.Limit)
}
