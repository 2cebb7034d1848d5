package engine

import "github.com/roach88/packtrack/internal/id"

// CycleGuard tracks the nodes currently being evaluated in one query.
//
// A node may be evaluated many times in a query (siblings can reference the
// same section), but it may not be entered again while it is still on the
// evaluation stack. That re-entry is a reference cycle:
//
//	@Cave/Chest -> @Lake/Island -> @Cave/Chest   <- CYCLE DETECTED
//
// The guard is created per query and is not safe for concurrent use.
type CycleGuard struct {
	active map[id.ID[id.Any]]bool
}

// NewCycleGuard creates an empty guard.
func NewCycleGuard() *CycleGuard {
	return &CycleGuard{active: make(map[id.ID[id.Any]]bool)}
}

// Enter marks node as under evaluation. It returns false when node is already
// on the stack, in which case the caller must not descend and must not Leave.
func (g *CycleGuard) Enter(node id.ID[id.Any]) bool {
	if g.active[node] {
		return false
	}
	g.active[node] = true
	return true
}

// Leave pops node off the evaluation stack.
func (g *CycleGuard) Leave(node id.ID[id.Any]) {
	delete(g.active, node)
}

// Depth returns the number of nodes under evaluation.
func (g *CycleGuard) Depth() int {
	return len(g.active)
}
