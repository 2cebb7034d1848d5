package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/rule"
)

// CycleWarning reports sections whose access rules reference each other in a
// loop.
//
// Cycles are warnings, not errors: the engine cuts them at query time with
// its visiting set, so a pack with a loop still loads and every query still
// terminates. The warning tells the author which sections will come out as
// None along the loop.
type CycleWarning struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"` // ["A/x", "B/y", "A/x"]
	Message string   `json:"message"`
}

// AnalyzeCycles performs static cycle analysis over section references.
//
// Each section is a node keyed the way a Reference names it: location name
// and section name. A section depends on the references in its own rules and
// in the rules of its location and every ancestor, since resolving it gates
// on all of them.
//
// The algorithm:
//  1. Build section -> referenced sections from the parsed rules
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, and each self-loop, as a warning
//
// Warnings come out in authoring order.
func AnalyzeCycles(locations []ir.Location) []CycleWarning {
	g := buildReferenceGraph(locations)
	if len(g.order) == 0 {
		return nil
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			warnings = append(warnings, cycleSCCToWarning(scc, g))
		}
	}
	return warnings
}

// referenceGraph maps a section key to the section keys it references.
type referenceGraph struct {
	order []string
	edges map[string][]string
	rank  map[string]int
}

func (g *referenceGraph) addNode(key string) {
	if _, ok := g.edges[key]; ok {
		return
	}
	g.rank[key] = len(g.order)
	g.order = append(g.order, key)
	g.edges[key] = []string{}
}

func referenceKey(location, section string) string {
	return norm.NFC.String(location) + "/" + norm.NFC.String(section)
}

func buildReferenceGraph(locations []ir.Location) *referenceGraph {
	g := &referenceGraph{edges: make(map[string][]string), rank: make(map[string]int)}

	var visit func(loc *ir.Location, inherited []rule.Rule)
	visit = func(loc *ir.Location, inherited []rule.Rule) {
		gating := append(inherited[:len(inherited):len(inherited)], loc.Rules...)
		for _, sec := range loc.Sections {
			from := referenceKey(loc.Name, sec.Name)
			g.addNode(from)
			for _, r := range append(gating[:len(gating):len(gating)], sec.Rules...) {
				for _, ref := range rule.References(r) {
					g.edges[from] = append(g.edges[from], referenceKey(ref.Location, ref.Section))
				}
			}
		}
		for i := range loc.Children {
			visit(&loc.Children[i], gating)
		}
	}
	for i := range locations {
		visit(&locations[i], nil)
	}

	// References to sections that do not exist resolve to None at query time
	// and cannot be part of a loop.
	for from, tos := range g.edges {
		kept := tos[:0]
		for _, to := range tos {
			if _, ok := g.edges[to]; ok {
				kept = append(kept, to)
			}
		}
		g.edges[from] = kept
	}
	return g
}

func hasSelfLoop(node string, g *referenceGraph) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting nodes in authoring order.
func tarjanSCC(g *referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a warning whose path starts at the
// earliest authored member and walks back to it.
func cycleSCCToWarning(scc []string, g *referenceGraph) CycleWarning {
	start := scc[0]
	for _, node := range scc[1:] {
		if g.rank[node] < g.rank[start] {
			start = node
		}
	}

	if len(scc) == 1 {
		return CycleWarning{
			Code:    ErrCodeRefCycle,
			Path:    []string{start, start},
			Message: fmt.Sprintf("section references itself: %s", start),
		}
	}

	path := reconstructCyclePath(start, scc, g)
	return CycleWarning{
		Code:    ErrCodeRefCycle,
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath follows edges within the SCC from start until it
// returns to start.
func reconstructCyclePath(start string, scc []string, g *referenceGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
