// Package graph flattens authored location trees into an id-linked arena.
//
// The Graph owns every Location and Section. Relationships are stored as id
// values and resolved back through the Graph; nodes never point at each other.
// Callers receive copies.
package graph

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/packtrack/internal/id"
	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/rule"
)

// LocationID names a flat location.
type LocationID = id.ID[Location]

// SectionID names a flat section.
type SectionID = id.ID[Section]

// Location is the flattened form of an ir.Location.
type Location struct {
	ID           LocationID
	Parent       LocationID // zero for roots
	Children     []LocationID
	Sections     []SectionID
	Name         string
	Path         string
	AccessRules  []string
	Rules        []rule.Rule
	MapLocations []ir.MapLocation
}

// HasParent reports whether the location is nested under another.
func (l Location) HasParent() bool {
	return l.Parent.Valid()
}

// Section is the flattened form of an ir.Section.
type Section struct {
	ID          SectionID
	Location    LocationID
	Name        string
	Path        string
	AccessRules []string
	Rules       []rule.Rule
}

// Graph is the arena of flattened locations and sections.
type Graph struct {
	locations map[LocationID]*Location
	sections  map[SectionID]*Section
	roots     []LocationID
	order     []LocationID
	byName    map[string][]LocationID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		locations: make(map[LocationID]*Location),
		sections:  make(map[SectionID]*Section),
		byName:    make(map[string][]LocationID),
	}
}

// Add flattens nested locations into the graph, minting ids from alloc, and
// returns the ids of the new roots.
func (g *Graph) Add(alloc *id.Allocator, nested []ir.Location) []LocationID {
	roots := make([]LocationID, 0, len(nested))
	for i := range nested {
		roots = append(roots, g.flatten(alloc, &nested[i], LocationID{}, ""))
	}
	g.roots = append(g.roots, roots...)
	return roots
}

func (g *Graph) flatten(alloc *id.Allocator, src *ir.Location, parent LocationID, prefix string) LocationID {
	loc := &Location{
		ID:           id.Next[Location](alloc),
		Parent:       parent,
		Name:         src.Name,
		Path:         joinPath(prefix, src.Name),
		AccessRules:  slices.Clone(src.AccessRules),
		Rules:        slices.Clone(src.Rules),
		MapLocations: slices.Clone(src.MapLocations),
	}
	g.locations[loc.ID] = loc
	g.order = append(g.order, loc.ID)
	key := nameKey(src.Name)
	g.byName[key] = append(g.byName[key], loc.ID)

	for _, s := range src.Sections {
		sec := &Section{
			ID:          id.Next[Section](alloc),
			Location:    loc.ID,
			Name:        s.Name,
			Path:        joinPath(loc.Path, s.Name),
			AccessRules: slices.Clone(s.AccessRules),
			Rules:       slices.Clone(s.Rules),
		}
		g.sections[sec.ID] = sec
		loc.Sections = append(loc.Sections, sec.ID)
	}

	for i := range src.Children {
		child := g.flatten(alloc, &src.Children[i], loc.ID, loc.Path)
		loc.Children = append(loc.Children, child)
	}
	return loc.ID
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func nameKey(name string) string {
	return norm.NFC.String(name)
}

// Location returns a copy of the location with the given id.
func (g *Graph) Location(lid LocationID) (Location, bool) {
	loc, ok := g.locations[lid]
	if !ok {
		return Location{}, false
	}
	return loc.clone(), true
}

// Section returns a copy of the section with the given id.
func (g *Graph) Section(sid SectionID) (Section, bool) {
	sec, ok := g.sections[sid]
	if !ok {
		return Section{}, false
	}
	return sec.clone(), true
}

func (l *Location) clone() Location {
	c := *l
	c.Children = slices.Clone(l.Children)
	c.Sections = slices.Clone(l.Sections)
	c.AccessRules = slices.Clone(l.AccessRules)
	c.Rules = slices.Clone(l.Rules)
	c.MapLocations = slices.Clone(l.MapLocations)
	return c
}

func (s *Section) clone() Section {
	c := *s
	c.AccessRules = slices.Clone(s.AccessRules)
	c.Rules = slices.Clone(s.Rules)
	return c
}

// Roots lists top-level locations in insertion order.
func (g *Graph) Roots() []LocationID {
	return append([]LocationID(nil), g.roots...)
}

// All lists every location depth-first, parents before children.
func (g *Graph) All() []LocationID {
	return append([]LocationID(nil), g.order...)
}

// Len returns the number of locations and sections.
func (g *Graph) Len() (locations, sections int) {
	return len(g.locations), len(g.sections)
}

// FindSection resolves a Reference by name: the first location (in insertion
// order) called location that owns a section called section. Names compare
// after NFC normalization.
func (g *Graph) FindSection(location, section string) (Section, bool) {
	want := nameKey(section)
	for _, lid := range g.byName[nameKey(location)] {
		for _, sid := range g.locations[lid].Sections {
			if sec := g.sections[sid]; nameKey(sec.Name) == want {
				return *sec, true
			}
		}
	}
	return Section{}, false
}

// FindLocation returns the first location with the given name.
func (g *Graph) FindLocation(name string) (Location, bool) {
	ids := g.byName[nameKey(name)]
	if len(ids) == 0 {
		return Location{}, false
	}
	return *g.locations[ids[0]], true
}

// Verify checks the structural invariants: every child records its actual
// parent, every section records its owner, and parent chains terminate.
func (g *Graph) Verify() error {
	for _, loc := range g.locations {
		for _, cid := range loc.Children {
			child, ok := g.locations[cid]
			if !ok {
				return fmt.Errorf("location %s (%q): dangling child %s", loc.ID, loc.Path, cid)
			}
			if child.Parent != loc.ID {
				return fmt.Errorf("location %s (%q): parent %s, expected %s", cid, child.Path, child.Parent, loc.ID)
			}
		}
		for _, sid := range loc.Sections {
			sec, ok := g.sections[sid]
			if !ok {
				return fmt.Errorf("location %s (%q): dangling section %s", loc.ID, loc.Path, sid)
			}
			if sec.Location != loc.ID {
				return fmt.Errorf("section %s (%q): owner %s, expected %s", sid, sec.Path, sec.Location, loc.ID)
			}
		}

		seen := map[LocationID]bool{loc.ID: true}
		for p := loc.Parent; p.Valid(); {
			if seen[p] {
				return fmt.Errorf("location %s (%q): parent chain cycles through %s", loc.ID, loc.Path, p)
			}
			seen[p] = true
			parent, ok := g.locations[p]
			if !ok {
				return fmt.Errorf("location %s (%q): dangling parent %s", loc.ID, loc.Path, p)
			}
			p = parent.Parent
		}
	}
	return nil
}
