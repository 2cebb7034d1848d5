package ir

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/packtrack/internal/rule"
)

// LocationShape is how a map pin is drawn.
type LocationShape string

const (
	ShapeRect    LocationShape = "rect"
	ShapeDiamond LocationShape = "diamond"
)

// UnmarshalJSON rejects unknown shapes.
func (s *LocationShape) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch LocationShape(v) {
	case ShapeRect, ShapeDiamond:
		*s = LocationShape(v)
	case "":
		*s = ShapeRect
	default:
		return fmt.Errorf("unknown location shape %q", v)
	}
	return nil
}

// Map is one map image with pin styling.
type Map struct {
	Name                    string        `json:"name"`
	LocationSize            Int           `json:"location_size"`
	LocationBorderThickness Int           `json:"location_border_thickness"`
	LocationShape           LocationShape `json:"location_shape"`
	Img                     string        `json:"img"`
}

// MapLocation pins a location onto a map.
type MapLocation struct {
	Map string `json:"map"`
	X   Int    `json:"x"`
	Y   Int    `json:"y"`
}

// Section is a checkable spot inside a location.
//
// AccessRules holds the rule text; Rules is filled by the compiler with one
// parsed rule per entry.
type Section struct {
	Name        string      `json:"name"`
	AccessRules []string    `json:"access_rules,omitempty"`
	Rules       []rule.Rule `json:"-"`
}

// Location is the authored, nested form of a location.
type Location struct {
	Name         string        `json:"name"`
	Sections     []Section     `json:"sections,omitempty"`
	AccessRules  []string      `json:"access_rules,omitempty"`
	Rules        []rule.Rule   `json:"-"`
	MapLocations []MapLocation `json:"map_locations,omitempty"`
	Children     []Location    `json:"children,omitempty"`
}

// Walk visits l and its descendants depth-first with their slash-joined
// ancestry path.
func (l *Location) Walk(fn func(path string, loc *Location)) {
	l.walk("", fn)
}

func (l *Location) walk(prefix string, fn func(string, *Location)) {
	path := l.Name
	if prefix != "" {
		path = prefix + "/" + l.Name
	}
	fn(path, l)
	for i := range l.Children {
		l.Children[i].walk(path, fn)
	}
}

// Layout is a named layout tree. Its content is kept undecoded.
type Layout struct {
	Name string          `json:"name"`
	Tree json.RawMessage `json:"tree"`
}
