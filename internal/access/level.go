// Package access defines the six-valued accessibility lattice and the AND/OR
// combiners used to fold rule results into a single verdict.
//
// Levels carry stable ordinals (None=0 .. Cleared=5) because scripts exchange
// them as integers, but they are not compared by ordinal anywhere. Folding goes
// through AndCombiner and OrCombiner only.
package access

import (
	"encoding/json"
	"fmt"
)

// Level is a graded reachability verdict.
type Level int

const (
	None          Level = 0
	Partial       Level = 1
	Inspect       Level = 2
	SequenceBreak Level = 3
	Normal        Level = 4
	Cleared       Level = 5
)

var levelNames = [...]string{
	None:          "None",
	Partial:       "Partial",
	Inspect:       "Inspect",
	SequenceBreak: "SequenceBreak",
	Normal:        "Normal",
	Cleared:       "Cleared",
}

// All lists every level in ordinal order.
func All() []Level {
	return []Level{None, Partial, Inspect, SequenceBreak, Normal, Cleared}
}

// FromOrdinal converts a script-supplied ordinal. ok is false outside 0..5.
func FromOrdinal(n int) (Level, bool) {
	if n < int(None) || n > int(Cleared) {
		return None, false
	}
	return Level(n), true
}

// Parse converts a level name ("Normal", "SequenceBreak", ...) back to a Level.
func Parse(name string) (Level, error) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return None, fmt.Errorf("unknown accessibility level %q", name)
}

// Ordinal returns the integer exchanged with scripts.
func (l Level) Ordinal() int {
	return int(l)
}

// String implements fmt.Stringer.
func (l Level) String() string {
	if l < None || l > Cleared {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a level name.
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("accessibility level: %w", err)
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalYAML accepts a level name in scenario files.
func (l *Level) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
