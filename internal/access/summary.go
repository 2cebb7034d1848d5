package access

import "encoding/json"

// Status is the single display verdict of a location, aggregated from the
// levels of its sections.
type Status string

const (
	StatusEmpty         Status = "empty"
	StatusCleared       Status = "cleared"
	StatusSequenceBreak Status = "sequence_break"
	StatusCheckable     Status = "checkable"
	StatusPartial       Status = "partial"
	StatusAccessible    Status = "accessible"
	StatusInaccessible  Status = "inaccessible"
)

// Summary records which kinds of section levels a location holds.
type Summary struct {
	Accessible        bool `json:"accessible"`
	Inaccessible      bool `json:"inaccessible"`
	SequenceBreakable bool `json:"sequence_breakable"`
	Checkable         bool `json:"checkable"`
	AllCleared        bool `json:"all_cleared"`
	Sections          int  `json:"sections"`
}

// Summarize aggregates section levels.
func Summarize(levels []Level) Summary {
	s := Summary{AllCleared: true, Sections: len(levels)}
	for _, l := range levels {
		switch l {
		case None, Partial:
			s.Inaccessible = true
			s.AllCleared = false
		case Inspect:
			s.Checkable = true
			s.AllCleared = false
		case SequenceBreak:
			s.SequenceBreakable = true
			s.AllCleared = false
		case Normal:
			s.Accessible = true
			s.AllCleared = false
		case Cleared:
		}
	}
	return s
}

// Status picks the display verdict. Priority: cleared, sequence break,
// checkable, mixed, accessible, inaccessible.
func (s Summary) Status() Status {
	switch {
	case s.Sections == 0:
		return StatusEmpty
	case s.AllCleared:
		return StatusCleared
	case s.SequenceBreakable:
		return StatusSequenceBreak
	case s.Checkable:
		return StatusCheckable
	case s.Accessible && s.Inaccessible:
		return StatusPartial
	case s.Accessible:
		return StatusAccessible
	default:
		return StatusInaccessible
	}
}

// MarshalJSON includes the derived status.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		Status Status `json:"status"`
	}{plain(s), s.Status()})
}
