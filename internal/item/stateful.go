package item

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// ErrUnsupported is returned when a setter does not apply to the item's variant.
var ErrUnsupported = errors.New("operation not supported by item variant")

// Action is a user interaction with an item.
type Action int

const (
	// Primary advances: next stage, toggle on/off, increment, flip left.
	Primary Action = iota
	// Secondary retreats: previous stage, toggle on/off, decrement, flip right.
	Secondary
)

func (a Action) String() string {
	switch a {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction converts "primary" or "secondary".
func ParseAction(s string) (Action, error) {
	switch s {
	case "primary":
		return Primary, nil
	case "secondary":
		return Secondary, nil
	}
	return 0, fmt.Errorf("unknown item action %q", s)
}

// State is the mutable part of a StatefulItem. Fields that do not apply to
// the variant stay zero.
type State struct {
	Stage    int  `json:"stage"`
	Active   bool `json:"active"`
	Quantity int  `json:"quantity"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
}

// StatefulItem pairs an immutable definition with its session state.
//
// Mutations only touch the state; the definition is never modified.
type StatefulItem struct {
	def    Item
	state  State
	logger *slog.Logger
}

// Option configures a StatefulItem.
type Option func(*StatefulItem)

// WithLogger sets the logger used for data faults such as an out-of-range
// stage index.
func WithLogger(logger *slog.Logger) Option {
	return func(s *StatefulItem) {
		s.logger = logger
	}
}

// New creates the session state for def from its initial-state fields.
func New(def Item, opts ...Option) *StatefulItem {
	s := &StatefulItem{
		def:    def,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch v := def.Variant.(type) {
	case Progressive:
		s.state.Stage = v.InitialStageIdx
		s.state.Active = !v.AllowDisabled
	case Toggle:
		s.state.Active = v.InitialActiveState
	case Consumable:
		s.state.Quantity = clampQuantity(v, v.InitialQuantity)
	case ProgressiveToggle:
		s.state.Stage = v.InitialStageIdx
		s.state.Active = v.InitialActiveState
	case ToggleBadged:
		s.state.Active = v.InitialActiveState
	}
	return s
}

// Definition returns the immutable definition.
func (s *StatefulItem) Definition() Item {
	return s.def
}

// State returns a copy of the current state.
func (s *StatefulItem) State() State {
	return s.state
}

// Name returns the item's display name.
func (s *StatefulItem) Name() string {
	return s.def.Name
}

// ProviderCount reports how much of code this item currently provides.
func (s *StatefulItem) ProviderCount(code string) int {
	commonMatch := s.def.Codes.Contains(code)

	switch v := s.def.Variant.(type) {
	case Static:
		return boolCount(commonMatch)

	case Progressive:
		if v.AllowDisabled && !s.state.Active {
			return 0
		}
		return s.scanStages(v.Stages, code)

	case Toggle, ToggleBadged:
		return boolCount(commonMatch && s.state.Active)

	case Consumable:
		if !commonMatch {
			return 0
		}
		return s.state.Quantity

	case ProgressiveToggle:
		return s.scanStages(v.Stages, code)

	case CompositeToggle:
		left := s.state.Left && v.ItemLeft == code
		right := s.state.Right && v.ItemRight == code
		for _, img := range v.Images {
			if img.Codes.Contains(code) {
				left = left || s.state.Left
				right = right || s.state.Right
			}
		}
		return boolCount(left) + boolCount(right)
	}

	return 0
}

// scanStages walks stages from the active index and stops after a stage that
// does not inherit codes.
func (s *StatefulItem) scanStages(stages []Stage, code string) int {
	if s.state.Stage < 0 || s.state.Stage >= len(stages) {
		s.logger.Error("active stage index out of bounds",
			"item", s.def.Name,
			"stage", s.state.Stage,
			"stages", len(stages))
		return 0
	}

	for _, stage := range stages[s.state.Stage:] {
		if stage.Codes.Contains(code) {
			return 1
		}
		if !stage.InheritCodes {
			break
		}
	}
	return 0
}

// Apply performs a user action. Every variant defines a next state for both
// actions; Static ignores them.
func (s *StatefulItem) Apply(a Action) {
	switch v := s.def.Variant.(type) {
	case Progressive:
		if a == Primary {
			s.advanceProgressive(v)
		} else {
			s.retreatProgressive(v)
		}

	case Toggle, ToggleBadged:
		s.state.Active = !s.state.Active

	case Consumable:
		if a == Primary {
			s.state.Quantity = clampQuantity(v, saturatingAdd(s.state.Quantity, v.Increment))
		} else {
			s.state.Quantity = clampQuantity(v, saturatingAdd(s.state.Quantity, -v.Decrement))
		}

	case ProgressiveToggle:
		if a == Primary {
			s.state.Stage = nextStage(s.state.Stage, len(v.Stages), v.Loop)
		} else {
			s.state.Active = !s.state.Active
		}

	case CompositeToggle:
		if a == Primary {
			s.state.Left = !s.state.Left
		} else {
			s.state.Right = !s.state.Right
		}
	}
}

// advanceProgressive moves off -> first stage -> ... -> last stage, then wraps
// when looping (through off when the item may be disabled).
func (s *StatefulItem) advanceProgressive(v Progressive) {
	n := len(v.Stages)
	if n == 0 {
		return
	}
	if v.AllowDisabled && !s.state.Active {
		s.state.Active = true
		s.state.Stage = 0
		return
	}
	if s.state.Stage < n-1 {
		s.state.Stage = max(s.state.Stage+1, 0)
		return
	}
	s.state.Stage = n - 1
	if !v.Loop {
		return
	}
	s.state.Stage = 0
	if v.AllowDisabled {
		s.state.Active = false
	}
}

// retreatProgressive is the inverse of advanceProgressive.
func (s *StatefulItem) retreatProgressive(v Progressive) {
	n := len(v.Stages)
	if n == 0 {
		return
	}
	if v.AllowDisabled && !s.state.Active {
		if v.Loop {
			s.state.Active = true
			s.state.Stage = n - 1
		}
		return
	}
	if s.state.Stage > n-1 {
		s.state.Stage = n - 1
		return
	}
	if s.state.Stage > 0 {
		s.state.Stage--
		return
	}
	s.state.Stage = 0
	switch {
	case v.AllowDisabled:
		s.state.Active = false
	case v.Loop:
		s.state.Stage = n - 1
	}
}

func nextStage(stage, n int, loop bool) int {
	if n == 0 {
		return stage
	}
	if stage < n-1 {
		return max(stage+1, 0)
	}
	if loop {
		return 0
	}
	return n - 1
}

// SetStage jumps a progressive item to stage idx, enabling it.
func (s *StatefulItem) SetStage(idx int) error {
	var n int
	switch v := s.def.Variant.(type) {
	case Progressive:
		n = len(v.Stages)
	case ProgressiveToggle:
		n = len(v.Stages)
	default:
		return fmt.Errorf("set stage on %s item %q: %w", s.def.Kind(), s.def.Name, ErrUnsupported)
	}
	if idx < 0 || idx >= n {
		return fmt.Errorf("set stage on %q: index %d out of range [0,%d)", s.def.Name, idx, n)
	}
	s.state.Stage = idx
	if _, ok := s.def.Variant.(Progressive); ok {
		s.state.Active = true
	}
	return nil
}

// SetActive turns a toggle-like item on or off.
func (s *StatefulItem) SetActive(active bool) error {
	switch s.def.Variant.(type) {
	case Toggle, ToggleBadged, ProgressiveToggle:
		s.state.Active = active
	case Progressive:
		if !active && !s.def.Variant.(Progressive).AllowDisabled {
			return fmt.Errorf("disable %q: item does not allow disabling", s.def.Name)
		}
		s.state.Active = active
	default:
		return fmt.Errorf("set active on %s item %q: %w", s.def.Kind(), s.def.Name, ErrUnsupported)
	}
	return nil
}

// SetQuantity sets a consumable's count, clamped to its bounds.
func (s *StatefulItem) SetQuantity(n int) error {
	v, ok := s.def.Variant.(Consumable)
	if !ok {
		return fmt.Errorf("set quantity on %s item %q: %w", s.def.Kind(), s.def.Name, ErrUnsupported)
	}
	s.state.Quantity = clampQuantity(v, n)
	return nil
}

// SetLeft sets the left half of a composite toggle.
func (s *StatefulItem) SetLeft(on bool) error {
	if _, ok := s.def.Variant.(CompositeToggle); !ok {
		return fmt.Errorf("set left on %s item %q: %w", s.def.Kind(), s.def.Name, ErrUnsupported)
	}
	s.state.Left = on
	return nil
}

// SetRight sets the right half of a composite toggle.
func (s *StatefulItem) SetRight(on bool) error {
	if _, ok := s.def.Variant.(CompositeToggle); !ok {
		return fmt.Errorf("set right on %s item %q: %w", s.def.Kind(), s.def.Name, ErrUnsupported)
	}
	s.state.Right = on
	return nil
}

func clampQuantity(c Consumable, n int) int {
	if c.Bounded() && n > c.MaxQuantity {
		n = c.MaxQuantity
	}
	if n < c.MinQuantity {
		n = c.MinQuantity
	}
	return n
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
