package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/packtrack/internal/access"
	"github.com/roach88/packtrack/internal/engine"
	"github.com/roach88/packtrack/internal/item"
	"github.com/roach88/packtrack/internal/rule"
	"github.com/roach88/packtrack/internal/script"
)

// Scenario is a scripted tracking session with expectations.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pack is the pack directory. LoadScenario resolves it relative to the
	// scenario file.
	Pack string `yaml:"pack"`

	// Variant is the active variant UID.
	Variant string `yaml:"variant"`

	// Init overrides the pack's init script.
	Init string `yaml:"init,omitempty"`

	// SectionPolicy is "own" (default) or "parent".
	SectionPolicy string `yaml:"section_policy,omitempty"`

	Steps      []Step      `yaml:"steps,omitempty"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one change to the session. Exactly one of Item, Lua or Notify is
// set; an item step sets exactly one mutation.
type Step struct {
	Item     string `yaml:"item,omitempty"`
	Action   string `yaml:"action,omitempty"`
	Stage    *int   `yaml:"stage,omitempty"`
	Active   *bool  `yaml:"active,omitempty"`
	Quantity *int   `yaml:"quantity,omitempty"`
	Left     *bool  `yaml:"left,omitempty"`
	Right    *bool  `yaml:"right,omitempty"`

	Lua string `yaml:"lua,omitempty"`

	Notify string `yaml:"notify,omitempty"`
	Args   []any  `yaml:"args,omitempty"`
}

// Describe renders the step for traces.
func (s Step) Describe() string {
	switch {
	case s.Item != "":
		switch {
		case s.Action != "":
			return fmt.Sprintf("item %s %s", s.Item, s.Action)
		case s.Stage != nil:
			return fmt.Sprintf("item %s stage %d", s.Item, *s.Stage)
		case s.Active != nil:
			return fmt.Sprintf("item %s active %t", s.Item, *s.Active)
		case s.Quantity != nil:
			return fmt.Sprintf("item %s quantity %d", s.Item, *s.Quantity)
		case s.Left != nil:
			return fmt.Sprintf("item %s left %t", s.Item, *s.Left)
		case s.Right != nil:
			return fmt.Sprintf("item %s right %t", s.Item, *s.Right)
		}
		return "item " + s.Item
	case s.Lua != "":
		first, _, _ := strings.Cut(strings.TrimSpace(s.Lua), "\n")
		return "lua " + first
	case s.Notify != "":
		return fmt.Sprintf("notify %s (%d args)", s.Notify, len(s.Args))
	}
	return "empty step"
}

// Assertion checks the session after the last step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path names a location or section (level, summary, history).
	Path string `yaml:"path,omitempty"`

	// Rule is rule text (rule).
	Rule string `yaml:"rule,omitempty"`

	// Code is an item code (provider_count).
	Code string `yaml:"code,omitempty"`

	// Handler is a handler kind (handlers).
	Handler string `yaml:"handler,omitempty"`

	// Expect is a level name (level, rule) or summary status (summary).
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected number (provider_count, handlers).
	Count *int `yaml:"count,omitempty"`

	// Levels is the expected level after the open and each step (history).
	Levels []string `yaml:"levels,omitempty"`
}

// Assertion type constants.
const (
	AssertLevel         = "level"
	AssertSummary       = "summary"
	AssertRule          = "rule"
	AssertProviderCount = "provider_count"
	AssertHandlers      = "handlers"
	AssertHistory       = "history"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Pack != "" && !filepath.IsAbs(scenario.Pack) {
		scenario.Pack = filepath.Join(filepath.Dir(path), filepath.FromSlash(scenario.Pack))
	}
	info, err := os.Stat(scenario.Pack)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid scenario: pack directory not found: %s", scenario.Pack)
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML without touching the
// filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Pack == "" {
		return fmt.Errorf("pack is required")
	}
	if s.Variant == "" {
		return fmt.Errorf("variant is required")
	}
	if _, err := engine.ParseSectionPolicy(s.SectionPolicy); err != nil {
		return fmt.Errorf("section_policy: %w", err)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s Step) error {
	kinds := 0
	for _, set := range []bool{s.Item != "", s.Lua != "", s.Notify != ""} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("exactly one of item, lua or notify is required")
	}

	if s.Notify != "" {
		if _, err := script.ParseHandlerKind(s.Notify); err != nil {
			return err
		}
	} else if len(s.Args) > 0 {
		return fmt.Errorf("args only apply to notify")
	}

	mutations := 0
	for _, set := range []bool{s.Action != "", s.Stage != nil, s.Active != nil, s.Quantity != nil, s.Left != nil, s.Right != nil} {
		if set {
			mutations++
		}
	}
	if s.Item == "" {
		if mutations > 0 {
			return fmt.Errorf("item mutations require item")
		}
		return nil
	}
	if mutations != 1 {
		return fmt.Errorf("item %q: exactly one of action, stage, active, quantity, left or right is required", s.Item)
	}
	if s.Action != "" {
		if _, err := item.ParseAction(s.Action); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLevel:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for level", index)
		}
		if _, err := access.Parse(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertSummary:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for summary", index)
		}
		if !validStatus(access.Status(a.Expect)) {
			return fmt.Errorf("assertions[%d]: unknown summary status %q", index, a.Expect)
		}
	case AssertRule:
		if _, err := rule.Parse(a.Rule); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if _, err := access.Parse(a.Expect); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertProviderCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for provider_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for provider_count", index)
		}
	case AssertHandlers:
		if _, err := script.ParseHandlerKind(a.Handler); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for handlers", index)
		}
	case AssertHistory:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for history", index)
		}
		if len(a.Levels) == 0 {
			return fmt.Errorf("assertions[%d]: levels list is required for history", index)
		}
		for _, l := range a.Levels {
			if _, err := access.Parse(l); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// statuses lists every summary status a location can report.
var statuses = []access.Status{
	access.StatusCleared, access.StatusSequenceBreak, access.StatusCheckable,
	access.StatusPartial, access.StatusAccessible, access.StatusInaccessible, access.StatusEmpty,
}

func validStatus(s access.Status) bool {
	return slices.Contains(statuses, s)
}
