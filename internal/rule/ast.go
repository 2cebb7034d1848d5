package rule

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rule is a node of the access-rule AST.
//
// The set of implementations is closed: Multi, Item, Call, AccessibilityLevelCall,
// Reference, Checkable and Optional.
type Rule interface {
	fmt.Stringer
	isRule()
}

// Multi is an ordered list of rules combined with AND semantics.
type Multi struct {
	Rules []Rule
}

// Item is satisfied by holding the item code.
type Item struct {
	Code string
}

// Call invokes a script-global function with string arguments.
type Call struct {
	Name string
	Args []string
}

// AccessibilityLevelCall invokes a script function that returns a level ordinal.
type AccessibilityLevelCall struct {
	Name string
	Args []string
}

// Reference takes the level of another section, looked up by name.
type Reference struct {
	Location string
	Section  string
}

// Checkable downgrades any reachable result to Inspect.
type Checkable struct {
	Rule Rule
}

// Optional upgrades an unreachable result to SequenceBreak.
type Optional struct {
	Rule Rule
}

func (Multi) isRule()                  {}
func (Item) isRule()                   {}
func (Call) isRule()                   {}
func (AccessibilityLevelCall) isRule() {}
func (Reference) isRule()              {}
func (Checkable) isRule()              {}
func (Optional) isRule()               {}

// String renders the canonical text. Nested Multi nodes are flattened into the
// enclosing list since AND is associative.
func (m Multi) String() string {
	return strings.Join(m.flatten(nil), ",")
}

func (m Multi) flatten(parts []string) []string {
	for _, r := range m.Rules {
		if inner, ok := r.(Multi); ok {
			parts = inner.flatten(parts)
			continue
		}
		parts = append(parts, r.String())
	}
	return parts
}

func (i Item) String() string {
	return i.Code
}

func (c Call) String() string {
	return "$" + joinCall(c.Name, c.Args)
}

func (c AccessibilityLevelCall) String() string {
	return "^$" + joinCall(c.Name, c.Args)
}

func joinCall(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "|" + strings.Join(args, "|")
}

func (r Reference) String() string {
	return "@" + r.Location + "/" + r.Section
}

func (c Checkable) String() string {
	return "{" + c.Rule.String() + "}"
}

func (o Optional) String() string {
	return "[" + o.Rule.String() + "]"
}

// MarshalJSON encodes the node as {"type": ..., ...}.
func (m Multi) MarshalJSON() ([]byte, error) {
	rules := m.Rules
	if rules == nil {
		rules = []Rule{}
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Rules []Rule `json:"rules"`
	}{"multi", rules})
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}{"item", i.Code})
}

func (c Call) MarshalJSON() ([]byte, error) {
	return marshalCall("call", c.Name, c.Args)
}

func (c AccessibilityLevelCall) MarshalJSON() ([]byte, error) {
	return marshalCall("level_call", c.Name, c.Args)
}

func marshalCall(kind, name string, args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	return json.Marshal(struct {
		Type string   `json:"type"`
		Name string   `json:"name"`
		Args []string `json:"args"`
	}{kind, name, args})
}

func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Location string `json:"location"`
		Section  string `json:"section"`
	}{"reference", r.Location, r.Section})
}

func (c Checkable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Rule Rule   `json:"rule"`
	}{"checkable", c.Rule})
}

func (o Optional) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Rule Rule   `json:"rule"`
	}{"optional", o.Rule})
}

// Walk visits r and its descendants depth-first. Returning false from fn skips
// the children of the current node.
func Walk(r Rule, fn func(Rule) bool) {
	if r == nil || !fn(r) {
		return
	}
	switch n := r.(type) {
	case Multi:
		for _, child := range n.Rules {
			Walk(child, fn)
		}
	case Checkable:
		Walk(n.Rule, fn)
	case Optional:
		Walk(n.Rule, fn)
	}
}

// References lists every Reference reachable from r, in visit order.
func References(r Rule) []Reference {
	var refs []Reference
	Walk(r, func(n Rule) bool {
		if ref, ok := n.(Reference); ok {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}

// Validate reports leaves whose text cannot survive a round trip through the
// canonical form, such as item codes holding separator characters.
func Validate(r Rule) error {
	var err error
	Walk(r, func(n Rule) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case Item:
			if v.Code == "" || strings.ContainsAny(v.Code, itemStop) || startsClause(v.Code) {
				err = fmt.Errorf("item code %q is not representable", v.Code)
			}
		case Call:
			err = validateCall(v.Name, v.Args)
		case AccessibilityLevelCall:
			err = validateCall(v.Name, v.Args)
		case Reference:
			if strings.Contains(v.Location, "/") || strings.ContainsAny(v.Section, argStop) {
				err = fmt.Errorf("reference %q is not representable", v.String())
			}
		case Checkable:
			if v.Rule == nil {
				err = fmt.Errorf("checkable without inner rule")
			}
		case Optional:
			if v.Rule == nil {
				err = fmt.Errorf("optional without inner rule")
			}
		}
		return true
	})
	return err
}

func validateCall(name string, args []string) error {
	if !isIdent(name) {
		return fmt.Errorf("function name %q is not an identifier", name)
	}
	for _, a := range args {
		if strings.ContainsAny(a, argStop) {
			return fmt.Errorf("argument %q of %s is not representable", a, name)
		}
	}
	return nil
}

func startsClause(code string) bool {
	switch code[0] {
	case '$', '@':
		return true
	case '^':
		return len(code) > 1 && code[1] == '$'
	}
	return false
}
