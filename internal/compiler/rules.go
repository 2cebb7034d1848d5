package compiler

import (
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/rule"
)

// ParseRules parses each access rule entry. The first malformed entry is
// returned as a Diagnostic naming field.
func ParseRules(filename, field string, texts []string) ([]rule.Rule, *Diagnostic) {
	rules := make([]rule.Rule, 0, len(texts))
	for i, text := range texts {
		r, err := rule.Parse(text)
		if err != nil {
			return nil, &Diagnostic{
				Code:    ErrCodeRuleSyntax,
				File:    filename,
				Field:   fmt.Sprintf("%s.access_rules[%d]", field, i),
				Message: err.Error(),
				Err:     err,
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (c *Compiler) parseLocation(filename, prefix string, loc ir.Location, dropped *[]*Diagnostic) (ir.Location, bool) {
	path := loc.Name
	if prefix != "" {
		path = prefix + "/" + loc.Name
	}

	rules, diag := ParseRules(filename, path, loc.AccessRules)
	if diag != nil {
		c.drop(diag, dropped)
		return ir.Location{}, false
	}
	loc.Rules = rules

	sections := loc.Sections[:0:0]
	for _, sec := range loc.Sections {
		rules, diag := ParseRules(filename, path+"/"+sec.Name, sec.AccessRules)
		if diag != nil {
			c.drop(diag, dropped)
			continue
		}
		sec.Rules = rules
		sections = append(sections, sec)
	}
	loc.Sections = sections

	children := loc.Children[:0:0]
	for _, child := range loc.Children {
		if parsed, ok := c.parseLocation(filename, path, child, dropped); ok {
			children = append(children, parsed)
		}
	}
	loc.Children = children
	return loc, true
}

func (c *Compiler) drop(diag *Diagnostic, dropped *[]*Diagnostic) {
	c.logger.Warn("dropping record with malformed access rule",
		"file", diag.File,
		"field", diag.Field,
		"error", diag.Message)
	*dropped = append(*dropped, diag)
}
