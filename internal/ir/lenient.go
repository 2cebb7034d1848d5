package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Int is an integer that may be written as a JSON number or a numeric string.
type Int int

// UnmarshalJSON accepts 5, 5.0 and "5".
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*i = Int(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("invalid integer %s", data)
	}
	*i = Int(f)
	return nil
}

// Bool is a boolean that may be written as a JSON bool or "true"/"false".
type Bool bool

// UnmarshalJSON accepts true and "true".
func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
		*b = Bool(v)
		return nil
	}

	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = Bool(v)
	return nil
}

// CodeList is a list of item codes written as one comma-separated string.
// A JSON array of strings is accepted as well.
type CodeList []string

// UnmarshalJSON splits "a, b,c" into [a b c], dropping empty entries.
func (c *CodeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid code list: %w", err)
		}
		*c = SplitCodes(strings.Join(list, ","))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid code list %s", data)
	}
	*c = SplitCodes(s)
	return nil
}

// Contains reports whether code is in the list.
func (c CodeList) Contains(code string) bool {
	for _, have := range c {
		if have == code {
			return true
		}
	}
	return false
}

// SplitCodes splits a comma-separated code string, trimming blanks.
func SplitCodes(s string) CodeList {
	var codes CodeList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}
