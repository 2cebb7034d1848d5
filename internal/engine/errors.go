package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a fault detected while resolving a rule.
//
// Runtime errors are logged, never returned from queries:
//   - Cycle detected: a reference chain re-enters a node under evaluation
//   - Depth exceeded: rule nesting passed the depth quota
//   - Missing reference: no section matches a Reference
//   - Script failed: a Call could not be dispatched or raised an error
//   - Invalid level: an AccessibilityLevelCall returned a non-ordinal
//   - Dangling id: the graph holds an id with no node behind it
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the path or rule text being resolved.
	Node string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	ErrCodeCycleDetected    RuntimeErrorCode = "CYCLE_DETECTED"
	ErrCodeDepthExceeded    RuntimeErrorCode = "DEPTH_EXCEEDED"
	ErrCodeMissingReference RuntimeErrorCode = "MISSING_REFERENCE"
	ErrCodeScriptFailed     RuntimeErrorCode = "SCRIPT_FAILED"
	ErrCodeInvalidLevel     RuntimeErrorCode = "INVALID_LEVEL"
	ErrCodeDanglingID       RuntimeErrorCode = "DANGLING_ID"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Node != "" {
		msg += fmt.Sprintf(" (node=%s)", e.Node)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err wraps a RuntimeError with the given code.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsCycleError returns true if the error is a cycle detection error.
func IsCycleError(err error) bool {
	return HasCode(err, ErrCodeCycleDetected)
}

// NewCycleError creates a RuntimeError for a re-entered node.
func NewCycleError(node string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCycleDetected,
		Message: "reference chain re-enters a node under evaluation",
		Node:    node,
	}
}

// NewMissingReferenceError creates a RuntimeError for an unresolved Reference.
func NewMissingReferenceError(location, section string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingReference,
		Message: "no section matches reference",
		Node:    "@" + location + "/" + section,
		Details: map[string]string{"location": location, "section": section},
	}
}

// NewScriptError creates a RuntimeError for a failed script call.
func NewScriptError(call string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeScriptFailed,
		Message: "script call failed",
		Node:    call,
		Err:     err,
	}
}

// NewDanglingIDError creates a RuntimeError for an id with no node.
func NewDanglingIDError(kind, id string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDanglingID,
		Message: fmt.Sprintf("%s id does not resolve", kind),
		Node:    id,
	}
}
