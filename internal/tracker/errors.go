package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned for paths that are absolute or escape the
	// pack root.
	ErrInvalidPath = errors.New("invalid pack path")

	// ErrUnknownItem is returned when no item provides a code.
	ErrUnknownItem = errors.New("unknown item code")

	// ErrInvalidCodeRule is returned by ProviderCountForCode for rule text
	// that is not a single item code or call.
	ErrInvalidCodeRule = errors.New("code must be an item code or a $call")
)

// LoadError is a failure to read or compile one authoring file.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
