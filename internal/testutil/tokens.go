package testutil

import "fmt"

// SequentialTokens produces run tokens "<prefix>-0001", "<prefix>-0002", ...
// so journal contents are reproducible across test runs.
type SequentialTokens struct {
	prefix string
	clock  Clock
}

// NewSequentialTokens returns a generator using prefix, or "run" when empty.
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialTokens) Generate() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.clock.Next())
}

// Reset restarts the sequence.
func (g *SequentialTokens) Reset() {
	g.clock.Reset()
}
