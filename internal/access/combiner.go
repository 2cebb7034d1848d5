package access

// AndCombiner folds levels with AND semantics.
//
// None and Partial block the result, Inspect and SequenceBreak degrade it,
// Normal and Cleared never limit it. The zero value is an empty fold.
type AndCombiner struct {
	containsNone      bool
	inspectable       bool
	sequenceBreakable bool
}

// Add folds one level into the combiner.
func (c *AndCombiner) Add(level Level) {
	switch level {
	case None, Partial:
		c.containsNone = true
	case Inspect:
		c.inspectable = true
	case SequenceBreak:
		c.sequenceBreakable = true
	case Normal, Cleared:
	}
}

// Finish returns the combined level. An empty fold is Normal.
func (c *AndCombiner) Finish() Level {
	switch {
	case c.containsNone:
		return None
	case c.sequenceBreakable:
		return SequenceBreak
	case c.inspectable:
		return Inspect
	default:
		return Normal
	}
}

// OrCombiner folds levels with OR semantics.
//
// Only Inspect and SequenceBreak are tracked; None, Partial, Normal and Cleared
// never block an OR. An empty fold is Normal, the identity of the combinator.
type OrCombiner struct {
	inspectable       bool
	sequenceBreakable bool
}

// Add folds one level into the combiner.
func (c *OrCombiner) Add(level Level) {
	switch level {
	case Inspect:
		c.inspectable = true
	case SequenceBreak:
		c.sequenceBreakable = true
	case None, Partial, Normal, Cleared:
	}
}

// Finish returns the combined level.
func (c *OrCombiner) Finish() Level {
	switch {
	case c.sequenceBreakable:
		return SequenceBreak
	case c.inspectable:
		return Inspect
	default:
		return Normal
	}
}

// And folds levels through an AndCombiner.
func And(levels ...Level) Level {
	var c AndCombiner
	for _, l := range levels {
		c.Add(l)
	}
	return c.Finish()
}

// Or folds levels through an OrCombiner.
func Or(levels ...Level) Level {
	var c OrCombiner
	for _, l := range levels {
		c.Add(l)
	}
	return c.Finish()
}
