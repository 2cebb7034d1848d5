package script

import "errors"

var (
	// ErrAlreadyBorrowed is returned for a shared borrow while the tracker
	// is being mutated.
	ErrAlreadyBorrowed = errors.New("tracker is being mutated")

	// ErrAlreadyBorrowedMut is returned for an exclusive borrow while any
	// other borrow is outstanding.
	ErrAlreadyBorrowedMut = errors.New("tracker is borrowed")
)

// borrowCell tracks outstanding borrows of the tracker.
type borrowCell struct {
	shared    int
	exclusive bool
}

func (c *borrowCell) borrow() error {
	if c.exclusive {
		return ErrAlreadyBorrowed
	}
	c.shared++
	return nil
}

func (c *borrowCell) release() {
	if c.shared > 0 {
		c.shared--
	}
}

func (c *borrowCell) borrowMut() error {
	if c.exclusive || c.shared > 0 {
		return ErrAlreadyBorrowedMut
	}
	c.exclusive = true
	return nil
}

func (c *borrowCell) releaseMut() {
	c.exclusive = false
}
