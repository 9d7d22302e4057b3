package pipeline

import "fmt"

// Bounds is the inclusive token-count window a column must fall in.
// Either side may be unset.
type Bounds struct {
	min, max       int
	hasMin, hasMax bool
}

// NewBounds builds Bounds from optional limits; a negative value leaves that
// side unset.
func NewBounds(minLen, maxLen int) Bounds {
	return Bounds{
		min:    minLen,
		max:    maxLen,
		hasMin: minLen >= 0,
		hasMax: maxLen >= 0,
	}
}

// Unbounded reports whether neither limit is set.
func (b Bounds) Unbounded() bool { return !b.hasMin && !b.hasMax }

// Min returns the lower limit and whether it is set.
func (b Bounds) Min() (int, bool) { return b.min, b.hasMin }

// Max returns the upper limit and whether it is set.
func (b Bounds) Max() (int, bool) { return b.max, b.hasMax }

// Valid reports whether a column of n tokens is kept.
func (b Bounds) Valid(n int) bool {
	if b.hasMin && n < b.min {
		return false
	}

	if b.hasMax && n > b.max {
		return false
	}

	return true
}

func (b Bounds) String() string {
	lo, hi := "-inf", "+inf"
	if b.hasMin {
		lo = fmt.Sprint(b.min)
	}

	if b.hasMax {
		hi = fmt.Sprint(b.max)
	}

	return "[" + lo + ", " + hi + "]"
}
