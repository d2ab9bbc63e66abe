package table

import (
	"math"
)

// Sizes caps the number of items kept per group depth. Depths beyond the
// configured list reuse its last entry; an empty list is unbounded.
type Sizes struct {
	values []int
}

// NewSizes returns caps for depths 0, 1, 2...
func NewSizes(values []int) Sizes {
	if len(values) == 0 {
		return Sizes{}
	}
	return Sizes{values: append([]int(nil), values...)}
}

// Unbounded returns Sizes without any cap.
func Unbounded() Sizes { return Sizes{} }

// Size returns the cap at depth.
func (s Sizes) Size(depth int) int {
	if len(s.values) == 0 {
		return math.MaxInt
	}
	if depth < 0 {
		depth = 0
	}
	if depth >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	return s.values[depth]
}

// Values returns the configured caps.
func (s Sizes) Values() []int {
	return append([]int(nil), s.values...)
}

// Bounded reports whether any cap is configured.
func (s Sizes) Bounded() bool { return len(s.values) > 0 }

// Min combines two caps depth by depth, keeping the smaller value where
// both lists have an entry and the only value where just one has.
// Min([100], [2000, 200, 20]) is [100, 200, 20].
func Min(a, b Sizes) Sizes {
	switch {
	case !a.Bounded():
		return b
	case !b.Bounded():
		return a
	}

	n := max(len(a.values), len(b.values))
	values := make([]int, n)
	for i := range values {
		switch {
		case i < len(a.values) && i < len(b.values):
			values[i] = min(a.values[i], b.values[i])
		case i < len(a.values):
			values[i] = a.values[i]
		default:
			values[i] = b.values[i]
		}
	}
	return Sizes{values: values}
}
