package diagram

import (
	"cmp"
	"fmt"
)

// Pair is an ordered pair of method indices (Lo < Hi). As input it states that
// the two methods are not significantly different; after merging it is the
// span of one connector.
type Pair struct {
	Lo int `json:"lo" yaml:"lo"`
	Hi int `json:"hi" yaml:"hi"`
}

// P is shorthand for Pair{Lo: lo, Hi: hi}.
func P(lo, hi int) Pair {
	return Pair{Lo: lo, Hi: hi}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Lo, p.Hi)
}

// Span returns the number of methods covered by the pair, endpoints included.
func (p Pair) Span() int {
	return p.Hi - p.Lo + 1
}

// ComparePairs orders pairs lexicographically by (Lo, Hi).
func ComparePairs(a, b Pair) int {
	if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
		return c
	}
	return cmp.Compare(a.Hi, b.Hi)
}

// Contains reports whether outer strictly contains inner: it reaches at least
// as far on both sides and further on at least one. Equal pairs do not
// contain each other.
func Contains(outer, inner Pair) bool {
	return (outer.Lo <= inner.Lo && outer.Hi > inner.Hi) ||
		(outer.Lo < inner.Lo && outer.Hi >= inner.Hi)
}

// ContainedInLarger reports whether any pair in set contains p.
func ContainedInLarger(p Pair, set []Pair) bool {
	for _, q := range set {
		if Contains(q, p) {
			return true
		}
	}
	return false
}

// Overlaps reports whether the closed spans of a and b intersect. Pairs that
// only touch at an endpoint overlap: drawn at one height they would read as a
// single longer connector.
func Overlaps(a, b Pair) bool {
	return a.Lo <= b.Hi && b.Lo <= a.Hi
}
