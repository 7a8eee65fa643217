package diagram

import (
	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/metrics"
)

// MergeCliques keeps the pairs that no other pair in the input contains.
//
// Survivors are returned in input order. Only strict containment collapses
// pairs: (0,1) and (1,2) both survive, while {(0,1),(1,2),(0,2)} collapses to
// (0,2). The input must hold sorted pairs without duplicates; the check is
// quadratic in the number of pairs.
func MergeCliques(pairs []Pair) []Pair {
	if len(pairs) == 0 {
		return nil
	}
	defer metrics.Timer(metrics.Merge)()

	longest := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if ContainedInLarger(p, pairs) {
			continue
		}
		longest = append(longest, p)
	}
	debug.Log("merged %d pairs into %d connectors", len(pairs), len(longest))
	return longest
}
