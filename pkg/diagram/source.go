package diagram

import (
	"fmt"
	"math"
)

// PairSource supplies the insignificance pairs for a sorted score list.
type PairSource interface {
	Pairs(scores []float64) ([]Pair, error)
}

// StaticPairs is a precomputed pair list. Indices refer to sorted scores.
type StaticPairs []Pair

func (s StaticPairs) Pairs(_ []float64) ([]Pair, error) {
	return []Pair(s), nil
}

// ThresholdPairs treats two methods as not significantly different when their
// scores differ by at most Threshold.
type ThresholdPairs struct {
	Threshold float64
}

// DefaultThreshold is the score gap used when none is configured.
const DefaultThreshold = 1.0

func (t ThresholdPairs) Pairs(scores []float64) ([]Pair, error) {
	if t.Threshold < 0 || math.IsNaN(t.Threshold) {
		return nil, fmt.Errorf("threshold must be a non-negative number, got %v", t.Threshold)
	}
	var pairs []Pair
	for i := 0; i < len(scores); i++ {
		for j := i + 1; j < len(scores); j++ {
			if math.Abs(scores[i]-scores[j]) <= t.Threshold {
				pairs = append(pairs, Pair{Lo: i, Hi: j})
			}
		}
	}
	return pairs, nil
}

// PairFunc adapts a plain function to PairSource.
type PairFunc func(scores []float64) ([]Pair, error)

func (f PairFunc) Pairs(scores []float64) ([]Pair, error) {
	return f(scores)
}
