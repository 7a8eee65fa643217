package diagram

import (
	"errors"
	"fmt"
	"math"
)

// Precondition failures. ValidationError wraps one of these.
var (
	ErrNoScores       = errors.New("no scores")
	ErrInvalidScore   = errors.New("score is not a number")
	ErrUnsortedScores = errors.New("scores are not sorted ascending")
	ErrNamesMismatch  = errors.New("names do not match scores")
	ErrPairNotSorted  = errors.New("pair is not sorted")
	ErrPairOutOfRange = errors.New("pair index out of range")
	ErrDuplicatePair  = errors.New("duplicate pair")
)

// ValidationError describes which input element broke a precondition.
type ValidationError struct {
	Field  string // "scores", "names" or "pairs"
	Index  int    // position of the offending element, -1 when not applicable
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s[%d]: %s", e.Field, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks that scores are present, numeric and sorted ascending, and
// that names, when given, name every score.
func Validate(scores []float64, names []string) error {
	if len(scores) == 0 {
		return &ValidationError{Field: "scores", Index: -1, Reason: "at least one score is required", Err: ErrNoScores}
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return &ValidationError{Field: "scores", Index: i, Reason: fmt.Sprintf("%v is not a finite number", s), Err: ErrInvalidScore}
		}
		if i > 0 && s < scores[i-1] {
			return &ValidationError{
				Field:  "scores",
				Index:  i,
				Reason: fmt.Sprintf("%g follows %g", s, scores[i-1]),
				Err:    ErrUnsortedScores,
			}
		}
	}
	if names != nil && len(names) != len(scores) {
		return &ValidationError{
			Field:  "names",
			Index:  -1,
			Reason: fmt.Sprintf("got %d names for %d scores", len(names), len(scores)),
			Err:    ErrNamesMismatch,
		}
	}
	return nil
}

// ValidatePairs checks that every pair is sorted, unique and within [0, n).
func ValidatePairs(n int, pairs []Pair) error {
	seen := make(map[Pair]int, len(pairs))
	for i, p := range pairs {
		if p.Lo < 0 || p.Hi < 0 || p.Lo >= n || p.Hi >= n {
			return &ValidationError{
				Field:  "pairs",
				Index:  i,
				Reason: fmt.Sprintf("%s has an index outside [0,%d)", p, n),
				Err:    ErrPairOutOfRange,
			}
		}
		if p.Lo >= p.Hi {
			return &ValidationError{
				Field:  "pairs",
				Index:  i,
				Reason: fmt.Sprintf("%s must satisfy lo < hi", p),
				Err:    ErrPairNotSorted,
			}
		}
		if first, ok := seen[p]; ok {
			return &ValidationError{
				Field:  "pairs",
				Index:  i,
				Reason: fmt.Sprintf("%s already given at position %d", p, first),
				Err:    ErrDuplicatePair,
			}
		}
		seen[p] = i
	}
	return nil
}
