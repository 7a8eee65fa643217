// Package diagram computes critical difference diagrams.
//
// A critical difference diagram places methods on a horizontal axis at their
// average score and joins methods whose difference is not significant with a
// thick connector. This package owns the two pieces with real algorithmic
// content:
//
//   - MergeCliques reduces pairwise "not significantly different" index pairs
//     to the pairs that no other pair contains, so a clique such as
//     {(0,1),(1,2),(0,2)} is drawn as one connector spanning 0..2.
//   - LayoutSegments stacks the merged connectors into layers so that
//     overlapping connectors never share a height.
//
// Build ties these together with input validation and the label geometry and
// returns a Plan: a list of drawing instructions with no rendering state.
// Render replays a Plan onto any Canvas; pkg/export provides PNG and SVG
// canvases.
//
// Usage:
//
//	plan, err := diagram.Build(diagram.Input{
//	    Scores: []float64{19.64, 20, 25, 28.93, 31.43, 33.4},
//	    Source: diagram.ThresholdPairs{Threshold: 1},
//	    Params: diagram.DefaultLayoutParams(),
//	})
//	if err != nil {
//	    return err
//	}
//	diagram.Render(plan, canvas)
//
// Scores must be sorted ascending; pair indices always refer to positions in
// the sorted score list.
package diagram
