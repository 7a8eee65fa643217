package diagram

import (
	"fmt"
	"strconv"

	"github.com/vanderheijden86/critdiff/pkg/debug"
)

// Point is a position in plan coordinates: X in score units, Y as a fraction
// of the drawable height with 0 on the axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Side tells on which side of the axis a method label sits.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Label is a method name placed away from its point and joined to it by an
// elbow connector (horizontal from the text, then down to the point).
type Label struct {
	Text   string `json:"text"`
	Anchor Point  `json:"anchor"`
	At     Point  `json:"at"`
	Side   Side   `json:"side"`
}

// Input is everything needed to lay out one diagram.
type Input struct {
	Scores []float64  // sorted ascending
	Names  []string   // optional; defaults to positional indices
	Source PairSource // nil means no connectors
	XLabel string     // optional axis caption
	Params LayoutParams
}

// Plan is the complete set of drawing instructions for one diagram.
type Plan struct {
	XMin       float64      `json:"x_min"`
	XMax       float64      `json:"x_max"`
	Points     []Point      `json:"points"`
	Labels     []Label      `json:"labels"`
	Pairs      []Pair       `json:"pairs"`
	Merged     []Pair       `json:"merged"`
	Placements []Placement  `json:"placements"`
	XLabel     *Label       `json:"x_label,omitempty"`
	Params     LayoutParams `json:"params"`
}

// Label positions are expressed as fractions of the axis width.
const (
	leftLabelFrac  = -0.05
	rightLabelFrac = 0.95
	topLabelFrac   = 0.9
	xLabelFracX    = 0.95
	xLabelFracY    = 0.1
)

// Build validates the input, merges and lays out the connectors and computes
// the label geometry. It either returns a full plan or fails without partial
// results.
func Build(in Input) (Plan, error) {
	defer debug.LogEnterExit("diagram.Build")()

	if err := Validate(in.Scores, in.Names); err != nil {
		return Plan{}, err
	}
	if err := in.Params.Validate(); err != nil {
		return Plan{}, fmt.Errorf("layout params: %w", err)
	}

	var pairs []Pair
	if in.Source != nil {
		var err error
		pairs, err = in.Source.Pairs(in.Scores)
		if err != nil {
			return Plan{}, fmt.Errorf("computing pairs: %w", err)
		}
	}
	if err := ValidatePairs(len(in.Scores), pairs); err != nil {
		return Plan{}, err
	}

	merged := MergeCliques(pairs)
	placements := LayoutSegments(merged, in.Params)

	x := in.Scores
	lo, hi := x[0], x[len(x)-1]
	// Scaling a negative score by 0.8 moves it right, so each end takes
	// whichever scaling moves it outwards.
	plan := Plan{
		XMin:       min(0.8*lo, 1.2*lo) - 0.1,
		XMax:       max(0.8*hi, 1.2*hi) + 0.1,
		Pairs:      pairs,
		Merged:     merged,
		Placements: placements,
		Params:     in.Params,
	}

	plan.Points = make([]Point, len(x))
	for i, s := range x {
		plan.Points[i] = Point{X: s}
	}
	plan.Labels = buildLabels(plan, in.Names, in.Params.ArrowVGap)

	if in.XLabel != "" {
		plan.XLabel = &Label{
			Text:   in.XLabel,
			Anchor: Point{X: plan.XMax},
			At:     Point{X: plan.FracX(xLabelFracX), Y: xLabelFracY},
			Side:   SideRight,
		}
	}

	debug.Log("plan: %d methods, %d pairs, %d connectors on %d layers",
		len(x), len(pairs), len(merged), Layers(placements))
	return plan, nil
}

// buildLabels puts the first half of the methods on the left and the rest on
// the right. The topmost label of each side sits at 90% of the height and
// labels step down by gap towards the middle of the axis.
func buildLabels(plan Plan, names []string, gap float64) []Label {
	n := len(plan.Points)
	half := (n + 1) / 2

	heights := make([]float64, 0, 2*half)
	for i := half - 1; i >= 0; i-- {
		heights = append(heights, topLabelFrac-gap*float64(i))
	}
	for i := half - 1; i >= 0; i-- {
		heights = append(heights, heights[i])
	}

	labels := make([]Label, n)
	for i, pt := range plan.Points {
		frac, side := rightLabelFrac, SideRight
		if i < half {
			frac, side = leftLabelFrac, SideLeft
		}
		labels[i] = Label{
			Text:   methodName(names, i),
			Anchor: pt,
			At:     Point{X: plan.FracX(frac), Y: heights[i]},
			Side:   side,
		}
	}
	return labels
}

func methodName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i)
}

// FracX converts a fraction of the axis width into a score-unit X.
func (p Plan) FracX(frac float64) float64 {
	return p.XMin + frac*(p.XMax-p.XMin)
}

// Bounds returns the horizontal extent of everything the plan draws,
// including labels that sit outside the axis.
func (p Plan) Bounds() (minX, maxX float64) {
	minX, maxX = p.XMin, p.XMax
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
	}
	for _, l := range p.Labels {
		minX = min(minX, l.At.X)
		maxX = max(maxX, l.At.X)
	}
	return minX, maxX
}

// TopHeight returns the highest Y used by labels or connectors.
func (p Plan) TopHeight() float64 {
	top := 1.0
	for _, l := range p.Labels {
		top = max(top, l.At.Y)
	}
	for _, pl := range p.Placements {
		top = max(top, pl.Height)
	}
	return top
}
