package diagram

import "github.com/vanderheijden86/critdiff/pkg/metrics"

// Canvas is the drawing surface a Plan is replayed onto. X coordinates are in
// score units and Y coordinates are fractions of the drawable height.
type Canvas interface {
	// DrawAxisLine draws the score axis from x0 to x1 at height y.
	DrawAxisLine(x0, x1, y float64)
	// PlotPoints marks each method's score on the axis.
	PlotPoints(pts []Point)
	// DrawHorizontalLine draws one connector at height y between x0 and x1.
	DrawHorizontalLine(y, x0, x1 float64)
	// Annotate writes text centred at "at". With connector set, an elbow line
	// runs from the text to anchor.
	Annotate(text string, anchor, at Point, connector bool)
}

// Render replays plan onto c: axis, points, axis caption, method labels and
// finally the connectors.
func Render(plan Plan, c Canvas) {
	defer metrics.Timer(metrics.Render)()

	c.DrawAxisLine(plan.XMin, plan.XMax, 0)
	c.PlotPoints(plan.Points)
	if plan.XLabel != nil {
		c.Annotate(plan.XLabel.Text, plan.XLabel.Anchor, plan.XLabel.At, false)
	}
	for _, l := range plan.Labels {
		c.Annotate(l.Text, l.Anchor, l.At, true)
	}
	for _, pl := range plan.Placements {
		c.DrawHorizontalLine(pl.Height, plan.Points[pl.Lo].X, plan.Points[pl.Hi].X)
	}
}
