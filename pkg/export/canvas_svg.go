package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
)

// SVGCanvas streams a diagram as SVG markup. Call Close to finish the
// document.
type SVGCanvas struct {
	svg *svg.SVG
	vp  Viewport
}

var _ diagram.Canvas = (*SVGCanvas)(nil)

// NewSVGCanvas starts an SVG document of vp's size on w.
func NewSVGCanvas(w io.Writer, vp Viewport) *SVGCanvas {
	canvas := svg.New(w)
	canvas.Start(vp.Width, vp.Height)
	canvas.Rect(0, 0, vp.Width, vp.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	return &SVGCanvas{svg: canvas, vp: vp}
}

func (c *SVGCanvas) px(x float64) int { return int(math.Round(c.vp.PX(x))) }
func (c *SVGCanvas) py(y float64) int { return int(math.Round(c.vp.PY(y))) }

func (c *SVGCanvas) DrawAxisLine(x0, x1, y float64) {
	py := c.py(y)
	c.svg.Line(c.px(x0), py, c.px(x1), py, fmt.Sprintf("stroke:%s;stroke-width:2", css(colorInk)))
	for _, t := range niceTicks(x0, x1) {
		px := c.px(t)
		c.svg.Line(px, py, px, py+int(tickLen), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorInk)))
		c.svg.Text(px, py+int(tickLen)+13, strconv.FormatFloat(t, 'g', -1, 64),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}
}

func (c *SVGCanvas) PlotPoints(pts []diagram.Point) {
	for _, p := range pts {
		c.svg.Circle(c.px(p.X), c.py(p.Y), 4, fmt.Sprintf("fill:%s", css(colorInk)))
	}
}

func (c *SVGCanvas) DrawHorizontalLine(y, x0, x1 float64) {
	py := c.py(y)
	c.svg.Line(c.px(x0), py, c.px(x1), py,
		fmt.Sprintf("stroke:%s;stroke-width:3;stroke-linecap:butt", css(colorLink)))
}

func (c *SVGCanvas) Annotate(text string, anchor, at diagram.Point, connector bool) {
	tx, ty := c.px(at.X), c.py(at.Y)
	if connector {
		ax, ay := c.px(anchor.X), c.py(anchor.Y)
		sx := int(math.Round(connectorStart(textWidth(text), float64(tx), float64(ax))))
		c.svg.Polyline([]int{sx, ax, ax}, []int{ty, ty, ay},
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorInk)))
	}
	c.svg.Text(tx, ty+4, text,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle", css(colorInk)))
}

// Close ends the SVG document.
func (c *SVGCanvas) Close() {
	c.svg.End()
}
