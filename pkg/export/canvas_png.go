package export

import (
	"fmt"
	"image"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
)

// PNGCanvas draws a diagram into an in-memory raster image.
type PNGCanvas struct {
	dc *gg.Context
	vp Viewport
}

var _ diagram.Canvas = (*PNGCanvas)(nil)

// NewPNGCanvas returns a cleared canvas sized by vp.
func NewPNGCanvas(vp Viewport) *PNGCanvas {
	dc := gg.NewContext(vp.Width, vp.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	return &PNGCanvas{dc: dc, vp: vp}
}

func (c *PNGCanvas) DrawAxisLine(x0, x1, y float64) {
	py := c.vp.PY(y)
	c.dc.SetColor(colorInk)
	c.dc.SetLineWidth(2)
	c.dc.DrawLine(c.vp.PX(x0), py, c.vp.PX(x1), py)
	c.dc.Stroke()

	c.dc.SetLineWidth(1)
	for _, t := range niceTicks(x0, x1) {
		px := c.vp.PX(t)
		c.dc.SetColor(colorInk)
		c.dc.DrawLine(px, py, px, py+tickLen)
		c.dc.Stroke()
		c.dc.SetColor(colorSubtle)
		c.dc.DrawStringAnchored(fmt.Sprintf("%g", t), px, py+tickLen+9, 0.5, 0.5)
	}
}

func (c *PNGCanvas) PlotPoints(pts []diagram.Point) {
	c.dc.SetColor(colorInk)
	for _, p := range pts {
		c.dc.DrawCircle(c.vp.PX(p.X), c.vp.PY(p.Y), 4)
		c.dc.Fill()
	}
}

func (c *PNGCanvas) DrawHorizontalLine(y, x0, x1 float64) {
	py := c.vp.PY(y)
	c.dc.SetColor(colorLink)
	c.dc.SetLineWidth(3)
	c.dc.DrawLine(c.vp.PX(x0), py, c.vp.PX(x1), py)
	c.dc.Stroke()
}

func (c *PNGCanvas) Annotate(text string, anchor, at diagram.Point, connector bool) {
	tx, ty := c.vp.PX(at.X), c.vp.PY(at.Y)
	if connector {
		ax, ay := c.vp.PX(anchor.X), c.vp.PY(anchor.Y)
		w, _ := c.dc.MeasureString(text)
		sx := connectorStart(w, tx, ax)
		c.dc.SetColor(colorInk)
		c.dc.SetLineWidth(1)
		c.dc.DrawLine(sx, ty, ax, ty)
		c.dc.DrawLine(ax, ty, ax, ay)
		c.dc.Stroke()
	}
	c.dc.SetColor(colorInk)
	c.dc.DrawStringAnchored(text, tx, ty, 0.5, 0.5)
}

// Image returns the rendered raster.
func (c *PNGCanvas) Image() image.Image {
	return c.dc.Image()
}
