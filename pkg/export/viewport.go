package export

import (
	"fmt"
	"image/color"
	"math"
	"unicode/utf8"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 720
	DefaultHeight = 240
)

const (
	padX      = 70.0
	padTop    = 14.0
	padBottom = 34.0
	tickLen   = 5.0
	charWidth = 7.0 // basicfont.Face7x13 advance; also used to size SVG text
)

var (
	colorBackdrop = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorInk      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorLink     = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

// Viewport maps plan coordinates (score units across, height fractions up)
// onto a pixel canvas.
type Viewport struct {
	Width  int
	Height int
	MinX   float64
	MaxX   float64
	Top    float64 // plan height shown at the top edge, at least 1
}

// NewViewport fits plan onto a width x height canvas, keeping room for
// labels that sit outside the axis.
func NewViewport(plan diagram.Plan, width, height int) Viewport {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	minX, maxX := plan.Bounds()
	if maxX <= minX {
		minX, maxX = minX-1, maxX+1
	}
	return Viewport{
		Width:  width,
		Height: height,
		MinX:   minX,
		MaxX:   maxX,
		Top:    plan.TopHeight(),
	}
}

// PX converts a score-unit X into a pixel column.
func (v Viewport) PX(x float64) float64 {
	return padX + (x-v.MinX)/(v.MaxX-v.MinX)*(float64(v.Width)-2*padX)
}

// PY converts a height fraction into a pixel row (0 is the axis).
func (v Viewport) PY(y float64) float64 {
	usable := float64(v.Height) - padTop - padBottom
	return float64(v.Height) - padBottom - y/v.Top*usable
}

// connectorStart returns the pixel column where an elbow connector leaves a
// label of width w centred at tx: the edge of the text facing the anchor.
func connectorStart(w, tx, ax float64) float64 {
	if ax >= tx {
		return tx + w/2 + 3
	}
	return tx - w/2 - 3
}

// textWidth estimates the rendered width of text in pixels.
func textWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * charWidth
}

// maxTicks bounds niceTicks for ranges that float spacing cannot subdivide.
const maxTicks = 64

// niceTicks returns round tick values covering [lo, hi], about five of them.
// It returns nil when the step is too small to move a value of lo's magnitude.
func niceTicks(lo, hi float64) []float64 {
	if !(hi > lo) || math.IsInf(hi-lo, 0) {
		return nil
	}
	raw := (hi - lo) / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		step = m * mag
		if step >= raw {
			break
		}
	}
	first := math.Ceil(lo/step) * step
	if lo+step == lo || first+step == first {
		return nil
	}
	n := int(math.Floor((hi-first)/step+1e-9)) + 1
	if n <= 0 {
		return nil
	}
	n = min(n, maxTicks)
	ticks := make([]float64, 0, n)
	for k := range n {
		t := first + float64(k)*step
		ticks = append(ticks, math.Round(t/step)*step)
	}
	return ticks
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
