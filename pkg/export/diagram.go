// Package export renders critical difference diagrams to image files and
// stores their layout in SQLite.
package export

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/metrics"
)

// Supported image formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// DiagramOptions controls diagram export.
type DiagramOptions struct {
	Path   string       // Output path; format inferred from extension when Format empty
	Format string       // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Width  int          // Canvas width in pixels, DefaultWidth when zero
	Height int          // Canvas height in pixels, DefaultHeight when zero
	Plan   diagram.Plan // Laid out diagram from diagram.Build
}

// ResolveFormat returns the image format for opts and the path to write,
// appending ".svg" to extension-less paths when no format is forced.
func ResolveFormat(opts DiagramOptions) (format, path string, err error) {
	path = opts.Path
	format = strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = FormatSVG
		case ".png":
			format = FormatPNG
		default:
			format = FormatSVG
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != FormatSVG && format != FormatPNG {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

// SaveDiagram renders the plan to an SVG or PNG file. Errors from the file
// system are returned with context but otherwise unchanged.
func SaveDiagram(opts DiagramOptions) error {
	if len(opts.Plan.Points) == 0 {
		return fmt.Errorf("no methods to export")
	}
	format, path, err := ResolveFormat(opts)
	if err != nil {
		return err
	}
	defer metrics.Timer(metrics.Export)()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	switch format {
	case FormatSVG:
		err = WriteSVG(w, opts.Plan, opts.Width, opts.Height)
	case FormatPNG:
		err = WritePNG(w, opts.Plan, opts.Width, opts.Height)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	debug.Log("wrote %s diagram to %s", format, path)
	return file.Close()
}

// WriteSVG renders the plan as an SVG document.
func WriteSVG(w io.Writer, plan diagram.Plan, width, height int) error {
	ew := &errWriter{w: w}
	canvas := NewSVGCanvas(ew, NewViewport(plan, width, height))
	diagram.Render(plan, canvas)
	canvas.Close()
	return ew.err
}

// WritePNG renders the plan as a PNG image.
func WritePNG(w io.Writer, plan diagram.Plan, width, height int) error {
	canvas := NewPNGCanvas(NewViewport(plan, width, height))
	diagram.Render(plan, canvas)
	return png.Encode(w, canvas.Image())
}

// errWriter keeps the first write error; svgo ignores write errors.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
