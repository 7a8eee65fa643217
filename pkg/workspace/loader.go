package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/export"
	"github.com/vanderheijden86/critdiff/pkg/loader"
)

// Options applies to every diagram in the workspace.
type Options struct {
	Params diagram.LayoutParams
	Width  int
	Height int
	Format string // "" infers the format from each output's extension
}

// Result is the outcome of rendering one diagram.
type Result struct {
	Name     string
	Input    string
	Outputs  []string
	Plan     diagram.Plan
	Error    error
	Duration time.Duration
}

// Renderer renders all diagrams of a workspace.
type Renderer struct {
	config *Config
	root   string
	opts   Options
}

// NewRenderer creates a renderer for config. Relative paths resolve against
// root.
func NewRenderer(config *Config, root string, opts Options) *Renderer {
	return &Renderer{config: config, root: root, opts: opts}
}

// RenderAll renders every enabled diagram concurrently. Results keep the
// workspace order. A diagram that fails is recorded in its Result and does
// not stop the others.
func (r *Renderer) RenderAll(ctx context.Context) ([]Result, error) {
	if r.config == nil {
		return nil, errors.New("workspace config is nil")
	}
	enabled := r.enabledDiagrams()
	if len(enabled) == 0 {
		return nil, errors.New("no enabled diagrams in workspace")
	}

	limit := r.config.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, d := range enabled {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: d.GetName(), Input: r.resolve(d.Input), Error: err}
				return nil
			}
			results[i] = r.renderOne(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	debug.Log("workspace: rendered %d diagrams", len(enabled))
	return results, nil
}

func (r *Renderer) enabledDiagrams() []DiagramConfig {
	var enabled []DiagramConfig
	for _, d := range r.config.Diagrams {
		if d.IsEnabled() {
			enabled = append(enabled, d)
		}
	}
	return enabled
}

func (r *Renderer) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.root, path)
}

func (r *Renderer) renderOne(d DiagramConfig) (res Result) {
	start := time.Now()
	res = Result{Name: d.GetName(), Input: r.resolve(d.Input)}
	defer func() {
		res.Duration = time.Since(start)
		debug.Log("workspace: %s took %s (err=%v)", res.Name, res.Duration, res.Error)
	}()

	plan, err := r.build(res.Input)
	if err != nil {
		res.Error = err
		return res
	}
	res.Plan = plan

	for _, out := range d.Outputs {
		path := r.resolve(out)
		if err := export.SaveDiagram(export.DiagramOptions{
			Path:   path,
			Format: r.opts.Format,
			Width:  r.opts.Width,
			Height: r.opts.Height,
			Plan:   plan,
		}); err != nil {
			res.Error = err
			return res
		}
		res.Outputs = append(res.Outputs, path)
	}
	if d.SQLite != "" {
		path := r.resolve(d.SQLite)
		if err := export.ExportSQLite(path, plan); err != nil {
			res.Error = err
			return res
		}
		res.Outputs = append(res.Outputs, path)
	}
	return res
}

func (r *Renderer) build(input string) (diagram.Plan, error) {
	doc, err := loader.LoadFile(input)
	if err != nil {
		return diagram.Plan{}, err
	}
	in, err := doc.Input(r.opts.Params)
	if err != nil {
		return diagram.Plan{}, fmt.Errorf("%s: %w", input, err)
	}
	plan, err := diagram.Build(in)
	if err != nil {
		return diagram.Plan{}, fmt.Errorf("%s: %w", input, err)
	}
	return plan, nil
}

// RenderFromConfig loads the workspace file at path and renders it.
func RenderFromConfig(ctx context.Context, path string, opts Options) ([]Result, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewRenderer(config, Root(path), opts).RenderAll(ctx)
}

// Summary counts rendered and failed diagrams.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Connectors  int
	Outputs     int
	FailedNames []string
}

// Summarize returns a summary of the results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, res := range results {
		if res.Error != nil {
			s.Failed++
			s.FailedNames = append(s.FailedNames, res.Name)
			continue
		}
		s.Succeeded++
		s.Connectors += len(res.Plan.Placements)
		s.Outputs += len(res.Outputs)
	}
	return s
}
