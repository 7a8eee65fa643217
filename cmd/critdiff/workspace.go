package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/critdiff/pkg/workspace"
)

// Flags that describe a single diagram and make no sense for a workspace.
var singleDiagramFlags = []string{"in", "o", "sqlite", "json", "copy", "watch", "threshold", "xlabel"}

func (r *renderer) resolveWorkspace() error {
	for _, name := range singleDiagramFlags {
		if r.opts.set[name] {
			return fmt.Errorf("-workspace cannot be combined with -%s", name)
		}
	}
	path, err := workspace.FindConfig(r.opts.workspace)
	if err != nil {
		return fmt.Errorf("finding workspace: %w", err)
	}
	r.workspacePath = path
	return nil
}

// renderWorkspace renders every diagram of the workspace with the shared
// layout and canvas settings and reports one line per diagram.
func (r *renderer) renderWorkspace(ctx context.Context) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	format := r.opts.format
	if format == "" {
		format = cfg.Canvas.Format
	}
	width, height := r.canvasSize(cfg)

	results, err := workspace.RenderFromConfig(ctx, r.workspacePath, workspace.Options{
		Params: r.layoutParams(cfg),
		Width:  width,
		Height: height,
		Format: format,
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Error != nil {
			fmt.Fprintf(r.stdout, "FAIL %s: %v\n", res.Name, res.Error)
			continue
		}
		fmt.Fprintf(r.stdout, "ok   %s: %d methods, %d connectors (%s)\n",
			res.Name, len(res.Plan.Points), len(res.Plan.Placements), res.Duration.Round(time.Microsecond))
	}
	s := workspace.Summarize(results)
	fmt.Fprintf(r.stdout, "%d of %d diagrams rendered, %d files written\n", s.Succeeded, s.Total, s.Outputs)
	if s.Failed > 0 {
		return fmt.Errorf("%d %s failed: %s", s.Failed, plural(s.Failed, "diagram", "diagrams"), strings.Join(s.FailedNames, ", "))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
