package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/critdiff/pkg/config"
	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/export"
	"github.com/vanderheijden86/critdiff/pkg/hooks"
	"github.com/vanderheijden86/critdiff/pkg/loader"
	"github.com/vanderheijden86/critdiff/pkg/metrics"
	"github.com/vanderheijden86/critdiff/pkg/report"
	"github.com/vanderheijden86/critdiff/pkg/watcher"
)

// renderer turns the input document into every requested output. It is
// rerun from scratch on each change in watch mode.
type renderer struct {
	opts   *options
	stdout io.Writer
	stderr io.Writer
	styled bool

	inPath        string
	configPath    string
	workspacePath string

	// copyText replaces the system clipboard in tests.
	copyText func(string) error
}

func (r *renderer) resolve() error {
	r.configPath = r.opts.configPath
	if r.configPath == "" {
		r.configPath = config.ConfigPath()
	}
	if r.opts.workspace != "" {
		return r.resolveWorkspace()
	}

	in, err := loader.ResolvePath(r.opts.in)
	if err != nil {
		return err
	}
	if in == "-" && r.opts.watch {
		return fmt.Errorf("-watch needs a file, not stdin")
	}
	r.inPath = in
	return nil
}

// loadConfig reads the config file. A broken file at the default location
// only warns; one named with -config is an error.
func (r *renderer) loadConfig() (config.Config, error) {
	if r.opts.set["config"] {
		return config.LoadFrom(r.configPath)
	}
	if r.configPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadFrom(r.configPath)
	if err != nil {
		fmt.Fprintf(r.stderr, "Warning: ignoring config: %v\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// layoutParams applies layout flags over the config values.
func (r *renderer) layoutParams(cfg config.Config) diagram.LayoutParams {
	p := cfg.LayoutParams()
	if r.opts.set["arrow-vgap"] {
		p.ArrowVGap = r.opts.arrowVGap
	}
	if r.opts.set["link-voffset"] {
		p.LinkVOffset = r.opts.linkVOffset
	}
	if r.opts.set["link-vgap"] {
		p.LinkVGap = r.opts.linkVGap
	}
	return p
}

func (r *renderer) buildPlan(cfg config.Config) (diagram.Plan, error) {
	defer debug.LogEnterExit("buildPlan")()

	doc, err := loader.LoadFile(r.inPath)
	if err != nil {
		return diagram.Plan{}, err
	}
	in, err := doc.Input(r.layoutParams(cfg))
	if err != nil {
		return diagram.Plan{}, fmt.Errorf("%s: %w", r.inPath, err)
	}
	if r.opts.set["threshold"] {
		in.Source = diagram.ThresholdPairs{Threshold: r.opts.threshold}
	}
	if r.opts.set["xlabel"] {
		in.XLabel = r.opts.xlabel
	}
	plan, err := diagram.Build(in)
	if err != nil {
		return diagram.Plan{}, fmt.Errorf("%s: %w", r.inPath, err)
	}
	debug.Log("laid out %d connectors on %d layers", len(plan.Placements), diagram.Layers(plan.Placements))
	return plan, nil
}

func (r *renderer) canvasSize(cfg config.Config) (width, height int) {
	width, height = cfg.Canvas.Width, cfg.Canvas.Height
	if r.opts.set["width"] {
		width = r.opts.width
	}
	if r.opts.set["height"] {
		height = r.opts.height
	}
	return width, height
}

// loadHooks reads hooks from the input document's directory.
func (r *renderer) loadHooks() (*hooks.Executor, error) {
	if r.opts.noHooks {
		return nil, nil
	}
	dir := "."
	if r.inPath != "-" {
		dir = filepath.Dir(r.inPath)
	}
	cfg, warnings, err := hooks.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(r.stderr, "Warning: %s\n", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return hooks.NewExecutor(cfg), nil
}

// renderOnce loads, lays out and writes all requested outputs. Image and
// database files are written concurrently; stdout output follows in a fixed
// order once they succeed.
func (r *renderer) renderOnce(ctx context.Context) error {
	debug.Section("render")
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	hookExec, err := r.loadHooks()
	if err != nil {
		return err
	}
	rc := hooks.RenderContext{InputPath: r.inPath, Timestamp: time.Now()}
	if hookExec != nil {
		if err := hookExec.Run(ctx, hooks.PreRender, rc); err != nil {
			return err
		}
	}

	plan, err := r.buildPlan(cfg)
	if err != nil {
		return err
	}

	format := r.opts.format
	if format == "" {
		format = cfg.Canvas.Format
	}
	width, height := r.canvasSize(cfg)

	outputs := uniqueOutputs(cfg, r.opts.outputs)
	var sqlitePath string
	if r.opts.sqlitePath != "" {
		sqlitePath = cfg.ResolveOutput(r.opts.sqlitePath)
		for _, path := range outputs {
			if sameFile(path, sqlitePath) {
				return fmt.Errorf("-sqlite %s is also an image output", r.opts.sqlitePath)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range outputs {
		rc.Outputs = append(rc.Outputs, path)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return export.SaveDiagram(export.DiagramOptions{
				Path:   path,
				Format: format,
				Width:  width,
				Height: height,
				Plan:   plan,
			})
		})
	}
	if sqlitePath != "" {
		rc.Outputs = append(rc.Outputs, sqlitePath)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return export.ExportSQLite(sqlitePath, plan)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if r.opts.jsonOut {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		fmt.Fprintln(r.stdout, string(data))
	}

	wantSummary := r.opts.summary ||
		(len(r.opts.outputs) == 0 && r.opts.sqlitePath == "" && !r.opts.jsonOut && !r.opts.copy)
	if wantSummary {
		if err := report.Write(r.stdout, plan, report.Options{Styled: r.styled}); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	if r.opts.copy {
		r.copySummary(plan)
	}

	if hookExec != nil {
		rc.Methods = len(plan.Points)
		rc.Connectors = len(plan.Placements)
		if err := hookExec.Run(ctx, hooks.PostRender, rc); err != nil {
			fmt.Fprintf(r.stderr, "Warning: %v\n", err)
		}
		debug.Log("%s", hookExec.Summary())
	}

	if debug.Enabled() {
		for _, s := range metrics.AllTimingStats() {
			debug.LogTiming(s.Name, time.Duration(s.TotalMs*float64(time.Millisecond)))
		}
	}
	return nil
}

// copySummary puts the plain summary on the clipboard. A missing clipboard
// (headless machines, CI) is reported but does not fail the run.
func (r *renderer) copySummary(plan diagram.Plan) {
	write := r.copyText
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(report.String(plan)); err != nil {
		fmt.Fprintf(r.stderr, "Warning: could not copy summary: %v\n", err)
		return
	}
	fmt.Fprintln(r.stderr, "Summary copied to clipboard")
}

// watch re-renders on every change to the input document or config file
// until ctx is cancelled.
func (r *renderer) watch(ctx context.Context) error {
	w, err := watcher.New([]string{r.inPath, r.configPath},
		watcher.WithOnError(func(err error) {
			fmt.Fprintf(r.stderr, "Warning: %v\n", err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	mode := "fsnotify"
	if w.IsPolling() {
		mode = "polling"
	}
	fmt.Fprintf(r.stderr, "Watching %s (%s); press Ctrl-C to stop\n", r.inPath, mode)

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-w.Changed():
			debug.Log("re-rendering after change to %s", path)
			if err := r.renderOnce(ctx); err != nil {
				fmt.Fprintf(r.stderr, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(r.stderr, "Re-rendered after change to %s\n", path)
		}
	}
}

// uniqueOutputs resolves the -o paths and drops repeats of the same file, so
// no two writers race on one path. The first spelling of each file is kept.
func uniqueOutputs(cfg config.Config, outs []string) []string {
	seen := make(map[string]bool, len(outs))
	var paths []string
	for _, out := range outs {
		path := cfg.ResolveOutput(out)
		key := fileKey(path)
		if seen[key] {
			debug.Log("skipping duplicate output %s", path)
			continue
		}
		seen[key] = true
		paths = append(paths, path)
	}
	return paths
}

func sameFile(a, b string) bool {
	return fileKey(a) == fileKey(b)
}

func fileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
