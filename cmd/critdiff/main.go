// Command critdiff draws critical difference diagrams from a document of
// average scores and the pairs of methods that are not significantly
// different.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/version"
)

// outputList collects repeated -o flags.
type outputList []string

func (o *outputList) String() string { return strings.Join(*o, ",") }

func (o *outputList) Set(v string) error {
	if v == "" {
		return errors.New("empty output path")
	}
	*o = append(*o, v)
	return nil
}

// options holds parsed command-line flags. set records which flags were
// given explicitly so they can override the config file.
type options struct {
	in          string
	outputs     outputList
	format      string
	threshold   float64
	xlabel      string
	arrowVGap   float64
	linkVOffset float64
	linkVGap    float64
	width       int
	height      int
	jsonOut     bool
	sqlitePath  string
	summary     bool
	copy        bool
	watch       bool
	workspace   string
	configPath  string
	noHooks     bool
	debug       bool
	cpuProfile  string
	version     bool
	help        bool

	set map[string]bool
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("critdiff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "Input document (.yaml, .yml or .json; - for stdin). Defaults to $CRITDIFF_INPUT")
	fs.Var(&o.outputs, "o", "Output image path (.svg or .png); repeatable")
	fs.StringVar(&o.format, "format", "", "Force output format (svg or png)")
	fs.Float64Var(&o.threshold, "threshold", 0, "Join methods whose scores differ by at most this much, ignoring the document's pairs")
	fs.StringVar(&o.xlabel, "xlabel", "", "Axis caption (overrides the document)")
	fs.Float64Var(&o.arrowVGap, "arrow-vgap", 0, "Vertical gap between label rows, fraction of height")
	fs.Float64Var(&o.linkVOffset, "link-voffset", 0, "Height of the lowest connector layer, fraction of height")
	fs.Float64Var(&o.linkVGap, "link-vgap", 0, "Gap between connector layers, fraction of height")
	fs.IntVar(&o.width, "width", 0, "Image width in pixels")
	fs.IntVar(&o.height, "height", 0, "Image height in pixels")
	fs.BoolVar(&o.jsonOut, "json", false, "Print the laid out diagram as JSON")
	fs.StringVar(&o.sqlitePath, "sqlite", "", "Write the laid out diagram to a SQLite database")
	fs.BoolVar(&o.summary, "summary", false, "Print a summary of methods, groups and connectors")
	fs.BoolVar(&o.copy, "copy", false, "Copy the summary to the clipboard")
	fs.BoolVar(&o.watch, "watch", false, "Re-render whenever the input or config file changes")
	fs.StringVar(&o.workspace, "workspace", "", "Render every diagram in a workspace file, or the .critdiff/workspace.yaml found from a directory")
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/critdiff/config.yaml)")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip hooks from .critdiff/hooks.yaml")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging to stderr")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	return fs
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{set: make(map[string]bool)}
	fs := newFlagSet(o, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if fs.NArg() > 0 {
		return nil, fs, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, fs, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: critdiff -in scores.yaml -o diagram.svg [options]")
		fmt.Fprintln(stdout, "\nDraws a critical difference diagram.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "critdiff %s\n", version.Version)
		return 0
	}

	if opts.debug {
		debug.SetEnabled(true)
	}
	debug.SetOutput(stderr)

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &renderer{
		opts:   opts,
		stdout: stdout,
		stderr: stderr,
		styled: isTerminal(stdout),
	}
	if err := r.resolve(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if r.workspacePath != "" {
		if err := r.renderWorkspace(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err := r.renderOnce(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}
	if err := r.watch(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
