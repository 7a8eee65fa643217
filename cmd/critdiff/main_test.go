package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/critdiff/pkg/config"
	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/testutil"
)

const cliqueDoc = `scores: [19.64, 20.0, 25, 28.93, 31.43, 33.4]
names: [fourth, second, fifth, third, first, sixth]
pairs: [[0, 1], [1, 2], [0, 2], [3, 4], [3, 5], [4, 5]]
xlabel: "accuracy, %"
`

// setup writes the input document and isolates the test from any user
// config.
func setup(t *testing.T, doc string) (dir, in string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("CRITDIFF_INPUT", "")
	in = filepath.Join(dir, "scores.yaml")
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, in
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || !strings.HasPrefix(out, "critdiff v") {
		t.Errorf("version: code=%d out=%q", code, out)
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI(t, "-help")
	if code != 0 {
		t.Fatalf("help exit code %d", code)
	}
	for _, want := range []string{"Usage: critdiff", "-link-vgap", "-watch"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRun_FlagErrors(t *testing.T) {
	tests := [][]string{
		{"-no-such-flag"},
		{"-width", "wide"},
		{"stray-arg"},
		{"-o", ""},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, _, _ := runCLI(t, args...)
			if code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestRun_MissingInput(t *testing.T) {
	dir, _ := setup(t, cliqueDoc)
	code, _, stderr := runCLI(t, "-in", filepath.Join(dir, "absent.yaml"))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr, "Error: ") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_NoInputGiven(t *testing.T) {
	setup(t, cliqueDoc)
	code, _, stderr := runCLI(t)
	if code != 1 || !strings.Contains(stderr, "CRITDIFF_INPUT") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_InvalidDocument(t *testing.T) {
	_, in := setup(t, "scores: [3, 1, 2]\n")
	code, _, stderr := runCLI(t, "-in", in, "-summary")
	if code != 1 || !strings.Contains(stderr, "scores[1]") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_WritesAllOutputs(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	svgPath := filepath.Join(dir, "out", "cd.svg")
	pngPath := filepath.Join(dir, "out", "cd.png")
	dbPath := filepath.Join(dir, "out", "cd.db")

	code, _, stderr := runCLI(t, "-in", in, "-o", svgPath, "-o", pngPath, "-sqlite", dbPath)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	for _, p := range []string{svgPath, pngPath, dbPath} {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("expected non-empty %s: %v", p, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var connectors int
	if err := db.QueryRow(`SELECT COUNT(*) FROM connectors WHERE layer = 0`).Scan(&connectors); err != nil {
		t.Fatal(err)
	}
	if connectors != 2 {
		t.Errorf("expected 2 baseline connectors, got %d", connectors)
	}
}

func TestRun_JSON(t *testing.T) {
	_, in := setup(t, cliqueDoc)
	code, out, stderr := runCLI(t, "-in", in, "-json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	var plan diagram.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	want := []diagram.Pair{diagram.P(0, 2), diagram.P(3, 5)}
	if !slices.Equal(plan.Merged, want) {
		t.Errorf("merged = %v, want %v", plan.Merged, want)
	}
	for _, pl := range plan.Placements {
		if pl.Layer != 0 {
			t.Errorf("%s on layer %d, want baseline", pl.Pair, pl.Layer)
		}
	}
}

func TestRun_GeneratedDocuments(t *testing.T) {
	gen := testutil.NewDefault()
	fixtures := []testutil.Fixture{gen.Chain(6), gen.Blocks(3, 2, 3), gen.Staircase(7, 3)}
	for i, f := range fixtures {
		t.Run(f.Description, func(t *testing.T) {
			dir, _ := setup(t, "scores: [1]\n")
			name := "scores.yaml"
			if i%2 == 1 {
				name = "scores.json"
			}
			in := testutil.WriteDocument(t, dir, name, gen.Document(f))

			code, out, stderr := runCLI(t, "-in", in, "-json")
			if code != 0 {
				t.Fatalf("exit code %d: %s", code, stderr)
			}
			var plan diagram.Plan
			if err := json.Unmarshal([]byte(out), &plan); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			testutil.AssertPlan(t, f, plan)
			if plan.XLabel == nil || plan.XLabel.Text != "average rank" {
				t.Errorf("axis label = %+v", plan.XLabel)
			}
		})
	}
}

func TestRun_DefaultsToSummary(t *testing.T) {
	_, in := setup(t, cliqueDoc)
	code, out, _ := runCLI(t, "-in", in)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	for _, want := range []string{"6 methods, 2 connectors on 1 layer", "{fourth, second, fifth}"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ThresholdOverridesPairs(t *testing.T) {
	_, in := setup(t, cliqueDoc)
	code, out, _ := runCLI(t, "-in", in, "-json", "-threshold", "1")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	var plan diagram.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(plan.Pairs, []diagram.Pair{diagram.P(0, 1)}) {
		t.Errorf("pairs = %v, want [(0,1)]", plan.Pairs)
	}
}

func TestRun_ConfigAndFlagPrecedence(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	cfgPath := filepath.Join(dir, "critdiff.yaml")
	cfg := "layout:\n  link_voffset: 0.3\n  link_vgap: 0.05\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := runCLI(t, "-in", in, "-json", "-config", cfgPath, "-link-vgap", "0.2")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	var plan diagram.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.Params.LinkVOffset != 0.3 {
		t.Errorf("link_voffset = %v, want 0.3 from config", plan.Params.LinkVOffset)
	}
	if plan.Params.LinkVGap != 0.2 {
		t.Errorf("link_vgap = %v, want 0.2 from flag", plan.Params.LinkVGap)
	}
	if plan.Params.ArrowVGap != 0.2 {
		t.Errorf("arrow_vgap = %v, want default 0.2", plan.Params.ArrowVGap)
	}
}

func TestRun_BadExplicitConfig(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	cfgPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("layout:\n  link_vgap: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-in", in, "-config", cfgPath)
	if code != 1 || !strings.Contains(stderr, "link_vgap") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_BadDefaultConfigWarns(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	cfgDir := filepath.Join(dir, "xdg", "critdiff")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("layout: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-in", in)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stderr, "Warning: ignoring config") {
		t.Errorf("expected warning, got %q", stderr)
	}
}

func TestRun_InvalidLayoutFlag(t *testing.T) {
	_, in := setup(t, cliqueDoc)
	code, _, stderr := runCLI(t, "-in", in, "-arrow-vgap", "1.5")
	if code != 1 || !strings.Contains(stderr, "arrow_vgap") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_WatchRejectsStdin(t *testing.T) {
	setup(t, cliqueDoc)
	code, _, stderr := runCLI(t, "-in", "-", "-watch")
	if code != 1 || !strings.Contains(stderr, "stdin") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestRenderer_CopySummary(t *testing.T) {
	_, in := setup(t, cliqueDoc)
	opts, _, err := parseFlags([]string{"-in", in, "-copy"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	var copied string
	var stdout, stderr bytes.Buffer
	r := &renderer{
		opts:     opts,
		stdout:   &stdout,
		stderr:   &stderr,
		copyText: func(s string) error { copied = s; return nil },
	}
	if err := r.resolve(); err != nil {
		t.Fatal(err)
	}
	if err := r.renderOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(copied, "6 methods") {
		t.Errorf("clipboard got %q", copied)
	}
	if stdout.Len() != 0 {
		t.Errorf("-copy alone should not print the summary, got %q", stdout.String())
	}

	r.copyText = func(string) error { return errors.New("no clipboard") }
	stderr.Reset()
	if err := r.renderOnce(context.Background()); err != nil {
		t.Fatalf("clipboard failure should not fail the run: %v", err)
	}
	if !strings.Contains(stderr.String(), "could not copy") {
		t.Errorf("expected warning, got %q", stderr.String())
	}
}

func TestOutputList(t *testing.T) {
	var o outputList
	for _, v := range []string{"a.svg", "b.png"} {
		if err := o.Set(v); err != nil {
			t.Fatal(err)
		}
	}
	if o.String() != "a.svg,b.png" {
		t.Errorf("String() = %q", o.String())
	}
}

func TestRun_Hooks(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	if err := os.MkdirAll(filepath.Join(dir, ".critdiff"), 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(dir, "marker.txt")
	hooksYAML := "hooks:\n  post-render:\n    - name: mark\n      command: echo \"$CRITDIFF_METHODS $CRITDIFF_CONNECTORS\" > " + marker + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".critdiff", "hooks.yaml"), []byte(hooksYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "-in", in, "-o", filepath.Join(dir, "cd.svg"))
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("post-render hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "6 2" {
		t.Errorf("hook saw %q, want \"6 2\"", got)
	}

	if err := os.Remove(marker); err != nil {
		t.Fatal(err)
	}
	code, _, _ = runCLI(t, "-in", in, "-o", filepath.Join(dir, "cd.svg"), "-no-hooks")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("-no-hooks should skip hooks")
	}
}

func TestRun_PreRenderHookFailureAborts(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	if err := os.MkdirAll(filepath.Join(dir, ".critdiff"), 0o755); err != nil {
		t.Fatal(err)
	}
	hooksYAML := "hooks:\n  pre-render:\n    - name: gate\n      command: exit 1\n"
	if err := os.WriteFile(filepath.Join(dir, ".critdiff", "hooks.yaml"), []byte(hooksYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "cd.svg")
	code, _, stderr := runCLI(t, "-in", in, "-o", out)
	if code != 1 || !strings.Contains(stderr, "gate") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output should be written when a pre-render hook fails")
	}
}

func TestRun_Workspace(t *testing.T) {
	dir, _ := setup(t, cliqueDoc)
	if err := os.MkdirAll(filepath.Join(dir, ".critdiff"), 0o755); err != nil {
		t.Fatal(err)
	}
	ws := "diagrams:\n  - input: scores.yaml\n    outputs: [out/cd.svg]\n    sqlite: out/cd.db\n"
	if err := os.WriteFile(filepath.Join(dir, ".critdiff", "workspace.yaml"), []byte(ws), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := runCLI(t, "-workspace", dir, "-width", "640")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	for _, want := range []string{"ok   scores: 6 methods, 2 connectors", "1 of 1 diagrams rendered, 2 files written"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	svg, err := os.ReadFile(filepath.Join(dir, "out", "cd.svg"))
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !strings.Contains(string(svg), `width="640"`) {
		t.Error("-width was not applied to workspace diagrams")
	}
}

func TestRun_WorkspaceFailures(t *testing.T) {
	dir, in := setup(t, "scores: [2, 1]\n")
	wsPath := filepath.Join(dir, "batch.yaml")
	if err := os.WriteFile(wsPath, []byte("diagrams:\n  - name: bad\n    input: scores.yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := runCLI(t, "-workspace", wsPath)
	if code != 1 || !strings.Contains(out, "FAIL bad") || !strings.Contains(stderr, "1 diagram failed: bad") {
		t.Errorf("code=%d out=%q stderr=%q", code, out, stderr)
	}

	code, _, stderr = runCLI(t, "-workspace", wsPath, "-in", in)
	if code != 1 || !strings.Contains(stderr, "cannot be combined with -in") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}

	code, _, stderr = runCLI(t, "-workspace", t.TempDir())
	if code != 1 || !strings.Contains(stderr, "finding workspace") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}

func TestUniqueOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Output: config.OutputConfig{Dir: dir}}
	got := uniqueOutputs(cfg, []string{"a.svg", "./a.svg", "b.png", filepath.Join(dir, "a.svg"), "sub/../b.png"})
	want := []string{filepath.Join(dir, "a.svg"), filepath.Join(dir, "b.png")}
	if !slices.Equal(got, want) {
		t.Errorf("uniqueOutputs = %v, want %v", got, want)
	}
	if got := uniqueOutputs(config.Config{}, []string{"x.svg", "./x.svg"}); !slices.Equal(got, []string{"x.svg"}) {
		t.Errorf("relative duplicates gave %v", got)
	}
	if got := uniqueOutputs(config.Config{}, nil); len(got) != 0 {
		t.Errorf("no outputs gave %v", got)
	}
}

func TestRun_DuplicateOutputsWrittenOnce(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	if err := os.MkdirAll(filepath.Join(dir, ".critdiff"), 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(dir, "outputs.txt")
	hooksYAML := "hooks:\n  post-render:\n    - name: outputs\n      command: echo \"$CRITDIFF_OUTPUTS\" > " + marker + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".critdiff", "hooks.yaml"), []byte(hooksYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	svg := filepath.Join(dir, "cd.svg")
	sep := string(filepath.Separator)
	code, _, stderr := runCLI(t, "-in", in, "-o", svg, "-o", dir+sep+"."+sep+"cd.svg")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("post-render hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != svg {
		t.Errorf("outputs = %q, want only %q", got, svg)
	}
	content, err := os.ReadFile(svg)
	if err != nil || !strings.Contains(string(content), "</svg>") {
		t.Errorf("cd.svg not a complete SVG: %v", err)
	}
}

func TestRun_SQLiteSameAsImageOutput(t *testing.T) {
	dir, in := setup(t, cliqueDoc)
	out := filepath.Join(dir, "cd.svg")
	code, _, stderr := runCLI(t, "-in", in, "-o", out, "-sqlite", dir+string(filepath.Separator)+"cd.svg")
	if code == 0 {
		t.Fatal("expected failure when -sqlite and -o name the same file")
	}
	if !strings.Contains(stderr, "also an image output") {
		t.Errorf("stderr = %q", stderr)
	}
}
