package export

import (
	"bytes"
	"encoding/xml"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/testutil"
)

func testPlan(t *testing.T) diagram.Plan {
	t.Helper()
	plan, err := diagram.Build(diagram.Input{
		Scores: []float64{19.64, 20.00, 25, 28.93, 31.43, 33.4},
		Names:  []string{"fourth", "second", "fifth", "third", "first", "sixth"},
		Source: diagram.StaticPairs{
			diagram.P(0, 1), diagram.P(1, 2), diagram.P(2, 3),
			diagram.P(3, 4), diagram.P(3, 5), diagram.P(4, 5),
		},
		XLabel: "accuracy, %",
		Params: diagram.DefaultLayoutParams(),
	})
	if err != nil {
		t.Fatalf("diagram.Build: %v", err)
	}
	return plan
}

func TestSaveDiagram_SVGAndPNG(t *testing.T) {
	plan := testPlan(t)
	tmp := t.TempDir()
	cases := []struct {
		name string
		file string
	}{
		{"svg", "cd.svg"},
		{"png", "cd.png"},
		{"nested dir", filepath.Join("out", "deeper", "cd.png")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(tmp, tc.file)
			if err := SaveDiagram(DiagramOptions{Path: out, Plan: plan}); err != nil {
				t.Fatalf("SaveDiagram error: %v", err)
			}
			info, err := os.Stat(out)
			if err != nil {
				t.Fatalf("output not created: %v", err)
			}
			if info.Size() == 0 {
				t.Fatalf("output file is empty")
			}
		})
	}
}

func TestSaveDiagram_InvalidFormat(t *testing.T) {
	err := SaveDiagram(DiagramOptions{
		Path:   filepath.Join(t.TempDir(), "cd.txt"),
		Format: "txt",
		Plan:   testPlan(t),
	})
	if err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestSaveDiagram_EmptyPath(t *testing.T) {
	if err := SaveDiagram(DiagramOptions{Plan: testPlan(t)}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestSaveDiagram_EmptyPlan(t *testing.T) {
	err := SaveDiagram(DiagramOptions{Path: filepath.Join(t.TempDir(), "cd.svg")})
	if err == nil {
		t.Fatalf("expected error for empty plan")
	}
}

func TestSaveDiagram_UnwritablePath(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A regular file cannot be used as a directory.
	err := SaveDiagram(DiagramOptions{Path: filepath.Join(blocker, "cd.svg"), Plan: testPlan(t)})
	if err == nil {
		t.Fatalf("expected error writing below a regular file")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name       string
		opts       DiagramOptions
		wantFormat string
		wantPath   string
	}{
		{"svg extension", DiagramOptions{Path: "a.svg"}, FormatSVG, "a.svg"},
		{"png extension", DiagramOptions{Path: "a.PNG"}, FormatPNG, "a.PNG"},
		{"no extension defaults to svg", DiagramOptions{Path: "a"}, FormatSVG, "a.svg"},
		{"forced format", DiagramOptions{Path: "a.img", Format: ".PNG"}, FormatPNG, "a.img"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, path, err := ResolveFormat(tt.opts)
			if err != nil {
				t.Fatalf("ResolveFormat: %v", err)
			}
			if format != tt.wantFormat || path != tt.wantPath {
				t.Errorf("got (%s, %s), want (%s, %s)", format, path, tt.wantFormat, tt.wantPath)
			}
		})
	}
}

func renderSVG(t *testing.T, plan diagram.Plan) string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteSVG(&buf, plan, 800, 300); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	return buf.String()
}

func TestSVG_ValidXMLStructure(t *testing.T) {
	content := renderSVG(t, testPlan(t))

	var svgDoc interface{}
	if err := xml.Unmarshal([]byte(content), &svgDoc); err != nil {
		t.Errorf("SVG is not valid XML: %v\nContent:\n%s", err, content)
	}
	if !strings.Contains(content, "<svg") || !strings.Contains(content, "</svg>") {
		t.Error("missing <svg> root element")
	}
}

func TestSVG_HasRequestedDimensions(t *testing.T) {
	content := renderSVG(t, testPlan(t))

	widthMatch := regexp.MustCompile(`width="([0-9]+)"`).FindStringSubmatch(content)
	heightMatch := regexp.MustCompile(`height="([0-9]+)"`).FindStringSubmatch(content)
	if len(widthMatch) < 2 || len(heightMatch) < 2 {
		t.Fatal("Could not extract width/height from SVG")
	}
	if w, _ := strconv.Atoi(widthMatch[1]); w != 800 {
		t.Errorf("width = %d, want 800", w)
	}
	if h, _ := strconv.Atoi(heightMatch[1]); h != 300 {
		t.Errorf("height = %d, want 300", h)
	}
}

func TestSVG_MethodsAndLabelsRendered(t *testing.T) {
	plan := testPlan(t)
	content := renderSVG(t, plan)

	if got := strings.Count(content, "<circle"); got != len(plan.Points) {
		t.Errorf("circles = %d, want %d", got, len(plan.Points))
	}
	for _, name := range []string{"fourth", "second", "fifth", "third", "first", "sixth", "accuracy, %"} {
		if !strings.Contains(content, ">"+name+"<") {
			t.Errorf("label %q not found in SVG", name)
		}
	}
	// One elbow connector per method label.
	if got := strings.Count(content, "<polyline"); got != len(plan.Labels) {
		t.Errorf("polylines = %d, want %d", got, len(plan.Labels))
	}
}

func TestSVG_OneThickLinePerConnector(t *testing.T) {
	plan := testPlan(t)
	content := renderSVG(t, plan)

	if got := strings.Count(content, "stroke-width:3"); got != len(plan.Placements) {
		t.Errorf("connector lines = %d, want %d", got, len(plan.Placements))
	}
}

func TestSVG_GeneratedFixtures(t *testing.T) {
	gen := testutil.NewDefault()
	for _, f := range []testutil.Fixture{gen.Chain(12), gen.Blocks(4, 4, 4), gen.Staircase(9, 3)} {
		t.Run(f.Description, func(t *testing.T) {
			plan, err := diagram.Build(f.Input(diagram.DefaultLayoutParams()))
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			content := renderSVG(t, plan)
			var svgDoc interface{}
			if err := xml.Unmarshal([]byte(content), &svgDoc); err != nil {
				t.Fatalf("SVG is not valid XML: %v", err)
			}
			if got := strings.Count(content, "stroke-width:3"); got != len(plan.Placements) {
				t.Errorf("connector lines = %d, want %d", got, len(plan.Placements))
			}
		})
	}
}

func TestPNG_ConnectorPixelsAreDrawn(t *testing.T) {
	plan := testPlan(t)
	var buf bytes.Buffer
	if err := WritePNG(&buf, plan, 800, 300); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 300 {
		t.Fatalf("image size = %v, want 800x300", b)
	}

	vp := NewViewport(plan, 800, 300)
	for _, pl := range plan.Placements {
		x := vp.PX((plan.Points[pl.Lo].X + plan.Points[pl.Hi].X) / 2)
		y := vp.PY(pl.Height)
		r, g, b, _ := img.At(int(x), int(y)).RGBA()
		if r > 0x4000 || g > 0x4000 || b > 0x4000 {
			t.Errorf("connector %s not drawn at (%d,%d): rgb=%x,%x,%x", pl.Pair, int(x), int(y), r, g, b)
		}
	}
}
