package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/loader"
)

// AssertNoContainment verifies no merged connector lies inside another.
func AssertNoContainment(t *testing.T, merged []diagram.Pair) {
	t.Helper()
	for i, a := range merged {
		for j, b := range merged {
			if i != j && diagram.Contains(a, b) {
				t.Errorf("connector %s contains %s", a, b)
			}
		}
	}
}

// AssertNoLayerCollision verifies connectors sharing a layer are disjoint.
func AssertNoLayerCollision(t *testing.T, placements []diagram.Placement) {
	t.Helper()
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			if a.Layer == b.Layer && diagram.Overlaps(a.Pair, b.Pair) {
				t.Errorf("connectors %s and %s overlap on layer %d", a.Pair, b.Pair, a.Layer)
			}
		}
	}
}

// AssertCovered verifies every input pair lies within some merged connector.
func AssertCovered(t *testing.T, pairs, merged []diagram.Pair) {
	t.Helper()
	for _, p := range pairs {
		if !slices.ContainsFunc(merged, func(m diagram.Pair) bool {
			return m == p || diagram.Contains(m, p)
		}) {
			t.Errorf("pair %s is not covered by any connector", p)
		}
	}
}

// AssertPlan checks the layout invariants of plan and, where known, the
// fixture's expected connector and layer counts.
func AssertPlan(t *testing.T, f Fixture, plan diagram.Plan) {
	t.Helper()
	if len(plan.Points) != len(f.Scores) {
		t.Errorf("%s: %d points, want %d", f.Description, len(plan.Points), len(f.Scores))
	}
	AssertNoContainment(t, plan.Merged)
	AssertCovered(t, plan.Pairs, plan.Merged)
	AssertNoLayerCollision(t, plan.Placements)
	if len(plan.Placements) != len(plan.Merged) {
		t.Errorf("%s: %d placements for %d connectors", f.Description, len(plan.Placements), len(plan.Merged))
	}
	if want := f.Properties.ExpectedMerged; want >= 0 && len(plan.Merged) != want {
		t.Errorf("%s: %d connectors, want %d", f.Description, len(plan.Merged), want)
	}
	if want := f.Properties.ExpectedLayers; want >= 0 {
		if got := diagram.Layers(plan.Placements); got != want {
			t.Errorf("%s: %d layers, want %d", f.Description, got, want)
		}
	}
}

// WriteDocument writes doc to dir/name as JSON or YAML, chosen by the file
// extension, and returns the path.
func WriteDocument(t *testing.T, dir, name string, doc loader.Document) string {
	t.Helper()

	path := filepath.Join(dir, name)
	var (
		data []byte
		err  error
	)
	if loader.FormatFor(path) == loader.FormatJSON {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		t.Fatalf("failed to encode document: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return path
}
