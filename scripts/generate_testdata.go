//go:build ignore

// generate_testdata.go writes sample input documents for trying out critdiff.
// Usage: go run scripts/generate_testdata.go
//
// Creates testdata/generated/{chain,blocks,staircase,random,threshold}.yaml
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/critdiff/pkg/testutil"
)

type datasetSpec struct {
	name    string
	fixture func(g *testutil.Generator) testutil.Fixture
}

var datasets = []datasetSpec{
	{"chain", func(g *testutil.Generator) testutil.Fixture { return g.Chain(8) }},
	{"blocks", func(g *testutil.Generator) testutil.Fixture { return g.Blocks(3, 1, 4, 2) }},
	{"staircase", func(g *testutil.Generator) testutil.Fixture { return g.Staircase(10, 3) }},
	{"random", func(g *testutil.Generator) testutil.Fixture { return g.Random(20, 0.15) }},
	{"threshold", func(g *testutil.Generator) testutil.Fixture { return g.Threshold(12, 0.6) }},
}

func main() {
	outputDir := "testdata/generated"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for i, ds := range datasets {
		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(i + 1) // Reproducible per dataset
		gen := testutil.New(cfg)
		f := ds.fixture(gen)

		data, err := yaml.Marshal(gen.Document(f))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
			os.Exit(1)
		}
		data = append([]byte("# "+f.Description+"\n"), data...)

		path := filepath.Join(outputDir, ds.name+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  Wrote %s (%d methods, %d pairs)\n", path, len(f.Scores), len(f.Pairs))
	}
	fmt.Println("Done!")
}
