// Package testutil provides fixture generators for critical difference
// diagrams. All generators produce deterministic output for reproducible
// tests.
package testutil

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/loader"
)

// Fixture is one set of ranked methods together with the pairs that are not
// significantly different.
type Fixture struct {
	Description string         `json:"description"`
	Scores      []float64      `json:"scores"`
	Names       []string       `json:"names"`
	Pairs       []diagram.Pair `json:"pairs,omitempty"`
	Threshold   float64        `json:"threshold,omitempty"`
	Properties  Properties     `json:"properties,omitempty"`
}

// Properties holds what a fixture is known to produce. -1 means unknown.
type Properties struct {
	ExpectedMerged int `json:"expected_merged"`
	ExpectedLayers int `json:"expected_layers"`
}

var unknown = Properties{ExpectedMerged: -1, ExpectedLayers: -1}

// GeneratorConfig controls score generation.
type GeneratorConfig struct {
	Seed       int64   // Random seed (0 = 42)
	NamePrefix string  // Prefix for method names (default: "m")
	Start      float64 // First score (default: 1)
	MaxStep    float64 // Largest gap between consecutive scores (default: 0.5)
	XLabel     string  // Axis caption copied into documents
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		NamePrefix: "m",
		Start:      1,
		MaxStep:    0.5,
		XLabel:     "average rank",
	}
}

// Generator creates fixtures with various pair topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "m"
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = 0.5
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Scores returns n ascending scores rounded to two decimals. Consecutive
// scores differ by at least 0.01.
func (g *Generator) Scores(n int) []float64 {
	scores := make([]float64, n)
	s := g.cfg.Start
	for i := range scores {
		if i > 0 {
			s += 0.01 + g.rng.Float64()*g.cfg.MaxStep
		}
		scores[i] = math.Round(s*100) / 100
	}
	return scores
}

// Names returns n method names.
func (g *Generator) Names(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", g.cfg.NamePrefix, i)
	}
	return names
}

func (g *Generator) fixture(desc string, n int, pairs []diagram.Pair, props Properties) Fixture {
	return Fixture{
		Description: desc,
		Scores:      g.Scores(n),
		Names:       g.Names(n),
		Pairs:       pairs,
		Properties:  props,
	}
}

// Chain joins every method to its neighbour: (0,1), (1,2), ...
// No pair contains another, so every pair survives merging, and since
// neighbouring connectors share an endpoint they alternate between two layers.
func (g *Generator) Chain(n int) Fixture {
	var pairs []diagram.Pair
	for i := 0; i+1 < n; i++ {
		pairs = append(pairs, diagram.P(i, i+1))
	}
	layers := 0
	switch {
	case n >= 3:
		layers = 2
	case n == 2:
		layers = 1
	}
	return g.fixture(fmt.Sprintf("Chain of %d methods", n), n, pairs, Properties{
		ExpectedMerged: len(pairs),
		ExpectedLayers: layers,
	})
}

// Blocks splits consecutive methods into groups of the given sizes and joins
// every pair inside a group. Each group of two or more merges into one
// connector, and groups never share an endpoint, so all sit on the baseline.
func (g *Generator) Blocks(sizes ...int) Fixture {
	var pairs []diagram.Pair
	start, merged := 0, 0
	for _, size := range sizes {
		for i := start; i < start+size; i++ {
			for j := i + 1; j < start+size; j++ {
				pairs = append(pairs, diagram.P(i, j))
			}
		}
		if size >= 2 {
			merged++
		}
		start += size
	}
	layers := 0
	if merged > 0 {
		layers = 1
	}
	return g.fixture(fmt.Sprintf("Blocks %v", sizes), start, pairs, Properties{
		ExpectedMerged: merged,
		ExpectedLayers: layers,
	})
}

// Staircase joins every pair inside each sliding window of the given width.
// Windows overlap, so connectors stack over several layers.
func (g *Generator) Staircase(n, width int) Fixture {
	seen := make(map[diagram.Pair]bool)
	var pairs []diagram.Pair
	for start := 0; start+width <= n; start++ {
		for i := start; i < start+width; i++ {
			for j := i + 1; j < start+width; j++ {
				p := diagram.P(i, j)
				if !seen[p] {
					seen[p] = true
					pairs = append(pairs, p)
				}
			}
		}
	}
	props := unknown
	if width >= 2 && n >= width {
		props.ExpectedMerged = n - width + 1
	}
	return g.fixture(fmt.Sprintf("Staircase of %d methods, window %d", n, width), n, pairs, props)
}

// Random joins each pair of methods with the given probability.
func (g *Generator) Random(n int, density float64) Fixture {
	density = math.Max(0, math.Min(1, density))
	var pairs []diagram.Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if g.rng.Float64() < density {
				pairs = append(pairs, diagram.P(i, j))
			}
		}
	}
	f := g.fixture(fmt.Sprintf("Random pairs over %d methods, density=%.2f (%d pairs)", n, density, len(pairs)), n, pairs, unknown)
	if len(pairs) == 0 {
		f.Properties = Properties{}
	}
	return f
}

// Threshold leaves pairs to be derived from score distances.
func (g *Generator) Threshold(n int, threshold float64) Fixture {
	f := g.fixture(fmt.Sprintf("%d methods joined within %.2f", n, threshold), n, nil, unknown)
	f.Threshold = threshold
	return f
}

// Single is one method with nothing to connect.
func (g *Generator) Single() Fixture {
	return g.fixture("Single method", 1, nil, Properties{})
}

// Source returns the pair source for the fixture.
func (f Fixture) Source() diagram.PairSource {
	if f.Threshold > 0 {
		return diagram.ThresholdPairs{Threshold: f.Threshold}
	}
	if len(f.Pairs) == 0 {
		return nil
	}
	return diagram.StaticPairs(f.Pairs)
}

// Input returns a layout input for the fixture with params.
func (f Fixture) Input(params diagram.LayoutParams) diagram.Input {
	return diagram.Input{
		Scores: f.Scores,
		Names:  f.Names,
		Source: f.Source(),
		Params: params,
	}
}

// Document converts the fixture into an input document.
func (f Fixture) Document(xlabel string) loader.Document {
	doc := loader.Document{
		Scores:    f.Scores,
		Names:     f.Names,
		Threshold: f.Threshold,
		XLabel:    xlabel,
	}
	for _, p := range f.Pairs {
		doc.Pairs = append(doc.Pairs, []int{p.Lo, p.Hi})
	}
	return doc
}

// Document converts f using the generator's axis caption.
func (g *Generator) Document(f Fixture) loader.Document {
	return f.Document(g.cfg.XLabel)
}

// QuickChain creates a chain fixture with default settings.
func QuickChain(n int) Fixture {
	return NewDefault().Chain(n)
}

// QuickBlocks creates a blocks fixture with default settings.
func QuickBlocks(sizes ...int) Fixture {
	return NewDefault().Blocks(sizes...)
}

// QuickRandom creates a random fixture with default settings.
func QuickRandom(n int, density float64) Fixture {
	return NewDefault().Random(n, density)
}
