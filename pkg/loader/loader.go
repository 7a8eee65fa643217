// Package loader reads critical difference diagram input documents.
//
// A document lists the methods' average scores and either the pairs of
// methods that are not significantly different or a score threshold from
// which those pairs are derived:
//
//	scores: [19.64, 20.0, 25, 28.93, 31.43, 33.4]
//	names: [fourth, second, fifth, third, first, sixth]
//	pairs: [[0, 1], [1, 2], [2, 3], [3, 4], [3, 5], [4, 5]]
//	xlabel: "accuracy, %"
//
// JSON documents use the same keys. Pair indices refer to positions in the
// sorted score list.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
	"github.com/vanderheijden86/critdiff/pkg/metrics"
)

// InputEnvVar names a default input document when no path is given.
const InputEnvVar = "CRITDIFF_INPUT"

// DefaultMaxInputSize caps how much of an input document is read (10MB).
const DefaultMaxInputSize = 1024 * 1024 * 10

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the on-disk description of one diagram.
type Document struct {
	Scores    []float64 `json:"scores" yaml:"scores"`
	Names     []string  `json:"names,omitempty" yaml:"names,omitempty"`
	Sort      bool      `json:"sort,omitempty" yaml:"sort,omitempty"`
	Pairs     [][]int   `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Threshold float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	XLabel    string    `json:"xlabel,omitempty" yaml:"xlabel,omitempty"`
}

// ResolvePath returns path, or the CRITDIFF_INPUT document when path is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(InputEnvVar); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no input document given (use -in or set %s)", InputEnvVar)
}

// FormatFor picks the document format from a file extension. Unknown
// extensions are read as YAML, which also accepts JSON.
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads a document from path; "-" reads standard input as YAML.
func LoadFile(path string) (Document, error) {
	if path == "-" {
		return Parse(os.Stdin, FormatYAML)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Document{}, fmt.Errorf("no input document found at %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open input document: %w", err)
	}
	defer file.Close()

	doc, err := Parse(file, FormatFor(path))
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a document in the given format.
func Parse(r io.Reader, format string) (Document, error) {
	defer metrics.Timer(metrics.InputLoad)()

	data, err := io.ReadAll(io.LimitReader(r, DefaultMaxInputSize+1))
	if err != nil {
		return Document{}, fmt.Errorf("reading input: %w", err)
	}
	if len(data) > DefaultMaxInputSize {
		return Document{}, fmt.Errorf("input exceeds %d bytes", DefaultMaxInputSize)
	}
	data = stripBOM(data)

	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("parsing JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unsupported input format %q", format)
	}
	return doc, nil
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
}

// PairList converts the document's raw pairs, rejecting entries that are not
// exactly two indices. Range and ordering checks are left to
// diagram.ValidatePairs.
func (d Document) PairList() ([]diagram.Pair, error) {
	pairs := make([]diagram.Pair, 0, len(d.Pairs))
	for i, raw := range d.Pairs {
		if len(raw) != 2 {
			return nil, &diagram.ValidationError{
				Field:  "pairs",
				Index:  i,
				Reason: fmt.Sprintf("want 2 indices, got %d", len(raw)),
				Err:    diagram.ErrPairNotSorted,
			}
		}
		pairs = append(pairs, diagram.Pair{Lo: raw[0], Hi: raw[1]})
	}
	return pairs, nil
}

// Source returns the pair source the document describes: its explicit pairs
// when present, otherwise a threshold source when a threshold is set, and nil
// when neither is given.
func (d Document) Source() (diagram.PairSource, error) {
	if len(d.Pairs) > 0 {
		pairs, err := d.PairList()
		if err != nil {
			return nil, err
		}
		return diagram.StaticPairs(pairs), nil
	}
	if d.Threshold > 0 {
		return diagram.ThresholdPairs{Threshold: d.Threshold}, nil
	}
	return nil, nil
}

// Input turns the document into a diagram.Input. When Sort is set, scores are
// sorted ascending and names follow their scores.
func (d Document) Input(params diagram.LayoutParams) (diagram.Input, error) {
	source, err := d.Source()
	if err != nil {
		return diagram.Input{}, err
	}
	scores, names := d.Scores, d.Names
	if d.Sort {
		scores, names = sortWithNames(scores, names)
	}
	return diagram.Input{
		Scores: scores,
		Names:  names,
		Source: source,
		XLabel: d.XLabel,
		Params: params,
	}, nil
}

// sortWithNames returns sorted copies of scores and the matching names. Names
// are left alone when they do not line up with scores; validation reports
// that mismatch.
func sortWithNames(scores []float64, names []string) ([]float64, []string) {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	sorted := make([]float64, len(scores))
	for i, j := range idx {
		sorted[i] = scores[j]
	}
	if len(names) != len(scores) {
		return sorted, names
	}
	sortedNames := make([]string, len(names))
	for i, j := range idx {
		sortedNames[i] = names[j]
	}
	return sorted, sortedNames
}
