package diagram

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/critdiff/pkg/debug"
	"github.com/vanderheijden86/critdiff/pkg/metrics"
)

// LayoutParams holds the vertical tunables of a diagram. All values are
// fractions of the drawable height (0 is the axis, 1 the top edge).
type LayoutParams struct {
	ArrowVGap   float64 `json:"arrow_vgap" yaml:"arrow_vgap"`     // gap between name labels
	LinkVOffset float64 `json:"link_voffset" yaml:"link_voffset"` // height of the first connector layer
	LinkVGap    float64 `json:"link_vgap" yaml:"link_vgap"`       // gap between connector layers
}

// DefaultLayoutParams returns the tunables used when none are configured.
func DefaultLayoutParams() LayoutParams {
	return LayoutParams{
		ArrowVGap:   0.2,
		LinkVOffset: 0.15,
		LinkVGap:    0.1,
	}
}

// Validate rejects tunables that cannot produce a readable diagram.
func (p LayoutParams) Validate() error {
	switch {
	case p.ArrowVGap <= 0 || p.ArrowVGap >= 1:
		return fmt.Errorf("arrow_vgap must be in (0,1), got %g", p.ArrowVGap)
	case p.LinkVOffset < 0 || p.LinkVOffset >= 1:
		return fmt.Errorf("link_voffset must be in [0,1), got %g", p.LinkVOffset)
	case p.LinkVGap <= 0 || p.LinkVGap >= 1:
		return fmt.Errorf("link_vgap must be in (0,1), got %g", p.LinkVGap)
	}
	return nil
}

// Height converts a layer number into a vertical offset.
func (p LayoutParams) Height(layer int) float64 {
	return p.LinkVOffset + float64(layer)*p.LinkVGap
}

// Placement is a merged connector assigned to a layer.
type Placement struct {
	Pair
	Layer  int     `json:"layer"`
	Height float64 `json:"height"`
}

// occupancy holds the connector spans already placed on each layer, keyed by
// layer. A layer is free for a span when none of its spans overlap it.
type occupancy map[int][]Pair

func (o occupancy) free(p Pair, layer int) bool {
	for _, q := range o[layer] {
		if Overlaps(p, q) {
			return false
		}
	}
	return true
}

func (o occupancy) mark(p Pair, layer int) {
	o[layer] = append(o[layer], p)
}

// LayoutSegments assigns each merged connector a layer.
//
// Connectors are visited in (Lo, Hi) order with a running layer that starts at
// the baseline. Before placing a connector the sweep drops one layer if the
// layer below is free for it, otherwise climbs while the current layer is
// taken. Overlapping connectors therefore never share a layer, and disjoint
// ones reuse low layers. The packing is greedy, not minimal.
func LayoutSegments(merged []Pair, params LayoutParams) []Placement {
	if len(merged) == 0 {
		return nil
	}
	defer metrics.Timer(metrics.Layout)()

	sorted := slices.Clone(merged)
	slices.SortFunc(sorted, ComparePairs)

	used := make(occupancy)
	placements := make([]Placement, 0, len(sorted))
	layer := 0
	for _, p := range sorted {
		switch {
		case layer > 0 && used.free(p, layer-1):
			layer--
		case !used.free(p, layer):
			for !used.free(p, layer) {
				layer++
			}
		}
		used.mark(p, layer)
		placements = append(placements, Placement{
			Pair:   p,
			Layer:  layer,
			Height: params.Height(layer),
		})
		debug.Log("connector %s on layer %d", p, layer)
	}
	return placements
}

// Layers returns the number of layers used by placements.
func Layers(placements []Placement) int {
	n := 0
	for _, pl := range placements {
		if pl.Layer+1 > n {
			n = pl.Layer + 1
		}
	}
	return n
}
