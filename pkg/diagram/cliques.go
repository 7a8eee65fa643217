package diagram

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Cliques returns the maximal groups of methods that are pairwise not
// significantly different, ignoring groups of one. Each group is sorted and
// the groups are ordered lexicographically.
//
// Unlike MergeCliques this looks at the relation, not at the spans: the chain
// (0,1),(1,2) yields two groups because 0 and 2 are not linked.
func Cliques(n int, pairs []Pair) [][]int {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, p := range pairs {
		if p.Lo == p.Hi || p.Lo < 0 || p.Hi >= n {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(p.Lo), T: simple.Node(p.Hi)})
	}

	var groups [][]int
	for _, clique := range topo.BronKerbosch(g) {
		if len(clique) < 2 {
			continue
		}
		group := make([]int, 0, len(clique))
		for _, node := range clique {
			group = append(group, int(node.ID()))
		}
		slices.Sort(group)
		groups = append(groups, group)
	}
	slices.SortFunc(groups, slices.Compare[[]int])
	return groups
}
