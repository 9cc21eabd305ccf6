package molecule

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// topology is the bond skeleton of g as an undirected gonum graph.  Node IDs
// are atom indices; every bond, dative included, is one edge.
func topology(g *Graph) *simple.UndirectedGraph {
	u := simple.NewUndirectedGraph()
	for i := range g.atoms {
		u.AddNode(simple.Node(i))
	}
	for _, b := range g.bonds {
		if b.Begin == b.End || u.HasEdgeBetween(int64(b.Begin), int64(b.End)) {
			continue
		}
		u.SetEdge(u.NewEdge(simple.Node(b.Begin), simple.Node(b.End)))
	}
	return u
}

// Fragments returns the connected components (all bonds) as atom lists in
// ascending index order, ordered by their lowest atom.
func (g *Graph) Fragments() [][]int {
	if len(g.atoms) == 0 {
		return nil
	}
	comps := topo.ConnectedComponents(topology(g))
	frags := make([][]int, 0, len(comps))
	for _, c := range comps {
		frag := make([]int, len(c))
		for k, n := range c {
			frag[k] = int(n.ID())
		}
		sort.Ints(frag)
		frags = append(frags, frag)
	}
	sort.Slice(frags, func(a, b int) bool { return frags[a][0] < frags[b][0] })
	return frags
}

// DistanceMatrix returns topological distances over all bonds, dative bonds
// included.  Unreachable pairs are -1.
func DistanceMatrix(g *Graph) [][]int {
	n := len(g.atoms)
	u := topology(g)
	d := make([][]int, n)
	for s := 0; s < n; s++ {
		row := make([]int, n)
		for i := range row {
			row[i] = -1
		}
		var bf traverse.BreadthFirst
		bf.Walk(u, simple.Node(s), func(v graph.Node, depth int) bool {
			row[v.ID()] = depth
			return false
		})
		d[s] = row
	}
	return d
}
