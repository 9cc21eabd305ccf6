package molecule

import (
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

// RingInfo holds perceived rings as ordered atom cycles with matching bond
// lists.  Dative bonds never take part in ring perception.
type RingInfo struct {
	AtomRings [][]int
	BondRings [][]int
}

// NumRings returns the ring count.
func (r RingInfo) NumRings() int { return len(r.AtomRings) }

// AtomRingCount returns how many rings contain atom i.
func (r RingInfo) AtomRingCount(i int) int {
	n := 0
	for _, ring := range r.AtomRings {
		for _, a := range ring {
			if a == i {
				n++
				break
			}
		}
	}
	return n
}

// BondRingCount returns how many rings contain bond b.
func (r RingInfo) BondRingCount(b int) int {
	n := 0
	for _, ring := range r.BondRings {
		for _, x := range ring {
			if x == b {
				n++
				break
			}
		}
	}
	return n
}

func (r RingInfo) clone() RingInfo {
	c := RingInfo{
		AtomRings: make([][]int, len(r.AtomRings)),
		BondRings: make([][]int, len(r.BondRings)),
	}
	for i := range r.AtomRings {
		c.AtomRings[i] = append([]int(nil), r.AtomRings[i]...)
	}
	for i := range r.BondRings {
		c.BondRings[i] = append([]int(nil), r.BondRings[i]...)
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Cycle space over GF(2)
// ─────────────────────────────────────────────────────────────────────────────

// edgeSet is a bitset over bond indices.
type edgeSet []uint64

func newEdgeSet(n int) edgeSet { return make(edgeSet, (n+63)/64) }

func (s edgeSet) set(i int)      { s[i/64] |= 1 << (uint(i) % 64) }
func (s edgeSet) has(i int) bool { return s[i/64]&(1<<(uint(i)%64)) != 0 }
func (s edgeSet) copy() edgeSet  { return append(edgeSet(nil), s...) }

func (s edgeSet) xor(o edgeSet) {
	for i := range s {
		s[i] ^= o[i]
	}
}

func (s edgeSet) empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s edgeSet) count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s edgeSet) lowest() int {
	for i, w := range s {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

func (s edgeSet) key() string {
	var sb strings.Builder
	for _, w := range s {
		sb.WriteString(strconv.FormatUint(w, 16))
		sb.WriteByte(':')
	}
	return sb.String()
}

// gf2Basis is an incremental Gaussian elimination over edge sets.
type gf2Basis struct {
	rows map[int]edgeSet // pivot bit → row
}

func newBasis() *gf2Basis { return &gf2Basis{rows: make(map[int]edgeSet)} }

func (b *gf2Basis) reduce(v edgeSet) edgeSet {
	r := v.copy()
	for {
		p := r.lowest()
		if p < 0 {
			return r
		}
		row, ok := b.rows[p]
		if !ok {
			return r
		}
		r.xor(row)
	}
}

// independent reports whether v is outside the span of the basis.
func (b *gf2Basis) independent(v edgeSet) bool { return !b.reduce(v).empty() }

// add inserts v and reports whether it increased the rank.
func (b *gf2Basis) add(v edgeSet) bool {
	r := b.reduce(v)
	if r.empty() {
		return false
	}
	b.rows[r.lowest()] = r
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Candidate cycles
// ─────────────────────────────────────────────────────────────────────────────

type cycle struct {
	edges edgeSet
	size  int
	key   string
}

// ringBond reports whether bond b takes part in ring perception.
func ringBond(b Bond) bool { return b.Type != BondDative }

// cyclomaticNumber is |E| - |V| + components over ring bonds.
func cyclomaticNumber(g *Graph) int {
	parent := make([]int, len(g.atoms))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	c := 0
	for _, b := range g.bonds {
		if !ringBond(b) {
			continue
		}
		ra, rb := find(b.Begin), find(b.End)
		if ra == rb {
			c++
			continue
		}
		parent[ra] = rb
	}
	return c
}

// candidateCycles builds the Horton candidate set: for every root v and
// every ring bond (x, y), the cycle formed by the shortest paths v→x, v→y
// and the bond, when the two paths meet only at v.
func candidateCycles(g *Graph) []cycle {
	n := len(g.atoms)
	nb := len(g.bonds)
	seen := make(map[string]bool)
	var out []cycle

	for v := 0; v < n; v++ {
		dist := make([]int, n)
		parentBond := make([]int, n)
		for i := range dist {
			dist[i] = -1
			parentBond[i] = -1
		}
		dist[v] = 0
		queue := []int{v}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, bi := range g.adj[u] {
				b := g.bonds[bi]
				if !ringBond(b) {
					continue
				}
				w := b.Other(u)
				if dist[w] < 0 {
					dist[w] = dist[u] + 1
					parentBond[w] = bi
					queue = append(queue, w)
				}
			}
		}

		path := func(x int) ([]int, []int) {
			atoms := []int{x}
			var bonds []int
			for x != v {
				bi := parentBond[x]
				bonds = append(bonds, bi)
				x = g.bonds[bi].Other(x)
				atoms = append(atoms, x)
			}
			return atoms, bonds
		}

		for bi, b := range g.bonds {
			if !ringBond(b) {
				continue
			}
			x, y := b.Begin, b.End
			if dist[x] < 0 || dist[y] < 0 {
				continue
			}
			if parentBond[x] == bi || parentBond[y] == bi {
				continue
			}
			// a ring needs at least three bonds
			if dist[x]+dist[y]+1 < 3 {
				continue
			}
			pxAtoms, pxBonds := path(x)
			pyAtoms, pyBonds := path(y)
			onX := make(map[int]bool, len(pxAtoms))
			for _, a := range pxAtoms {
				onX[a] = true
			}
			disjoint := true
			for _, a := range pyAtoms {
				if a != v && onX[a] {
					disjoint = false
					break
				}
			}
			if !disjoint {
				continue
			}
			es := newEdgeSet(nb)
			for _, e := range pxBonds {
				es.set(e)
			}
			for _, e := range pyBonds {
				es.set(e)
			}
			es.set(bi)
			k := es.key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, cycle{edges: es, size: es.count(), key: k})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].size != out[j].size {
			return out[i].size < out[j].size
		}
		return out[i].key < out[j].key
	})
	return out
}

// orderCycle turns an edge set into an ordered atom cycle starting at its
// lowest atom index, plus the bond list in walk order.
func orderCycle(g *Graph, es edgeSet) ([]int, []int) {
	var members []int
	for bi := range g.bonds {
		if es.has(bi) {
			members = append(members, bi)
		}
	}
	incident := make(map[int][]int)
	start := -1
	for _, bi := range members {
		b := g.bonds[bi]
		incident[b.Begin] = append(incident[b.Begin], bi)
		incident[b.End] = append(incident[b.End], bi)
		if start < 0 || b.Begin < start {
			start = b.Begin
		}
		if b.End < start {
			start = b.End
		}
	}
	atoms := []int{start}
	var bonds []int
	used := make(map[int]bool)
	cur := start
	for len(bonds) < len(members) {
		next := -1
		// take the lower-numbered neighbour first for a stable direction
		for _, bi := range incident[cur] {
			if used[bi] {
				continue
			}
			o := g.bonds[bi].Other(cur)
			if next < 0 || o < g.bonds[next].Other(cur) {
				next = bi
			}
		}
		if next < 0 {
			break
		}
		used[next] = true
		bonds = append(bonds, next)
		cur = g.bonds[next].Other(cur)
		if cur != start {
			atoms = append(atoms, cur)
		}
	}
	return atoms, bonds
}

func ringInfoFrom(g *Graph, cycles []cycle) RingInfo {
	var ri RingInfo
	for _, c := range cycles {
		a, b := orderCycle(g, c.edges)
		ri.AtomRings = append(ri.AtomRings, a)
		ri.BondRings = append(ri.BondRings, b)
	}
	return ri
}

// FindRings returns the smallest set of smallest rings.  Dative bonds are
// excluded, so chelate rings closed through a metal–donor coordination are
// not rings.
func FindRings(g *Graph) RingInfo {
	target := cyclomaticNumber(g)
	if target == 0 {
		return RingInfo{}
	}
	basis := newBasis()
	var chosen []cycle
	for _, c := range candidateCycles(g) {
		if basis.add(c.edges) {
			chosen = append(chosen, c)
			if len(chosen) == target {
				break
			}
		}
	}
	return ringInfoFrom(g, chosen)
}

// SymmetrizedRings returns the relevant cycles: every candidate ring that
// is not a sum of strictly smaller rings.  It contains the SSSR and adds
// the symmetry-equivalent rings the SSSR choice arbitrarily drops (the
// sixth face of cubane).
func SymmetrizedRings(g *Graph) RingInfo {
	if cyclomaticNumber(g) == 0 {
		return RingInfo{}
	}
	cands := candidateCycles(g)
	shorter := newBasis()
	var relevant []cycle
	for i := 0; i < len(cands); {
		j := i
		for j < len(cands) && cands[j].size == cands[i].size {
			j++
		}
		for _, c := range cands[i:j] {
			if shorter.independent(c.edges) {
				relevant = append(relevant, c)
			}
		}
		for _, c := range cands[i:j] {
			shorter.add(c.edges)
		}
		i = j
	}
	return ringInfoFrom(g, relevant)
}
