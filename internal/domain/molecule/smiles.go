package molecule

import (
	"sort"
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Canonical ranking
// ─────────────────────────────────────────────────────────────────────────────

// bondCode distinguishes bond kinds, and the direction of dative bonds, as
// seen from atom i.
func bondCode(b Bond, i int) int {
	switch b.Type {
	case BondSingle:
		return 1
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondAromatic:
		return 4
	case BondDative:
		if b.Begin == i {
			return 5
		}
		return 6
	default:
		return 0
	}
}

func atomInvariant(g *Graph, i int) []int {
	a := g.atoms[i]
	ring, arom := 0, 0
	if a.InRing {
		ring = 1
	}
	if a.Aromatic {
		arom = 1
	}
	// degree first so chains start at a terminal atom
	return []int{len(g.adj[i]), a.AtomicNum, a.Isotope, a.FormalCharge, a.TotalHs(), ring, arom, a.RadicalElectrons}
}

func lessInts(a, b []int) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}

// denseRanks maps each key to its position among the distinct sorted keys.
func denseRanks(keys [][]int) ([]int, int) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool { return lessInts(keys[idx[x]], keys[idx[y]]) })
	ranks := make([]int, len(keys))
	r := -1
	for k, i := range idx {
		if k == 0 || !equalInts(keys[idx[k-1]], keys[i]) {
			r++
		}
		ranks[i] = r
	}
	return ranks, r + 1
}

func refine(g *Graph, ranks []int, classes int) ([]int, int) {
	for {
		keys := make([][]int, len(g.atoms))
		for i := range g.atoms {
			nb := make([]int, 0, len(g.adj[i]))
			for _, bi := range g.adj[i] {
				b := g.bonds[bi]
				nb = append(nb, ranks[b.Other(i)]*8+bondCode(b, i))
			}
			sort.Ints(nb)
			keys[i] = append([]int{ranks[i]}, nb...)
		}
		next, n := denseRanks(keys)
		if n == classes {
			return next, n
		}
		ranks, classes = next, n
	}
}

// CanonicalRanks assigns every atom a distinct rank that does not depend on
// the input atom order: invariant partitioning refined by neighbourhoods,
// with ties broken by splitting the lowest tied class and refining again.
func CanonicalRanks(g *Graph) []int {
	n := len(g.atoms)
	if n == 0 {
		return nil
	}
	keys := make([][]int, n)
	for i := 0; i < n; i++ {
		keys[i] = atomInvariant(g, i)
	}
	ranks, classes := denseRanks(keys)
	ranks, classes = refine(g, ranks, classes)
	for classes < n {
		counts := make(map[int]int)
		for _, r := range ranks {
			counts[r]++
		}
		tied := -1
		for r := 0; r < classes; r++ {
			if counts[r] > 1 {
				tied = r
				break
			}
		}
		chosen := -1
		for i, r := range ranks {
			if r == tied {
				chosen = i
				break
			}
		}
		split := make([][]int, n)
		for i, r := range ranks {
			v := r * 2
			if r == tied && i != chosen {
				v++
			}
			split[i] = []int{v}
		}
		ranks, classes = denseRanks(split)
		ranks, classes = refine(g, ranks, classes)
	}
	return ranks
}

// ─────────────────────────────────────────────────────────────────────────────
// SMILES writer
// ─────────────────────────────────────────────────────────────────────────────

var organicSubset = map[int]bool{5: true, 6: true, 7: true, 8: true, 9: true, 15: true, 16: true, 17: true, 35: true, 53: true}

var aromaticSymbol = map[int]string{5: "b", 6: "c", 7: "n", 8: "o", 15: "p", 16: "s", 33: "as", 34: "se", 52: "te"}

// readerHydrogens is the hydrogen count a SMILES reader infers for an
// unbracketed atom with the given bonds.
func readerHydrogens(g *Graph, i int) int {
	a := g.atoms[i]
	if !a.Aromatic {
		h, _ := impliedHydrogens(g, i)
		return h
	}
	if a.AtomicNum != 6 {
		return 0
	}
	v := 0
	nArom := 0
	for _, bi := range g.adj[i] {
		b := g.bonds[bi]
		if b.Type == BondAromatic {
			nArom++
		} else {
			v += int(b.Type.Order())
		}
	}
	if nArom > 0 {
		v += nArom + 1
	}
	if h := 4 - v; h > 0 {
		return h
	}
	return 0
}

func chargeString(q int) string {
	switch {
	case q == 1:
		return "+"
	case q == -1:
		return "-"
	case q > 1:
		return "+" + strconv.Itoa(q)
	case q < -1:
		return strconv.Itoa(q)
	}
	return ""
}

func atomSymbol(g *Graph, i int) string {
	a := g.atoms[i]
	sym := a.Symbol()
	if a.Aromatic {
		if s, ok := aromaticSymbol[a.AtomicNum]; ok {
			sym = s
		}
	}
	if a.AtomicNum != 1 && organicSubset[a.AtomicNum] && a.FormalCharge == 0 && a.Isotope == 0 &&
		a.RadicalElectrons == 0 && a.TotalHs() == readerHydrogens(g, i) &&
		(!a.Aromatic || len(sym) == 1) {
		return sym
	}
	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	if h := a.TotalHs(); h > 0 {
		sb.WriteByte('H')
		if h > 1 {
			sb.WriteString(strconv.Itoa(h))
		}
	}
	sb.WriteString(chargeString(a.FormalCharge))
	sb.WriteByte(']')
	return sb.String()
}

// bondSymbol renders bond b traversed from atom from.
func bondSymbol(g *Graph, b Bond, from int) string {
	bothAromatic := g.atoms[b.Begin].Aromatic && g.atoms[b.End].Aromatic
	switch b.Type {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondAromatic:
		if bothAromatic {
			return ""
		}
		return ":"
	case BondDative:
		if from == b.Begin {
			return "->"
		}
		return "<-"
	case BondSingle:
		if bothAromatic {
			return "-"
		}
		return ""
	default:
		return "~"
	}
}

type closure struct {
	bond    int
	partner int
	opener  bool
}

type smilesWriter struct {
	g        *Graph
	ranks    []int
	visited  []bool
	children [][]int // tree bonds per atom, in output order
	closures [][]closure
	digits   map[int]int // bond → ring-closure digit
	inUse    map[int]bool
	sb       strings.Builder
}

func (w *smilesWriter) sortedBonds(u int) []int {
	bs := append([]int(nil), w.g.adj[u]...)
	sort.SliceStable(bs, func(x, y int) bool {
		return w.ranks[w.g.bonds[bs[x]].Other(u)] < w.ranks[w.g.bonds[bs[y]].Other(u)]
	})
	return bs
}

// plan runs the DFS that fixes tree edges and ring closures.
func (w *smilesWriter) plan(u, parentBond int, seenClosure map[int]bool) {
	w.visited[u] = true
	for _, bi := range w.sortedBonds(u) {
		if bi == parentBond {
			continue
		}
		v := w.g.bonds[bi].Other(u)
		if w.visited[v] {
			if !seenClosure[bi] && !w.isTreeBond(bi) {
				seenClosure[bi] = true
				w.closures[v] = append(w.closures[v], closure{bond: bi, partner: u, opener: true})
				w.closures[u] = append(w.closures[u], closure{bond: bi, partner: v})
			}
			continue
		}
		w.children[u] = append(w.children[u], bi)
		w.plan(v, bi, seenClosure)
	}
}

func (w *smilesWriter) isTreeBond(bi int) bool {
	b := w.g.bonds[bi]
	for _, c := range w.children[b.Begin] {
		if c == bi {
			return true
		}
	}
	for _, c := range w.children[b.End] {
		if c == bi {
			return true
		}
	}
	return false
}

func (w *smilesWriter) allocDigit() int {
	for d := 1; ; d++ {
		if !w.inUse[d] {
			w.inUse[d] = true
			return d
		}
	}
}

func digitString(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

func (w *smilesWriter) write(u, fromBond, fromAtom int) {
	if fromBond >= 0 {
		w.sb.WriteString(bondSymbol(w.g, w.g.bonds[fromBond], fromAtom))
	}
	w.sb.WriteString(atomSymbol(w.g, u))

	// closings first, then openings in partner rank order
	var openings []closure
	for _, c := range w.closures[u] {
		if c.opener {
			openings = append(openings, c)
			continue
		}
		d := w.digits[c.bond]
		w.sb.WriteString(digitString(d))
		delete(w.inUse, d)
	}
	sort.SliceStable(openings, func(x, y int) bool {
		return w.ranks[openings[x].partner] < w.ranks[openings[y].partner]
	})
	for _, c := range openings {
		d := w.allocDigit()
		w.digits[c.bond] = d
		w.sb.WriteString(bondSymbol(w.g, w.g.bonds[c.bond], u))
		w.sb.WriteString(digitString(d))
	}

	kids := w.children[u]
	for k, bi := range kids {
		v := w.g.bonds[bi].Other(u)
		if k < len(kids)-1 {
			w.sb.WriteByte('(')
			w.write(v, bi, u)
			w.sb.WriteByte(')')
		} else {
			w.write(v, bi, u)
		}
	}
}

// WriteSMILES renders g as canonical SMILES.  Fragments are ordered by their
// lowest-ranked atom and joined with ".".  Stereochemistry is not written.
func WriteSMILES(g *Graph) string {
	n := len(g.atoms)
	if n == 0 {
		return ""
	}
	w := &smilesWriter{
		g:        g,
		ranks:    CanonicalRanks(g),
		visited:  make([]bool, n),
		children: make([][]int, n),
		closures: make([][]closure, n),
		digits:   make(map[int]int),
		inUse:    make(map[int]bool),
	}

	frags := g.Fragments()
	starts := make([]int, len(frags))
	for k, f := range frags {
		best := f[0]
		for _, a := range f {
			if w.ranks[a] < w.ranks[best] {
				best = a
			}
		}
		starts[k] = best
	}
	sort.Slice(starts, func(x, y int) bool { return w.ranks[starts[x]] < w.ranks[starts[y]] })

	seenClosure := make(map[int]bool)
	for k, s := range starts {
		w.plan(s, -1, seenClosure)
		if k > 0 {
			w.sb.WriteByte('.')
		}
		w.write(s, -1, -1)
	}
	return w.sb.String()
}
