package molecule

import (
	"fmt"
	"sort"
	"strings"
)

// SanitizeOps selects sanitization steps.  Steps always run in declaration
// order regardless of how the mask is assembled.
type SanitizeOps uint32

const (
	SanitizeFindRadicals SanitizeOps = 1 << iota
	SanitizeKekulize
	SanitizeSetAromaticity
	SanitizeSetConjugation
	SanitizeSetHybridization
	SanitizeSymmetrizeSSSR

	SanitizeNone SanitizeOps = 0
	SanitizeAll              = SanitizeFindRadicals | SanitizeKekulize | SanitizeSetAromaticity |
		SanitizeSetConjugation | SanitizeSetHybridization | SanitizeSymmetrizeSSSR
)

// Diagnostic records a sanitization step that failed.  The step's changes
// were discarded; later steps still ran.
type Diagnostic struct {
	Step    string
	Message string
}

func (d Diagnostic) String() string { return d.Step + ": " + d.Message }

type sanitizeStep struct {
	op   SanitizeOps
	name string
	run  func(*Graph) error
}

var sanitizeSteps = []sanitizeStep{
	{SanitizeFindRadicals, "FindRadicals", findRadicals},
	{SanitizeKekulize, "Kekulize", kekulize},
	{SanitizeSetAromaticity, "SetAromaticity", setAromaticity},
	{SanitizeSetConjugation, "SetConjugation", setConjugation},
	{SanitizeSetHybridization, "SetHybridization", setHybridization},
	{SanitizeSymmetrizeSSSR, "SymmetrizeSSSR", symmetrizeSSSR},
}

// Sanitize runs the selected steps on a copy of g.  Each step works on its
// own copy; a failing step contributes a Diagnostic and its partial changes
// are dropped.  Hydrogen counts are taken as stored on the atoms, so callers
// run UpdatePropertyCache first.
func Sanitize(g *Graph, ops SanitizeOps) (*Graph, []Diagnostic) {
	cur := g.clone()
	var diags []Diagnostic
	for _, st := range sanitizeSteps {
		if ops&st.op == 0 {
			continue
		}
		work := cur.clone()
		if err := st.run(work); err != nil {
			diags = append(diags, Diagnostic{Step: st.name, Message: err.Error()})
			continue
		}
		cur = work
	}
	return cur, diags
}

// ─────────────────────────────────────────────────────────────────────────────
// FindRadicals
// ─────────────────────────────────────────────────────────────────────────────

// findRadicals assigns unpaired electrons to atoms that cannot take implicit
// hydrogens: a non-metal whose valence falls short of its next allowed
// valence keeps the difference as radical electrons.  Metals keep what the
// input declared.
func findRadicals(g *Graph) error {
	for i := range g.atoms {
		a := &g.atoms[i]
		if !a.NoImplicit || IsMetalLike(*a) {
			continue
		}
		ev := integralValence(g, i)
		r := 0
		for _, v := range AllowedValences(*a) {
			if v >= ev {
				r = v - ev
				break
			}
		}
		a.RadicalElectrons = r
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Kekulize
// ─────────────────────────────────────────────────────────────────────────────

const kekulizeBudget = 200000

// needsDouble reports whether aromatic atom i must receive one double bond
// when its aromatic bonds are read as single.
func needsDouble(g *Graph, i int) bool {
	a := g.atoms[i]
	if IsMetalLike(a) {
		return false
	}
	ev := a.TotalHs()
	for _, bi := range g.adj[i] {
		b := g.bonds[bi]
		if b.Type == BondAromatic {
			ev++
		} else {
			ev += int(b.Type.Order())
		}
	}
	for _, v := range AllowedValences(a) {
		if v >= ev {
			return v-ev-a.RadicalElectrons >= 1
		}
	}
	return false
}

// kekulize rewrites aromatic bonds as alternating single and double bonds
// by finding a perfect matching over the atoms that need a double bond.
// Aromatic flags are kept; SetAromaticity re-derives them.
func kekulize(g *Graph) error {
	var aromatic []int
	for bi, b := range g.bonds {
		if b.Type == BondAromatic {
			aromatic = append(aromatic, bi)
		}
	}
	inRing := make([]bool, len(g.atoms))
	for _, ring := range FindRings(g).AtomRings {
		for _, a := range ring {
			inRing[a] = true
		}
	}
	for i, a := range g.atoms {
		if a.Aromatic && !inRing[i] {
			return fmt.Errorf("non-ring atom %d marked aromatic", i)
		}
	}
	if len(aromatic) == 0 {
		return nil
	}

	need := make(map[int]bool)
	for _, bi := range aromatic {
		b := g.bonds[bi]
		for _, x := range []int{b.Begin, b.End} {
			if needsDouble(g, x) {
				need[x] = true
			}
		}
	}
	// candidate partners per atom, through aromatic bonds only
	partners := make(map[int][]int)
	for _, bi := range aromatic {
		b := g.bonds[bi]
		if need[b.Begin] && need[b.End] {
			partners[b.Begin] = append(partners[b.Begin], bi)
			partners[b.End] = append(partners[b.End], bi)
		}
	}
	order := make([]int, 0, len(need))
	for x := range need {
		order = append(order, x)
	}
	sort.Ints(order)

	matched := make(map[int]int) // atom → bond
	steps := 0
	var solve func() bool
	solve = func() bool {
		steps++
		if steps > kekulizeBudget {
			return false
		}
		pick := -1
		for _, x := range order {
			if _, ok := matched[x]; !ok {
				pick = x
				break
			}
		}
		if pick < 0 {
			return true
		}
		for _, bi := range partners[pick] {
			o := g.bonds[bi].Other(pick)
			if _, taken := matched[o]; taken {
				continue
			}
			matched[pick], matched[o] = bi, bi
			if solve() {
				return true
			}
			delete(matched, pick)
			delete(matched, o)
		}
		return false
	}
	if !solve() {
		var un []string
		for _, x := range order {
			if _, ok := matched[x]; !ok {
				un = append(un, fmt.Sprint(x))
			}
		}
		return fmt.Errorf("can't kekulize mol; unkekulized atoms: %s", strings.Join(un, " "))
	}

	double := make(map[int]bool)
	for _, bi := range matched {
		double[bi] = true
	}
	for _, bi := range aromatic {
		if double[bi] {
			g.bonds[bi].Type = BondDouble
		} else {
			g.bonds[bi].Type = BondSingle
		}
	}
	g.rings = nil
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SetAromaticity
// ─────────────────────────────────────────────────────────────────────────────

var aromaticCandidates = map[int]bool{5: true, 6: true, 7: true, 8: true, 15: true, 16: true, 33: true, 34: true, 52: true}

// piElectrons returns the number of electrons atom i donates to a ring it is
// part of, or -1 when the atom cannot be aromatic.
func piElectrons(g *Graph, i int, ringBonds map[int]bool) int {
	a := g.atoms[i]
	if !aromaticCandidates[a.AtomicNum] {
		return -1
	}
	conn := a.TotalHs()
	doubles, exoPolar := 0, false
	for _, bi := range g.adj[i] {
		b := g.bonds[bi]
		switch b.Type {
		case BondDative:
			continue
		case BondTriple:
			return -1
		case BondDouble:
			doubles++
			if !ringBonds[bi] {
				o := g.atoms[b.Other(i)].AtomicNum
				if o != 7 && o != 8 && o != 16 {
					return -1
				}
				exoPolar = true
			}
		}
		conn++
	}
	if conn > 3 || doubles > 1 {
		return -1
	}
	if doubles == 1 {
		if exoPolar {
			return 0
		}
		return 1
	}
	switch a.AtomicNum {
	case 6:
		switch a.FormalCharge {
		case -1:
			return 2
		case 1:
			return 0
		}
		return -1
	case 5:
		if a.FormalCharge == 0 {
			return 0
		}
		return -1
	case 7, 15, 33:
		if a.FormalCharge == 0 && conn == 3 {
			return 2
		}
		if a.FormalCharge == -1 && conn == 2 {
			return 2
		}
		return -1
	default: // O, S, Se, Te
		if a.FormalCharge == 0 && conn == 2 {
			return 2
		}
		return -1
	}
}

func huckel(n int) bool { return n >= 2 && n%4 == 2 }

// setAromaticity marks rings satisfying the 4n+2 rule, alone or fused in
// pairs sharing a bond.
func setAromaticity(g *Graph) error {
	rings := SymmetrizedRings(g)
	ringBonds := make(map[int]bool)
	for _, br := range rings.BondRings {
		for _, bi := range br {
			ringBonds[bi] = true
		}
	}
	for i := range g.atoms {
		g.atoms[i].Aromatic = false
	}
	for bi := range g.bonds {
		if g.bonds[bi].Type != BondAromatic {
			g.bonds[bi].Aromatic = false
		} else {
			g.atoms[g.bonds[bi].Begin].Aromatic = true
			g.atoms[g.bonds[bi].End].Aromatic = true
		}
	}

	electrons := make(map[int]int)
	for i := range g.atoms {
		electrons[i] = piElectrons(g, i, ringBonds)
	}
	eligible := func(ring []int) (int, bool) {
		sum := 0
		for _, a := range ring {
			e := electrons[a]
			if e < 0 {
				return 0, false
			}
			sum += e
		}
		return sum, true
	}
	mark := func(atoms, bonds []int) {
		for _, a := range atoms {
			g.atoms[a].Aromatic = true
		}
		for _, bi := range bonds {
			g.bonds[bi].Type = BondAromatic
			g.bonds[bi].Aromatic = true
		}
	}

	aromaticRing := make([]bool, rings.NumRings())
	for r, ring := range rings.AtomRings {
		if sum, ok := eligible(ring); ok && huckel(sum) {
			aromaticRing[r] = true
		}
	}
	for r := range rings.AtomRings {
		for s := r + 1; s < rings.NumRings(); s++ {
			if aromaticRing[r] && aromaticRing[s] {
				continue
			}
			if !shareBond(rings.BondRings[r], rings.BondRings[s]) {
				continue
			}
			union := unionInts(rings.AtomRings[r], rings.AtomRings[s])
			if sum, ok := eligible(union); ok && huckel(sum) {
				mark(union, unionInts(rings.BondRings[r], rings.BondRings[s]))
			}
		}
	}
	for r, ok := range aromaticRing {
		if ok {
			mark(rings.AtomRings[r], rings.BondRings[r])
		}
	}
	g.rings = nil
	return nil
}

func shareBond(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func unionInts(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	var out []int
	for _, x := range append(append([]int(nil), a...), b...) {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// SetConjugation
// ─────────────────────────────────────────────────────────────────────────────

func unsaturated(g *Graph, i int) bool {
	for _, bi := range g.adj[i] {
		switch g.bonds[bi].Type {
		case BondDouble, BondTriple, BondAromatic:
			return true
		}
	}
	return false
}

// lonePairDonor reports a heteroatom able to conjugate through a lone pair.
func lonePairDonor(g *Graph, i int) bool {
	switch g.atoms[i].AtomicNum {
	case 7, 8, 16, 9, 17, 35, 53:
		return g.atoms[i].FormalCharge <= 0
	}
	return false
}

// setConjugation marks aromatic bonds, multiple bonds next to another
// unsaturation or lone pair, and the single bonds linking them.
func setConjugation(g *Graph) error {
	for bi := range g.bonds {
		g.bonds[bi].Conjugated = false
	}
	for bi, b := range g.bonds {
		switch b.Type {
		case BondAromatic:
			g.bonds[bi].Conjugated = true
		case BondSingle:
			u, v := b.Begin, b.End
			if (unsaturated(g, u) && (unsaturated(g, v) || lonePairDonor(g, v))) ||
				(unsaturated(g, v) && lonePairDonor(g, u)) {
				g.bonds[bi].Conjugated = true
			}
		}
	}
	for bi, b := range g.bonds {
		if b.Type != BondDouble && b.Type != BondTriple {
			continue
		}
		for _, end := range []int{b.Begin, b.End} {
			for _, oi := range g.adj[end] {
				if oi != bi && g.bonds[oi].Conjugated {
					g.bonds[bi].Conjugated = true
				}
			}
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SetHybridization
// ─────────────────────────────────────────────────────────────────────────────

func hybridFromSteric(n int) Hybridization {
	switch n {
	case 0, 1:
		return HybridS
	case 2:
		return HybridSP
	case 3:
		return HybridSP2
	case 4:
		return HybridSP3
	case 5:
		return HybridSP3D
	case 6:
		return HybridSP3D2
	default:
		return HybridOther
	}
}

func setHybridization(g *Graph) error {
	for i := range g.atoms {
		a := &g.atoms[i]
		if IsMetalLike(*a) {
			a.Hybridization = hybridFromSteric(len(g.adj[i]))
			continue
		}
		if a.AtomicNum == 1 {
			a.Hybridization = HybridS
			continue
		}
		degree := a.TotalHs()
		doubles, triples, aromatic, conjSingle := 0, 0, false, false
		for _, bi := range g.adj[i] {
			b := g.bonds[bi]
			switch b.Type {
			case BondDative:
				continue
			case BondDouble:
				doubles++
			case BondTriple:
				triples++
			case BondAromatic:
				aromatic = true
			case BondSingle:
				if b.Conjugated {
					conjSingle = true
				}
			}
			degree++
		}
		totalValence := integralValence(g, i) + a.ImplicitHs
		free := a.Element().OuterElectrons() - a.FormalCharge - totalValence - a.RadicalElectrons
		lonePairs := 0
		if free > 0 {
			lonePairs = free / 2
		}
		switch {
		case triples > 0 || doubles > 1:
			a.Hybridization = HybridSP
		case doubles == 1 || aromatic:
			a.Hybridization = HybridSP2
		case conjSingle && lonePairs > 0 && degree <= 3:
			a.Hybridization = HybridSP2
		default:
			a.Hybridization = hybridFromSteric(degree + lonePairs)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SymmetrizeSSSR
// ─────────────────────────────────────────────────────────────────────────────

func symmetrizeSSSR(g *Graph) error {
	ri := SymmetrizedRings(g)
	for i := range g.atoms {
		g.atoms[i].InRing = false
	}
	for bi := range g.bonds {
		g.bonds[bi].InRing = false
	}
	for _, ring := range ri.AtomRings {
		for _, a := range ring {
			g.atoms[a].InRing = true
		}
	}
	for _, ring := range ri.BondRings {
		for _, bi := range ring {
			g.bonds[bi].InRing = true
		}
	}
	g.rings = &ri
	return nil
}
