package logk

import (
	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

// crippenType is one Wildman–Crippen atom class with its logP and molar
// refractivity contributions.
type crippenType struct {
	Name string
	LogP float64
	MR   float64
}

var (
	crippenC1  = crippenType{"C1", 0.1441, 2.503}
	crippenC2  = crippenType{"C2", 0.0000, 2.433}
	crippenC3  = crippenType{"C3", -0.2035, 2.753}
	crippenC4  = crippenType{"C4", -0.2051, 2.731}
	crippenC5  = crippenType{"C5", -0.2783, 5.007}
	crippenC6  = crippenType{"C6", 0.1551, 3.513}
	crippenC7  = crippenType{"C7", 0.0017, 3.888}
	crippenC8  = crippenType{"C8", 0.08452, 2.464}
	crippenC9  = crippenType{"C9", -0.1444, 2.412}
	crippenC10 = crippenType{"C10", -0.0516, 2.488}
	crippenC11 = crippenType{"C11", 0.1193, 2.582}
	crippenC12 = crippenType{"C12", -0.0967, 2.576}
	crippenC13 = crippenType{"C13", -0.5443, 4.041}
	crippenC14 = crippenType{"C14", 0.0000, 3.257}
	crippenC15 = crippenType{"C15", 0.2450, 3.564}
	crippenC16 = crippenType{"C16", 0.1980, 3.180}
	crippenC17 = crippenType{"C17", 0.0000, 3.104}
	crippenC18 = crippenType{"C18", 0.1581, 3.350}
	crippenC19 = crippenType{"C19", 0.2955, 4.346}
	crippenC20 = crippenType{"C20", 0.2713, 3.904}
	crippenC21 = crippenType{"C21", 0.1360, 3.509}
	crippenC22 = crippenType{"C22", 0.4619, 2.067}
	crippenC23 = crippenType{"C23", 0.5437, 3.853}
	crippenC24 = crippenType{"C24", 0.1893, 2.673}
	crippenC25 = crippenType{"C25", -0.8186, 3.135}
	crippenC26 = crippenType{"C26", 0.2640, 4.305}
	crippenC27 = crippenType{"C27", 0.2148, 2.693}
	crippenCS  = crippenType{"CS", 0.08129, 3.243}

	crippenH1 = crippenType{"H1", 0.1230, 1.057}
	crippenH2 = crippenType{"H2", -0.2677, 1.395}
	crippenH3 = crippenType{"H3", 0.2142, 0.9627}
	crippenH4 = crippenType{"H4", 0.2980, 1.805}
	crippenHS = crippenType{"HS", 0.1125, 1.112}

	crippenN1  = crippenType{"N1", -1.0190, 2.262}
	crippenN2  = crippenType{"N2", -0.7096, 2.173}
	crippenN3  = crippenType{"N3", -1.0270, 2.827}
	crippenN4  = crippenType{"N4", -0.5188, 3.000}
	crippenN5  = crippenType{"N5", 0.08387, 1.757}
	crippenN6  = crippenType{"N6", 0.1836, 2.428}
	crippenN7  = crippenType{"N7", -0.3187, 1.839}
	crippenN8  = crippenType{"N8", -0.4458, 2.819}
	crippenN9  = crippenType{"N9", 0.01508, 1.725}
	crippenN10 = crippenType{"N10", -1.950, 0}
	crippenN11 = crippenType{"N11", -0.3239, 2.202}
	crippenN12 = crippenType{"N12", -1.119, 0}
	crippenN13 = crippenType{"N13", -0.3396, 0.2604}
	crippenNS  = crippenType{"NS", -0.4806, 2.134}

	crippenO1  = crippenType{"O1", 0.1552, 1.080}
	crippenO2  = crippenType{"O2", -0.2893, 0.8238}
	crippenO3  = crippenType{"O3", -0.0684, 1.085}
	crippenO4  = crippenType{"O4", -0.4195, 1.182}
	crippenO5  = crippenType{"O5", 0.0335, 3.367}
	crippenO6  = crippenType{"O6", -0.3339, 0.7774}
	crippenO7  = crippenType{"O7", -1.189, 0}
	crippenO8  = crippenType{"O8", 0.1788, 3.135}
	crippenO9  = crippenType{"O9", -0.1526, 0}
	crippenO10 = crippenType{"O10", 0.1129, 0.2215}
	crippenO11 = crippenType{"O11", 0.4833, 0.389}
	crippenO12 = crippenType{"O12", -1.326, 0}
	crippenOS  = crippenType{"OS", -0.1188, 0.6865}

	crippenF   = crippenType{"F", 0.4202, 1.108}
	crippenCl  = crippenType{"Cl", 0.6895, 5.853}
	crippenBr  = crippenType{"Br", 0.8456, 8.927}
	crippenI   = crippenType{"I", 0.8857, 14.02}
	crippenHal = crippenType{"Hal", -2.996, 0}
	crippenP   = crippenType{"P", 0.8612, 6.920}
	crippenS1  = crippenType{"S1", 0.6482, 7.591}
	crippenS2  = crippenType{"S2", -0.0024, 7.365}
	crippenS3  = crippenType{"S3", 0.6237, 6.691}
	crippenMe1 = crippenType{"Me1", -0.3808, 5.754}
	crippenMe2 = crippenType{"Me2", -0.0025, 0}

	// elements outside the table contribute nothing
	crippenNone = crippenType{"", 0, 0}
)

// crippenNeighbor is a heavy neighbour reached over a covalent bond.
type crippenNeighbor struct {
	idx      int
	z        int
	aromatic bool
	charge   int
	hs       int // hydrogens on the neighbour
	x        int // total connections of the neighbour
	bond     molecule.BondType
}

// aliphatic reports a non-aromatic heavy atom ("A;!#1").
func (n crippenNeighbor) aliphatic() bool { return !n.aromatic }

// plain reports a bond a pattern without an explicit bond symbol matches:
// single or aromatic.
func (n crippenNeighbor) plain() bool {
	return n.bond == molecule.BondSingle || n.bond == molecule.BondAromatic
}

// crippenEnv is the covalent environment of one heavy atom.  Dative bonds
// are not part of it; they count only towards the total connectivity.
type crippenEnv struct {
	atom molecule.Atom
	nbs  []crippenNeighbor
	hs   int // carried plus explicit hydrogen atoms
	x    int // total connections including hydrogens
}

func newCrippenEnv(g *molecule.Graph, i int) crippenEnv {
	a := g.Atom(i)
	env := crippenEnv{atom: a, hs: a.TotalHs() + g.HydrogenNeighbors(i)}
	env.x = g.Degree(i) + a.TotalHs()
	for _, b := range g.AtomBonds(i) {
		if b.IsDative() {
			continue
		}
		j := b.Other(i)
		o := g.Atom(j)
		if o.AtomicNum == 1 {
			continue
		}
		env.nbs = append(env.nbs, crippenNeighbor{
			idx:      j,
			z:        o.AtomicNum,
			aromatic: o.Aromatic,
			charge:   o.FormalCharge,
			hs:       o.TotalHs() + g.HydrogenNeighbors(j),
			x:        g.Degree(j) + o.TotalHs(),
			bond:     b.Type,
		})
	}
	return env
}

func (e crippenEnv) count(pred func(crippenNeighbor) bool) int {
	n := 0
	for _, nb := range e.nbs {
		if pred(nb) {
			n++
		}
	}
	return n
}

func (e crippenEnv) has(pred func(crippenNeighbor) bool) bool { return e.count(pred) > 0 }

func isAliphaticHetero(n crippenNeighbor) bool {
	if n.aromatic {
		return false
	}
	switch n.z {
	case 7, 8, 15, 16, 9, 17, 35, 53:
		return true
	}
	return false
}

// isOrganicOther is an aliphatic atom outside C, N, O, P, S and the halogens.
func isOrganicOther(n crippenNeighbor) bool {
	if n.aromatic {
		return false
	}
	switch n.z {
	case 6, 7, 8, 15, 16, 9, 17, 35, 53:
		return false
	}
	return true
}

func anyHeavy(n crippenNeighbor) bool { return n.plain() }
func aliphaticHeavy(n crippenNeighbor) bool { return n.plain() && n.aliphatic() }
func aromaticHeavy(n crippenNeighbor) bool { return n.plain() && n.aromatic }
func aliphaticCarbon(n crippenNeighbor) bool { return n.plain() && n.aliphatic() && n.z == 6 }
func aromaticCarbon(n crippenNeighbor) bool { return n.plain() && n.aromatic && n.z == 6 }
func plainHetero(n crippenNeighbor) bool { return n.plain() && isAliphaticHetero(n) }
func aromaticBond(n crippenNeighbor) bool { return n.bond == molecule.BondAromatic && n.aromatic }
func doubleToCarbon(n crippenNeighbor) bool { return n.bond == molecule.BondDouble && n.aliphatic() && n.z == 6 }
func singleBond(n crippenNeighbor) bool { return n.bond == molecule.BondSingle }
func singleAliphatic(n crippenNeighbor) bool { return singleBond(n) && n.aliphatic() }
func singleAromatic(n crippenNeighbor) bool { return singleBond(n) && n.aromatic }
func doubleAny(n crippenNeighbor) bool { return n.bond == molecule.BondDouble }
func tripleAliphatic(n crippenNeighbor) bool { return n.bond == molecule.BondTriple && n.aliphatic() }
func plainElement(z int) func(crippenNeighbor) bool {
	return func(n crippenNeighbor) bool { return n.plain() && n.z == z }
}

// crippenCarbon types a carbon atom.  The rules are tried in table order
// and the first match wins.
func crippenCarbon(e crippenEnv) crippenType {
	a, h, x := e.atom, e.hs, e.x
	if !a.Aromatic {
		nC := e.count(aliphaticCarbon)
		nA := e.count(aliphaticHeavy)
		hetero := e.has(plainHetero)
		switch {
		case h == 4,
			h == 3 && nC >= 1,
			h == 2 && nC >= 2:
			return crippenC1
		case h == 1 && nC >= 3,
			nC >= 4:
			return crippenC2
		case h == 3 && hetero,
			h == 2 && x == 4 && hetero && nA >= 2:
			return crippenC3
		case h == 1 && x == 4 && hetero && nA >= 3,
			h == 0 && x == 4 && hetero && nA >= 4:
			return crippenC4
		case e.has(func(n crippenNeighbor) bool { return doubleAny(n) && n.aliphatic() && n.z != 6 }):
			return crippenC5
		}
		if e.has(doubleToCarbon) {
			others := e.count(aliphaticHeavy)
			switch {
			case h == 2,
				h == 1 && others >= 1,
				h == 0 && others >= 2,
				e.count(doubleToCarbon) >= 2:
				return crippenC6
			}
		}
		if x == 2 && e.has(tripleAliphatic) {
			return crippenC7
		}
		nArom := e.count(aromaticHeavy)
		switch {
		case h == 3 && e.has(aromaticCarbon):
			return crippenC8
		case h == 3 && nArom > 0:
			return crippenC9
		case h == 2 && x == 4 && nArom > 0:
			return crippenC10
		case h == 1 && x == 4 && nArom > 0:
			return crippenC11
		case h == 0 && x == 4 && nArom > 0:
			return crippenC12
		}
		if e.has(doubleToCarbon) {
			switch {
			case nArom >= 1 && nA >= 1,
				nArom >= 2 && e.has(aromaticCarbon),
				h == 1 && nArom >= 1:
				return crippenC26
			}
		}
		if e.has(func(n crippenNeighbor) bool { return n.bond == molecule.BondDouble && n.aromatic && n.z == 6 }) {
			return crippenC26
		}
		if x == 4 && e.has(func(n crippenNeighbor) bool { return n.plain() && isOrganicOther(n) }) {
			return crippenC27
		}
		return crippenCS
	}

	switch {
	case h == 0 && e.has(func(n crippenNeighbor) bool { return singleBond(n) && isOrganicOther(n) }):
		return crippenC13
	case e.has(plainElement(9)):
		return crippenC14
	case e.has(plainElement(17)):
		return crippenC15
	case e.has(plainElement(35)):
		return crippenC16
	case e.has(plainElement(53)):
		return crippenC17
	case h == 1:
		return crippenC18
	}
	if e.count(aromaticBond) >= 2 {
		switch {
		case e.count(aromaticBond) >= 3:
			return crippenC19
		case e.has(singleAromatic):
			return crippenC20
		case e.has(func(n crippenNeighbor) bool { return singleAliphatic(n) && n.z == 6 }):
			return crippenC21
		case e.has(func(n crippenNeighbor) bool { return singleAliphatic(n) && n.z == 7 }):
			return crippenC22
		case e.has(func(n crippenNeighbor) bool { return singleAliphatic(n) && n.z == 8 }):
			return crippenC23
		case e.has(func(n crippenNeighbor) bool { return singleAliphatic(n) && n.z == 16 }):
			return crippenC24
		case e.has(func(n crippenNeighbor) bool {
			return doubleAny(n) && n.aliphatic() && (n.z == 6 || n.z == 7 || n.z == 8)
		}):
			return crippenC25
		}
	}
	return crippenCS
}

func crippenNitrogen(e crippenEnv) crippenType {
	a, h := e.atom, e.hs
	if a.Aromatic {
		if a.FormalCharge > 0 {
			return crippenN12
		}
		if a.FormalCharge == 0 {
			return crippenN11
		}
		return crippenNS
	}
	if a.FormalCharge == 0 {
		nA := e.count(aliphaticHeavy)
		nArom := e.count(aromaticHeavy)
		nAny := e.count(anyHeavy)
		doubled := e.has(doubleAny)
		switch {
		case h == 2 && nA >= 1:
			return crippenN1
		case h == 1 && nA >= 2:
			return crippenN2
		case h == 2 && nArom >= 1:
			return crippenN3
		case h == 1 && nArom >= 1 && nAny >= 2:
			return crippenN4
		case h == 1 && doubled:
			return crippenN5
		case doubled && nAny >= 1:
			return crippenN6
		case nA >= 3:
			return crippenN7
		case nArom >= 1 && nA >= 1 && nAny >= 3,
			nArom >= 3:
			return crippenN8
		case e.has(func(n crippenNeighbor) bool { return n.bond == molecule.BondTriple }):
			return crippenN9
		}
		return crippenNS
	}
	if a.FormalCharge > 0 {
		if h >= 1 && h <= 3 {
			return crippenN10
		}
		if h == 0 {
			return crippenN13
		}
		return crippenNS
	}
	return crippenN13
}

// doubleBondedTo reports whether atom c has a double bond, other than to
// atom from, to one of the elements zs.
func doubleBondedTo(g *molecule.Graph, c, from int, zs ...int) bool {
	for _, b := range g.AtomBonds(c) {
		if b.Type != molecule.BondDouble || b.Other(c) == from {
			continue
		}
		z := g.Atom(b.Other(c)).AtomicNum
		for _, want := range zs {
			if z == want {
				return true
			}
		}
	}
	return false
}

func crippenOxygen(g *molecule.Graph, i int, e crippenEnv) crippenType {
	a, h := e.atom, e.hs
	if a.Aromatic {
		return crippenO1
	}
	if h == 1 || h == 2 {
		return crippenO2
	}
	nA := e.count(aliphaticHeavy)
	nArom := e.count(aromaticHeavy)
	switch {
	case nA >= 2:
		return crippenO3
	case nArom >= 1 && nA+nArom >= 2:
		return crippenO4
	}

	// terminal oxygen: the rest depends on its partner
	if len(e.nbs) == 0 {
		return crippenOS
	}
	partner := e.nbs[0]
	double := partner.bond == molecule.BondDouble
	anion := a.FormalCharge < 0 && e.x == 1
	switch {
	case double && (partner.z == 7 || partner.z == 8),
		anion && partner.z == 7:
		return crippenO5
	case anion && partner.z == 16,
		double && partner.z == 16 && a.FormalCharge == 0 && partner.charge == 0:
		return crippenO6
	case anion && partner.z != 6,
		double && partner.z != 6:
		return crippenO7
	case double && partner.aromatic && partner.z == 6:
		return crippenO8
	}
	if double && partner.z == 6 {
		c := crippenCarbonylSubstituents(g, i)
		switch {
		case partner.hs == 1 && c.aliphaticC >= 1,
			c.aliphaticC >= 1 && c.aliphatic >= 2,
			partner.hs == 1 && c.nOrO >= 1,
			partner.hs == 2,
			c.cumulatedO:
			return crippenO9
		case partner.hs == 1 && c.aromaticC >= 1,
			c.aliphaticC+c.aromaticC >= 1 && c.aromatic >= 1 && c.total >= 2,
			c.aromaticC >= 1 && c.aliphatic >= 1:
			return crippenO10
		case c.nonCarbon >= 2:
			return crippenO11
		}
		return crippenOS
	}
	if a.FormalCharge == -1 && partner.z == 6 && singleBond(partner) &&
		doubleBondedTo(g, partner.idx, i, 8) {
		return crippenO12
	}
	return crippenOS
}

// carbonylSubstituents counts the heavy single-bonded substituents of the
// carbonyl carbon bound to oxygen i.
type carbonylSubstituents struct {
	aliphaticC, aromaticC int
	aliphatic, aromatic   int
	nonCarbon, nOrO       int
	total                 int
	cumulatedO            bool
}

func crippenCarbonylSubstituents(g *molecule.Graph, o int) carbonylSubstituents {
	var s carbonylSubstituents
	c := -1
	for _, b := range g.AtomBonds(o) {
		if b.Type == molecule.BondDouble {
			c = b.Other(o)
		}
	}
	if c < 0 {
		return s
	}
	for _, b := range g.AtomBonds(c) {
		n := b.Other(c)
		if n == o || b.IsDative() {
			continue
		}
		at := g.Atom(n)
		if at.AtomicNum == 1 {
			continue
		}
		if b.Type == molecule.BondDouble && at.AtomicNum == 8 && g.Degree(c)+g.Atom(c).TotalHs() == 2 {
			s.cumulatedO = true
		}
		if b.Type != molecule.BondSingle && b.Type != molecule.BondAromatic {
			continue
		}
		s.total++
		if at.Aromatic {
			s.aromatic++
		} else {
			s.aliphatic++
		}
		switch {
		case at.AtomicNum == 6 && at.Aromatic:
			s.aromaticC++
		case at.AtomicNum == 6:
			s.aliphaticC++
		default:
			s.nonCarbon++
			if !at.Aromatic && (at.AtomicNum == 7 || at.AtomicNum == 8) {
				s.nOrO++
			}
		}
	}
	return s
}

var alkaliMetals = map[int]bool{3: true, 11: true, 19: true, 37: true, 55: true}

// crippenClassify assigns the Wildman–Crippen class of a heavy atom.
func crippenClassify(g *molecule.Graph, i int) crippenType {
	e := newCrippenEnv(g, i)
	a := e.atom
	switch a.AtomicNum {
	case 6:
		return crippenCarbon(e)
	case 7:
		return crippenNitrogen(e)
	case 8:
		return crippenOxygen(g, i, e)
	case 9, 17, 35, 53:
		if a.FormalCharge < 0 || (a.AtomicNum == 53 && a.FormalCharge > 0) {
			return crippenHal
		}
		switch a.AtomicNum {
		case 9:
			return crippenF
		case 17:
			return crippenCl
		case 35:
			return crippenBr
		}
		return crippenI
	case 15:
		return crippenP
	case 16:
		switch {
		case a.Aromatic:
			return crippenS3
		case a.FormalCharge != 0:
			return crippenS2
		}
		return crippenS1
	}
	if alkaliMetals[a.AtomicNum] {
		if a.FormalCharge > 0 {
			return crippenHal
		}
		return crippenMe1
	}
	if molecule.IsMetalLike(a) {
		return crippenMe2
	}
	return crippenNone
}

// crippenHydrogen classifies the hydrogens bonded to heavy atom i.
func crippenHydrogen(g *molecule.Graph, i int) crippenType {
	switch g.Atom(i).AtomicNum {
	case 6:
		return crippenH1
	case 7:
		return crippenH3
	case 8:
		return crippenHydroxylHydrogen(g, i)
	}
	return crippenH2
}

// crippenHydroxylHydrogen types a hydrogen on oxygen i by the oxygen's
// other partner.
func crippenHydroxylHydrogen(g *molecule.Graph, i int) crippenType {
	e := newCrippenEnv(g, i)
	if e.hs >= 2 {
		return crippenH2
	}
	for _, nb := range e.nbs {
		if !nb.plain() {
			continue
		}
		switch {
		case nb.z == 6 && nb.aromatic,
			nb.z == 6 && nb.x == 4,
			nb.z != 6 && nb.z != 7 && nb.z != 8 && nb.z != 16:
			return crippenH2
		}
	}
	for _, nb := range e.nbs {
		if nb.plain() && nb.z == 7 {
			return crippenH3
		}
	}
	for _, nb := range e.nbs {
		if !singleBond(nb) {
			continue
		}
		switch {
		case nb.z == 6 && doubleBondedTo(g, nb.idx, i, 6, 7, 8, 16),
			nb.z == 8, nb.z == 16:
			return crippenH4
		}
	}
	return crippenHS
}

// CrippenContributions returns per-atom logP and MR contributions.  The
// contributions of the hydrogens on an atom, carried or explicit, are added
// to that atom; explicit hydrogen atoms contribute nothing themselves.
func CrippenContributions(g *molecule.Graph) (logP, mr []float64) {
	n := g.NumAtoms()
	logP = make([]float64, n)
	mr = make([]float64, n)
	for i := 0; i < n; i++ {
		a := g.Atom(i)
		if a.AtomicNum == 1 {
			continue
		}
		t := crippenClassify(g, i)
		h := crippenHydrogen(g, i)
		nH := float64(a.TotalHs() + g.HydrogenNeighbors(i))
		logP[i] = t.LogP + nH*h.LogP
		mr[i] = t.MR + nH*h.MR
	}
	return logP, mr
}

// MolLogP is the Wildman–Crippen octanol/water partition coefficient.
func MolLogP(g *molecule.Graph) float64 {
	logP, _ := CrippenContributions(g)
	return sum(logP)
}

// MolMR is the Wildman–Crippen molar refractivity.
func MolMR(g *molecule.Graph) float64 {
	_, mr := CrippenContributions(g)
	return sum(mr)
}

func sum(xs []float64) float64 {
	t := 0.0
	for _, x := range xs {
		t += x
	}
	return t
}
