package logk

import (
	"math"

	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

// bond length reductions for the surface overlap term, by bond order
var bondScale = map[molecule.BondType]float64{
	molecule.BondSingle:   0,
	molecule.BondDouble:   0.2,
	molecule.BondTriple:   0.3,
	molecule.BondAromatic: 0.1,
}

// labuteOverlap is the area of sphere i buried by sphere j at distance dij.
func labuteOverlap(ri, rj, bij float64) float64 {
	dij := math.Min(math.Max(math.Abs(ri-rj), bij), ri+rj)
	return rj*rj - (ri-dij)*(ri-dij)/dij
}

// LabuteContributions returns the approximate surface area of every atom
// (Labute ASA).  Hydrogens carried on an atom bury part of its surface; the
// hydrogens' own area is returned separately and is not assigned to any
// atom.  Dative bonds overlap like single bonds.
func LabuteContributions(g *molecule.Graph) (atoms []float64, hydrogens float64) {
	n := g.NumAtoms()
	rads := make([]float64, n)
	for i := 0; i < n; i++ {
		rads[i] = g.Atom(i).Element().Rb0
	}
	buried := make([]float64, n)
	for _, b := range g.Bonds() {
		ri, rj := rads[b.Begin], rads[b.End]
		bij := ri + rj - bondScale[b.Type]
		if b.Aromatic {
			bij = ri + rj - bondScale[molecule.BondAromatic]
		}
		buried[b.Begin] += labuteOverlap(ri, rj, bij)
		buried[b.End] += labuteOverlap(rj, ri, bij)
	}

	rh := molecule.MustElement(1).Rb0
	hBuried, nH := 0.0, 0
	for i := 0; i < n; i++ {
		h := g.Atom(i).TotalHs()
		if h == 0 {
			continue
		}
		ri := rads[i]
		buried[i] += float64(h) * labuteOverlap(ri, rh, ri+rh)
		hBuried += float64(h) * labuteOverlap(rh, ri, ri+rh)
		nH += h
	}

	atoms = make([]float64, n)
	for i := 0; i < n; i++ {
		ri := rads[i]
		atoms[i] = math.Pi * ri * (4*ri - buried[i])
	}
	if nH > 0 {
		hydrogens = math.Pi * rh * (4*rh*float64(nH) - hBuried)
	}
	return atoms, hydrogens
}

// LabuteASA is the total approximate surface area including hydrogens.
func LabuteASA(g *molecule.Graph) float64 {
	atoms, h := LabuteContributions(g)
	total := h
	for _, v := range atoms {
		total += v
	}
	return total
}

// binIndex returns the first bin whose upper bound exceeds v, or the last
// (open) bin.
func binIndex(bounds []float64, v float64) int {
	for k, b := range bounds {
		if v < b {
			return k
		}
	}
	return len(bounds)
}

// binSurface sums area[i] into the bin selected by key[i].  There are
// len(bounds)+1 bins.
func binSurface(bounds, key, area []float64) []float64 {
	out := make([]float64, len(bounds)+1)
	for i := range key {
		out[binIndex(bounds, key[i])] += area[i]
	}
	return out
}
