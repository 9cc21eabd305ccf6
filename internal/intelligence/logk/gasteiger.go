package logk

import (
	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

const (
	gasteigerIterations = 12
	gasteigerDamping    = 0.5
	// cation electronegativity used for hydrogen
	hydrogenIonization = 20.02
)

// gasteigerParams are the a, b, c coefficients of χ(q) = a + b·q + c·q².
type gasteigerParams struct{ a, b, c float64 }

func (p gasteigerParams) chi(q float64) float64 { return p.a + q*(p.b+p.c*q) }

func (p gasteigerParams) ionization() float64 { return p.a + p.b + p.c }

var hydrogenParams = gasteigerParams{7.17, 6.24, -0.56}

type hybridKey struct {
	z int
	h molecule.Hybridization
}

// keyed by element and hybridization; HybridUnspecified is the fallback
var gasteigerTable = map[hybridKey]gasteigerParams{
	{1, molecule.HybridUnspecified}:  hydrogenParams,
	{6, molecule.HybridSP3}:          {7.98, 9.18, 1.88},
	{6, molecule.HybridSP2}:          {8.79, 9.32, 1.51},
	{6, molecule.HybridSP}:           {10.39, 9.45, 0.73},
	{7, molecule.HybridSP3}:          {11.54, 10.82, 1.36},
	{7, molecule.HybridSP2}:          {12.87, 11.15, 0.85},
	{7, molecule.HybridSP}:           {17.68, 12.70, -0.27},
	{8, molecule.HybridSP3}:          {14.18, 12.92, 1.39},
	{8, molecule.HybridSP2}:          {17.07, 13.79, 0.47},
	{9, molecule.HybridUnspecified}:  {14.66, 13.85, 2.31},
	{17, molecule.HybridUnspecified}: {11.00, 9.69, 1.35},
	{35, molecule.HybridUnspecified}: {10.08, 8.47, 1.16},
	{53, molecule.HybridUnspecified}: {9.90, 7.96, 0.96},
	{16, molecule.HybridUnspecified}: {10.14, 9.13, 1.38},
	{15, molecule.HybridUnspecified}: {8.90, 8.24, 0.96},
	{14, molecule.HybridUnspecified}: {7.30, 6.567, 0.657},
	{5, molecule.HybridUnspecified}:  {5.98, 6.82, 1.605},
}

func lookupGasteiger(a molecule.Atom) (gasteigerParams, bool) {
	h := a.Hybridization
	if a.Aromatic {
		h = molecule.HybridSP2
	}
	if p, ok := gasteigerTable[hybridKey{a.AtomicNum, h}]; ok {
		return p, true
	}
	if p, ok := gasteigerTable[hybridKey{a.AtomicNum, molecule.HybridSP3}]; ok {
		return p, true
	}
	p, ok := gasteigerTable[hybridKey{a.AtomicNum, molecule.HybridUnspecified}]
	return p, ok
}

// GasteigerCharges computes Gasteiger–Marsili partial charges.  The charge
// of the hydrogens carried on an atom is added to that atom.  Atoms without
// parameters (metals, noble gases) keep their formal charge and take no
// part in charge transfer.
func GasteigerCharges(g *molecule.Graph) []float64 {
	n := g.NumAtoms()
	params := make([]gasteigerParams, n)
	ok := make([]bool, n)
	q := make([]float64, n)
	qH := make([]float64, n) // total charge of the hydrogens on atom i
	nH := make([]int, n)
	for i := 0; i < n; i++ {
		a := g.Atom(i)
		params[i], ok[i] = lookupGasteiger(a)
		q[i] = float64(a.FormalCharge)
		nH[i] = a.TotalHs()
	}
	ion := func(i int) float64 {
		if g.Atom(i).AtomicNum == 1 {
			return hydrogenIonization
		}
		return params[i].ionization()
	}

	// transfer from a to b when b is more electronegative, scaled by the
	// donor's cation electronegativity
	transfer := func(chiA, chiB, ionA, ionB float64) float64 {
		dx := chiB - chiA
		if dx >= 0 {
			return dx / ionA
		}
		return dx / ionB
	}

	damp := gasteigerDamping
	chi := make([]float64, n)
	dq := make([]float64, n)
	dqH := make([]float64, n)
	for it := 0; it < gasteigerIterations; it++ {
		for i := 0; i < n; i++ {
			chi[i] = params[i].chi(q[i])
			dq[i], dqH[i] = 0, 0
		}
		for _, b := range g.Bonds() {
			i, j := b.Begin, b.End
			if !ok[i] || !ok[j] {
				continue
			}
			d := transfer(chi[i], chi[j], ion(i), ion(j))
			dq[i] += d
			dq[j] -= d
		}
		for i := 0; i < n; i++ {
			if !ok[i] || nH[i] == 0 {
				continue
			}
			chiH := hydrogenParams.chi(qH[i] / float64(nH[i]))
			d := float64(nH[i]) * transfer(chi[i], chiH, ion(i), hydrogenIonization)
			dq[i] += d
			dqH[i] -= d
		}
		for i := 0; i < n; i++ {
			q[i] += damp * dq[i]
			qH[i] += damp * dqH[i]
		}
		damp *= gasteigerDamping
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = q[i] + qH[i]
	}
	return out
}
