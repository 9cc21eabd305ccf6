package logk

import (
	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

// polarEnvironment counts the bonds around a nitrogen or oxygen the way the
// Ertl fragment table is keyed.  Dative bonds count as neighbours but not as
// bonds of any order.
type polarEnvironment struct {
	neighbours int
	hydrogens  int
	single     int
	double     int
	triple     int
	aromatic   int
	charge     int
	threeRing  bool
}

func polarEnv(g *molecule.Graph, i int, rings molecule.RingInfo) polarEnvironment {
	a := g.Atom(i)
	env := polarEnvironment{hydrogens: a.TotalHs(), charge: a.FormalCharge}
	for _, b := range g.AtomBonds(i) {
		if g.Atom(b.Other(i)).AtomicNum == 1 {
			env.hydrogens++
			continue
		}
		env.neighbours++
		switch {
		case b.Aromatic || b.Type == molecule.BondAromatic:
			env.aromatic++
		case b.Type == molecule.BondSingle:
			env.single++
		case b.Type == molecule.BondDouble:
			env.double++
		case b.Type == molecule.BondTriple:
			env.triple++
		}
	}
	for _, ring := range rings.AtomRings {
		if len(ring) != 3 {
			continue
		}
		for _, x := range ring {
			if x == i {
				env.threeRing = true
			}
		}
	}
	return env
}

func nitrogenPSA(e polarEnvironment) float64 {
	h, c := e.hydrogens, e.charge
	switch e.neighbours {
	case 1:
		switch {
		case h == 0 && c == 0 && e.triple == 1:
			return 23.79
		case h == 1 && c == 0 && e.double == 1:
			return 23.85
		case h == 2 && c == 0 && e.single == 1:
			return 26.02
		case h == 2 && c == 1 && e.double == 1:
			return 25.59
		case h == 3 && c == 1 && e.single == 1:
			return 27.64
		}
	case 2:
		switch {
		case h == 0 && c == 0 && e.single == 1 && e.double == 1:
			return 12.36
		case h == 0 && c == 0 && e.triple == 1 && e.double == 1:
			return 13.60
		case h == 1 && c == 0 && e.single == 2 && e.threeRing:
			return 21.94
		case h == 1 && c == 0 && e.single == 2:
			return 12.03
		case h == 0 && c == 1 && e.triple == 1 && e.single == 1:
			return 4.36
		case h == 1 && c == 1 && e.double == 1 && e.single == 1:
			return 13.97
		case h == 2 && c == 1 && e.single == 2:
			return 16.61
		case h == 0 && c == 0 && e.aromatic == 2:
			return 12.89
		case h == 1 && c == 0 && e.aromatic == 2:
			return 15.79
		case h == 1 && c == 1 && e.aromatic == 2:
			return 14.14
		}
	case 3:
		switch {
		case h == 0 && c == 0 && e.single == 3 && e.threeRing:
			return 3.01
		case h == 0 && c == 0 && e.single == 3:
			return 3.24
		case h == 0 && c == 0 && e.single == 1 && e.double == 2:
			return 11.68
		case h == 0 && c == 1 && e.single == 2 && e.double == 1:
			return 3.01
		case h == 1 && c == 1 && e.single == 3:
			return 4.44
		case h == 0 && c == 0 && e.aromatic == 3:
			return 4.41
		case h == 0 && c == 0 && e.single == 1 && e.aromatic == 2:
			return 4.93
		case h == 0 && c == 0 && e.double == 1 && e.aromatic == 2:
			return 8.39
		case h == 0 && c == 1 && e.aromatic == 3:
			return 4.10
		case h == 0 && c == 1 && e.single == 1 && e.aromatic == 2:
			return 3.88
		}
	case 4:
		if h == 0 && c == 1 && e.single == 4 {
			return 0
		}
	}
	// unlisted environments
	v := 30.5 - float64(e.neighbours)*8.2 + float64(h)*1.5
	if v < 0 {
		return 0
	}
	return v
}

func oxygenPSA(e polarEnvironment) float64 {
	h, c := e.hydrogens, e.charge
	switch e.neighbours {
	case 1:
		switch {
		case h == 0 && c == 0 && e.double == 1:
			return 17.07
		case h == 1 && c == 0 && e.single == 1:
			return 20.23
		case h == 0 && c == -1 && e.single == 1:
			return 23.06
		}
	case 2:
		switch {
		case h == 0 && c == 0 && e.single == 2 && e.threeRing:
			return 12.53
		case h == 0 && c == 0 && e.single == 2:
			return 9.23
		case h == 0 && c == 0 && e.aromatic == 2:
			return 13.14
		}
	}
	v := 28.5 - float64(e.neighbours)*8.6 + float64(h)*1.5
	if v < 0 {
		return 0
	}
	return v
}

// TPSAContributions returns the Ertl polar surface area of every atom.  Only
// nitrogen and oxygen contribute.
func TPSAContributions(g *molecule.Graph) []float64 {
	rings := g.Rings()
	out := make([]float64, g.NumAtoms())
	for i := range out {
		switch g.Atom(i).AtomicNum {
		case 7:
			out[i] = nitrogenPSA(polarEnv(g, i, rings))
		case 8:
			out[i] = oxygenPSA(polarEnv(g, i, rings))
		}
	}
	return out
}

// TPSA is the topological polar surface area.
func TPSA(g *molecule.Graph) float64 {
	return sum(TPSAContributions(g))
}
