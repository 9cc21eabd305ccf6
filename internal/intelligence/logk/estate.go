package logk

import (
	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

// EStateIndices returns the Kier–Hall electrotopological state of every
// atom: the intrinsic state I = (4/N²·δv + 1)/δ perturbed by every other
// atom in the same fragment by (Ii − Ij)/(dij + 1)².  Isolated atoms have
// I = 0.
func EStateIndices(g *molecule.Graph) []float64 {
	n := g.NumAtoms()
	intrinsic := make([]float64, n)
	for i := 0; i < n; i++ {
		a := g.Atom(i)
		d := g.Degree(i)
		if d == 0 {
			continue
		}
		dv := float64(a.Element().OuterElectrons() - a.TotalHs())
		pqn := float64(molecule.Period(a.AtomicNum))
		intrinsic[i] = (4/(pqn*pqn)*dv + 1) / float64(d)
	}

	dist := molecule.DistanceMatrix(g)
	out := append([]float64(nil), intrinsic...)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dist[i][j] < 0 {
				continue
			}
			p := float64(dist[i][j] + 1)
			t := (intrinsic[i] - intrinsic[j]) / (p * p)
			out[i] += t
			out[j] -= t
		}
	}
	return out
}
