package molecule

import (
	"math"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// AllowedValences returns the valence list used to derive implicit hydrogens
// for a.  Charged atoms use the isoelectronic element of the same period
// (N+ behaves like C, O- like F); when none exists each valence is reduced
// by the magnitude of the charge.  nil means "any valence, no implicit H".
func AllowedValences(a Atom) []int {
	el := a.Element()
	if el.Valences == nil {
		return nil
	}
	if a.FormalCharge == 0 {
		return el.Valences
	}
	if iso, ok := LookupElement(a.AtomicNum - a.FormalCharge); ok &&
		iso.Valences != nil && Period(iso.Number) == Period(a.AtomicNum) {
		return iso.Valences
	}
	shift := a.FormalCharge
	if shift < 0 {
		shift = -shift
	}
	var out []int
	for _, v := range el.Valences {
		if v-shift >= 0 {
			out = append(out, v-shift)
		}
	}
	if len(out) == 0 {
		return []int{0}
	}
	return out
}

// IsMetalLike reports whether the element of a takes no standard valence.
func IsMetalLike(a Atom) bool { return !a.Element().HasDefaultValence() }

// integralValence rounds the explicit valence of atom i.  A half-integral
// sum only arises from aromatic bonds and is rounded down, so a fused
// aromatic carbon (three aromatic bonds) counts as tetravalent.
func integralValence(g *Graph, i int) int {
	return int(math.Floor(g.ExplicitValence(i) + 1e-9))
}

// impliedHydrogens derives the implicit hydrogen count of atom i from its
// bonds alone.  ok is false when the explicit valence exceeds every allowed
// valence.
func impliedHydrogens(g *Graph, i int) (int, bool) {
	a := g.atoms[i]
	vals := AllowedValences(a)
	if vals == nil {
		return 0, true
	}
	ev := integralValence(g, i)
	for _, v := range vals {
		if v >= ev {
			return v - ev, true
		}
	}
	return 0, false
}

func updatePropertyCache(g *Graph, strict bool) error {
	for i := range g.atoms {
		a := &g.atoms[i]
		if a.NoImplicit || IsMetalLike(*a) {
			a.ImplicitHs = 0
			if strict && !IsMetalLike(*a) {
				if _, ok := impliedHydrogens(g, i); !ok {
					return valenceError(g, i)
				}
			}
			continue
		}
		h, ok := impliedHydrogens(g, i)
		if !ok && strict {
			return valenceError(g, i)
		}
		h -= a.RadicalElectrons
		if h < 0 {
			h = 0
		}
		a.ImplicitHs = h
	}
	return nil
}

func valenceError(g *Graph, i int) error {
	a := g.atoms[i]
	return errors.Newf(errors.CodeMolecularProcessing,
		"explicit valence for atom # %d %s, %d, is greater than permitted",
		i, a.Symbol(), integralValence(g, i))
}

// UpdatePropertyCache returns a copy of g with implicit hydrogen counts
// derived.  In strict mode an atom whose explicit valence exceeds every
// allowed valence is an error; otherwise such atoms get no implicit H.
// Dative bonds contribute zero and metals never receive implicit H.
func UpdatePropertyCache(g *Graph, strict bool) (*Graph, error) {
	c := g.clone()
	if err := updatePropertyCache(c, strict); err != nil {
		return nil, err
	}
	return c, nil
}
