// Package molecule is the molecular graph library of logkpredict: element
// data, the immutable Graph value and its copy-on-write Editor, V2000 molfile
// parsing, valence and implicit-hydrogen perception, ring perception,
// sanitization and canonical SMILES output.
//
// A *Graph returned by any constructor or transform is never mutated again.
// All modifications go through Edit(), which works on a deep copy, and
// Editor.Graph() freezes the result into a new value.  Graphs are therefore
// safe to share between goroutines.
package molecule

import (
	"fmt"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// BondType classifies a bond.
type BondType int

const (
	BondUnspecified BondType = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
	// BondDative is directed from Begin (donor) to End (acceptor) and adds
	// nothing to the standard valence of either atom.
	BondDative
)

// Order returns the contribution of the bond to an atom's valence.
func (t BondType) Order() float64 {
	switch t {
	case BondSingle:
		return 1
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondAromatic:
		return 1.5
	default:
		return 0
	}
}

func (t BondType) String() string {
	switch t {
	case BondSingle:
		return "SINGLE"
	case BondDouble:
		return "DOUBLE"
	case BondTriple:
		return "TRIPLE"
	case BondAromatic:
		return "AROMATIC"
	case BondDative:
		return "DATIVE"
	default:
		return "UNSPECIFIED"
	}
}

// Hybridization is the perceived orbital hybridization of an atom.
type Hybridization int

const (
	HybridUnspecified Hybridization = iota
	HybridS
	HybridSP
	HybridSP2
	HybridSP3
	HybridSP3D
	HybridSP3D2
	HybridOther
)

func (h Hybridization) String() string {
	switch h {
	case HybridS:
		return "S"
	case HybridSP:
		return "SP"
	case HybridSP2:
		return "SP2"
	case HybridSP3:
		return "SP3"
	case HybridSP3D:
		return "SP3D"
	case HybridSP3D2:
		return "SP3D2"
	case HybridOther:
		return "OTHER"
	default:
		return "UNSPECIFIED"
	}
}

// Atom is a graph vertex.  The first block is input state; the second is
// derived by UpdatePropertyCache and Sanitize.
type Atom struct {
	Index            int
	AtomicNum        int
	FormalCharge     int
	Isotope          int
	RadicalElectrons int
	// NoImplicit suppresses implicit hydrogen derivation; ExplicitHs then
	// carries the attached hydrogen count.
	NoImplicit bool
	ExplicitHs int

	ImplicitHs    int
	Aromatic      bool
	Hybridization Hybridization
	InRing        bool
}

// Element returns the element record of the atom.
func (a Atom) Element() Element { return MustElement(a.AtomicNum) }

// Symbol returns the element symbol.
func (a Atom) Symbol() string { return a.Element().Symbol }

// TotalHs is the number of hydrogens carried by the atom itself (explicit
// count plus implicit), not counting hydrogen atoms present in the graph.
func (a Atom) TotalHs() int { return a.ExplicitHs + a.ImplicitHs }

// Bond is a graph edge.
type Bond struct {
	Index      int
	Begin      int
	End        int
	Type       BondType
	Aromatic   bool
	Conjugated bool
	InRing     bool
}

// Other returns the atom at the opposite end of the bond from atom i.
func (b Bond) Other(i int) int {
	if b.Begin == i {
		return b.End
	}
	return b.Begin
}

// IsDative reports whether the bond is a coordination bond.
func (b Bond) IsDative() bool { return b.Type == BondDative }

// Graph is an immutable molecular graph.
type Graph struct {
	atoms []Atom
	bonds []Bond
	adj   [][]int
	rings *RingInfo
}

// NumAtoms returns the number of atoms.
func (g *Graph) NumAtoms() int { return len(g.atoms) }

// NumBonds returns the number of bonds.
func (g *Graph) NumBonds() int { return len(g.bonds) }

// Atom returns a copy of atom i.
func (g *Graph) Atom(i int) Atom { return g.atoms[i] }

// Bond returns a copy of bond i.
func (g *Graph) Bond(i int) Bond { return g.bonds[i] }

// Atoms returns a copy of the atom list.
func (g *Graph) Atoms() []Atom { return append([]Atom(nil), g.atoms...) }

// Bonds returns a copy of the bond list.
func (g *Graph) Bonds() []Bond { return append([]Bond(nil), g.bonds...) }

// AtomBonds returns the bonds incident to atom i in insertion order.
func (g *Graph) AtomBonds(i int) []Bond {
	out := make([]Bond, len(g.adj[i]))
	for k, bi := range g.adj[i] {
		out[k] = g.bonds[bi]
	}
	return out
}

// Neighbors returns the atoms bonded to atom i, dative partners included.
func (g *Graph) Neighbors(i int) []int {
	out := make([]int, len(g.adj[i]))
	for k, bi := range g.adj[i] {
		out[k] = g.bonds[bi].Other(i)
	}
	return out
}

// Degree is the number of bonds at atom i, dative bonds included.
func (g *Graph) Degree(i int) int { return len(g.adj[i]) }

// HeavyDegree counts the non-hydrogen neighbours of atom i.
func (g *Graph) HeavyDegree(i int) int {
	n := 0
	for _, bi := range g.adj[i] {
		if g.atoms[g.bonds[bi].Other(i)].AtomicNum != 1 {
			n++
		}
	}
	return n
}

// HydrogenNeighbors counts hydrogen atoms bonded to atom i.
func (g *Graph) HydrogenNeighbors(i int) int {
	return g.Degree(i) - g.HeavyDegree(i)
}

// BondBetween returns the bond joining atoms a and b.
func (g *Graph) BondBetween(a, b int) (Bond, bool) {
	if a < 0 || a >= len(g.atoms) {
		return Bond{}, false
	}
	for _, bi := range g.adj[a] {
		if g.bonds[bi].Other(a) == b {
			return g.bonds[bi], true
		}
	}
	return Bond{}, false
}

// ExplicitValence sums the bond orders at atom i plus its explicit
// hydrogen count.  Dative bonds contribute zero.
func (g *Graph) ExplicitValence(i int) float64 {
	v := float64(g.atoms[i].ExplicitHs)
	for _, bi := range g.adj[i] {
		v += g.bonds[bi].Type.Order()
	}
	return v
}

// Rings returns the perceived ring information.  When the graph has not been
// through ring symmetrization the SSSR is computed on the fly.
func (g *Graph) Rings() RingInfo {
	if g.rings != nil {
		return *g.rings
	}
	return FindRings(g)
}

// HasRingInfo reports whether ring perception has been stored on the graph.
func (g *Graph) HasRingInfo() bool { return g.rings != nil }

func (g *Graph) clone() *Graph {
	c := &Graph{
		atoms: append([]Atom(nil), g.atoms...),
		bonds: append([]Bond(nil), g.bonds...),
		adj:   make([][]int, len(g.adj)),
	}
	for i := range g.adj {
		c.adj[i] = append([]int(nil), g.adj[i]...)
	}
	if g.rings != nil {
		r := g.rings.clone()
		c.rings = &r
	}
	return c
}

func (g *Graph) rebuildAdjacency() {
	g.adj = make([][]int, len(g.atoms))
	for i := range g.bonds {
		g.bonds[i].Index = i
		b := g.bonds[i]
		g.adj[b.Begin] = append(g.adj[b.Begin], i)
		g.adj[b.End] = append(g.adj[b.End], i)
	}
}

// Edit returns an Editor working on a deep copy of g.
func (g *Graph) Edit() *Editor {
	return &Editor{g: g.clone()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Editor
// ─────────────────────────────────────────────────────────────────────────────

// Editor mutates a private working copy of a graph.
type Editor struct {
	g *Graph
}

// NewEditor starts an empty graph.
func NewEditor() *Editor {
	return &Editor{g: &Graph{}}
}

// NumAtoms returns the number of atoms in the working copy.
func (e *Editor) NumAtoms() int { return len(e.g.atoms) }

// AddAtom appends an atom and returns its index.  Index is overwritten.
func (e *Editor) AddAtom(a Atom) (int, error) {
	if _, ok := LookupElement(a.AtomicNum); !ok {
		return -1, errors.Newf(errors.CodeMolecularProcessing, "unknown atomic number %d", a.AtomicNum)
	}
	a.Index = len(e.g.atoms)
	e.g.atoms = append(e.g.atoms, a)
	e.g.adj = append(e.g.adj, nil)
	e.g.rings = nil
	return a.Index, nil
}

// AddBond joins begin and end.  For dative bonds begin is the donor.
func (e *Editor) AddBond(begin, end int, t BondType) (int, error) {
	n := len(e.g.atoms)
	if begin < 0 || begin >= n || end < 0 || end >= n {
		return -1, errors.Newf(errors.CodeMolecularProcessing, "bond %d-%d references a missing atom", begin, end)
	}
	if begin == end {
		return -1, errors.Newf(errors.CodeMolecularProcessing, "self bond on atom %d", begin)
	}
	if _, ok := e.g.BondBetween(begin, end); ok {
		return -1, errors.Newf(errors.CodeMolecularProcessing, "duplicate bond %d-%d", begin, end)
	}
	idx := len(e.g.bonds)
	e.g.bonds = append(e.g.bonds, Bond{
		Index:    idx,
		Begin:    begin,
		End:      end,
		Type:     t,
		Aromatic: t == BondAromatic,
	})
	e.g.adj[begin] = append(e.g.adj[begin], idx)
	e.g.adj[end] = append(e.g.adj[end], idx)
	e.g.rings = nil
	return idx, nil
}

// RemoveBond deletes the bond joining a and b.  Later bonds are renumbered.
func (e *Editor) RemoveBond(a, b int) error {
	bond, ok := e.g.BondBetween(a, b)
	if !ok {
		return errors.Newf(errors.CodeMolecularProcessing, "no bond between atoms %d and %d", a, b)
	}
	e.g.bonds = append(e.g.bonds[:bond.Index], e.g.bonds[bond.Index+1:]...)
	e.g.rebuildAdjacency()
	e.g.rings = nil
	return nil
}

// Neighbors returns the current neighbours of atom i in the working copy.
func (e *Editor) Neighbors(i int) []int { return e.g.Neighbors(i) }

// Atom returns a copy of atom i in the working copy.
func (e *Editor) Atom(i int) Atom { return e.g.atoms[i] }

// SetBondType changes the type of the bond joining a and b.
func (e *Editor) SetBondType(a, b int, t BondType) error {
	bond, ok := e.g.BondBetween(a, b)
	if !ok {
		return errors.Newf(errors.CodeMolecularProcessing, "no bond between atoms %d and %d", a, b)
	}
	e.g.bonds[bond.Index].Type = t
	e.g.bonds[bond.Index].Aromatic = t == BondAromatic
	e.g.rings = nil
	return nil
}

// UpdatePropertyCache derives valences and implicit hydrogens on the working
// copy.  See Graph-level UpdatePropertyCache.
func (e *Editor) UpdatePropertyCache(strict bool) error {
	return updatePropertyCache(e.g, strict)
}

// Graph freezes the working copy into a new immutable Graph.  The editor
// stays usable; later edits do not affect the returned value.
func (e *Editor) Graph() *Graph {
	return e.g.clone()
}

func (e *Editor) String() string {
	return fmt.Sprintf("Editor(%d atoms, %d bonds)", len(e.g.atoms), len(e.g.bonds))
}

