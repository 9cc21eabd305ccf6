package logk

import (
	"math"
	"strconv"

	"github.com/turtacn/logkpredict/internal/domain/molecule"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// DefaultDescriptorNames is the ordered descriptor set the checkpoint was
// trained on: entries 100..139 of the standard 200-descriptor catalogue.
var DefaultDescriptorNames = []string{
	"PEOE_VSA1", "PEOE_VSA10", "PEOE_VSA11", "PEOE_VSA12", "PEOE_VSA13", "PEOE_VSA14",
	"PEOE_VSA2", "PEOE_VSA3", "PEOE_VSA4", "PEOE_VSA5", "PEOE_VSA6", "PEOE_VSA7",
	"PEOE_VSA8", "PEOE_VSA9",
	"RingCount",
	"SMR_VSA1", "SMR_VSA10", "SMR_VSA2", "SMR_VSA3", "SMR_VSA4", "SMR_VSA5",
	"SMR_VSA6", "SMR_VSA7", "SMR_VSA8", "SMR_VSA9",
	"SlogP_VSA1", "SlogP_VSA10", "SlogP_VSA11", "SlogP_VSA12", "SlogP_VSA2",
	"SlogP_VSA3", "SlogP_VSA4", "SlogP_VSA5", "SlogP_VSA6", "SlogP_VSA7",
	"SlogP_VSA8", "SlogP_VSA9",
	"TPSA",
	"VSA_EState1", "VSA_EState10",
}

// MOE-type bin bounds.
var (
	peoeBins      = []float64{-0.3, -0.25, -0.2, -0.15, -0.1, -0.05, 0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3}
	smrBins       = []float64{1.29, 1.82, 2.24, 2.45, 2.75, 3.05, 3.63, 3.8, 4.0}
	slogpBins     = []float64{-0.4, -0.2, 0, 0.1, 0.15, 0.2, 0.25, 0.3, 0.4, 0.5, 0.6}
	vsaEStateBins = []float64{4.78, 5.00, 5.410, 5.740, 6.00, 6.07, 6.45, 7.00, 11.0}
	eStateVSABins = []float64{-0.390, 0.290, 0.717, 1.165, 1.540, 1.807, 2.05, 4.69, 9.17, 15.0}
)

// DescriptorVector is an ordered list of named descriptor values.
type DescriptorVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Len returns the number of descriptors.
func (v DescriptorVector) Len() int { return len(v.Values) }

// Value looks a descriptor up by name.
func (v DescriptorVector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// profile holds the per-atom properties every descriptor is derived from.
type profile struct {
	graph  *molecule.Graph
	vsa    []float64
	hVSA   float64
	logP   []float64
	mr     []float64
	peoe   []float64
	smr    []float64
	slogp  []float64
	vsaES  []float64
	esVSA  []float64
	tpsa   float64
	charge []float64
}

func newProfile(g *molecule.Graph) *profile {
	p := &profile{graph: g}
	p.vsa, p.hVSA = LabuteContributions(g)
	p.charge = GasteigerCharges(g)
	p.logP, p.mr = CrippenContributions(g)
	estate := EStateIndices(g)

	p.peoe = binSurface(peoeBins, p.charge, p.vsa)
	p.smr = binSurface(smrBins, p.mr, p.vsa)
	p.slogp = binSurface(slogpBins, p.logP, p.vsa)
	p.vsaES = binSurface(vsaEStateBins, p.vsa, estate)
	p.esVSA = binSurface(eStateVSABins, estate, p.vsa)
	p.tpsa = TPSA(g)
	return p
}

type descriptorFunc func(*profile) float64

var descriptorRegistry = buildRegistry()

func buildRegistry() map[string]descriptorFunc {
	m := map[string]descriptorFunc{
		"TPSA":      func(p *profile) float64 { return p.tpsa },
		"RingCount": func(p *profile) float64 { return float64(p.graph.Rings().NumRings()) },
		"LabuteASA": func(p *profile) float64 { return sum(p.vsa) + p.hVSA },
		"MolLogP":   func(p *profile) float64 { return sum(p.logP) },
		"MolMR":     func(p *profile) float64 { return sum(p.mr) },
		"HeavyAtomCount": func(p *profile) float64 {
			n := 0
			for _, a := range p.graph.Atoms() {
				if a.AtomicNum != 1 {
					n++
				}
			}
			return float64(n)
		},
	}
	binned := func(prefix string, bins int, pick func(*profile) []float64) {
		for k := 1; k <= bins; k++ {
			idx := k - 1
			m[prefix+strconv.Itoa(k)] = func(p *profile) float64 { return pick(p)[idx] }
		}
	}
	binned("PEOE_VSA", len(peoeBins)+1, func(p *profile) []float64 { return p.peoe })
	binned("SMR_VSA", len(smrBins)+1, func(p *profile) []float64 { return p.smr })
	binned("SlogP_VSA", len(slogpBins)+1, func(p *profile) []float64 { return p.slogp })
	binned("VSA_EState", len(vsaEStateBins)+1, func(p *profile) []float64 { return p.vsaES })
	binned("EState_VSA", len(eStateVSABins)+1, func(p *profile) []float64 { return p.esVSA })
	return m
}

// KnownDescriptor reports whether name can be calculated.
func KnownDescriptor(name string) bool {
	_, ok := descriptorRegistry[name]
	return ok
}

// DescriptorCalculator computes a fixed, ordered descriptor set.
type DescriptorCalculator struct {
	names []string
	funcs []descriptorFunc
}

// NewDescriptorCalculator validates names against the registry.  An empty
// list selects DefaultDescriptorNames.
func NewDescriptorCalculator(names []string) (*DescriptorCalculator, error) {
	if len(names) == 0 {
		names = DefaultDescriptorNames
	}
	c := &DescriptorCalculator{
		names: append([]string(nil), names...),
		funcs: make([]descriptorFunc, len(names)),
	}
	for i, n := range names {
		f, ok := descriptorRegistry[n]
		if !ok {
			return nil, errors.Newf(errors.CodeConfiguration, "unknown descriptor %q", n)
		}
		c.funcs[i] = f
	}
	return c, nil
}

// Names returns the configured descriptor order.
func (c *DescriptorCalculator) Names() []string { return append([]string(nil), c.names...) }

// Len returns the number of configured descriptors.
func (c *DescriptorCalculator) Len() int { return len(c.names) }

// Calculate evaluates every configured descriptor on a normalized graph.
// Either all values are returned or none.
func (c *DescriptorCalculator) Calculate(g *molecule.Graph) (DescriptorVector, error) {
	if g == nil {
		return DescriptorVector{}, errors.New(errors.CodeMolecularProcessing,
			"failed to calculate molecular descriptors: nil graph")
	}
	p := newProfile(g)
	values := make([]float64, len(c.funcs))
	for i, f := range c.funcs {
		v := f(p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return DescriptorVector{}, errors.Newf(errors.CodeMolecularProcessing,
				"failed to calculate molecular descriptors: %s is not finite", c.names[i])
		}
		values[i] = v
	}
	return DescriptorVector{Names: c.Names(), Values: values}, nil
}
