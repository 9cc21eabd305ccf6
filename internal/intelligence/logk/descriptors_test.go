package logk

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/pkg/errors"
)

func TestDescriptorCalculator_Default(t *testing.T) {
	calc, err := NewDescriptorCalculator(nil)
	require.NoError(t, err)
	assert.Equal(t, 40, calc.Len())
	assert.Equal(t, DefaultDescriptorNames, calc.Names())
	for _, n := range DefaultDescriptorNames {
		assert.True(t, KnownDescriptor(n), n)
	}
}

func TestDescriptorCalculator_UnknownName(t *testing.T) {
	_, err := NewDescriptorCalculator([]string{"TPSA", "qed"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "qed")
}

func TestDescriptorCalculator_Finite(t *testing.T) {
	calc, err := NewDescriptorCalculator(nil)
	require.NoError(t, err)

	for name, block := range map[string]string{
		"ethanol":   ethanol(),
		"pyridine":  pyridine(),
		"diammine":  diammineCopper(),
		"en copper": copperEnAqua(),
	} {
		t.Run(name, func(t *testing.T) {
			v, err := calc.Calculate(normalized(t, block))
			require.NoError(t, err)
			require.Equal(t, 40, v.Len())
			for i, x := range v.Values {
				assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), v.Names[i])
			}
		})
	}
}

func TestDescriptorCalculator_KnownValues(t *testing.T) {
	calc, err := NewDescriptorCalculator([]string{"TPSA", "RingCount", "HeavyAtomCount", "MolLogP"})
	require.NoError(t, err)

	eth, err := calc.Calculate(normalized(t, ethanol()))
	require.NoError(t, err)
	tpsa, _ := eth.Value("TPSA")
	assert.InDelta(t, 20.23, tpsa, 1e-9)
	rings, _ := eth.Value("RingCount")
	assert.Equal(t, 0.0, rings)
	heavy, _ := eth.Value("HeavyAtomCount")
	assert.Equal(t, 3.0, heavy)
	logP, _ := eth.Value("MolLogP")
	assert.InDelta(t, -0.0014, logP, 1e-4)

	pyr, err := calc.Calculate(normalized(t, pyridine()))
	require.NoError(t, err)
	tpsa, _ = pyr.Value("TPSA")
	assert.InDelta(t, 12.89, tpsa, 1e-9)
	rings, _ = pyr.Value("RingCount")
	assert.Equal(t, 1.0, rings)

	_, ok := pyr.Value("LabuteASA")
	assert.False(t, ok)
}

func TestDescriptorCalculator_NilGraph(t *testing.T) {
	calc, err := NewDescriptorCalculator(nil)
	require.NoError(t, err)
	_, err = calc.Calculate(nil)
	assert.True(t, errors.IsMolecularProcessing(err))
}

func TestBinnedSurfacesPartitionAtomSurface(t *testing.T) {
	g := normalized(t, copperEnAqua())
	atoms, _ := LabuteContributions(g)
	total := sum(atoms)
	estate := sum(EStateIndices(g))

	families := map[string]int{
		"PEOE_VSA":   len(peoeBins) + 1,
		"SMR_VSA":    len(smrBins) + 1,
		"SlogP_VSA":  len(slogpBins) + 1,
		"EState_VSA": len(eStateVSABins) + 1,
		"VSA_EState": len(vsaEStateBins) + 1,
	}
	for prefix, bins := range families {
		names := make([]string, bins)
		for k := range names {
			names[k] = prefix + strconv.Itoa(k+1)
		}
		calc, err := NewDescriptorCalculator(names)
		require.NoError(t, err, prefix)
		v, err := calc.Calculate(g)
		require.NoError(t, err, prefix)

		want := total
		if prefix == "VSA_EState" {
			want = estate
		}
		assert.InDelta(t, want, sum(v.Values), 1e-9, prefix)
	}
}

func TestBinIndex(t *testing.T) {
	bounds := []float64{0, 1, 2}
	assert.Equal(t, 0, binIndex(bounds, -5))
	assert.Equal(t, 1, binIndex(bounds, 0), "a value on a bound goes to the next bin")
	assert.Equal(t, 2, binIndex(bounds, 1.5))
	assert.Equal(t, 3, binIndex(bounds, 2))
	assert.Equal(t, 3, binIndex(bounds, 100))
}

func TestLabuteASA_Positive(t *testing.T) {
	atoms, hs := LabuteContributions(normalized(t, ethanol()))
	require.Len(t, atoms, 3)
	for _, a := range atoms {
		assert.Greater(t, a, 0.0)
	}
	assert.Greater(t, hs, 0.0)
	assert.InDelta(t, sum(atoms)+hs, LabuteASA(normalized(t, ethanol())), 1e-12)
}

func TestGasteigerCharges(t *testing.T) {
	t.Run("neutral molecule conserves charge", func(t *testing.T) {
		q := GasteigerCharges(normalized(t, ethanol()))
		require.Len(t, q, 3)
		assert.InDelta(t, 0, sum(q), 1e-9)
		assert.Less(t, q[2], 0.0, "oxygen is negative")
		assert.Less(t, q[2], q[0])
		assert.InDelta(t, 0.0343, q[0], 1e-3)
		assert.InDelta(t, 0.1524, q[1], 1e-3)
		assert.InDelta(t, -0.1866, q[2], 1e-3)
	})

	t.Run("pyridine", func(t *testing.T) {
		q := GasteigerCharges(normalized(t, pyridine()))
		assert.InDelta(t, -0.2647, q[5], 1e-3)
		assert.InDelta(t, 0.1107, q[0], 1e-3)
		assert.InDelta(t, q[0], q[4], 1e-12)
		assert.InDelta(t, 0.0032, q[2], 1e-3)
	})

	t.Run("cation conserves charge", func(t *testing.T) {
		q := GasteigerCharges(normalized(t, v2000([]string{"N"}, nil, "M  CHG  1   1   1")))
		assert.InDelta(t, 1, sum(q), 1e-9)
	})

	t.Run("metal keeps its formal charge", func(t *testing.T) {
		g := normalized(t, copperEnAqua())
		q := GasteigerCharges(g)
		assert.InDelta(t, 2, q[4], 1e-12)
		assert.InDelta(t, 2, sum(q), 1e-9)
	})
}

func TestCrippen(t *testing.T) {
	g := normalized(t, ethanol())
	logP, mr := CrippenContributions(g)
	require.Len(t, logP, 3)
	require.Len(t, mr, 3)
	assert.InDelta(t, -0.0014, MolLogP(g), 1e-4)
	assert.InDelta(t, 12.7598, MolMR(g), 1e-4)
}

func TestLabuteASA_Benzene(t *testing.T) {
	atoms, hs := LabuteContributions(normalized(t, benzene()))
	require.Len(t, atoms, 6)
	for _, a := range atoms {
		// π·0.77·(4·0.77 − 2·aromatic overlap − C–H overlap)
		assert.InDelta(t, 6.0664, a, 1e-3)
	}
	assert.InDelta(t, 7.8755, hs, 1e-3)
	assert.InDelta(t, 44.2737, LabuteASA(normalized(t, benzene())), 1e-2)
}

func TestBinnedSurfaces_Benzene(t *testing.T) {
	calc, err := NewDescriptorCalculator([]string{"SlogP_VSA8", "SMR_VSA10", "PEOE_VSA7", "PEOE_VSA8"})
	require.NoError(t, err)
	g := normalized(t, benzene())
	atoms, _ := LabuteContributions(g)
	ring := sum(atoms)

	v, err := calc.Calculate(g)
	require.NoError(t, err)
	// every carbon carries logP 0.2811 and MR 4.407
	slogp, _ := v.Value("SlogP_VSA8")
	assert.InDelta(t, ring, slogp, 1e-9)
	smr, _ := v.Value("SMR_VSA10")
	assert.InDelta(t, ring, smr, 1e-9)
	// charges are zero up to rounding, either side of the 0 bound
	p7, _ := v.Value("PEOE_VSA7")
	p8, _ := v.Value("PEOE_VSA8")
	assert.InDelta(t, ring, p7+p8, 1e-9)
}

func TestPEOEVSA_Pyridine(t *testing.T) {
	calc, err := NewDescriptorCalculator([]string{"PEOE_VSA2", "PEOE_VSA8", "PEOE_VSA10"})
	require.NoError(t, err)
	g := normalized(t, pyridine())
	atoms, _ := LabuteContributions(g)

	v, err := calc.Calculate(g)
	require.NoError(t, err)
	// N −0.265; C2/C6 +0.111; C3/C4/C5 between 0 and 0.05
	p2, _ := v.Value("PEOE_VSA2")
	assert.InDelta(t, atoms[5], p2, 1e-9)
	p8, _ := v.Value("PEOE_VSA8")
	assert.InDelta(t, atoms[1]+atoms[2]+atoms[3], p8, 1e-9)
	p10, _ := v.Value("PEOE_VSA10")
	assert.InDelta(t, atoms[0]+atoms[4], p10, 1e-9)
}

func TestEStateIndices(t *testing.T) {
	es := EStateIndices(normalized(t, ethanol()))
	require.Len(t, es, 3)
	assert.Greater(t, es[2], es[0], "hydroxyl oxygen carries the largest index")
	assert.Greater(t, es[2], es[1])
}
