package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_BenzeneFromKekuleForm(t *testing.T) {
	g := mustParse(t, benzeneBlock())

	out, diags := Sanitize(g, SanitizeAll)
	require.Empty(t, diags)
	for i := 0; i < out.NumAtoms(); i++ {
		a := out.Atom(i)
		assert.True(t, a.Aromatic, "atom %d", i)
		assert.True(t, a.InRing, "atom %d", i)
		assert.Equal(t, HybridSP2, a.Hybridization, "atom %d", i)
	}
	for i := 0; i < out.NumBonds(); i++ {
		b := out.Bond(i)
		assert.Equal(t, BondAromatic, b.Type)
		assert.True(t, b.Conjugated)
	}
	assert.True(t, out.HasRingInfo())
	assert.Equal(t, 1, out.Rings().NumRings())

	// the input is a separate value
	assert.False(t, g.Atom(0).Aromatic)
	assert.Equal(t, BondDouble, g.Bond(0).Type)
}

func TestSanitize_AromaticInputIsKekulizedAndReperceived(t *testing.T) {
	g := mustParse(t, naphthaleneBlock())

	out, diags := Sanitize(g, SanitizeAll)
	require.Empty(t, diags)
	for i := 0; i < out.NumAtoms(); i++ {
		assert.True(t, out.Atom(i).Aromatic, "atom %d", i)
	}
	assert.Equal(t, 2, out.Rings().NumRings())
}

func TestSanitize_KekulizeOnlyProducesAlternatingBonds(t *testing.T) {
	g := mustParse(t, naphthaleneBlock())

	out, diags := Sanitize(g, SanitizeKekulize)
	require.Empty(t, diags)
	for i := 0; i < out.NumAtoms(); i++ {
		doubles := 0
		for _, b := range out.AtomBonds(i) {
			require.NotEqual(t, BondAromatic, b.Type)
			if b.Type == BondDouble {
				doubles++
			}
		}
		assert.Equal(t, 1, doubles, "atom %d", i)
	}
}

func TestSanitize_FailedStepIsReportedAndLaterStepsRun(t *testing.T) {
	// aromatic five-membered ring with no hydrogen on nitrogen
	g := mustParse(t, molBlock(
		[]string{"C", "C", "C", "C", "N"},
		[][3]int{{1, 2, 4}, {2, 3, 4}, {3, 4, 4}, {4, 5, 4}, {5, 1, 4}},
	))

	out, diags := Sanitize(g, SanitizeAll)
	require.Len(t, diags, 1)
	assert.Equal(t, "Kekulize", diags[0].Step)
	assert.Contains(t, diags[0].Message, "can't kekulize mol")
	assert.Contains(t, diags[0].String(), "Kekulize: ")

	require.NotNil(t, out)
	assert.True(t, out.HasRingInfo(), "SymmetrizeSSSR still ran")
	assert.Equal(t, BondAromatic, out.Bond(0).Type, "failed step left bonds unchanged")
}

func TestSanitize_NonRingAromaticAtom(t *testing.T) {
	ed := NewEditor()
	_, err := ed.AddAtom(Atom{AtomicNum: 6, Aromatic: true})
	require.NoError(t, err)

	_, diags := Sanitize(ed.Graph(), SanitizeKekulize)
	require.Len(t, diags, 1)
	assert.Equal(t, "non-ring atom 0 marked aromatic", diags[0].Message)
}

func TestSanitize_Hybridization(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  []Hybridization
	}{
		{"ethanol", ethanolBlock(), []Hybridization{HybridSP3, HybridSP3, HybridSP3}},
		{"ethylene", molBlock([]string{"C", "C"}, [][3]int{{1, 2, 2}}), []Hybridization{HybridSP2, HybridSP2}},
		{"acetonitrile", molBlock([]string{"C", "C", "N"}, [][3]int{{1, 2, 1}, {2, 3, 3}}), []Hybridization{HybridSP3, HybridSP, HybridSP}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diags := Sanitize(mustParse(t, tt.block), SanitizeAll)
			require.Empty(t, diags)
			for i, want := range tt.want {
				assert.Equal(t, want, out.Atom(i).Hybridization, "atom %d", i)
			}
		})
	}
}

func TestSanitize_NoneReturnsCopy(t *testing.T) {
	g := mustParse(t, ethanolBlock())
	out, diags := Sanitize(g, SanitizeNone)
	assert.Empty(t, diags)
	assert.NotSame(t, g, out)
	assert.Equal(t, g.Atoms(), out.Atoms())
}
