package logk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

// v2000 renders a connection table with zero coordinates.  Bonds are
// {begin, end, type} using one-based atom numbers.
func v2000(atoms []string, bonds [][3]int, props ...string) string {
	var sb strings.Builder
	sb.WriteString("complex\n  logk-test\n\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(atoms), len(bonds))
	for _, sym := range atoms {
		fmt.Fprintf(&sb, "    0.0000    0.0000    0.0000 %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n", sym)
	}
	for _, b := range bonds {
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b[0], b[1], b[2])
	}
	for _, p := range props {
		sb.WriteString(p + "\n")
	}
	sb.WriteString("M  END\n")
	return sb.String()
}

func diammineCopper() string {
	return v2000([]string{"Cu", "N", "N"}, [][3]int{{1, 2, 1}, {1, 3, 1}})
}

func ethanol() string {
	return v2000([]string{"C", "C", "O"}, [][3]int{{1, 2, 1}, {2, 3, 1}})
}

func pyridine() string {
	return v2000(
		[]string{"C", "C", "C", "C", "C", "N"},
		[][3]int{{1, 2, 2}, {2, 3, 1}, {3, 4, 2}, {4, 5, 1}, {5, 6, 2}, {6, 1, 1}},
	)
}

func benzene() string {
	return v2000(
		[]string{"C", "C", "C", "C", "C", "C"},
		[][3]int{{1, 2, 2}, {2, 3, 1}, {3, 4, 2}, {4, 5, 1}, {5, 6, 2}, {6, 1, 1}},
	)
}

// ethylenediamine copper aqua complex, chelate ring closed by metal bonds
func copperEnAqua() string {
	return v2000(
		[]string{"N", "C", "C", "N", "Cu", "O"},
		[][3]int{{1, 2, 1}, {2, 3, 1}, {3, 4, 1}, {1, 5, 1}, {4, 5, 1}, {6, 5, 1}},
		"M  CHG  1   5   2",
	)
}

func parse(t *testing.T, block string) *molecule.Graph {
	t.Helper()
	g, err := molecule.ParseMolBlock(block)
	require.NoError(t, err)
	return g
}

func normalized(t *testing.T, block string) *molecule.Graph {
	t.Helper()
	out, err := NewNormalizer(nil, nil).Normalize(parse(t, block))
	require.NoError(t, err)
	return out.Graph
}
