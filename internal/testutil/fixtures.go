package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/config"
)

// ScalarLine is a valid scalar feature line: identifier, label, ten values.
const ScalarLine = "complex1 logK 0.1 2 3 4 5.55555 6 7 8 9 10"

// Scalars are the values carried by ScalarLine.
var Scalars = []float64{0.1, 2, 3, 4, 5.55555, 6, 7, 8, 9, 10}

// V2000 renders a connection table with zero coordinates.  Bonds are
// {begin, end, type} with one-based atom numbers.
func V2000(atoms []string, bonds [][3]int, props ...string) string {
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

// Ethanol has no metal and no dative bonds.
func Ethanol() string {
	return V2000([]string{"C", "C", "O"}, [][3]int{{1, 2, 1}, {2, 3, 1}})
}

// DiammineCopper normalizes to N->[Cu]<-N.
func DiammineCopper() string {
	return V2000([]string{"Cu", "N", "N"}, [][3]int{{1, 2, 1}, {1, 3, 1}})
}

// InputRecord wraps block in a complete input record.
func InputRecord(block string) string {
	return "logK input\n" + ScalarLine + "\n" + block + "$$$$\n"
}

// ModelDir creates a directory holding a placeholder checkpoint.
func ModelDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultModelFile), []byte("checkpoint"), 0o600))
	return dir
}

// StaticConfig returns a validated configuration using the static engine
// with value and a fresh model directory.
func StaticConfig(t testing.TB, value float64) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Predictor.ModelDir = ModelDir(t)
	cfg.Engine.Kind = config.EngineStatic
	cfg.Engine.StaticValue = value
	require.NoError(t, cfg.Validate())
	return cfg
}
