package logk

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/turtacn/logkpredict/pkg/errors"
)

const (
	// DefaultFeatureMaskVersion identifies the checkpoint the default mask
	// belongs to.
	DefaultFeatureMaskVersion = "logkpredict-2.0.0"

	// DefaultFeatureMaskLiteral selects 21 of the 10 scalar + 40 descriptor
	// positions.  It is kept verbatim; do not reformat.
	DefaultFeatureMaskLiteral = "False  True False False  True  True  True  True  True  True  True False False  True  True  True  True False  True  True  True  True False  True True True False False False False False False False False True False False False False False False True False False False False False False False False"

	// ScalarDecimals is the number of decimals scalar features are rounded to.
	ScalarDecimals = 4
)

// DefaultFeatureMask is the parsed DefaultFeatureMaskLiteral.
var DefaultFeatureMask = MustParseFeatureMask(DefaultFeatureMaskVersion, DefaultFeatureMaskLiteral)

// FeatureMask is a positional selector over the combined feature vector.
type FeatureMask struct {
	version string
	bits    []bool
}

// ParseFeatureMask parses whitespace-separated True/False tokens.
func ParseFeatureMask(version, literal string) (FeatureMask, error) {
	tokens := strings.Fields(literal)
	if len(tokens) == 0 {
		return FeatureMask{}, errors.New(errors.CodeConfiguration, "feature mask is empty")
	}
	bits := make([]bool, len(tokens))
	for i, tok := range tokens {
		switch tok {
		case "True":
			bits[i] = true
		case "False":
		default:
			return FeatureMask{}, errors.Newf(errors.CodeConfiguration,
				"feature mask token %d is %q, want True or False", i, tok)
		}
	}
	return FeatureMask{version: version, bits: bits}, nil
}

// MustParseFeatureMask is ParseFeatureMask that panics on error.
func MustParseFeatureMask(version, literal string) FeatureMask {
	m, err := ParseFeatureMask(version, literal)
	if err != nil {
		panic(err)
	}
	return m
}

// Version returns the mask version label.
func (m FeatureMask) Version() string { return m.version }

// Len returns the number of positions the mask covers.
func (m FeatureMask) Len() int { return len(m.bits) }

// Count returns the number of selected positions.
func (m FeatureMask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Selected returns the selected positions in ascending order.
func (m FeatureMask) Selected() []int {
	out := make([]int, 0, m.Count())
	for i, b := range m.bits {
		if b {
			out = append(out, i)
		}
	}
	return out
}

// MaskedFeatureVector is the model input handed to the prediction engine.
type MaskedFeatureVector []float64

// String joins the values with ", " as the features exchange file expects.
func (v MaskedFeatureVector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = FormatFeature(x)
	}
	return strings.Join(parts, ", ")
}

// FormatFeature renders v as its shortest round-trip decimal.  Integral
// values keep a trailing ".0"; magnitudes below 1e-4 or from 1e16 up use
// exponent notation.
func FormatFeature(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// RoundScalar rounds half away from zero on the shortest decimal form of v,
// so 2.00005 becomes 2.0001 and 0.00015 becomes 0.0002 even though the
// nearest double to 0.00015 is below the half.
func RoundScalar(v float64) float64 {
	return decimal.NewFromFloat(v).Round(ScalarDecimals).InexactFloat64()
}

// Assembler merges scalar features and descriptors into the masked model
// input.
type Assembler struct {
	mask FeatureMask
}

// NewAssembler creates an Assembler for mask.
func NewAssembler(mask FeatureMask) *Assembler {
	return &Assembler{mask: mask}
}

// Mask returns the configured mask.
func (a *Assembler) Mask() FeatureMask { return a.mask }

// Combine returns the rounded scalars followed by the descriptor values.
func (a *Assembler) Combine(scalar []float64, desc DescriptorVector) ([]float64, error) {
	if n := len(scalar) + desc.Len(); n != a.mask.Len() {
		return nil, errors.Newf(errors.CodeConfiguration,
			"feature mask %s has %d entries but the combined vector has %d (%d scalar + %d descriptor)",
			a.mask.Version(), a.mask.Len(), n, len(scalar), desc.Len())
	}
	combined := make([]float64, 0, a.mask.Len())
	for i, v := range scalar {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Newf(errors.CodeInvalidInput, "scalar feature %d is not finite", i)
		}
		combined = append(combined, RoundScalar(v))
	}
	return append(combined, desc.Values...), nil
}

// Assemble rounds, concatenates and masks.  The result has Mask().Count()
// values in ascending position order.
func (a *Assembler) Assemble(scalar []float64, desc DescriptorVector) (MaskedFeatureVector, error) {
	combined, err := a.Combine(scalar, desc)
	if err != nil {
		return nil, err
	}
	out := make(MaskedFeatureVector, 0, a.mask.Count())
	for i, keep := range a.mask.bits {
		if keep {
			out = append(out, combined[i])
		}
	}
	return out, nil
}
