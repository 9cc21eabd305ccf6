package logk

import (
	"strings"

	"github.com/turtacn/logkpredict/internal/domain/molecule"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// DefaultDonors are nitrogen and oxygen.
var DefaultDonors = []int{7, 8}

// NormalizeOps are the sanitization steps run after bond reclassification.
const NormalizeOps = molecule.SanitizeFindRadicals |
	molecule.SanitizeKekulize |
	molecule.SanitizeSetAromaticity |
	molecule.SanitizeSetConjugation |
	molecule.SanitizeSetHybridization |
	molecule.SanitizeSymmetrizeSSSR

// NormalizedGraph is the result of dative bond normalization.
type NormalizedGraph struct {
	Graph *molecule.Graph

	// DativeBonds counts the metal–donor bonds rewritten as dative bonds.
	DativeBonds int

	// Diagnostics lists sanitization steps that failed.  They are reported,
	// never raised.
	Diagnostics []molecule.Diagnostic
}

// Normalizer rewrites bonds between metals and donor atoms as dative bonds
// and re-sanitizes the graph.
type Normalizer struct {
	donors map[int]bool
	logger logging.Logger
}

// NewNormalizer creates a Normalizer for the given donor atomic numbers.  An
// empty list means DefaultDonors; a nil logger means no logging.
func NewNormalizer(donors []int, logger logging.Logger) *Normalizer {
	if len(donors) == 0 {
		donors = DefaultDonors
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	set := make(map[int]bool, len(donors))
	for _, z := range donors {
		set[z] = true
	}
	return &Normalizer{donors: set, logger: logger}
}

// DonorNumbers resolves configured donor element symbols.
func DonorNumbers(symbols []string) ([]int, error) {
	out := make([]int, 0, len(symbols))
	for _, s := range symbols {
		el, ok := molecule.ElementBySymbol(strings.TrimSpace(s))
		if !ok {
			return nil, errors.Newf(errors.CodeConfiguration, "unknown donor element %q", s)
		}
		out = append(out, el.Number)
	}
	return out, nil
}

// IsDonor reports whether atomic number z is a configured donor.
func (n *Normalizer) IsDonor(z int) bool { return n.donors[z] }

// Normalize returns a new graph in which every bond between a metal and a
// donor atom is a dative bond directed donor → metal, with hydrogen counts
// derived on the reclassified bonds.  The input graph is never modified.
func (n *Normalizer) Normalize(g *molecule.Graph) (*NormalizedGraph, error) {
	if g == nil {
		return nil, errors.New(errors.CodeMolecularProcessing, "failed to set dative bonds: nil graph")
	}

	ed := g.Edit()
	if err := ed.UpdatePropertyCache(false); err != nil {
		return nil, errors.Wrap(err, errors.CodeMolecularProcessing, "failed to set dative bonds")
	}

	var metals []int
	for i := 0; i < ed.NumAtoms(); i++ {
		if IsTransitionMetal(ed.Atom(i)) {
			metals = append(metals, i)
		}
	}

	converted := 0
	for _, m := range metals {
		for _, nb := range ed.Neighbors(m) {
			if !n.donors[ed.Atom(nb).AtomicNum] {
				continue
			}
			if err := ed.RemoveBond(nb, m); err != nil {
				return nil, errors.Wrap(err, errors.CodeMolecularProcessing, "failed to set dative bonds")
			}
			if _, err := ed.AddBond(nb, m, molecule.BondDative); err != nil {
				return nil, errors.Wrap(err, errors.CodeMolecularProcessing, "failed to set dative bonds")
			}
			converted++
		}
	}

	// Donor hydrogens were derived while the bonds were still single.
	if err := ed.UpdatePropertyCache(false); err != nil {
		return nil, errors.Wrap(err, errors.CodeMolecularProcessing, "failed to set dative bonds")
	}

	out, diags := molecule.Sanitize(ed.Graph(), NormalizeOps)
	for _, d := range diags {
		n.logger.Warn("sanitization step failed",
			logging.Stage("normalize"),
			logging.String("step", d.Step),
			logging.String("message", d.Message))
	}
	n.logger.Debug("dative bonds set",
		logging.Int("metals", len(metals)),
		logging.Int("dative_bonds", converted))

	return &NormalizedGraph{Graph: out, DativeBonds: converted, Diagnostics: diags}, nil
}
