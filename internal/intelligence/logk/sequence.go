package logk

import (
	"regexp"

	"github.com/turtacn/logkpredict/internal/domain/molecule"
)

var (
	// a hydrogen count right after "->[Metal"
	acceptorHydrogens = regexp.MustCompile(`(->\[[A-Z][a-z]?)(H\d?)`)
	// a hydrogen count right before "+n]<-"
	chargedDonorHydrogens = regexp.MustCompile(`(H\d?)(\+\d?\]<-)`)
)

// StripAcceptorHydrogens removes the hydrogen count written on an atom that
// follows a dative bond, e.g. "->[CuH2]" becomes "->[Cu]".
func StripAcceptorHydrogens(seq string) string {
	return acceptorHydrogens.ReplaceAllString(seq, "${1}")
}

// StripChargedDonorHydrogens removes the hydrogen count on a charged atom
// that opens a dative bond, e.g. "[NH3+]<-" becomes "[N+]<-".
func StripChargedDonorHydrogens(seq string) string {
	return chargedDonorHydrogens.ReplaceAllString(seq, "${2}")
}

// CleanSequence applies StripAcceptorHydrogens then
// StripChargedDonorHydrogens.
func CleanSequence(seq string) string {
	return StripChargedDonorHydrogens(StripAcceptorHydrogens(seq))
}

// CanonicalSequence renders the canonical SMILES of a normalized graph with
// the dative-bond hydrogen artefacts removed.
func CanonicalSequence(g *molecule.Graph) string {
	return CleanSequence(molecule.WriteSMILES(g))
}
