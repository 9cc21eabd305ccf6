package logk

import "github.com/turtacn/logkpredict/internal/domain/molecule"

// IsTransitionMetal reports whether an atom is treated as a coordination
// centre.  Everything is a metal except hydrogen, boron through fluorine,
// silicon through chlorine and bromine; noble gases and the alkali metals
// therefore count as metals too.
func IsTransitionMetal(a molecule.Atom) bool {
	return isMetalNumber(a.AtomicNum)
}

func isMetalNumber(z int) bool {
	switch {
	case z == 1:
		return false
	case z >= 5 && z <= 9:
		return false
	case z >= 14 && z <= 17:
		return false
	case z == 35:
		return false
	}
	return true
}
