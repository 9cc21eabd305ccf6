package molecule

import "strings"

// Element carries the per-element constants the graph and the descriptor
// calculators need.
type Element struct {
	Number int
	Symbol string
	Mass   float64

	// CovalentRadius is in Angstrom.
	CovalentRadius float64

	// Rb0 is the bond radius used for approximate surface areas.  It equals
	// CovalentRadius except for the parameterised organic elements.
	Rb0 float64

	// Valences lists the allowed standard valences in ascending order.  A nil
	// slice marks an element that takes any valence and never receives
	// implicit hydrogens (the metals).
	Valences []int
}

// OuterElectrons returns the number of valence-shell electrons: the group
// number for groups 1-12, group-10 for the p block, 3 for the f block.
func (e Element) OuterElectrons() int {
	g := Group(e.Number)
	switch {
	case e.Number == 2:
		return 2
	case g <= 12:
		return g
	default:
		return g - 10
	}
}

// HasDefaultValence reports whether implicit hydrogens can be derived.
func (e Element) HasDefaultValence() bool { return e.Valences != nil }

// Period returns the periodic-table row of atomic number z.
func Period(z int) int {
	switch {
	case z <= 2:
		return 1
	case z <= 10:
		return 2
	case z <= 18:
		return 3
	case z <= 36:
		return 4
	case z <= 54:
		return 5
	case z <= 86:
		return 6
	default:
		return 7
	}
}

// Group returns the IUPAC group (1-18) of atomic number z.  Lanthanides and
// actinides report group 3.
func Group(z int) int {
	switch {
	case z == 1:
		return 1
	case z == 2:
		return 18
	case z <= 10:
		if z <= 4 {
			return z - 2
		}
		return z + 8
	case z <= 18:
		if z <= 12 {
			return z - 10
		}
		return z
	case z <= 36:
		return z - 18
	case z <= 54:
		return z - 36
	case z <= 86:
		switch {
		case z <= 56:
			return z - 54
		case z <= 71:
			return 3
		default:
			return z - 68
		}
	default:
		if z <= 88 {
			return z - 86
		}
		return 3
	}
}

// MaxAtomicNumber is the last element in the table.
const MaxAtomicNumber = 103

var elementTable = [MaxAtomicNumber + 1]Element{
	1:   {1, "H", 1.008, 0.31, 0.33, []int{1}},
	2:   {2, "He", 4.003, 0.28, 0.28, []int{0}},
	3:   {3, "Li", 6.941, 1.28, 1.28, nil},
	4:   {4, "Be", 9.012, 0.96, 0.96, nil},
	5:   {5, "B", 10.812, 0.84, 0.82, []int{3}},
	6:   {6, "C", 12.011, 0.76, 0.77, []int{4}},
	7:   {7, "N", 14.007, 0.71, 0.70, []int{3}},
	8:   {8, "O", 15.999, 0.66, 0.66, []int{2}},
	9:   {9, "F", 18.998, 0.57, 0.611, []int{1}},
	10:  {10, "Ne", 20.180, 0.58, 0.58, []int{0}},
	11:  {11, "Na", 22.990, 1.66, 1.66, nil},
	12:  {12, "Mg", 24.305, 1.41, 1.41, nil},
	13:  {13, "Al", 26.982, 1.21, 1.21, nil},
	14:  {14, "Si", 28.086, 1.11, 1.17, []int{4}},
	15:  {15, "P", 30.974, 1.07, 1.10, []int{3, 5}},
	16:  {16, "S", 32.067, 1.05, 1.04, []int{2, 4, 6}},
	17:  {17, "Cl", 35.453, 1.02, 0.997, []int{1}},
	18:  {18, "Ar", 39.948, 1.06, 1.06, []int{0}},
	19:  {19, "K", 39.098, 2.03, 2.03, nil},
	20:  {20, "Ca", 40.078, 1.76, 1.76, nil},
	21:  {21, "Sc", 44.956, 1.70, 1.70, nil},
	22:  {22, "Ti", 47.867, 1.60, 1.60, nil},
	23:  {23, "V", 50.942, 1.53, 1.53, nil},
	24:  {24, "Cr", 51.996, 1.39, 1.39, nil},
	25:  {25, "Mn", 54.938, 1.39, 1.39, nil},
	26:  {26, "Fe", 55.845, 1.32, 1.32, nil},
	27:  {27, "Co", 58.933, 1.26, 1.26, nil},
	28:  {28, "Ni", 58.693, 1.24, 1.24, nil},
	29:  {29, "Cu", 63.546, 1.32, 1.32, nil},
	30:  {30, "Zn", 65.39, 1.22, 1.22, nil},
	31:  {31, "Ga", 69.723, 1.22, 1.22, nil},
	32:  {32, "Ge", 72.61, 1.20, 1.20, []int{4}},
	33:  {33, "As", 74.922, 1.19, 1.19, []int{3, 5}},
	34:  {34, "Se", 78.96, 1.20, 1.20, []int{2, 4, 6}},
	35:  {35, "Br", 79.904, 1.20, 1.14, []int{1}},
	36:  {36, "Kr", 83.80, 1.16, 1.16, []int{0}},
	37:  {37, "Rb", 85.468, 2.20, 2.20, nil},
	38:  {38, "Sr", 87.62, 1.95, 1.95, nil},
	39:  {39, "Y", 88.906, 1.90, 1.90, nil},
	40:  {40, "Zr", 91.224, 1.75, 1.75, nil},
	41:  {41, "Nb", 92.906, 1.64, 1.64, nil},
	42:  {42, "Mo", 95.94, 1.54, 1.54, nil},
	43:  {43, "Tc", 98.0, 1.47, 1.47, nil},
	44:  {44, "Ru", 101.07, 1.46, 1.46, nil},
	45:  {45, "Rh", 102.906, 1.42, 1.42, nil},
	46:  {46, "Pd", 106.42, 1.39, 1.39, nil},
	47:  {47, "Ag", 107.868, 1.45, 1.45, nil},
	48:  {48, "Cd", 112.411, 1.44, 1.44, nil},
	49:  {49, "In", 114.818, 1.42, 1.42, nil},
	50:  {50, "Sn", 118.71, 1.39, 1.39, nil},
	51:  {51, "Sb", 121.76, 1.39, 1.39, []int{3, 5}},
	52:  {52, "Te", 127.6, 1.38, 1.38, []int{2, 4, 6}},
	53:  {53, "I", 126.904, 1.39, 1.33, []int{1, 3, 5}},
	54:  {54, "Xe", 131.29, 1.40, 1.40, []int{0}},
	55:  {55, "Cs", 132.905, 2.44, 2.44, nil},
	56:  {56, "Ba", 137.328, 2.15, 2.15, nil},
	57:  {57, "La", 138.906, 2.07, 2.07, nil},
	58:  {58, "Ce", 140.116, 2.04, 2.04, nil},
	59:  {59, "Pr", 140.908, 2.03, 2.03, nil},
	60:  {60, "Nd", 144.24, 2.01, 2.01, nil},
	61:  {61, "Pm", 145.0, 1.99, 1.99, nil},
	62:  {62, "Sm", 150.36, 1.98, 1.98, nil},
	63:  {63, "Eu", 151.964, 1.98, 1.98, nil},
	64:  {64, "Gd", 157.25, 1.96, 1.96, nil},
	65:  {65, "Tb", 158.925, 1.94, 1.94, nil},
	66:  {66, "Dy", 162.50, 1.92, 1.92, nil},
	67:  {67, "Ho", 164.930, 1.92, 1.92, nil},
	68:  {68, "Er", 167.26, 1.89, 1.89, nil},
	69:  {69, "Tm", 168.934, 1.90, 1.90, nil},
	70:  {70, "Yb", 173.04, 1.87, 1.87, nil},
	71:  {71, "Lu", 174.967, 1.87, 1.87, nil},
	72:  {72, "Hf", 178.49, 1.75, 1.75, nil},
	73:  {73, "Ta", 180.948, 1.70, 1.70, nil},
	74:  {74, "W", 183.84, 1.62, 1.62, nil},
	75:  {75, "Re", 186.207, 1.51, 1.51, nil},
	76:  {76, "Os", 190.23, 1.44, 1.44, nil},
	77:  {77, "Ir", 192.217, 1.41, 1.41, nil},
	78:  {78, "Pt", 195.078, 1.36, 1.36, nil},
	79:  {79, "Au", 196.967, 1.36, 1.36, nil},
	80:  {80, "Hg", 200.59, 1.32, 1.32, nil},
	81:  {81, "Tl", 204.383, 1.45, 1.45, nil},
	82:  {82, "Pb", 207.2, 1.46, 1.46, nil},
	83:  {83, "Bi", 208.980, 1.48, 1.48, nil},
	84:  {84, "Po", 209.0, 1.40, 1.40, nil},
	85:  {85, "At", 210.0, 1.50, 1.50, []int{1}},
	86:  {86, "Rn", 222.0, 1.50, 1.50, []int{0}},
	87:  {87, "Fr", 223.0, 2.60, 2.60, nil},
	88:  {88, "Ra", 226.0, 2.21, 2.21, nil},
	89:  {89, "Ac", 227.0, 2.15, 2.15, nil},
	90:  {90, "Th", 232.038, 2.06, 2.06, nil},
	91:  {91, "Pa", 231.036, 2.00, 2.00, nil},
	92:  {92, "U", 238.029, 1.96, 1.96, nil},
	93:  {93, "Np", 237.0, 1.90, 1.90, nil},
	94:  {94, "Pu", 244.0, 1.87, 1.87, nil},
	95:  {95, "Am", 243.0, 1.80, 1.80, nil},
	96:  {96, "Cm", 247.0, 1.69, 1.69, nil},
	97:  {97, "Bk", 247.0, 1.68, 1.68, nil},
	98:  {98, "Cf", 251.0, 1.68, 1.68, nil},
	99:  {99, "Es", 252.0, 1.65, 1.65, nil},
	100: {100, "Fm", 257.0, 1.67, 1.67, nil},
	101: {101, "Md", 258.0, 1.73, 1.73, nil},
	102: {102, "No", 259.0, 1.76, 1.76, nil},
	103: {103, "Lr", 262.0, 1.61, 1.61, nil},
}

var symbolIndex = func() map[string]int {
	m := make(map[string]int, MaxAtomicNumber)
	for z := 1; z <= MaxAtomicNumber; z++ {
		m[elementTable[z].Symbol] = z
	}
	// molfile aliases for hydrogen isotopes
	m["D"] = 1
	m["T"] = 1
	return m
}()

// LookupElement returns the element with atomic number z.
func LookupElement(z int) (Element, bool) {
	if z < 1 || z > MaxAtomicNumber {
		return Element{}, false
	}
	return elementTable[z], true
}

// ElementBySymbol resolves a case-sensitive element symbol (e.g. "Cl").
func ElementBySymbol(sym string) (Element, bool) {
	z, ok := symbolIndex[strings.TrimSpace(sym)]
	if !ok {
		return Element{}, false
	}
	return elementTable[z], true
}

// MustElement returns the element for z and panics on an unknown number.
// Graph atoms are validated at construction so lookups by atom never fail.
func MustElement(z int) Element {
	e, ok := LookupElement(z)
	if !ok {
		panic("molecule: unknown atomic number")
	}
	return e
}
