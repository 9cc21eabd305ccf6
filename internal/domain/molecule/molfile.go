package molecule

import (
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// V2000 atom-block charge codes.  Code 4 is a doublet radical.
var chargeCodes = map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

// V2000 bond types understood by the parser.  8 ("any") is read as single
// and 9 (coordination) as dative from the first atom to the second.
var bondTypeCodes = map[int]BondType{
	1: BondSingle,
	2: BondDouble,
	3: BondTriple,
	4: BondAromatic,
	8: BondSingle,
	9: BondDative,
}

func structureError(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeInvalidStructure, "molfile: "+format, args...)
}

// column returns line[from:to] trimmed, tolerating short lines.
func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

// columnInt parses an optional integer column; blank means zero.
func columnInt(line string, from, to int) (int, error) {
	s := column(line, from, to)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// ParseMolBlock reads a V2000 connection table into a Graph.  No
// sanitization is performed; implicit hydrogens are left at zero until
// UpdatePropertyCache runs.  V3000 records are rejected.
func ParseMolBlock(block string) (*Graph, error) {
	lines := strings.Split(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, structureError("missing counts line")
	}
	counts := lines[3]
	if strings.Contains(counts, "V3000") {
		return nil, structureError("V3000 records are not supported")
	}
	nAtoms, err := strconv.Atoi(column(counts, 0, 3))
	if err != nil {
		return nil, structureError("malformed counts line %q", counts)
	}
	nBonds, err := strconv.Atoi(column(counts, 3, 6))
	if err != nil {
		return nil, structureError("malformed counts line %q", counts)
	}
	if nAtoms < 0 || nBonds < 0 {
		return nil, structureError("negative counts in %q", counts)
	}
	if len(lines) < 4+nAtoms+nBonds {
		return nil, structureError("truncated record: expected %d atom and %d bond lines", nAtoms, nBonds)
	}

	ed := NewEditor()
	valenceField := make(map[int]int)
	for i := 0; i < nAtoms; i++ {
		line := lines[4+i]
		a, vvv, err := parseAtomLine(line, i)
		if err != nil {
			return nil, err
		}
		if _, err := ed.AddAtom(a); err != nil {
			return nil, structureError("atom %d: %v", i+1, err)
		}
		if vvv != 0 {
			valenceField[i] = vvv
		}
	}

	for i := 0; i < nBonds; i++ {
		line := lines[4+nAtoms+i]
		a1, err1 := columnInt(line, 0, 3)
		a2, err2 := columnInt(line, 3, 6)
		code, err3 := columnInt(line, 6, 9)
		if err1 != nil || err2 != nil || err3 != nil || len(strings.TrimSpace(line)) == 0 {
			return nil, structureError("malformed bond line %d: %q", i+1, line)
		}
		if a1 < 1 || a1 > nAtoms || a2 < 1 || a2 > nAtoms {
			return nil, structureError("bond %d references atom outside 1..%d", i+1, nAtoms)
		}
		if a1 == a2 {
			return nil, structureError("bond %d joins atom %d to itself", i+1, a1)
		}
		t, ok := bondTypeCodes[code]
		if !ok {
			return nil, structureError("bond %d has unsupported type %d", i+1, code)
		}
		if _, err := ed.AddBond(a1-1, a2-1, t); err != nil {
			return nil, structureError("bond %d: duplicate bond between atoms %d and %d", i+1, a1, a2)
		}
	}

	if err := parseProperties(ed, lines[4+nAtoms+nBonds:]); err != nil {
		return nil, err
	}

	// A non-zero valence field pins the total valence: the difference to
	// the bond valence becomes explicit hydrogens.
	for i, vvv := range valenceField {
		total := vvv
		if vvv == 15 {
			total = 0
		}
		a := &ed.g.atoms[i]
		a.NoImplicit = true
		if h := total - integralValence(ed.g, i); h > 0 {
			a.ExplicitHs = h
		}
	}
	return ed.Graph(), nil
}

func parseAtomLine(line string, i int) (Atom, int, error) {
	if len(strings.TrimRight(line, " ")) < 32 {
		return Atom{}, 0, structureError("truncated atom line %d: %q", i+1, line)
	}
	sym := column(line, 31, 34)
	el, ok := ElementBySymbol(sym)
	if !ok {
		return Atom{}, 0, structureError("atom %d has unknown element symbol %q", i+1, sym)
	}
	a := Atom{AtomicNum: el.Number}
	if sym == "D" {
		a.Isotope = 2
	} else if sym == "T" {
		a.Isotope = 3
	}

	massDiff, err := columnInt(line, 34, 36)
	if err != nil {
		return Atom{}, 0, structureError("atom %d has malformed mass difference", i+1)
	}
	if massDiff != 0 {
		a.Isotope = int(math.Round(el.Mass)) + massDiff
	}

	code, err := columnInt(line, 36, 39)
	if err != nil {
		return Atom{}, 0, structureError("atom %d has malformed charge code", i+1)
	}
	if code == 4 {
		a.RadicalElectrons = 1
		a.NoImplicit = true
	} else if q, ok := chargeCodes[code]; ok {
		a.FormalCharge = q
	} else {
		return Atom{}, 0, structureError("atom %d has invalid charge code %d", i+1, code)
	}

	vvv, err := columnInt(line, 48, 51)
	if err != nil {
		vvv = 0
	}
	return a, vvv, nil
}

// parseProperties applies the M  CHG / M  RAD / M  ISO lines.  The first CHG
// or RAD line supersedes every charge and radical set in the atom block.
func parseProperties(ed *Editor, lines []string) error {
	reset := false
	resetOnce := func() {
		if reset {
			return
		}
		reset = true
		for i := range ed.g.atoms {
			ed.g.atoms[i].FormalCharge = 0
			ed.g.atoms[i].RadicalElectrons = 0
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "M  END") || strings.TrimSpace(line) == "$$$$" {
			return nil
		}
		if !strings.HasPrefix(line, "M  ") || len(line) < 6 {
			continue
		}
		tag := line[3:6]
		switch tag {
		case "CHG", "RAD", "ISO":
		default:
			continue
		}
		pairs, err := propertyPairs(line, len(ed.g.atoms))
		if err != nil {
			return err
		}
		switch tag {
		case "CHG":
			resetOnce()
			for _, p := range pairs {
				ed.g.atoms[p[0]].FormalCharge = p[1]
			}
		case "RAD":
			resetOnce()
			for _, p := range pairs {
				a := &ed.g.atoms[p[0]]
				switch p[1] {
				case 2:
					a.RadicalElectrons = 1
				case 1, 3:
					a.RadicalElectrons = 2
				default:
					a.RadicalElectrons = 0
				}
				a.NoImplicit = true
			}
		case "ISO":
			for _, p := range pairs {
				ed.g.atoms[p[0]].Isotope = p[1]
			}
		}
	}
	return nil
}

// propertyPairs parses "M  XXXnn8 aaa vvv ..." into zero-based atom/value
// pairs.
func propertyPairs(line string, nAtoms int) ([][2]int, error) {
	fields := strings.Fields(line[6:])
	if len(fields) == 0 {
		return nil, structureError("empty property line %q", line)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || len(fields) < 1+2*n {
		return nil, structureError("malformed property line %q", line)
	}
	out := make([][2]int, 0, n)
	for k := 0; k < n; k++ {
		idx, err1 := strconv.Atoi(fields[1+2*k])
		val, err2 := strconv.Atoi(fields[2+2*k])
		if err1 != nil || err2 != nil {
			return nil, structureError("malformed property line %q", line)
		}
		if idx < 1 || idx > nAtoms {
			return nil, structureError("property line references atom %d outside 1..%d", idx, nAtoms)
		}
		out = append(out, [2]int{idx - 1, val})
	}
	return out, nil
}
