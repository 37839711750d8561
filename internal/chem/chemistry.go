// Package chem provides monoisotopic masses of elements, chemical formulas
// and amino acid residues.
package chem

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Monoisotopic masses of the principal isotopes
const (
	MassH  = 1.00782503223
	MassC  = 12.0
	MassN  = 14.00307400443
	MassO  = 15.99491461957
	MassS  = 31.9720711744
	MassP  = 30.97376199842
	MassSe = 79.9165218

	// ProtonMass is used for charge calculations
	ProtonMass = 1.007276466621
)

// WaterMass is the monoisotopic mass of H2O
const WaterMass = 2*MassH + MassO

var elementMass = map[string]float64{
	"H":  MassH,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"Se": MassSe,
}

var (
	// ErrUnknownElement means a formula contains an element without a known mass
	ErrUnknownElement = errors.New("chem: unknown element")
	// ErrFormula means a formula string can't be parsed
	ErrFormula = errors.New("chem: invalid formula")
	// ErrUnknownResidue means a sequence contains an unknown amino acid
	ErrUnknownResidue = errors.New("chem: unknown residue")
)

// ElementMass returns the monoisotopic mass of the principal isotope
// of an element
func ElementMass(symbol string) (float64, error) {
	m, ok := elementMass[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownElement, symbol)
	}
	return m, nil
}

// Formula is an elemental composition. Counts may be negative, which is
// used for mass offsets such as C-1O-1.
type Formula map[string]int

var formulaRe = regexp.MustCompile(`([A-Z][a-z]?)(-?\d*)`)

// ParseFormula parses formulas like "H2O", "H1O3P1" or "C-1O-2H-2"
func ParseFormula(s string) (Formula, error) {
	f := Formula{}
	var seen strings.Builder
	for _, m := range formulaRe.FindAllStringSubmatch(s, -1) {
		seen.WriteString(m[0])
		if _, ok := elementMass[m[1]]; !ok {
			return nil, fmt.Errorf("%w: %s in %q", ErrUnknownElement, m[1], s)
		}
		n := 1
		if m[2] != "" {
			var err error
			n, err = strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrFormula, s)
			}
		}
		f[m[1]] += n
	}
	if seen.String() != s || s == "" {
		return nil, fmt.Errorf("%w: %q", ErrFormula, s)
	}
	return f, nil
}

// MustParseFormula is like ParseFormula but panics on error.
// Only for use with constant formulas.
func MustParseFormula(s string) Formula {
	f, err := ParseFormula(s)
	if err != nil {
		panic(err)
	}
	return f
}

// MonoisotopicMass of the formula
func (f Formula) MonoisotopicMass() float64 {
	els := make([]string, 0, len(f))
	for el := range f {
		els = append(els, el)
	}
	// fixed summation order, so masses are reproducible to the last bit
	sort.Slice(els, func(i, j int) bool { return hillLess(els[i], els[j]) })
	m := 0.0
	for _, el := range els {
		m += float64(f[el]) * elementMass[el]
	}
	return m
}

// Add returns the sum of two formulas
func (f Formula) Add(g Formula) Formula {
	r := make(Formula, len(f)+len(g))
	for el, n := range f {
		r[el] += n
	}
	for el, n := range g {
		r[el] += n
	}
	return r
}

// String writes the formula in Hill order, with explicit counts
func (f Formula) String() string {
	var els []string
	for el, n := range f {
		if n != 0 {
			els = append(els, el)
		}
	}
	sort.Slice(els, func(i, j int) bool {
		return hillLess(els[i], els[j])
	})
	var sb strings.Builder
	for _, el := range els {
		sb.WriteString(el)
		sb.WriteString(strconv.Itoa(f[el]))
	}
	return sb.String()
}

func hillLess(a, b string) bool {
	rank := func(s string) int {
		switch s {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}
	if rank(a) != rank(b) {
		return rank(a) < rank(b)
	}
	return a < b
}

// Residue compositions (amino acid minus water)
var residueFormula = map[byte]Formula{
	'A': {"C": 3, "H": 5, "N": 1, "O": 1},
	'R': {"C": 6, "H": 12, "N": 4, "O": 1},
	'N': {"C": 4, "H": 6, "N": 2, "O": 2},
	'D': {"C": 4, "H": 5, "N": 1, "O": 3},
	'C': {"C": 3, "H": 5, "N": 1, "O": 1, "S": 1},
	'E': {"C": 5, "H": 7, "N": 1, "O": 3},
	'Q': {"C": 5, "H": 8, "N": 2, "O": 2},
	'G': {"C": 2, "H": 3, "N": 1, "O": 1},
	'H': {"C": 6, "H": 7, "N": 3, "O": 1},
	'I': {"C": 6, "H": 11, "N": 1, "O": 1},
	'L': {"C": 6, "H": 11, "N": 1, "O": 1},
	'K': {"C": 6, "H": 12, "N": 2, "O": 1},
	'M': {"C": 5, "H": 9, "N": 1, "O": 1, "S": 1},
	'F': {"C": 9, "H": 9, "N": 1, "O": 1},
	'P': {"C": 5, "H": 7, "N": 1, "O": 1},
	'S': {"C": 3, "H": 5, "N": 1, "O": 2},
	'T': {"C": 4, "H": 7, "N": 1, "O": 2},
	'W': {"C": 11, "H": 10, "N": 2, "O": 1},
	'Y': {"C": 9, "H": 9, "N": 1, "O": 2},
	'V': {"C": 5, "H": 9, "N": 1, "O": 1},
	'U': {"C": 3, "H": 5, "N": 1, "O": 1, "Se": 1}, // Selenocysteine
	'O': {"C": 12, "H": 19, "N": 3, "O": 2},        // Pyrrolysine
}

var residueMass [256]float64

func init() {
	for i := range residueMass {
		residueMass[i] = math.NaN()
	}
	for aa, f := range residueFormula {
		residueMass[aa] = f.MonoisotopicMass()
	}
}

// ResidueMass returns the monoisotopic residue mass of an amino acid
func ResidueMass(aa byte) (float64, error) {
	m := residueMass[aa]
	if math.IsNaN(m) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResidue, aa)
	}
	return m, nil
}

// SequenceMass returns the sum of the residue masses in seq,
// without water
func SequenceMass(seq string) (float64, error) {
	m := 0.0
	for i := 0; i < len(seq); i++ {
		rm, err := ResidueMass(seq[i])
		if err != nil {
			return 0, err
		}
		m += rm
	}
	return m, nil
}

// Round rounds to 9 decimal places, the precision used for reporting
// theoretical masses
func Round(m float64) float64 {
	return math.Round(m*1e9) / 1e9
}

// ToMz converts a neutral mass to m/z at the given charge
func ToMz(mass float64, charge int) float64 {
	return (mass + float64(charge)*ProtonMass) / math.Abs(float64(charge))
}
