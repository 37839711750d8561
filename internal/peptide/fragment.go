package peptide

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/524D/mzdigest/internal/chem"
	"github.com/524D/mzdigest/internal/ms"
)

// ErrUnknownProductType means a product type has no mass offset
var ErrUnknownProductType = errors.New("peptide: unknown product type")

// ProductType is a fragment ion series
type ProductType int

// Product types. BnoB1 is the b series without b1, D are diagnostic
// ions and M are molecular ions.
const (
	A ProductType = iota
	Adot
	Astar
	B
	BnoB1
	Bdot
	Bstar
	C
	X
	Y
	Ydot
	Ystar
	Zdot
	D
	M
)

var productNames = [...]string{"A", "Adot", "Astar", "B", "BnoB1", "Bdot", "Bstar", "C",
	"X", "Y", "Ydot", "Ystar", "Zdot", "D", "M"}

func (t ProductType) String() string {
	if t >= 0 && int(t) < len(productNames) {
		return productNames[t]
	}
	return "ProductType(" + strconv.Itoa(int(t)) + ")"
}

// ParseProductType converts a name like "Zdot" (case insensitive)
func ParseProductType(s string) (ProductType, error) {
	for i, name := range productNames {
		if strings.EqualFold(name, s) {
			return ProductType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProductType, s)
}

// Terminus returns the peptide terminus that a fragment of this type
// contains, ms.None for D and M
func (t ProductType) Terminus() ms.Terminus {
	switch {
	case t >= A && t <= C:
		return ms.N
	case t >= X && t <= Zdot:
		return ms.C
	}
	return ms.None
}

// Mass offsets of the series relative to the summed residue masses
var productOffset = map[ProductType]float64{
	A:     chem.MustParseFormula("C-1O-1").MonoisotopicMass(),
	Adot:  chem.MustParseFormula("C-1O-2H-2").MonoisotopicMass(),
	Astar: chem.MustParseFormula("C-1O-1N-1H-3").MonoisotopicMass(),
	B:     0,
	BnoB1: 0,
	Bdot:  chem.MustParseFormula("H-2O-1").MonoisotopicMass(),
	Bstar: chem.MustParseFormula("N-1H-3").MonoisotopicMass(),
	C:     chem.MustParseFormula("N1H3").MonoisotopicMass(),
	X:     chem.MustParseFormula("C1O2").MonoisotopicMass(),
	Y:     chem.MustParseFormula("H2O1").MonoisotopicMass(),
	Ydot:  0,
	Ystar: chem.MustParseFormula("O1H-1N-1").MonoisotopicMass(),
	Zdot:  chem.MustParseFormula("O1H1N-1").MonoisotopicMass(),
	D:     0,
	M:     0,
}

// NeutralMassShift adds the offset of product type t to mass
func NeutralMassShift(mass float64, t ProductType) (float64, error) {
	off, ok := productOffset[t]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownProductType, t)
	}
	return mass + off, nil
}

// FragmentIon is a theoretical fragment. IonNumber counts residues from
// the terminus of the series and is 0 for D and M ions. NeutralMass
// already has NeutralLoss subtracted.
type FragmentIon struct {
	ProductType ProductType
	IonNumber   int
	NeutralMass float64
	NeutralLoss float64
	Charge      int
}

// Terminus of the series the ion belongs to
func (f FragmentIon) Terminus() ms.Terminus {
	return f.ProductType.Terminus()
}

// Mz of the ion at its charge
func (f FragmentIon) Mz() float64 {
	return chem.ToMz(f.NeutralMass, f.Charge)
}

// String formats as <type><number>;<mass>-<loss>, e.g. B1;97.05276385-0
func (f FragmentIon) String() string {
	return f.ProductType.String() + strconv.Itoa(f.IonNumber) + ";" +
		strconv.FormatFloat(f.NeutralMass, 'f', -1, 64) + "-" +
		strconv.FormatFloat(f.NeutralLoss, 'f', -1, 64)
}

// DissociationTable maps dissociation types to the product series they
// produce. Its methods never modify the receiver, so a table can be
// shared once built.
type DissociationTable struct {
	series map[ms.DissociationType][]ProductType
}

// DefaultDissociationTable returns the standard series per dissociation type
func DefaultDissociationTable() DissociationTable {
	return DissociationTable{series: map[ms.DissociationType][]ProductType{
		ms.HCD:               {B, Y},
		ms.CID:               {B, Y},
		ms.AnyActivationType: {B, Y},
		ms.ECD:               {C, Y, Zdot},
		ms.ETD:               {C, Y, Zdot},
		ms.EThCD:             {B, C, Y, Zdot},
		ms.ISCID:             {},
		ms.MPD:               {},
		ms.PQD:               {},
		ms.Custom:            {},
	}}
}

// With returns a copy of the table in which d produces series
func (t DissociationTable) With(d ms.DissociationType, series ...ProductType) DissociationTable {
	n := DissociationTable{series: make(map[ms.DissociationType][]ProductType, len(t.series)+1)}
	for k, v := range t.series {
		n.series[k] = v
	}
	n.series[d] = append([]ProductType(nil), series...)
	return n
}

// Series returns the product types of dissociation type d
func (t DissociationTable) Series(d ms.DissociationType) []ProductType {
	return append([]ProductType(nil), t.series[d]...)
}

// Fragmenter computes theoretical fragments using a dissociation table
type Fragmenter struct {
	Table DissociationTable
}

// NewFragmenter returns a Fragmenter for table
func NewFragmenter(table DissociationTable) *Fragmenter {
	return &Fragmenter{Table: table}
}

// Fragment returns the fragments of pep for dissociation type d. Only
// series of terminus term are generated (ms.Both for all), diagnostic
// and molecular ions are always included.
// M ions are generated for non-zero neutral losses only, so there is no
// M ion at the unfragmented peptide mass.
// Fragments are ordered by series, then ion number, then neutral loss.
func (f *Fragmenter) Fragment(pep *ModifiedPeptide, d ms.DissociationType, term ms.Terminus) ([]FragmentIon, error) {
	var series []ProductType
	for _, pt := range f.Table.Series(d) {
		if _, err := NeutralMassShift(0, pt); err != nil {
			return nil, err
		}
		st := pt.Terminus()
		if (st == ms.N || st == ms.C) && (term == ms.Both || term == st) {
			series = append(series, pt)
		}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i] < series[j] })

	seq := pep.BaseSequence()
	n := len(seq)
	residues := make([]float64, n)
	for i := 0; i < n; i++ {
		m, err := chem.ResidueMass(seq[i])
		if err != nil {
			return nil, err
		}
		residues[i] = m
	}
	keys := pep.modKeys()

	var ions []FragmentIon
	for _, pt := range series {
		offset := productOffset[pt]
		first := 1
		if pt == BnoB1 {
			first = 2
		}
		nTerm := pt.Terminus() == ms.N
		for num := first; num < n; num++ {
			// residues lo..hi-1 with their modifications and the
			// terminal modification form the fragment
			lo, hi := 0, num
			if !nTerm {
				lo, hi = n-num, n
			}
			mass := 0.0
			var losses []float64
			if nTerm {
				mass, losses = f.addMod(mass, losses, pep, 1, d)
			} else {
				mass, losses = f.addMod(mass, losses, pep, n+2, d)
			}
			for r := lo; r < hi; r++ {
				mass += residues[r]
				mass, losses = f.addMod(mass, losses, pep, r+2, d)
			}
			base := chem.Round(mass + offset)
			ions = append(ions, FragmentIon{ProductType: pt, IonNumber: num, NeutralMass: base, Charge: 1})
			sort.Float64s(losses)
			for _, l := range losses {
				ions = append(ions, FragmentIon{ProductType: pt, IonNumber: num, NeutralMass: base - l, NeutralLoss: l, Charge: 1})
			}
		}
	}

	for _, k := range keys {
		for _, dm := range pep.Mods[k].DiagnosticIonsFor(d) {
			ions = append(ions, FragmentIon{ProductType: D, NeutralMass: chem.Round(dm), Charge: 1})
		}
	}
	pepMass := pep.MonoisotopicMass()
	for _, k := range keys {
		for _, l := range pep.Mods[k].NeutralLossesFor(d) {
			if l == 0 {
				continue
			}
			ions = append(ions, FragmentIon{ProductType: M, NeutralMass: pepMass - l, NeutralLoss: l, Charge: 1})
		}
	}
	return ions, nil
}

// addMod adds the modification at key, if any, to mass and collects its
// neutral losses
func (f *Fragmenter) addMod(mass float64, losses []float64, pep *ModifiedPeptide, key int, d ms.DissociationType) (float64, []float64) {
	m, ok := pep.Mods[key]
	if !ok {
		return mass, losses
	}
	return mass + m.MonoisotopicMass, append(losses, m.NeutralLossesFor(d)...)
}
