package protease

import (
	"fmt"
	"math"
)

// InitiatorMethionine controls what happens with a methionine at the
// protein N-terminus
type InitiatorMethionine int

// Initiator methionine behaviors. Variable generates both forms.
const (
	Variable InitiatorMethionine = iota
	Retain
	Cleave
)

func (m InitiatorMethionine) String() string {
	switch m {
	case Retain:
		return "retain"
	case Cleave:
		return "cleave"
	}
	return "variable"
}

// ParseInitiatorMethionine converts "retain", "cleave" or "variable"
func ParseInitiatorMethionine(s string) (InitiatorMethionine, error) {
	for _, m := range []InitiatorMethionine{Variable, Retain, Cleave} {
		if s == m.String() {
			return m, nil
		}
	}
	return Variable, fmt.Errorf("unknown initiator methionine behavior %q", s)
}

// Protein is a sequence with its known proteolysis products (e.g. the
// chain that remains after signal peptide removal)
type Protein struct {
	Accession           string
	Sequence            string
	ProteolysisProducts []ProteolysisProduct
}

// ProteolysisProduct is a one-based inclusive interval of a protein.
// Products with an unknown begin or end are ignored by digestion.
type ProteolysisProduct struct {
	Begin *int
	End   *int
	Type  string
}

// DigestionParams holds the digestion settings. A nil length bound
// means no limit.
type DigestionParams struct {
	MaxMissedCleavages  int
	InitiatorMethionine InitiatorMethionine
	MinLength           *int
	MaxLength           *int
}

// Validate checks that the missed cleavage count and length bounds are
// not negative
func (par DigestionParams) Validate() error {
	if par.MaxMissedCleavages < 0 {
		return fmt.Errorf("%w: %d missed cleavages", ErrInvalidDigestionParams, par.MaxMissedCleavages)
	}
	if par.MinLength != nil && *par.MinLength < 0 {
		return fmt.Errorf("%w: minimum length %d", ErrInvalidDigestionParams, *par.MinLength)
	}
	if par.MaxLength != nil && *par.MaxLength < 0 {
		return fmt.Errorf("%w: maximum length %d", ErrInvalidDigestionParams, *par.MaxLength)
	}
	return nil
}

// ProteolyticPeptide is an interval of a protein produced by digestion
type ProteolyticPeptide struct {
	Protein         *Protein
	Start           int // one-based
	End             int // one-based, inclusive
	MissedCleavages int
	Specificity     CleavageSpecificity
	Description     string
}

// BaseSequence returns the residues of the peptide
func (p ProteolyticPeptide) BaseSequence() string {
	return p.Protein.Sequence[p.Start-1 : p.End]
}

// Length is the number of residues
func (p ProteolyticPeptide) Length() int {
	return p.End - p.Start + 1
}

// PreviousResidue returns the residue before the peptide, '-' at the
// protein N-terminus
func (p ProteolyticPeptide) PreviousResidue() byte {
	if p.Start <= 1 {
		return '-'
	}
	return p.Protein.Sequence[p.Start-2]
}

// NextResidue returns the residue after the peptide, '-' at the
// protein C-terminus
func (p ProteolyticPeptide) NextResidue() byte {
	if p.End >= len(p.Protein.Sequence) {
		return '-'
	}
	return p.Protein.Sequence[p.End]
}

func (p ProteolyticPeptide) String() string {
	return fmt.Sprintf("%c.%s.%c", p.PreviousResidue(), p.BaseSequence(), p.NextResidue())
}

// Digest returns the peptides produced by digesting protein with the
// protease. The order follows the enumeration of each digestion mode.
// Negative parameters are ErrInvalidDigestionParams.
func (p *Protease) Digest(protein *Protein, par DigestionParams) ([]ProteolyticPeptide, error) {
	if err := par.Validate(); err != nil {
		return nil, err
	}
	d := digester{
		protein: protein,
		par:     par,
	}
	switch p.Specificity {
	case Full, Semi, SingleN, SingleC, None:
	default:
		return nil, fmt.Errorf("%w: %s has specificity %v", ErrUnsupportedDigestionMode, p.Name, p.Specificity)
	}
	if len(protein.Sequence) == 0 {
		return nil, nil
	}
	switch p.Specificity {
	case SingleN, SingleC:
		d.single(p.Specificity)
	case None:
		d.topDown()
	case Full:
		d.full(p.DigestionSites(protein.Sequence))
	case Semi:
		d.semi(p.DigestionSites(protein.Sequence))
	}
	return d.peptides, nil
}

type digester struct {
	protein  *Protein
	par      DigestionParams
	peptides []ProteolyticPeptide
}

func (d *digester) add(start, end, missed int, spec CleavageSpecificity, desc string) {
	d.peptides = append(d.peptides, ProteolyticPeptide{
		Protein:         d.protein,
		Start:           start,
		End:             end,
		MissedCleavages: missed,
		Specificity:     spec,
		Description:     desc,
	})
}

func (d *digester) okayMin(l int) bool {
	return d.par.MinLength == nil || l >= *d.par.MinLength
}

func (d *digester) okayMax(l int) bool {
	return d.par.MaxLength == nil || l <= *d.par.MaxLength
}

func (d *digester) okayLength(l int) bool {
	return d.okayMin(l) && d.okayMax(l)
}

// retain reports whether the peptide starting after site index i keeps
// its N-terminal residue
func (d *digester) retain(i int) bool {
	return i != 0 || d.par.InitiatorMethionine != Cleave || d.protein.Sequence[0] != 'M'
}

// cleave reports whether a variant without the initiator methionine is
// generated for the peptide starting after site index i
func (d *digester) cleave(i int) bool {
	return i == 0 && d.par.InitiatorMethionine != Retain && d.protein.Sequence[0] == 'M'
}

// products returns the proteolysis products with both bounds inside the
// protein that don't span the whole protein
func (d *digester) products() []ProteolysisProduct {
	n := len(d.protein.Sequence)
	var pp []ProteolysisProduct
	for _, p := range d.protein.ProteolysisProducts {
		if p.Begin == nil || p.End == nil {
			continue
		}
		if *p.Begin < 1 || *p.End > n || *p.Begin > *p.End {
			continue
		}
		if *p.Begin == 1 && *p.End == n {
			continue
		}
		pp = append(pp, p)
	}
	return pp
}

func (d *digester) single(spec CleavageSpecificity) {
	n := len(d.protein.Sequence)
	maxTooBig := d.par.MaxLength == nil || *d.par.MaxLength > math.MaxInt-n
	for start := 1; start <= n; start++ {
		if spec == SingleN && d.okayMin(n-start+1) {
			end := n
			if !maxTooBig {
				end = min(n, start+*d.par.MaxLength)
			}
			d.add(start, end, 0, SingleN, "SingleN")
		}
		if spec == SingleC && d.okayMin(start) {
			begin := 1
			if d.par.MaxLength != nil {
				begin = max(1, start-*d.par.MaxLength)
			}
			d.add(begin, start, 0, SingleC, "SingleC")
		}
	}
}

func (d *digester) topDown() {
	seq := d.protein.Sequence
	n := len(seq)
	if (d.par.InitiatorMethionine != Cleave || seq[0] != 'M') && d.okayLength(n) {
		d.add(1, n, 0, Full, "full")
	}
	if d.par.InitiatorMethionine != Retain && seq[0] == 'M' && d.okayLength(n-1) {
		d.add(2, n, 0, Full, "full:M cleaved")
	}
	for _, p := range d.protein.ProteolysisProducts {
		if p.Begin == nil || p.End == nil || *p.Begin < 1 || *p.End > n {
			continue
		}
		if d.okayLength(*p.End - *p.Begin + 1) {
			d.add(*p.Begin, *p.End, 0, Full, p.Type)
		}
	}
}

func (d *digester) full(sites []int) {
	for mc := 0; mc <= d.par.MaxMissedCleavages; mc++ {
		for i := 0; i < len(sites)-mc-1; i++ {
			end := sites[i+mc+1]
			if d.retain(i) && d.okayLength(end-sites[i]) {
				d.add(sites[i]+1, end, mc, Full, "full")
			}
			if d.cleave(i) && d.okayLength(end-1) {
				d.add(2, end, mc, Full, "full:M cleaved")
			}
		}

		for _, p := range d.products() {
			begin, end := *p.Begin, *p.End
			i := 0
			for i < len(sites) && sites[i] < begin {
				i++
			}
			if i+mc < len(sites) && sites[i+mc] <= end && d.okayLength(sites[i+mc]-begin+1) {
				d.add(begin, sites[i+mc], mc, Full, p.Type+" start")
			}

			for i < len(sites) && sites[i] < end {
				i++
			}
			j := i - mc - 1
			if j >= 0 && j < len(sites) && sites[j]+1 >= begin && d.okayLength(end-sites[j]) {
				d.add(sites[j]+1, end, mc, Full, p.Type+" end")
			}
		}
	}
}

func (d *digester) semi(sites []int) {
	maxMC := d.par.MaxMissedCleavages
	for i := 0; i < len(sites)-maxMC-1; i++ {
		cTerm := sites[i+maxMC+1]
		local := make(map[int]bool, maxMC+1)
		for j := i; j < i+maxMC+1; j++ {
			local[sites[j]] = true
		}
		cleave := d.cleave(i)
		if d.retain(i) {
			d.fixedTermini(sites[i], cTerm, cleave, local)
		}
		if cleave {
			d.fixedTermini(1, cTerm, cleave, local)
		}
	}

	// The loop above stops maxMC sites before the end, the peptides
	// near the protein termini are generated here
	last := len(sites) - 1
	maxIndexSemi := min(maxMC, last)
	for i := 1; i <= maxIndexSemi; i++ {
		nTerm := sites[last-i]
		cTerm := sites[last]
		local := map[int]bool{}
		for j := 1; j < i; j++ {
			local[sites[last-j]] = true
		}
		for j := cTerm - 1; j > nTerm; j-- {
			if d.okayLength(j - nTerm) {
				d.addFullOrSemi(nTerm+1, j, j-nTerm, local[j], "")
			}
		}
	}
	for i := 1; i <= maxIndexSemi; i++ {
		nTerm := sites[0] + 1
		cTerm := sites[i]
		local := map[int]bool{}
		for j := 1; j < i; j++ {
			local[sites[j]] = true
		}
		for j := nTerm + 1; j < cTerm; j++ {
			if d.okayLength(cTerm - j) {
				d.addFullOrSemi(j+1, cTerm, cTerm-j, local[j], "")
			}
		}
	}

	for _, p := range d.products() {
		begin, end := *p.Begin, *p.End
		i := 0
		for i < len(sites) && sites[i] < begin {
			i++
		}
		if i == len(sites) {
			continue
		}
		for j := begin; j < sites[i]; j++ {
			if d.okayLength(j - begin + 1) {
				d.add(begin, j, j-begin, Full, p.Type+" start")
			}
		}
		for i < len(sites) && sites[i] < end {
			i++
		}
		if i == len(sites) {
			continue
		}
		if sites[i] != end {
			i--
		}
		for j := sites[i] + 1; j < end; j++ {
			if d.okayLength(end - j + 1) {
				d.add(j, end, end-j, Full, p.Type+" end")
			}
		}
	}
}

// fixedTermini generates the semi-specific peptides between sites nTerm
// and cTerm. One terminus is fixed to a site, local holds the sites in
// between that make a peptide fully specific.
func (d *digester) fixedTermini(nTerm, cTerm int, cleave bool, local map[int]bool) {
	suffix := ""
	if cleave {
		suffix = ":M cleaved"
	}
	if d.okayLength(cTerm - nTerm) {
		d.add(nTerm+1, cTerm, cTerm-nTerm, Full, "full"+suffix)
	}
	for j := nTerm + 1; j < cTerm; j++ {
		if d.okayLength(cTerm - j) {
			d.addFullOrSemi(j+1, cTerm, cTerm-j, local[j], suffix)
		}
	}
	// fully specific ones were generated with the fixed C-terminus
	for j := nTerm + 1; j < cTerm; j++ {
		if d.okayLength(j-nTerm) && !local[j] {
			d.add(nTerm+1, j, j-nTerm, Semi, "semi"+suffix)
		}
	}
}

func (d *digester) addFullOrSemi(start, end, missed int, full bool, suffix string) {
	if full {
		d.add(start, end, missed, Full, "full"+suffix)
		return
	}
	d.add(start, end, missed, Semi, "semi"+suffix)
}
