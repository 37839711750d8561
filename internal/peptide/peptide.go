// Package peptide holds modified peptides and computes their
// theoretical fragment ions.
package peptide

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/524D/mzdigest/internal/chem"
	"github.com/524D/mzdigest/internal/ms"
	"github.com/524D/mzdigest/internal/protease"
)

var (
	// ErrInvalidModificationPosition means a modification key is outside
	// [1, length+2], or a position has more than one modification
	ErrInvalidModificationPosition = errors.New("peptide: invalid modification position")
	// ErrUnknownModification means a sequence refers to an undefined modification
	ErrUnknownModification = errors.New("peptide: unknown modification")
	// ErrSequenceSyntax means a modified sequence can't be parsed
	ErrSequenceSyntax = errors.New("peptide: invalid sequence")
)

// Modification is a mass change at a peptide position. NeutralLosses and
// DiagnosticIons list masses per dissociation type, the entry for
// ms.AnyActivationType is used when the requested type has none.
type Modification struct {
	ID                  string
	Type                string
	Target              string
	LocationRestriction string
	MonoisotopicMass    float64
	Formula             chem.Formula
	NeutralLosses       map[ms.DissociationType][]float64
	DiagnosticIons      map[ms.DissociationType][]float64
}

// NewModification returns a modification with the mass of formula,
// rounded to 9 decimals
func NewModification(id, modType string, formula chem.Formula) *Modification {
	return &Modification{
		ID:                  id,
		Type:                modType,
		LocationRestriction: "Anywhere.",
		MonoisotopicMass:    chem.Round(formula.MonoisotopicMass()),
		Formula:             formula,
	}
}

// Tag is the sequence notation "Type:ID"
func (m *Modification) Tag() string {
	return m.Type + ":" + m.ID
}

func (m *Modification) String() string {
	return m.Tag()
}

func applicable(table map[ms.DissociationType][]float64, d ms.DissociationType) []float64 {
	if v, ok := table[d]; ok {
		return v
	}
	return table[ms.AnyActivationType]
}

// NeutralLossesFor returns the neutral losses for dissociation type d
func (m *Modification) NeutralLossesFor(d ms.DissociationType) []float64 {
	return applicable(m.NeutralLosses, d)
}

// DiagnosticIonsFor returns the diagnostic ion masses for dissociation type d
func (m *Modification) DiagnosticIonsFor(d ms.DissociationType) []float64 {
	return applicable(m.DiagnosticIons, d)
}

// ModifiedPeptide is a peptide with modifications. Mods keys are 1 for
// the N-terminus, r+2 for the residue with zero-based index r and
// length+2 for the C-terminus.
type ModifiedPeptide struct {
	protease.ProteolyticPeptide
	Mods map[int]*Modification
}

// NewModifiedPeptide checks the residues and modification positions of
// a peptide. The mods map is not copied.
func NewModifiedPeptide(base protease.ProteolyticPeptide, mods map[int]*Modification) (*ModifiedPeptide, error) {
	if base.Protein == nil || base.Start < 1 || base.End > len(base.Protein.Sequence) || base.Start > base.End {
		return nil, fmt.Errorf("peptide: invalid interval %d-%d", base.Start, base.End)
	}
	if _, err := chem.SequenceMass(base.BaseSequence()); err != nil {
		return nil, err
	}
	for k, m := range mods {
		if k < 1 || k > base.Length()+2 {
			return nil, fmt.Errorf("%w: %d in peptide of length %d", ErrInvalidModificationPosition, k, base.Length())
		}
		if m == nil {
			return nil, fmt.Errorf("%w: no modification at %d", ErrInvalidModificationPosition, k)
		}
	}
	if mods == nil {
		mods = map[int]*Modification{}
	}
	return &ModifiedPeptide{ProteolyticPeptide: base, Mods: mods}, nil
}

// FromSequence returns an unmodified peptide that is its own protein
func FromSequence(seq string) (*ModifiedPeptide, error) {
	prot := &protease.Protein{Sequence: seq}
	return NewModifiedPeptide(protease.ProteolyticPeptide{
		Protein:     prot,
		Start:       1,
		End:         len(seq),
		Specificity: protease.Full,
		Description: "full",
	}, nil)
}

// modKeys returns the modification positions in ascending order
func (p *ModifiedPeptide) modKeys() []int {
	keys := make([]int, 0, len(p.Mods))
	for k := range p.Mods {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Sequence writes the peptide with modifications as [Type:ID] after the
// residue they are on. An N-terminal modification precedes the first
// residue, a C-terminal one follows the last residue after a '-'.
func (p *ModifiedPeptide) Sequence() string {
	var sb strings.Builder
	if m, ok := p.Mods[1]; ok {
		sb.WriteString("[" + m.Tag() + "]")
	}
	seq := p.BaseSequence()
	for r := 0; r < len(seq); r++ {
		sb.WriteByte(seq[r])
		if m, ok := p.Mods[r+2]; ok {
			sb.WriteString("[" + m.Tag() + "]")
		}
	}
	if m, ok := p.Mods[len(seq)+2]; ok {
		sb.WriteString("-[" + m.Tag() + "]")
	}
	return sb.String()
}

// ParseModifiedPeptide reads the notation written by Sequence. Tags are
// looked up in known by type and id.
func ParseModifiedPeptide(s string, known []*Modification) (*ModifiedPeptide, error) {
	if strings.Contains(s, "|") {
		return nil, fmt.Errorf("%w: ambiguous peptide %q", ErrSequenceSyntax, s)
	}
	byTag := make(map[string]*Modification, len(known))
	for _, m := range known {
		byTag[m.Tag()] = m
	}

	var base strings.Builder
	mods := map[int]*Modification{}
	loc := 1
	for i := 0; i < len(s); i++ {
		c := s[i]
		cTerm := false
		if c == '-' && i+1 < len(s) && s[i+1] == '[' {
			cTerm = true
			i++
			c = s[i]
		}
		if c != '[' {
			if c == ']' || c == '-' {
				return nil, fmt.Errorf("%w: unexpected %q in %q", ErrSequenceSyntax, c, s)
			}
			base.WriteByte(c)
			loc++
			continue
		}
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated modification in %q", ErrSequenceSyntax, s)
		}
		tag := s[i+1 : i+end]
		i += end
		if !strings.Contains(tag, ":") {
			return nil, fmt.Errorf("%w: modification %q has no type", ErrSequenceSyntax, tag)
		}
		m, ok := byTag[tag]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModification, tag)
		}
		key := loc
		if cTerm {
			if i != len(s)-1 {
				return nil, fmt.Errorf("%w: C-terminal modification not at the end of %q", ErrSequenceSyntax, s)
			}
			key = loc + 1
		}
		if _, dup := mods[key]; dup {
			return nil, fmt.Errorf("%w: two modifications at %d in %q", ErrInvalidModificationPosition, key, s)
		}
		mods[key] = m
	}
	if base.Len() == 0 {
		return nil, fmt.Errorf("%w: no residues in %q", ErrSequenceSyntax, s)
	}
	pep, err := FromSequence(base.String())
	if err != nil {
		return nil, err
	}
	pep.Mods = mods
	return pep, nil
}

// MonoisotopicMass of the neutral peptide including modifications,
// rounded to 9 decimals
func (p *ModifiedPeptide) MonoisotopicMass() float64 {
	m := chem.WaterMass
	for _, k := range p.modKeys() {
		m += p.Mods[k].MonoisotopicMass
	}
	rm, err := chem.SequenceMass(p.BaseSequence())
	if err != nil {
		return math.NaN()
	}
	return chem.Round(m + rm)
}

// Localize returns a copy with mass added at the residue with zero-based
// index j. An existing modification there is replaced by one carrying
// both masses.
func (p *ModifiedPeptide) Localize(j int, mass float64) (*ModifiedPeptide, error) {
	if j < 0 || j >= p.Length() {
		return nil, fmt.Errorf("%w: residue %d in peptide of length %d", ErrInvalidModificationPosition, j, p.Length())
	}
	mods := make(map[int]*Modification, len(p.Mods)+1)
	for k, m := range p.Mods {
		mods[k] = m
	}
	total := mass
	if old, ok := mods[j+2]; ok {
		total += old.MonoisotopicMass
	}
	mods[j+2] = &Modification{
		ID:                  strconv.FormatFloat(total, 'f', -1, 64),
		Type:                "Localized",
		LocationRestriction: "Anywhere.",
		MonoisotopicMass:    total,
	}
	return &ModifiedPeptide{ProteolyticPeptide: p.ProteolyticPeptide, Mods: mods}, nil
}

func (p *ModifiedPeptide) String() string {
	return p.Sequence()
}
