package protease

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/524D/mzdigest/internal/ms"
)

type interval struct {
	Start, End  int
	Specificity CleavageSpecificity
	Description string
}

func intervals(peps []ProteolyticPeptide) []interval {
	var r []interval
	for _, p := range peps {
		r = append(r, interval{p.Start, p.End, p.Specificity, p.Description})
	}
	return r
}

func intPtr(i int) *int { return &i }

func builtin(t *testing.T, name string) *Protease {
	t.Helper()
	reg, err := Builtin()
	require.NoError(t, err)
	p, err := reg.Lookup(name)
	require.NoError(t, err)
	return p
}

func TestDigestionSites(t *testing.T) {
	trypsin := builtin(t, "trypsin")
	assert.Equal(t, []int{0, 6, 7, 8}, trypsin.DigestionSites("MAKPEKRG"))
	assert.Equal(t, []int{0, 6, 7, 8}, trypsin.DigestionSites("makpekrg"))
	assert.Equal(t, []int{0, 3}, trypsin.DigestionSites("PET"))
	// A site at the last residue is the protein end
	assert.Equal(t, []int{0, 3}, trypsin.DigestionSites("PEK"))
	assert.Equal(t, []int{0, 0}, trypsin.DigestionSites(""))

	aspN := builtin(t, "Asp-N")
	assert.Equal(t, []int{0, 2, 4, 5}, aspN.DigestionSites("PEDAD"))

	// For proteases cutting N-terminal of the motif, preventing motifs
	// are matched before the site
	aspN.SequencesPreventingCleavage = []CleavageRule{{Motif: "E", Terminus: ms.N}}
	assert.Equal(t, []int{0, 4, 5}, aspN.DigestionSites("PEDAD"))
}

func TestDigestFull(t *testing.T) {
	trypsin := builtin(t, "trypsin")
	prot := &Protein{Accession: "P1", Sequence: "PET"}
	peps, err := trypsin.Digest(prot, DigestionParams{MinLength: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, peps, 1)
	assert.Equal(t, interval{1, 3, Full, "full"}, intervals(peps)[0])
	assert.Equal(t, "PET", peps[0].BaseSequence())
	assert.Equal(t, 0, peps[0].MissedCleavages)

	peps, err = trypsin.Digest(prot, DigestionParams{MinLength: intPtr(4)})
	require.NoError(t, err)
	assert.Empty(t, peps)
}

func TestDigestInitiatorMethionine(t *testing.T) {
	trypsin := builtin(t, "trypsin")
	prot := &Protein{Accession: "P2", Sequence: "MAKPEKRG"}
	par := DigestionParams{MaxMissedCleavages: 1, MinLength: intPtr(2)}

	peps, err := trypsin.Digest(prot, par)
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 6, Full, "full"},
		{2, 6, Full, "full:M cleaved"},
		{1, 7, Full, "full"},
		{2, 7, Full, "full:M cleaved"},
		{7, 8, Full, "full"},
	}, intervals(peps))
	assert.Equal(t, 1, peps[2].MissedCleavages)

	par.InitiatorMethionine = Retain
	peps, err = trypsin.Digest(prot, par)
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 6, Full, "full"},
		{1, 7, Full, "full"},
		{7, 8, Full, "full"},
	}, intervals(peps))

	par.InitiatorMethionine = Cleave
	peps, err = trypsin.Digest(prot, par)
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{2, 6, Full, "full:M cleaved"},
		{2, 7, Full, "full:M cleaved"},
		{7, 8, Full, "full"},
	}, intervals(peps))
}

func TestDigestFullProteolysisProducts(t *testing.T) {
	trypsin := builtin(t, "trypsin")
	prot := &Protein{Sequence: "PEPKAR", ProteolysisProducts: []ProteolysisProduct{
		{Begin: intPtr(2), End: intPtr(5), Type: "chain"},
		{Begin: nil, End: intPtr(5), Type: "ignored"},
		{Begin: intPtr(1), End: intPtr(6), Type: "whole protein"},
	}}
	peps, err := trypsin.Digest(prot, DigestionParams{})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 4, Full, "full"},
		{5, 6, Full, "full"},
		{2, 4, Full, "chain start"},
		{5, 5, Full, "chain end"},
	}, intervals(peps))
}

func TestDigestSemi(t *testing.T) {
	semi := builtin(t, "semi-trypsin")
	prot := &Protein{Sequence: "PEPKAR"}

	peps, err := semi.Digest(prot, DigestionParams{})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 4, Full, "full"},
		{2, 4, Semi, "semi"},
		{3, 4, Semi, "semi"},
		{4, 4, Semi, "semi"},
		{1, 1, Semi, "semi"},
		{1, 2, Semi, "semi"},
		{1, 3, Semi, "semi"},
		{5, 6, Full, "full"},
		{6, 6, Semi, "semi"},
		{5, 5, Semi, "semi"},
	}, intervals(peps))

	// With a missed cleavage the walk stops one site early, the protein
	// termini are covered by the fringe loops
	peps, err = semi.Digest(prot, DigestionParams{MaxMissedCleavages: 1})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 6, Full, "full"},
		{2, 6, Semi, "semi"},
		{3, 6, Semi, "semi"},
		{4, 6, Semi, "semi"},
		{5, 6, Full, "full"},
		{6, 6, Semi, "semi"},
		{1, 1, Semi, "semi"},
		{1, 2, Semi, "semi"},
		{1, 3, Semi, "semi"},
		{1, 5, Semi, "semi"},
		{5, 5, Semi, "semi"},
		{3, 4, Semi, "semi"},
		{4, 4, Semi, "semi"},
	}, intervals(peps))

	peps, err = semi.Digest(prot, DigestionParams{MinLength: intPtr(3), MaxLength: intPtr(3)})
	require.NoError(t, err)
	for _, p := range peps {
		assert.Equal(t, 3, p.Length(), "peptide %v", p)
	}
}

func TestDigestSemiProteolysisProducts(t *testing.T) {
	semi := builtin(t, "semi-trypsin")
	prot := &Protein{Sequence: "PEPKAR", ProteolysisProducts: []ProteolysisProduct{
		{Begin: intPtr(2), End: intPtr(5), Type: "chain"},
	}}
	peps, err := semi.Digest(prot, DigestionParams{})
	require.NoError(t, err)
	require.Len(t, peps, 12)
	assert.Equal(t, []interval{
		{2, 2, Full, "chain start"},
		{2, 3, Full, "chain start"},
	}, intervals(peps[10:]))
}

func TestDigestSemiMethionine(t *testing.T) {
	semi := builtin(t, "semi-trypsin")
	prot := &Protein{Sequence: "MAAKR"}
	peps, err := semi.Digest(prot, DigestionParams{MinLength: intPtr(2)})
	require.NoError(t, err)
	assert.Contains(t, intervals(peps), interval{2, 4, Full, "full:M cleaved"})
	assert.Contains(t, intervals(peps), interval{2, 3, Semi, "semi:M cleaved"})
	for _, p := range peps {
		assert.GreaterOrEqual(t, p.Length(), 2)
	}

	peps, err = semi.Digest(prot, DigestionParams{MinLength: intPtr(2), InitiatorMethionine: Retain})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 4, Full, "full"},
		{2, 4, Semi, "semi"},
		{3, 4, Semi, "semi"},
		{1, 2, Semi, "semi"},
		{1, 3, Semi, "semi"},
	}, intervals(peps))
}

func TestDigestSingle(t *testing.T) {
	prot := &Protein{Sequence: "PEPKAR"}
	singleN := builtin(t, "singleN")
	singleC := builtin(t, "singleC")

	peps, err := singleN.Digest(prot, DigestionParams{MinLength: intPtr(4), MaxLength: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 3, SingleN, "SingleN"},
		{2, 4, SingleN, "SingleN"},
		{3, 5, SingleN, "SingleN"},
	}, intervals(peps))

	// An unlimited maximum length must not overflow
	for _, maxLen := range []*int{nil, intPtr(math.MaxInt)} {
		peps, err = singleN.Digest(prot, DigestionParams{MinLength: intPtr(4), MaxLength: maxLen})
		require.NoError(t, err)
		assert.Equal(t, []interval{
			{1, 6, SingleN, "SingleN"},
			{2, 6, SingleN, "SingleN"},
			{3, 6, SingleN, "SingleN"},
		}, intervals(peps))
	}

	peps, err = singleC.Digest(prot, DigestionParams{MinLength: intPtr(4), MaxLength: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{2, 4, SingleC, "SingleC"},
		{3, 5, SingleC, "SingleC"},
		{4, 6, SingleC, "SingleC"},
	}, intervals(peps))

	peps, err = singleC.Digest(prot, DigestionParams{MinLength: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 5, SingleC, "SingleC"},
		{1, 6, SingleC, "SingleC"},
	}, intervals(peps))
}

func TestDigestTopDown(t *testing.T) {
	topDown := builtin(t, "top-down")
	prot := &Protein{Sequence: "MPEPKAR", ProteolysisProducts: []ProteolysisProduct{
		{Begin: intPtr(2), End: intPtr(4), Type: "peptide"},
	}}

	peps, err := topDown.Digest(prot, DigestionParams{})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{1, 7, Full, "full"},
		{2, 7, Full, "full:M cleaved"},
		{2, 4, Full, "peptide"},
	}, intervals(peps))

	peps, err = topDown.Digest(prot, DigestionParams{InitiatorMethionine: Retain, MinLength: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, []interval{{1, 7, Full, "full"}}, intervals(peps))

	peps, err = topDown.Digest(prot, DigestionParams{InitiatorMethionine: Cleave})
	require.NoError(t, err)
	assert.Equal(t, []interval{
		{2, 7, Full, "full:M cleaved"},
		{2, 4, Full, "peptide"},
	}, intervals(peps))
}

func TestDigestUnsupportedMode(t *testing.T) {
	prot := &Protein{Sequence: "PEPKAR"}
	for _, spec := range []CleavageSpecificity{0, CleavageSpecificity(42)} {
		p := &Protease{Name: "broken", Specificity: spec}
		peps, err := p.Digest(prot, DigestionParams{})
		assert.ErrorIs(t, err, ErrUnsupportedDigestionMode)
		assert.ErrorContains(t, err, "broken")
		assert.Nil(t, peps)
	}

	_, err := Definition{Name: "odd", Specificity: "sometimes"}.Protease()
	assert.ErrorIs(t, err, ErrUnsupportedDigestionMode)
}

func TestDigestInvalidParams(t *testing.T) {
	prot := &Protein{Sequence: "PEKTIDE"}
	tests := map[string]DigestionParams{
		"missed":     {MaxMissedCleavages: -1},
		"min length": {MinLength: intPtr(-1)},
		"max length": {MaxLength: intPtr(-3)},
	}
	for _, name := range []string{"trypsin", "semi-trypsin", "singleN", "top-down"} {
		p := builtin(t, name)
		for what, par := range tests {
			peps, err := p.Digest(prot, par)
			assert.ErrorIs(t, err, ErrInvalidDigestionParams, "%s with negative %s", name, what)
			assert.Nil(t, peps)
		}
	}

	par := DigestionParams{MinLength: intPtr(0), MaxLength: intPtr(0)}
	assert.NoError(t, par.Validate())
}

func TestProteolyticPeptide(t *testing.T) {
	prot := &Protein{Sequence: "PEPKAR"}
	p := ProteolyticPeptide{Protein: prot, Start: 5, End: 6}
	assert.Equal(t, "AR", p.BaseSequence())
	assert.Equal(t, 2, p.Length())
	assert.Equal(t, byte('K'), p.PreviousResidue())
	assert.Equal(t, byte('-'), p.NextResidue())
	assert.Equal(t, "K.AR.-", p.String())

	p = ProteolyticPeptide{Protein: prot, Start: 1, End: 4}
	assert.Equal(t, "-.PEPK.A", p.String())
}

func TestRegistry(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, []string{"Arg-C", "Asp-N", "Lys-C", "chymotrypsin", "semi-trypsin",
		"singleC", "singleN", "top-down", "trypsin"}, reg.Names())

	p, err := reg.Lookup("TRYPSIN")
	require.NoError(t, err)
	assert.Equal(t, "MS:1001251", p.PsiMsAccession)
	assert.Equal(t, ms.C, p.CleavageTerminus)
	assert.Equal(t, Full, p.Specificity)

	_, err = reg.Lookup("pepsin")
	assert.ErrorIs(t, err, ErrUnknownProtease)

	custom, err := NewRegistry([]Definition{{
		Name:        "trypsin",
		Inducing:    []RuleDefinition{{Motif: "K", Terminus: "C"}},
		Specificity: "Full",
	}})
	require.NoError(t, err)
	merged := reg.Merge(custom)
	p, err = merged.Lookup("trypsin")
	require.NoError(t, err)
	assert.Len(t, p.SequencesInducingCleavage, 1)
	assert.Len(t, merged, len(reg))

	_, err = NewRegistry([]Definition{{Name: "bad", Specificity: "full",
		Inducing: []RuleDefinition{{Motif: "K", Terminus: "middle"}}}})
	assert.Error(t, err)
}
