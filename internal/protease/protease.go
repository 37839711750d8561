// Package protease computes the peptides that result from digesting a
// protein with a protease.
package protease

import (
	"errors"
	"fmt"
	"strings"

	"github.com/524D/mzdigest/internal/ms"
)

var (
	// ErrUnsupportedDigestionMode means the protease has a cleavage
	// specificity that digestion can't handle
	ErrUnsupportedDigestionMode = errors.New("protease: unsupported digestion mode")
	// ErrUnknownProtease means a protease name is not defined
	ErrUnknownProtease = errors.New("protease: unknown protease")
	// ErrInvalidDigestionParams means a missed cleavage count or length
	// bound is negative
	ErrInvalidDigestionParams = errors.New("protease: invalid digestion parameters")
)

// CleavageSpecificity determines how strictly peptide termini must
// coincide with cleavage sites
type CleavageSpecificity int

// Cleavage specificities. The zero value is not a valid mode.
const (
	Full CleavageSpecificity = iota + 1
	Semi
	SingleN
	SingleC
	None
)

var specificityNames = map[CleavageSpecificity]string{
	Full:    "Full",
	Semi:    "Semi",
	SingleN: "SingleN",
	SingleC: "SingleC",
	None:    "None",
}

func (c CleavageSpecificity) String() string {
	if s, ok := specificityNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CleavageSpecificity(%d)", int(c))
}

// ParseCleavageSpecificity converts a name like "semi" (case insensitive)
func ParseCleavageSpecificity(s string) (CleavageSpecificity, error) {
	for c, name := range specificityNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDigestionMode, s)
}

// CleavageRule is a motif with the side of the cleavage site it is on.
// A rule with terminus N lies after the site (e.g. Asp-N cleaves before
// D), any other terminus means the motif lies before the site.
type CleavageRule struct {
	Motif    string
	Terminus ms.Terminus
}

// Protease defines where a protein is cut
type Protease struct {
	Name                        string
	SequencesInducingCleavage   []CleavageRule
	SequencesPreventingCleavage []CleavageRule
	Specificity                 CleavageSpecificity
	CleavageTerminus            ms.Terminus
	PsiMsAccession              string
	PsiMsName                   string
	// SiteRegexp describes the cleavage sites, it is not used for digestion
	SiteRegexp string
}

func (p *Protease) String() string {
	return p.Name
}

// DigestionSites returns the positions after which the protease cuts
// seq. Position 0 and len(seq) are always included, the result is
// sorted.
func (p *Protease) DigestionSites(seq string) []int {
	sites := []int{0}
	for i := 0; i < len(seq)-1; i++ {
		for _, r := range p.SequencesInducingCleavage {
			if p.induces(seq, i, r) && !p.prevented(seq, i) {
				sites = append(sites, i+1)
				break
			}
		}
	}
	return append(sites, len(seq))
}

func (p *Protease) induces(seq string, i int, r CleavageRule) bool {
	if r.Terminus != ms.N {
		return motifEndsAt(seq, i, r.Motif)
	}
	return motifStartsAt(seq, i+1, r.Motif)
}

func (p *Protease) prevented(seq string, i int) bool {
	nTermFirst := len(p.SequencesInducingCleavage) > 0 &&
		p.SequencesInducingCleavage[0].Terminus == ms.N
	for _, r := range p.SequencesPreventingCleavage {
		if r.Terminus != ms.N && motifStartsAt(seq, i+1, r.Motif) {
			return true
		}
		if nTermFirst && motifEndsAt(seq, i, r.Motif) {
			return true
		}
	}
	return false
}

// motifEndsAt reports whether motif occupies seq[i-len(motif)+1 : i+1]
func motifEndsAt(seq string, i int, motif string) bool {
	start := i - len(motif) + 1
	return start >= 0 && strings.EqualFold(seq[start:i+1], motif)
}

// motifStartsAt reports whether motif occupies seq[i : i+len(motif)]
func motifStartsAt(seq string, i int, motif string) bool {
	end := i + len(motif)
	return end <= len(seq) && strings.EqualFold(seq[i:end], motif)
}
