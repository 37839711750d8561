package mzidentml

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/net/html/charset"

	peppkg "github.com/524D/mzdigest/internal/peptide"
)

// Read reads mzIdentML content from io.reader
func Read(reader io.Reader) (MzIdentML, error) {
	var mzIdentML MzIdentML
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	err := d.Decode(&mzIdentML.content)
	if err != nil {
		return mzIdentML, err
	}
	mzIdentML.buildPepID2Index()
	mzIdentML.buildIdentList()
	return mzIdentML, nil
}

func (m *MzIdentML) buildPepID2Index() {
	m.pepID2Idx = make(map[string]int, len(m.content.Peptide))
	for i, p := range m.content.Peptide {
		m.pepID2Idx[p.ID] = i
	}
}

func (m *MzIdentML) buildIdentList() {
	for i, res := range m.content.SpectrumIdentificationResult {
		for j := range res.SpectrumIdentificationItem {
			m.identList = append(m.identList, identRef{resultIdx: i, itemIdx: j})
		}
	}
}

// NumIdents returns the total number of identifications in the mzIdentML file
// Note that for some spectra, multiple identifications may be present
// The identifications can be accessed using the Ident() method, which takes
// an index as argument. The index runs from 0 to NumIdents()-1
func (m *MzIdentML) NumIdents() int {
	return len(m.identList)
}

// Ident returns a spectrum identification from the mzIdentML file.
// Parameter i is the index of the identification to return. The index runs
// from 0 to NumIdents()-1
func (m *MzIdentML) Ident(i int) (Identification, error) {
	var ident Identification

	if i < 0 || i >= len(m.identList) {
		return ident, ErrInvalidIdentIndex
	}
	res := &m.content.SpectrumIdentificationResult[m.identList[i].resultIdx]
	item := &res.SpectrumIdentificationItem[m.identList[i].itemIdx]

	pepIdx, ok := m.pepID2Idx[item.PeptideRef]
	if !ok {
		return ident, fmt.Errorf("%w: %q", ErrUnknownPeptideRef, item.PeptideRef)
	}
	pep := &m.content.Peptide[pepIdx]
	ident.PepSeq = pep.PeptideSequence
	ident.PepID = pep.ID
	for _, mod := range pep.Modification {
		if mod.Location == nil || mod.MonoisotopicMassDelta == nil {
			return ident, fmt.Errorf("%w in peptide %s", ErrModification, pep.ID)
		}
		ident.Mods = append(ident.Mods, Modification{
			Location: *mod.Location,
			Mass:     *mod.MonoisotopicMassDelta,
			Residues: mod.Residues,
		})
	}
	ident.Charge = item.ChargeState
	ident.ExperimentalMz = item.ExperimentalMassToCharge
	ident.CalculatedMz = math.NaN()
	if item.CalculatedMassToCharge != nil {
		ident.CalculatedMz = *item.CalculatedMassToCharge
	}
	ident.Rank = item.Rank
	ident.PassThreshold = item.PassThreshold
	ident.SpecID = res.SpectrumID

	rt, err := retentionTime(res.CvPar)
	if err != nil {
		return ident, err
	}
	ident.RetentionTime = rt
	// Collect CV terms/values for the identification, the scores are in there
	ident.Cv = append(ident.Cv, item.CvPar...)
	return ident, nil
}

// retentionTime returns the retention time in minutes, NaN if there is none.
// There are multiple CV terms that can be used to report the
// retention time. In order of decreasing preference we use:
// 1. MS:1000016 - scan start time
// 2. MS:1000894 - retention time
// 3. MS:1000826 - elution time
// 4. MS:1001114 - retention time (deprecated)
func retentionTime(params []CVParam) (float64, error) {
	prio := map[string]int{
		"MS:1000016": 1,
		"MS:1000894": 2,
		"MS:1000826": 3,
		"MS:1001114": 4,
	}
	best := math.MaxInt32
	rt := math.NaN()
	for _, cv := range params {
		p, ok := prio[cv.Accession]
		if !ok || p >= best {
			continue
		}
		v, err := strconv.ParseFloat(cv.Value, 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("mzIdentML: %s: %w", cv.Name, err)
		}
		// Minutes unless the unit says otherwise, seconds are assumed
		// for a missing unit
		if cv.UnitAccession != "UO:0000031" && cv.UnitAccession != "MS:1000038" {
			v /= 60
		}
		best = p
		rt = v
	}
	return rt, nil
}

// ModifiedPeptide returns the identified peptide with its modifications.
// Modifications have type "Localized" and their mass as ID. Several
// modifications at one location are combined.
func (id Identification) ModifiedPeptide() (*peppkg.ModifiedPeptide, error) {
	p, err := peppkg.FromSequence(id.PepSeq)
	if err != nil {
		return nil, fmt.Errorf("peptide %s: %w", id.PepID, err)
	}
	mods := make(map[int]*peppkg.Modification, len(id.Mods))
	for _, m := range id.Mods {
		key := m.Location + 1
		total := m.Mass
		if old, ok := mods[key]; ok {
			total += old.MonoisotopicMass
		}
		mods[key] = &peppkg.Modification{
			ID:                  strconv.FormatFloat(total, 'f', -1, 64),
			Type:                "Localized",
			Target:              m.Residues,
			LocationRestriction: "Anywhere.",
			MonoisotopicMass:    total,
		}
	}
	mp, err := peppkg.NewModifiedPeptide(p.ProteolyticPeptide, mods)
	if err != nil {
		return nil, fmt.Errorf("peptide %s: %w", id.PepID, err)
	}
	return mp, nil
}
