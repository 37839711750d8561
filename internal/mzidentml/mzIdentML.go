// Package mzidentml reads peptide identifications from mzIdentML files.
package mzidentml

import (
	"encoding/xml"
	"errors"
)

// Types for parsing mzIdentML

// MzIdentML holds only the part of mzIdentML files
// in which we are interested
type MzIdentML struct {
	pepID2Idx map[string]int
	identList []identRef
	content   mzIdentMLContent
}

type identRef struct {
	resultIdx int // Index into SpectrumIdentificationResult
	itemIdx   int // Index into its SpectrumIdentificationItem
}

// Modification is a mass shift of an identified peptide. Location 0 is
// the N-terminus, 1 to length the residues and length+1 the C-terminus.
type Modification struct {
	Location int
	Mass     float64
	Residues string
}

// Identification is one peptide-spectrum match
type Identification struct {
	PepSeq         string
	PepID          string
	Mods           []Modification
	Charge         int
	ExperimentalMz float64
	CalculatedMz   float64
	Rank           int
	PassThreshold  bool
	SpecID         string
	// RetentionTime in minutes, NaN if the file has none
	RetentionTime float64
	Cv            []CVParam
}

type mzIdentMLContent struct {
	XMLName                      xml.Name                       `xml:"MzIdentML"`
	Peptide                      []peptide                      `xml:"SequenceCollection>Peptide"`
	SpectrumIdentificationResult []spectrumIdentificationResult `xml:"DataCollection>AnalysisData>SpectrumIdentificationList>SpectrumIdentificationResult"`
}

type peptide struct {
	ID              string `xml:"id,attr"`
	PeptideSequence string
	Modification    []modification
}

type modification struct {
	Location *int `xml:"location,attr"`
	// Note: monoisotopicMassDelta is optional according the the schema, but
	// appears to be no other way to determine mass shift, as other
	// corresponding cvParam's don't carry this info either
	MonoisotopicMassDelta *float64 `xml:"monoisotopicMassDelta,attr"`
	Residues              string   `xml:"residues,attr"`
}

type spectrumIdentificationResult struct {
	SpectrumID                 string `xml:"spectrumID,attr"`
	SpectrumIdentificationItem []spectrumIdentificationItem
	CvPar                      []CVParam `xml:"cvParam"`
}

type spectrumIdentificationItem struct {
	ChargeState              int       `xml:"chargeState,attr"`
	ExperimentalMassToCharge float64   `xml:"experimentalMassToCharge,attr"`
	CalculatedMassToCharge   *float64  `xml:"calculatedMassToCharge,attr"`
	Rank                     int       `xml:"rank,attr"`
	PassThreshold            bool      `xml:"passThreshold,attr"`
	PeptideRef               string    `xml:"peptide_ref,attr"`
	CvPar                    []CVParam `xml:"cvParam"`
}

// CVParam is a controlled vocabulary term, e.g. a search engine score
type CVParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

var (
	ErrInvalidIdentIndex = errors.New("mzIdentML: invalid identification index")
	ErrUnknownPeptideRef = errors.New("mzIdentML: unknown peptide reference")
	ErrModification      = errors.New("mzIdentML: incomplete modification")
)
