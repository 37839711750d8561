// Package ms holds the enumerations shared between the mzML decoder
// and the peptide engines.
package ms

import (
	"fmt"
	"strings"
)

// DissociationType is the fragmentation method used to produce a scan
type DissociationType int

// Dissociation types. AnyActivationType matches every other type when
// neutral losses and diagnostic ions are looked up.
const (
	DissociationUnknown DissociationType = iota
	CID
	ISCID
	HCD
	ETD
	MPD
	ECD
	PQD
	EThCD
	AnyActivationType
	Custom
)

var dissociationNames = map[DissociationType]string{
	DissociationUnknown: "Unknown",
	CID:                 "CID",
	ISCID:               "ISCID",
	HCD:                 "HCD",
	ETD:                 "ETD",
	MPD:                 "MPD",
	ECD:                 "ECD",
	PQD:                 "PQD",
	EThCD:               "EThCD",
	AnyActivationType:   "AnyActivationType",
	Custom:              "Custom",
}

func (d DissociationType) String() string {
	if s, ok := dissociationNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DissociationType(%d)", int(d))
}

// ParseDissociationType converts a name like "HCD" (case insensitive)
// into a DissociationType
func ParseDissociationType(s string) (DissociationType, error) {
	for d, name := range dissociationNames {
		if strings.EqualFold(name, s) {
			return d, nil
		}
	}
	return DissociationUnknown, fmt.Errorf("unknown dissociation type %q", s)
}

// AnalyzerType is the m/z analyzer that acquired a scan
type AnalyzerType int

// Analyzer types
const (
	AnalyzerUnknown AnalyzerType = iota
	Quadrupole
	IonTrap2D
	IonTrap3D
	Orbitrap
	TOF
	FTICR
	Sector
)

func (a AnalyzerType) String() string {
	switch a {
	case Quadrupole:
		return "Quadrupole"
	case IonTrap2D:
		return "IonTrap2D"
	case IonTrap3D:
		return "IonTrap3D"
	case Orbitrap:
		return "Orbitrap"
	case TOF:
		return "TOF"
	case FTICR:
		return "FTICR"
	case Sector:
		return "Sector"
	}
	return "Unknown"
}

// Polarity of the scan. There is no neutral polarity: a scan without
// polarity information is an error.
type Polarity int

// Polarities
const (
	PolarityUnknown Polarity = iota
	Positive
	Negative
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "+"
	case Negative:
		return "-"
	}
	return "?"
}

// Terminus selects a peptide terminus
type Terminus int

// Termini
const (
	Both Terminus = iota
	N
	C
	None
)

func (t Terminus) String() string {
	switch t {
	case N:
		return "N"
	case C:
		return "C"
	case None:
		return "None"
	}
	return "Both"
}

// ParseTerminus converts "N", "C", "Both" or "None" (case insensitive)
func ParseTerminus(s string) (Terminus, error) {
	switch strings.ToLower(s) {
	case "n":
		return N, nil
	case "c":
		return C, nil
	case "both", "":
		return Both, nil
	case "none":
		return None, nil
	}
	return Both, fmt.Errorf("unknown terminus %q", s)
}
