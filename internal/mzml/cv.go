package mzml

import (
	"regexp"

	"github.com/524D/mzdigest/internal/ms"
)

// CV terms used in mzML files
const (
	cvMSLevel                   = `MS:1000511`
	cvPrecursorCharge           = `MS:1000041`
	cvSelectedIonMz             = `MS:1000744`
	cvIsolationWindowTargetMz   = `MS:1000827`
	cvIsolationWindowLowerOff   = `MS:1000828`
	cvIsolationWindowUpperOff   = `MS:1000829`
	cvRetentionTime             = `MS:1000016`
	cvIonInjectionTime          = `MS:1000927`
	cvMzArray                   = `MS:1000514`
	cvIntensityArray            = `MS:1000515`
	cvCID                       = `MS:1000133`
	cvISCID                     = `MS:1001880`
	cvHCD                       = `MS:1000422`
	cvETD                       = `MS:1000598`
	cvMPD                       = `MS:1000435`
	cvECD                       = `MS:1000250`
	cvPQD                       = `MS:1000599`
	cvDefaultDissociation       = `MS:1000044`
	cvQuadrupole                = `MS:1000081`
	cvLinearIonTrap             = `MS:1000291`
	cvIonTrap2DAxialEject       = `MS:1000078`
	cvIonTrap2DRadialEject      = `MS:1000083`
	cvIonTrap3D                 = `MS:1000082`
	cvOrbitrap                  = `MS:1000484`
	cvTOF                       = `MS:1000084`
	cvFTICR                     = `MS:1000079`
	cvMagneticSector            = `MS:1000080`
	cvNoCompression             = `MS:1000576`
	cvZlibCompression           = `MS:1000574`
	cv64Bit                     = `MS:1000523`
	cv32Bit                     = `MS:1000521`
	cvNegativePolarity          = `MS:1000129`
	cvPositivePolarity          = `MS:1000130`
	cvFilterString              = `MS:1000512`
	cvCentroidSpectrum          = `MS:1000127`
	cvProfileSpectrum           = `MS:1000128`
	cvPeakIntensity             = `MS:1000042`
	cvTotalIonCurrent           = `MS:1000285`
	cvScanWindowLowerLimit      = `MS:1000501`
	cvScanWindowUpperLimit      = `MS:1000500`
	cvScanStartTimeUnitSecond   = `UO:0000010`
	cvScanStartTimeUnitMinute   = `UO:0000031`
	cvScanStartTimeUnitMinuteMS = `MS:1000038`
	cvMillisecond               = `UO:0000028`
)

// Width is the element width of a binary array
type Width int

// Element widths in bytes
const (
	Width32 Width = 4
	Width64 Width = 8
)

// ArrayRole tells what a binary array contains
type ArrayRole int

// Array roles; arrays other than m/z and intensity are ignored
const (
	ArrayOther ArrayRole = iota
	ArrayMz
	ArrayIntensity
)

// Dissociation resolves an activation CV term. ok is false if the
// accession is not a dissociation type.
func Dissociation(accession string) (d ms.DissociationType, ok bool) {
	switch accession {
	case cvCID:
		return ms.CID, true
	case cvISCID:
		return ms.ISCID, true
	case cvHCD:
		return ms.HCD, true
	case cvETD:
		return ms.ETD, true
	case cvMPD:
		return ms.MPD, true
	case cvECD:
		return ms.ECD, true
	case cvPQD:
		return ms.PQD, true
	case cvDefaultDissociation:
		return ms.DissociationUnknown, true
	}
	return ms.DissociationUnknown, false
}

// DissociationAccession is the inverse of Dissociation
func DissociationAccession(d ms.DissociationType) string {
	switch d {
	case ms.CID:
		return cvCID
	case ms.ISCID:
		return cvISCID
	case ms.HCD:
		return cvHCD
	case ms.ETD:
		return cvETD
	case ms.MPD:
		return cvMPD
	case ms.ECD:
		return cvECD
	case ms.PQD:
		return cvPQD
	}
	return cvDefaultDissociation
}

// AnalyzerFromAccession resolves an instrument analyzer CV term.
// Unknown terms give ms.AnalyzerUnknown.
func AnalyzerFromAccession(accession string) ms.AnalyzerType {
	switch accession {
	case cvQuadrupole:
		return ms.Quadrupole
	case cvLinearIonTrap, cvIonTrap2DAxialEject, cvIonTrap2DRadialEject:
		return ms.IonTrap2D
	case cvIonTrap3D:
		return ms.IonTrap3D
	case cvOrbitrap:
		return ms.Orbitrap
	case cvTOF:
		return ms.TOF
	case cvFTICR:
		return ms.FTICR
	case cvMagneticSector:
		return ms.Sector
	}
	return ms.AnalyzerUnknown
}

var analyzerPrefixRe = regexp.MustCompile(`^[a-zA-Z]*`)

// AnalyzerFromFilter derives the analyzer from the leading word of a
// Thermo-style filter string. ok is false if the prefix is not recognized,
// in which case the instrument configuration should be consulted.
func AnalyzerFromFilter(filter string) (a ms.AnalyzerType, ok bool) {
	switch analyzerPrefixRe.FindString(filter) {
	case "ITMS":
		return ms.IonTrap2D, true
	case "TQMS", "SQMS":
		return ms.AnalyzerUnknown, true
	case "TOFMS":
		return ms.TOF, true
	case "FTMS":
		return ms.Orbitrap, true
	case "Sector":
		return ms.Sector, true
	}
	return ms.AnalyzerUnknown, false
}

// PolarityFromAccession resolves a scan polarity CV term
func PolarityFromAccession(accession string) (p ms.Polarity, ok bool) {
	switch accession {
	case cvNegativePolarity:
		return ms.Negative, true
	case cvPositivePolarity:
		return ms.Positive, true
	}
	return ms.PolarityUnknown, false
}

// CompressionFromAccession resolves a binary data compression CV term.
// MS-Numpress terms give ErrUnsupportedCompression, ok is false for
// terms that are not about compression.
//
// CV Terms for binary data compression
// MS:1000574 zlib compression
// MS:1000576 No Compression
// MS:1002312 MS-Numpress linear prediction compression
// MS:1002313 MS-Numpress positive integer compression
// MS:1002314 MS-Numpress short logged float compression
// MS:1002746 MS-Numpress linear prediction compression followed by zlib compression
// MS:1002747 MS-Numpress positive integer compression followed by zlib compression
// MS:1002748 MS-Numpress short logged float compression followed by zlib compression
func CompressionFromAccession(accession string) (zlib bool, ok bool, err error) {
	switch accession {
	case cvZlibCompression:
		return true, true, nil
	case cvNoCompression:
		return false, true, nil
	case `MS:1002312`, `MS:1002313`, `MS:1002314`,
		`MS:1002746`, `MS:1002747`, `MS:1002748`:
		return false, true, ErrUnsupportedCompression
	}
	return false, false, nil
}

// WidthFromAccession resolves a binary-data-type CV term
func WidthFromAccession(accession string) (w Width, ok bool) {
	switch accession {
	case cv64Bit:
		return Width64, true
	case cv32Bit:
		return Width32, true
	}
	return 0, false
}

// ArrayRoleFromAccession resolves a binary data array type CV term
func ArrayRoleFromAccession(accession string) ArrayRole {
	switch accession {
	case cvMzArray:
		return ArrayMz
	case cvIntensityArray:
		return ArrayIntensity
	}
	return ArrayOther
}

// SpectrumRepresentation resolves centroid/profile CV terms
func SpectrumRepresentation(accession string) (centroid bool, ok bool) {
	switch accession {
	case cvCentroidSpectrum:
		return true, true
	case cvProfileSpectrum:
		return false, true
	}
	return false, false
}
