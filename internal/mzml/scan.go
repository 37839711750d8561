package mzml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/524D/mzdigest/internal/ms"
)

// Scan is the decoded form of one spectrum. It is built from the parsed
// file on each access and never modified afterwards.
type Scan struct {
	OneBasedScanNumber int
	Index              int
	ID                 string
	MSLevel            int
	// RetentionTime in minutes
	RetentionTime   float64
	TotalIonCurrent float64
	// InjectionTime in ms, nil if not present
	InjectionTime *float64
	Polarity      ms.Polarity
	Centroid      bool
	// Mz is sorted ascending, Intensity has the same length
	Mz             []float64
	Intensity      []float64
	ScanWindowLow  float64
	ScanWindowHigh float64
	FilterString   string
	Analyzer       ms.AnalyzerType
	// Precursor is set for MS level > 1
	Precursor *Precursor
}

// Precursor holds the precursor information of an MSn scan.
// Fields that are not present in the file are NaN, or 0 for the charge.
type Precursor struct {
	// PrecursorScanNumber is one-based, 0 if it can't be determined
	PrecursorScanNumber   int
	SpectrumRef           string
	IsolationMz           float64
	IsolationWidth        float64
	Charge                int
	SelectedIonMz         float64
	SelectedIonIntensity  float64
	Dissociation          ms.DissociationType
	MonoisotopicMz        float64
	MonoisotopicIntensity float64
}

// Peaks returns the scan data as a slice of peaks
func (s *Scan) Peaks() []Peak {
	p := make([]Peak, len(s.Mz))
	for i := range s.Mz {
		p[i] = Peak{Mz: s.Mz[i], Intens: s.Intensity[i]}
	}
	return p
}

// BasePeak returns m/z and intensity of the most intense peak.
// ok is false for an empty scan.
func (s *Scan) BasePeak() (mz, intensity float64, ok bool) {
	if len(s.Intensity) == 0 {
		return math.NaN(), math.NaN(), false
	}
	i := floats.MaxIdx(s.Intensity)
	return s.Mz[i], s.Intensity[i], true
}

// SumIntensity returns the sum of all peak intensities
func (s *Scan) SumIntensity() float64 {
	return floats.Sum(s.Intensity)
}

// MzRange returns the lowest and highest m/z of the scan.
// Both are NaN for an empty scan.
func (s *Scan) MzRange() (first, last float64) {
	if len(s.Mz) == 0 {
		return math.NaN(), math.NaN()
	}
	return s.Mz[0], s.Mz[len(s.Mz)-1]
}

// extractScan builds the Scan for a zero-based index. Required fields that
// are missing give a *MetadataError, bad array data a *PayloadError.
func (f *MzML) extractScan(scanIndex int) (*Scan, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	s := Scan{
		OneBasedScanNumber: scanIndex + 1,
		Index:              scanIndex,
		ID:                 spec.ID,
	}
	var err error
	if s.MSLevel, err = f.requiredMSLevel(scanIndex); err != nil {
		return nil, err
	}
	if s.RetentionTime, err = f.RetentionTime(scanIndex); err != nil {
		return nil, err
	}
	if s.TotalIonCurrent, err = f.requiredTIC(scanIndex); err != nil {
		return nil, err
	}
	if s.Polarity, err = f.Polarity(scanIndex); err != nil {
		return nil, err
	}
	it, err := f.IonInjectionTime(scanIndex)
	if err != nil {
		return nil, &MetadataError{ScanNumber: scanIndex + 1, Field: "injection time", Err: err}
	}
	if !math.IsNaN(it) {
		s.InjectionTime = &it
	}
	s.Centroid, _ = f.Centroid(scanIndex)
	s.FilterString, _ = f.FilterString(scanIndex)
	s.Analyzer, _ = f.Analyzer(scanIndex)
	if s.ScanWindowLow, s.ScanWindowHigh, err = f.ScanWindow(scanIndex); err != nil {
		return nil, err
	}

	if s.Mz, s.Intensity, err = f.readArrays(scanIndex, true); err != nil {
		return nil, err
	}

	if s.MSLevel > 1 {
		if s.Precursor, err = f.precursor(scanIndex, s.MSLevel); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// readArrays decodes the m/z and intensity arrays of a scan. With sortMz
// set, the peaks are put in ascending m/z order.
func (f *MzML) readArrays(scanIndex int, sortMz bool) (mz, intens []float64, err error) {
	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		role, v, err := decodeArray(&spec.BinaryDataArrayList.BinaryDataArray[i])
		if err != nil {
			var pe *PayloadError
			if errors.As(err, &pe) {
				pe.ScanNumber = scanIndex + 1
				return nil, nil, pe
			}
			return nil, nil, fmt.Errorf("scan %d: %w", scanIndex+1, err)
		}
		switch role {
		case ArrayMz:
			mz = v
		case ArrayIntensity:
			intens = v
		}
	}
	if mz == nil {
		return nil, nil, missing(scanIndex, "m/z array")
	}
	if intens == nil {
		return nil, nil, missing(scanIndex, "intensity array")
	}
	if len(mz) != len(intens) {
		return nil, nil, &PayloadError{
			ScanNumber: scanIndex + 1,
			Reason: fmt.Sprintf("m/z array has %d values, intensity array %d",
				len(mz), len(intens)),
		}
	}
	if sortMz && !sort.Float64sAreSorted(mz) {
		inds := make([]int, len(mz))
		floats.Argsort(mz, inds)
		sorted := make([]float64, len(intens))
		for i, j := range inds {
			sorted[i] = intens[j]
		}
		intens = sorted
	}
	return mz, intens, nil
}

// precursor extracts the precursor fields of an MSn scan
func (f *MzML) precursor(scanIndex int, msLevel int) (*Precursor, error) {
	p := Precursor{
		IsolationMz:           math.NaN(),
		IsolationWidth:        math.NaN(),
		SelectedIonMz:         math.NaN(),
		SelectedIonIntensity:  math.NaN(),
		MonoisotopicMz:        math.NaN(),
		MonoisotopicIntensity: math.NaN(),
	}
	precursors, _ := f.GetPrecursors(scanIndex)
	if len(precursors) > 0 {
		xp := &precursors[0]
		p.SpectrumRef = xp.SpectrumRef

		if xp.IsolationWindow != nil {
			var err error
			if cv, ok := findCV(xp.IsolationWindow.CvPar, cvIsolationWindowTargetMz); ok {
				if p.IsolationMz, err = strconv.ParseFloat(cv.Value, 64); err != nil {
					return nil, &MetadataError{ScanNumber: scanIndex + 1, Field: "isolation m/z", Err: err}
				}
			}
			lower, lok := findCV(xp.IsolationWindow.CvPar, cvIsolationWindowLowerOff)
			upper, uok := findCV(xp.IsolationWindow.CvPar, cvIsolationWindowUpperOff)
			if !lok || !uok {
				return nil, missing(scanIndex, "isolation width")
			}
			lo, err1 := strconv.ParseFloat(lower.Value, 64)
			hi, err2 := strconv.ParseFloat(upper.Value, 64)
			if err1 != nil || err2 != nil {
				return nil, missing(scanIndex, "isolation width")
			}
			p.IsolationWidth = hi - lo
		}

		if len(xp.SelectedIonList.SelectedIon) > 0 {
			params := xp.SelectedIonList.SelectedIon[0].CvPar
			cv, ok := findCV(params, cvSelectedIonMz)
			if !ok {
				return nil, missing(scanIndex, "selected ion m/z")
			}
			mz, err := strconv.ParseFloat(cv.Value, 64)
			if err != nil {
				return nil, &MetadataError{ScanNumber: scanIndex + 1, Field: "selected ion m/z", Err: err}
			}
			p.SelectedIonMz = mz
			p.MonoisotopicMz = mz
			if cv, ok := findCV(params, cvPrecursorCharge); ok {
				z, err := strconv.Atoi(cv.Value)
				if err != nil {
					return nil, &MetadataError{ScanNumber: scanIndex + 1, Field: "charge", Err: err}
				}
				p.Charge = z
			}
			if cv, ok := findCV(params, cvPeakIntensity); ok {
				if in, err := strconv.ParseFloat(cv.Value, 64); err == nil {
					p.SelectedIonIntensity = in
					p.MonoisotopicIntensity = in
				}
			}
		}

		d, err := f.Dissociation(scanIndex)
		if err != nil {
			return nil, err
		}
		p.Dissociation = d
	}
	p.PrecursorScanNumber = f.precursorScanNumber(scanIndex, msLevel, p.SpectrumRef)
	return &p, nil
}

// precursorScanNumber resolves the one-based number of the precursor scan.
// If spectrumRef is absent or unknown, the closest preceding scan with
// MS level msLevel-1 is used. It returns 0 if nothing is found.
func (f *MzML) precursorScanNumber(scanIndex int, msLevel int, spectrumRef string) int {
	if spectrumRef != "" {
		if i, ok := f.id2Index[spectrumRef]; ok {
			return i + 1
		}
	}
	for i := scanIndex - 1; i >= 0; i-- {
		if f.msLevels[i] == msLevel-1 {
			return i + 1
		}
	}
	return 0
}
