package mzml

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/net/html/charset"

	"github.com/524D/mzdigest/internal/ms"
)

// Read reads mzML file from an io.Reader. Both indexedmzML and plain
// mzML files are accepted; the index of an indexedmzML file is not used.
func Read(reader io.Reader) (MzML, error) {
	var mzML MzML

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	found := false
	for !found {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return mzML, fmt.Errorf("%w: %v", ErrUnparseableContainer, tokenErr)
		}
		t0, ok := t.(xml.StartElement)
		if !ok {
			continue
		}
		switch t0.Name.Local {
		case "indexedmzML":
			// The mzML element is a child, keep reading tokens
			mzML.indexed = true
		case "mzML":
			if err := d.DecodeElement(&mzML.content, &t0); err != nil {
				return mzML, fmt.Errorf("%w: %v", ErrUnparseableContainer, err)
			}
			found = true
		default:
			if !mzML.indexed {
				return mzML, fmt.Errorf("%w: unexpected root element <%s>",
					ErrUnparseableContainer, t0.Name.Local)
			}
			// Skip e.g. indexList, which precedes mzML in some writers
			if err := d.Skip(); err != nil {
				return mzML, fmt.Errorf("%w: %v", ErrUnparseableContainer, err)
			}
		}
	}
	if !found {
		return mzML, fmt.Errorf("%w: no mzML element", ErrUnparseableContainer)
	}

	err := mzML.traverseScan()
	return mzML, err
}

// NumSpecs returns the number of spectra
func (f *MzML) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

// scanParams returns the cvParams of the first scan of a spectrum
func (f *MzML) scanParams(scanIndex int) []CVParam {
	scans := f.content.Run.SpectrumList.Spectrum[scanIndex].ScanList.Scan
	if len(scans) == 0 {
		return nil
	}
	return scans[0].CvPar
}

// RetentionTime returns the retention time of a spectrum in minutes.
// A missing or negative retention time is an error.
func (f *MzML) RetentionTime(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	rt, found, err := retentionTime(f.scanParams(scanIndex))
	if err != nil {
		return 0.0, &MetadataError{ScanNumber: scanIndex + 1, Field: "retention time", Err: err}
	}
	if !found || rt < 0 {
		return 0.0, missing(scanIndex, "retention time")
	}
	return rt, nil
}

func retentionTime(params []CVParam) (rt float64, found bool, err error) {
	cvParam, ok := findCV(params, cvRetentionTime)
	if !ok {
		return 0, false, nil
	}
	rt, err = strconv.ParseFloat(cvParam.Value, 64)
	if err != nil {
		return 0, true, err
	}
	switch {
	case cvParam.UnitName == "second" ||
		cvParam.UnitAccession == cvScanStartTimeUnitSecond:
		rt /= 60
	case cvParam.UnitAccession == "" ||
		cvParam.UnitAccession == cvScanStartTimeUnitMinute ||
		cvParam.UnitAccession == cvScanStartTimeUnitMinuteMS:
	default:
		return rt, true, ErrUnknownUnit
	}
	return rt, true, nil
}

// IonInjectionTime returns the ion injection time of a spectrum in ms,
// or NaN is not found
func (f *MzML) IonInjectionTime(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	if cvParam, ok := findCV(f.scanParams(scanIndex), cvIonInjectionTime); ok {
		t, err := strconv.ParseFloat(cvParam.Value, 64)
		// Check if the ion injection time is in miliseconds,
		// (always the case currently), otherwise return error
		if cvParam.UnitAccession != cvMillisecond {
			return t, ErrUnknownUnit
		}
		return t, err
	}
	return math.NaN(), nil
}

// ReadScan reads the peaks of a single scan, in the order of the file.
// n is the sequence number of the scan in the mzML file,
// This is not the same as the scan number that is specified
// in the mzML file! To read a scan using the mzML number,
// use ReadScan(f, ScanIndex(f, scanNum))
func (f *MzML) ReadScan(scanIndex int) ([]Peak, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	mz, intens, err := f.readArrays(scanIndex, false)
	if err != nil {
		return nil, err
	}
	p := make([]Peak, len(mz))
	for i := range mz {
		p[i] = Peak{Mz: mz[i], Intens: intens[i]}
	}
	return p, nil
}

// Centroid returns true is the spectrum contains centroid peaks
func (f *MzML) Centroid(scanIndex int) (bool, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return false, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if centroid, ok := SpectrumRepresentation(cvParam.Accession); ok {
			return centroid, nil
		}
	}
	return false, nil
}

// TotalIonCurrent returns the total ion current, or NaN if not found
func (f *MzML) TotalIonCurrent(scanIndex int) (float64, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0.0, ErrInvalidScanIndex
	}
	if cvParam, ok := findCV(f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar, cvTotalIonCurrent); ok {
		tic, err := strconv.ParseFloat(cvParam.Value, 64)
		return tic, err
	}
	return math.NaN(), nil
}

func (f *MzML) requiredTIC(scanIndex int) (float64, error) {
	tic, err := f.TotalIonCurrent(scanIndex)
	if err != nil {
		return 0, &MetadataError{ScanNumber: scanIndex + 1, Field: "total ion current", Err: err}
	}
	if math.IsNaN(tic) {
		return 0, missing(scanIndex, "total ion current")
	}
	return tic, nil
}

// MSLevel returns the MS level of a scan
func (f *MzML) MSLevel(scanIndex int) (int, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, ErrInvalidScanIndex
	}
	if cvParam, ok := findCV(f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar, cvMSLevel); ok {
		msLevel, err := strconv.ParseInt(cvParam.Value, 10, 64)
		return int(msLevel), err
	}
	return 1, nil // If nothing else, guess it's MS1
}

// requiredMSLevel is like MSLevel, but a missing MS level is an error
func (f *MzML) requiredMSLevel(scanIndex int) (int, error) {
	cvParam, ok := findCV(f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar, cvMSLevel)
	if !ok {
		return 0, missing(scanIndex, "MS level")
	}
	msLevel, err := strconv.Atoi(cvParam.Value)
	if err != nil || msLevel < 1 {
		return 0, &MetadataError{ScanNumber: scanIndex + 1, Field: "MS level", Err: err}
	}
	return msLevel, nil
}

// Polarity returns the scan polarity. Unlike most other fields there is
// no default, a scan without polarity is an error.
func (f *MzML) Polarity(scanIndex int) (ms.Polarity, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return ms.PolarityUnknown, ErrInvalidScanIndex
	}
	for _, cvParam := range f.content.Run.SpectrumList.Spectrum[scanIndex].CvPar {
		if p, ok := PolarityFromAccession(cvParam.Accession); ok {
			return p, nil
		}
	}
	return ms.PolarityUnknown, missing(scanIndex, "polarity")
}

// FilterString returns the (Thermo) filter string, or "" if not present
func (f *MzML) FilterString(scanIndex int) (string, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return "", ErrInvalidScanIndex
	}
	cvParam, _ := findCV(f.scanParams(scanIndex), cvFilterString)
	return cvParam.Value, nil
}

// Analyzer determines the mass analyzer of a scan, first from the filter
// string, then from the instrument configuration.
func (f *MzML) Analyzer(scanIndex int) (ms.AnalyzerType, error) {
	filter, err := f.FilterString(scanIndex)
	if err != nil {
		return ms.AnalyzerUnknown, err
	}
	if a, ok := AnalyzerFromFilter(filter); ok {
		return a, nil
	}
	return AnalyzerFromAccession(f.analyzer), nil
}

// ScanWindow returns the lower and upper limit of the first scan window,
// NaN if not present
func (f *MzML) ScanWindow(scanIndex int) (low, high float64, err error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return 0, 0, ErrInvalidScanIndex
	}
	low, high = math.NaN(), math.NaN()
	scans := f.content.Run.SpectrumList.Spectrum[scanIndex].ScanList.Scan
	if len(scans) == 0 || scans[0].ScanWindowList == nil ||
		len(scans[0].ScanWindowList.ScanWindow) == 0 {
		return low, high, nil
	}
	params := scans[0].ScanWindowList.ScanWindow[0].CvPar
	if cvParam, ok := findCV(params, cvScanWindowLowerLimit); ok {
		if low, err = strconv.ParseFloat(cvParam.Value, 64); err != nil {
			return 0, 0, &MetadataError{ScanNumber: scanIndex + 1, Field: "scan window", Err: err}
		}
	}
	if cvParam, ok := findCV(params, cvScanWindowUpperLimit); ok {
		if high, err = strconv.ParseFloat(cvParam.Value, 64); err != nil {
			return 0, 0, &MetadataError{ScanNumber: scanIndex + 1, Field: "scan window", Err: err}
		}
	}
	return low, high, nil
}

// Dissociation returns the activation method of the first precursor
func (f *MzML) Dissociation(scanIndex int) (ms.DissociationType, error) {
	precursors, err := f.GetPrecursors(scanIndex)
	if err != nil {
		return ms.DissociationUnknown, err
	}
	if len(precursors) > 0 {
		for _, cvParam := range precursors[0].Activation.CvPar {
			if d, ok := Dissociation(cvParam.Accession); ok {
				return d, nil
			}
		}
	}
	return ms.DissociationUnknown, missing(scanIndex, "dissociation type")
}

// MSInstruments returns the CV terms of the MS instrument
func (f *MzML) MSInstruments() ([]string, error) {

	type analyzer struct {
		CvPar CVParam `xml:"cvParam"`
	}
	type instrumentConfiguration struct {
		XMLName  xml.Name   `xml:"instrumentConfiguration"`
		Analyzer []analyzer `xml:"componentList>analyzer"`
	}

	var instr []string
	var instrConf instrumentConfiguration

	if f.content.InstrumentConfigurationList == nil {
		return nil, nil
	}
	// Get the raw XML for the instrument configuration
	XML := f.content.InstrumentConfigurationList.InstrumentConfigurationListXML
	// Parse it
	err := xml.Unmarshal(XML, &instrConf)
	if err != nil {
		return nil, err
	}

	// Fill array with CV params of analysers
	for _, conf := range instrConf.Analyzer {
		instr = append(instr, conf.CvPar.Accession)
	}
	return instr, nil
}

// traverseScan traverses all scans,
// collects info of all scans and
// and fills the arrays f.index2id and f.id2Index to make scans accessible
func (f *MzML) traverseScan() error {

	f.index2id = make([]string, f.NumSpecs())
	f.id2Index = make(map[string]int, f.NumSpecs())
	f.msLevels = make([]int, f.NumSpecs())

	for i := range f.content.Run.SpectrumList.Spectrum {
		err := f.addSpecToIndex(i)
		if err != nil {
			return err
		}
	}
	if instr, err := f.MSInstruments(); err == nil && len(instr) > 0 {
		f.analyzer = instr[0]
	}
	return nil
}

func (f *MzML) addSpecToIndex(i int) error {

	if idx := f.content.Run.SpectrumList.Spectrum[i].Index; i != idx {
		return fmt.Errorf("%w: spectrum %d has index %d", ErrUnparseableContainer, i, idx)
	}
	f.index2id[i] = f.content.Run.SpectrumList.Spectrum[i].ID
	f.id2Index[f.content.Run.SpectrumList.Spectrum[i].ID] = i
	// A level that can't be parsed is never a precursor level
	f.msLevels[i], _ = f.MSLevel(i)
	return nil
}

// ScanIndex converts a scan identifier (the string used in the mzML file)
// into an index that is used to access the scans
func (f *MzML) ScanIndex(scanID string) (int, error) {
	if index, ok := f.id2Index[scanID]; ok {
		return index, nil
	}
	return 0, ErrInvalidScanID
}

// ScanID converts a scan index (used to access the scan data) into a scan id
// (used in the mzML file)
func (f *MzML) ScanID(scanIndex int) (string, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		return f.index2id[scanIndex], nil
	}
	return "", ErrInvalidScanIndex
}

// GetPrecursors returns the mzML precursus struct for a given scanIndex
func (f *MzML) GetPrecursors(scanIndex int) ([]XMLprecursor, error) {
	if scanIndex >= 0 && scanIndex < f.NumSpecs() {
		var p []XMLprecursor
		if f.content.Run.SpectrumList.Spectrum[scanIndex].PrecursorList != nil {
			p = f.content.Run.SpectrumList.Spectrum[scanIndex].PrecursorList[0].Precursor
		}
		return p, nil
	}
	return nil, ErrInvalidScanIndex
}

// ClosestScanNumber returns the one-based number of the scan with the
// retention time (in minutes) closest to rt. The scans are walked
// forward and the walk stops at the first scan that is not closer than
// the best one so far, so for equal distances the earlier scan wins.
// If the distance keeps decreasing, the last scan is returned.
func (f *MzML) ClosestScanNumber(rt float64) int {
	bestDiff := math.MaxFloat64
	best := 0
	for i := range f.content.Run.SpectrumList.Spectrum {
		t, found, err := retentionTime(f.scanParams(i))
		if !found || err != nil {
			continue
		}
		diff := math.Abs(t - rt)
		if diff >= bestDiff {
			return best + 1
		}
		bestDiff = diff
		best = i
	}
	return f.NumSpecs()
}
