package mzml

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/524D/mzdigest/internal/ms"
)

// BuildOptions control how Build encodes the binary arrays
type BuildOptions struct {
	Compressed bool
	// Width defaults to Width64
	Width Width
	// AnalyzerAccession is written as the analyzer of the instrument
	// configuration, e.g. "MS:1000484" for an orbitrap
	AnalyzerAccession string
}

const buildCvList = `
  <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" URI="https://raw.githubusercontent.com/HUPO-PSI/psi-ms-CV/master/psi-ms.obo"/>
  <cv id="UO" fullName="Unit Ontology" URI="https://raw.githubusercontent.com/bio-ontology-research-group/unit-ontology/master/unit.obo"/>
 `

const buildFileContent = `
  <fileContent>
   <cvParam cvRef="MS" accession="MS:1000580" name="MSn spectrum"/>
  </fileContent>
 `

// Build creates an mzML file from scans, e.g. to write simulated data.
// Fields that are NaN, zero or empty are left out of the file. The
// Index and OneBasedScanNumber of the scans are ignored, scans are
// numbered in slice order.
//
// Isolation window offsets are written as -width/2 and +width/2.
func Build(scans []*Scan, opts BuildOptions) (MzML, error) {
	var f MzML
	if opts.Width == 0 {
		opts.Width = Width64
	}

	f.content.XMLName = xml.Name{Space: mzMLNamespace, Local: "mzML"}
	f.content.CvList = cvList{Count: 2, CvListXML: []byte(buildCvList)}
	f.content.FileDescription.FileDescriptionXML = buildFileContent
	f.content.SoftwareList = &softwareList{}
	f.AppendSoftwareInfo("mzdigest", "")
	f.content.InstrumentConfigurationList = &instrumentConfigurationList{
		Count: 1,
		InstrumentConfigurationListXML: []byte(fmt.Sprintf(`
  <instrumentConfiguration id="IC1">
   <componentList count="1">
    <analyzer order="1">%s</analyzer>
   </componentList>
  </instrumentConfiguration>
 `, analyzerParam(opts.AnalyzerAccession))),
	}
	f.AppendDataProcessing(DataProcessing{
		ID: "mzdigest_processing",
		ProcessingMeth: []ProcessingMethod{{
			Count:       1,
			SoftwareRef: "mzdigest",
			CvPar: []CVParam{{CvRef: "MS", Accession: "MS:1000544",
				Name: "Conversion to mzML"}},
		}},
	})
	f.content.Run.ID = "run1"
	f.content.Run.DefaultInstrumentConfigurationRef = "IC1"
	f.content.Run.SpectrumList.DefaultDataProcessingRef = "mzdigest_processing"

	for i, s := range scans {
		spec, err := buildSpectrum(i, s, opts)
		if err != nil {
			return f, err
		}
		f.content.Run.SpectrumList.Spectrum = append(f.content.Run.SpectrumList.Spectrum, spec)
	}
	f.content.Run.SpectrumList.Count = len(scans)

	err := f.traverseScan()
	return f, err
}

func analyzerParam(accession string) string {
	if accession == "" {
		return ""
	}
	return fmt.Sprintf(`<cvParam cvRef="MS" accession="%s" name="%s"/>`,
		accession, AnalyzerFromAccession(accession))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func buildSpectrum(i int, s *Scan, opts BuildOptions) (spectrum, error) {
	spec := spectrum{
		Index:              i,
		ID:                 s.ID,
		DefaultArrayLength: int64(len(s.Mz)),
	}
	if spec.ID == "" {
		spec.ID = fmt.Sprintf("scan=%d", i+1)
	}

	if s.MSLevel > 0 {
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvMSLevel,
			Name: "ms level", Value: strconv.Itoa(s.MSLevel)})
	}
	if s.Centroid {
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvCentroidSpectrum,
			Name: "centroid spectrum"})
	} else {
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvProfileSpectrum,
			Name: "profile spectrum"})
	}
	switch s.Polarity {
	case ms.Positive:
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvPositivePolarity,
			Name: "positive scan"})
	case ms.Negative:
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvNegativePolarity,
			Name: "negative scan"})
	}
	if !math.IsNaN(s.TotalIonCurrent) {
		spec.CvPar = append(spec.CvPar, CVParam{CvRef: "MS", Accession: cvTotalIonCurrent,
			Name: "total ion current", Value: formatFloat(s.TotalIonCurrent)})
	}

	var sc scan
	if !math.IsNaN(s.RetentionTime) {
		sc.CvPar = append(sc.CvPar, CVParam{CvRef: "MS", Accession: cvRetentionTime,
			Name: "scan start time", Value: formatFloat(s.RetentionTime),
			UnitCvRef: "UO", UnitAccession: cvScanStartTimeUnitMinute, UnitName: "minute"})
	}
	if s.FilterString != "" {
		sc.CvPar = append(sc.CvPar, CVParam{CvRef: "MS", Accession: cvFilterString,
			Name: "filter string", Value: s.FilterString})
	}
	if s.InjectionTime != nil {
		sc.CvPar = append(sc.CvPar, CVParam{CvRef: "MS", Accession: cvIonInjectionTime,
			Name: "ion injection time", Value: formatFloat(*s.InjectionTime),
			UnitCvRef: "UO", UnitAccession: cvMillisecond, UnitName: "millisecond"})
	}
	if !math.IsNaN(s.ScanWindowLow) || !math.IsNaN(s.ScanWindowHigh) {
		var w scanWindow
		if !math.IsNaN(s.ScanWindowLow) {
			w.CvPar = append(w.CvPar, CVParam{CvRef: "MS", Accession: cvScanWindowLowerLimit,
				Name: "scan window lower limit", Value: formatFloat(s.ScanWindowLow),
				UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		}
		if !math.IsNaN(s.ScanWindowHigh) {
			w.CvPar = append(w.CvPar, CVParam{CvRef: "MS", Accession: cvScanWindowUpperLimit,
				Name: "scan window upper limit", Value: formatFloat(s.ScanWindowHigh),
				UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		}
		sc.ScanWindowList = &scanWindowList{Count: 1, ScanWindow: []scanWindow{w}}
	}
	spec.ScanList = scanList{
		Count: 1,
		CvPar: []CVParam{{CvRef: "MS", Accession: "MS:1000795", Name: "no combination"}},
		Scan:  []scan{sc},
	}

	if s.Precursor != nil {
		spec.PrecursorList = []precursorList{{
			Count:     1,
			Precursor: []XMLprecursor{buildPrecursor(s.Precursor)},
		}}
	}

	if len(s.Mz) != len(s.Intensity) {
		return spec, &PayloadError{ScanNumber: i + 1, Reason: "m/z and intensity length differ"}
	}
	arrays := []struct {
		role   CVParam
		values []float64
	}{
		{CVParam{CvRef: "MS", Accession: cvMzArray, Name: "m/z array",
			UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"}, s.Mz},
		{CVParam{CvRef: "MS", Accession: cvIntensityArray, Name: "intensity array",
			UnitCvRef: "MS", UnitAccession: "MS:1000131", UnitName: "number of detector counts"}, s.Intensity},
	}
	spec.BinaryDataArrayList.Count = len(arrays)
	for _, a := range arrays {
		b := binaryDataArray{
			CvPar: []CVParam{widthParam(opts.Width), compressionParam(opts.Compressed), a.role},
		}
		if err := encodeArray(&b, a.values); err != nil {
			return spec, err
		}
		spec.BinaryDataArrayList.BinaryDataArray = append(spec.BinaryDataArrayList.BinaryDataArray, b)
	}
	return spec, nil
}

func buildPrecursor(p *Precursor) XMLprecursor {
	var xp XMLprecursor
	xp.SpectrumRef = p.SpectrumRef
	if !math.IsNaN(p.IsolationMz) || !math.IsNaN(p.IsolationWidth) {
		w := &isolationWindow{}
		if !math.IsNaN(p.IsolationMz) {
			w.CvPar = append(w.CvPar, CVParam{CvRef: "MS", Accession: cvIsolationWindowTargetMz,
				Name: "isolation window target m/z", Value: formatFloat(p.IsolationMz),
				UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		}
		if !math.IsNaN(p.IsolationWidth) {
			w.CvPar = append(w.CvPar,
				CVParam{CvRef: "MS", Accession: cvIsolationWindowLowerOff,
					Name: "isolation window lower offset", Value: formatFloat(-p.IsolationWidth / 2),
					UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"},
				CVParam{CvRef: "MS", Accession: cvIsolationWindowUpperOff,
					Name: "isolation window upper offset", Value: formatFloat(p.IsolationWidth / 2),
					UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		}
		xp.IsolationWindow = w
	}
	if !math.IsNaN(p.SelectedIonMz) {
		var ion selectedIon
		ion.CvPar = append(ion.CvPar, CVParam{CvRef: "MS", Accession: cvSelectedIonMz,
			Name: "selected ion m/z", Value: formatFloat(p.SelectedIonMz),
			UnitCvRef: "MS", UnitAccession: "MS:1000040", UnitName: "m/z"})
		if p.Charge != 0 {
			ion.CvPar = append(ion.CvPar, CVParam{CvRef: "MS", Accession: cvPrecursorCharge,
				Name: "charge state", Value: strconv.Itoa(p.Charge)})
		}
		if !math.IsNaN(p.SelectedIonIntensity) {
			ion.CvPar = append(ion.CvPar, CVParam{CvRef: "MS", Accession: cvPeakIntensity,
				Name: "peak intensity", Value: formatFloat(p.SelectedIonIntensity),
				UnitCvRef: "MS", UnitAccession: "MS:1000131", UnitName: "number of detector counts"})
		}
		xp.SelectedIonList = selectedIonList{Count: 1, SelectedIon: []selectedIon{ion}}
	}
	xp.Activation.CvPar = []CVParam{{CvRef: "MS",
		Accession: DissociationAccession(p.Dissociation),
		Name:      p.Dissociation.String()}}
	return xp
}
