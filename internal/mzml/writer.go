package mzml

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>
`

// Write writes the file as plain mzML
func (f *MzML) Write(writer io.Writer) error {
	if _, err := io.WriteString(writer, xmlHeader); err != nil {
		return err
	}
	return f.writeContent(writer)
}

func (f *MzML) writeContent(writer io.Writer) error {
	enc := xml.NewEncoder(writer)
	// FIXME: We want readable XML, with XML tags starting on a new line.
	// GO's Encode doesn't always insert newlines, and using
	// Indent only works if the indent string is not empty,
	// resuling in a single space indent.
	enc.Indent(` `, `  `)
	var content mzMLContentWrite

	content.XMLName = f.content.XMLName
	if content.XMLName.Local == "" {
		content.XMLName = xml.Name{Space: mzMLNamespace, Local: "mzML"}
	}
	content.Sl1 = mzMLNamespace + " http://psidev.info/files/ms/mzML/xsd/mzML1.1.0.xsd"
	content.Version = "1.1.0"
	content.Sl2 = "http://www.w3.org/2001/XMLSchema-instance"
	content.CvList = f.content.CvList
	content.FileDescription = f.content.FileDescription
	content.ReferenceableParamGroupList = f.content.ReferenceableParamGroupList
	content.SoftwareList = f.content.SoftwareList
	content.InstrumentConfigurationList = f.content.InstrumentConfigurationList
	content.DataProcessingList = f.content.DataProcessingList
	content.Run = f.content.Run

	if err := enc.Encode(&content); err != nil {
		return err
	}
	return enc.Flush()
}

const mzMLNamespace = "http://psi.hupo.org/ms/mzml"

var spectrumTag = []byte("<spectrum ")

// WriteIndexed writes the file wrapped in an indexedmzML element, with
// the byte offsets of all spectra and a SHA-1 checksum
func (f *MzML) WriteIndexed(writer io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<indexedmzML xmlns="` + mzMLNamespace + `"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` +
		` xsi:schemaLocation="` + mzMLNamespace +
		` http://psidev.info/files/ms/mzML/xsd/mzML1.1.2_idx.xsd">` + "\n")
	start := buf.Len()
	if err := f.writeContent(&buf); err != nil {
		return err
	}

	// The encoder writes spectra in order, so the n-th <spectrum tag
	// belongs to the n-th spectrum
	offsets := make([]int, 0, f.NumSpecs())
	pos := start
	for len(offsets) < f.NumSpecs() {
		i := bytes.Index(buf.Bytes()[pos:], spectrumTag)
		if i < 0 {
			return fmt.Errorf("MzML: spectrum %d not found in output", len(offsets))
		}
		offsets = append(offsets, pos+i)
		pos += i + len(spectrumTag)
	}

	buf.WriteString("\n")
	indexListOffset := buf.Len()
	buf.WriteString(` <indexList count="1">` + "\n")
	buf.WriteString(`  <index name="spectrum">` + "\n")
	for i, off := range offsets {
		fmt.Fprintf(&buf, `   <offset idRef="%s">%d</offset>`+"\n",
			xmlEscape(f.content.Run.SpectrumList.Spectrum[i].ID), off)
	}
	buf.WriteString("  </index>\n")
	buf.WriteString(" </indexList>\n")
	buf.WriteString(" <indexListOffset>" + strconv.Itoa(indexListOffset) + "</indexListOffset>\n")
	buf.WriteString(" <fileChecksum>")
	sum := sha1.Sum(buf.Bytes())
	buf.WriteString(hex.EncodeToString(sum[:]))
	buf.WriteString("</fileChecksum>\n")
	buf.WriteString("</indexedmzML>\n")

	w := bufio.NewWriter(writer)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return w.Flush()
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	// EscapeText only fails if the writer fails
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// AppendSoftwareInfo adds info to the SoftwareList tag of the mzML file
func (f *MzML) AppendSoftwareInfo(id string, version string) error {
	var sw software

	sw.ID = id
	sw.Version = version
	if f.content.SoftwareList == nil {
		f.content.SoftwareList = &softwareList{}
	}
	f.content.SoftwareList.Count++
	f.content.SoftwareList.Software = append(f.content.SoftwareList.Software, sw)
	return nil
}

// AppendDataProcessing adds info to the DataProcessing tag of the mzML file
func (f *MzML) AppendDataProcessing(proc DataProcessing) error {
	if f.content.DataProcessingList == nil {
		f.content.DataProcessingList = &dataProcessingList{}
	}
	f.content.DataProcessingList.Count++
	f.content.DataProcessingList.DataProcessingd = append(f.content.DataProcessingList.DataProcessingd, proc)
	return nil
}

// UpdateScan sets the mz/intensity info of a scan
func (f *MzML) UpdateScan(scanIndex int, p []Peak,
	updateMz bool, updateIntens bool) error {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return ErrInvalidScanIndex
	}
	// Workaround for msConvert:
	// Insert a dummy peak if there is none, otherwise msConvert generates an error
	if len(p) == 0 {
		var peak Peak
		p = append(p, peak)
	}
	mz := make([]float64, len(p))
	intens := make([]float64, len(p))
	for i, peak := range p {
		mz[i] = peak.Mz
		intens[i] = peak.Intens
	}

	spec := &f.content.Run.SpectrumList.Spectrum[scanIndex]
	spec.DefaultArrayLength = int64(len(p))
	for i := range spec.BinaryDataArrayList.BinaryDataArray {
		b := &spec.BinaryDataArrayList.BinaryDataArray[i]
		_, _, role, err := binaryDataPars(b)
		if err != nil {
			return err
		}
		// We are only interested in mz and intensity
		if role == ArrayMz && updateMz {
			err = encodeArray(b, mz)
		} else if role == ArrayIntensity && updateIntens {
			err = encodeArray(b, intens)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reencode converts the m/z and intensity arrays of all scans to the
// given compression and width
func (f *MzML) Reencode(compressed bool, width Width) error {
	for s := range f.content.Run.SpectrumList.Spectrum {
		spec := &f.content.Run.SpectrumList.Spectrum[s]
		for i := range spec.BinaryDataArrayList.BinaryDataArray {
			b := &spec.BinaryDataArrayList.BinaryDataArray[i]
			role, v, err := decodeArray(b)
			if err != nil {
				return fmt.Errorf("scan %d: %w", s+1, err)
			}
			if role == ArrayOther {
				continue
			}
			b.CvPar = setArrayFormat(b.CvPar, compressed, width)
			if err := encodeArray(b, v); err != nil {
				return fmt.Errorf("scan %d: %w", s+1, err)
			}
		}
	}
	return nil
}

// setArrayFormat replaces the compression and width terms of a
// binaryDataArray
func setArrayFormat(params []CVParam, compressed bool, width Width) []CVParam {
	res := make([]CVParam, 0, len(params)+2)
	for _, cv := range params {
		if _, ok, _ := CompressionFromAccession(cv.Accession); ok {
			continue
		}
		if _, ok := WidthFromAccession(cv.Accession); ok {
			continue
		}
		res = append(res, cv)
	}
	return append(res, widthParam(width), compressionParam(compressed))
}

func widthParam(width Width) CVParam {
	if width == Width64 {
		return CVParam{CvRef: "MS", Accession: cv64Bit, Name: "64-bit float"}
	}
	return CVParam{CvRef: "MS", Accession: cv32Bit, Name: "32-bit float"}
}

func compressionParam(compressed bool) CVParam {
	if compressed {
		return CVParam{CvRef: "MS", Accession: cvZlibCompression, Name: "zlib compression"}
	}
	return CVParam{CvRef: "MS", Accession: cvNoCompression, Name: "no compression"}
}
