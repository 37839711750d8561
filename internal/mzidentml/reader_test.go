package mzidentml

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const testIdents = `<?xml version="1.0" encoding="ISO-8859-1"?>
<MzIdentML id="test" version="1.1.0" xmlns="http://psidev.info/psi/pi/mzIdentML/1.1">
 <SequenceCollection>
  <Peptide id="pep_PES">
   <PeptideSequence>PESK</PeptideSequence>
   <Modification location="0" monoisotopicMassDelta="42.010565" residues="."/>
   <Modification location="3" monoisotopicMassDelta="79.966331" residues="S"/>
  </Peptide>
  <Peptide id="pep_PET">
   <PeptideSequence>PET</PeptideSequence>
   <Modification location="4" monoisotopicMassDelta="-0.984016"/>
   <Modification location="4" monoisotopicMassDelta="1"/>
  </Peptide>
 </SequenceCollection>
 <DataCollection>
  <AnalysisData>
   <SpectrumIdentificationList id="SIL_1">
    <SpectrumIdentificationResult id="SIR_1" spectrumID="scan=2" spectraData_ref="SD_1">
     <SpectrumIdentificationItem id="SII_1_1" chargeState="2" experimentalMassToCharge="265.09" calculatedMassToCharge="265.0868" peptide_ref="pep_PES" rank="1" passThreshold="true">
      <cvParam cvRef="PSI-MS" accession="MS:1002049" name="MS-GF:RawScore" value="42"/>
     </SpectrumIdentificationItem>
     <SpectrumIdentificationItem id="SII_1_2" chargeState="2" experimentalMassToCharge="265.09" peptide_ref="pep_PET" rank="2" passThreshold="false"/>
     <cvParam cvRef="PSI-MS" accession="MS:1000894" name="retention time" value="180" unitAccession="UO:0000010"/>
     <cvParam cvRef="PSI-MS" accession="MS:1000016" name="scan start time" value="2.5" unitAccession="UO:0000031"/>
    </SpectrumIdentificationResult>
    <SpectrumIdentificationResult id="SIR_2" spectrumID="scan=4" spectraData_ref="SD_1">
     <SpectrumIdentificationItem id="SII_2_1" chargeState="1" experimentalMassToCharge="346.16" peptide_ref="pep_missing" rank="1" passThreshold="true"/>
    </SpectrumIdentificationResult>
   </SpectrumIdentificationList>
  </AnalysisData>
 </DataCollection>
</MzIdentML>
`

func readTestIdents(t *testing.T) MzIdentML {
	t.Helper()
	f, err := Read(strings.NewReader(testIdents))
	if err != nil {
		t.Fatalf("Read: error return %v", err)
	}
	return f
}

func TestIdent(t *testing.T) {
	f := readTestIdents(t)
	if n := f.NumIdents(); n != 3 {
		t.Fatalf("NumIdents is %d, expected 3", n)
	}

	ident, err := f.Ident(0)
	if err != nil {
		t.Fatalf("Ident: error return %v", err)
	}
	want := Identification{
		PepSeq: "PESK",
		PepID:  "pep_PES",
		Mods: []Modification{
			{Location: 0, Mass: 42.010565, Residues: "."},
			{Location: 3, Mass: 79.966331, Residues: "S"},
		},
		Charge:         2,
		ExperimentalMz: 265.09,
		CalculatedMz:   265.0868,
		Rank:           1,
		PassThreshold:  true,
		SpecID:         "scan=2",
		RetentionTime:  2.5,
		Cv:             []CVParam{{Accession: "MS:1002049", Name: "MS-GF:RawScore", Value: "42"}},
	}
	if diff := cmp.Diff(want, ident); diff != "" {
		t.Errorf("Ident(0) mismatch (-want +got):\n%s", diff)
	}

	ident, err = f.Ident(1)
	if err != nil {
		t.Fatalf("Ident: error return %v", err)
	}
	if !math.IsNaN(ident.CalculatedMz) {
		t.Errorf("CalculatedMz is %g, expected NaN", ident.CalculatedMz)
	}
	if ident.PassThreshold || ident.Rank != 2 || ident.SpecID != "scan=2" {
		t.Errorf("Ident(1): unexpected %+v", ident)
	}

	if _, err := f.Ident(2); !errors.Is(err, ErrUnknownPeptideRef) {
		t.Errorf("Ident(2): error %v, expected %v", err, ErrUnknownPeptideRef)
	}
	for _, i := range []int{-1, 3} {
		if _, err := f.Ident(i); !errors.Is(err, ErrInvalidIdentIndex) {
			t.Errorf("Ident(%d): error %v, expected %v", i, err, ErrInvalidIdentIndex)
		}
	}
}

func TestRetentionTime(t *testing.T) {
	tests := []struct {
		params []CVParam
		want   float64
	}{
		{nil, math.NaN()},
		{[]CVParam{{Accession: "MS:1000894", Value: "120", UnitAccession: "UO:0000010"}}, 2},
		{[]CVParam{{Accession: "MS:1000826", Value: "90"}}, 1.5},
		{[]CVParam{
			{Accession: "MS:1001114", Value: "3", UnitAccession: "UO:0000031"},
			{Accession: "MS:1000894", Value: "4", UnitAccession: "UO:0000031"},
		}, 4},
		{[]CVParam{
			{Accession: "MS:1000016", Value: "5", UnitAccession: "UO:0000031"},
			{Accession: "MS:1000894", Value: "6", UnitAccession: "UO:0000031"},
		}, 5},
	}
	for _, tt := range tests {
		got, err := retentionTime(tt.params)
		if err != nil {
			t.Errorf("retentionTime(%v): error return %v", tt.params, err)
		}
		if !cmp.Equal(tt.want, got, cmpopts.EquateNaNs()) {
			t.Errorf("retentionTime(%v) is %g, expected %g", tt.params, got, tt.want)
		}
	}
	if _, err := retentionTime([]CVParam{{Accession: "MS:1000016", Value: "soon"}}); err == nil {
		t.Errorf("retentionTime with invalid value: no error")
	}
}

func TestModifiedPeptide(t *testing.T) {
	f := readTestIdents(t)

	ident, _ := f.Ident(0)
	p, err := ident.ModifiedPeptide()
	if err != nil {
		t.Fatalf("ModifiedPeptide: error return %v", err)
	}
	if s := p.Sequence(); s != "[Localized:42.010565]PES[Localized:79.966331]K" {
		t.Errorf("Sequence is %s", s)
	}

	// two modifications on the C-terminus are combined
	ident, _ = f.Ident(1)
	p, err = ident.ModifiedPeptide()
	if err != nil {
		t.Fatalf("ModifiedPeptide: error return %v", err)
	}
	if len(p.Mods) != 1 {
		t.Fatalf("Mods: %v", p.Mods)
	}
	if m := p.Mods[5].MonoisotopicMass; math.Abs(m-0.015984) > 1e-9 {
		t.Errorf("C-terminal modification mass is %g, expected 0.015984", m)
	}

	ident.Mods = append(ident.Mods, Modification{Location: 7, Mass: 1})
	if _, err := ident.ModifiedPeptide(); err == nil {
		t.Errorf("ModifiedPeptide with location 7 in PET: no error")
	}
}
