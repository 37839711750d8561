package mzml

import (
	"errors"
	"testing"

	"github.com/524D/mzdigest/internal/ms"
)

func TestDissociation(t *testing.T) {
	tests := []struct {
		accession string
		want      ms.DissociationType
		ok        bool
	}{
		{"MS:1000133", ms.CID, true},
		{"MS:1001880", ms.ISCID, true},
		{"MS:1000422", ms.HCD, true},
		{"MS:1000598", ms.ETD, true},
		{"MS:1000435", ms.MPD, true},
		{"MS:1000250", ms.ECD, true},
		{"MS:1000599", ms.PQD, true},
		{"MS:1000044", ms.DissociationUnknown, true},
		{"MS:1000045", ms.DissociationUnknown, false},
	}
	for _, tt := range tests {
		got, ok := Dissociation(tt.accession)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Dissociation(%s) = %v, %v, should be %v, %v", tt.accession, got, ok, tt.want, tt.ok)
		}
		if ok && got != ms.DissociationUnknown && DissociationAccession(got) != tt.accession {
			t.Errorf("DissociationAccession(%v) = %s, should be %s", got, DissociationAccession(got), tt.accession)
		}
	}
}

func TestAnalyzer(t *testing.T) {
	accessions := map[string]ms.AnalyzerType{
		"MS:1000081": ms.Quadrupole,
		"MS:1000291": ms.IonTrap2D,
		"MS:1000078": ms.IonTrap2D,
		"MS:1000083": ms.IonTrap2D,
		"MS:1000082": ms.IonTrap3D,
		"MS:1000484": ms.Orbitrap,
		"MS:1000084": ms.TOF,
		"MS:1000079": ms.FTICR,
		"MS:1000080": ms.Sector,
		"MS:1000000": ms.AnalyzerUnknown,
		"":           ms.AnalyzerUnknown,
	}
	for acc, want := range accessions {
		if got := AnalyzerFromAccession(acc); got != want {
			t.Errorf("AnalyzerFromAccession(%q) = %v, should be %v", acc, got, want)
		}
	}

	filters := []struct {
		filter string
		want   ms.AnalyzerType
		ok     bool
	}{
		{"FTMS + p NSI Full ms [350.0000-1800.0000]", ms.Orbitrap, true},
		{"ITMS + c NSI r d Full ms2 445.12@cid35.00", ms.IonTrap2D, true},
		{"TOFMS", ms.TOF, true},
		{"TQMS + c", ms.AnalyzerUnknown, true},
		{"SQMS", ms.AnalyzerUnknown, true},
		{"Sector scan", ms.Sector, true},
		{"ASTMS + p", ms.AnalyzerUnknown, false},
		{"", ms.AnalyzerUnknown, false},
	}
	for _, tt := range filters {
		got, ok := AnalyzerFromFilter(tt.filter)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AnalyzerFromFilter(%q) = %v, %v, should be %v, %v", tt.filter, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPolarityFromAccession(t *testing.T) {
	if p, ok := PolarityFromAccession("MS:1000129"); !ok || p != ms.Negative {
		t.Errorf("PolarityFromAccession(MS:1000129) = %v, %v", p, ok)
	}
	if p, ok := PolarityFromAccession("MS:1000130"); !ok || p != ms.Positive {
		t.Errorf("PolarityFromAccession(MS:1000130) = %v, %v", p, ok)
	}
	if _, ok := PolarityFromAccession("MS:1000511"); ok {
		t.Errorf("PolarityFromAccession(MS:1000511): ok, should not be")
	}
}

func TestCompressionFromAccession(t *testing.T) {
	z, ok, err := CompressionFromAccession("MS:1000574")
	if !z || !ok || err != nil {
		t.Errorf("CompressionFromAccession(zlib) = %v, %v, %v", z, ok, err)
	}
	z, ok, err = CompressionFromAccession("MS:1000576")
	if z || !ok || err != nil {
		t.Errorf("CompressionFromAccession(none) = %v, %v, %v", z, ok, err)
	}
	for _, acc := range []string{"MS:1002312", "MS:1002313", "MS:1002314",
		"MS:1002746", "MS:1002747", "MS:1002748"} {
		_, ok, err := CompressionFromAccession(acc)
		if !ok || !errors.Is(err, ErrUnsupportedCompression) {
			t.Errorf("CompressionFromAccession(%s): %v, %v, should be ErrUnsupportedCompression", acc, ok, err)
		}
	}
	if _, ok, _ := CompressionFromAccession("MS:1000514"); ok {
		t.Errorf("CompressionFromAccession(m/z array): ok, should not be")
	}
}

func TestWidthRoleRepresentation(t *testing.T) {
	if w, ok := WidthFromAccession("MS:1000523"); !ok || w != Width64 {
		t.Errorf("WidthFromAccession(64 bit) = %v, %v", w, ok)
	}
	if w, ok := WidthFromAccession("MS:1000521"); !ok || w != Width32 {
		t.Errorf("WidthFromAccession(32 bit) = %v, %v", w, ok)
	}
	if ArrayRoleFromAccession("MS:1000514") != ArrayMz ||
		ArrayRoleFromAccession("MS:1000515") != ArrayIntensity ||
		ArrayRoleFromAccession("MS:1000595") != ArrayOther {
		t.Errorf("ArrayRoleFromAccession: wrong role")
	}
	if c, ok := SpectrumRepresentation("MS:1000127"); !ok || !c {
		t.Errorf("SpectrumRepresentation(centroid) = %v, %v", c, ok)
	}
	if c, ok := SpectrumRepresentation("MS:1000128"); !ok || c {
		t.Errorf("SpectrumRepresentation(profile) = %v, %v", c, ok)
	}
}
