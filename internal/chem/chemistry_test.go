package chem

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFormula(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		want    Formula
		wantErr error
	}{
		{"water", "H2O", Formula{"H": 2, "O": 1}, nil},
		{"explicit counts", "H1O3P1", Formula{"H": 1, "O": 3, "P": 1}, nil},
		{"negative counts", "C-1O-2H-2", Formula{"C": -1, "O": -2, "H": -2}, nil},
		{"two letter element", "C3H5NOSe", Formula{"C": 3, "H": 5, "N": 1, "O": 1, "Se": 1}, nil},
		{"repeated element", "H2OH1", Formula{"H": 3, "O": 1}, nil},
		{"unknown element", "Xx2", nil, ErrUnknownElement},
		{"garbage", "h2o", nil, ErrFormula},
		{"empty", "", nil, ErrFormula},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormula(tt.formula)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseFormula(%q) error = %v, want %v", tt.formula, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormula(%q): error return %v", tt.formula, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFormula(%q) mismatch (-want +got):\n%s", tt.formula, diff)
			}
		})
	}
}

func TestMonoisotopicMass(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"H2O", 18.01056468403},
		{"H3O4P1", 97.97689557339},
		{"H1O3P1", 79.96633088936},
		{"C5H7NO", 97.05276384961},
	}
	for _, tt := range tests {
		got := MustParseFormula(tt.formula).MonoisotopicMass()
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MonoisotopicMass(%s) = %.11f, want %.11f", tt.formula, got, tt.want)
		}
	}
}

func TestResidueMass(t *testing.T) {
	p, err := ResidueMass('P')
	if err != nil {
		t.Fatalf("ResidueMass: error return %v", err)
	}
	if Round(p) != 97.05276385 {
		t.Errorf("ResidueMass(P) = %v, should round to 97.05276385", p)
	}
	_, err = ResidueMass('B')
	if !errors.Is(err, ErrUnknownResidue) {
		t.Errorf("ResidueMass(B): error return %v, should be ErrUnknownResidue", err)
	}

	m, err := SequenceMass("PET")
	if err != nil {
		t.Fatalf("SequenceMass: error return %v", err)
	}
	if math.Abs(m+WaterMass-345.15360009) > 1e-6 {
		t.Errorf("SequenceMass(PET) + water = %v", m+WaterMass)
	}
}

func TestFormulaString(t *testing.T) {
	f := MustParseFormula("O3P1H1")
	if f.String() != "H1O3P1" {
		t.Errorf("String() = %s, should be H1O3P1", f.String())
	}
	g := f.Add(Formula{"H": 2, "O": 1})
	if g.String() != "H3O4P1" {
		t.Errorf("Add: %s, should be H3O4P1", g.String())
	}
}

func TestToMz(t *testing.T) {
	if got := ToMz(1000, 2); math.Abs(got-501.007276466621) > 1e-9 {
		t.Errorf("ToMz(1000, 2) = %v", got)
	}
}
