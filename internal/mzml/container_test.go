package mzml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
)

func writeFixtureFile(t *testing.T, f *MzML, indexed bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mzML")
	w, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create %s error: %v", path, err)
	}
	if indexed {
		err = f.WriteIndexed(w)
	} else {
		err = f.Write(w)
	}
	if err != nil {
		t.Fatalf("Write: error return %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: error return %v", err)
	}
	return path
}

func TestContainer(t *testing.T) {
	for _, indexed := range []bool{false, true} {
		f := buildFixture(t, BuildOptions{Compressed: true})
		path := writeFixtureFile(t, &f, indexed)

		c := NewContainer(path, WithWorkers(3), WithLogger(zerolog.Nop()))
		if err := c.Open(); err != nil {
			t.Fatalf("Open: error return %v", err)
		}
		// A second Open does not read the file again
		if err := os.Remove(path); err != nil {
			t.Fatalf("Remove: error return %v", err)
		}
		if err := c.Open(); err != nil {
			t.Errorf("Open (second call): error return %v", err)
		}
		if c.MzML().Indexed() != indexed {
			t.Errorf("Indexed: %v, should be %v", c.MzML().Indexed(), indexed)
		}
		if c.ScanCount() != 5 {
			t.Fatalf("ScanCount: %d, should be 5", c.ScanCount())
		}

		s, err := c.GetScan(2)
		if err != nil {
			t.Fatalf("GetScan: error return %v", err)
		}
		if s.OneBasedScanNumber != 2 || s.Precursor == nil || s.Precursor.PrecursorScanNumber != 1 {
			t.Errorf("GetScan(2): %+v", s)
		}
		for _, n := range []int{0, 6, -1} {
			if _, err := c.GetScan(n); err != ErrInvalidScanIndex {
				t.Errorf("GetScan(%d): error return %v, should be ErrInvalidScanIndex", n, err)
			}
		}

		scans, err := c.GetAllScans(context.Background())
		if err != nil {
			t.Fatalf("GetAllScans: error return %v", err)
		}
		want := fixtureScans()
		for i := range want {
			want[i].ID = scans[i].ID
		}
		if diff := cmp.Diff(want, scans, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("GetAllScans mismatch (-want +got):\n%s", diff)
		}
		if c.ClosestScanIndexByRetentionTime(3.9) != 4 {
			t.Errorf("ClosestScanIndexByRetentionTime(3.9): %d, should be 4",
				c.ClosestScanIndexByRetentionTime(3.9))
		}
	}
}

func TestGetAllScansError(t *testing.T) {
	f := buildFixture(t, BuildOptions{})
	spec := &f.content.Run.SpectrumList.Spectrum[3]
	spec.CvPar = removeCV(spec.CvPar, cvPositivePolarity)
	path := writeFixtureFile(t, &f, false)

	c, err := Open(path, WithWorkers(2))
	if err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	_, err = c.GetAllScans(context.Background())
	var me *MetadataError
	if !errors.As(err, &me) || me.ScanNumber != 4 || me.Field != "polarity" {
		t.Errorf("GetAllScans: error return %v, should be missing polarity in scan 4", err)
	}
	// Other scans can still be read
	if _, err := c.GetScan(3); err != nil {
		t.Errorf("GetScan(3): error return %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetAllScans(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("GetAllScans: error return %v, should be context.Canceled", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.mzML"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Open: error return %v, should be ErrFileNotFound", err)
	}

	path := filepath.Join(dir, "bad.mzML")
	if err := os.WriteFile(path, []byte("<mzIdentML/>"), 0o644); err != nil {
		t.Fatalf("WriteFile: error return %v", err)
	}
	_, err = Open(path)
	if !errors.Is(err, ErrUnparseableContainer) {
		t.Errorf("Open: error return %v, should be ErrUnparseableContainer", err)
	}
	var ce *ContainerError
	if !errors.As(err, &ce) || ce.Path != path {
		t.Errorf("Open: error %v does not identify the file", err)
	}
}

func TestMS1Scans(t *testing.T) {
	f := buildFixture(t, BuildOptions{})
	path := writeFixtureFile(t, &f, false)
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: error return %v", err)
	}
	got, err := c.MS1Scans()
	if err != nil {
		t.Fatalf("MS1Scans: error return %v", err)
	}
	it := testInjectionTime
	want := []MS1Scan{
		{OneBasedScanNumber: 1, ZeroBasedMS1Index: 0, RetentionTime: 1, TotalIonCurrent: 80, InjectionTime: &it},
		{OneBasedScanNumber: 3, ZeroBasedMS1Index: 1, RetentionTime: 3, TotalIonCurrent: 3, InjectionTime: &it},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MS1Scans mismatch (-want +got):\n%s", diff)
	}
}
