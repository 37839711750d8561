package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/524D/mzdigest/internal/mzml"
)

// scanRow is one line of the scans listing. Values that are not
// available are left out of the JSON.
type scanRow struct {
	Scan            int      `json:"scan"`
	ID              string   `json:"id"`
	MSLevel         int      `json:"msLevel"`
	RetentionTime   float64  `json:"retentionTime"`
	TotalIonCurrent float64  `json:"tic"`
	Peaks           int      `json:"peaks"`
	BasePeakMz      *float64 `json:"basePeakMz,omitempty"`
	PrecursorScan   int      `json:"precursorScan,omitempty"`
	PrecursorMz     *float64 `json:"precursorMz,omitempty"`
	Charge          int      `json:"charge,omitempty"`
	Dissociation    string   `json:"dissociation,omitempty"`
}

type scanStats struct {
	Count     int            `json:"count"`
	PerLevel  map[string]int `json:"perLevel"`
	TICMean   float64        `json:"ticMean"`
	TICStdDev float64        `json:"ticStdDev"`
}

type scanTable struct {
	Scans   []scanRow `json:"scans"`
	Summary scanStats `json:"summary"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// precursorMz prefers the monoisotopic m/z, then the selected ion and
// then the isolation window target
func precursorMz(p *mzml.Precursor) float64 {
	for _, v := range []float64{p.MonoisotopicMz, p.SelectedIonMz, p.IsolationMz} {
		if !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

func newScanRow(s *mzml.Scan) scanRow {
	r := scanRow{
		Scan:            s.OneBasedScanNumber,
		ID:              s.ID,
		MSLevel:         s.MSLevel,
		RetentionTime:   s.RetentionTime,
		TotalIonCurrent: s.TotalIonCurrent,
		Peaks:           len(s.Mz),
	}
	if mz, _, ok := s.BasePeak(); ok {
		r.BasePeakMz = &mz
	}
	if p := s.Precursor; p != nil {
		r.PrecursorScan = p.PrecursorScanNumber
		r.PrecursorMz = finite(precursorMz(p))
		r.Charge = p.Charge
		r.Dissociation = p.Dissociation.String()
	}
	return r
}

func summarize(rows []scanRow) scanStats {
	st := scanStats{Count: len(rows), PerLevel: map[string]int{}}
	tic := make([]float64, len(rows))
	for i, r := range rows {
		tic[i] = r.TotalIonCurrent
		st.PerLevel["ms"+strconv.Itoa(r.MSLevel)]++
	}
	switch len(tic) {
	case 0:
	case 1:
		st.TICMean = tic[0]
	default:
		st.TICMean, st.TICStdDev = stat.MeanStdDev(tic, nil)
	}
	return st
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func writeScanTable(w io.Writer, t scanTable) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "scan\tlevel\trt\ttic\tpeaks\tbase peak\tprecursor\tcharge\tactivation")
	for _, r := range t.Scans {
		fmt.Fprintf(tw, "%d\t%d\t%.4f\t%g\t%d\t%s\t%s\t%d\t%s\n",
			r.Scan, r.MSLevel, r.RetentionTime, r.TotalIonCurrent, r.Peaks,
			optFloat(r.BasePeakMz), optFloat(r.PrecursorMz), r.Charge, r.Dissociation)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "# %d scans, TIC mean %g sd %g\n",
		t.Summary.Count, t.Summary.TICMean, t.Summary.TICStdDev)
	return err
}

func (a *app) scansCmd() *cobra.Command {
	var specRange string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scans <file.mzML>",
		Short: "List the scans of an mzML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.open(args[0])
			if err != nil {
				return err
			}
			scans, err := c.GetAllScans(cmd.Context())
			if err != nil {
				return err
			}
			if specRange != "" {
				first, last, err := parseIntRange(specRange, 1, len(scans))
				if err != nil {
					return fmt.Errorf("--spec %q: %w", specRange, err)
				}
				scans = scans[first-1 : last]
			}
			t := scanTable{Scans: make([]scanRow, len(scans))}
			for i, s := range scans {
				t.Scans[i] = newScanRow(s)
			}
			t.Summary = summarize(t.Scans)
			a.logger.Debug().Int("scans", len(t.Scans)).Msg("listed scans")

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(t)
			}
			return writeScanTable(cmd.OutOrStdout(), t)
		},
	}
	cmd.Flags().StringVar(&specRange, "spec", "", "one-based scan `range`, e.g. 10:20 or 5:")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func (a *app) scanCmd() *cobra.Command {
	var mzRange string
	cmd := &cobra.Command{
		Use:   "scan <file.mzML> <scan>",
		Short: "Print one scan with its peaks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("scan number %q: %w", args[1], err)
			}
			mzMin, mzMax, err := parseFloat64Range(mzRange, 0, math.MaxFloat64)
			if err != nil {
				return fmt.Errorf("--mz %q: %w", mzRange, err)
			}
			c, err := a.open(args[0])
			if err != nil {
				return err
			}
			s, err := c.GetScan(n)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "scan\t%d\nid\t%s\nms level\t%d\nretention time\t%g\n",
				s.OneBasedScanNumber, s.ID, s.MSLevel, s.RetentionTime)
			fmt.Fprintf(w, "polarity\t%v\ncentroid\t%v\nanalyzer\t%v\ntic\t%g\n",
				s.Polarity, s.Centroid, s.Analyzer, s.TotalIonCurrent)
			if s.InjectionTime != nil {
				fmt.Fprintf(w, "injection time\t%g\n", *s.InjectionTime)
			}
			if p := s.Precursor; p != nil {
				fmt.Fprintf(w, "precursor scan\t%d\nprecursor m/z\t%g\ncharge\t%d\nactivation\t%v\n",
					p.PrecursorScanNumber, precursorMz(p), p.Charge, p.Dissociation)
			}
			for i, mz := range s.Mz {
				if mz < mzMin || mz > mzMax {
					continue
				}
				if _, err := fmt.Fprintf(w, "%.6f\t%g\n", mz, s.Intensity[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mzRange, "mz", "", "m/z `range` of the peaks to print, e.g. 400:1200")
	return cmd
}

func (a *app) closestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "closest <file.mzML> <minutes>",
		Short: "Find the scan closest to a retention time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("retention time %q: %w", args[1], err)
			}
			c, err := a.open(args[0])
			if err != nil {
				return err
			}
			n := c.ClosestScanIndexByRetentionTime(rt)
			if n < 1 {
				return fmt.Errorf("%s has no scans", args[0])
			}
			s, err := c.GetScan(n)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%g\n", n, s.RetentionTime)
			return err
		},
	}
}

func (a *app) reencodeCmd() *cobra.Command {
	var compress, indexed bool
	var width int
	cmd := &cobra.Command{
		Use:   "reencode <in.mzML> <out.mzML>",
		Short: "Rewrite an mzML file with different binary encoding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w mzml.Width
			switch width {
			case 32:
				w = mzml.Width32
			case 64:
				w = mzml.Width64
			default:
				return fmt.Errorf("--width must be 32 or 64, not %d", width)
			}
			c, err := a.open(args[0])
			if err != nil {
				return err
			}
			f := c.MzML()
			if err := f.Reencode(compress, w); err != nil {
				return err
			}
			if err := f.AppendSoftwareInfo(progName, progVersion); err != nil {
				return err
			}
			if err := f.AppendDataProcessing(reencodeProcessing); err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if indexed {
				err = f.WriteIndexed(out)
			} else {
				err = f.Write(out)
			}
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			a.logger.Info().Str("file", args[1]).Bool("compressed", compress).
				Int("width", width).Bool("indexed", indexed).Msg("written")
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", true, "zlib compress binary arrays")
	cmd.Flags().IntVar(&width, "width", 64, "float width in bits (32 or 64)")
	cmd.Flags().BoolVar(&indexed, "indexed", false, "write an indexedmzML file")
	return cmd
}
