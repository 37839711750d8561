package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/524D/mzdigest/internal/ms"
	"github.com/524D/mzdigest/internal/mzidentml"
	"github.com/524D/mzdigest/internal/mzml"
	"github.com/524D/mzdigest/internal/peptide"
)

// scanDissociation returns the activation of the scan with id specID,
// ok is false if the scan or its activation is unknown
func scanDissociation(c *mzml.Container, specID string) (d ms.DissociationType, ok bool) {
	idx, err := c.MzML().ScanIndex(specID)
	if err != nil {
		return ms.DissociationUnknown, false
	}
	s, err := c.GetScan(idx + 1)
	if err != nil || s.Precursor == nil || s.Precursor.Dissociation == ms.DissociationUnknown {
		return ms.DissociationUnknown, false
	}
	return s.Precursor.Dissociation, true
}

func (a *app) idsCmd() *cobra.Command {
	var mzMLFile string
	var all, fragment bool
	var fo fragmentOptions
	cmd := &cobra.Command{
		Use:   "ids <file.mzid>",
		Short: "List the peptide identifications of an mzIdentML file",
		Long: `List the peptide identifications of an mzIdentML file: spectrum id,
rank, charge, modified peptide, monoisotopic mass and retention time.
By default only rank 1 identifications that pass the threshold are
listed. With --mzml the activation of the identified scan is used when
fragmenting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, term, err := fo.parse()
			if err != nil {
				return err
			}
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			ids, err := mzidentml.Read(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			var c *mzml.Container
			if mzMLFile != "" {
				if c, err = a.open(mzMLFile); err != nil {
					return err
				}
			}

			fragmenter := peptide.NewFragmenter(peptide.DefaultDissociationTable())
			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			for i := 0; i < ids.NumIdents(); i++ {
				ident, err := ids.Ident(i)
				if err != nil {
					return err
				}
				if !all && (ident.Rank != 1 || !ident.PassThreshold) {
					continue
				}
				p, err := ident.ModifiedPeptide()
				if err != nil {
					a.logger.Warn().Err(err).Str("spectrum", ident.SpecID).Msg("skipped identification")
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%g\n", ident.SpecID, ident.Rank, ident.Charge,
					p.Sequence(), strconv.FormatFloat(p.MonoisotopicMass(), 'f', -1, 64), ident.RetentionTime)
				if !fragment {
					continue
				}
				scanD := d
				if c != nil {
					if sd, ok := scanDissociation(c, ident.SpecID); ok {
						scanD = sd
					} else {
						a.logger.Debug().Str("spectrum", ident.SpecID).Msg("activation not found, using default")
					}
				}
				ions, err := fragmenter.Fragment(p, scanD, term)
				if err != nil {
					return err
				}
				if err := writeFragments(w, "\t", ions, fo.charge); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mzMLFile, "mzml", "", "mzML `file` with the identified scans")
	cmd.Flags().BoolVar(&all, "all", false, "list all identifications")
	cmd.Flags().BoolVar(&fragment, "fragment", false, "print the fragment ions of every identification")
	fo.addFlags(cmd)
	return cmd
}
