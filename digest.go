package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/524D/mzdigest/internal/config"
	"github.com/524D/mzdigest/internal/ms"
	"github.com/524D/mzdigest/internal/peptide"
	"github.com/524D/mzdigest/internal/protease"
)

var errFasta = errors.New("invalid FASTA")

// readFasta reads proteins from FASTA. The accession is the first word
// of the header line, sequence lines are upper cased and joined.
func readFasta(r io.Reader) ([]protease.Protein, error) {
	var proteins []protease.Protein
	var seq strings.Builder
	flush := func() {
		if len(proteins) > 0 {
			proteins[len(proteins)-1].Sequence = seq.String()
		}
		seq.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNr := 0
	for sc.Scan() {
		lineNr++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || line[0] == ';':
		case line[0] == '>':
			flush()
			acc := ""
			if f := strings.Fields(line[1:]); len(f) > 0 {
				acc = f[0]
			}
			proteins = append(proteins, protease.Protein{Accession: acc})
		case len(proteins) == 0:
			return nil, fmt.Errorf("%w: line %d: sequence before the first header", errFasta, lineNr)
		default:
			seq.WriteString(strings.ToUpper(strings.TrimSuffix(line, "*")))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return proteins, nil
}

// fragmentOptions are the flags shared by the commands that fragment
type fragmentOptions struct {
	dissociation string
	terminus     string
	charge       int
}

func (o *fragmentOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dissociation, "dissociation", "HCD", "dissociation `type`, e.g. HCD, ETD or EThCD")
	cmd.Flags().StringVar(&o.terminus, "terminus", "both", "fragment series of terminus N, C or both")
	cmd.Flags().IntVar(&o.charge, "charge", 1, "highest fragment charge to print")
}

func (o *fragmentOptions) parse() (ms.DissociationType, ms.Terminus, error) {
	d, err := ms.ParseDissociationType(o.dissociation)
	if err != nil {
		return d, ms.Both, err
	}
	term, err := ms.ParseTerminus(o.terminus)
	if err != nil {
		return d, term, err
	}
	if o.charge < 1 {
		return d, term, fmt.Errorf("--charge must be at least 1")
	}
	return d, term, nil
}

// writeFragments prints ions as "<label>\t<charge>\t<m/z>", once per
// charge up to maxCharge
func writeFragments(w io.Writer, prefix string, ions []peptide.FragmentIon, maxCharge int) error {
	for _, ion := range ions {
		for z := 1; z <= maxCharge; z++ {
			ion.Charge = z
			if _, err := fmt.Fprintf(w, "%s%s\t%d\t%.6f\n", prefix, ion, z, ion.Mz()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) digestCmd() *cobra.Command {
	var proteaseName, methionine string
	var missed, minLength, maxLength int
	var fragment, list bool
	var fo fragmentOptions
	cmd := &cobra.Command{
		Use:   "digest <proteins.fasta>",
		Short: "Digest the proteins of a FASTA file",
		Long: `Digest the proteins of a FASTA file and print one line per peptide:
accession, peptide with flanking residues, missed cleavages, origin and
monoisotopic mass. Defaults come from the MZDIGEST_ settings.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := config.LoadProteases(a.cfg.ProteaseFile())
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			if list {
				for _, name := range reg.Names() {
					p, _ := reg.Lookup(name)
					fmt.Fprintf(w, "%s\t%v\t%s\n", p.Name, p.Specificity, p.PsiMsAccession)
				}
				return nil
			}

			if proteaseName == "" {
				proteaseName = a.cfg.DefaultProtease()
			}
			prot, err := reg.Lookup(proteaseName)
			if err != nil {
				return err
			}
			par := a.cfg.DigestionParams()
			flags := cmd.Flags()
			if flags.Changed("missed") {
				par.MaxMissedCleavages = missed
			}
			if flags.Changed("min") {
				par.MinLength = &minLength
			}
			if flags.Changed("max") {
				par.MaxLength = nil
				if maxLength != 0 {
					par.MaxLength = &maxLength
				}
			}
			if flags.Changed("methionine") {
				if par.InitiatorMethionine, err = protease.ParseInitiatorMethionine(strings.ToLower(methionine)); err != nil {
					return err
				}
			}
			if err := par.Validate(); err != nil {
				return err
			}
			d, term, err := fo.parse()
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			proteins, err := readFasta(in)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			results := make([][]protease.ProteolyticPeptide, len(proteins))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Workers())
			for i := range proteins {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					peps, err := prot.Digest(&proteins[i], par)
					if err != nil {
						return fmt.Errorf("%s: %w", proteins[i].Accession, err)
					}
					results[i] = peps
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fragmenter := peptide.NewFragmenter(peptide.DefaultDissociationTable())
			count := 0
			for i, peps := range results {
				for _, pep := range peps {
					mp, err := peptide.NewModifiedPeptide(pep, nil)
					if err != nil {
						a.logger.Warn().Err(err).Str("protein", proteins[i].Accession).
							Str("peptide", pep.BaseSequence()).Msg("skipped peptide")
						continue
					}
					count++
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", proteins[i].Accession, pep,
						pep.MissedCleavages, pep.Description,
						strconv.FormatFloat(mp.MonoisotopicMass(), 'f', -1, 64))
					if !fragment {
						continue
					}
					ions, err := fragmenter.Fragment(mp, d, term)
					if err != nil {
						return err
					}
					if err := writeFragments(w, "\t", ions, fo.charge); err != nil {
						return err
					}
				}
			}
			a.logger.Info().Int("proteins", len(proteins)).Int("peptides", count).
				Str("protease", prot.Name).Msg("digested")
			return nil
		},
	}
	cmd.Flags().StringVar(&proteaseName, "protease", "", "protease `name` (default from MZDIGEST_DEFAULT_PROTEASE)")
	cmd.Flags().IntVar(&missed, "missed", 0, "maximum missed cleavages")
	cmd.Flags().IntVar(&minLength, "min", 0, "minimum peptide length")
	cmd.Flags().IntVar(&maxLength, "max", 0, "maximum peptide length, 0 for no limit")
	cmd.Flags().StringVar(&methionine, "methionine", "", "initiator methionine: retain, cleave or variable")
	cmd.Flags().BoolVar(&fragment, "fragment", false, "print the fragment ions of every peptide")
	cmd.Flags().BoolVar(&list, "list", false, "list the known proteases")
	fo.addFlags(cmd)
	return cmd
}

func (a *app) fragmentCmd() *cobra.Command {
	var fo fragmentOptions
	cmd := &cobra.Command{
		Use:   "fragment <peptide>",
		Short: "Print the fragment ions of a peptide",
		Long: `Print the theoretical fragment ions of a peptide. Modifications are
written as [Type:ID] after the residue, before the first residue for the
N-terminus and as -[Type:ID] after the last residue for the C-terminus,
e.g. [Common:Acetyl]PES[CommonBiological:phospho]K.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, term, err := fo.parse()
			if err != nil {
				return err
			}
			mods, err := config.LoadModifications(a.cfg.ModificationFile())
			if err != nil {
				return err
			}
			p, err := peptide.ParseModifiedPeptide(args[0], mods)
			if err != nil {
				return err
			}
			ions, err := peptide.NewFragmenter(peptide.DefaultDissociationTable()).Fragment(p, d, term)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			defer w.Flush()
			fmt.Fprintf(w, "# %s %s\n", p.Sequence(), strconv.FormatFloat(p.MonoisotopicMass(), 'f', -1, 64))
			return writeFragments(w, "", ions, fo.charge)
		},
	}
	fo.addFlags(cmd)
	return cmd
}
