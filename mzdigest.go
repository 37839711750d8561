// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/524D/mzdigest/internal/config"
	"github.com/524D/mzdigest/internal/log"
	"github.com/524D/mzdigest/internal/mzml"
)

// Program name and version, appended to software list in mzML output
const progName = "mzdigest"

var progVersion = `Unknown`

var ErrRangeSpec = errors.New("invalid range specified")

// Data processing step added to re-encoded mzML files
var reencodeProcessing = mzml.DataProcessing{
	ID: progName + "_reencode",
	ProcessingMeth: []mzml.ProcessingMethod{
		{
			Count:       0,
			SoftwareRef: progName,
			CvPar: []mzml.CVParam{
				{
					CvRef:     "MS",
					Accession: `MS:1000544`,
					Name:      `Conversion to mzML`,
				},
			},
		},
	},
}

// app holds the state shared by all subcommands. cfg and logger are set
// before a subcommand runs.
type app struct {
	envFile string
	verbose bool
	quiet   bool

	cfg    config.AppConfig
	logger zerolog.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.envFile)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	level := cfg.LogLevel()
	if a.verbose {
		level = "debug"
	} else if a.quiet {
		level = "warn"
	}
	logger, err := log.New(cmd.ErrOrStderr(), cfg.LogFormat(), level)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// open reads an mzML file using the configured workers and logger
func (a *app) open(path string) (*mzml.Container, error) {
	return mzml.Open(path, mzml.WithLogger(a.logger), mzml.WithWorkers(a.cfg.Workers()))
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   progName,
		Short: "mzdigest - mzML scan access, protein digestion and peptide fragmentation",
		Long: `mzdigest reads mzML files (plain or indexed), digests proteins with
configurable proteases and computes theoretical fragment ions of
(modified) peptides.

Settings are read from MZDIGEST_ environment variables, optionally
loaded from a .env file.`,
		Version:       progVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", "", "`file` with MZDIGEST_ settings (default .env)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "log warnings and errors only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		a.scansCmd(),
		a.scanCmd(),
		a.closestCmd(),
		a.reencodeCmd(),
		a.digestCmd(),
		a.fragmentCmd(),
		a.idsCmd(),
	)
	return root
}

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned
func parseIntRange(r string, min int, max int) (int, int, error) {
	re := regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	re := regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
