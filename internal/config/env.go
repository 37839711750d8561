// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/524D/mzdigest/internal/protease"
)

// Prefix of all environment variables
const Prefix = "MZDIGEST"

// EnvConfig holds all environment-based configuration.
// Field names map to environment variables with MZDIGEST_ prefix removed.
type EnvConfig struct {
	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Workers bounds the number of scans decoded in parallel.
	// Env: WORKERS (default: 4)
	Workers int `envconfig:"WORKERS" default:"4"`

	// ProteaseFile is a YAML or TOML file with extra protease definitions.
	// Env: PROTEASE_FILE
	ProteaseFile string `envconfig:"PROTEASE_FILE"`

	// ModificationFile is a YAML or TOML file with modification definitions.
	// Env: MODIFICATION_FILE
	ModificationFile string `envconfig:"MODIFICATION_FILE"`

	// DefaultProtease is used when no protease is given on the command line.
	// Env: DEFAULT_PROTEASE (default: trypsin)
	DefaultProtease string `envconfig:"DEFAULT_PROTEASE" default:"trypsin"`

	// MaxMissedCleavages per peptide.
	// Env: MAX_MISSED_CLEAVAGES (default: 2)
	MaxMissedCleavages int `envconfig:"MAX_MISSED_CLEAVAGES" default:"2"`

	// MinPeptideLength in residues.
	// Env: MIN_PEPTIDE_LENGTH (default: 7)
	MinPeptideLength int `envconfig:"MIN_PEPTIDE_LENGTH" default:"7"`

	// MaxPeptideLength in residues, 0 is unbounded.
	// Env: MAX_PEPTIDE_LENGTH (default: 0)
	MaxPeptideLength int `envconfig:"MAX_PEPTIDE_LENGTH" default:"0"`

	// InitiatorMethionine is retain, cleave or variable.
	// Env: INITIATOR_METHIONINE (default: variable)
	InitiatorMethionine string `envconfig:"INITIATOR_METHIONINE" default:"variable"`
}

// LoadFromEnv loads configuration from MZDIGEST_ environment variables
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() (AppConfig, error) {
	cfg := NewAppConfig()

	if e.LogLevel != "" {
		cfg = cfg.WithLogLevel(e.LogLevel)
	}
	if e.LogFormat != "" {
		cfg = cfg.WithLogFormat(e.LogFormat)
	}
	if e.Workers > 0 {
		cfg = cfg.WithWorkers(e.Workers)
	}
	cfg = cfg.WithProteaseFile(e.ProteaseFile).WithModificationFile(e.ModificationFile)
	if e.DefaultProtease != "" {
		cfg = cfg.WithDefaultProtease(e.DefaultProtease)
	}

	met, err := protease.ParseInitiatorMethionine(strings.ToLower(e.InitiatorMethionine))
	if err != nil {
		return AppConfig{}, err
	}
	if e.MaxPeptideLength < 0 {
		return AppConfig{}, fmt.Errorf("%w: maximum length %d", protease.ErrInvalidDigestionParams, e.MaxPeptideLength)
	}
	cfg = cfg.WithDigestion(e.MaxMissedCleavages, e.MinPeptideLength, e.MaxPeptideLength, met)
	if err := cfg.DigestionParams().Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
