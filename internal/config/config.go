package config

import (
	"github.com/524D/mzdigest/internal/protease"
)

// AppConfig is the resolved configuration. It is immutable, the With
// methods return modified copies.
type AppConfig struct {
	logLevel         string
	logFormat        string
	workers          int
	proteaseFile     string
	modificationFile string
	defaultProtease  string
	maxMissed        int
	minLength        int
	maxLength        int
	methionine       protease.InitiatorMethionine
}

// NewAppConfig returns the defaults
func NewAppConfig() AppConfig {
	return AppConfig{
		logLevel:        "INFO",
		logFormat:       "pretty",
		workers:         4,
		defaultProtease: "trypsin",
		maxMissed:       2,
		minLength:       7,
		methionine:      protease.Variable,
	}
}

// LogLevel returns the log level name
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns pretty or json
func (c AppConfig) LogFormat() string { return c.logFormat }

// Workers returns the scan decoding parallelism
func (c AppConfig) Workers() int { return c.workers }

// ProteaseFile returns the extra protease definition file, if any
func (c AppConfig) ProteaseFile() string { return c.proteaseFile }

// ModificationFile returns the modification definition file, if any
func (c AppConfig) ModificationFile() string { return c.modificationFile }

// DefaultProtease returns the protease name used when none is given
func (c AppConfig) DefaultProtease() string { return c.defaultProtease }

// DigestionParams returns the digestion settings. A maximum length of 0
// means unbounded.
func (c AppConfig) DigestionParams() protease.DigestionParams {
	minLength := c.minLength
	p := protease.DigestionParams{
		MaxMissedCleavages:  c.maxMissed,
		InitiatorMethionine: c.methionine,
		MinLength:           &minLength,
	}
	if c.maxLength > 0 {
		n := c.maxLength
		p.MaxLength = &n
	}
	return p
}

// WithLogLevel returns a copy with a new log level
func (c AppConfig) WithLogLevel(level string) AppConfig {
	c.logLevel = level
	return c
}

// WithLogFormat returns a copy with a new log format
func (c AppConfig) WithLogFormat(format string) AppConfig {
	c.logFormat = format
	return c
}

// WithWorkers returns a copy with a new worker count
func (c AppConfig) WithWorkers(n int) AppConfig {
	c.workers = n
	return c
}

// WithProteaseFile returns a copy with a new protease definition file
func (c AppConfig) WithProteaseFile(path string) AppConfig {
	c.proteaseFile = path
	return c
}

// WithModificationFile returns a copy with a new modification definition file
func (c AppConfig) WithModificationFile(path string) AppConfig {
	c.modificationFile = path
	return c
}

// WithDefaultProtease returns a copy with a new default protease
func (c AppConfig) WithDefaultProtease(name string) AppConfig {
	c.defaultProtease = name
	return c
}

// WithDigestion returns a copy with new digestion settings
func (c AppConfig) WithDigestion(maxMissed, minLength, maxLength int, met protease.InitiatorMethionine) AppConfig {
	c.maxMissed = maxMissed
	c.minLength = minLength
	c.maxLength = maxLength
	c.methionine = met
	return c
}
