package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/524D/mzdigest/internal/peptide"
	"github.com/524D/mzdigest/internal/protease"
)

// ErrDefinitionFormat means a definition file has an unknown extension
var ErrDefinitionFormat = errors.New("config: definition file must be .yaml, .yml or .toml")

// decodeFile unmarshals a YAML or TOML file into v, chosen by extension
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".toml":
		err = toml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %s", ErrDefinitionFormat, path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadProteases returns the built-in proteases, extended and overridden
// by the definitions in path. An empty path gives the built-in set.
func LoadProteases(path string) (protease.Registry, error) {
	reg, err := protease.Builtin()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return reg, nil
	}
	var defs protease.Definitions
	if err := decodeFile(path, &defs); err != nil {
		return nil, err
	}
	extra, err := protease.NewRegistry(defs.Proteases)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg.Merge(extra), nil
}

// LoadModifications reads the modifications in path. An empty path
// gives the built-in set.
func LoadModifications(path string) ([]*peptide.Modification, error) {
	if path == "" {
		return peptide.Builtin()
	}
	var defs peptide.ModificationDefinitions
	if err := decodeFile(path, &defs); err != nil {
		return nil, err
	}
	mods, err := peptide.Modifications(defs.Modifications)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mods, nil
}
