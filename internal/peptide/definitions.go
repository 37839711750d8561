package peptide

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/524D/mzdigest/internal/chem"
	"github.com/524D/mzdigest/internal/ms"
)

//go:embed modifications.yaml
var builtinDefinitions []byte

// ModificationDefinition is the file representation of a Modification.
// Either Formula or Mass must be set, Formula takes precedence.
// Loss and diagnostic ion maps are keyed by dissociation type name.
type ModificationDefinition struct {
	ID             string               `yaml:"id" toml:"id"`
	Type           string               `yaml:"type" toml:"type"`
	Target         string               `yaml:"target" toml:"target"`
	Location       string               `yaml:"location" toml:"location"`
	Formula        string               `yaml:"formula" toml:"formula"`
	Mass           *float64             `yaml:"mass" toml:"mass"`
	NeutralLosses  map[string][]float64 `yaml:"neutral_losses" toml:"neutral_losses"`
	DiagnosticIons map[string][]float64 `yaml:"diagnostic_ions" toml:"diagnostic_ions"`
}

// ModificationDefinitions is the layout of a modification definition file
type ModificationDefinitions struct {
	Modifications []ModificationDefinition `yaml:"modifications" toml:"modifications"`
}

// Modification converts the definition
func (d ModificationDefinition) Modification() (*Modification, error) {
	if d.ID == "" || d.Type == "" {
		return nil, fmt.Errorf("modification definition needs id and type")
	}
	var m *Modification
	switch {
	case d.Formula != "":
		f, err := chem.ParseFormula(d.Formula)
		if err != nil {
			return nil, fmt.Errorf("modification %s: %w", d.ID, err)
		}
		m = NewModification(d.ID, d.Type, f)
	case d.Mass != nil:
		m = &Modification{ID: d.ID, Type: d.Type, MonoisotopicMass: *d.Mass}
	default:
		return nil, fmt.Errorf("modification %s: no formula or mass", d.ID)
	}
	m.Target = d.Target
	if d.Location != "" {
		m.LocationRestriction = d.Location
	}
	var err error
	if m.NeutralLosses, err = byDissociation(d.ID, d.NeutralLosses); err != nil {
		return nil, err
	}
	if m.DiagnosticIons, err = byDissociation(d.ID, d.DiagnosticIons); err != nil {
		return nil, err
	}
	return m, nil
}

func byDissociation(id string, in map[string][]float64) (map[ms.DissociationType][]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[ms.DissociationType][]float64, len(in))
	for name, masses := range in {
		d, err := ms.ParseDissociationType(name)
		if err != nil {
			return nil, fmt.Errorf("modification %s: %w", id, err)
		}
		out[d] = masses
	}
	return out, nil
}

// Modifications converts a list of definitions
func Modifications(defs []ModificationDefinition) ([]*Modification, error) {
	mods := make([]*Modification, 0, len(defs))
	for _, d := range defs {
		m, err := d.Modification()
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Builtin returns the modifications that are compiled into the program
func Builtin() ([]*Modification, error) {
	var defs ModificationDefinitions
	if err := yaml.Unmarshal(builtinDefinitions, &defs); err != nil {
		return nil, fmt.Errorf("built-in modifications: %w", err)
	}
	return Modifications(defs.Modifications)
}
