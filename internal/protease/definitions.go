package protease

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/524D/mzdigest/internal/ms"
)

//go:embed proteases.yaml
var builtinDefinitions []byte

// RuleDefinition is the file representation of a CleavageRule
type RuleDefinition struct {
	Motif    string `yaml:"motif" toml:"motif"`
	Terminus string `yaml:"terminus" toml:"terminus"`
}

// Definition is the file representation of a Protease
type Definition struct {
	Name             string           `yaml:"name" toml:"name"`
	Inducing         []RuleDefinition `yaml:"inducing" toml:"inducing"`
	Preventing       []RuleDefinition `yaml:"preventing" toml:"preventing"`
	Specificity      string           `yaml:"specificity" toml:"specificity"`
	CleavageTerminus string           `yaml:"cleavage_terminus" toml:"cleavage_terminus"`
	PsiMsAccession   string           `yaml:"psi_ms_accession" toml:"psi_ms_accession"`
	PsiMsName        string           `yaml:"psi_ms_name" toml:"psi_ms_name"`
	SiteRegexp       string           `yaml:"site_regexp" toml:"site_regexp"`
}

// Definitions is the layout of a protease definition file
type Definitions struct {
	Proteases []Definition `yaml:"proteases" toml:"proteases"`
}

// Protease converts the definition. An unknown specificity is
// ErrUnsupportedDigestionMode.
func (d Definition) Protease() (*Protease, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("protease definition without name")
	}
	spec, err := ParseCleavageSpecificity(d.Specificity)
	if err != nil {
		return nil, fmt.Errorf("protease %s: %w", d.Name, err)
	}
	term, err := ms.ParseTerminus(d.CleavageTerminus)
	if err != nil {
		return nil, fmt.Errorf("protease %s: %w", d.Name, err)
	}
	p := &Protease{
		Name:             d.Name,
		Specificity:      spec,
		CleavageTerminus: term,
		PsiMsAccession:   d.PsiMsAccession,
		PsiMsName:        d.PsiMsName,
		SiteRegexp:       d.SiteRegexp,
	}
	p.SequencesInducingCleavage, err = rules(d.Name, d.Inducing)
	if err != nil {
		return nil, err
	}
	p.SequencesPreventingCleavage, err = rules(d.Name, d.Preventing)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func rules(name string, defs []RuleDefinition) ([]CleavageRule, error) {
	var rr []CleavageRule
	for _, rd := range defs {
		t, err := ms.ParseTerminus(rd.Terminus)
		if err != nil {
			return nil, fmt.Errorf("protease %s: motif %s: %w", name, rd.Motif, err)
		}
		rr = append(rr, CleavageRule{Motif: rd.Motif, Terminus: t})
	}
	return rr, nil
}

// Registry holds proteases by lower case name
type Registry map[string]*Protease

// NewRegistry converts definitions, later definitions replace earlier
// ones with the same name
func NewRegistry(defs []Definition) (Registry, error) {
	r := Registry{}
	for _, d := range defs {
		p, err := d.Protease()
		if err != nil {
			return nil, err
		}
		r[strings.ToLower(p.Name)] = p
	}
	return r, nil
}

// Builtin returns the proteases that are compiled into the program
func Builtin() (Registry, error) {
	var defs Definitions
	if err := yaml.Unmarshal(builtinDefinitions, &defs); err != nil {
		return nil, fmt.Errorf("built-in proteases: %w", err)
	}
	return NewRegistry(defs.Proteases)
}

// Merge returns a registry with the proteases of both, those of o take
// precedence
func (r Registry) Merge(o Registry) Registry {
	m := make(Registry, len(r)+len(o))
	for k, p := range r {
		m[k] = p
	}
	for k, p := range o {
		m[k] = p
	}
	return m
}

// Lookup finds a protease by name, case insensitive
func (r Registry) Lookup(name string) (*Protease, error) {
	p, ok := r[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProtease, name)
	}
	return p, nil
}

// Names returns the sorted protease names
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for _, p := range r {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
