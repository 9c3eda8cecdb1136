package null

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Param is one method parameter in a profile.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Return is one method result in a profile.
type Return struct {
	Type string `yaml:"type"`
}

// Method is a message signature. The builder only needs Name; nullgen uses
// the rest to render Go code.
type Method struct {
	Name    string   `yaml:"name"`
	Params  []Param  `yaml:"params"`
	Returns []Return `yaml:"returns"`
}

// TargetSpec declares a mimic or impersonate target as an explicit list of
// message signatures.
type TargetSpec struct {
	Name string `yaml:"name"`

	// Root is "object" (default) or "basic".
	Root string `yaml:"root"`

	// IncludeSuper defaults to true.
	IncludeSuper *bool    `yaml:"includeSuper"`
	Methods      []Method `yaml:"methods"`
}

// Conversions toggles the two conversion sets.
type Conversions struct {
	Explicit bool `yaml:"explicit"`
	Implicit bool `yaml:"implicit"`
}

// Profile is a file-based builder configuration.
type Profile struct {
	Package string   `yaml:"package"`
	Name    string   `yaml:"name"`
	Imports []string `yaml:"imports"`

	Mimic       *TargetSpec `yaml:"mimic"`
	Impersonate *TargetSpec `yaml:"impersonate"`

	BlackHole           bool        `yaml:"blackHole"`
	Singleton           bool        `yaml:"singleton"`
	Traceable           bool        `yaml:"traceable"`
	RespondToAnyMessage bool        `yaml:"respondToAnyMessage"`
	Conversions         Conversions `yaml:"conversions"`
	Display             string      `yaml:"display"`
}

// ErrInvalidProfile is wrapped by every Validate failure.
var ErrInvalidProfile = errors.New("null: invalid profile")

// ParseProfile decodes YAML (or JSON) from r and validates it.
func ParseProfile(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("null: decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads and parses the profile at path.
func LoadProfile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProfile(f)
}

// Validate reports every problem at once.
func (p *Profile) Validate() error {
	var err error
	if p.Mimic != nil && p.Impersonate != nil {
		err = multierr.Append(err, errors.New("mimic and impersonate are mutually exclusive"))
	}
	if spec := p.Target(); spec != nil {
		err = multierr.Append(err, spec.validate())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

func (s *TargetSpec) validate() error {
	var err error
	if strings.TrimSpace(s.Name) == "" {
		err = multierr.Append(err, errors.New("target name is required"))
	}
	switch s.Root {
	case "", "object", "basic":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown root %q", s.Root))
	}
	seen := make(map[string]struct{}, len(s.Methods))
	for i, m := range s.Methods {
		if strings.TrimSpace(m.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("method %d has no name", i))
			continue
		}
		if _, dup := seen[m.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate method %q", m.Name))
		}
		seen[m.Name] = struct{}{}
		for j, param := range m.Params {
			if strings.TrimSpace(param.Type) == "" {
				err = multierr.Append(err, fmt.Errorf("method %q param %d has no type", m.Name, j))
			}
		}
		for j, ret := range m.Returns {
			if strings.TrimSpace(ret.Type) == "" {
				err = multierr.Append(err, fmt.Errorf("method %q return %d has no type", m.Name, j))
			}
		}
	}
	return err
}

// Target returns whichever of Mimic and Impersonate is set.
func (p *Profile) Target() *TargetSpec {
	if p.Impersonate != nil {
		return p.Impersonate
	}
	return p.Mimic
}

// Type declares the target as a *Type. Each call returns a new type.
func (s *TargetSpec) Type() *Type {
	base := Object
	if s.Root == "basic" {
		base = BasicObject
	}
	names := make([]string, 0, len(s.Methods))
	for _, m := range s.Methods {
		names = append(names, m.Name)
	}
	return Declare(s.Name, base, names...)
}

func (s *TargetSpec) options() []MimicOption {
	if s.IncludeSuper == nil {
		return nil
	}
	return []MimicOption{IncludeSuper(*s.IncludeSuper)}
}

// Apply configures b from the profile. It has the customization callback
// signature, so Build(p.Apply) works.
func (p *Profile) Apply(b *Builder) {
	if p.BlackHole {
		b.BlackHole()
	}
	if p.Conversions.Explicit {
		b.DefineExplicitConversions()
	}
	if p.Conversions.Implicit {
		b.DefineImplicitConversions()
	}
	switch {
	case p.Impersonate != nil:
		b.Impersonate(p.Impersonate.Type(), p.Impersonate.options()...)
	case p.Mimic != nil:
		b.Mimic(p.Mimic.Type(), p.Mimic.options()...)
	}
	if p.RespondToAnyMessage {
		b.RespondToAnyMessage()
	}
	if p.Traceable {
		b.Traceable()
	}
	if p.Singleton {
		b.Singleton()
	}
	if p.Name != "" {
		b.Named(p.Name)
	}
	if p.Display != "" {
		display := p.Display
		b.Display(func() string { return display })
	}
}
