package fmu

import (
	"fmt"

	"github.com/vecu-cosim/cosim-host/sim"
)

// Causality values accepted in descriptors.
const (
	CausalityInput     = "input"
	CausalityOutput    = "output"
	CausalityParameter = "parameter"
	CausalityLocal     = "local"
)

// Descriptor is the metadata needed to instantiate a unit: unique model id,
// entry point and the declared signals.
type Descriptor struct {
	FMIVersion      string     `yaml:"fmi_version" json:"fmi_version"`
	ModelName       string     `yaml:"model_name" json:"model_name"`
	GUID            string     `yaml:"guid" json:"guid"`
	ModelIdentifier string     `yaml:"model_identifier" json:"model_identifier"`
	Description     string     `yaml:"description,omitempty" json:"description,omitempty"`
	Variables       []Variable `yaml:"variables" json:"variables"`

	// Source is where the descriptor was loaded from.
	Source string `yaml:"-" json:"-"`
}

// Variable is one declared signal.
type Variable struct {
	Name           string `yaml:"name" json:"name"`
	ValueReference uint32 `yaml:"value_reference" json:"value_reference"`
	Type           string `yaml:"type" json:"type"`
	Causality      string `yaml:"causality,omitempty" json:"causality,omitempty"`
	Start          string `yaml:"start,omitempty" json:"start,omitempty"`
	Description    string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Kind returns the variable's declared kind. Call after Validate.
func (v Variable) Kind() sim.Kind {
	k, _ := sim.ParseKind(v.Type)
	return k
}

// StartValue returns the declared start value, or the zero value of the
// variable's kind when none is declared.
func (v Variable) StartValue() (sim.Value, error) {
	k, err := sim.ParseKind(v.Type)
	if err != nil {
		return sim.Value{}, err
	}
	if v.Start == "" {
		return sim.Int(0).Convert(k), nil
	}
	return sim.ParseValue(k, v.Start)
}

type refKey struct {
	kind sim.Kind
	ref  uint32
}

// Validate checks identifiers, unique names and per-type unique value
// references. References may repeat across types, as in FMI.
func (d *Descriptor) Validate() error {
	if d.ModelIdentifier == "" {
		return fmt.Errorf("descriptor %q: missing model identifier", d.Source)
	}
	if d.GUID == "" {
		return fmt.Errorf("descriptor %q: missing guid", d.Source)
	}
	names := make(map[string]bool, len(d.Variables))
	refs := make(map[refKey]string, len(d.Variables))
	for _, v := range d.Variables {
		if v.Name == "" {
			return fmt.Errorf("descriptor %q: variable with empty name", d.ModelIdentifier)
		}
		if names[v.Name] {
			return fmt.Errorf("descriptor %q: duplicate variable %q", d.ModelIdentifier, v.Name)
		}
		names[v.Name] = true
		k, err := sim.ParseKind(v.Type)
		if err != nil {
			return fmt.Errorf("descriptor %q: variable %q: %w", d.ModelIdentifier, v.Name, err)
		}
		key := refKey{kind: k, ref: v.ValueReference}
		if other, ok := refs[key]; ok {
			return fmt.Errorf("descriptor %q: %s value reference %d used by %q and %q",
				d.ModelIdentifier, k, v.ValueReference, other, v.Name)
		}
		refs[key] = v.Name
		switch v.Causality {
		case "", CausalityInput, CausalityOutput, CausalityParameter, CausalityLocal:
		default:
			return fmt.Errorf("descriptor %q: variable %q: unknown causality %q", d.ModelIdentifier, v.Name, v.Causality)
		}
		if _, err := v.StartValue(); err != nil {
			return fmt.Errorf("descriptor %q: variable %q: start: %w", d.ModelIdentifier, v.Name, err)
		}
	}
	return nil
}

// Variable looks up a declared variable by name.
func (d *Descriptor) Variable(name string) (Variable, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Ref resolves name to its value reference, checking the declared kind.
// Models use it in Bind.
func (d *Descriptor) Ref(name string, want sim.Kind) (uint32, error) {
	v, ok := d.Variable(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q not declared by %s", sim.ErrUnknownSignal, name, d.ModelIdentifier)
	}
	if v.Kind() != want {
		return 0, fmt.Errorf("%w: %q is %s, model expects %s", sim.ErrTypeMismatch, name, v.Kind(), want)
	}
	return v.ValueReference, nil
}
