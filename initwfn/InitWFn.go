// Package initwfn wraps Gorgonia weight initialisers so that they can be
// described in JSON configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
	Zeroes   Type = "Zeroes"
	Constant Type = "Constant"
)

// Config describes a Gorgonia InitWFn
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// InitWFn wraps a Gorgonia InitWFn with the configuration it was
// created from.
type InitWFn struct {
	initWFn G.InitWFn
	Config
}

// New returns a new InitWFn described by c
func New(c Config) *InitWFn {
	return &InitWFn{initWFn: c.Create(), Config: c}
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %+v}", i.Type(), i.Config)
}

type jsonInitWFn struct {
	Type   Type
	Config json.RawMessage `json:",omitempty"`
}

// MarshalJSON implements the json.Marshaler interface
func (i *InitWFn) MarshalJSON() ([]byte, error) {
	config, err := json.Marshal(i.Config)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonInitWFn{Type: i.Type(), Config: config})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	var raw jsonInitWFn
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var config Config
	switch raw.Type {
	case GlorotU:
		c := GlorotUConfig{Gain: 1}
		config = &c
	case GlorotN:
		c := GlorotNConfig{Gain: 1}
		config = &c
	case HeU:
		c := HeUConfig{Gain: 1}
		config = &c
	case HeN:
		c := HeNConfig{Gain: 1}
		config = &c
	case Gaussian:
		c := GaussianConfig{StdDev: 1}
		config = &c
	case Uniform:
		c := UniformConfig{Low: -1, High: 1}
		config = &c
	case Zeroes:
		config = &ZeroesConfig{}
	case Constant:
		config = &ConstantConfig{}
	default:
		return fmt.Errorf("unmarshaljson: unknown initwfn type %q", raw.Type)
	}

	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, config); err != nil {
			return fmt.Errorf("unmarshaljson: %v", err)
		}
	}

	*i = *New(config)
	return nil
}
