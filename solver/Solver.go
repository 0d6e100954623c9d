// Package solver wraps Gorgonia Solvers so that they can be described
// in JSON configuration files.
package solver

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Config implements a Gorgonia Solver configuration and can be used to
// create the Gorgonia Solver it describes.
type Config interface {
	Create() G.Solver
	Validate() error
	Type() Type
}

// Solver wraps a Gorgonia Solver with the configuration it was created
// from. The loss the solvers minimise is already averaged over the
// batch, so gradients are never rescaled by the batch size.
type Solver struct {
	G.Solver `json:"-"`
	Config
}

// New returns a new Solver described by c
func New(c Config) (*Solver, error) {
	if c == nil {
		return nil, fmt.Errorf("new: nil solver config")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid %v config: %v", c.Type(), err)
	}
	return &Solver{Solver: c.Create(), Config: c}, nil
}

// Reset replaces the wrapped Gorgonia Solver with a fresh one, clearing
// any accumulated moment estimates.
func (s *Solver) Reset() {
	s.Solver = s.Config.Create()
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type(), s.Config)
}

type jsonSolver struct {
	Type   Type
	Config json.RawMessage
}

// MarshalJSON implements the json.Marshaler interface
func (s *Solver) MarshalJSON() ([]byte, error) {
	config, err := json.Marshal(s.Config)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonSolver{Type: s.Type(), Config: config})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw jsonSolver
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var config Config
	switch raw.Type {
	case Adam:
		c := DefaultAdam()
		if len(raw.Config) > 0 {
			if err := json.Unmarshal(raw.Config, &c); err != nil {
				return fmt.Errorf("unmarshaljson: %v", err)
			}
		}
		config = c
	case Vanilla:
		var c VanillaConfig
		if len(raw.Config) > 0 {
			if err := json.Unmarshal(raw.Config, &c); err != nil {
				return fmt.Errorf("unmarshaljson: %v", err)
			}
		}
		config = c
	case RMSProp:
		c := DefaultRMSProp()
		if len(raw.Config) > 0 {
			if err := json.Unmarshal(raw.Config, &c); err != nil {
				return fmt.Errorf("unmarshaljson: %v", err)
			}
		}
		config = c
	default:
		return fmt.Errorf("unmarshaljson: unknown solver type %q", raw.Type)
	}

	solver, err := New(config)
	if err != nil {
		return fmt.Errorf("unmarshaljson: %v", err)
	}
	*s = *solver
	return nil
}
