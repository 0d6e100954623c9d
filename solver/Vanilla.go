package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64) (*Solver, error) {
	return New(VanillaConfig{StepSize: stepSize})
}

// Type returns the type of solver the config describes
func (v VanillaConfig) Type() Type {
	return Vanilla
}

// Validate checks that the hyperparameters are usable
func (v VanillaConfig) Validate() error {
	if v.StepSize <= 0 {
		return fmt.Errorf("step size must be positive")
	}
	return nil
}

// Create returns a Gorgonia Vanilla Solver as described by the
// VanillaConfig
func (v VanillaConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(1),
	}
	if v.Clip > 0 {
		opts = append(opts, G.WithClip(v.Clip))
	}
	return G.NewVanillaSolver(opts...)
}

// RMSPropConfig describes a configuration of the RMSProp solver
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64
}

// DefaultRMSProp returns an RMSProp configuration with the Gorgonia
// default hyperparameters
func DefaultRMSProp() RMSPropConfig {
	return RMSPropConfig{StepSize: 1e-3, Epsilon: 1e-8, Rho: 0.999}
}

// Type returns the type of solver the config describes
func (r RMSPropConfig) Type() Type {
	return RMSProp
}

// Validate checks that the hyperparameters are usable
func (r RMSPropConfig) Validate() error {
	if r.StepSize <= 0 {
		return fmt.Errorf("step size must be positive")
	}
	if r.Rho <= 0 || r.Rho >= 1 {
		return fmt.Errorf("rho must be in (0, 1)")
	}
	return nil
}

// Create returns a new Gorgonia RMSProp Solver as described by the
// RMSPropConfig
func (r RMSPropConfig) Create() G.Solver {
	return G.NewRMSPropSolver(
		G.WithLearnRate(r.StepSize),
		G.WithEps(r.Epsilon),
		G.WithRho(r.Rho),
		G.WithBatchSize(1),
	)
}
