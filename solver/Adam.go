package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	Clip     float64 // <= 0 if no clipping
}

// DefaultAdam returns the Adam configuration used to train the lunar
// lander action-value network
func DefaultAdam() AdamConfig {
	return AdamConfig{
		StepSize: 5e-5,
		Epsilon:  1e-7,
		Beta1:    0.9,
		Beta2:    0.999,
	}
}

// NewAdam returns a new Adam Solver with default moment decay rates
func NewAdam(stepSize float64) (*Solver, error) {
	c := DefaultAdam()
	c.StepSize = stepSize
	return New(c)
}

// Type returns the type of solver the config describes
func (a AdamConfig) Type() Type {
	return Adam
}

// Validate checks that the hyperparameters are usable
func (a AdamConfig) Validate() error {
	if a.StepSize <= 0 {
		return fmt.Errorf("step size must be positive")
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive")
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("moment decay rates must be in [0, 1)")
	}
	return nil
}

// Create returns a new Gorgonia Adam Solver as described by the
// AdamConfig
func (a AdamConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(1),
	}
	if a.Clip > 0 {
		opts = append(opts, G.WithClip(a.Clip))
	}
	return G.NewAdamSolver(opts...)
}
