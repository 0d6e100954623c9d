// Package environment outlines the interfaces and structs needed to
// implement concrete environments, whether simulated in-process or
// reached through a bridge to a remote game
package environment

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/lunarlearn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should be ended early
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment is the synchronous reset/step contract that every learner
// in this module is trained against. Step returns the next TimeStep and
// whether the episode has ended.
//
// Calls on an Environment must be serialized by the caller. Reset and
// Step block until the environment has produced its reply or ctx is
// done.
type Environment interface {
	Reset(ctx context.Context) (timestep.TimeStep, error)
	Step(ctx context.Context, action int) (timestep.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec
}
