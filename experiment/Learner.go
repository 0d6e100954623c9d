// Package experiment implements the training loop which drives a
// learner through episodes of an environment, with warm-up, periodic
// checkpointing and greedy evaluation
package experiment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// Learner adapts an agent to the TrainingLoop. All methods are called
// from the loop's goroutine only.
type Learner interface {
	// BeginEpisode is called before each training episode with the
	// 1-based attempt number, so that scheduled rates can be updated
	BeginEpisode(attempt int)

	// Act selects an action for obs. If greedy is true, the learner
	// must not explore.
	Act(obs *mat.VecDense, greedy bool) (int, error)

	// Random returns an exploratory action, used during warm-up
	Random() int

	// Learn learns from a single transition, exactly once per
	// transition and in the order transitions occur
	Learn(t ts.Transition) error

	// Warm records a warm-up transition without learning from it
	Warm(t ts.Transition) error
}
