package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (state, action, reward, next state, terminal)
// tuple of experience. A Transition is created once per environment
// step and is never modified afterwards.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	NextState *mat.VecDense
	Terminal  bool
}

// NewTransition creates a new Transition from the TimeStep on which an
// action was taken and the TimeStep that followed it. The transition
// is terminal if next is the last step of the episode.
func NewTransition(prev TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     prev.Observation,
		Action:    action,
		Reward:    next.Reward,
		NextState: next.Observation,
		Terminal:  next.Last(),
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | S: %v  |  A: %v  |  R: %.2f  |  "+
		"S': %v  |  Terminal: %v", mat.Formatted(t.State.T()), t.Action,
		t.Reward, mat.Formatted(t.NextState.T()), t.Terminal)
}
