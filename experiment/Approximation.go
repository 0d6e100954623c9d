package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/lunarlearn/agent/deepq"
	"github.com/samuelfneumann/lunarlearn/schedule"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// Approximation is a Learner which trains a DeepQ agent on raw
// observations, exploring with a scheduled ε
type Approximation struct {
	agent           *deepq.DeepQ
	epsilonSchedule schedule.Schedule
	epsilon         float64
}

// NewApproximation returns a new Approximation learner
func NewApproximation(agent *deepq.DeepQ,
	epsilon schedule.Schedule) (*Approximation, error) {
	if agent == nil || epsilon == nil {
		return nil, fmt.Errorf("newApproximation: agent and epsilon " +
			"schedule must be set")
	}

	a := &Approximation{agent: agent, epsilonSchedule: epsilon}
	a.BeginEpisode(1)
	return a, nil
}

// BeginEpisode sets ε for the attempt
func (a *Approximation) BeginEpisode(attempt int) {
	a.epsilon = a.epsilonSchedule.Rate(attempt)
	metricRate.WithLabelValues("explore").Set(a.epsilon)
}

// Epsilon returns the exploration rate of the current episode
func (a *Approximation) Epsilon() float64 {
	return a.epsilon
}

// Act selects an action ε-greedily with respect to the agent's action
// values
func (a *Approximation) Act(obs *mat.VecDense, greedy bool) (int, error) {
	epsilon := a.epsilon
	if greedy {
		epsilon = 0
	}
	return a.agent.SelectAction(obs, epsilon)
}

// Random returns an action drawn from the exploration distribution
func (a *Approximation) Random() int {
	return a.agent.Random()
}

// Learn stores the transition and takes a training step once enough
// transitions are stored
func (a *Approximation) Learn(t ts.Transition) error {
	trained, err := a.agent.Observe(t)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	metricReplaySize.Set(float64(a.agent.Replay().Capacity()))
	if trained {
		metricTrainSteps.Inc()
		metricLoss.Set(a.agent.Loss())
	}
	return nil
}

// Warm stores the transition without training
func (a *Approximation) Warm(t ts.Transition) error {
	if err := a.agent.Remember(t); err != nil {
		return fmt.Errorf("warm: %w", err)
	}
	metricReplaySize.Set(float64(a.agent.Replay().Capacity()))
	return nil
}

// Agent returns the underlying DeepQ agent
func (a *Approximation) Agent() *deepq.DeepQ {
	return a.agent
}
