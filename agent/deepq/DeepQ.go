// Package deepq implements Q-learning with an action-value function
// approximator trained from experience replay. Update targets are
// computed from the current parameters; there is no target network.
package deepq

import (
	"fmt"

	"github.com/samuelfneumann/lunarlearn/agent"
	"github.com/samuelfneumann/lunarlearn/expreplay"
	"github.com/samuelfneumann/lunarlearn/network"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
	"github.com/samuelfneumann/lunarlearn/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// DeepQ implements the deep Q-learning algorithm with the MSE loss
type DeepQ struct {
	valuer   network.ActionValuer
	replay   *expreplay.FifoBuffer
	policy   *agent.EGreedy
	discount float64

	trainSteps int
	loss       float64
}

// New creates and returns a new DeepQ agent learning the action values
// of valuer
func New(valuer network.ActionValuer, c Config, seed uint64) (*DeepQ,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	replay, err := c.ExpReplay.Create(valuer.Features(), seed)
	if err != nil {
		msg := "new: could not create experience replay buffer: %v"
		return nil, fmt.Errorf(msg, err)
	}

	policy, err := agent.NewEGreedy(valuer.Actions(), c.ActionWeights,
		seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &DeepQ{
		valuer:   valuer,
		replay:   replay,
		policy:   policy,
		discount: c.Discount,
	}, nil
}

// SelectAction selects an action ε-greedily with respect to the
// predicted action values of obs
func (d *DeepQ) SelectAction(obs *mat.VecDense, epsilon float64) (int,
	error) {
	if obs.Len() != d.valuer.Features() {
		return 0, fmt.Errorf("selectaction: observation has %v features, "+
			"want %v", obs.Len(), d.valuer.Features())
	}

	return d.policy.SelectAction(epsilon, func() ([]float64, error) {
		values, err := d.valuer.Predict(obs.RawVector().Data, 1)
		if err != nil {
			return nil, err
		}
		return values.RawRowView(0), nil
	})
}

// Random returns an action drawn from the exploration distribution
func (d *DeepQ) Random() int {
	return d.policy.Random()
}

// Remember adds a transition to the replay buffer without training,
// evicting the oldest transition if the buffer is full
func (d *DeepQ) Remember(t ts.Transition) error {
	if err := d.replay.Add(t); err != nil {
		return fmt.Errorf("remember: %w", err)
	}
	return nil
}

// Observe adds a transition to the replay buffer and, once the buffer
// holds more than a batch of transitions, takes exactly one training
// step. Observe reports whether a training step was taken.
func (d *DeepQ) Observe(t ts.Transition) (bool, error) {
	if err := d.Remember(t); err != nil {
		return false, fmt.Errorf("observe: %w", err)
	}
	if d.replay.Capacity() <= d.replay.BatchSize() {
		return false, nil
	}
	return d.Step()
}

// Step takes one training step on a batch sampled from the replay
// buffer. If the buffer cannot yet be sampled, no step is taken.
func (d *DeepQ) Step() (bool, error) {
	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("step: %w", err)
	}

	targets, err := d.targets(batch)
	if err != nil {
		return false, fmt.Errorf("step: %w", err)
	}

	loss, err := d.valuer.Fit(batch.States, batch.Actions, targets)
	if err != nil {
		return false, fmt.Errorf("step: %w", err)
	}
	d.loss = loss
	d.trainSteps++

	return true, nil
}

// targets computes the Q-learning update targets
//
//	yᵢ = rᵢ                        if s'ᵢ is terminal
//	yᵢ = rᵢ + γ maxₐ Q(s'ᵢ, a)     otherwise
//
// using the current parameters
func (d *DeepQ) targets(batch expreplay.Batch) ([]float64, error) {
	nextValues, err := d.valuer.Predict(batch.NextStates, batch.Size())
	if err != nil {
		return nil, err
	}
	maxNext := matutils.RowMax(nextValues)

	targets := make([]float64, batch.Size())
	for i := range targets {
		targets[i] = batch.Rewards[i]
		if !batch.Terminals[i] {
			targets[i] += d.discount * maxNext[i]
		}
	}
	return targets, nil
}

// TrainSteps returns the number of training steps taken
func (d *DeepQ) TrainSteps() int {
	return d.trainSteps
}

// Loss returns the loss of the most recent training step
func (d *DeepQ) Loss() float64 {
	return d.loss
}

// Valuer returns the action-value function being learned
func (d *DeepQ) Valuer() network.ActionValuer {
	return d.valuer
}

// Replay returns the agent's replay buffer
func (d *DeepQ) Replay() *expreplay.FifoBuffer {
	return d.replay
}
