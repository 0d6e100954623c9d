package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/lunarlearn/agent/qtable"
	"github.com/samuelfneumann/lunarlearn/discretizer"
	"github.com/samuelfneumann/lunarlearn/schedule"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// Tabular is a Learner which discretizes observations and learns a
// Q table. The learning rate, discount factor and explore rate are each
// set by their own Schedule at the start of every episode.
type Tabular struct {
	discretizer *discretizer.Discretizer
	learner     *qtable.QLearner

	learningRateSchedule schedule.Schedule
	discountSchedule     schedule.Schedule
	exploreRateSchedule  schedule.Schedule

	learningRate float64
	discount     float64
	exploreRate  float64
}

// NewTabular returns a new Tabular learner. The discretizer must map
// observations onto exactly the states of the learner's table.
func NewTabular(d *discretizer.Discretizer, q *qtable.QLearner,
	learningRate, discount, exploreRate schedule.Schedule) (*Tabular, error) {
	states, _ := q.Table().Dims()
	if d.States() != states {
		return nil, fmt.Errorf("newTabular: discretizer has %v states but "+
			"the table has %v", d.States(), states)
	}
	if learningRate == nil || discount == nil || exploreRate == nil {
		return nil, fmt.Errorf("newTabular: all schedules must be set")
	}

	t := &Tabular{
		discretizer:          d,
		learner:              q,
		learningRateSchedule: learningRate,
		discountSchedule:     discount,
		exploreRateSchedule:  exploreRate,
	}
	t.BeginEpisode(1)
	return t, nil
}

// BeginEpisode sets the rates used for the attempt
func (t *Tabular) BeginEpisode(attempt int) {
	t.learningRate = t.learningRateSchedule.Rate(attempt)
	t.discount = t.discountSchedule.Rate(attempt)
	t.exploreRate = t.exploreRateSchedule.Rate(attempt)

	metricRate.WithLabelValues("learning").Set(t.learningRate)
	metricRate.WithLabelValues("discount").Set(t.discount)
	metricRate.WithLabelValues("explore").Set(t.exploreRate)
}

// Rates returns the learning rate, discount factor, and explore rate
// of the current episode
func (t *Tabular) Rates() (learningRate, discount, exploreRate float64) {
	return t.learningRate, t.discount, t.exploreRate
}

// Act selects an action ε-greedily in the discretized state of obs
func (t *Tabular) Act(obs *mat.VecDense, greedy bool) (int, error) {
	state, err := t.discretizer.State(obs.RawVector().Data)
	if err != nil {
		return 0, fmt.Errorf("act: %w", err)
	}

	exploreRate := t.exploreRate
	if greedy {
		exploreRate = 0
	}
	return t.learner.SelectAction(state, exploreRate)
}

// Random returns an action drawn from the exploration distribution
func (t *Tabular) Random() int {
	return t.learner.Random()
}

// Learn performs one Q-learning update on the discretized transition
func (t *Tabular) Learn(tr ts.Transition) error {
	state, err := t.discretizer.State(tr.State.RawVector().Data)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	nextState, err := t.discretizer.State(tr.NextState.RawVector().Data)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	err = t.learner.Update(state, tr.Action, nextState, tr.Reward,
		tr.Terminal, t.learningRate, t.discount)
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}
	return nil
}

// Warm does nothing, a Q table has no memory to warm up
func (t *Tabular) Warm(ts.Transition) error {
	return nil
}

// Table returns the learned Q table
func (t *Tabular) Table() *qtable.QTable {
	return t.learner.Table()
}
