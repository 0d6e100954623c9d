// Package agent implements the action-selection policy shared by the
// learning agents in its sub-packages
package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/lunarlearn/utils/floatutils"
)

// EGreedy implements an ε-greedy policy over a fixed number of discrete
// actions. With probability ε an action is drawn from a configurable
// categorical distribution, otherwise the action of highest value is
// selected, with ties broken by the first maximal index.
type EGreedy struct {
	actions int
	explore distuv.Uniform
	random  distuv.Categorical
}

// NewEGreedy returns a new EGreedy policy over actions actions. The
// weights parameter gives the relative probability with which each
// action is chosen when exploring. If weights is nil, exploratory
// actions are chosen uniformly.
func NewEGreedy(actions int, weights []float64, seed uint64) (*EGreedy,
	error) {
	if actions < 1 {
		return nil, fmt.Errorf("newegreedy: must have at least 1 action")
	}

	if weights == nil {
		weights = make([]float64, actions)
		for i := range weights {
			weights[i] = 1.0
		}
	}
	if len(weights) != actions {
		return nil, fmt.Errorf("newegreedy: have %v action weights for %v "+
			"actions", len(weights), actions)
	}
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("newegreedy: action weights cannot be " +
				"negative")
		}
	}
	if floats.Sum(weights) <= 0 {
		return nil, fmt.Errorf("newegreedy: action weights must sum to a " +
			"positive value")
	}

	source := rand.NewSource(seed)
	return &EGreedy{
		actions: actions,
		explore: distuv.Uniform{Min: 0, Max: 1, Src: source},
		random:  distuv.NewCategorical(weights, source),
	}, nil
}

// Actions returns the number of actions the policy selects from
func (p *EGreedy) Actions() int {
	return p.actions
}

// Random draws an action from the exploration distribution
func (p *EGreedy) Random() int {
	return int(p.random.Rand())
}

// Greedy returns the first action of maximal value
func (p *EGreedy) Greedy(values []float64) int {
	return floatutils.Argmax(values)
}

// SelectAction selects an action ε-greedily with respect to the action
// values. The values are only needed when the policy acts greedily, so
// they are computed lazily.
func (p *EGreedy) SelectAction(epsilon float64,
	values func() ([]float64, error)) (int, error) {
	if epsilon > 0 && p.explore.Rand() < epsilon {
		return p.Random(), nil
	}

	v, err := values()
	if err != nil {
		return 0, fmt.Errorf("selectaction: %w", err)
	}
	if len(v) != p.actions {
		return 0, fmt.Errorf("selectaction: have %v action values for %v "+
			"actions", len(v), p.actions)
	}
	return p.Greedy(v), nil
}
