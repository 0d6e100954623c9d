package qtable

import (
	"fmt"

	"github.com/samuelfneumann/lunarlearn/agent"
)

// Config represents a configuration for the QLearner agent
type Config struct {
	States  int
	Actions int

	// ActionWeights are the relative probabilities of each action being
	// chosen when exploring. If nil, exploration is uniform.
	ActionWeights []float64
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.States < 1 {
		return fmt.Errorf("states must be at least 1")
	}
	if c.Actions < 1 {
		return fmt.Errorf("actions must be at least 1")
	}
	if c.ActionWeights != nil && len(c.ActionWeights) != c.Actions {
		return fmt.Errorf("have %v action weights for %v actions",
			len(c.ActionWeights), c.Actions)
	}
	return nil
}

// QLearner implements tabular one-step Q-learning. States are the
// flattened indices of discretized observations. Rates are supplied by
// the caller on every call, so the QLearner holds no schedule.
type QLearner struct {
	table  *QTable
	policy *agent.EGreedy
}

// NewQLearner returns a new QLearner with a zero-initialized table
func NewQLearner(c Config, seed uint64) (*QLearner, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	table, err := New(c.States, c.Actions)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	policy, err := agent.NewEGreedy(c.Actions, c.ActionWeights, seed)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	return &QLearner{table: table, policy: policy}, nil
}

// Table returns the QLearner's table. The table may be snapshotted or
// restored by the caller between updates.
func (q *QLearner) Table() *QTable {
	return q.table
}

// SelectAction selects an action in state ε-greedily, exploring with
// probability exploreRate
func (q *QLearner) SelectAction(state int, exploreRate float64) (int, error) {
	return q.policy.SelectAction(exploreRate, func() ([]float64, error) {
		return q.table.Row(state)
	})
}

// Random returns an action drawn from the exploration distribution
func (q *QLearner) Random() int {
	return q.policy.Random()
}

// Update performs the one-step Q-learning update for a single
// transition:
//
//	Q(s, a) += α * (target - Q(s, a))
//
// where target = r if the transition is terminal and r + γ max Q(s', ·)
// otherwise. The table is unchanged if any index is out of range.
func (q *QLearner) Update(state, action, nextState int, reward float64,
	terminal bool, learningRate, discount float64) error {
	value, err := q.table.At(state, action)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	target := reward
	if !terminal {
		nextValue, err := q.table.Max(nextState)
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		target += discount * nextValue
	} else if _, err := q.table.Row(nextState); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	return q.table.Set(state, action, value+learningRate*(target-value))
}
