// Package qtable implements tabular Q-learning over discretized states
package qtable

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/lunarlearn/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// QTable is a dense table of action values with one row per discretized
// state and one column per action. All entries start at zero.
type QTable struct {
	values *mat.Dense
}

// New returns a new zero-initialized QTable
func New(states, actions int) (*QTable, error) {
	if states < 1 || actions < 1 {
		return nil, fmt.Errorf("new: table must have at least one state "+
			"and action, have states(%v) actions(%v)", states, actions)
	}
	return &QTable{values: mat.NewDense(states, actions, nil)}, nil
}

// Dims returns the number of states and actions in the table
func (q *QTable) Dims() (states, actions int) {
	return q.values.Dims()
}

// check returns an error if state or action lies outside the table
func (q *QTable) check(state, action int) error {
	states, actions := q.Dims()
	if state < 0 || state >= states {
		return fmt.Errorf("state %v out of range [0, %v)", state, states)
	}
	if action < 0 || action >= actions {
		return fmt.Errorf("action %v out of range [0, %v)", action, actions)
	}
	return nil
}

// At returns the value of an action in a state
func (q *QTable) At(state, action int) (float64, error) {
	if err := q.check(state, action); err != nil {
		return 0, fmt.Errorf("at: %w", err)
	}
	return q.values.At(state, action), nil
}

// Set sets the value of an action in a state
func (q *QTable) Set(state, action int, value float64) error {
	if err := q.check(state, action); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	q.values.Set(state, action, value)
	return nil
}

// Row returns a copy of the action values of a state
func (q *QTable) Row(state int) ([]float64, error) {
	if err := q.check(state, 0); err != nil {
		return nil, fmt.Errorf("row: %w", err)
	}
	return mat.Row(nil, state, q.values), nil
}

// Max returns the largest action value of a state
func (q *QTable) Max(state int) (float64, error) {
	if err := q.check(state, 0); err != nil {
		return 0, fmt.Errorf("max: %w", err)
	}
	return mat.Max(q.values.RowView(state)), nil
}

// Argmax returns the first action of largest value in a state
func (q *QTable) Argmax(state int) (int, error) {
	row, err := q.Row(state)
	if err != nil {
		return 0, fmt.Errorf("argmax: %w", err)
	}
	return floatutils.Argmax(row), nil
}

// Matrix returns a copy of the underlying table
func (q *QTable) Matrix() *mat.Dense {
	return mat.DenseCopyOf(q.values)
}

// GobEncode implements the gob.GobEncoder interface
func (q *QTable) GobEncode() ([]byte, error) {
	bin, err := q.values.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode table: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bin); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode table: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. If the table
// already has a shape, the decoded table must have the same shape.
func (q *QTable) GobDecode(in []byte) error {
	var bin []byte
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&bin); err != nil {
		return fmt.Errorf("gobdecode: could not decode table: %v", err)
	}

	var values mat.Dense
	if err := values.UnmarshalBinary(bin); err != nil {
		return fmt.Errorf("gobdecode: could not decode table: %v", err)
	}

	if q.values != nil {
		r, c := q.values.Dims()
		dr, dc := values.Dims()
		if r != dr || c != dc {
			return fmt.Errorf("gobdecode: decoded table shape (%v, %v) does "+
				"not match (%v, %v)", dr, dc, r, c)
		}
	}
	q.values = &values
	return nil
}
