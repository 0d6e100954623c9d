package trackers

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Note: An episode must finish for this Tracker to record its return.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn() *Return {
	return &Return{lastTimeStep: -1}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return. When a new episode starts, this method will
// automatically detect this and start accumulating the rewards for this
// new episode separately from the rewards seen on previous episodes.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	// A first step always starts a new episode, dropping the return of
	// an unfinished one
	if step.First() {
		r.currentReturn = 0.0
		r.lastTimeStep = step.Number
		return
	}

	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number

	// Episode has ended, save the return and begin tracking the
	// return for a new episode
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	}
}

// Returns returns the episodic returns tracked so far
func (r *Return) Returns() []float64 {
	out := make([]float64, len(r.episodeReturns))
	copy(out, r.episodeReturns)
	return out
}

// Episodes returns the number of completed episodes tracked
func (r *Return) Episodes() int {
	return len(r.episodeReturns)
}

// GobEncode implements the gob.GobEncoder interface so that tracked
// returns can be checkpointed
func (r *Return) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r.episodeReturns); err != nil {
		return nil, fmt.Errorf("gobEncode: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (r *Return) GobDecode(in []byte) error {
	var returns []float64
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&returns); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}
	r.episodeReturns = returns
	r.currentReturn = 0.0
	r.lastTimeStep = -1
	return nil
}

// Save saves the data tracked by the Return Tracker to disk in a
// format readable by LoadData
func (r *Return) Save(filename string) error {
	data, err := r.GobEncode()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: could not write %v: %w", filename, err)
	}
	return nil
}
