// Package network implements action-value function approximators
package network

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"
)

// ActionValuer approximates the value of each discrete action given a
// batch of observations.
type ActionValuer interface {
	// Features returns the number of features in a single observation
	Features() int

	// Actions returns the number of action values predicted per
	// observation
	Actions() int

	// Predict returns a batch × Actions() matrix of action values for a
	// row-major batch of observations
	Predict(states []float64, batch int) (*mat.Dense, error)

	// Fit takes one gradient step on the mean squared error between
	// targets and the predicted values of the taken actions. The loss
	// before the step is returned.
	Fit(states []float64, actions []int, targets []float64) (float64, error)

	gob.GobEncoder
	gob.GobDecoder
}

// checkFit validates the shapes of the arguments to Fit
func checkFit(v ActionValuer, states []float64, actions []int,
	targets []float64) error {
	batch := len(actions)
	if batch == 0 {
		return errEmptyBatch
	}
	if len(targets) != batch {
		return shapeError("targets", batch, len(targets))
	}
	if len(states) != batch*v.Features() {
		return shapeError("states", batch*v.Features(), len(states))
	}
	for _, a := range actions {
		if a < 0 || a >= v.Actions() {
			return actionError(a, v.Actions())
		}
	}
	return nil
}

// checkPredict validates the shapes of the arguments to Predict
func checkPredict(v ActionValuer, states []float64, batch int) error {
	if batch < 1 {
		return errEmptyBatch
	}
	if len(states) != batch*v.Features() {
		return shapeError("states", batch*v.Features(), len(states))
	}
	return nil
}
