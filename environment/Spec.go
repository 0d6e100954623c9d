package environment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action or observation in an environment
type Spec struct {
	Shape      int
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification. The bounds must
// both have shape elements.
func NewSpec(shape int, t SpecType, lowerBound,
	upperBound *mat.VecDense, cardinality Cardinality) Spec {
	if shape != lowerBound.Len() {
		panic(fmt.Sprintf("shape %v must match lower bounds length %v",
			shape, lowerBound.Len()))
	}
	if shape != upperBound.Len() {
		panic(fmt.Sprintf("shape %v must match upper bounds length %v",
			shape, upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewActionSpec returns the Spec of a single discrete action enumerated
// from 0 to actions-1
func NewActionSpec(actions int) Spec {
	return NewSpec(1, Action, mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(actions - 1)}), Discrete)
}

// NewUnboundedSpec returns a continuous observation Spec with features
// elements and no known bounds
func NewUnboundedSpec(features int) Spec {
	lower := make([]float64, features)
	upper := make([]float64, features)
	for i := range lower {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
	}
	return NewSpec(features, Observation, mat.NewVecDense(features, lower),
		mat.NewVecDense(features, upper), Continuous)
}

// Actions returns the number of discrete actions described by an
// action Spec
func (s Spec) Actions() int {
	return int(s.UpperBound.AtVec(0)-s.LowerBound.AtVec(0)) + 1
}
