// Package cartpole implements the Cartpole classic control environment
// with two discrete actions, as used for the tabular variant of the
// lander experiments
package cartpole

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/lunarlearn/environment"
	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Failure thresholds (+/-)
	PositionThreshold float64 = 2.4
	AngleThreshold    float64 = 12 * 2 * math.Pi / 360

	// Bounds (+/-) reported by the observation Spec. Speeds are not
	// physically bounded, these are the ranges used for discretization.
	PositionBounds        float64 = 2 * PositionThreshold
	SpeedBounds           float64 = 0.5
	AngleBounds           float64 = 2 * AngleThreshold
	AngularVelocityBounds float64 = 50 * math.Pi / 180

	// StartBounds (+/-) on each state feature at the start of an episode
	StartBounds float64 = 0.05

	// DefaultEpisodeSteps is the episode cutoff of CartPole-v1
	DefaultEpisodeSteps int = 500

	Actions  int = 2
	Features int = 4
)

// ErrEpisodeOver is returned when Step is called on an episode that
// has already ended
var ErrEpisodeOver = errors.New("cartpole: episode is over, call Reset")

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The agent must keep the pole upright for as long as
// possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Accelerate right
//
// A reward of +1 is given on every step, including the step on which
// the pole falls or the cart leaves the track.
type Cartpole struct {
	env.Starter
	limit    env.StepLimit
	lastStep ts.TimeStep
	started  bool
}

// New constructs a new Cartpole environment whose starting states are
// sampled uniformly in [-StartBounds, StartBounds] for each feature.
// If episodeSteps <= 0, episodes are only ended by failure.
func New(seed uint64, episodeSteps int) *Cartpole {
	bounds := make([]r1.Interval, Features)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBounds, Max: StartBounds}
	}

	return NewWithStarter(env.NewUniformStarter(bounds, seed), episodeSteps)
}

// NewWithStarter constructs a new Cartpole environment which draws its
// starting states from s
func NewWithStarter(s env.Starter, episodeSteps int) *Cartpole {
	return &Cartpole{Starter: s, limit: env.NewStepLimit(episodeSteps)}
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset(ctx context.Context) (ts.TimeStep, error) {
	if err := ctx.Err(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	state := c.Start()
	if state.Len() != Features {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned %d "+
			"features, expected %d", state.Len(), Features)
	}

	c.lastStep = ts.New(ts.First, 0, state, 0)
	c.started = true
	return c.lastStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewActionSpec(Actions)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	upper := []float64{PositionBounds, SpeedBounds, AngleBounds,
		AngularVelocityBounds}
	lower := make([]float64, len(upper))
	for i := range upper {
		lower[i] = -upper[i]
	}

	return env.NewSpec(Features, env.Observation,
		mat.NewVecDense(Features, lower), mat.NewVecDense(Features, upper),
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (c *Cartpole) Step(ctx context.Context, a int) (ts.TimeStep, bool,
	error) {
	if err := ctx.Err(); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	if a < 0 || a >= Actions {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1}", a)
	}
	if !c.started || c.lastStep.Last() {
		return ts.TimeStep{}, false, ErrEpisodeOver
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := ForceMag
	if a == 0 {
		force = -ForceMag
	}

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	// Create the new timestep
	newState := mat.NewVecDense(Features, []float64{x, xDot, th, thDot})
	nextStep := ts.New(ts.Mid, 1.0, newState, c.lastStep.Number+1)

	// Check if the step ends the episode
	if failed(newState) {
		nextStep.StepType = ts.Last
	}
	c.limit.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// failed returns whether the pole has fallen or the cart has left the
// track
func failed(state mat.Vector) bool {
	x, th := state.AtVec(0), state.AtVec(2)
	return x < -PositionThreshold || x > PositionThreshold ||
		th < -AngleThreshold || th > AngleThreshold
}

func (c *Cartpole) String() string {
	if !c.started {
		return "Cartpole  |  not started"
	}
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	return fmt.Sprintf(msg, state.AtVec(0), state.AtVec(1), state.AtVec(2),
		state.AtVec(3))
}
