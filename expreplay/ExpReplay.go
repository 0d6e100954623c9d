// Package expreplay implements a bounded first-in-first-out experience
// replay buffer with uniform random sampling
package expreplay

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, evicting the oldest
	// transition if the buffer is at its maximum capacity
	Add(t ts.Transition) error

	// Sample samples a batch of experience from the buffer
	Sample() (Batch, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// Batch is a batch of transitions sampled from a buffer. States and
// NextStates are stored row-major with one row of Features() elements
// per transition.
type Batch struct {
	States     []float64
	Actions    []int
	Rewards    []float64
	NextStates []float64
	Terminals  []bool
	features   int
}

// Size returns the number of transitions in the batch
func (b Batch) Size() int {
	return len(b.Actions)
}

// Features returns the number of features in each state of the batch
func (b Batch) Features() int {
	return b.features
}

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	MaxReplayCapacity int
	MinReplayCapacity int
	BatchSize         int
}

// Validate checks that the Config describes a legal buffer. The minimum
// capacity must be at least the batch size so that a buffer can never be
// sampled for more transitions than it holds.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("new: batch size must be >= 1")
	}
	if c.MaxReplayCapacity < 1 {
		return fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if c.MinReplayCapacity < c.BatchSize {
		return fmt.Errorf("new: cannot have batch size (%v) > min buffer "+
			"capacity (%v)", c.BatchSize, c.MinReplayCapacity)
	}
	if c.MinReplayCapacity > c.MaxReplayCapacity {
		return fmt.Errorf("new: cannot have min buffer capacity (%v) > max "+
			"buffer capacity (%v)", c.MinReplayCapacity, c.MaxReplayCapacity)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize int, seed uint64) (*FifoBuffer, error) {
	return New(NewUniformSelector(c.BatchSize, seed), c.MinReplayCapacity,
		c.MaxReplayCapacity, featureSize)
}

// FifoBuffer implements a concrete ExperienceReplayer where elements
// are removed from the buffer in a FiFo manner, one element at a time,
// once the buffer is full. Transitions are copied into flat caches so
// that the buffer owns all of its data.
type FifoBuffer struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	nextStateCache []float64
	terminalCache  []bool

	// currentInUsePos is the index at which the next transition is
	// written. Once isFull, it is also the index of the oldest
	// transition.
	currentInUsePos int
	isFull          bool

	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
}

// New returns a new FifoBuffer. The sampler determines how batches are
// drawn. The buffer holds at most maxCapacity transitions, and must
// hold at least minCapacity transitions before it can be sampled.
func New(sampler Selector, minCapacity, maxCapacity,
	featureSize int) (*FifoBuffer, error) {
	config := Config{
		MaxReplayCapacity: maxCapacity,
		MinReplayCapacity: minCapacity,
		BatchSize:         sampler.BatchSize(),
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be >= 1")
	}

	return &FifoBuffer{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]int, maxCapacity),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		terminalCache:  make([]bool, maxCapacity),

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
	}, nil
}

// BatchSize returns the number of samples sampled using Sample()
func (c *FifoBuffer) BatchSize() int {
	return c.sampler.BatchSize()
}

// Capacity returns the current number of elements in the buffer that
// are available for sampling
func (c *FifoBuffer) Capacity() int {
	if c.isFull {
		return c.maxCapacity
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the buffer
func (c *FifoBuffer) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// buffer before sampling is allowed
func (c *FifoBuffer) MinCapacity() int {
	return c.minCapacity
}

// Features returns the number of features in each stored state
func (c *FifoBuffer) Features() int {
	return c.featureSize
}

// Add adds a transition to the buffer. If the buffer is full, the
// oldest transition is overwritten.
func (c *FifoBuffer) Add(t ts.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return &ExpReplayError{
			Op: "add",
			Err: fmt.Errorf("%w: want(%v) have(%v, %v)", errFeatureSize,
				c.featureSize, t.State.Len(), t.NextState.Len()),
		}
	}

	index := c.currentInUsePos
	stateInd := index * c.featureSize

	copy(c.stateCache[stateInd:stateInd+c.featureSize], t.State.RawVector().Data)
	copy(c.nextStateCache[stateInd:stateInd+c.featureSize],
		t.NextState.RawVector().Data)
	c.actionCache[index] = t.Action
	c.rewardCache[index] = t.Reward
	c.terminalCache[index] = t.Terminal

	c.currentInUsePos = (c.currentInUsePos + 1) % c.maxCapacity
	if c.currentInUsePos == 0 {
		c.isFull = true
	}
	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer. Sampling never modifies the buffer.
func (c *FifoBuffer) Sample() (Batch, error) {
	if c.Capacity() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyBuffer}
	}
	if c.Capacity() < c.MinCapacity() {
		return Batch{}, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	indices := c.sampler.choose(c)
	return c.batch(indices), nil
}

// batch gathers the transitions at the given cache indices
func (c *FifoBuffer) batch(indices []int) Batch {
	b := Batch{
		States:     make([]float64, len(indices)*c.featureSize),
		Actions:    make([]int, len(indices)),
		Rewards:    make([]float64, len(indices)),
		NextStates: make([]float64, len(indices)*c.featureSize),
		Terminals:  make([]bool, len(indices)),
		features:   c.featureSize,
	}

	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize

		copy(b.States[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize])
		copy(b.NextStates[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize])

		b.Actions[i] = c.actionCache[index]
		b.Rewards[i] = c.rewardCache[index]
		b.Terminals[i] = c.terminalCache[index]
	}
	return b
}

// insertOrder returns the cache indices of all stored transitions,
// oldest first
func (c *FifoBuffer) insertOrder() []int {
	order := make([]int, c.Capacity())
	start := 0
	if c.isFull {
		start = c.currentInUsePos
	}
	for i := range order {
		order[i] = (start + i) % c.maxCapacity
	}
	return order
}

// Transitions returns copies of all transitions in the buffer in the
// order they were inserted, oldest first
func (c *FifoBuffer) Transitions() []ts.Transition {
	order := c.insertOrder()
	b := c.batch(order)

	transitions := make([]ts.Transition, len(order))
	for i := range order {
		start, end := i*c.featureSize, (i+1)*c.featureSize
		transitions[i] = ts.Transition{
			State:     mat.NewVecDense(c.featureSize, b.States[start:end]),
			Action:    b.Actions[i],
			Reward:    b.Rewards[i],
			NextState: mat.NewVecDense(c.featureSize, b.NextStates[start:end]),
			Terminal:  b.Terminals[i],
		}
	}
	return transitions
}

// String returns the string representation of the buffer
func (c *FifoBuffer) String() string {
	return fmt.Sprintf("FifoBuffer | Capacity: %v/%v  |  MinCapacity: %v  |  "+
		"BatchSize: %v", c.Capacity(), c.MaxCapacity(), c.MinCapacity(),
		c.BatchSize())
}

// snapshot is the gob representation of a FifoBuffer's contents
type snapshot struct {
	Features   int
	States     []float64
	Actions    []int
	Rewards    []float64
	NextStates []float64
	Terminals  []bool
}

// GobEncode implements the gob.GobEncoder interface. Only the stored
// transitions are encoded, oldest first.
func (c *FifoBuffer) GobEncode() ([]byte, error) {
	b := c.batch(c.insertOrder())
	s := snapshot{
		Features:   c.featureSize,
		States:     b.States,
		Actions:    b.Actions,
		Rewards:    b.Rewards,
		NextStates: b.NextStates,
		Terminals:  b.Terminals,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// transitions are re-added to the buffer in their original order, so
// that a buffer with a smaller maximum capacity keeps only the newest.
// The buffer's sampler and capacities are left unchanged.
func (c *FifoBuffer) GobDecode(in []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&s); err != nil {
		return fmt.Errorf("gobdecode: could not decode buffer: %v", err)
	}
	if s.Features != c.featureSize {
		return fmt.Errorf("gobdecode: %w: want(%v) have(%v)", errFeatureSize,
			c.featureSize, s.Features)
	}

	c.currentInUsePos = 0
	c.isFull = false
	for i := range s.Actions {
		start, end := i*s.Features, (i+1)*s.Features
		t := ts.Transition{
			State:     mat.NewVecDense(s.Features, s.States[start:end]),
			Action:    s.Actions[i],
			Reward:    s.Rewards[i],
			NextState: mat.NewVecDense(s.Features, s.NextStates[start:end]),
			Terminal:  s.Terminals[i],
		}
		if err := c.Add(t); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}
	return nil
}
