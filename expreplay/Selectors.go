package expreplay

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Selector implements functionality for choosing how data should be
// sampled from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c *FifoBuffer) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly. The indices within a single batch
// are distinct, but each batch is drawn independently of the last, so
// the same transition can appear in many batches.
type uniformSelector struct {
	samples int
	src     rand.Source
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(samples int, seed uint64) Selector {
	return &uniformSelector{samples: samples, src: rand.NewSource(seed)}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer. The buffer must hold at least BatchSize() elements.
func (u *uniformSelector) choose(c *FifoBuffer) []int {
	selected := make([]int, u.BatchSize())
	sampleuv.WithoutReplacement(selected, c.Capacity(), u.src)
	return selected
}
