// Package discretizer buckets continuous observations into tuples of
// discrete indices so that they can index a tabular value function.
package discretizer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/samuelfneumann/lunarlearn/utils/floatutils"
	"github.com/samuelfneumann/lunarlearn/utils/intutils"
)

// MakeBins returns the buckets-1 interior edges of an equal-width
// partition of [lower, upper] into buckets intervals. The two outer
// edges are not returned, so that values outside [lower, upper] fall
// into the first or last bucket.
func MakeBins(lower, upper float64, buckets int) ([]float64, error) {
	if buckets < 1 {
		return nil, fmt.Errorf("makebins: must have at least 1 bucket, "+
			"have %v", buckets)
	}
	if !floatutils.IsFinite(lower, upper) {
		return nil, fmt.Errorf("makebins: bounds must be finite, have "+
			"[%v, %v]", lower, upper)
	}
	if lower >= upper {
		return nil, fmt.Errorf("makebins: lower bound %v must be less than "+
			"upper bound %v", lower, upper)
	}

	edges := floats.Span(make([]float64, buckets+1), lower, upper)
	return edges[1:buckets], nil
}

// Bucket returns the bucket that x falls into given sorted interior
// edges. Buckets are closed on the left and open on the right, so that
// the returned index is the number of edges <= x. The result always lies
// in [0, len(edges)].
func Bucket(x float64, edges []float64) int {
	return sort.Search(len(edges), func(i int) bool {
		return edges[i] > x
	})
}

// Discretizer maps continuous observation vectors to a tuple of bucket
// indices, one per dimension, using bin edges computed once at
// construction.
type Discretizer struct {
	buckets []int
	bins    [][]float64
}

// New returns a new Discretizer. Dimension i is partitioned into
// buckets[i] equal-width buckets over [lower[i], upper[i]].
func New(lower, upper []float64, buckets []int) (*Discretizer, error) {
	if len(lower) != len(upper) || len(lower) != len(buckets) {
		return nil, fmt.Errorf("new: bounds and buckets must have the same "+
			"length, have lower(%v) upper(%v) buckets(%v)", len(lower),
			len(upper), len(buckets))
	}

	bins := make([][]float64, len(buckets))
	for i := range buckets {
		edges, err := MakeBins(lower[i], upper[i], buckets[i])
		if err != nil {
			return nil, fmt.Errorf("new: dimension %v: %w", i, err)
		}
		bins[i] = edges
	}

	b := make([]int, len(buckets))
	copy(b, buckets)
	return &Discretizer{buckets: b, bins: bins}, nil
}

// Dims returns the number of observation dimensions
func (d *Discretizer) Dims() int {
	return len(d.buckets)
}

// Buckets returns the number of buckets along each dimension
func (d *Discretizer) Buckets() []int {
	b := make([]int, len(d.buckets))
	copy(b, d.buckets)
	return b
}

// Bins returns the interior bin edges of dimension i
func (d *Discretizer) Bins(i int) []float64 {
	return d.bins[i]
}

// States returns the number of distinct discretized states
func (d *Discretizer) States() int {
	return intutils.Prod(d.buckets...)
}

// Discretize buckets each dimension of obs independently. Values below
// the lowest edge map to bucket 0 and values at or above the highest
// edge map to the last bucket; out of range observations are never an
// error.
func (d *Discretizer) Discretize(obs []float64) ([]int, error) {
	if len(obs) != d.Dims() {
		return nil, fmt.Errorf("discretize: observation has %v dimensions, "+
			"expected %v", len(obs), d.Dims())
	}

	indices := make([]int, len(obs))
	for i, x := range obs {
		indices[i] = Bucket(x, d.bins[i])
	}
	return indices, nil
}

// Index flattens a tuple of bucket indices into a single row-major
// state index in [0, States()). Any index outside [0, buckets[i]) is an
// error.
func (d *Discretizer) Index(indices []int) (int, error) {
	if len(indices) != d.Dims() {
		return 0, fmt.Errorf("index: have %v indices, expected %v",
			len(indices), d.Dims())
	}

	state := 0
	for i, idx := range indices {
		if idx < 0 || idx >= d.buckets[i] {
			return 0, fmt.Errorf("index: bucket %v of dimension %v out of "+
				"range [0, %v)", idx, i, d.buckets[i])
		}
		state = state*d.buckets[i] + idx
	}
	return state, nil
}

// State discretizes obs and returns its flattened state index
func (d *Discretizer) State(obs []float64) (int, error) {
	indices, err := d.Discretize(obs)
	if err != nil {
		return 0, err
	}
	return d.Index(indices)
}
