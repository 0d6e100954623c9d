package agent

import (
	"errors"
	"math"
	"testing"
)

func constValues(v ...float64) func() ([]float64, error) {
	return func() ([]float64, error) { return v, nil }
}

func TestGreedyTieBreak(t *testing.T) {
	p, err := NewEGreedy(4, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{0, 0, 0, 0}, 0},
		{[]float64{1, 2, 2, 0}, 1},
		{[]float64{-3, -1, -2, -1}, 1},
		{[]float64{0, 0, 0, 5}, 3},
	}

	for _, test := range tests {
		for i := 0; i < 10; i++ {
			got, err := p.SelectAction(0, constValues(test.values...))
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Fatalf("SelectAction(0, %v): want(%v) have(%v)",
					test.values, test.want, got)
			}
		}
	}
}

func TestExploreAlwaysSkipsValues(t *testing.T) {
	p, err := NewEGreedy(3, nil, 2)
	if err != nil {
		t.Fatal(err)
	}

	fail := func() ([]float64, error) {
		return nil, errors.New("values should not be computed")
	}
	for i := 0; i < 100; i++ {
		a, err := p.SelectAction(1, fail)
		if err != nil {
			t.Fatal(err)
		}
		if a < 0 || a >= 3 {
			t.Fatalf("action %v out of range", a)
		}
	}
}

func TestWeightedExploration(t *testing.T) {
	p, err := NewEGreedy(4, []float64{0, 1, 0, 3}, 3)
	if err != nil {
		t.Fatal(err)
	}

	const n = 20000
	counts := make([]int, 4)
	for i := 0; i < n; i++ {
		counts[p.Random()]++
	}

	if counts[0] != 0 || counts[2] != 0 {
		t.Errorf("zero-weight actions were selected: %v", counts)
	}
	frac := float64(counts[3]) / n
	if math.Abs(frac-0.75) > 0.02 {
		t.Errorf("action 3 frequency: want(0.75) have(%v)", frac)
	}
}

func TestNewEGreedyValidates(t *testing.T) {
	tests := []struct {
		name    string
		actions int
		weights []float64
	}{
		{"no actions", 0, nil},
		{"wrong weight count", 4, []float64{0.05, 0.95}},
		{"negative weight", 2, []float64{-1, 2}},
		{"zero weights", 2, []float64{0, 0}},
	}

	for _, test := range tests {
		if _, err := NewEGreedy(test.actions, test.weights, 1); err == nil {
			t.Errorf("%v: expected error", test.name)
		}
	}
}

func TestSelectActionValueErrors(t *testing.T) {
	p, _ := NewEGreedy(2, nil, 1)
	if _, err := p.SelectAction(0, constValues(1, 2, 3)); err == nil {
		t.Error("expected error for wrong number of action values")
	}
}
