package network

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLinearPredict(t *testing.T) {
	l, err := NewLinear(2, 3, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	weights := mat.NewDense(2, 3, []float64{
		1, 0, -1,
		2, 1, 0,
	})
	bias := mat.NewVecDense(3, []float64{0.5, 0, 1})
	if err := l.SetWeights(weights, bias); err != nil {
		t.Fatal(err)
	}

	values, err := l.Predict([]float64{1, 1, 0, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(2, 3, []float64{
		3.5, 1, 0,
		4.5, 2, 1,
	})
	if !mat.Equal(values, want) {
		t.Errorf("predict: \nwant \n%v \nhave \n%v", mat.Formatted(want),
			mat.Formatted(values))
	}
}

func TestLinearFit(t *testing.T) {
	l, _ := NewLinear(2, 2, 0.5)

	// Two samples, both with zero initial predictions:
	// loss = ((1-0)² + (2-0)²) / 2
	// dL/dw[:,0] = -2/2 * 1 * [1 0]
	// dL/dw[:,1] = -2/2 * 2 * [0 1]
	loss, err := l.Fit([]float64{1, 0, 0, 1}, []int{0, 1}, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-2.5) > 1e-12 {
		t.Errorf("loss: want(2.5) have(%v)", loss)
	}

	w, b := l.Weights()
	wantW := mat.NewDense(2, 2, []float64{0.5, 0, 0, 1})
	wantB := mat.NewVecDense(2, []float64{0.5, 1})
	if !mat.EqualApprox(w, wantW, 1e-12) {
		t.Errorf("weights: want %v have %v", mat.Formatted(wantW),
			mat.Formatted(w))
	}
	if !mat.EqualApprox(b, wantB, 1e-12) {
		t.Errorf("bias: want %v have %v", mat.Formatted(wantB),
			mat.Formatted(b))
	}
}

func TestLinearFitErrors(t *testing.T) {
	l, _ := NewLinear(2, 2, 0.5)

	tests := []struct {
		name    string
		states  []float64
		actions []int
		targets []float64
	}{
		{"empty", nil, nil, nil},
		{"targets", []float64{1, 1}, []int{0}, []float64{1, 2}},
		{"states", []float64{1}, []int{0}, []float64{1}},
		{"action", []float64{1, 1}, []int{2}, []float64{1}},
	}
	for _, test := range tests {
		if _, err := l.Fit(test.states, test.actions, test.targets); err == nil {
			t.Errorf("%v: expected error", test.name)
		}
	}

	if _, err := l.Predict([]float64{1, 2, 3}, 2); err == nil {
		t.Error("predict: expected error for invalid state length")
	}
}

func TestLinearGob(t *testing.T) {
	l, _ := NewLinear(2, 2, 0.5)
	l.Fit([]float64{1, 2}, []int{1}, []float64{3})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l); err != nil {
		t.Fatal(err)
	}
	restored, _ := NewLinear(2, 2, 0.1)
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatal(err)
	}

	want, _ := l.Predict([]float64{1, -1}, 1)
	have, _ := restored.Predict([]float64{1, -1}, 1)
	if !mat.Equal(want, have) {
		t.Errorf("restored predictions differ: want %v have %v",
			mat.Formatted(want), mat.Formatted(have))
	}
}
