package qtable

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"
)

func newLearner(t *testing.T, states, actions int) *QLearner {
	q, err := NewQLearner(Config{States: states, Actions: actions}, 1)
	if err != nil {
		t.Fatalf("could not create learner: %v", err)
	}
	return q
}

func TestUpdateTerminal(t *testing.T) {
	tests := []struct {
		initial, reward, lr float64
	}{
		{0, 1, 0.5},
		{2, 1, 0.2},
		{-1, 0, 1},
		{0.3, -4, 0.7},
	}

	for _, test := range tests {
		q := newLearner(t, 4, 2)
		q.Table().Set(1, 0, test.initial)
		// A large next-state value must be ignored on terminal steps
		q.Table().Set(2, 1, 100)

		if err := q.Update(1, 0, 2, test.reward, true, test.lr, 0.99); err != nil {
			t.Fatal(err)
		}

		want := test.initial + test.lr*(test.reward-test.initial)
		got, _ := q.Table().At(1, 0)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("terminal update %+v: want(%v) have(%v)", test, want, got)
		}
	}
}

func TestUpdateBootstrap(t *testing.T) {
	q := newLearner(t, 3, 3)
	q.Table().Set(0, 2, 0.5)
	q.Table().Set(1, 0, -1)
	q.Table().Set(1, 1, 3)
	q.Table().Set(1, 2, 2)

	const lr, gamma, r = 0.7, 0.9, 1.0
	if err := q.Update(0, 2, 1, r, false, lr, gamma); err != nil {
		t.Fatal(err)
	}

	want := 0.5 + lr*(r+gamma*3-0.5)
	got, _ := q.Table().At(0, 2)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("bootstrapped update: want(%v) have(%v)", want, got)
	}

	// Other entries are untouched
	if v, _ := q.Table().At(1, 1); v != 3 {
		t.Errorf("next state value modified: %v", v)
	}
}

func TestUpdateOutOfRangeFailsFast(t *testing.T) {
	q := newLearner(t, 2, 2)

	tests := []struct {
		name                     string
		state, action, nextState int
	}{
		{"state", 2, 0, 0},
		{"negative state", -1, 0, 0},
		{"action", 0, 2, 0},
		{"next state", 0, 0, 5},
	}

	for _, test := range tests {
		for _, terminal := range []bool{true, false} {
			err := q.Update(test.state, test.action, test.nextState, 1,
				terminal, 0.5, 1)
			if err == nil {
				t.Errorf("%v (terminal=%v): expected error", test.name,
					terminal)
			}
		}
	}

	m := q.Table().Matrix()
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				t.Fatalf("failed update modified the table at (%v, %v)", i, j)
			}
		}
	}
}

func TestSelectActionGreedy(t *testing.T) {
	q := newLearner(t, 2, 4)
	q.Table().Set(1, 2, 1)
	q.Table().Set(1, 3, 1)

	for i := 0; i < 20; i++ {
		a, err := q.SelectAction(1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if a != 2 {
			t.Fatalf("greedy action: want(2) have(%v)", a)
		}
	}

	if _, err := q.SelectAction(9, 0); err == nil {
		t.Error("expected error selecting action in unknown state")
	}
}

func TestGobRoundTrip(t *testing.T) {
	q := newLearner(t, 3, 2)
	q.Table().Set(2, 1, 4.5)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(q.Table()); err != nil {
		t.Fatal(err)
	}

	restored, _ := New(3, 2)
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatal(err)
	}
	if v, _ := restored.At(2, 1); v != 4.5 {
		t.Errorf("restored value: want(4.5) have(%v)", v)
	}

	var wrongShape bytes.Buffer
	gob.NewEncoder(&wrongShape).Encode(q.Table())
	other, _ := New(4, 2)
	if err := gob.NewDecoder(&wrongShape).Decode(other); err == nil {
		t.Error("expected error decoding table of a different shape")
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []Config{
		{States: 0, Actions: 2},
		{States: 2, Actions: 0},
		{States: 2, Actions: 4, ActionWeights: []float64{0.05, 0.95}},
	}
	for _, c := range bad {
		if _, err := NewQLearner(c, 1); err == nil {
			t.Errorf("%+v: expected error", c)
		}
	}
}
