package trackers

import (
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, nil, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, nil, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	r := NewReturn()
	for _, rewards := range [][]float64{{1, 1, 1}, {0, 0.5}, {-2}} {
		for _, step := range episode(rewards...) {
			r.Track(step)
		}
	}

	// An unfinished episode is not recorded
	for _, step := range episode(5, 5)[:2] {
		r.Track(step)
	}

	want := []float64{3, 0.5, -2}
	got := r.Returns()
	if len(got) != len(want) {
		t.Fatalf("expected %v returns, got %v", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("episode %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	filename := filepath.Join(t.TempDir(), "returns.bin")
	if err := r.Save(filename); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if loaded[i] != want[i] {
			t.Errorf("loaded episode %d: expected %v, got %v", i, want[i],
				loaded[i])
		}
	}
}

func TestReturnNonSequential(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for non-sequential timesteps")
		}
	}()

	r := NewReturn()
	r.Track(ts.New(ts.First, 0, nil, 0))
	r.Track(ts.New(ts.Mid, 1, nil, 2))
}
