package expreplay

import (
	"bytes"
	"encoding/gob"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/lunarlearn/timestep"
)

// transition returns a transition whose fields all encode i so that its
// position in the insertion sequence can be recovered
func transition(i int) ts.Transition {
	v := float64(i)
	return ts.Transition{
		State:     mat.NewVecDense(2, []float64{v, -v}),
		Action:    i % 4,
		Reward:    v,
		NextState: mat.NewVecDense(2, []float64{v + 1, -v - 1}),
		Terminal:  i%3 == 0,
	}
}

func newBuffer(t *testing.T, batch, min, max int) *FifoBuffer {
	b, err := New(NewUniformSelector(batch, 1), min, max, 2)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}
	return b
}

func TestFifoEviction(t *testing.T) {
	const capacity = 5

	for _, k := range []int{0, 1, 4, 5, 12} {
		b := newBuffer(t, 1, 1, capacity)
		for i := 0; i < capacity+k; i++ {
			if err := b.Add(transition(i)); err != nil {
				t.Fatal(err)
			}
		}

		if b.Capacity() != capacity {
			t.Errorf("k = %v: capacity want(%v) have(%v)", k, capacity,
				b.Capacity())
		}

		contents := b.Transitions()
		if len(contents) != capacity {
			t.Fatalf("k = %v: contents length want(%v) have(%v)", k,
				capacity, len(contents))
		}
		for j, tr := range contents {
			want := transition(k + j)
			if tr.Reward != want.Reward || tr.Action != want.Action ||
				tr.Terminal != want.Terminal ||
				!mat.Equal(tr.State, want.State) ||
				!mat.Equal(tr.NextState, want.NextState) {
				t.Errorf("k = %v: position %v want(%v) have(%v)", k, j, want,
					tr)
			}
		}
	}
}

func TestPartialFill(t *testing.T) {
	b := newBuffer(t, 1, 1, 10)
	for i := 0; i < 3; i++ {
		b.Add(transition(i))
	}
	if b.Capacity() != 3 {
		t.Errorf("capacity: want(3) have(%v)", b.Capacity())
	}
	for j, tr := range b.Transitions() {
		if tr.Reward != float64(j) {
			t.Errorf("position %v: want reward %v have %v", j, j, tr.Reward)
		}
	}
}

func TestSampleUnderflow(t *testing.T) {
	b := newBuffer(t, 2, 3, 4)

	_, err := b.Sample()
	if !IsEmptyBuffer(err) {
		t.Errorf("empty buffer: want empty buffer error have %v", err)
	}

	for i := 0; i < 2; i++ {
		b.Add(transition(i))
		if _, err := b.Sample(); !IsInsufficientSamples(err) {
			t.Errorf("%v samples: want insufficient samples error have %v",
				i+1, err)
		}
	}

	b.Add(transition(2))
	batch, err := b.Sample()
	if err != nil {
		t.Fatalf("sample at min capacity: %v", err)
	}
	if batch.Size() != 2 || batch.Features() != 2 {
		t.Errorf("batch: want size 2 with 2 features have %v with %v",
			batch.Size(), batch.Features())
	}
}

func TestSampleDistinctAndUnmodified(t *testing.T) {
	b := newBuffer(t, 4, 4, 6)
	for i := 0; i < 9; i++ {
		b.Add(transition(i))
	}
	before := b.Transitions()

	for n := 0; n < 50; n++ {
		batch, err := b.Sample()
		if err != nil {
			t.Fatal(err)
		}

		seen := make(map[float64]bool)
		for i := 0; i < batch.Size(); i++ {
			r := batch.Rewards[i]
			if seen[r] {
				t.Fatalf("transition %v sampled twice in one batch", r)
			}
			seen[r] = true

			// Only the last 6 inserted transitions may be sampled
			if r < 3 || r > 8 {
				t.Fatalf("sampled evicted transition %v", r)
			}

			want := transition(int(r))
			if batch.Actions[i] != want.Action ||
				batch.Terminals[i] != want.Terminal ||
				batch.States[2*i] != want.State.AtVec(0) ||
				batch.NextStates[2*i+1] != want.NextState.AtVec(1) {
				t.Fatalf("batch row %v does not match transition %v", i, r)
			}
		}
	}

	after := b.Transitions()
	for i := range before {
		if before[i].Reward != after[i].Reward {
			t.Fatal("sampling modified the buffer")
		}
	}
}

func TestAddCopiesState(t *testing.T) {
	b := newBuffer(t, 1, 1, 2)
	tr := transition(7)
	b.Add(tr)
	tr.State.SetVec(0, 100)

	if got := b.Transitions()[0].State.AtVec(0); got != 7 {
		t.Errorf("buffer aliases added state: have %v", got)
	}
}

func TestAddInvalidFeatureSize(t *testing.T) {
	b := newBuffer(t, 1, 1, 2)
	tr := ts.Transition{
		State:     mat.NewVecDense(3, nil),
		NextState: mat.NewVecDense(3, nil),
	}
	if err := b.Add(tr); err == nil {
		t.Error("expected error adding transition with wrong feature size")
	}
	if b.Capacity() != 0 {
		t.Errorf("invalid transition was stored")
	}
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name            string
		batch, min, max int
	}{
		{"batch above min", 4, 3, 10},
		{"min above max", 2, 11, 10},
		{"zero max", 1, 1, 0},
		{"zero batch", 0, 1, 10},
	}

	for _, test := range tests {
		_, err := New(NewUniformSelector(test.batch, 1), test.min, test.max, 2)
		if err == nil {
			t.Errorf("%v: expected error", test.name)
		}
	}
}

func TestGobRoundTripKeepsOrder(t *testing.T) {
	b := newBuffer(t, 1, 1, 4)
	for i := 0; i < 7; i++ {
		b.Add(transition(i))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		t.Fatal(err)
	}

	restored := newBuffer(t, 1, 1, 4)
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatal(err)
	}

	// Further inserts must evict in the original order
	restored.Add(transition(7))
	got := restored.Transitions()
	for j, want := range []float64{4, 5, 6, 7} {
		if got[j].Reward != want {
			t.Errorf("position %v: want(%v) have(%v)", j, want, got[j].Reward)
		}
	}
}
