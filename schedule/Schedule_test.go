package schedule

import (
	"encoding/json"
	"math"
	"testing"
)

func TestLogDecayBounded(t *testing.T) {
	params := []LogDecay{
		{0.2, 0.7, 200},
		{1, 1, 1},
		{0, 0.3, 100},
		{0.05, 1, 250},
		{0, 0.7, 200},
		{0.01, 5, 0.5},
	}

	for _, p := range params {
		for n := 0; n < 100_000; n += 7 {
			r := p.Rate(n)
			if r < p.Min || r > p.Max {
				t.Fatalf("%+v: rate(%v) = %v outside [%v, %v]", p, n, r,
					p.Min, p.Max)
			}
		}
	}
}

func TestLogDecayNonIncreasing(t *testing.T) {
	params := []LogDecay{
		{0.2, 0.7, 200},
		{0, 0.3, 100},
		{0.01, 1, 25},
	}

	for _, p := range params {
		prev := p.Rate(0)
		for n := 1; n < 50_000; n++ {
			r := p.Rate(n)
			if r > prev {
				t.Fatalf("%+v: rate increased from %v to %v at attempt %v",
					p, prev, r, n)
			}
			prev = r
		}
	}
}

func TestLogDecayValues(t *testing.T) {
	tests := []struct {
		s       LogDecay
		attempt int
		want    float64
	}{
		// Clipped at max before the decay constant is reached
		{LogDecay{0.2, 0.7, 200}, 1, 0.7},
		{LogDecay{0.2, 0.7, 200}, 199, 0.7},

		// One decade after the decay constant, rate falls by 1
		{LogDecay{0, 3, 10}, 99, 2},

		// Clipped at min
		{LogDecay{0.2, 0.7, 200}, 100_000, 0.2},
		{LogDecay{0, 0.3, 100}, 999, 0},

		// Constant when min == max
		{LogDecay{1, 1, 1}, 12345, 1},
	}

	for _, test := range tests {
		got := test.s.Rate(test.attempt)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%+v.Rate(%v): want(%v) have(%v)", test.s, test.attempt,
				test.want, got)
		}
	}
}

func TestNewLogDecayValidates(t *testing.T) {
	if _, err := NewLogDecay(1, 0, 10); err == nil {
		t.Error("expected error when min > max")
	}
	if _, err := NewLogDecay(0, 1, 0); err == nil {
		t.Error("expected error when decay is zero")
	}
	if _, err := NewLogDecay(0, 1, 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLinear(t *testing.T) {
	s, err := NewLinear(1, Phase{Episodes: 2000, Target: 0.1},
		Phase{Episodes: 3000, Target: 0.01})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		attempt int
		want    float64
	}{
		{0, 1},
		{1000, 0.55},
		{2000, 0.1},
		{3500, 0.055},
		{5000, 0.01},
		{1_000_000, 0.01},
	}

	for _, test := range tests {
		if got := s.Rate(test.attempt); math.Abs(got-test.want) > 1e-9 {
			t.Errorf("Rate(%v): want(%v) have(%v)", test.attempt, test.want,
				got)
		}
	}
}

func TestConfigUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		at   int
		want float64
	}{
		{"triple", `[0.2, 0.7, 200]`, 0, 0.7},
		{"logdecay", `{"Type": "LogDecay", "Min": 0, "Max": 0.3,
			"Decay": 100}`, 999, 0},
		{"constant", `{"Type": "Constant", "Initial": 0.99}`, 10, 0.99},
		{"linear", `{"Type": "Linear", "Initial": 1, "Phases":
			[{"Episodes": 10, "Target": 0}]}`, 5, 0.5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var c Config
			if err := json.Unmarshal([]byte(test.json), &c); err != nil {
				t.Fatal(err)
			}
			s, err := c.Create()
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Rate(test.at); math.Abs(got-test.want) > 1e-12 {
				t.Errorf("Rate(%v): want(%v) have(%v)", test.at, test.want,
					got)
			}
		})
	}

	var c Config
	if err := json.Unmarshal([]byte(`[1, 2]`), &c); err == nil {
		t.Error("expected error for short triple")
	}
}
