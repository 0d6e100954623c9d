package config

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/samuelfneumann/lunarlearn/schedule"
)

func TestDefaultsValidate(t *testing.T) {
	for _, v := range []Variant{Lunar, Cartpole} {
		c, err := Default(v)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("%v: default config is invalid: %v", v, err)
		}
	}

	if _, err := Default("pendulum"); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	data := []byte(`{
		"Variant": "cartpole",
		"Seed": 42,
		"Tabular": {"ExploreRate": [0, 0.5, 50]},
		"Training": {"MaxEpisodes": 20, "CheckEvery": 10, "EvalEpisodes": 5,
			"SuccessThreshold": 100}
	}`)

	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if c.Variant != Cartpole || c.Seed != 42 {
		t.Errorf("unexpected variant or seed: %v %v", c.Variant, c.Seed)
	}
	want := schedule.LogDecayConfig(0, 0.5, 50)
	if c.Tabular.ExploreRate.Type != want.Type ||
		c.Tabular.ExploreRate.Max != want.Max ||
		c.Tabular.ExploreRate.Decay != want.Decay {
		t.Errorf("explore rate: want %+v, have %+v", want,
			c.Tabular.ExploreRate)
	}

	// Untouched fields keep the cartpole defaults
	if len(c.Tabular.Buckets) != 4 || c.Tabular.Buckets[1] != 6 {
		t.Errorf("buckets: have %v", c.Tabular.Buckets)
	}
	if c.Tabular.LearningRate.Min != 0.2 {
		t.Errorf("learning rate: have %+v", c.Tabular.LearningRate)
	}
	if c.Training.MaxEpisodes != 20 || c.Training.CheckEvery != 10 {
		t.Errorf("training: have %+v", c.Training)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("parsed config is invalid: %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte(`{"Varient": "lunar"}`)); err == nil {
		t.Error("expected an error for a misspelled field")
	}
	if _, err := Parse([]byte(`{"Variant": "pendulum"}`)); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}

func TestSaveLoad(t *testing.T) {
	c, err := Default(Lunar)
	if err != nil {
		t.Fatal(err)
	}
	c.Transport.ReplyTimeout = Duration(3 * time.Second)
	c.Actions.Weights = []float64{0.1, 0.3, 0.3, 0.3}

	filename := filepath.Join(t.TempDir(), "config.json")
	if err := c.Save(filename); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.ReplyTimeout() != 3*time.Second {
		t.Errorf("reply timeout: have %v", loaded.ReplyTimeout())
	}
	if len(loaded.Actions.Weights) != 4 || loaded.Actions.Weights[0] != 0.1 {
		t.Errorf("weights: have %v", loaded.Actions.Weights)
	}
	if loaded.DeepQ.Epsilon.Type != schedule.LinearType ||
		len(loaded.DeepQ.Epsilon.Phases) != 2 {
		t.Errorf("epsilon: have %+v", loaded.DeepQ.Epsilon)
	}
	if got := loaded.DeepQ.Network.MLP.HiddenSizes; len(got) != 3 ||
		got[2] != 512 {
		t.Errorf("hidden sizes: have %v", got)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("loaded config is invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no actions", func(c *Config) { c.Actions.Codes = nil }},
		{"weights mismatch", func(c *Config) {
			c.Actions.Weights = []float64{0.05, 0.95}
		}},
		{"transport", func(c *Config) { c.Transport.Kind = "serial" }},
		{"buckets", func(c *Config) { c.Tabular.Buckets = []int{2, 2} }},
		{"bounds", func(c *Config) { c.Tabular.Lower[0] = 1000 }},
		{"schedule", func(c *Config) {
			c.Tabular.LearningRate = schedule.LogDecayConfig(1, 0, 10)
		}},
		{"network", func(c *Config) { c.DeepQ.Network.Type = "cnn" }},
		{"linear step size", func(c *Config) {
			c.DeepQ.Network.Type = Linear
		}},
		{"training", func(c *Config) { c.Training.CheckEvery = 0 }},
		{"replay", func(c *Config) { c.DeepQ.Replay.BatchSize = 0 }},
		{"cartpole actions", func(c *Config) { c.Variant = Cartpole }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := Default(Lunar)
			if err != nil {
				t.Fatal(err)
			}
			test.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{`"1.5s"`, 1500 * time.Millisecond},
		{`"0s"`, 0},
		{`2000000`, 2 * time.Millisecond},
	}

	for _, test := range tests {
		var d Duration
		if err := json.Unmarshal([]byte(test.in), &d); err != nil {
			t.Errorf("%v: %v", test.in, err)
			continue
		}
		if time.Duration(d) != test.want {
			t.Errorf("%v: want %v, have %v", test.in, test.want,
				time.Duration(d))
		}
	}

	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}
