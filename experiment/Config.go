package experiment

import (
	"fmt"
	"math"
)

// Config configures a TrainingLoop
type Config struct {
	// MaxEpisodes bounds the number of training episodes, 0 for no
	// bound
	MaxEpisodes int

	// MaxEpisodeSteps cuts episodes off after this many steps, 0 for
	// no bound. The step at which an episode is cut off is not treated
	// as terminal when learning.
	MaxEpisodeSteps int

	// Every CheckEvery training episodes the average episode reward
	// since the previous check is compared against SuccessThreshold
	CheckEvery       int
	SuccessThreshold float64

	// EvalEpisodes is the number of greedy episodes run when the
	// training average exceeds SuccessThreshold
	EvalEpisodes int

	// WarmupEpisodes random-action episodes are run before training
	WarmupEpisodes int
}

// DefaultConfig returns the training loop configuration of the lunar
// lander
func DefaultConfig() Config {
	return Config{
		MaxEpisodes:      100_000,
		MaxEpisodeSteps:  1000,
		CheckEvery:       100,
		SuccessThreshold: 0.9,
		EvalEpisodes:     100,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// TrainingLoop
func (c Config) Validate() error {
	if c.MaxEpisodes < 0 {
		return fmt.Errorf("max episodes must be non-negative \n\thave(%v)",
			c.MaxEpisodes)
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("max episode steps must be non-negative "+
			"\n\thave(%v)", c.MaxEpisodeSteps)
	}
	if c.CheckEvery <= 0 {
		return fmt.Errorf("check interval must be positive \n\thave(%v)",
			c.CheckEvery)
	}
	if c.EvalEpisodes <= 0 {
		return fmt.Errorf("evaluation episodes must be positive "+
			"\n\thave(%v)", c.EvalEpisodes)
	}
	if c.WarmupEpisodes < 0 {
		return fmt.Errorf("warmup episodes must be non-negative "+
			"\n\thave(%v)", c.WarmupEpisodes)
	}
	if math.IsNaN(c.SuccessThreshold) {
		return fmt.Errorf("success threshold cannot be NaN")
	}
	return nil
}
