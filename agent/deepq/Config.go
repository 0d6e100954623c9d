package deepq

import (
	"fmt"

	"github.com/samuelfneumann/lunarlearn/expreplay"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	Discount float64

	// Experience replay parameters. Training starts once the buffer
	// holds more than BatchSize transitions, so MinReplayCapacity may
	// be at most BatchSize+1.
	ExpReplay expreplay.Config

	// ActionWeights are the relative probabilities of each action being
	// chosen when exploring. If nil, exploration is uniform.
	ActionWeights []float64
}

// DefaultConfig returns the configuration used for the lunar lander
func DefaultConfig() Config {
	return Config{
		Discount: 0.99,
		ExpReplay: expreplay.Config{
			MaxReplayCapacity: 100_000,
			MinReplayCapacity: 513,
			BatchSize:         512,
		},
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1] \n\thave(%v)",
			c.Discount)
	}
	if err := c.ExpReplay.Validate(); err != nil {
		return fmt.Errorf("invalid replay config: %v", err)
	}
	if c.ExpReplay.MinReplayCapacity > c.ExpReplay.BatchSize+1 {
		return fmt.Errorf("minimum replay capacity (%v) must not exceed "+
			"batch size + 1 (%v)", c.ExpReplay.MinReplayCapacity,
			c.ExpReplay.BatchSize+1)
	}
	return nil
}
