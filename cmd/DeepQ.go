package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/lunarlearn/agent/deepq"
	"github.com/samuelfneumann/lunarlearn/config"
	"github.com/samuelfneumann/lunarlearn/experiment"
	"github.com/samuelfneumann/lunarlearn/experiment/checkpointer"
	"github.com/samuelfneumann/lunarlearn/network"
)

// DeepQCommand trains a value approximation agent with experience
// replay
func DeepQCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deepq",
		Short: "Train a value approximation agent from experience replay",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer serveMetrics(c.Metrics.Addr)()

			learner, err := newApproximation(c)
			if err != nil {
				return err
			}

			env, closeEnv, err := newEnvironment(ctx, c)
			if err != nil {
				return err
			}
			defer closeEnv()

			training := c.Training
			training.WarmupEpisodes = c.DeepQ.WarmupEpisodes
			loop, err := experiment.New(env, learner, training)
			if err != nil {
				return err
			}

			agent := learner.Agent()
			return train(ctx, c, loop, map[string]checkpointer.Serializable{
				"valuer.bin": agent.Valuer(),
				"replay.bin": agent.Replay(),
			})
		},
	}
}

func newValuer(c config.Config) (network.ActionValuer, error) {
	features, actions := c.Variant.Features(), len(c.Actions.Codes)

	switch c.DeepQ.Network.Type {
	case config.MLP:
		return network.NewMLP(features, actions, c.DeepQ.Network.MLP)
	case config.Linear:
		return network.NewLinear(features, actions, c.DeepQ.Network.StepSize)
	}
	return nil, fmt.Errorf("newValuer: no such network %q",
		c.DeepQ.Network.Type)
}

func newApproximation(c config.Config) (*experiment.Approximation, error) {
	valuer, err := newValuer(c)
	if err != nil {
		return nil, fmt.Errorf("newApproximation: %w", err)
	}

	agent, err := deepq.New(valuer, c.DeepQ.Agent(c.Actions.Weights), c.Seed)
	if err != nil {
		return nil, fmt.Errorf("newApproximation: %w", err)
	}

	epsilon, err := c.DeepQ.Epsilon.Create()
	if err != nil {
		return nil, fmt.Errorf("newApproximation: epsilon: %w", err)
	}

	return experiment.NewApproximation(agent, epsilon)
}
