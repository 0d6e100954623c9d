package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/lunarlearn/agent/qtable"
	"github.com/samuelfneumann/lunarlearn/config"
	"github.com/samuelfneumann/lunarlearn/discretizer"
	"github.com/samuelfneumann/lunarlearn/experiment"
	"github.com/samuelfneumann/lunarlearn/experiment/checkpointer"
)

// QLearnCommand trains a tabular Q-learning agent
func QLearnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "qlearn",
		Short: "Train a tabular Q-learning agent on discretized observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer serveMetrics(c.Metrics.Addr)()

			learner, err := newTabular(c)
			if err != nil {
				return err
			}

			env, closeEnv, err := newEnvironment(ctx, c)
			if err != nil {
				return err
			}
			defer closeEnv()

			// A Q table has nothing to warm up
			training := c.Training
			training.WarmupEpisodes = 0
			loop, err := experiment.New(env, learner, training)
			if err != nil {
				return err
			}

			return train(ctx, c, loop, map[string]checkpointer.Serializable{
				"qtable.bin": learner.Table(),
			})
		},
	}
}

func newTabular(c config.Config) (*experiment.Tabular, error) {
	t := c.Tabular
	d, err := discretizer.New(t.Lower, t.Upper, t.Buckets)
	if err != nil {
		return nil, fmt.Errorf("newTabular: %w", err)
	}

	q, err := qtable.NewQLearner(qtable.Config{
		States:        d.States(),
		Actions:       len(c.Actions.Codes),
		ActionWeights: c.Actions.Weights,
	}, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("newTabular: %w", err)
	}

	learningRate, err := t.LearningRate.Create()
	if err != nil {
		return nil, fmt.Errorf("newTabular: learning rate: %w", err)
	}
	discount, err := t.Discount.Create()
	if err != nil {
		return nil, fmt.Errorf("newTabular: discount: %w", err)
	}
	exploreRate, err := t.ExploreRate.Create()
	if err != nil {
		return nil, fmt.Errorf("newTabular: explore rate: %w", err)
	}

	return experiment.NewTabular(d, q, learningRate, discount, exploreRate)
}
