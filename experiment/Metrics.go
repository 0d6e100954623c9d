package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Episode metrics
	metricEpisodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lunarlearn",
			Name:      "episodes_total",
			Help:      "Episodes completed, by phase (warmup, train, eval)",
		},
		[]string{"phase"},
	)

	metricEpisodeReward = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "episode_reward",
			Help:      "Total reward of the most recent episode",
		},
		[]string{"phase"},
	)

	metricAverageReward = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "average_reward",
			Help:      "Average episode reward at the last check",
		},
		[]string{"phase"},
	)

	metricState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "loop_state",
			Help:      "Training loop state (0 running, 1 evaluating, 2 terminated)",
		},
	)

	// Learner metrics
	metricRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "rate",
			Help:      "Scheduled rates for the current episode",
		},
		[]string{"rate"},
	)

	metricReplaySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "replay_size",
			Help:      "Transitions held in the experience replay buffer",
		},
	)

	metricTrainSteps = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lunarlearn",
			Name:      "train_steps_total",
			Help:      "Gradient steps taken by the value approximation agent",
		},
	)

	metricLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lunarlearn",
			Name:      "loss",
			Help:      "Loss of the most recent training step",
		},
	)
)
