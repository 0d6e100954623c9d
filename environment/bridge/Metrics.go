package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRoundTrip = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lunarlearn",
			Subsystem: "bridge",
			Name:      "round_trip_seconds",
			Help:      "Time from publishing a request to receiving its reply",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"request"},
	)

	metricDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lunarlearn",
			Subsystem: "bridge",
			Name:      "discarded_replies_total",
			Help:      "Replies received while no request was pending",
		},
	)

	metricReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lunarlearn",
			Subsystem: "bridge",
			Name:      "replaced_replies_total",
			Help:      "Unconsumed replies overwritten by a later reply",
		},
	)

	metricStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lunarlearn",
			Subsystem: "bridge",
			Name:      "stale_replies_total",
			Help:      "Late replies to requests that timed out or were cancelled",
		},
	)
)
