package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmly_events_published_total",
			Help: "Domain events written to Kafka, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmly_event_publish_duration_seconds",
			Help:    "Time spent writing one domain event to Kafka",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, start time.Time, err error) {
	publishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	eventsPublished.WithLabelValues(topic, outcome).Inc()
}
