package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockwatch_backend_requests_total",
		Help: "Requests sent to the prediction backend by operation and outcome",
	}, []string{"op", "outcome"})

	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rockwatch_backend_request_duration_seconds",
		Help:    "Latency of prediction backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	PollFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockwatch_poll_fetches_total",
		Help: "Live snapshot fetches by outcome",
	}, []string{"outcome"})

	RiskProbability = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rockwatch_risk_probability",
		Help: "Risk probability of the latest live snapshot (percent)",
	})

	RiskLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rockwatch_risk_level",
		Help: "Risk category rank of the latest live snapshot (1=Low .. 4=Critical)",
	})

	HistoryLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rockwatch_history_length",
		Help: "Entries currently held in the live history window",
	})

	BackendOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rockwatch_backend_online",
		Help: "1 when the last backend health check succeeded",
	})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockwatch_validation_failures_total",
		Help: "Rejected prediction form submissions by kind",
	}, []string{"kind"})

	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockwatch_predictions_total",
		Help: "Form predictions returned by the backend by risk category",
	}, []string{"category"})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rockwatch_sink_errors_total",
		Help: "Snapshot delivery failures by sink",
	}, []string{"sink"})
)
