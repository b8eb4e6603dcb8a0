package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	automationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmaker_automation_runs_total",
			Help: "Total number of automation runs by final result",
		},
		[]string{"result"},
	)

	automationSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmaker_automation_steps_total",
			Help: "Total number of executed automation steps by result",
		},
		[]string{"result"},
	)

	stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "projectmaker_automation_step_duration_seconds",
			Help:    "Wall time spent executing a single automation step",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmaker_gateway_requests_total",
			Help: "Total number of LLM gateway requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projectmaker_gateway_request_duration_seconds",
			Help:    "Latency of LLM gateway requests",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"endpoint"},
	)

	featuresCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmaker_features_created_total",
			Help: "Total number of features created (manual and generated)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		automationRuns,
		automationSteps,
		stepDuration,
		gatewayRequests,
		gatewayLatency,
		featuresCreated,
	)
}

// TrackRun records the final result ("success" or "failed") of an automation run.
func TrackRun(result string) {
	automationRuns.WithLabelValues(result).Inc()
}

// TrackStep records one executed automation step.
func TrackStep(result string, duration time.Duration) {
	automationSteps.WithLabelValues(result).Inc()
	stepDuration.Observe(duration.Seconds())
}

// TrackGatewayRequest records one LLM gateway call.
func TrackGatewayRequest(endpoint, outcome string, duration time.Duration) {
	gatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	gatewayLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// TrackFeatureCreated records a feature insert.
func TrackFeatureCreated() {
	featuresCreated.Inc()
}

// MetricsHandler returns the Prometheus scrape handler for mounting on a mux.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
