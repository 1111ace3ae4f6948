package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the Prometheus collectors of the service. A nil *Registry is
// valid and records nothing.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PredictionsTotal     *prometheus.CounterVec
	PredictionFailures   *prometheus.CounterVec
	ModelCallAttempts    *prometheus.CounterVec
	HistoryWriteFailures prometheus.Counter
	CatalogLoadsTotal    *prometheus.CounterVec
}

// NewRegistry registers all collectors on reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightontime_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightontime_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightontime_predictions_total",
				Help: "Successful predictions by result",
			},
			[]string{"result"},
		),
		PredictionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightontime_prediction_failures_total",
				Help: "Failed predictions by error code",
			},
			[]string{"code"},
		),
		ModelCallAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightontime_model_call_attempts_total",
				Help: "Calls to the prediction model by outcome",
			},
			[]string{"outcome"},
		),
		HistoryWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "flightontime_history_write_failures_total",
				Help: "Predictions returned to the caller but not recorded",
			},
		),
		CatalogLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightontime_catalog_loads_total",
				Help: "Catalog loads from the reference source by catalog and outcome",
			},
			[]string{"catalog", "outcome"},
		),
	}
}

func (r *Registry) ObserveHTTP(endpoint, method, status string, seconds float64) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

func (r *Registry) PredictionSucceeded(result string) {
	if r == nil {
		return
	}
	r.PredictionsTotal.WithLabelValues(result).Inc()
}

func (r *Registry) PredictionFailed(code string) {
	if r == nil {
		return
	}
	r.PredictionFailures.WithLabelValues(code).Inc()
}

func (r *Registry) ModelAttempt(outcome string) {
	if r == nil {
		return
	}
	r.ModelCallAttempts.WithLabelValues(outcome).Inc()
}

func (r *Registry) HistoryWriteFailed() {
	if r == nil {
		return
	}
	r.HistoryWriteFailures.Inc()
}

func (r *Registry) CatalogLoaded(catalog, outcome string) {
	if r == nil {
		return
	}
	r.CatalogLoadsTotal.WithLabelValues(catalog, outcome).Inc()
}
