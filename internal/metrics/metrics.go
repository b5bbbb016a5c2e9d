package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CORS decision labels.
const (
	DecisionAllowed  = "allowed"
	DecisionRejected = "rejected"
	DecisionNoOrigin = "no_origin"
)

// Body parse failure labels.
const (
	ReasonMalformedJSON = "malformed_json"
	ReasonMalformedForm = "malformed_form"
	ReasonTooLarge      = "too_large"
	ReasonReadFailed    = "read_failed"
)

// PipelineMetrics counts request pipeline outcomes. All methods are safe on
// a nil receiver so stages can be built without metrics.
type PipelineMetrics struct {
	reg               *prometheus.Registry
	handler           http.Handler
	corsDecisions     *prometheus.CounterVec
	preflights        *prometheus.CounterVec
	bodyParseFailures *prometheus.CounterVec
}

// New returns a fresh registry with Go/process collectors and the pipeline counters.
func New() *PipelineMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &PipelineMetrics{
		reg: reg,
		corsDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_cors_decisions_total",
			Help: "CORS origin decisions by outcome",
		}, []string{"decision"}),
		preflights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_preflight_total",
			Help: "OPTIONS requests short-circuited by the CORS stage",
		}, []string{"allowed"}),
		bodyParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_body_parse_failures_total",
			Help: "Requests rejected by the body parsing stage by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.corsDecisions, m.preflights, m.bodyParseFailures)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PipelineMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// Registry exposes the underlying registry (for tests and extra collectors).
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// CORSDecision records the outcome of an origin check.
func (m *PipelineMetrics) CORSDecision(decision string) {
	if m == nil {
		return
	}
	m.corsDecisions.WithLabelValues(decision).Inc()
}

// Preflight records a short-circuited OPTIONS request.
func (m *PipelineMetrics) Preflight(allowed bool) {
	if m == nil {
		return
	}
	m.preflights.WithLabelValues(strconv.FormatBool(allowed)).Inc()
}

// BodyParseFailure records a request rejected by the body parsing stage.
func (m *PipelineMetrics) BodyParseFailure(reason string) {
	if m == nil {
		return
	}
	m.bodyParseFailures.WithLabelValues(reason).Inc()
}

// DecisionCounter returns the counter behind one CORS decision label.
func (m *PipelineMetrics) DecisionCounter(decision string) prometheus.Counter {
	return m.corsDecisions.WithLabelValues(decision)
}

// PreflightCounter returns the preflight counter for allowed or rejected origins.
func (m *PipelineMetrics) PreflightCounter(allowed bool) prometheus.Counter {
	return m.preflights.WithLabelValues(strconv.FormatBool(allowed))
}

// BodyParseFailureCounter returns the counter behind one failure reason.
func (m *PipelineMetrics) BodyParseFailureCounter(reason string) prometheus.Counter {
	return m.bodyParseFailures.WithLabelValues(reason)
}
