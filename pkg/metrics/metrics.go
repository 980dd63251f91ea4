package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration, storage and address lookups.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	WizardTransitions *prometheus.CounterVec
	Registrations     prometheus.Counter
	AddressLookups    *prometheus.CounterVec
	LookupDuration    prometheus.Histogram
	RepositoryOps     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WizardTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dresscode_wizard_transitions_total",
			Help: "Wizard actions by step, action and result",
		}, []string{"step", "action", "result"}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "dresscode_registrations_total",
			Help: "Total number of completed registrations",
		}),
		AddressLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dresscode_address_lookups_total",
			Help: "Postal code lookups by source and status",
		}, []string{"source", "status"}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dresscode_address_lookup_duration_seconds",
			Help:    "Duration of remote postal code lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		RepositoryOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dresscode_repository_operations_total",
			Help: "User repository operations by op and result",
		}, []string{"op", "result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dresscode_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dresscode_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) ObserveTransition(step int, action, result string) {
	if m == nil {
		return
	}
	m.WizardTransitions.WithLabelValues(stepLabel(step), action, result).Inc()
}

func (m *Metrics) IncrementRegistrations() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) ObserveLookup(source, status string) {
	if m == nil {
		return
	}
	m.AddressLookups.WithLabelValues(source, status).Inc()
}

// ObserveLookupDuration records a remote lookup. Call with time.Now() taken before the call.
func (m *Metrics) ObserveLookupDuration(start time.Time) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRepository(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RepositoryOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func stepLabel(step int) string {
	if step <= 0 {
		return "welcome"
	}
	return strconv.Itoa(step)
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
