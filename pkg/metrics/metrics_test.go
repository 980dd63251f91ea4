package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition(1, "next", "blocked")
	m.ObserveTransition(1, "next", "blocked")
	m.IncrementRegistrations()
	m.ObserveLookup("cache", "ok")
	m.ObserveRepository("save", errors.New("boom"))
	m.ObserveHTTP("/api/users", "GET", 404, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WizardTransitions.WithLabelValues("1", "next", "blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AddressLookups.WithLabelValues("cache", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepositoryOps.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/users", "GET", "4xx")))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition(2, "back", "ok")
		m.IncrementRegistrations()
		m.ObserveLookup("api", "ok")
		m.ObserveLookupDuration(time.Now())
		m.ObserveRepository("list", nil)
		m.ObserveHTTP("/", "GET", 200, time.Now())
	})
}

func TestStepLabel(t *testing.T) {
	assert.Equal(t, "welcome", stepLabel(0))
	assert.Equal(t, "6", stepLabel(6))
}
