package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIsolatedPerInstance(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.SecondaryFailure("lead_cascade")
	a.SecondaryFailure("lead_cascade")
	b.SecondaryFailure("pdf")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.secondaryFailures.WithLabelValues("lead_cascade")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.secondaryFailures.WithLabelValues("lead_cascade")))
}

func TestObserveHTTPAndJobs(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTP("GET", "/api/leads", 200, 15*time.Millisecond)
	m.ObserveHTTP("GET", "/api/leads", 403, time.Millisecond)
	m.JobProcessed("quotation:pdf", nil)
	m.JobProcessed("quotation:pdf", errors.New("gotenberg down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/leads", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsProcessed.WithLabelValues("quotation:pdf", "failure")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit("leads")
		m.ObserveReport("leads", time.Second)
	})
}
