package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementDonorsRegistered()
	m.IncrementDonorsRegistered()
	m.RecordNotification("redis", nil)
	m.RecordNotification("redis", errors.New("down"))
	m.ObserveAIRequest("draft", time.Now(), nil)
	m.RecordAIRejected("draft")
	m.ObserveHTTPRequest("GET", "/health", 200, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DonorsRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("redis", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("redis", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues("draft", "rejected")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequests))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDonorsRegistered()
		m.IncrementEmergenciesCreated()
		m.ObserveDonorsMatched(3)
		m.RecordNotification("log", nil)
		m.ObserveAIRequest("answer", time.Now(), nil)
		m.RecordAIRejected("answer")
		m.IncrementAIFallbacks()
		m.ObserveHTTPRequest("GET", "/health", 200, time.Now())
		m.RecordRateLimited("ai")
	})
}
