package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DonorsRegistered   prometheus.Counter
	EmergenciesCreated prometheus.Counter
	DonorsMatched      prometheus.Histogram
	NotificationsSent  *prometheus.CounterVec
	AIRequests         *prometheus.CounterVec
	AIRequestDuration  *prometheus.HistogramVec
	AIFallbacksUsed    prometheus.Counter
	HTTPRequests       *prometheus.HistogramVec
	RateLimited        *prometheus.CounterVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DonorsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "helpinghands_donors_registered_total",
			Help: "Total number of donors registered",
		}),
		EmergenciesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "helpinghands_emergencies_created_total",
			Help: "Total number of emergency requests persisted",
		}),
		DonorsMatched: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpinghands_emergency_matched_donors",
			Help:    "Number of donors matched per emergency alert",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpinghands_notifications_total",
			Help: "Notification deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),
		AIRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpinghands_ai_requests_total",
			Help: "Text-generation calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		AIRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpinghands_ai_request_duration_seconds",
			Help:    "Duration of text-generation calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"operation"}),
		AIFallbacksUsed: f.NewCounter(prometheus.CounterOpts{
			Name: "helpinghands_ai_fallback_messages_total",
			Help: "Emergency alerts that fell back to template text",
		}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpinghands_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpinghands_rate_limited_total",
			Help: "Requests rejected by the rate limiter by endpoint class",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncrementDonorsRegistered() {
	if m == nil {
		return
	}
	m.DonorsRegistered.Inc()
}

func (m *Metrics) IncrementEmergenciesCreated() {
	if m == nil {
		return
	}
	m.EmergenciesCreated.Inc()
}

func (m *Metrics) ObserveDonorsMatched(n int) {
	if m == nil {
		return
	}
	m.DonorsMatched.Observe(float64(n))
}

// RecordNotification counts one delivery attempt on sink.
func (m *Metrics) RecordNotification(sink string, err error) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(sink, outcome(err)).Inc()
}

// ObserveAIRequest records the outcome and latency of a generation call.
// Call with time.Now() captured at the start of the call.
func (m *Metrics) ObserveAIRequest(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(operation, outcome(err)).Inc()
	m.AIRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordAIRejected counts a call short-circuited by the open breaker.
func (m *Metrics) RecordAIRejected(operation string) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(operation, "rejected").Inc()
}

func (m *Metrics) IncrementAIFallbacks() {
	if m == nil {
		return
	}
	m.AIFallbacksUsed.Inc()
}

// ObserveHTTPRequest records one served request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordRateLimited(class string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(class).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
