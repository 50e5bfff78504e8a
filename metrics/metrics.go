package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Profile save metrics
	ProfileSaveStatesTotal *prometheus.CounterVec
	ProfileSavesTotal      *prometheus.CounterVec
	AvatarUploadBytes      prometheus.Histogram

	// Collaborators
	CourseAPIRequestsTotal *prometheus.CounterVec
	AuthEventsTotal        *prometheus.CounterVec
	SocketConnections      prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all metrics with the default registry
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "loopr_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "loopr_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path", "status"},
			),
			ProfileSaveStatesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "loopr_profile_save_states_total",
					Help: "Profile save state transitions",
				},
				[]string{"state"},
			),
			ProfileSavesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "loopr_profile_saves_total",
					Help: "Finished profile saves by outcome (succeeded or the failure kind)",
				},
				[]string{"outcome"},
			),
			AvatarUploadBytes: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "loopr_avatar_upload_bytes",
					Help:    "Size of uploaded profile pictures",
					Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
				},
			),
			CourseAPIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "loopr_course_api_requests_total",
					Help: "Requests made to the golf course API",
				},
				[]string{"op", "status"},
			),
			AuthEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "loopr_auth_events_total",
					Help: "Sign up, login, refresh and logout attempts",
				},
				[]string{"event", "result"},
			),
			SocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "loopr_socket_connections",
					Help: "Open socket.io connections",
				},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// RecordSaveState counts one state transition of a profile save. kind is the
// failure kind and is only used for the "failed" state.
func (m *Metrics) RecordSaveState(state, kind string) {
	m.ProfileSaveStatesTotal.WithLabelValues(state).Inc()
	switch state {
	case "succeeded":
		m.ProfileSavesTotal.WithLabelValues("succeeded").Inc()
	case "failed":
		if kind == "" {
			kind = "unknown"
		}
		m.ProfileSavesTotal.WithLabelValues(kind).Inc()
	}
}

// RecordAuthEvent counts an auth attempt
func (m *Metrics) RecordAuthEvent(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AuthEventsTotal.WithLabelValues(event, result).Inc()
}
