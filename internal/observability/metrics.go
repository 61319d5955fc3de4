package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	submissionsTotal   *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	authFailuresTotal  *prometheus.CounterVec
	usersImportedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submission attempts by outcome.",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Submission events handed to the notifier, by backend and result.",
		}, []string{"backend", "result"})

		authFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected Basic authentication attempts by reason.",
		}, []string{"reason"})

		usersImportedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "users_imported_total",
			Help: "Rows processed by the CSV user bootstrap, by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			notificationsTotal,
			authFailuresTotal,
			usersImportedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// NotificationsPublished exposes the notifier counter.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// AuthFailures exposes the authentication failure counter.
func AuthFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return authFailuresTotal
}

// UsersImported exposes the CSV bootstrap counter.
func UsersImported() *prometheus.CounterVec {
	RegisterMetrics()
	return usersImportedTotal
}
