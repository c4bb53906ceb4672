package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestDuration observes calls made to the remote backend.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auberge_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes requests served by the back-office.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auberge_http_request_duration_seconds",
			Help:    "Back-office HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "status"},
	)

	LoaderSectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auberge_loader_section_failures_total",
			Help: "Load sections that failed and fell back to their default",
		},
		[]string{"section"},
	)

	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auberge_poll_ticks_total",
			Help: "Polling refresher ticks by poller and outcome",
		},
		[]string{"poller", "outcome"},
	)

	PushNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auberge_push_notifications_total",
			Help: "Web push notifications sent by outcome",
		},
		[]string{"outcome"},
	)

	LiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auberge_live_connections",
			Help: "Open live update connections by transport",
		},
		[]string{"transport"},
	)
)

// RecordAPIRequest records one backend round-trip. A status of 0 means the
// request never got a response.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// IncrementSectionFailure counts a degraded loader section.
func IncrementSectionFailure(section string) {
	LoaderSectionFailures.WithLabelValues(section).Inc()
}

// IncrementPollTick counts a poller tick; ok reports whether it succeeded.
func IncrementPollTick(poller string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	PollTicks.WithLabelValues(poller, outcome).Inc()
}

// IncrementPush counts a push delivery attempt.
func IncrementPush(outcome string) {
	PushNotifications.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
