// package metrics collects Prometheus metrics for the poller, scoreboard, notifications and HTTP API.
//
// All Record methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results recorded by [Metrics.RecordPoll].
const (
	PollLive    = "live"
	PollOffline = "offline"
	PollError   = "error"
	PollHalted  = "halted"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	polls          *prometheus.CounterVec
	pollLatency    prometheus.Histogram
	live           prometheus.Gauge
	polling        prometheus.Gauge
	scoreUpdates   *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	wsClients      prometheus.Gauge
}

// New creates a collector set registered on its own registry, including Go runtime metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tclive",
			Name:      "live_polls_total",
			Help:      "Live stream poll cycles by result.",
		}, []string{"result"}),
		pollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tclive",
			Name:      "live_poll_duration_seconds",
			Help:      "Duration of live search requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tclive",
			Name:      "live_stream_active",
			Help:      "1 while a live stream is being shown.",
		}),
		polling: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tclive",
			Name:      "live_polling_active",
			Help:      "1 while automatic polling is running.",
		}),
		scoreUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tclive",
			Name:      "score_updates_total",
			Help:      "Scoreboard updates by house.",
		}, []string{"house"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tclive",
			Name:      "notifications_sent_total",
			Help:      "Notifications sent by backend and outcome.",
		}, []string{"backend", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tclive",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tclive",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tclive",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.polls, m.pollLatency, m.live, m.polling,
		m.scoreUpdates, m.notifications,
		m.requests, m.requestLatency, m.wsClients,
	)

	return m
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordPoll counts a poll cycle and its search latency.
func (m *Metrics) RecordPoll(result string, latency time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollLatency.Observe(latency.Seconds())
}

// SetLive toggles the live stream gauge.
func (m *Metrics) SetLive(live bool) {
	if m == nil {
		return
	}
	m.live.Set(boolValue(live))
}

// SetPolling toggles the polling gauge.
func (m *Metrics) SetPolling(running bool) {
	if m == nil {
		return
	}
	m.polling.Set(boolValue(running))
}

// RecordScoreUpdate counts a scoreboard change.
func (m *Metrics) RecordScoreUpdate(house string) {
	if m == nil {
		return
	}
	m.scoreUpdates.WithLabelValues(house).Inc()
}

// RecordNotification counts a delivery attempt.
func (m *Metrics) RecordNotification(backend string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.notifications.WithLabelValues(backend, outcome).Inc()
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method).Observe(latency.Seconds())
}

// SetClients sets the connected websocket client count.
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
