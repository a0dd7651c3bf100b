// Package metrics holds the Prometheus collectors for the API and worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hisab"

// Metrics owns its registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	upstream     *prometheus.CounterVec
	upstreamTime *prometheus.HistogramVec
	shareIssued  prometheus.Counter
	shareViews   *prometheus.CounterVec
	sharePurged  prometheus.Counter
	exports      *prometheus.CounterVec
	rateLimited  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wordpress_requests_total",
			Help:      "Requests to the WordPress REST API by operation and status code.",
		}, []string{"op", "code"}),
		upstreamTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wordpress_request_duration_seconds",
			Help:      "WordPress REST API latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		shareIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_links_issued_total",
			Help:      "Share links issued.",
		}),
		shareViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_link_views_total",
			Help:      "Share link resolutions by outcome (ok, expired, not_found, error).",
		}, []string{"outcome"}),
		sharePurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_links_purged_total",
			Help:      "Expired share links removed by the janitor.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_exports_total",
			Help:      "Report exports by stage (published, written, skipped, failed).",
		}, []string{"stage"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.upstream, m.upstreamTime,
		m.shareIssued, m.shareViews, m.sharePurged, m.exports, m.rateLimited)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveUpstream records one WordPress call. A zero code means the request never got a response.
func (m *Metrics) ObserveUpstream(op string, code int, d time.Duration) {
	m.upstream.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.upstreamTime.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) ShareIssued() { m.shareIssued.Inc() }

func (m *Metrics) ShareViewed(outcome string) { m.shareViews.WithLabelValues(outcome).Inc() }

func (m *Metrics) SharePurged(n int64) { m.sharePurged.Add(float64(n)) }

func (m *Metrics) Export(stage string) { m.exports.WithLabelValues(stage).Inc() }

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }
