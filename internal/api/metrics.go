package api

import (
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments outgoing API calls.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rastreia_api_requests_total",
				Help: "Total number of requests sent to the Rastreia+ API",
			},
			[]string{"method", "path", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rastreia_api_request_duration_seconds",
				Help:    "Rastreia+ API request duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rastreia_api_token_refreshes_total",
				Help: "Access token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the collectors registered on the default registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) observe(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	p := normalizePath(path)
	m.requests.WithLabelValues(method, p, status).Inc()
	m.duration.WithLabelValues(method, p).Observe(elapsed.Seconds())
}

func (m *Metrics) refreshed(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// normalizePath replaces numeric ids so label cardinality stays bounded.
func normalizePath(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	for idSegment.MatchString(path) {
		path = idSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
