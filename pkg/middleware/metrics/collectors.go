package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the HTTP metrics and the registry they are exported from.
type Collector struct {
	reg *prometheus.Registry

	responseTime              prometheus.Histogram
	totalHttpRequestsFromRole *prometheus.CounterVec
	totalHttpRequestsToUri    *prometheus.CounterVec
	totalHttpRequests         *prometheus.CounterVec

	skipPaths      map[string]struct{}
	pathNormalizer func(*http.Request) string
}

// NewCollector registers the HTTP collectors plus the Go runtime and process
// collectors on a fresh registry.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
		}),
		totalHttpRequestsFromRole: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_from_role", Help: "http requests from role"},
			[]string{"role"},
		),
		totalHttpRequestsToUri: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
			[]string{"code", "uri", "method"},
		),
		totalHttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		skipPaths:      map[string]struct{}{"/metrics": {}},
		pathNormalizer: func(r *http.Request) string { return r.URL.Path },
	}
	for _, o := range opts {
		o(c)
	}
	c.reg.MustRegister(
		c.responseTime,
		c.totalHttpRequestsFromRole,
		c.totalHttpRequestsToUri,
		c.totalHttpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
