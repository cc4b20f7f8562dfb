// Package metrics exports per-exchange Prometheus metrics for a provider.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// UnmatchedRoute labels exchanges that matched no registered route.
const UnmatchedRoute = "unmatched"

// Collector implements httpprovider.Observer on its own registry, so
// several providers in one process never collide.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates a collector. Namespace may be empty.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Completed HTTP exchanges by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from the first provider stage to the end of the exchange.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	c.registry.MustRegister(
		c.requests,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveExchange records one completed exchange.
func (c *Collector) ObserveExchange(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = UnmatchedRoute
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry for extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the text exposition of the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Endpoint returns a GET endpoint serving Handler at path.
func (c *Collector) Endpoint(path string, middleware ...httpprovider.Middleware) httpprovider.EndpointOptions {
	h := c.Handler()
	return httpprovider.EndpointOptions{
		Type:       httpprovider.MethodGet,
		URI:        path,
		Middleware: middleware,
		Handler: func(req httpprovider.Request, res httpprovider.Response) error {
			h.ServeHTTP(res.Native(), req.Native())
			return nil
		},
	}
}

var _ httpprovider.Observer = (*Collector)(nil)
