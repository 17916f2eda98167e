package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WithMetrics instruments backend requests on the given registerer: a request
// counter by status code and method, and a latency histogram by method. Each
// registerer may instrument a single client.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = reg
	}
}

// instrument wraps the transport of hc with the request collectors.
func instrument(hc *http.Client, reg prometheus.Registerer) error {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dqm",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of backend requests by status code and method",
	}, []string{"code", "method"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dqm",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Duration of backend requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	for _, collector := range []prometheus.Collector{requests, latency} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}

	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = promhttp.InstrumentRoundTripperCounter(requests,
		promhttp.InstrumentRoundTripperDuration(latency, next))
	return nil
}
