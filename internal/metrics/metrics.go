package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters exported on /metrics
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	assets      *prometheus.CounterVec
}

// New registers the churnform collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churnform",
			Name:      "predictions_total",
			Help:      "Form submissions scored by the model, by outcome.",
		}, []string{"outcome"}),
		assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churnform",
			Name:      "asset_fetch_total",
			Help:      "Decorative animation fetches, by asset and result.",
		}, []string{"asset", "result"}),
	}
	reg.MustRegister(m.predictions, m.assets)
	return m
}

// Predicted counts one prediction
func (m *Metrics) Predicted(outcome string) {
	m.predictions.WithLabelValues(outcome).Inc()
}

// AssetFetched counts one animation fetch
func (m *Metrics) AssetFetched(asset string, ok bool) {
	result := "absent"
	if ok {
		result = "loaded"
	}
	m.assets.WithLabelValues(asset, result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
