// Package metrics defines the Prometheus collectors for the intake path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adcstream"

// Metrics groups the collectors updated by the sampler, stream and control
// servers.
type Metrics struct {
	Samples         prometheus.Counter
	BlocksDropped   prometheus.Counter
	StreamBytes     prometheus.Counter
	StreamClients   prometheus.Gauge
	ControlRequests *prometheus.CounterVec

	reg prometheus.Registerer
}

// New creates the collectors and registers them with reg.
// It panics if any of them is already registered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "ADC samples accepted into the intake buffer.",
		}),
		BlocksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_dropped_total",
			Help:      "Sample blocks dropped because the intake buffer was full.",
		}),
		StreamBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_bytes_total",
			Help:      "Bytes written to stream clients.",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected stream clients (0 or 1).",
		}),
		ControlRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_requests_total",
			Help:      "DAC control requests by response code.",
		}, []string{"code"}),
		reg: reg,
	}

	reg.MustRegister(
		m.Samples,
		m.BlocksDropped,
		m.StreamBytes,
		m.StreamClients,
		m.ControlRequests,
	)
	return m
}

// WatchRing exports the intake buffer's usable capacity and its occupancy,
// which is read on every scrape.
func (m *Metrics) WatchRing(occupied func() int, capacity int) {
	capGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ring_capacity",
		Help:      "Usable capacity of the intake ring.",
	})
	capGauge.Set(float64(capacity))

	m.reg.MustRegister(
		capGauge,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ring_occupied",
			Help:      "Elements buffered in the intake ring.",
		}, func() float64 { return float64(occupied()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
