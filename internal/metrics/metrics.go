// Package metrics exposes ingest and sink counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TempDash/internal/model"
)

// Metrics holds the collectors on a private registry. All methods are safe on a nil receiver.
type Metrics struct {
	registry    *prometheus.Registry
	lines       *prometheus.CounterVec
	readings    *prometheus.CounterVec
	temperature *prometheus.GaugeVec
	rssi        *prometheus.GaugeVec
	lastSeen    *prometheus.GaugeVec
	connected   prometheus.Gauge
	disconnects prometheus.Counter
	sinkErrors  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tempdash_lines_total",
			Help: "Serial lines received, by parse result.",
		}, []string{"result"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tempdash_readings_total",
			Help: "Readings received, by source node.",
		}, []string{"name"}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tempdash_temperature_celsius",
			Help: "Last temperature reported by each node.",
		}, []string{"name"}),
		rssi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tempdash_rssi_dbm",
			Help: "Last signal strength reported for each node.",
		}, []string{"name"}),
		lastSeen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tempdash_last_reading_timestamp_seconds",
			Help: "Unix time of the last reading from each node.",
		}, []string{"name"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tempdash_serial_connected",
			Help: "1 while a reader is attached to the probe port.",
		}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempdash_serial_disconnects_total",
			Help: "Read-level I/O failures that ended the ingest loop.",
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tempdash_sink_errors_total",
			Help: "Failed reading writes, by sink.",
		}, []string{"sink"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.lines,
		m.readings,
		m.temperature,
		m.rssi,
		m.lastSeen,
		m.connected,
		m.disconnects,
		m.sinkErrors,
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) LineMatched() {
	if m == nil {
		return
	}
	m.lines.WithLabelValues("matched").Inc()
}

func (m *Metrics) LineDropped() {
	if m == nil {
		return
	}
	m.lines.WithLabelValues("dropped").Inc()
}

// ObserveReading records the values of a dispatched reading.
func (m *Metrics) ObserveReading(r model.Reading) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(r.Name).Inc()
	m.temperature.WithLabelValues(r.Name).Set(r.TemperatureC)
	m.rssi.WithLabelValues(r.Name).Set(float64(r.RSSI))
	m.lastSeen.WithLabelValues(r.Name).Set(float64(r.CapturedAt.UnixNano()) / 1e9)
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

func (m *Metrics) Disconnected() {
	if m == nil {
		return
	}
	m.disconnects.Inc()
	m.connected.Set(0)
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}
