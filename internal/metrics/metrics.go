// Package metrics exports poll snapshots as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/poller"
	"github.com/muurk/isoft/internal/register"
)

const namespace = "isoft"

// Exporter holds the softener gauges on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	hardness      *prometheus.GaugeVec
	salt          *prometheus.GaugeVec
	volume        *prometheus.GaugeVec
	operatingTime *prometheus.GaugeVec
	statistics    *prometheus.GaugeVec
	lastPoll      *prometheus.GaugeVec
	failures      *prometheus.CounterVec
}

// New creates an exporter with the softener metrics plus the Go and
// process collectors registered.
func New() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),

		hardness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_hardness_dh",
			Help:      "Water hardness in degrees of German hardness.",
		}, []string{"device"}),

		salt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "salt_level_grams",
			Help:      "Remaining regeneration salt in grams.",
		}, []string{"device"}),

		volume: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_volume_cubic_meters",
			Help:      "Water counters in cubic meters, by kind (total, soft).",
		}, []string{"device", "kind"}),

		operatingTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operating_time_minutes",
			Help:      "Operating time counter in minutes.",
		}, []string{"device"}),

		statistics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "statistics_liters",
			Help:      "Consumption of the current period in liters.",
		}, []string{"device", "period"}),

		lastPoll: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last completed poll cycle.",
		}, []string{"device"}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Measurements that produced no value, by measurement.",
		}, []string{"device", "measurement"}),
	}

	e.registry.MustRegister(
		e.hardness,
		e.salt,
		e.volume,
		e.operatingTime,
		e.statistics,
		e.lastPoll,
		e.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return e
}

// Registry exposes the exporter's registry (for tests and extra collectors)
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Name identifies the exporter as a poller sink
func (e *Exporter) Name() string {
	return "metrics"
}

// Consume implements poller.Sink
func (e *Exporter) Consume(_ context.Context, snap poller.Snapshot) error {
	e.Observe(snap)
	return nil
}

// Observe updates gauges from the snapshot. Gauges of failed measurements
// keep their previous value; the failure counter records the gap.
func (e *Exporter) Observe(snap poller.Snapshot) {
	dev := snap.Device

	for k, r := range snap.Readings {
		switch k {
		case device.KindWaterHardness:
			e.hardness.WithLabelValues(dev).Set(r.Numeric)
		case device.KindSaltLevel:
			e.salt.WithLabelValues(dev).Set(r.Numeric)
		case device.KindTotalWaterVolume:
			e.volume.WithLabelValues(dev, "total").Set(r.Numeric)
		case device.KindSoftWaterVolume:
			e.volume.WithLabelValues(dev, "soft").Set(r.Numeric)
		case device.KindOperatingHours:
			e.operatingTime.WithLabelValues(dev).Set(r.Numeric)
		case device.KindDailyStatistics, device.KindWeeklyStatistics,
			device.KindMonthlyStatistics, device.KindYearlyStatistics:
			if stats, ok := r.Value.(register.Statistics); ok {
				e.statistics.WithLabelValues(dev, stats.Period.String()).Set(float64(stats.Total))
			}
		}
	}

	for k := range snap.Failures {
		e.failures.WithLabelValues(dev, k.String()).Inc()
	}

	e.lastPoll.WithLabelValues(dev).Set(float64(snap.At.Unix()))
}
