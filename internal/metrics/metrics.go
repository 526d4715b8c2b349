// Package metrics exposes Prometheus instrumentation for the storage engine.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Collector holds the engine metrics. A nil *Collector is valid and records
// nothing, so the engine can call it unconditionally.
type Collector struct {
	registry *prometheus.Registry

	OperationsTotal  *prometheus.CounterVec
	BytesAppended    prometheus.Counter
	LiveKeys         prometheus.Gauge
	Segments         prometheus.Gauge
	ActiveGeneration prometheus.Gauge
	ReplayedRecords  prometheus.Counter
	ReplayDuration   prometheus.Histogram
}

// New creates a Collector with its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the engine metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	c := &Collector{registry: reg}

	c.OperationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvs_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	c.BytesAppended = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_log_bytes_appended_total",
			Help: "Bytes appended to segment files",
		},
	)

	c.LiveKeys = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "kvs_live_keys",
			Help: "Number of keys currently present in the index",
		},
	)

	c.Segments = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "kvs_segments",
			Help: "Number of segment files known to the store",
		},
	)

	c.ActiveGeneration = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "kvs_active_generation",
			Help: "Generation id of the segment receiving writes",
		},
	)

	c.ReplayedRecords = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_replayed_records_total",
			Help: "Log records replayed while rebuilding the index",
		},
	)

	c.ReplayDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kvs_replay_duration_seconds",
			Help:    "Time spent rebuilding the index on open",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	return c
}

// Registry returns the registry the collector is registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveOperation counts one store operation. err decides the status label.
func (c *Collector) ObserveOperation(op string, err error) {
	if c == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.OperationsTotal.WithLabelValues(op, status).Inc()
}

func (c *Collector) AddBytes(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.BytesAppended.Add(float64(n))
}

func (c *Collector) SetLiveKeys(n int) {
	if c == nil {
		return
	}
	c.LiveKeys.Set(float64(n))
}

func (c *Collector) SetSegments(n int, active uint64) {
	if c == nil {
		return
	}
	c.Segments.Set(float64(n))
	c.ActiveGeneration.Set(float64(active))
}

func (c *Collector) ObserveReplay(records int, d time.Duration) {
	if c == nil {
		return
	}
	c.ReplayedRecords.Add(float64(records))
	c.ReplayDuration.Observe(d.Seconds())
}

// Sample is a flattened view of one metric series.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers the registry and flattens counters and gauges into
// samples sorted by name. Histograms are reported by their sample count
// and sum.
func (c *Collector) Snapshot() ([]Sample, error) {
	if c == nil {
		return nil, nil
	}

	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := labelMap(m.GetLabel())

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				samples = append(samples, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				samples = append(samples, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				samples = append(samples,
					Sample{Name: mf.GetName() + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					Sample{Name: mf.GetName() + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Name < samples[j].Name
	})

	return samples, nil
}

func labelMap(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}

	labels := make(map[string]string, len(pairs))
	for _, p := range pairs {
		labels[p.GetName()] = p.GetValue()
	}
	return labels
}
