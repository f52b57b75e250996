package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/plume-design/opensync-sub020/pkg/metrics"
)

func init() {
	metrics.RegisterAggregatorMetricsConstructor(newAggregatorMetrics)
}

// aggregatorMetrics is the Prometheus implementation of metrics.AggregatorMetrics.
type aggregatorMetrics struct {
	samplesAccepted prometheus.Counter
	samplesRejected prometheus.Counter

	windowCloses      prometheus.Counter
	windowEnqueued    prometheus.Histogram
	windowDropped     prometheus.Histogram
	windowCloseMillis prometheus.Histogram

	activeFlows prometheus.Gauge
	heldFlows   prometheus.Gauge

	gcReclaimed prometheus.Counter

	zoneMergeDrops prometheus.Counter
}

func newAggregatorMetrics() metrics.AggregatorMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &aggregatorMetrics{
		samplesAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_aggregator_samples_accepted_total",
			Help: "Total number of flow samples accepted by the aggregator.",
		}),
		samplesRejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_aggregator_samples_rejected_total",
			Help: "Total number of flow samples rejected by the collect filter or zone-merge tracker.",
		}),
		windowCloses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_aggregator_window_closes_total",
			Help: "Total number of reporting windows closed.",
		}),
		windowEnqueued: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "owctld_aggregator_window_enqueued_stats",
			Help:    "Number of flow_stats entries enqueued per closed window.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		windowDropped: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "owctld_aggregator_window_dropped_stats",
			Help:    "Number of flow_stats entries dropped (window full) per closed window.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		windowCloseMillis: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "owctld_aggregator_window_close_duration_milliseconds",
			Help:    "Duration of a CloseActiveWindow pass.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		activeFlows: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "owctld_aggregator_active_flows",
			Help: "Number of accumulator transitions into window_active counted by the aggregator.",
		}),
		heldFlows: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "owctld_aggregator_held_flows",
			Help: "Current number of TTL-expired but referenced accumulators.",
		}),
		gcReclaimed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_aggregator_gc_reclaimed_total",
			Help: "Total number of accumulators reclaimed by garbage collection.",
		}),
		zoneMergeDrops: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_aggregator_zone_merge_drops_total",
			Help: "Total number of samples discarded as secondary-zone conntrack duplicates.",
		}),
	}
}

func (m *aggregatorMetrics) RecordSample(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.samplesAccepted.Inc()
	} else {
		m.samplesRejected.Inc()
	}
}

func (m *aggregatorMetrics) RecordWindowClose(enqueued, dropped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.windowCloses.Inc()
	m.windowEnqueued.Observe(float64(enqueued))
	m.windowDropped.Observe(float64(dropped))
	m.windowCloseMillis.Observe(float64(duration.Microseconds()) / 1000)
}

func (m *aggregatorMetrics) RecordActiveFlows(count int) {
	if m == nil {
		return
	}
	m.activeFlows.Set(float64(count))
}

func (m *aggregatorMetrics) RecordHeldFlows(count int) {
	if m == nil {
		return
	}
	m.heldFlows.Set(float64(count))
}

func (m *aggregatorMetrics) RecordGC(reclaimed int) {
	if m == nil {
		return
	}
	m.gcReclaimed.Add(float64(reclaimed))
}

func (m *aggregatorMetrics) RecordZoneMergeDrop() {
	if m == nil {
		return
	}
	m.zoneMergeDrops.Inc()
}
