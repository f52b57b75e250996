package metrics

import "time"

// AggregatorMetrics provides observability for the metadata aggregator.
// Pass nil to disable metrics collection with zero overhead.
type AggregatorMetrics interface {
	// RecordSample records one AddSample call's outcome.
	RecordSample(accepted bool)

	// RecordWindowClose records a CloseActiveWindow pass: how many stats
	// were enqueued, how many were dropped for a full window, and how long
	// the close took.
	RecordWindowClose(enqueued, dropped int, duration time.Duration)

	// RecordActiveFlows sets the current active-flow gauge.
	RecordActiveFlows(count int)

	// RecordHeldFlows sets the current held-flow (TTL-expired but
	// referenced) gauge.
	RecordHeldFlows(count int)

	// RecordGC records one GC pass's reclaimed accumulator count.
	RecordGC(reclaimed int)

	// RecordZoneMergeDrop records a conntrack zone-merge duplicate discard.
	RecordZoneMergeDrop()
}

// NewAggregatorMetrics creates a Prometheus-backed AggregatorMetrics, or
// nil if metrics are disabled.
func NewAggregatorMetrics() AggregatorMetrics {
	if !IsEnabled() || newPrometheusAggregatorMetrics == nil {
		return nil
	}
	return newPrometheusAggregatorMetrics()
}

// newPrometheusAggregatorMetrics is set by pkg/metrics/prometheus's init(),
// breaking the import cycle between metrics and its prometheus backend.
var newPrometheusAggregatorMetrics func() AggregatorMetrics

// RegisterAggregatorMetricsConstructor is called by the prometheus backend
// package to install its constructor.
func RegisterAggregatorMetricsConstructor(constructor func() AggregatorMetrics) {
	newPrometheusAggregatorMetrics = constructor
}
