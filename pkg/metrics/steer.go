package metrics

// SteerMetrics provides observability for the station-steering engine.
// Pass nil to disable metrics collection with zero overhead.
type SteerMetrics interface {
	// RecordCandidateStrength records a steering candidate's resolved
	// strength after policy evaluation.
	RecordCandidateStrength(policy string, strength int)

	// RecordPolicyDecision records one policy's verdict for a candidate.
	RecordPolicyDecision(policy string, decision string)

	// RecordBackoff records the snr-level policy entering a backoff
	// interval of the given duration in seconds.
	RecordBackoff(staMAC string, seconds float64)

	// RecordAgeout records a candidate's steering state expiring from
	// inactivity.
	RecordAgeout(staMAC string)
}

// NewSteerMetrics creates a Prometheus-backed SteerMetrics, or nil if
// metrics are disabled.
func NewSteerMetrics() SteerMetrics {
	if !IsEnabled() || newPrometheusSteerMetrics == nil {
		return nil
	}
	return newPrometheusSteerMetrics()
}

var newPrometheusSteerMetrics func() SteerMetrics

// RegisterSteerMetricsConstructor is called by the prometheus backend
// package to install its constructor.
func RegisterSteerMetricsConstructor(constructor func() SteerMetrics) {
	newPrometheusSteerMetrics = constructor
}
