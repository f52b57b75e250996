package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/plume-design/opensync-sub020/pkg/metrics"
)

func init() {
	metrics.RegisterSteerMetricsConstructor(newSteerMetrics)
}

type steerMetrics struct {
	candidateStrength *prometheus.GaugeVec
	policyDecisions   *prometheus.CounterVec
	backoffSeconds    *prometheus.HistogramVec
	ageouts           prometheus.Counter
}

func newSteerMetrics() metrics.SteerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &steerMetrics{
		candidateStrength: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "owctld_steer_candidate_strength",
			Help: "Resolved candidate strength after policy evaluation, by policy.",
		}, []string{"policy"}),
		policyDecisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "owctld_steer_policy_decisions_total",
			Help: "Total number of policy decisions by policy and outcome.",
		}, []string{"policy", "decision"}),
		backoffSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "owctld_steer_backoff_seconds",
			Help:    "Distribution of snr-level policy backoff durations entered.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"sta_mac"}),
		ageouts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "owctld_steer_ageouts_total",
			Help: "Total number of candidate steering states expired from inactivity.",
		}),
	}
}

func (m *steerMetrics) RecordCandidateStrength(policy string, strength int) {
	if m == nil {
		return
	}
	m.candidateStrength.WithLabelValues(policy).Set(float64(strength))
}

func (m *steerMetrics) RecordPolicyDecision(policy string, decision string) {
	if m == nil {
		return
	}
	m.policyDecisions.WithLabelValues(policy, decision).Inc()
}

func (m *steerMetrics) RecordBackoff(staMAC string, seconds float64) {
	if m == nil {
		return
	}
	m.backoffSeconds.WithLabelValues(staMAC).Observe(seconds)
}

func (m *steerMetrics) RecordAgeout(staMAC string) {
	if m == nil {
		return
	}
	m.ageouts.Inc()
}
