package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/opensync-sub020/pkg/metrics"
)

func TestAggregatorMetricsRegistersAndRecords(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m := metrics.NewAggregatorMetrics()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		m.RecordSample(true)
		m.RecordSample(false)
		m.RecordWindowClose(10, 2, 5*time.Millisecond)
		m.RecordActiveFlows(3)
		m.RecordHeldFlows(1)
		m.RecordGC(4)
		m.RecordZoneMergeDrop()
	})
}

func TestSteerMetricsRegistersAndRecords(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m := metrics.NewSteerMetrics()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		m.RecordCandidateStrength("band_filter", 50)
		m.RecordPolicyDecision("snr_level", "enforce")
		m.RecordBackoff("11:22:33:44:55:66", 30)
		m.RecordAgeout("11:22:33:44:55:66")
	})
}
