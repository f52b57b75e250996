package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSampleTransitionsToWindowActive(t *testing.T) {
	a := NewAccumulator(Key{})
	became := a.AddSample(Counters{Packets: 10, Bytes: 10000}, time.Now())
	assert.True(t, became)
	assert.Equal(t, StateWindowActive, a.State())

	became = a.AddSample(Counters{Packets: 30, Bytes: 30000}, time.Now())
	assert.False(t, became, "second sample within the same window must not re-trigger activation")
}

func TestTwoSamplesSameKeyRelativeMode(t *testing.T) {
	a := NewAccumulator(Key{})
	a.AddSample(Counters{Packets: 10, Bytes: 10000}, time.Now())
	a.AddSample(Counters{Packets: 30, Bytes: 30000}, time.Now())

	rel := a.CloseCounters(false)
	assert.Equal(t, Counters{Packets: 30, Bytes: 30000}, rel, "first report: relative == absolute")

	a.AddSample(Counters{Packets: 50, Bytes: 50000}, time.Now())
	rel2 := a.CloseCounters(false)
	assert.Equal(t, Counters{Packets: 20, Bytes: 20000}, rel2)
}

func TestAbsoluteModeEqualsCurrent(t *testing.T) {
	a := NewAccumulator(Key{})
	a.AddSample(Counters{Packets: 10, Bytes: 10000}, time.Now())
	a.AddSample(Counters{Packets: 30, Bytes: 30000}, time.Now())

	abs := a.CloseCounters(true)
	assert.Equal(t, Counters{Packets: 30, Bytes: 30000}, abs)
}

func TestCounterResetClampsToZero(t *testing.T) {
	a := NewAccumulator(Key{})
	a.AddSample(Counters{Packets: 10, Bytes: 10000}, time.Now())
	rel := a.CloseCounters(false)
	assert.Equal(t, Counters{Packets: 10, Bytes: 10000}, rel)

	a.AddSample(Counters{Packets: 5, Bytes: 5000}, time.Now())
	rel2 := a.CloseCounters(false)
	assert.Equal(t, Counters{Packets: 5, Bytes: 5000}, rel2)

	abs2 := a.Current
	assert.Equal(t, Counters{Packets: 5, Bytes: 5000}, abs2)
}

func TestTTLGCRespectsRefcount(t *testing.T) {
	a := NewAccumulator(Key{})
	a.AddSample(Counters{Packets: 1, Bytes: 1}, time.Now().Add(-time.Hour))
	a.CloseCounters(false) // -> window_reset, no longer active

	ttl := 10 * time.Second
	now := time.Now()
	assert.True(t, a.Collectible(now, ttl))

	a.Ref()
	assert.False(t, a.Collectible(now, ttl))
	assert.True(t, a.Held(now, ttl))

	a.Unref()
	assert.True(t, a.Collectible(now, ttl))
}

func TestPluginScratchDestructorFiresOnClear(t *testing.T) {
	a := NewAccumulator(Key{})
	destroyed := false
	ctx := a.PluginScratch("dpi.dns")
	ctx.Value = "state"
	ctx.Destroy = func(v any) {
		require.Equal(t, "state", v)
		destroyed = true
	}
	a.ClearPluginScratch("dpi.dns")
	assert.True(t, destroyed)
}

func TestReportKeyEthOnlyUsesEthertype(t *testing.T) {
	mac1, _ := parseMAC(t, "11:22:33:44:55:66")
	mac2, _ := parseMAC(t, "aa:bb:cc:dd:ee:ff")
	k := Key{SMAC: &mac1, DMAC: &mac2, VlanID: 7, Ethertype: 0x0800, IPVersion: IPNone}
	assert.Contains(t, ReportKey(k), "eth:0800")
}
