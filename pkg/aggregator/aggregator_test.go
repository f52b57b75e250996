package aggregator

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/opensync-sub020/pkg/flow"
)

func macPtr(t *testing.T, s string) *net.HardwareAddr {
	t.Helper()
	mac, err := net.ParseMAC(s)
	require.NoError(t, err)
	return &mac
}

func TestAggregatorRoutesByMACPresence(t *testing.T) {
	a := New(DefaultConfig())
	now := time.Now()

	smac := macPtr(t, "11:22:33:44:55:66")
	dmac := macPtr(t, "aa:bb:cc:dd:ee:ff")
	ethKey := flow.Key{SMAC: smac, DMAC: dmac, VlanID: 1, IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	ok := a.AddSample(ethKey, "", flow.Counters{Packets: 5, Bytes: 500}, now)
	assert.True(t, ok)
	assert.Equal(t, 1, a.ActiveFlows())

	tupleKey := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.3"), DstIP: net.ParseIP("10.0.0.4"), SPort: 3, DPort: 4}
	ok = a.AddSample(tupleKey, "", flow.Counters{Packets: 1, Bytes: 100}, now)
	assert.True(t, ok)
	assert.Equal(t, 2, a.ActiveFlows())
}

func TestAggregatorCollectFilterRejectsSample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CollectFilter = func(key flow.Key, appName string) bool { return appName == "blocked" }
	a := New(cfg)

	ok := a.AddSample(flow.Key{IPVersion: flow.IPv4, SPort: 1}, "blocked", flow.Counters{Packets: 1, Bytes: 1}, time.Now())
	assert.False(t, ok)
	assert.Equal(t, 0, a.ActiveFlows())
}

func TestAggregatorCloseActiveWindowEnqueuesAndRotates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReportType = ReportRelative
	a := New(cfg)
	now := time.Now()

	key := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	a.AddSample(key, "", flow.Counters{Packets: 10, Bytes: 1000}, now)

	w := a.CloseActiveWindow(now)
	require.Len(t, w.Stats, 1)
	assert.Equal(t, flow.Counters{Packets: 10, Bytes: 1000}, w.Stats[0].Counters)

	a.AddSample(key, "", flow.Counters{Packets: 15, Bytes: 1500}, now)
	w2 := a.CloseActiveWindow(now)
	require.Len(t, w2.Stats, 1)
	assert.Equal(t, flow.Counters{Packets: 5, Bytes: 500}, w2.Stats[0].Counters, "second window reports the relative delta")

	require.Len(t, a.Windows(), 2)
}

func TestAggregatorGCSkipsHeldAccumulators(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccTTL = 10 * time.Millisecond
	a := New(cfg)

	past := time.Now().Add(-time.Hour)
	key := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), SPort: 1}
	a.AddSample(key, "", flow.Counters{Packets: 1, Bytes: 1}, past)
	a.CloseActiveWindow(past) // -> window_reset, eligible for GC

	ft := flow.FiveTupleOf(key)
	a.tuples[ft].Ref()

	now := time.Now()
	a.CloseActiveWindow(now)

	assert.Contains(t, a.tuples, ft, "referenced accumulator must survive GC")
	assert.Equal(t, 1, a.HeldFlows())
}

func TestAggregatorResetAggregatorClearsState(t *testing.T) {
	a := New(DefaultConfig())
	key := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), SPort: 1}
	a.AddSample(key, "", flow.Counters{Packets: 1, Bytes: 1}, time.Now())
	a.CloseActiveWindow(time.Now())

	a.ResetAggregator()
	assert.Equal(t, 0, a.ActiveFlows())
	assert.Empty(t, a.Windows())
	assert.Empty(t, a.tuples)
}

func TestAggregatorReportEthPairOwnEnqueuesFoldedAccumulator(t *testing.T) {
	smac := macPtr(t, "11:22:33:44:55:66")
	dmac := macPtr(t, "aa:bb:cc:dd:ee:ff")
	cfg := DefaultConfig()
	cfg.ReportEthPairOwn = true
	a := New(cfg)
	now := time.Now()

	ethKey := flow.Key{SMAC: smac, DMAC: dmac, VlanID: 1, Ethertype: 0x0800, IPVersion: flow.IPNone}
	a.AddSample(ethKey, "", flow.Counters{Packets: 10, Bytes: 1000}, now)

	w := a.CloseActiveWindow(now)
	require.Len(t, w.Stats, 2, "both the ethertype child and the eth-pair's own folded accumulator must be enqueued")

	var sawOwn bool
	for _, entry := range w.Stats {
		if entry.Key.SMAC == nil && entry.Key.DMAC == nil {
			sawOwn = true
			assert.Equal(t, flow.Counters{Packets: 10, Bytes: 1000}, entry.Counters)
		}
	}
	assert.True(t, sawOwn, "eth-pair own accumulator must be enqueued when ReportEthPairOwn is set")
}

func TestAggregatorReportEthPairOwnDisabledByDefault(t *testing.T) {
	smac := macPtr(t, "11:22:33:44:55:66")
	dmac := macPtr(t, "aa:bb:cc:dd:ee:ff")
	a := New(DefaultConfig())
	now := time.Now()

	ethKey := flow.Key{SMAC: smac, DMAC: dmac, VlanID: 1, Ethertype: 0x0800, IPVersion: flow.IPNone}
	a.AddSample(ethKey, "", flow.Counters{Packets: 10, Bytes: 1000}, now)

	w := a.CloseActiveWindow(now)
	require.Len(t, w.Stats, 1, "only the ethertype child is enqueued when ReportEthPairOwn is off")
}

func TestUpdateAggrHonorsCollectFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CollectFilter = func(key flow.Key, appName string) bool { return true }
	a := New(cfg)

	key := flow.Key{SMAC: macPtr(t, "11:22:33:44:55:66"), DMAC: macPtr(t, "aa:bb:cc:dd:ee:ff"), VlanID: 1,
		IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	ok := a.UpdateAggr(key, map[string]string{"app": "netflix"}, time.Now())
	assert.False(t, ok, "collect-filter must reject the protobuf-merge path exactly like AddSample")
	assert.Empty(t, a.ethPairs)
}

func TestUpdateAggrMarksAccumulatorForNextWindowReport(t *testing.T) {
	smac := macPtr(t, "11:22:33:44:55:66")
	dmac := macPtr(t, "aa:bb:cc:dd:ee:ff")
	a := New(DefaultConfig())
	now := time.Now()

	key := flow.Key{SMAC: smac, DMAC: dmac, VlanID: 1, IPVersion: flow.IPv4,
		SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	ok := a.UpdateAggr(key, map[string]string{"app": "netflix"}, now)
	require.True(t, ok)

	// The merged-in accumulator never received AddSample, so it is still
	// state_inactive; only the deferred-report flag makes it reportable.
	w := a.CloseActiveWindow(now)
	require.Len(t, w.Stats, 1, "UpdateAggr must flag the accumulator to report in the next window even though it is not window_active")
}

func TestUpdateAggrMergesTagsWithoutOverwritingCounters(t *testing.T) {
	smac := macPtr(t, "11:22:33:44:55:66")
	cfg := DefaultConfig()
	a := New(cfg)

	key := flow.Key{SMAC: smac, DMAC: macPtr(t, "aa:bb:cc:dd:ee:ff"), VlanID: 1, IPVersion: flow.IPv4,
		SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	a.AddSample(key, "", flow.Counters{Packets: 100, Bytes: 10000}, time.Now())

	ok := a.UpdateAggr(key, map[string]string{"app": "netflix"}, time.Now())
	require.True(t, ok)

	pair := a.ethPairs[key.EthPair()]
	acc := pair.tupleFlows[flow.FiveTupleOf(key)]
	assert.Equal(t, "netflix", acc.Tags["app"])
	assert.Equal(t, flow.Counters{Packets: 100, Bytes: 10000}, acc.Current, "UpdateAggr must not touch counters")
}

func TestUpdateAggrResolvesMACViaNeighborLookup(t *testing.T) {
	peerIP := net.ParseIP("10.0.0.9")
	peerMAC, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.NeighborLookup = neighborLookupFromMap(map[string]net.HardwareAddr{peerIP.String(): peerMAC})
	a := New(cfg)

	key := flow.Key{IPVersion: flow.IPv4, SrcIP: peerIP, DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	ok := a.UpdateAggr(key, map[string]string{"app": "youtube"}, time.Now())
	assert.True(t, ok)
	assert.Len(t, a.ethPairs, 1, "neighbor-resolved update must create an ethernet pair, not a MAC-less tuple")
}

func TestUpdateAggrDropsWhenMACUnresolvable(t *testing.T) {
	a := New(DefaultConfig())
	key := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.9"), SPort: 1}
	ok := a.UpdateAggr(key, map[string]string{"app": "x"}, time.Now())
	assert.False(t, ok)
}

func TestSendReportRendersWindowWithNodeIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeID = "node-1"
	cfg.LocationID = "loc-1"
	a := New(cfg)

	now := time.Now()
	key := flow.Key{IPVersion: flow.IPv4, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), SPort: 1, DPort: 2}
	a.AddSample(key, "", flow.Counters{Packets: 10, Bytes: 1000}, now)
	w := a.CloseActiveWindow(now)

	report := a.SendReport(w, now, now)
	require.Equal(t, "node-1", report.NodeID)
	require.Equal(t, "loc-1", report.LocationID)
	require.Len(t, report.Stats, 1)
	assert.Equal(t, uint64(10), report.Stats[0].Packets)
}
