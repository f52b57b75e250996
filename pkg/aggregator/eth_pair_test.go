package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plume-design/opensync-sub020/pkg/flow"
)

func newTestEthPair() *EthPair {
	return newEthPair(flow.EthPairKey{SMAC: "11:22:33:44:55:66", DMAC: "aa:bb:cc:dd:ee:ff", VlanID: 1})
}

func TestEthPairFoldGrowthReplacesBaseline(t *testing.T) {
	p := newTestEthPair()
	child := p.lookupEthertype(flow.Key{Ethertype: 0x0800, IPVersion: flow.IPNone}, nil)
	child.AddSample(flow.Counters{Packets: 10, Bytes: 1000}, time.Now())

	p.foldChildren()
	assert.Equal(t, flow.Counters{Packets: 10, Bytes: 1000}, p.Own.Current)

	child.AddSample(flow.Counters{Packets: 25, Bytes: 2500}, time.Now())
	p.foldChildren()
	assert.Equal(t, flow.Counters{Packets: 25, Bytes: 2500}, p.Own.Current)
}

// TestEthPairAsymmetricUpdate pins the literal (asymmetric, not
// max-normalized) behavior of the ethernet-accumulation "else if" branch:
// when a child's counters are smaller in both packets and bytes than the
// stored baseline (a counter reset), only packets is replaced from the
// child's value — bytes is left at the old baseline.
func TestEthPairAsymmetricUpdate(t *testing.T) {
	p := newTestEthPair()
	child := p.lookupEthertype(flow.Key{Ethertype: 0x0800, IPVersion: flow.IPNone}, nil)

	child.AddSample(flow.Counters{Packets: 100, Bytes: 100000}, time.Now())
	p.foldChildren()
	assert.Equal(t, flow.Counters{Packets: 100, Bytes: 100000}, p.Own.Current)

	// Counter reset: both packets and bytes drop below the baseline.
	child.AddSample(flow.Counters{Packets: 10, Bytes: 900}, time.Now())
	p.foldChildren()

	assert.Equal(t, uint64(10), p.Own.Current.Packets, "packets must be replaced from the child on a reset")
	assert.Equal(t, uint64(100000), p.Own.Current.Bytes, "bytes is intentionally left at the stale baseline")
}

func TestEthPairMixedRelationLeavesBaselineUnchanged(t *testing.T) {
	p := newTestEthPair()
	child := p.lookupEthertype(flow.Key{Ethertype: 0x0800, IPVersion: flow.IPNone}, nil)

	child.AddSample(flow.Counters{Packets: 50, Bytes: 5000}, time.Now())
	p.foldChildren()

	// Packets grew, bytes shrank: neither branch fires, baseline unchanged.
	child.AddSample(flow.Counters{Packets: 60, Bytes: 4000}, time.Now())
	p.foldChildren()

	assert.Equal(t, flow.Counters{Packets: 50, Bytes: 5000}, p.Own.Current)
}

func TestEthPairEmptyAfterRemovingAllChildren(t *testing.T) {
	p := newTestEthPair()
	p.lookupEthertype(flow.Key{Ethertype: 0x0800}, nil)
	tuple := p.lookupTuple(flow.Key{IPVersion: flow.IPv4, SPort: 80}, nil)
	_ = tuple

	assert.False(t, p.empty())
	p.removeEthertype(0x0800)
	assert.False(t, p.empty())
	p.removeTuple(flow.FiveTupleOf(flow.Key{IPVersion: flow.IPv4, SPort: 80}))
	assert.True(t, p.empty())
}
