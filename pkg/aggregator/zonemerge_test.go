package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/plume-design/opensync-sub020/pkg/flow"
)

func tuple(t *testing.T) flow.FiveTuple {
	t.Helper()
	return flow.FiveTupleOf(flow.Key{SrcIP: nil, DstIP: nil, SPort: 1, DPort: 2})
}

func TestZoneMergeFirstSampleAccepted(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	merged, keep := z.Merge(tp, 0, flow.Counters{Packets: 10, Bytes: 1000}, time.Now())
	assert.True(t, keep)
	assert.Equal(t, flow.Counters{Packets: 10, Bytes: 1000}, merged)
}

func TestZoneMergeSecondaryDuplicateDiscarded(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	z.Merge(tp, 0, flow.Counters{Packets: 10, Bytes: 1000}, time.Now())

	_, keep := z.Merge(tp, flow.CTZoneSecondaryOnly, flow.Counters{Packets: 20, Bytes: 2000}, time.Now())
	assert.False(t, keep, "secondary-zone duplicate of an already-merged flow must be dropped")
}

func TestZoneMergeSecondaryOnlySupersededByPrimary(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	z.Merge(tp, flow.CTZoneSecondaryOnly, flow.Counters{Packets: 1, Bytes: 100}, time.Now())

	merged, keep := z.Merge(tp, 0, flow.Counters{Packets: 5, Bytes: 50}, time.Now())
	assert.True(t, keep)
	assert.Equal(t, flow.Counters{Packets: 5, Bytes: 50}, merged, "primary-zone sample replaces secondary placeholder unconditionally")
}

func TestZoneMergeMixedComparatorPassesIncomingSampleThrough(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	z.Merge(tp, 0, flow.Counters{Packets: 10, Bytes: 1000}, time.Now())

	// Larger packets, smaller bytes: mixed relation. The tracked entry is
	// not resynced, but the incoming sample's own counters pass through
	// unmolested rather than being replaced by the stale tracked value.
	merged, keep := z.Merge(tp, 0, flow.Counters{Packets: 20, Bytes: 500}, time.Now())
	assert.True(t, keep)
	assert.Equal(t, flow.Counters{Packets: 20, Bytes: 500}, merged)

	// The tracked entry itself is unchanged by the mixed case: a
	// subsequent sample is still compared against the original {10, 1000}.
	merged, keep = z.Merge(tp, 0, flow.Counters{Packets: 30, Bytes: 3000}, time.Now())
	assert.True(t, keep)
	assert.Equal(t, flow.Counters{Packets: 30, Bytes: 3000}, merged, "larger in both dims than the still-tracked {10,1000} replaces it")
}

func TestZoneMergeResetGuardSubstitutesTrackedValue(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	z.Merge(tp, 0, flow.Counters{Packets: 100, Bytes: 100000}, time.Now())

	// Smaller in both dims: a counter reset. The tracked (larger, stale)
	// value is returned in place of the incoming sample.
	merged, keep := z.Merge(tp, 0, flow.Counters{Packets: 10, Bytes: 900}, time.Now())
	assert.True(t, keep)
	assert.Equal(t, flow.Counters{Packets: 100, Bytes: 100000}, merged)
}

func TestZoneMergeSweepRemovesStaleEntries(t *testing.T) {
	z := newZoneMergeTracker()
	tp := tuple(t)
	z.Merge(tp, 0, flow.Counters{Packets: 1, Bytes: 1}, time.Now().Add(-time.Hour))

	removed := z.sweep(time.Now(), 10*time.Second)
	assert.Equal(t, 1, removed)
	assert.Empty(t, z.entries)
}
