package aggregator

import (
	"time"

	"github.com/plume-design/opensync-sub020/pkg/flow"
)

// zoneMergeEntry tracks one flow's best-known sample across conntrack
// zones, used to deduplicate a flow reported redundantly in a primary and
// secondary conntrack zone.
type zoneMergeEntry struct {
	tuple    flow.FiveTuple
	zone     uint16
	counters flow.Counters
	seen     time.Time
}

// zoneMergeTracker deduplicates flow samples seen across multiple
// conntrack zones when the aggregator is configured with
// flow.CTZoneMerged. Entries from flow.CTZoneSecondaryOnly are discarded
// once a primary-zone sample for the same tuple has been recorded.
//
// The comparator below is intentionally asymmetric, matching
// flow_merge_multi_zonestats exactly rather than a symmetrized "always
// keep larger": a candidate strictly larger in both packets and bytes
// replaces the tracked entry and is returned as-is (growth). A candidate
// strictly smaller in both (a counter reset) leaves the tracked entry
// untouched and the tracked (larger, stale) value is returned in its
// place, guarding the report against an apparent reset. Any other
// relation (one field grew, the other shrank) is "mixed": the tracked
// entry is left untouched, but unlike the reset case, the incoming
// sample's own counters are returned unmolested rather than substituted
// with the stale tracked value — the original only ever syncs the
// tracked/incoming values together in the first two branches. See
// spec.md §9 Open Questions.
type zoneMergeTracker struct {
	entries map[flow.FiveTuple]*zoneMergeEntry
}

func newZoneMergeTracker() *zoneMergeTracker {
	return &zoneMergeTracker{entries: make(map[flow.FiveTuple]*zoneMergeEntry)}
}

// Merge offers a sample observed in the given conntrack zone. It returns
// (mergedCounters, keep) — keep is false when the sample is a
// secondary-zone duplicate of an already-tracked flow and must be
// discarded entirely rather than folded into any accumulator.
func (z *zoneMergeTracker) Merge(tuple flow.FiveTuple, zone uint16, sample flow.Counters, now time.Time) (flow.Counters, bool) {
	existing, ok := z.entries[tuple]
	if !ok {
		z.entries[tuple] = &zoneMergeEntry{tuple: tuple, zone: zone, counters: sample, seen: now}
		return sample, true
	}

	if zone == flow.CTZoneSecondaryOnly && existing.zone != flow.CTZoneSecondaryOnly {
		// A secondary-zone duplicate of an already-merged primary flow.
		return flow.Counters{}, false
	}

	if existing.zone == flow.CTZoneSecondaryOnly {
		// Primary-zone data supersedes a secondary-only placeholder outright.
		existing.zone = zone
		existing.counters = sample
		existing.seen = now
		return sample, true
	}

	if sample.Packets > existing.counters.Packets && sample.Bytes > existing.counters.Bytes {
		existing.counters = sample
		existing.seen = now
		return sample, true
	}

	if sample.Packets < existing.counters.Packets && sample.Bytes < existing.counters.Bytes {
		// Counter reset guard: the tracked value is left untouched and
		// substituted for the (apparently reset) incoming sample.
		existing.seen = now
		return existing.counters, true
	}

	// Mixed: one field grew, the other shrank. The tracked entry is not
	// resynced, and the incoming sample passes through unmolested.
	existing.seen = now
	return sample, true
}

// sweep removes tracked tuples not refreshed within ttl, returning the
// count removed (for GC bookkeeping/metrics).
func (z *zoneMergeTracker) sweep(now time.Time, ttl time.Duration) int {
	removed := 0
	for k, e := range z.entries {
		if now.Sub(e.seen) >= ttl {
			delete(z.entries, k)
			removed++
		}
	}
	return removed
}
