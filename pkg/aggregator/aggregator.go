// Package aggregator implements the metadata aggregator: an eth-pair/
// 5-tuple accumulator tree, windowed report buffering, TTL-based garbage
// collection, and conntrack zone-merge deduplication.
package aggregator

import (
	"net"
	"sync"
	"time"

	"github.com/plume-design/opensync-sub020/pkg/aggregator/wire"
	"github.com/plume-design/opensync-sub020/pkg/flow"
)

// Aggregator owns the full accumulator tree for one reporting domain
// (typically one node). It is safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	cfg Config

	ethPairs map[flow.EthPairKey]*EthPair
	tuples   map[flow.FiveTuple]*flow.Accumulator // MAC-less (no SMAC/DMAC) flows

	zoneMerge *zoneMergeTracker

	windows      []*Window
	activeWindow *Window

	activeFlows int
	heldFlows   int
}

// New creates an Aggregator from cfg, filling in DefaultConfig() for any
// zero-valued tunables.
func New(cfg Config) *Aggregator {
	def := DefaultConfig()
	if cfg.AccTTL == 0 {
		cfg.AccTTL = def.AccTTL
	}
	if cfg.NumWindows == 0 {
		cfg.NumWindows = def.NumWindows
	}
	if cfg.MaxReports == 0 {
		cfg.MaxReports = def.MaxReports
	}
	a := &Aggregator{
		cfg:      cfg,
		ethPairs: make(map[flow.EthPairKey]*EthPair),
		tuples:   make(map[flow.FiveTuple]*flow.Accumulator),
	}
	if cfg.CTZone == flow.CTZoneMerged {
		a.zoneMerge = newZoneMergeTracker()
	}
	a.activeWindow = newWindow(a.cfg.MaxReports)
	return a
}

// lookup routes key to its owning accumulator by MAC presence, creating
// the eth-pair/5-tuple/ethertype subtree entries as needed.
func (a *Aggregator) lookup(key flow.Key) *flow.Accumulator {
	if !key.HasMAC() {
		ft := flow.FiveTupleOf(key)
		acc, ok := a.tuples[ft]
		if ok {
			return acc
		}
		acc = flow.NewAccumulator(key)
		a.tuples[ft] = acc
		if a.cfg.OnCreate != nil {
			a.cfg.OnCreate(acc)
		}
		return acc
	}

	epk := key.EthPair()
	pair, ok := a.ethPairs[epk]
	if !ok {
		pair = newEthPair(epk)
		a.ethPairs[epk] = pair
	}
	if key.EthIsFlowOnly() {
		return pair.lookupEthertype(key, a.cfg.OnCreate)
	}
	return pair.lookupTuple(key, a.cfg.OnCreate)
}

// AddSample applies a raw sample to its owning accumulator. It returns
// false without error when the sample is rejected by the configured
// CollectFilter, or discarded as a zone-merge duplicate.
func (a *Aggregator) AddSample(key flow.Key, appName string, counters flow.Counters, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg.CollectFilter != nil && a.cfg.CollectFilter(key, appName) {
		return false
	}

	if a.zoneMerge != nil && key.IPVersion != flow.IPNone {
		merged, keep := a.zoneMerge.Merge(flow.FiveTupleOf(key), key.CTZone, counters, now)
		if !keep {
			return false
		}
		counters = merged
	}

	acc := a.lookup(key)
	if acc.AddSample(counters, now) {
		a.activeFlows++
	}
	return true
}

// foldEthPairs runs EthPair.foldChildren for every live ethernet pair,
// rolling ethertype children into each pair's own accumulator.
func (a *Aggregator) foldEthPairs() {
	for _, pair := range a.ethPairs {
		pair.foldChildren()
	}
}

// CloseActiveWindow closes every window_active accumulator's counters into
// the active window (subject to MaxReports and the configured
// ReportFilter), garbage collects TTL-expired+unreferenced accumulators,
// and rotates in a fresh active window. The closed window is returned for
// SendReport; it is also retained internally up to NumWindows.
func (a *Aggregator) CloseActiveWindow(now time.Time) *Window {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.foldEthPairs()

	closed := a.activeWindow
	absolute := a.cfg.ReportType == ReportAbsolute

	enqueue := func(acc *flow.Accumulator) {
		deferred := acc.ConsumeReportDeferred()
		if acc.State() != flow.StateWindowActive && !deferred {
			return
		}
		if a.cfg.ReportFilter != nil && a.cfg.ReportFilter(acc) {
			acc.MarkReportDeferred()
			return
		}
		counters := acc.CloseCounters(absolute)
		if closed.Full() {
			closed.DroppedStats++
			acc.MarkReportDeferred()
			return
		}
		closed.add(StatEntry{Key: &acc.Key, Counters: counters})
		if a.cfg.OnReport != nil {
			a.cfg.OnReport(acc)
		}
	}

	for _, acc := range a.tuples {
		enqueue(acc)
	}
	for _, pair := range a.ethPairs {
		if a.cfg.ReportEthPairOwn {
			pair.Own.MarkWindowActive()
		}
		for _, acc := range pair.allAccumulators() {
			enqueue(acc)
		}
	}

	a.gc(now)

	a.windows = append(a.windows, closed)
	if len(a.windows) > a.cfg.NumWindows {
		a.windows = a.windows[len(a.windows)-a.cfg.NumWindows:]
	}
	a.activeWindow = newWindow(a.cfg.MaxReports)
	return closed
}

// gc removes accumulators that are TTL-expired, unreferenced, and not
// window_active. Held (TTL-expired but referenced) accumulators are
// counted but kept alive.
func (a *Aggregator) gc(now time.Time) {
	held := 0

	for ft, acc := range a.tuples {
		if acc.Held(now, a.cfg.AccTTL) {
			held++
			continue
		}
		if acc.Collectible(now, a.cfg.AccTTL) {
			a.destroyAccumulator(acc)
			delete(a.tuples, ft)
		}
	}

	for epk, pair := range a.ethPairs {
		for et, acc := range pair.ethFlows {
			switch {
			case acc.Held(now, a.cfg.AccTTL):
				held++
			case acc.Collectible(now, a.cfg.AccTTL):
				a.destroyAccumulator(acc)
				pair.removeEthertype(et)
			}
		}
		for ft, acc := range pair.tupleFlows {
			switch {
			case acc.Held(now, a.cfg.AccTTL):
				held++
			case acc.Collectible(now, a.cfg.AccTTL):
				a.destroyAccumulator(acc)
				pair.removeTuple(ft)
			}
		}
		if pair.empty() && pair.Own.Collectible(now, a.cfg.AccTTL) {
			a.destroyAccumulator(pair.Own)
			delete(a.ethPairs, epk)
		}
	}

	if a.zoneMerge != nil {
		a.zoneMerge.sweep(now, a.cfg.AccTTL)
	}

	a.heldFlows = held
}

func (a *Aggregator) destroyAccumulator(acc *flow.Accumulator) {
	if a.cfg.OnDestroy != nil {
		a.cfg.OnDestroy(acc)
	}
	acc.ClearAllPluginScratch()
}

// HeldFlows returns the number of TTL-expired-but-referenced accumulators
// observed during the last GC pass (an observability counter).
func (a *Aggregator) HeldFlows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heldFlows
}

// ActiveFlows returns the running count of inactive/window_reset ->
// window_active transitions since creation or the last reset. An
// accumulator that becomes active again in a later window is counted
// again, and garbage collection does not lower the count.
func (a *Aggregator) ActiveFlows() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activeFlows
}

// Windows returns the retained closed windows (up to NumWindows), oldest
// first, ready for SendReport.
func (a *Aggregator) Windows() []*Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Window, len(a.windows))
	copy(out, a.windows)
	return out
}

// ResetAggregator drops every accumulator, window, and zone-merge entry,
// returning the aggregator to its just-constructed state.
func (a *Aggregator) ResetAggregator() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ethPairs = make(map[flow.EthPairKey]*EthPair)
	a.tuples = make(map[flow.FiveTuple]*flow.Accumulator)
	if a.zoneMerge != nil {
		a.zoneMerge = newZoneMergeTracker()
	}
	a.windows = nil
	a.activeWindow = newWindow(a.cfg.MaxReports)
	a.activeFlows = 0
	a.heldFlows = 0
}

// UpdateAggr merges an externally-sourced flow update (e.g. received over
// the protobuf wire format from a peer node) into the aggregator. Unlike
// AddSample, it never overwrites counters for an already-known flow — only
// new tags are merged in; it exists to let peer nodes share vendor/DPI tag
// data about flows they observe from the other direction. When the flow is
// not yet known, NeighborLookup resolves src/dst IP to a MAC identity;
// the update is dropped silently if resolution fails, since a MAC-less
// merge would create an identity the native sampling path would never
// produce on its own.
func (a *Aggregator) UpdateAggr(key flow.Key, newTags map[string]string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !key.HasMAC() && a.cfg.NeighborLookup != nil {
		if mac, ok := a.cfg.NeighborLookup(key.SrcIP); ok {
			key.SMAC = &mac
		}
	}
	if !key.HasMAC() {
		return false
	}

	if a.cfg.CollectFilter != nil && a.cfg.CollectFilter(key, "") {
		return false
	}

	acc := a.lookup(key)
	if acc.Tags == nil {
		acc.Tags = make(map[string]string, len(newTags))
	}
	for k, v := range newTags {
		if _, exists := acc.Tags[k]; !exists {
			acc.Tags[k] = v
		}
	}
	acc.MarkReportDeferred()
	return true
}

// SendReport renders a closed Window as a wire.FlowReport envelope,
// stamped with the aggregator's configured node/location identity.
func (a *Aggregator) SendReport(w *Window, windowStart, windowEnd time.Time) *wire.FlowReport {
	a.mu.Lock()
	nodeID, locationID := a.cfg.NodeID, a.cfg.LocationID
	a.mu.Unlock()

	r := &wire.FlowReport{
		NodeID:        nodeID,
		LocationID:    locationID,
		WindowStartNs: windowStart.UnixNano(),
		WindowEndNs:   windowEnd.UnixNano(),
		Stats:         make([]wire.FlowStat, 0, len(w.Stats)),
	}
	for _, entry := range w.Stats {
		r.Stats = append(r.Stats, wire.FlowStat{
			ReportKey: flow.ReportKey(*entry.Key),
			Packets:   entry.Counters.Packets,
			Bytes:     entry.Counters.Bytes,
		})
	}
	return r
}

// neighborLookupFromMap is a convenience NeighborLookupFunc constructor for
// tests and simple static deployments.
func neighborLookupFromMap(m map[string]net.HardwareAddr) NeighborLookupFunc {
	return func(ip net.IP) (net.HardwareAddr, bool) {
		mac, ok := m[ip.String()]
		return mac, ok
	}
}
