package flow

import (
	"sync"
	"time"
)

// State is the accumulator lifecycle state.
type State int

const (
	StateInactive State = iota
	StateWindowActive
	StateWindowReset
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateWindowActive:
		return "window_active"
	case StateWindowReset:
		return "window_reset"
	default:
		return "unknown"
	}
}

// Counters is one sample's worth of flow statistics.
type Counters struct {
	Packets uint64
	Bytes   uint64
}

// sub returns the per-field delta c-prev for relative-mode reporting. A
// field that went backwards (a counter reset) has its baseline clamped to
// 0, so the delta is the field's current value and never negative.
func (c Counters) sub(prev Counters) Counters {
	out := c
	if c.Packets >= prev.Packets {
		out.Packets = c.Packets - prev.Packets
	}
	if c.Bytes >= prev.Bytes {
		out.Bytes = c.Bytes - prev.Bytes
	}
	return out
}

// PluginContext is opaque per-DPI-plugin scratch space attached to an
// accumulator. It replaces the source's untyped void* `dpi`/`priv` fields
// (spec §9) with a typed get/set/clear surface plus an optional destructor
// invoked when the slot is cleared or the accumulator is freed.
type PluginContext struct {
	Value   any
	Destroy func(any)
}

// Accumulator holds a canonical copy of its key, three counter snapshots,
// lifecycle state, refcounting, and per-plugin scratch space. It keeps no
// pointer to its owning aggregator.
type Accumulator struct {
	mu sync.Mutex

	Key Key

	ReportKey string

	FirstSeen    Counters
	Current      Counters
	LastReported Counters

	state State

	LastUpdated time.Time

	Reverse *Accumulator // optional reverse-flow pointer

	refcount int32

	Report bool // "report attrs in next window" flag

	Direction  Direction
	Originator bool
	FlowMarker uint32

	pluginScratch map[string]*PluginContext

	// reportAttrsDeferred counts MarkReportDeferred calls: a full window, a
	// report-filter rejection, or a protobuf-merge update.
	reportAttrsDeferred uint32

	// Tags holds vendor/DPI-contributed key-value attributes merged in via
	// UpdateAggr. Nil until first written.
	Tags map[string]string
}

// NewAccumulator creates an accumulator for key in the inactive state.
func NewAccumulator(key Key) *Accumulator {
	return &Accumulator{
		Key:           key,
		ReportKey:     ReportKey(key),
		state:         StateInactive,
		pluginScratch: make(map[string]*PluginContext),
	}
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Ref increments the reference count. A DPI plugin (or any other external
// holder) calls this to pin the accumulator across windows.
func (a *Accumulator) Ref() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refcount++
}

// Unref decrements the reference count. It is the caller's responsibility
// to pair every Ref with exactly one Unref.
func (a *Accumulator) Unref() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.refcount > 0 {
		a.refcount--
	}
}

// RefCount returns the current reference count.
func (a *Accumulator) RefCount() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refcount
}

// AddSample replaces Current with counters, bumps LastUpdated, and
// transitions inactive/window_reset -> window_active. It returns true if
// this call caused the inactive/window_reset -> window_active transition
// (so the caller can bump the aggregator's active-flow count exactly once).
func (a *Accumulator) AddSample(counters Counters, now time.Time) (becameActive bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateWindowActive {
		becameActive = true
	}
	a.state = StateWindowActive
	a.Current = counters
	a.LastUpdated = now
	return becameActive
}

// CloseCounters computes the report snapshot for absolute or relative
// reporting, per spec §4.2, and transitions window_active -> window_reset.
// In relative mode, each field is the delta against the prior FirstSeen
// snapshot; a field that decreased (counter reset) reports its current
// value, so no field is ever negative. The accumulator's FirstSeen
// is then updated to Current (close_counters: "first := current").
func (a *Accumulator) CloseCounters(absolute bool) Counters {
	a.mu.Lock()
	defer a.mu.Unlock()

	var report Counters
	if absolute {
		report = a.Current
	} else {
		report = a.Current.sub(a.FirstSeen)
	}
	a.FirstSeen = a.Current
	a.LastReported = report
	if a.state == StateWindowActive {
		a.state = StateWindowReset
	}
	return report
}

// Expired reports whether now - LastUpdated >= ttl.
func (a *Accumulator) Expired(now time.Time, ttl time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.Sub(a.LastUpdated) >= ttl
}

// Collectible reports whether the accumulator may be garbage collected:
// TTL expired, refcount==0, and not currently window_active.
func (a *Accumulator) Collectible(now time.Time, ttl time.Duration) bool {
	a.mu.Lock()
	active := a.state == StateWindowActive
	refs := a.refcount
	expired := now.Sub(a.LastUpdated) >= ttl
	a.mu.Unlock()
	return expired && refs == 0 && !active
}

// Held reports whether the accumulator is TTL-expired but pinned by a
// nonzero refcount (observability counter: "held flows").
func (a *Accumulator) Held(now time.Time, ttl time.Duration) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.Sub(a.LastUpdated) >= ttl && a.refcount > 0
}

// MarkReportDeferred flags that this accumulator's attrs should be
// reported in the next window (the current window was full, or a
// report-filter rejected it).
func (a *Accumulator) MarkReportDeferred() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Report = true
	a.reportAttrsDeferred++
}

// MarkWindowActive transitions the accumulator into window_active without
// touching Current/LastUpdated. Used by eth-pair folding, which maintains
// its own accumulator's Current snapshot directly and only needs it
// flagged as reportable for the current window.
func (a *Accumulator) MarkWindowActive() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateWindowActive
}

// ConsumeReportDeferred reports whether the "report in next window" flag
// is set, clearing it so a deferred report is retried at most once. This
// lets CloseActiveWindow carry forward an accumulator that was deferred by
// a full window, a report-filter rejection, or a protobuf-merge update —
// not just one that is still window_active.
func (a *Accumulator) ConsumeReportDeferred() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.Report
	a.Report = false
	return v
}

// PluginScratch returns the plugin context slot for name, creating an
// empty one if absent.
func (a *Accumulator) PluginScratch(name string) *PluginContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctx, ok := a.pluginScratch[name]
	if !ok {
		ctx = &PluginContext{}
		a.pluginScratch[name] = ctx
	}
	return ctx
}

// ClearPluginScratch invokes the destructor (if any) and removes the named
// plugin context slot.
func (a *Accumulator) ClearPluginScratch(name string) {
	a.mu.Lock()
	ctx, ok := a.pluginScratch[name]
	if ok {
		delete(a.pluginScratch, name)
	}
	a.mu.Unlock()
	if ok && ctx.Destroy != nil {
		ctx.Destroy(ctx.Value)
	}
}

// ClearAllPluginScratch runs every registered plugin-scratch destructor;
// called when the accumulator is garbage collected.
func (a *Accumulator) ClearAllPluginScratch() {
	a.mu.Lock()
	scratch := a.pluginScratch
	a.pluginScratch = nil
	a.mu.Unlock()
	for _, ctx := range scratch {
		if ctx.Destroy != nil {
			ctx.Destroy(ctx.Value)
		}
	}
}
