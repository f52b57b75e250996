package aggregator

import "github.com/plume-design/opensync-sub020/pkg/flow"

// StatEntry is one flow's report-ready counters inside a window. Key is a
// non-owning reference to the accumulator's canonical key (&acc.Key); per
// spec §5, windows MUST be freed/drained before their accumulators are
// garbage collected.
type StatEntry struct {
	Key      *flow.Key
	Counters flow.Counters
}

// Window is a bounded-capacity report buffer covering one reporting
// interval.
type Window struct {
	Stats        []StatEntry
	MaxReports   int
	DroppedStats int
}

func newWindow(maxReports int) *Window {
	return &Window{MaxReports: maxReports}
}

// Full reports whether the window has reached its capacity.
func (w *Window) Full() bool { return len(w.Stats) >= w.MaxReports }

// add appends an entry; callers must check Full() first.
func (w *Window) add(entry StatEntry) { w.Stats = append(w.Stats, entry) }
