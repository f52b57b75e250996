package aggregator

import (
	"net"
	"time"

	"github.com/plume-design/opensync-sub020/pkg/flow"
)

// ReportType selects absolute or relative (delta) counter reporting.
type ReportType int

const (
	ReportAbsolute ReportType = iota
	ReportRelative
)

// CollectFilterFunc runs on both the native add-sample path and the
// protobuf-merge path before any state mutation. Returning true rejects
// the sample (a silent no-op, not an error).
type CollectFilterFunc func(key flow.Key, appName string) bool

// ReportFilterFunc runs when placing a closed accumulator into the active
// window. Returning true rejects the enqueue; the accumulator is flagged
// to report in the next window instead.
type ReportFilterFunc func(acc *flow.Accumulator) bool

// NeighborLookupFunc resolves an IP address to a MAC address, used by the
// protobuf-merge path (update_aggr) to recover MAC identity for peer flows
// that only carry IP-layer information.
type NeighborLookupFunc func(ip net.IP) (net.HardwareAddr, bool)

// AccumulatorHook is invoked on accumulator lifecycle transitions.
type AccumulatorHook func(acc *flow.Accumulator)

// Config configures an Aggregator. Zero-value TTL/NumWindows/MaxReports are
// invalid; use DefaultConfig as a starting point.
type Config struct {
	// AccTTL is the idle duration after which an unreferenced, inactive
	// accumulator becomes eligible for garbage collection.
	AccTTL time.Duration

	// NumWindows bounds the report buffer (ring of closed windows awaiting
	// SendReport).
	NumWindows int

	// MaxReports bounds the number of flow_stats entries a single window
	// may hold before excess samples are dropped.
	MaxReports int

	// ReportType selects absolute or relative counter semantics.
	ReportType ReportType

	// CTZone is this aggregator's configured conntrack zone. The sentinel
	// flow.CTZoneMerged (USHRT_MAX) enables the zone-merge tracker.
	CTZone uint16

	// NodeID/LocationID populate the wire report envelope (see wire pkg).
	NodeID     string
	LocationID string

	CollectFilter  CollectFilterFunc
	ReportFilter   ReportFilterFunc
	NeighborLookup NeighborLookupFunc

	// ReportEthPairOwn enables enqueuing each eth-pair's own folded
	// accumulator (the sum of its ethertype children) into the closed
	// window, per spec.md §4.3 step 3 ("enqueue the eth-pair's own sample
	// if requested"). Off by default: most deployments only want the
	// per-flow child entries.
	ReportEthPairOwn bool

	OnCreate  AccumulatorHook
	OnDestroy AccumulatorHook
	OnReport  AccumulatorHook
}

// DefaultConfig returns sane defaults matching the reference implementation's
// typical deployment sizing.
func DefaultConfig() Config {
	return Config{
		AccTTL:     120 * time.Second,
		NumWindows: 3,
		MaxReports: 500,
		ReportType: ReportRelative,
		CTZone:     flow.CTZoneMerged,
	}
}
