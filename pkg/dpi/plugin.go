package dpi

import "github.com/plume-design/opensync-sub020/pkg/flow"

// PacketInfo is the opaque per-packet context handed to a plugin's
// process_attr callback alongside the decoded attribute.
type PacketInfo struct {
	FlowKey   flow.Key
	StaMAC    string
	Direction Direction
}

// Direction describes which side of a flow a DPI attribute was observed on.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionUpload
	DirectionDownload
)

// Plugin is a callback table, mirroring the C ABI a DPI plugin would
// expose: any entry may be nil, and a nil callback is a silent no-op
// rather than an error (spec failure semantics).
type Plugin struct {
	Name string

	// RegisterClient is invoked exactly once per attr, the first time any
	// subscriber registers interest in it.
	RegisterClient func(attr string) error

	// UnregisterClient is invoked exactly once per attr, when the last
	// subscriber for it unregisters.
	UnregisterClient func(attr string) error

	// FlowAttrCmp orders attribute names for this plugin's internal tree.
	// Registry does not use it directly for subscriber ordering (which is
	// always by subscriber name per spec), but a plugin without it is
	// considered unusable: register_client is a no-op without it.
	FlowAttrCmp func(a, b string) int

	// ProcessAttr is invoked once per subscriber of a matched attr.
	ProcessAttr func(sub *Subscriber, attr string, attrType uint8, length int, value []byte, pkt PacketInfo) Verdict
}

// usable reports whether the plugin exposes the two callbacks
// register_client requires: register_client itself and flow_attr_cmp.
func (p *Plugin) usable() bool {
	return p != nil && p.RegisterClient != nil && p.FlowAttrCmp != nil
}
