// Package flow implements the canonical flow identity (Key) and per-flow
// counter accumulator (Accumulator) that the metadata aggregator builds
// its eth-pair and 5-tuple trees from.
package flow

import (
	"fmt"
	"net"
)

// IPVersion distinguishes ethernet-only flows from IPv4/IPv6 flows.
type IPVersion uint8

const (
	// IPNone means "ethernet-only": the flow carries no IP-layer identity.
	IPNone IPVersion = 0
	IPv4   IPVersion = 4
	IPv6   IPVersion = 6
)

// Direction records which side of a flow a sample was observed on.
type Direction uint8

const (
	DirUnspecified Direction = iota
	DirOriginated
	DirReplied
)

// CTZoneMerged is the sentinel conntrack zone id meaning "already merged
// across zones" in the aggregator's zone-merge tracker.
const CTZoneMerged = ^uint16(0) // USHRT_MAX

// CTZoneSecondaryOnly identifies flows that exist only in the secondary
// conntrack zone and must be discarded after a zone merge.
const CTZoneSecondaryOnly = uint16(1)

// Key is the canonical flow identity. Ufid, when present, overrides 5-tuple
// identity entirely; IPVersion == IPNone means "ethernet-only".
type Key struct {
	SMAC *net.HardwareAddr
	DMAC *net.HardwareAddr

	VlanID    uint16
	Ethertype uint16

	IPVersion IPVersion
	SrcIP     net.IP
	DstIP     net.IP
	IPProto   uint8
	IPID      uint16

	SPort uint16
	DPort uint16

	TCPFlags uint8

	FlowStart int64 // unix nanos
	FlowEnd   int64

	Direction   Direction
	Originator  bool
	CTZone      uint16
	Ufid        string // empty means "not present"
	RxIfIndex   int32
	TxIfIndex   int32
}

// HasMAC reports whether either MAC address is present.
func (k Key) HasMAC() bool {
	return k.SMAC != nil || k.DMAC != nil
}

// HasUfid reports whether the datapath supplied an opaque flow id that
// overrides 5-tuple identity.
func (k Key) HasUfid() bool { return k.Ufid != "" }

// EthPairKey is the comparison key for an ethernet pair subtree:
// (smac, dmac, vlan).
type EthPairKey struct {
	SMAC   string
	DMAC   string
	VlanID uint16
}

// EthPair returns the owning ethernet-pair key for k. A missing source or
// destination MAC yields an empty string for that field.
func (k Key) EthPair() EthPairKey {
	var smac, dmac string
	if k.SMAC != nil {
		smac = k.SMAC.String()
	}
	if k.DMAC != nil {
		dmac = k.DMAC.String()
	}
	return EthPairKey{SMAC: smac, DMAC: dmac, VlanID: k.VlanID}
}

// FiveTuple is the comparison key used within an ethernet pair's IP subtree,
// or within the aggregator's flat 5-tuple tree for MAC-less flows.
type FiveTuple struct {
	IPVersion IPVersion
	SrcIP     string
	DstIP     string
	IPProto   uint8
	SPort     uint16
	DPort     uint16
}

// FiveTupleOf derives the 5-tuple key from k. When Ufid is present it is
// used instead of the address-based tuple, per spec: "ufid when present
// overrides 5-tuple identity".
func FiveTupleOf(k Key) FiveTuple {
	if k.HasUfid() {
		return FiveTuple{SrcIP: "ufid:" + k.Ufid}
	}
	return FiveTuple{
		IPVersion: k.IPVersion,
		SrcIP:     ipString(k.SrcIP),
		DstIP:     ipString(k.DstIP),
		IPProto:   k.IPProto,
		SPort:     k.SPort,
		DPort:     k.DPort,
	}
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

// ReportKey renders a stable, human-readable string identity for a flow,
// used as the accumulator's "report key" in logs and external reports.
func ReportKey(k Key) string {
	if k.HasUfid() {
		return fmt.Sprintf("ufid:%s", k.Ufid)
	}
	if k.HasMAC() {
		ep := k.EthPair()
		if k.IPVersion == IPNone {
			return fmt.Sprintf("%s-%s/vlan%d/eth:%04x", ep.SMAC, ep.DMAC, ep.VlanID, k.Ethertype)
		}
		ft := FiveTupleOf(k)
		return fmt.Sprintf("%s-%s/vlan%d/%s:%d->%s:%d/p%d", ep.SMAC, ep.DMAC, ep.VlanID,
			ft.SrcIP, ft.SPort, ft.DstIP, ft.DPort, ft.IPProto)
	}
	ft := FiveTupleOf(k)
	return fmt.Sprintf("%s:%d->%s:%d/p%d", ft.SrcIP, ft.SPort, ft.DstIP, ft.DPort, ft.IPProto)
}

// EthIsFlowOnly reports whether k belongs in the ethertype-only subtree
// (IPVersion == IPNone) as opposed to the 5-tuple subtree of an eth-pair.
func (k Key) EthIsFlowOnly() bool { return k.IPVersion == IPNone }
