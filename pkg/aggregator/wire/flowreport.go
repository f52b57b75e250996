// Package wire implements the protobuf wire-format codec for flow reports
// exchanged between the metadata aggregator and its report sink, hand-
// written against google.golang.org/protobuf/encoding/protowire since no
// protoc-generated stub is available in this environment. The message
// shapes below are a stable, explicit protobuf encoding: any protoc-based
// client constructed from an equivalent .proto would decode the same bytes.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for FlowReport.
const (
	fieldReportNodeID        = 1
	fieldReportLocationID    = 2
	fieldReportWindowStartNs = 3
	fieldReportWindowEndNs   = 4
	fieldReportStats         = 5
)

// Field numbers for FlowStat.
const (
	fieldStatReportKey = 1
	fieldStatPackets   = 2
	fieldStatBytes     = 3
	fieldStatTag       = 4
)

// Field numbers for the FlowStat.Tag submessage (a map entry: key/value).
const (
	fieldTagKey   = 1
	fieldTagValue = 2
)

// FlowStat is one reported flow's counters and tags.
type FlowStat struct {
	ReportKey string
	Packets   uint64
	Bytes     uint64
	Tags      map[string]string
}

// FlowReport is one aggregator window's worth of flow stats, ready to send
// to the report sink.
type FlowReport struct {
	NodeID        string
	LocationID    string
	WindowStartNs int64
	WindowEndNs   int64
	Stats         []FlowStat
}

// Marshal encodes r as protobuf wire-format bytes.
func Marshal(r *FlowReport) []byte {
	var b []byte
	if r.NodeID != "" {
		b = protowire.AppendTag(b, fieldReportNodeID, protowire.BytesType)
		b = protowire.AppendString(b, r.NodeID)
	}
	if r.LocationID != "" {
		b = protowire.AppendTag(b, fieldReportLocationID, protowire.BytesType)
		b = protowire.AppendString(b, r.LocationID)
	}
	b = protowire.AppendTag(b, fieldReportWindowStartNs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.WindowStartNs))
	b = protowire.AppendTag(b, fieldReportWindowEndNs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.WindowEndNs))
	for _, stat := range r.Stats {
		b = protowire.AppendTag(b, fieldReportStats, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalStat(&stat))
	}
	return b
}

func marshalStat(s *FlowStat) []byte {
	var b []byte
	if s.ReportKey != "" {
		b = protowire.AppendTag(b, fieldStatReportKey, protowire.BytesType)
		b = protowire.AppendString(b, s.ReportKey)
	}
	b = protowire.AppendTag(b, fieldStatPackets, protowire.VarintType)
	b = protowire.AppendVarint(b, s.Packets)
	b = protowire.AppendTag(b, fieldStatBytes, protowire.VarintType)
	b = protowire.AppendVarint(b, s.Bytes)
	for k, v := range s.Tags {
		var tag []byte
		tag = protowire.AppendTag(tag, fieldTagKey, protowire.BytesType)
		tag = protowire.AppendString(tag, k)
		tag = protowire.AppendTag(tag, fieldTagValue, protowire.BytesType)
		tag = protowire.AppendString(tag, v)
		b = protowire.AppendTag(b, fieldStatTag, protowire.BytesType)
		b = protowire.AppendBytes(b, tag)
	}
	return b
}

// Unmarshal decodes protobuf wire-format bytes produced by Marshal (or any
// protoc client sharing the equivalent message shape) into a FlowReport.
// Unknown fields are skipped, matching protobuf's forward-compatibility
// contract.
func Unmarshal(data []byte) (*FlowReport, error) {
	r := &FlowReport{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldReportNodeID:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid node_id: %w", protowire.ParseError(n))
			}
			r.NodeID = v
			data = data[n:]
		case fieldReportLocationID:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid location_id: %w", protowire.ParseError(n))
			}
			r.LocationID = v
			data = data[n:]
		case fieldReportWindowStartNs:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid window_start_ns: %w", protowire.ParseError(n))
			}
			r.WindowStartNs = int64(v)
			data = data[n:]
		case fieldReportWindowEndNs:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid window_end_ns: %w", protowire.ParseError(n))
			}
			r.WindowEndNs = int64(v)
			data = data[n:]
		case fieldReportStats:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid stats entry: %w", protowire.ParseError(n))
			}
			stat, err := unmarshalStat(v)
			if err != nil {
				return nil, err
			}
			r.Stats = append(r.Stats, *stat)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return r, nil
}

func unmarshalStat(data []byte) (*FlowStat, error) {
	s := &FlowStat{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: invalid stat tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldStatReportKey:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid report_key: %w", protowire.ParseError(n))
			}
			s.ReportKey = v
			data = data[n:]
		case fieldStatPackets:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid packets: %w", protowire.ParseError(n))
			}
			s.Packets = v
			data = data[n:]
		case fieldStatBytes:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid bytes: %w", protowire.ParseError(n))
			}
			s.Bytes = v
			data = data[n:]
		case fieldStatTag:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid tag entry: %w", protowire.ParseError(n))
			}
			k, val, err := unmarshalTag(v)
			if err != nil {
				return nil, err
			}
			if s.Tags == nil {
				s.Tags = make(map[string]string)
			}
			s.Tags[k] = val
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wire: invalid stat field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return s, nil
}

func unmarshalTag(data []byte) (key, value string, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", "", fmt.Errorf("wire: invalid tag-entry tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldTagKey:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return "", "", fmt.Errorf("wire: invalid tag key: %w", protowire.ParseError(n))
			}
			key = v
			data = data[n:]
		case fieldTagValue:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return "", "", fmt.Errorf("wire: invalid tag value: %w", protowire.ParseError(n))
			}
			value = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return "", "", fmt.Errorf("wire: invalid tag-entry field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return key, value, nil
}
