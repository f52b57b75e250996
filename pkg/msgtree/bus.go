package msgtree

import (
	"bytes"
	"fmt"

	"github.com/plume-design/opensync-sub020/internal/logger"
	"github.com/rasky/go-xdr/xdr2"
)

// wireNode is the bus-native (property-tree-style) wire record for one Msg
// node, flattened into a pre-order sequence. NumKids lets the decoder
// reconstruct container nesting without needing explicit end markers,
// mirroring the blobmsg convention of marking containers at the element
// level rather than bracketing them.
type wireNode struct {
	Tag      int32
	Name     string
	HasValue bool // false marks the typed "no value" (null) case
	BVal     bool
	I32Val   int32
	I64Val   int64
	F64Val   float64
	SVal     string
	BinVal   []byte
	NumKids  int32
}

type wireEnvelope struct {
	Nodes []wireNode
}

// EncodeBus renders m using the bus-native codec (XDR framing underneath),
// which — unlike the JSON path — represents binary values as native opaque
// data, needing no sentinel encoding.
func EncodeBus(m *Msg) ([]byte, error) {
	env := wireEnvelope{}
	flatten(m, &env.Nodes)
	var buf bytes.Buffer
	if _, err := xdr2.Marshal(&buf, env); err != nil {
		return nil, fmt.Errorf("msgtree: bus encode: %w", err)
	}
	return buf.Bytes(), nil
}

func flatten(m *Msg, out *[]wireNode) {
	n := wireNode{Tag: int32(m.tag), Name: m.name}
	switch m.tag {
	case TagNull:
		n.HasValue = false
	case TagBool:
		n.HasValue = true
		n.BVal = m.b
	case TagI32:
		n.HasValue = true
		n.I32Val = m.i32
	case TagI64:
		n.HasValue = true
		n.I64Val = m.i64
	case TagF64:
		n.HasValue = true
		n.F64Val = m.f64
	case TagString:
		n.HasValue = true
		n.SVal = m.str
	case TagBytes:
		n.HasValue = true
		n.BinVal = m.bin
	case TagArray, TagObject:
		n.NumKids = int32(len(m.kids))
	}
	*out = append(*out, n)
	for _, k := range m.kids {
		flatten(k, out)
	}
}

// DecodeBus parses a bus-native wire buffer into a freshly allocated,
// detached Msg tree.
func DecodeBus(data []byte) (*Msg, error) {
	var env wireEnvelope
	if _, err := xdr2.Unmarshal(bytes.NewReader(data), &env); err != nil {
		logger.Warn("msgtree: bus decode failed", logger.Err(err))
		return nil, fmt.Errorf("msgtree: bus decode: %w", err)
	}
	if len(env.Nodes) == 0 {
		return nil, fmt.Errorf("msgtree: bus decode: empty envelope")
	}
	idx := 0
	m, err := unflatten(env.Nodes, &idx)
	if err != nil {
		Free(m)
		return nil, err
	}
	return m, nil
}

func unflatten(nodes []wireNode, idx *int) (*Msg, error) {
	if *idx >= len(nodes) {
		return nil, fmt.Errorf("msgtree: bus decode: truncated node stream")
	}
	n := nodes[*idx]
	*idx++

	var m *Msg
	switch Tag(n.Tag) {
	case TagNull:
		m = NewNull()
	case TagBool:
		m = NewBool(n.BVal)
	case TagI32:
		m = NewI32(n.I32Val)
	case TagI64:
		m = NewI64(n.I64Val)
	case TagF64:
		m = NewF64(n.F64Val)
	case TagString:
		m = NewString(n.SVal)
	case TagBytes:
		m = NewBytes(n.BinVal)
	case TagArray:
		arr := NewArray()
		for i := int32(0); i < n.NumKids; i++ {
			child, err := unflatten(nodes, idx)
			if err != nil {
				Free(arr)
				return nil, err
			}
			if err := arr.AddItem(child); err != nil {
				Free(arr)
				return nil, err
			}
		}
		m = arr
	case TagObject:
		obj := NewObject()
		for i := int32(0); i < n.NumKids; i++ {
			child, err := unflatten(nodes, idx)
			if err != nil {
				Free(obj)
				return nil, err
			}
			if err := obj.SetProp(child.name, child); err != nil {
				Free(obj)
				return nil, err
			}
		}
		m = obj
	default:
		return nil, fmt.Errorf("msgtree: bus decode: unknown tag %d", n.Tag)
	}
	m.name = n.Name
	return m, nil
}
