package msgtree

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"github.com/plume-design/opensync-sub020/internal/logger"
)

// Sentinel property names used to round-trip binary values across the JSON
// boundary, per the external interface contract: emitters MUST NOT use this
// key shape for any other purpose, and decoders accept no alternative
// encoding.
const (
	binTypeKey = "#_type"
	binEncKey  = "#_enc"
	binDataKey = "#_data"
	binType    = "bin"
	binEnc     = "base64"
)

// EncodeJSON renders m as a JSON byte slice. Binary nodes are encoded as the
// `{"#_type":"bin","#_enc":"base64","#_data":"..."}` sentinel object, and
// object properties are emitted in insertion order.
func EncodeJSON(m *Msg) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, m *Msg) error {
	if m == nil {
		buf.WriteString("null")
		return nil
	}
	switch m.tag {
	case TagNull:
		buf.WriteString("null")
		return nil
	case TagBool, TagI32, TagI64, TagF64, TagString:
		return writeJSONScalar(buf, m)
	case TagBytes:
		enc := map[string]string{
			binTypeKey: binType,
			binEncKey:  binEnc,
			binDataKey: base64.StdEncoding.EncodeToString(m.bin),
		}
		raw, err := json.Marshal(enc)
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	case TagArray:
		buf.WriteByte('[')
		for i, k := range m.kids {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, k); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case TagObject:
		buf.WriteByte('{')
		for i, k := range m.kids {
			if i > 0 {
				buf.WriteByte(',')
			}
			nameJSON, err := json.Marshal(k.name)
			if err != nil {
				return err
			}
			buf.Write(nameJSON)
			buf.WriteByte(':')
			if err := writeJSONValue(buf, k); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("msgtree: unknown tag %v", m.tag)
	}
}

func writeJSONScalar(buf *bytes.Buffer, m *Msg) error {
	var v any
	switch m.tag {
	case TagBool:
		v = m.b
	case TagI32:
		v = m.i32
	case TagI64:
		v = m.i64
	case TagF64:
		v = m.f64
	case TagString:
		v = m.str
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}

// DecodeJSON parses data into a freshly allocated, detached Msg tree.
// Parsing failures are logged and return (nil, err); any partial subtree
// built so far is discarded. Decoding uses the token stream (not
// Decode-into-map[string]any) so that object member order survives the
// round trip, matching the tree's insertion-ordered semantics.
func DecodeJSON(data []byte) (*Msg, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	m, err := decodeValue(dec)
	if err != nil {
		logger.Warn("msgtree: json decode failed", logger.Err(err))
		return nil, fmt.Errorf("msgtree: decode json: %w", err)
	}
	return m, nil
}

func decodeValue(dec *json.Decoder) (*Msg, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Msg, error) {
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return numberToMsg(t)
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		default:
			return nil, fmt.Errorf("msgtree: unexpected json delimiter %v", t)
		}
	default:
		return nil, fmt.Errorf("msgtree: unsupported json token type %T", tok)
	}
}

func decodeArray(dec *json.Decoder) (*Msg, error) {
	arr := NewArray()
	for dec.More() {
		child, err := decodeValue(dec)
		if err != nil {
			Free(arr)
			return nil, err
		}
		if err := arr.AddItem(child); err != nil {
			Free(arr)
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		Free(arr)
		return nil, err
	}
	return arr, nil
}

func decodeObject(dec *json.Decoder) (*Msg, error) {
	names := make([]string, 0, 4)
	values := make([]*Msg, 0, 4)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return freeAll(values), err
		}
		key, ok := keyTok.(string)
		if !ok {
			return freeAll(values), fmt.Errorf("msgtree: object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return freeAll(values), err
		}
		names = append(names, key)
		values = append(values, val)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return freeAll(values), err
	}

	if binObj, ok := decodeBinSentinelOrdered(names, values); ok {
		for i, v := range values {
			if binObj != v {
				Free(values[i])
			}
		}
		return binObj, nil
	}

	obj := NewObject()
	for i, name := range names {
		if err := obj.SetProp(name, values[i]); err != nil {
			Free(obj)
			return freeAll(values[i+1:]), err
		}
	}
	return obj, nil
}

func freeAll(vs []*Msg) *Msg {
	for _, v := range vs {
		Free(v)
	}
	return nil
}

// decodeBinSentinelOrdered recognizes the binary sentinel shape from a
// decoded object's ordered (name, value) pairs, regardless of key order in
// the source document.
func decodeBinSentinelOrdered(names []string, values []*Msg) (*Msg, bool) {
	if len(names) != 3 {
		return nil, false
	}
	var typ, enc, data string
	var sawType, sawEnc, sawData bool
	for i, name := range names {
		s, isStr := values[i].GetString()
		switch name {
		case binTypeKey:
			typ, sawType = s, isStr
		case binEncKey:
			enc, sawEnc = s, isStr
		case binDataKey:
			data, sawData = s, isStr
		default:
			return nil, false
		}
	}
	if !sawType || !sawEnc || !sawData || typ != binType || enc != binEnc {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, false
	}
	return NewBytes(raw), true
}

// numberToMsg decodes JSON integers as i32 if they fit, i64 otherwise;
// non-integral numbers decode as f64.
func numberToMsg(n json.Number) (*Msg, error) {
	if i, err := n.Int64(); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return NewI32(int32(i)), nil
		}
		return NewI64(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("msgtree: bad json number %q: %w", n.String(), err)
	}
	return NewF64(f), nil
}

