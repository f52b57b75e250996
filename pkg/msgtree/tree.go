// Package msgtree implements the dynamic message tree: a language-neutral,
// in-memory tagged union used as the payload type across the control
// plane's internal callbacks and wire formats (JSON and bus-native).
package msgtree

import "fmt"

// Tag identifies the dynamic type held by a Msg node.
type Tag int

const (
	TagNull Tag = iota
	TagBool
	TagI32
	TagI64
	TagF64
	TagString
	TagBytes
	TagArray
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagI32:
		return "i32"
	case TagI64:
		return "i64"
	case TagF64:
		return "f64"
	case TagString:
		return "string"
	case TagBytes:
		return "bytes"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// Msg is one node of the dynamic message tree. Containers (array, object)
// keep an insertion-ordered child sequence; object containers additionally
// keep a name->index map for O(1) property lookup. A node is owned by its
// parent: detaching requires an explicit Copy.
type Msg struct {
	name   string
	tag    Tag
	b      bool
	i32    int32
	i64    int64
	f64    float64
	str    string
	bin    []byte
	kids   []*Msg
	byName map[string]int // object only: name -> index into kids
	parent *Msg
}

func newNode(tag Tag) *Msg {
	m := &Msg{tag: tag}
	if tag == TagObject {
		m.byName = make(map[string]int)
	}
	return m
}

// NewNull creates a detached null node.
func NewNull() *Msg { return newNode(TagNull) }

// NewBool creates a detached bool node.
func NewBool(v bool) *Msg {
	m := newNode(TagBool)
	m.b = v
	return m
}

// NewI32 creates a detached 32-bit integer node.
func NewI32(v int32) *Msg {
	m := newNode(TagI32)
	m.i32 = v
	return m
}

// NewI64 creates a detached 64-bit integer node.
func NewI64(v int64) *Msg {
	m := newNode(TagI64)
	m.i64 = v
	return m
}

// NewF64 creates a detached double node.
func NewF64(v float64) *Msg {
	m := newNode(TagF64)
	m.f64 = v
	return m
}

// NewString creates a detached string node.
func NewString(v string) *Msg {
	m := newNode(TagString)
	m.str = v
	return m
}

// NewBytes creates a detached binary node. The input is copied so later
// mutation by the caller cannot reach into the tree.
func NewBytes(v []byte) *Msg {
	m := newNode(TagBytes)
	if v != nil {
		m.bin = append([]byte(nil), v...)
	} else {
		m.bin = []byte{}
	}
	return m
}

// NewArray creates a detached, empty array node.
func NewArray() *Msg { return newNode(TagArray) }

// NewObject creates a detached, empty object node.
func NewObject() *Msg { return newNode(TagObject) }

// Tag returns the node's dynamic type.
func (m *Msg) Tag() Tag { return m.tag }

// Name returns the node's name within its parent object, or "" for array
// children and the root.
func (m *Msg) Name() string { return m.name }

// Parent returns the owning container, or nil for a detached/root node.
func (m *Msg) Parent() *Msg { return m.parent }

// Len returns the number of children for array/object nodes, 0 otherwise.
func (m *Msg) Len() int { return len(m.kids) }

// Children returns the insertion-ordered child slice. Callers must not
// mutate the returned slice; use the tree's own mutators instead.
func (m *Msg) Children() []*Msg { return m.kids }

// Free recursively clears a node's value and detaches its children. Free is
// idempotent: calling it more than once, or on an already-empty node, is a
// no-op.
func Free(m *Msg) {
	if m == nil {
		return
	}
	for _, k := range m.kids {
		k.parent = nil
		Free(k)
	}
	m.kids = nil
	m.byName = nil
	m.bin = nil
	m.str = ""
	m.b = false
	m.i32, m.i64 = 0, 0
	m.f64 = 0
	m.tag = TagNull
}

// ---- scalar getters (borrowed) ----

// GetBool returns the node's bool value; false if the tag does not match.
func (m *Msg) GetBool() (bool, bool) {
	if m.tag != TagBool {
		return false, false
	}
	return m.b, true
}

// GetI32 returns the node's i32 value.
func (m *Msg) GetI32() (int32, bool) {
	if m.tag != TagI32 {
		return 0, false
	}
	return m.i32, true
}

// GetI64 returns the node's i64 value.
func (m *Msg) GetI64() (int64, bool) {
	if m.tag != TagI64 {
		return 0, false
	}
	return m.i64, true
}

// GetF64 returns the node's double value.
func (m *Msg) GetF64() (float64, bool) {
	if m.tag != TagF64 {
		return 0, false
	}
	return m.f64, true
}

// GetString returns a borrow of the node's string value.
func (m *Msg) GetString() (string, bool) {
	if m.tag != TagString {
		return "", false
	}
	return m.str, true
}

// GetBytes returns a borrow of the node's binary value. A zero-length,
// non-nil slice is a valid sentinel distinct from "absent".
func (m *Msg) GetBytes() ([]byte, bool) {
	if m.tag != TagBytes {
		return nil, false
	}
	return m.bin, true
}

// GetBytesAlloc returns an owned copy of the node's binary value.
func (m *Msg) GetBytesAlloc() ([]byte, bool) {
	b, ok := m.GetBytes()
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// GetBytesFixed copies the binary value into dst, failing if dst is too
// small to hold it.
func (m *Msg) GetBytesFixed(dst []byte) (int, error) {
	b, ok := m.GetBytes()
	if !ok {
		return 0, fmt.Errorf("msgtree: node is not bytes (tag=%s)", m.tag)
	}
	if len(dst) < len(b) {
		return 0, fmt.Errorf("msgtree: buffer too small: need %d, have %d", len(b), len(dst))
	}
	return copy(dst, b), nil
}

// ---- containers ----

func (m *Msg) requireContainer(tag Tag) error {
	if m.tag != tag {
		return fmt.Errorf("msgtree: node is %s, want %s", m.tag, tag)
	}
	return nil
}

// AddItem appends v to an array node. On success the array takes ownership
// of v (v.parent is set). On failure v is freed and an error is returned.
func (m *Msg) AddItem(v *Msg) error {
	if err := m.requireContainer(TagArray); err != nil {
		Free(v)
		return err
	}
	if v.parent != nil {
		Free(v)
		return fmt.Errorf("msgtree: value already owned by another node")
	}
	v.name = ""
	v.parent = m
	m.kids = append(m.kids, v)
	return nil
}

// AddItemBool is a convenience wrapper for AddItem(NewBool(v)).
func (m *Msg) AddItemBool(v bool) error { return m.AddItem(NewBool(v)) }

// AddItemI32 is a convenience wrapper for AddItem(NewI32(v)).
func (m *Msg) AddItemI32(v int32) error { return m.AddItem(NewI32(v)) }

// AddItemI64 is a convenience wrapper for AddItem(NewI64(v)).
func (m *Msg) AddItemI64(v int64) error { return m.AddItem(NewI64(v)) }

// AddItemF64 is a convenience wrapper for AddItem(NewF64(v)).
func (m *Msg) AddItemF64(v float64) error { return m.AddItem(NewF64(v)) }

// AddItemString is a convenience wrapper for AddItem(NewString(v)).
func (m *Msg) AddItemString(v string) error { return m.AddItem(NewString(v)) }

// AddItemBytes is a convenience wrapper for AddItem(NewBytes(v)).
func (m *Msg) AddItemBytes(v []byte) error { return m.AddItem(NewBytes(v)) }

// SetProp sets or replaces the property named name on an object node. On
// success the object takes ownership of v; on failure v is freed and a
// typed error is returned (never a stale pointer for the caller to
// dereference). Setting an existing property replaces its value in place,
// preserving insertion order.
func (m *Msg) SetProp(name string, v *Msg) error {
	if err := m.requireContainer(TagObject); err != nil {
		Free(v)
		return err
	}
	if v.parent != nil {
		Free(v)
		return fmt.Errorf("msgtree: value already owned by another node")
	}
	v.name = name
	v.parent = m
	if idx, ok := m.byName[name]; ok {
		old := m.kids[idx]
		old.parent = nil
		Free(old)
		m.kids[idx] = v
		return nil
	}
	m.byName[name] = len(m.kids)
	m.kids = append(m.kids, v)
	return nil
}

// SetPropBool is a convenience wrapper for SetProp(name, NewBool(v)).
func (m *Msg) SetPropBool(name string, v bool) error { return m.SetProp(name, NewBool(v)) }

// SetPropI32 is a convenience wrapper for SetProp(name, NewI32(v)).
func (m *Msg) SetPropI32(name string, v int32) error { return m.SetProp(name, NewI32(v)) }

// SetPropI64 is a convenience wrapper for SetProp(name, NewI64(v)).
func (m *Msg) SetPropI64(name string, v int64) error { return m.SetProp(name, NewI64(v)) }

// SetPropF64 is a convenience wrapper for SetProp(name, NewF64(v)).
func (m *Msg) SetPropF64(name string, v float64) error { return m.SetProp(name, NewF64(v)) }

// SetPropString is a convenience wrapper for SetProp(name, NewString(v)).
func (m *Msg) SetPropString(name string, v string) error { return m.SetProp(name, NewString(v)) }

// SetPropBytes is a convenience wrapper for SetProp(name, NewBytes(v)).
func (m *Msg) SetPropBytes(name string, v []byte) error { return m.SetProp(name, NewBytes(v)) }

// GetProp returns the child named name from an object node, or nil if
// absent or m is not an object.
func (m *Msg) GetProp(name string) *Msg {
	if m.tag != TagObject {
		return nil
	}
	idx, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.kids[idx]
}

// GetItem returns the array child at idx, or nil if out of range or m is
// not an array.
func (m *Msg) GetItem(idx int) *Msg {
	if m.tag != TagArray {
		return nil
	}
	if idx < 0 || idx >= len(m.kids) {
		return nil
	}
	return m.kids[idx]
}

// Copy performs a deep, detached clone of m.
func Copy(m *Msg) *Msg {
	if m == nil {
		return nil
	}
	out := newNode(m.tag)
	out.name = m.name
	out.b, out.i32, out.i64, out.f64, out.str = m.b, m.i32, m.i64, m.f64, m.str
	if m.bin != nil {
		out.bin = append([]byte(nil), m.bin...)
	}
	for _, k := range m.kids {
		c := Copy(k)
		c.parent = out
		out.kids = append(out.kids, c)
	}
	if m.tag == TagObject {
		out.byName = make(map[string]int, len(m.byName))
		for k, v := range m.byName {
			out.byName[k] = v
		}
	}
	return out
}

// Assign moves src's value (tag, scalar payload, and children) into dst,
// preserving dst's name and parent linkage, then frees src. After Assign,
// src is an empty node suitable for discarding.
func Assign(dst, src *Msg) {
	if dst == nil || src == nil || dst == src {
		return
	}
	name, parent := dst.name, dst.parent
	for _, k := range dst.kids {
		k.parent = nil
	}
	dst.tag = src.tag
	dst.b, dst.i32, dst.i64, dst.f64, dst.str = src.b, src.i32, src.i64, src.f64, src.str
	dst.bin = src.bin
	dst.kids = src.kids
	dst.byName = src.byName
	for _, k := range dst.kids {
		k.parent = dst
	}
	dst.name, dst.parent = name, parent

	src.tag = TagNull
	src.b, src.i32, src.i64, src.f64, src.str = false, 0, 0, 0, ""
	src.bin, src.kids, src.byName = nil, nil, nil
}
