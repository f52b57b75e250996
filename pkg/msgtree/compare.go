package msgtree

// Compare returns -1, 0, or 1 for a<b, a==b, a>b. Integer types (i32/i64)
// are cross-comparable by numeric value, never promoted to double. Any
// other tag mismatch compares by Tag order, giving a total order over
// heterogeneous nodes suitable for stable sorting.
func Compare(a, b *Msg) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if isInt(a.tag) && isInt(b.tag) {
		return cmpInt64(intValue(a), intValue(b))
	}

	if a.tag != b.tag {
		return cmpInt(int(a.tag), int(b.tag))
	}

	switch a.tag {
	case TagNull:
		return 0
	case TagBool:
		return cmpBool(a.b, b.b)
	case TagF64:
		return cmpFloat(a.f64, b.f64)
	case TagString:
		return cmpString(a.str, b.str)
	case TagBytes:
		return cmpBytes(a.bin, b.bin)
	case TagArray:
		return cmpSlice(a.kids, b.kids)
	case TagObject:
		return cmpObject(a, b)
	default:
		return 0
	}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b *Msg) bool { return Compare(a, b) == 0 }

func isInt(t Tag) bool { return t == TagI32 || t == TagI64 }

func intValue(m *Msg) int64 {
	if m.tag == TagI32 {
		return int64(m.i32)
	}
	return m.i64
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int { return cmpInt64(int64(a), int64(b)) }

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return cmpInt(int(a[i]), int(b[i]))
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpSlice(a, b []*Msg) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

// cmpObject compares objects by insertion-ordered (name, value) pairs.
func cmpObject(a, b *Msg) int {
	n := len(a.kids)
	if len(b.kids) < n {
		n = len(b.kids)
	}
	for i := 0; i < n; i++ {
		if c := cmpString(a.kids[i].name, b.kids[i].name); c != 0 {
			return c
		}
		if c := Compare(a.kids[i], b.kids[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a.kids), len(b.kids))
}
