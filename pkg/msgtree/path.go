package msgtree

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup walks a dotted path of the form `a.b.[3].c` where bracketed
// decimal tokens address 0-based array slots and bare tokens address
// object members. It never creates nodes; it returns an error if any
// segment is missing or the tree shape does not match the token kind.
func Lookup(root *Msg, path string) (*Msg, error) {
	if path == "" {
		return root, nil
	}
	cur := root
	for _, tok := range strings.Split(path, ".") {
		idx, isIndex, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if isIndex {
			if cur.tag != TagArray {
				return nil, fmt.Errorf("msgtree: lookup %q: not an array at %q", path, tok)
			}
			if idx < 0 || idx >= len(cur.kids) {
				return nil, fmt.Errorf("msgtree: lookup %q: index %d out of range", path, idx)
			}
			cur = cur.kids[idx]
			continue
		}
		if cur.tag != TagObject {
			return nil, fmt.Errorf("msgtree: lookup %q: not an object at %q", path, tok)
		}
		child := cur.GetProp(tok)
		if child == nil {
			return nil, fmt.Errorf("msgtree: lookup %q: no such property %q", path, tok)
		}
		cur = child
	}
	return cur, nil
}

// Mkpath walks the same grammar as Lookup but creates missing nodes along
// the way: a missing object member is created null, and the next segment
// turns a null node into an object (name token) or an array ([N] token), so
// the leaf of a newly created path is null; growing an array appends null
// placeholders up to and including idx.
func Mkpath(root *Msg, path string) (*Msg, error) {
	if path == "" {
		return root, nil
	}
	toks := strings.Split(path, ".")
	cur := root
	for _, tok := range toks {
		idx, isIndex, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if isIndex {
			if cur.tag == TagNull {
				Assign(cur, NewArray())
			}
			if cur.tag != TagArray {
				return nil, fmt.Errorf("msgtree: mkpath %q: not an array at %q", path, tok)
			}
			for idx >= len(cur.kids) {
				if err := cur.AddItem(NewNull()); err != nil {
					return nil, err
				}
			}
			cur = cur.kids[idx]
			continue
		}
		if cur.tag == TagNull {
			Assign(cur, NewObject())
		}
		if cur.tag != TagObject {
			return nil, fmt.Errorf("msgtree: mkpath %q: not an object at %q", path, tok)
		}
		child := cur.GetProp(tok)
		if child == nil {
			child = NewNull()
			if err := cur.SetProp(tok, child); err != nil {
				return nil, err
			}
		}
		cur = child
	}
	return cur, nil
}

func parseToken(tok string) (idx int, isIndex bool, err error) {
	if len(tok) >= 2 && tok[0] == '[' && tok[len(tok)-1] == ']' {
		n, err := strconv.Atoi(tok[1 : len(tok)-1])
		if err != nil {
			return 0, true, fmt.Errorf("msgtree: bad array index token %q: %w", tok, err)
		}
		return n, true, nil
	}
	return 0, false, nil
}
