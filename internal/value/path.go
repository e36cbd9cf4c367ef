package value

import "fmt"

// PathSegment identifies one step of a path into a Value: either an
// object key or an array index (which may be negative, counting from the
// end, until it is resolved against a concrete array).
type PathSegment struct {
	IsKey bool
	Key   string
	Index int
}

// KeySeg constructs an object-key path segment.
func KeySeg(key string) PathSegment { return PathSegment{IsKey: true, Key: key} }

// IndexSeg constructs an array-index path segment.
func IndexSeg(i int) PathSegment { return PathSegment{IsKey: false, Index: i} }

func (s PathSegment) String() string {
	if s.IsKey {
		return fmt.Sprintf(".%s", s.Key)
	}
	return fmt.Sprintf("[%d]", s.Index)
}

// Path is a full chain of segments from the root, as produced by
// `paths`/`path` and consumed by `getpath`/`setpath`/`delpaths`.
type Path []PathSegment

// ToValue renders a Path as the Array-of-(string|number) Value that the
// `path`/`paths`/`getpath` builtins expose to filter code.
func (p Path) ToValue() Value {
	elems := make([]Value, len(p))
	for i, seg := range p {
		if seg.IsKey {
			elems[i] = String(seg.Key)
		} else {
			elems[i] = Int(int64(seg.Index))
		}
	}
	return Array(elems...)
}

// PathFromValue parses a Value produced by ToValue (or constructed
// directly by filter code) back into a Path, for `getpath`/`setpath`/
// `delpaths`.
func PathFromValue(v Value) (Path, error) {
	if v.Kind() != KindArray {
		return nil, fmt.Errorf("path must be an array, got %s", v.TypeName())
	}
	elems := v.Elements()
	path := make(Path, len(elems))
	for i, e := range elems {
		switch e.Kind() {
		case KindString:
			path[i] = KeySeg(e.Str())
		case KindNumber:
			path[i] = IndexSeg(int(e.Int()))
		default:
			return nil, fmt.Errorf("path element must be a string or number, got %s", e.TypeName())
		}
	}
	return path, nil
}

// Get navigates root along the path, returning Null for any missing key
// or out-of-range index rather than an error -- matching the language's
// "missing lookups yield null" rule.
func Get(root Value, path Path) Value {
	cur := root
	for _, seg := range path {
		if seg.IsKey {
			if cur.Kind() != KindObject {
				if cur.IsNull() {
					cur = Null
					continue
				}
				return Null
			}
			v, ok := cur.Get(seg.Key)
			if !ok {
				return Null
			}
			cur = v
		} else {
			if cur.Kind() != KindArray {
				return Null
			}
			idx := seg.Index
			elems := cur.Elements()
			if idx < 0 {
				idx += len(elems)
			}
			if idx < 0 || idx >= len(elems) {
				return Null
			}
			cur = elems[idx]
		}
	}
	return cur
}

// Set returns a new root Value with newVal written at path, creating
// intermediate objects/arrays as needed (missing indices are padded with
// Null up to the target, matching setpath's documented behavior).
func Set(root Value, path Path, newVal Value) (Value, error) {
	if len(path) == 0 {
		return newVal, nil
	}
	seg := path[0]
	rest := path[1:]
	if seg.IsKey {
		if root.IsNull() {
			root = EmptyObject()
		}
		if root.Kind() != KindObject {
			return Null, fmt.Errorf("cannot index %s with string %q", root.TypeName(), seg.Key)
		}
		child, _ := root.Get(seg.Key)
		updated, err := Set(child, rest, newVal)
		if err != nil {
			return Null, err
		}
		return root.Set(seg.Key, updated), nil
	}

	if root.IsNull() {
		root = Array()
	}
	if root.Kind() != KindArray {
		return Null, fmt.Errorf("cannot index %s with number", root.TypeName())
	}
	elems := root.Elements()
	idx := seg.Index
	if idx < 0 {
		idx += len(elems)
		if idx < 0 {
			return Null, fmt.Errorf("out of bounds negative array index")
		}
	}
	for len(elems) <= idx {
		elems = append(elems, Null)
	}
	child, err := Set(elems[idx], rest, newVal)
	if err != nil {
		return Null, err
	}
	elems[idx] = child
	return Array(elems...), nil
}

// Delete returns a new root Value with the entry at path removed. Deleting
// a path that doesn't exist is a no-op.
func Delete(root Value, path Path) (Value, error) {
	if len(path) == 0 {
		return Null, nil
	}
	if len(path) == 1 {
		seg := path[0]
		if seg.IsKey {
			if root.Kind() != KindObject {
				if root.IsNull() {
					return root, nil
				}
				return Null, fmt.Errorf("cannot delete field of %s", root.TypeName())
			}
			return root.Delete(seg.Key), nil
		}
		if root.Kind() != KindArray {
			if root.IsNull() {
				return root, nil
			}
			return Null, fmt.Errorf("cannot delete index of %s", root.TypeName())
		}
		elems := root.Elements()
		idx := seg.Index
		if idx < 0 {
			idx += len(elems)
		}
		if idx < 0 || idx >= len(elems) {
			return root, nil
		}
		elems = append(elems[:idx], elems[idx+1:]...)
		return Array(elems...), nil
	}

	seg := path[0]
	rest := path[1:]
	if seg.IsKey {
		if root.Kind() != KindObject {
			return root, nil
		}
		child, ok := root.Get(seg.Key)
		if !ok {
			return root, nil
		}
		updated, err := Delete(child, rest)
		if err != nil {
			return Null, err
		}
		return root.Set(seg.Key, updated), nil
	}
	if root.Kind() != KindArray {
		return root, nil
	}
	elems := root.Elements()
	idx := seg.Index
	if idx < 0 {
		idx += len(elems)
	}
	if idx < 0 || idx >= len(elems) {
		return root, nil
	}
	updated, err := Delete(elems[idx], rest)
	if err != nil {
		return Null, err
	}
	elems[idx] = updated
	return Array(elems...), nil
}
