// Package value defines the tagged-union data model shared by every stage
// of the query engine: the lexer, parser, and evaluator all ultimately
// produce or consume value.Value. It intentionally avoids interface{} so
// the evaluator can switch on Kind rather than type-assert everywhere.
//
// Numbers preserve integer identity when possible: a Value built from an
// integer literal or produced by integer-preserving arithmetic carries
// IsInt=true, and ToJSON renders it without a decimal point.
package value

import (
	"math"
	"sort"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns a human-readable name of the kind, used in error messages
// ("Iterate: cannot iterate over string").
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the untyped tagged value the query engine operates over. It is
// logically immutable: every operation that would "mutate" a Value
// (Set, Append, Delete, etc. included) instead returns a freshly-built
// Value and leaves the receiver unchanged.
type Value struct {
	kind Kind

	b bool
	n float64
	// isInt records whether n currently represents an exact integer that
	// should round-trip as an integer literal rather than a float.
	isInt bool
	s     string
	arr   []Value

	// objKeys preserves insertion order; objVals is parallel to objKeys.
	// A map is not used as the source of truth so that order survives.
	objKeys []string
	objVals []Value
}

// Null is the singular null value.
var Null = Value{kind: KindNull}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs an integer-preserving numeric Value.
func Int(n int64) Value { return Value{kind: KindNumber, n: float64(n), isInt: true} }

// Float constructs a floating-point numeric Value.
func Float(n float64) Value {
	if isIntegral(n) {
		return Value{kind: KindNumber, n: n, isInt: true}
	}
	return Value{kind: KindNumber, n: n}
}

// FloatNoNormalize constructs a numeric Value without collapsing exact
// integral floats to integers; used for NaN/Inf. ToJSON still renders a
// whole float without a decimal point (`1.0` prints as `1`).
func FloatNoNormalize(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func isIntegral(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n) &&
		n >= -9007199254740992 && n <= 9007199254740992
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array constructs an array Value from the given elements (copied).
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindArray, arr: cp}
}

// EmptyObject returns a new Value of kind Object with no entries.
func EmptyObject() Value {
	return Value{kind: KindObject}
}

// Kind returns the Value's variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy implements the language's truthiness rule: everything except
// Null and Bool(false) is truthy.
func (v Value) Truthy() bool {
	if v.kind == KindNull {
		return false
	}
	if v.kind == KindBool {
		return v.b
	}
	return true
}

// Bool returns the boolean payload (false if not a bool).
func (v Value) Bool() bool { return v.b }

// Number returns the numeric payload (0 if not a number).
func (v Value) Number() float64 { return v.n }

// IsInt reports whether a numeric Value should render without a decimal
// point.
func (v Value) IsInt() bool { return v.kind == KindNumber && v.isInt }

// Int returns the numeric payload truncated to int64.
func (v Value) Int() int64 { return int64(v.n) }

// Str returns the string payload ("" if not a string).
func (v Value) Str() string { return v.s }

// Len returns len(runes) for strings, element count for arrays, and key
// count for objects; it is the implementation behind the `length`
// builtin's non-null, non-numeric branches.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.objKeys)
	default:
		return 0
	}
}

// Elements returns a copy of the array's elements, or nil if v is not an
// array.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp
}

// Append returns a new array Value with elem appended.
func (v Value) Append(elem Value) Value {
	arr := make([]Value, len(v.arr)+1)
	copy(arr, v.arr)
	arr[len(v.arr)] = elem
	return Value{kind: KindArray, arr: arr}
}

// Keys returns the object's keys in insertion order, or nil if v is not
// an object.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	cp := make([]string, len(v.objKeys))
	copy(cp, v.objKeys)
	return cp
}

// KeysSorted returns the object's keys sorted lexicographically, the
// order `keys` (as opposed to `keys_unsorted`) exposes.
func (v Value) KeysSorted() []string {
	keys := v.Keys()
	sort.Strings(keys)
	return keys
}

// Get looks up a key in an object, returning (value, true) if present.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null, false
	}
	for i, k := range v.objKeys {
		if k == key {
			return v.objVals[i], true
		}
	}
	return Null, false
}

// Set returns a new object Value with key bound to val, preserving
// existing order or appending the key if new.
func (v Value) Set(key string, val Value) Value {
	keys := make([]string, len(v.objKeys))
	copy(keys, v.objKeys)
	vals := make([]Value, len(v.objVals))
	copy(vals, v.objVals)
	for i, k := range keys {
		if k == key {
			vals[i] = val
			return Value{kind: KindObject, objKeys: keys, objVals: vals}
		}
	}
	keys = append(keys, key)
	vals = append(vals, val)
	return Value{kind: KindObject, objKeys: keys, objVals: vals}
}

// Delete returns a new object Value with key removed (a no-op copy if the
// key was absent).
func (v Value) Delete(key string) Value {
	keys := make([]string, 0, len(v.objKeys))
	vals := make([]Value, 0, len(v.objVals))
	for i, k := range v.objKeys {
		if k != key {
			keys = append(keys, k)
			vals = append(vals, v.objVals[i])
		}
	}
	return Value{kind: KindObject, objKeys: keys, objVals: vals}
}

// Entries returns the object's (key, value) pairs in insertion order.
func (v Value) Entries() ([]string, []Value) {
	keys := make([]string, len(v.objKeys))
	copy(keys, v.objKeys)
	vals := make([]Value, len(v.objVals))
	copy(vals, v.objVals)
	return keys, vals
}

// ObjectFromEntries builds an object Value from parallel key/value slices,
// in the given order, later keys overwriting earlier duplicates in place.
func ObjectFromEntries(keys []string, vals []Value) Value {
	result := EmptyObject()
	for i, k := range keys {
		result = result.Set(k, vals[i])
	}
	return result
}

// orderRank assigns the cross-type ordering from the language's total
// order: Null < Bool < Number < String < Array < Object.
func orderRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindNumber:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	default:
		return 6
	}
}

// Compare implements the total order defined over the value domain:
// Null < Bool(false) < Bool(true) < Number < String < Array < Object,
// with the numeric/lexicographic/elementwise orders within each kind.
// Distinct objects compare equal to each other (and to themselves) under
// this order -- a deliberate design choice carried from the spec so that
// `group_by`/`sort_by` remain stable without needing a true total order
// on arbitrary objects.
func Compare(a, b Value) int {
	ra, rb := orderRank(a.kind), orderRank(b.kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindNumber:
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		default:
			return 0
		}
	case KindString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	case KindArray:
		for i := 0; i < len(a.arr) && i < len(b.arr); i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(a.arr) < len(b.arr):
			return -1
		case len(a.arr) > len(b.arr):
			return 1
		default:
			return 0
		}
	case KindObject:
		return 0
	default:
		return 0
	}
}

// Equal implements structural equality (==), used by the comparison
// operator and by `indices`/`index`/`contains`.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.objKeys) != len(b.objKeys) {
			return false
		}
		for _, k := range a.objKeys {
			av, _ := a.Get(k)
			bv, ok := b.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypeName returns the jq-visible type name, as produced by the `type`
// builtin.
func (v Value) TypeName() string { return v.kind.String() }
