package value

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "null"},
		{KindBool, "boolean"},
		{KindNumber, "number"},
		{KindString, "string"},
		{KindArray, "array"},
		{KindObject, "object"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), true},
		{String(""), true},
		{Array(), true},
		{EmptyObject(), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%+v.Truthy() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestObjectOrderPreserved(t *testing.T) {
	obj := EmptyObject().Set("b", Int(1)).Set("a", Int(2)).Set("b", Int(3))
	keys := obj.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("Keys() = %v, want [b a] (insertion order, re-set in place)", keys)
	}
	v, ok := obj.Get("b")
	if !ok || v.Int() != 3 {
		t.Fatalf("Get(b) = %v, %v, want 3, true", v, ok)
	}
}

func TestCompareTotalOrder(t *testing.T) {
	ordered := []Value{
		Null,
		Bool(false),
		Bool(true),
		Int(1),
		String("a"),
		Array(Int(1)),
		EmptyObject(),
	}
	for i := 0; i < len(ordered)-1; i++ {
		if Compare(ordered[i], ordered[i+1]) >= 0 {
			t.Errorf("Compare(%v, %v) should be negative", ordered[i], ordered[i+1])
		}
	}
}

func TestCompareObjectsAreEqualUnderOrder(t *testing.T) {
	a := EmptyObject().Set("x", Int(1))
	b := EmptyObject().Set("y", Int(2))
	if Compare(a, b) != 0 {
		t.Errorf("distinct objects should compare equal under the total order")
	}
}

func TestEqualStructural(t *testing.T) {
	a := EmptyObject().Set("x", Int(1)).Set("y", Array(Int(1), Int(2)))
	b := EmptyObject().Set("y", Array(Int(1), Int(2))).Set("x", Int(1))
	if !Equal(a, b) {
		t.Errorf("expected structurally equal objects regardless of insertion order")
	}
	if Equal(a, EmptyObject().Set("x", Int(1))) {
		t.Errorf("expected inequality for objects with different key sets")
	}
}

func TestIntegerPreservation(t *testing.T) {
	v := Float(4)
	if !v.IsInt() {
		t.Errorf("Float(4) should normalize to an integer-preserving Value")
	}
	v2 := Float(4.5)
	if v2.IsInt() {
		t.Errorf("Float(4.5) should not be flagged as integer")
	}
}

func TestLenByKind(t *testing.T) {
	if String("héllo").Len() != 5 {
		t.Errorf("Len() should count code points, not bytes")
	}
	if Array(Int(1), Int(2), Int(3)).Len() != 3 {
		t.Errorf("Array Len() mismatch")
	}
	if EmptyObject().Set("a", Int(1)).Len() != 1 {
		t.Errorf("Object Len() mismatch")
	}
}
