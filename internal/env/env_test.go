package env

import (
	"testing"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/value"
)

func TestWithVarShadowing(t *testing.T) {
	root := New().WithVar("x", value.Int(1))
	child := root.WithVar("x", value.Int(2))

	if v, ok := child.LookupVar("x"); !ok || v.Int() != 2 {
		t.Fatalf("child LookupVar(x) = %v, %v, want 2, true", v, ok)
	}
	if v, ok := root.LookupVar("x"); !ok || v.Int() != 1 {
		t.Fatalf("parent unaffected: LookupVar(x) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := root.LookupVar("y"); ok {
		t.Fatalf("LookupVar(y) should fail on root")
	}
}

func TestWithFuncArityDistinguishes(t *testing.T) {
	def1 := &ast.FuncDef{Name: "f", Params: nil}
	def2 := &ast.FuncDef{Name: "f", Params: []string{"x"}}
	e := New().WithFunc(def1).WithFunc(def2)

	got, _, ok := e.LookupFunc("f", 0)
	if !ok || got != def1 {
		t.Errorf("LookupFunc(f, 0) did not resolve to the 0-arity definition")
	}
	got, _, ok = e.LookupFunc("f", 1)
	if !ok || got != def2 {
		t.Errorf("LookupFunc(f, 1) did not resolve to the 1-arity definition")
	}
	if _, _, ok := e.LookupFunc("f", 2); ok {
		t.Errorf("LookupFunc(f, 2) should not resolve")
	}
}

func TestInputSourceInheritedFromRoot(t *testing.T) {
	root := New()
	calls := 0
	root.SetInputSource(func() (value.Value, bool) {
		calls++
		return value.Int(int64(calls)), true
	})
	child := root.WithVar("x", value.Null)

	v, ok := child.NextInput()
	if !ok || v.Int() != 1 {
		t.Fatalf("NextInput() = %v, %v, want 1, true", v, ok)
	}
}

func TestNextInputWithoutSource(t *testing.T) {
	if _, ok := New().NextInput(); ok {
		t.Errorf("NextInput() on an Env with no source should report false")
	}
}
