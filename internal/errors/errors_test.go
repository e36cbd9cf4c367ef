package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/jqlite/internal/lexer"
)

func TestQueryErrorMessage(t *testing.T) {
	err := TypeError("cannot iterate over %s", "number")
	if err.Kind != KindType {
		t.Fatalf("Kind = %v, want KindType", err.Kind)
	}
	if !strings.Contains(err.Error(), "cannot iterate over number") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestUndefinedVariable(t *testing.T) {
	err := UndefinedVariable("foo")
	if !strings.Contains(err.Error(), "$foo") {
		t.Errorf("Error() = %q, want mention of $foo", err.Error())
	}
}

func TestBreakSentinel(t *testing.T) {
	err := NewBreak("out")
	label, ok := BreakLabel(err)
	if !ok || label != "out" {
		t.Fatalf("BreakLabel = %q, %v, want out, true", label, ok)
	}
	if !IsBreakFor(err, "out") {
		t.Errorf("IsBreakFor(out) = false, want true")
	}
	if IsBreakFor(err, "other") {
		t.Errorf("IsBreakFor(other) = true, want false")
	}
	if _, ok := BreakLabel(TypeError("x")); ok {
		t.Errorf("a TypeError should not be mistaken for a break sentinel")
	}
}

func TestCompilerErrorFormat(t *testing.T) {
	src := ".foo | .[\n"
	ce := NewCompilerError(lexer.Position{Line: 1, Column: 10}, "unexpected end of input", src, "")
	out := ce.Format(false)
	if !strings.Contains(out, "unexpected end of input") {
		t.Errorf("Format() missing message: %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("Format() missing caret: %q", out)
	}
	qe := ce.AsQueryError()
	if qe.Kind != KindSyntax {
		t.Errorf("AsQueryError().Kind = %v, want KindSyntax", qe.Kind)
	}
}
