package parser

import (
	"strings"
	"testing"

	"github.com/cwbudde/jqlite/internal/ast"
)

func mustParse(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return expr
}

func TestParseIdentity(t *testing.T) {
	expr := mustParse(t, ".")
	if _, ok := expr.(ast.Identity); !ok {
		t.Fatalf("got %T, want ast.Identity", expr)
	}
}

func TestParseFieldChain(t *testing.T) {
	expr := mustParse(t, ".foo.bar")
	f, ok := expr.(ast.Field)
	if !ok {
		t.Fatalf("got %T, want ast.Field", expr)
	}
	if f.Name != "bar" {
		t.Errorf("outer field name = %q, want bar", f.Name)
	}
	inner, ok := f.Target.(ast.Field)
	if !ok || inner.Name != "foo" {
		t.Errorf("inner field = %#v, want foo", f.Target)
	}
}

func TestParsePipeAndComma(t *testing.T) {
	expr := mustParse(t, ".a, .b | .c")
	p, ok := expr.(ast.Pipe)
	if !ok {
		t.Fatalf("got %T, want ast.Pipe", expr)
	}
	if _, ok := p.Left.(ast.Comma); !ok {
		t.Errorf("pipe left = %T, want ast.Comma (comma binds tighter than pipe)", p.Left)
	}
}

func TestParseIndexAndIterate(t *testing.T) {
	expr := mustParse(t, ".arr[0]")
	idx, ok := expr.(ast.Index)
	if !ok {
		t.Fatalf("got %T, want ast.Index", expr)
	}
	lit, ok := idx.IndexVal.(ast.Literal)
	if !ok || lit.Value.Int() != 0 {
		t.Errorf("index value = %#v, want literal 0", idx.IndexVal)
	}

	iter := mustParse(t, ".arr[]")
	if _, ok := iter.(ast.Iterate); !ok {
		t.Fatalf("got %T, want ast.Iterate", iter)
	}
}

func TestParseSlice(t *testing.T) {
	expr := mustParse(t, ".[1:3]")
	sl, ok := expr.(ast.Slice)
	if !ok {
		t.Fatalf("got %T, want ast.Slice", expr)
	}
	if sl.From == nil || sl.To == nil {
		t.Errorf("slice bounds = %#v, %#v, want both set", sl.From, sl.To)
	}
}

func TestParseObjectConstructShorthand(t *testing.T) {
	expr := mustParse(t, "{a, b: .c}")
	obj, ok := expr.(ast.ObjectConstruct)
	if !ok {
		t.Fatalf("got %T, want ast.ObjectConstruct", expr)
	}
	if len(obj.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(obj.Entries))
	}
	if _, ok := obj.Entries[0].Value.(ast.Field); !ok {
		t.Errorf("shorthand entry value = %T, want ast.Field (desugared .a)", obj.Entries[0].Value)
	}
}

func TestParseIfElifElse(t *testing.T) {
	expr := mustParse(t, "if .a then 1 elif .b then 2 else 3 end")
	ifExpr, ok := expr.(ast.If)
	if !ok {
		t.Fatalf("got %T, want ast.If", expr)
	}
	if len(ifExpr.Elifs) != 1 {
		t.Errorf("got %d elifs, want 1", len(ifExpr.Elifs))
	}
	if ifExpr.Else == nil {
		t.Errorf("else branch missing")
	}
}

func TestParseTryCatch(t *testing.T) {
	expr := mustParse(t, "try .a catch .b")
	tr, ok := expr.(ast.Try)
	if !ok {
		t.Fatalf("got %T, want ast.Try", expr)
	}
	if tr.Catch == nil {
		t.Errorf("catch branch missing")
	}
}

func TestParseReduceAndForeach(t *testing.T) {
	expr := mustParse(t, "reduce .[] as $x (0; . + $x)")
	red, ok := expr.(ast.Reduce)
	if !ok {
		t.Fatalf("got %T, want ast.Reduce", expr)
	}
	if _, ok := red.Pattern.(ast.VarPattern); !ok {
		t.Errorf("pattern = %T, want ast.VarPattern", red.Pattern)
	}

	fe := mustParse(t, "foreach .[] as $x (0; . + $x; .)")
	fexpr, ok := fe.(ast.Foreach)
	if !ok {
		t.Fatalf("got %T, want ast.Foreach", fe)
	}
	if fexpr.Extract == nil {
		t.Errorf("extract branch missing")
	}
}

func TestParseFuncDefAndCall(t *testing.T) {
	expr := mustParse(t, "def addone(x): x + 1; addone(.)")
	def, ok := expr.(ast.FuncDef)
	if !ok {
		t.Fatalf("got %T, want ast.FuncDef", expr)
	}
	if def.Name != "addone" || len(def.Params) != 1 {
		t.Errorf("def = %#v", def)
	}
	call, ok := def.Rest.(ast.FuncCall)
	if !ok || call.Name != "addone" || len(call.Args) != 1 {
		t.Errorf("rest = %#v, want call to addone/1", def.Rest)
	}
}

func TestParseAssignmentForms(t *testing.T) {
	cases := map[string]string{
		".a = 1":  "ast.Assign",
		".a |= 1": "ast.UpdateAssign",
		".a += 1": "ast.ArithAssign",
		".a //= 1": "ast.AltAssign",
	}
	for src, wantType := range cases {
		expr := mustParse(t, src)
		got := ""
		switch expr.(type) {
		case ast.Assign:
			got = "ast.Assign"
		case ast.UpdateAssign:
			got = "ast.UpdateAssign"
		case ast.ArithAssign:
			got = "ast.ArithAssign"
		case ast.AltAssign:
			got = "ast.AltAssign"
		}
		if got != wantType {
			t.Errorf("Parse(%q) = %T, want %s", src, expr, wantType)
		}
	}
}

func TestParseLabelBreak(t *testing.T) {
	expr := mustParse(t, "label $out | break $out")
	lbl, ok := expr.(ast.Label)
	if !ok {
		t.Fatalf("got %T, want ast.Label", expr)
	}
	if _, ok := lbl.Body.(ast.Break); !ok {
		t.Errorf("body = %T, want ast.Break", lbl.Body)
	}
}

func TestParseAsBinding(t *testing.T) {
	expr := mustParse(t, ".a as $x | $x + 1")
	as, ok := expr.(ast.As)
	if !ok {
		t.Fatalf("got %T, want ast.As", expr)
	}
	if vp, ok := as.Pattern.(ast.VarPattern); !ok || vp.Name != "x" {
		t.Errorf("pattern = %#v, want VarPattern{x}", as.Pattern)
	}
}

func TestParseArrayDestructuringPattern(t *testing.T) {
	expr := mustParse(t, ". as [$a, $b] | $a")
	as, ok := expr.(ast.As)
	if !ok {
		t.Fatalf("got %T, want ast.As", expr)
	}
	arr, ok := as.Pattern.(ast.ArrayPattern)
	if !ok || len(arr.Elems) != 2 {
		t.Fatalf("pattern = %#v, want ArrayPattern of 2", as.Pattern)
	}
}

func TestParseAlternativeAndOptional(t *testing.T) {
	expr := mustParse(t, ".a // .b")
	if _, ok := expr.(ast.Alternative); !ok {
		t.Fatalf("got %T, want ast.Alternative", expr)
	}

	opt := mustParse(t, ".a?")
	if f, ok := opt.(ast.Field); !ok || !f.Optional {
		t.Fatalf("got %#v, want ast.Field with Optional set", opt)
	}
}

func TestParseFormatAndInterpolatedString(t *testing.T) {
	expr := mustParse(t, `"hello \(.name)"`)
	// String interpolation desugars into `+` BinOp/Pipe chains at the
	// lexer level; just confirm it parses into *some* composed expr
	// rather than a bare StringLiteral.
	if _, ok := expr.(ast.StringLiteral); ok {
		t.Errorf("interpolated string should not parse as a bare StringLiteral")
	}

	f := mustParse(t, "@base64")
	if _, ok := f.(ast.Format); !ok {
		t.Fatalf("got %T, want ast.Format", f)
	}
}

func TestParseErrorUnexpectedToken(t *testing.T) {
	_, err := Parse(".a |")
	if err == nil {
		t.Fatalf("expected a parse error for trailing pipe")
	}
	if !strings.Contains(err.Error(), "SyntaxError") {
		t.Errorf("Error() = %q, want SyntaxError kind", err.Error())
	}
}

func TestParseErrorMismatchedBrace(t *testing.T) {
	_, err := Parse("{a: 1")
	if err == nil {
		t.Fatalf("expected a parse error for unterminated object")
	}
}
