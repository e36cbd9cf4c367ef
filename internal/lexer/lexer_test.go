package lexer

import "testing"

func collectTypes(t *testing.T, input string) []TokenType {
	t.Helper()
	toks, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", input, err)
	}
	types := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexerPunctuation(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{".", []TokenType{DOT, EOF}},
		{"..", []TokenType{DOTDOT, EOF}},
		{"==", []TokenType{EQ, EOF}},
		{"!=", []TokenType{NE, EOF}},
		{"<=", []TokenType{LE, EOF}},
		{">=", []TokenType{GE, EOF}},
		{"|=", []TokenType{PIPEEQ, EOF}},
		{"+=", []TokenType{PLUSEQ, EOF}},
		{"-=", []TokenType{MINUSEQ, EOF}},
		{"*=", []TokenType{STAREQ, EOF}},
		{"/=", []TokenType{SLASHEQ, EOF}},
		{"%=", []TokenType{PERCENTEQ, EOF}},
		{"//=", []TokenType{ALTEQ, EOF}},
		{"//", []TokenType{ALTERNATE, EOF}},
		{".[].a?", []TokenType{DOT, LBRACKET, RBRACKET, DOT, IDENT, QUESTION, EOF}},
	}
	for _, tc := range tests {
		got := collectTypes(t, tc.input)
		if !sameTypes(got, tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestLexerBangWithoutEquals(t *testing.T) {
	_, err := Tokenize("! .a")
	if err == nil {
		t.Fatalf("expected syntax error for bare '!'")
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	toks, err := Tokenize("if then elif else end as def reduce foreach try catch label break and or not true false null foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{
		IF, THEN, ELIF, ELSE, END, AS, DEF, REDUCE, FOREACH, TRY, CATCH, LABEL, BREAK_KW,
		AND, OR, NOT, TRUE, FALSE, NULL, IDENT, EOF,
	}
	got := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	if !sameTypes(got, want) {
		t.Errorf("keyword lexing mismatch: got %v want %v", got, want)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []string{"1", "123", "1.5", ".5", "1e10", "1.5e-3", "1E+2"}
	for _, in := range tests {
		toks, err := Tokenize(in)
		if err != nil {
			t.Fatalf("Tokenize(%q) error: %v", in, err)
		}
		if toks[0].Type != NUMBER || toks[0].Literal != in {
			t.Errorf("Tokenize(%q) = %+v, want NUMBER %q", in, toks[0], in)
		}
	}
}

func TestLexerVariableAndFormat(t *testing.T) {
	toks, err := Tokenize("$foo @base64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != VAR || toks[0].Literal != "foo" {
		t.Errorf("got %+v, want VAR foo", toks[0])
	}
	if toks[1].Type != FORMAT || toks[1].Literal != "base64" {
		t.Errorf("got %+v, want FORMAT base64", toks[1])
	}
}

func TestLexerStringInterpolation(t *testing.T) {
	toks, err := Tokenize(`"Hello \(.name)!"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{
		STRING, PLUS, LPAREN, DOT, IDENT, PIPE, IDENT, RPAREN, PLUS, STRING, EOF,
	}
	got := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	if !sameTypes(got, want) {
		t.Fatalf("interpolation tokens = %v, want %v", got, want)
	}
	if toks[0].Literal != "Hello " {
		t.Errorf("first segment = %q, want %q", toks[0].Literal, "Hello ")
	}
	if toks[len(toks)-2].Literal != "!" {
		t.Errorf("last segment = %q, want %q", toks[len(toks)-2].Literal, "!")
	}
}

func TestLexerUnterminatedInterpolation(t *testing.T) {
	_, err := Tokenize(`"Hello \(.name!"`)
	if err == nil {
		t.Fatalf("expected error for unbalanced interpolation")
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"hello`)
	if err == nil {
		t.Fatalf("expected error for unterminated string")
	}
}

func sameTypes(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
