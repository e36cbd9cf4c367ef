package value

import "testing"

func TestJSONRoundTrip(t *testing.T) {
	inputs := []string{
		`null`,
		`true`,
		`false`,
		`42`,
		`-3.5`,
		`"hello\nworld"`,
		`[1,2,3]`,
		`{"a":1,"b":[2,3]}`,
		`{}`,
		`[]`,
	}
	for _, in := range inputs {
		v, err := FromJSON(in)
		if err != nil {
			t.Fatalf("FromJSON(%q) error: %v", in, err)
		}
		out := ToJSON(v, "")
		v2, err := FromJSON(out)
		if err != nil {
			t.Fatalf("FromJSON(ToJSON(%q)) error: %v", in, err)
		}
		if !Equal(v, v2) {
			t.Errorf("round trip mismatch for %q: got %q", in, out)
		}
	}
}

func TestJSONObjectKeyOrderPreserved(t *testing.T) {
	v, err := FromJSON(`{"z":1,"a":2,"m":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ToJSON(v, ""); got != `{"z":1,"a":2,"m":3}` {
		t.Errorf("ToJSON = %q, want insertion order preserved", got)
	}
}

func TestJSONIndent(t *testing.T) {
	v, _ := FromJSON(`{"a":[1,2]}`)
	got := ToJSON(v, "  ")
	want := "{\n  \"a\": [\n    1,\n    2\n  ]\n}"
	if got != want {
		t.Errorf("ToJSON indented = %q, want %q", got, want)
	}
}

func TestJSONUnicodeEscape(t *testing.T) {
	v, err := FromJSON(`"\u00e9"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str() != "é" {
		t.Errorf("got %q, want é", v.Str())
	}
}

func TestJSONSurrogatePair(t *testing.T) {
	v, err := FromJSON(`"\ud83d\ude00"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str() != "\U0001F600" {
		t.Errorf("got %q, want grinning face emoji", v.Str())
	}
}

func TestJSONInvalidInput(t *testing.T) {
	cases := []string{``, `{`, `[1,]`, `{"a":}`, `tru`}
	for _, in := range cases {
		if _, err := FromJSON(in); err == nil {
			t.Errorf("FromJSON(%q) should have failed", in)
		}
	}
}
