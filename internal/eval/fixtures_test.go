package eval_test

import (
	"fmt"
	"testing"

	"github.com/cwbudde/jqlite/internal/value"
	"github.com/cwbudde/jqlite/pkg/jqlite"
	"github.com/gkampitakis/go-snaps/snaps"
)

// TestEndToEndFixtures snapshot-tests whole filter -> output(s) runs the
// way go-dws's internal/interp/fixture_test.go snapshots whole DWScript
// fixture runs, over a fixed list of scenarios sweeping the filter
// language and the builtin catalog.
func TestEndToEndFixtures(t *testing.T) {
	fixtures := []struct {
		name   string
		filter string
		input  string
	}{
		{"identity", ".", `{"a":1}`},
		{"field_access", ".a.b", `{"a":{"b":42}}`},
		{"optional_field_missing", ".a.b?", `{"a":1}`},
		{"iterate_array", ".[]", `[1,2,3]`},
		{"iterate_object", ".[]", `{"a":1,"b":2}`},
		{"slice", ".[1:3]", `[0,1,2,3,4]`},
		{"pipe", ".a | .b", `{"a":{"b":7}}`},
		{"comma", ".a, .b", `{"a":1,"b":2}`},
		{"array_construct", "[.[] | . * 2]", `[1,2,3]`},
		{"object_construct", "{x: .a, y: .b}", `{"a":1,"b":2}`},
		{"object_shorthand", "{a, b}", `{"a":1,"b":2,"c":3}`},
		{"alternative_null", ".a // 5", `{"a":null}`},
		{"alternative_error", ".a? // 5", `{"b":1}`},
		{"if_then_else", "if .a > 1 then \"big\" else \"small\" end", `{"a":5}`},
		{"try_catch", "try error(\"boom\") catch .", `null`},
		{"reduce", "reduce .[] as $x (0; . + $x)", `[1,2,3,4]`},
		{"foreach", "[foreach .[] as $x (0; . + $x; .)]", `[1,2,3]`},
		{"as_binding", ".a as $x | $x + 1", `{"a":10}`},
		{"label_break", "label $out | foreach range(10) as $i (0; . + $i; if . > 5 then ., break $out else . end)", `null`},
		{"recurse", "[recurse] | length", `{"a":{"b":{"c":1}}}`},
		{"select", "[.[] | select(. > 2)]", `[1,2,3,4]`},
		{"map", "[.[] | . + 1] ", `[1,2,3]`},
		{"sort_by", "sort_by(.a)", `[{"a":3},{"a":1},{"a":2}]`},
		{"group_by", "group_by(.a)", `[{"a":1},{"a":2},{"a":1}]`},
		{"unique", "unique", `[3,1,2,1,3]`},
		{"to_entries", "to_entries", `{"a":1,"b":2}`},
		{"from_entries", "from_entries", `[{"key":"a","value":1}]`},
		{"keys", "keys", `{"b":2,"a":1}`},
		{"has", ".[] | has(\"a\")", `[{"a":1},{"b":1}]`},
		{"paths", "[paths]", `{"a":[1,2]}`},
		{"getpath_setpath", "setpath([\"a\",0]; 9)", `{"a":[1,2]}`},
		{"del", "del(.a)", `{"a":1,"b":2}`},
		{"split_join", "split(\",\") | join(\"-\")", `"a,b,c"`},
		{"test_regex", "test(\"^a\")", `"abc"`},
		{"capture", "capture(\"(?<y>[0-9]+)-(?<m>[0-9]+)\")", `"2024-05"`},
		{"sub", "sub(\"a\"; \"X\")", `"banana"`},
		{"gsub", "gsub(\"a\"; \"X\")", `"banana"`},
		{"tojson_fromjson", "tojson | fromjson", `{"a":1}`},
		{"format_csv", "@csv", `[1,"a,b",null]`},
		{"format_base64", "@base64", `"hello"`},
		{"math_sqrt", "sqrt", `16`},
		{"string_interp", `"\(.a) items"`, `{"a":3}`},
		{"error_type_mismatch", ".a + 1", `{"a":"x"}`},
	}

	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			in, err := jqlite.ParseJSON(fx.input)
			if err != nil {
				t.Fatalf("invalid fixture input JSON: %v", err)
			}
			outs, runErr := jqlite.Run(fx.filter, in)
			result := renderResult(outs, runErr)
			snaps.MatchSnapshot(t, fmt.Sprintf("%s_result", fx.name), result)
		})
	}
}

func renderResult(outs []value.Value, err error) string {
	if err != nil {
		return "ERROR: " + err.Error()
	}
	s := ""
	for _, o := range outs {
		s += jqlite.ToJSON(o, "") + "\n"
	}
	return s
}
