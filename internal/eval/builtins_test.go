package eval

import (
	"math"
	"testing"

	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/parser"
	"github.com/cwbudde/jqlite/internal/value"
	"github.com/stretchr/testify/require"
)

// run parses and evaluates filter against an already-built input Value,
// the shared helper every builtin test below uses.
func run(t *testing.T, filter string, input value.Value) []value.Value {
	t.Helper()
	expr, err := parser.Parse(filter)
	require.NoError(t, err, "parse %q", filter)
	outs, err := Run(expr, input)
	require.NoError(t, err, "eval %q against %v", filter, input)
	return outs
}

func mustJSON(t *testing.T, text string) value.Value {
	t.Helper()
	v, err := value.FromJSON(text)
	require.NoError(t, err)
	return v
}

func TestBuiltinCollections(t *testing.T) {
	cases := []struct {
		name, filter, input, want string
	}{
		{"map", "map(.+1)", "[1,2,3]", "[2,3,4]"},
		{"sort_by", "sort_by(.a)", `[{"a":2},{"a":1}]`, `[{"a":1},{"a":2}]`},
		{"group_by", "group_by(.)", "[1,1,2]", "[[1,1],[2]]"},
		{"unique", "unique", "[3,1,1,2]", "[1,2,3]"},
		{"unique_by", "unique_by(.a)", `[{"a":1,"b":1},{"a":1,"b":2}]`, `[{"a":1,"b":1}]`},
		{"min_max", "[min, max]", "[3,1,2]", "[1,3]"},
		{"flatten", "flatten", "[[1,[2]],[3]]", "[1,2,3]"},
		{"flatten_depth", "flatten(1)", "[[1,[2]],[3]]", "[1,[2],3]"},
		{"reverse", "reverse", "[1,2,3]", "[3,2,1]"},
		{"to_entries", "to_entries", `{"a":1}`, `[{"key":"a","value":1}]`},
		{"from_entries", "from_entries", `[{"key":"a","value":1}]`, `{"a":1}`},
		{"keys", "keys", `{"b":1,"a":2}`, `["a","b"]`},
		{"indices", `indices(",")`, `"a,b,c"`, "[1,3]"},
		{"getpath", `getpath(["a","b"])`, `{"a":{"b":5}}`, "5"},
		{"setpath", `setpath(["a"];9)`, `{"a":1}`, `{"a":9}`},
		{"delpaths", `delpaths([[0]])`, "[1,2,3]", "[2,3]"},
		{"del", "del(.a)", `{"a":1,"b":2}`, `{"b":2}`},
		{"paths", "[paths]", `{"a":[1]}`, `[["a"],["a",0]]`},
		{"limit", "[limit(2; .[])]", "[1,2,3,4]", "[1,2]"},
		{"first_last", "[first, last]", "[1,2,3]", "[1,3]"},
		{"nth", "nth(1)", "[1,2,3]", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outs := run(t, tc.filter, mustJSON(t, tc.input))
			require.Len(t, outs, 1)
			require.True(t, value.Equal(outs[0], mustJSON(t, tc.want)),
				"%s: got %s want %s", tc.name, value.ToJSON(outs[0], ""), tc.want)
		})
	}
}

func TestBuiltinStrings(t *testing.T) {
	cases := []struct {
		name, filter, input, want string
	}{
		{"split", `split(",")`, `"a,b,c"`, `["a","b","c"]`},
		{"join", `join("-")`, `["a","b","c"]`, `"a-b-c"`},
		{"ltrimstr", `ltrimstr("foo")`, `"foobar"`, `"bar"`},
		{"rtrimstr", `rtrimstr("bar")`, `"foobar"`, `"foo"`},
		{"startswith", `startswith("foo")`, `"foobar"`, "true"},
		{"endswith", `endswith("bar")`, `"foobar"`, "true"},
		{"ascii_upcase", "ascii_upcase", `"abc"`, `"ABC"`},
		{"explode_implode", "explode | implode", `"abc"`, `"abc"`},
		{"tostring", "tostring", "5", `"5"`},
		{"tonumber", "tonumber", `"5"`, "5"},
		{"test", `test("^a")`, `"abc"`, "true"},
		{"sub", `sub("a";"X")`, `"banana"`, `"bXnana"`},
		{"gsub", `gsub("a";"X")`, `"banana"`, `"bXnXnX"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outs := run(t, tc.filter, mustJSON(t, tc.input))
			require.Len(t, outs, 1)
			require.True(t, value.Equal(outs[0], mustJSON(t, tc.want)),
				"%s: got %s want %s", tc.name, value.ToJSON(outs[0], ""), tc.want)
		})
	}
}

func TestBuiltinCapture(t *testing.T) {
	outs := run(t, `capture("(?<y>[0-9]+)-(?<m>[0-9]+)")`, value.String("2024-05"))
	require.Len(t, outs, 1)
	y, ok := outs[0].Get("y")
	require.True(t, ok)
	require.Equal(t, "2024", y.Str())
	m, ok := outs[0].Get("m")
	require.True(t, ok)
	require.Equal(t, "05", m.Str())
}

func TestBuiltinMath(t *testing.T) {
	cases := []struct {
		name, filter, input, want string
	}{
		{"sqrt", "sqrt", "16", "4"},
		{"floor", "floor", "1.9", "1"},
		{"pow", "pow(2;10)", "null", "1024"},
		{"fabs", "fabs", "-3", "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outs := run(t, tc.filter, mustJSON(t, tc.input))
			require.Len(t, outs, 1)
			require.InDelta(t, mustJSON(t, tc.want).Number(), outs[0].Number(), 1e-9)
		})
	}
}

func TestBuiltinFormat(t *testing.T) {
	outs := run(t, "@base64", value.String("hello"))
	require.Len(t, outs, 1)
	require.Equal(t, "aGVsbG8=", outs[0].Str())

	outs = run(t, "@base64d", value.String("aGVsbG8="))
	require.Len(t, outs, 1)
	require.Equal(t, "hello", outs[0].Str())

	outs = run(t, "@csv", mustJSON(t, `[1,"a,b",null]`))
	require.Len(t, outs, 1)
	require.Equal(t, `1,"a,b",`, outs[0].Str())
}

func TestBuiltinHaltIsNotCatchable(t *testing.T) {
	expr, err := parser.Parse(`try halt catch "caught"`)
	require.NoError(t, err)
	_, err = Run(expr, value.Null)
	require.Error(t, err)
	code, msg, ok := errors.HaltInfo(err)
	require.True(t, ok, "expected a halt sentinel, got %v", err)
	require.Equal(t, 0, code)
	require.Equal(t, "", msg)
}

func TestBuiltinHaltErrorCarriesMessage(t *testing.T) {
	expr, err := parser.Parse(`"boom" | halt_error`)
	require.NoError(t, err)
	_, err = Run(expr, value.Null)
	require.Error(t, err)
	code, msg, ok := errors.HaltInfo(err)
	require.True(t, ok)
	require.Equal(t, 5, code)
	require.Equal(t, "boom", msg)
}

func TestDivModByZeroYieldsNaN(t *testing.T) {
	outs := run(t, "1/0", value.Null)
	require.Len(t, outs, 1)
	require.True(t, math.IsNaN(outs[0].Number()), "1/0 should be NaN, got %v", outs[0])

	outs = run(t, "1%0", value.Null)
	require.Len(t, outs, 1)
	require.True(t, math.IsNaN(outs[0].Number()), "1%%0 should be NaN, got %v", outs[0])

	outs = run(t, "(1/0) | isnan", value.Null)
	require.Len(t, outs, 1)
	require.True(t, outs[0].Truthy())
}

func TestBuiltinDateTimeRoundTrip(t *testing.T) {
	outs := run(t, "mktime", run(t, "gmtime", mustJSON(t, "1700000000"))[0])
	require.Len(t, outs, 1)
	require.Equal(t, int64(1700000000), outs[0].Int())
}

func TestBuiltinInputDriverSeam(t *testing.T) {
	e := New()
	sc := env.New()
	docs := []value.Value{value.Int(1), value.Int(2)}
	i := 0
	sc.SetInputSource(func() (value.Value, bool) {
		if i >= len(docs) {
			return value.Null, false
		}
		v := docs[i]
		i++
		return v, true
	})
	expr, err := parser.Parse("[inputs]")
	require.NoError(t, err)
	outs, err := e.Eval(expr, value.Null, sc)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.True(t, value.Equal(outs[0], mustJSON(t, "[1,2]")))
}
