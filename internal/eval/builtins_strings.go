package eval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

func init() {
	registerBuiltin("split", 1, builtinSplit1)
	registerBuiltin("split", 2, builtinSplit2)
	registerBuiltin("join", 1, builtinJoin)
	registerBuiltin("ltrimstr", 1, builtinLtrimstr)
	registerBuiltin("rtrimstr", 1, builtinRtrimstr)
	registerBuiltin("trimstr", 1, builtinTrimstr)
	registerBuiltin("startswith", 1, builtinStartswith)
	registerBuiltin("endswith", 1, builtinEndswith)
	registerBuiltin("ascii_downcase", 0, builtinAsciiDowncase)
	registerBuiltin("ascii_upcase", 0, builtinAsciiUpcase)
	registerBuiltin("explode", 0, builtinExplode)
	registerBuiltin("implode", 0, builtinImplode)
	registerBuiltin("tostring", 0, builtinTostring)
	registerBuiltin("tonumber", 0, builtinTonumber)
	registerBuiltin("test", 1, builtinTest1)
	registerBuiltin("test", 2, builtinTest2)
	registerBuiltin("match", 1, builtinMatch1)
	registerBuiltin("match", 2, builtinMatch2)
	registerBuiltin("capture", 1, builtinCapture1)
	registerBuiltin("capture", 2, builtinCapture2)
	registerBuiltin("scan", 1, builtinScan1)
	registerBuiltin("scan", 2, builtinScan2)
	registerBuiltin("sub", 2, builtinSub2)
	registerBuiltin("sub", 3, builtinSub3)
	registerBuiltin("gsub", 2, builtinGsub2)
	registerBuiltin("gsub", 3, builtinGsub3)
	registerBuiltin("splits", 1, builtinSplits1)
	registerBuiltin("splits", 2, builtinSplits2)
}

func builtinSplit1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("split input must be a string")
	}
	seps, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, sepVal := range seps {
		if sepVal.Kind() != value.KindString {
			return nil, errors.TypeError("split separator must be a string")
		}
		out = append(out, splitString(input.Str(), sepVal.Str()))
	}
	return out, nil
}

func builtinSplit2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("split input must be a string")
	}
	regexes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	flagsVals, err := evalArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, rv := range regexes {
		for _, fv := range flagsVals {
			re, err := compileRegex(rv.Str(), flagStr(fv))
			if err != nil {
				return nil, err
			}
			parts := re.Split(input.Str(), -1)
			elems := make([]value.Value, len(parts))
			for i, p := range parts {
				elems[i] = value.String(p)
			}
			out = append(out, value.Array(elems...))
		}
	}
	return out, nil
}

func builtinSplits1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	vs, err := builtinSplit2Flagless(e, call, input, sc, "")
	if err != nil {
		return nil, err
	}
	return vs[0].Elements(), nil
}

func builtinSplits2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	flagsVals, err := evalArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, fv := range flagsVals {
		vs, err := builtinSplit2Flagless(e, call, input, sc, flagStr(fv))
		if err != nil {
			return nil, err
		}
		out = append(out, vs[0].Elements()...)
	}
	return out, nil
}

func builtinSplit2Flagless(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flags string) ([]value.Value, error) {
	regexes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, rv := range regexes {
		re, err := compileRegex(rv.Str(), flags)
		if err != nil {
			return nil, err
		}
		parts := re.Split(input.Str(), -1)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = value.String(p)
		}
		out = append(out, value.Array(elems...))
	}
	return out, nil
}

func builtinJoin(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("join input must be an array")
	}
	seps, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, sepVal := range seps {
		if sepVal.Kind() != value.KindString {
			return nil, errors.TypeError("join separator must be a string")
		}
		parts := make([]string, 0, input.Len())
		for _, el := range input.Elements() {
			switch el.Kind() {
			case value.KindNull:
				parts = append(parts, "")
			case value.KindString:
				parts = append(parts, el.Str())
			default:
				parts = append(parts, stringify(el))
			}
		}
		out = append(out, value.String(strings.Join(parts, sepVal.Str())))
	}
	return out, nil
}

func builtinLtrimstr(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	prefixes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, p := range prefixes {
		if input.Kind() != value.KindString || p.Kind() != value.KindString {
			out = append(out, input)
			continue
		}
		out = append(out, value.String(strings.TrimPrefix(input.Str(), p.Str())))
	}
	return out, nil
}

func builtinRtrimstr(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	suffixes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, s := range suffixes {
		if input.Kind() != value.KindString || s.Kind() != value.KindString {
			out = append(out, input)
			continue
		}
		out = append(out, value.String(strings.TrimSuffix(input.Str(), s.Str())))
	}
	return out, nil
}

func builtinTrimstr(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	ls, err := builtinLtrimstr(e, call, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, l := range ls {
		rs, err := builtinRtrimstr(e, call, l, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func builtinStartswith(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("startswith() requires string inputs")
	}
	prefixes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, p := range prefixes {
		if p.Kind() != value.KindString {
			return nil, errors.TypeError("startswith() requires string inputs")
		}
		out = append(out, value.Bool(strings.HasPrefix(input.Str(), p.Str())))
	}
	return out, nil
}

func builtinEndswith(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("endswith() requires string inputs")
	}
	suffixes, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, s := range suffixes {
		if s.Kind() != value.KindString {
			return nil, errors.TypeError("endswith() requires string inputs")
		}
		out = append(out, value.Bool(strings.HasSuffix(input.Str(), s.Str())))
	}
	return out, nil
}

func builtinAsciiDowncase(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("ascii_downcase input must be a string")
	}
	return []value.Value{value.String(asciiMap(input.Str(), false))}, nil
}

func builtinAsciiUpcase(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("ascii_upcase input must be a string")
	}
	return []value.Value{value.String(asciiMap(input.Str(), true))}, nil
}

func asciiMap(s string, upper bool) string {
	b := []byte(s)
	for i, c := range b {
		if upper && c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		} else if !upper && c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func builtinExplode(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("explode input must be a string")
	}
	runes := []rune(input.Str())
	out := make([]value.Value, len(runes))
	for i, r := range runes {
		out[i] = value.Int(int64(r))
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinImplode(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("implode input must be an array")
	}
	var sb strings.Builder
	for _, el := range input.Elements() {
		if el.Kind() != value.KindNumber {
			return nil, errors.TypeError("implode input must be an array of codepoint numbers")
		}
		sb.WriteRune(rune(el.Int()))
	}
	return []value.Value{value.String(sb.String())}, nil
}

func builtinTostring(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.String(stringify(input))}, nil
}

func builtinTonumber(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	switch input.Kind() {
	case value.KindNumber:
		return []value.Value{input}, nil
	case value.KindString:
		s := strings.TrimSpace(input.Str())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return []value.Value{value.Int(n)}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.TypeError("cannot parse %q as a number", input.Str())
		}
		return []value.Value{value.Float(f)}, nil
	default:
		return nil, errors.TypeError("%s cannot be parsed as a number", input.TypeName())
	}
}

func flagStr(v value.Value) string {
	if v.Kind() == value.KindString {
		return v.Str()
	}
	return ""
}

// compileRegex translates the handful of oniguruma flags test/match/scan/sub
// support onto Go's RE2 syntax via inline (?i)/(?s)/(?m) groups; `x` strips
// unescaped whitespace and `#` comments from the pattern, since RE2 has no
// (?x); `g` is handled by the caller (all-matches vs first-match).
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var inline string
	for _, f := range flags {
		switch f {
		case 'i':
			inline += "i"
		case 'x':
			pattern = regexp.MustCompile(`\\.|#[^\n]*|\s`).ReplaceAllStringFunc(pattern, func(m string) string {
				if m[0] == '\\' {
					return m
				}
				return ""
			})
		case 's':
			inline += "s"
		case 'm':
			inline += "m"
		case 'g', 'n', 'l', 'p':
			// handled by callers, or not supported by RE2
		}
	}
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}
	re, err := regexp.Compile(translateNamedGroups(pattern))
	if err != nil {
		return nil, errors.Runtime("%s is not a valid regex: %v", pattern, err)
	}
	return re, nil
}

// translateNamedGroups rewrites oniguruma's `(?<name>...)` named-capture
// syntax into RE2's `(?P<name>...)`. It leaves `(?<=...)` and `(?<!...)`
// (lookbehind assertions oniguruma supports but RE2 does not) untouched,
// so they surface as an ordinary "not a valid regex" compile error rather
// than being silently misinterpreted as a capture named "=...)" or "!...)"
func translateNamedGroups(pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		if strings.HasPrefix(pattern[i:], "(?<") && i+3 < len(pattern) &&
			pattern[i+3] != '=' && pattern[i+3] != '!' {
			sb.WriteString("(?P<")
			i += 2
			continue
		}
		sb.WriteByte(pattern[i])
	}
	return sb.String()
}

func hasFlag(flags string, c byte) bool {
	return strings.IndexByte(flags, c) >= 0
}

func builtinTest1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexTest(e, call, input, sc, nil)
}

func builtinTest2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexTest(e, call, input, sc, call.Args[1:])
}

func regexTest(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flagArgs []ast.Expr) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("%s cannot be matched, as it is not a string", input.TypeName())
	}
	pats, flagSets, err := regexArgPairs(e, call, input, sc, flagArgs)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for i, pat := range pats {
		re, err := compileRegex(pat, flagSets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, value.Bool(re.MatchString(input.Str())))
	}
	return out, nil
}

// regexArgPairs resolves arg 0 either as a bare pattern string or a
// [pattern, flags] two-element array (jq's combined form), and pairs it
// with the separate flags argument when one was supplied.
func regexArgPairs(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flagArgs []ast.Expr) ([]string, []string, error) {
	argVals, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, nil, err
	}
	var pats, flags []string
	for _, av := range argVals {
		pat, fl := "", ""
		if av.Kind() == value.KindArray {
			elems := av.Elements()
			if len(elems) > 0 {
				pat = elems[0].Str()
			}
			if len(elems) > 1 {
				fl = elems[1].Str()
			}
		} else {
			pat = av.Str()
		}
		if len(flagArgs) > 0 {
			fvs, err := e.Eval(flagArgs[0], input, sc)
			if err != nil {
				return nil, nil, err
			}
			for _, fv := range fvs {
				pats = append(pats, pat)
				flags = append(flags, flagStr(fv)+fl)
			}
			continue
		}
		pats = append(pats, pat)
		flags = append(flags, fl)
	}
	return pats, flags, nil
}

func builtinMatch1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexMatch(e, call, input, sc, nil)
}

func builtinMatch2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexMatch(e, call, input, sc, call.Args[1:])
}

func regexMatch(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flagArgs []ast.Expr) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("%s cannot be matched, as it is not a string", input.TypeName())
	}
	pats, flagSets, err := regexArgPairs(e, call, input, sc, flagArgs)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for i, pat := range pats {
		re, err := compileRegex(pat, flagSets[i])
		if err != nil {
			return nil, err
		}
		matches := matchObjects(re, input.Str(), hasFlag(flagSets[i], 'g'))
		out = append(out, matches...)
	}
	return out, nil
}

func matchObjects(re *regexp.Regexp, s string, global bool) []value.Value {
	names := re.SubexpNames()
	var idxs [][]int
	if global {
		idxs = re.FindAllSubmatchIndex([]byte(s), -1)
	} else if m := re.FindSubmatchIndex([]byte(s)); m != nil {
		idxs = [][]int{m}
	}
	out := make([]value.Value, 0, len(idxs))
	for _, m := range idxs {
		out = append(out, matchObjectFrom(s, m, names))
	}
	return out
}

func matchObjectFrom(s string, m []int, names []string) value.Value {
	obj := value.EmptyObject()
	obj = obj.Set("offset", value.Int(int64(runeOffset(s, m[0]))))
	obj = obj.Set("length", value.Int(int64(runeOffset(s, m[1])-runeOffset(s, m[0]))))
	obj = obj.Set("string", value.String(s[m[0]:m[1]]))
	var captures []value.Value
	for i := 1; i*2 < len(m); i++ {
		start, end := m[i*2], m[i*2+1]
		capture := value.EmptyObject()
		if start < 0 {
			capture = capture.Set("offset", value.Int(-1))
			capture = capture.Set("length", value.Int(0))
			capture = capture.Set("string", value.Null)
		} else {
			capture = capture.Set("offset", value.Int(int64(runeOffset(s, start))))
			capture = capture.Set("length", value.Int(int64(runeOffset(s, end)-runeOffset(s, start))))
			capture = capture.Set("string", value.String(s[start:end]))
		}
		name := value.Null
		if i < len(names) && names[i] != "" {
			name = value.String(names[i])
		}
		capture = capture.Set("name", name)
		captures = append(captures, capture)
	}
	obj = obj.Set("captures", value.Array(captures...))
	return obj
}

func runeOffset(s string, byteIdx int) int {
	return len([]rune(s[:byteIdx]))
}

func builtinCapture1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexCapture(e, call, input, sc, nil)
}

func builtinCapture2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexCapture(e, call, input, sc, call.Args[1:])
}

func regexCapture(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flagArgs []ast.Expr) ([]value.Value, error) {
	matches, err := regexMatch(e, call, input, sc, flagArgs)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, m := range matches {
		out = append(out, captureObjectFrom(m))
	}
	return out, nil
}

func captureObjectFrom(m value.Value) value.Value {
	result := value.EmptyObject()
	caps, _ := m.Get("captures")
	for _, c := range caps.Elements() {
		name, _ := c.Get("name")
		if name.Kind() != value.KindString {
			continue
		}
		str, _ := c.Get("string")
		result = result.Set(name.Str(), str)
	}
	return result
}

func builtinScan1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexScan(e, call, input, sc, nil)
}

func builtinScan2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexScan(e, call, input, sc, call.Args[1:])
}

func regexScan(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, flagArgs []ast.Expr) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("%s cannot be matched, as it is not a string", input.TypeName())
	}
	pats, flagSets, err := regexArgPairs(e, call, input, sc, flagArgs)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for i, pat := range pats {
		re, err := compileRegex(pat, flagSets[i])
		if err != nil {
			return nil, err
		}
		for _, m := range re.FindAllStringSubmatch(input.Str(), -1) {
			if len(m) == 1 {
				out = append(out, value.String(m[0]))
				continue
			}
			elems := make([]value.Value, len(m)-1)
			for j, g := range m[1:] {
				if g == "" {
					elems[j] = value.Null
				} else {
					elems[j] = value.String(g)
				}
			}
			out = append(out, value.Array(elems...))
		}
	}
	return out, nil
}

func builtinSub2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexSub(e, call, input, sc, false, "")
}

func builtinSub3(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	flagsVals, err := evalArg(e, call, 2, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, fv := range flagsVals {
		vs, err := regexSub(e, call, input, sc, false, flagStr(fv))
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func builtinGsub2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return regexSub(e, call, input, sc, true, "")
}

func builtinGsub3(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	flagsVals, err := evalArg(e, call, 2, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, fv := range flagsVals {
		vs, err := regexSub(e, call, input, sc, true, flagStr(fv))
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// regexSub implements sub/gsub: the replacement is itself a filter run
// against an object of the named captures, mirroring jq's documented
// `"\(.year)-\(.month)"`-style replacement semantics.
func regexSub(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, global bool, flags string) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("%s cannot be matched, as it is not a string", input.TypeName())
	}
	pats, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, patVal := range pats {
		re, err := compileRegex(patVal.Str(), flags)
		if err != nil {
			return nil, err
		}
		s := input.Str()
		idxs := [][]int{}
		if global {
			idxs = re.FindAllSubmatchIndex([]byte(s), -1)
		} else if m := re.FindSubmatchIndex([]byte(s)); m != nil {
			idxs = [][]int{m}
		}
		if len(idxs) == 0 {
			out = append(out, value.String(s))
			continue
		}
		names := re.SubexpNames()
		var sb strings.Builder
		last := 0
		for _, m := range idxs {
			sb.WriteString(s[last:m[0]])
			capObj := value.EmptyObject()
			for i := 1; i*2 < len(m); i++ {
				if i >= len(names) || names[i] == "" {
					continue
				}
				if m[i*2] < 0 {
					capObj = capObj.Set(names[i], value.Null)
				} else {
					capObj = capObj.Set(names[i], value.String(s[m[i*2]:m[i*2+1]]))
				}
			}
			repls, err := e.Eval(call.Args[1], capObj, sc)
			if err != nil {
				return nil, err
			}
			if len(repls) > 0 {
				sb.WriteString(stringify(repls[0]))
			}
			last = m[1]
		}
		sb.WriteString(s[last:])
		out = append(out, value.String(sb.String()))
	}
	return out, nil
}
