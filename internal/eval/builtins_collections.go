package eval

import (
	"sort"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

func init() {
	registerBuiltin("map", 1, builtinMap)
	registerBuiltin("map_values", 1, builtinMapValues)
	registerBuiltin("to_entries", 0, builtinToEntries)
	registerBuiltin("from_entries", 0, builtinFromEntries)
	registerBuiltin("with_entries", 1, builtinWithEntries)
	registerBuiltin("keys", 0, builtinKeys)
	registerBuiltin("keys_unsorted", 0, builtinKeysUnsorted)
	registerBuiltin("values", 0, builtinValues)
	registerBuiltin("flatten", 0, builtinFlatten0)
	registerBuiltin("flatten", 1, builtinFlatten1)
	registerBuiltin("reverse", 0, builtinReverse)
	registerBuiltin("sort", 0, builtinSort)
	registerBuiltin("sort_by", 1, builtinSortBy)
	registerBuiltin("group_by", 1, builtinGroupBy)
	registerBuiltin("unique", 0, builtinUnique)
	registerBuiltin("unique_by", 1, builtinUniqueBy)
	registerBuiltin("min", 0, builtinMin)
	registerBuiltin("max", 0, builtinMax)
	registerBuiltin("min_by", 1, builtinMinBy)
	registerBuiltin("max_by", 1, builtinMaxBy)
	registerBuiltin("first", 0, builtinFirst0)
	registerBuiltin("first", 1, builtinFirst1)
	registerBuiltin("last", 0, builtinLast0)
	registerBuiltin("last", 1, builtinLast1)
	registerBuiltin("nth", 1, builtinNth1)
	registerBuiltin("nth", 2, builtinNth2)
	registerBuiltin("limit", 2, builtinLimit)
	registerBuiltin("until", 2, builtinUntil)
	registerBuiltin("while", 2, builtinWhile)
	registerBuiltin("repeat", 1, builtinRepeat)
	registerBuiltin("walk", 1, builtinWalk)
	registerBuiltin("indices", 1, builtinIndices)
	registerBuiltin("index", 1, builtinIndex)
	registerBuiltin("rindex", 1, builtinRindex)
	registerBuiltin("paths", 0, builtinPaths)
	registerBuiltin("paths", 1, builtinPathsFilter)
	registerBuiltin("leaf_paths", 0, builtinLeafPaths)
	registerBuiltin("path", 1, builtinPath)
	registerBuiltin("getpath", 1, builtinGetpath)
	registerBuiltin("setpath", 2, builtinSetpath)
	registerBuiltin("delpaths", 1, builtinDelpaths)
	registerBuiltin("del", 1, builtinDel)
	registerBuiltin("transpose", 0, builtinTranspose)
	registerBuiltin("combinations", 0, builtinCombinations0)
	registerBuiltin("ascii", 0, builtinAscii)
}

func builtinMap(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	var out []value.Value
	for _, el := range elementsOf(input) {
		vs, err := e.Eval(call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinMapValues(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	switch input.Kind() {
	case value.KindArray:
		var out []value.Value
		for _, el := range input.Elements() {
			vs, err := e.Eval(call.Args[0], el, sc)
			if err != nil {
				return nil, err
			}
			if len(vs) > 0 {
				out = append(out, vs[0])
			}
		}
		return []value.Value{value.Array(out...)}, nil
	case value.KindObject:
		result := value.EmptyObject()
		keys, vals := input.Entries()
		for i, k := range keys {
			vs, err := e.Eval(call.Args[0], vals[i], sc)
			if err != nil {
				return nil, err
			}
			if len(vs) > 0 {
				result = result.Set(k, vs[0])
			}
		}
		return []value.Value{result}, nil
	default:
		return nil, errors.TypeError("cannot iterate over %s", input.TypeName())
	}
}

func builtinToEntries(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindObject {
		return nil, errors.TypeError("%s has no keys", input.TypeName())
	}
	keys, vals := input.Entries()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		entry := value.EmptyObject().Set("key", value.String(k)).Set("value", vals[i])
		out[i] = entry
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinFromEntries(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	result := value.EmptyObject()
	for _, entry := range elementsOf(input) {
		key := entryKey(entry)
		val := entryValue(entry)
		result = result.Set(key, val)
	}
	return []value.Value{result}, nil
}

func entryKey(entry value.Value) string {
	for _, name := range []string{"key", "k", "name", "Name", "K", "Key"} {
		if v, ok := entry.Get(name); ok && !v.IsNull() {
			if v.Kind() == value.KindString {
				return v.Str()
			}
			return value.ToJSON(v, "")
		}
	}
	return "null"
}

func entryValue(entry value.Value) value.Value {
	for _, name := range []string{"value", "v", "Value", "V"} {
		if v, ok := entry.Get(name); ok {
			return v
		}
	}
	return value.Null
}

func builtinWithEntries(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	entries, err := builtinToEntries(e, ast.FuncCall{}, input, sc)
	if err != nil {
		return nil, err
	}
	mapped, err := builtinMap(e, call, entries[0], sc)
	if err != nil {
		return nil, err
	}
	return builtinFromEntries(e, ast.FuncCall{}, mapped[0], sc)
}

func builtinKeys(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindObject && input.Kind() != value.KindArray {
		return nil, errors.TypeError("%s has no keys", input.TypeName())
	}
	if input.Kind() == value.KindArray {
		out := make([]value.Value, input.Len())
		for i := range out {
			out[i] = value.Int(int64(i))
		}
		return []value.Value{value.Array(out...)}, nil
	}
	keys := input.KeysSorted()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinKeysUnsorted(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindObject && input.Kind() != value.KindArray {
		return nil, errors.TypeError("%s has no keys", input.TypeName())
	}
	if input.Kind() == value.KindArray {
		out := make([]value.Value, input.Len())
		for i := range out {
			out[i] = value.Int(int64(i))
		}
		return []value.Value{value.Array(out...)}, nil
	}
	keys := input.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = value.String(k)
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinValues(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if !input.Truthy() {
		return nil, nil
	}
	return []value.Value{input}, nil
}

func builtinFlatten0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Array(flatten(input, -1)...)}, nil
}

func builtinFlatten1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	depths, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, d := range depths {
		out = append(out, value.Array(flatten(input, int(d.Int()))...))
	}
	return out, nil
}

func flatten(v value.Value, depth int) []value.Value {
	if v.Kind() != value.KindArray {
		return []value.Value{v}
	}
	var out []value.Value
	for _, el := range v.Elements() {
		if el.Kind() == value.KindArray && depth != 0 {
			out = append(out, flatten(el, depth-1)...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func builtinReverse(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	switch input.Kind() {
	case value.KindArray:
		elems := input.Elements()
		out := make([]value.Value, len(elems))
		for i, el := range elems {
			out[len(elems)-1-i] = el
		}
		return []value.Value{value.Array(out...)}, nil
	case value.KindString:
		runes := []rune(input.Str())
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return []value.Value{value.String(string(runes))}, nil
	default:
		return nil, errors.TypeError("cannot reverse %s", input.TypeName())
	}
}

func builtinSort(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("%s cannot be sorted, as it is not an array", input.TypeName())
	}
	elems := input.Elements()
	sort.SliceStable(elems, func(i, j int) bool { return value.Compare(elems[i], elems[j]) < 0 })
	return []value.Value{value.Array(elems...)}, nil
}

func sortKeyOf(e *Evaluator, keyExpr ast.Expr, el value.Value, sc *env.Env) (value.Value, error) {
	vs, err := e.Eval(keyExpr, el, sc)
	if err != nil {
		return value.Null, err
	}
	if len(vs) == 0 {
		return value.Null, nil
	}
	return value.Array(vs...), nil
}

func builtinSortBy(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("%s cannot be sorted, as it is not an array", input.TypeName())
	}
	elems := input.Elements()
	keys := make([]value.Value, len(elems))
	for i, el := range elems {
		k, err := sortKeyOf(e, call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return value.Compare(keys[idx[a]], keys[idx[b]]) < 0 })
	out := make([]value.Value, len(elems))
	for i, j := range idx {
		out[i] = elems[j]
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinGroupBy(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("cannot group %s", input.TypeName())
	}
	elems := input.Elements()
	keys := make([]value.Value, len(elems))
	for i, el := range elems {
		k, err := sortKeyOf(e, call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return value.Compare(keys[idx[a]], keys[idx[b]]) < 0 })
	var groups []value.Value
	var cur []value.Value
	for n, i := range idx {
		if n > 0 && value.Compare(keys[idx[n-1]], keys[i]) != 0 {
			groups = append(groups, value.Array(cur...))
			cur = nil
		}
		cur = append(cur, elems[i])
	}
	if len(cur) > 0 {
		groups = append(groups, value.Array(cur...))
	}
	return []value.Value{value.Array(groups...)}, nil
}

func builtinUnique(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	sorted, err := builtinSort(e, call, input, sc)
	if err != nil {
		return nil, err
	}
	elems := sorted[0].Elements()
	var out []value.Value
	for i, el := range elems {
		if i == 0 || value.Compare(elems[i-1], el) != 0 {
			out = append(out, el)
		}
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinUniqueBy(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindArray {
		return nil, errors.TypeError("cannot unique %s", input.TypeName())
	}
	elems := input.Elements()
	keys := make([]value.Value, len(elems))
	for i, el := range elems {
		k, err := sortKeyOf(e, call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return value.Compare(keys[idx[a]], keys[idx[b]]) < 0 })
	var out []value.Value
	for n, i := range idx {
		if n == 0 || value.Compare(keys[idx[n-1]], keys[i]) != 0 {
			out = append(out, elems[i])
		}
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinMin(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return []value.Value{value.Null}, nil
	}
	best := elems[0]
	for _, el := range elems[1:] {
		if value.Compare(el, best) < 0 {
			best = el
		}
	}
	return []value.Value{best}, nil
}

func builtinMax(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return []value.Value{value.Null}, nil
	}
	best := elems[0]
	for _, el := range elems[1:] {
		if value.Compare(el, best) >= 0 {
			best = el
		}
	}
	return []value.Value{best}, nil
}

func builtinMinBy(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return []value.Value{value.Null}, nil
	}
	best := elems[0]
	bestKey, err := sortKeyOf(e, call.Args[0], best, sc)
	if err != nil {
		return nil, err
	}
	for _, el := range elems[1:] {
		k, err := sortKeyOf(e, call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		if value.Compare(k, bestKey) < 0 {
			best, bestKey = el, k
		}
	}
	return []value.Value{best}, nil
}

func builtinMaxBy(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return []value.Value{value.Null}, nil
	}
	best := elems[0]
	bestKey, err := sortKeyOf(e, call.Args[0], best, sc)
	if err != nil {
		return nil, err
	}
	for _, el := range elems[1:] {
		k, err := sortKeyOf(e, call.Args[0], el, sc)
		if err != nil {
			return nil, err
		}
		if value.Compare(k, bestKey) >= 0 {
			best, bestKey = el, k
		}
	}
	return []value.Value{best}, nil
}

func builtinFirst0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return nil, errors.IndexOutOfBounds(0, 0)
	}
	return []value.Value{elems[0]}, nil
}

func builtinFirst1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	vs, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, nil
	}
	return vs[:1], nil
}

func builtinLast0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	elems := input.Elements()
	if len(elems) == 0 {
		return nil, errors.IndexOutOfBounds(-1, 0)
	}
	return []value.Value{elems[len(elems)-1]}, nil
}

func builtinLast1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	vs, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, nil
	}
	return vs[len(vs)-1:], nil
}

func builtinNth1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	ns, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	elems := input.Elements()
	var out []value.Value
	for _, nv := range ns {
		i := int(nv.Int())
		if i < 0 || i >= len(elems) {
			return nil, errors.IndexOutOfBounds(i, len(elems))
		}
		out = append(out, elems[i])
	}
	return out, nil
}

func builtinNth2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	ns, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, nv := range ns {
		vs, err := e.Eval(call.Args[1], input, sc)
		if err != nil {
			return nil, err
		}
		i := int(nv.Int())
		if i >= 0 && i < len(vs) {
			out = append(out, vs[i])
		}
	}
	return out, nil
}

func builtinLimit(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	ns, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, nv := range ns {
		n := int(nv.Int())
		if n <= 0 {
			continue
		}
		vs, err := e.Eval(call.Args[1], input, sc)
		if err != nil {
			return nil, err
		}
		if n < len(vs) {
			vs = vs[:n]
		}
		out = append(out, vs...)
	}
	return out, nil
}

func builtinUntil(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	cur := input
	for i := 0; i < iterationCap; i++ {
		conds, err := e.Eval(call.Args[0], cur, sc)
		if err != nil {
			return nil, err
		}
		if len(conds) > 0 && conds[0].Truthy() {
			return []value.Value{cur}, nil
		}
		nexts, err := e.Eval(call.Args[1], cur, sc)
		if err != nil {
			return nil, err
		}
		if len(nexts) == 0 {
			return nil, nil
		}
		cur = nexts[0]
	}
	return nil, errors.Runtime("until/2 exceeded its iteration limit")
}

func builtinWhile(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	var out []value.Value
	cur := input
	for i := 0; i < iterationCap; i++ {
		conds, err := e.Eval(call.Args[0], cur, sc)
		if err != nil {
			return nil, err
		}
		if len(conds) == 0 || !conds[0].Truthy() {
			return out, nil
		}
		out = append(out, cur)
		nexts, err := e.Eval(call.Args[1], cur, sc)
		if err != nil {
			return nil, err
		}
		if len(nexts) == 0 {
			return out, nil
		}
		cur = nexts[0]
	}
	return nil, errors.Runtime("while/2 exceeded its iteration limit")
}

func builtinRepeat(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	var out []value.Value
	cur := input
	for i := 0; i < iterationCap; i++ {
		out = append(out, cur)
		nexts, err := e.Eval(call.Args[0], cur, sc)
		if err != nil {
			return nil, err
		}
		if len(nexts) == 0 {
			return out, nil
		}
		cur = nexts[0]
	}
	return nil, errors.Runtime("repeat/1 exceeded its iteration limit")
}

func builtinWalk(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	v, err := walkValue(e, call.Args[0], input, sc)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

func walkValue(e *Evaluator, f ast.Expr, v value.Value, sc *env.Env) (value.Value, error) {
	switch v.Kind() {
	case value.KindArray:
		elems := v.Elements()
		out := make([]value.Value, len(elems))
		for i, el := range elems {
			w, err := walkValue(e, f, el, sc)
			if err != nil {
				return value.Null, err
			}
			out[i] = w
		}
		v = value.Array(out...)
	case value.KindObject:
		keys, vals := v.Entries()
		result := value.EmptyObject()
		for i, k := range keys {
			w, err := walkValue(e, f, vals[i], sc)
			if err != nil {
				return value.Null, err
			}
			result = result.Set(k, w)
		}
		v = result
	}
	vs, err := e.Eval(f, v, sc)
	if err != nil {
		return value.Null, err
	}
	if len(vs) == 0 {
		return value.Null, nil
	}
	return vs[0], nil
}

func builtinIndices(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	needles, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, needle := range needles {
		out = append(out, indicesValue(input, needle))
	}
	return out, nil
}

func indicesValue(haystack, needle value.Value) value.Value {
	switch haystack.Kind() {
	case value.KindString:
		if needle.Kind() != value.KindString || needle.Str() == "" {
			return value.Null
		}
		var out []value.Value
		hs, ns := haystack.Str(), needle.Str()
		for i := 0; i+len(ns) <= len(hs); i++ {
			if hs[i:i+len(ns)] == ns {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.Array(out...)
	case value.KindArray:
		elems := haystack.Elements()
		if needle.Kind() == value.KindArray && needle.Len() > 0 {
			sub := needle.Elements()
			var out []value.Value
			for i := 0; i+len(sub) <= len(elems); i++ {
				match := true
				for j, se := range sub {
					if !value.Equal(elems[i+j], se) {
						match = false
						break
					}
				}
				if match {
					out = append(out, value.Int(int64(i)))
				}
			}
			return value.Array(out...)
		}
		var out []value.Value
		for i, el := range elems {
			if value.Equal(el, needle) {
				out = append(out, value.Int(int64(i)))
			}
		}
		return value.Array(out...)
	case value.KindNull:
		return value.Null
	default:
		return value.Array()
	}
}

func builtinIndex(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	idxs, err := builtinIndices(e, call, input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(idxs))
	for i, iv := range idxs {
		if iv.Len() == 0 {
			out[i] = value.Null
		} else {
			out[i] = iv.Elements()[0]
		}
	}
	return out, nil
}

func builtinRindex(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	idxs, err := builtinIndices(e, call, input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(idxs))
	for i, iv := range idxs {
		if iv.Len() == 0 {
			out[i] = value.Null
		} else {
			elems := iv.Elements()
			out[i] = elems[len(elems)-1]
		}
	}
	return out, nil
}

func builtinPaths(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	all := e.recursePaths(input, value.Path{})
	var out []value.Value
	for _, p := range all {
		if len(p) == 0 {
			continue
		}
		out = append(out, p.ToValue())
	}
	return out, nil
}

func builtinLeafPaths(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	all := e.recursePaths(input, value.Path{})
	var out []value.Value
	for _, p := range all {
		if len(p) == 0 {
			continue
		}
		if value.Get(input, p).Kind() == value.KindArray || value.Get(input, p).Kind() == value.KindObject {
			continue
		}
		out = append(out, p.ToValue())
	}
	return out, nil
}

func builtinPathsFilter(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	all := e.recursePaths(input, value.Path{})
	var out []value.Value
	for _, p := range all {
		if len(p) == 0 {
			continue
		}
		cs, err := e.Eval(call.Args[0], value.Get(input, p), sc)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if c.Truthy() {
				out = append(out, p.ToValue())
				break
			}
		}
	}
	return out, nil
}

func builtinPath(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	paths, err := collectPaths(e, call.Args[0], input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(paths))
	for i, p := range paths {
		out[i] = p.ToValue()
	}
	return out, nil
}

func builtinGetpath(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	pathVals, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, pv := range pathVals {
		p, err := value.PathFromValue(pv)
		if err != nil {
			return nil, errors.TypeError("%v", err)
		}
		out = append(out, value.Get(input, p))
	}
	return out, nil
}

func builtinSetpath(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	pathVals, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, pv := range pathVals {
		p, err := value.PathFromValue(pv)
		if err != nil {
			return nil, errors.TypeError("%v", err)
		}
		newVals, err := evalArg(e, call, 1, input, sc)
		if err != nil {
			return nil, err
		}
		for _, nv := range newVals {
			result, err := value.Set(input, p, nv)
			if err != nil {
				return nil, errors.PathNotFound("%v", err)
			}
			out = append(out, result)
		}
	}
	return out, nil
}

func builtinDelpaths(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	pathsVals, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, pvs := range pathsVals {
		paths := make([]value.Path, 0, pvs.Len())
		for _, pv := range pvs.Elements() {
			p, err := value.PathFromValue(pv)
			if err != nil {
				return nil, errors.TypeError("%v", err)
			}
			paths = append(paths, p)
		}
		sort.Slice(paths, func(i, j int) bool { return value.Compare(paths[i].ToValue(), paths[j].ToValue()) > 0 })
		result := input
		for _, p := range paths {
			result, err = value.Delete(result, p)
			if err != nil {
				return nil, errors.PathNotFound("%v", err)
			}
		}
		out = append(out, result)
	}
	return out, nil
}

func builtinDel(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	paths, err := collectPaths(e, call.Args[0], input, sc)
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool { return value.Compare(paths[i].ToValue(), paths[j].ToValue()) > 0 })
	result := input
	for _, p := range paths {
		result, err = value.Delete(result, p)
		if err != nil {
			return nil, errors.PathNotFound("%v", err)
		}
	}
	return []value.Value{result}, nil
}

func builtinTranspose(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	rows := input.Elements()
	maxLen := 0
	for _, r := range rows {
		if r.Len() > maxLen {
			maxLen = r.Len()
		}
	}
	out := make([]value.Value, maxLen)
	for i := 0; i < maxLen; i++ {
		col := make([]value.Value, len(rows))
		for j, r := range rows {
			elems := r.Elements()
			if i < len(elems) {
				col[j] = elems[i]
			} else {
				col[j] = value.Null
			}
		}
		out[i] = value.Array(col...)
	}
	return []value.Value{value.Array(out...)}, nil
}

func builtinCombinations0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	rows := input.Elements()
	results := []value.Value{value.Array()}
	for _, row := range rows {
		var next []value.Value
		for _, acc := range results {
			for _, el := range elementsOf(row) {
				next = append(next, acc.Append(el))
			}
		}
		results = next
	}
	return results, nil
}

// builtinAscii converts a single-codepoint number into its one-character
// string, the counterpart to `explode`'s per-codepoint numbers.
func builtinAscii(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindNumber {
		return nil, errors.TypeError("ascii requires a number")
	}
	return []value.Value{value.String(string(rune(input.Int())))}, nil
}
