package eval

import (
	"math"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

func init() {
	registerBuiltin("empty", 0, builtinEmpty)
	registerBuiltin("error", 0, builtinError0)
	registerBuiltin("error", 1, builtinError1)
	registerBuiltin("not", 0, builtinNot)
	registerBuiltin("length", 0, builtinLength)
	registerBuiltin("utf8bytelength", 0, builtinUTF8ByteLength)
	registerBuiltin("type", 0, builtinType)
	registerBuiltin("select", 1, builtinSelect)
	registerBuiltin("recurse", 0, builtinRecurse0)
	registerBuiltin("recurse", 1, builtinRecurse1)
	registerBuiltin("recurse", 2, builtinRecurse2)
	registerBuiltin("..", 0, builtinRecurse0)
	registerBuiltin("has", 1, builtinHas)
	registerBuiltin("in", 1, builtinIn)
	registerBuiltin("contains", 1, builtinContains)
	registerBuiltin("inside", 1, builtinInside)
	registerBuiltin("any", 0, builtinAny0)
	registerBuiltin("any", 1, builtinAny1)
	registerBuiltin("any", 2, builtinAny2)
	registerBuiltin("all", 0, builtinAll0)
	registerBuiltin("all", 1, builtinAll1)
	registerBuiltin("all", 2, builtinAll2)
	registerBuiltin("isnan", 0, builtinIsNaN)
	registerBuiltin("isinfinite", 0, builtinIsInfinite)
	registerBuiltin("isnormal", 0, builtinIsNormal)
	registerBuiltin("add", 0, builtinAdd0)
	registerBuiltin("range", 1, builtinRange1)
	registerBuiltin("range", 2, builtinRange2)
	registerBuiltin("range", 3, builtinRange3)
	registerBuiltin("debug", 0, builtinDebug0)
	registerBuiltin("debug", 1, builtinDebug1)
	registerBuiltin("stderr", 0, builtinStderr)
	registerBuiltin("input_line_number", 0, builtinInputLineNumber)
	registerBuiltin("now", 0, builtinNow)
}

func evalArg(e *Evaluator, call ast.FuncCall, idx int, input value.Value, sc *env.Env) ([]value.Value, error) {
	return e.Eval(call.Args[idx], input, sc)
}

func builtinEmpty(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return nil, nil
}

func builtinError0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() == value.KindString {
		return nil, errors.UserError(input.Str())
	}
	return nil, errors.UserError(value.ToJSON(input, ""))
}

func builtinError1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	msgs, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	if msgs[0].Kind() == value.KindString {
		return nil, errors.UserError(msgs[0].Str())
	}
	return nil, errors.UserError(value.ToJSON(msgs[0], ""))
}

func builtinNot(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Bool(!input.Truthy())}, nil
}

func builtinLength(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	switch input.Kind() {
	case value.KindNull:
		return []value.Value{value.Int(0)}, nil
	case value.KindBool:
		return nil, errors.TypeError("boolean has no length")
	case value.KindNumber:
		n := input.Number()
		if n < 0 {
			n = -n
		}
		return []value.Value{value.Float(n)}, nil
	default:
		return []value.Value{value.Int(int64(input.Len()))}, nil
	}
}

func builtinUTF8ByteLength(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindString {
		return nil, errors.TypeError("%s has no utf8 byte length", input.TypeName())
	}
	return []value.Value{value.Int(int64(len(input.Str())))}, nil
}

func builtinType(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.String(input.TypeName())}, nil
}

func builtinSelect(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	conds, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, c := range conds {
		if c.Truthy() {
			out = append(out, input)
		}
	}
	return out, nil
}

func builtinRecurse0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return e.recurseAllCapped(input, 0), nil
}

func (e *Evaluator) recurseAllCapped(v value.Value, depth int) []value.Value {
	out := []value.Value{v}
	if depth >= recurseCap {
		return out
	}
	switch v.Kind() {
	case value.KindArray:
		for _, el := range v.Elements() {
			out = append(out, e.recurseAllCapped(el, depth+1)...)
		}
	case value.KindObject:
		_, vals := v.Entries()
		for _, val := range vals {
			out = append(out, e.recurseAllCapped(val, depth+1)...)
		}
	}
	return out
}

func (e *Evaluator) evalRecurseAll(input value.Value) []value.Value {
	return e.recurseAllCapped(input, 0)
}

func builtinRecurse1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return e.recurseWithFilter(call.Args[0], nil, input, sc, 0)
}

func builtinRecurse2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return e.recurseWithFilter(call.Args[0], call.Args[1], input, sc, 0)
}

func (e *Evaluator) recurseWithFilter(step, cond ast.Expr, input value.Value, sc *env.Env, depth int) ([]value.Value, error) {
	if cond != nil {
		cs, err := e.Eval(cond, input, sc)
		if err != nil {
			return nil, err
		}
		match := false
		for _, c := range cs {
			if c.Truthy() {
				match = true
			}
		}
		if !match {
			return nil, nil
		}
	}
	out := []value.Value{input}
	if depth >= recurseCap {
		return out, nil
	}
	nexts, err := e.Eval(step, input, sc)
	if err != nil {
		if cond != nil {
			return out, nil
		}
		return nil, err
	}
	for _, n := range nexts {
		rs, err := e.recurseWithFilter(step, cond, n, sc, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func builtinHas(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	keys, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, k := range keys {
		switch {
		case input.Kind() == value.KindObject && k.Kind() == value.KindString:
			_, ok := input.Get(k.Str())
			out = append(out, value.Bool(ok))
		case input.Kind() == value.KindArray && k.Kind() == value.KindNumber:
			i := int(k.Int())
			out = append(out, value.Bool(i >= 0 && i < input.Len()))
		default:
			return nil, errors.TypeError("cannot check whether %s has a key of type %s", input.TypeName(), k.TypeName())
		}
	}
	return out, nil
}

func builtinIn(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	containers, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, c := range containers {
		switch {
		case c.Kind() == value.KindObject && input.Kind() == value.KindString:
			_, ok := c.Get(input.Str())
			out = append(out, value.Bool(ok))
		case c.Kind() == value.KindArray && input.Kind() == value.KindNumber:
			i := int(input.Int())
			out = append(out, value.Bool(i >= 0 && i < c.Len()))
		default:
			return nil, errors.TypeError("cannot check whether %s is in %s", input.TypeName(), c.TypeName())
		}
	}
	return out, nil
}

func builtinContains(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	others, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(others))
	for i, o := range others {
		c, err := containsValue(input, o)
		if err != nil {
			return nil, err
		}
		out[i] = value.Bool(c)
	}
	return out, nil
}

func builtinInside(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	others, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(others))
	for i, o := range others {
		c, err := containsValue(o, input)
		if err != nil {
			return nil, err
		}
		out[i] = value.Bool(c)
	}
	return out, nil
}

func containsValue(a, b value.Value) (bool, error) {
	if a.Kind() != b.Kind() {
		if a.Kind() == value.KindString && b.Kind() == value.KindString {
			return false, nil
		}
		return false, errors.TypeError("%s and %s cannot have their containment checked", a.TypeName(), b.TypeName())
	}
	switch a.Kind() {
	case value.KindString:
		return indexOf(a.Str(), b.Str()) >= 0, nil
	case value.KindArray:
		for _, be := range b.Elements() {
			found := false
			for _, ae := range a.Elements() {
				if ok, _ := containsValue(ae, be); ok {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case value.KindObject:
		keys, vals := b.Entries()
		for i, k := range keys {
			av, ok := a.Get(k)
			if !ok {
				return false, nil
			}
			if c, _ := containsValue(av, vals[i]); !c {
				return false, nil
			}
		}
		return true, nil
	default:
		return value.Equal(a, b), nil
	}
}

func builtinAny0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, ast.Identity{}, nil, input, sc, true)
}

func builtinAny1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, call.Args[0], nil, input, sc, true)
}

func builtinAny2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, call.Args[1], call.Args[0], input, sc, true)
}

func builtinAll0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, ast.Identity{}, nil, input, sc, false)
}

func builtinAll1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, call.Args[0], nil, input, sc, false)
}

func builtinAll2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return anyAllOverIterate(e, call.Args[1], call.Args[0], input, sc, false)
}

func anyAllOverIterate(e *Evaluator, cond, source ast.Expr, input value.Value, sc *env.Env, wantAny bool) ([]value.Value, error) {
	var items []value.Value
	if source == nil {
		items = elementsOf(input)
	} else {
		vs, err := e.Eval(source, input, sc)
		if err != nil {
			return nil, err
		}
		items = vs
	}
	for _, item := range items {
		cs, err := e.Eval(cond, item, sc)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if wantAny && c.Truthy() {
				return []value.Value{value.Bool(true)}, nil
			}
			if !wantAny && !c.Truthy() {
				return []value.Value{value.Bool(false)}, nil
			}
		}
	}
	return []value.Value{value.Bool(!wantAny)}, nil
}

func elementsOf(v value.Value) []value.Value {
	switch v.Kind() {
	case value.KindArray:
		return v.Elements()
	case value.KindObject:
		_, vals := v.Entries()
		return vals
	default:
		return nil
	}
}

func builtinIsNaN(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Bool(input.Kind() == value.KindNumber && math.IsNaN(input.Number()))}, nil
}

func builtinIsInfinite(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Bool(input.Kind() == value.KindNumber && math.IsInf(input.Number(), 0))}, nil
}

func builtinIsNormal(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	n := input.Number()
	normal := input.Kind() == value.KindNumber && !math.IsNaN(n) && !math.IsInf(n, 0) && n != 0
	return []value.Value{value.Bool(normal)}, nil
}

func builtinAdd0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	items := elementsOf(input)
	acc := value.Null
	var err error
	for _, it := range items {
		acc, err = addValues(acc, it)
		if err != nil {
			return nil, err
		}
	}
	return []value.Value{acc}, nil
}

func builtinRange1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	tos, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, to := range tos {
		out = append(out, rangeValues(0, to.Number(), 1)...)
	}
	return out, nil
}

func builtinRange2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	froms, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	tos, err := evalArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, from := range froms {
		for _, to := range tos {
			out = append(out, rangeValues(from.Number(), to.Number(), 1)...)
		}
	}
	return out, nil
}

func builtinRange3(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	froms, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	tos, err := evalArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	steps, err := evalArg(e, call, 2, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, from := range froms {
		for _, to := range tos {
			for _, step := range steps {
				out = append(out, rangeValues(from.Number(), to.Number(), step.Number())...)
			}
		}
	}
	return out, nil
}

func rangeValues(from, to, step float64) []value.Value {
	var out []value.Value
	if step == 0 {
		return out
	}
	if step > 0 {
		for v := from; v < to; v += step {
			out = append(out, value.Float(v))
		}
	} else {
		for v := from; v > to; v += step {
			out = append(out, value.Float(v))
		}
	}
	return out
}

func builtinDebug0(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	sc.Debug(value.Array(value.String("DEBUG:"), input))
	return []value.Value{input}, nil
}

func builtinDebug1(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	msgs, err := evalArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		sc.Debug(value.Array(value.String("DEBUG:"), m))
	}
	return []value.Value{input}, nil
}

func builtinStderr(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	sc.Debug(input)
	return []value.Value{input}, nil
}

func builtinInputLineNumber(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Int(int64(sc.InputLineNumber()))}, nil
}

func builtinNow(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.Float(sc.Clock())}, nil
}

