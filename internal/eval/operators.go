package eval

import (
	"math"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/lexer"
	"github.com/cwbudde/jqlite/internal/value"
)

func (e *Evaluator) evalBinOp(n ast.BinOp, input value.Value, sc *env.Env) ([]value.Value, error) {
	if n.Op == lexer.AND {
		return e.evalAnd(n, input, sc)
	}
	if n.Op == lexer.OR {
		return e.evalOr(n, input, sc)
	}

	rights, err := e.Eval(n.Right, input, sc)
	if err != nil {
		return nil, err
	}
	lefts, err := e.Eval(n.Left, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, r := range rights {
		for _, l := range lefts {
			v, err := applyBinOp(n.Op, l, r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (e *Evaluator) evalAnd(n ast.BinOp, input value.Value, sc *env.Env) ([]value.Value, error) {
	lefts, err := e.Eval(n.Left, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, l := range lefts {
		if !l.Truthy() {
			out = append(out, value.Bool(false))
			continue
		}
		rights, err := e.Eval(n.Right, input, sc)
		if err != nil {
			return nil, err
		}
		for _, r := range rights {
			out = append(out, value.Bool(r.Truthy()))
		}
	}
	return out, nil
}

func (e *Evaluator) evalOr(n ast.BinOp, input value.Value, sc *env.Env) ([]value.Value, error) {
	lefts, err := e.Eval(n.Left, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, l := range lefts {
		if l.Truthy() {
			out = append(out, value.Bool(true))
			continue
		}
		rights, err := e.Eval(n.Right, input, sc)
		if err != nil {
			return nil, err
		}
		for _, r := range rights {
			out = append(out, value.Bool(r.Truthy()))
		}
	}
	return out, nil
}

func applyBinOp(op lexer.TokenType, l, r value.Value) (value.Value, error) {
	switch op {
	case lexer.PLUS:
		return addValues(l, r)
	case lexer.MINUS:
		return subValues(l, r)
	case lexer.STAR:
		return mulValues(l, r)
	case lexer.SLASH:
		return divValues(l, r)
	case lexer.PERCENT:
		return modValues(l, r)
	case lexer.EQ:
		return value.Bool(value.Equal(l, r)), nil
	case lexer.NE:
		return value.Bool(!value.Equal(l, r)), nil
	case lexer.LT:
		return value.Bool(value.Compare(l, r) < 0), nil
	case lexer.LE:
		return value.Bool(value.Compare(l, r) <= 0), nil
	case lexer.GT:
		return value.Bool(value.Compare(l, r) > 0), nil
	case lexer.GE:
		return value.Bool(value.Compare(l, r) >= 0), nil
	default:
		return value.Null, errors.Runtime("unsupported operator %s", op)
	}
}

func numResult(a, b, sum float64, aInt, bInt bool) value.Value {
	if aInt && bInt {
		return value.Int(int64(sum))
	}
	return value.Float(sum)
}

// addValues implements `+`: null acts as an identity for either side,
// numbers add, strings and arrays concatenate, and objects merge (right
// overriding left on key collision).
func addValues(l, r value.Value) (value.Value, error) {
	if l.IsNull() {
		return r, nil
	}
	if r.IsNull() {
		return l, nil
	}
	if l.Kind() != r.Kind() {
		return value.Null, errors.TypeError("%s and %s cannot be added", l.TypeName(), r.TypeName())
	}
	switch l.Kind() {
	case value.KindNumber:
		return numResult(l.Number(), r.Number(), l.Number()+r.Number(), l.IsInt(), r.IsInt()), nil
	case value.KindString:
		return value.String(l.Str() + r.Str()), nil
	case value.KindArray:
		return value.Array(append(l.Elements(), r.Elements()...)...), nil
	case value.KindObject:
		result := l
		keys, vals := r.Entries()
		for i, k := range keys {
			result = result.Set(k, vals[i])
		}
		return result, nil
	default:
		return value.Null, errors.TypeError("%s and %s cannot be added", l.TypeName(), r.TypeName())
	}
}

// subValues implements `-`: numeric subtraction, or array difference
// (elements of l not structurally equal to any element of r, left order
// preserved).
func subValues(l, r value.Value) (value.Value, error) {
	switch {
	case l.Kind() == value.KindNumber && r.Kind() == value.KindNumber:
		return numResult(l.Number(), r.Number(), l.Number()-r.Number(), l.IsInt(), r.IsInt()), nil
	case l.Kind() == value.KindArray && r.Kind() == value.KindArray:
		rem := r.Elements()
		var out []value.Value
		for _, x := range l.Elements() {
			skip := false
			for _, y := range rem {
				if value.Equal(x, y) {
					skip = true
					break
				}
			}
			if !skip {
				out = append(out, x)
			}
		}
		return value.Array(out...), nil
	default:
		return value.Null, errors.TypeError("%s and %s cannot be subtracted", l.TypeName(), r.TypeName())
	}
}

// mulValues implements `*`: numeric product, string repetition
// (string*n, n<=0 yields null), and deep-merge for two objects (nested
// objects merge recursively; any other type on either side just
// replaces).
func mulValues(l, r value.Value) (value.Value, error) {
	switch {
	case l.Kind() == value.KindNumber && r.Kind() == value.KindNumber:
		return numResult(l.Number(), r.Number(), l.Number()*r.Number(), l.IsInt(), r.IsInt()), nil
	case l.Kind() == value.KindString && r.Kind() == value.KindNumber:
		return repeatString(l.Str(), r.Number()), nil
	case l.Kind() == value.KindNumber && r.Kind() == value.KindString:
		return repeatString(r.Str(), l.Number()), nil
	case l.Kind() == value.KindObject && r.Kind() == value.KindObject:
		return deepMerge(l, r), nil
	case l.IsNull() || r.IsNull():
		return value.Null, nil
	default:
		return value.Null, errors.TypeError("%s and %s cannot be multiplied", l.TypeName(), r.TypeName())
	}
}

func repeatString(s string, n float64) value.Value {
	if n <= 0 {
		return value.Null
	}
	out := ""
	for i := 0; i < int(n); i++ {
		out += s
	}
	return value.String(out)
}

func deepMerge(l, r value.Value) value.Value {
	result := l
	keys, vals := r.Entries()
	for i, k := range keys {
		existing, ok := result.Get(k)
		if ok && existing.Kind() == value.KindObject && vals[i].Kind() == value.KindObject {
			result = result.Set(k, deepMerge(existing, vals[i]))
		} else {
			result = result.Set(k, vals[i])
		}
	}
	return result
}

// divValues implements `/`: numeric quotient, or string split on a
// string divisor.
func divValues(l, r value.Value) (value.Value, error) {
	switch {
	case l.Kind() == value.KindNumber && r.Kind() == value.KindNumber:
		if r.Number() == 0 {
			return value.Float(math.NaN()), nil
		}
		return numResult(l.Number(), r.Number(), l.Number()/r.Number(), l.IsInt() && r.IsInt() && isExactDivision(l.Number(), r.Number()), l.IsInt() && r.IsInt()), nil
	case l.Kind() == value.KindString && r.Kind() == value.KindString:
		return splitString(l.Str(), r.Str()), nil
	default:
		return value.Null, errors.TypeError("%s and %s cannot be divided", l.TypeName(), r.TypeName())
	}
}

func isExactDivision(a, b float64) bool {
	return b != 0 && a/b == float64(int64(a/b))
}

func splitString(s, sep string) value.Value {
	if sep == "" {
		var out []value.Value
		for _, r := range s {
			out = append(out, value.String(string(r)))
		}
		return value.Array(out...)
	}
	var out []value.Value
	start := 0
	for {
		idx := indexOf(s[start:], sep)
		if idx < 0 {
			out = append(out, value.String(s[start:]))
			break
		}
		out = append(out, value.String(s[start:start+idx]))
		start += idx + len(sep)
	}
	return value.Array(out...)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// modValues implements `%`: truncating integer remainder.
func modValues(l, r value.Value) (value.Value, error) {
	if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
		return value.Null, errors.TypeError("%s and %s cannot be divided", l.TypeName(), r.TypeName())
	}
	bi := int64(r.Number())
	if bi == 0 {
		return value.Float(math.NaN()), nil
	}
	ai := int64(l.Number())
	return value.Int(ai % bi), nil
}
