// Package eval implements the tree-walking evaluator: it turns an
// internal/ast.Expr and an input internal/value.Value into the filter's
// zero-or-more output values, per expression kind. The dispatch shape
// (one method per node type switched from a single entrypoint, errors
// threaded back as plain Go errors rather than a side-channel signal
// struct) is carried from go-dws's internal/interp tree-walker, split
// across files by concern the way that package splits
// expressions_basic.go/expressions_binary.go/expressions_complex.go.
package eval

import (
	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

// Evaluator carries the per-run state a single top-level query execution
// needs: iteration caps for `recurse`, `until`/`while`/`repeat`, and
// label-scoped break bookkeeping all live on the call stack via errors,
// so the only per-run state this struct holds is the optional `--trace`
// hook, kept here rather than threaded as another parameter through
// every eval method.
type Evaluator struct {
	trace func(expr ast.Expr, input value.Value)
}

// New creates an Evaluator with no tracing hook.
func New() *Evaluator { return &Evaluator{} }

// SetTrace installs a callback invoked before each expression is
// evaluated, used by the CLI's `--trace` flag.
func (e *Evaluator) SetTrace(fn func(expr ast.Expr, input value.Value)) { e.trace = fn }

// Run evaluates expr against input in a fresh top-level environment.
func Run(expr ast.Expr, input value.Value) ([]value.Value, error) {
	return New().Eval(expr, input, env.New())
}

// Eval evaluates expr against input in scope sc, returning every output
// the filter produces, in order.
func (e *Evaluator) Eval(expr ast.Expr, input value.Value, sc *env.Env) ([]value.Value, error) {
	if e.trace != nil {
		e.trace(expr, input)
	}
	switch n := expr.(type) {
	case ast.Identity:
		return []value.Value{input}, nil
	case ast.RecurseAll:
		return e.evalRecurseAll(input), nil
	case ast.Literal:
		return []value.Value{n.Value}, nil
	case ast.StringLiteral:
		return []value.Value{value.String(n.Value)}, nil
	case ast.VarRef:
		v, ok := sc.LookupVar(n.Name)
		if !ok {
			if n.Name == "ENV" {
				return []value.Value{env.ProcessEnv()}, nil
			}
			return nil, errors.UndefinedVariable(n.Name)
		}
		return []value.Value{v}, nil
	case ast.Format:
		s, err := ApplyFormat(n.Name, input)
		if err != nil {
			return nil, err
		}
		return []value.Value{s}, nil
	case ast.Field:
		return e.evalField(n, input, sc)
	case ast.Index:
		return e.evalIndex(n, input, sc)
	case ast.Slice:
		return e.evalSlice(n, input, sc)
	case ast.Iterate:
		return e.evalIterate(n, input, sc)
	case ast.Pipe:
		return e.evalPipe(n, input, sc)
	case ast.Comma:
		left, err := e.Eval(n.Left, input, sc)
		if err != nil {
			return nil, err
		}
		right, err := e.Eval(n.Right, input, sc)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case ast.Neg:
		return e.evalNeg(n, input, sc)
	case ast.Not:
		vs, err := e.Eval(n.Target, input, sc)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(vs))
		for i, v := range vs {
			out[i] = value.Bool(!v.Truthy())
		}
		return out, nil
	case ast.BinOp:
		return e.evalBinOp(n, input, sc)
	case ast.Alternative:
		return e.evalAlternative(n, input, sc)
	case ast.Try:
		return e.evalTry(n, input, sc)
	case ast.Optional:
		return e.evalTry(ast.Try{Body: n.X}, input, sc)
	case ast.ArrayConstruct:
		return e.evalArrayConstruct(n, input, sc)
	case ast.ObjectConstruct:
		return e.evalObjectConstruct(n, input, sc)
	case ast.If:
		return e.evalIf(n, input, sc)
	case ast.As:
		return e.evalAs(n, input, sc)
	case ast.Reduce:
		return e.evalReduce(n, input, sc)
	case ast.Foreach:
		return e.evalForeach(n, input, sc)
	case ast.Label:
		return e.evalLabel(n, input, sc)
	case ast.Break:
		return nil, errors.NewBreak(n.Name)
	case ast.FuncDef:
		return e.evalFuncDef(n, input, sc)
	case ast.FuncCall:
		return e.evalFuncCall(n, input, sc)
	case ast.Assign:
		return e.evalAssign(n, input, sc)
	case ast.UpdateAssign:
		return e.evalUpdateAssign(n, input, sc)
	case ast.ArithAssign:
		return e.evalArithAssign(n, input, sc)
	case ast.AltAssign:
		return e.evalAltAssign(n, input, sc)
	default:
		return nil, errors.Runtime("unhandled expression type %T", expr)
	}
}

func (e *Evaluator) evalPipe(n ast.Pipe, input value.Value, sc *env.Env) ([]value.Value, error) {
	lefts, err := e.Eval(n.Left, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, lv := range lefts {
		rs, err := e.Eval(n.Right, lv, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (e *Evaluator) evalField(n ast.Field, input value.Value, sc *env.Env) ([]value.Value, error) {
	targets, err := e.Eval(n.Target, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, t := range targets {
		v, err := fieldOf(t, n.Name)
		if err != nil {
			if n.Optional {
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func fieldOf(t value.Value, name string) (value.Value, error) {
	switch t.Kind() {
	case value.KindObject:
		v, _ := t.Get(name)
		return v, nil
	case value.KindNull:
		return value.Null, nil
	default:
		return value.Null, errors.TypeError("cannot index %s with %q", t.TypeName(), name)
	}
}

func (e *Evaluator) evalIndex(n ast.Index, input value.Value, sc *env.Env) ([]value.Value, error) {
	targets, err := e.Eval(n.Target, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, t := range targets {
		idxs, err := e.Eval(n.IndexVal, input, sc)
		if err != nil {
			return nil, err
		}
		for _, idxVal := range idxs {
			v, err := indexValue(t, idxVal)
			if err != nil {
				if n.Optional {
					continue
				}
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func indexValue(t, idxVal value.Value) (value.Value, error) {
	if t.IsNull() {
		return value.Null, nil
	}
	switch idxVal.Kind() {
	case value.KindString:
		return fieldOf(t, idxVal.Str())
	case value.KindNumber:
		if t.Kind() != value.KindArray {
			return value.Null, errors.TypeError("cannot index %s with number", t.TypeName())
		}
		elems := t.Elements()
		i := int(idxVal.Int())
		if i < 0 {
			i += len(elems)
		}
		if i < 0 || i >= len(elems) {
			return value.Null, nil
		}
		return elems[i], nil
	case value.KindArray:
		// `a[b]` where b is itself an array is `indices(b)` on a.
		return indicesValue(t, idxVal), nil
	default:
		return value.Null, errors.TypeError("cannot index %s with %s", t.TypeName(), idxVal.TypeName())
	}
}

func (e *Evaluator) evalSlice(n ast.Slice, input value.Value, sc *env.Env) ([]value.Value, error) {
	targets, err := e.Eval(n.Target, input, sc)
	if err != nil {
		return nil, err
	}
	froms, err := evalBoundOrDefault(e, n.From, input, sc, value.Null)
	if err != nil {
		return nil, err
	}
	tos, err := evalBoundOrDefault(e, n.To, input, sc, value.Null)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, t := range targets {
		for _, from := range froms {
			for _, to := range tos {
				v, err := sliceValue(t, from, to)
				if err != nil {
					if n.Optional {
						continue
					}
					return nil, err
				}
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func evalBoundOrDefault(e *Evaluator, expr ast.Expr, input value.Value, sc *env.Env, def value.Value) ([]value.Value, error) {
	if expr == nil {
		return []value.Value{def}, nil
	}
	return e.Eval(expr, input, sc)
}

func sliceValue(t, from, to value.Value) (value.Value, error) {
	if t.IsNull() {
		return value.Null, nil
	}
	switch t.Kind() {
	case value.KindArray, value.KindString:
		n := t.Len()
		lo := resolveSliceBound(from, 0, n)
		hi := resolveSliceBound(to, n, n)
		if lo > hi {
			lo = hi
		}
		if t.Kind() == value.KindArray {
			elems := t.Elements()
			return value.Array(elems[lo:hi]...), nil
		}
		runes := []rune(t.Str())
		return value.String(string(runes[lo:hi])), nil
	default:
		return value.Null, errors.TypeError("cannot slice %s", t.TypeName())
	}
}

func resolveSliceBound(v value.Value, def, n int) int {
	if v.IsNull() {
		return clamp(def, n)
	}
	i := int(v.Number())
	if v.Number() < 0 && float64(i) != v.Number() {
		i-- // floor negative fractional bounds
	}
	if i < 0 {
		i += n
	}
	return clamp(i, n)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (e *Evaluator) evalIterate(n ast.Iterate, input value.Value, sc *env.Env) ([]value.Value, error) {
	targets, err := e.Eval(n.Target, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, t := range targets {
		switch t.Kind() {
		case value.KindArray:
			out = append(out, t.Elements()...)
		case value.KindObject:
			_, vals := t.Entries()
			out = append(out, vals...)
		default:
			if n.Optional {
				continue
			}
			return nil, errors.TypeError("cannot iterate over %s", t.TypeName())
		}
	}
	return out, nil
}

func (e *Evaluator) evalNeg(n ast.Neg, input value.Value, sc *env.Env) ([]value.Value, error) {
	vs, err := e.Eval(n.X, input, sc)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		if v.Kind() != value.KindNumber {
			return nil, errors.TypeError("%s cannot be negated", v.TypeName())
		}
		if v.IsInt() {
			out[i] = value.Int(-v.Int())
		} else {
			out[i] = value.Float(-v.Number())
		}
	}
	return out, nil
}

func (e *Evaluator) evalAlternative(n ast.Alternative, input value.Value, sc *env.Env) ([]value.Value, error) {
	left, err := e.Eval(n.Left, input, sc)
	var truthy []value.Value
	if err == nil {
		for _, v := range left {
			if v.Truthy() {
				truthy = append(truthy, v)
			}
		}
	}
	if len(truthy) > 0 {
		return truthy, nil
	}
	return e.Eval(n.Right, input, sc)
}

func (e *Evaluator) evalTry(n ast.Try, input value.Value, sc *env.Env) ([]value.Value, error) {
	out, err := e.Eval(n.Body, input, sc)
	if err == nil {
		return out, nil
	}
	if _, isBreak := errors.BreakLabel(err); isBreak {
		return nil, err // breaks are not catchable
	}
	if _, _, isHalt := errors.HaltInfo(err); isHalt {
		return nil, err // halt/halt_error are not catchable
	}
	if n.Catch == nil {
		return nil, nil
	}
	qe, ok := err.(*errors.QueryError)
	var errVal value.Value
	if ok {
		errVal = value.String(qe.Message)
	} else {
		errVal = value.String(err.Error())
	}
	return e.Eval(n.Catch, errVal, sc)
}

func (e *Evaluator) evalArrayConstruct(n ast.ArrayConstruct, input value.Value, sc *env.Env) ([]value.Value, error) {
	if n.Inner == nil {
		return []value.Value{value.Array()}, nil
	}
	vs, err := e.Eval(n.Inner, input, sc)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.Array(vs...)}, nil
}

func (e *Evaluator) evalObjectConstruct(n ast.ObjectConstruct, input value.Value, sc *env.Env) ([]value.Value, error) {
	results := []value.Value{value.EmptyObject()}
	for _, entry := range n.Entries {
		keys, err := e.Eval(entry.Key, input, sc)
		if err != nil {
			return nil, err
		}
		var next []value.Value
		for _, acc := range results {
			for _, keyVal := range keys {
				if keyVal.Kind() != value.KindString {
					return nil, errors.TypeError("object key must be a string, got %s", keyVal.TypeName())
				}
				vals, err := e.Eval(entry.Value, input, sc)
				if err != nil {
					return nil, err
				}
				for _, v := range vals {
					next = append(next, acc.Set(keyVal.Str(), v))
				}
			}
		}
		results = next
	}
	return results, nil
}
