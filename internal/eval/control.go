package eval

import (
	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

// iterationCap bounds `until`/`while`/`repeat`, guarding against a filter
// that never converges.
const iterationCap = 10000

// recurseCap bounds `recurse/1`'s depth for the same reason.
const recurseCap = 256

func (e *Evaluator) evalIf(n ast.If, input value.Value, sc *env.Env) ([]value.Value, error) {
	return e.evalIfChain(n.Cond, n.Then, n.Elifs, n.Else, input, sc)
}

// evalIfChain evaluates `if cond then then [elifs...] [else elseBody] end`,
// recursing one elif branch at a time so each condition's own (possibly
// multi-valued) output fans out correctly.
func (e *Evaluator) evalIfChain(cond, then ast.Expr, elifs []ast.ElifBranch, elseBody ast.Expr, input value.Value, sc *env.Env) ([]value.Value, error) {
	conds, err := e.Eval(cond, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, c := range conds {
		var branch []value.Value
		var err error
		if c.Truthy() {
			branch, err = e.Eval(then, input, sc)
		} else if len(elifs) > 0 {
			branch, err = e.evalIfChain(elifs[0].Cond, elifs[0].Then, elifs[1:], elseBody, input, sc)
		} else if elseBody != nil {
			branch, err = e.Eval(elseBody, input, sc)
		} else {
			branch = []value.Value{input}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, branch...)
	}
	return out, nil
}

// bindPattern matches value against pat, returning the scope extended
// with every variable the pattern names bound to its matched sub-value
// (or Null, for variables not reached because an enclosing container was
// the wrong shape -- the language pre-binds every pattern variable to
// Null so a partial match still leaves all names in scope).
func bindPattern(pat ast.Pattern, v value.Value, sc *env.Env) *env.Env {
	for _, name := range ast.Variables(pat) {
		sc = sc.WithVar(name, value.Null)
	}
	return bindPatternInto(pat, v, sc)
}

func bindPatternInto(pat ast.Pattern, v value.Value, sc *env.Env) *env.Env {
	switch p := pat.(type) {
	case ast.VarPattern:
		return sc.WithVar(p.Name, v)
	case ast.ArrayPattern:
		elems := v.Elements()
		for i, sub := range p.Elems {
			var ev value.Value = value.Null
			if i < len(elems) {
				ev = elems[i]
			}
			sc = bindPatternInto(sub, ev, sc)
		}
		return sc
	case ast.ObjectPattern:
		for _, entry := range p.Entries {
			keys, err := e0.Eval(entry.Key, v, sc)
			if err != nil || len(keys) == 0 {
				continue
			}
			key := keys[0]
			var ev value.Value = value.Null
			if key.Kind() == value.KindString {
				ev, _ = v.Get(key.Str())
			}
			sc = bindPatternInto(entry.Pattern, ev, sc)
		}
		return sc
	default:
		return sc
	}
}

// e0 is a stateless Evaluator used internally for the small filter
// expressions (object-pattern keys) evaluated while binding a pattern, so
// bindPatternInto doesn't need an *Evaluator thread through every pattern
// helper.
var e0 = New()

func (e *Evaluator) evalAs(n ast.As, input value.Value, sc *env.Env) ([]value.Value, error) {
	sources, err := e.Eval(n.Source, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, sv := range sources {
		bound := bindPattern(n.Pattern, sv, sc)
		rs, err := e.Eval(n.Body, input, bound)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (e *Evaluator) evalReduce(n ast.Reduce, input value.Value, sc *env.Env) ([]value.Value, error) {
	sources, err := e.Eval(n.Source, input, sc)
	if err != nil {
		return nil, err
	}
	inits, err := e.Eval(n.Init, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, acc0 := range inits {
		acc := acc0
		for _, sv := range sources {
			bound := bindPattern(n.Pattern, sv, sc)
			updates, err := e.Eval(n.Update, acc, bound)
			if err != nil {
				return nil, err
			}
			if len(updates) == 0 {
				acc = value.Null
				continue
			}
			acc = updates[len(updates)-1]
		}
		out = append(out, acc)
	}
	return out, nil
}

func (e *Evaluator) evalForeach(n ast.Foreach, input value.Value, sc *env.Env) ([]value.Value, error) {
	sources, err := e.Eval(n.Source, input, sc)
	if err != nil {
		return nil, err
	}
	inits, err := e.Eval(n.Init, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, acc0 := range inits {
		acc := acc0
		for _, sv := range sources {
			bound := bindPattern(n.Pattern, sv, sc)
			updates, err := e.Eval(n.Update, acc, bound)
			if err != nil {
				return nil, err
			}
			for _, u := range updates {
				acc = u
				if n.Extract == nil {
					out = append(out, u)
					continue
				}
				ex, err := e.Eval(n.Extract, u, bound)
				if err != nil {
					return nil, err
				}
				out = append(out, ex...)
			}
		}
	}
	return out, nil
}

func (e *Evaluator) evalLabel(n ast.Label, input value.Value, sc *env.Env) ([]value.Value, error) {
	out, err := e.Eval(n.Body, input, sc)
	if err != nil {
		if errors.IsBreakFor(err, n.Name) {
			return out, nil
		}
		return nil, err
	}
	return out, nil
}
