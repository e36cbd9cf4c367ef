package eval

import (
	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

// builtinFunc is the signature every builtin filter implements. It
// receives the unevaluated call (so it can decide how and how many times
// to evaluate its own arguments, since arguments are themselves filters)
// rather than a pre-evaluated argument slice.
type builtinFunc func(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error)

type builtinKey struct {
	name  string
	arity int
}

var builtins = map[builtinKey]builtinFunc{}

// registerBuiltin adds a builtin to the global dispatch table. Each
// builtins_*.go file registers its own category from an init function,
// mirroring how go-dws spreads its builtin catalog across
// builtins_core.go/builtins_math.go/builtins_strings.go/etc.
func registerBuiltin(name string, arity int, fn builtinFunc) {
	builtins[builtinKey{name, arity}] = fn
}

func (e *Evaluator) evalFuncDef(n ast.FuncDef, input value.Value, sc *env.Env) ([]value.Value, error) {
	child := sc.WithFunc(&n)
	return e.Eval(n.Rest, input, child)
}

func (e *Evaluator) evalFuncCall(n ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if def, defScope, ok := sc.LookupFunc(n.Name, len(n.Args)); ok {
		return e.callUserFunc(def, defScope, n.Args, input, sc)
	}
	if fn, ok := builtins[builtinKey{n.Name, len(n.Args)}]; ok {
		return fn(e, n, input, sc)
	}
	return nil, errors.UndefinedFunction(n.Name, len(n.Args))
}

// callUserFunc evaluates a user-defined filter call. As a simplification,
// filter parameters are bound as eagerly-evaluated values rather than true
// caller-closures: each parameter's argument expression is evaluated once
// (against the call's own input, in the caller's scope) and the function
// body is re-run once per combination in the cartesian product of
// multi-valued arguments, against the function's OWN definition scope
// (so it still sees whatever was lexically in scope around the `def`).
func (e *Evaluator) callUserFunc(def *ast.FuncDef, defScope *env.Env, args []ast.Expr, input value.Value, callerScope *env.Env) ([]value.Value, error) {
	scopes, err := e.buildCallScopes(def, defScope, args, input, callerScope)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, bodyScope := range scopes {
		vs, err := e.Eval(def.Body, input, bodyScope)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func (e *Evaluator) buildCallScopes(def *ast.FuncDef, defScope *env.Env, args []ast.Expr, input value.Value, callerScope *env.Env) ([]*env.Env, error) {
	scopes := []*env.Env{defScope.WithFunc(def)}
	for i, param := range def.Params {
		argVals, err := e.Eval(args[i], input, callerScope)
		if err != nil {
			return nil, err
		}
		if len(argVals) == 0 {
			return nil, nil
		}
		var next []*env.Env
		for _, base := range scopes {
			for _, v := range argVals {
				paramDef := &ast.FuncDef{Name: param, Body: ast.Literal{Value: v}}
				next = append(next, base.WithFunc(paramDef))
			}
		}
		scopes = next
	}
	return scopes, nil
}

// bindCallArgs is the single-scope variant buildCallScopes reduces to
// when collecting path expressions through a user-defined filter -- path
// collection only follows the first combination of argument values.
func (e *Evaluator) bindCallArgs(def *ast.FuncDef, args []ast.Expr, defScope *env.Env, input value.Value, callerScope *env.Env) *env.Env {
	scopes, err := e.buildCallScopes(def, defScope, args, input, callerScope)
	if err != nil || len(scopes) == 0 {
		return defScope.WithFunc(def)
	}
	return scopes[0]
}
