package eval

import (
	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/lexer"
	"github.com/cwbudde/jqlite/internal/value"
)

// collectPaths evaluates expr as a *path expression* against root,
// returning every path it designates rather than the values found there.
// It backs assignment (`=`, `|=`, `+=`, ...), `path/1`, and `del/1` --
// all of those need to know *where* a filter points, not just what value
// lives there.
func collectPaths(e *Evaluator, expr ast.Expr, root value.Value, sc *env.Env) ([]value.Path, error) {
	return e.pathsOf(expr, root, value.Path{}, sc)
}

func (e *Evaluator) pathsOf(expr ast.Expr, root value.Value, cur value.Path, sc *env.Env) ([]value.Path, error) {
	switch n := expr.(type) {
	case ast.Identity:
		return []value.Path{cur}, nil
	case ast.RecurseAll:
		return e.recursePaths(value.Get(root, cur), cur), nil
	case ast.Field:
		bases, err := e.pathsOf(n.Target, root, cur, sc)
		if err != nil {
			return nil, err
		}
		var out []value.Path
		for _, base := range bases {
			v := value.Get(root, base)
			if v.Kind() != value.KindObject && !v.IsNull() {
				if n.Optional {
					continue
				}
				return nil, errors.TypeError("cannot index %s with %q", v.TypeName(), n.Name)
			}
			out = append(out, appendSeg(base, value.KeySeg(n.Name)))
		}
		return out, nil
	case ast.Index:
		bases, err := e.pathsOf(n.Target, root, cur, sc)
		if err != nil {
			return nil, err
		}
		idxVals, err := e.Eval(n.IndexVal, root, sc)
		if err != nil {
			return nil, err
		}
		var out []value.Path
		for _, base := range bases {
			for _, idx := range idxVals {
				seg, err := segmentFor(idx)
				if err != nil {
					if n.Optional {
						continue
					}
					return nil, err
				}
				out = append(out, appendSeg(base, seg))
			}
		}
		return out, nil
	case ast.Iterate:
		bases, err := e.pathsOf(n.Target, root, cur, sc)
		if err != nil {
			return nil, err
		}
		var out []value.Path
		for _, base := range bases {
			v := value.Get(root, base)
			switch v.Kind() {
			case value.KindArray:
				for i := range v.Elements() {
					out = append(out, appendSeg(base, value.IndexSeg(i)))
				}
			case value.KindObject:
				for _, k := range v.Keys() {
					out = append(out, appendSeg(base, value.KeySeg(k)))
				}
			default:
				if n.Optional {
					continue
				}
				return nil, errors.TypeError("cannot iterate over %s", v.TypeName())
			}
		}
		return out, nil
	case ast.Pipe:
		lefts, err := e.pathsOf(n.Left, root, cur, sc)
		if err != nil {
			return nil, err
		}
		var out []value.Path
		for _, lp := range lefts {
			rights, err := e.pathsOf(n.Right, root, lp, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, rights...)
		}
		return out, nil
	case ast.Comma:
		lefts, err := e.pathsOf(n.Left, root, cur, sc)
		if err != nil {
			return nil, err
		}
		rights, err := e.pathsOf(n.Right, root, cur, sc)
		if err != nil {
			return nil, err
		}
		return append(lefts, rights...), nil
	case ast.Optional:
		out, err := e.pathsOf(n.X, root, cur, sc)
		if err != nil {
			return nil, nil
		}
		return out, nil
	case ast.Try:
		out, err := e.pathsOf(n.Body, root, cur, sc)
		if err != nil {
			return nil, nil
		}
		return out, nil
	case ast.If:
		conds, err := e.Eval(n.Cond, value.Get(root, cur), sc)
		if err != nil {
			return nil, err
		}
		var out []value.Path
		for _, c := range conds {
			var branch ast.Expr = n.Else
			if c.Truthy() {
				branch = n.Then
			}
			if branch == nil {
				out = append(out, cur)
				continue
			}
			ps, err := e.pathsOf(branch, root, cur, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, ps...)
		}
		return out, nil
	case ast.Alternative:
		left, err := e.pathsOf(n.Left, root, cur, sc)
		var truthy []value.Path
		if err == nil {
			for _, p := range left {
				if value.Get(root, p).Truthy() {
					truthy = append(truthy, p)
				}
			}
		}
		if len(truthy) > 0 {
			return truthy, nil
		}
		return e.pathsOf(n.Right, root, cur, sc)
	case ast.FuncCall:
		return e.pathsOfCall(n, root, cur, sc)
	default:
		return nil, errors.Runtime("invalid path expression near %s", expr)
	}
}

func (e *Evaluator) recursePaths(v value.Value, cur value.Path) []value.Path {
	out := []value.Path{cur}
	switch v.Kind() {
	case value.KindArray:
		for i, el := range v.Elements() {
			out = append(out, e.recursePaths(el, appendSeg(cur, value.IndexSeg(i)))...)
		}
	case value.KindObject:
		keys, vals := v.Entries()
		for i, k := range keys {
			out = append(out, e.recursePaths(vals[i], appendSeg(cur, value.KeySeg(k)))...)
		}
	}
	return out
}

// pathsOfCall resolves the handful of builtins whose path behavior is
// defined directly (`select`, `first`, `last`, `empty`, `recurse`, and
// user-defined filters, by inlining their body) rather than through
// pathsOf's structural cases.
func (e *Evaluator) pathsOfCall(n ast.FuncCall, root value.Value, cur value.Path, sc *env.Env) ([]value.Path, error) {
	switch n.Name {
	case "empty":
		return nil, nil
	case "select":
		if len(n.Args) != 1 {
			break
		}
		conds, err := e.Eval(n.Args[0], value.Get(root, cur), sc)
		if err != nil {
			return nil, err
		}
		for _, c := range conds {
			if c.Truthy() {
				return []value.Path{cur}, nil
			}
		}
		return nil, nil
	case "recurse":
		if len(n.Args) == 0 {
			return e.recursePaths(value.Get(root, cur), cur), nil
		}
	case "first":
		if len(n.Args) == 1 {
			ps, err := e.pathsOf(n.Args[0], root, cur, sc)
			if err != nil || len(ps) == 0 {
				return nil, err
			}
			return ps[:1], nil
		}
	case "last":
		if len(n.Args) == 1 {
			ps, err := e.pathsOf(n.Args[0], root, cur, sc)
			if err != nil || len(ps) == 0 {
				return nil, err
			}
			return ps[len(ps)-1:], nil
		}
	}
	if def, defScope, ok := sc.LookupFunc(n.Name, len(n.Args)); ok {
		callScope := e.bindCallArgs(def, n.Args, defScope, value.Get(root, cur), sc)
		return e.pathsOf(def.Body, root, cur, callScope)
	}
	return nil, errors.Runtime("invalid path expression: %s/%d", n.Name, len(n.Args))
}

func appendSeg(base value.Path, seg value.PathSegment) value.Path {
	out := make(value.Path, len(base)+1)
	copy(out, base)
	out[len(base)] = seg
	return out
}

func segmentFor(v value.Value) (value.PathSegment, error) {
	switch v.Kind() {
	case value.KindString:
		return value.KeySeg(v.Str()), nil
	case value.KindNumber:
		return value.IndexSeg(int(v.Int())), nil
	default:
		return value.PathSegment{}, errors.TypeError("cannot index with %s", v.TypeName())
	}
}

func (e *Evaluator) evalAssign(n ast.Assign, input value.Value, sc *env.Env) ([]value.Value, error) {
	rhsVals, err := e.Eval(n.Value, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, rhs := range rhsVals {
		result := input
		paths, err := collectPaths(e, n.Path, result, sc)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			result, err = value.Set(result, p, rhs)
			if err != nil {
				return nil, errors.PathNotFound("%v", err)
			}
		}
		out = append(out, result)
	}
	return out, nil
}

func (e *Evaluator) evalUpdateAssign(n ast.UpdateAssign, input value.Value, sc *env.Env) ([]value.Value, error) {
	result := input
	paths, err := collectPaths(e, n.Path, result, sc)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		cur := value.Get(result, p)
		updates, err := e.Eval(n.Update, cur, sc)
		if err != nil {
			return nil, err
		}
		if len(updates) == 0 {
			result, err = value.Delete(result, p)
			if err != nil {
				return nil, errors.PathNotFound("%v", err)
			}
			continue
		}
		result, err = value.Set(result, p, updates[0])
		if err != nil {
			return nil, errors.PathNotFound("%v", err)
		}
	}
	return []value.Value{result}, nil
}

func (e *Evaluator) evalArithAssign(n ast.ArithAssign, input value.Value, sc *env.Env) ([]value.Value, error) {
	rhsVals, err := e.Eval(n.Value, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, rhs := range rhsVals {
		result := input
		paths, err := collectPaths(e, n.Path, result, sc)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			cur := value.Get(result, p)
			updated, err := applyBinOp(arithAssignOp(n.Op), cur, rhs)
			if err != nil {
				return nil, err
			}
			result, err = value.Set(result, p, updated)
			if err != nil {
				return nil, errors.PathNotFound("%v", err)
			}
		}
		out = append(out, result)
	}
	return out, nil
}

func arithAssignOp(op lexer.TokenType) lexer.TokenType {
	switch op {
	case lexer.PLUSEQ:
		return lexer.PLUS
	case lexer.MINUSEQ:
		return lexer.MINUS
	case lexer.STAREQ:
		return lexer.STAR
	case lexer.SLASHEQ:
		return lexer.SLASH
	case lexer.PERCENTEQ:
		return lexer.PERCENT
	default:
		return op
	}
}

func (e *Evaluator) evalAltAssign(n ast.AltAssign, input value.Value, sc *env.Env) ([]value.Value, error) {
	result := input
	paths, err := collectPaths(e, n.Path, result, sc)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		cur := value.Get(result, p)
		if cur.Truthy() {
			continue
		}
		rhsVals, err := e.Eval(n.Value, input, sc)
		if err != nil {
			return nil, err
		}
		if len(rhsVals) == 0 {
			continue
		}
		result, err = value.Set(result, p, rhsVals[0])
		if err != nil {
			return nil, errors.PathNotFound("%v", err)
		}
	}
	return []value.Value{result}, nil
}
