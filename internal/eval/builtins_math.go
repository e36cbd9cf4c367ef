package eval

import (
	"math"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

func init() {
	registerUnaryMath("floor", math.Floor)
	registerUnaryMath("ceil", math.Ceil)
	registerUnaryMath("round", math.Round)
	registerUnaryMath("sqrt", math.Sqrt)
	registerUnaryMath("fabs", math.Abs)
	registerUnaryMath("exp", math.Exp)
	registerUnaryMath("exp10", func(x float64) float64 { return math.Pow(10, x) })
	registerUnaryMath("exp2", math.Exp2)
	registerUnaryMath("expm1", math.Expm1)
	registerUnaryMath("log", math.Log)
	registerUnaryMath("log10", math.Log10)
	registerUnaryMath("log2", math.Log2)
	registerUnaryMath("log1p", math.Log1p)
	registerUnaryMath("cbrt", math.Cbrt)
	registerUnaryMath("trunc", math.Trunc)
	registerUnaryMath("significand", significand)
	registerUnaryMath("logb", func(x float64) float64 { return math.Floor(math.Log2(math.Abs(x))) })
	registerUnaryMath("gamma", math.Gamma)
	registerUnaryMath("lgamma", func(x float64) float64 { v, _ := math.Lgamma(x); return v })
	registerUnaryMath("tgamma", math.Gamma)
	registerUnaryMath("sin", math.Sin)
	registerUnaryMath("cos", math.Cos)
	registerUnaryMath("tan", math.Tan)
	registerUnaryMath("asin", math.Asin)
	registerUnaryMath("acos", math.Acos)
	registerUnaryMath("atan", math.Atan)
	registerUnaryMath("sinh", math.Sinh)
	registerUnaryMath("cosh", math.Cosh)
	registerUnaryMath("tanh", math.Tanh)
	registerUnaryMath("asinh", math.Asinh)
	registerUnaryMath("acosh", math.Acosh)
	registerUnaryMath("atanh", math.Atanh)

	registerBuiltin("pow", 2, builtinPow)
	registerBuiltin("atan2", 2, builtinAtan2)
	registerBuiltin("fmin", 2, builtinFmin)
	registerBuiltin("fmax", 2, builtinFmax)
	registerBuiltin("copysign", 2, builtinCopysign)
	registerBuiltin("drem", 2, builtinDrem)
	registerBuiltin("ldexp", 2, builtinLdexp)
	registerBuiltin("nearbyint", 0, builtinNearbyint)
	registerBuiltin("infinite", 0, builtinInfinite)
	registerBuiltin("nan", 0, builtinNanConst)
}

// significand scales x into [1, 2), the C library's significand().
func significand(x float64) float64 {
	if x == 0 {
		return 0
	}
	frac, _ := math.Frexp(x)
	return frac * 2
}

func registerUnaryMath(name string, fn func(float64) float64) {
	registerBuiltin(name, 0, func(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
		if input.Kind() != value.KindNumber {
			return nil, errors.TypeError("%s has no %s", input.TypeName(), name)
		}
		return []value.Value{value.Float(fn(input.Number()))}, nil
	})
}

func numArg(e *Evaluator, call ast.FuncCall, idx int, input value.Value, sc *env.Env) ([]value.Value, error) {
	vs, err := evalArg(e, call, idx, input, sc)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if v.Kind() != value.KindNumber {
			return nil, errors.TypeError("%s is not a number", v.TypeName())
		}
	}
	return vs, nil
}

func builtinPow(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	bases, err := numArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	exps, err := numArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, b := range bases {
		for _, ex := range exps {
			out = append(out, value.Float(math.Pow(b.Number(), ex.Number())))
		}
	}
	return out, nil
}

func binaryMath(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env, fn func(a, b float64) float64) ([]value.Value, error) {
	as, err := numArg(e, call, 0, input, sc)
	if err != nil {
		return nil, err
	}
	bs, err := numArg(e, call, 1, input, sc)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, a := range as {
		for _, b := range bs {
			out = append(out, value.Float(fn(a.Number(), b.Number())))
		}
	}
	return out, nil
}

func builtinAtan2(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, math.Atan2)
}

func builtinFmin(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, math.Min)
}

func builtinFmax(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, math.Max)
}

func builtinCopysign(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, math.Copysign)
}

func builtinDrem(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, math.Remainder)
}

func builtinLdexp(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return binaryMath(e, call, input, sc, func(frac, exp float64) float64 { return math.Ldexp(frac, int(exp)) })
}

func builtinNearbyint(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	if input.Kind() != value.KindNumber {
		return nil, errors.TypeError("%s has no nearbyint", input.TypeName())
	}
	return []value.Value{value.Float(math.RoundToEven(input.Number()))}, nil
}

func builtinInfinite(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.FloatNoNormalize(math.Inf(1))}, nil
}

func builtinNanConst(e *Evaluator, call ast.FuncCall, input value.Value, sc *env.Env) ([]value.Value, error) {
	return []value.Value{value.FloatNoNormalize(math.NaN())}, nil
}
