// Package jqlite is the embeddable public API for the filter engine: a
// thin facade over internal/lexer, internal/parser, internal/ast,
// internal/env and internal/eval, the same role go-dws's pkg/dwscript
// played over its own lexer/parser/interp stack.
package jqlite

import (
	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/env"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/eval"
	"github.com/cwbudde/jqlite/internal/parser"
	"github.com/cwbudde/jqlite/internal/value"
)

// Value re-exports the engine's value type so callers never need to
// import internal/value directly.
type Value = value.Value

// Program is a parsed, ready-to-run filter expression.
type Program struct {
	expr ast.Expr
}

// Expr returns the parsed AST, for callers that want to inspect or
// print it (the CLI's --dump-ast flag).
func (p *Program) Expr() ast.Expr { return p.expr }

// Null is the JSON null value.
var Null = value.Null

// String constructs a string Value.
func String(s string) Value { return value.String(s) }

// Array constructs an array Value from its elements.
func Array(elems ...Value) Value { return value.Array(elems...) }

// IsString reports whether v is a string Value.
func IsString(v Value) bool { return v.Kind() == value.KindString }

// StringOf returns v's string contents; only meaningful when IsString(v).
func StringOf(v Value) string { return v.Str() }

// Compile parses source into a reusable Program. A syntax error comes
// back as *errors.QueryError with Kind SyntaxError and a source position.
func Compile(source string) (*Program, error) {
	expr, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return &Program{expr: expr}, nil
}

// Runner executes one or more Programs against one or more inputs,
// sharing variable bindings, an input-document driver, and hooks for
// `debug`/`stderr`/`now`/`input_line_number` across calls.
type Runner struct {
	root *env.Env
	eval *eval.Evaluator
}

// NewRunner creates a Runner with an empty root scope (no variables
// bound, no input driver installed).
func NewRunner() *Runner {
	return &Runner{root: env.New(), eval: eval.New()}
}

// SetVar binds $name for every subsequent Run call.
func (r *Runner) SetVar(name string, v Value) {
	r.root = r.root.WithVar(name, v)
}

// SetInputSource installs the driver `input`/`inputs` pull extra
// documents from. src returns (value, false) once exhausted.
func (r *Runner) SetInputSource(src func() (Value, bool)) {
	r.root.SetInputSource(src)
}

// SetDebugSink installs the callback the `debug` builtin writes to.
func (r *Runner) SetDebugSink(fn func(Value)) {
	r.root.SetDebugSink(fn)
}

// SetClock overrides the source `now` reads from (tests; reproducible
// --arg-driven golden files).
func (r *Runner) SetClock(fn func() float64) {
	r.root.SetClock(fn)
}

// SetTrace installs a callback invoked before each sub-expression is
// evaluated, used by the CLI's --trace flag.
func (r *Runner) SetTrace(fn func(expr ast.Expr, input Value)) {
	r.eval.SetTrace(fn)
}

// Run evaluates p against input, returning every output the filter
// produces in order.
func (r *Runner) Run(p *Program, input Value) ([]Value, error) {
	return r.eval.Eval(p.expr, input, r.root)
}

// Run compiles and runs source against input in one shot, with no
// variables bound and no input driver installed. It is the package-level
// convenience entrypoint; embedders that need $name bindings, input
// drivers, or repeated runs should use NewRunner/Compile directly.
func Run(source string, input Value) ([]Value, error) {
	p, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return NewRunner().Run(p, input)
}

// ParseJSON decodes a single JSON document into a Value.
func ParseJSON(text string) (Value, error) {
	return value.FromJSON(text)
}

// ToJSON renders v as JSON text. indent is the per-level indent string;
// an empty indent produces compact output.
func ToJSON(v Value, indent string) string {
	return value.ToJSON(v, indent)
}

// ApplyFormat runs one of the `@name` format encoders (text, json,
// html, uri, csv, tsv, sh, base64, base64d, base32, base32d) over v.
func ApplyFormat(name string, v Value) (Value, error) {
	return eval.ApplyFormat(name, v)
}

// HaltInfo reports whether err is a `halt`/`halt_error` sentinel, and
// if so, the exit code and message the caller should act on. Embedders
// driving their own output loop should check this after every Run call.
func HaltInfo(err error) (code int, message string, ok bool) {
	return errors.HaltInfo(err)
}

// AsQueryError extracts the engine's structured error, if err is one.
func AsQueryError(err error) (*errors.QueryError, bool) {
	qe, ok := err.(*errors.QueryError)
	return qe, ok
}
