package ast

import (
	"fmt"
	"strings"

	"github.com/cwbudde/jqlite/internal/lexer"
	"github.com/cwbudde/jqlite/internal/value"
)

// Expr is the base interface for every AST node. The language has no
// statements: every node is a filter that, given an input Value and an
// environment, produces zero or more output Values.
type Expr interface {
	fmt.Stringer
	exprNode()
}

type baseExpr struct{}

func (baseExpr) exprNode() {}

// Identity is `.`.
type Identity struct{ baseExpr }

func (Identity) String() string { return "." }

// RecurseAll is `..`.
type RecurseAll struct{ baseExpr }

func (RecurseAll) String() string { return ".." }

// Literal holds a constant true/false/null/number value.
type Literal struct {
	baseExpr
	Value value.Value
}

func (l Literal) String() string { return value.ToJSON(l.Value, "") }

// StringLiteral is a literal string segment. String interpolation is
// desugared entirely in the lexer (see internal/lexer's "\(" handling),
// so by the time the parser sees tokens, an interpolated string is just
// ordinary `+`/pipe/tostring expressions built from StringLiteral and
// other Exprs -- there is no separate interpolation node here.
type StringLiteral struct {
	baseExpr
	Value string
}

func (s StringLiteral) String() string { return fmt.Sprintf("%q", s.Value) }

// VarRef is `$name`.
type VarRef struct {
	baseExpr
	Name string
}

func (v VarRef) String() string { return "$" + v.Name }

// Format is `@name` used as a standalone filter.
type Format struct {
	baseExpr
	Name string
}

func (f Format) String() string { return "@" + f.Name }

// Field is `.name` (or chained `expr.name`); Target is Identity for a
// bare leading field access.
type Field struct {
	baseExpr
	Target   Expr
	Name     string
	Optional bool
}

func (f Field) String() string {
	q := ""
	if f.Optional {
		q = "?"
	}
	return fmt.Sprintf("%s.%s%s", f.Target, f.Name, q)
}

// Index is `expr[idxExpr]`.
type Index struct {
	baseExpr
	Target   Expr
	IndexVal Expr
	Optional bool
}

func (i Index) String() string {
	q := ""
	if i.Optional {
		q = "?"
	}
	return fmt.Sprintf("%s[%s]%s", i.Target, i.IndexVal, q)
}

// Slice is `expr[from:to]`, either bound being nil.
type Slice struct {
	baseExpr
	Target   Expr
	From, To Expr
	Optional bool
}

func (s Slice) String() string {
	from, to := "", ""
	if s.From != nil {
		from = s.From.String()
	}
	if s.To != nil {
		to = s.To.String()
	}
	return fmt.Sprintf("%s[%s:%s]", s.Target, from, to)
}

// Iterate is `expr[]`.
type Iterate struct {
	baseExpr
	Target   Expr
	Optional bool
}

func (i Iterate) String() string {
	q := ""
	if i.Optional {
		q = "?"
	}
	return fmt.Sprintf("%s[]%s", i.Target, q)
}

// Pipe is `left | right`: broadcast composition.
type Pipe struct {
	baseExpr
	Left, Right Expr
}

func (p Pipe) String() string { return fmt.Sprintf("(%s | %s)", p.Left, p.Right) }

// Comma is `left, right`: concatenation over the shared input.
type Comma struct {
	baseExpr
	Left, Right Expr
}

func (c Comma) String() string { return fmt.Sprintf("(%s, %s)", c.Left, c.Right) }

// Neg is unary `-expr`.
type Neg struct {
	baseExpr
	X Expr
}

func (n Neg) String() string { return "-" + n.X.String() }

// Not is the `not` builtin filter applied to Target (Identity if bare).
type Not struct {
	baseExpr
	Target Expr
}

func (n Not) String() string { return fmt.Sprintf("(%s | not)", n.Target) }

// BinOp is a binary arithmetic/comparison/logical operator.
type BinOp struct {
	baseExpr
	Op          lexer.TokenType
	Left, Right Expr
}

func (b BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Alternative is `left // right`.
type Alternative struct {
	baseExpr
	Left, Right Expr
}

func (a Alternative) String() string { return fmt.Sprintf("(%s // %s)", a.Left, a.Right) }

// Try is `try body [catch handler]`; Catch is nil when absent.
type Try struct {
	baseExpr
	Body  Expr
	Catch Expr
}

func (t Try) String() string {
	if t.Catch == nil {
		return fmt.Sprintf("try %s", t.Body)
	}
	return fmt.Sprintf("try %s catch %s", t.Body, t.Catch)
}

// Optional is `expr?`, equivalent to `try expr`.
type Optional struct {
	baseExpr
	X Expr
}

func (o Optional) String() string { return o.X.String() + "?" }

// ArrayConstruct is `[ inner ]`; Inner is nil for `[]`.
type ArrayConstruct struct {
	baseExpr
	Inner Expr
}

func (a ArrayConstruct) String() string {
	if a.Inner == nil {
		return "[]"
	}
	return fmt.Sprintf("[%s]", a.Inner)
}

// ObjectEntry is one `{ ... }` member. Shorthand forms (`ident`, `$var`,
// `@fmt`) are desugared by the parser into an explicit Key/Value pair, so
// the evaluator only ever sees the general form.
type ObjectEntry struct {
	Key   Expr // evaluates to the entry's string key
	Value Expr
}

// ObjectConstruct is `{ entries }`.
type ObjectConstruct struct {
	baseExpr
	Entries []ObjectEntry
}

func (o ObjectConstruct) String() string {
	parts := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		parts[i] = fmt.Sprintf("%s: %s", e.Key, e.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ElifBranch is one `elif cond then body` clause of an If.
type ElifBranch struct {
	Cond, Then Expr
}

// If is `if cond then thenBody [elif ...]* [else elseBody] end`. Else is
// nil when absent (meaning: pass the input through unchanged).
type If struct {
	baseExpr
	Cond  Expr
	Then  Expr
	Elifs []ElifBranch
	Else  Expr
}

func (i If) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "if %s then %s", i.Cond, i.Then)
	for _, e := range i.Elifs {
		fmt.Fprintf(&sb, " elif %s then %s", e.Cond, e.Then)
	}
	if i.Else != nil {
		fmt.Fprintf(&sb, " else %s", i.Else)
	}
	sb.WriteString(" end")
	return sb.String()
}

// As is `expr as pattern | body`.
type As struct {
	baseExpr
	Source  Expr
	Pattern Pattern
	Body    Expr
}

func (a As) String() string { return fmt.Sprintf("(%s as %s | %s)", a.Source, a.Pattern, a.Body) }

// Reduce is `reduce source as pattern (init; update)`.
type Reduce struct {
	baseExpr
	Source  Expr
	Pattern Pattern
	Init    Expr
	Update  Expr
}

func (r Reduce) String() string {
	return fmt.Sprintf("reduce %s as %s (%s; %s)", r.Source, r.Pattern, r.Init, r.Update)
}

// Foreach is `foreach source as pattern (init; update[; extract])`.
type Foreach struct {
	baseExpr
	Source  Expr
	Pattern Pattern
	Init    Expr
	Update  Expr
	Extract Expr // nil when absent
}

func (f Foreach) String() string {
	if f.Extract == nil {
		return fmt.Sprintf("foreach %s as %s (%s; %s)", f.Source, f.Pattern, f.Init, f.Update)
	}
	return fmt.Sprintf("foreach %s as %s (%s; %s; %s)", f.Source, f.Pattern, f.Init, f.Update, f.Extract)
}

// Label is `label $name | body`.
type Label struct {
	baseExpr
	Name string
	Body Expr
}

func (l Label) String() string { return fmt.Sprintf("label $%s | %s", l.Name, l.Body) }

// Break is `break $name`.
type Break struct {
	baseExpr
	Name string
}

func (b Break) String() string { return "break $" + b.Name }

// FuncDef is `def name(params): body; rest`.
type FuncDef struct {
	baseExpr
	Name   string
	Params []string
	Body   Expr
	Rest   Expr
}

func (f FuncDef) String() string {
	return fmt.Sprintf("def %s(%s): %s; %s", f.Name, strings.Join(f.Params, "; "), f.Body, f.Rest)
}

// FuncCall is `name(arg; arg; ...)` or a bare `name` for arity 0.
type FuncCall struct {
	baseExpr
	Name string
	Args []Expr
}

func (f FuncCall) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, "; "))
}

// Assign is `path = rhs`.
type Assign struct {
	baseExpr
	Path  Expr
	Value Expr
}

func (a Assign) String() string { return fmt.Sprintf("%s = %s", a.Path, a.Value) }

// UpdateAssign is `path |= rhs`.
type UpdateAssign struct {
	baseExpr
	Path   Expr
	Update Expr
}

func (u UpdateAssign) String() string { return fmt.Sprintf("%s |= %s", u.Path, u.Update) }

// ArithAssign is one of `path += rhs`, `-=`, `*=`, `/=`, `%=`.
type ArithAssign struct {
	baseExpr
	Op    lexer.TokenType
	Path  Expr
	Value Expr
}

func (a ArithAssign) String() string { return fmt.Sprintf("%s %s %s", a.Path, a.Op, a.Value) }

// AltAssign is `path //= rhs`.
type AltAssign struct {
	baseExpr
	Path  Expr
	Value Expr
}

func (a AltAssign) String() string { return fmt.Sprintf("%s //= %s", a.Path, a.Value) }
