// Package parser implements a recursive-descent parser with explicit
// operator-precedence tiers over the filter language's token stream,
// producing an internal/ast.Expr tree. The grammar and precedence table
// are those described in the language design (§4.2); the recursive-
// descent + precedence-climbing structure is carried from go-dws's
// internal/parser, simplified down from its token-cursor abstraction to
// a plain buffered-token index since this grammar has no backtracking
// need beyond a handful of fixed lookaheads.
package parser

import (
	"fmt"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/lexer"
	"github.com/cwbudde/jqlite/internal/value"
)

// Parser consumes a pre-lexed token buffer and builds an AST.
type Parser struct {
	source string
	tokens []lexer.Token
	pos    int
}

// Parse lexes and parses source into a single top-level Expr.
func Parse(source string) (ast.Expr, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, errors.NewCompilerError(le.Pos, le.Message, source, "").AsQueryError()
		}
		return nil, err
	}
	p := &Parser{source: source, tokens: toks}
	expr, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) is(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) errf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return errors.NewCompilerError(p.cur().Pos, msg, p.source, "").AsQueryError()
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.is(tt) {
		return lexer.Token{}, p.errf("expected %s, got %q", tt, p.cur().Literal)
	}
	return p.advance(), nil
}

func (p *Parser) parseProgram() (ast.Expr, error) {
	expr, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if !p.is(lexer.EOF) {
		return nil, p.errf("unexpected trailing token %q", p.cur().Literal)
	}
	return expr, nil
}

// parsePipe parses tier 1 (`|`) and its keyword forms (`as ... |`,
// `def ...; rest`, `label $x | body`), then tier 0 (`,`) at the bottom of
// every pipe segment, per the precedence table in §4.2.
func (p *Parser) parsePipe() (ast.Expr, error) {
	if p.is(lexer.DEF) {
		return p.parseFuncDef()
	}
	if p.is(lexer.LABEL) {
		return p.parseLabel()
	}

	left, err := p.parseComma()
	if err != nil {
		return nil, err
	}

	if p.is(lexer.AS) {
		return p.parseAs(left)
	}

	if p.is(lexer.PIPE) {
		p.advance()
		right, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		return ast.Pipe{Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseFuncDef() (ast.Expr, error) {
	p.advance() // 'def'
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	var params []string
	if p.is(lexer.LPAREN) {
		p.advance()
		for {
			tok, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, tok.Literal)
			if p.is(lexer.SEMI) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	body, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	var rest ast.Expr = ast.Identity{}
	if !p.is(lexer.EOF) && !p.is(lexer.RPAREN) && !p.is(lexer.END) && !p.is(lexer.SEMI) {
		rest, err = p.parsePipe()
		if err != nil {
			return nil, err
		}
	}
	return ast.FuncDef{Name: name.Literal, Params: params, Body: body, Rest: rest}, nil
}

func (p *Parser) parseLabel() (ast.Expr, error) {
	p.advance() // 'label'
	tok, err := p.expect(lexer.VAR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.PIPE); err != nil {
		return nil, err
	}
	body, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	return ast.Label{Name: tok.Literal, Body: body}, nil
}

func (p *Parser) parseAs(source ast.Expr) (ast.Expr, error) {
	p.advance() // 'as'
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	var alts []ast.Pattern
	for p.is(lexer.QUESTION) && p.peek(1).Type == lexer.PIPE {
		// jq allows `as $x ?// $y | ...` alternative patterns; this
		// engine's grammar (per §4.2) only names a single pattern, so no
		// alternates are parsed and a `|` must follow the first pattern.
		break
	}
	_ = alts
	if _, err := p.expect(lexer.PIPE); err != nil {
		return nil, err
	}
	body, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	return ast.As{Source: source, Pattern: pat, Body: body}, nil
}

// parseComma parses tier 0 (`,`), left-associative.
func (p *Parser) parseComma() (ast.Expr, error) {
	left, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.COMMA) {
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		left = ast.Comma{Left: left, Right: right}
	}
	return left, nil
}

var assignOps = map[lexer.TokenType]bool{
	lexer.ASSIGN: true, lexer.PIPEEQ: true, lexer.PLUSEQ: true, lexer.MINUSEQ: true,
	lexer.STAREQ: true, lexer.SLASHEQ: true, lexer.PERCENTEQ: true, lexer.ALTEQ: true,
}

// parseAssignment parses tier 2 (assignment operators), right-assoc per
// the table, though assignment is rarely chained in practice.
func (p *Parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !assignOps[p.cur().Type] {
		return left, nil
	}
	op := p.advance().Type
	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	switch op {
	case lexer.ASSIGN:
		return ast.Assign{Path: left, Value: right}, nil
	case lexer.PIPEEQ:
		return ast.UpdateAssign{Path: left, Update: right}, nil
	case lexer.ALTEQ:
		return ast.AltAssign{Path: left, Value: right}, nil
	default:
		return ast.ArithAssign{Op: op, Path: left, Value: right}, nil
	}
}

// parseOr parses tier 3 (`or`), left-associative.
func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.OR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: lexer.OR, Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses tier 4 (`and`), left-associative.
func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.AND) {
		p.advance()
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: lexer.AND, Left: left, Right: right}
	}
	return left, nil
}

var compareOps = map[lexer.TokenType]bool{
	lexer.EQ: true, lexer.NE: true, lexer.LT: true, lexer.LE: true, lexer.GT: true, lexer.GE: true,
}

// parseCompare parses tier 5 (comparisons), non-associative (only one
// comparison per chain, matching the spec's precedence table).
func (p *Parser) parseCompare() (ast.Expr, error) {
	left, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	if compareOps[p.cur().Type] {
		op := p.advance().Type
		right, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		return ast.BinOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

// parseAlternative parses tier 6 (`//`), left-associative.
func (p *Parser) parseAlternative() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.ALTERNATE) {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.Alternative{Left: left, Right: right}
	}
	return left, nil
}

// parseAdditive parses tier 7 (`+ -`), left-associative.
func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.PLUS) || p.is(lexer.MINUS) {
		op := p.advance().Type
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseMultiplicative parses tier 8 (`* / %`), left-associative.
func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.STAR) || p.is(lexer.SLASH) || p.is(lexer.PERCENT) {
		op := p.advance().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary parses tier 9 (prefix `-`).
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.is(lexer.MINUS) {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Neg{X: x}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses tier 10: chained `.ident`, `[expr]`, `[]`,
// `[m:n]`, and `?`, left-associative onto a primary atom.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is(lexer.DOT) && (p.peek(1).Type == lexer.IDENT || isKeywordLike(p.peek(1).Type)):
			p.advance()
			name := p.advance().Literal
			opt := false
			if p.is(lexer.QUESTION) {
				p.advance()
				opt = true
			}
			expr = ast.Field{Target: expr, Name: name, Optional: opt}
		case p.is(lexer.DOT) && p.peek(1).Type == lexer.STRING:
			p.advance()
			tok := p.advance()
			opt := false
			if p.is(lexer.QUESTION) {
				p.advance()
				opt = true
			}
			expr = ast.Field{Target: expr, Name: tok.Literal, Optional: opt}
		case p.is(lexer.DOT) && p.peek(1).Type == lexer.LBRACKET:
			p.advance()
			next, err := p.parseBracket(expr)
			if err != nil {
				return nil, err
			}
			expr = next
		case p.is(lexer.LBRACKET):
			next, err := p.parseBracket(expr)
			if err != nil {
				return nil, err
			}
			expr = next
		case p.is(lexer.QUESTION):
			p.advance()
			expr = ast.Optional{X: expr}
		default:
			return expr, nil
		}
	}
}

func isKeywordLike(tt lexer.TokenType) bool {
	switch tt {
	case lexer.AND, lexer.OR, lexer.NOT, lexer.IF, lexer.THEN, lexer.ELIF, lexer.ELSE, lexer.END,
		lexer.AS, lexer.DEF, lexer.REDUCE, lexer.FOREACH, lexer.TRY, lexer.CATCH, lexer.IMPORT,
		lexer.INCLUDE, lexer.LABEL, lexer.BREAK_KW, lexer.TRUE, lexer.FALSE, lexer.NULL:
		return true
	default:
		return false
	}
}

// parseBracket parses `[ ... ]` following target: `[]` (iterate),
// `[expr]` (index), or `[from:to]` (slice, either bound optional).
func (p *Parser) parseBracket(target ast.Expr) (ast.Expr, error) {
	p.advance() // '['
	if p.is(lexer.RBRACKET) {
		p.advance()
		opt := p.consumeOptional()
		return ast.Iterate{Target: target, Optional: opt}, nil
	}
	if p.is(lexer.COLON) {
		p.advance()
		to, err := p.parsePipeNoComma()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		opt := p.consumeOptional()
		return ast.Slice{Target: target, To: to, Optional: opt}, nil
	}
	first, err := p.parsePipeNoComma()
	if err != nil {
		return nil, err
	}
	if p.is(lexer.COLON) {
		p.advance()
		var to ast.Expr
		if !p.is(lexer.RBRACKET) {
			to, err = p.parsePipeNoComma()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		opt := p.consumeOptional()
		return ast.Slice{Target: target, From: first, To: to, Optional: opt}, nil
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	opt := p.consumeOptional()
	return ast.Index{Target: target, IndexVal: first, Optional: opt}, nil
}

func (p *Parser) consumeOptional() bool {
	if p.is(lexer.QUESTION) {
		p.advance()
		return true
	}
	return false
}

// parsePipeNoComma parses a pipe expression without allowing a top-level
// `,`, used inside `[...]`/`{...}` where `,` is a separator belonging to
// the enclosing construct.
func (p *Parser) parsePipeNoComma() (ast.Expr, error) {
	left, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if p.is(lexer.AS) {
		return p.parseAs(left)
	}
	if p.is(lexer.PIPE) {
		p.advance()
		right, err := p.parsePipeNoComma()
		if err != nil {
			return nil, err
		}
		return ast.Pipe{Left: left, Right: right}, nil
	}
	return left, nil
}

// parsePrimary parses tier 11: atoms.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.DOT:
		return p.parseDotLeading()
	case lexer.DOTDOT:
		p.advance()
		return ast.RecurseAll{}, nil
	case lexer.NUMBER:
		p.advance()
		return ast.Literal{Value: parseNumber(tok.Literal)}, nil
	case lexer.STRING:
		p.advance()
		return ast.StringLiteral{Value: tok.Literal}, nil
	case lexer.TRUE:
		p.advance()
		return ast.Literal{Value: value.Bool(true)}, nil
	case lexer.FALSE:
		p.advance()
		return ast.Literal{Value: value.Bool(false)}, nil
	case lexer.NULL:
		p.advance()
		return ast.Literal{Value: value.Null}, nil
	case lexer.VAR:
		p.advance()
		return ast.VarRef{Name: tok.Literal}, nil
	case lexer.FORMAT:
		p.advance()
		if p.is(lexer.STRING) {
			// `@fmt "literal \(interp)"` -- the format applies over the
			// resulting string's construction just like a plain string;
			// desugared to piping the string through the format filter.
			str, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return ast.Pipe{Left: str, Right: ast.Format{Name: tok.Literal}}, nil
		}
		return ast.Format{Name: tok.Literal}, nil
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.LBRACKET:
		return p.parseArrayConstruct()
	case lexer.LBRACE:
		return p.parseObjectConstruct()
	case lexer.IF:
		return p.parseIf()
	case lexer.TRY:
		return p.parseTry()
	case lexer.REDUCE:
		return p.parseReduce()
	case lexer.FOREACH:
		return p.parseForeach()
	case lexer.BREAK_KW:
		p.advance()
		v, err := p.expect(lexer.VAR)
		if err != nil {
			return nil, err
		}
		return ast.Break{Name: v.Literal}, nil
	case lexer.NOT:
		p.advance()
		return ast.Not{Target: ast.Identity{}}, nil
	case lexer.IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, p.errf("unexpected token %q", tok.Literal)
	}
}

func (p *Parser) parseDotLeading() (ast.Expr, error) {
	dot := p.advance() // '.'
	// A keyword is a field name only when written right after the dot
	// (`.as`); `. as $x` is the binding form.
	kwField := isKeywordLike(p.cur().Type) && p.cur().Pos.Line == dot.Pos.Line && p.cur().Pos.Column == dot.Pos.Column+1
	switch {
	case p.is(lexer.IDENT) || kwField:
		name := p.advance().Literal
		opt := p.consumeOptional()
		return ast.Field{Target: ast.Identity{}, Name: name, Optional: opt}, nil
	case p.is(lexer.STRING):
		tok := p.advance()
		opt := p.consumeOptional()
		return ast.Field{Target: ast.Identity{}, Name: tok.Literal, Optional: opt}, nil
	case p.is(lexer.LBRACKET):
		return p.parseBracket(ast.Identity{})
	default:
		return ast.Identity{}, nil
	}
}

func (p *Parser) parseArrayConstruct() (ast.Expr, error) {
	p.advance() // '['
	if p.is(lexer.RBRACKET) {
		p.advance()
		return ast.ArrayConstruct{}, nil
	}
	inner, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return ast.ArrayConstruct{Inner: inner}, nil
}

func (p *Parser) parseObjectConstruct() (ast.Expr, error) {
	p.advance() // '{'
	var entries []ast.ObjectEntry
	if p.is(lexer.RBRACE) {
		p.advance()
		return ast.ObjectConstruct{}, nil
	}
	for {
		entry, err := p.parseObjectEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if p.is(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return ast.ObjectConstruct{Entries: entries}, nil
}

func (p *Parser) parseObjectEntry() (ast.ObjectEntry, error) {
	switch {
	case p.is(lexer.VAR):
		tok := p.advance()
		if p.is(lexer.COLON) {
			p.advance()
			val, err := p.parsePipeNoComma()
			if err != nil {
				return ast.ObjectEntry{}, err
			}
			return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: val}, nil
		}
		return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: ast.VarRef{Name: tok.Literal}}, nil
	case p.is(lexer.FORMAT):
		tok := p.advance()
		if p.is(lexer.COLON) {
			p.advance()
			val, err := p.parsePipeNoComma()
			if err != nil {
				return ast.ObjectEntry{}, err
			}
			return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: val}, nil
		}
		return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: ast.Format{Name: tok.Literal}}, nil
	case p.is(lexer.STRING):
		tok := p.advance()
		if p.is(lexer.COLON) {
			p.advance()
			val, err := p.parsePipeNoComma()
			if err != nil {
				return ast.ObjectEntry{}, err
			}
			return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: val}, nil
		}
		return ast.ObjectEntry{Key: ast.StringLiteral{Value: tok.Literal}, Value: ast.Field{Target: ast.Identity{}, Name: tok.Literal}}, nil
	case p.is(lexer.LPAREN):
		p.advance()
		keyExpr, err := p.parsePipe()
		if err != nil {
			return ast.ObjectEntry{}, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return ast.ObjectEntry{}, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.ObjectEntry{}, err
		}
		val, err := p.parsePipeNoComma()
		if err != nil {
			return ast.ObjectEntry{}, err
		}
		return ast.ObjectEntry{Key: keyExpr, Value: val}, nil
	case p.is(lexer.IDENT) || isKeywordLike(p.cur().Type):
		name := p.advance().Literal
		if p.is(lexer.COLON) {
			p.advance()
			val, err := p.parsePipeNoComma()
			if err != nil {
				return ast.ObjectEntry{}, err
			}
			return ast.ObjectEntry{Key: ast.StringLiteral{Value: name}, Value: val}, nil
		}
		return ast.ObjectEntry{Key: ast.StringLiteral{Value: name}, Value: ast.Field{Target: ast.Identity{}, Name: name}}, nil
	default:
		return ast.ObjectEntry{}, p.errf("unexpected token %q in object entry", p.cur().Literal)
	}
}

func (p *Parser) parseIf() (ast.Expr, error) {
	p.advance() // 'if'
	cond, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.THEN); err != nil {
		return nil, err
	}
	thenBody, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	var elifs []ast.ElifBranch
	for p.is(lexer.ELIF) {
		p.advance()
		c, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.THEN); err != nil {
			return nil, err
		}
		t, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, ast.ElifBranch{Cond: c, Then: t})
	}
	var elseBody ast.Expr
	if p.is(lexer.ELSE) {
		p.advance()
		elseBody, err = p.parsePipe()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.END); err != nil {
		return nil, err
	}
	return ast.If{Cond: cond, Then: thenBody, Elifs: elifs, Else: elseBody}, nil
}

func (p *Parser) parseTry() (ast.Expr, error) {
	p.advance() // 'try'
	body, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	var catch ast.Expr
	if p.is(lexer.CATCH) {
		p.advance()
		catch, err = p.parsePostfix()
		if err != nil {
			return nil, err
		}
	}
	return ast.Try{Body: body, Catch: catch}, nil
}

func (p *Parser) parseReduce() (ast.Expr, error) {
	p.advance() // 'reduce'
	source, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.AS); err != nil {
		return nil, err
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	init, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	update, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.Reduce{Source: source, Pattern: pat, Init: init, Update: update}, nil
}

func (p *Parser) parseForeach() (ast.Expr, error) {
	p.advance() // 'foreach'
	source, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.AS); err != nil {
		return nil, err
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	init, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	update, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	var extract ast.Expr
	if p.is(lexer.SEMI) {
		p.advance()
		extract, err = p.parsePipe()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return ast.Foreach{Source: source, Pattern: pat, Init: init, Update: update, Extract: extract}, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	tok := p.advance()
	if p.is(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		for {
			arg, err := p.parsePipe()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.is(lexer.SEMI) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return ast.FuncCall{Name: tok.Literal, Args: args}, nil
	}
	return ast.FuncCall{Name: tok.Literal}, nil
}

// parsePattern parses a destructuring pattern: `$name`, `[pat, ...]`, or
// `{key: pat, ...}`.
func (p *Parser) parsePattern() (ast.Pattern, error) {
	switch {
	case p.is(lexer.VAR):
		tok := p.advance()
		return ast.VarPattern{Name: tok.Literal}, nil
	case p.is(lexer.LBRACKET):
		p.advance()
		var elems []ast.Pattern
		if !p.is(lexer.RBRACKET) {
			for {
				el, err := p.parsePattern()
				if err != nil {
					return nil, err
				}
				elems = append(elems, el)
				if p.is(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return ast.ArrayPattern{Elems: elems}, nil
	case p.is(lexer.LBRACE):
		p.advance()
		var entries []ast.ObjectPatternEntry
		for {
			entry, err := p.parsePatternEntry()
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			if p.is(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
		return ast.ObjectPattern{Entries: entries}, nil
	default:
		return nil, p.errf("expected pattern, got %q", p.cur().Literal)
	}
}

func (p *Parser) parsePatternEntry() (ast.ObjectPatternEntry, error) {
	switch {
	case p.is(lexer.VAR):
		tok := p.advance()
		if p.is(lexer.COLON) {
			p.advance()
			sub, err := p.parsePattern()
			if err != nil {
				return ast.ObjectPatternEntry{}, err
			}
			return ast.ObjectPatternEntry{Key: ast.StringLiteral{Value: tok.Literal}, Pattern: sub}, nil
		}
		return ast.ObjectPatternEntry{Key: ast.StringLiteral{Value: tok.Literal}, Pattern: ast.VarPattern{Name: tok.Literal}}, nil
	case p.is(lexer.IDENT) || isKeywordLike(p.cur().Type):
		name := p.advance().Literal
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		sub, err := p.parsePattern()
		if err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		return ast.ObjectPatternEntry{Key: ast.StringLiteral{Value: name}, Pattern: sub}, nil
	case p.is(lexer.STRING):
		tok := p.advance()
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		sub, err := p.parsePattern()
		if err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		return ast.ObjectPatternEntry{Key: ast.StringLiteral{Value: tok.Literal}, Pattern: sub}, nil
	case p.is(lexer.LPAREN):
		p.advance()
		keyExpr, err := p.parsePipe()
		if err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		sub, err := p.parsePattern()
		if err != nil {
			return ast.ObjectPatternEntry{}, err
		}
		return ast.ObjectPatternEntry{Key: keyExpr, Pattern: sub}, nil
	default:
		return ast.ObjectPatternEntry{}, p.errf("expected object pattern entry, got %q", p.cur().Literal)
	}
}

func parseNumber(lit string) value.Value {
	// The lexer only emits syntactically valid numeric literals, so the
	// conversions below cannot fail.
	for _, r := range lit {
		if r == '.' || r == 'e' || r == 'E' {
			var f float64
			fmt.Sscanf(lit, "%g", &f)
			return value.Float(f)
		}
	}
	var n int64
	fmt.Sscanf(lit, "%d", &n)
	return value.Int(n)
}
