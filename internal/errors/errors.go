// Package errors implements the query engine's closed error taxonomy,
// plus source-position formatting for syntax errors. The formatting
// (line/column header, source line, caret indicator) is carried from
// go-dws's CompilerError almost unchanged; only the error kinds
// underneath are new.
package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/jqlite/internal/lexer"
)

// Kind identifies which branch of the closed error taxonomy (§4.5 of the
// engine's design) an error belongs to.
type Kind int

const (
	KindSyntax Kind = iota
	KindType
	KindUndefinedVariable
	KindUndefinedFunction
	KindRuntime
	KindUser
	KindPathNotFound
	KindIndexOutOfBounds
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindType:
		return "TypeError"
	case KindUndefinedVariable:
		return "UndefinedVariable"
	case KindUndefinedFunction:
		return "UndefinedFunction"
	case KindRuntime:
		return "Runtime"
	case KindUser:
		return "UserError"
	case KindPathNotFound:
		return "PathNotFound"
	case KindIndexOutOfBounds:
		return "IndexOutOfBounds"
	default:
		return "Error"
	}
}

// QueryError is the single error type the engine raises, tagged by Kind.
// A reserved message prefix (breakPrefix) carries label-break as an error
// to avoid a separate control-flow channel through the evaluator, per the
// spec's explicit "error-as-control-flow for break" design note.
type QueryError struct {
	Kind    Kind
	Message string
	Pos     *lexer.Position
}

func (e *QueryError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newErr(kind Kind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TypeError reports an operation applied to a value of the wrong kind.
func TypeError(format string, args ...any) *QueryError { return newErr(KindType, format, args...) }

// UndefinedVariable reports a reference to an unbound `$name`.
func UndefinedVariable(name string) *QueryError {
	return newErr(KindUndefinedVariable, "$%s is not defined", name)
}

// UndefinedFunction reports a call to a filter with no matching
// user-defined or builtin definition at that name and arity.
func UndefinedFunction(name string, arity int) *QueryError {
	return newErr(KindUndefinedFunction, "%s/%d is not defined", name, arity)
}

// Runtime reports a generic evaluation failure that doesn't fit a more
// specific kind (iteration caps, invalid regexes, invalid path expressions).
func Runtime(format string, args ...any) *QueryError { return newErr(KindRuntime, format, args...) }

// UserError wraps the message passed to the `error` builtin.
func UserError(message string) *QueryError { return newErr(KindUser, "%s", message) }

// PathNotFound reports a path-assignment target that cannot be
// navigated (e.g. assigning into a path through a scalar).
func PathNotFound(format string, args ...any) *QueryError {
	return newErr(KindPathNotFound, format, args...)
}

// IndexOutOfBounds reports an index that is out of range where the
// language requires an error rather than a null result (`first`, `last`
// and `nth` past the end; ordinary `.[i]` reads never raise this -- they
// return null).
func IndexOutOfBounds(index, length int) *QueryError {
	return newErr(KindIndexOutOfBounds, "index %d out of bounds (length %d)", index, length)
}

const breakPrefix = "__break__"

// NewBreak constructs the sentinel error for `break $name`.
func NewBreak(label string) *QueryError {
	return &QueryError{Kind: KindRuntime, Message: breakPrefix + label}
}

// BreakLabel returns (label, true) if err is a break sentinel for any
// label, or ("", false) otherwise.
func BreakLabel(err error) (string, bool) {
	qe, ok := err.(*QueryError)
	if !ok {
		return "", false
	}
	if !strings.HasPrefix(qe.Message, breakPrefix) {
		return "", false
	}
	return strings.TrimPrefix(qe.Message, breakPrefix), true
}

// IsBreakFor reports whether err is a break sentinel for exactly label.
func IsBreakFor(err error, label string) bool {
	got, ok := BreakLabel(err)
	return ok && got == label
}

const haltPrefix = "__halt__"

// NewHalt constructs the sentinel error for `halt`/`halt_error`, carrying
// the exit code jq assigns (0 for halt, 5 for halt_error) and the message
// to print (empty, or the input re-rendered per halt_error's rules).
func NewHalt(code int, message string) *QueryError {
	return &QueryError{Kind: KindRuntime, Message: fmt.Sprintf("%s%d:%s", haltPrefix, code, message)}
}

// HaltInfo returns (code, message, true) if err is a halt sentinel.
func HaltInfo(err error) (int, string, bool) {
	qe, ok := err.(*QueryError)
	if !ok || !strings.HasPrefix(qe.Message, haltPrefix) {
		return 0, "", false
	}
	rest := strings.TrimPrefix(qe.Message, haltPrefix)
	idx := strings.IndexByte(rest, ':')
	if idx < 0 {
		return 0, "", false
	}
	n, err2 := strconv.Atoi(rest[:idx])
	if err2 != nil {
		return 0, "", false
	}
	return n, rest[idx+1:], true
}

// CompilerError is a lex/parse-time syntax error carrying a source
// position, used to render the caret-pointing diagnostic format.
type CompilerError struct {
	Message string
	Source  string
	File    string
	Pos     lexer.Position
}

// NewCompilerError creates a new syntax error.
func NewCompilerError(pos lexer.Position, message, source, file string) *CompilerError {
	return &CompilerError{Pos: pos, Message: message, Source: source, File: file}
}

func (e *CompilerError) Error() string { return e.Format(false) }

// AsQueryError converts a CompilerError into the closed QueryError
// taxonomy (KindSyntax), so callers of the evaluator only ever need to
// handle one error type.
func (e *CompilerError) AsQueryError() *QueryError {
	pos := e.Pos
	return &QueryError{Kind: KindSyntax, Message: e.Format(false), Pos: &pos}
}

// Format renders the error with source context and a caret indicator. If
// color is true, ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d\n", e.File, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "Error at line %d:%d\n", e.Pos.Line, e.Pos.Column)
	}

	sourceLine := e.sourceLine(e.Pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
