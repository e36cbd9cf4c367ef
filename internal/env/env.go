// Package env implements the query engine's lexical environment: the
// binding of `$variables` and user-defined filters (keyed by name and
// arity) visible at a point in the AST.
//
// Per the design notes, a full copy-per-scope Env would be semantically
// correct but wasteful; jqlite instead uses the "persistent/stacked
// binding strategy" the notes call out as an efficient alternative: each
// child scope is a small struct holding only its own delta plus a
// pointer to its parent, so creating a scope at `as`, `reduce`,
// `foreach`, a function call, or a `def` never touches the parent's
// bindings.
package env

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/jqlite/internal/ast"
	"github.com/cwbudde/jqlite/internal/value"
)

type funcKey struct {
	name  string
	arity int
}

// Env is one lexical scope. The zero value is not usable; construct with
// New.
type Env struct {
	parent *Env

	varName  string
	varVal   value.Value
	hasVar   bool

	funcKey funcKey
	funcDef *ast.FuncDef
	hasFunc bool

	// inputSource is set on the scope handed to top-level evaluation and
	// found from any descendant by NextInput; it is the driver seam
	// (SPEC_FULL §12) that lets an out-of-scope streaming caller supply
	// extra documents for `input`/`inputs` without this package importing
	// any I/O machinery.
	inputSource func() (value.Value, bool)

	// debugSink receives the `debug`/`stderr` builtins' payloads; nil
	// means "write newline-delimited JSON to stderr", the same default a
	// driver-less invocation of those builtins has in practice.
	debugSink func(value.Value)

	// clock backs the `now` builtin; nil means "use the wall clock".
	clock func() float64

	// lineCounter is shared (via pointer) across the whole scope tree
	// rooted at whichever Env first called New, so every descendant scope
	// observes the same running count of documents pulled via NextInput.
	lineCounter *int
}

// New creates a fresh root environment with no bindings.
func New() *Env {
	n := 0
	return &Env{lineCounter: &n}
}

// WithVar returns a child scope in which $name is bound to v, shadowing
// any outer binding of the same name.
func (e *Env) WithVar(name string, v value.Value) *Env {
	return &Env{parent: e, varName: name, varVal: v, hasVar: true}
}

// WithFunc returns a child scope in which def is visible by
// (def.Name, len(def.Params)), shadowing any outer definition at the same
// name and arity.
func (e *Env) WithFunc(def *ast.FuncDef) *Env {
	return &Env{parent: e, funcKey: funcKey{name: def.Name, arity: len(def.Params)}, funcDef: def, hasFunc: true}
}

// LookupVar searches this scope and its ancestors for $name.
func (e *Env) LookupVar(name string) (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.hasVar && cur.varName == name {
			return cur.varVal, true
		}
	}
	return value.Null, false
}

// LookupFunc searches this scope and its ancestors for a user-defined
// filter at (name, arity).
func (e *Env) LookupFunc(name string, arity int) (*ast.FuncDef, *Env, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.hasFunc && cur.funcKey.name == name && cur.funcKey.arity == arity {
			// A function body is evaluated in the scope where it was
			// defined (plus its own arguments), not the caller's scope --
			// cur itself (including its own ancestors) is exactly that
			// definition-site scope, since WithFunc is called on it.
			return cur.funcDef, cur, true
		}
	}
	return nil, nil, false
}

// SetInputSource installs the driver seam on this scope; NextInput on it
// or on any descendant scope finds it. It should be called once, on the
// Env passed to the top-level query evaluation.
func (e *Env) SetInputSource(src func() (value.Value, bool)) {
	e.inputSource = src
}

// NextInput pulls the next extra document from the installed input
// source, walking up to whichever ancestor scope carries it. It returns
// (Null, false) if no source was installed, matching spec.md §9's "both
// yield empty/Null" default when no driver is present.
func (e *Env) NextInput() (value.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.inputSource != nil {
			v, ok := cur.inputSource()
			if ok {
				if lc := e.lineCounterRef(); lc != nil {
					*lc++
				}
			}
			return v, ok
		}
	}
	return value.Null, false
}

func (e *Env) lineCounterRef() *int {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.lineCounter != nil {
			return cur.lineCounter
		}
	}
	return nil
}

// InputLineNumber returns the number of extra documents pulled via
// NextInput so far, backing the `input_line_number` builtin.
func (e *Env) InputLineNumber() int {
	if lc := e.lineCounterRef(); lc != nil {
		return *lc
	}
	return 0
}

// SetDebugSink installs the sink `debug`/`stderr` write to.
func (e *Env) SetDebugSink(fn func(value.Value)) { e.debugSink = fn }

// Debug routes v to the installed debug sink, or to stderr as compact
// JSON if none was installed.
func (e *Env) Debug(v value.Value) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.debugSink != nil {
			cur.debugSink(v)
			return
		}
	}
	fmt.Fprintln(os.Stderr, value.ToJSON(v, ""))
}

// SetClock installs the function `now` reads from.
func (e *Env) SetClock(fn func() float64) { e.clock = fn }

// Clock returns the current time, in epoch seconds, for the `now`
// builtin -- the installed clock if one was set, or the wall clock.
func (e *Env) Clock() float64 {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.clock != nil {
			return cur.clock()
		}
	}
	return float64(time.Now().UnixNano()) / 1e9
}

var processEnvOnce sync.Once
var processEnvValue value.Value

// ProcessEnv builds the Value exposed by the `env` builtin and the
// special `$ENV` variable: an object mapping each process environment
// variable name to its string value.
func ProcessEnv() value.Value {
	processEnvOnce.Do(func() {
		result := value.EmptyObject()
		for _, kv := range os.Environ() {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			result = result.Set(parts[0], value.String(parts[1]))
		}
		processEnvValue = result
	})
	return processEnvValue
}
