package ast

import (
	"fmt"
	"strings"
)

// Pattern is a destructuring pattern, used by `as`, `reduce`, and
// `foreach` to bind an input value to variables.
type Pattern interface {
	fmt.Stringer
	patternNode()
}

type basePattern struct{}

func (basePattern) patternNode() {}

// VarPattern binds the whole matched value to $Name.
type VarPattern struct {
	basePattern
	Name string
}

func (v VarPattern) String() string { return "$" + v.Name }

// ArrayPattern destructures an array positionally: `[pat, pat, ...]`.
type ArrayPattern struct {
	basePattern
	Elems []Pattern
}

func (a ArrayPattern) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectPatternEntry is one `key: pattern` (or `$name` shorthand, where
// Key evaluates to the string "name" and Pattern is VarPattern{"name"})
// member of an ObjectPattern.
type ObjectPatternEntry struct {
	Key     Expr
	Pattern Pattern
}

// ObjectPattern destructures an object: `{key: pat, ...}`.
type ObjectPattern struct {
	basePattern
	Entries []ObjectPatternEntry
}

func (o ObjectPattern) String() string {
	parts := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		parts[i] = fmt.Sprintf("%s: %s", e.Key, e.Pattern)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Variables returns every variable name bound anywhere in the pattern, in
// left-to-right order, used to pre-bind all pattern variables to Null
// before a failed match partially populates some of them (matching jq's
// "all pattern variables are always in scope" behavior).
func Variables(p Pattern) []string {
	var names []string
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch pt := p.(type) {
		case VarPattern:
			names = append(names, pt.Name)
		case ArrayPattern:
			for _, e := range pt.Elems {
				walk(e)
			}
		case ObjectPattern:
			for _, e := range pt.Entries {
				walk(e.Pattern)
			}
		}
	}
	walk(p)
	return names
}
