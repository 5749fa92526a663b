// Package rules implements the small boolean expression language used by
// achievement conditions and report recommendations.
//
// Expressions may use numbers, true/false, identifiers bound in an Env,
// arithmetic (+ - * / %), comparisons (== != < <= > >=, chainable) and
// boolean operators in either spelling (and/or/not, &&/||/!). Calls,
// attribute access, indexing and string literals are rejected at compile
// time, so an expression can only read the values it is handed.
package rules

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownName is returned when an expression reads an identifier
	// that is not bound in the environment.
	ErrUnknownName = errors.New("unknown name")

	// ErrDivisionByZero is returned by / and % with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrBadValue is returned when an environment value is not a number
	// or boolean.
	ErrBadValue = errors.New("unsupported value type")
)

// SyntaxError reports a malformed or disallowed expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Env binds identifiers to values. Supported value types are bool and
// the built-in integer and float types.
type Env map[string]any

// Value is the result of evaluating an expression.
type Value struct {
	num    float64
	b      bool
	isBool bool
}

// Number wraps a numeric value.
func Number(f float64) Value { return Value{num: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{b: b, isBool: true} }

// Float returns v as a number; true is 1 and false is 0.
func (v Value) Float() float64 {
	if v.isBool {
		if v.b {
			return 1
		}
		return 0
	}
	return v.num
}

// Truthy reports whether v counts as true: a true boolean or a non-zero number.
func (v Value) Truthy() bool {
	if v.isBool {
		return v.b
	}
	return v.num != 0
}

func (v Value) String() string {
	if v.isBool {
		return fmt.Sprint(v.b)
	}
	return fmt.Sprint(v.num)
}

func valueOf(name string, raw any) (Value, error) {
	switch x := raw.(type) {
	case bool:
		return Bool(x), nil
	case int:
		return Number(float64(x)), nil
	case int8:
		return Number(float64(x)), nil
	case int16:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	}
	return Value{}, fmt.Errorf("%w: %s is %T", ErrBadValue, name, raw)
}

// Expr is a compiled expression. It is immutable and safe for concurrent use.
type Expr struct {
	src   string
	root  node
	names []string
}

// Compile parses src.
func Compile(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, names: map[string]struct{}{}}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(p.names))
	for n := range p.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return &Expr{src: src, root: root, names: names}, nil
}

func (e *Expr) String() string { return e.src }

// Names returns the identifiers the expression reads, sorted.
func (e *Expr) Names() []string { return e.names }

// Eval evaluates the expression against env.
func (e *Expr) Eval(env Env) (Value, error) {
	return e.root.eval(env)
}

// Test evaluates the expression and reports its truthiness.
func (e *Expr) Test(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// Check reports identifiers read by e that are missing from known.
func (e *Expr) Check(known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var missing []string
	for _, n := range e.names {
		if _, ok := set[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Test compiles and evaluates src in one step. Any error means the
// condition does not hold.
func Test(src string, env Env) (bool, error) {
	e, err := Compile(src)
	if err != nil {
		return false, err
	}
	return e.Test(env)
}
