package rules

import (
	"fmt"
	"math"
)

type node interface {
	eval(env Env) (Value, error)
}

type numberNode struct{ v float64 }

func (n numberNode) eval(Env) (Value, error) { return Number(n.v), nil }

type boolNode struct{ v bool }

func (n boolNode) eval(Env) (Value, error) { return Bool(n.v), nil }

type identNode struct {
	name string
	pos  int
}

func (n identNode) eval(env Env) (Value, error) {
	raw, ok := env[n.name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q at offset %d", ErrUnknownName, n.name, n.pos)
	}
	return valueOf(n.name, raw)
}

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval(env Env) (Value, error) {
	v, err := n.x.eval(env)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case "-":
		return Number(-v.Float()), nil
	case "+":
		return Number(v.Float()), nil
	default:
		return Bool(!v.Truthy()), nil
	}
}

type logicNode struct {
	and  bool
	l, r node
}

func (n logicNode) eval(env Env) (Value, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return Value{}, err
	}
	if n.and && !l.Truthy() {
		return Bool(false), nil
	}
	if !n.and && l.Truthy() {
		return Bool(true), nil
	}
	r, err := n.r.eval(env)
	if err != nil {
		return Value{}, err
	}
	return Bool(r.Truthy()), nil
}

type binaryNode struct {
	op   string
	pos  int
	l, r node
}

func (n binaryNode) eval(env Env) (Value, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return Value{}, err
	}
	r, err := n.r.eval(env)
	if err != nil {
		return Value{}, err
	}
	a, b := l.Float(), r.Float()
	switch n.op {
	case "+":
		return Number(a + b), nil
	case "-":
		return Number(a - b), nil
	case "*":
		return Number(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, fmt.Errorf("%w at offset %d", ErrDivisionByZero, n.pos)
		}
		return Number(a / b), nil
	case "%":
		if b == 0 {
			return Value{}, fmt.Errorf("%w at offset %d", ErrDivisionByZero, n.pos)
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return Number(m), nil
	}
	return Value{}, fmt.Errorf("unknown operator %q", n.op)
}

// compareNode evaluates a chain such as a < b <= c pairwise.
type compareNode struct {
	ops      []string
	operands []node
}

func (n compareNode) eval(env Env) (Value, error) {
	left, err := n.operands[0].eval(env)
	if err != nil {
		return Value{}, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(env)
		if err != nil {
			return Value{}, err
		}
		if !compare(op, left.Float(), right.Float()) {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func compare(op string, a, b float64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}
