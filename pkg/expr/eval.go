package expr

import (
	"errors"
	"fmt"
	"math"
)

// Eval evaluates the program against env. Runtime failures, including
// panics raised by called functions, are returned as *EvalError.
func (p *Program) Eval(env Env) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &EvalError{Source: p.Source, Msg: fmt.Sprintf("panic: %v", r)}
		}
	}()
	ev := &evaluator{src: p.Source, env: env}
	return ev.eval(p.Root)
}

// Eval parses and evaluates src in one step.
func Eval(src string, env Env) (any, error) {
	p, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return p.Eval(env)
}

type evaluator struct {
	src string
	env Env
}

func (ev *evaluator) fail(n Node, err error) error {
	var ee *EvalError
	if errors.As(err, &ee) {
		return err
	}
	return &EvalError{Source: ev.src, Pos: n.Pos(), Err: err}
}

func (ev *evaluator) failf(n Node, format string, args ...any) error {
	return &EvalError{Source: ev.src, Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

func (ev *evaluator) eval(n Node) (any, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		if ev.env == nil {
			return nil, ev.failf(n, "%s is not defined", n.Name)
		}
		v, ok := ev.env.Lookup(n.Name)
		if !ok {
			return nil, ev.failf(n, "%s is not defined", n.Name)
		}
		return v, nil

	case *Member:
		x, err := ev.eval(n.X)
		if err != nil {
			return nil, err
		}
		v, err := getMember(x, n.Name)
		if err != nil {
			return nil, ev.fail(n, err)
		}
		return v, nil

	case *Index:
		x, err := ev.eval(n.X)
		if err != nil {
			return nil, err
		}
		key, err := ev.eval(n.Index)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, ev.failf(n, "cannot read property %q of null", ToString(key))
		}
		v, err := getIndex(x, key)
		if err != nil {
			return nil, ev.fail(n, err)
		}
		return v, nil

	case *Call:
		fn, err := ev.eval(n.Fn)
		if err != nil {
			return nil, err
		}
		if fn == nil {
			return nil, ev.failf(n, "%s is not a function", n.Fn)
		}
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = ev.eval(a); err != nil {
				return nil, err
			}
		}
		v, err := call(fn, args)
		if err != nil {
			return nil, ev.fail(n, err)
		}
		return v, nil

	case *Unary:
		x, err := ev.eval(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "!":
			return !Truthy(x), nil
		case "-":
			return -ToNumber(x), nil
		default:
			return ToNumber(x), nil
		}

	case *Binary:
		return ev.binary(n)

	case *Cond:
		test, err := ev.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if Truthy(test) {
			return ev.eval(n.Then)
		}
		return ev.eval(n.Else)

	case *Assign:
		value, err := ev.eval(n.Value)
		if err != nil {
			return nil, err
		}
		if n.Op != "=" {
			cur, err := ev.eval(n.Target)
			if err != nil {
				return nil, err
			}
			if value, err = arith(n.Op[:1], cur, value); err != nil {
				return nil, ev.fail(n, err)
			}
		}
		if err := ev.store(n.Target, value); err != nil {
			return nil, err
		}
		return value, nil

	case *Update:
		cur, err := ev.eval(n.Target)
		if err != nil {
			return nil, err
		}
		old := ToNumber(cur)
		next := old + 1
		if n.Op == "--" {
			next = old - 1
		}
		if err := ev.store(n.Target, next); err != nil {
			return nil, err
		}
		if n.Prefix {
			return next, nil
		}
		return old, nil

	case *Seq:
		var last any
		for _, e := range n.List {
			v, err := ev.eval(e)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	}
	return nil, fmt.Errorf("expr: unknown node %T", n)
}

func (ev *evaluator) binary(n *Binary) (any, error) {
	l, err := ev.eval(n.L)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "&&":
		if !Truthy(l) {
			return l, nil
		}
		return ev.eval(n.R)
	case "||":
		if Truthy(l) {
			return l, nil
		}
		return ev.eval(n.R)
	case "??":
		if l != nil {
			return l, nil
		}
		return ev.eval(n.R)
	}

	r, err := ev.eval(n.R)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "==", "===":
		return Equal(l, r), nil
	case "!=", "!==":
		return !Equal(l, r), nil
	case "<", ">", "<=", ">=":
		return compare(n.Op, l, r), nil
	}
	v, err := arith(n.Op, l, r)
	if err != nil {
		return nil, ev.fail(n, err)
	}
	return v, nil
}

// store writes value to an assignable target.
func (ev *evaluator) store(target Node, value any) error {
	switch t := target.(type) {
	case *Ident:
		if ev.env == nil {
			return ev.failf(t, "%s is not defined", t.Name)
		}
		if err := ev.env.Assign(t.Name, value); err != nil {
			return ev.fail(t, err)
		}
		return nil
	case *Member:
		x, err := ev.eval(t.X)
		if err != nil {
			return err
		}
		if err := setMember(x, t.Name, value); err != nil {
			return ev.fail(t, err)
		}
		return nil
	case *Index:
		x, err := ev.eval(t.X)
		if err != nil {
			return err
		}
		key, err := ev.eval(t.Index)
		if err != nil {
			return err
		}
		if err := setIndex(x, key, value); err != nil {
			return ev.fail(t, err)
		}
		return nil
	}
	return ev.failf(target, "invalid assignment target %s", target)
}

func arith(op string, l, r any) (any, error) {
	if op == "+" {
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return ToString(l) + ToString(r), nil
		}
	}
	a, b := ToNumber(l), ToNumber(r)
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "%":
		return math.Mod(a, b), nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func compare(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		default:
			return ls >= rs
		}
	}
	a, b := ToNumber(l), ToNumber(r)
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	default:
		return a >= b
	}
}
