package corelib

import (
	"fmt"
	"math"

	"github.com/cljcore/cljc/lang/value"
)

// numAdd, numSub, numMul and numDiv duplicate lang/vm/arith.go's
// int-overflow-promotes-to-float behaviour rather than importing it: this
// package stays ignorant of lang/vm everywhere except Install (see that
// file's doc comment), and these are only ever reached for the call shapes
// the compiler and the tree-walk evaluator do not fuse, so the duplication
// buys architectural separation rather than speed.
func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	}
	return 0, false
}

func numAdd(x, y value.Value) (value.Value, error) {
	if xi, ok := x.(value.Int); ok {
		if yi, ok := y.(value.Int); ok {
			sum := xi + yi
			if (sum > xi) == (yi > 0) || yi == 0 {
				return sum, nil
			}
			return value.Float(xi) + value.Float(yi), nil
		}
	}
	xf, xok := asFloat(x)
	yf, yok := asFloat(y)
	if !xok {
		return nil, fmt.Errorf("+: not a number: %s", value.Print(x))
	}
	if !yok {
		return nil, fmt.Errorf("+: not a number: %s", value.Print(y))
	}
	return value.Float(xf + yf), nil
}

func numSub(x, y value.Value) (value.Value, error) {
	if xi, ok := x.(value.Int); ok {
		if yi, ok := y.(value.Int); ok {
			diff := xi - yi
			if (diff < xi) == (yi > 0) || yi == 0 {
				return diff, nil
			}
			return value.Float(xi) - value.Float(yi), nil
		}
	}
	xf, xok := asFloat(x)
	yf, yok := asFloat(y)
	if !xok {
		return nil, fmt.Errorf("-: not a number: %s", value.Print(x))
	}
	if !yok {
		return nil, fmt.Errorf("-: not a number: %s", value.Print(y))
	}
	return value.Float(xf - yf), nil
}

func numMul(x, y value.Value) (value.Value, error) {
	if xi, ok := x.(value.Int); ok {
		if yi, ok := y.(value.Int); ok {
			if xi == 0 || yi == 0 {
				return value.Int(0), nil
			}
			prod := xi * yi
			if prod/yi == xi && !(xi == -1 && yi == math.MinInt64) {
				return prod, nil
			}
			return value.Float(xi) * value.Float(yi), nil
		}
	}
	xf, xok := asFloat(x)
	yf, yok := asFloat(y)
	if !xok {
		return nil, fmt.Errorf("*: not a number: %s", value.Print(x))
	}
	if !yok {
		return nil, fmt.Errorf("*: not a number: %s", value.Print(y))
	}
	return value.Float(xf * yf), nil
}

func numDiv(x, y value.Value) (value.Value, error) {
	if xi, ok := x.(value.Int); ok {
		if yi, ok := y.(value.Int); ok {
			if yi == 0 {
				return nil, fmt.Errorf("/: divide by zero")
			}
			if xi%yi == 0 && !(xi == math.MinInt64 && yi == -1) {
				return xi / yi, nil
			}
			return value.Float(xi) / value.Float(yi), nil
		}
	}
	xf, xok := asFloat(x)
	yf, yok := asFloat(y)
	if !xok {
		return nil, fmt.Errorf("/: not a number: %s", value.Print(x))
	}
	if !yok {
		return nil, fmt.Errorf("/: not a number: %s", value.Print(y))
	}
	if yf == 0 {
		return nil, fmt.Errorf("/: divide by zero")
	}
	return value.Float(xf / yf), nil
}

// plus folds left to right over args: the empty sum is 0 and a single
// argument passes through unchanged (after a numeric check), matching
// clojure.core's (+), (+ x) and (+ x y z ...) arities.
func plus(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(0), nil
	}
	acc := args[0]
	if _, ok := asFloat(acc); !ok {
		return nil, fmt.Errorf("+: not a number: %s", value.Print(acc))
	}
	var err error
	for _, a := range args[1:] {
		if acc, err = numAdd(acc, a); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// minus requires at least one argument: a single argument negates it (0 -
// x), two or more fold left to right.
func minus(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("-: requires at least 1 argument")
	}
	if len(args) == 1 {
		return numSub(value.Int(0), args[0])
	}
	acc := args[0]
	var err error
	for _, a := range args[1:] {
		if acc, err = numSub(acc, a); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// multiply folds left to right over args: the empty product is 1 and a
// single argument passes through unchanged.
func multiply(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(1), nil
	}
	acc := args[0]
	if _, ok := asFloat(acc); !ok {
		return nil, fmt.Errorf("*: not a number: %s", value.Print(acc))
	}
	var err error
	for _, a := range args[1:] {
		if acc, err = numMul(acc, a); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// divide requires at least one argument: a single argument inverts it
// (1.0 / x, always promoting to float), two or more fold left to right.
func divide(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("/: requires at least 1 argument")
	}
	if len(args) == 1 {
		return numDiv(value.Float(1), args[0])
	}
	acc := args[0]
	var err error
	for _, a := range args[1:] {
		if acc, err = numDiv(acc, a); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// modFn implements 2-argument mod: floored modulo, taking the sign of the
// divisor, unlike rem's truncated remainder.
func modFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("mod expects 2 arguments, got %d", len(args))
	}
	if xi, ok := args[0].(value.Int); ok {
		if yi, ok := args[1].(value.Int); ok {
			if yi == 0 {
				return nil, fmt.Errorf("mod: divide by zero")
			}
			r := xi % yi
			if r != 0 && (r < 0) != (yi < 0) {
				r += yi
			}
			return r, nil
		}
	}
	xf, xok := asFloat(args[0])
	yf, yok := asFloat(args[1])
	if !xok {
		return nil, fmt.Errorf("mod: not a number: %s", value.Print(args[0]))
	}
	if !yok {
		return nil, fmt.Errorf("mod: not a number: %s", value.Print(args[1]))
	}
	if yf == 0 {
		return nil, fmt.Errorf("mod: divide by zero")
	}
	r := math.Mod(xf, yf)
	if r != 0 && (r < 0) != (yf < 0) {
		r += yf
	}
	return value.Float(r), nil
}

// remFn implements 2-argument rem: truncated remainder, taking the sign of
// the dividend.
func remFn(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("rem expects 2 arguments, got %d", len(args))
	}
	if xi, ok := args[0].(value.Int); ok {
		if yi, ok := args[1].(value.Int); ok {
			if yi == 0 {
				return nil, fmt.Errorf("rem: divide by zero")
			}
			return xi % yi, nil
		}
	}
	xf, xok := asFloat(args[0])
	yf, yok := asFloat(args[1])
	if !xok {
		return nil, fmt.Errorf("rem: not a number: %s", value.Print(args[0]))
	}
	if !yok {
		return nil, fmt.Errorf("rem: not a number: %s", value.Print(args[1]))
	}
	if yf == 0 {
		return nil, fmt.Errorf("rem: divide by zero")
	}
	return value.Float(math.Mod(xf, yf)), nil
}

// cmpChain requires at least one argument and reports whether every
// adjacent pair in args satisfies ok, short-circuiting on the first pair
// that does not, mirroring clojure.core's variadic </<=/>/>= chaining
// ((< a b c) is (and (< a b) (< b c))).
func cmpChain(name string, args []value.Value, ok func(c int) bool) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: requires at least 1 argument", name)
	}
	for i := 1; i < len(args); i++ {
		c, err := value.Compare(args[i-1], args[i])
		if err != nil {
			return nil, err
		}
		if !ok(c) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func lt(args []value.Value) (value.Value, error) {
	return cmpChain("<", args, func(c int) bool { return c < 0 })
}

func le(args []value.Value) (value.Value, error) {
	return cmpChain("<=", args, func(c int) bool { return c <= 0 })
}

func gt(args []value.Value) (value.Value, error) {
	return cmpChain(">", args, func(c int) bool { return c > 0 })
}

func ge(args []value.Value) (value.Value, error) {
	return cmpChain(">=", args, func(c int) bool { return c >= 0 })
}
