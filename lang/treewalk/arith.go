package treewalk

import (
	"fmt"
	"math"

	"github.com/cljcore/cljc/lang/value"
)

// numericError mirrors lang/vm/arith.go's own type so a divide/remainder by
// zero becomes a catchable exception value here too, rather than an opaque
// Go error.
type numericError struct{ msg string }

func (e *numericError) Error() string { return e.msg }

func unsupportedNumeric(op string, v value.Value) error {
	switch v.(type) {
	case value.Ratio, value.BigInt, value.BigDecimal:
		return &value.ErrUnsupportedNumeric{Op: op, Val: v}
	}
	return fmt.Errorf("%s: not a number: %s", op, value.Print(v))
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	}
	return 0, false
}

// add, sub and mul promote to Float on 64-bit two's-complement overflow, the
// same rule lang/vm/arith.go implements for the bytecode backend, so the two
// interpreters agree on every well-typed input,.
func add(x, y value.Value) (value.Value, error) {
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
		return nil, unsupportedNumeric("+", x)
	}
	if !yok {
		return nil, unsupportedNumeric("+", y)
	}
	return value.Float(xf + yf), nil
}

func sub(x, y value.Value) (value.Value, error) {
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
		return nil, unsupportedNumeric("-", x)
	}
	if !yok {
		return nil, unsupportedNumeric("-", y)
	}
	return value.Float(xf - yf), nil
}

func mul(x, y value.Value) (value.Value, error) {
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
		return nil, unsupportedNumeric("*", x)
	}
	if !yok {
		return nil, unsupportedNumeric("*", y)
	}
	return value.Float(xf * yf), nil
}

func div(x, y value.Value) (value.Value, error) {
	if xi, ok := x.(value.Int); ok {
		if yi, ok := y.(value.Int); ok {
			if yi == 0 {
				return nil, &numericError{msg: "divide by zero"}
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
		return nil, unsupportedNumeric("/", x)
	}
	if !yok {
		return nil, unsupportedNumeric("/", y)
	}
	if yf == 0 {
		return nil, &numericError{msg: "divide by zero"}
	}
	return value.Float(xf / yf), nil
}

// arithOp dispatches a fused two-arg +/-/*// call to the matching helper,
// mirroring compiler.go's arithmeticOpcode fusion at interpretation time
// instead of at code-emission time.
func arithOp(name string, a, b value.Value) (value.Value, error) {
	switch name {
	case "+":
		return add(a, b)
	case "-":
		return sub(a, b)
	case "*":
		return mul(a, b)
	case "/":
		return div(a, b)
	}
	return nil, fmt.Errorf("arithOp: unknown operator %q", name)
}

// compareTruth mirrors compiler.go's comparisonSelector fusion: NUM_EQ-style
// "=" uses full structural equality, the ordering operators use value.Compare.
func compareTruth(name string, lhs, rhs value.Value) (bool, error) {
	if name == "=" {
		return value.Equal(lhs, rhs), nil
	}
	cmp, err := value.Compare(lhs, rhs)
	if err != nil {
		return false, err
	}
	switch name {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("compareTruth: unknown operator %q", name)
}
