package vm

import (
	"fmt"
	"math"

	"github.com/cljcore/cljc/lang/value"
)

// numericError lets arith helpers surface a raisable condition instead of a
// bare Go error, since division and remainder by zero must produce a
// catchable exception value like any other runtime failure.
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

// add, sub and mul promote to Float on 64-bit two's-complement overflow,
//, resolution of arithmetic overflow behaviour; Ratio, BigInt
// and BigDecimal operands are not arithmetic types (see lang/value/bignum.go)
// and always fail with ErrUnsupportedNumeric.
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

// div promotes integer division to Float whenever the dividend is not a
// multiple of the divisor, since value.Ratio is text-preserving only and
// cannot represent the exact quotient.
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
