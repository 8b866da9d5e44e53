package value

import "fmt"

// Equal implements the structural equality contract from: //   - numeric cross-equality: an Int equals a Float exactly representing it.
//   - sequential equality: List and Vector compare by element sequence,
//     cross-type (a List and a Vector with the same elements are equal).
//   - map equality is order-independent over key/value pairs.
//   - set equality is order-independent over elements.
//   - everything else falls back to same-type structural comparison.
func Equal(x, y Value) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}

	switch a := x.(type) {
	case NilType:
		_, ok := y.(NilType)
		return ok
	case Bool:
		b, ok := y.(Bool)
		return ok && a == b
	case Int:
		switch b := y.(type) {
		case Int:
			return a == b
		case Float:
			return Float(a) == b
		}
		return false
	case Float:
		switch b := y.(type) {
		case Float:
			return a == b
		case Int:
			return a == Float(b)
		}
		return false
	case Char:
		b, ok := y.(Char)
		return ok && a == b
	case String:
		b, ok := y.(String)
		return ok && a == b
	case Symbol:
		b, ok := y.(Symbol)
		return ok && a == b
	case Keyword:
		b, ok := y.(Keyword)
		return ok && a == b
	case Ratio:
		b, ok := y.(Ratio)
		return ok && a.Text == b.Text
	case BigInt:
		b, ok := y.(BigInt)
		return ok && a.Text == b.Text
	case BigDecimal:
		b, ok := y.(BigDecimal)
		return ok && a.Text == b.Text
	case Regex:
		b, ok := y.(Regex)
		return ok && a.Pattern == b.Pattern
	}

	if as, aok := asSequential(x); aok {
		if bs, bok := asSequential(y); bok {
			return equalSeq(as, bs)
		}
		return false
	}

	if am, aok := x.(*ArrayMap); aok {
		bm, bok := y.(*ArrayMap)
		if !bok || am.Count() != bm.Count() {
			return false
		}
		for _, e := range am.Items() {
			bv, found := bm.Get(e[0])
			if !found || !Equal(e[1], bv) {
				return false
			}
		}
		return true
	}

	if as, aok := x.(*Set); aok {
		bs, bok := y.(*Set)
		if !bok || as.Count() != bs.Count() {
			return false
		}
		for _, e := range as.Seq() {
			if !bs.Has(e) {
				return false
			}
		}
		return true
	}

	// Reference kinds (Var, Atom, Volatile) and any callable kind defined
	// outside this package compare by identity.
	return x == y
}

func asSequential(v Value) ([]Value, bool) {
	switch t := v.(type) {
	case *List:
		return t.Seq(), true
	case *Vector:
		return t.Seq(), true
	}
	return nil, false
}

func equalSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Less reports whether x < y for two Ordered values of compatible type,
// promoting Int/Float pairs to Float the way Equal does for equality.
func Less(x, y Value) (bool, error) {
	c, err := compareOrdered(x, y)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

func compareOrdered(x, y Value) (int, error) {
	switch a := x.(type) {
	case Int:
		switch b := y.(type) {
		case Int:
			return a.Cmp(b)
		case Float:
			return Float(a).Cmp(b)
		}
	case Float:
		switch b := y.(type) {
		case Float:
			return a.Cmp(b)
		case Int:
			return a.Cmp(Float(b))
		}
	}
	ox, ok := x.(Ordered)
	if !ok {
		return 0, fmt.Errorf("value of type %s is not ordered", x.Type())
	}
	oy, ok := y.(Ordered)
	if !ok || x.Type() != y.Type() {
		return 0, fmt.Errorf("cannot compare %s and %s", x.Type(), y.Type())
	}
	return ox.Cmp(oy)
}

// Compare is the general-purpose three-way comparison used by the VM's
// LT/LE/GT/GE opcodes.
func Compare(x, y Value) (int, error) { return compareOrdered(x, y) }

// Truth reports v's truthiness: only Nil and Bool(false) are
// falsy.
func Truth(v Value) bool {
	if v == nil {
		return false
	}
	return v.Truth()
}
