package value

import "strconv"

// Float is a 64-bit IEEE-754 floating point value.
type Float float64

var (
	_ Value   = Float(0)
	_ Ordered = Float(0)
)

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Type() string   { return "float" }
func (f Float) Truth() bool    { return true }
func (f Float) Tag() Tag       { return TagFloat }

func (f Float) Cmp(y Value) (int, error) {
	g := y.(Float)
	switch {
	case f < g:
		return -1, nil
	case f > g:
		return +1, nil
	default:
		return 0, nil
	}
}

// Char is a single Unicode code point.
type Char rune

var _ Value = Char('a')

func (c Char) String() string { return string(rune(c)) }
func (c Char) Type() string   { return "char" }
func (c Char) Truth() bool    { return true }
func (c Char) Tag() Tag       { return TagChar }

func (c Char) Cmp(y Value) (int, error) {
	d := y.(Char)
	return int(c) - int(d), nil
}
