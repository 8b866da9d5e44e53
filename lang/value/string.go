package value

import "strconv"

// String is an immutable UTF-8 string value.
type String string

var (
	_ Value   = String("")
	_ Ordered = String("")
	_ Counted = String("")
)

func (s String) String() string { return string(s) }
func (s String) Type() string   { return "string" }
func (s String) Truth() bool    { return true }
func (s String) Tag() Tag       { return TagString }
func (s String) Count() int     { return len([]rune(string(s))) }

func (s String) Cmp(y Value) (int, error) {
	t := y.(String)
	switch {
	case s < t:
		return -1, nil
	case s > t:
		return +1, nil
	default:
		return 0, nil
	}
}

// Quote returns the pr-str-style double-quoted, escaped representation,
// e.g. for printing a String nested inside a collection.
func (s String) Quote() string { return strconv.Quote(string(s)) }
