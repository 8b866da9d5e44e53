package value

import "fmt"

// Ratio, BigInt and BigDecimal preserve the literal text of a numeric
// literal the reader cannot safely fold into Int or Float, per the open
// question in: the textual payload round-trips end to end through
// read, print and the persistence format, and arithmetic on these values
// fails with a typed error rather than silently downgrading to Float.
type Ratio struct{ Text string }
type BigInt struct{ Text string }
type BigDecimal struct{ Text string }

// Regex preserves a #"..." literal's raw pattern text. The core language
// does not ship a regex engine, and no builtin in this module matches
// against a regex value; it is data that round-trips through read, print
// and the persistence format, not something this package interprets.
type Regex struct{ Pattern string }

var (
	_ Value = Ratio{}
	_ Value = BigInt{}
	_ Value = BigDecimal{}
	_ Value = Regex{}
)

func (r Ratio) String() string      { return r.Text }
func (r Ratio) Type() string        { return "ratio" }
func (r Ratio) Truth() bool         { return true }
func (r Ratio) Tag() Tag            { return TagRatio }

func (b BigInt) String() string { return b.Text }
func (b BigInt) Type() string   { return "bigint" }
func (b BigInt) Truth() bool    { return true }
func (b BigInt) Tag() Tag       { return TagBigInt }

func (d BigDecimal) String() string { return d.Text }
func (d BigDecimal) Type() string   { return "bigdec" }
func (d BigDecimal) Truth() bool    { return true }
func (d BigDecimal) Tag() Tag       { return TagBigDecimal }

func (r Regex) String() string { return "#\"" + r.Pattern + "\"" }
func (r Regex) Type() string   { return "regex" }
func (r Regex) Truth() bool    { return true }
func (r Regex) Tag() Tag       { return TagRegex }

// ErrUnsupportedNumeric is returned by arithmetic that would require giving
// Ratio/BigInt/BigDecimal a concrete numeric contract, deliberately deferred
// here in favor of text-preserving round-tripping only.
type ErrUnsupportedNumeric struct {
	Op  string
	Val Value
}

func (e *ErrUnsupportedNumeric) Error() string {
	return fmt.Sprintf("arithmetic on %s literal not supported: %s", e.Val.Type(), e.Op)
}
