package value

// NilType is the type of the single Nil value.
type NilType struct{}

// Nil is the sole instance of NilType, and the only other falsy value
// besides Bool(false).
var Nil = NilType{}

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }
func (NilType) Truth() bool    { return false }
func (NilType) Tag() Tag       { return TagNil }
