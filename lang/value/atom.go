package value

import "fmt"

// Atom is a mutable reference cell with atomic compare-and-set semantics.
// Because the VM is single-threaded cooperative, CompareAndSet needs no
// actual synchronization; it exists to preserve the language-level contract
// so that code ported from a concurrent host behaves the same.
type Atom struct {
	val Value
}

var _ Value = (*Atom)(nil)

func NewAtom(v Value) *Atom { return &Atom{val: v} }

func (a *Atom) String() string { return fmt.Sprintf("#atom[%s]", Print(a.val)) }
func (a *Atom) Type() string   { return "atom" }
func (a *Atom) Truth() bool    { return true }
func (a *Atom) Tag() Tag       { return TagAtom }

func (a *Atom) Deref() Value { return a.val }

func (a *Atom) Reset(v Value) Value {
	a.val = v
	return v
}

// CompareAndSet sets val to newVal only if the current value equals old
// (structural equality, not identity), returning whether the swap happened.
func (a *Atom) CompareAndSet(old, newVal Value) bool {
	if !Equal(a.val, old) {
		return false
	}
	a.val = newVal
	return true
}

// Swap applies fn to the current value and stores the result, returning it.
func (a *Atom) Swap(fn func(Value) (Value, error)) (Value, error) {
	next, err := fn(a.val)
	if err != nil {
		return nil, err
	}
	a.val = next
	return next, nil
}

// Volatile is a mutable reference cell with no atomicity guarantees at all,
// intended for state that is known never to be observed across a boundary
// that would require a compare-and-set.
type Volatile struct {
	val Value
}

var _ Value = (*Volatile)(nil)

func NewVolatile(v Value) *Volatile { return &Volatile{val: v} }

func (v *Volatile) String() string { return fmt.Sprintf("#volatile[%s]", Print(v.val)) }
func (v *Volatile) Type() string   { return "volatile" }
func (v *Volatile) Truth() bool    { return true }
func (v *Volatile) Tag() Tag       { return TagVolatile }

func (v *Volatile) Deref() Value    { return v.val }
func (v *Volatile) Set(val Value) Value {
	v.val = val
	return val
}
