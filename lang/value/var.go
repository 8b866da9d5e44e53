package value

import "fmt"

// VarFlags records the boolean attributes attached to a Var by def/defmacro
// and metadata.
type VarFlags uint8

const (
	FlagDynamic VarFlags = 1 << iota
	FlagMacro
	FlagPrivate
	FlagConst
)

func (f VarFlags) Has(flag VarFlags) bool { return f&flag != 0 }

// Var is a named, namespaced reference cell. It is itself a first-class
// Value (tag 0x0D, "var ref" in the persistence format) so that (var x) and
// deref work uniformly through the VM's value model.
//
// The per-thread binding stack is a plain LIFO slice rather than a
// goroutine-keyed map: the runtime is single-threaded cooperative, so
// "per-thread" collapses to "the one active thread's" stack.
type Var struct {
	Ns   string
	Name string

	root Value
	flags VarFlags

	Doc      string
	Arglists string
	Meta     *ArrayMap

	bindingStack []Value
}

var _ Value = (*Var)(nil)

// NewVar creates an unbound var (root is Nil) in the given namespace.
func NewVar(ns, name string) *Var {
	return &Var{Ns: ns, Name: name, root: Nil, Meta: EmptyMap}
}

func (v *Var) String() string { return fmt.Sprintf("#'%s/%s", v.Ns, v.Name) }
func (v *Var) Type() string   { return "var" }
func (v *Var) Truth() bool    { return true }
func (v *Var) Tag() Tag       { return TagVar }

// Deref returns the currently visible value: the top of the binding stack if
// non-empty, else the root value.
func (v *Var) Deref() Value {
	if n := len(v.bindingStack); n > 0 {
		return v.bindingStack[n-1]
	}
	return v.root
}

// BindRoot sets the var's root value; always legal regardless of flags.
func (v *Var) BindRoot(val Value) { v.root = val }

// Root returns the var's root value, ignoring any dynamic binding.
func (v *Var) Root() Value { return v.root }

// PushBinding pushes a new per-thread dynamic binding. The caller is
// responsible for checking FlagDynamic before calling this; pushing onto a
// non-dynamic var is a logic error the analyzer/VM should reject earlier.
func (v *Var) PushBinding(val Value) { v.bindingStack = append(v.bindingStack, val) }

// PopBinding pops the most recent dynamic binding. It panics if the stack is
// empty, since a well-formed program only pops what it pushed.
func (v *Var) PopBinding() {
	n := len(v.bindingStack)
	if n == 0 {
		panic("value: PopBinding on var with no active binding")
	}
	v.bindingStack = v.bindingStack[:n-1]
}

// SetDynamicBinding replaces the innermost dynamic binding's value (set!
// semantics); it panics if there is no active binding.
func (v *Var) SetDynamicBinding(val Value) {
	n := len(v.bindingStack)
	if n == 0 {
		panic("value: SetDynamicBinding on var with no active binding")
	}
	v.bindingStack[n-1] = val
}

// IsBound reports whether a per-thread binding is currently in effect.
func (v *Var) IsBound() bool { return len(v.bindingStack) > 0 }

func (v *Var) Flags() VarFlags    { return v.flags }
func (v *Var) SetFlags(f VarFlags) { v.flags = f }
func (v *Var) SetMacro()          { v.flags |= FlagMacro }
func (v *Var) IsMacro() bool      { return v.flags.Has(FlagMacro) }
func (v *Var) IsDynamic() bool    { return v.flags.Has(FlagDynamic) }
func (v *Var) IsPrivate() bool    { return v.flags.Has(FlagPrivate) }
func (v *Var) IsConst() bool      { return v.flags.Has(FlagConst) }
