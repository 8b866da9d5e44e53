// Package analyzer lowers Form to Node, resolving lexical references
// against a scope stack and dispatching the fixed table of special forms.
// Every other head symbol becomes a call.
package analyzer

import (
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/token"
	"github.com/cljcore/cljc/lang/value"
)

// Kind discriminates the shape of a Node, mirroring how reader.Form is one
// flat struct rather than a type-switch hierarchy: the compiler's single
// emit function dispatches on Kind much like the reader dispatches on rune.
type Kind uint8

const (
	KConst Kind = iota
	KLocalRef
	KVarRef
	KIf
	KDo
	KLet
	KLoop
	KFn
	KRecur
	KDef
	KThrow
	KTry
	KSetBang
	KCall
	KDefMulti
	KDefMethod
	KDefProtocol
	KExtendType
	KCollection
)

// Binding is one name introduced by let, loop, a fn parameter, or a catch
// clause. ID is unique within one Analyzer so the compiler can tell two
// same-named bindings (shadowing) apart, and so it can tell whether a given
// LocalRef crosses a function boundary (and therefore needs to be captured)
// by comparing the binding's OwnerFn to the compiling FnNode.
type Binding struct {
	ID      int
	Name    string
	Pos     token.Pos
	OwnerFn *Node // the KFn that directly encloses this binding; nil outside any fn
}

// CatchClause is try's at-most-one catch,.
type CatchClause struct {
	ExceptionType string // constant type-tag string matched against __ex_type; "" means catch-all (also "_" and "Exception" in source)
	Binding       *Binding
	Body          *Node
}

// FnArity is one arity of a (possibly multi-arity) fn.
type FnArity struct {
	Params   []*Binding
	Variadic bool // last Param collects excess args as a list
	Body     *Node
}

// Node is one analyzed form. Only the fields relevant to Kind are populated.
type Node struct {
	Kind Kind
	Pos  token.Pos

	// KConst
	Const value.Value

	// KLocalRef
	Local *Binding

	// KVarRef, KDef; Name also holds the KDefMulti and KDefProtocol name
	Ns, Name string

	// KIf
	Test, Then, Else *Node

	// KDo, KCall (Head+Args), KRecur (Args are recur's new values)
	Head  *Node
	Elems []*Node

	// KLet, KLoop
	Bindings []*Binding
	Inits    []*Node
	Body     *Node
	// KLoop: this loop's identity, under which the compiler records
	// recur_loop's base slot and header address. KRecur: the target loop's
	// LoopID, or -1 for the enclosing fn arity's own params.
	LoopID int

	// KFn
	Self       *Binding // non-nil for named fns, usable inside the body
	Arities    []FnArity
	FnID       int // unique per Analyzer; Binding.OwnerFn comparisons use the *Node pointer, not FnID
	Captures   []*Binding
	IsVariadicDispatch bool

	// KDef
	DefFlags  value.VarFlags
	Doc       string
	Arglists  string
	Init      *Node

	// KThrow
	Throw *Node

	// KTry
	TryBody *Node
	Catch   *CatchClause
	Finally *Node

	// KSetBang
	Target *Node // KLocalRef or KVarRef
	Value  *Node

	// KDefMulti
	DispatchFn *Node

	// KDefMethod
	MultiName   string
	DispatchVal *Node
	MethodFn    *Node

	// KDefProtocol
	ProtocolMethods []string

	// KExtendType
	TypeTag       string
	ProtocolName  string
	ExtendMethods map[string]*Node

	// KCollection: a vector/map/set literal with at least one non-constant
	// element, so it must be built at runtime rather than folded to KConst.
	// Elems holds the analyzed elements (map: flat key0,val0,key1,val1,...).
	CollKind reader.Kind
}
