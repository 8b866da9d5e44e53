// Package vm implements the stack-based virtual machine that executes
// lang/compiler's fixed-width bytecode. It also defines the
// callable and lazy-seq value kinds (Fn, BuiltinFn, ProtocolFn, MultiFn,
// LazySeq) that lang/value reserves tag space for but cannot itself define,
// since they close over compiler.FnProto and would otherwise invert the
// lang/value -> lang/compiler dependency direction.
package vm

import (
	"fmt"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/gc"
	"github.com/cljcore/cljc/lang/value"
)

// Fn is a closure over a compiled FnProto: the proto's code is shared by
// every closure created from it, while Captures holds this particular
// closure's copy of the values it closed over, frozen at CLOSURE time. Chunk
// is the FnProto's owning Chunk, since CONST/CLOSURE instructions index into
// a Chunk-wide constant pool and proto list shared by every fn nested inside
// one top-level compilation, not into anything private to Proto itself.
type Fn struct {
	Proto    *compiler.FnProto
	Chunk    *compiler.Chunk
	Captures []value.Value

	marked bool
}

var (
	_ value.Value  = (*Fn)(nil)
	_ value.Tagged = (*Fn)(nil)
	_ gc.Markable  = (*Fn)(nil)
)

func (f *Fn) String() string {
	if f.Proto.Name == "" {
		return "#function[anonymous]"
	}
	return fmt.Sprintf("#function[%s]", f.Proto.Name)
}
func (f *Fn) Type() string         { return "function" }
func (f *Fn) Truth() bool          { return true }
func (f *Fn) Tag() value.Tag       { return value.TagFn }
func (f *Fn) CallableName() string { return f.Proto.Name }

func (f *Fn) SetMarked(v bool) { f.marked = v }
func (f *Fn) Marked() bool     { return f.marked }
func (f *Fn) MarkChildren(mark func(gc.Markable)) {
	for _, c := range f.Captures {
		if m, ok := c.(gc.Markable); ok {
			mark(m)
		}
	}
}

// BuiltinFn is a host function exposed to compiled code as an ordinary
// callable value, the way internal/corelib registers clojure.core's
// primitives. It never closes over VM-native heap values of its own (any
// state a builtin needs is either stateless or reached through the Thread
// passed to it), so it does not implement gc.Markable.
type BuiltinFn struct {
	Name string
	Fn   func(th *Thread, args []value.Value) (value.Value, error)
}

var (
	_ value.Value  = (*BuiltinFn)(nil)
	_ value.Tagged = (*BuiltinFn)(nil)
)

func (b *BuiltinFn) String() string       { return fmt.Sprintf("#function[%s]", b.Name) }
func (b *BuiltinFn) Type() string         { return "builtin-function" }
func (b *BuiltinFn) Truth() bool          { return true }
func (b *BuiltinFn) Tag() value.Tag       { return value.TagBuiltinFn }
func (b *BuiltinFn) CallableName() string { return b.Name }

// ProtocolFn is the value bound to a var interned by defprotocol: calling it
// dispatches on the type tag of its first argument. A type-generation-
// counter-backed monomorphic inline cache and a per-object metadata
// extension check would be valid dispatch refinements but are not
// implemented; see DESIGN.md's lang/vm entry for why a plain map lookup is
// an acceptable initial implementation of the same
// dispatch contract.
type ProtocolFn struct {
	ProtoName string
	Method    string

	methods map[string]value.Value // type tag ("vector", "map", ...) -> implementation

	marked bool
}

var (
	_ value.Value  = (*ProtocolFn)(nil)
	_ value.Tagged = (*ProtocolFn)(nil)
	_ gc.Markable  = (*ProtocolFn)(nil)
)

func newProtocolFn(protoName, method string) *ProtocolFn {
	return &ProtocolFn{ProtoName: protoName, Method: method, methods: map[string]value.Value{}}
}

func (p *ProtocolFn) String() string {
	return fmt.Sprintf("#protocol-function[%s/%s]", p.ProtoName, p.Method)
}
func (p *ProtocolFn) Type() string         { return "protocol-function" }
func (p *ProtocolFn) Truth() bool          { return true }
func (p *ProtocolFn) Tag() value.Tag       { return value.TagProtocolFn }
func (p *ProtocolFn) CallableName() string { return p.ProtoName + "/" + p.Method }

func (p *ProtocolFn) SetMarked(v bool) { p.marked = v }
func (p *ProtocolFn) Marked() bool     { return p.marked }
func (p *ProtocolFn) MarkChildren(mark func(gc.Markable)) {
	for _, impl := range p.methods {
		if m, ok := impl.(gc.Markable); ok {
			mark(m)
		}
	}
}

// Extend registers impl as the implementation for typeTag, overwriting any
// prior implementation for that type (a later extend-type form wins, the
// same way a later def replaces a var's root).
func (p *ProtocolFn) Extend(typeTag string, impl value.Value) { p.methods[typeTag] = impl }

// resolve returns the implementation for typeTag, falling back to the
// "Object" catch-all extension if one was registered.
func (p *ProtocolFn) resolve(typeTag string) (value.Value, bool) {
	if impl, ok := p.methods[typeTag]; ok {
		return impl, true
	}
	impl, ok := p.methods["Object"]
	return impl, ok
}

// MultiFn is the value bound to a var interned by defmulti: calling it first
// invokes Dispatch on the call's arguments to compute a dispatch value, then
// looks up the defmethod registered for that value (by structural
// equality), falling back to a ":default" method if present. A two-level
// cache (argument identity, then dispatch value) is simplified here to a
// single dispatch-value cache keyed by the dispatch value's printed form,
// since lang/value's Value is not Go-comparable in general (see
// lang/value/hashbucket.go's own bucketed-by-print-string technique, reused
// here).
type MultiFn struct {
	Name     string
	Dispatch value.Value

	methods map[string]value.Value // printed dispatch value -> method fn

	marked bool
}

var (
	_ value.Value  = (*MultiFn)(nil)
	_ value.Tagged = (*MultiFn)(nil)
	_ gc.Markable  = (*MultiFn)(nil)
)

const defaultDispatchKey = ":default"

func newMultiFn(name string, dispatch value.Value) *MultiFn {
	return &MultiFn{Name: name, Dispatch: dispatch, methods: map[string]value.Value{}}
}

func (m *MultiFn) String() string       { return fmt.Sprintf("#multi-function[%s]", m.Name) }
func (m *MultiFn) Type() string         { return "multi-function" }
func (m *MultiFn) Truth() bool          { return true }
func (m *MultiFn) Tag() value.Tag       { return value.TagMultiFn }
func (m *MultiFn) CallableName() string { return m.Name }

func (m *MultiFn) SetMarked(v bool) { m.marked = v }
func (m *MultiFn) Marked() bool     { return m.marked }
func (m *MultiFn) MarkChildren(mark func(gc.Markable)) {
	if dm, ok := m.Dispatch.(gc.Markable); ok {
		mark(dm)
	}
	for _, impl := range m.methods {
		if im, ok := impl.(gc.Markable); ok {
			mark(im)
		}
	}
}

// Extend registers methodFn for dispatchVal, keyed by structural print form
// since defmethod's dispatch values are ordinary data (keywords, strings,
// vectors of type names for multiple dispatch) rather than Go-comparable
// scalars in general.
func (m *MultiFn) Extend(dispatchVal, methodFn value.Value) {
	m.methods[dispatchKey(dispatchVal)] = methodFn
}

func dispatchKey(v value.Value) string { return value.Print(v) }

// LazySeq wraps a zero-arg FnProto whose body computes the seq's contents on
// first use; the computed value is memoized so repeated realization does
// the work once, matching Clojure's lazy-seq contract.
type LazySeq struct {
	thunk      *Fn
	realized   bool
	value      value.Value
	realizeErr error

	marked bool
}

var (
	_ value.Value  = (*LazySeq)(nil)
	_ value.Tagged = (*LazySeq)(nil)
	_ gc.Markable  = (*LazySeq)(nil)
)

func newLazySeq(thunk *Fn) *LazySeq { return &LazySeq{thunk: thunk} }

func (l *LazySeq) String() string {
	if !l.realized {
		return "#lazy-seq[pending]"
	}
	return value.Print(l.value)
}
func (l *LazySeq) Type() string   { return "lazy-seq" }
func (l *LazySeq) Truth() bool    { return true }
func (l *LazySeq) Tag() value.Tag { return value.TagLazySeq }

func (l *LazySeq) SetMarked(v bool) { l.marked = v }
func (l *LazySeq) Marked() bool     { return l.marked }
func (l *LazySeq) MarkChildren(mark func(gc.Markable)) {
	if l.realized {
		if m, ok := l.value.(gc.Markable); ok {
			mark(m)
		}
		return
	}
	mark(l.thunk)
}

// Force realizes the lazy-seq on first call and caches the result (and any
// error) for every later call.
func (l *LazySeq) Force(th *Thread) (value.Value, error) {
	if l.realized {
		return l.value, l.realizeErr
	}
	v, err := th.callValue(l.thunk, nil)
	l.realized = true
	l.value, l.realizeErr = v, err
	return v, err
}

// typeKey returns the dispatch type tag a protocol/multimethod extend-type
// registration matches against: the same short stable name lang/value's Tag
// already assigns every concrete kind, reused here rather than inventing a
// parallel naming scheme.
func typeKey(v value.Value) string {
	if t, ok := v.(value.Tagged); ok {
		return t.Tag().String()
	}
	return v.Type()
}
