// Package treewalk implements the tree-walk evaluator: a second,
// independent interpreter over lang/analyzer's Node tree, sharing the
// reader, analyzer, environment and Value model with lang/vm but never
// importing lang/vm itself. The two backends are kept deliberately separate
// (rather than sharing one set of callable/exception types) so that compare
// mode actually exercises two distinct implementations of the same
// semantics instead of one implementation viewed two ways.
package treewalk

import (
	"fmt"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/value"
)

// Closure is a tree-walk fn value: the same Tag (and so the same protocol/
// multimethod dispatch contract) as lang/vm's Fn, but backed by the
// analyzed Node plus the live lexical frame it closed over instead of a
// compiled FnProto and a frozen Captures array. Same shape, different
// backing-field interpretation.
type Closure struct {
	Node     *analyzer.Node
	Captured *frame
}

var (
	_ value.Value  = (*Closure)(nil)
	_ value.Tagged = (*Closure)(nil)
)

func (c *Closure) String() string {
	if c.Node.Self == nil {
		return "#function[anonymous]"
	}
	return fmt.Sprintf("#function[%s]", c.Node.Self.Name)
}
func (c *Closure) Type() string   { return "function" }
func (c *Closure) Truth() bool    { return true }
func (c *Closure) Tag() value.Tag { return value.TagFn }
func (c *Closure) CallableName() string {
	if c.Node.Self == nil {
		return "fn"
	}
	return c.Node.Self.Name
}

// BuiltinFn is a host function exposed to analyzed code, the tree-walk
// counterpart of lang/vm's BuiltinFn. It is thread-less (there is no
// lang/vm.Thread in this backend), matching internal/corelib's
// BuiltinFunc contract directly.
type BuiltinFn struct {
	Name string
	Fn   func(args []value.Value) (value.Value, error)
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

// ProtocolFn is the tree-walk counterpart of lang/vm's ProtocolFn: calling
// it dispatches on the type tag of its first argument.
type ProtocolFn struct {
	ProtoName string
	Method    string

	methods map[string]value.Value
}

var (
	_ value.Value  = (*ProtocolFn)(nil)
	_ value.Tagged = (*ProtocolFn)(nil)
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

func (p *ProtocolFn) Extend(typeTag string, impl value.Value) { p.methods[typeTag] = impl }

func (p *ProtocolFn) resolve(typeTag string) (value.Value, bool) {
	if impl, ok := p.methods[typeTag]; ok {
		return impl, true
	}
	impl, ok := p.methods["Object"]
	return impl, ok
}

// MultiFn is the tree-walk counterpart of lang/vm's MultiFn, keyed the same
// way: by the dispatch value's printed form, since value.Value is not
// Go-comparable in general.
type MultiFn struct {
	Name     string
	Dispatch value.Value

	methods map[string]value.Value
}

var (
	_ value.Value  = (*MultiFn)(nil)
	_ value.Tagged = (*MultiFn)(nil)
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

func (m *MultiFn) Extend(dispatchVal, methodFn value.Value) {
	m.methods[dispatchKey(dispatchVal)] = methodFn
}

func dispatchKey(v value.Value) string { return value.Print(v) }

// typeKey returns the dispatch type tag a protocol/multimethod extend-type
// registration matches against, the same stable Tag name lang/vm's typeKey
// uses, so extend-type registrations mean the same thing under either
// backend.
func typeKey(v value.Value) string {
	if t, ok := v.(value.Tagged); ok {
		return t.Tag().String()
	}
	return v.Type()
}
