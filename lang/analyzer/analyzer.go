package analyzer

import (
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/token"
	"github.com/cljcore/cljc/lang/value"
)

// specialForms is the fixed dispatch table from: any call whose
// head is an unqualified symbol in this set is a special form, not a call.
var specialForms = map[string]bool{
	"if": true, "do": true, "let": true, "let*": true,
	"fn": true, "fn*": true, "def": true, "defmacro": true,
	"quote": true, "throw": true, "try": true, "recur": true,
	"loop": true, "set!": true,
	"defmulti": true, "defmethod": true, "defprotocol": true, "extend-type": true,
}

// Analyzer turns Forms into Nodes for one namespace at a time.
type Analyzer struct {
	Env *env.Env
	NS  *env.Namespace

	nextBindingID int
	nextFnID      int
	nextLoopID    int
	errs          []error
}

// New creates an Analyzer resolving var references against ns within e.
func New(e *env.Env, ns *env.Namespace) *Analyzer {
	return &Analyzer{Env: e, NS: ns}
}

// Errors returns every diagnostic accumulated across Analyze calls.
func (a *Analyzer) Errors() []error { return a.errs }

func (a *Analyzer) fail(pos token.Pos, format string, args ...any) *Node {
	e := errf(pos, format, args...)
	a.errs = append(a.errs, e)
	return &Node{Kind: KConst, Pos: pos, Const: value.Nil}
}

// Analyze analyzes one top-level form.
func (a *Analyzer) Analyze(f reader.Form) *Node {
	return a.analyze(f, newScope(nil, nil), nil)
}

func (a *Analyzer) newBindingID() int { a.nextBindingID++; return a.nextBindingID }

func (a *Analyzer) analyzeNonTail(f reader.Form, sc *scope) *Node {
	return a.analyze(f, sc, nil)
}

// analyze dispatches on f's shape. tail is non-nil exactly when f sits in
// tail position of the nearest enclosing fn arity or loop, which is the only
// context recur may legally appear in.
func (a *Analyzer) analyze(f reader.Form, sc *scope, tail *tailContext) *Node {
	switch f.Kind {
	case reader.KindList:
		if len(f.Elems) == 0 {
			v, _ := f.ToValue()
			return &Node{Kind: KConst, Pos: f.Pos, Const: v}
		}
		return a.analyzeList(f, sc, tail)

	case reader.KindSymbol:
		return a.analyzeSymbol(f, sc)

	case reader.KindTag:
		return a.fail(f.Pos, "tagged literal #%s has no reader function registered", f.TagName)

	case reader.KindVector, reader.KindMap, reader.KindSet:
		return a.analyzeCollection(f, sc)

	default:
		v, err := f.ToValue()
		if err != nil {
			return a.fail(f.Pos, "%s", err)
		}
		return &Node{Kind: KConst, Pos: f.Pos, Const: v}
	}
}

// analyzeCollection analyzes a vector/map/set literal's elements as ordinary
// expressions: [x (f y)] evaluates the local x and calls (f y)
// the same as any other subform, it does not quote its contents the way
// Form.ToValue's literal-data lowering does. When every element analyzes to a
// constant, the whole collection folds to a single KConst built directly from
// those constants, the same compile-time optimization quote's constant
// subforms already get; otherwise it becomes a KCollection the compiler must
// build with the matching _NEW instruction at runtime.
func (a *Analyzer) analyzeCollection(f reader.Form, sc *scope) *Node {
	elems := make([]*Node, len(f.Elems))
	allConst := true
	for i, e := range f.Elems {
		elems[i] = a.analyzeNonTail(e, sc)
		if elems[i].Kind != KConst {
			allConst = false
		}
	}
	if allConst {
		consts := make([]value.Value, len(elems))
		for i, n := range elems {
			consts[i] = n.Const
		}
		return &Node{Kind: KConst, Pos: f.Pos, Const: collectionValue(f.Kind, consts)}
	}
	return &Node{Kind: KCollection, Pos: f.Pos, CollKind: f.Kind, Elems: elems}
}

func collectionValue(kind reader.Kind, elems []value.Value) value.Value {
	switch kind {
	case reader.KindVector:
		return value.NewVector(elems)
	case reader.KindSet:
		return value.NewSet(elems...)
	case reader.KindMap:
		return value.NewArrayMap(elems...)
	default:
		return value.NewList(elems...)
	}
}

func (a *Analyzer) analyzeSymbol(f reader.Form, sc *scope) *Node {
	if f.Ns == "" {
		if b, ok := sc.lookup(f.Name); ok {
			return &Node{Kind: KLocalRef, Pos: f.Pos, Local: b}
		}
	}
	return &Node{Kind: KVarRef, Pos: f.Pos, Ns: f.Ns, Name: f.Name}
}

func (a *Analyzer) analyzeList(f reader.Form, sc *scope, tail *tailContext) *Node {
	head := f.Elems[0]
	if head.Kind == reader.KindSymbol && head.Ns == "" && specialForms[head.Name] {
		switch head.Name {
		case "if":
			return a.analyzeIf(f, sc, tail)
		case "do":
			return a.analyzeDo(f, sc, tail)
		case "let", "let*":
			return a.analyzeLet(f, sc, tail)
		case "fn", "fn*":
			return a.analyzeFn(f, sc)
		case "def":
			return a.analyzeDef(f, sc, false)
		case "defmacro":
			return a.analyzeDef(f, sc, true)
		case "quote":
			return a.analyzeQuote(f)
		case "throw":
			return a.analyzeThrow(f, sc)
		case "try":
			return a.analyzeTry(f, sc)
		case "recur":
			return a.analyzeRecur(f, sc, tail)
		case "loop":
			return a.analyzeLoop(f, sc, tail)
		case "set!":
			return a.analyzeSetBang(f, sc)
		case "defmulti":
			return a.analyzeDefMulti(f, sc)
		case "defmethod":
			return a.analyzeDefMethod(f, sc)
		case "defprotocol":
			return a.analyzeDefProtocol(f, sc)
		case "extend-type":
			return a.analyzeExtendType(f, sc)
		}
	}
	return a.analyzeCall(f, sc)
}

func (a *Analyzer) analyzeCall(f reader.Form, sc *scope) *Node {
	headNode := a.analyzeNonTail(f.Elems[0], sc)
	args := make([]*Node, 0, len(f.Elems)-1)
	for _, e := range f.Elems[1:] {
		args = append(args, a.analyzeNonTail(e, sc))
	}
	return &Node{Kind: KCall, Pos: f.Pos, Head: headNode, Elems: args}
}

func (a *Analyzer) analyzeQuote(f reader.Form) *Node {
	if len(f.Elems) != 2 {
		return a.fail(f.Pos, "quote requires exactly one argument")
	}
	v, err := f.Elems[1].ToValue()
	if err != nil {
		return a.fail(f.Pos, "%s", err)
	}
	return &Node{Kind: KConst, Pos: f.Pos, Const: v}
}

func (a *Analyzer) analyzeIf(f reader.Form, sc *scope, tail *tailContext) *Node {
	if len(f.Elems) < 3 || len(f.Elems) > 4 {
		return a.fail(f.Pos, "if requires a test, a then branch and an optional else branch")
	}
	n := &Node{Kind: KIf, Pos: f.Pos}
	n.Test = a.analyzeNonTail(f.Elems[1], sc)
	n.Then = a.analyze(f.Elems[2], sc, tail)
	if len(f.Elems) == 4 {
		n.Else = a.analyze(f.Elems[3], sc, tail)
	} else {
		n.Else = &Node{Kind: KConst, Pos: f.Pos, Const: value.Nil}
	}
	return n
}

func (a *Analyzer) analyzeDo(f reader.Form, sc *scope, tail *tailContext) *Node {
	body := f.Elems[1:]
	if len(body) == 0 {
		return &Node{Kind: KConst, Pos: f.Pos, Const: value.Nil}
	}
	elems := make([]*Node, len(body))
	for i, e := range body {
		if i == len(body)-1 {
			elems[i] = a.analyze(e, sc, tail)
		} else {
			elems[i] = a.analyzeNonTail(e, sc)
		}
	}
	return &Node{Kind: KDo, Pos: f.Pos, Elems: elems}
}

// analyzeBindingVector validates and analyzes a [name init name init ...]
// form, left to right, each binding visible to the next's init.
func (a *Analyzer) analyzeBindingVector(f reader.Form, sc *scope, ownerFn *Node) (*scope, []*Binding, []*Node, *Node) {
	if len(f.Elems) < 2 {
		return sc, nil, nil, a.fail(f.Pos, "missing binding vector")
	}
	vec := f.Elems[1]
	if vec.Kind != reader.KindVector {
		return sc, nil, nil, a.fail(vec.Pos, "binding vector must be a vector")
	}
	if len(vec.Elems)%2 != 0 {
		return sc, nil, nil, a.fail(vec.Pos, "binding vector must contain an even number of forms")
	}
	inner := newScope(sc, ownerFn)
	var bindings []*Binding
	var inits []*Node
	for i := 0; i < len(vec.Elems); i += 2 {
		nameForm, initForm := vec.Elems[i], vec.Elems[i+1]
		if nameForm.Kind != reader.KindSymbol || nameForm.Ns != "" {
			return sc, nil, nil, a.fail(nameForm.Pos, "binding target must be an unqualified symbol")
		}
		initNode := a.analyzeNonTail(initForm, inner)
		b := &Binding{ID: a.newBindingID(), Name: nameForm.Name, Pos: nameForm.Pos, OwnerFn: ownerFn}
		inner.define(b)
		bindings = append(bindings, b)
		inits = append(inits, initNode)
	}
	return inner, bindings, inits, nil
}

func (a *Analyzer) analyzeLet(f reader.Form, sc *scope, tail *tailContext) *Node {
	ownerFn := sc.ownerFn
	inner, bindings, inits, errNode := a.analyzeBindingVector(f, sc, ownerFn)
	if errNode != nil {
		return errNode
	}
	bodyForm := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, f.Elems[2:]...)}
	body := a.analyze(bodyForm, inner, tail)
	return &Node{Kind: KLet, Pos: f.Pos, Bindings: bindings, Inits: inits, Body: body}
}

func (a *Analyzer) analyzeLoop(f reader.Form, sc *scope, _ *tailContext) *Node {
	ownerFn := sc.ownerFn
	loopNode := &Node{Kind: KLoop, Pos: f.Pos}
	loopNode.LoopID = a.nextLoopID
	a.nextLoopID++

	inner, bindings, inits, errNode := a.analyzeBindingVector(f, sc, ownerFn)
	if errNode != nil {
		return errNode
	}
	loopTail := &tailContext{loop: loopNode, slots: bindings}
	bodyForm := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, f.Elems[2:]...)}
	body := a.analyze(bodyForm, inner, loopTail)

	loopNode.Bindings = bindings
	loopNode.Inits = inits
	loopNode.Body = body
	return loopNode
}

func (a *Analyzer) analyzeRecur(f reader.Form, sc *scope, tail *tailContext) *Node {
	if tail == nil {
		return a.fail(f.Pos, "recur outside of tail position")
	}
	args := make([]*Node, 0, len(f.Elems)-1)
	for _, e := range f.Elems[1:] {
		args = append(args, a.analyzeNonTail(e, sc))
	}
	if len(args) != len(tail.slots) {
		return a.fail(f.Pos, "recur expects %d argument(s), got %d", len(tail.slots), len(args))
	}
	n := &Node{Kind: KRecur, Pos: f.Pos, Elems: args, Bindings: tail.slots}
	if tail.loop != nil {
		n.LoopID = tail.loop.LoopID
	} else {
		n.LoopID = -1 // recur to the enclosing fn arity's own params
	}
	return n
}

func (a *Analyzer) analyzeSetBang(f reader.Form, sc *scope) *Node {
	if len(f.Elems) != 3 {
		return a.fail(f.Pos, "set! requires a target and a value")
	}
	target := a.analyzeNonTail(f.Elems[1], sc)
	if target.Kind != KLocalRef && target.Kind != KVarRef {
		return a.fail(f.Pos, "set! target must be a local or a var")
	}
	val := a.analyzeNonTail(f.Elems[2], sc)
	return &Node{Kind: KSetBang, Pos: f.Pos, Target: target, Value: val}
}

func (a *Analyzer) analyzeThrow(f reader.Form, sc *scope) *Node {
	if len(f.Elems) != 2 {
		return a.fail(f.Pos, "throw requires exactly one argument")
	}
	return &Node{Kind: KThrow, Pos: f.Pos, Throw: a.analyzeNonTail(f.Elems[1], sc)}
}
