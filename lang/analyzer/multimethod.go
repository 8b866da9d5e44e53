package analyzer

import (
	"github.com/cljcore/cljc/lang/reader"
)

// analyzeDefMulti handles (defmulti name dispatch-fn), registering a
// multi-fn var whose dispatch value drives defmethod lookup.
func (a *Analyzer) analyzeDefMulti(f reader.Form, sc *scope) *Node {
	rest := f.Elems[1:]
	if len(rest) != 2 || rest[0].Kind != reader.KindSymbol || rest[0].Ns != "" {
		return a.fail(f.Pos, "defmulti requires a name and a dispatch expression")
	}
	a.NS.Intern(rest[0].Name)
	return &Node{
		Kind:       KDefMulti,
		Pos:        f.Pos,
		Ns:         a.NS.Name,
		Name:       rest[0].Name,
		DispatchFn: a.analyzeNonTail(rest[1], sc),
	}
}

// analyzeDefMethod handles (defmethod name dispatch-val [params*] body*),
// compiled as an ordinary fn registered against name's multi-fn under
// dispatch-val.
func (a *Analyzer) analyzeDefMethod(f reader.Form, sc *scope) *Node {
	rest := f.Elems[1:]
	if len(rest) < 2 || rest[0].Kind != reader.KindSymbol || rest[0].Ns != "" {
		return a.fail(f.Pos, "defmethod requires a multi-fn name and a dispatch value")
	}
	name, dispatchForm := rest[0], rest[1]
	if len(rest) < 3 || rest[2].Kind != reader.KindVector {
		return a.fail(f.Pos, "defmethod requires a parameter vector")
	}
	fnForm := reader.Form{Kind: reader.KindList, Pos: f.Pos, Elems: append(
		[]reader.Form{{Kind: reader.KindSymbol, Name: "fn*"}}, rest[2:]...,
	)}
	return &Node{
		Kind:        KDefMethod,
		Pos:         f.Pos,
		Ns:          a.NS.Name,
		MultiName:   name.Name,
		DispatchVal: a.analyzeQuoteLike(dispatchForm, sc),
		MethodFn:    a.analyzeFn(fnForm, sc),
	}
}

// analyzeQuoteLike analyzes a defmethod dispatch value: keywords, numbers,
// strings and symbols-as-literals all appear verbatim rather than as var
// references, matching how dispatch values are data, not code.
func (a *Analyzer) analyzeQuoteLike(f reader.Form, sc *scope) *Node {
	if f.Kind == reader.KindSymbol {
		v, err := f.ToValue()
		if err != nil {
			return a.fail(f.Pos, "%s", err)
		}
		return &Node{Kind: KConst, Pos: f.Pos, Const: v}
	}
	return a.analyzeNonTail(f, sc)
}

// analyzeDefProtocol handles (defprotocol Name (method1 [args*]) (method2
// [args*]) ...), recording only the method name set; arities are enforced
// at extend-type/dispatch time rather than here.
func (a *Analyzer) analyzeDefProtocol(f reader.Form, sc *scope) *Node {
	rest := f.Elems[1:]
	if len(rest) == 0 || rest[0].Kind != reader.KindSymbol || rest[0].Ns != "" {
		return a.fail(f.Pos, "defprotocol requires an unqualified symbol name")
	}
	n := &Node{Kind: KDefProtocol, Pos: f.Pos, Ns: a.NS.Name, Name: rest[0].Name}
	for _, sigForm := range rest[1:] {
		if sigForm.Kind != reader.KindList || len(sigForm.Elems) == 0 || sigForm.Elems[0].Kind != reader.KindSymbol {
			a.fail(sigForm.Pos, "malformed protocol method signature")
			continue
		}
		n.ProtocolMethods = append(n.ProtocolMethods, sigForm.Elems[0].Name)
	}
	a.NS.Intern(n.Name)
	return n
}

// analyzeExtendType handles (extend-type TypeTag ProtocolName (method [this
// args*] body*) ...), binding each listed method body as an fn whose first
// parameter is the receiver.
func (a *Analyzer) analyzeExtendType(f reader.Form, sc *scope) *Node {
	rest := f.Elems[1:]
	if len(rest) < 2 || rest[0].Kind != reader.KindSymbol || rest[1].Kind != reader.KindSymbol {
		return a.fail(f.Pos, "extend-type requires a type tag and a protocol name")
	}
	n := &Node{
		Kind:          KExtendType,
		Pos:           f.Pos,
		TypeTag:       rest[0].Name,
		ProtocolName:  rest[1].Name,
		ExtendMethods: map[string]*Node{},
	}
	for _, methodForm := range rest[2:] {
		if methodForm.Kind != reader.KindList || len(methodForm.Elems) < 2 || methodForm.Elems[0].Kind != reader.KindSymbol || methodForm.Elems[1].Kind != reader.KindVector {
			a.fail(methodForm.Pos, "malformed extend-type method body")
			continue
		}
		methodName := methodForm.Elems[0].Name
		fnForm := reader.Form{Kind: reader.KindList, Pos: methodForm.Pos, Elems: append(
			[]reader.Form{{Kind: reader.KindSymbol, Name: "fn*"}}, methodForm.Elems[1:]...,
		)}
		n.ExtendMethods[methodName] = a.analyzeFn(fnForm, sc)
	}
	return n
}
