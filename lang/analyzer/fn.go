package analyzer

import (
	"github.com/cljcore/cljc/lang/reader"
)

// analyzeFn handles (fn name? [params*] body*) and the multi-arity shape
// (fn name? ([params*] body*) ([params*] body*) ...): a name
// is usable inside the body for self-reference, at most one arity may be
// variadic, and no two arities may share a fixed parameter count.
func (a *Analyzer) analyzeFn(f reader.Form, sc *scope) *Node {
	rest := f.Elems[1:]
	fn := &Node{Kind: KFn, Pos: f.Pos}
	fn.FnID = a.nextFnID
	a.nextFnID++

	fnScope := newScope(sc, fn)
	if len(rest) > 0 && rest[0].Kind == reader.KindSymbol && rest[0].Ns == "" {
		fn.Self = &Binding{ID: a.newBindingID(), Name: rest[0].Name, Pos: rest[0].Pos, OwnerFn: fn}
		fnScope.define(fn.Self)
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return a.fail(f.Pos, "fn requires at least one arity")
	}

	var arityForms []reader.Form
	if rest[0].Kind == reader.KindVector {
		arityForms = []reader.Form{{Kind: reader.KindList, Pos: f.Pos, Elems: append([]reader.Form{rest[0]}, rest[1:]...)}}
	} else {
		arityForms = rest
	}

	seenFixed := map[int]bool{}
	variadicSeen := false
	for _, af := range arityForms {
		if af.Kind != reader.KindList || len(af.Elems) == 0 || af.Elems[0].Kind != reader.KindVector {
			a.fail(af.Pos, "malformed fn arity: expected [params*] body*")
			continue
		}
		arity, err := a.analyzeFnArity(af, fnScope, fn)
		if err != nil {
			continue
		}
		if arity.Variadic {
			if variadicSeen {
				a.fail(af.Pos, "fn may have at most one variadic arity")
				continue
			}
			variadicSeen = true
		} else {
			n := len(arity.Params)
			if seenFixed[n] {
				a.fail(af.Pos, "fn has two arities with %d fixed parameter(s)", n)
				continue
			}
			seenFixed[n] = true
		}
		fn.Arities = append(fn.Arities, arity)
	}

	fn.Captures = collectCaptures(fn)
	return fn
}

func (a *Analyzer) analyzeFnArity(af reader.Form, parentScope *scope, fn *Node) (FnArity, error) {
	paramsForm := af.Elems[0]
	arityScope := newScope(parentScope, fn)

	var params []*Binding
	variadic := false
	sawAmp := false
	for i, p := range paramsForm.Elems {
		if p.Kind == reader.KindSymbol && p.Ns == "" && p.Name == "&" {
			if sawAmp {
				err := errf(p.Pos, "fn parameter list has more than one '&'")
				a.errs = append(a.errs, err)
				return FnArity{}, err
			}
			sawAmp = true
			if i == len(paramsForm.Elems)-1 {
				err := errf(p.Pos, "'&' must be followed by a rest parameter")
				a.errs = append(a.errs, err)
				return FnArity{}, err
			}
			continue
		}
		if p.Kind != reader.KindSymbol || p.Ns != "" {
			err := errf(p.Pos, "fn parameter must be an unqualified symbol")
			a.errs = append(a.errs, err)
			return FnArity{}, err
		}
		for _, existing := range params {
			if existing.Name == p.Name {
				err := errf(p.Pos, "duplicate parameter name %q", p.Name)
				a.errs = append(a.errs, err)
				return FnArity{}, err
			}
		}
		b := &Binding{ID: a.newBindingID(), Name: p.Name, Pos: p.Pos, OwnerFn: fn}
		arityScope.define(b)
		params = append(params, b)
		if sawAmp {
			variadic = true
		}
	}

	bodyForm := reader.Form{Kind: reader.KindList, Pos: af.Pos, Elems: append([]reader.Form{{Kind: reader.KindSymbol, Name: "do"}}, af.Elems[1:]...)}
	tail := &tailContext{targetFn: fn, arityIndex: len(fn.Arities), slots: params}
	body := a.analyze(bodyForm, arityScope, tail)
	return FnArity{Params: params, Variadic: variadic, Body: body}, nil
}

// collectCaptures walks a fn's analyzed arities and finds every LocalRef
// whose binding belongs to an enclosing fn (OwnerFn != this fn and != this
// fn's own param/self bindings), in first-use order. A nested fn is not
// walked again: its own Captures, minus the bindings this fn owns, are
// taken as this fn's captures too. The compiler resolves
// each capture to a concrete parent stack slot at emission time; analyzer's
// job is only to name which outer bindings are referenced, once each.
func collectCaptures(fn *Node) []*Binding {
	seen := map[int]bool{}
	var order []*Binding
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.Kind == KFn && n != fn {
			for _, b := range n.Captures {
				if b.OwnerFn != fn && !seen[b.ID] {
					seen[b.ID] = true
					order = append(order, b)
				}
			}
			return
		}
		if n.Kind == KLocalRef && n.Local.OwnerFn != fn && !seen[n.Local.ID] {
			seen[n.Local.ID] = true
			order = append(order, n.Local)
		}
		for _, c := range []*Node{n.Test, n.Then, n.Else, n.Head, n.Body, n.Init, n.Throw, n.TryBody, n.Finally, n.Target, n.Value, n.DispatchFn, n.DispatchVal, n.MethodFn} {
			walk(c)
		}
		for _, c := range n.Elems {
			walk(c)
		}
		for _, c := range n.Inits {
			walk(c)
		}
		if n.Catch != nil {
			walk(n.Catch.Body)
		}
		for _, ar := range n.Arities {
			walk(ar.Body)
		}
		for _, m := range n.ExtendMethods {
			walk(m)
		}
	}
	for _, ar := range fn.Arities {
		walk(ar.Body)
	}
	return order
}
