package treewalk

import (
	"fmt"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
)

// eval is the recursive Node interpreter, one case per analyzer.Kind. A
// *recurSignal or *thrown returned as err is a control-transfer value, not
// an ordinary failure: callers that establish a catch or loop boundary must
// type-switch on it rather than treating every non-nil err as fatal.
func (ev *Evaluator) eval(n *analyzer.Node, fr *frame) (value.Value, error) {
	switch n.Kind {
	case analyzer.KConst:
		return n.Const, nil

	case analyzer.KLocalRef:
		v, ok := fr.lookup(n.Local)
		if !ok {
			return nil, &thrown{Value: runtimeException("unresolved-symbol", "unbound local: "+n.Local.Name)}
		}
		return v, nil

	case analyzer.KVarRef:
		sym := value.NewQualifiedSymbol(n.Ns, n.Name)
		v, ok := ev.Env.ResolveSymbol(ev.Env.CurrentNamespace(), sym)
		if !ok {
			return nil, &thrown{Value: runtimeException("unresolved-symbol", "unable to resolve symbol: "+sym.String())}
		}
		return v.Deref(), nil

	case analyzer.KIf:
		ok, err := ev.evalTruth(n.Test, fr)
		if err != nil {
			return nil, err
		}
		if ok {
			return ev.eval(n.Then, fr)
		}
		return ev.eval(n.Else, fr)

	case analyzer.KDo:
		var result value.Value = value.Nil
		for _, e := range n.Elems {
			var err error
			result, err = ev.eval(e, fr)
			if err != nil {
				return nil, err
			}
		}
		return result, nil

	case analyzer.KLet:
		inner := newFrame(fr)
		for i, b := range n.Bindings {
			v, err := ev.eval(n.Inits[i], inner)
			if err != nil {
				return nil, err
			}
			inner.define(b, v)
		}
		return ev.eval(n.Body, inner)

	case analyzer.KLoop:
		inner := newFrame(fr)
		for i, b := range n.Bindings {
			v, err := ev.eval(n.Inits[i], inner)
			if err != nil {
				return nil, err
			}
			inner.define(b, v)
		}
		for {
			result, err := ev.eval(n.Body, inner)
			if rs, ok := err.(*recurSignal); ok && rs.LoopID == n.LoopID {
				for i, b := range n.Bindings {
					inner.define(b, rs.Values[i])
				}
				continue
			}
			return result, err
		}

	case analyzer.KFn:
		return &Closure{Node: n, Captured: fr}, nil

	case analyzer.KRecur:
		vals := make([]value.Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := ev.eval(e, fr)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return nil, &recurSignal{LoopID: n.LoopID, Values: vals}

	case analyzer.KDef:
		init, err := ev.eval(n.Init, fr)
		if err != nil {
			return nil, err
		}
		v := ev.Env.CurrentNamespace().Intern(n.Name)
		v.SetFlags(n.DefFlags)
		if n.Doc != "" {
			v.Doc = n.Doc
		}
		if n.Arglists != "" {
			v.Arglists = n.Arglists
		}
		v.BindRoot(init)
		return v, nil

	case analyzer.KThrow:
		v, err := ev.eval(n.Throw, fr)
		if err != nil {
			return nil, err
		}
		return nil, &thrown{Value: v}

	case analyzer.KTry:
		return ev.evalTry(n, fr)

	case analyzer.KSetBang:
		return ev.evalSetBang(n, fr)

	case analyzer.KCall:
		return ev.evalCall(n, fr)

	case analyzer.KDefMulti:
		dispatchFn, err := ev.eval(n.DispatchFn, fr)
		if err != nil {
			return nil, err
		}
		mf := newMultiFn(n.Name, dispatchFn)
		v := ev.Env.CurrentNamespace().Intern(n.Name)
		v.BindRoot(mf)
		return mf, nil

	case analyzer.KDefMethod:
		dispatchVal, err := ev.eval(n.DispatchVal, fr)
		if err != nil {
			return nil, err
		}
		methodFn, err := ev.eval(n.MethodFn, fr)
		if err != nil {
			return nil, err
		}
		v, ok := ev.Env.CurrentNamespace().Resolve(n.MultiName)
		if !ok {
			return nil, &thrown{Value: runtimeException("unresolved-symbol", "no such multimethod: "+n.MultiName)}
		}
		mf, ok := v.Deref().(*MultiFn)
		if !ok {
			return nil, fmt.Errorf("defmethod: %s is not a multimethod", n.MultiName)
		}
		mf.Extend(dispatchVal, methodFn)
		return value.Nil, nil

	case analyzer.KDefProtocol:
		for _, method := range n.ProtocolMethods {
			pf := newProtocolFn(n.Name, method)
			v := ev.Env.CurrentNamespace().Intern(method)
			v.BindRoot(pf)
		}
		return value.Nil, nil

	case analyzer.KExtendType:
		for methodName, fnNode := range n.ExtendMethods {
			impl, err := ev.eval(fnNode, fr)
			if err != nil {
				return nil, err
			}
			v, ok := ev.Env.CurrentNamespace().Resolve(methodName)
			if !ok {
				return nil, &thrown{Value: runtimeException("unresolved-symbol", "no such protocol method: "+methodName)}
			}
			pf, ok := v.Deref().(*ProtocolFn)
			if !ok {
				return nil, fmt.Errorf("extend-type: %s is not a protocol method", methodName)
			}
			pf.Extend(n.TypeTag, impl)
		}
		return value.Nil, nil

	case analyzer.KCollection:
		elems := make([]value.Value, len(n.Elems))
		for i, e := range n.Elems {
			v, err := ev.eval(e, fr)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return collectionValue(n.CollKind, elems), nil
	}
	return nil, fmt.Errorf("treewalk: unhandled node kind %d", n.Kind)
}

// evalTruth evaluates n, recognizing the two-arg </<=/>/>=/= comparison
// intrinsics when n is directly a call to one of them, mirroring
// compiler.go's comparisonSelector fusion at if-test position rather than
// going through a generic call (which requires an actual var of that name
// to be bound, the same restriction the bytecode backend has outside of
// if-test position).
func (ev *Evaluator) evalTruth(n *analyzer.Node, fr *frame) (bool, error) {
	if n.Kind == analyzer.KCall && n.Head.Kind == analyzer.KVarRef && n.Head.Ns == "" && len(n.Elems) == 2 {
		switch n.Head.Name {
		case "<", "<=", ">", ">=", "=":
			lhs, err := ev.eval(n.Elems[0], fr)
			if err != nil {
				return false, err
			}
			rhs, err := ev.eval(n.Elems[1], fr)
			if err != nil {
				return false, err
			}
			ok, err := compareTruth(n.Head.Name, lhs, rhs)
			if err != nil {
				return false, &thrown{Value: wrapError(err)}
			}
			return ok, nil
		}
	}
	v, err := ev.eval(n, fr)
	if err != nil {
		return false, err
	}
	return value.Truth(v), nil
}

func (ev *Evaluator) evalTry(n *analyzer.Node, fr *frame) (value.Value, error) {
	result, err := ev.eval(n.TryBody, fr)
	if th, ok := err.(*thrown); ok && n.Catch != nil {
		if n.Catch.ExceptionType == "" || exceptionType(th.Value) == n.Catch.ExceptionType {
			catchFrame := newFrame(fr)
			catchFrame.define(n.Catch.Binding, th.Value)
			result, err = ev.eval(n.Catch.Body, catchFrame)
		}
	}
	if n.Finally != nil {
		if _, ferr := ev.eval(n.Finally, fr); ferr != nil {
			return nil, ferr
		}
	}
	return result, err
}

func (ev *Evaluator) evalSetBang(n *analyzer.Node, fr *frame) (value.Value, error) {
	val, err := ev.eval(n.Value, fr)
	if err != nil {
		return nil, err
	}
	switch n.Target.Kind {
	case analyzer.KLocalRef:
		if !fr.set(n.Target.Local, val) {
			return nil, &thrown{Value: runtimeException("unresolved-symbol", "unbound local: "+n.Target.Local.Name)}
		}
	case analyzer.KVarRef:
		sym := value.NewQualifiedSymbol(n.Target.Ns, n.Target.Name)
		v, ok := ev.Env.ResolveSymbol(ev.Env.CurrentNamespace(), sym)
		if !ok {
			return nil, &thrown{Value: runtimeException("unresolved-symbol", "unable to resolve symbol: "+sym.String())}
		}
		if v.IsBound() {
			v.SetDynamicBinding(val)
		} else {
			v.BindRoot(val)
		}
	default:
		return nil, fmt.Errorf("treewalk: set! target kind %d unsupported", n.Target.Kind)
	}
	return val, nil
}

// evalCall fuses two-arg +/-/*// calls directly (mirroring
// compiler.go's arithmeticOpcode, which fuses the same shape to an ADD/SUB/
// MUL/DIV opcode unconditionally, not only in tail or test position), and
// otherwise evaluates the callee and arguments and dispatches through
// callValue.
func (ev *Evaluator) evalCall(n *analyzer.Node, fr *frame) (value.Value, error) {
	if n.Head.Kind == analyzer.KVarRef && n.Head.Ns == "" && len(n.Elems) == 2 {
		switch n.Head.Name {
		case "+", "-", "*", "/":
			a, err := ev.eval(n.Elems[0], fr)
			if err != nil {
				return nil, err
			}
			b, err := ev.eval(n.Elems[1], fr)
			if err != nil {
				return nil, err
			}
			v, err := arithOp(n.Head.Name, a, b)
			if err != nil {
				return nil, &thrown{Value: wrapError(err)}
			}
			return v, nil
		}
	}

	callee, err := ev.eval(n.Head, fr)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(n.Elems))
	for i, e := range n.Elems {
		v, err := ev.eval(e, fr)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	result, err := ev.callValue(callee, args)
	if err != nil {
		switch err.(type) {
		case *thrown, *recurSignal:
			return nil, err
		}
		return nil, &thrown{Value: wrapError(err)}
	}
	return result, nil
}

// collectionValue mirrors analyzer.go's own unexported collectionValue,
// building the literal collection a KCollection node describes from its
// evaluated elements.
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
