package treewalk

import (
	"fmt"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/value"
)

// callValue dispatches a call's callee by its concrete runtime type, the
// tree-walk counterpart of lang/vm/call.go's callValue, covering the same
// per-kind call table.
func (ev *Evaluator) callValue(callee value.Value, args []value.Value) (value.Value, error) {
	switch c := callee.(type) {
	case *Closure:
		return ev.callClosure(c, args)
	case *BuiltinFn:
		return c.Fn(args)
	case *ProtocolFn:
		if len(args) == 0 {
			return nil, fmt.Errorf("protocol method %s/%s called with no arguments", c.ProtoName, c.Method)
		}
		key := typeKey(args[0])
		impl, ok := c.resolve(key)
		if !ok {
			return nil, fmt.Errorf("no implementation of %s/%s for type %s", c.ProtoName, c.Method, key)
		}
		return ev.callValue(impl, args)
	case *MultiFn:
		dispatchVal, err := ev.callValue(c.Dispatch, args)
		if err != nil {
			return nil, err
		}
		key := dispatchKey(dispatchVal)
		impl, ok := c.methods[key]
		if !ok {
			impl, ok = c.methods[defaultDispatchKey]
		}
		if !ok {
			return nil, fmt.Errorf("no method in multimethod %s for dispatch value %s", c.Name, value.Print(dispatchVal))
		}
		return ev.callValue(impl, args)
	case *value.Var:
		return ev.callValue(c.Deref(), args)
	case value.Keyword:
		return callKeyword(c, args)
	case *value.ArrayMap:
		return callMapping(c, args)
	case *value.Set:
		return callSet(c, args)
	case *value.Vector:
		return callVector(c, args)
	}
	return nil, fmt.Errorf("value of type %s is not callable", callee.Type())
}

func callKeyword(k value.Keyword, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("keyword invoked with %d arguments, expected 1 or 2", len(args))
	}
	m, ok := args[0].(value.Mapping)
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return value.Nil, nil
	}
	if v, found := m.Get(k); found {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return value.Nil, nil
}

func callMapping(m *value.ArrayMap, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("map invoked with %d arguments, expected 1 or 2", len(args))
	}
	if v, found := m.Get(args[0]); found {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return value.Nil, nil
}

func callSet(s *value.Set, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("set invoked with %d arguments, expected 1", len(args))
	}
	if v, found := s.Get(args[0]); found {
		return v, nil
	}
	return value.Nil, nil
}

func callVector(v *value.Vector, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("vector invoked with %d arguments, expected 1 or 2", len(args))
	}
	i, ok := args[0].(value.Int)
	if !ok {
		return nil, fmt.Errorf("vector index must be an int, got %s", args[0].Type())
	}
	elem, found := v.Nth(int(i))
	if found {
		return elem, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return nil, fmt.Errorf("index %d out of bounds for vector of count %d", i, v.Count())
}

// selectArity picks the arity matching argc, the same precedence rule
// lang/vm/call.go's selectArity applies: an exact non-variadic match always
// wins over a variadic one.
func selectArity(cl *Closure, argc int) (*analyzer.FnArity, bool) {
	var variadic *analyzer.FnArity
	for i := range cl.Node.Arities {
		a := &cl.Node.Arities[i]
		if !a.Variadic && len(a.Params) == argc {
			return a, true
		}
		if a.Variadic && argc >= len(a.Params)-1 {
			variadic = a
		}
	}
	if variadic != nil {
		return variadic, true
	}
	return nil, false
}

// callClosure selects cl's matching arity, builds a frame chained to the
// closure's captured lexical frame (self-reference, fixed params and, for a
// variadic arity, the collected rest-args list), and evaluates its body,
// looping on a LoopID == -1 recur signal (the fn's own tail) the same way
// the compiled fn-tail RECUR_LOOP (header address 0) jumps back to pc 0
// within the current frame.
func (ev *Evaluator) callClosure(cl *Closure, args []value.Value) (value.Value, error) {
	arity, ok := selectArity(cl, len(args))
	if !ok {
		return nil, fmt.Errorf("%s: no matching arity for %d arguments", cl.CallableName(), len(args))
	}
	callFrame := newFrame(cl.Captured)
	if cl.Node.Self != nil {
		callFrame.define(cl.Node.Self, cl)
	}
	fixed := len(arity.Params)
	if arity.Variadic {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var v value.Value = value.Nil
		if i < len(args) {
			v = args[i]
		}
		callFrame.define(arity.Params[i], v)
	}
	if arity.Variadic {
		rest := value.Value(value.Nil)
		if len(args) > fixed {
			rest = value.NewList(args[fixed:]...)
		}
		callFrame.define(arity.Params[fixed], rest)
	}

	callerNS := ev.Env.CurrentNamespace().Name
	for {
		result, err := ev.eval(arity.Body, callFrame)
		if rs, ok := err.(*recurSignal); ok && rs.LoopID == -1 {
			for i, p := range arity.Params {
				callFrame.define(p, rs.Values[i])
			}
			continue
		}
		if _, ok := err.(*thrown); ok {
			ev.Env.SetCurrentNamespaceName(callerNS)
		}
		return result, err
	}
}
