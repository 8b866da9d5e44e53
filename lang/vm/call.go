package vm

import (
	"fmt"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/value"
)

// callValue dispatches a CALL instruction's callee by its concrete runtime
// type: fn, builtin-fn, keyword/map/set/vector-as-fn, var-ref (deref and
// redispatch), protocol-fn and multi-fn. A host-compiled wasm-fn is out of
// scope.
func (t *Thread) callValue(callee value.Value, args []value.Value) (value.Value, error) {
	switch c := callee.(type) {
	case *Fn:
		return t.callFn(c, args)
	case *BuiltinFn:
		return c.Fn(t, args)
	case *ProtocolFn:
		if len(args) == 0 {
			return nil, fmt.Errorf("protocol method %s/%s called with no arguments", c.ProtoName, c.Method)
		}
		key := typeKey(args[0])
		impl, ok := c.resolve(key)
		if !ok {
			return nil, fmt.Errorf("no implementation of %s/%s for type %s", c.ProtoName, c.Method, key)
		}
		return t.callValue(impl, args)
	case *MultiFn:
		dispatchVal, err := t.callValue(c.Dispatch, args)
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
		return t.callValue(impl, args)
	case *value.Var:
		return t.callValue(c.Deref(), args)
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

// callKeyword implements (kw map) and (kw map default), the keyword-as-fn
// shorthand for map lookup.
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

// callVector implements (v i) and (v i default): out-of-range is an error
// only when no default is given,.
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

// selectArity picks the Arity matching argc: an exact
// non-variadic match always wins over a variadic one, even if the variadic
// arity could also accept argc arguments. A variadic arity's NumParams
// counts the rest-parameter binding itself, so its fixed prefix length is
// NumParams-1.
func selectArity(proto *compiler.FnProto, argc int) (*compiler.Arity, bool) {
	var variadic *compiler.Arity
	for i := range proto.Arities {
		a := &proto.Arities[i]
		if !a.Variadic && a.NumParams == argc {
			return a, true
		}
		if a.Variadic && argc >= a.NumParams-1 {
			variadic = a
		}
	}
	if variadic != nil {
		return variadic, true
	}
	return nil, false
}

// callFn selects fn's matching arity, builds its frame (self-reference,
// fixed params and, for a variadic arity, the collected rest-args list),
// and runs it.
func (t *Thread) callFn(fn *Fn, args []value.Value) (value.Value, error) {
	arity, ok := selectArity(fn.Proto, len(args))
	if !ok {
		return nil, fmt.Errorf("%s: no matching arity for %d arguments", fnName(fn), len(args))
	}
	frame := newFrame(fn, arity)

	slot := len(fn.Captures)
	if arity.SelfSlot >= 0 {
		frame.space[slot] = fn
		slot++
	}
	fixed := arity.NumParams
	if arity.Variadic {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var v value.Value = value.Nil
		if i < len(args) {
			v = args[i]
		}
		frame.space[slot+i] = v
	}
	sp := slot + fixed
	if arity.Variadic {
		rest := value.Value(value.Nil)
		if len(args) > fixed {
			rest = value.NewList(args[fixed:]...)
		}
		frame.space[slot+fixed] = rest
		sp++
	}
	frame.sp = sp

	return t.runFrame(frame)
}

func fnName(fn *Fn) string {
	if fn.Proto.Name == "" {
		return "fn"
	}
	return fn.Proto.Name
}
