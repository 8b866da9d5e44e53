package corelib

import (
	"fmt"

	"github.com/cljcore/cljc/lang/value"
)

// toElems flattens a seqable value.Value into a plain slice: nil is the
// empty sequence, List/Vector/Set already expose Seq(), and anything else
// is not seqable. This gives concat/vec/seq a single conversion point
// rather than three ad hoc type switches.
func toElems(v value.Value) ([]value.Value, error) {
	switch t := v.(type) {
	case value.NilType:
		return nil, nil
	case *value.List:
		return t.Seq(), nil
	case *value.Vector:
		return t.Seq(), nil
	case *value.Set:
		return t.Seq(), nil
	}
	return nil, fmt.Errorf("not seqable: %s", v.Type())
}

// concat lazily-in-name-only concatenates its seqable arguments into one
// List: every backend constructs the elements eagerly already (no LazySeq
// wrapping here), since it exists to make a syntax-quoted list or vector
// directly evaluable (see lang/reader/syntaxquote.go), not to model
// clojure.core's lazy concat.
func concat(args []value.Value) (value.Value, error) {
	var out []value.Value
	for _, a := range args {
		elems, err := toElems(a)
		if err != nil {
			return nil, fmt.Errorf("concat: %s", err)
		}
		out = append(out, elems...)
	}
	return value.NewList(out...), nil
}

// listFn implements (list x1 ... xn): wrap the arguments as given, no
// flattening.
func listFn(args []value.Value) (value.Value, error) {
	return value.NewList(args...), nil
}

// vec implements the 1-argument form of vec, converting a seqable
// collection into a Vector; syntax-quote only ever emits (vec (concat
// ...)), so a richer multi-arg vec is not needed here.
func vec(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("vec expects 1 argument, got %d", len(args))
	}
	elems, err := toElems(args[0])
	if err != nil {
		return nil, fmt.Errorf("vec: %s", err)
	}
	return value.NewVector(elems), nil
}

// seqFn implements the 1-argument form of seq: nil, or a collection with no
// elements, both seq to nil; anything else becomes a List of its elements.
func seqFn(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("seq expects 1 argument, got %d", len(args))
	}
	elems, err := toElems(args[0])
	if err != nil {
		return nil, fmt.Errorf("seq: %s", err)
	}
	if len(elems) == 0 {
		return value.Nil, nil
	}
	return value.NewList(elems...), nil
}
