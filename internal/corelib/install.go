package corelib

import (
	"fmt"

	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
)

// Install interns every name in reg as a var in ns, bound to a *vm.BuiltinFn
// adapting BuiltinFunc's thread-less signature to the thread-aware shape
// lang/vm's CALL dispatch expects. This is the only file of internal/corelib
// that refers to lang/vm; since the import is per package, every importer of
// internal/corelib, a tree-walk-only embedder included, still links lang/vm.
func Install(ns *env.Namespace, reg *Registry) {
	for name, fn := range reg.entries {
		captured := fn
		v := ns.Intern(name)
		v.BindRoot(&vm.BuiltinFn{
			Name: name,
			Fn: func(_ *vm.Thread, args []value.Value) (value.Value, error) {
				return captured(args)
			},
		})
	}
}

// DefaultLoader is a reference implementation covering the handful of
// builtins the exception and printing machinery assumes exist (ex-info for
// try/catch, the printer for REPL output), a few of clojure.core's most
// basic sequence and equality primitives, and the arithmetic/comparison
// intrinsics (+ - * / < <= > >= mod rem not=) in their full variadic form.
// The compiler and the tree-walk evaluator each fuse the exact two-argument
// shape of +, -, *, /, < , <=, >, >=  and = directly to a dedicated opcode
// (see lang/compiler's arithmeticOpcode/comparisonSelector and
// lang/treewalk/eval.go's evalCall/evalTruth), bypassing these vars
// entirely; every other shape - zero or one argument, three or more
// arguments, or a comparison outside of an if-test - falls through to an
// ordinary call against the var bound here, which is also where
// mod/rem/not= live since neither backend fuses them at all. It is
// deliberately not a complete clojure.core: internal/corelib's contract is
// the Loader/Registry seam, not a full standard library; a real one is
// expected to be supplied by an embedder, not baked into the language core
// itself.
var DefaultLoader = LoaderFunc(func(_ *env.Namespace, reg *Registry) ([]string, error) {
	bindings := map[string]BuiltinFunc{
		"ex-info":  exInfo,
		"ex-data":  exData,
		"ex-cause": exCause,
		"str":      str,
		"prn":      prn,
		"println":  println_,
		"=":        numEq,
		"not=":     notEq,
		"count":    count,
		"identity": identity,
		"+":        plus,
		"-":        minus,
		"*":        multiply,
		"/":        divide,
		"<":        lt,
		"<=":       le,
		">":        gt,
		">=":       ge,
		"mod":      modFn,
		"rem":      remFn,
		"concat":   concat,
		"list":     listFn,
		"vec":      vec,
		"seq":      seqFn,
	}
	names := make([]string, 0, len(bindings))
	for name, fn := range bindings {
		reg.Register(name, fn)
		names = append(names, name)
	}
	return names, nil
})

var (
	exInfoKey    = value.NewKeyword("__ex_info")
	exMessageKey = value.NewKeyword("message")
	exDataKey    = value.NewKeyword("data")
	exCauseKey   = value.NewKeyword("cause")
	exTypeKey    = value.NewKeyword("__ex_type")
)

// exInfo implements (ex-info msg map) and (ex-info msg map cause), building
// the same synthetic exception shape lang/vm's own runtime errors use
// (:__ex_info, :message, :data, :cause, :__ex_type), so a
// user-thrown exception and an internal one are caught uniformly.
func exInfo(args []value.Value) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("ex-info expects 2 or 3 arguments, got %d", len(args))
	}
	msg, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("ex-info: message must be a string, got %s", args[0].Type())
	}
	cause := value.Value(value.Nil)
	if len(args) == 3 {
		cause = args[2]
	}
	return value.NewArrayMap(
		exInfoKey, value.Bool(true),
		exMessageKey, msg,
		exDataKey, args[1],
		exCauseKey, cause,
		exTypeKey, value.NewKeyword("ex-info"),
	), nil
}

func exData(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ex-data expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(*value.ArrayMap)
	if !ok {
		return value.Nil, nil
	}
	data, found := m.Get(exDataKey)
	if !found {
		return value.Nil, nil
	}
	return data, nil
}

func exCause(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ex-cause expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(*value.ArrayMap)
	if !ok {
		return value.Nil, nil
	}
	cause, found := m.Get(exCauseKey)
	if !found {
		return value.Nil, nil
	}
	return cause, nil
}

func str(args []value.Value) (value.Value, error) {
	out := ""
	for _, a := range args {
		if a == value.Nil {
			continue
		}
		out += a.String()
	}
	return value.String(out), nil
}

func prn(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Print(a)
	}
	fmt.Println(joinSpace(parts))
	return value.Nil, nil
}

func println_(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(joinSpace(parts))
	return value.Nil, nil
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func numEq(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("= expects at least 2 arguments, got %d", len(args))
	}
	for i := 1; i < len(args); i++ {
		if !value.Equal(args[0], args[i]) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

// notEq implements not=: (not= x) is always false (everything equals
// itself), and (not= a b c ...) is true as soon as any argument after the
// first differs from it, mirroring numEq's all-equal-the-first contract.
func notEq(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("not= expects at least 1 argument, got 0")
	}
	for i := 1; i < len(args); i++ {
		if !value.Equal(args[0], args[i]) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func count(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("count expects 1 argument, got %d", len(args))
	}
	type counter interface{ Count() int }
	if c, ok := args[0].(counter); ok {
		return value.Int(c.Count()), nil
	}
	return nil, fmt.Errorf("count: not countable: %s", args[0].Type())
}

func identity(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("identity expects 1 argument, got %d", len(args))
	}
	return args[0], nil
}
