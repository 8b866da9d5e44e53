package corelib_test

import (
	"testing"

	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoaderRegistersExpectedNames(t *testing.T) {
	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()

	names, err := corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)
	require.Contains(t, names, "ex-info")
	require.Contains(t, names, "str")
	require.Contains(t, names, "=")

	fn, ok := reg.Lookup("ex-info")
	require.True(t, ok)
	require.NotNil(t, fn)
}

func TestInstallBindsNamespaceVars(t *testing.T) {
	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()
	_, err := corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)

	corelib.Install(ns, reg)

	v, ok := ns.Resolve("str")
	require.True(t, ok)
	fn, ok := v.Deref().(*vm.BuiltinFn)
	require.True(t, ok)

	result, err := fn.Fn(nil, []value.Value{value.String("a"), value.Int(1)})
	require.NoError(t, err)
	require.Equal(t, value.String("a1"), result)
}

func TestExInfoShapeMatchesVMRuntimeExceptions(t *testing.T) {
	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()
	_, err := corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)
	corelib.Install(ns, reg)

	v, _ := ns.Resolve("ex-info")
	fn := v.Deref().(*vm.BuiltinFn)

	result, err := fn.Fn(nil, []value.Value{value.String("boom"), value.NewArrayMap()})
	require.NoError(t, err)

	m, ok := result.(*value.ArrayMap)
	require.True(t, ok)
	typ, found := m.Get(value.NewKeyword("__ex_type"))
	require.True(t, found)
	require.Equal(t, value.NewKeyword("ex-info"), typ)
}

func resolveBuiltin(t *testing.T, ns *env.Namespace, reg *corelib.Registry, name string) func(args []value.Value) (value.Value, error) {
	t.Helper()
	corelib.Install(ns, reg)
	v, ok := ns.Resolve(name)
	require.True(t, ok)
	fn, ok := v.Deref().(*vm.BuiltinFn)
	require.True(t, ok)
	return func(args []value.Value) (value.Value, error) { return fn.Fn(nil, args) }
}

func newDefaultRegistry(t *testing.T) (*env.Namespace, *corelib.Registry) {
	t.Helper()
	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()
	_, err := corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)
	return ns, reg
}

func TestPlusVariadic(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	plus := resolveBuiltin(t, ns, reg, "+")

	r, err := plus(nil)
	require.NoError(t, err)
	require.Equal(t, value.Int(0), r)

	r, err = plus([]value.Value{value.Int(5)})
	require.NoError(t, err)
	require.Equal(t, value.Int(5), r)

	r, err = plus([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	require.NoError(t, err)
	require.Equal(t, value.Int(6), r)
}

func TestMinusAndDivideUnary(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	minus := resolveBuiltin(t, ns, reg, "-")
	divide := resolveBuiltin(t, ns, reg, "/")

	r, err := minus([]value.Value{value.Int(5)})
	require.NoError(t, err)
	require.Equal(t, value.Int(-5), r)

	_, err = minus(nil)
	require.Error(t, err)

	r, err = divide([]value.Value{value.Int(4)})
	require.NoError(t, err)
	require.Equal(t, value.Float(0.25), r)

	_, err = divide(nil)
	require.Error(t, err)
}

func TestMultiplyVariadic(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	multiply := resolveBuiltin(t, ns, reg, "*")

	r, err := multiply(nil)
	require.NoError(t, err)
	require.Equal(t, value.Int(1), r)

	r, err = multiply([]value.Value{value.Int(2), value.Int(3), value.Int(4)})
	require.NoError(t, err)
	require.Equal(t, value.Int(24), r)
}

func TestModAndRemSigns(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	mod := resolveBuiltin(t, ns, reg, "mod")
	rem := resolveBuiltin(t, ns, reg, "rem")

	r, err := mod([]value.Value{value.Int(-7), value.Int(3)})
	require.NoError(t, err)
	require.Equal(t, value.Int(2), r)

	r, err = rem([]value.Value{value.Int(-7), value.Int(3)})
	require.NoError(t, err)
	require.Equal(t, value.Int(-1), r)

	_, err = mod([]value.Value{value.Int(1), value.Int(0)})
	require.Error(t, err)
}

func TestComparisonChaining(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	lt := resolveBuiltin(t, ns, reg, "<")

	r, err := lt([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), r)

	r, err = lt([]value.Value{value.Int(1), value.Int(3), value.Int(2)})
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), r)
}

func TestNotEq(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	notEq := resolveBuiltin(t, ns, reg, "not=")

	r, err := notEq([]value.Value{value.Int(1), value.Int(1), value.Int(2)})
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), r)

	r, err = notEq([]value.Value{value.Int(1), value.Int(1)})
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), r)
}

func TestConcatListVecSeq(t *testing.T) {
	ns, reg := newDefaultRegistry(t)
	concat := resolveBuiltin(t, ns, reg, "concat")
	list := resolveBuiltin(t, ns, reg, "list")
	vec := resolveBuiltin(t, ns, reg, "vec")
	seq := resolveBuiltin(t, ns, reg, "seq")

	l1 := value.NewList(value.Int(1), value.Int(2))
	l2 := value.NewList(value.Int(3))

	r, err := concat([]value.Value{l1, l2})
	require.NoError(t, err)
	require.Equal(t, value.NewList(value.Int(1), value.Int(2), value.Int(3)), r)

	r, err = vec([]value.Value{r})
	require.NoError(t, err)
	require.Equal(t, value.NewVector([]value.Value{value.Int(1), value.Int(2), value.Int(3)}), r)

	r, err = list([]value.Value{value.Int(1), value.Int(2)})
	require.NoError(t, err)
	require.Equal(t, value.NewList(value.Int(1), value.Int(2)), r)

	r, err = seq([]value.Value{value.Nil})
	require.NoError(t, err)
	require.Equal(t, value.Nil, r)
}
