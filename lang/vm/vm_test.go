package vm_test

import (
	"testing"

	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/gc"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
	"github.com/stretchr/testify/require"
)

// runSource reads, analyzes, compiles and runs src against a fresh Env with
// internal/corelib's DefaultLoader installed, mirroring lang/compiler's own
// compileSource test helper end to end and internal/clitool's compileFile.
func runSource(t *testing.T, src string) (value.Value, *env.Env) {
	t.Helper()
	r := reader.New([]byte(src), reader.DefaultPolicy())
	forms, err := r.ReadAll()
	require.NoError(t, err)

	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()
	_, err = corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)
	corelib.Install(ns, reg)

	a := analyzer.New(e, ns)
	nodes := make([]*analyzer.Node, len(forms))
	for i, f := range forms {
		nodes[i] = a.Analyze(f)
	}
	require.Empty(t, a.Errors())

	chunk, err := compiler.Compile("test", nodes)
	require.NoError(t, err)

	th := vm.NewThread(e, gc.NewArena())
	result, err := th.Run(chunk)
	require.NoError(t, err)
	return result, e
}

func TestRunArithmetic(t *testing.T) {
	v, _ := runSource(t, "(+ (+ 1 2) 3)")
	require.Equal(t, value.Int(6), v)
}

func TestRunOverflowPromotesToFloat(t *testing.T) {
	v, _ := runSource(t, "(* 9223372036854775807 2)")
	_, ok := v.(value.Float)
	require.True(t, ok, "expected overflow to promote to float, got %T", v)
}

func TestRunIfBranchesOnComparison(t *testing.T) {
	v, _ := runSource(t, "(if (< 1 2) :yes :no)")
	require.Equal(t, value.NewKeyword("yes"), v)
}

func TestRunLetBindsLocals(t *testing.T) {
	v, _ := runSource(t, "(let [x 10 y 20] (+ x y))")
	require.Equal(t, value.Int(30), v)
}

func TestRunLoopRecur(t *testing.T) {
	v, _ := runSource(t, "(loop [i 0 acc 0] (if (< i 5) (recur (+ i 1) (+ acc i)) acc))")
	require.Equal(t, value.Int(10), v)
}

func TestRunFnCallAndClosure(t *testing.T) {
	v, _ := runSource(t, "(let [x 5] ((fn [y] (+ x y)) 7))")
	require.Equal(t, value.Int(12), v)
}

func TestRunMultiArityFn(t *testing.T) {
	v, _ := runSource(t, "(let [f (fn ([x] x) ([x y] (+ x y)))] (f 1 2))")
	require.Equal(t, value.Int(3), v)
}

// TestRunLiteralVectorEvaluatesElements guards the fix where a vector
// literal's elements were being lowered to quoted data instead of being
// evaluated: [x (+ 1 2)] must resolve the local x and call +, not produce
// the literal symbol/list data.
func TestRunLiteralVectorEvaluatesElements(t *testing.T) {
	v, _ := runSource(t, "(let [x 10] [x (+ 1 2)])")
	vec, ok := v.(*value.Vector)
	require.True(t, ok)
	require.Equal(t, 2, vec.Count())
	e0, _ := vec.Nth(0)
	e1, _ := vec.Nth(1)
	require.Equal(t, value.Int(10), e0)
	require.Equal(t, value.Int(3), e1)
}

func TestRunLiteralMapEvaluatesElements(t *testing.T) {
	v, _ := runSource(t, `(let [x 1] {:a x :b (+ x 1)})`)
	m, ok := v.(*value.ArrayMap)
	require.True(t, ok)
	got, found := m.Get(value.NewKeyword("b"))
	require.True(t, found)
	require.Equal(t, value.Int(2), got)
}

func TestRunLiteralSetEvaluatesElements(t *testing.T) {
	v, _ := runSource(t, "(let [x 1] #{x (+ x 1)})")
	s, ok := v.(*value.Set)
	require.True(t, ok)
	_, found := s.Get(value.Int(2))
	require.True(t, found)
}

func TestRunAllConstantVectorFoldsButStillEvaluatesCorrectly(t *testing.T) {
	v, _ := runSource(t, "[1 2 3]")
	vec, ok := v.(*value.Vector)
	require.True(t, ok)
	require.Equal(t, 3, vec.Count())
}

// TestRunSetBangAsNonLastStatementLeavesStackBalanced guards the fix where
// SET_BANG's table entry undercounted its own net stack effect: set! used as
// a non-last statement inside do must not desync compileDo's POP from the
// runtime stack depth.
func TestRunSetBangAsNonLastStatementLeavesStackBalanced(t *testing.T) {
	v, _ := runSource(t, "(do (def *x* 1) (set! *x* 2) (+ 1 1))")
	require.Equal(t, value.Int(2), v)
}

func TestRunSetBangReturnsAssignedValue(t *testing.T) {
	v, _ := runSource(t, "(do (def *x* 1) (set! *x* 42))")
	require.Equal(t, value.Int(42), v)
}

func TestRunDefReturnsVar(t *testing.T) {
	_, e := runSource(t, "(def answer 42)")
	va, ok := e.FindOrCreateNamespace(env.UserNamespace).Resolve("answer")
	require.True(t, ok)
	require.Equal(t, value.Int(42), va.Deref())
}

func TestRunTryCatchHandlesThrow(t *testing.T) {
	v, _ := runSource(t, `(try (throw {:msg "boom"}) (catch _ e :caught))`)
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestRunDivideByZeroRaisesCatchableException(t *testing.T) {
	v, _ := runSource(t, "(try (/ 1 0) (catch _ e :caught))")
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestRunDivideByZeroCatchableByExceptionType(t *testing.T) {
	v, _ := runSource(t, `(try (/ 1 0) (catch Exception e :caught))`)
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestRunVariadicArithmeticBeyondTwoArgs(t *testing.T) {
	v, _ := runSource(t, "(+ 1 2 3)")
	require.Equal(t, value.Int(6), v)

	v, _ = runSource(t, "(- 10 1 2)")
	require.Equal(t, value.Int(7), v)

	v, _ = runSource(t, "(* 2 3 4)")
	require.Equal(t, value.Int(24), v)
}

func TestRunStandaloneComparisonOutsideIfTest(t *testing.T) {
	v, _ := runSource(t, "(< 1 2 3)")
	require.Equal(t, value.Bool(true), v)
}

func TestRunModRemNotEq(t *testing.T) {
	v, _ := runSource(t, "(mod -7 3)")
	require.Equal(t, value.Int(2), v)

	v, _ = runSource(t, "(rem -7 3)")
	require.Equal(t, value.Int(-1), v)

	v, _ = runSource(t, "(not= 1 2)")
	require.Equal(t, value.Bool(true), v)
}

func TestRunDefprotocolAndExtendTypeDispatch(t *testing.T) {
	v, _ := runSource(t, `
		(defprotocol Greeter (greet [this]))
		(extend-type vector Greeter (greet [this] :vector-greeting))
		(greet [1 2 3])
	`)
	require.Equal(t, value.NewKeyword("vector-greeting"), v)
}

func TestRunDefmultiDispatch(t *testing.T) {
	v, _ := runSource(t, `
		(defmulti area :shape)
		(defmethod area :circle [m] :circle-area)
		(defmethod area :default [m] :unknown-area)
		(area {:shape :circle})
	`)
	require.Equal(t, value.NewKeyword("circle-area"), v)
}

func TestRunWithMarkSweepCollector(t *testing.T) {
	r := reader.New([]byte("(let [f (fn [x] (fn [y] (+ x y)))] ((f 1) 2))"), reader.DefaultPolicy())
	forms, err := r.ReadAll()
	require.NoError(t, err)

	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	a := analyzer.New(e, ns)
	nodes := make([]*analyzer.Node, len(forms))
	for i, f := range forms {
		nodes[i] = a.Analyze(f)
	}
	require.Empty(t, a.Errors())

	chunk, err := compiler.Compile("test", nodes)
	require.NoError(t, err)

	th := vm.NewThread(e, gc.NewMarkSweep(1))
	result, err := th.Run(chunk)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), result)
}
