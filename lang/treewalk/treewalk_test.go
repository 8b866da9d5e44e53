package treewalk_test

import (
	"testing"

	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/treewalk"
	"github.com/cljcore/cljc/lang/value"
	"github.com/stretchr/testify/require"
)

// evalSource reads, analyzes and evaluates every form in src in order
// against a fresh Env with internal/corelib's DefaultLoader installed,
// returning the last form's result, mirroring lang/vm's own runSource test
// helper so the two backends are exercised against identical source text.
func evalSource(t *testing.T, src string) (value.Value, *env.Env) {
	t.Helper()
	r := reader.New([]byte(src), reader.DefaultPolicy())
	forms, err := r.ReadAll()
	require.NoError(t, err)

	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	reg := corelib.NewRegistry()
	_, err = corelib.Chain(ns, reg, corelib.DefaultLoader)
	require.NoError(t, err)
	treewalk.InstallCorelib(ns, reg)

	a := analyzer.New(e, ns)
	ev := treewalk.NewEvaluator(e)

	var result value.Value = value.Nil
	for _, f := range forms {
		n := a.Analyze(f)
		require.Empty(t, a.Errors())
		result, err = ev.Eval(n)
		require.NoError(t, err)
	}
	return result, e
}

func TestEvalArithmetic(t *testing.T) {
	v, _ := evalSource(t, "(+ (+ 1 2) 3)")
	require.Equal(t, value.Int(6), v)
}

func TestEvalOverflowPromotesToFloat(t *testing.T) {
	v, _ := evalSource(t, "(* 9223372036854775807 2)")
	_, ok := v.(value.Float)
	require.True(t, ok, "expected overflow to promote to float, got %T", v)
}

func TestEvalIfBranchesOnComparison(t *testing.T) {
	v, _ := evalSource(t, "(if (< 1 2) :yes :no)")
	require.Equal(t, value.NewKeyword("yes"), v)
}

func TestEvalLetBindsLocals(t *testing.T) {
	v, _ := evalSource(t, "(let [x 10 y 20] (+ x y))")
	require.Equal(t, value.Int(30), v)
}

func TestEvalLoopRecur(t *testing.T) {
	v, _ := evalSource(t, "(loop [i 0 acc 0] (if (< i 5) (recur (+ i 1) (+ acc i)) acc))")
	require.Equal(t, value.Int(10), v)
}

func TestEvalFnCallAndClosure(t *testing.T) {
	v, _ := evalSource(t, "(let [x 5] ((fn [y] (+ x y)) 7))")
	require.Equal(t, value.Int(12), v)
}

func TestEvalMultiArityFn(t *testing.T) {
	v, _ := evalSource(t, "(let [f (fn ([x] x) ([x y] (+ x y)))] (f 1 2))")
	require.Equal(t, value.Int(3), v)
}

func TestEvalNamedFnRecursion(t *testing.T) {
	v, _ := evalSource(t, "((fn fact [n] (if (< n 2) 1 (* n (fact (- n 1))))) 5)")
	require.Equal(t, value.Int(120), v)
}

func TestEvalNestedClosureCapture(t *testing.T) {
	v, _ := evalSource(t, "(let [f (fn [x] (fn [y] (+ x y)))] ((f 1) 2))")
	require.Equal(t, value.Int(3), v)
}

func TestEvalLiteralVectorEvaluatesElements(t *testing.T) {
	v, _ := evalSource(t, "(let [x 10] [x (+ 1 2)])")
	vec, ok := v.(*value.Vector)
	require.True(t, ok)
	require.Equal(t, 2, vec.Count())
	e0, _ := vec.Nth(0)
	e1, _ := vec.Nth(1)
	require.Equal(t, value.Int(10), e0)
	require.Equal(t, value.Int(3), e1)
}

func TestEvalLiteralMapEvaluatesElements(t *testing.T) {
	v, _ := evalSource(t, `(let [x 1] {:a x :b (+ x 1)})`)
	m, ok := v.(*value.ArrayMap)
	require.True(t, ok)
	got, found := m.Get(value.NewKeyword("b"))
	require.True(t, found)
	require.Equal(t, value.Int(2), got)
}

func TestEvalLiteralSetEvaluatesElements(t *testing.T) {
	v, _ := evalSource(t, "(let [x 1] #{x (+ x 1)})")
	s, ok := v.(*value.Set)
	require.True(t, ok)
	_, found := s.Get(value.Int(2))
	require.True(t, found)
}

func TestEvalSetBangOnLocal(t *testing.T) {
	v, _ := evalSource(t, "(let [x 1] (set! x 2) x)")
	require.Equal(t, value.Int(2), v)
}

func TestEvalSetBangReturnsAssignedValue(t *testing.T) {
	v, _ := evalSource(t, "(do (def *x* 1) (set! *x* 42))")
	require.Equal(t, value.Int(42), v)
}

func TestEvalDefReturnsVar(t *testing.T) {
	_, e := evalSource(t, "(def answer 42)")
	va, ok := e.FindOrCreateNamespace(env.UserNamespace).Resolve("answer")
	require.True(t, ok)
	require.Equal(t, value.Int(42), va.Deref())
}

func TestEvalTryCatchHandlesThrow(t *testing.T) {
	v, _ := evalSource(t, `(try (throw {:msg "boom"}) (catch _ e :caught))`)
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestEvalDivideByZeroRaisesCatchableException(t *testing.T) {
	v, _ := evalSource(t, "(try (/ 1 0) (catch _ e :caught))")
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestEvalDivideByZeroCatchableByExceptionType(t *testing.T) {
	v, _ := evalSource(t, `(try (/ 1 0) (catch Exception e :caught))`)
	require.Equal(t, value.NewKeyword("caught"), v)
}

func TestEvalVariadicArithmeticBeyondTwoArgs(t *testing.T) {
	v, _ := evalSource(t, "(+ 1 2 3)")
	require.Equal(t, value.Int(6), v)

	v, _ = evalSource(t, "(- 10 1 2)")
	require.Equal(t, value.Int(7), v)
}

func TestEvalStandaloneComparisonOutsideIfTest(t *testing.T) {
	v, _ := evalSource(t, "(< 1 2 3)")
	require.Equal(t, value.Bool(true), v)
}

func TestEvalModRemNotEq(t *testing.T) {
	v, _ := evalSource(t, "(mod -7 3)")
	require.Equal(t, value.Int(2), v)

	v, _ = evalSource(t, "(not= 1 2)")
	require.Equal(t, value.Bool(true), v)
}

func TestEvalTryFinallyAlwaysRuns(t *testing.T) {
	v, _ := evalSource(t, `
		(def *ran* false)
		(try (throw {:msg "boom"}) (catch _ e :caught) (finally (set! *ran* true)))
		*ran*
	`)
	require.Equal(t, value.Bool(true), v)
}

func TestEvalDefprotocolAndExtendTypeDispatch(t *testing.T) {
	v, _ := evalSource(t, `
		(defprotocol Greeter (greet [this]))
		(extend-type vector Greeter (greet [this] :vector-greeting))
		(greet [1 2 3])
	`)
	require.Equal(t, value.NewKeyword("vector-greeting"), v)
}

func TestEvalDefmultiDispatch(t *testing.T) {
	v, _ := evalSource(t, `
		(defmulti area :shape)
		(defmethod area :circle [m] :circle-area)
		(defmethod area :default [m] :unknown-area)
		(area {:shape :circle})
	`)
	require.Equal(t, value.NewKeyword("circle-area"), v)
}

func TestCompareAgreesOnIdenticalSource(t *testing.T) {
	src := `
		(defprotocol Greeter (greet [this]))
		(extend-type vector Greeter (greet [this] :vector-greeting))
		(def fact (fn fact [n] (if (< n 2) 1 (* n (fact (- n 1))))))
		(loop [i 0 acc 0] (if (< i 5) (recur (+ i 1) (+ acc i)) acc))
		(try (/ 1 0) (catch _ e :caught))
		(greet [1 2 3])
		(fact 5)
	`
	results, err := treewalk.Compare([]byte(src))
	require.NoError(t, err)
	require.Len(t, results, 7)
	require.Equal(t, value.Int(120), results[6].Value)
}

func TestCompareAgreesOnMultimethodDispatch(t *testing.T) {
	src := `
		(defmulti area :shape)
		(defmethod area :circle [m] :circle-area)
		(defmethod area :default [m] :unknown-area)
		(area {:shape :circle})
	`
	results, err := treewalk.Compare([]byte(src))
	require.NoError(t, err)
	require.Equal(t, value.NewKeyword("circle-area"), results[len(results)-1].Value)
}

func TestCompareAgreesOnVariadicArithmeticAndCatchAll(t *testing.T) {
	src := `
		(+ 1 2 3)
		(< 1 2 3)
		(mod -7 3)
		(not= 1 2)
		(try (/ 1 0) (catch Exception e :caught))
	`
	results, err := treewalk.Compare([]byte(src))
	require.NoError(t, err)
	require.Len(t, results, 5)
	require.Equal(t, value.Int(6), results[0].Value)
	require.Equal(t, value.Bool(true), results[1].Value)
	require.Equal(t, value.Int(2), results[2].Value)
	require.Equal(t, value.Bool(true), results[3].Value)
	require.Equal(t, value.NewKeyword("caught"), results[4].Value)
}
