package analyzer_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeOne(t *testing.T, src string) (*analyzer.Node, *analyzer.Analyzer) {
	t.Helper()
	r := reader.New([]byte(src), reader.DefaultPolicy())
	forms, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, forms, 1)

	e := env.NewEnv()
	ns := e.FindOrCreateNamespace(env.UserNamespace)
	a := analyzer.New(e, ns)
	n := a.Analyze(forms[0])
	return n, a
}

func TestAnalyzeConstant(t *testing.T) {
	n, a := analyzeOne(t, "42")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KConst, n.Kind)
	assert.Equal(t, value.Int(42), n.Const.(value.Int))
}

func TestAnalyzeIfDefaultsElseToNil(t *testing.T) {
	n, a := analyzeOne(t, "(if true 1)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KIf, n.Kind)
	require.Equal(t, analyzer.KConst, n.Else.Kind)
	assert.Equal(t, value.Nil, n.Else.Const)
}

func TestAnalyzeIfWrongArityFails(t *testing.T) {
	_, a := analyzeOne(t, "(if true)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeLetResolvesLocalAndShadows(t *testing.T) {
	n, a := analyzeOne(t, "(let [x 1 x (+ x 1)] x)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KLet, n.Kind)
	require.Len(t, n.Bindings, 2)

	body := n.Body
	require.Equal(t, analyzer.KDo, body.Kind)
	ref := body.Elems[len(body.Elems)-1]
	require.Equal(t, analyzer.KLocalRef, ref.Kind)
	assert.Same(t, n.Bindings[1], ref.Local)
}

func TestAnalyzeLetMalformedBindingVectorFails(t *testing.T) {
	_, a := analyzeOne(t, "(let [x] x)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeUnqualifiedSymbolFallsBackToVarRef(t *testing.T) {
	n, a := analyzeOne(t, "unresolved-name")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KVarRef, n.Kind)
	assert.Equal(t, "unresolved-name", n.Name)
}

func TestAnalyzeFnSingleArity(t *testing.T) {
	n, a := analyzeOne(t, "(fn [x] x)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KFn, n.Kind)
	require.Len(t, n.Arities, 1)
	assert.Len(t, n.Arities[0].Params, 1)
	assert.False(t, n.Arities[0].Variadic)
}

func TestAnalyzeFnVariadicArity(t *testing.T) {
	n, a := analyzeOne(t, "(fn [x & rest] rest)")
	require.Empty(t, a.Errors())
	require.True(t, n.Arities[0].Variadic)
	require.Len(t, n.Arities[0].Params, 2)
}

func TestAnalyzeFnTwoVariadicArityFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn ([x & r] r) ([y & s] s))")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeFnDuplicateFixedArityFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn ([x] x) ([y] y))")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeFnDuplicateParamNameFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn [x x] x)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeFnAmpWithoutRestParamFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn [x &] x)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeFnCapturesOuterLocal(t *testing.T) {
	n, a := analyzeOne(t, "(let [x 1] (fn [y] (+ x y)))")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KLet, n.Kind)

	body := n.Body
	fnNode := body.Elems[len(body.Elems)-1]
	require.Equal(t, analyzer.KFn, fnNode.Kind)
	require.Len(t, fnNode.Captures, 1)
	assert.Same(t, n.Bindings[0], fnNode.Captures[0])
}

func TestAnalyzeFnDoesNotCaptureOwnParams(t *testing.T) {
	n, a := analyzeOne(t, "(fn [x] (+ x x))")
	require.Empty(t, a.Errors())
	assert.Empty(t, n.Captures)
}

func TestAnalyzeRecurOutsideTailFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn [x] (recur x) (+ x 1))")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeRecurArityMismatchFails(t *testing.T) {
	_, a := analyzeOne(t, "(fn [x y] (recur x))")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeRecurInFnTailTargetsArity(t *testing.T) {
	n, a := analyzeOne(t, "(fn [x] (recur x))")
	require.Empty(t, a.Errors())
	body := n.Arities[0].Body
	recurNode := body.Elems[len(body.Elems)-1]
	require.Equal(t, analyzer.KRecur, recurNode.Kind)
	assert.Equal(t, -1, recurNode.LoopID)
}

func TestAnalyzeRecurInLoopTargetsLoop(t *testing.T) {
	n, a := analyzeOne(t, "(loop [x 0] (recur (+ x 1)))")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KLoop, n.Kind)
	recurNode := n.Body.Elems[len(n.Body.Elems)-1]
	require.Equal(t, analyzer.KRecur, recurNode.Kind)
	assert.Equal(t, n.LoopID, recurNode.LoopID)
}

func TestAnalyzeDefRecordsFlagsAndInit(t *testing.T) {
	n, a := analyzeOne(t, "(def x 10)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KDef, n.Kind)
	assert.Equal(t, "x", n.Name)
	assert.Equal(t, analyzer.KConst, n.Init.Kind)
}

func TestAnalyzeDefDynamicEarmuffSetsFlag(t *testing.T) {
	n, a := analyzeOne(t, "(def *out* nil)")
	require.Empty(t, a.Errors())
	assert.True(t, n.DefFlags.Has(value.FlagDynamic))
}

func TestAnalyzeDefMacroBuildsFn(t *testing.T) {
	n, a := analyzeOne(t, "(defmacro m [x] x)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KDef, n.Kind)
	assert.True(t, n.DefFlags.Has(value.FlagMacro))
	require.Equal(t, analyzer.KFn, n.Init.Kind)
}

func TestAnalyzeSetBangRequiresAssignableTarget(t *testing.T) {
	_, a := analyzeOne(t, "(set! 1 2)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeSetBangOnLocal(t *testing.T) {
	n, a := analyzeOne(t, "(let [x 1] (set! x 2))")
	require.Empty(t, a.Errors())
	setNode := n.Body.Elems[len(n.Body.Elems)-1]
	require.Equal(t, analyzer.KSetBang, setNode.Kind)
	assert.Equal(t, analyzer.KLocalRef, setNode.Target.Kind)
}

func TestAnalyzeThrowRequiresOneArg(t *testing.T) {
	_, a := analyzeOne(t, "(throw)")
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeTryWithCatchAndFinally(t *testing.T) {
	n, a := analyzeOne(t, `(try (foo) (catch Error e e) (finally (bar)))`)
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KTry, n.Kind)
	require.NotNil(t, n.Catch)
	assert.Equal(t, "Error", n.Catch.ExceptionType)
	require.NotNil(t, n.Finally)
}

func TestAnalyzeTryTwoCatchClausesFails(t *testing.T) {
	_, a := analyzeOne(t, `(try (foo) (catch Error e e) (catch Other e2 e2))`)
	assert.NotEmpty(t, a.Errors())
}

func TestAnalyzeCatchExceptionIsCatchAll(t *testing.T) {
	n, a := analyzeOne(t, `(try (foo) (catch Exception e e))`)
	require.Empty(t, a.Errors())
	require.NotNil(t, n.Catch)
	assert.Equal(t, "", n.Catch.ExceptionType)
}

func TestAnalyzeCatchUnderscoreIsCatchAll(t *testing.T) {
	n, a := analyzeOne(t, `(try (foo) (catch _ e e))`)
	require.Empty(t, a.Errors())
	require.NotNil(t, n.Catch)
	assert.Equal(t, "", n.Catch.ExceptionType)
}

func TestAnalyzeDefMultiAndMethod(t *testing.T) {
	multi, a := analyzeOne(t, "(defmulti area :shape)")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KDefMulti, multi.Kind)
	assert.Equal(t, "area", multi.Name)

	method, a2 := analyzeOne(t, "(defmethod area :square [s] s)")
	require.Empty(t, a2.Errors())
	require.Equal(t, analyzer.KDefMethod, method.Kind)
	assert.Equal(t, "area", method.MultiName)
	require.Equal(t, analyzer.KFn, method.MethodFn.Kind)
}

func TestAnalyzeDefProtocolAndExtendType(t *testing.T) {
	proto, a := analyzeOne(t, "(defprotocol Shape (area [this]) (perimeter [this]))")
	require.Empty(t, a.Errors())
	require.Equal(t, analyzer.KDefProtocol, proto.Kind)
	assert.Equal(t, []string{"area", "perimeter"}, proto.ProtocolMethods)

	ext, a2 := analyzeOne(t, "(extend-type Square Shape (area [this] (* (:side this) (:side this))))")
	require.Empty(t, a2.Errors())
	require.Equal(t, analyzer.KExtendType, ext.Kind)
	assert.Equal(t, "Square", ext.TypeTag)
	assert.Equal(t, "Shape", ext.ProtocolName)
	require.Contains(t, ext.ExtendMethods, "area")
}
