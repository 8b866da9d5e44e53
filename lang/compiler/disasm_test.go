package compiler_test

import (
	"strings"
	"testing"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) *compiler.Chunk {
	t.Helper()
	r := reader.New([]byte(src), reader.DefaultPolicy())
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
	return chunk
}

func assertDisasm(t *testing.T, src, want string) {
	t.Helper()
	chunk := compileSource(t, src)
	got := compiler.Disassemble(chunk)
	if got != want {
		t.Fatalf("disassembly mismatch:\n%s", diff.Diff(want, got))
	}
}

func TestCompileConstant(t *testing.T) {
	chunk := compileSource(t, "42")
	require.Len(t, chunk.Constants, 1)
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "const")
	require.Contains(t, out, "ret")
}

func TestCompileArithmeticFusesOpcode(t *testing.T) {
	chunk := compileSource(t, "(+ 1 2)")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "add")
	require.NotContains(t, out, "call")
}

func TestCompileIfFusesComparison(t *testing.T) {
	chunk := compileSource(t, "(if (< 1 2) 3 4)")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "cmp_jump_if_false")
	require.NotContains(t, out, " jump_if_false")
}

func TestCompileLetAllocatesLocals(t *testing.T) {
	chunk := compileSource(t, "(let [x 1 y 2] (+ x y))")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "load_local")
	require.Contains(t, out, "pop_under")
}

func TestCompileFnEmitsClosureAndProto(t *testing.T) {
	chunk := compileSource(t, "(fn [x] x)")
	require.Len(t, chunk.Protos, 1)
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "proto 0")
	require.Contains(t, out, "closure")
}

func TestCompileFnCapturesOuterLocal(t *testing.T) {
	chunk := compileSource(t, "(let [x 1] (fn [y] (+ x y)))")
	require.Len(t, chunk.Protos, 1)
	require.Len(t, chunk.Protos[0].Captures, 1)
	assert := require.New(t)
	assert.Equal("x", chunk.Protos[0].Captures[0].Name)
}

func TestCompileMultiArityFnSharesOneProto(t *testing.T) {
	chunk := compileSource(t, "(fn ([x] x) ([x y] (+ x y)))")
	require.Len(t, chunk.Protos, 1)
	require.Len(t, chunk.Protos[0].Arities, 2)
}

func TestCompileLoopRecurFusesLoop(t *testing.T) {
	chunk := compileSource(t, "(loop [x 0] (if (< x 10) (recur (+ x 1)) x))")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "recur_loop")
}

func TestCompileDefEmitsVarDef(t *testing.T) {
	chunk := compileSource(t, "(def answer 42)")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "var_def")
}

func TestCompileDynamicDefEmitsVarDefDynamic(t *testing.T) {
	chunk := compileSource(t, "(def *out* nil)")
	out := compiler.Disassemble(chunk)
	require.Contains(t, out, "var_def_dynamic")
}

func TestCompileTryEmitsCatchSpec(t *testing.T) {
	chunk := compileSource(t, `(try (foo) (catch Error e e))`)
	arity := chunk.Toplevel.Arities[0]
	require.Len(t, arity.Catches, 1)
	require.Equal(t, "Error", arity.Catches[0].ExceptionType)
}

func TestCompileSequenceOfTopLevelFormsPopsAllButLast(t *testing.T) {
	chunk := compileSource(t, "1 2 3")
	out := compiler.Disassemble(chunk)
	require.Equal(t, 2, strings.Count(out, "pop "))
}
