package persist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/treewalk"
	"github.com/cljcore/cljc/lang/value"
)

func roundTripValue(t *testing.T, v value.Value) value.Value {
	t.Helper()
	var body bytes.Buffer
	st := newStringTable()
	w := newWriter(&body)
	require.NoError(t, writeValue(w, st, v))

	var strTableBuf bytes.Buffer
	st.write(newWriter(&strTableBuf))
	strs := readStringTable(newReader(&strTableBuf))

	got, err := readValue(newReader(&body), strs)
	require.NoError(t, err)
	return got
}

func TestValueRoundTrip(t *testing.T) {
	cases := []value.Value{
		value.Nil,
		value.Bool(true),
		value.Bool(false),
		value.Int(-42),
		value.Float(3.25),
		value.Char('x'),
		value.String("hello"),
		value.NewSymbol("foo"),
		value.NewQualifiedSymbol("ns.core", "bar"),
		value.NewKeyword("kw"),
		value.NewQualifiedKeyword("ns", "kw"),
		value.NewList(value.Int(1), value.Int(2), value.Int(3)),
		value.NewVector([]value.Value{value.Int(1), value.String("a")}),
		value.NewArrayMap(value.NewKeyword("a"), value.Int(1), value.NewKeyword("b"), value.Int(2)),
		value.NewSet(value.Int(1), value.Int(2), value.Int(3)),
		value.NewAtom(value.Int(7)),
		value.NewVolatile(value.String("v")),
		value.Ratio{Text: "1/3"},
		value.BigInt{Text: "123456789012345678901234567890"},
		value.BigDecimal{Text: "3.14159265358979323846"},
		value.Regex{Pattern: "[a-z]+"},
	}
	for _, c := range cases {
		got := roundTripValue(t, c)
		require.True(t, value.Equal(c, got), "round trip mismatch for %s: got %s", value.Print(c), value.Print(got))
	}
}

func TestVarRefRoundTrip(t *testing.T) {
	got := roundTripValue(t, value.NewVar("user", "x"))
	v, ok := got.(*value.Var)
	require.True(t, ok)
	require.Equal(t, "user", v.Ns)
	require.Equal(t, "x", v.Name)
}

func TestWriteValueRefusesTreeWalkClosure(t *testing.T) {
	cl := &treewalk.Closure{}
	var body bytes.Buffer
	st := newStringTable()
	err := writeValue(newWriter(&body), st, cl)
	require.Error(t, err)
	_, ok := err.(*ErrNotPersistable)
	require.True(t, ok)
}

func TestChunkRoundTrip(t *testing.T) {
	chunk := &compiler.Chunk{
		Name: "test-chunk",
		Toplevel: &compiler.FnProto{
			Arities: []compiler.Arity{
				{
					Code:      []byte{0x01, 0x00, 0x00},
					NumParams: 0,
					SelfSlot:  -1,
					MaxStack:  4,
				},
			},
		},
		Constants: []value.Value{value.Int(1), value.String("hi")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteChunk(&buf, chunk))

	got, err := ReadChunk(&buf)
	require.NoError(t, err)
	require.Equal(t, chunk.Name, got.Name)
	require.Len(t, got.Constants, 2)
	require.True(t, value.Equal(chunk.Constants[0], got.Constants[0]))
	require.True(t, value.Equal(chunk.Constants[1], got.Constants[1]))
	require.Equal(t, chunk.Toplevel.Arities[0].Code, got.Toplevel.Arities[0].Code)
	require.Equal(t, chunk.Toplevel.Arities[0].MaxStack, got.Toplevel.Arities[0].MaxStack)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := env.NewEnv()
	ns := e.FindOrCreateNamespace("user")
	v := ns.Intern("answer")
	v.BindRoot(value.Int(42))
	v.Doc = "the answer"

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, e))

	snap, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	e2 := env.NewEnv()
	Apply(e2, snap)
	v2, ok := e2.FindOrCreateNamespace("user").Resolve("answer")
	require.True(t, ok)
	require.Equal(t, value.Int(42), v2.Deref())
	require.Equal(t, "the answer", v2.Doc)
}
