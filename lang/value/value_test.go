package value_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	falsy := []value.Value{value.Nil, value.False}
	for _, v := range falsy {
		assert.False(t, value.Truth(v), "%v should be falsy", v)
	}

	truthy := []value.Value{
		value.True, value.Int(0), value.String(""), value.EmptyList, value.EmptyVector,
	}
	for _, v := range truthy {
		assert.True(t, value.Truth(v), "%v should be truthy", v)
	}
}

func TestNumericCrossEquality(t *testing.T) {
	assert.True(t, value.Equal(value.Int(3), value.Float(3.0)))
	assert.True(t, value.Equal(value.Float(3.0), value.Int(3)))
	assert.False(t, value.Equal(value.Int(3), value.Float(3.1)))
}

func TestSequentialEquality(t *testing.T) {
	l := value.NewList(value.Int(1), value.Int(2), value.Int(3))
	v := value.NewVector([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	assert.True(t, value.Equal(l, v))
	assert.True(t, value.Equal(v, l))

	other := value.NewVector([]value.Value{value.Int(1), value.Int(2)})
	assert.False(t, value.Equal(v, other))
}

func TestMapEqualityOrderIndependent(t *testing.T) {
	a := value.NewArrayMap(value.NewKeyword("a"), value.Int(1), value.NewKeyword("b"), value.Int(2))
	b := value.NewArrayMap(value.NewKeyword("b"), value.Int(2), value.NewKeyword("a"), value.Int(1))
	assert.True(t, value.Equal(a, b))
}

func TestSetEqualityOrderIndependent(t *testing.T) {
	a := value.NewSet(value.Int(1), value.Int(2), value.Int(3))
	b := value.NewSet(value.Int(3), value.Int(1), value.Int(2))
	assert.True(t, value.Equal(a, b))
}

func TestListConsAndSeq(t *testing.T) {
	l := value.EmptyList.Cons(value.Int(3)).Cons(value.Int(2)).Cons(value.Int(1))
	require.Equal(t, 3, l.Count())
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, l.Seq())
	assert.Equal(t, "(1 2 3)", l.String())
}

func TestVectorConjAssocPersistent(t *testing.T) {
	v1 := value.NewVector([]value.Value{value.Int(1), value.Int(2)})
	v2 := v1.Conj(value.Int(3))
	assert.Equal(t, 2, v1.Count())
	assert.Equal(t, 3, v2.Count())

	v3, ok := v1.Assoc(0, value.Int(99))
	require.True(t, ok)
	assert.Equal(t, value.Int(1), mustNth(t, v1, 0))
	assert.Equal(t, value.Int(99), mustNth(t, v3, 0))
}

func mustNth(t *testing.T, v *value.Vector, i int) value.Value {
	t.Helper()
	x, ok := v.Nth(i)
	require.True(t, ok)
	return x
}

func TestArrayMapAssocWithoutPersistent(t *testing.T) {
	m := value.NewArrayMap(value.NewKeyword("a"), value.Int(1))
	m2 := m.Assoc(value.NewKeyword("b"), value.Int(2))
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 2, m2.Count())

	m3 := m2.Without(value.NewKeyword("a"))
	assert.Equal(t, 1, m3.Count())
	_, found := m3.Get(value.NewKeyword("a"))
	assert.False(t, found)
}

func TestArrayMapPromotion(t *testing.T) {
	m := value.NewMapBuilder(32)
	for i := 0; i < 50; i++ {
		m.SetKey(value.Int(i), value.Int(i*i))
	}
	assert.Equal(t, 50, m.Count())
	v, ok := m.Get(value.Int(17))
	require.True(t, ok)
	assert.Equal(t, value.Int(289), v)
}

func TestSetPromotionAndDisj(t *testing.T) {
	s := value.NewSet()
	for i := 0; i < 20; i++ {
		s = s.Conj(value.Int(i))
	}
	assert.Equal(t, 20, s.Count())
	assert.True(t, s.Has(value.Int(5)))
	s2 := s.Disj(value.Int(5))
	assert.False(t, s2.Has(value.Int(5)))
	assert.True(t, s.Has(value.Int(5)), "original set must stay unmodified")
}

func TestVarBindingStack(t *testing.T) {
	v := value.NewVar("user", "x")
	v.BindRoot(value.Int(1))
	assert.Equal(t, value.Int(1), v.Deref())

	v.SetFlags(value.FlagDynamic)
	v.PushBinding(value.Int(2))
	assert.Equal(t, value.Int(2), v.Deref())
	v.SetDynamicBinding(value.Int(3))
	assert.Equal(t, value.Int(3), v.Deref())
	v.PopBinding()
	assert.Equal(t, value.Int(1), v.Deref())
}

func TestAtomCompareAndSet(t *testing.T) {
	a := value.NewAtom(value.Int(1))
	assert.False(t, a.CompareAndSet(value.Int(2), value.Int(99)))
	assert.True(t, a.CompareAndSet(value.Int(1), value.Int(99)))
	assert.Equal(t, value.Int(99), a.Deref())
}

func TestPrintQuotesStringsAndChars(t *testing.T) {
	v := value.NewVector([]value.Value{value.String("hi"), value.Char('a'), value.Char('\n')})
	assert.Equal(t, `["hi" \a \newline]`, v.String())
}
