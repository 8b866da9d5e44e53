package reader_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOne(t *testing.T, src string) reader.Form {
	t.Helper()
	r := reader.New([]byte(src), reader.DefaultPolicy())
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	return f
}

func TestReadAtoms(t *testing.T) {
	cases := []struct {
		src  string
		kind reader.Kind
		want string
	}{
		{"nil", reader.KindNil, "nil"},
		{"true", reader.KindBool, "true"},
		{"false", reader.KindBool, "false"},
		{"42", reader.KindInt, "42"},
		{"-7", reader.KindInt, "-7"},
		{"0x1F", reader.KindInt, "31"},
		{"3.14", reader.KindFloat, "3.14"},
		{"1/2", reader.KindRatio, "1/2"},
		{"10N", reader.KindBigInt, "10"},
		{"1.5M", reader.KindBigDecimal, "1.5"},
		{`"hi there"`, reader.KindString, `"hi there"`},
		{"foo", reader.KindSymbol, "foo"},
		{"ns/foo", reader.KindSymbol, "ns/foo"},
		{":kw", reader.KindKeyword, ":kw"},
		{":ns/kw", reader.KindKeyword, ":ns/kw"},
		{`\a`, reader.KindChar, `\a`},
		{`\newline`, reader.KindChar, `\newline`},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			f := readOne(t, tc.src)
			assert.Equal(t, tc.kind, f.Kind)
			if tc.kind != reader.KindInt {
				assert.Equal(t, tc.want, f.String())
			}
		})
	}
}

func TestReadIntBases(t *testing.T) {
	assert.Equal(t, int64(31), readOne(t, "0x1F").Int)
	assert.Equal(t, int64(8), readOne(t, "010").Int) // leading-zero octal
	assert.Equal(t, int64(5), readOne(t, "2r101").Int)
}

func TestReadCollections(t *testing.T) {
	f := readOne(t, "(1 2 3)")
	require.Equal(t, reader.KindList, f.Kind)
	require.Len(t, f.Elems, 3)

	v := readOne(t, "[:a :b]")
	require.Equal(t, reader.KindVector, v.Kind)
	require.Len(t, v.Elems, 2)

	s := readOne(t, "#{1 2 3}")
	require.Equal(t, reader.KindSet, s.Kind)

	m := readOne(t, "{:a 1 :b 2}")
	require.Equal(t, reader.KindMap, m.Kind)
	require.Len(t, m.Elems, 4)
}

func TestMapLiteralOddElementsErrors(t *testing.T) {
	r := reader.New([]byte("{:a}"), reader.DefaultPolicy())
	_, _, err := r.ReadOne()
	assert.Error(t, err)
}

func TestQuoteExpandsToQuoteCall(t *testing.T) {
	f := readOne(t, "'foo")
	require.Equal(t, reader.KindList, f.Kind)
	require.Len(t, f.Elems, 2)
	assert.Equal(t, "quote", f.Elems[0].Name)
	assert.Equal(t, "foo", f.Elems[1].Name)
}

func TestDerefExpandsToDerefCall(t *testing.T) {
	f := readOne(t, "@a")
	assert.Equal(t, "deref", f.Elems[0].Name)
}

func TestDiscardSkipsForm(t *testing.T) {
	r := reader.New([]byte("#_(ignored 1 2) :kept"), reader.DefaultPolicy())
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reader.KindKeyword, f.Kind)
	assert.Equal(t, "kept", f.Name)
}

func TestDispatchHashUnderscoreNeverReadsAsSymbol(t *testing.T) {
	// "#_foo" must never tokenize as a symbol literally named "_foo"; it is a
	// discard of the symbol "foo".
	r := reader.New([]byte("#_foo bar"), reader.DefaultPolicy())
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bar", f.Name)
}

func TestFnLiteralDesugarsPercentArgs(t *testing.T) {
	f := readOne(t, "#(+ %1 %2)")
	require.Equal(t, reader.KindList, f.Kind)
	assert.Equal(t, "fn*", f.Elems[0].Name)
	params := f.Elems[1]
	require.Equal(t, reader.KindVector, params.Kind)
	require.Len(t, params.Elems, 2)
	assert.Equal(t, "%1", params.Elems[0].Name)
	assert.Equal(t, "%2", params.Elems[1].Name)
}

func TestFnLiteralVariadic(t *testing.T) {
	f := readOne(t, "#(apply + %&)")
	params := f.Elems[1]
	names := []string{}
	for _, p := range params.Elems {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"&", "%&"}, names)
}

func TestReaderConditionalPicksMatchingFeature(t *testing.T) {
	r := reader.New([]byte(`#?(:clj 1 :cljs 2 :default 3)`), reader.DefaultPolicy(), "clj")
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reader.KindInt, f.Kind)
	assert.Equal(t, int64(1), f.Int)
}

func TestReaderConditionalFallsBackToDefault(t *testing.T) {
	r := reader.New([]byte(`#?(:cljs 2 :default 3)`), reader.DefaultPolicy(), "clj")
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), f.Int)
}

func TestReaderConditionalNoMatchSkipsToNextForm(t *testing.T) {
	r := reader.New([]byte(`#?(:cljs 2) :kept`), reader.DefaultPolicy(), "clj")
	f, ok, err := r.ReadOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", f.Name)
}

func TestSyntaxQuoteAutoGensymStableWithinExpansion(t *testing.T) {
	f := readOne(t, "`(let [x# 1] (+ x# x#))")
	// The expansion is (concat (list 'let) (list (vec (concat ...))) ...); the
	// important property under test is that every occurrence of x# inside the
	// single syntax-quote mapped to the same fresh name. We look it up by
	// re-scanning the printed form for two identical "__N__auto" tokens.
	printed := f.String()
	assert.Contains(t, printed, "__auto")
	// crude but effective: count occurrences of the generated name.
	name := extractGensymName(printed)
	require.NotEmpty(t, name)
	assert.GreaterOrEqual(t, countOccurrences(printed, name), 2)
}

func TestTaggedLiteralReadsAsTagForm(t *testing.T) {
	f := readOne(t, `#inst "2020-01-01"`)
	require.Equal(t, reader.KindTag, f.Kind)
	assert.Equal(t, "inst", f.TagName)
	assert.Equal(t, reader.KindString, f.Inner.Kind)
}

func TestRegexLiteral(t *testing.T) {
	f := readOne(t, `#"a.*b"`)
	require.Equal(t, reader.KindRegex, f.Kind)
	assert.Equal(t, "a.*b", f.Str)
}

func TestSymbolicFloats(t *testing.T) {
	assert.Equal(t, reader.KindFloat, readOne(t, "##Inf").Kind)
	assert.Equal(t, reader.KindFloat, readOne(t, "##-Inf").Kind)
	assert.Equal(t, reader.KindFloat, readOne(t, "##NaN").Kind)
}

func TestToValueLowersLiteralCollection(t *testing.T) {
	f := readOne(t, "[1 2 :a]")
	v, err := f.ToValue()
	require.NoError(t, err)
	assert.Equal(t, "[1 2 :a]", v.String())
}

func extractGensymName(s string) string {
	idx := indexOf(s, "__")
	if idx < 0 {
		return ""
	}
	start := idx
	for start > 0 && s[start-1] != ' ' && s[start-1] != '(' {
		start--
	}
	end := idx
	for end < len(s) && s[end] != ' ' && s[end] != ')' {
		end++
	}
	return s[start:end]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
			i += len(sub) - 1
		}
	}
	return count
}
