package token_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestMakePosRoundTrip(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{1, 80},
		{42, 7},
		{token.MaxLine, 1},
		{1, token.MaxCol},
	}
	for _, c := range cases {
		p := token.MakePos(c.line, c.col)
		gotLine, gotCol := p.LineCol()
		assert.Equal(t, c.line, gotLine)
		assert.Equal(t, c.col, gotCol)
		assert.True(t, p.IsValid())
	}
}

func TestPosZeroIsUnknown(t *testing.T) {
	var p token.Pos
	assert.False(t, p.IsValid())
	assert.Equal(t, "-", p.String())
}

func TestPosString(t *testing.T) {
	p := token.MakePos(3, 9)
	assert.Equal(t, "3:9", p.String())
}
