package token_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/token"
	"github.com/stretchr/testify/assert"
)

func TestTokenString(t *testing.T) {
	assert.Equal(t, "(", token.LPAREN.String())
	assert.Equal(t, "#_", token.HASHUNDERSCORE.String())
	assert.Equal(t, "end of file", token.EOF.String())
	assert.Equal(t, "unknown token", token.Token(120).String())
}
