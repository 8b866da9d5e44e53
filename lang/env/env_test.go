package env_test

import (
	"testing"

	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvPreCreatesCoreAndUser(t *testing.T) {
	e := env.NewEnv()
	require.NotNil(t, e.FindNamespace(env.CoreNamespace))
	require.NotNil(t, e.FindNamespace(env.UserNamespace))
}

func TestInternReturnsStableVar(t *testing.T) {
	e := env.NewEnv()
	user := e.FindOrCreateNamespace("user")
	v1 := user.Intern("x")
	v2 := user.Intern("x")
	assert.Same(t, v1, v2)
}

func TestReferResolvesUnqualifiedAcrossNamespaces(t *testing.T) {
	e := env.NewEnv()
	core := e.FindOrCreateNamespace(env.CoreNamespace)
	user := e.FindOrCreateNamespace(env.UserNamespace)

	coreVar := core.Intern("inc")
	user.Refer("inc", coreVar)

	v, ok := user.Resolve("inc")
	require.True(t, ok)
	assert.Same(t, coreVar, v)
}

func TestAliasResolvesQualifiedSymbol(t *testing.T) {
	e := env.NewEnv()
	str := e.FindOrCreateNamespace("clojure.string")
	joinVar := str.Intern("join")

	user := e.FindOrCreateNamespace(env.UserNamespace)
	user.SetAlias("str", "clojure.string")

	v, ok := e.ResolveQualified(user, "str", "join")
	require.True(t, ok)
	assert.Same(t, joinVar, v)

	v2, ok := e.ResolveSymbol(user, value.NewQualifiedSymbol("str", "join"))
	require.True(t, ok)
	assert.Same(t, joinVar, v2)
}

func TestCurrentNamespaceDefaultsToUserAndIsMovable(t *testing.T) {
	e := env.NewEnv()
	require.Equal(t, env.UserNamespace, e.CurrentNamespace().Name)

	e.SetCurrentNamespace("scratch")
	require.Equal(t, "scratch", e.CurrentNamespace().Name)
	require.NotNil(t, e.FindNamespace("scratch"))

	e.SetCurrentNamespaceName(env.UserNamespace)
	assert.Equal(t, env.UserNamespace, e.CurrentNamespace().Name)
}

func TestResolveSymbolUnqualifiedUsesOwnThenRefers(t *testing.T) {
	e := env.NewEnv()
	user := e.FindOrCreateNamespace(env.UserNamespace)
	v := user.Intern("y")

	resolved, ok := e.ResolveSymbol(user, value.NewSymbol("y"))
	require.True(t, ok)
	assert.Same(t, v, resolved)
}
