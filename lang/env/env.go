// Package env implements namespaces, the var registry, and the alias/refer
// resolution rules the analyzer and VM rely on to turn a symbol into a
// concrete Var.
package env

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/cljcore/cljc/lang/value"
)

// CoreNamespace and UserNamespace are pre-created by NewEnv so the
// namespaces every core form and new var lands in by default already exist
// before any user code runs.
const (
	CoreNamespace = "clojure.core"
	UserNamespace = "user"
)

// Namespace owns a set of interned Vars plus the refer and alias tables used
// to resolve symbols written in source that belongs to this namespace.
type Namespace struct {
	Name string

	mappings map[string]*value.Var // name -> var owned by this namespace
	refers   map[string]*value.Var // name -> var owned by another namespace, usable unqualified here
	aliases  map[string]string     // alias -> target namespace name
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		Name:     name,
		mappings: map[string]*value.Var{},
		refers:   map[string]*value.Var{},
		aliases:  map[string]string{},
	}
}

// Env is the registry of every namespace known to a running program.
type Env struct {
	namespaces map[string]*Namespace
	current    string
}

// NewEnv creates an empty registry with clojure.core and user pre-created,
//, with the current-namespace cursor starting at user.
func NewEnv() *Env {
	e := &Env{namespaces: map[string]*Namespace{}}
	e.FindOrCreateNamespace(CoreNamespace)
	e.FindOrCreateNamespace(UserNamespace)
	e.current = UserNamespace
	return e
}

// CurrentNamespace returns the namespace the "current namespace" cursor
// points at, "Env: ... a current namespace cursor." The
// cursor is mutated by the embedding host/REPL (or by the VM unwinding a
// dynamic-extent change across a non-local exit), not by ordinary
// evaluation of a single form.
func (e *Env) CurrentNamespace() *Namespace {
	return e.namespaces[e.current]
}

// SetCurrentNamespace moves the cursor to name, creating the namespace if
// it does not already exist.
func (e *Env) SetCurrentNamespace(name string) *Namespace {
	ns := e.FindOrCreateNamespace(name)
	e.current = name
	return ns
}

// SetCurrentNamespaceName moves the cursor to name without creating
// anything, for restoring a previously-observed cursor value (the VM's
// call wrapper uses this to undo a callee's namespace change when the
// callee exits via an uncaught exception).
func (e *Env) SetCurrentNamespaceName(name string) {
	e.current = name
}

// FindOrCreateNamespace returns the namespace for name, creating it (empty)
// if it does not yet exist.
func (e *Env) FindOrCreateNamespace(name string) *Namespace {
	if ns, ok := e.namespaces[name]; ok {
		return ns
	}
	ns := newNamespace(name)
	e.namespaces[name] = ns
	return ns
}

// FindNamespace returns the namespace for name, or nil if it doesn't exist.
func (e *Env) FindNamespace(name string) *Namespace {
	return e.namespaces[name]
}

// Namespaces returns every registered namespace, sorted by name, for
// deterministic iteration (disassembly dumps, GC root enumeration).
func (e *Env) Namespaces() []*Namespace {
	names := maps.Keys(e.namespaces)
	slices.Sort(names)
	out := make([]*Namespace, len(names))
	for i, n := range names {
		out[i] = e.namespaces[n]
	}
	return out
}

// Intern returns the stable Var for name in ns, creating an unbound one on
// first use. Subsequent interns of the same name return the same Var.
func (ns *Namespace) Intern(name string) *value.Var {
	if v, ok := ns.mappings[name]; ok {
		return v
	}
	v := value.NewVar(ns.Name, name)
	ns.mappings[name] = v
	return v
}

// Refer makes sourceVar resolvable by unqualified name in ns without
// transferring ownership; sourceVar keeps reporting its original namespace.
func (ns *Namespace) Refer(name string, sourceVar *value.Var) {
	ns.refers[name] = sourceVar
}

// SetAlias records a short alias for targetNS's qualified symbols, e.g.
// (require '[clojure.string :as str]) making str/join resolve via
// clojure.string.
func (ns *Namespace) SetAlias(alias, targetNS string) {
	ns.aliases[alias] = targetNS
}

// Alias returns the namespace name registered under alias in ns, if any.
func (ns *Namespace) Alias(alias string) (string, bool) {
	target, ok := ns.aliases[alias]
	return target, ok
}

// Resolve looks up an unqualified name: own mappings first, then refers.
func (ns *Namespace) Resolve(name string) (*value.Var, bool) {
	if v, ok := ns.mappings[name]; ok {
		return v, true
	}
	if v, ok := ns.refers[name]; ok {
		return v, true
	}
	return nil, false
}

// ResolveQualified resolves "alias/name" or "full.ns.name/name": it first
// checks ns's alias table, then treats nsOrAlias as a literal namespace name.
func (e *Env) ResolveQualified(ns *Namespace, nsOrAlias, name string) (*value.Var, bool) {
	target := nsOrAlias
	if aliased, ok := ns.Alias(nsOrAlias); ok {
		target = aliased
	}
	targetNS := e.FindNamespace(target)
	if targetNS == nil {
		return nil, false
	}
	v, ok := targetNS.mappings[name]
	return v, ok
}

// ResolveSymbol is the single entry point the analyzer and tree-walk
// evaluator use to turn a (possibly namespace-qualified) symbol into a Var,
// given the namespace currently being compiled/evaluated.
func (e *Env) ResolveSymbol(ns *Namespace, sym value.Symbol) (*value.Var, bool) {
	if sym.Ns == "" {
		return ns.Resolve(sym.Name)
	}
	return e.ResolveQualified(ns, sym.Ns, sym.Name)
}

// Unmap removes a name from ns's own mappings; used by (ns-unmap ...) and by
// tests that need a clean namespace between cases.
func (ns *Namespace) Unmap(name string) { delete(ns.mappings, name) }

// Vars returns every var this namespace owns (not its refers), sorted by
// name for deterministic iteration; lang/vm's GC root walk uses this to
// find every var root reachable through the environment.
func (ns *Namespace) Vars() []*value.Var {
	names := maps.Keys(ns.mappings)
	slices.Sort(names)
	out := make([]*value.Var, len(names))
	for i, n := range names {
		out[i] = ns.mappings[n]
	}
	return out
}

func (ns *Namespace) String() string { return fmt.Sprintf("#namespace[%s]", ns.Name) }

// Refers returns a copy of ns's refer table (unqualified name -> the var it
// resolves to in another namespace), for persistence and introspection.
func (ns *Namespace) Refers() map[string]*value.Var {
	return maps.Clone(ns.refers)
}

// Aliases returns a copy of ns's alias table (alias -> target namespace
// name), for persistence and introspection.
func (ns *Namespace) Aliases() map[string]string {
	return maps.Clone(ns.aliases)
}
