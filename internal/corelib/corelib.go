// Package corelib defines the contract a standard library loader must
// satisfy to install builtins into a namespace: the language core never
// hardcodes a concrete standard library, it only specifies where one plugs
// in.
package corelib

import (
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
)

// BuiltinFunc is the shape every registered builtin must have. It is
// defined here (rather than imported from lang/vm) so the loader contract
// does not mention lang/vm's types; Install adapts it to the
// *vm.Thread-aware shape lang/vm's CALL dispatch expects.
type BuiltinFunc func(args []value.Value) (value.Value, error)

// Registry accumulates name -> builtin bindings before they are installed
// into a namespace, the same staging step a running thread's predeclared
// bindings go through before the thread starts running.
type Registry struct {
	entries map[string]BuiltinFunc
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]BuiltinFunc{}}
}

// Register records name as resolving to fn. A later call with the same name
// overwrites the earlier one, the same "last def wins" rule an ordinary var
// redefinition follows.
func (r *Registry) Register(name string, fn BuiltinFunc) {
	r.entries[name] = fn
}

// Names returns every registered builtin name, for introspection and for
// tests asserting a loader covers an expected surface.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Lookup returns the builtin registered under name, if any.
func (r *Registry) Lookup(name string) (BuiltinFunc, bool) {
	fn, ok := r.entries[name]
	return fn, ok
}

// Loader installs a concrete standard library's bindings into an
// environment namespace. internal/corelib does not itself implement
// clojure.core: it is the seam a real implementation (shipped separately,
// or supplied by an embedder extending the global scope of a host program)
// is plugged in through, keeping lang/env and lang/vm ignorant of any
// concrete builtin's existence.
type Loader interface {
	// Load installs this loader's bindings into ns, returning the names it
	// bound so a caller can report what a given loader covers.
	Load(ns *env.Namespace, reg *Registry) ([]string, error)
}

// LoaderFunc adapts a plain function to the Loader interface, the same
// http.HandlerFunc-shaped adapter idiom used throughout the corpus.
type LoaderFunc func(ns *env.Namespace, reg *Registry) ([]string, error)

func (f LoaderFunc) Load(ns *env.Namespace, reg *Registry) ([]string, error) {
	return f(ns, reg)
}

// Chain runs loaders in order against the same namespace and registry,
// collecting every bound name; a later loader's binding of a name already
// bound by an earlier one simply overwrites it, matching Registry.Register.
func Chain(ns *env.Namespace, reg *Registry, loaders ...Loader) ([]string, error) {
	var all []string
	for _, l := range loaders {
		names, err := l.Load(ns, reg)
		if err != nil {
			return all, err
		}
		all = append(all, names...)
	}
	return all, nil
}
