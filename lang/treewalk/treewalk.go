package treewalk

import (
	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/value"
)

// Evaluator walks analyzer.Node trees directly against a shared
// environment: it shares the reader, analyzer, environment and Value model
// with lang/vm but implements its own independent operational semantics
// rather than compiling to bytecode.
type Evaluator struct {
	Env *env.Env
}

// NewEvaluator creates an Evaluator over e. The current-namespace cursor is
// read and mutated the same way lang/vm's Thread does: def/ns-changing
// forms move the shared cursor, and an uncaught exception escaping a
// closure call restores it to the value observed at call entry.
func NewEvaluator(e *env.Env) *Evaluator {
	return &Evaluator{Env: e}
}

// frame is a cons-cell lexical environment: one per let/loop binding group
// or fn call, chained to its lexically enclosing frame. Unlike lang/vm's
// flat per-call stack slab, a tree-walk frame holds a live reference to its
// parent, since a Closure captures the frame itself rather than a frozen
// snapshot of specific slots.
type frame struct {
	parent *frame
	vars   map[*analyzer.Binding]value.Value
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, vars: map[*analyzer.Binding]value.Value{}}
}

func (f *frame) define(b *analyzer.Binding, v value.Value) {
	f.vars[b] = v
}

func (f *frame) lookup(b *analyzer.Binding) (value.Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[b]; ok {
			return v, true
		}
	}
	return nil, false
}

// set mutates the binding in place wherever it was defined in the frame
// chain, for set!'s local-target case. It reports whether b was found.
func (f *frame) set(b *analyzer.Binding, v value.Value) bool {
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[b]; ok {
			cur.vars[b] = v
			return true
		}
	}
	return false
}

// Eval evaluates one top-level Node against a fresh root frame, the entry
// point compare mode and ad hoc callers use.
func (ev *Evaluator) Eval(n *analyzer.Node) (value.Value, error) {
	return ev.eval(n, nil)
}
