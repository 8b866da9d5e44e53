package compiler

import (
	"github.com/cljcore/cljc/lang/token"
	"github.com/cljcore/cljc/lang/value"
)

// Binding is a named slot in a FnProto arity's frame,
// `Local { name, depth, slot }`.
type Binding struct {
	Name string
	Pos  token.Pos
	Slot int
}

// CaptureSlot records, for one of a closure's captures, the exact slot in
// the enclosing frame it is copied from when the `closure` opcode fires.
// Captures record exact parent stack slots, and non-contiguous locals are
// supported, which is why CaptureSlot carries an explicit slot number
// rather than assuming a contiguous run. Captures are shared across
// every arity of a multi-arity fn: they come from the enclosing scope, not
// from the arity being called.
type CaptureSlot struct {
	Name       string
	ParentSlot int
}

// CatchSpec marks one exception handler region within an arity's code: the
// code range [PC0, PC1) is protected, jumping to StartPC on a thrown
// exception whose type tag matches ExceptionType ("" catches everything).
type CatchSpec struct {
	PC0, PC1, StartPC int
	ExceptionType     string
}

// FinallySpec marks the always-run code at FinallyPC guarding [PC0, PC1).
type FinallySpec struct {
	PC0, PC1, FinallyPC int
}

// Arity is one compiled arity of a (possibly multi-arity) fn: its own code,
// locals and stack-depth bookkeeping. All arities of the same fn share the
// parent FnProto's Captures, since captures are fixed at closure-creation
// time regardless of which arity ends up being called.
type Arity struct {
	Code      []byte // 3-byte (opcode, operand-hi, operand-lo) instructions
	Locals    []Binding
	NumParams int
	Variadic  bool
	SelfSlot  int // slot reserved for the fn's self-reference; -1 if unnamed

	Catches  []CatchSpec
	Finallys []FinallySpec

	MaxStack int

	Lines, Cols []uint32 // per-instruction debug positions, parallel to Code/3
}

// FnProto is a compiled fn, the compiled form of an analyzer Node for a fn
// expression. A single FnProto may carry more than one Arity (Clojure-style
// multi-arity fns); the VM's `call` dispatch selects the arity matching the
// argument count, falling back to the variadic arity when present.
type FnProto struct {
	Name string
	Pos  token.Pos

	Arities []Arity

	Captures []CaptureSlot
}

// Chunk is the compiled top level: a sequence of top-level forms compiled
// as if each were a statement in a zero-arg FnProto's single arity,
// executed in turn. Constants and FnProtos are pooled once per chunk
// rather than once per function, so CONST and CLOSURE operands are indices
// into these shared tables regardless of which arity's code references
// them, rather than per-function pools.
type Chunk struct {
	Name      string
	Toplevel  *FnProto
	Protos    []*FnProto
	Constants []value.Value
}
