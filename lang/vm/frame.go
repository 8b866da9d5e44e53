package vm

import (
	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/value"
)

// handler is one active try/catch region's unwind target: sp records the
// operand-stack depth to restore before jumping to catchPC, so a raised
// value lands exactly where the catch clause expects to find it (or, for a
// catch-all region with no binding, at the depth the try form itself
// started at).
type handler struct {
	catchPC int
	sp      int
}

// Frame is the activation record for one running Fn arity: a single flat
// array addressed by slot index from 0. Captures, self-reference, params
// and let/loop/catch-bound locals all pin a slot in the same array;
// ordinary temporaries share it too via sp. A unified array, rather than a
// separate locals array plus a shared value stack, because a local's slot
// is tied directly to its stack depth at bind time rather than to a
// separate locals index space.
type Frame struct {
	fn    *Fn
	arity *compiler.Arity
	code  []byte

	space []value.Value // len == arity.MaxStack; slots 0..len(Captures)-1 are captures
	sp    int           // number of live slots, i.e. next free index
	pc    int

	handlers []handler

	// callerNS is the current-namespace cursor's value observed when this
	// frame was entered, restored if the frame unwinds via an uncaught
	// exception (see Thread.runFrame).
	callerNS string
}

func newFrame(fn *Fn, arity *compiler.Arity) *Frame {
	space := make([]value.Value, arity.MaxStack)
	copy(space, fn.Captures)
	return &Frame{
		fn:    fn,
		arity: arity,
		code:  arity.Code,
		space: space,
		sp:    len(fn.Captures),
	}
}

func (f *Frame) push(v value.Value) {
	f.space[f.sp] = v
	f.sp++
}

func (f *Frame) pop() value.Value {
	f.sp--
	v := f.space[f.sp]
	f.space[f.sp] = nil
	return v
}

func (f *Frame) top() value.Value { return f.space[f.sp-1] }

// live returns the frame's currently occupied slots, for GC root building.
func (f *Frame) live() []value.Value { return f.space[:f.sp] }

func (f *Frame) decodeOperand() int {
	return int(f.code[f.pc+1])<<8 | int(f.code[f.pc+2])
}
