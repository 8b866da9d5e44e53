package vm

import (
	"fmt"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/env"
	"github.com/cljcore/cljc/lang/gc"
	"github.com/cljcore/cljc/lang/value"
)

// Thread is one cooperative execution context: the runtime has no
// preemptive concurrency, so a single Thread owns the active call stack and
// drives the GC's safe-point checks: an env pointer, a live-frames slice
// for root enumeration, and a step counter gating safe points, all built
// around this package's unified single-stack Frame.
type Thread struct {
	Env *env.Env
	gc  gc.Collector

	// MaxFrames bounds nested callFn invocations; zero means unbounded.
	// Exceeding it raises ErrStackOverflow, an internal error that is never
	// catchable by user code: a plain Go error, not a *thrown value a
	// try/catch can see.
	MaxFrames int

	// MaxSteps bounds the total number of instructions this Thread will
	// execute across its whole lifetime; zero means unbounded. Exceeding it
	// raises ErrStepLimit, the same uncatchable-internal-error treatment as
	// ErrStackOverflow. lang/treewalk.Compare sets no step budget on either
	// of its backends.
	MaxSteps int

	frames     []*Frame
	steps      uint8 // wraps at 256; CollectIfNeeded fires on wraparound
	totalSteps int
}

// NewThread creates a Thread bound to env, using collector for GC
// bookkeeping. Passing gc.NewArena() gives a "never collects" collector,
// an acceptable choice for short-lived scripts and tests.
func NewThread(e *env.Env, collector gc.Collector) *Thread {
	return &Thread{Env: e, gc: collector}
}

// ErrStackOverflow is returned by Run/callFn when MaxFrames is exceeded.
var ErrStackOverflow = fmt.Errorf("vm: stack overflow")

// ErrStepLimit is returned when MaxSteps is exceeded.
var ErrStepLimit = fmt.Errorf("vm: step limit exceeded")

// thrown wraps a raised value.Value so it can travel through Go's ordinary
// error-return plumbing, since all thrown conditions are ordinary values
// rather than a distinct exception type. Thread.Run returns an uncaught
// raise to its caller as this error, with the raised Value in its field.
type thrown struct{ Value value.Value }

func (t *thrown) Error() string { return "uncaught exception: " + value.Print(t.Value) }

// Run executes chunk's toplevel FnProto, evaluating each top-level form in
// sequence and returning the value of the last one, "Chunk
// (top level)" description. A *thrown error means the program raised a
// value no catch clause handled.
func (t *Thread) Run(chunk *compiler.Chunk) (value.Value, error) {
	fn := &Fn{Proto: chunk.Toplevel, Chunk: chunk}
	return t.callFn(fn, nil)
}

// trackHeap charges bytes against the collector's allocation budget and, if
// the collector is a *gc.MarkSweep, registers obj so a future sweep can
// reclaim it. Only the VM-native heap kinds that can reference other
// lang/value.Values (Fn, LazySeq, ProtocolFn, MultiFn) are registered; the
// plain persistent collections (List, Vector, ArrayMap, Set, String) are not
// separately traced, since lang/gc's MarkSweep is liveness bookkeeping only
// and Go's own GC already reclaims their memory regardless of whether this
// package's root walk still considers them reachable. See DESIGN.md's
// lang/vm entry for the full scope rationale.
func (t *Thread) trackHeap(obj gc.Markable, bytes int) {
	t.gc.Allocate(bytes)
	if ms, ok := t.gc.(*gc.MarkSweep); ok {
		ms.Register(obj)
	}
}

// safePoint advances the step counter and, on wraparound, asks the
// collector to run a collection against the thread's current root set. It
// returns ErrStepLimit once MaxSteps total instructions have executed.
func (t *Thread) safePoint() error {
	t.steps++
	if t.steps == 0 {
		t.gc.CollectIfNeeded(t.roots())
	}
	if t.MaxSteps > 0 {
		t.totalSteps++
		if t.totalSteps > t.MaxSteps {
			return ErrStepLimit
		}
	}
	return nil
}

// roots builds the live root set for a collection: every active frame's
// occupied slots, plus every namespace's interned vars' current values.
func (t *Thread) roots() gc.Roots {
	frames := make([][]gc.Markable, 0, len(t.frames))
	for _, f := range t.frames {
		frames = append(frames, markableSlice(f.live()))
	}
	var varRoots []gc.Markable
	for _, ns := range t.Env.Namespaces() {
		for _, v := range ns.Vars() {
			if m, ok := v.Deref().(gc.Markable); ok {
				varRoots = append(varRoots, m)
			}
		}
	}
	return gc.Roots{Frames: frames, VarRoots: varRoots}
}

func markableSlice(vs []value.Value) []gc.Markable {
	out := make([]gc.Markable, 0, len(vs))
	for _, v := range vs {
		if m, ok := v.(gc.Markable); ok {
			out = append(out, m)
		}
	}
	return out
}
