// Package compiler lowers analyzer.Node to the fixed 3-byte-instruction
// bytecode executed by lang/vm. Its shape is a single compiler-state struct
// threaded through a recursive Node walk, one function-local sub-compiler
// per FnProto, and explicit abstract stack-depth tracking used to size
// MaxStack, emitting a direct linear instruction stream with backpatched
// jump operands rather than linearizing a CFG of basic blocks first; the
// fixed instruction width makes backpatching trivial since no jump operand
// ever needs re-sizing.
package compiler

import (
	"fmt"
	"sort"

	"github.com/cljcore/cljc/lang/analyzer"
	"github.com/cljcore/cljc/lang/reader"
	"github.com/cljcore/cljc/lang/value"
)

// instrSize is the width in bytes of every instruction: one opcode byte
// plus a 16-bit big-endian operand,.
const instrSize = 3

// Compile lowers a namespace's top-level forms to a Chunk. Each form is
// compiled in sequence into the toplevel FnProto's single arity, its result
// value discarded (via POP) except for the very last form, whose value is
// left on the stack and returned by RET — mirroring a REPL evaluating a
// sequence of top-level forms and reporting the final one.
func Compile(name string, nodes []*analyzer.Node) (*Chunk, error) {
	c := &compiler{chunk: &Chunk{Name: name}}
	proto := &FnProto{Name: "toplevel"}
	fc := newFcomp(proto, nil)
	fc.arity = &Arity{SelfSlot: -1}

	for i, n := range nodes {
		if err := c.compileNode(fc, n); err != nil {
			return nil, err
		}
		if i != len(nodes)-1 {
			c.emit(fc, POP, 0)
		}
	}
	c.emit(fc, RET, 0)
	fc.arity.MaxStack = fc.maxStack
	proto.Arities = []Arity{*fc.arity}
	c.chunk.Toplevel = proto
	return c.chunk, nil
}

type compiler struct {
	chunk *Chunk
}

// fcomp holds emission state for one FnProto arity currently being built.
type fcomp struct {
	proto  *FnProto
	arity  *Arity
	parent *fcomp

	slots      map[*analyzer.Binding]int // binding identity -> frame slot, for this arity
	captureIdx map[*analyzer.Binding]int // binding identity -> index into proto.Captures

	stackDepth, maxStack int

	loopBase   map[int]int // loop/arity id -> base slot its recur targets overwrite
	loopHeader map[int]int // loop/arity id -> code address its recur jumps back to
}

func newFcomp(proto *FnProto, parent *fcomp) *fcomp {
	return &fcomp{
		proto:      proto,
		parent:     parent,
		slots:      map[*analyzer.Binding]int{},
		captureIdx: map[*analyzer.Binding]int{},
		loopBase:   map[int]int{},
		loopHeader: map[int]int{},
	}
}

// pushLocal registers a local binding for a value already sitting on top of
// the operand stack: a let/loop binding's init, or a catch clause's
// exception value, both of which are pushed by the instruction immediately
// preceding the call. pushLocal runs after that push so a binding name
// always points at slot = stack_depth - 1, which is why the slot is read
// back from the live stackDepth instead of counted separately,
// letting sibling let/loop scopes at the same nesting depth reuse the slots
// a prior sibling already popped out.
func (fc *fcomp) pushLocal(b *analyzer.Binding) int {
	slot := fc.stackDepth - 1
	fc.slots[b] = slot
	fc.arity.Locals = append(fc.arity.Locals, Binding{Name: b.Name, Pos: b.Pos, Slot: slot})
	return slot
}

// bindParam reserves a fresh slot for a capture, self-reference or
// parameter: unlike a let binding, these values arrive already placed in
// the frame (by closure materialization or by the call opcode's argument
// setup) rather than by an emitted push, so bindParam must advance
// stackDepth itself rather than reading it back.
func (fc *fcomp) bindParam(b *analyzer.Binding) int {
	slot := fc.stackDepth
	fc.stackDepth++
	if fc.stackDepth > fc.maxStack {
		fc.maxStack = fc.stackDepth
	}
	fc.slots[b] = slot
	fc.arity.Locals = append(fc.arity.Locals, Binding{Name: b.Name, Pos: b.Pos, Slot: slot})
	return slot
}

func (fc *fcomp) adjustStack(delta int) {
	fc.stackDepth += delta
	if fc.stackDepth > fc.maxStack {
		fc.maxStack = fc.stackDepth
	}
}

// emit appends one fixed-width instruction and returns its code offset.
func (c *compiler) emit(fc *fcomp, op Opcode, operand int) int {
	addr := len(fc.arity.Code)
	fc.arity.Code = append(fc.arity.Code, byte(op), byte(operand>>8), byte(operand))
	if se := stackEffect[op]; se != variableStackEffect {
		fc.adjustStack(int(se))
	}
	return addr
}

// emitVar is emit for an opcode whose stackEffect table entry is the
// variableStackEffect sentinel; delta is the caller-computed actual effect.
func (c *compiler) emitVar(fc *fcomp, op Opcode, operand int, delta int) int {
	addr := len(fc.arity.Code)
	fc.arity.Code = append(fc.arity.Code, byte(op), byte(operand>>8), byte(operand))
	fc.adjustStack(delta)
	return addr
}

func (c *compiler) patch(fc *fcomp, addr int, operand int) {
	fc.arity.Code[addr+1] = byte(operand >> 8)
	fc.arity.Code[addr+2] = byte(operand)
}

func (c *compiler) here(fc *fcomp) int { return len(fc.arity.Code) }

func (c *compiler) addConstant(v value.Value) int {
	for i, existing := range c.chunk.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	c.chunk.Constants = append(c.chunk.Constants, v)
	return len(c.chunk.Constants) - 1
}

func (c *compiler) addProto(p *FnProto) int {
	c.chunk.Protos = append(c.chunk.Protos, p)
	return len(c.chunk.Protos) - 1
}

func (c *compiler) compileNode(fc *fcomp, n *analyzer.Node) error {
	switch n.Kind {
	case analyzer.KConst:
		return c.compileConst(fc, n)
	case analyzer.KLocalRef:
		return c.compileLocalRef(fc, n)
	case analyzer.KVarRef:
		var idx int
		if n.Ns == "" {
			idx = c.addConstant(value.NewSymbol(n.Name))
		} else {
			idx = c.addConstant(value.NewQualifiedSymbol(n.Ns, n.Name))
		}
		c.emit(fc, VAR_LOAD, idx)
		return nil
	case analyzer.KIf:
		return c.compileIf(fc, n)
	case analyzer.KDo:
		return c.compileDo(fc, n)
	case analyzer.KLet:
		return c.compileLet(fc, n)
	case analyzer.KLoop:
		return c.compileLoop(fc, n)
	case analyzer.KFn:
		return c.compileFn(fc, n)
	case analyzer.KRecur:
		return c.compileRecur(fc, n)
	case analyzer.KDef:
		return c.compileDef(fc, n)
	case analyzer.KThrow:
		if err := c.compileNode(fc, n.Throw); err != nil {
			return err
		}
		c.emit(fc, THROW_EX, 0)
		return nil
	case analyzer.KTry:
		return c.compileTry(fc, n)
	case analyzer.KSetBang:
		return c.compileSetBang(fc, n)
	case analyzer.KCall:
		return c.compileCall(fc, n)
	case analyzer.KDefMulti:
		if err := c.compileNode(fc, n.DispatchFn); err != nil {
			return err
		}
		c.emit(fc, DEFMULTI, c.addConstant(value.NewSymbol(n.Name)))
		return nil
	case analyzer.KDefMethod:
		if err := c.compileNode(fc, n.DispatchVal); err != nil {
			return err
		}
		if err := c.compileNode(fc, n.MethodFn); err != nil {
			return err
		}
		c.emitVar(fc, DEFMETHOD, c.addConstant(value.NewSymbol(n.MultiName)), -2)
		c.emit(fc, CONST_NIL, 0)
		return nil
	case analyzer.KDefProtocol:
		methods := make([]value.Value, len(n.ProtocolMethods))
		for i, m := range n.ProtocolMethods {
			methods[i] = value.NewSymbol(m)
		}
		idx := c.addConstant(value.NewVector([]value.Value{
			value.NewSymbol(n.Name),
			value.NewVector(methods),
		}))
		c.emit(fc, DEFPROTOCOL, idx)
		c.emit(fc, CONST_NIL, 0)
		return nil
	case analyzer.KExtendType:
		return c.compileExtendType(fc, n)
	case analyzer.KCollection:
		return c.compileCollection(fc, n)
	}
	return fmt.Errorf("compiler: unhandled node kind %d", n.Kind)
}

// compileCollection pushes a vector/map/set literal's elements in order and
// builds the collection at runtime with the matching _NEW instruction; only
// reached for literals with at least one non-constant element, since
// analyzer.analyzeCollection folds an all-constant literal to KConst.
func (c *compiler) compileCollection(fc *fcomp, n *analyzer.Node) error {
	for _, e := range n.Elems {
		if err := c.compileNode(fc, e); err != nil {
			return err
		}
	}
	op := VEC_NEW
	count := len(n.Elems)
	switch n.CollKind {
	case reader.KindSet:
		op = SET_NEW
	case reader.KindMap:
		op = MAP_NEW
		count = len(n.Elems) / 2 // MAP_NEW's operand counts key/value pairs, not flat elements
	case reader.KindList:
		op = LIST_NEW
	}
	c.emitVar(fc, op, count, 1-len(n.Elems))
	return nil
}

func (c *compiler) compileConst(fc *fcomp, n *analyzer.Node) error {
	switch v := n.Const.(type) {
	case value.NilType:
		c.emit(fc, CONST_NIL, 0)
	case value.Bool:
		if v {
			c.emit(fc, CONST_TRUE, 0)
		} else {
			c.emit(fc, CONST_FALSE, 0)
		}
	default:
		c.emit(fc, CONST, c.addConstant(n.Const))
	}
	return nil
}

func (c *compiler) compileLocalRef(fc *fcomp, n *analyzer.Node) error {
	if slot, isLocal := fc.slots[n.Local]; isLocal {
		c.emit(fc, LOAD_LOCAL, slot)
		return nil
	}
	idx := c.ensureCapture(fc, n.Local)
	// A capture is loaded the same way as a local: closure materialization
	// copies captured values into slots 0..len(Captures)-1 of the new
	// frame, below any self slot and params, so by the time the body runs
	// captures and locals are indistinguishable frame slots.
	c.emit(fc, LOAD_LOCAL, idx)
	return nil
}

// ensureCapture returns b's slot within fc's own frame, registering it as a
// capture the first time fc references it. Per the analyzer's
// collectCaptures, when b's owner is more than one fn above fc, fc.parent
// has already registered b as one of *its own* captures too, so walking one
// level up always finds either a genuine local or an already-registered
// capture.
func (c *compiler) ensureCapture(fc *fcomp, b *analyzer.Binding) int {
	if idx, ok := fc.captureIdx[b]; ok {
		return idx
	}
	var parentSlot int
	if slot, ok := fc.parent.slots[b]; ok {
		parentSlot = slot
	} else if idx, ok := fc.parent.captureIdx[b]; ok {
		parentSlot = idx
	} else {
		panic("compiler: capture binding not found in parent frame")
	}
	idx := len(fc.proto.Captures)
	fc.proto.Captures = append(fc.proto.Captures, CaptureSlot{Name: b.Name, ParentSlot: parentSlot})
	fc.captureIdx[b] = idx
	return idx
}

func (c *compiler) compileIf(fc *fcomp, n *analyzer.Node) error {
	if sel, ok := comparisonSelector(n.Test); ok {
		if err := c.compileNode(fc, sel.lhs); err != nil {
			return err
		}
		if err := c.compileNode(fc, sel.rhs); err != nil {
			return err
		}
		cjAddr := c.emitVar(fc, CMP_JUMP_IF_FALSE, int(sel.op), -2)
		c.emit(fc, NOP, 0) // carries the jump address, per the "next instruction's operand" convention
		if err := c.compileNode(fc, n.Then); err != nil {
			return err
		}
		endJump := c.emit(fc, JUMP, 0)
		c.patch(fc, cjAddr+instrSize, c.here(fc))
		fc.adjustStack(-1) // rebalance: then pushed one value the else branch starts without
		if err := c.compileNode(fc, n.Else); err != nil {
			return err
		}
		c.patch(fc, endJump, c.here(fc))
		return nil
	}

	if err := c.compileNode(fc, n.Test); err != nil {
		return err
	}
	jAddr := c.emit(fc, JUMP_IF_FALSE, 0)
	if err := c.compileNode(fc, n.Then); err != nil {
		return err
	}
	endJump := c.emit(fc, JUMP, 0)
	c.patch(fc, jAddr, c.here(fc))
	fc.adjustStack(-1)
	if err := c.compileNode(fc, n.Else); err != nil {
		return err
	}
	c.patch(fc, endJump, c.here(fc))
	return nil
}

type cmpSelector struct {
	op       Opcode
	lhs, rhs *analyzer.Node
}

// comparisonSelector recognizes (op a b) where op is one of the two-arg
// comparison intrinsics, fusing it with the following conditional jump into
// CMP_JUMP_IF_FALSE.
func comparisonSelector(n *analyzer.Node) (cmpSelector, bool) {
	if n.Kind != analyzer.KCall || n.Head.Kind != analyzer.KVarRef || n.Head.Ns != "" || len(n.Elems) != 2 {
		return cmpSelector{}, false
	}
	var op Opcode
	switch n.Head.Name {
	case "<":
		op = LT
	case "<=":
		op = LE
	case ">":
		op = GT
	case ">=":
		op = GE
	case "=":
		op = NUM_EQ
	default:
		return cmpSelector{}, false
	}
	return cmpSelector{op: op, lhs: n.Elems[0], rhs: n.Elems[1]}, true
}

func (c *compiler) compileDo(fc *fcomp, n *analyzer.Node) error {
	if len(n.Elems) == 0 {
		c.emit(fc, CONST_NIL, 0)
		return nil
	}
	for i, e := range n.Elems {
		if err := c.compileNode(fc, e); err != nil {
			return err
		}
		if i != len(n.Elems)-1 {
			c.emit(fc, POP, 0)
		}
	}
	return nil
}

func (c *compiler) compileLet(fc *fcomp, n *analyzer.Node) error {
	for i, init := range n.Inits {
		if err := c.compileNode(fc, init); err != nil {
			return err
		}
		fc.pushLocal(n.Bindings[i])
	}
	if err := c.compileNode(fc, n.Body); err != nil {
		return err
	}
	if len(n.Bindings) > 0 {
		c.emitVar(fc, POP_UNDER, len(n.Bindings), -len(n.Bindings))
	}
	return nil
}

func (c *compiler) compileLoop(fc *fcomp, n *analyzer.Node) error {
	for i, init := range n.Inits {
		if err := c.compileNode(fc, init); err != nil {
			return err
		}
		fc.pushLocal(n.Bindings[i])
	}
	baseSlot := fc.stackDepth
	if len(n.Bindings) > 0 {
		baseSlot = fc.slots[n.Bindings[0]]
	}
	fc.loopBase[n.LoopID] = baseSlot
	fc.loopHeader[n.LoopID] = c.here(fc)
	if err := c.compileNode(fc, n.Body); err != nil {
		return err
	}
	if len(n.Bindings) > 0 {
		c.emitVar(fc, POP_UNDER, len(n.Bindings), -len(n.Bindings))
	}
	return nil
}

func (c *compiler) compileRecur(fc *fcomp, n *analyzer.Node) error {
	for _, a := range n.Elems {
		if err := c.compileNode(fc, a); err != nil {
			return err
		}
	}
	base, header := fc.loopBase[n.LoopID], fc.loopHeader[n.LoopID]
	if n.LoopID == -1 {
		base = len(fc.proto.Captures)
		if fc.arity.SelfSlot >= 0 {
			base = fc.arity.SelfSlot + 1
		}
		header = 0
	}
	packed := (base << 8) | len(n.Elems)
	c.emitVar(fc, RECUR_LOOP, packed, -len(n.Elems))
	c.emit(fc, NOP, header)
	return nil
}

func (c *compiler) compileSetBang(fc *fcomp, n *analyzer.Node) error {
	if err := c.compileNode(fc, n.Value); err != nil {
		return err
	}
	switch n.Target.Kind {
	case analyzer.KLocalRef:
		c.emit(fc, DUP, 0)
		if slot, isLocal := fc.slots[n.Target.Local]; isLocal {
			c.emit(fc, STORE_LOCAL, slot)
		} else {
			c.emit(fc, STORE_LOCAL, c.ensureCapture(fc, n.Target.Local))
		}
		return nil
	case analyzer.KVarRef:
		idx := c.addConstant(value.NewQualifiedSymbol(n.Target.Ns, n.Target.Name))
		c.emit(fc, SET_BANG, idx)
		return nil
	}
	return fmt.Errorf("compiler: set! target kind %d unsupported", n.Target.Kind)
}

func (c *compiler) compileDef(fc *fcomp, n *analyzer.Node) error {
	if err := c.compileNode(fc, n.Init); err != nil {
		return err
	}
	idx := c.addConstant(value.NewSymbol(n.Name))
	op := VAR_DEF
	switch {
	case n.DefFlags.Has(value.FlagMacro):
		op = VAR_DEF_MACRO
	case n.DefFlags.Has(value.FlagDynamic):
		op = VAR_DEF_DYNAMIC
	}
	c.emit(fc, op, idx)
	return nil
}

func (c *compiler) compileCall(fc *fcomp, n *analyzer.Node) error {
	if op, ok := arithmeticOpcode(n); ok {
		if err := c.compileNode(fc, n.Elems[0]); err != nil {
			return err
		}
		if err := c.compileNode(fc, n.Elems[1]); err != nil {
			return err
		}
		c.emit(fc, op, 0)
		return nil
	}

	if err := c.compileNode(fc, n.Head); err != nil {
		return err
	}
	for _, a := range n.Elems {
		if err := c.compileNode(fc, a); err != nil {
			return err
		}
	}
	c.emitVar(fc, CALL, len(n.Elems), -len(n.Elems))
	return nil
}

// arithmeticOpcode recognizes two-arg calls to the core arithmetic
// intrinsics, fusing them directly to an ADD/SUB/MUL/DIV opcode instead of a
// generic CALL.
func arithmeticOpcode(n *analyzer.Node) (Opcode, bool) {
	if n.Head.Kind != analyzer.KVarRef || n.Head.Ns != "" || len(n.Elems) != 2 {
		return 0, false
	}
	switch n.Head.Name {
	case "+":
		return ADD, true
	case "-":
		return SUB, true
	case "*":
		return MUL, true
	case "/":
		return DIV, true
	}
	return 0, false
}

// compileFn compiles every arity of a fn to one FnProto, shared by all
// arities' Captures (: captures are fixed at closure-creation
// time, independent of which arity later gets called), and emits a CLOSURE
// instruction that packages the proto with the live capture values from the
// current frame.
func (c *compiler) compileFn(fc *fcomp, n *analyzer.Node) error {
	proto := &FnProto{Name: n.Name, Pos: n.Pos}

	// pre-register fn's captures against the parent frame before compiling
	// any arity body, so every arity shares identical capture slot indices
	// regardless of which arity first references a given outer binding.
	seedFc := newFcomp(proto, fc)
	for _, b := range n.Captures {
		c.ensureCapture(seedFc, b)
	}

	for _, arity := range n.Arities {
		child := newFcomp(proto, fc)
		child.captureIdx = seedFc.captureIdx
		child.arity = &Arity{NumParams: len(arity.Params), Variadic: arity.Variadic, SelfSlot: -1}
		// captures occupy the frame's bottom slots, copied in before the
		// arity's own code runs, so every local bound by this arity's
		// instructions is numbered starting right after them.
		child.stackDepth = len(proto.Captures)
		child.maxStack = len(proto.Captures)

		if n.Self != nil {
			child.arity.SelfSlot = child.bindParam(n.Self)
		}
		for _, p := range arity.Params {
			child.bindParam(p)
		}

		if err := c.compileNode(child, arity.Body); err != nil {
			return err
		}
		c.emit(child, RET, 0)
		child.arity.MaxStack = child.maxStack
		proto.Arities = append(proto.Arities, *child.arity)
	}

	protoIdx := c.addProto(proto)
	for _, cs := range proto.Captures {
		c.emit(fc, LOAD_LOCAL, cs.ParentSlot)
	}
	c.emitVar(fc, CLOSURE, protoIdx, 1-len(proto.Captures))
	return nil
}

func (c *compiler) compileTry(fc *fcomp, n *analyzer.Node) error {
	tryBeginAddr := c.emit(fc, TRY_BEGIN, 0)
	pc0 := c.here(fc)
	if err := c.compileNode(fc, n.TryBody); err != nil {
		return err
	}
	c.emit(fc, POP_HANDLER, 0)
	pc1 := c.here(fc)
	skipCatch := c.emit(fc, JUMP, 0)

	catchAddr := c.here(fc)
	c.patch(fc, tryBeginAddr, catchAddr)
	if n.Catch != nil {
		fc.adjustStack(-1) // rebalance: the try body's value is not on the stack when a raise lands here
		c.emitVar(fc, CATCH_BEGIN, 0, 1)
		if n.Catch.ExceptionType != "" {
			c.emit(fc, EXCEPTION_TYPE_CHECK, c.addConstant(value.NewSymbol(n.Catch.ExceptionType)))
		}
		fc.pushLocal(n.Catch.Binding)
		if err := c.compileNode(fc, n.Catch.Body); err != nil {
			return err
		}
		c.emitVar(fc, POP_UNDER, 1, -1)
	} else {
		c.emitVar(fc, CATCH_BEGIN, 0, 1)
		c.emit(fc, THROW_EX, 0)
	}
	c.patch(fc, skipCatch, c.here(fc))

	if n.Finally != nil {
		tryEndAddr := c.emitVar(fc, TRY_END, 0, 0)
		finallyAddr := c.here(fc)
		c.patch(fc, tryEndAddr, finallyAddr)
		if err := c.compileNode(fc, n.Finally); err != nil {
			return err
		}
		c.emit(fc, POP, 0)
	}

	excType := ""
	if n.Catch != nil {
		excType = n.Catch.ExceptionType
	}
	fc.arity.Catches = append(fc.arity.Catches, CatchSpec{PC0: pc0, PC1: pc1, StartPC: catchAddr, ExceptionType: excType})
	return nil
}

// compileExtendType emits one CLOSURE+EXTEND_TYPE pair per method rather
// than a single combined instruction, since each popped closure needs its
// own method name to reach lang/vm's ProtocolFn dispatch table and a fixed
// 3-byte instruction only carries one operand. Method names are sorted for
// deterministic bytecode, since n.ExtendMethods is a Go map. A trailing
// CONST_NIL gives extend-type a statement value the way compileNode's
// KDefMethod case does for defmethod, since the EXTEND_TYPE instructions
// themselves net to zero stack change across the whole loop.
func (c *compiler) compileExtendType(fc *fcomp, n *analyzer.Node) error {
	names := make([]string, 0, len(n.ExtendMethods))
	for name := range n.ExtendMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.compileNode(fc, n.ExtendMethods[name]); err != nil {
			return err
		}
		idx := c.addConstant(value.NewVector([]value.Value{
			value.NewSymbol(n.ProtocolName),
			value.NewSymbol(n.TypeTag),
			value.NewSymbol(name),
		}))
		c.emit(fc, EXTEND_TYPE, idx)
	}
	c.emit(fc, CONST_NIL, 0)
	return nil
}
