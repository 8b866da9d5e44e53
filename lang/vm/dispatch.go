package vm

import (
	"fmt"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/value"
)

// instrSize mirrors lang/compiler's unexported constant: every instruction is
// one opcode byte plus a 16-bit big-endian operand.
const instrSize = 3

// runFrame drives frame's fetch/decode/execute loop to completion: either a
// RET produces its result, or an uncaught exception unwinds it as a *thrown
// error, restoring the namespace cursor observed at entry (,
// current-namespace cursor being dynamic-extent state, not lexical).
func (t *Thread) runFrame(frame *Frame) (value.Value, error) {
	if t.MaxFrames > 0 && len(t.frames) >= t.MaxFrames {
		return nil, ErrStackOverflow
	}
	frame.callerNS = t.Env.CurrentNamespace().Name
	t.frames = append(t.frames, frame)
	result, err := t.runLoop(frame)
	t.frames = t.frames[:len(t.frames)-1]
	if _, ok := err.(*thrown); ok {
		t.Env.SetCurrentNamespaceName(frame.callerNS)
	}
	return result, err
}

// raiseInFrame attempts to route exc to frame's innermost active handler. If
// none exists, it returns a *thrown error for runFrame to propagate; the
// caller must return immediately in that case rather than continue the loop.
func raiseInFrame(frame *Frame, exc value.Value) (handled bool, err error) {
	if raise(frame, exc) {
		return true, nil
	}
	return false, &thrown{Value: exc}
}

func (t *Thread) runLoop(frame *Frame) (value.Value, error) {
	chunk := frame.fn.Chunk
	for {
		if err := t.safePoint(); err != nil {
			return nil, err
		}
		op := compiler.Opcode(frame.code[frame.pc])
		operand := frame.decodeOperand()

		switch op {
		case compiler.NOP:
			frame.pc += instrSize

		case compiler.POP:
			frame.pop()
			frame.pc += instrSize

		case compiler.DUP:
			frame.push(frame.top())
			frame.pc += instrSize

		case compiler.POP_UNDER:
			top := frame.pop()
			for i := 0; i < operand; i++ {
				frame.pop()
			}
			frame.push(top)
			frame.pc += instrSize

		case compiler.LOAD_LOCAL:
			frame.push(frame.space[operand])
			frame.pc += instrSize

		case compiler.STORE_LOCAL:
			frame.space[operand] = frame.pop()
			frame.pc += instrSize

		case compiler.CONST:
			frame.push(chunk.Constants[operand])
			frame.pc += instrSize

		case compiler.CONST_NIL:
			frame.push(value.Nil)
			frame.pc += instrSize

		case compiler.CONST_TRUE:
			frame.push(value.Bool(true))
			frame.pc += instrSize

		case compiler.CONST_FALSE:
			frame.push(value.Bool(false))
			frame.pc += instrSize

		case compiler.JUMP, compiler.JUMP_BACK:
			frame.pc = operand

		case compiler.JUMP_IF_FALSE:
			cond := frame.pop()
			if value.Truth(cond) {
				frame.pc += instrSize
			} else {
				frame.pc = operand
			}

		case compiler.CMP_JUMP_IF_FALSE:
			jumpAddr := decodeOperandAt(frame, frame.pc+instrSize)
			rhs := frame.pop()
			lhs := frame.pop()
			ok, err := compareTruth(compiler.Opcode(operand), lhs, rhs)
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			if ok {
				frame.pc += 2 * instrSize
			} else {
				frame.pc = jumpAddr
			}

		case compiler.CALL:
			argc := operand
			args := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = frame.pop()
			}
			callee := frame.pop()
			v, err := t.callValue(callee, args)
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(v)
			frame.pc += instrSize

		case compiler.RET:
			return frame.pop(), nil

		case compiler.CLOSURE:
			proto := chunk.Protos[operand]
			captures := make([]value.Value, len(proto.Captures))
			for i := len(captures) - 1; i >= 0; i-- {
				captures[i] = frame.pop()
			}
			fn := &Fn{Proto: proto, Chunk: chunk, Captures: captures}
			t.trackHeap(fn, 32+len(captures)*8)
			frame.push(fn)
			frame.pc += instrSize

		case compiler.LETFN_PATCH:
			// letfn has no analyzer support (no KLetFn node kind exists), so
			// this is never emitted; pass the n fns already on the stack
			// through unchanged rather than guess at a patching scheme.
			frame.pc += instrSize

		case compiler.RECUR, compiler.RECUR_LOOP:
			base := operand >> 8
			argc := operand & 0xFF
			vals := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				vals[i] = frame.pop()
			}
			for i := 0; i < argc; i++ {
				frame.space[base+i] = vals[i]
			}
			if op == compiler.RECUR {
				frame.pc = 0
			} else {
				frame.pc = decodeOperandAt(frame, frame.pc+instrSize)
			}

		case compiler.LIST_NEW:
			elems := popN(frame, operand)
			frame.push(value.NewList(elems...))
			frame.pc += instrSize

		case compiler.VEC_NEW:
			elems := popN(frame, operand)
			frame.push(value.NewVector(elems))
			frame.pc += instrSize

		case compiler.SET_NEW:
			elems := popN(frame, operand)
			frame.push(value.NewSet(elems...))
			frame.pc += instrSize

		case compiler.MAP_NEW:
			kvs := popN(frame, operand*2)
			frame.push(value.NewArrayMap(kvs...))
			frame.pc += instrSize

		case compiler.VAR_LOAD:
			sym := chunk.Constants[operand].(value.Symbol)
			v, ok := t.Env.ResolveSymbol(t.Env.CurrentNamespace(), sym)
			if !ok {
				handled, rerr := raiseInFrame(frame, runtimeException("unresolved-symbol", "unable to resolve symbol: "+sym.String()))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(v.Deref())
			frame.pc += instrSize

		case compiler.VAR_DEF, compiler.VAR_DEF_MACRO, compiler.VAR_DEF_DYNAMIC:
			sym := chunk.Constants[operand].(value.Symbol)
			val := frame.pop()
			v := t.Env.CurrentNamespace().Intern(sym.Name)
			v.BindRoot(val)
			switch op {
			case compiler.VAR_DEF_MACRO:
				v.SetMacro()
			case compiler.VAR_DEF_DYNAMIC:
				v.SetFlags(v.Flags() | value.FlagDynamic)
			}
			frame.push(v)
			frame.pc += instrSize

		case compiler.SET_BANG:
			sym := chunk.Constants[operand].(value.Symbol)
			val := frame.top()
			v, ok := t.Env.ResolveSymbol(t.Env.CurrentNamespace(), sym)
			if !ok {
				handled, rerr := raiseInFrame(frame, runtimeException("unresolved-symbol", "unable to resolve symbol: "+sym.String()))
				if !handled {
					return nil, rerr
				}
				continue
			}
			if v.IsBound() {
				v.SetDynamicBinding(val)
			} else {
				v.BindRoot(val)
			}
			frame.pc += instrSize

		case compiler.DEFMULTI:
			sym := chunk.Constants[operand].(value.Symbol)
			dispatchFn := frame.pop()
			mf := newMultiFn(sym.Name, dispatchFn)
			t.trackHeap(mf, 48)
			v := t.Env.CurrentNamespace().Intern(sym.Name)
			v.BindRoot(mf)
			frame.push(mf)
			frame.pc += instrSize

		case compiler.DEFMETHOD:
			sym := chunk.Constants[operand].(value.Symbol)
			methodFn := frame.pop()
			dispatchVal := frame.pop()
			v, ok := t.Env.CurrentNamespace().Resolve(sym.Name)
			if !ok {
				return nil, fmt.Errorf("defmethod: no multimethod named %s", sym.Name)
			}
			mf, ok := v.Deref().(*MultiFn)
			if !ok {
				return nil, fmt.Errorf("defmethod: %s is not a multimethod", sym.Name)
			}
			mf.Extend(dispatchVal, methodFn)
			frame.pc += instrSize

		case compiler.DEFPROTOCOL:
			spec := chunk.Constants[operand].(*value.Vector)
			nameVal, _ := spec.Nth(0)
			methodsVal, _ := spec.Nth(1)
			protoName := nameVal.(value.Symbol).Name
			methods := methodsVal.(*value.Vector)
			ns := t.Env.CurrentNamespace()
			for i := 0; i < methods.Count(); i++ {
				mv, _ := methods.Nth(i)
				methodName := mv.(value.Symbol).Name
				pf := newProtocolFn(protoName, methodName)
				t.trackHeap(pf, 48)
				ns.Intern(methodName).BindRoot(pf)
			}
			frame.pc += instrSize

		case compiler.EXTEND_TYPE:
			spec := chunk.Constants[operand].(*value.Vector)
			typeTagVal, _ := spec.Nth(1)
			methodVal, _ := spec.Nth(2)
			typeTag := typeTagVal.(value.Symbol).Name
			methodName := methodVal.(value.Symbol).Name
			impl := frame.pop()
			v, ok := t.Env.CurrentNamespace().Resolve(methodName)
			if !ok {
				return nil, fmt.Errorf("extend-type: no protocol method named %s", methodName)
			}
			pf, ok := v.Deref().(*ProtocolFn)
			if !ok {
				return nil, fmt.Errorf("extend-type: %s is not a protocol method", methodName)
			}
			pf.Extend(typeTag, impl)
			frame.pc += instrSize

		case compiler.PROTOCOL_CALL:
			// Never emitted: the compiler routes protocol calls through the
			// generic CALL path, dispatching at runtime on the callee's
			// concrete *ProtocolFn type (see call.go). Implemented for
			// enum-completeness assuming the peephole convention used
			// elsewhere (CMP_JUMP_IF_FALSE, RECUR_LOOP): the following NOP's
			// operand carries the argument count.
			argc := decodeOperandAt(frame, frame.pc+instrSize)
			args := popN(frame, argc)
			recv := frame.pop()
			sym := chunk.Constants[operand].(value.Symbol)
			v, ok := t.Env.CurrentNamespace().Resolve(sym.Name)
			if !ok {
				return nil, fmt.Errorf("protocol_call: no method named %s", sym.Name)
			}
			result, err := t.callValue(v.Deref(), append([]value.Value{recv}, args...))
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(result)
			frame.pc += 2 * instrSize

		case compiler.MULTI_CALL:
			// Never emitted, for the same reason as PROTOCOL_CALL.
			argc := decodeOperandAt(frame, frame.pc+instrSize)
			args := popN(frame, argc)
			sym := chunk.Constants[operand].(value.Symbol)
			v, ok := t.Env.CurrentNamespace().Resolve(sym.Name)
			if !ok {
				return nil, fmt.Errorf("multi_call: no multimethod named %s", sym.Name)
			}
			result, err := t.callValue(v.Deref(), args)
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(result)
			frame.pc += 2 * instrSize

		case compiler.LAZYSEQ_THUNK:
			// Never emitted: lazy-seq isn't in the fixed special-form table,
			// so it is expected to be a corelib macro built from an ordinary
			// fn closure rather than this dedicated instruction. Implemented
			// for completeness over a zero-capture thunk proto.
			proto := chunk.Protos[operand]
			thunkFn := &Fn{Proto: proto, Chunk: chunk}
			ls := newLazySeq(thunkFn)
			t.trackHeap(ls, 24)
			frame.push(ls)
			frame.pc += instrSize

		case compiler.TRY_BEGIN:
			frame.handlers = append(frame.handlers, handler{catchPC: operand, sp: frame.sp})
			frame.pc += instrSize

		case compiler.POP_HANDLER:
			frame.handlers = frame.handlers[:len(frame.handlers)-1]
			frame.pc += instrSize

		case compiler.CATCH_BEGIN:
			// No-op: raise() already placed the exception value on top of
			// the stack before jumping here.
			frame.pc += instrSize

		case compiler.EXCEPTION_TYPE_CHECK:
			sym := chunk.Constants[operand].(value.Symbol)
			exc := frame.top()
			if exceptionType(exc) == sym.Name {
				frame.pc += instrSize
			} else {
				frame.pop()
				handled, rerr := raiseInFrame(frame, exc)
				if !handled {
					return nil, rerr
				}
			}

		case compiler.THROW_EX:
			exc := frame.pop()
			handled, rerr := raiseInFrame(frame, exc)
			if !handled {
				return nil, rerr
			}

		case compiler.TRY_END:
			frame.pc += instrSize

		case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
			b := frame.pop()
			a := frame.pop()
			v, err := arithOp(op, a, b)
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(v)
			frame.pc += instrSize

		case compiler.LT, compiler.LE, compiler.GT, compiler.GE, compiler.NUM_EQ:
			// Never emitted standalone (comparisons only appear as
			// CMP_JUMP_IF_FALSE's operand), kept executable for
			// enum-completeness.
			b := frame.pop()
			a := frame.pop()
			ok, err := compareTruth(op, a, b)
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(value.Bool(ok))
			frame.pc += instrSize

		case compiler.LOAD_LOCAL_ADD:
			// Never emitted (no peephole pass fuses this in compiler.go);
			// matches the table's declared +1 stack effect by adding to,
			// rather than consuming, the current top.
			v, err := add(frame.space[operand], frame.top())
			if err != nil {
				handled, rerr := raiseInFrame(frame, wrapError(err))
				if !handled {
					return nil, rerr
				}
				continue
			}
			frame.push(v)
			frame.pc += instrSize

		default:
			return nil, fmt.Errorf("vm: illegal opcode %s at pc %d", op, frame.pc)
		}
	}
}

func decodeOperandAt(f *Frame, pc int) int {
	return int(f.code[pc+1])<<8 | int(f.code[pc+2])
}

func popN(frame *Frame, n int) []value.Value {
	out := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = frame.pop()
	}
	return out
}

func arithOp(op compiler.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case compiler.ADD:
		return add(a, b)
	case compiler.SUB:
		return sub(a, b)
	case compiler.MUL:
		return mul(a, b)
	case compiler.DIV:
		return div(a, b)
	}
	return nil, fmt.Errorf("vm: not an arithmetic opcode: %s", op)
}

// compareTruth evaluates one of the fused comparison intrinsics: NUM_EQ uses
// full structural equality (matching clojure.core's =, not just numeric
// equality), the others use value.Compare's three-way ordering.
func compareTruth(op compiler.Opcode, lhs, rhs value.Value) (bool, error) {
	if op == compiler.NUM_EQ {
		return value.Equal(lhs, rhs), nil
	}
	c, err := value.Compare(lhs, rhs)
	if err != nil {
		return false, err
	}
	switch op {
	case compiler.LT:
		return c < 0, nil
	case compiler.LE:
		return c <= 0, nil
	case compiler.GT:
		return c > 0, nil
	case compiler.GE:
		return c >= 0, nil
	}
	return false, fmt.Errorf("vm: not a comparison opcode: %s", op)
}

// wrapError turns an internal Go error into a raisable value.Value: a
// *thrown error (propagated from a nested call whose own frame had no
// handler) carries its original raised value through unchanged, so an
// ex-info map thrown deep in a call stack is not double-wrapped as it
// bubbles up through intermediate frames' CALL handling.
func wrapError(err error) value.Value {
	if th, ok := err.(*thrown); ok {
		return th.Value
	}
	tag := "runtime-error"
	switch err.(type) {
	case *numericError:
		tag = "arithmetic-error"
	case *value.ErrUnsupportedNumeric:
		tag = "unsupported-numeric"
	}
	return runtimeException(tag, err.Error())
}
