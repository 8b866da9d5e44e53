package compiler

import "fmt"

// Increment this to force recompilation of saved bytecode files.
const Version = 0

// Opcode is the one-byte instruction tag of the fixed-width 3-byte
// instruction (1-byte opcode + 2-byte operand). Every instruction occupies
// exactly 3 bytes regardless of whether its operand is meaningful, rather
// than a variable-length varint encoding: the fixed width trades code
// density for O(1) random access into a function's code array and for jump
// patches that never need re-sizing.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota

	// stack
	POP
	DUP
	POP_UNDER // x...y POP_UNDER<n> y, removes n values below the top

	// locals
	LOAD_LOCAL  // - LOAD_LOCAL<slot>  value
	STORE_LOCAL // value STORE_LOCAL<slot> -

	// constants
	CONST       // - CONST<index> value
	CONST_NIL   // - CONST_NIL - nil
	CONST_TRUE  // - CONST_TRUE - true
	CONST_FALSE // - CONST_FALSE - false

	// control flow
	JUMP          // - JUMP<addr> -
	JUMP_IF_FALSE // cond JUMP_IF_FALSE<addr> -
	JUMP_BACK     // - JUMP_BACK<addr> -

	// calls
	CALL        // fn arg1..argN CALL<n> result
	RET         // value RET -
	CLOSURE     // capture1..captureN CLOSURE<fnproto> fn
	LETFN_PATCH // fn1..fnN LETFN_PATCH<n> fn1..fnN

	// recur: operand packs (base_offset<<8)|arg_count
	RECUR      // arg1..argN RECUR<packed> -
	RECUR_LOOP // arg1..argN RECUR_LOOP<packed> - ; next instruction's operand is the loop-back address

	// collection builders
	LIST_NEW // x1..xn LIST_NEW<n> list
	VEC_NEW  // x1..xn VEC_NEW<n> vector
	MAP_NEW  // k1 v1..kn vn MAP_NEW<n> map
	SET_NEW  // x1..xn SET_NEW<n> set

	// var ops
	VAR_LOAD        // - VAR_LOAD<name> value
	VAR_DEF         // value VAR_DEF<name> var
	VAR_DEF_MACRO   // fn VAR_DEF_MACRO<name> var
	VAR_DEF_DYNAMIC // value VAR_DEF_DYNAMIC<name> var
	SET_BANG        // value SET_BANG<name> value ; name resolves the var, not a stack operand

	// multimethod / protocol
	DEFMULTI      // dispatch-fn DEFMULTI<name> multi-fn
	DEFMETHOD     // dispatch-val fn DEFMETHOD<name> -
	DEFPROTOCOL   // - DEFPROTOCOL<[name methods]> - ; one instruction per protocol, not per method
	EXTEND_TYPE   // method EXTEND_TYPE<[protocol type method]> - ; one instruction per extended method
	PROTOCOL_CALL // recv arg1..argN PROTOCOL_CALL<method> result
	MULTI_CALL    // arg1..argN MULTI_CALL<name> result

	// lazy-seq
	LAZYSEQ_THUNK // - LAZYSEQ_THUNK<fnproto> lazy-seq

	// exceptions
	TRY_BEGIN            // - TRY_BEGIN<catch_addr> -
	POP_HANDLER          // - POP_HANDLER - -
	CATCH_BEGIN          // - CATCH_BEGIN - exception-value
	EXCEPTION_TYPE_CHECK // exc EXCEPTION_TYPE_CHECK<type_tag> exc
	THROW_EX             // exc THROW_EX - -
	TRY_END              // - TRY_END<finally_addr> -

	// arithmetic and comparison, auto-promoting on overflow
	ADD
	SUB
	MUL
	DIV
	LT
	LE
	GT
	GE
	NUM_EQ

	// superinstructions: compileIf emits CMP_JUMP_IF_FALSE directly for a
	// comparison test; no compiler path emits LOAD_LOCAL_ADD
	LOAD_LOCAL_ADD    // fuses LOAD_LOCAL<slot> + ADD
	CMP_JUMP_IF_FALSE // fuses a comparison opcode + JUMP_IF_FALSE<addr>; low byte of operand selects the comparison, high byte is unused here, the jump address follows as the next instruction's operand

	opcodeMax = CMP_JUMP_IF_FALSE
)

var opcodeNames = [...]string{
	NOP: "nop", POP: "pop", DUP: "dup", POP_UNDER: "pop_under",
	LOAD_LOCAL: "load_local", STORE_LOCAL: "store_local",
	CONST: "const", CONST_NIL: "const_nil", CONST_TRUE: "const_true", CONST_FALSE: "const_false",
	JUMP: "jump", JUMP_IF_FALSE: "jump_if_false", JUMP_BACK: "jump_back",
	CALL: "call", RET: "ret", CLOSURE: "closure", LETFN_PATCH: "letfn_patch",
	RECUR: "recur", RECUR_LOOP: "recur_loop",
	LIST_NEW: "list_new", VEC_NEW: "vec_new", MAP_NEW: "map_new", SET_NEW: "set_new",
	VAR_LOAD: "var_load", VAR_DEF: "var_def", VAR_DEF_MACRO: "var_def_macro", VAR_DEF_DYNAMIC: "var_def_dynamic",
	SET_BANG: "set_bang",
	DEFMULTI: "defmulti", DEFMETHOD: "defmethod", DEFPROTOCOL: "defprotocol", EXTEND_TYPE: "extend_type",
	PROTOCOL_CALL: "protocol_call", MULTI_CALL: "multi_call",
	LAZYSEQ_THUNK: "lazyseq_thunk",
	TRY_BEGIN: "try_begin", POP_HANDLER: "pop_handler", CATCH_BEGIN: "catch_begin",
	EXCEPTION_TYPE_CHECK: "exception_type_check", THROW_EX: "throw_ex", TRY_END: "try_end",
	ADD: "add", SUB: "sub", MUL: "mul", DIV: "div",
	LT: "lt", LE: "le", GT: "gt", GE: "ge", NUM_EQ: "num_eq",
	LOAD_LOCAL_ADD: "load_local_add", CMP_JUMP_IF_FALSE: "cmp_jump_if_false",
}

var reverseLookupOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, s := range opcodeNames {
		m[s] = Opcode(op)
	}
	return m
}()

func (op Opcode) String() string {
	if int(op) <= int(opcodeMax) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}

// variableStackEffect marks an opcode whose stack effect depends on its
// operand (element/arg counts); compiler.go passes those explicitly to emitVar instead of
// consulting stackEffect.
const variableStackEffect = 127

// stackEffect records the fixed operand-stack delta of each opcode whose
// effect does not depend on its operand, consulted while emitting code to
// track the abstract stack depth used for MaxStack computation.
var stackEffect = [...]int8{
	NOP: 0, POP: -1, DUP: +1, POP_UNDER: variableStackEffect,
	LOAD_LOCAL: +1, STORE_LOCAL: -1,
	CONST: +1, CONST_NIL: +1, CONST_TRUE: +1, CONST_FALSE: +1,
	JUMP: 0, JUMP_IF_FALSE: -1, JUMP_BACK: 0,
	CALL: variableStackEffect, RET: -1, CLOSURE: variableStackEffect, LETFN_PATCH: 0,
	RECUR: variableStackEffect, RECUR_LOOP: variableStackEffect,
	LIST_NEW: variableStackEffect, VEC_NEW: variableStackEffect, MAP_NEW: variableStackEffect, SET_NEW: variableStackEffect,
	VAR_LOAD: +1, VAR_DEF: 0, VAR_DEF_MACRO: 0, VAR_DEF_DYNAMIC: 0,
	SET_BANG: 0,
	DEFMULTI: 0, DEFMETHOD: -2, DEFPROTOCOL: 0, EXTEND_TYPE: -1,
	PROTOCOL_CALL: variableStackEffect, MULTI_CALL: variableStackEffect,
	LAZYSEQ_THUNK: +1,
	TRY_BEGIN: 0, POP_HANDLER: 0, CATCH_BEGIN: +1,
	EXCEPTION_TYPE_CHECK: 0, THROW_EX: -1, TRY_END: 0,
	ADD: -1, SUB: -1, MUL: -1, DIV: -1,
	LT: -1, LE: -1, GT: -1, GE: -1, NUM_EQ: -1,
	LOAD_LOCAL_ADD: +1, CMP_JUMP_IF_FALSE: -2,
}
