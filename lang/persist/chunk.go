package persist

import (
	"bytes"
	"io"

	"github.com/cljcore/cljc/lang/compiler"
	"github.com/cljcore/cljc/lang/token"
	"github.com/cljcore/cljc/lang/value"
	"github.com/cljcore/cljc/lang/vm"
)

// WriteChunk encodes chunk as a complete AOT artefact: the 4-byte magic,
// version and flags header, followed by the string table, FnProto table
// and top-level Chunk body.
func WriteChunk(out io.Writer, chunk *compiler.Chunk) error {
	w := newWriter(out)
	w.bytes(Magic[:])
	w.u16(Version)
	w.u16(0) // flags, currently zero,

	var body bytes.Buffer
	st := newStringTable()
	if err := encodeChunkBody(&body, st, chunk); err != nil {
		return err
	}

	st.write(w)
	w.bytes(body.Bytes())
	return w.err
}

// encodeChunkBody writes everything after the string table: the FnProto
// table, the top-level FnProto, and the constants pool. It is factored out
// from WriteChunk so a Fn value (tag 0x08) can embed a self-contained
// single-proto chunk inline without a second magic/version header.
func encodeChunkBody(out io.Writer, st *stringTable, chunk *compiler.Chunk) error {
	w := newWriter(out)
	w.i32(st.internOptional(chunk.Name, chunk.Name != ""))

	w.u32(uint32(len(chunk.Protos)))
	for _, p := range chunk.Protos {
		if err := writeFnProto(w, st, p); err != nil {
			return err
		}
	}

	hasToplevel := chunk.Toplevel != nil
	w.u8(boolByte(hasToplevel))
	if hasToplevel {
		if err := writeFnProto(w, st, chunk.Toplevel); err != nil {
			return err
		}
	}

	w.u32(uint32(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		if err := writeValue(w, st, c); err != nil {
			return err
		}
	}
	return w.err
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func writeFnProto(w *writer, st *stringTable, p *compiler.FnProto) error {
	w.i32(st.internOptional(p.Name, p.Name != ""))
	w.u32(uint32(p.Pos))

	w.u32(uint32(len(p.Captures)))
	for _, c := range p.Captures {
		w.u32(uint32(st.intern(c.Name)))
		w.u32(uint32(c.ParentSlot))
	}

	w.u32(uint32(len(p.Arities)))
	for _, a := range p.Arities {
		writeArity(w, st, a)
	}
	return w.err
}

func writeArity(w *writer, st *stringTable, a compiler.Arity) {
	w.u32(uint32(a.NumParams))
	w.u8(boolByte(a.Variadic))
	w.i32(int32(a.SelfSlot))

	w.u32(uint32(len(a.Locals)))
	for _, l := range a.Locals {
		w.u32(uint32(st.intern(l.Name)))
		w.u32(uint32(l.Pos))
		w.u32(uint32(l.Slot))
	}

	w.u32(uint32(len(a.Catches)))
	for _, c := range a.Catches {
		w.u32(uint32(c.PC0))
		w.u32(uint32(c.PC1))
		w.u32(uint32(c.StartPC))
		w.i32(st.internOptional(c.ExceptionType, c.ExceptionType != ""))
	}

	w.u32(uint32(len(a.Finallys)))
	for _, f := range a.Finallys {
		w.u32(uint32(f.PC0))
		w.u32(uint32(f.PC1))
		w.u32(uint32(f.FinallyPC))
	}

	w.u32(uint32(a.MaxStack))

	w.u32(uint32(len(a.Code)))
	w.bytes(a.Code)

	w.u32(uint32(len(a.Lines)))
	for _, l := range a.Lines {
		w.u32(l)
	}
	w.u32(uint32(len(a.Cols)))
	for _, c := range a.Cols {
		w.u32(c)
	}
}

// ReadChunk decodes a complete AOT artefact written by WriteChunk.
func ReadChunk(in io.Reader) (*compiler.Chunk, error) {
	r := newReader(in)
	magic := r.bytes(4)
	if r.err != nil {
		return nil, r.err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, ErrBadMagic
	}
	version := r.u16()
	if version > Version {
		return nil, &ErrUnsupportedVersion{Version: version}
	}
	_ = r.u16() // flags, reserved

	strs := readStringTable(r)
	return decodeChunkBody(r, strs)
}

func decodeChunkBody(r *reader, strs []string) (*compiler.Chunk, error) {
	nameIdx := r.i32()
	name, _ := at(strs, nameIdx)

	protoCount := r.u32()
	protos := make([]*compiler.FnProto, protoCount)
	for i := range protos {
		p, err := readFnProto(r, strs)
		if err != nil {
			return nil, err
		}
		protos[i] = p
	}

	var toplevel *compiler.FnProto
	if r.u8() != 0 {
		p, err := readFnProto(r, strs)
		if err != nil {
			return nil, err
		}
		toplevel = p
	}

	constCount := r.u32()
	consts := make([]value.Value, constCount)
	for i := range consts {
		v, err := readValue(r, strs)
		if err != nil {
			return nil, err
		}
		consts[i] = v
	}
	if r.err != nil {
		return nil, r.err
	}
	return &compiler.Chunk{Name: name, Toplevel: toplevel, Protos: protos, Constants: consts}, nil
}

func readFnProto(r *reader, strs []string) (*compiler.FnProto, error) {
	nameIdx := r.i32()
	name, _ := at(strs, nameIdx)
	pos := token.Pos(r.u32())

	capCount := r.u32()
	captures := make([]compiler.CaptureSlot, capCount)
	for i := range captures {
		nIdx := r.u32()
		n, _ := at(strs, int32(nIdx))
		captures[i] = compiler.CaptureSlot{Name: n, ParentSlot: int(r.u32())}
	}

	arityCount := r.u32()
	arities := make([]compiler.Arity, arityCount)
	for i := range arities {
		a, err := readArity(r, strs)
		if err != nil {
			return nil, err
		}
		arities[i] = a
	}
	if r.err != nil {
		return nil, r.err
	}
	return &compiler.FnProto{Name: name, Pos: pos, Arities: arities, Captures: captures}, nil
}

func readArity(r *reader, strs []string) (compiler.Arity, error) {
	var a compiler.Arity
	a.NumParams = int(r.u32())
	a.Variadic = r.u8() != 0
	a.SelfSlot = int(r.i32())

	localCount := r.u32()
	a.Locals = make([]compiler.Binding, localCount)
	for i := range a.Locals {
		nIdx := r.u32()
		n, _ := at(strs, int32(nIdx))
		a.Locals[i] = compiler.Binding{Name: n, Pos: token.Pos(r.u32()), Slot: int(r.u32())}
	}

	catchCount := r.u32()
	a.Catches = make([]compiler.CatchSpec, catchCount)
	for i := range a.Catches {
		pc0, pc1, start := r.u32(), r.u32(), r.u32()
		typeIdx := r.i32()
		typ, _ := at(strs, typeIdx)
		a.Catches[i] = compiler.CatchSpec{PC0: int(pc0), PC1: int(pc1), StartPC: int(start), ExceptionType: typ}
	}

	finCount := r.u32()
	a.Finallys = make([]compiler.FinallySpec, finCount)
	for i := range a.Finallys {
		pc0, pc1, fpc := r.u32(), r.u32(), r.u32()
		a.Finallys[i] = compiler.FinallySpec{PC0: int(pc0), PC1: int(pc1), FinallyPC: int(fpc)}
	}

	a.MaxStack = int(r.u32())

	codeLen := r.u32()
	a.Code = r.bytes(int(codeLen))

	lineCount := r.u32()
	a.Lines = make([]uint32, lineCount)
	for i := range a.Lines {
		a.Lines[i] = r.u32()
	}
	colCount := r.u32()
	a.Cols = make([]uint32, colCount)
	for i := range a.Cols {
		a.Cols[i] = r.u32()
	}
	return a, r.err
}

// writeFn embeds a *vm.Fn as a self-contained single-proto chunk (its own
// FnProto plus the constants pool its bytecode indexes into) rather than an
// index into an externally shared FnProto table:the literal "FnProto
// index" assumes one table shared by the whole persisted unit, but an
// environment snapshot's vars may each hold a closure compiled from an
// entirely separate Chunk, so each embeds its own (see DESIGN.md).
func writeFn(w *writer, _ *stringTable, fn *vm.Fn) error {
	synthetic := &compiler.Chunk{Toplevel: fn.Proto, Constants: fn.Chunk.Constants}
	var body bytes.Buffer
	if err := WriteChunk(&body, synthetic); err != nil {
		return err
	}
	w.u8(tagFn)
	w.u32(uint32(body.Len()))
	w.bytes(body.Bytes())

	w.u32(uint32(len(fn.Captures)))
	innerSt := newStringTable()
	var capBody bytes.Buffer
	capW := newWriter(&capBody)
	for _, c := range fn.Captures {
		if err := writeValue(capW, innerSt, c); err != nil {
			return err
		}
	}
	var stBuf bytes.Buffer
	innerSt.write(newWriter(&stBuf))
	w.u32(uint32(stBuf.Len()))
	w.bytes(stBuf.Bytes())
	w.bytes(capBody.Bytes())

	w.i32(-1) // defining-namespace index: vm.Fn does not track one (see DESIGN.md)
	return w.err
}

func readFn(r *reader) (value.Value, error) {
	chunkLen := r.u32()
	chunkBytes := r.bytes(int(chunkLen))
	if r.err != nil {
		return nil, r.err
	}
	chunk, err := ReadChunk(bytes.NewReader(chunkBytes))
	if err != nil {
		return nil, err
	}

	capCount := r.u32()
	stLen := r.u32()
	stBytes := r.bytes(int(stLen))
	innerStrs := readStringTable(newReader(bytes.NewReader(stBytes)))
	captures := make([]value.Value, capCount)
	for i := range captures {
		v, err := readValue(r, innerStrs)
		if err != nil {
			return nil, err
		}
		captures[i] = v
	}
	_ = r.i32() // defining-namespace index, not currently tracked by vm.Fn

	return &vm.Fn{Proto: chunk.Toplevel, Chunk: chunk, Captures: captures}, r.err
}
