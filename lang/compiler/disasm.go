package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders a Chunk as human-readable text, one instruction per
// line, for use in golden-file tests and debugging. This direction is
// one-way: there is no textual assembler producing a Chunk back from this
// format, since every test here builds Chunks by compiling real source
// through lang/reader and lang/analyzer rather than by hand-assembling
// bytecode (see DESIGN.md's lang/compiler entry for the reasoning).
func Disassemble(c *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %s\n", c.Name)
	if len(c.Constants) > 0 {
		fmt.Fprintf(&b, "constants:\n")
		for i, v := range c.Constants {
			fmt.Fprintf(&b, "  %d: %s\n", i, v.String())
		}
	}
	for i, p := range c.Protos {
		fmt.Fprintf(&b, "proto %d %s\n", i, p.Name)
		disassembleProto(&b, p)
	}
	fmt.Fprintf(&b, "toplevel\n")
	disassembleProto(&b, c.Toplevel)
	return b.String()
}

func disassembleProto(b *strings.Builder, p *FnProto) {
	for i, cs := range p.Captures {
		fmt.Fprintf(b, "  capture %d: %s <- parent slot %d\n", i, cs.Name, cs.ParentSlot)
	}
	for ai, a := range p.Arities {
		fmt.Fprintf(b, "  arity %d: params=%d variadic=%v maxstack=%d\n", ai, a.NumParams, a.Variadic, a.MaxStack)
		for _, l := range a.Locals {
			fmt.Fprintf(b, "    local %d: %s\n", l.Slot, l.Name)
		}
		for pc := 0; pc+instrSize <= len(a.Code); pc += instrSize {
			op := Opcode(a.Code[pc])
			operand := int(a.Code[pc+1])<<8 | int(a.Code[pc+2])
			fmt.Fprintf(b, "    %4d  %-18s %d\n", pc, op, operand)
		}
		for _, cs := range a.Catches {
			fmt.Fprintf(b, "    catch [%d,%d) -> %d type=%q\n", cs.PC0, cs.PC1, cs.StartPC, cs.ExceptionType)
		}
		for _, fs := range a.Finallys {
			fmt.Fprintf(b, "    finally [%d,%d) -> %d\n", fs.PC0, fs.PC1, fs.FinallyPC)
		}
	}
}
