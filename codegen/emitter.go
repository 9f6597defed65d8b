// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package codegen

import (
	"fmt"
	"strings"

	"minicc/ir"
)

// Emitter walks an allocated ir.Program and prints Intel-syntax x86-64
// assembly. One Emitter renders the whole program; labelBase/endBase give
// every function its own slice of the integer label space, so two
// functions' per-function-local block labels (ir.Block.Label, reset at
// function boundaries per package ir's own design) never collide in the
// emitted text.
type Emitter struct {
	buf      strings.Builder
	labelBase int
	endBase   int
}

// Emit renders prog to assembly text. orders must hold, for every function in
// prog.Funcs, the linear block order regalloc.Allocate returned for it.
func Emit(prog *ir.Program, orders map[*ir.Func][]*ir.Block) string {
	e := &Emitter{}
	e.line(".intel_syntax noprefix")
	e.emitGlobals(prog)
	e.line(".text")
	for _, fn := range prog.Funcs {
		e.emitFunc(fn, orders[fn])
	}
	return e.buf.String()
}

func (e *Emitter) line(format string, args ...interface{}) {
	fmt.Fprintf(&e.buf, format+"\n", args...)
}

func (e *Emitter) emitGlobals(prog *ir.Program) {
	if len(prog.Globals) == 0 {
		return
	}
	e.line(".data")
	for _, g := range prog.Globals {
		e.line(".global %s", g.Name)
		e.line("%s:", g.Name)
		if g.Init != nil {
			parts := make([]string, len(g.Init))
			for i, b := range g.Init {
				parts[i] = fmt.Sprintf("%d", b)
			}
			e.line("  .byte %s", strings.Join(parts, ","))
		} else {
			e.line("  .zero %d", g.Type.Size)
		}
	}
}

func (e *Emitter) blockLabel(base int, b *ir.Block) string {
	return fmt.Sprintf(".L%d", base+b.Label)
}

func (e *Emitter) emitFunc(fn *ir.Func, order []*ir.Block) {
	base := e.labelBase
	maxLabel := 0
	for _, b := range order {
		if b.Label > maxLabel {
			maxLabel = b.Label
		}
	}
	e.labelBase = base + maxLabel + 1
	endLabel := fmt.Sprintf(".Lend%d", e.endBase)
	e.endBase++

	used := usedCalleeSaved(order)

	e.line(".global %s", fn.Name)
	e.line("%s:", fn.Name)
	e.line("  push rbp")
	e.line("  mov rbp, rsp")
	e.line("  sub rsp, %d", fn.FrameSize)
	for _, rn := range used {
		e.line("  push %s", physReg(rn))
	}

	for idx, b := range order {
		e.line("%s:", e.blockLabel(base, b))
		var next *ir.Block
		if idx+1 < len(order) {
			next = order[idx+1]
		}
		for _, instr := range b.Instr {
			e.emitInstr(fn, instr, base, next, endLabel)
		}
	}

	e.line("%s:", endLabel)
	for i := len(used) - 1; i >= 0; i-- {
		e.line("  pop %s", physReg(used[i]))
	}
	e.line("  mov rsp, rbp")
	e.line("  pop rbp")
	e.line("  ret")
}

// usedCalleeSaved returns, in ascending physical-slot order, every
// callee-saved register the allocator placed a value in anywhere in order.
func usedCalleeSaved(order []*ir.Block) []int {
	seen := make([]bool, 7)
	mark := func(r *ir.Reg) {
		if r != nil && r.Rn >= 0 && calleeSaved(r.Rn) {
			seen[r.Rn] = true
		}
	}
	for _, b := range order {
		mark(b.Param)
		for _, instr := range b.Instr {
			mark(instr.R0)
			mark(instr.R1)
			mark(instr.R2)
			for _, a := range instr.Args {
				mark(a)
			}
		}
	}
	var out []int
	for rn, s := range seen {
		if s {
			out = append(out, rn)
		}
	}
	return out
}

func op(r *ir.Reg) string { return physReg(r.Rn) }

func (e *Emitter) emitInstr(fn *ir.Func, i *ir.Instr, base int, next *ir.Block, endLabel string) {
	switch i.Op {
	case ir.IMM:
		e.line("  mov %s, %d", op(i.R0), i.Imm)
	case ir.MOV:
		e.line("  mov %s, %s", op(i.R0), op(i.R1))
	case ir.ADD:
		e.binop("add", i)
	case ir.SUB:
		e.binop("sub", i)
	case ir.AND:
		e.binop("and", i)
	case ir.OR:
		e.binop("or", i)
	case ir.XOR:
		e.binop("xor", i)
	case ir.SHL:
		e.shiftop("shl", i)
	case ir.SHR:
		e.shiftop("shr", i)
	case ir.MUL:
		e.line("  mov rax, %s", op(i.R2))
		e.line("  mul %s", op(i.R1))
		e.line("  mov %s, rax", op(i.R0))
	case ir.DIV:
		e.line("  mov rax, %s", op(i.R1))
		e.line("  cqo")
		e.line("  div %s", op(i.R2))
		e.line("  mov %s, rax", op(i.R0))
	case ir.MOD:
		e.line("  mov rax, %s", op(i.R1))
		e.line("  cqo")
		e.line("  div %s", op(i.R2))
		e.line("  mov %s, rdx", op(i.R0))
	case ir.EQ:
		e.cmpSet("sete", i)
	case ir.NE:
		e.cmpSet("setne", i)
	case ir.LT:
		e.cmpSet("setl", i)
	case ir.LE:
		e.cmpSet("setle", i)
	case ir.BPREL:
		e.line("  lea %s, [rbp%+d]", op(i.R0), i.Var.Offset)
	case ir.LABEL_ADDR:
		e.line("  lea %s, [rip + %s]", op(i.R0), i.Var.Name)
	case ir.LOAD:
		if i.Size >= 8 {
			e.line("  mov %s, qword ptr [%s]", op(i.R0), op(i.R2))
		} else {
			e.line("  movzx %s, %s [%s]", op(i.R0), ptrKeyword(i.Size), op(i.R2))
		}
	case ir.STORE:
		e.line("  mov %s [%s], %s", ptrKeyword(i.Size), op(i.R1), physRegSized(i.R2.Rn, i.Size))
	case ir.STORE_ARG:
		e.line("  mov %s [rbp%+d], %s", ptrKeyword(i.Size), i.Var.Offset, argRegSized(int(i.Imm), i.Size))
	case ir.JMP:
		if i.R2 != nil && i.BB1.Param != nil && i.R2.Rn != i.BB1.Param.Rn {
			e.line("  mov %s, %s", op(i.BB1.Param), op(i.R2))
		}
		if next == nil || i.BB1 != next {
			e.line("  jmp %s", e.blockLabel(base, i.BB1))
		}
	case ir.BR:
		e.line("  cmp %s, 0", op(i.R2))
		e.line("  je %s", e.blockLabel(base, i.BB2))
		if next == nil || i.BB1 != next {
			e.line("  jmp %s", e.blockLabel(base, i.BB1))
		}
	case ir.RETURN:
		e.line("  mov rax, %s", op(i.R2))
		e.line("  jmp %s", endLabel)
	case ir.CALL:
		e.emitCall(i)
	case ir.NOP:
		e.line("  nop")
	case ir.LOAD_SPILL:
		e.line("  mov %s, qword ptr [rbp%+d]", op(i.R0), fn.SpillOffsets[i.Imm])
	case ir.STORE_SPILL:
		e.line("  mov qword ptr [rbp%+d], %s", fn.SpillOffsets[i.Imm], op(i.R1))
	default:
		panic(fmt.Sprintf("codegen: unhandled opcode %s", i.Op))
	}
}

// binop lowers the two-address form dst = src1 op src2. When the allocator
// has colored dst into the same physical register as src2 (reachable under
// spilling: src1 gets reloaded into a fresh slot while src2 stays put, and
// dst then takes whichever slot src1's reload just vacated), writing src1
// into dst first would clobber src2 before it's read. Stage through rax,
// which the allocator never colors into, whenever that alias is live.
func (e *Emitter) binop(mnemonic string, i *ir.Instr) {
	if i.R0.Rn == i.R2.Rn {
		e.line("  mov rax, %s", op(i.R1))
		e.line("  %s rax, %s", mnemonic, op(i.R2))
		e.line("  mov %s, rax", op(i.R0))
		return
	}
	e.line("  mov %s, %s", op(i.R0), op(i.R1))
	e.line("  %s %s, %s", mnemonic, op(i.R0), op(i.R2))
}

// shiftop handles SHL/SHR's x86 constraint that a variable shift count must
// sit in cl; rcx is never colored into by the allocator, so it is always
// free to clobber here. src2 is read into rcx before dst is written so that
// a dst/src2 alias (see binop above) can never lose the shift count.
func (e *Emitter) shiftop(mnemonic string, i *ir.Instr) {
	e.line("  mov rcx, %s", op(i.R2))
	e.line("  mov %s, %s", op(i.R0), op(i.R1))
	e.line("  %s %s, cl", mnemonic, op(i.R0))
}

func (e *Emitter) cmpSet(setcc string, i *ir.Instr) {
	e.line("  cmp %s, %s", op(i.R1), op(i.R2))
	e.line("  %s al", setcc)
	e.line("  movzx %s, al", op(i.R0))
}

// emitCall always preserves r10/r11 around the call: they are the pool's
// only caller-saved slots, and figuring out whether a given call site
// actually needs one live across it takes the same interval bookkeeping the
// simplified allocator deliberately doesn't keep (see regalloc's LastUse
// model). Saving unconditionally costs two extra stack slots per call and is
// always correct.
func (e *Emitter) emitCall(i *ir.Instr) {
	e.line("  push r10")
	e.line("  push r11")
	for idx, a := range i.Args {
		e.line("  mov %s, %s", argReg(idx), op(a))
	}
	e.line("  mov rax, 0")
	e.line("  call %s", i.Callee)
	e.line("  pop r11")
	e.line("  pop r10")
	if i.R0 != nil {
		e.line("  mov %s, rax", op(i.R0))
	}
}
