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
package ir

import (
	"minicc/ast"
	"minicc/utils"
)

// Block is a basic block: a stable label, a straight-line instruction list
// ending in exactly one terminator, and an optional Param register that
// incoming argument-carrying JMPs feed. Succ/Pred are non-owning back-edges;
// DefRegs/InRegs/OutRegs are filled by the allocator's liveness pass.
type Block struct {
	Label int
	Instr []*Instr
	Param *Reg

	Succ []*Block
	Pred []*Block

	DefRegs []*Reg
	InRegs  []*Reg
	OutRegs []*Reg
}

func (b *Block) emit(i *Instr) {
	utils.Assert(len(b.Instr) == 0 || !b.Instr[len(b.Instr)-1].Op.IsTerminator(),
		"attempt to append past a terminator in b%d", b.Label)
	b.Instr = append(b.Instr, i)
}

// Terminator returns the block's single terminating instruction, or nil if
// the block is still open.
func (b *Block) Terminator() *Instr {
	if len(b.Instr) == 0 {
		return nil
	}
	last := b.Instr[len(b.Instr)-1]
	if last.Op.IsTerminator() {
		return last
	}
	return nil
}

func wireTo(from, to *Block) {
	from.Succ = append(from.Succ, to)
	to.Pred = append(to.Pred, from)
}

// Func is one compiled function: its own monotonically increasing block-
// label and virtual-register counters (per §9's design note, these are
// per-function fields, not process-wide state, so two functions compile
// independently), its blocks in creation order (entry first) and its frame
// size once the allocator has run.
type Func struct {
	Name      string
	Params    []*ast.Var
	Blocks    []*Block
	FrameSize int

	// SpillOffsets maps a spill slot index (the Imm of a LOAD_SPILL/
	// STORE_SPILL) to its frame-pointer-relative byte offset. Filled in by
	// package regalloc's frame layout pass.
	SpillOffsets []int

	nextLabel int
	nextVn    int
}

func NewFunc(name string, params []*ast.Var) *Func {
	return &Func{Name: name, Params: params}
}

func (fn *Func) NewBlock() *Block {
	b := &Block{Label: fn.nextLabel}
	fn.nextLabel++
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// NumRegs returns the number of virtual registers allocated in fn so far,
// i.e. a valid size for a Vn-indexed bitmap.
func (fn *Func) NumRegs() int { return fn.nextVn }

func (fn *Func) NewReg() *Reg {
	r := newReg(fn.nextVn)
	fn.nextVn++
	return r
}

func (fn *Func) Entry() *Block {
	utils.Assert(len(fn.Blocks) > 0, "function %s has no blocks", fn.Name)
	return fn.Blocks[0]
}

// Program is the whole translation unit: every function plus every global.
type Program struct {
	Funcs   []*Func
	Globals []*ast.Var
}
