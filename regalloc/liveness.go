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

// Package regalloc maps the unbounded virtual registers of package ir onto a
// fixed pool of physical registers, inserting spills and laying out the
// frame for whatever could not be colored.
package regalloc

import (
	"minicc/ir"
	"minicc/utils"
)

// Linearize orders fn's blocks in reverse postorder and stamps every
// instruction with a linear index in that order; coloring and liveness both
// walk this order, and the emitter later walks the blocks in the same order
// so labels come out in a sensible sequence.
func Linearize(fn *ir.Func) []*ir.Block {
	visited := map[*ir.Block]bool{}
	var postorder []*ir.Block
	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succ {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(fn.Entry())

	order := make([]*ir.Block, len(postorder))
	for i, b := range postorder {
		order[len(postorder)-1-i] = b
	}

	idx := 0
	for _, b := range order {
		for _, in := range b.Instr {
			in.SetIdx(idx)
			idx++
		}
	}
	return order
}

func regOperands(in *ir.Instr) []*ir.Reg {
	regs := []*ir.Reg{in.R1, in.R2}
	return append(regs, in.Args...)
}

func bitsToRegs(bm *utils.BitMap, byVn map[int]*ir.Reg) []*ir.Reg {
	var out []*ir.Reg
	for vn := 0; vn < bm.Size(); vn++ {
		if bm.IsSet(vn) {
			out = append(out, byVn[vn])
		}
	}
	return out
}

// ComputeLiveness fills in def_regs/in_regs/out_regs on every block of order
// and def/last_use on every register reachable from it, by iterating the
// classic backward dataflow equations to a fixpoint and then combining the
// result with the linear index Linearize assigned.
func ComputeLiveness(fn *ir.Func, order []*ir.Block) {
	n := fn.NumRegs()
	byVn := make(map[int]*ir.Reg, n)

	def := make(map[*ir.Block]*utils.BitMap, len(order))
	use := make(map[*ir.Block]*utils.BitMap, len(order))
	in := make(map[*ir.Block]*utils.BitMap, len(order))
	out := make(map[*ir.Block]*utils.BitMap, len(order))

	for _, b := range order {
		d := utils.NewBitMap(n)
		u := utils.NewBitMap(n)
		if b.Param != nil {
			byVn[b.Param.Vn] = b.Param
			d.Set(b.Param.Vn)
		}
		for _, instr := range b.Instr {
			for _, r := range regOperands(instr) {
				if r == nil {
					continue
				}
				byVn[r.Vn] = r
				if !d.IsSet(r.Vn) {
					u.Set(r.Vn)
				}
			}
			if instr.R0 != nil {
				byVn[instr.R0.Vn] = instr.R0
				d.Set(instr.R0.Vn)
			}
		}
		def[b] = d
		use[b] = u
		in[b] = utils.NewBitMap(n)
		out[b] = utils.NewBitMap(n)
	}

	for changed := true; changed; {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			b := order[i]
			for _, s := range b.Succ {
				if out[b].Unite(in[s]) {
					changed = true
				}
			}
			next := out[b].Copy()
			next.Remove(def[b])
			next.Unite(use[b])
			if in[b].SetFrom(next) {
				changed = true
			}
		}
	}

	for _, b := range order {
		b.DefRegs = bitsToRegs(def[b], byVn)
		b.InRegs = bitsToRegs(in[b], byVn)
		b.OutRegs = bitsToRegs(out[b], byVn)

		firstIdx := b.Instr[0].Idx()
		lastIdx := b.Instr[len(b.Instr)-1].Idx()

		if b.Param != nil {
			b.Param.Def = firstIdx
		}
		for _, r := range b.OutRegs {
			if r.LastUse < lastIdx {
				r.LastUse = lastIdx
			}
		}
		for _, instr := range b.Instr {
			p := instr.Idx()
			for _, r := range regOperands(instr) {
				if r != nil && r.LastUse < p {
					r.LastUse = p
				}
			}
			if instr.R0 != nil {
				instr.R0.Def = p
			}
		}
	}

	for _, r := range byVn {
		if r.LastUse < r.Def {
			r.LastUse = r.Def // dead immediately: never used, not live-out
		}
	}
}
