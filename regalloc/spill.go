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
package regalloc

import (
	"minicc/ir"
	"minicc/utils"
)

// InsertSpills rewalks every block once coloring is finished, replacing each
// use of a spilled register with a LOAD_SPILL from a fresh stack slot
// immediately before the instruction, and each def with a STORE_SPILL
// immediately after. Every spilled virtual register gets exactly one slot,
// allocated the first time it is encountered.
func InsertSpills(fn *ir.Func) map[int]int {
	slotOf := map[int]int{} // Vn -> slot index
	nextSlot := 0
	slotFor := func(r *ir.Reg) int {
		if s, ok := slotOf[r.Vn]; ok {
			return s
		}
		s := nextSlot
		nextSlot++
		slotOf[r.Vn] = s
		return s
	}

	for _, b := range fn.Blocks {
		var out []*ir.Instr
		for _, instr := range b.Instr {
			taken := map[int]bool{}
			for _, r := range regOperands(instr) {
				if r != nil && r.Rn >= 0 {
					taken[r.Rn] = true
				}
			}

			reloadIfSpilled := func(r *ir.Reg) *ir.Reg {
				if r == nil || !r.Spill {
					return r
				}
				scratch := fn.NewReg()
				scratch.Rn = pickScratch(taken)
				taken[scratch.Rn] = true
				out = append(out, &ir.Instr{Op: ir.LOAD_SPILL, R0: scratch, Imm: int64(slotFor(r))})
				return scratch
			}

			instr.R1 = reloadIfSpilled(instr.R1)
			instr.R2 = reloadIfSpilled(instr.R2)
			for i, a := range instr.Args {
				instr.Args[i] = reloadIfSpilled(a)
			}

			var storeAfter *ir.Instr
			if instr.R0 != nil && instr.R0.Spill {
				orig := instr.R0
				scratch := fn.NewReg()
				scratch.Rn = pickScratch(taken)
				instr.R0 = scratch
				storeAfter = &ir.Instr{Op: ir.STORE_SPILL, R1: scratch, Imm: int64(slotFor(orig))}
			}

			out = append(out, instr)
			if storeAfter != nil {
				out = append(out, storeAfter)
			}
		}
		b.Instr = out
	}

	return slotOf
}

// pickScratch returns the lowest-numbered general-pool slot not already
// claimed by another operand of the instruction currently being rewritten.
func pickScratch(taken map[int]bool) int {
	for p := 0; p < NumGeneralRegs; p++ {
		if !taken[p] {
			return p
		}
	}
	utils.Fatal("spill rewrite could not find a free scratch register among %d", NumGeneralRegs)
	return -1
}
