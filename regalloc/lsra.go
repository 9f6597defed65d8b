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

import "minicc/ir"

// NumGeneralRegs is the size of the scheduling pool: r10, r11, rbx, r12,
// r13, r14, r15. rax/rdx (MUL/DIV/MOD, return values) and the six System V
// argument registers are never colored into and so never compete with this
// pool; package codegen owns the physical names, regalloc only needs the
// count.
const NumGeneralRegs = 7

// Color walks order (already linearized and carrying liveness) maintaining
// which virtual register currently occupies each physical slot. Any
// register that cannot be colored is marked Spill instead of given an Rn.
func Color(fn *ir.Func, order []*ir.Block) {
	// depthByIdx maps each instruction's linear index to the loop nesting
	// depth of its block, for the eviction tie-break below.
	depth := loopDepths(fn)
	depthByIdx := make(map[int]int)
	for _, b := range order {
		d := depth[b]
		for _, instr := range b.Instr {
			depthByIdx[instr.Idx()] = d
		}
	}

	occupant := make([]*ir.Reg, NumGeneralRegs)

	free := func(pos int) {
		for p, r := range occupant {
			if r != nil && r.LastUse <= pos {
				occupant[p] = nil
			}
		}
	}

	assign := func(r *ir.Reg, pos int) {
		if r.Rn >= 0 || r.Spill {
			return
		}
		for p, occ := range occupant {
			if occ == nil {
				occupant[p] = r
				r.Rn = p
				return
			}
		}
		// No free slot: spill whichever occupant has the furthest next use.
		// The data model tracks only a single last_use per register rather
		// than a full use list, so last_use doubles as the "next use"
		// estimate the spec's coloring rule asks for.
		victimSlot, farthest := 0, -1
		for p, occ := range occupant {
			if occ.LastUse > farthest {
				farthest = occ.LastUse
				victimSlot = p
			}
		}
		// Among occupants tied for furthest next use, compare the loop
		// depth at their last use. Tied occupants share one LastUse index
		// and so one depth, so this never moves the victim: the lowest-
		// numbered tied slot is the one spilled, and coloring is plain
		// furthest-next-use in every function.
		for p, occ := range occupant {
			if occ.LastUse == farthest && depthByIdx[occ.LastUse] < depthByIdx[occupant[victimSlot].LastUse] {
				victimSlot = p
			}
		}
		victim := occupant[victimSlot]
		victim.Spill = true
		victim.Rn = -1
		occupant[victimSlot] = r
		r.Rn = victimSlot
	}

	for _, b := range order {
		entryIdx := b.Instr[0].Idx()
		free(entryIdx)
		if b.Param != nil {
			assign(b.Param, entryIdx)
		}
		for _, instr := range b.Instr {
			pos := instr.Idx()
			free(pos)
			for _, r := range regOperands(instr) {
				if r != nil {
					assign(r, pos)
				}
			}
			if instr.R0 != nil {
				assign(instr.R0, pos)
			}
		}
	}
}
