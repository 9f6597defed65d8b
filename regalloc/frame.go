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
	"minicc/ast"
	"minicc/ir"
	"minicc/utils"
)

const spillSlotSize = 8

// ComputeFrame lays out address-taken locals first (every local, under this
// design: see ast.Parser.declareLocal), each padded to its own alignment,
// then one 8-byte slot per spilled virtual register, then rounds the total
// up to 16 bytes and records it as fn.FrameSize. Var.Offset and the spill
// slot table are both frame-pointer-relative and negative (locals grow down
// from rbp).
func ComputeFrame(fn *ir.Func, spillSlots map[int]int) {
	offset := 0
	seen := map[*ast.Var]bool{}
	layoutVar := func(v *ast.Var) {
		if v == nil || !v.AddressTaken || seen[v] {
			return
		}
		seen[v] = true
		align := v.Type.Align
		if align < 1 {
			align = 1
		}
		offset = alignUpTo(offset+v.Type.Size, align)
		v.Offset = -offset
	}

	for _, p := range fn.Params {
		layoutVar(p)
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instr {
			layoutVar(instr.Var)
		}
	}

	slotBase := make([]int, len(spillSlots))
	for _, idx := range spillSlots {
		offset += spillSlotSize
		slotBase[idx] = -offset
	}
	fn.SpillOffsets = slotBase

	fn.FrameSize = utils.Align16(offset)
}

func alignUpTo(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
