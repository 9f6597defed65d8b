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

import "minicc/utils"

// Simplify removes unreachable blocks (the "fresh unreachable block" the
// builder drops after every break/continue/return) and instructions whose
// destination has no remaining use and no observable side effect. Neither
// step is required for correctness, but running it keeps the allocator from
// wasting registers and stack slots on code that can never execute.
func Simplify(fn *Func) {
	removeUnreachableBlocks(fn)
	for removeDeadInstructions(fn) {
	}
}

func removeUnreachableBlocks(fn *Func) {
	reachable := utils.NewSet[*Block]()
	var walk func(b *Block)
	walk = func(b *Block) {
		if !reachable.Add(b) {
			return
		}
		for _, s := range b.Succ {
			walk(s)
		}
	}
	walk(fn.Entry())

	kept := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if reachable.Contains(b) {
			kept = append(kept, b)
		}
	}
	fn.Blocks = kept

	for _, b := range fn.Blocks {
		livePred := b.Pred[:0]
		for _, p := range b.Pred {
			if reachable.Contains(p) {
				livePred = append(livePred, p)
			}
		}
		b.Pred = livePred
	}
}

// isPinned reports whether an instruction must be kept even with an unused
// destination: it either has no destination of its own or its effect is
// observable beyond the register file. LOAD is kept as well, even when its
// value is unused.
func isPinned(op Op) bool {
	switch op {
	case STORE, STORE_ARG, CALL, LOAD:
		return true
	}
	return false
}

func operandRegs(i *Instr) []*Reg {
	regs := []*Reg{i.R1, i.R2}
	return append(regs, i.Args...)
}

func removeDeadInstructions(fn *Func) bool {
	used := utils.NewSet[int]()
	for _, b := range fn.Blocks {
		for _, i := range b.Instr {
			for _, r := range operandRegs(i) {
				if r != nil {
					used.Add(r.Vn)
				}
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		kept := b.Instr[:0]
		for _, i := range b.Instr {
			if i.Op.IsTerminator() || isPinned(i.Op) || i.R0 == nil || used.Contains(i.R0.Vn) {
				kept = append(kept, i)
				continue
			}
			changed = true
		}
		b.Instr = kept
	}
	return changed
}
