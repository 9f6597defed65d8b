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
	"fmt"

	"minicc/utils"
)

// VerifyStructure checks the invariants a freshly built function must hold
// before it is handed to the allocator. Blocks reachable only through
// break/continue/return's "fresh unreachable block" convention are expected
// to have no predecessors; this is not an error.
func VerifyStructure(fn *Func) {
	for _, b := range fn.Blocks {
		term := b.Terminator()
		if term == nil {
			fmt.Printf("%v", fn)
			utils.Fatal("block b%d in %s has no terminator", b.Label, fn.Name)
		}
		for _, i := range b.Instr[:len(b.Instr)-1] {
			if i.Op.IsTerminator() {
				utils.Fatal("block b%d in %s has a terminator before its end", b.Label, fn.Name)
			}
		}

		switch term.Op {
		case JMP:
			if (term.R2 != nil) != (term.BB1.Param != nil) {
				utils.Fatal("b%d: JMP argument-carrying status disagrees with target b%d's param",
					b.Label, term.BB1.Label)
			}
			if len(b.Succ) != 1 {
				utils.Fatal("b%d: JMP block must have exactly one successor, got %d", b.Label, len(b.Succ))
			}
		case BR:
			if len(b.Succ) != 2 {
				utils.Fatal("b%d: BR block must have exactly two successors, got %d", b.Label, len(b.Succ))
			}
		case RETURN:
			if len(b.Succ) != 0 {
				utils.Fatal("b%d: RETURN block must have no successors, got %d", b.Label, len(b.Succ))
			}
		default:
			utils.Fatal("b%d: terminator %s is not JMP/BR/RETURN", b.Label, term.Op)
		}
	}

	utils.Assert(len(fn.Entry().Pred) == 0, "entry block of %s has predecessors", fn.Name)
}
