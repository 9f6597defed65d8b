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

// Package ir is the basic-block-argument-form SSA built from a typed AST:
// an unbounded set of virtual registers over a control-flow graph, ready
// either for analysis or for the register allocator in package regalloc.
package ir

import (
	"fmt"
	"minicc/ast"
)

// Reg is a virtual register: a value produced exactly once in the function
// and consumed any number of times. Rn/Spill/Def/LastUse start unset and are
// filled in by the register allocator; a Reg never changes its Vn once
// assigned.
type Reg struct {
	Vn      int // virtual number, unique and increasing within a function
	Rn      int // physical number, -1 until the allocator assigns one
	Spill   bool
	Def     int // linear index of defining instruction, filled by liveness
	LastUse int // linear index of the final use, filled by liveness
	Var     *ast.Var
}

func newReg(vn int) *Reg {
	return &Reg{Vn: vn, Rn: -1, Def: -1, LastUse: -1}
}

func (r *Reg) String() string {
	if r == nil {
		return "_"
	}
	if r.Rn >= 0 {
		return fmt.Sprintf("r%d", r.Rn)
	}
	return fmt.Sprintf("v%d", r.Vn)
}
