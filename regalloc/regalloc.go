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

// Allocate runs the whole pipeline the component design lays out:
// linearize, liveness, color, spill, frame layout. It returns the blocks in
// the linear order the emitter should walk them in.
func Allocate(fn *ir.Func) []*ir.Block {
	order := Linearize(fn)
	ComputeLiveness(fn, order)
	Color(fn, order)
	slots := InsertSpills(fn)
	ComputeFrame(fn, slots)
	return order
}

// AllocateProgram runs Allocate over every function in p, in place.
func AllocateProgram(p *ir.Program) map[*ir.Func][]*ir.Block {
	orders := make(map[*ir.Func][]*ir.Block, len(p.Funcs))
	for _, fn := range p.Funcs {
		orders[fn] = Allocate(fn)
	}
	return orders
}
