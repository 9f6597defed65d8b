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
	"testing"

	"minicc/ast"
	"minicc/ir"
)

func build(t *testing.T, src string) *ir.Func {
	t.Helper()
	prog := ast.ParseProgram(src)
	fn := ir.BuildFunc(prog.Funcs[len(prog.Funcs)-1])
	ir.Simplify(fn)
	return fn
}

func TestAllocateColorsEveryRegister(t *testing.T) {
	fn := build(t, `
	int main() {
		int a;
		int b;
		a = 1;
		b = 2;
		return a + b;
	}`)
	order := Allocate(fn)
	if len(order) == 0 {
		t.Fatalf("expected a non-empty linear order")
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instr {
			for _, r := range regOperands(instr) {
				if r != nil && r.Rn < 0 && !r.Spill {
					t.Fatalf("register v%d left uncolored and unspilled", r.Vn)
				}
			}
			if instr.R0 != nil && instr.R0.Rn < 0 && !instr.R0.Spill && instr.Op != ir.STORE && instr.Op != ir.STORE_ARG {
				t.Fatalf("destination v%d left uncolored and unspilled", instr.R0.Vn)
			}
		}
	}
}

func TestAllocateNineLocalsFrameAligned(t *testing.T) {
	// Nine locals summed left to right: each add consumes both operands, so
	// at most three values are live at once and nothing spills. This checks
	// the frame layout only.
	fn := build(t, `
	int main() {
		int a; int b; int c; int d; int e; int f; int g; int h; int i;
		a = 1; b = 2; c = 3; d = 4; e = 5; f = 6; g = 7; h = 8; i = 9;
		return a + b + c + d + e + f + g + h + i;
	}`)
	Allocate(fn)
	if fn.FrameSize <= 0 {
		t.Fatalf("expected a non-zero frame size once locals are laid out")
	}
	if fn.FrameSize%16 != 0 {
		t.Fatalf("frame size %d is not 16-byte aligned", fn.FrameSize)
	}
}

// TestAllocateSpillsRightAssociatedChain exercises a shape the left-to-right
// sum above never does: a right-associated chain forces the leftmost operand
// of the outer add to stay live across the evaluation of the entire rest of
// the expression, so eight locals are simultaneously live against the
// 7-register pool and at least one of them must genuinely spill.
func TestAllocateSpillsRightAssociatedChain(t *testing.T) {
	fn := build(t, `
	int main() {
		int a; int b; int c; int d; int e; int f; int g; int h; int i;
		a = 1; b = 2; c = 3; d = 4; e = 5; f = 6; g = 7; h = 8; i = 9;
		return a + (b + (c + (d + (e + (f + (g + (h + i)))))));
	}`)
	Allocate(fn)

	// InsertSpills rewrites every operand of a spilled register to a scratch
	// register, so a spill shows up as inserted LOAD_SPILL/STORE_SPILL code.
	spilled := false
	for _, b := range fn.Blocks {
		for _, instr := range b.Instr {
			if instr.Op == ir.LOAD_SPILL || instr.Op == ir.STORE_SPILL {
				spilled = true
			}
		}
	}
	if !spilled {
		t.Fatalf("expected at least one register to spill under this deep right-associated chain")
	}
}

func TestFrameSizeCoversAllLocals(t *testing.T) {
	fn := build(t, `
	int main() {
		int x;
		int y;
		x = 1;
		y = 2;
		return x + y;
	}`)
	Allocate(fn)
	if fn.FrameSize < 16 {
		t.Fatalf("expected at least 16 bytes of frame for two int locals, got %d", fn.FrameSize)
	}
}
