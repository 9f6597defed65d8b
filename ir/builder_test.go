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
	"testing"

	"minicc/ast"
)

func buildOne(t *testing.T, src string) *Func {
	t.Helper()
	prog := ast.ParseProgram(src)
	if len(prog.Funcs) == 0 {
		t.Fatalf("no functions parsed from %q", src)
	}
	fn := BuildFunc(prog.Funcs[len(prog.Funcs)-1])
	VerifyStructure(fn)
	return fn
}

func TestBuildFuncHasTwoEntryBlocks(t *testing.T) {
	fn := buildOne(t, `int main() { return 7; }`)
	if len(fn.Blocks) < 2 {
		t.Fatalf("expected at least two blocks, got %d", len(fn.Blocks))
	}
	if len(fn.Entry().Instr) != 1 {
		t.Fatalf("entry block should hold only its jump, got %v", fn.Entry().Instr)
	}
	if fn.Entry().Terminator().Op != JMP {
		t.Fatalf("entry block must jump to the second block, got %s", fn.Entry().Terminator().Op)
	}
}

func TestForLoopFourBlocks(t *testing.T) {
	src := `
	int main() {
		int sum;
		int i;
		sum = 0;
		for (i = 0; i < 10; i = i + 1) {
			sum = sum + i;
		}
		return sum;
	}`
	fn := buildOne(t, src)
	var brCount, jmpToSelf int
	for _, b := range fn.Blocks {
		if b.Terminator().Op == BR {
			brCount++
		}
	}
	if brCount == 0 {
		t.Fatalf("expected at least one BR block for the loop condition")
	}
	_ = jmpToSelf
}

func TestShortCircuitAndProducesJoinWithParam(t *testing.T) {
	src := `
	int main() {
		int a;
		int b;
		a = 1;
		b = 0;
		return a && b;
	}`
	fn := buildOne(t, src)
	found := false
	for _, b := range fn.Blocks {
		if b.Param != nil {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a join block with a non-nil param for &&")
	}
}

func TestSwitchAllocatesOneBlockPerCase(t *testing.T) {
	src := `
	int main() {
		int x;
		x = 5;
		switch (x) {
		case 1:
			return 1;
		case 5:
			return 50;
		default:
			return 0;
		}
	}`
	fn := buildOne(t, src)
	returns := 0
	for _, b := range fn.Blocks {
		if b.Terminator().Op == RETURN {
			returns++
		}
	}
	// one per case (3) plus the synthesized trailing return 0
	if returns < 4 {
		t.Fatalf("expected at least 4 RETURN blocks, got %d", returns)
	}
}

func TestBreakJumpsOutOfLoop(t *testing.T) {
	src := `
	int main() {
		int i;
		for (i = 0; i < 10; i = i + 1) {
			if (i == 3) {
				break;
			}
		}
		return i;
	}`
	fn := buildOne(t, src)
	VerifyStructure(fn)
}
