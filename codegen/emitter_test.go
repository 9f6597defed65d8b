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
package codegen

import (
	"strings"
	"testing"

	"minicc/ast"
	"minicc/ir"
	"minicc/regalloc"
)

func emit(t *testing.T, src string) string {
	t.Helper()
	prog := ast.ParseProgram(src)
	irProg := ir.BuildProgram(prog)
	orders := regalloc.AllocateProgram(irProg)
	return Emit(irProg, orders)
}

func TestEmitHeaderAndPrologue(t *testing.T) {
	out := emit(t, `
	int main() {
		return 0;
	}`)
	if !strings.HasPrefix(out, ".intel_syntax noprefix\n") {
		t.Fatalf("expected an Intel-syntax header, got:\n%s", out)
	}
	if !strings.Contains(out, "main:") {
		t.Fatalf("expected a main: label, got:\n%s", out)
	}
	if !strings.Contains(out, "push rbp") || !strings.Contains(out, "mov rbp, rsp") {
		t.Fatalf("expected a standard prologue, got:\n%s", out)
	}
}

func TestEmitMulUsesRaxTemplate(t *testing.T) {
	out := emit(t, `
	int main() {
		int a;
		int b;
		a = 3;
		b = 4;
		return a * b;
	}`)
	if !strings.Contains(out, "mul ") {
		t.Fatalf("expected a mul instruction, got:\n%s", out)
	}
}

func TestEmitDivUsesCqo(t *testing.T) {
	out := emit(t, `
	int main() {
		int a;
		int b;
		a = 10;
		b = 3;
		return a / b;
	}`)
	if !strings.Contains(out, "cqo") || !strings.Contains(out, "div ") {
		t.Fatalf("expected cqo/div, got:\n%s", out)
	}
}

func TestEmitComparisonUsesSetccAndMovzx(t *testing.T) {
	out := emit(t, `
	int main() {
		int a;
		a = 1;
		return a < 2;
	}`)
	if !strings.Contains(out, "setl al") || !strings.Contains(out, "movzx") {
		t.Fatalf("expected setl/movzx, got:\n%s", out)
	}
}

func TestEmitCallSavesScratchRegisters(t *testing.T) {
	out := emit(t, `
	int f(int x) {
		return x;
	}
	int main() {
		return f(1);
	}`)
	if !strings.Contains(out, "call f") {
		t.Fatalf("expected a call to f, got:\n%s", out)
	}
	if !strings.Contains(out, "push r10") || !strings.Contains(out, "pop r10") {
		t.Fatalf("expected r10 saved/restored around the call, got:\n%s", out)
	}
}

func TestEmitSingleEpilogueLabel(t *testing.T) {
	out := emit(t, `
	int main() {
		int x;
		x = 1;
		if (x) {
			return 1;
		}
		return 2;
	}`)
	if strings.Count(out, "pop rbp") != 1 {
		t.Fatalf("expected exactly one epilogue, got:\n%s", out)
	}
}
