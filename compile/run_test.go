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
package compile

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// execExpect compiles source, links it, runs it and asserts the process
// exits with want. It panics with the assembly and the mismatched code on
// failure, the same blunt style the front end's own tests use.
func execExpect(t *testing.T, source string, want int) {
	t.Helper()
	asm := CompileText(source)

	dir, err := os.MkdirTemp("", "minicc-run")
	if err != nil {
		t.Fatalf("mkdtemp: %s", err)
	}
	defer os.RemoveAll(dir)

	exe := filepath.Join(dir, "a.out")
	Assemble(asm, exe)

	cmd := exec.Command(exe)
	err = cmd.Run()
	got := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("running compiled program: %s\n== asm:\n%s", err, asm)
		}
		got = exitErr.ExitCode()
	}
	if got != want {
		fmt.Printf("== source:\n%s\n== asm:\n%s\n", source, asm)
		t.Fatalf("exit code = %d, want %d", got, want)
	}
}

func TestArithmeticExit(t *testing.T) {
	execExpect(t, `
	int main() {
		return 1 + 2 * 3;
	}`, 7)
}

func TestForLoopSum(t *testing.T) {
	execExpect(t, `
	int main() {
		int sum;
		int i;
		sum = 0;
		for (i = 1; i <= 9; i = i + 1) {
			sum = sum + i;
		}
		return sum;
	}`, 45)
}

func TestAddressOfAndStore(t *testing.T) {
	execExpect(t, `
	int main() {
		int x;
		int *p;
		x = 3;
		p = &x;
		*p = *p + 4;
		return x;
	}`, 7)
}

func TestShortCircuitAnd(t *testing.T) {
	execExpect(t, `
	int side_effect() {
		return 1;
	}
	int main() {
		int x;
		x = 0;
		if (x != 0 && side_effect()) {
			return 1;
		}
		return 2;
	}`, 2)
}

func TestRecursiveFib(t *testing.T) {
	execExpect(t, `
	int fib(int n) {
		if (n < 2) {
			return n;
		}
		return fib(n - 1) + fib(n - 2);
	}
	int main() {
		return fib(10);
	}`, 55)
}

func TestSwitchFallthrough(t *testing.T) {
	execExpect(t, `
	int main() {
		int x;
		int r;
		x = 2;
		r = 0;
		switch (x) {
		case 1:
			r = r + 10;
		case 2:
			r = r + 20;
		case 3:
			r = r + 20;
			break;
		default:
			r = r + 100;
		}
		return r;
	}`, 50)
}

func TestManyLocalsLeftAssociatedSum(t *testing.T) {
	execExpect(t, `
	int main() {
		int a; int b; int c; int d; int e; int f; int g; int h; int i;
		a = 1; b = 2; c = 3; d = 4; e = 5; f = 6; g = 7; h = 8; i = 9;
		return a + b + c + d + e + f + g + h + i;
	}`, 45)
}

// TestDeepRightAssociatedChainForcesRealSpilling differs from the test above
// in a way that matters: left-associated addition only ever keeps two or
// three locals live at once, so it never actually spills despite the nine
// declared locals. Right-associating the same sum keeps the leftmost operand
// live across the evaluation of everything to its right, forcing eight
// simultaneous live values against the 7-register pool and driving a real
// spill/reload round trip through the stack.
func TestDeepRightAssociatedChainForcesRealSpilling(t *testing.T) {
	execExpect(t, `
	int main() {
		int a; int b; int c; int d; int e; int f; int g; int h; int i;
		a = 1; b = 2; c = 3; d = 4; e = 5; f = 6; g = 7; h = 8; i = 9;
		return a + (b + (c + (d + (e + (f + (g + (h + i)))))));
	}`, 45)
}
