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

func TestSimplifyDropsBlockAfterReturn(t *testing.T) {
	src := `
	int f() {
		return 1;
		return 2;
	}`
	prog := ast.ParseProgram(src)
	fn := BuildFunc(prog.Funcs[0])
	before := len(fn.Blocks)
	Simplify(fn)
	if len(fn.Blocks) >= before {
		t.Fatalf("expected Simplify to drop the unreachable block after the first return, had %d now %d", before, len(fn.Blocks))
	}
	VerifyStructure(fn)
}
