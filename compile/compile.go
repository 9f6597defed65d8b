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

// Package compile wires the front end, IR builder, register allocator and
// emitter into entry points for the driver and the end-to-end tests:
// CompileText and CompileFile (source to assembly), Assemble and
// CompileToExecutable (assembly to a linked binary), and Describe (an IR
// dump).
package compile

import (
	"fmt"
	"os"
	"path/filepath"

	"minicc/ast"
	"minicc/codegen"
	"minicc/ir"
	"minicc/regalloc"
	"minicc/utils"
)

// CompileText runs the whole pipeline over source text and returns the
// emitted Intel-syntax assembly.
func CompileText(src string) string {
	prog := ast.ParseProgram(src)
	irProg := ir.BuildProgram(prog)
	orders := regalloc.AllocateProgram(irProg)
	return codegen.Emit(irProg, orders)
}

// CompileFile reads path and compiles it, the way CompileText does.
func CompileFile(path string) string {
	src, err := os.ReadFile(path)
	if err != nil {
		utils.Fatal("compile: cannot read %s: %s", path, err)
	}
	return CompileText(string(src))
}

// Assemble writes asm to a temporary .s file and shells out to gcc to
// assemble and link it into a standalone executable at outPath. gcc (not
// `as`/`ld` directly) is used so the resulting binary links against libc's
// startup code the same way the teacher's own asm_x86.go does.
func Assemble(asm, outPath string) {
	dir, err := os.MkdirTemp("", "minicc")
	if err != nil {
		utils.Fatal("compile: cannot create temp dir: %s", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "out.s")
	if err := os.WriteFile(srcPath, []byte(asm), 0o644); err != nil {
		utils.Fatal("compile: cannot write %s: %s", srcPath, err)
	}

	abs, err := filepath.Abs(outPath)
	if err != nil {
		utils.Fatal("compile: cannot resolve %s: %s", outPath, err)
	}
	utils.ExecuteCmd(dir, "gcc", "-no-pie", "-o", abs, srcPath)
}

// CompileToExecutable is the driver's top-level entry point: parse, lower,
// allocate, emit and assemble src into a standalone binary at outPath.
func CompileToExecutable(src, outPath string) {
	Assemble(CompileText(src), outPath)
}

// Describe renders a short human-readable summary of a program's IR, used by
// the driver's -dump-ir flag.
func Describe(src string) string {
	prog := ast.ParseProgram(src)
	irProg := ir.BuildProgram(prog)
	out := ""
	for _, fn := range irProg.Funcs {
		out += fmt.Sprintf("%s\n", fn.String())
	}
	return out
}
