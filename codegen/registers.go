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

// Package codegen emits Intel-syntax x86-64 assembly from an allocated
// ir.Program: the register numbers regalloc attached, and the frame layout
// it computed, are the only inputs it needs per function.
package codegen

// regName carries the four operand-width spellings of one physical
// register, in the order the AMD64 encoding defines them: 64, 32, 16, 8 bit.
type regName struct {
	q, d, w, b string
}

func (n regName) sized(size int) string {
	switch size {
	case 1:
		return n.b
	case 2:
		return n.w
	case 4:
		return n.d
	default:
		return n.q
	}
}

// generalPool is the allocator's seven-register scheduling pool, indexed by
// physical number exactly as regalloc.Color assigns it.
var generalPool = [7]regName{
	{"r10", "r10d", "r10w", "r10b"},
	{"r11", "r11d", "r11w", "r11b"},
	{"rbx", "ebx", "bx", "bl"},
	{"r12", "r12d", "r12w", "r12b"},
	{"r13", "r13d", "r13w", "r13b"},
	{"r14", "r14d", "r14w", "r14b"},
	{"r15", "r15d", "r15w", "r15b"},
}

// calleeSaved reports whether physical slot rn must be pushed in the
// prologue and popped in the epilogue if the allocator used it.
func calleeSaved(rn int) bool {
	switch generalPool[rn].q {
	case "rbx", "r12", "r13", "r14", "r15":
		return true
	}
	return false
}

// argRegs are the System V AMD64 integer argument registers, in order.
var argRegs = [6]regName{
	{"rdi", "edi", "di", "dil"},
	{"rsi", "esi", "si", "sil"},
	{"rdx", "edx", "dx", "dl"},
	{"rcx", "ecx", "cx", "cl"},
	{"r8", "r8d", "r8w", "r8b"},
	{"r9", "r9d", "r9w", "r9b"},
}

func physReg(rn int) string               { return generalPool[rn].q }
func physRegSized(rn, size int) string     { return generalPool[rn].sized(size) }
func argReg(i int) string                  { return argRegs[i].q }
func argRegSized(i, size int) string       { return argRegs[i].sized(size) }

func ptrKeyword(size int) string {
	switch size {
	case 1:
		return "byte ptr"
	case 2:
		return "word ptr"
	case 4:
		return "dword ptr"
	default:
		return "qword ptr"
	}
}
