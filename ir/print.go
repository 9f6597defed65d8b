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

import "fmt"

func (b *Block) String() string {
	s := fmt.Sprintf("b%d:", b.Label)
	if b.Param != nil {
		s = fmt.Sprintf("b%d(%s):", b.Label, b.Param)
	}
	for _, i := range b.Instr {
		s += fmt.Sprintf("\n    %s", i)
	}
	return s
}

func (fn *Func) String() string {
	s := fmt.Sprintf("func %s:\n", fn.Name)
	for _, b := range fn.Blocks {
		s += fmt.Sprintf("%s\n", b)
	}
	return s
}

func (p *Program) String() string {
	s := ""
	for _, fn := range p.Funcs {
		s += fn.String()
	}
	return s
}
