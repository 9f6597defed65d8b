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
package main

import (
	"flag"
	"fmt"
	"os"

	"minicc/compile"
)

func main() {
	dumpIR := flag.Bool("dump-ir", false, "print the built IR instead of assembling")
	emitAsm := flag.Bool("S", false, "emit assembly to stdout instead of linking an executable")
	output := flag.String("o", "a.out", "output executable path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minicc [-dump-ir | -S] [-o out] <file.c>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minicc: %s\n", err)
		os.Exit(1)
	}

	switch {
	case *dumpIR:
		fmt.Print(compile.Describe(string(src)))
	case *emitAsm:
		fmt.Print(compile.CompileText(string(src)))
	default:
		compile.CompileToExecutable(string(src), *output)
	}
}
