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

// loopDepths finds natural loops by DFS back-edge detection and returns,
// for every block, how many loop bodies it is nested inside. This is a
// deliberately small slice of what the teacher's loop builder does: no
// induction-variable analysis, no irreducible-loop handling, no parent/child
// loop tree. Coloring only ever needs "is this block inside a loop, and how
// deeply", never the loop structure itself.
//
// A back edge is any edge b -> h where h is still on the current DFS stack
// when b is visited; h is then a loop header and the natural loop body is
// whatever can reach b by walking predecessors backward without leaving h's
// dominance... except this pass has no dominator tree, so it approximates
// the body as every block that can reach b along predecessor edges without
// passing back through h, which is exact for the structured, reducible CFGs
// this builder ever produces (no gotos into the middle of a loop).
func loopDepths(fn *ir.Func) map[*ir.Block]int {
	depth := make(map[*ir.Block]int, len(fn.Blocks))
	for _, b := range fn.Blocks {
		depth[b] = 0
	}

	onStack := make(map[*ir.Block]bool, len(fn.Blocks))
	visited := make(map[*ir.Block]bool, len(fn.Blocks))

	var dfs func(b *ir.Block)
	dfs = func(b *ir.Block) {
		visited[b] = true
		onStack[b] = true
		for _, s := range b.Succ {
			if onStack[s] {
				for member := range naturalLoopBody(b, s) {
					depth[member]++
				}
				continue
			}
			if !visited[s] {
				dfs(s)
			}
		}
		onStack[b] = false
	}
	dfs(fn.Entry())

	return depth
}

// naturalLoopBody returns the set of blocks in the natural loop whose back
// edge is tail -> header: header itself, plus every block that reaches tail
// by walking predecessors without going through header again.
func naturalLoopBody(tail, header *ir.Block) map[*ir.Block]bool {
	body := map[*ir.Block]bool{header: true, tail: true}
	stack := []*ir.Block{tail}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range b.Pred {
			if !body[p] {
				body[p] = true
				stack = append(stack, p)
			}
		}
	}
	return body
}
