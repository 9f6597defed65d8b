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
	"minicc/ast"
	"minicc/utils"
)

// loopFrame is one entry of the small stack of active loop/switch targets
// threaded through the builder (§9: "the natural implementation threads a
// small stack of active loop/switch frames through the builder, rather than
// annotating AST nodes in place").
type loopFrame struct {
	isLoop   bool
	brk      *Block
	continue_ *Block // only meaningful when isLoop
}

// Builder lowers one function's typed AST into ir.Func. It holds no state
// shared across functions: Vn/Label counters live on the Func being built.
type Builder struct {
	fn     *Func
	cur    *Block
	frames []loopFrame
}

// BuildFunc lowers a single function declaration. It is a builder
// precondition violation (panics via utils.Assert) to call it on a
// declaration with no body.
func BuildFunc(fd *ast.FuncDecl) *Func {
	utils.Assert(fd.Body != nil, "BuildFunc called on extern declaration %s", fd.Name)

	fn := NewFunc(fd.Name, fd.Params)
	b := &Builder{fn: fn}

	// Two entry blocks: the first is empty and jumps to the second, so
	// later analyses always see a predecessor-free entry.
	entry0 := fn.NewBlock()
	entry1 := fn.NewBlock()
	b.cur = entry0
	b.jmp(entry1)
	b.setCur(entry1)

	for i, p := range fd.Params {
		p.AddressTaken = true
		b.emit(&Instr{Op: STORE_ARG, Imm: int64(i), Size: p.Type.Size, Var: p})
	}

	b.genStmt(fd.Body)

	// Every function is terminated with a synthesized RETURN 0 so there is
	// always a dominating return, even if the source fell off the end.
	zero := b.immReg(0)
	b.emit(&Instr{Op: RETURN, R2: zero})

	return fn
}

func (b *Builder) emit(i *Instr) { b.cur.emit(i) }

func (b *Builder) setCur(blk *Block) { b.cur = blk }

func (b *Builder) immReg(v int64) *Reg {
	r := b.fn.NewReg()
	b.emit(&Instr{Op: IMM, R0: r, Imm: v})
	return r
}

func (b *Builder) jmp(target *Block) {
	b.emit(&Instr{Op: JMP, BB1: target})
	wireTo(b.cur, target)
}

func (b *Builder) jmpArg(target *Block, arg *Reg) {
	utils.Assert(target.Param != nil, "jmp_arg target b%d has no param", target.Label)
	b.emit(&Instr{Op: JMP, BB1: target, R2: arg})
	wireTo(b.cur, target)
}

func (b *Builder) br(cond *Reg, then, els *Block) {
	b.emit(&Instr{Op: BR, R2: cond, BB1: then, BB2: els})
	wireTo(b.cur, then)
	wireTo(b.cur, els)
}

func (b *Builder) pushLoop(brk, cont *Block) {
	b.frames = append(b.frames, loopFrame{isLoop: true, brk: brk, continue_: cont})
}

func (b *Builder) pushSwitch(brk *Block) {
	b.frames = append(b.frames, loopFrame{isLoop: false, brk: brk})
}

func (b *Builder) popFrame() { b.frames = b.frames[:len(b.frames)-1] }

func (b *Builder) breakTarget() *Block {
	utils.Assert(len(b.frames) > 0, "break outside loop/switch")
	return b.frames[len(b.frames)-1].brk
}

func (b *Builder) continueTarget() *Block {
	for i := len(b.frames) - 1; i >= 0; i-- {
		if b.frames[i].isLoop {
			return b.frames[i].continue_
		}
	}
	utils.Fatal("continue outside loop")
	return nil
}

// -----------------------------------------------------------------------------
// gen_lval: address of an lvalue expression

func (b *Builder) genLval(node ast.Expr) *Reg {
	switch e := node.(type) {
	case *ast.VarRefExpr:
		r := b.fn.NewReg()
		if e.Var.Class == ast.Global {
			b.emit(&Instr{Op: LABEL_ADDR, R0: r, Var: e.Var})
		} else {
			b.emit(&Instr{Op: BPREL, R0: r, Var: e.Var})
		}
		return r
	case *ast.DerefExpr:
		return b.genExpr(e.Operand)
	case *ast.DotExpr:
		base := b.genLval(e.Base)
		if e.Offset == 0 {
			return base
		}
		off := b.immReg(int64(e.Offset))
		r := b.fn.NewReg()
		b.emit(&Instr{Op: ADD, R0: r, R1: base, R2: off})
		return r
	default:
		utils.Fatal("internal compiler error: gen_lval on non-lvalue node kind %v", node.Kind())
		return nil
	}
}

// -----------------------------------------------------------------------------
// gen_expr: value of an expression

var binOp = map[ast.NodeKind]Op{
	ast.ADD: ADD, ast.SUB: SUB, ast.MUL: MUL, ast.DIV: DIV, ast.MOD: MOD,
	ast.AND: AND, ast.OR: OR, ast.XOR: XOR, ast.SHL: SHL, ast.SHR: SHR,
	ast.LT: LT, ast.LE: LE, ast.EQ: EQ, ast.NE: NE,
}

func (b *Builder) genExpr(node ast.Expr) *Reg {
	switch e := node.(type) {
	case *ast.NumExpr:
		return b.immReg(e.Value)
	case *ast.NullExpr:
		return b.immReg(0)
	case *ast.VarRefExpr:
		addr := b.genLval(e)
		r := b.fn.NewReg()
		b.emit(&Instr{Op: LOAD, R0: r, R2: addr, Size: e.GetType().Size})
		return r
	case *ast.DotExpr:
		addr := b.genLval(e)
		r := b.fn.NewReg()
		b.emit(&Instr{Op: LOAD, R0: r, R2: addr, Size: e.GetType().Size})
		return r
	case *ast.AddrExpr:
		return b.genLval(e.Operand)
	case *ast.DerefExpr:
		addr := b.genExpr(e.Operand)
		r := b.fn.NewReg()
		b.emit(&Instr{Op: LOAD, R0: r, R2: addr, Size: e.GetType().Size})
		return r
	case *ast.CastExpr:
		v := b.genExpr(e.Operand)
		if e.GetType().IsBool() {
			r := b.fn.NewReg()
			zero := b.immReg(0)
			b.emit(&Instr{Op: NE, R0: r, R1: v, R2: zero})
			return r
		}
		return v // all other casts are transparent at IR level
	case *ast.NotExpr: // ~e
		v := b.genExpr(e.Operand)
		r := b.fn.NewReg()
		neg1 := b.immReg(-1)
		b.emit(&Instr{Op: XOR, R0: r, R1: v, R2: neg1})
		return r
	case *ast.ExclaimExpr: // !e
		v := b.genExpr(e.Operand)
		r := b.fn.NewReg()
		zero := b.immReg(0)
		b.emit(&Instr{Op: EQ, R0: r, R1: v, R2: zero})
		return r
	case *ast.BinExpr:
		op, ok := binOp[e.Op]
		utils.Assert(ok, "internal compiler error: unhandled binary op %v", e.Op)
		l := b.genExpr(e.Left)
		rr := b.genExpr(e.Right)
		r := b.fn.NewReg()
		b.emit(&Instr{Op: op, R0: r, R1: l, R2: rr})
		return r
	case *ast.LogicalExpr:
		return b.buildLogical(e)
	case *ast.TernaryExpr:
		return b.buildTernary(e)
	case *ast.AssignExpr:
		rhs := b.genExpr(e.Right)
		addr := b.genLval(e.Left)
		b.emit(&Instr{Op: STORE, R1: addr, R2: rhs, Size: e.Left.GetType().Size})
		return rhs
	case *ast.CommaExpr:
		b.genExpr(e.Left)
		return b.genExpr(e.Right)
	case *ast.CallExpr:
		args := make([]*Reg, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.genExpr(a)
		}
		r := b.fn.NewReg()
		b.emit(&Instr{Op: CALL, R0: r, Callee: e.Callee, Args: args})
		return r
	case *ast.StmtExprExpr:
		return b.genStmtExpr(e)
	default:
		utils.Fatal("internal compiler error: gen_expr on unhandled node kind %v", node.Kind())
		return nil
	}
}

func (b *Builder) genStmtExpr(e *ast.StmtExprExpr) *Reg {
	stmts := e.Body.Stmts
	for i, s := range stmts {
		if i == len(stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok && es.X != nil {
				return b.genExpr(es.X)
			}
		}
		b.genStmt(s)
	}
	return b.immReg(0)
}

// buildLogical lowers short-circuit &&/|| into the four-block diamond
// described in the component design: a test block, two "set the result"
// blocks (the one a short-circuiting lhs jumps to is also reached from the
// rhs test), and a join block whose single parameter becomes the
// expression's value.
func (b *Builder) buildLogical(e *ast.LogicalExpr) *Reg {
	testRhs := b.fn.NewBlock()
	setTrue := b.fn.NewBlock()
	setFalse := b.fn.NewBlock()
	join := b.fn.NewBlock()
	join.Param = b.fn.NewReg()

	lhs := b.genExpr(e.Left)
	if e.Op == ast.LOGAND {
		b.br(lhs, testRhs, setFalse)
	} else {
		b.br(lhs, setTrue, testRhs)
	}

	b.setCur(testRhs)
	rhs := b.genExpr(e.Right)
	b.br(rhs, setTrue, setFalse)

	b.setCur(setTrue)
	b.jmpArg(join, b.immReg(1))

	b.setCur(setFalse)
	b.jmpArg(join, b.immReg(0))

	b.setCur(join)
	return join.Param
}

// buildTernary lowers `cond ? then : else` into a triangle of blocks merging
// at a parameterized join block, the same argument-carrying-JMP mechanism
// used for &&/||.
func (b *Builder) buildTernary(e *ast.TernaryExpr) *Reg {
	thenBB := b.fn.NewBlock()
	elseBB := b.fn.NewBlock()
	join := b.fn.NewBlock()
	join.Param = b.fn.NewReg()

	c := b.genExpr(e.Cond)
	b.br(c, thenBB, elseBB)

	b.setCur(thenBB)
	tv := b.genExpr(e.Then)
	b.jmpArg(join, tv)

	b.setCur(elseBB)
	ev := b.genExpr(e.Else)
	b.jmpArg(join, ev)

	b.setCur(join)
	return join.Param
}

// -----------------------------------------------------------------------------
// gen_stmt

func (b *Builder) genStmt(node ast.Stmt) {
	switch s := node.(type) {
	case *ast.ExprStmt:
		if s.X != nil {
			b.genExpr(s.X)
		}
	case *ast.CompStmt:
		for _, st := range s.Stmts {
			b.genStmt(st)
		}
	case *ast.IfStmt:
		b.buildIf(s)
	case *ast.ForStmt:
		b.buildFor(s)
	case *ast.DoWhileStmt:
		b.buildDoWhile(s)
	case *ast.SwitchStmt:
		b.buildSwitch(s)
	case *ast.BreakStmt:
		b.jmp(b.breakTarget())
		b.setCur(b.fn.NewBlock()) // fresh unreachable block catches trailing statements
	case *ast.ContinueStmt:
		b.jmp(b.continueTarget())
		b.setCur(b.fn.NewBlock())
	case *ast.ReturnStmt:
		var v *Reg
		if s.X != nil {
			v = b.genExpr(s.X)
		} else {
			v = b.immReg(0)
		}
		b.emit(&Instr{Op: RETURN, R2: v})
		b.setCur(b.fn.NewBlock())
	default:
		utils.Fatal("internal compiler error: gen_stmt on unhandled node kind %v", node.Kind())
	}
}

func (b *Builder) buildIf(s *ast.IfStmt) {
	thenBB := b.fn.NewBlock()
	join := b.fn.NewBlock()
	elseTarget := join
	var elseBB *Block
	if s.Else != nil {
		elseBB = b.fn.NewBlock()
		elseTarget = elseBB
	}

	c := b.genExpr(s.Cond)
	b.br(c, thenBB, elseTarget)

	b.setCur(thenBB)
	b.genStmt(s.Then)
	b.jmp(join)

	if s.Else != nil {
		b.setCur(elseBB)
		b.genStmt(s.Else)
		b.jmp(join)
	}

	b.setCur(join)
}

// buildFor handles both `for` and (with Init/Post nil) `while`: cond, body,
// continue (the post-increment block) and break anchors, exactly the four
// blocks the end-to-end loop scenario names.
func (b *Builder) buildFor(s *ast.ForStmt) {
	if s.Init != nil {
		b.genStmt(s.Init)
	}
	condBB := b.fn.NewBlock()
	bodyBB := b.fn.NewBlock()
	postBB := b.fn.NewBlock()
	breakBB := b.fn.NewBlock()

	b.jmp(condBB)
	b.setCur(condBB)
	if s.Cond != nil {
		c := b.genExpr(s.Cond)
		b.br(c, bodyBB, breakBB)
	} else {
		b.jmp(bodyBB)
	}

	b.pushLoop(breakBB, postBB)
	b.setCur(bodyBB)
	b.genStmt(s.Body)
	b.jmp(postBB)
	b.popFrame()

	b.setCur(postBB)
	if s.Post != nil {
		b.genExpr(s.Post)
	}
	b.jmp(condBB)

	b.setCur(breakBB)
}

func (b *Builder) buildDoWhile(s *ast.DoWhileStmt) {
	bodyBB := b.fn.NewBlock()
	condBB := b.fn.NewBlock()
	breakBB := b.fn.NewBlock()

	b.jmp(bodyBB)

	b.pushLoop(breakBB, condBB)
	b.setCur(bodyBB)
	b.genStmt(s.Body)
	b.jmp(condBB)
	b.popFrame()

	b.setCur(condBB)
	c := b.genExpr(s.Cond)
	b.br(c, bodyBB, breakBB)

	b.setCur(breakBB)
}

// buildSwitch allocates one block per case label in a pre-pass (so forward
// references resolve), then lowers the tag comparison into a linear chain of
// EQ+BR, ending with an unconditional jump to the default (or break) block.
func (b *Builder) buildSwitch(s *ast.SwitchStmt) {
	caseBlocks := make([]*Block, len(s.Cases))
	for i := range s.Cases {
		caseBlocks[i] = b.fn.NewBlock()
	}
	breakBB := b.fn.NewBlock()

	defaultIdx := -1
	for i, cc := range s.Cases {
		if cc.Value == nil {
			defaultIdx = i
		}
	}
	chainTarget := breakBB
	if defaultIdx >= 0 {
		chainTarget = caseBlocks[defaultIdx]
	}

	tag := b.genExpr(s.Tag)
	for i, cc := range s.Cases {
		if cc.Value == nil {
			continue
		}
		caseVal := b.immReg(*cc.Value)
		cmp := b.fn.NewReg()
		b.emit(&Instr{Op: EQ, R0: cmp, R1: tag, R2: caseVal})
		nextBB := b.fn.NewBlock()
		b.br(cmp, caseBlocks[i], nextBB)
		b.setCur(nextBB)
	}
	b.jmp(chainTarget)

	b.pushSwitch(breakBB)
	for i, cc := range s.Cases {
		b.setCur(caseBlocks[i])
		for _, st := range cc.Stmts {
			b.genStmt(st)
		}
		fallTo := breakBB
		if i+1 < len(s.Cases) {
			fallTo = caseBlocks[i+1]
		}
		b.jmp(fallTo)
	}
	b.popFrame()

	b.setCur(breakBB)
}

// BuildProgram lowers every defined function in prog (externs are skipped:
// they have no body to build from).
func BuildProgram(prog *ast.Program) *Program {
	out := &Program{Globals: prog.Globals}
	for _, fd := range prog.Funcs {
		if fd.Body == nil {
			continue
		}
		fn := BuildFunc(fd)
		Simplify(fn)
		out.Funcs = append(out.Funcs, fn)
	}
	return out
}
