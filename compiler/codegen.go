package compiler

import (
	"fmt"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Code generator: AST to nibble-packed bytecode
// ---------------------------------------------------------------------------

// Constants live directly on the operand stack: a declaration leaves its
// value in place and records the absolute stack position, and a reference
// becomes a PEEK whose offset is the distance from the current stack top.
// The peek offset is a nibble, which caps the visible constants a
// reference can reach at 16.

type binding struct {
	name string
	pos  int // absolute stack position of the value
}

type codegen struct {
	asm      *bytecode.Assembler
	bindings []binding
	frames   []int // index into bindings where each open scope starts
	err      error
}

// Generate emits bytecode for a resolved statement list.
func Generate(stmts []Stmt) (bytecode.Program, error) {
	cg := &codegen{asm: bytecode.NewAssembler()}
	cg.enterScope()
	cg.stmts(stmts)
	cg.leaveScope()
	if cg.err != nil {
		return bytecode.Program{}, cg.err
	}
	prog, err := cg.asm.Finish()
	if err != nil {
		return bytecode.Program{}, &CodegenError{Msg: err.Error()}
	}
	return prog, nil
}

func (cg *codegen) errorf(pos Position, format string, args ...interface{}) {
	if cg.err == nil {
		cg.err = &CodegenError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

func (cg *codegen) enterScope() {
	cg.frames = append(cg.frames, len(cg.bindings))
}

// leaveScope pops the values declared in the innermost scope off the
// runtime stack and forgets their bindings.
func (cg *codegen) leaveScope() {
	start := cg.frames[len(cg.frames)-1]
	cg.frames = cg.frames[:len(cg.frames)-1]
	cg.asm.Pop(len(cg.bindings) - start)
	cg.bindings = cg.bindings[:start]
}

func (cg *codegen) declare(name string) {
	cg.bindings = append(cg.bindings, binding{name: name, pos: cg.asm.Depth() - 1})
}

func (cg *codegen) lookup(name string) (int, bool) {
	for i := len(cg.bindings) - 1; i >= 0; i-- {
		if cg.bindings[i].name == name {
			return cg.bindings[i].pos, true
		}
	}
	return 0, false
}

func (cg *codegen) patch(ref int) {
	if err := cg.asm.PatchJump(ref); err != nil && cg.err == nil {
		cg.err = &CodegenError{Msg: err.Error()}
	}
}

func (cg *codegen) jumpTo(p bytecode.Prefix, target int) {
	if err := cg.asm.JumpTo(p, target); err != nil && cg.err == nil {
		cg.err = &CodegenError{Msg: err.Error()}
	}
}

func (cg *codegen) stmts(stmts []Stmt) {
	for _, s := range stmts {
		if cg.err != nil {
			return
		}
		cg.stmt(s)
	}
}

// block compiles statements in a fresh scope.
func (cg *codegen) block(stmts []Stmt) {
	cg.enterScope()
	cg.stmts(stmts)
	cg.leaveScope()
}

func (cg *codegen) stmt(s Stmt) {
	switch n := s.(type) {
	case *ConstDecl:
		cg.expr(n.Value)
		cg.declare(n.Name)

	case *ExprStmt:
		if call, ok := n.Expr.(*SpecialCall); ok && call.Cmd == bytecode.UserSetPixel {
			cg.setPixel(call)
			return
		}
		cg.expr(n.Expr)
		cg.asm.Pop(1)

	case *IfStmt:
		cg.expr(n.Cond)
		skipThen := cg.asm.Jump(bytecode.PrefixJz)
		cg.block(n.Then)
		if n.Else == nil {
			cg.patch(skipThen)
			return
		}
		skipElse := cg.asm.Jump(bytecode.PrefixJmp)
		cg.patch(skipThen)
		cg.block(n.Else)
		cg.patch(skipElse)

	case *ForStmt:
		// The counter lives on the stack for the whole loop and counts
		// down from the initial value to 1; the body sees it as a
		// constant.
		cg.expr(n.Count)
		cg.enterScope()
		cg.declare(n.Name)
		start := cg.asm.Position()
		cg.peek(n.Pos(), 0)
		done := cg.asm.Jump(bytecode.PrefixJz)
		cg.block(n.Body)
		cg.asm.Unary(bytecode.UnaryDec)
		cg.jumpTo(bytecode.PrefixJmp, start)
		cg.patch(done)
		cg.leaveScope()

	case *LoopStmt:
		start := cg.asm.Position()
		cg.block(n.Body)
		cg.jumpTo(bytecode.PrefixJmp, start)

	case *BlitStmt:
		cg.asm.User(bytecode.UserBlit)

	case *DumpStmt:
		cg.asm.Special(bytecode.SpecialDump)
	}
}

// setPixel compiles a set_pixel statement: index first, then the color
// word assembled from the three channel arguments.
func (cg *codegen) setPixel(call *SpecialCall) {
	cg.expr(call.Args[0])
	cg.expr(&IntrinsicExpand{
		PosVal: call.Pos(),
		Kind:   IntrinsicRGB,
		Args:   call.Args[1:4],
	})
	cg.asm.User(bytecode.UserSetPixel)
}

func (cg *codegen) peek(pos Position, offset int) {
	if offset > bytecode.MaxImmediate {
		cg.errorf(pos, "too many visible constants: reference is %d slots below the stack top, the instruction format reaches at most %d", offset, bytecode.MaxImmediate)
		return
	}
	if err := cg.asm.Peek(offset); err != nil && cg.err == nil {
		cg.err = &CodegenError{Pos: pos, Msg: err.Error()}
	}
}

func (cg *codegen) expr(e Expr) {
	if cg.err != nil || e == nil {
		return
	}

	if v, ok := constFold(e); ok {
		cg.asm.Push(v)
		return
	}

	switch n := e.(type) {
	case *IntLit:
		cg.asm.Push(n.Value)

	case *Ident:
		pos, ok := cg.lookup(n.Name)
		if !ok {
			// The resolver rejects these; guard anyway for direct
			// Generate callers.
			cg.errorf(n.Pos(), "undeclared constant %q", n.Name)
			return
		}
		cg.peek(n.Pos(), cg.asm.Depth()-1-pos)

	case *UnaryExpr:
		cg.expr(n.Operand)
		cg.asm.Unary(n.Op)

	case *BinaryExpr:
		cg.expr(n.Lhs)
		cg.expr(n.Rhs)
		cg.asm.Binary(n.Op)

	case *SpecialCall:
		for _, a := range n.Args {
			cg.expr(a)
		}
		cg.asm.User(n.Cmd)

	case *IntrinsicExpand:
		if n.Kind == IntrinsicClamp {
			cg.clamp(n)
			return
		}
		cg.expr(desugarChannel(n))
	}
}

// clamp emits a two-stage compare-and-select so each argument is
// evaluated exactly once even when it has side effects like random().
// Stage one replaces the value with the lower bound when it is smaller,
// stage two with the upper bound when it is larger.
func (cg *codegen) clamp(n *IntrinsicExpand) {
	cg.expr(n.Args[0])
	cg.clampStage(n.Args[1], bytecode.BinaryLt)
	cg.clampStage(n.Args[2], bytecode.BinaryGt)
}

// clampStage compiles one bound check against the value on the stack
// top, keeping whichever of value and bound the comparison selects.
func (cg *codegen) clampStage(bound Expr, cmp bytecode.Binary) {
	cg.expr(bound) // [v b]
	cg.peek(bound.Pos(), 1)
	cg.peek(bound.Pos(), 1)
	cg.asm.Binary(cmp)                           // [v b (v cmp b)]
	takeBound := cg.asm.Jump(bytecode.PrefixJnz) // [v b]
	cg.asm.Pop(1)                                // comparison failed: keep v
	done := cg.asm.Jump(bytecode.PrefixJmp)
	cg.patch(takeBound)
	cg.asm.AdjustDepth(1) // this arm still has both values on the stack
	cg.asm.Special(bytecode.SpecialSwap)
	cg.asm.Pop(1) // comparison held: keep b
	cg.patch(done)
}
