package compiler

import (
	"fmt"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Resolver: pre-codegen name and shape checks
// ---------------------------------------------------------------------------

// Resolver walks the AST before code generation and rejects programs with
// undeclared or redeclared constants and value uses of set_pixel, which
// produces nothing.
type Resolver struct {
	scopes []map[string]bool
	err    error
}

// Resolve checks the statement list and returns the first error found.
func Resolve(stmts []Stmt) error {
	r := &Resolver{}
	r.pushScope()
	r.stmts(stmts)
	r.popScope()
	return r.err
}

func (r *Resolver) pushScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *Resolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) errorf(pos Position, format string, args ...interface{}) {
	if r.err == nil {
		r.err = &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

// declared reports whether name is visible anywhere in the scope chain.
func (r *Resolver) declared(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}

func (r *Resolver) declare(pos Position, name string) {
	if r.declared(name) {
		r.errorf(pos, "constant %q is already declared in a visible scope", name)
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

func (r *Resolver) stmts(stmts []Stmt) {
	for _, s := range stmts {
		if r.err != nil {
			return
		}
		r.stmt(s)
	}
}

func (r *Resolver) stmt(s Stmt) {
	switch n := s.(type) {
	case *ConstDecl:
		r.expr(n.Value)
		r.declare(n.Pos(), n.Name)

	case *ExprStmt:
		// set_pixel may stand alone as a statement, but never inside a
		// larger expression.
		if call, ok := n.Expr.(*SpecialCall); ok && call.Cmd == bytecode.UserSetPixel {
			for _, a := range call.Args {
				r.expr(a)
			}
			return
		}
		r.expr(n.Expr)

	case *IfStmt:
		r.expr(n.Cond)
		r.block(n.Then)
		if n.Else != nil {
			r.block(n.Else)
		}

	case *ForStmt:
		r.expr(n.Count)
		r.pushScope()
		r.declare(n.Pos(), n.Name)
		r.stmts(n.Body)
		r.popScope()

	case *LoopStmt:
		r.block(n.Body)

	case *BlitStmt, *DumpStmt:
		// nothing to check
	}
}

func (r *Resolver) block(stmts []Stmt) {
	r.pushScope()
	r.stmts(stmts)
	r.popScope()
}

func (r *Resolver) expr(e Expr) {
	if r.err != nil || e == nil {
		return
	}
	switch n := e.(type) {
	case *IntLit:

	case *Ident:
		if !r.declared(n.Name) {
			r.errorf(n.Pos(), "undeclared constant %q", n.Name)
		}

	case *UnaryExpr:
		r.expr(n.Operand)

	case *BinaryExpr:
		r.expr(n.Lhs)
		r.expr(n.Rhs)

	case *SpecialCall:
		if n.Cmd == bytecode.UserSetPixel {
			r.errorf(n.Pos(), "set_pixel produces no value and cannot be used in an expression")
			return
		}
		for _, a := range n.Args {
			r.expr(a)
		}

	case *IntrinsicExpand:
		for _, a := range n.Args {
			r.expr(a)
		}
	}
}
