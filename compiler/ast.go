package compiler

import "github.com/MabaKalox/animation-lang/pkg/bytecode"

// ---------------------------------------------------------------------------
// AST for the animation language
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// IntLit is an integer literal. Values are 32-bit unsigned words.
type IntLit struct {
	PosVal Position
	Value  uint32
}

func (n *IntLit) Pos() Position { return n.PosVal }
func (n *IntLit) node()         {}
func (n *IntLit) expr()         {}

// Ident is a reference to a named constant.
type Ident struct {
	PosVal Position
	Name   string
}

func (n *Ident) Pos() Position { return n.PosVal }
func (n *Ident) node()         {}
func (n *Ident) expr()         {}

// UnaryExpr applies a one-operand bytecode operation to its operand.
type UnaryExpr struct {
	PosVal  Position
	Op      bytecode.Unary
	Operand Expr
}

func (n *UnaryExpr) Pos() Position { return n.PosVal }
func (n *UnaryExpr) node()         {}
func (n *UnaryExpr) expr()         {}

// BinaryExpr applies a two-operand bytecode operation.
type BinaryExpr struct {
	PosVal Position
	Op     bytecode.Binary
	Lhs    Expr
	Rhs    Expr
}

func (n *BinaryExpr) Pos() Position { return n.PosVal }
func (n *BinaryExpr) node()         {}
func (n *BinaryExpr) expr()         {}

// SpecialCall invokes a built-in strip or environment command. SET_PIXEL
// produces no value and is only legal as a statement.
type SpecialCall struct {
	PosVal Position
	Cmd    bytecode.User
	Args   []Expr
}

func (n *SpecialCall) Pos() Position { return n.PosVal }
func (n *SpecialCall) node()         {}
func (n *SpecialCall) expr()         {}

// IntrinsicKind identifies a compiler intrinsic.
type IntrinsicKind int

const (
	IntrinsicRGB IntrinsicKind = iota
	IntrinsicRed
	IntrinsicGreen
	IntrinsicBlue
	IntrinsicClamp
)

var intrinsicNames = [...]string{"rgb", "red", "green", "blue", "clamp"}

func (k IntrinsicKind) String() string { return intrinsicNames[k] }

// IntrinsicExpand is a call to a compiler intrinsic. The channel
// intrinsics expand to mask-and-shift expression trees before code
// generation; clamp expands to a branchy instruction sequence that
// evaluates each argument exactly once.
type IntrinsicExpand struct {
	PosVal Position
	Kind   IntrinsicKind
	Args   []Expr
}

func (n *IntrinsicExpand) Pos() Position { return n.PosVal }
func (n *IntrinsicExpand) node()         {}
func (n *IntrinsicExpand) expr()         {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// ConstDecl binds a name to the value of an expression for the rest of
// the enclosing block. Bindings are immutable.
type ConstDecl struct {
	PosVal Position
	Name   string
	Value  Expr
}

func (n *ConstDecl) Pos() Position { return n.PosVal }
func (n *ConstDecl) node()         {}
func (n *ConstDecl) stmt()         {}

// ExprStmt evaluates an expression and discards its value.
type ExprStmt struct {
	PosVal Position
	Expr   Expr
}

func (n *ExprStmt) Pos() Position { return n.PosVal }
func (n *ExprStmt) node()         {}
func (n *ExprStmt) stmt()         {}

// IfStmt is a conditional with an optional else branch. Any nonzero
// condition selects the then branch.
type IfStmt struct {
	PosVal Position
	Cond   Expr
	Then   []Stmt
	Else   []Stmt // nil when absent
}

func (n *IfStmt) Pos() Position { return n.PosVal }
func (n *IfStmt) node()         {}
func (n *IfStmt) stmt()         {}

// ForStmt runs its body once per counter value, counting down from the
// count expression to 1. A zero count skips the body entirely.
type ForStmt struct {
	PosVal Position
	Name   string
	Count  Expr
	Body   []Stmt
}

func (n *ForStmt) Pos() Position { return n.PosVal }
func (n *ForStmt) node()         {}
func (n *ForStmt) stmt()         {}

// LoopStmt repeats its body forever.
type LoopStmt struct {
	PosVal Position
	Body   []Stmt
}

func (n *LoopStmt) Pos() Position { return n.PosVal }
func (n *LoopStmt) node()         {}
func (n *LoopStmt) stmt()         {}

// BlitStmt emits the current frame and suspends until the consumer asks
// for the next one.
type BlitStmt struct {
	PosVal Position
}

func (n *BlitStmt) Pos() Position { return n.PosVal }
func (n *BlitStmt) node()         {}
func (n *BlitStmt) stmt()         {}

// DumpStmt prints the machine stack, for debugging programs.
type DumpStmt struct {
	PosVal Position
}

func (n *DumpStmt) Pos() Position { return n.PosVal }
func (n *DumpStmt) node()         {}
func (n *DumpStmt) stmt()         {}
