package compiler

import (
	"errors"
	"testing"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

func parseOne(t *testing.T, input string) Stmt {
	t.Helper()
	stmts, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	if len(stmts) != 1 {
		t.Fatalf("Parse(%q): got %d statements, want 1", input, len(stmts))
	}
	return stmts[0]
}

func TestParseConstDeclForms(t *testing.T) {
	for _, input := range []string{"let x = 3;", "x = 3;"} {
		stmt := parseOne(t, input)
		decl, ok := stmt.(*ConstDecl)
		if !ok {
			t.Fatalf("Parse(%q): got %T, want *ConstDecl", input, stmt)
		}
		if decl.Name != "x" {
			t.Errorf("Parse(%q): name = %q, want x", input, decl.Name)
		}
		lit, ok := decl.Value.(*IntLit)
		if !ok || lit.Value != 3 {
			t.Errorf("Parse(%q): value = %#v, want IntLit 3", input, decl.Value)
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7 must group as ((1 + (2*3)) == 7).
	stmt := parseOne(t, "x = 1 + 2 * 3 == 7;")
	decl := stmt.(*ConstDecl)

	eq, ok := decl.Value.(*BinaryExpr)
	if !ok || eq.Op != bytecode.BinaryEq {
		t.Fatalf("root = %#v, want EQ", decl.Value)
	}
	add, ok := eq.Lhs.(*BinaryExpr)
	if !ok || add.Op != bytecode.BinaryAdd {
		t.Fatalf("lhs = %#v, want ADD", eq.Lhs)
	}
	mul, ok := add.Rhs.(*BinaryExpr)
	if !ok || mul.Op != bytecode.BinaryMul {
		t.Fatalf("add rhs = %#v, want MUL", add.Rhs)
	}
}

func TestParseShiftBindsTighterThanBitwise(t *testing.T) {
	// 1 | 2 << 3 must group as (1 | (2 << 3)).
	stmt := parseOne(t, "x = 1 | 2 << 3;")
	decl := stmt.(*ConstDecl)

	or, ok := decl.Value.(*BinaryExpr)
	if !ok || or.Op != bytecode.BinaryOr {
		t.Fatalf("root = %#v, want OR", decl.Value)
	}
	shl, ok := or.Rhs.(*BinaryExpr)
	if !ok || shl.Op != bytecode.BinaryShl {
		t.Fatalf("rhs = %#v, want SHL", or.Rhs)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	// 10 - 4 - 3 must group as ((10-4)-3).
	stmt := parseOne(t, "x = 10 - 4 - 3;")
	decl := stmt.(*ConstDecl)

	outer := decl.Value.(*BinaryExpr)
	if outer.Op != bytecode.BinarySub {
		t.Fatalf("root op = %v, want SUB", outer.Op)
	}
	inner, ok := outer.Lhs.(*BinaryExpr)
	if !ok || inner.Op != bytecode.BinarySub {
		t.Fatalf("lhs = %#v, want SUB", outer.Lhs)
	}
	if lit, ok := outer.Rhs.(*IntLit); !ok || lit.Value != 3 {
		t.Fatalf("rhs = %#v, want IntLit 3", outer.Rhs)
	}
}

func TestParseUnaryNot(t *testing.T) {
	stmt := parseOne(t, "x = !0;")
	decl := stmt.(*ConstDecl)
	not, ok := decl.Value.(*UnaryExpr)
	if !ok || not.Op != bytecode.UnaryNot {
		t.Fatalf("value = %#v, want NOT", decl.Value)
	}
}

func TestParseSpecialCalls(t *testing.T) {
	tests := []struct {
		input string
		cmd   bytecode.User
		args  int
	}{
		{"x = get_length;", bytecode.UserGetLength, 0},
		{"x = get_wall_time;", bytecode.UserGetWallTime, 0},
		{"x = get_precise_time;", bytecode.UserGetPreciseTime, 0},
		{"x = get_pixel(0);", bytecode.UserGetPixel, 1},
		{"x = random(10);", bytecode.UserRandomInt, 1},
		{"set_pixel(0, 1, 2, 3);", bytecode.UserSetPixel, 4},
	}

	for _, tc := range tests {
		stmt := parseOne(t, tc.input)
		var expr Expr
		switch n := stmt.(type) {
		case *ConstDecl:
			expr = n.Value
		case *ExprStmt:
			expr = n.Expr
		default:
			t.Fatalf("Parse(%q): unexpected statement %T", tc.input, stmt)
		}
		call, ok := expr.(*SpecialCall)
		if !ok {
			t.Fatalf("Parse(%q): got %T, want *SpecialCall", tc.input, expr)
		}
		if call.Cmd != tc.cmd || len(call.Args) != tc.args {
			t.Errorf("Parse(%q): cmd=%v args=%d, want %v/%d", tc.input, call.Cmd, len(call.Args), tc.cmd, tc.args)
		}
	}
}

func TestParseIntrinsics(t *testing.T) {
	tests := []struct {
		input string
		kind  IntrinsicKind
		args  int
	}{
		{"x = rgb(1, 2, 3);", IntrinsicRGB, 3},
		{"x = red(c);", IntrinsicRed, 1},
		{"x = green(c);", IntrinsicGreen, 1},
		{"x = blue(c);", IntrinsicBlue, 1},
		{"x = clamp(v, 0, 255);", IntrinsicClamp, 3},
	}

	for _, tc := range tests {
		decl := parseOne(t, tc.input).(*ConstDecl)
		in, ok := decl.Value.(*IntrinsicExpand)
		if !ok {
			t.Fatalf("Parse(%q): got %T, want *IntrinsicExpand", tc.input, decl.Value)
		}
		if in.Kind != tc.kind || len(in.Args) != tc.args {
			t.Errorf("Parse(%q): kind=%v args=%d, want %v/%d", tc.input, in.Kind, len(in.Args), tc.kind, tc.args)
		}
	}
}

func TestParseArityErrors(t *testing.T) {
	tests := []string{
		"set_pixel(1, 2, 3);",
		"x = rgb(1, 2);",
		"x = clamp(1);",
		"x = random();",
	}
	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected arity error", input)
		}
	}
}

func TestParseControlFlow(t *testing.T) {
	input := `
		if (1) { blit; } else { dump; }
		for (n = 5) { blit; };
		loop { blit; }
	`
	stmts, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}

	ifStmt, ok := stmts[0].(*IfStmt)
	if !ok {
		t.Fatalf("stmt[0] = %T, want *IfStmt", stmts[0])
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Errorf("if branches: then=%d else=%d, want 1/1", len(ifStmt.Then), len(ifStmt.Else))
	}

	forStmt, ok := stmts[1].(*ForStmt)
	if !ok {
		t.Fatalf("stmt[1] = %T, want *ForStmt", stmts[1])
	}
	if forStmt.Name != "n" {
		t.Errorf("for variable = %q, want n", forStmt.Name)
	}

	if _, ok := stmts[2].(*LoopStmt); !ok {
		t.Fatalf("stmt[2] = %T, want *LoopStmt", stmts[2])
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []string{
		"let = 3;",
		"x = ;",
		"if 1 { blit; }",
		"for (n = 5) { blit; }", // missing trailing semicolon
		"x = (1;",
		"blit",
	}
	for _, input := range tests {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q): expected error", input)
			continue
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Parse(%q): error type %T, want *ParseError", input, err)
		}
	}
}

func TestParseLexErrorSurfaced(t *testing.T) {
	_, err := Parse("x = 4294967296;")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("error = %v (%T), want *LexError", err, err)
	}
}

func TestParseBareSpecialRejectsParens(t *testing.T) {
	if _, err := Parse("x = get_length();"); err == nil {
		t.Fatal("expected error for get_length with parentheses")
	}
}
