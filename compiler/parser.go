package compiler

import (
	"fmt"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent over the token stream
// ---------------------------------------------------------------------------

// Parser builds an AST from animation language source. Parsing stops at
// the first error.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	err       error
}

// NewParser creates a parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

// errorf records the first error; later errors are dropped.
func (p *Parser) errorf(pos Position, format string, args ...interface{}) {
	if p.err == nil {
		p.err = &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

// checkLex converts an error token into a LexError.
func (p *Parser) checkLex() bool {
	if p.curTokenIs(TokenError) {
		if p.err == nil {
			p.err = &LexError{Pos: p.curToken.Pos, Msg: p.curToken.Literal}
		}
		return false
	}
	return true
}

// expect consumes the current token if it has the wanted type, otherwise
// records an error.
func (p *Parser) expect(t TokenType) bool {
	if !p.checkLex() {
		return false
	}
	if !p.curTokenIs(t) {
		p.errorf(p.curToken.Pos, "expected %s, found %s", t, p.curToken)
		return false
	}
	p.nextToken()
	return true
}

// expectOperator consumes the current token if it is the given operator.
func (p *Parser) expectOperator(op string) bool {
	if !p.checkLex() {
		return false
	}
	if !p.curTokenIs(TokenOperator) || p.curToken.Literal != op {
		p.errorf(p.curToken.Pos, "expected %q, found %s", op, p.curToken)
		return false
	}
	p.nextToken()
	return true
}

// ParseProgram parses a whole source file.
func (p *Parser) ParseProgram() ([]Stmt, error) {
	stmts := p.parseStatements(TokenEOF)
	if p.err != nil {
		return nil, p.err
	}
	return stmts, nil
}

// parseStatements parses until the terminator token. Stray semicolons
// between statements are skipped.
func (p *Parser) parseStatements(until TokenType) []Stmt {
	var stmts []Stmt
	for p.err == nil && !p.curTokenIs(until) {
		if !p.checkLex() {
			return nil
		}
		if p.curTokenIs(TokenSemicolon) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(TokenEOF) {
			p.errorf(p.curToken.Pos, "expected %s before end of input", until)
			return nil
		}
		stmt := p.parseStatement()
		if p.err != nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func (p *Parser) parseStatement() Stmt {
	switch {
	case p.curTokenIs(TokenLet):
		return p.parseConstDecl()
	case p.curTokenIs(TokenIdent) && p.peekTokenIs(TokenAssign):
		return p.parseConstDecl()
	case p.curTokenIs(TokenIf):
		return p.parseIf()
	case p.curTokenIs(TokenFor):
		return p.parseFor()
	case p.curTokenIs(TokenLoop):
		return p.parseLoop()
	case p.curTokenIs(TokenBlit):
		pos := p.curToken.Pos
		p.nextToken()
		p.expect(TokenSemicolon)
		return &BlitStmt{PosVal: pos}
	case p.curTokenIs(TokenDump):
		pos := p.curToken.Pos
		p.nextToken()
		p.expect(TokenSemicolon)
		return &DumpStmt{PosVal: pos}
	default:
		pos := p.curToken.Pos
		expr := p.parseExpr()
		p.expect(TokenSemicolon)
		return &ExprStmt{PosVal: pos, Expr: expr}
	}
}

// parseConstDecl parses both declaration forms: `let x = expr;` and the
// bare `x = expr;`.
func (p *Parser) parseConstDecl() Stmt {
	pos := p.curToken.Pos
	if p.curTokenIs(TokenLet) {
		p.nextToken()
	}
	if !p.curTokenIs(TokenIdent) {
		p.errorf(p.curToken.Pos, "expected constant name, found %s", p.curToken)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()
	p.expect(TokenAssign)
	value := p.parseExpr()
	p.expect(TokenSemicolon)
	return &ConstDecl{PosVal: pos, Name: name, Value: value}
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() []Stmt {
	p.expect(TokenLBrace)
	stmts := p.parseStatements(TokenRBrace)
	p.expect(TokenRBrace)
	return stmts
}

func (p *Parser) parseIf() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume 'if'
	p.expect(TokenLParen)
	cond := p.parseExpr()
	p.expect(TokenRParen)
	then := p.parseBlock()
	var els []Stmt
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		els = p.parseBlock()
	}
	return &IfStmt{PosVal: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseFor() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume 'for'
	p.expect(TokenLParen)
	if !p.curTokenIs(TokenIdent) {
		p.errorf(p.curToken.Pos, "expected loop variable, found %s", p.curToken)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()
	p.expect(TokenAssign)
	count := p.parseExpr()
	p.expect(TokenRParen)
	body := p.parseBlock()
	p.expect(TokenSemicolon)
	return &ForStmt{PosVal: pos, Name: name, Count: count, Body: body}
}

func (p *Parser) parseLoop() Stmt {
	pos := p.curToken.Pos
	p.nextToken() // consume 'loop'
	body := p.parseBlock()
	return &LoopStmt{PosVal: pos, Body: body}
}

// ---------------------------------------------------------------------------
// Expressions: precedence ladder from loosest to tightest binding
// ---------------------------------------------------------------------------

var comparisonOps = map[string]bytecode.Binary{
	"==": bytecode.BinaryEq,
	"!=": bytecode.BinaryNeq,
	"<":  bytecode.BinaryLt,
	"<=": bytecode.BinaryLte,
	">":  bytecode.BinaryGt,
	">=": bytecode.BinaryGte,
}

var bitwiseOps = map[string]bytecode.Binary{
	"&": bytecode.BinaryAnd,
	"|": bytecode.BinaryOr,
	"^": bytecode.BinaryXor,
}

var shiftOps = map[string]bytecode.Binary{
	"<<": bytecode.BinaryShl,
	">>": bytecode.BinaryShr,
}

var additiveOps = map[string]bytecode.Binary{
	"+": bytecode.BinaryAdd,
	"-": bytecode.BinarySub,
}

var termOps = map[string]bytecode.Binary{
	"*": bytecode.BinaryMul,
	"/": bytecode.BinaryDiv,
	"%": bytecode.BinaryMod,
}

func (p *Parser) parseExpr() Expr {
	return p.parseBinaryLevel(comparisonOps, func() Expr {
		return p.parseBinaryLevel(bitwiseOps, func() Expr {
			return p.parseBinaryLevel(shiftOps, func() Expr {
				return p.parseBinaryLevel(additiveOps, func() Expr {
					return p.parseBinaryLevel(termOps, p.parseUnary)
				})
			})
		})
	})
}

// parseBinaryLevel parses a left-associative run of operators from one
// precedence level.
func (p *Parser) parseBinaryLevel(ops map[string]bytecode.Binary, next func() Expr) Expr {
	lhs := next()
	for p.err == nil && p.curTokenIs(TokenOperator) {
		op, ok := ops[p.curToken.Literal]
		if !ok {
			break
		}
		pos := p.curToken.Pos
		p.nextToken()
		rhs := next()
		lhs = &BinaryExpr{PosVal: pos, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

func (p *Parser) parseUnary() Expr {
	if p.curTokenIs(TokenOperator) && p.curToken.Literal == "!" {
		pos := p.curToken.Pos
		p.nextToken()
		return &UnaryExpr{PosVal: pos, Op: bytecode.UnaryNot, Operand: p.parsePrimary()}
	}
	return p.parsePrimary()
}

// Built-in callable names: VM-backed commands with their argument counts,
// and compile-time intrinsics.
var specialCalls = map[string]struct {
	cmd   bytecode.User
	arity int
}{
	"set_pixel": {bytecode.UserSetPixel, 4},
	"get_pixel": {bytecode.UserGetPixel, 1},
	"random":    {bytecode.UserRandomInt, 1},
}

var bareSpecials = map[string]bytecode.User{
	"get_length":       bytecode.UserGetLength,
	"get_wall_time":    bytecode.UserGetWallTime,
	"get_precise_time": bytecode.UserGetPreciseTime,
}

var intrinsicCalls = map[string]struct {
	kind  IntrinsicKind
	arity int
}{
	"rgb":   {IntrinsicRGB, 3},
	"red":   {IntrinsicRed, 1},
	"green": {IntrinsicGreen, 1},
	"blue":  {IntrinsicBlue, 1},
	"clamp": {IntrinsicClamp, 3},
}

func (p *Parser) parsePrimary() Expr {
	if !p.checkLex() {
		return nil
	}

	switch {
	case p.curTokenIs(TokenInt):
		n := &IntLit{PosVal: p.curToken.Pos, Value: p.curToken.Value}
		p.nextToken()
		return n

	case p.curTokenIs(TokenLParen):
		p.nextToken()
		expr := p.parseExpr()
		p.expect(TokenRParen)
		return expr

	case p.curTokenIs(TokenIdent):
		return p.parseIdentOrCall()

	default:
		p.errorf(p.curToken.Pos, "expected expression, found %s", p.curToken)
		return nil
	}
}

func (p *Parser) parseIdentOrCall() Expr {
	pos := p.curToken.Pos
	name := p.curToken.Literal

	if cmd, ok := bareSpecials[name]; ok {
		p.nextToken()
		if p.curTokenIs(TokenLParen) {
			p.errorf(p.curToken.Pos, "%s takes no arguments and no parentheses", name)
			return nil
		}
		return &SpecialCall{PosVal: pos, Cmd: cmd}
	}

	if sc, ok := specialCalls[name]; ok {
		p.nextToken()
		args := p.parseCallArgs(name, sc.arity)
		return &SpecialCall{PosVal: pos, Cmd: sc.cmd, Args: args}
	}

	if ic, ok := intrinsicCalls[name]; ok {
		p.nextToken()
		args := p.parseCallArgs(name, ic.arity)
		return &IntrinsicExpand{PosVal: pos, Kind: ic.kind, Args: args}
	}

	p.nextToken()
	return &Ident{PosVal: pos, Name: name}
}

// parseCallArgs parses `( expr, … )` and checks the argument count.
func (p *Parser) parseCallArgs(name string, arity int) []Expr {
	callPos := p.curToken.Pos
	p.expect(TokenLParen)
	var args []Expr
	for p.err == nil && !p.curTokenIs(TokenRParen) {
		if len(args) > 0 && !p.expect(TokenComma) {
			return nil
		}
		args = append(args, p.parseExpr())
	}
	p.expect(TokenRParen)
	if p.err == nil && len(args) != arity {
		p.errorf(callPos, "%s expects %d argument(s), got %d", name, arity, len(args))
		return nil
	}
	return args
}
