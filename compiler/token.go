package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the animation language lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals and names
	TokenInt   // 42, 0xFF
	TokenIdent // foo, set_pixel

	// Keywords
	TokenLet
	TokenLoop
	TokenFor
	TokenIf
	TokenElse
	TokenBlit
	TokenDump

	// Operators and delimiters
	TokenOperator // + - * / % & | ^ ! << >> < > <= >= == !=
	TokenAssign   // =
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenSemicolon
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenInt:       "INT",
	TokenIdent:     "IDENT",
	TokenLet:       "let",
	TokenLoop:      "loop",
	TokenFor:       "for",
	TokenIf:        "if",
	TokenElse:      "else",
	TokenBlit:      "blit",
	TokenDump:      "dump",
	TokenOperator:  "OPERATOR",
	TokenAssign:    "=",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenComma:     ",",
	TokenSemicolon: ";",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"let":  TokenLet,
	"loop": TokenLoop,
	"for":  TokenFor,
	"if":   TokenIf,
	"else": TokenElse,
	"blit": TokenBlit,
	"dump": TokenDump,
}

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Value   uint32 // parsed value for TokenInt
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case TokenInt, TokenIdent, TokenOperator, TokenError:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	}
	return t.Type.String()
}
