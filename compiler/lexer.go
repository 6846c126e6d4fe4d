package compiler

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for animation language source
// ---------------------------------------------------------------------------

// Lexer tokenizes animation language source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// skipWhitespaceAndComments skips whitespace, // line comments and
// /* */ block comments. An unterminated block comment yields an error
// token from NextToken.
func (l *Lexer) skipWhitespaceAndComments() *Token {
	for {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()

		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}

		case l.ch == '/' && l.peekChar() == '*':
			pos := l.position()
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			for {
				if l.ch == 0 {
					return &Token{Type: TokenError, Literal: "unterminated block comment", Pos: pos}
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}

		default:
			return nil
		}
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if errTok := l.skipWhitespaceAndComments(); errTok != nil {
		return *errTok
	}

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}

	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenLBrace, Literal: "{", Pos: pos}

	case l.ch == '}':
		l.readChar()
		return Token{Type: TokenRBrace, Literal: "}", Pos: pos}

	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}

	case l.ch == ';':
		l.readChar()
		return Token{Type: TokenSemicolon, Literal: ";", Pos: pos}

	case unicode.IsDigit(l.ch):
		return l.readNumber(pos)

	case isIdentStart(l.ch):
		return l.readIdentifier(pos)

	default:
		return l.readOperator(pos)
	}
}

// readNumber scans a decimal or 0x-prefixed hexadecimal integer literal.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	base := 10
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		base = 16
		l.readChar()
		l.readChar()
		if !isHexDigit(l.ch) {
			return Token{Type: TokenError, Literal: "malformed hex literal", Pos: pos}
		}
		for isHexDigit(l.ch) {
			l.readChar()
		}
	} else {
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	lit := l.input[start:l.pos]

	digits := lit
	if base == 16 {
		digits = lit[2:]
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return Token{
			Type:    TokenError,
			Literal: fmt.Sprintf("integer literal %s out of 32-bit range", lit),
			Pos:     pos,
		}
	}
	return Token{Type: TokenInt, Literal: lit, Value: uint32(v), Pos: pos}
}

func isHexDigit(ch rune) bool {
	return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// readIdentifier scans an identifier or keyword.
func (l *Lexer) readIdentifier(pos Position) Token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	if kw, ok := keywords[lit]; ok {
		return Token{Type: kw, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenIdent, Literal: lit, Pos: pos}
}

// twoCharOps are operators where the first character alone would lex
// differently.
var twoCharOps = []string{"<<", ">>", "<=", ">=", "==", "!="}

// readOperator scans operators and the assignment sign.
func (l *Lexer) readOperator(pos Position) Token {
	two := string(l.ch) + string(l.peekChar())
	for _, op := range twoCharOps {
		if two == op {
			l.readChar()
			l.readChar()
			return Token{Type: TokenOperator, Literal: op, Pos: pos}
		}
	}

	switch l.ch {
	case '+', '-', '*', '/', '%', '&', '|', '^', '!', '<', '>':
		op := string(l.ch)
		l.readChar()
		return Token{Type: TokenOperator, Literal: op, Pos: pos}
	case '=':
		l.readChar()
		return Token{Type: TokenAssign, Literal: "=", Pos: pos}
	}

	msg := fmt.Sprintf("unexpected character %q", l.ch)
	if l.ch == utf8.RuneError {
		msg = "invalid UTF-8 sequence"
	}
	l.readChar()
	return Token{Type: TokenError, Literal: msg, Pos: pos}
}
