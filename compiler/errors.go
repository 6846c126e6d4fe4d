package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Error taxonomy: lexing, parsing and code generation each have their own
// error type so callers can tell which stage rejected a program.
// ---------------------------------------------------------------------------

// LexError reports an invalid character sequence in the source text.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// ParseError reports a syntactic or name-resolution problem.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// CodegenError reports a structurally valid program the instruction
// format cannot express, such as a constant reference beyond the peek
// range or a program over the size limit.
type CodegenError struct {
	Pos Position
	Msg string
}

func (e *CodegenError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("codegen error at line %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("codegen error: %s", e.Msg)
}
