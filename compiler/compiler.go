// Package compiler translates animation language source into the compact
// bytecode executed by pkg/bytecode.
//
// The pipeline has four stages: the Lexer turns source text into tokens,
// the Parser builds an AST, the Resolver checks names and expression
// shapes against the scoping rules, and the code generator lowers the
// tree onto the operand-stack model where every declared constant
// occupies a stack slot addressed by its distance from the top.
package compiler

import "github.com/MabaKalox/animation-lang/pkg/bytecode"

// Parse runs the lexer and parser over source.
func Parse(source string) ([]Stmt, error) {
	return NewParser(source).ParseProgram()
}

// Compile runs the full pipeline: parse, resolve, generate. The returned
// error is a *LexError, *ParseError or *CodegenError identifying the
// stage that rejected the program.
func Compile(source string) (bytecode.Program, error) {
	stmts, err := Parse(source)
	if err != nil {
		return bytecode.Program{}, err
	}
	if err := Resolve(stmts); err != nil {
		return bytecode.Program{}, err
	}
	return Generate(stmts)
}
