package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func compileBytes(t *testing.T, input string) []byte {
	t.Helper()
	prog, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile(%q): %v", input, err)
	}
	return prog.Bytes()
}

func TestCodegenByteLiteral(t *testing.T) {
	got := compileBytes(t, "x = 255;")
	want := []byte{
		0x11, 0xFF, // PUSHB 1 [255]
		0x01, // POP 1 (scope exit)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenWordLiteral(t *testing.T) {
	got := compileBytes(t, "x = 256;")
	want := []byte{
		0x31, 0x00, 0x00, 0x01, 0x00, // PUSHI 1 [256], big-endian
		0x01,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenLiteralBatching(t *testing.T) {
	// Adjacent byte-sized literals share one PUSHB; the word literal
	// breaks the run.
	got := compileBytes(t, "a = 1; b = 2; c = 300;")
	want := []byte{
		0x12, 0x01, 0x02, // PUSHB 2 [1 2]
		0x31, 0x00, 0x00, 0x01, 0x2C, // PUSHI 1 [300]
		0x03, // POP 3
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenConstantReference(t *testing.T) {
	got := compileBytes(t, "a = 10; b = 20; x = a;")
	want := []byte{
		0x12, 0x0A, 0x14, // PUSHB 2 [10 20]
		0x21, // PEEK 1: a is one below the top
		0x03, // POP 3
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenConstantFolding(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		// Pure arithmetic folds into a single literal.
		{"x = 1 + 2 * 3;", []byte{0x11, 0x07, 0x01}},
		// rgb with constant channels folds completely.
		{"x = rgb(20, 10, 210);", []byte{0x31, 0x00, 0xD2, 0x0A, 0x14, 0x01}},
		// Constant clamp folds.
		{"x = clamp(300, 0, 255);", []byte{0x11, 0xFF, 0x01}},
		// Division by a constant zero must not fold; it faults at run
		// time instead.
		{"x = 1 / 0;", []byte{0x12, 0x01, 0x00, 0x82, 0x01}},
	}
	for _, tc := range tests {
		got := compileBytes(t, tc.input)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("Compile(%q) = % X, want % X", tc.input, got, tc.want)
		}
	}
}

func TestCodegenIfElse(t *testing.T) {
	got := compileBytes(t, "if (get_length) { blit; } else { dump; }")
	want := []byte{
		0xE0,             // USER GET_LENGTH
		0x50, 0x00, 0x08, // JZ -> else
		0xE4,             // USER BLIT
		0x40, 0x00, 0x09, // JMP -> end
		0xF1, // SPECIAL DUMP
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenFor(t *testing.T) {
	got := compileBytes(t, "for (n = 3) { blit; };")
	want := []byte{
		0x11, 0x03, // PUSHB 1 [3]: counter
		0x20,             // PEEK 0
		0x50, 0x00, 0x0B, // JZ -> loop exit
		0xE4,             // USER BLIT
		0x71,             // UNARY DEC
		0x40, 0x00, 0x02, // JMP -> loop head
		0x01, // POP 1: drop counter
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenLoop(t *testing.T) {
	got := compileBytes(t, "loop { blit; }")
	want := []byte{
		0xE4,             // USER BLIT
		0x40, 0x00, 0x00, // JMP -> start
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenBlockScopePops(t *testing.T) {
	// Block-local constants are popped when the block closes, before
	// the loop counter is decremented.
	got := compileBytes(t, "for (n = 2) { v = n; };")
	want := []byte{
		0x11, 0x02, // PUSHB 1 [2]
		0x20,             // PEEK 0 (loop head check)
		0x50, 0x00, 0x0C, // JZ -> exit
		0x20,             // PEEK 0 (v = n)
		0x01,             // POP 1 (block scope exit)
		0x71,             // UNARY DEC
		0x40, 0x00, 0x02, // JMP -> head
		0x01, // POP 1 (counter)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenExprStmtPopsValue(t *testing.T) {
	got := compileBytes(t, "get_length;")
	want := []byte{0xE0, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenSetPixelStatement(t *testing.T) {
	// set_pixel compiles index then packed color, no trailing POP.
	got := compileBytes(t, "set_pixel(0, 255, 0, 0);")
	want := []byte{
		0x12, 0x00, 0xFF, // PUSHB 2 [0 255]: index, folded color
		0xE3, // USER SET_PIXEL
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCodegenTooManyVisibleConstants(t *testing.T) {
	src := ""
	for i := 0; i < 17; i++ {
		src += fmt.Sprintf("c%d = %d; ", i, i)
	}
	src += "x = c0;"

	_, err := Compile(src)
	var cgErr *CodegenError
	if !errors.As(err, &cgErr) {
		t.Fatalf("error = %v (%T), want *CodegenError", err, err)
	}
}

func TestCodegenSixteenVisibleConstantsOK(t *testing.T) {
	src := ""
	for i := 0; i < 16; i++ {
		src += fmt.Sprintf("c%d = %d; ", i, i)
	}
	src += "x = c0;"

	if _, err := Compile(src); err != nil {
		t.Fatalf("16 visible constants should compile, got %v", err)
	}
}
