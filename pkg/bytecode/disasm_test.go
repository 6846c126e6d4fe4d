package bytecode

import (
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	code := []byte{
		0x12, 10, 20, // PUSHB 2 [10 20]
		0x31, 0x00, 0x01, 0x00, 0x00, // PUSHI 1 [65536]
		0x21,             // PEEK 1
		0x50, 0x00, 0x10, // JZ 0x0010
		0x71, // UNARY DEC
		0x80, // BINARY ADD
		0xE4, // USER BLIT
		0xF1, // SPECIAL DUMP
		0x02, // POP 2
	}
	want := []string{
		"0000  PUSHB 2 [10 20]",
		"0003  PUSHI 1 [65536]",
		"0008  PEEK 1",
		"0009  JZ 0x0010",
		"000C  UNARY DEC",
		"000D  BINARY ADD",
		"000E  USER BLIT",
		"000F  SPECIAL DUMP",
		"0010  POP 2",
	}
	got := strings.Split(strings.TrimRight(Disassemble(FromBytes(code)), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDisassembleUnknownByte(t *testing.T) {
	out := Disassemble(FromBytes([]byte{0x9C}))
	if !strings.Contains(out, ".byte 0x9C") {
		t.Errorf("output = %q, want .byte directive", out)
	}
}

func TestDisassembleTruncated(t *testing.T) {
	out := Disassemble(FromBytes([]byte{0x13, 1}))
	if !strings.Contains(out, "PUSHB 3 <truncated>") {
		t.Errorf("output = %q, want truncation marker", out)
	}

	out = Disassemble(FromBytes([]byte{0x40, 0x00}))
	if !strings.Contains(out, "JMP <truncated>") {
		t.Errorf("output = %q, want truncation marker", out)
	}
}

func TestInstructionLen(t *testing.T) {
	tests := []struct {
		code []byte
		want int
	}{
		{[]byte{0x01}, 1},
		{[]byte{0x15, 0, 0, 0, 0, 0}, 6},
		{[]byte{0x32, 0, 0, 0, 0, 0, 0, 0, 0}, 9},
		{[]byte{0x40, 0, 0}, 3},
		{[]byte{0x60, 0, 0}, 3},
		{[]byte{0xE4}, 1},
		{[]byte{0x9C}, 0},
	}
	for _, tc := range tests {
		if got := InstructionLen(tc.code, 0); got != tc.want {
			t.Errorf("InstructionLen(% X) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
