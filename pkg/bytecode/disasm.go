package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program, one
// instruction per line with its address.
func Disassemble(p Program) string {
	var sb strings.Builder
	offset := 0
	for offset < len(p.code) {
		line, length := disassembleInstruction(p.code, offset)
		fmt.Fprintf(&sb, "%04X  %s\n", offset, line)
		if length <= 0 {
			break
		}
		offset += length
	}
	return sb.String()
}

// InstructionLen returns the total encoded length of the instruction at
// offset, or 0 if the byte is not a known instruction.
func InstructionLen(code []byte, offset int) int {
	prefix, imm, ok := Split(code[offset])
	if !ok {
		return 0
	}
	switch prefix {
	case PrefixPushB:
		return 1 + int(imm)
	case PrefixPushI:
		return 1 + 4*int(imm)
	case PrefixJmp, PrefixJz, PrefixJnz:
		return 3
	}
	return 1
}

func disassembleInstruction(code []byte, offset int) (string, int) {
	prefix, imm, ok := Split(code[offset])
	if !ok {
		return fmt.Sprintf(".byte 0x%02X", code[offset]), 1
	}

	switch prefix {
	case PrefixPop, PrefixPeek:
		return fmt.Sprintf("%s %d", prefix, imm), 1

	case PrefixPushB:
		length := 1 + int(imm)
		if offset+length > len(code) {
			return fmt.Sprintf("PUSHB %d <truncated>", imm), len(code) - offset
		}
		vals := make([]string, imm)
		for i := range vals {
			vals[i] = fmt.Sprintf("%d", code[offset+1+i])
		}
		return fmt.Sprintf("PUSHB %d [%s]", imm, strings.Join(vals, " ")), length

	case PrefixPushI:
		length := 1 + 4*int(imm)
		if offset+length > len(code) {
			return fmt.Sprintf("PUSHI %d <truncated>", imm), len(code) - offset
		}
		vals := make([]string, imm)
		for i := range vals {
			v := binary.BigEndian.Uint32(code[offset+1+4*i:])
			vals[i] = fmt.Sprintf("%d", v)
		}
		return fmt.Sprintf("PUSHI %d [%s]", imm, strings.Join(vals, " ")), length

	case PrefixJmp, PrefixJz, PrefixJnz:
		if offset+3 > len(code) {
			return fmt.Sprintf("%s <truncated>", prefix), len(code) - offset
		}
		target := binary.BigEndian.Uint16(code[offset+1:])
		return fmt.Sprintf("%s 0x%04X", prefix, target), 3

	case PrefixUnary:
		return fmt.Sprintf("UNARY %s", Unary(imm)), 1
	case PrefixBinary:
		return fmt.Sprintf("BINARY %s", Binary(imm)), 1
	case PrefixUser:
		return fmt.Sprintf("USER %s", User(imm)), 1
	case PrefixSpecial:
		return fmt.Sprintf("SPECIAL %s", Special(imm)), 1
	}
	return fmt.Sprintf(".byte 0x%02X", code[offset]), 1
}
