package bytecode

import (
	"errors"
	"fmt"
)

// Runtime fault causes. A fault is terminal: once the machine reports one
// it stays faulted and re-reports the same error.
var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrDivideByZero     = errors.New("division by zero")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrPixelOutOfRange  = errors.New("pixel index out of range")
	ErrTruncatedProgram = errors.New("truncated program")
	ErrBadJumpTarget    = errors.New("jump target out of range")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
)

// Fault wraps a runtime fault cause with the address of the instruction
// that raised it.
type Fault struct {
	PC  int
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at 0x%04x: %v", f.PC, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Assembly-time errors.
var (
	ErrProgramTooLarge = errors.New("program exceeds maximum size")
	ErrOperandRange    = errors.New("operand does not fit in a nibble")
)
