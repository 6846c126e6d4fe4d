package bytecode

import "fmt"

// Prefix is the high nibble of an instruction byte. The low nibble of the
// same byte carries an immediate argument whose meaning depends on the
// prefix: a pop count, a literal batch count, a peek offset, or an
// operation selector.
type Prefix byte

const (
	PrefixPop     Prefix = 0x00 // POP n: discard n values from the stack top
	PrefixPushB   Prefix = 0x10 // PUSHB n: push n byte literals that follow
	PrefixPeek    Prefix = 0x20 // PEEK k: copy the value k below the top
	PrefixPushI   Prefix = 0x30 // PUSHI n: push n 32-bit literals that follow
	PrefixJmp     Prefix = 0x40 // JMP: unconditional jump, u16 address follows
	PrefixJz      Prefix = 0x50 // JZ: pop condition, jump if zero
	PrefixJnz     Prefix = 0x60 // JNZ: pop condition, jump if nonzero
	PrefixUnary   Prefix = 0x70 // UNARY op: pop one, push result
	PrefixBinary  Prefix = 0x80 // BINARY op: pop two, push result
	PrefixUser    Prefix = 0xE0 // USER cmd: strip and environment commands
	PrefixSpecial Prefix = 0xF0 // SPECIAL cmd: debugging and stack shuffles
)

// MaxImmediate is the largest value the low nibble can carry.
const MaxImmediate = 15

// MaxProgramSize bounds serialized programs so every jump target fits in
// the 16-bit address operand.
const MaxProgramSize = 1 << 16

var prefixNames = map[Prefix]string{
	PrefixPop:     "POP",
	PrefixPushB:   "PUSHB",
	PrefixPeek:    "PEEK",
	PrefixPushI:   "PUSHI",
	PrefixJmp:     "JMP",
	PrefixJz:      "JZ",
	PrefixJnz:     "JNZ",
	PrefixUnary:   "UNARY",
	PrefixBinary:  "BINARY",
	PrefixUser:    "USER",
	PrefixSpecial: "SPECIAL",
}

// Split decodes an instruction byte into its prefix and immediate nibble.
// ok is false for the unassigned prefix ranges (0x90-0xDF).
func Split(b byte) (p Prefix, imm byte, ok bool) {
	p = Prefix(b & 0xF0)
	_, known := prefixNames[p]
	return p, b & 0x0F, known
}

func (p Prefix) String() string {
	if name, ok := prefixNames[p]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(p))
}

// Unary selects a one-operand operation carried in the low nibble of a
// PrefixUnary instruction.
type Unary byte

const (
	UnaryInc  Unary = 0 // v+1, wrapping
	UnaryDec  Unary = 1 // v-1, wrapping
	UnaryNot  Unary = 2 // bitwise complement
	UnaryShl8 Unary = 4 // v<<8
	UnaryShr8 Unary = 5 // v>>8
)

var unaryNames = map[Unary]string{
	UnaryInc:  "INC",
	UnaryDec:  "DEC",
	UnaryNot:  "NOT",
	UnaryShl8: "SHL8",
	UnaryShr8: "SHR8",
}

func (u Unary) String() string {
	if name, ok := unaryNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UNARY(%d)", byte(u))
}

// Valid reports whether the selector is an assigned unary operation.
func (u Unary) Valid() bool {
	_, ok := unaryNames[u]
	return ok
}

// Apply evaluates the operation on a single operand. All arithmetic wraps
// modulo 2^32.
func (u Unary) Apply(v uint32) uint32 {
	switch u {
	case UnaryInc:
		return v + 1
	case UnaryDec:
		return v - 1
	case UnaryNot:
		return ^v
	case UnaryShl8:
		return v << 8
	case UnaryShr8:
		return v >> 8
	}
	return v
}

// Binary selects a two-operand operation carried in the low nibble of a
// PrefixBinary instruction. The right operand is popped first.
type Binary byte

const (
	BinaryAdd Binary = 0
	BinarySub Binary = 1
	BinaryDiv Binary = 2
	BinaryMul Binary = 3
	BinaryMod Binary = 4
	BinaryAnd Binary = 5
	BinaryOr  Binary = 6
	BinaryXor Binary = 7
	BinaryGt  Binary = 8
	BinaryGte Binary = 9
	BinaryLt  Binary = 10
	BinaryLte Binary = 11
	BinaryEq  Binary = 12
	BinaryNeq Binary = 13
	BinaryShl Binary = 14
	BinaryShr Binary = 15
)

var binaryNames = [16]string{
	"ADD", "SUB", "DIV", "MUL", "MOD", "AND", "OR", "XOR",
	"GT", "GTE", "LT", "LTE", "EQ", "NEQ", "SHL", "SHR",
}

func (b Binary) String() string {
	if int(b) < len(binaryNames) {
		return binaryNames[b]
	}
	return fmt.Sprintf("BINARY(%d)", byte(b))
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// Apply evaluates the operation. Division and modulo by zero return
// ErrDivideByZero; everything else wraps modulo 2^32. Comparisons yield
// 1 or 0. Shift counts are taken modulo 32.
func (b Binary) Apply(lhs, rhs uint32) (uint32, error) {
	switch b {
	case BinaryAdd:
		return lhs + rhs, nil
	case BinarySub:
		return lhs - rhs, nil
	case BinaryDiv:
		if rhs == 0 {
			return 0, ErrDivideByZero
		}
		return lhs / rhs, nil
	case BinaryMul:
		return lhs * rhs, nil
	case BinaryMod:
		if rhs == 0 {
			return 0, ErrDivideByZero
		}
		return lhs % rhs, nil
	case BinaryAnd:
		return lhs & rhs, nil
	case BinaryOr:
		return lhs | rhs, nil
	case BinaryXor:
		return lhs ^ rhs, nil
	case BinaryGt:
		return boolWord(lhs > rhs), nil
	case BinaryGte:
		return boolWord(lhs >= rhs), nil
	case BinaryLt:
		return boolWord(lhs < rhs), nil
	case BinaryLte:
		return boolWord(lhs <= rhs), nil
	case BinaryEq:
		return boolWord(lhs == rhs), nil
	case BinaryNeq:
		return boolWord(lhs != rhs), nil
	case BinaryShl:
		return lhs << (rhs & 31), nil
	case BinaryShr:
		return lhs >> (rhs & 31), nil
	}
	return 0, fmt.Errorf("%w: binary selector %d", ErrUnknownOpcode, byte(b))
}

// User selects a strip or environment command carried in the low nibble of
// a PrefixUser instruction.
type User byte

const (
	UserGetLength      User = 0 // push strip length
	UserGetWallTime    User = 1 // push wall-clock seconds
	UserGetPreciseTime User = 2 // push milliseconds since program start
	UserSetPixel       User = 3 // pop color, pop index, write pixel
	UserBlit           User = 4 // emit the current frame, suspend
	UserRandomInt      User = 5 // pop max, push uniform value in [0,max)
	UserGetPixel       User = 6 // pop index, push pixel color
)

var userNames = map[User]string{
	UserGetLength:      "GET_LENGTH",
	UserGetWallTime:    "GET_WALL_TIME",
	UserGetPreciseTime: "GET_PRECISE_TIME",
	UserSetPixel:       "SET_PIXEL",
	UserBlit:           "BLIT",
	UserRandomInt:      "RANDOM_INT",
	UserGetPixel:       "GET_PIXEL",
}

func (u User) String() string {
	if name, ok := userNames[u]; ok {
		return name
	}
	return fmt.Sprintf("USER(%d)", byte(u))
}

// Valid reports whether the selector is an assigned user command.
func (u User) Valid() bool {
	_, ok := userNames[u]
	return ok
}

// StackDelta returns the net change in stack depth the command causes.
func (u User) StackDelta() int {
	switch u {
	case UserGetLength, UserGetWallTime, UserGetPreciseTime:
		return 1
	case UserSetPixel:
		return -2
	}
	// BLIT, RANDOM_INT and GET_PIXEL leave the depth unchanged.
	return 0
}

// Special selects a debugging or stack-shuffle command carried in the low
// nibble of a PrefixSpecial instruction.
type Special byte

const (
	SpecialDump Special = 1 // print the stack, execution continues
	SpecialSwap Special = 2 // exchange the top two values
)

var specialNames = map[Special]string{
	SpecialDump: "DUMP",
	SpecialSwap: "SWAP",
}

func (s Special) String() string {
	if name, ok := specialNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SPECIAL(%d)", byte(s))
}

// Valid reports whether the selector is an assigned special command.
func (s Special) Valid() bool {
	_, ok := specialNames[s]
	return ok
}
