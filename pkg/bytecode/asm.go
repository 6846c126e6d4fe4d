package bytecode

import "encoding/binary"

// literalClass distinguishes the two literal batch encodings.
type literalClass int

const (
	literalNone literalClass = iota
	literalByte
	literalInt
)

// Assembler builds a Program instruction by instruction. It batches
// consecutive literal pushes into single PUSHB/PUSHI instructions, tracks
// the stack depth the emitted code will produce, and supports forward
// jumps through placeholder patching.
type Assembler struct {
	code    []byte
	depth   int
	pending []uint32
	class   literalClass
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Depth returns the stack depth the emitted instructions leave behind,
// counting literals still waiting in the batch buffer.
func (a *Assembler) Depth() int {
	return a.depth
}

// AdjustDepth corrects the tracked depth at control-flow merge points,
// where the linear count diverges from the depth along the taken branch.
func (a *Assembler) AdjustDepth(delta int) {
	a.depth += delta
}

// Position flushes pending literals and returns the address the next
// instruction will be emitted at.
func (a *Assembler) Position() int {
	a.flush()
	return len(a.code)
}

func (a *Assembler) flush() {
	if len(a.pending) == 0 {
		return
	}
	n := byte(len(a.pending))
	switch a.class {
	case literalByte:
		a.code = append(a.code, byte(PrefixPushB)|n)
		for _, v := range a.pending {
			a.code = append(a.code, byte(v))
		}
	case literalInt:
		a.code = append(a.code, byte(PrefixPushI)|n)
		for _, v := range a.pending {
			a.code = binary.BigEndian.AppendUint32(a.code, v)
		}
	}
	a.pending = a.pending[:0]
	a.class = literalNone
}

// Push queues a literal. Values that fit in a byte join a PUSHB batch,
// larger values a PUSHI batch; a class change or a full batch of 15
// flushes the previous one.
func (a *Assembler) Push(v uint32) {
	class := literalInt
	if v <= 0xFF {
		class = literalByte
	}
	if a.class != class || len(a.pending) == MaxImmediate {
		a.flush()
	}
	a.class = class
	a.pending = append(a.pending, v)
	a.depth++
}

// Pop discards n values from the stack top, splitting across instructions
// when n exceeds a nibble.
func (a *Assembler) Pop(n int) {
	a.flush()
	a.depth -= n
	for n > 0 {
		c := n
		if c > MaxImmediate {
			c = MaxImmediate
		}
		a.code = append(a.code, byte(PrefixPop)|byte(c))
		n -= c
	}
}

// Peek copies the value offset slots below the stack top. The offset must
// fit in a nibble.
func (a *Assembler) Peek(offset int) error {
	if offset < 0 || offset > MaxImmediate {
		return ErrOperandRange
	}
	a.flush()
	a.code = append(a.code, byte(PrefixPeek)|byte(offset))
	a.depth++
	return nil
}

// Unary emits a one-operand operation.
func (a *Assembler) Unary(u Unary) {
	a.flush()
	a.code = append(a.code, byte(PrefixUnary)|byte(u))
}

// Binary emits a two-operand operation.
func (a *Assembler) Binary(b Binary) {
	a.flush()
	a.code = append(a.code, byte(PrefixBinary)|byte(b))
	a.depth--
}

// User emits a strip or environment command.
func (a *Assembler) User(u User) {
	a.flush()
	a.code = append(a.code, byte(PrefixUser)|byte(u))
	a.depth += u.StackDelta()
}

// Special emits a debugging or stack-shuffle command.
func (a *Assembler) Special(s Special) {
	a.flush()
	a.code = append(a.code, byte(PrefixSpecial)|byte(s))
}

// Jump emits a jump with a placeholder address and returns a reference for
// PatchJump. Conditional jumps pop their condition.
func (a *Assembler) Jump(p Prefix) int {
	a.flush()
	a.code = append(a.code, byte(p), 0xFF, 0xFF)
	if p == PrefixJz || p == PrefixJnz {
		a.depth--
	}
	return len(a.code) - 2
}

// PatchJump resolves a placeholder emitted by Jump to the current
// position.
func (a *Assembler) PatchJump(ref int) error {
	target := a.Position()
	if target >= MaxProgramSize {
		return ErrProgramTooLarge
	}
	binary.BigEndian.PutUint16(a.code[ref:], uint16(target))
	return nil
}

// JumpTo emits a jump to an already known (usually backward) address.
func (a *Assembler) JumpTo(p Prefix, target int) error {
	if target < 0 || target >= MaxProgramSize {
		return ErrProgramTooLarge
	}
	a.flush()
	a.code = append(a.code, byte(p))
	a.code = binary.BigEndian.AppendUint16(a.code, uint16(target))
	if p == PrefixJz || p == PrefixJnz {
		a.depth--
	}
	return nil
}

// Finish flushes pending literals and seals the program.
func (a *Assembler) Finish() (Program, error) {
	a.flush()
	if len(a.code) > MaxProgramSize {
		return Program{}, ErrProgramTooLarge
	}
	return FromBytes(a.code), nil
}
