package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// State describes where a machine is in its lifecycle.
type State int

const (
	StateReady     State = iota // created, no instruction executed yet
	StateSuspended              // paused at a BLIT, a frame was produced
	StateHalted                 // ran off the end of the program
	StateFaulted                // terminal error, see Err
)

var stateNames = [...]string{"ready", "suspended", "halted", "faulted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures a VM. The zero value selects system providers, no
// instruction limits and stack dumps to stderr.
type Options struct {
	Rand  RandomSource
	Clock Clock

	// MaxInstructions bounds the whole run; MaxPerFrame bounds each Next
	// call. Zero disables the respective limit. Exceeding either is a
	// fault.
	MaxInstructions uint64
	MaxPerFrame     uint64

	// DumpWriter receives DUMP output.
	DumpWriter io.Writer

	// Trace prints each instruction to DumpWriter before executing it.
	Trace bool
}

// VM executes a Program against a pixel strip. It is a pull-driven
// generator: each Next call runs until the program emits a frame with
// BLIT, halts, or faults.
type VM struct {
	prog   Program
	pc     int
	stack  []uint32
	pixels Frame
	state  State
	err    error

	rand     RandomSource
	clock    Clock
	start    int64 // epoch milliseconds at first instruction
	started  bool
	executed uint64
	opts     Options
	dump     io.Writer
}

// New creates a machine for prog over a strip of stripLen pixels, all
// initially black.
func New(prog Program, stripLen int, opts Options) (*VM, error) {
	if stripLen <= 0 {
		return nil, fmt.Errorf("strip length must be positive, got %d", stripLen)
	}
	m := &VM{
		prog:   prog,
		pixels: make(Frame, stripLen),
		rand:   opts.Rand,
		clock:  opts.Clock,
		opts:   opts,
		dump:   opts.DumpWriter,
	}
	if m.rand == nil {
		m.rand = SystemRandom()
	}
	if m.clock == nil {
		m.clock = SystemClock()
	}
	if m.dump == nil {
		m.dump = os.Stderr
	}
	return m, nil
}

// State returns the machine's lifecycle state.
func (m *VM) State() State { return m.state }

// Err returns the fault, or nil if the machine has not faulted.
func (m *VM) Err() error { return m.err }

// PC returns the address of the next instruction.
func (m *VM) PC() int { return m.pc }

// StackDepth returns the number of values on the evaluation stack. A
// well-formed program has the same depth at every suspension point of a
// loop.
func (m *VM) StackDepth() int { return len(m.stack) }

// Executed returns the total number of instructions executed so far.
func (m *VM) Executed() uint64 { return m.executed }

func (m *VM) fault(pc int, err error) error {
	m.state = StateFaulted
	m.err = &Fault{PC: pc, Err: err}
	return m.err
}

func (m *VM) push(v uint32) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() (uint32, bool) {
	if len(m.stack) == 0 {
		return 0, false
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, true
}

// Next resumes execution. It returns the next frame when the program
// executes BLIT, (nil, nil) when the program halts, and (nil, err) when it
// faults. After a halt or fault every further call repeats the same
// result.
func (m *VM) Next() (Frame, error) {
	switch m.state {
	case StateHalted:
		return nil, nil
	case StateFaulted:
		return nil, m.err
	}

	if !m.started {
		m.started = true
		m.start = m.clock.Now().UnixMilli()
	}

	code := m.prog.code
	var frameInstr uint64

	for m.pc < len(code) {
		pc := m.pc
		op := code[pc]
		prefix, imm, known := Split(op)
		if !known {
			return nil, m.fault(pc, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, op))
		}

		m.executed++
		frameInstr++
		if m.opts.MaxInstructions > 0 && m.executed > m.opts.MaxInstructions {
			return nil, m.fault(pc, ErrInstructionLimit)
		}
		if m.opts.MaxPerFrame > 0 && frameInstr > m.opts.MaxPerFrame {
			return nil, m.fault(pc, ErrInstructionLimit)
		}

		if m.opts.Trace {
			line, _ := disassembleInstruction(code, pc)
			fmt.Fprintf(m.dump, "[%04x] %-24s depth=%d\n", pc, line, len(m.stack))
		}

		switch prefix {
		case PrefixPop:
			n := int(imm)
			if n > len(m.stack) {
				return nil, m.fault(pc, ErrStackUnderflow)
			}
			m.stack = m.stack[:len(m.stack)-n]
			m.pc++

		case PrefixPushB:
			end := pc + 1 + int(imm)
			if end > len(code) {
				return nil, m.fault(pc, ErrTruncatedProgram)
			}
			for _, b := range code[pc+1 : end] {
				m.push(uint32(b))
			}
			m.pc = end

		case PrefixPushI:
			end := pc + 1 + 4*int(imm)
			if end > len(code) {
				return nil, m.fault(pc, ErrTruncatedProgram)
			}
			for off := pc + 1; off < end; off += 4 {
				m.push(binary.BigEndian.Uint32(code[off:]))
			}
			m.pc = end

		case PrefixPeek:
			k := int(imm)
			if k >= len(m.stack) {
				return nil, m.fault(pc, ErrStackUnderflow)
			}
			m.push(m.stack[len(m.stack)-1-k])
			m.pc++

		case PrefixJmp, PrefixJz, PrefixJnz:
			if pc+3 > len(code) {
				return nil, m.fault(pc, ErrTruncatedProgram)
			}
			target := int(binary.BigEndian.Uint16(code[pc+1:]))
			if target > len(code) {
				return nil, m.fault(pc, ErrBadJumpTarget)
			}
			taken := true
			if prefix != PrefixJmp {
				cond, ok := m.pop()
				if !ok {
					return nil, m.fault(pc, ErrStackUnderflow)
				}
				if prefix == PrefixJz {
					taken = cond == 0
				} else {
					taken = cond != 0
				}
			}
			if taken {
				m.pc = target
			} else {
				m.pc += 3
			}

		case PrefixUnary:
			u := Unary(imm)
			if !u.Valid() {
				return nil, m.fault(pc, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, op))
			}
			v, ok := m.pop()
			if !ok {
				return nil, m.fault(pc, ErrStackUnderflow)
			}
			m.push(u.Apply(v))
			m.pc++

		case PrefixBinary:
			rhs, ok := m.pop()
			if !ok {
				return nil, m.fault(pc, ErrStackUnderflow)
			}
			lhs, ok := m.pop()
			if !ok {
				return nil, m.fault(pc, ErrStackUnderflow)
			}
			v, err := Binary(imm).Apply(lhs, rhs)
			if err != nil {
				return nil, m.fault(pc, err)
			}
			m.push(v)
			m.pc++

		case PrefixUser:
			frame, err := m.userCommand(pc, User(imm))
			if err != nil {
				return nil, err
			}
			if frame != nil {
				return frame, nil
			}

		case PrefixSpecial:
			switch Special(imm) {
			case SpecialDump:
				m.dumpStack(pc)
			case SpecialSwap:
				if len(m.stack) < 2 {
					return nil, m.fault(pc, ErrStackUnderflow)
				}
				n := len(m.stack)
				m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
			default:
				return nil, m.fault(pc, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, op))
			}
			m.pc++
		}
	}

	m.state = StateHalted
	return nil, nil
}

// userCommand executes a USER instruction. It returns a non-nil frame only
// for BLIT.
func (m *VM) userCommand(pc int, u User) (Frame, error) {
	switch u {
	case UserGetLength:
		m.push(uint32(len(m.pixels)))

	case UserGetWallTime:
		m.push(uint32(m.clock.WallTime().Unix()))

	case UserGetPreciseTime:
		m.push(uint32(m.clock.Now().UnixMilli() - m.start))

	case UserSetPixel:
		color, ok := m.pop()
		if !ok {
			return nil, m.fault(pc, ErrStackUnderflow)
		}
		idx, ok := m.pop()
		if !ok {
			return nil, m.fault(pc, ErrStackUnderflow)
		}
		if idx >= uint32(len(m.pixels)) {
			return nil, m.fault(pc, fmt.Errorf("%w: %d (strip length %d)", ErrPixelOutOfRange, idx, len(m.pixels)))
		}
		m.pixels[idx] = ColorFromWord(color)

	case UserBlit:
		m.pc = pc + 1
		m.state = StateSuspended
		return m.pixels.Clone(), nil

	case UserRandomInt:
		max, ok := m.pop()
		if !ok {
			return nil, m.fault(pc, ErrStackUnderflow)
		}
		if max == 0 {
			m.push(0)
		} else {
			m.push(m.rand.Uint32n(max))
		}

	case UserGetPixel:
		idx, ok := m.pop()
		if !ok {
			return nil, m.fault(pc, ErrStackUnderflow)
		}
		if idx >= uint32(len(m.pixels)) {
			return nil, m.fault(pc, fmt.Errorf("%w: %d (strip length %d)", ErrPixelOutOfRange, idx, len(m.pixels)))
		}
		m.push(m.pixels[idx].Word())

	default:
		return nil, m.fault(pc, fmt.Errorf("%w: USER %d", ErrUnknownOpcode, byte(u)))
	}
	m.pc = pc + 1
	return nil, nil
}

func (m *VM) dumpStack(pc int) {
	vals := make([]string, len(m.stack))
	for i, v := range m.stack {
		vals[i] = fmt.Sprintf("%d", v)
	}
	fmt.Fprintf(m.dump, "[%04x] stack(%d): %s\n", pc, len(m.stack), strings.Join(vals, " "))
}
