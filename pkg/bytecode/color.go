package bytecode

import "fmt"

// Color is a packed RGB pixel value: red in bits 0-7, green in bits 8-15,
// blue in bits 16-23. Bits 24-31 are always zero.
type Color uint32

// RGB packs three channel values into a Color.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16)
}

// ColorFromWord masks a stack word down to the 24 color bits.
func ColorFromWord(v uint32) Color {
	return Color(v & 0x00FFFFFF)
}

func (c Color) R() uint8 { return uint8(c) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c >> 16) }

// Word returns the color as a stack word.
func (c Color) Word() uint32 { return uint32(c) }

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R(), c.G(), c.B())
}

func (c Color) String() string { return c.Hex() }

// Frame is one complete strip state, produced each time a program
// executes BLIT. Index 0 is the first pixel on the strip.
type Frame []Color

// Clone returns an independent copy of the frame.
func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	copy(out, f)
	return out
}
