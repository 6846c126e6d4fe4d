package bytecode

import (
	"bytes"
	"crypto/sha256"
)

// Program is an immutable, fully assembled instruction stream ready to be
// executed or shipped over the wire.
type Program struct {
	code []byte
}

// FromBytes wraps raw instruction bytes in a Program. The bytes are copied
// so later mutation of the argument cannot affect the program.
func FromBytes(code []byte) Program {
	return Program{code: bytes.Clone(code)}
}

// Bytes returns a copy of the instruction stream.
func (p Program) Bytes() []byte {
	return bytes.Clone(p.code)
}

// Len returns the length of the instruction stream in bytes.
func (p Program) Len() int {
	return len(p.code)
}

// Equal reports whether two programs have identical instruction streams.
func (p Program) Equal(other Program) bool {
	return bytes.Equal(p.code, other.code)
}

// Digest returns the SHA-256 of the instruction stream. It identifies a
// program in the store and lets receivers verify transport integrity.
func (p Program) Digest() [sha256.Size]byte {
	return sha256.Sum256(p.code)
}

// String renders the program as a disassembly listing.
func (p Program) String() string {
	return Disassemble(p)
}
