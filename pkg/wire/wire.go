// Package wire defines the transport envelope for compiled programs.
//
// An Envelope carries the raw instruction stream plus a SHA-256 digest so
// a receiving strip controller can verify the program survived transport
// intact before running it. Envelopes are encoded as canonical CBOR,
// which keeps the encoding deterministic across senders.
package wire

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// Version is the current envelope format version.
const Version = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

var (
	ErrVersionMismatch = errors.New("unsupported envelope version")
	ErrDigestMismatch  = errors.New("program digest mismatch")
)

// Envelope is the unit shipped to a strip controller. StripLength is a
// hint for renderers that have no configured strip; zero means "use your
// own".
type Envelope struct {
	Version     uint16 `cbor:"v"`
	Name        string `cbor:"name,omitempty"`
	StripLength uint32 `cbor:"strip,omitempty"`
	Code        []byte `cbor:"code"`
	Digest      []byte `cbor:"digest"`
}

// NewEnvelope wraps a compiled program for transport.
func NewEnvelope(name string, prog bytecode.Program) *Envelope {
	digest := prog.Digest()
	return &Envelope{
		Version: Version,
		Name:    name,
		Code:    prog.Bytes(),
		Digest:  digest[:],
	}
}

// Verify checks the format version and the digest against the code.
func (e *Envelope) Verify() error {
	if e.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersionMismatch, e.Version)
	}
	sum := sha256.Sum256(e.Code)
	if !bytes.Equal(sum[:], e.Digest) {
		return ErrDigestMismatch
	}
	return nil
}

// Program returns the carried program after verification.
func (e *Envelope) Program() (bytecode.Program, error) {
	if err := e.Verify(); err != nil {
		return bytecode.Program{}, err
	}
	return bytecode.FromBytes(e.Code), nil
}

// Marshal serializes the envelope to canonical CBOR.
func Marshal(e *Envelope) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// Unmarshal deserializes an envelope from CBOR bytes.
func Unmarshal(data []byte) (*Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	return &e, nil
}
