// Package script loads compiled scenario modules: the CBOR wire form,
// the on-disk script directory and the single-file script pack.
package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/karasuma/scena/vm"
)

// Compiled modules are framed as a fixed magic, a format version byte
// and a canonical CBOR body.
var wireMagic = []byte("SCB1")

const wireVersion byte = 1

var (
	ErrBadMagic   = errors.New("not a compiled scenario module")
	ErrBadVersion = errors.New("unsupported module format version")
	ErrTruncated  = errors.New("truncated module data")
)

// cborEncMode uses canonical mode so the same module always encodes to
// the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("script: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a module to its wire form.
func Marshal(m *vm.Module) ([]byte, error) {
	body, err := cborEncMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("script: marshal module %q: %w", m.Name, err)
	}
	out := make([]byte, 0, len(wireMagic)+1+len(body))
	out = append(out, wireMagic...)
	out = append(out, wireVersion)
	return append(out, body...), nil
}

// Unmarshal deserializes a module from its wire form.
func Unmarshal(data []byte) (*vm.Module, error) {
	if len(data) < len(wireMagic)+1 {
		return nil, ErrTruncated
	}
	if !bytes.Equal(data[:len(wireMagic)], wireMagic) {
		return nil, ErrBadMagic
	}
	if v := data[len(wireMagic)]; v != wireVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	var m vm.Module
	if err := cbor.Unmarshal(data[len(wireMagic)+1:], &m); err != nil {
		return nil, fmt.Errorf("script: unmarshal module: %w", err)
	}
	return &m, nil
}
