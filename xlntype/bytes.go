// Package xlntype defines the primitive value types shared by every layer
// of the core: 32-byte hashes, 20-byte addresses and the small set of
// protocol-wide constants. It has no dependency on any other xln package.
package xlntype

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Bytes32 is a fixed-size 32-byte value, used for hashes, roots and ids.
type Bytes32 [32]byte

// Bytes returns the slice form of the value.
func (b Bytes32) Bytes() []byte { return b[:] }

// IsZero tests whether the value is all zero.
func (b Bytes32) IsZero() bool { return b == Bytes32{} }

// String implements fmt.Stringer.
func (b Bytes32) String() string { return "0x" + hex.EncodeToString(b[:]) }

// MarshalJSON implements json.Marshaler.
func (b Bytes32) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes32) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("xlntype: invalid Bytes32 JSON literal")
	}
	parsed, err := ParseBytes32(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// BytesToBytes32 converts a slice to a Bytes32, left-padding with zeros or
// truncating from the left if the slice is longer than 32 bytes.
func BytesToBytes32(b []byte) (v Bytes32) {
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(v[32-len(b):], b)
	return v
}

// ParseBytes32 parses a "0x"-prefixed (or bare) hex string into a Bytes32.
func ParseBytes32(s string) (Bytes32, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Bytes32{}, fmt.Errorf("xlntype: parse bytes32: %w", err)
	}
	return BytesToBytes32(raw), nil
}

// MustParseBytes32 is ParseBytes32 but panics on error; for constants/tests.
func MustParseBytes32(s string) Bytes32 {
	v, err := ParseBytes32(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Address is a 20-byte entity/signer identifier derived from a public key.
type Address [20]byte

// Bytes returns the slice form of the address.
func (a Address) Bytes() []byte { return a[:] }

// IsZero tests whether the address is all zero.
func (a Address) IsZero() bool { return a == Address{} }

// String implements fmt.Stringer.
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// BytesToAddress converts a slice to an Address, left-padding/truncating as
// BytesToBytes32 does.
func BytesToAddress(b []byte) (a Address) {
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(a[20-len(b):], b)
	return a
}

// EntityID identifies a governed entity; an opaque 32-byte blob per spec §3.
type EntityID = Bytes32

// AccountKey identifies a bilateral account: H(min(A,B) || max(A,B)).
type AccountKey = Bytes32
