// Package codec provides the canonical RLP wire encoding used by every
// hashed, signed or persisted structure in the core (spec.md §6 "Wire
// format"). It is a thin wrapper over go-ethereum's rlp package, the same
// encoder the teacher uses for block and transaction encoding
// (block/header.go, block/bss_root.go).
package codec

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
)

// Encode canonically RLP-encodes val: integers big-endian with no leading
// zeros, strings as bytes, lists length-prefixed (spec §6).
func Encode(val any) ([]byte, error) {
	var buf bytes.Buffer
	if err := rlp.Encode(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustEncode is Encode but panics on error; used for in-memory structures
// whose encodability is a programming invariant (e.g. frame headers built
// from validated fields).
func MustEncode(val any) []byte {
	b, err := Encode(val)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode decodes canonical RLP bytes into val, which must be a pointer.
func Decode(data []byte, val any) error {
	return rlp.DecodeBytes(data, val)
}

// SortedPair is one key-value entry of a canonically-encoded map. Maps in
// the wire format encode as a key-sorted list of pairs (spec §6): Go map
// iteration order is not deterministic, so every hashed structure holding
// a map must convert through SortedPairs before encoding.
type SortedPair struct {
	Key   []byte
	Value []byte
}

// SortedPairs converts a string-keyed byte-value map into its canonical,
// key-sorted pair-list form.
func SortedPairs(m map[string][]byte) []SortedPair {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	out := make([]SortedPair, len(keys))
	for i, k := range keys {
		out[i] = SortedPair{Key: []byte(k), Value: m[k]}
	}
	return out
}

func sortStrings(s []string) {
	// simple insertion sort: these maps are small (board size, token
	// count) so an allocation-free sort beats pulling in sort.Strings
	// closures per call site.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
