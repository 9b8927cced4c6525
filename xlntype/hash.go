package xlntype

import (
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of data using legacy Keccak-256, the
// hash used throughout the wire format (frame hashing, account keys).
func Keccak256(data ...[]byte) (h Bytes32) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	sum := d.Sum(nil)
	copy(h[:], sum)
	return h
}

// AccountKeyOf derives the canonical account key for a pair of entities,
// following spec §3: H(min(A,B) || max(A,B)).
func AccountKeyOf(a, b EntityID) (key AccountKey, left, right EntityID) {
	if lessBytes32(a, b) {
		left, right = a, b
	} else {
		left, right = b, a
	}
	return Keccak256(left.Bytes(), right.Bytes()), left, right
}

func lessBytes32(a, b Bytes32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
