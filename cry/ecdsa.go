// Package cry provides the signer-identity primitives: secp256k1 key
// handling, signing and recovery, keccak256 hashing, hanko (quorum
// signature) verification, and the onion envelope encryption used by the
// HTLC routing layer. Grounded on the teacher's cry package API shape
// (cry/sign_test.go, cry/ecdsa_test.go) and go-ethereum's crypto package,
// which the teacher vendors for exactly this purpose.
package cry

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xln-network/xln/xlntype"
)

// GenerateKey creates a new random secp256k1 signing key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// HexToECDSA parses a hex-encoded secp256k1 private key.
func HexToECDSA(hexkey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(hexkey)
}

// ToECDSAPub converts a raw 65-byte uncompressed public key to *ecdsa.PublicKey.
func ToECDSAPub(pub []byte) *ecdsa.PublicKey {
	return crypto.ToECDSAPub(pub)
}

// PubkeyToAddress derives a signer Address from a public key, following
// the same keccak256(pubkey)[12:] scheme as the teacher's cry package.
func PubkeyToAddress(pub ecdsa.PublicKey) xlntype.Address {
	return xlntype.Address(crypto.PubkeyToAddress(pub))
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest.
func Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(digest, key)
}

// Ecrecover recovers the uncompressed public key bytes from a digest and
// signature.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	return crypto.Ecrecover(digest, sig)
}

// SigToPub recovers the *ecdsa.PublicKey from a digest and signature.
func SigToPub(digest, sig []byte) (*ecdsa.PublicKey, error) {
	return crypto.SigToPub(digest, sig)
}

// RecoverAddress recovers the signer Address directly from a digest and
// signature; the common case for verifying precommits and account
// proposals (spec §4.1, §4.2).
func RecoverAddress(digest, sig []byte) (xlntype.Address, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return xlntype.Address{}, err
	}
	return PubkeyToAddress(*pub), nil
}

// Keccak256 hashes data using legacy Keccak-256 (re-exported for callers
// that only import cry, not xlntype, for signing-hash construction).
func Keccak256(data ...[]byte) xlntype.Bytes32 {
	return xlntype.Keccak256(data...)
}
