package cry

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// OnionKeyPair is an X25519 key pair published by an entity in its gossip
// profile (spec §4.3 phase L: "each layer encrypted to hᵢ's gossip-
// published key").
type OnionKeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateOnionKeyPair creates a new X25519 key pair.
func GenerateOnionKeyPair() (OnionKeyPair, error) {
	var kp OnionKeyPair
	if _, err := io.ReadFull(rand.Reader, kp.Private[:]); err != nil {
		return kp, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return kp, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SealOnionLayer encrypts plaintext to recipientPub using an ephemeral
// X25519 key agreement plus ChaCha20-Poly1305 AEAD. The encryption nonce
// and ephemeral key are random: per spec §5 "non-determinism quarantine",
// onion ciphertext is the one sanctioned exception — it never feeds a
// frame hash, only the opaque sealed bytes do, and those bytes are what
// gets hashed, not the randomness itself.
func SealOnionLayer(recipientPub [32]byte, plaintext []byte) ([]byte, error) {
	ephemeral, err := GenerateOnionKeyPair()
	if err != nil {
		return nil, err
	}

	shared, err := curve25519.X25519(ephemeral.Private[:], recipientPub[:])
	if err != nil {
		return nil, errors.Wrap(err, "onion: key agreement")
	}

	key, err := deriveAEADKey(shared)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, 32+len(nonce)+len(sealed))
	out = append(out, ephemeral.Public[:]...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// OpenOnionLayer decrypts a layer sealed with SealOnionLayer using the
// recipient's static private key.
func OpenOnionLayer(recipientPriv [32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < 32+chacha20poly1305.NonceSize {
		return nil, errors.New("onion: sealed layer too short")
	}
	var ephemeralPub [32]byte
	copy(ephemeralPub[:], sealed[:32])
	nonce := sealed[32 : 32+chacha20poly1305.NonceSize]
	ciphertext := sealed[32+chacha20poly1305.NonceSize:]

	shared, err := curve25519.X25519(recipientPriv[:], ephemeralPub[:])
	if err != nil {
		return nil, errors.Wrap(err, "onion: key agreement")
	}

	key, err := deriveAEADKey(shared)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return aead.Open(nil, nonce, ciphertext, nil)
}

func deriveAEADKey(shared []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha3.New256, shared, nil, []byte("xln-onion-v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}
