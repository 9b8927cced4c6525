package cry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecover(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	addr := PubkeyToAddress(key.PublicKey)
	digest := Keccak256([]byte("frame-hash"))

	sig, err := Sign(digest.Bytes(), key)
	require.NoError(t, err)

	recovered, err := RecoverAddress(digest.Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestHankoVerifyQuorum(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()
	k3, _ := GenerateKey()

	board := []BoardMember{
		{Signer: PubkeyToAddress(k1.PublicKey), Shares: 33, EOA: true},
		{Signer: PubkeyToAddress(k2.PublicKey), Shares: 33, EOA: true},
		{Signer: PubkeyToAddress(k3.PublicKey), Shares: 34, EOA: false},
	}

	frameHash := Keccak256([]byte("height-1-frame"))
	sig1, _ := Sign(frameHash.Bytes(), k1)
	sig3, _ := Sign(frameHash.Bytes(), k3)

	// 33+34 = 67 >= threshold, with k1 as the EOA signer
	h := &Hanko{FrameHash: frameHash, Sigs: [][]byte{sig1, sig3}}
	assert.NoError(t, h.Verify(board, 67))
}

func TestHankoVerifyBelowThreshold(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()

	board := []BoardMember{
		{Signer: PubkeyToAddress(k1.PublicKey), Shares: 33, EOA: true},
		{Signer: PubkeyToAddress(k2.PublicKey), Shares: 33, EOA: true},
	}

	frameHash := Keccak256([]byte("height-1-frame"))
	sig1, _ := Sign(frameHash.Bytes(), k1)

	h := &Hanko{FrameHash: frameHash, Sigs: [][]byte{sig1}}
	assert.Error(t, h.Verify(board, 67))
}

func TestHankoRequiresEOA(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()

	board := []BoardMember{
		{Signer: PubkeyToAddress(k1.PublicKey), Shares: 60, EOA: false},
		{Signer: PubkeyToAddress(k2.PublicKey), Shares: 60, EOA: false},
	}

	frameHash := Keccak256([]byte("no-eoa-frame"))
	sig1, _ := Sign(frameHash.Bytes(), k1)

	h := &Hanko{FrameHash: frameHash, Sigs: [][]byte{sig1}}
	assert.Error(t, h.Verify(board, 50))
}

func TestOnionSealOpenRoundTrip(t *testing.T) {
	kp, err := GenerateOnionKeyPair()
	require.NoError(t, err)

	plaintext := []byte(`{"next_hop":"h2","amount":1001,"timelock":30}`)
	sealed, err := SealOnionLayer(kp.Public, plaintext)
	require.NoError(t, err)

	opened, err := OpenOnionLayer(kp.Private, sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOnionOpenWrongKeyFails(t *testing.T) {
	kp, _ := GenerateOnionKeyPair()
	other, _ := GenerateOnionKeyPair()

	sealed, err := SealOnionLayer(kp.Public, []byte("secret"))
	require.NoError(t, err)

	_, err = OpenOnionLayer(other.Private, sealed)
	assert.Error(t, err)
}
