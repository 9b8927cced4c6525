package entity

import (
	"crypto/ecdsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/xlntype"
)

type testSigner struct {
	key  *ecdsa.PrivateKey
	addr xlntype.Address
}

func newTestSigner(t *testing.T) testSigner {
	t.Helper()
	key, err := cry.GenerateKey()
	require.NoError(t, err)
	return testSigner{key: key, addr: cry.PubkeyToAddress(key.PublicKey)}
}

func signTx(t *testing.T, tx *Tx, key *ecdsa.PrivateKey) []byte {
	t.Helper()
	unsigned := *tx
	unsigned.Signature = nil
	digest := txSigningDigest(&unsigned)
	sig, err := cry.Sign(digest, key)
	require.NoError(t, err)
	return sig
}

func txSigningDigest(tx *Tx) []byte {
	return cry.Keccak256(tx.From.Bytes(), uint64Bytes(tx.Nonce), []byte{byte(tx.Kind)}).Bytes()
}

// TestThreeSignerFrameCommits exercises end-to-end scenario S1: a
// 3-signer board (shares 33/33/34, threshold 67) commits a frame once
// enough precommits accumulate.
func TestThreeSignerFrameCommits(t *testing.T) {
	s0 := newTestSigner(t)
	s1 := newTestSigner(t)
	s2 := newTestSigner(t)

	board := Board{
		Seats: []BoardSeat{
			{Signer: s0.addr, Shares: 33, EOA: true},
			{Signer: s1.addr, Shares: 33, EOA: true},
			{Signer: s2.addr, Shares: 34, EOA: false},
		},
		Threshold: 67,
	}

	genesis := &EntityState{
		Board:        board,
		SignerNonces: map[xlntype.Address]uint64{},
	}

	proposerReplica := NewReplica(s0.addr, genesis)

	tx := Tx{Kind: KindChat, From: s0.addr, Nonce: 1, Chat: &ChatPayload{Data: "hi"}}
	tx.Signature = signTx(t, &tx, s0.key)

	require.NoError(t, proposerReplica.AddTx(tx, txSigningDigest(&tx)))
	assert.Equal(t, 1, proposerReplica.Mempool.Len())

	// board[height=1 mod 3] == board[1] == s1, not s0: s0 must wait.
	_, err := proposerReplica.Propose(1000)
	assert.Error(t, err)

	// Build replica for the actual proposer at height 1 (index 1 == s1).
	s1Replica := NewReplica(s1.addr, &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{}})
	require.NoError(t, s1Replica.AddTx(tx, txSigningDigest(&tx)))

	frame, err := s1Replica.Propose(1000)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, uint64(1), frame.Height)

	// Validators re-derive and precommit.
	v0 := NewReplica(s0.addr, &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{}})
	require.NoError(t, v0.AddTx(tx, txSigningDigest(&tx)))
	pc0, err := v0.ReceiveProposal(frame, s0.key)
	require.NoError(t, err)

	v2 := NewReplica(s2.addr, &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{}})
	require.NoError(t, v2.AddTx(tx, txSigningDigest(&tx)))
	pc2, err := v2.ReceiveProposal(frame, s2.key)
	require.NoError(t, err)

	var hanko *cry.Hanko
	hanko, err = s1Replica.ReceivePrecommit(*pc0)
	require.NoError(t, err)
	assert.Nil(t, hanko) // 33 shares < 67 threshold

	hanko, err = s1Replica.ReceivePrecommit(*pc2)
	require.NoError(t, err)
	require.NotNil(t, hanko) // 33+34 = 67 >= threshold

	require.NoError(t, s1Replica.Commit(frame, hanko))
	assert.Equal(t, uint64(1), s1Replica.State.Height)
	assert.Equal(t, PhaseIdle, s1Replica.Phase)
}

func TestEmptyMempoolProducesNoFrame(t *testing.T) {
	s0 := newTestSigner(t)
	board := Board{Seats: []BoardSeat{{Signer: s0.addr, Shares: 1, EOA: true}}, Threshold: 1}
	r := NewReplica(s0.addr, &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{}})

	frame, err := r.Propose(100)
	require.NoError(t, err)
	assert.Nil(t, frame)
}

func TestSingleSignerFastPath(t *testing.T) {
	s0 := newTestSigner(t)
	board := Board{Seats: []BoardSeat{{Signer: s0.addr, Shares: 1, EOA: true}}, Threshold: 1}
	r := NewReplica(s0.addr, &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{}})

	tx := Tx{Kind: KindChat, From: s0.addr, Nonce: 1, Chat: &ChatPayload{Data: "solo"}}
	tx.Signature = signTx(t, &tx, s0.key)
	require.NoError(t, r.AddTx(tx, txSigningDigest(&tx)))

	frame, err := r.Propose(5)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, PhaseLocked, r.Phase)

	pc, err := r.ReceiveProposal(frame, s0.key)
	require.NoError(t, err)

	hanko, err := r.ReceivePrecommit(*pc)
	require.NoError(t, err)
	require.NotNil(t, hanko)
	require.NoError(t, r.Commit(frame, hanko))

	assert.Equal(t, uint64(1), r.State.Height)
}

func TestDeterministicStateRoot(t *testing.T) {
	s0 := newTestSigner(t)
	board := Board{Seats: []BoardSeat{{Signer: s0.addr, Shares: 1, EOA: true}}, Threshold: 1}

	a := &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{s0.addr: 5}}
	b := &EntityState{Board: board, SignerNonces: map[xlntype.Address]uint64{s0.addr: 5}}

	assert.Equal(t, a.StateRoot(), b.StateRoot())
}
