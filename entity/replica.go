package entity

import (
	"crypto/ecdsa"

	"github.com/pkg/errors"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/metrics"
	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

var metricFramesCommitted = metrics.LazyLoadCounter("entity_frames_committed_total")

// Phase mirrors the state table of spec §4.1.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseProposing
	PhaseLocked
	PhaseCommitting
)

// Precommit is a validator's signature over a proposed frame hash.
type Precommit struct {
	Signer xlntype.Address
	Sig    []byte
}

// Replica is one entity's local view of its own consensus state machine
// (spec §3 EntityState + §4.1 state table). Not safe for concurrent use
// from multiple goroutines; per spec §5 an implementation MAY run
// distinct replicas in parallel, never one replica from two goroutines.
type Replica struct {
	Self  xlntype.Address // this node's own signer identity, for role checks
	State *EntityState

	Phase Phase

	Mempool Mempool

	pending       *Frame
	precommits    map[xlntype.Address]Precommit
	proposalStart uint64 // timestamp the current proposal was first seen/made, for TIMEOUT_PROPOSAL_MS
	lockedFrameID xlntype.Bytes32
}

// NewReplica constructs a replica from genesis state.
func NewReplica(self xlntype.Address, genesis *EntityState) *Replica {
	return &Replica{Self: self, State: genesis, Phase: PhaseIdle}
}

// AddTx appends a signed tx to the mempool after verifying its signature
// and nonce (spec §4.1 Idle/add_tx row). The caller supplies the digest
// the signature was taken over (the tx body minus Signature field).
func (r *Replica) AddTx(tx Tx, signingDigest []byte) error {
	addr, err := cry.RecoverAddress(signingDigest, tx.Signature)
	if err != nil {
		return xerr.Wrap(xerr.ConsensusReject, "tx signature invalid", err)
	}
	if addr != tx.From {
		return xerr.New(xerr.ConsensusReject, "tx signature does not match from address")
	}
	nonce := r.State.SignerNonces[tx.From]
	if err := r.Mempool.Add(tx, nonce); err != nil {
		return err
	}
	r.State.SignerNonces[tx.From] = tx.Nonce
	return nil
}

// Propose builds a new frame from the current mempool when this replica is
// the proposer at the next height (spec §4.1 "Idle (proposer)" row).
// timestamp is the runtime-supplied tick timestamp (spec §5 wall-clock
// quarantine: never read internally).
func (r *Replica) Propose(timestamp uint64) (*Frame, error) {
	if r.Phase != PhaseIdle {
		return nil, xerr.New(xerr.ConsensusReject, "replica not idle")
	}
	nextHeight := r.State.Height + 1
	if r.State.Board.ProposerAt(nextHeight) != r.Self {
		return nil, xerr.New(xerr.NotAuthorized, "not proposer at this height")
	}
	if r.Mempool.Len() == 0 {
		return nil, nil // empty mempool => no frame produced (spec §8 boundary behavior)
	}

	sortedTxs := r.Mempool.Snapshot()
	trial := r.State.Clone()
	if err := ApplyTxs(trial, sortedTxs); err != nil {
		return nil, err
	}

	frame := &Frame{
		Height:        nextHeight,
		Timestamp:     timestamp,
		Txs:           sortedTxs,
		PrevStateRoot: r.State.StateRoot(),
		PostStateRoot: trial.StateRoot(),
		ProposerID:    r.Self,
	}

	r.pending = frame
	r.proposalStart = timestamp
	r.precommits = map[xlntype.Address]Precommit{}
	r.Phase = PhaseProposing

	// Single-signer fast path (spec §4.1): with one board seat, the
	// proposer is also the sole validator, so it can lock on its own
	// proposal immediately instead of waiting for an external precommit.
	if r.State.Board.SingleSigner() {
		r.Phase = PhaseLocked
		r.lockedFrameID = frame.Hash()
	}

	return frame, nil
}

// ReceiveProposal is called by a validator replica on receiving a
// proposer's frame (spec §4.1 "Idle (validator)" row). It recomputes the
// sort and re-applies the txs; on match it locks and returns a precommit
// signature to be sent back to the proposer.
func (r *Replica) ReceiveProposal(frame *Frame, key *ecdsa.PrivateKey) (*Precommit, error) {
	if r.Phase != PhaseIdle {
		if r.Phase == PhaseLocked && r.lockedFrameID != frame.Hash() {
			return nil, xerr.New(xerr.ConsensusReject, "validator already locked on a different frame at this height")
		}
	}
	if frame.Height != r.State.Height+1 {
		return nil, xerr.New(xerr.ConsensusReject, "frame height mismatch")
	}
	if frame.PrevStateRoot != r.State.StateRoot() {
		return nil, xerr.New(xerr.ConsensusReject, "prev state root mismatch")
	}

	resorted := SortTxs(frame.Txs)
	trial := r.State.Clone()
	if err := ApplyTxs(trial, resorted); err != nil {
		return nil, errors.Wrap(err, "validator recompute failed")
	}
	recomputedRoot := trial.StateRoot()
	if recomputedRoot != frame.PostStateRoot {
		return nil, xerr.New(xerr.ConsensusReject, "post state root mismatch")
	}

	recomputed := &Frame{
		Height:        frame.Height,
		Timestamp:     frame.Timestamp,
		Txs:           resorted,
		PrevStateRoot: frame.PrevStateRoot,
		PostStateRoot: frame.PostStateRoot,
		ProposerID:    frame.ProposerID,
	}
	frameHash := recomputed.Hash()

	sig, err := cry.Sign(frameHash.Bytes(), key)
	if err != nil {
		return nil, err
	}

	r.pending = recomputed
	r.Phase = PhaseLocked
	r.lockedFrameID = frameHash

	return &Precommit{Signer: r.Self, Sig: sig}, nil
}

// ReceivePrecommit accumulates a validator's precommit (proposer only,
// spec §4.1 "Locked" row). Once accumulated shares reach the board
// threshold it builds a Hanko and transitions to Committing.
func (r *Replica) ReceivePrecommit(pc Precommit) (*cry.Hanko, error) {
	if r.Phase != PhaseProposing && r.Phase != PhaseLocked {
		return nil, xerr.New(xerr.ConsensusReject, "not awaiting precommits")
	}
	if r.pending == nil {
		return nil, xerr.New(xerr.ConsensusReject, "no pending proposal")
	}
	if _, ok := r.State.Board.seat(pc.Signer); !ok {
		return nil, xerr.New(xerr.NotAuthorized, "precommit signer not on board")
	}

	if r.precommits == nil {
		r.precommits = map[xlntype.Address]Precommit{}
	}
	if _, dup := r.precommits[pc.Signer]; dup {
		return nil, nil // duplicate precommit from same signer ignored, first counts
	}
	r.precommits[pc.Signer] = pc

	frameHash := r.pending.Hash()
	sigs := make([][]byte, 0, len(r.precommits))
	for _, p := range r.precommits {
		sigs = append(sigs, p.Sig)
	}
	hanko := &cry.Hanko{FrameHash: frameHash, Sigs: sigs}

	if err := hanko.Verify(r.State.Board.boardMembers(), r.State.Board.Threshold); err != nil {
		return nil, nil // below threshold: no commit, tick retried next round
	}

	r.Phase = PhaseCommitting
	return hanko, nil
}

// Commit applies the proposer-broadcast (frame, hanko) pair (spec §4.1
// "Committing" row). It is the only method that mutates committed state.
func (r *Replica) Commit(frame *Frame, hanko *cry.Hanko) error {
	if frame.PrevStateRoot != r.State.StateRoot() {
		return xerr.New(xerr.ConsensusReject, "frame.prev_state_root mismatch")
	}
	if err := hanko.Verify(r.State.Board.boardMembers(), r.State.Board.Threshold); err != nil {
		return xerr.Wrap(xerr.ConsensusReject, "hanko short of threshold", err)
	}
	if hanko.FrameHash != frame.Hash() {
		return xerr.New(xerr.ConsensusReject, "hanko does not cover this frame")
	}

	next := r.State.Clone()
	if err := ApplyTxs(next, frame.Txs); err != nil {
		return errors.Wrap(err, "commit apply failed")
	}
	if next.StateRoot() != frame.PostStateRoot {
		return xerr.New(xerr.ConsensusReject, "recommitted post state root mismatch")
	}

	next.Height = frame.Height
	r.State = next

	included := map[txKey]bool{}
	for _, tx := range frame.Txs {
		included[txKey{from: tx.From, nonce: tx.Nonce}] = true
	}
	r.Mempool.Remove(included)

	r.pending = nil
	r.precommits = nil
	r.Phase = PhaseIdle
	metricFramesCommitted().Add(1)
	return nil
}

// TimedOut reports whether the current proposal has exceeded
// TIMEOUT_PROPOSAL_MS without committing (spec §4.1 failure modes), given
// the current tick timestamp.
func (r *Replica) TimedOut(now uint64) bool {
	if r.Phase == PhaseIdle {
		return false
	}
	return now > r.proposalStart+xlntype.TimeoutProposalMS
}

// Reset returns the replica to Idle after a timeout, discarding the
// pending proposal but retaining the mempool so any validator may
// re-propose deterministically (spec §4.1 failure modes: "re-propose
// using the same deterministic sort; equivalent re-proposals are
// idempotent").
func (r *Replica) Reset() {
	r.pending = nil
	r.precommits = nil
	r.Phase = PhaseIdle
}
