package account

import (
	"crypto/ecdsa"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// Phase mirrors the bilateral round of spec §4.2: propose, ack (or
// reject), commit. There is no precommit-accumulation step since a
// 2-of-2 account needs exactly one counterparty signature to finalize.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseProposing
	PhaseAwaitingAck
	PhaseCommitting
)

// Ack is the counterparty's signature over a proposed account frame hash.
type Ack struct {
	Signer Role
	Sig    []byte
}

// extend Machine with the mutable consensus-round fields. These live here
// rather than in types.go to keep the bilateral round logic colocated
// with the fields it touches.
type consensusState struct {
	phase     Phase
	queue     []Tx
	pending   *Frame
	proposer  Role // which side proposed `pending`
}

// LeftAddr/RightAddr identify the signing keys for each role; set once at
// construction via Configure. Kept separate from EntityID/Counterparty
// since a board-governed entity's signing address need not equal its
// entity ID (spec §3 distinguishes EntityID from signer Address).
type signers struct {
	leftAddr  xlntype.Address
	rightAddr xlntype.Address
}

// Configure binds the two sides' signer addresses, required before the
// consensus round can verify signatures.
func (m *Machine) Configure(leftAddr, rightAddr xlntype.Address) {
	m.signers = signers{leftAddr: leftAddr, rightAddr: rightAddr}
}

// Enqueue adds a tx to this side's outgoing queue for the next proposal
// (spec §4.2: accumulate, then propose as a batch).
func (m *Machine) Enqueue(tx Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	m.queue = append(m.queue, tx)
	return nil
}

// Propose builds a frame from the queued txs and advances to
// PhaseAwaitingAck (spec §4.2 phase "propose"). The trial application runs
// against a clone so a rejected batch never mutates committed state.
func (m *Machine) Propose(timestamp uint64, key *ecdsa.PrivateKey) (*Frame, error) {
	if m.phase != PhaseIdle {
		return nil, xerr.New(xerr.ConsensusReject, "account not idle")
	}
	if len(m.queue) == 0 {
		return nil, nil
	}

	trial := m.clone()
	for i := range m.queue {
		if err := trial.Apply(&m.queue[i]); err != nil {
			return nil, err
		}
	}

	frame := &Frame{
		Counter:       m.Height + 1,
		Timestamp:     timestamp,
		Txs:           m.queue,
		PrevFrameHash: m.lastFrameHash,
		PostDeltaRoot: DeltaRoot(trial.Deltas),
	}
	sig, err := cry.Sign(frame.Hash().Bytes(), key)
	if err != nil {
		return nil, err
	}
	frame.ProposerSig = sig

	m.pending = frame
	m.proposer = m.Role
	m.phase = PhaseAwaitingAck
	return frame, nil
}

// ReceiveProposal is called by the non-proposing side on receiving a
// counterparty frame (spec §4.2 phase "ack/reject"). On a simultaneous
// double-propose at the same counter, the left side's proposal always
// wins (spec §4.2 tie-break: "left wins"); the right side discards its
// own pending proposal and accepts the left's.
func (m *Machine) ReceiveProposal(frame *Frame, key *ecdsa.PrivateKey) (*Ack, error) {
	if frame.Counter != m.Height+1 {
		return nil, xerr.New(xerr.ConsensusReject, "account frame counter mismatch")
	}
	if frame.PrevFrameHash != m.lastFrameHash {
		return nil, xerr.New(xerr.ConsensusReject, "account frame prev_frame_hash mismatch")
	}

	if m.phase == PhaseAwaitingAck {
		if m.Role == RoleLeft {
			// We are left and already proposed at this counter: ours wins,
			// reject the incoming one outright.
			return nil, xerr.New(xerr.ConsensusReject, "simultaneous proposal: left wins, discarding counterparty's")
		}
		// We are right and already proposed: left wins, discard our own.
		m.pending = nil
		m.queue = nil
		m.phase = PhaseIdle
	}

	proposerAddr, err := cry.RecoverAddress(frame.Hash().Bytes(), frame.ProposerSig)
	if err != nil {
		return nil, xerr.Wrap(xerr.ConsensusReject, "proposer signature invalid", err)
	}
	expectedProposer := m.signers.rightAddr // receiver is left, so the proposer must be right
	if m.Role == RoleRight {
		expectedProposer = m.signers.leftAddr // receiver is right, so the proposer must be left
	}
	if proposerAddr != expectedProposer {
		return nil, xerr.New(xerr.ConsensusReject, "proposer signer does not match counterparty address")
	}

	trial := m.clone()
	for i := range frame.Txs {
		if err := trial.Apply(&frame.Txs[i]); err != nil {
			return nil, err
		}
	}
	if DeltaRoot(trial.Deltas) != frame.PostDeltaRoot {
		return nil, xerr.New(xerr.ConsensusReject, "post delta root mismatch")
	}

	frameHash := frame.Hash()
	sig, err := cry.Sign(frameHash.Bytes(), key)
	if err != nil {
		return nil, err
	}

	m.pending = frame
	m.phase = PhaseCommitting
	return &Ack{Signer: m.Role, Sig: sig}, nil
}

// ReceiveAck is called by the proposer on receiving the counterparty's ack
// (spec §4.2 phase "commit"). It verifies the ack's signature recovers to
// the counterparty's configured signer address before committing.
func (m *Machine) ReceiveAck(ack *Ack) error {
	if m.phase != PhaseAwaitingAck || m.pending == nil {
		return xerr.New(xerr.ConsensusReject, "not awaiting an ack")
	}

	frameHash := m.pending.Hash()
	addr, err := cry.RecoverAddress(frameHash.Bytes(), ack.Sig)
	if err != nil {
		return xerr.Wrap(xerr.ConsensusReject, "ack signature invalid", err)
	}
	expected := m.signers.leftAddr
	if m.Role == RoleLeft {
		expected = m.signers.rightAddr
	}
	if addr != expected {
		return xerr.New(xerr.ConsensusReject, "ack signer does not match counterparty address")
	}

	m.phase = PhaseCommitting
	return nil
}

// Commit applies the agreed frame to committed state (spec §4.2 phase
// "commit"), the only method that mutates m.Deltas/m.HTLCLocks durably.
func (m *Machine) Commit(frame *Frame) error {
	if frame.PrevFrameHash != m.lastFrameHash {
		return xerr.New(xerr.ConsensusReject, "frame.prev_frame_hash mismatch at commit")
	}

	for i := range frame.Txs {
		if err := m.Apply(&frame.Txs[i]); err != nil {
			return err
		}
	}
	if DeltaRoot(m.Deltas) != frame.PostDeltaRoot {
		return xerr.New(xerr.StateCorruption, "post delta root mismatch after commit apply")
	}

	m.Height = frame.Counter
	m.lastFrameHash = frame.Hash()
	m.queue = nil
	m.pending = nil
	m.phase = PhaseIdle
	return nil
}

// clone returns a deep-enough copy of m for trial application: the delta
// map is copied value-by-value so a rejected trial never aliases
// committed *Delta pointers.
func (m *Machine) clone() *Machine {
	out := &Machine{
		EntityID:      m.EntityID,
		Counterparty:  m.Counterparty,
		Role:          m.Role,
		Height:        m.Height,
		Deltas:        make(map[xlntype.Bytes32]*Delta, len(m.Deltas)),
		HTLCLocks:     make(map[xlntype.Bytes32]*HTLCLock, len(m.HTLCLocks)),
		lastFrameHash: m.lastFrameHash,
		signers:       m.signers,
	}
	for token, d := range m.Deltas {
		copyDelta := *d
		out.Deltas[token] = &copyDelta
	}
	for hash, lock := range m.HTLCLocks {
		copyLock := *lock
		out.HTLCLocks[hash] = &copyLock
	}
	return out
}
