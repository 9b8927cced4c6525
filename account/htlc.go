package account

import (
	"github.com/holiman/uint256"

	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// Direction names which side's hold an HTLC consumes (spec §3 HtlcLock).
type Direction uint8

const (
	DirectionLeft Direction = iota
	DirectionRight
)

// HTLCLock is one outstanding hash-time-locked contract on an account
// (spec §3). OnionLayers carries the sealed per-hop envelope for the next
// forward, opaque to everything except the intended recipient hop.
type HTLCLock struct {
	HashLock      xlntype.Bytes32
	Token         xlntype.Bytes32
	Amount        *uint256.Int
	TimelockBlock uint64
	Direction     Direction
	OnionLayers   []byte
}

// Lock applies an htlc_lock tx (spec §4.3 phase L step 2/3): increments
// the sender side's HTLC hold and checks RCPAN including the hold.
// Rejects a duplicate hashlock on this account (spec §3 invariant,
// §8 boundary behavior).
func (m *Machine) Lock(lock *HTLCLock) error {
	if _, dup := m.HTLCLocks[lock.HashLock]; dup {
		return xerr.New(xerr.ConsensusReject, "duplicate hashlock on account")
	}
	if lock.Amount == nil || lock.Amount.IsZero() {
		return xerr.New(xerr.InvariantViolation, "zero-amount HTLC")
	}

	delta := m.DeltaFor(lock.Token)
	amt := mustInt64(lock.Amount)

	switch lock.Direction {
	case DirectionLeft:
		if amt > delta.SpendableLeft() {
			return xerr.New(xerr.InvariantViolation, "htlc amount exceeds left spendable minus holds")
		}
		delta.LeftHTLCHold = addUint256(delta.LeftHTLCHold, lock.Amount)
	case DirectionRight:
		if amt > delta.SpendableRight() {
			return xerr.New(xerr.InvariantViolation, "htlc amount exceeds right spendable minus holds")
		}
		delta.RightHTLCHold = addUint256(delta.RightHTLCHold, lock.Amount)
	}

	if err := delta.CheckRCPAN(); err != nil {
		return err
	}

	m.HTLCLocks[lock.HashLock] = lock
	return nil
}

// Reveal applies an htlc_reveal tx (spec §4.3 phase R): verifies
// H(secret)==hashlock, moves the delta canonically (left-sends decreases
// off_delta; right-sends increases off_delta), and releases the hold with
// an underflow guard.
func (m *Machine) Reveal(secret []byte) (xlntype.Bytes32, error) {
	hashlock := xlntype.Keccak256(secret)
	lock, ok := m.HTLCLocks[hashlock]
	if !ok {
		return xlntype.Bytes32{}, xerr.New(xerr.ConsensusReject, "unknown hashlock")
	}

	delta := m.DeltaFor(lock.Token)
	amt := mustInt64(lock.Amount)

	switch lock.Direction {
	case DirectionLeft:
		delta.OffDelta -= amt
		if delta.LeftHTLCHold.Cmp(lock.Amount) < 0 {
			return xlntype.Bytes32{}, xerr.New(xerr.InvariantViolation, "hold underflow")
		}
		delta.LeftHTLCHold = subUint256(delta.LeftHTLCHold, lock.Amount)
	case DirectionRight:
		delta.OffDelta += amt
		if delta.RightHTLCHold.Cmp(lock.Amount) < 0 {
			return xlntype.Bytes32{}, xerr.New(xerr.InvariantViolation, "hold underflow")
		}
		delta.RightHTLCHold = subUint256(delta.RightHTLCHold, lock.Amount)
	}

	if err := delta.CheckRCPAN(); err != nil {
		return xlntype.Bytes32{}, err
	}

	delete(m.HTLCLocks, hashlock)
	return hashlock, nil
}

// ResolveKind selects the branch of the unified htlc_resolve handler
// (spec §4.3 "Unified handler").
type ResolveKind uint8

const (
	ResolveTimeout ResolveKind = iota
	ResolveCancel
)

// Resolve applies htlc_resolve{timeout|cancel} (spec §4.3 phases T/X):
// the hold is released back to the sender with no delta change. Both
// branches share this one deterministic, idempotent path.
func (m *Machine) Resolve(hashlock xlntype.Bytes32, kind ResolveKind, currentBlock uint64) error {
	lock, ok := m.HTLCLocks[hashlock]
	if !ok {
		return nil // already resolved: idempotent no-op
	}

	if kind == ResolveTimeout && currentBlock <= lock.TimelockBlock {
		return xerr.New(xerr.TimeoutExceeded, "timeout requested before expiry")
	}

	delta := m.DeltaFor(lock.Token)
	switch lock.Direction {
	case DirectionLeft:
		delta.LeftHTLCHold = subUint256(delta.LeftHTLCHold, lock.Amount)
	case DirectionRight:
		delta.RightHTLCHold = subUint256(delta.RightHTLCHold, lock.Amount)
	}

	delete(m.HTLCLocks, hashlock)
	return nil
}

func addUint256(a, b *uint256.Int) *uint256.Int {
	out := new(uint256.Int)
	if a != nil {
		out.Add(out, a)
	}
	out.Add(out, b)
	return out
}

func subUint256(a, b *uint256.Int) *uint256.Int {
	out := new(uint256.Int)
	if a != nil {
		out.Set(a)
	}
	if out.Cmp(b) < 0 {
		return new(uint256.Int) // floor at zero; guarded by caller's Cmp check pre-subtraction
	}
	out.Sub(out, b)
	return out
}
