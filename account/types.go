// Package account implements the bilateral 2-of-2 account (payment
// channel) protocol of spec.md §4.2: per-token delta accounting under the
// RCPAN invariant, HTLC locks, and the propose/ack/reject consensus round
// between exactly two entities. Grounded on the teacher's immutable-body
// + builder pattern (block/header.go, block/builder.go) generalized from
// N-of-board quorum to two fixed roles (left/right).
package account

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// Role is the lexicographic role derived from AccountKeyOf (spec §3).
type Role uint8

const (
	RoleLeft Role = iota
	RoleRight
)

// Delta is the per-token accounting record of spec §3. Collateral and the
// two credit limits are non-negative magnitudes, represented with
// holiman/uint256 (the teacher's 256-bit integer dependency) to avoid
// silent overflow at channel-capacity scale. OnDelta/OffDelta form the
// signed quantity Δ = on+off bounded by RCPAN; a plain int64 is used for
// the signed half since uint256 has no native sign and realistic channel
// balances fit comfortably in 63 bits — see DESIGN.md.
type Delta struct {
	OnDelta  int64
	OffDelta int64

	Collateral        *uint256.Int
	LeftCreditLimit   *uint256.Int
	RightCreditLimit  *uint256.Int
	LeftHTLCHold      *uint256.Int
	RightHTLCHold     *uint256.Int
}

// NewDelta returns a zeroed Delta with all uint256 fields allocated.
func NewDelta() *Delta {
	return &Delta{
		Collateral:       new(uint256.Int),
		LeftCreditLimit:  new(uint256.Int),
		RightCreditLimit: new(uint256.Int),
		LeftHTLCHold:     new(uint256.Int),
		RightHTLCHold:    new(uint256.Int),
	}
}

// Net returns Δ = on_delta + off_delta.
func (d *Delta) Net() int64 { return d.OnDelta + d.OffDelta }

// CheckRCPAN verifies −L_l ≤ Δ ≤ C + L_r (spec §3 RCPAN invariant),
// accounting for outstanding HTLC holds against each side's spendable
// room as spec §4.2 guards require ("HTLC amount ≤ sender spendable −
// sender holds").
func (d *Delta) CheckRCPAN() error {
	net := d.Net()
	lowerBound := negInt64(d.LeftCreditLimit)
	upperBound := addInt64(d.Collateral, d.RightCreditLimit)

	if net < lowerBound {
		return xerr.New(xerr.InvariantViolation, "RCPAN: below left credit limit")
	}
	if net > upperBound {
		return xerr.New(xerr.InvariantViolation, "RCPAN: above collateral+right credit limit")
	}
	return nil
}

// SpendableLeft returns how much the left side may still send before
// hitting −L_l, net of the left side's outstanding HTLC holds.
func (d *Delta) SpendableLeft() int64 {
	room := d.Net() - negInt64(d.LeftCreditLimit)
	held := mustInt64(d.LeftHTLCHold)
	if held > room {
		return 0
	}
	return room - held
}

// SpendableRight returns how much the right side may still send before
// hitting C+L_r, net of the right side's outstanding HTLC holds.
func (d *Delta) SpendableRight() int64 {
	room := addInt64(d.Collateral, d.RightCreditLimit) - d.Net()
	held := mustInt64(d.RightHTLCHold)
	if held > room {
		return 0
	}
	return room - held
}

func negInt64(v *uint256.Int) int64 {
	if v == nil {
		return 0
	}
	return -mustInt64(v)
}

func addInt64(a, b *uint256.Int) int64 {
	sum := new(uint256.Int)
	if a != nil {
		sum.Add(sum, a)
	}
	if b != nil {
		sum.Add(sum, b)
	}
	return mustInt64(sum)
}

func mustInt64(v *uint256.Int) int64 {
	if v == nil {
		return 0
	}
	if !v.IsUint64() {
		panic(errors.New("account: magnitude exceeds int64 range"))
	}
	u := v.Uint64()
	if u > 1<<62 {
		panic(errors.New("account: magnitude exceeds int64 range"))
	}
	return int64(u)
}

// Machine is one side's view of a bilateral account (spec §3
// AccountMachine).
type Machine struct {
	EntityID      xlntype.EntityID
	Counterparty  xlntype.EntityID
	Role          Role
	Height        uint64 // counter
	Deltas        map[xlntype.Bytes32]*Delta
	HTLCLocks     map[xlntype.Bytes32]*HTLCLock // keyed by hashlock
	SendCounter   uint64
	RecvCounter   uint64

	lastFrameHash xlntype.Bytes32

	consensusState
	signers
}

// NewMachine constructs a fresh account machine for entityID's view of its
// relation with counterparty, deriving role from AccountKeyOf.
func NewMachine(entityID, counterparty xlntype.EntityID) *Machine {
	_, left, _ := xlntype.AccountKeyOf(entityID, counterparty)
	role := RoleRight
	if entityID == left {
		role = RoleLeft
	}
	return &Machine{
		EntityID:     entityID,
		Counterparty: counterparty,
		Role:         role,
		Deltas:       map[xlntype.Bytes32]*Delta{},
		HTLCLocks:    map[xlntype.Bytes32]*HTLCLock{},
	}
}

// DeltaFor returns (allocating if needed) the Delta for token.
func (m *Machine) DeltaFor(token xlntype.Bytes32) *Delta {
	d, ok := m.Deltas[token]
	if !ok {
		d = NewDelta()
		m.Deltas[token] = d
	}
	return d
}

// Key returns this machine's AccountKey.
func (m *Machine) Key() xlntype.AccountKey {
	key, _, _ := xlntype.AccountKeyOf(m.EntityID, m.Counterparty)
	return key
}
