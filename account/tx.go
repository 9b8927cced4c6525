package account

import (
	"github.com/holiman/uint256"

	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// Kind is a closed tagged sum over known account tx kinds (spec §4.2,
// following the same "exhaustive match, reject unknown kinds" shape as
// entity.Kind).
type Kind uint8

const (
	KindDirectPayment Kind = iota
	KindHTLCLock
	KindHTLCReveal
	KindHTLCResolve
	KindCreditLimitUpdate
)

// Tx is one account-frame transaction, signed and exchanged during the
// propose/ack round. Exactly one payload field is meaningful for a given
// Kind.
type Tx struct {
	Kind   Kind
	Sender Role
	Signature []byte

	DirectPayment      *DirectPaymentPayload      `rlp:"nil"`
	HTLCLock           *HTLCLockPayload           `rlp:"nil"`
	HTLCReveal         *HTLCRevealPayload         `rlp:"nil"`
	HTLCResolve        *HTLCResolvePayload        `rlp:"nil"`
	CreditLimitUpdate  *CreditLimitUpdatePayload  `rlp:"nil"`
}

// DirectPaymentPayload moves Amount of Token off-chain, signed delta only
// (spec §4.2 phase "direct payment"): Sender's off_delta decreases (left)
// or increases (right) by Amount.
type DirectPaymentPayload struct {
	Token  xlntype.Bytes32
	Amount uint64
}

// HTLCLockPayload opens a new hash-time-locked hold (spec §4.3 phase L).
type HTLCLockPayload struct {
	HashLock      xlntype.Bytes32
	Token         xlntype.Bytes32
	Amount        uint64
	TimelockBlock uint64
	OnionLayers   []byte
}

// HTLCRevealPayload discloses the preimage of a locked hashlock (spec §4.3
// phase R).
type HTLCRevealPayload struct {
	Secret []byte
}

// HTLCResolvePayload resolves a locked hashlock by timeout or cancel (spec
// §4.3 phases T/X, "Unified handler").
type HTLCResolvePayload struct {
	HashLock     xlntype.Bytes32
	Kind         ResolveKind
	CurrentBlock uint64
}

// CreditLimitUpdatePayload adjusts the credit limit Sender extends to the
// counterparty (spec §3 Delta.left/right_credit_limit).
type CreditLimitUpdatePayload struct {
	Token    xlntype.Bytes32
	NewLimit uint64
}

// Validate performs decode-time rejection of malformed or unknown-kind
// account transactions (mirrors entity.Tx.Validate, spec §9).
func (t *Tx) Validate() error {
	switch t.Kind {
	case KindDirectPayment:
		if t.DirectPayment == nil {
			return xerr.New(xerr.ConsensusReject, "direct_payment: missing payload")
		}
		if t.DirectPayment.Amount == 0 {
			return xerr.New(xerr.InvariantViolation, "direct_payment: zero amount")
		}
	case KindHTLCLock:
		if t.HTLCLock == nil {
			return xerr.New(xerr.ConsensusReject, "htlc_lock: missing payload")
		}
		if t.HTLCLock.Amount == 0 {
			return xerr.New(xerr.InvariantViolation, "htlc_lock: zero amount")
		}
	case KindHTLCReveal:
		if t.HTLCReveal == nil || len(t.HTLCReveal.Secret) == 0 {
			return xerr.New(xerr.ConsensusReject, "htlc_reveal: missing secret")
		}
	case KindHTLCResolve:
		if t.HTLCResolve == nil {
			return xerr.New(xerr.ConsensusReject, "htlc_resolve: missing payload")
		}
	case KindCreditLimitUpdate:
		if t.CreditLimitUpdate == nil {
			return xerr.New(xerr.ConsensusReject, "credit_limit_update: missing payload")
		}
	default:
		return xerr.New(xerr.ConsensusReject, "unknown account tx kind")
	}
	return nil
}

// Apply executes tx against m in place, enforcing the RCPAN post-image
// check on every mutating path (spec §4.2 guards).
func (m *Machine) Apply(tx *Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	switch tx.Kind {
	case KindDirectPayment:
		return m.applyDirectPayment(tx.Sender, tx.DirectPayment)
	case KindHTLCLock:
		p := tx.HTLCLock
		dir := DirectionLeft
		if tx.Sender == RoleRight {
			dir = DirectionRight
		}
		return m.Lock(&HTLCLock{
			HashLock:      p.HashLock,
			Token:         p.Token,
			Amount:        new(uint256.Int).SetUint64(p.Amount),
			TimelockBlock: p.TimelockBlock,
			Direction:     dir,
			OnionLayers:   p.OnionLayers,
		})
	case KindHTLCReveal:
		_, err := m.Reveal(tx.HTLCReveal.Secret)
		return err
	case KindHTLCResolve:
		p := tx.HTLCResolve
		return m.Resolve(p.HashLock, p.Kind, p.CurrentBlock)
	case KindCreditLimitUpdate:
		return m.applyCreditLimitUpdate(tx.Sender, tx.CreditLimitUpdate)
	default:
		return xerr.New(xerr.ConsensusReject, "unknown account tx kind")
	}
}

func (m *Machine) applyDirectPayment(sender Role, p *DirectPaymentPayload) error {
	delta := m.DeltaFor(p.Token)
	amt := int64(p.Amount)

	// Sign convention matches HTLC settlement (htlc.go Reveal): the
	// sending side's send decreases off_delta when sent by left, increases
	// it when sent by right, so net moves toward that side's bound.
	switch sender {
	case RoleLeft:
		delta.OffDelta -= amt
	case RoleRight:
		delta.OffDelta += amt
	}
	return delta.CheckRCPAN()
}

func (m *Machine) applyCreditLimitUpdate(sender Role, p *CreditLimitUpdatePayload) error {
	delta := m.DeltaFor(p.Token)
	limit := new(uint256.Int).SetUint64(p.NewLimit)

	// Each side only grants credit to the other (spec §3): the left side
	// extends RightCreditLimit room to the right, and vice versa.
	switch sender {
	case RoleLeft:
		delta.RightCreditLimit = limit
	case RoleRight:
		delta.LeftCreditLimit = limit
	}
	return delta.CheckRCPAN()
}
