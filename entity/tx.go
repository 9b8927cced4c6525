package entity

import (
	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// Kind is a closed tagged sum over known entity tx kinds (spec §9:
// "Re-express as a closed tagged sum over known tx kinds; dispatch by
// exhaustive match. Unknown kinds rejected at decode time.").
type Kind uint8

const (
	KindChat Kind = iota
	KindAccountOpen
	KindHTLCPayment
	KindCreditUpdate
	KindJEventApply
	KindDebtVacuum
)

// Tx is one mempool/frame transaction. Exactly one of the Kind-specific
// payload fields is meaningful for a given Kind; decode-time validation
// (Tx.Validate) rejects any Kind value outside the enumerated set.
type Tx struct {
	Kind      Kind
	From      xlntype.Address
	Nonce     uint64
	Signature []byte

	Chat          *ChatPayload          `rlp:"nil"`
	AccountOpen   *AccountOpenPayload   `rlp:"nil"`
	HTLCPayment   *HTLCPaymentPayload   `rlp:"nil"`
	CreditUpdate  *CreditUpdatePayload  `rlp:"nil"`
	JEventApply   *JEventApplyPayload   `rlp:"nil"`
	DebtVacuum    *DebtVacuumPayload    `rlp:"nil"`
}

// ChatPayload is the trivial no-op tx used by end-to-end scenario S1.
type ChatPayload struct {
	Data string
}

// AccountOpenPayload requests opening a bilateral account with Counterparty.
type AccountOpenPayload struct {
	Counterparty xlntype.EntityID
}

// HTLCPaymentPayload instructs this entity to originate an HTLC payment
// (spec §4.3 phase L) along a precomputed route.
type HTLCPaymentPayload struct {
	DestinationEntity xlntype.EntityID
	Token             xlntype.Bytes32
	Amount            uint64
	HashLock          xlntype.Bytes32
	TimelockBlock     uint64
	OnionForFirstHop  []byte
}

// CreditUpdatePayload adjusts a credit limit extended to a counterparty on
// an existing account (part of spec §3 Delta.left/right_credit_limit).
type CreditUpdatePayload struct {
	Account      xlntype.AccountKey
	Token        xlntype.Bytes32
	NewLimit     uint64
	ExtendingLeft bool
}

// JEventApplyPayload applies a deduplicated jurisdiction event to this
// entity's domain state (spec §4.4, §6).
type JEventApplyPayload struct {
	JHeight   uint64
	EventHash xlntype.Bytes32
	Kind      uint8 // mirrors jurisdiction.EventKind, avoids an import cycle
	Token     xlntype.Bytes32
	Amount    uint64
	Account   xlntype.AccountKey
}

// DebtVacuumPayload triggers the liquidity-trap vacuum procedure for one
// token after a reserve credit (spec §4.4 step 4).
type DebtVacuumPayload struct {
	Token xlntype.Bytes32
}

// Validate performs decode-time rejection of malformed or unknown-kind
// transactions, before the tx ever reaches the mempool (spec §9).
func (t *Tx) Validate() error {
	switch t.Kind {
	case KindChat:
		if t.Chat == nil {
			return xerr.New(xerr.ConsensusReject, "chat: missing payload")
		}
	case KindAccountOpen:
		if t.AccountOpen == nil {
			return xerr.New(xerr.ConsensusReject, "account_open: missing payload")
		}
	case KindHTLCPayment:
		if t.HTLCPayment == nil {
			return xerr.New(xerr.ConsensusReject, "htlc_payment: missing payload")
		}
		if t.HTLCPayment.Amount == 0 {
			return xerr.New(xerr.InvariantViolation, "htlc_payment: zero amount")
		}
	case KindCreditUpdate:
		if t.CreditUpdate == nil {
			return xerr.New(xerr.ConsensusReject, "credit_update: missing payload")
		}
	case KindJEventApply:
		if t.JEventApply == nil {
			return xerr.New(xerr.ConsensusReject, "j_event_apply: missing payload")
		}
	case KindDebtVacuum:
		if t.DebtVacuum == nil {
			return xerr.New(xerr.ConsensusReject, "debt_vacuum: missing payload")
		}
	default:
		return xerr.New(xerr.ConsensusReject, "unknown tx kind")
	}
	return nil
}

// sortKey is the stable tuple (nonce, signer, kind, insertion index) spec
// §4.1 requires for within-frame tx ordering.
type sortKey struct {
	nonce     uint64
	signer    xlntype.Address
	kind      Kind
	insertion int
}

func less(a, b sortKey) bool {
	if a.nonce != b.nonce {
		return a.nonce < b.nonce
	}
	if a.signer != b.signer {
		return lessAddress(a.signer, b.signer)
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.insertion < b.insertion
}
