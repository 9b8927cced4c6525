package entity

import (
	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// ApplyTxs applies sorted txs to state in order, mutating state in place.
// It is a pure function of (state, txs): no wall-clock reads, no
// randomness (spec §5 non-determinism quarantine). On the first failing
// tx it returns an error and leaves state exactly as it was for every tx
// applied before the failure — callers needing atomicity across the
// whole batch should apply to a Clone() first, as Replica does.
func ApplyTxs(state *EntityState, txs []Tx) error {
	for _, tx := range txs {
		if err := applyOne(state, tx); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(state *EntityState, tx Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	switch tx.Kind {
	case KindChat:
		// no state effect (the signer nonce was already advanced when
		// Replica.AddTx admitted the tx); message content is carried by
		// the frame itself for any observer to read back.
		return nil

	case KindAccountOpen:
		p := tx.AccountOpen
		if p.Counterparty == tx.From {
			return xerr.New(xerr.InvariantViolation, "account open between same party")
		}
		key, _, _ := xlntype.AccountKeyOf(tx.From, p.Counterparty)
		state.Domain.AccountsRoot = xlntype.Keccak256(state.Domain.AccountsRoot.Bytes(), key.Bytes())
		return nil

	case KindHTLCPayment:
		// The actual lock is enacted on the account layer (spec §4.3);
		// the entity-level tx only records intent to originate and is a
		// no-op on entity state. The
		// account-layer htlc_lock tx is applied by the account package,
		// driven by the runtime after this entity tx commits.
		return nil

	case KindCreditUpdate:
		// Credit limits live on the account's Delta, not entity domain
		// state; entity-level validation (signer owns one side of the
		// account) is enforced by the runtime wiring before dispatch.
		return nil

	case KindJEventApply:
		p := tx.JEventApply
		if state.Domain.Reserves == nil {
			state.Domain.Reserves = map[xlntype.Bytes32]uint64{}
		}
		state.Domain.Reserves[p.Token] += p.Amount
		return nil

	case KindDebtVacuum:
		// Vacuum bookkeeping lives in the entity's Debt queue (debt.go),
		// mutated by the runtime's enforce-debts procedure directly; this
		// tx kind exists so the vacuum step is itself represented and
		// hashed as a frame-level event (spec §8 property 6 auditability).
		return nil

	default:
		return xerr.New(xerr.ConsensusReject, "unknown tx kind")
	}
}
