// Package jurisdiction defines the external J-chain event feed boundary
// of spec.md §4.4/§6: JEvent types and the (j_height, event_hash)
// deduplication the runtime performs before applying an event as an
// entity tx. The jurisdiction chain itself is out of scope (spec §1); only
// the oracle-facing types and dedup logic live here.
package jurisdiction

import (
	"github.com/xln-network/xln/xlntype"
)

// EventKind is a closed tagged sum over known J-event kinds (spec §4.4
// "Jurisdiction oracle").
type EventKind uint8

const (
	KindEntityRegistered EventKind = iota
	KindCollateralUpdated
	KindDisputeOutcome
	KindReserveCredited
)

// Event is one deduplicated jurisdiction-chain event delivered to the
// core as a runtime input (spec §4.4, §6).
type Event struct {
	JHeight   uint64
	EventHash xlntype.Bytes32
	Kind      EventKind

	EntityRegistered  *EntityRegisteredPayload  `rlp:"nil"`
	CollateralUpdated *CollateralUpdatedPayload `rlp:"nil"`
	DisputeOutcome    *DisputeOutcomePayload    `rlp:"nil"`
	ReserveCredited   *ReserveCreditedPayload   `rlp:"nil"`
}

// EntityRegisteredPayload announces a new governed entity and its initial
// board commitment and reserves.
type EntityRegisteredPayload struct {
	EntityID        xlntype.EntityID
	BoardCommitment xlntype.Bytes32
	InitialReserves uint64
}

// CollateralUpdatedPayload reflects an on-chain collateral change for an
// account (spec §4.4: "runtime receives a J-event and applies it as an
// entity tx that updates on_delta/collateral fields").
type CollateralUpdatedPayload struct {
	AccountKey    xlntype.AccountKey
	Token         xlntype.Bytes32
	NewCollateral uint64
}

// DisputeOutcomePayload records the accepted frame hash from an on-chain
// dispute resolution (cooperative-dispute path itself is out of scope,
// spec §9 Open Question; only the outcome's effect on core state is
// modeled).
type DisputeOutcomePayload struct {
	AccountKey        xlntype.AccountKey
	AcceptedFrameHash xlntype.Bytes32
}

// ReserveCreditedPayload credits an entity's reserves and triggers the
// debt-queue vacuum procedure (spec §4.4 step 4).
type ReserveCreditedPayload struct {
	EntityID xlntype.EntityID
	Token    xlntype.Bytes32
	Amount   uint64
}

// Source is the external oracle boundary: anything that can produce a
// stream of J-events for the runtime to dedup and apply (spec §4.4
// "Jurisdiction oracle (external)"). No implementation ships here per
// spec §1's exclusion of the J-chain itself; callers supply their own.
type Source interface {
	PollEvents() ([]Event, error)
}

// Dedup is the (j_height, event_hash) deduplication set spec §9 prescribes
// (superseding the source material's unresolved multi-signer dedup TODO).
type Dedup struct {
	seen map[dedupKey]bool
}

type dedupKey struct {
	height uint64
	hash   xlntype.Bytes32
}

// NewDedup returns an empty dedup set.
func NewDedup() *Dedup { return &Dedup{seen: map[dedupKey]bool{}} }

// Admit reports whether event is new (and records it), or has already been
// seen at this (j_height, event_hash) pair.
func (d *Dedup) Admit(ev Event) bool {
	key := dedupKey{height: ev.JHeight, hash: ev.EventHash}
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

// Filter returns only the events from evs that Admit accepts, in order.
func (d *Dedup) Filter(evs []Event) []Event {
	out := make([]Event, 0, len(evs))
	for _, ev := range evs {
		if d.Admit(ev) {
			out = append(out, ev)
		}
	}
	return out
}
