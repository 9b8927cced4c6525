// Package htlc builds the route side of the multi-hop onion-routed payment
// pipeline of spec.md §4.3: per-hop terms with fee accumulation and
// timelock decrement, and the nested per-hop envelope. Locking, revealing
// and resolving (success/timeout/cancel) are account.Machine's
// Lock/Reveal/Resolve; this package does not call them.
package htlc

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/routing"
	"github.com/xln-network/xln/xlntype"
)

// OnionVersion pins the wire layout of OnionLayer (spec's original_source
// supplement: a protocol version byte keys decryption rules per layer).
const OnionVersion = 1

// OnionLayer is the decrypted content of one hop's onion envelope (spec
// §4.3 phase L step 1: "next hop id, forwarded amount (after fees),
// forwarded timelock (after decrement), inner onion").
type OnionLayer struct {
	Version        uint8
	NextHop        xlntype.EntityID
	ForwardAmount  uint64
	TimelockBlock  uint64
	Final          bool // true at the last hop: NextHop/ForwardAmount are the payee's terms
	InnerOnion     []byte
}

// HopPlan is one hop of a precomputed route, carrying the terms that hop
// will see once its envelope is decrypted.
type HopPlan struct {
	Entity        xlntype.EntityID
	OnionKey      [32]byte // recipient's published X25519 public key
	ForwardAmount uint64
	TimelockBlock uint64
	Final         bool
}

// safetyDeltaBlocks is the per-hop timelock decrement (spec §4.3,
// exercised by scenario S4's "timelock safety Δ=10 blocks").
const safetyDeltaBlocks = 10

// BuildHopPlans converts a routing.Route plus the per-hop fee schedules
// and onion keys into forward-amount/timelock terms for every hop,
// computing backwards from the destination exactly as the pathfinder's
// capacity check does (spec §4.3/§4.5): the final hop forwards the
// payment amount at now+baseTimelock; each earlier hop forwards
// amount+fee at a timelock safetyDeltaBlocks higher.
func BuildHopPlans(route routing.Route, hopKeys map[xlntype.EntityID][32]byte, hopFees map[xlntype.EntityID]routing.FeeSchedule, finalAmount, baseTimelock uint64) []HopPlan {
	n := len(route.Hops)
	plans := make([]HopPlan, n)

	amount := finalAmount
	timelock := baseTimelock
	plans[n-1] = HopPlan{Entity: route.Hops[n-1], OnionKey: hopKeys[route.Hops[n-1]], ForwardAmount: amount, TimelockBlock: timelock, Final: true}

	for i := n - 2; i >= 0; i-- {
		fee := hopFees[route.Hops[i]].Fee(amount)
		amount += fee
		timelock += safetyDeltaBlocks
		plans[i] = HopPlan{Entity: route.Hops[i], OnionKey: hopKeys[route.Hops[i]], ForwardAmount: amount, TimelockBlock: timelock, Final: false}
	}
	return plans
}

// BuildOnion seals the nested envelope for every hop of plans, innermost
// (destination) first, so that OnionForFirstHop can be handed to the
// first hop in the route (spec §4.3 phase L step 1).
func BuildOnion(plans []HopPlan) ([]byte, error) {
	var inner []byte
	for i := len(plans) - 1; i >= 0; i-- {
		p := plans[i]
		var nextHop xlntype.EntityID
		if i+1 < len(plans) {
			nextHop = plans[i+1].Entity
		}
		layer := OnionLayer{
			Version:       OnionVersion,
			NextHop:       nextHop,
			ForwardAmount: p.ForwardAmount,
			TimelockBlock: p.TimelockBlock,
			Final:         p.Final,
			InnerOnion:    inner,
		}
		plaintext, err := rlp.EncodeToBytes(&layer)
		if err != nil {
			return nil, err
		}
		sealed, err := cry.SealOnionLayer(p.OnionKey, plaintext)
		if err != nil {
			return nil, err
		}
		inner = sealed
	}
	return inner, nil
}

// OpenLayer decrypts one hop's onion envelope with its static private key.
func OpenLayer(priv [32]byte, sealed []byte) (*OnionLayer, error) {
	plaintext, err := cry.OpenOnionLayer(priv, sealed)
	if err != nil {
		return nil, err
	}
	var layer OnionLayer
	if err := rlp.DecodeBytes(plaintext, &layer); err != nil {
		return nil, err
	}
	return &layer, nil
}
