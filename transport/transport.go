// Package transport defines the opaque input/output channel boundary of
// spec.md §6. Wire delivery (network transport, peer discovery) is
// explicitly out of scope (spec §1 Non-goals); only the interface shape
// the runtime dispatches against lives here, so any concrete transport
// can be plugged in without touching the deterministic core.
package transport

import "github.com/xln-network/xln/xlntype"

// EntityInput is one input routed to an entity replica for a tick (spec
// §5 "external inputs arrive ... the runtime routes them to target entity
// replicas"): a signed tx, a received proposal, a precommit, or a J-event
// application, opaque at this layer to the encoding used on the wire.
type EntityInput struct {
	EntityID xlntype.EntityID
	Payload  []byte // codec-encoded entity.Tx, Frame, or Precommit
}

// AccountInput is one input routed to a bilateral account machine: a
// proposed frame, an ack, or a queued tx.
type AccountInput struct {
	AccountKey xlntype.AccountKey
	Payload    []byte // codec-encoded account.Tx, Frame, or Ack
}

// Output is a message the runtime emits for delivery to some external
// peer after a tick (spec §5 "outputs are collected and returned for the
// next tick").
type Output struct {
	Destination xlntype.EntityID
	Payload     []byte
}

// Transport is the channel boundary the runtime drains inputs from and
// dispatches outputs to. No implementation ships in this module; spec §1
// excludes wire delivery, so callers supply their own (in-process queue,
// TCP, message broker) behind this interface.
type Transport interface {
	DrainEntityInputs() ([]EntityInput, error)
	DrainAccountInputs() ([]AccountInput, error)
	Dispatch(outputs []Output) error
}
