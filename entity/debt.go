package entity

import "github.com/xln-network/xln/xlntype"

// DebtEntry is one FIFO entry: a creditor owed amount, recorded at
// insertion-order timestamp ts (spec §3 Debt queue, §4.4).
type DebtEntry struct {
	Creditor  xlntype.EntityID
	Amount    uint64
	Timestamp uint64
}

// DebtQueue is the per-token FIFO liquidity trap (spec §4.4). Debts is
// keyed by token; each slice is maintained in strict insertion order.
type DebtQueue struct {
	Debts map[xlntype.Bytes32][]DebtEntry
}

// Frozen reports whether outgoing sends for token must be refused because
// the queue is non-empty (spec §4.4 step 3: "the entity may receive but
// may not send until its queue clears").
func (q *DebtQueue) Frozen(token xlntype.Bytes32) bool {
	return len(q.Debts[token]) > 0
}

// Append records a new shortfall at the tail of the FIFO (spec §4.4 step 2).
func (q *DebtQueue) Append(token xlntype.Bytes32, creditor xlntype.EntityID, amount, timestamp uint64) {
	if q.Debts == nil {
		q.Debts = map[xlntype.Bytes32][]DebtEntry{}
	}
	q.Debts[token] = append(q.Debts[token], DebtEntry{Creditor: creditor, Amount: amount, Timestamp: timestamp})
}

// Vacuum applies an incoming credit of `incoming` for token fully to the
// head of the queue, then the next, until either the queue empties or the
// incoming amount is exhausted (spec §4.4 step 4). It returns the
// per-creditor amounts actually paid, in FIFO order, and leaves a partially
// satisfied head entry in place with its remaining amount (never reordered,
// per spec §8 property 6: "repay debt in non-decreasing insertion order").
func (q *DebtQueue) Vacuum(token xlntype.Bytes32, incoming uint64) []DebtEntry {
	queue := q.Debts[token]
	var paid []DebtEntry

	for incoming > 0 && len(queue) > 0 {
		head := &queue[0]
		if incoming >= head.Amount {
			paid = append(paid, DebtEntry{Creditor: head.Creditor, Amount: head.Amount, Timestamp: head.Timestamp})
			incoming -= head.Amount
			queue = queue[1:]
			continue
		}
		paid = append(paid, DebtEntry{Creditor: head.Creditor, Amount: incoming, Timestamp: head.Timestamp})
		head.Amount -= incoming
		incoming = 0
	}

	if q.Debts == nil {
		q.Debts = map[xlntype.Bytes32][]DebtEntry{}
	}
	q.Debts[token] = queue
	return paid
}
