package entity

import "github.com/xln-network/xln/xerr"

// Mempool holds transient, unconfirmed transactions in arrival order
// (spec §3: "mempool txs are transient until included or dropped").
type Mempool struct {
	txs []Tx
}

// Add validates and appends a tx: signature must verify (checked by the
// caller before Add, since verification needs the frame-hash-free tx
// body bytes) and the nonce must be exactly signerNonce+1 (spec §4.1
// Idle state table, first row).
func (m *Mempool) Add(tx Tx, signerNonce uint64) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if tx.Nonce != signerNonce+1 {
		return xerr.New(xerr.ConsensusReject, "nonce out of order")
	}
	m.txs = append(m.txs, tx)
	return nil
}

// Len reports the number of pending txs.
func (m *Mempool) Len() int { return len(m.txs) }

// Snapshot returns a copy of the pending txs, sorted per spec §4.1.
func (m *Mempool) Snapshot() []Tx {
	return SortTxs(append([]Tx(nil), m.txs...))
}

// Remove drops txs that were included in a committed frame, identified by
// (from, nonce) pairs.
func (m *Mempool) Remove(included map[txKey]bool) {
	kept := m.txs[:0]
	for _, tx := range m.txs {
		if !included[txKey{from: tx.From, nonce: tx.Nonce}] {
			kept = append(kept, tx)
		}
	}
	m.txs = kept
}

type txKey struct {
	from  [20]byte
	nonce uint64
}
