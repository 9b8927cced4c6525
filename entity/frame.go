package entity

import (
	"sort"

	"github.com/xln-network/xln/codec"
	"github.com/xln-network/xln/xlntype"
)

// Frame is one committed entity state transition (spec §3 EntityFrame).
// It is immutable once committed and chained by hash.
type Frame struct {
	Height         uint64
	Timestamp      uint64 // input parameter only, never read from a clock (spec §4.1)
	Txs            []Tx   // canonically sorted
	PrevStateRoot  xlntype.Bytes32
	PostStateRoot  xlntype.Bytes32
	ProposerID     xlntype.Address
}

type frameHeaderRLP struct {
	Height        uint64
	Timestamp     uint64
	PrevStateRoot xlntype.Bytes32
	PostStateRoot xlntype.Bytes32
	ProposerID    xlntype.Address
}

// Hash computes frame_hash = keccak(rlp(header || sorted_txs)) (spec §6).
func (f *Frame) Hash() xlntype.Bytes32 {
	header := frameHeaderRLP{
		Height:        f.Height,
		Timestamp:     f.Timestamp,
		PrevStateRoot: f.PrevStateRoot,
		PostStateRoot: f.PostStateRoot,
		ProposerID:    f.ProposerID,
	}
	headerBytes := codec.MustEncode(&header)

	txLeaves := make([][]byte, len(f.Txs))
	for i, tx := range f.Txs {
		txLeaves[i] = txEncodingBytes(tx)
	}
	txsBytes := codec.MustEncode(txLeaves)

	return xlntype.Keccak256(headerBytes, txsBytes)
}

// txEncodingBytes produces a stable byte encoding of one tx for hashing.
// Payload pointers are RLP-nil-safe; codec.Encode handles the struct
// directly via reflection so this just centralizes the call site.
func txEncodingBytes(tx Tx) []byte {
	return codec.MustEncode(&tx)
}

// SortTxs orders txs by the stable tuple (nonce, signer, kind, insertion
// index) required by spec §4.1, and returns the sorted copy.
func SortTxs(txs []Tx) []Tx {
	type indexed struct {
		tx  Tx
		key sortKey
	}
	idx := make([]indexed, len(txs))
	for i, tx := range txs {
		idx[i] = indexed{tx: tx, key: sortKey{nonce: tx.Nonce, signer: tx.From, kind: tx.Kind, insertion: i}}
	}
	sort.SliceStable(idx, func(i, j int) bool { return less(idx[i].key, idx[j].key) })
	out := make([]Tx, len(idx))
	for i, e := range idx {
		out[i] = e.tx
	}
	return out
}
