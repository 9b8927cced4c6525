package account

import (
	"sort"

	"github.com/xln-network/xln/codec"
	"github.com/xln-network/xln/xlntype"
)

// Frame is one committed bilateral account state transition (spec §3
// AccountFrame). Counter strictly increases by 1 per committed frame and
// the chain links by PrevFrameHash, mirroring the entity Frame's
// hash-chained design (entity/frame.go) at 2-party scale.
type Frame struct {
	Counter       uint64
	Timestamp     uint64
	Txs           []Tx
	PrevFrameHash xlntype.Bytes32
	PostDeltaRoot xlntype.Bytes32
	ProposerSig   []byte // over Hash(), set by Propose, checked by ReceiveProposal
}

type frameHeaderRLP struct {
	Counter       uint64
	Timestamp     uint64
	PrevFrameHash xlntype.Bytes32
	PostDeltaRoot xlntype.Bytes32
}

// Hash computes frame_hash = keccak(rlp(header || txs)), the value both
// sides sign during the propose/ack round (spec §4.2). Txs are hashed in
// frame order, which is the order they were queued; they are not sorted.
func (f *Frame) Hash() xlntype.Bytes32 {
	header := frameHeaderRLP{
		Counter:       f.Counter,
		Timestamp:     f.Timestamp,
		PrevFrameHash: f.PrevFrameHash,
		PostDeltaRoot: f.PostDeltaRoot,
	}
	headerBytes := codec.MustEncode(&header)

	txLeaves := make([][]byte, len(f.Txs))
	for i, tx := range f.Txs {
		txLeaves[i] = codec.MustEncode(&tx)
	}
	txsBytes := codec.MustEncode(txLeaves)

	return xlntype.Keccak256(headerBytes, txsBytes)
}

// DeltaRoot computes a deterministic root over the machine's current
// per-token deltas (spec §6): sorted by token, RLP-encoded, hashed. Used
// as PostDeltaRoot so both sides can verify they reached the same
// post-image without transmitting the whole delta map.
func DeltaRoot(deltas map[xlntype.Bytes32]*Delta) xlntype.Bytes32 {
	tokens := make([]xlntype.Bytes32, 0, len(deltas))
	for t := range deltas {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return lessBytes32(tokens[i], tokens[j])
	})

	leaves := make([][]byte, len(tokens))
	for i, t := range tokens {
		d := deltas[t]
		leaves[i] = codec.MustEncode(&struct {
			Token            xlntype.Bytes32
			OnDelta          int64
			OffDelta         int64
			Collateral       []byte
			LeftCreditLimit  []byte
			RightCreditLimit []byte
		}{
			Token:            t,
			OnDelta:          d.OnDelta,
			OffDelta:         d.OffDelta,
			Collateral:       d.Collateral.Bytes(),
			LeftCreditLimit:  d.LeftCreditLimit.Bytes(),
			RightCreditLimit: d.RightCreditLimit.Bytes(),
		})
	}
	return xlntype.Keccak256(codec.MustEncode(leaves))
}

func lessBytes32(a, b xlntype.Bytes32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
