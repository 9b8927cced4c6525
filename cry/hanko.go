package cry

import (
	"github.com/pkg/errors"

	"github.com/xln-network/xln/xlntype"
)

// BoardMember is one signer entry of an entity's board (spec §3).
type BoardMember struct {
	Signer xlntype.Address
	Shares uint64
	// EOA marks an externally-owned-account signer (as opposed to a
	// delegated/contract signer); quorum safety (spec §8 property 3)
	// requires at least one EOA signer in every hanko.
	EOA bool
}

// Hanko is an aggregate signature set proving that board shares summing to
// at least the entity's threshold signed a given frame hash (spec §3).
type Hanko struct {
	FrameHash xlntype.Bytes32
	Sigs      [][]byte // one 65-byte [R||S||V] signature per contributing signer
}

// Verify checks that the hanko's signatures recover to distinct board
// members whose shares sum to at least threshold, and that at least one
// recovered signer is an EOA (spec §3 Hanko invariant, §8 property 3).
func (h *Hanko) Verify(board []BoardMember, threshold uint64) error {
	byAddr := make(map[xlntype.Address]BoardMember, len(board))
	for _, m := range board {
		byAddr[m.Signer] = m
	}

	seen := make(map[xlntype.Address]bool, len(h.Sigs))
	var sum uint64
	var hasEOA bool

	for _, sig := range h.Sigs {
		addr, err := RecoverAddress(h.FrameHash.Bytes(), sig)
		if err != nil {
			return errors.Wrap(err, "hanko: recover signer")
		}
		member, ok := byAddr[addr]
		if !ok {
			return errors.Errorf("hanko: signer %s not on board", addr)
		}
		if seen[addr] {
			continue // duplicate precommit from same signer ignored, first counts
		}
		seen[addr] = true
		sum += member.Shares
		if member.EOA {
			hasEOA = true
		}
	}

	if sum < threshold {
		return errors.Errorf("hanko: shares %d below threshold %d", sum, threshold)
	}
	if !hasEOA {
		return errors.New("hanko: no EOA signer present")
	}
	return nil
}
