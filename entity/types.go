// Package entity implements the BFT state machine that governs one
// organization (spec.md §4.1): board-weighted quorum over a sequence of
// frames. Grounded on the teacher's bft engine (atomic-cached derived
// state, bounded LRU caches) and block builder/header idiom
// (immutable body + lazily-computed, cached hash).
package entity

import (
	"sort"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/merkle"
	"github.com/xln-network/xln/xlntype"
)

// Signer is a cryptographic identity participating on one or more boards.
type Signer struct {
	Address xlntype.Address
	EOA     bool
}

// BoardSeat is one weighted entry of an entity's board (spec §3).
type BoardSeat struct {
	Signer xlntype.Address
	Shares uint64
	EOA    bool
}

func (s BoardSeat) toBoardMember() cry.BoardMember {
	return cry.BoardMember{Signer: s.Signer, Shares: s.Shares, EOA: s.EOA}
}

// Board is the ordered list of seats plus the quorum threshold.
type Board struct {
	Seats     []BoardSeat
	Threshold uint64
}

// ProposerAt returns the signer responsible for proposing at the given
// height: board[height mod |board|] (spec §4.1 "Roles").
func (b Board) ProposerAt(height uint64) xlntype.Address {
	if len(b.Seats) == 0 {
		return xlntype.Address{}
	}
	return b.Seats[height%uint64(len(b.Seats))].Signer
}

// IsValidator reports whether addr sits on the board but is not the
// proposer at height.
func (b Board) IsValidator(addr xlntype.Address, height uint64) bool {
	proposer := b.ProposerAt(height)
	if addr == proposer {
		return false
	}
	for _, s := range b.Seats {
		if s.Signer == addr {
			return true
		}
	}
	return false
}

func (b Board) seat(addr xlntype.Address) (BoardSeat, bool) {
	for _, s := range b.Seats {
		if s.Signer == addr {
			return s, true
		}
	}
	return BoardSeat{}, false
}

func (b Board) boardMembers() []cry.BoardMember {
	out := make([]cry.BoardMember, len(b.Seats))
	for i, s := range b.Seats {
		out[i] = s.toBoardMember()
	}
	return out
}

// SingleSigner reports whether this board has exactly one seat — the
// single-signer fast path of spec §4.1.
func (b Board) SingleSigner() bool { return len(b.Seats) == 1 }

// DomainState carries the entity's non-consensus application state:
// reserves, the accounts root, gossip hints and pending J-events
// (spec §3 EntityState.domain_state).
type DomainState struct {
	Reserves     map[xlntype.Bytes32]uint64 // token -> reserve amount
	AccountsRoot xlntype.Bytes32
	PendingJ     []xlntype.Bytes32 // j-event hashes awaiting application
}

// cloneDomainState deep-copies domain state for the apply-then-rollback
// discipline used by the proposer/validator recompute path.
func cloneDomainState(d DomainState) DomainState {
	out := DomainState{AccountsRoot: d.AccountsRoot}
	if d.Reserves != nil {
		out.Reserves = make(map[xlntype.Bytes32]uint64, len(d.Reserves))
		for k, v := range d.Reserves {
			out.Reserves[k] = v
		}
	}
	out.PendingJ = append([]xlntype.Bytes32(nil), d.PendingJ...)
	return out
}

// EntityState is the full consensus-relevant state of one entity replica
// (spec §3). It is always a pure function of (genesis, applied txs).
type EntityState struct {
	Height       uint64
	Board        Board
	SignerNonces map[xlntype.Address]uint64
	Domain       DomainState
}

// Clone returns a deep copy suitable for speculative apply during
// propose/validate, so a rejected frame never mutates committed state.
func (s *EntityState) Clone() *EntityState {
	out := &EntityState{
		Height: s.Height,
		Board:  s.Board, // Board.Seats slice is immutable by convention once built
		Domain: cloneDomainState(s.Domain),
	}
	out.SignerNonces = make(map[xlntype.Address]uint64, len(s.SignerNonces))
	for k, v := range s.SignerNonces {
		out.SignerNonces[k] = v
	}
	return out
}

// sortedNonceKeys returns signer keys in deterministic ascending order,
// honoring spec §4.1's "hash tables must iterate in sorted key order".
func (s *EntityState) sortedNonceKeys() []xlntype.Address {
	keys := make([]xlntype.Address, 0, len(s.SignerNonces))
	for k := range s.SignerNonces {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessAddress(keys[i], keys[j]) })
	return keys
}

func lessAddress(a, b xlntype.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// StateRoot commits the consensus-relevant state to a single hash, used as
// EntityFrame.PostStateRoot (spec §3 "post-state root deterministic
// function of applied txs").
func (s *EntityState) StateRoot() xlntype.Bytes32 {
	leaves := make([][]byte, 0, len(s.SignerNonces)+len(s.Domain.Reserves)+2)
	for _, addr := range s.sortedNonceKeys() {
		leaves = append(leaves, xlntype.Keccak256(addr.Bytes(), uint64Bytes(s.SignerNonces[addr])).Bytes())
	}
	tokens := make([]xlntype.Bytes32, 0, len(s.Domain.Reserves))
	for t := range s.Domain.Reserves {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return lessBytes32(tokens[i], tokens[j]) })
	for _, t := range tokens {
		leaves = append(leaves, xlntype.Keccak256(t.Bytes(), uint64Bytes(s.Domain.Reserves[t])).Bytes())
	}
	leaves = append(leaves, s.Domain.AccountsRoot.Bytes())
	return merkle.Root(leaves)
}

func lessBytes32(a, b xlntype.Bytes32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
