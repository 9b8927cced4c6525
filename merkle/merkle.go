// Package merkle computes binary Merkle roots over sorted leaves, the
// commitment scheme used for snapshot integrity checks (spec §4.6) and for
// roots embedded in frame headers (spec §3, §6). It follows the teacher's
// pattern of a small, purpose-built root type per commitment
// (block/backers_root.go, block/bss_root.go) rather than a general trie —
// the core only ever needs static, one-shot roots over a leaf set, never
// incremental proofs against mutable storage (that belongs to the J-chain,
// out of scope per spec §1).
package merkle

import (
	"bytes"
	"sort"

	"github.com/xln-network/xln/xlntype"
)

// Root computes the binary Merkle root of leaves after sorting them, so
// that two callers presenting the same set in different orders (e.g. a map
// iterated without key-sorting) still agree on the root (spec §5
// determinism rules: "hash tables must iterate in sorted key order").
func Root(leaves [][]byte) xlntype.Bytes32 {
	if len(leaves) == 0 {
		return xlntype.Bytes32{}
	}

	sorted := make([][]byte, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	level := make([]xlntype.Bytes32, len(sorted))
	for i, l := range sorted {
		level[i] = xlntype.Keccak256(l)
	}

	for len(level) > 1 {
		next := make([]xlntype.Bytes32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, xlntype.Keccak256(level[i].Bytes(), level[i+1].Bytes()))
			} else {
				// odd node is paired with itself: hash(node || node)
				next = append(next, xlntype.Keccak256(level[i].Bytes(), level[i].Bytes()))
			}
		}
		level = next
	}
	return level[0]
}

// RootOfHashes is Root specialized for already-hashed 32-byte leaves (used
// for the snapshot root: merkle(sort(replica_hashes)), spec §4.6).
func RootOfHashes(hashes []xlntype.Bytes32) xlntype.Bytes32 {
	leaves := make([][]byte, len(hashes))
	for i, h := range hashes {
		leaves[i] = h.Bytes()
	}
	return rootOfSortedHashLeaves(leaves)
}

// rootOfSortedHashLeaves hashes pre-hashed leaves directly at the base
// level (no re-hashing the already-32-byte value), matching spec §4.6's
// "Merkle root = merkle(sort(replica_hashes))" wording precisely.
func rootOfSortedHashLeaves(leaves [][]byte) xlntype.Bytes32 {
	if len(leaves) == 0 {
		return xlntype.Bytes32{}
	}
	sorted := make([][]byte, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	level := make([]xlntype.Bytes32, len(sorted))
	for i, l := range sorted {
		level[i] = xlntype.BytesToBytes32(l)
	}
	for len(level) > 1 {
		next := make([]xlntype.Bytes32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, xlntype.Keccak256(level[i].Bytes(), level[i+1].Bytes()))
			} else {
				next = append(next, xlntype.Keccak256(level[i].Bytes(), level[i].Bytes()))
			}
		}
		level = next
	}
	return level[0]
}
