// Package persist implements dual persistence (spec.md §4.6): canonical
// RLP snapshots with a Merkle integrity root and a human-readable debug
// sibling, plus a framed, crc'd, fsynced write-ahead log for replay.
// Grounded on the teacher's block/header.go immutable-artifact pattern and
// bft/engine.go's use of bounded LRU caches for recently-seen state.
package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/xln-network/xln/codec"
	"github.com/xln-network/xln/merkle"
	"github.com/xln-network/xln/xerr"
	"github.com/xln-network/xln/xlntype"
)

// ReplicaSnapshot is one entity replica's committed state as of the
// snapshot's frame, reduced to its state root plus enough to reconstruct
// the replica's identity for the debug sibling.
type ReplicaSnapshot struct {
	EntityID  xlntype.EntityID
	Height    uint64
	StateRoot xlntype.Bytes32
}

// Snapshot is the full server environment snapshot of spec §4.6: canonical
// RLP of every replica's committed state, with a Merkle root over the
// sorted replica hashes for fast integrity verification on recovery.
type Snapshot struct {
	FrameID   uint64
	Replicas  []ReplicaSnapshot
	MerkleRoot xlntype.Bytes32
}

// BuildSnapshot computes the Merkle root over replicas (spec §4.6:
// "Merkle root = merkle(sort(replica_hashes))") and returns the completed
// snapshot ready to encode.
func BuildSnapshot(frameID uint64, replicas []ReplicaSnapshot) *Snapshot {
	sorted := make([]ReplicaSnapshot, len(replicas))
	copy(sorted, replicas)
	sort.Slice(sorted, func(i, j int) bool {
		return lessBytes32(sorted[i].EntityID, sorted[j].EntityID)
	})

	hashes := make([]xlntype.Bytes32, len(sorted))
	for i, r := range sorted {
		hashes[i] = xlntype.Keccak256(r.EntityID.Bytes(), r.StateRoot.Bytes())
	}

	return &Snapshot{
		FrameID:    frameID,
		Replicas:   sorted,
		MerkleRoot: merkle.RootOfHashes(hashes),
	}
}

// Verify recomputes the Merkle root from s.Replicas and checks it against
// s.MerkleRoot, failing with StateCorruption on mismatch (spec §4.6
// recovery step 2: "fail fatally on mismatch").
func (s *Snapshot) Verify() error {
	hashes := make([]xlntype.Bytes32, len(s.Replicas))
	for i, r := range s.Replicas {
		hashes[i] = xlntype.Keccak256(r.EntityID.Bytes(), r.StateRoot.Bytes())
	}
	if merkle.RootOfHashes(hashes) != s.MerkleRoot {
		return xerr.New(xerr.StateCorruption, "snapshot merkle root mismatch")
	}
	return nil
}

// snapshotPath returns snapshots/snapshot-<frame_id>.rlp under dir.
func snapshotPath(dir string, frameID uint64) string {
	return filepath.Join(dir, fmt.Sprintf("snapshot-%d.rlp", frameID))
}

// debugPath returns snapshots/snapshot-<frame_id>.debug.txt under dir.
func debugPath(dir string, frameID uint64) string {
	return filepath.Join(dir, fmt.Sprintf("snapshot-%d.debug.txt", frameID))
}

// Save writes the canonical binary snapshot plus its human-readable debug
// sibling to dir (spec §4.6, §6 directory layout). The debug sibling is
// never read back; it exists purely for operator inspection.
func (s *Snapshot) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "persist: create snapshot dir")
	}

	encoded := codec.MustEncode(s)
	if err := os.WriteFile(snapshotPath(dir, s.FrameID), encoded, 0o644); err != nil {
		return errors.Wrap(err, "persist: write snapshot")
	}

	debug := s.renderDebug()
	if err := os.WriteFile(debugPath(dir, s.FrameID), []byte(debug), 0o644); err != nil {
		return errors.Wrap(err, "persist: write snapshot debug sibling")
	}
	return nil
}

// LoadSnapshot decodes the snapshot for frameID under dir and verifies its
// Merkle root (spec §4.6 recovery steps 1-2); LatestSnapshotFrameID finds
// the newest frameID.
func LoadSnapshot(dir string, frameID uint64) (*Snapshot, error) {
	raw, err := os.ReadFile(snapshotPath(dir, frameID))
	if err != nil {
		return nil, errors.Wrap(err, "persist: read snapshot")
	}
	var s Snapshot
	if err := codec.Decode(raw, &s); err != nil {
		return nil, errors.Wrap(err, "persist: decode snapshot")
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestSnapshotFrameID scans dir for the highest-numbered snapshot file,
// returning ok=false if none exist.
func LatestSnapshotFrameID(dir string) (frameID uint64, ok bool, err error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(readErr, "persist: list snapshot dir")
	}
	for _, e := range entries {
		var n uint64
		if _, scanErr := fmt.Sscanf(e.Name(), "snapshot-%d.rlp", &n); scanErr == nil {
			if !ok || n > frameID {
				frameID, ok = n, true
			}
		}
	}
	return frameID, ok, nil
}

func (s *Snapshot) renderDebug() string {
	out := fmt.Sprintf("snapshot frame_id=%d merkle_root=%s replicas=%d\n", s.FrameID, s.MerkleRoot, len(s.Replicas))
	for _, r := range s.Replicas {
		out += fmt.Sprintf("  entity=%s height=%d state_root=%s\n", r.EntityID, r.Height, r.StateRoot)
	}
	return out
}

func lessBytes32(a, b xlntype.Bytes32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
