package persist

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DebugMirror is a queryable sqlite mirror of the latest snapshot, for
// operational introspection only (spec.md's supplemented §4.6 note): it is
// never read from during recovery, only written to after a snapshot saves
// successfully. The canonical `.debug.txt` sibling remains the
// authoritative human-readable record.
type DebugMirror struct {
	db *sql.DB
}

// OpenDebugMirror opens (creating if needed) the sqlite mirror database at
// path.
func OpenDebugMirror(path string) (*DebugMirror, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "persist: open debug mirror")
	}
	const schema = `
CREATE TABLE IF NOT EXISTS replicas (
	frame_id   INTEGER NOT NULL,
	entity_id  TEXT NOT NULL,
	height     INTEGER NOT NULL,
	state_root TEXT NOT NULL,
	PRIMARY KEY (frame_id, entity_id)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "persist: create debug mirror schema")
	}
	return &DebugMirror{db: db}, nil
}

// Mirror writes every replica in snap into the debug table, replacing any
// prior row for the same (frame_id, entity_id).
func (m *DebugMirror) Mirror(snap *Snapshot) error {
	tx, err := m.db.Begin()
	if err != nil {
		return errors.Wrap(err, "persist: begin debug mirror tx")
	}
	for _, r := range snap.Replicas {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO replicas (frame_id, entity_id, height, state_root) VALUES (?, ?, ?, ?)`,
			snap.FrameID, r.EntityID.String(), r.Height, r.StateRoot.String(),
		); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "persist: mirror replica row")
		}
	}
	return tx.Commit()
}

// Close closes the underlying database handle.
func (m *DebugMirror) Close() error { return m.db.Close() }
