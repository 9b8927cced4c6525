package jurisdiction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xln-network/xln/xlntype"
)

// TestDedupRejectsRepeatHeightAndHash confirms the (j_height, event_hash)
// dedup rule of spec §9: the same pair is only admitted once, even across
// distinct Event values.
func TestDedupRejectsRepeatHeightAndHash(t *testing.T) {
	d := NewDedup()
	hash := xlntype.Keccak256([]byte("event"))

	ev1 := Event{JHeight: 100, EventHash: hash, Kind: KindReserveCredited}
	ev2 := Event{JHeight: 100, EventHash: hash, Kind: KindReserveCredited}

	assert.True(t, d.Admit(ev1))
	assert.False(t, d.Admit(ev2))
}

// TestDedupAdmitsDistinctHeights confirms the same event_hash at a
// different j_height is treated as distinct.
func TestDedupAdmitsDistinctHeights(t *testing.T) {
	d := NewDedup()
	hash := xlntype.Keccak256([]byte("event"))

	assert.True(t, d.Admit(Event{JHeight: 100, EventHash: hash}))
	assert.True(t, d.Admit(Event{JHeight: 101, EventHash: hash}))
}

func TestDedupFilterPreservesOrder(t *testing.T) {
	d := NewDedup()
	h1 := xlntype.Keccak256([]byte("a"))
	h2 := xlntype.Keccak256([]byte("b"))

	evs := []Event{
		{JHeight: 1, EventHash: h1},
		{JHeight: 1, EventHash: h1}, // duplicate
		{JHeight: 1, EventHash: h2},
	}
	filtered := d.Filter(evs)
	assert.Len(t, filtered, 2)
	assert.Equal(t, h1, filtered[0].EventHash)
	assert.Equal(t, h2, filtered[1].EventHash)
}
