package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-network/xln/entity"
	"github.com/xln-network/xln/jurisdiction"
	"github.com/xln-network/xln/transport"
	"github.com/xln-network/xln/xlntype"
)

func entityID(name string) xlntype.EntityID { return xlntype.Keccak256([]byte(name)) }

// TestTickAppliesReserveCreditedVacuumsDebt exercises the J-event half of
// scenario S6: a ReserveCredited event vacuums the entity's debt queue.
func TestTickAppliesReserveCreditedVacuumsDebt(t *testing.T) {
	env := NewEnvironment()
	token := xlntype.Keccak256([]byte("usd"))
	creditor := entityID("creditor")
	debtor := entityID("debtor")

	q := &entity.DebtQueue{}
	q.Append(token, creditor, 500, 1000)
	env.DebtQueues[debtor] = q

	ev := jurisdiction.Event{
		JHeight:   1,
		EventHash: xlntype.Keccak256([]byte("reserve-credit-1")),
		Kind:      jurisdiction.KindReserveCredited,
		ReserveCredited: &jurisdiction.ReserveCreditedPayload{
			EntityID: debtor, Token: token, Amount: 300,
		},
	}

	result, err := Tick(env, Batch{JEvents: []jurisdiction.Event{ev}}, 1000)
	require.NoError(t, err)
	assert.Len(t, result.WALRecords, 1)
	assert.True(t, q.Frozen(token))
	assert.Equal(t, uint64(200), q.Debts[token][0].Amount)
}

// TestTickDeduplicatesJEvents confirms a repeated (j_height, event_hash)
// pair is applied only once even if delivered twice in the same batch.
func TestTickDeduplicatesJEvents(t *testing.T) {
	env := NewEnvironment()
	token := xlntype.Keccak256([]byte("usd"))
	creditor := entityID("creditor")
	debtor := entityID("debtor")

	q := &entity.DebtQueue{}
	q.Append(token, creditor, 500, 1000)
	env.DebtQueues[debtor] = q

	ev := jurisdiction.Event{
		JHeight:   1,
		EventHash: xlntype.Keccak256([]byte("dup")),
		Kind:      jurisdiction.KindReserveCredited,
		ReserveCredited: &jurisdiction.ReserveCreditedPayload{
			EntityID: debtor, Token: token, Amount: 300,
		},
	}

	result, err := Tick(env, Batch{JEvents: []jurisdiction.Event{ev, ev}}, 1000)
	require.NoError(t, err)
	assert.Len(t, result.WALRecords, 1)
	assert.Equal(t, uint64(200), q.Debts[token][0].Amount)
}

// TestTickSkipsUnknownEntityInput confirms an input addressed to an
// unregistered entity is dropped without error (spec §7 DependencyGap).
func TestTickSkipsUnknownEntityInput(t *testing.T) {
	env := NewEnvironment()
	batch := Batch{EntityInputs: []transport.EntityInput{{EntityID: entityID("ghost"), Payload: []byte("x")}}}

	result, err := Tick(env, batch, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)
	assert.Equal(t, uint64(1), env.FrameCounter)
}
