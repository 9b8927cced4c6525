package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xln-network/xln/xlntype"
)

// TestDebtVacuumPartialPayment exercises end-to-end scenario S6: a queue
// of [(F,500,t0)] receiving a 300 reserve credit becomes [(F,200,t0)] and
// the entity remains frozen for outgoing sends.
func TestDebtVacuumPartialPayment(t *testing.T) {
	token := xlntype.Keccak256([]byte("usd"))
	creditorF := xlntype.Keccak256([]byte("entity-F"))

	q := &DebtQueue{}
	q.Append(token, creditorF, 500, 1000)

	paid := q.Vacuum(token, 300)
	assert.Equal(t, []DebtEntry{{Creditor: creditorF, Amount: 300, Timestamp: 1000}}, paid)
	assert.True(t, q.Frozen(token))
	assert.Equal(t, uint64(200), q.Debts[token][0].Amount)
}

func TestDebtVacuumClearsQueue(t *testing.T) {
	token := xlntype.Keccak256([]byte("usd"))
	creditorF := xlntype.Keccak256([]byte("entity-F"))

	q := &DebtQueue{}
	q.Append(token, creditorF, 500, 1000)

	q.Vacuum(token, 600)
	assert.False(t, q.Frozen(token))
}

func TestDebtVacuumPreservesFIFOOrder(t *testing.T) {
	token := xlntype.Keccak256([]byte("usd"))
	c1 := xlntype.Keccak256([]byte("c1"))
	c2 := xlntype.Keccak256([]byte("c2"))

	q := &DebtQueue{}
	q.Append(token, c1, 100, 1)
	q.Append(token, c2, 100, 2)

	paid := q.Vacuum(token, 150)
	assert.Equal(t, c1, paid[0].Creditor)
	assert.Equal(t, uint64(100), paid[0].Amount)
	assert.Equal(t, c2, paid[1].Creditor)
	assert.Equal(t, uint64(50), paid[1].Amount)
}
