package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-network/xln/xlntype"
)

func entity(name string) xlntype.EntityID {
	return xlntype.Keccak256([]byte(name))
}

// TestGossipMergeLastWriteWins exercises spec property: profiles merge by
// strictly-newer timestamp; ties or staler timestamps are dropped.
func TestGossipMergeLastWriteWins(t *testing.T) {
	s := NewStore()
	a := entity("a")

	assert.True(t, s.Merge(GossipProfile{EntityID: a, Timestamp: 10}))
	assert.False(t, s.Merge(GossipProfile{EntityID: a, Timestamp: 10, Fee: FeeSchedule{Base: 5}}))
	assert.True(t, s.Merge(GossipProfile{EntityID: a, Timestamp: 11, Fee: FeeSchedule{Base: 5}}))

	p, ok := s.Get(a)
	require.True(t, ok)
	assert.Equal(t, uint64(5), p.Fee.Base)
}

// TestFindRoutesMultiHop exercises scenario S4's routing half: a 3-hop
// chain A->B->C->D with ample capacity finds the direct path with
// increasing required-amount-at-edge due to downstream fees.
func TestFindRoutesMultiHop(t *testing.T) {
	token := xlntype.Keccak256([]byte("usd"))
	a, b, c, d := entity("a"), entity("b"), entity("c"), entity("d")

	s := NewStore()
	fee := FeeSchedule{Base: 0, PPM: 100} // 100ppm ~= the S4 scenario's fee shape
	s.Merge(GossipProfile{EntityID: a, Timestamp: 1, Fee: fee, Accounts: []AccountCapacity{{Counterparty: b, Token: token, OutCapacity: 10000}}})
	s.Merge(GossipProfile{EntityID: b, Timestamp: 1, Fee: fee, Accounts: []AccountCapacity{{Counterparty: c, Token: token, OutCapacity: 10000}}})
	s.Merge(GossipProfile{EntityID: c, Timestamp: 1, Fee: fee, Accounts: []AccountCapacity{{Counterparty: d, Token: token, OutCapacity: 10000}}})
	s.Merge(GossipProfile{EntityID: d, Timestamp: 1})

	g := BuildGraph(s, token)
	routes := FindRoutes(g, a, d, 1000)
	require.NotEmpty(t, routes)
	assert.Equal(t, []xlntype.EntityID{a, b, c, d}, routes[0].Hops)
	assert.Greater(t, routes[0].TotalFee, uint64(0))
	assert.Greater(t, routes[0].SuccessProbability, 0.0)
}

// TestFindRoutesRejectsInsufficientCapacity confirms a route is pruned
// when the amount required at an edge exceeds that edge's capacity: the
// first edge A->B offers 50, the payment is 1000, so no route reaches C.
func TestFindRoutesRejectsInsufficientCapacity(t *testing.T) {
	token := xlntype.Keccak256([]byte("usd"))
	a, b, c := entity("a"), entity("b"), entity("c")

	s := NewStore()
	fee := FeeSchedule{Base: 0, PPM: 0}
	s.Merge(GossipProfile{EntityID: a, Timestamp: 1, Fee: fee, Accounts: []AccountCapacity{{Counterparty: b, Token: token, OutCapacity: 50}}})
	s.Merge(GossipProfile{EntityID: b, Timestamp: 1, Fee: fee, Accounts: []AccountCapacity{{Counterparty: c, Token: token, OutCapacity: 1000}}})
	s.Merge(GossipProfile{EntityID: c, Timestamp: 1})

	g := BuildGraph(s, token)
	routes := FindRoutes(g, a, c, 1000)
	assert.Empty(t, routes)
}
