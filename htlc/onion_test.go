package htlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xln-network/xln/cry"
	"github.com/xln-network/xln/routing"
	"github.com/xln-network/xln/xlntype"
)

func entity(name string) xlntype.EntityID { return xlntype.Keccak256([]byte(name)) }

// TestBuildHopPlansAccumulatesFeeAndTimelock exercises scenario S4: a
// 3-hop route A->B->C->D, fee 100ppm base 0, timelock safety Δ=10,
// payment of 1000 to D with base timelock now+20 yields forward amounts
// 1002/1001/1000 and timelocks now+40/now+30/now+20.
func TestBuildHopPlansAccumulatesFeeAndTimelock(t *testing.T) {
	a, b, c, d := entity("a"), entity("b"), entity("c"), entity("d")
	route := routing.Route{Hops: []xlntype.EntityID{a, b, c, d}}

	fee := routing.FeeSchedule{Base: 0, PPM: 100} // 0.01% rounds up to 1 unit on amounts here
	fees := map[xlntype.EntityID]routing.FeeSchedule{a: fee, b: fee, c: fee}
	keys := map[xlntype.EntityID][32]byte{}

	plans := BuildHopPlans(route, keys, fees, 1000, 20)

	require.Len(t, plans, 4)
	assert.Equal(t, uint64(1000), plans[3].ForwardAmount)
	assert.Equal(t, uint64(20), plans[3].TimelockBlock)
	assert.True(t, plans[3].Final)

	assert.Equal(t, uint64(1001), plans[2].ForwardAmount)
	assert.Equal(t, uint64(30), plans[2].TimelockBlock)

	assert.Equal(t, uint64(1002), plans[1].ForwardAmount)
	assert.Equal(t, uint64(40), plans[1].TimelockBlock)
}

// TestOnionRoundTrip confirms each hop can open only its own layer and
// recovers the next hop's terms, with the innermost layer marked Final.
func TestOnionRoundTrip(t *testing.T) {
	hopA, err := cry.GenerateOnionKeyPair()
	require.NoError(t, err)
	hopB, err := cry.GenerateOnionKeyPair()
	require.NoError(t, err)

	entA, entB := entity("a"), entity("b")
	route := routing.Route{Hops: []xlntype.EntityID{entA, entB}}
	fees := map[xlntype.EntityID]routing.FeeSchedule{entA: {Base: 1, PPM: 0}}
	keys := map[xlntype.EntityID][32]byte{entA: hopA.Public, entB: hopB.Public}

	plans := BuildHopPlans(route, keys, fees, 500, 10)
	sealed, err := BuildOnion(plans)
	require.NoError(t, err)

	layerA, err := OpenLayer(hopA.Private, sealed)
	require.NoError(t, err)
	assert.Equal(t, entB, layerA.NextHop)
	assert.False(t, layerA.Final)
	assert.Equal(t, uint64(501), layerA.ForwardAmount)

	layerB, err := OpenLayer(hopB.Private, layerA.InnerOnion)
	require.NoError(t, err)
	assert.True(t, layerB.Final)
	assert.Equal(t, uint64(500), layerB.ForwardAmount)

	// hopB cannot open hopA's layer directly.
	_, err = OpenLayer(hopB.Private, sealed)
	assert.Error(t, err)
}
