// Package routing implements the gossip CRDT and capacity-aware pathfinder
// of spec.md §4.5: entities publish GossipProfiles describing their
// directly-connected counterparties and per-token capacities, profiles
// merge last-write-wins by timestamp, and routes are found by a
// backwards-fee-aware Dijkstra over the resulting capacity graph.
package routing

import (
	"math"

	"github.com/xln-network/xln/xlntype"
)

// AccountCapacity is one counterparty edge published in a GossipProfile:
// the in/out capacity an entity currently offers toward counterparty for
// token, derived from its account deltas (spec §4.5: "out_cap = C + L_r −
// Δ for left; symmetric for right").
type AccountCapacity struct {
	Counterparty xlntype.EntityID
	Token        xlntype.Bytes32
	OutCapacity  uint64
	InCapacity   uint64
}

// FeeSchedule is the fee an entity charges for forwarding through it.
type FeeSchedule struct {
	Base   uint64
	PPM    uint64 // parts-per-million of the forwarded amount
}

// Fee computes the fee charged by this hop for forwarding amount; the
// proportional part is rounded up to a whole unit.
func (f FeeSchedule) Fee(amount uint64) uint64 {
	return f.Base + (amount*f.PPM+999_999)/1_000_000
}

// GossipProfile is one entity's self-published routing advertisement
// (spec §3 GossipProfile record).
type GossipProfile struct {
	EntityID     xlntype.EntityID
	Capabilities []string
	Hubs         []xlntype.EntityID
	Fee          FeeSchedule
	Accounts     []AccountCapacity
	Timestamp    uint64
}

// Store is the gossip CRDT: a last-write-wins map of EntityID to its
// latest known profile (spec §4.5 "Gossip (CRDT)"). It holds a plain Go
// map with no locking, so it is not safe for concurrent use: callers
// serialize every Merge, Get and All call.
type Store struct {
	profiles map[xlntype.EntityID]GossipProfile
}

// NewStore returns an empty gossip store.
func NewStore() *Store {
	return &Store{profiles: map[xlntype.EntityID]GossipProfile{}}
}

// Merge applies an incoming profile: strictly newer timestamp replaces the
// stored one; ties or older timestamps are dropped (spec §4.5: "accepted
// iff timestamp > stored.timestamp"). Reports whether the profile was
// accepted.
func (s *Store) Merge(profile GossipProfile) bool {
	existing, ok := s.profiles[profile.EntityID]
	if ok && profile.Timestamp <= existing.Timestamp {
		return false
	}
	s.profiles[profile.EntityID] = profile
	return true
}

// Get returns the stored profile for id, if any.
func (s *Store) Get(id xlntype.EntityID) (GossipProfile, bool) {
	p, ok := s.profiles[id]
	return p, ok
}

// All returns every known profile, in no particular order; callers
// requiring determinism must sort the result themselves.
func (s *Store) All() []GossipProfile {
	out := make([]GossipProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out
}

// edge is one directed capacity-graph arc for a single token (spec §4.5
// "Graph"): node = entity, edge = (from→to, capacity, fee).
type edge struct {
	to       xlntype.EntityID
	capacity uint64
	fee      FeeSchedule
}

// Graph is the per-token directed multigraph derived from the gossip
// store's union of profiles.
type Graph struct {
	adj map[xlntype.EntityID][]edge
}

// BuildGraph constructs the capacity graph for token from the store's
// current profiles. An edge from A to B exists only when both A's
// out-capacity toward B and B's gossip-published existence as a
// counterparty are known (spec §4.5: "edges exist only when counterparty
// is also known").
func BuildGraph(store *Store, token xlntype.Bytes32) *Graph {
	g := &Graph{adj: map[xlntype.EntityID][]edge{}}
	for _, profile := range store.profiles {
		for _, acc := range profile.Accounts {
			if acc.Token != token {
				continue
			}
			if _, known := store.profiles[acc.Counterparty]; !known {
				continue
			}
			g.adj[profile.EntityID] = append(g.adj[profile.EntityID], edge{
				to:       acc.Counterparty,
				capacity: acc.OutCapacity,
				fee:      profile.Fee,
			})
		}
	}
	return g
}

// Route is one candidate path through the graph, in hop order from source
// to destination.
type Route struct {
	Hops               []xlntype.EntityID
	TotalFee           uint64
	SuccessProbability float64
}

// defaultMaxRoutes matches spec §4.5's "up to K routes (default 100)".
const defaultMaxRoutes = 100

// FindRoutes runs the modified Dijkstra of spec §4.5 from source to dest
// for amount of token, returning up to K (defaultMaxRoutes) routes sorted
// by ascending total fee. Capacity is checked backwards from the
// destination so that every edge's relax accounts for the fees every
// downstream hop will add.
func FindRoutes(g *Graph, source, dest xlntype.EntityID, amount uint64) []Route {
	return findRoutesK(g, source, dest, amount, defaultMaxRoutes)
}

func findRoutesK(g *Graph, source, dest xlntype.EntityID, amount uint64, k int) []Route {
	type state struct {
		node xlntype.EntityID
		path []xlntype.EntityID
		fee  uint64
	}

	var found []Route
	// Bounded DFS-as-Dijkstra over a small graph: priority by accumulated
	// fee, no revisits within a path (spec §4.5 "no revisits, loop-free").
	frontier := []state{{node: source, path: []xlntype.EntityID{source}, fee: 0}}

	for len(frontier) > 0 && len(found) < k {
		// pick lowest-fee frontier entry (simple linear scan: graphs here
		// are small enough that a heap would be premature).
		bestIdx := 0
		for i, s := range frontier {
			if s.fee < frontier[bestIdx].fee {
				bestIdx = i
			}
		}
		cur := frontier[bestIdx]
		frontier = append(frontier[:bestIdx], frontier[bestIdx+1:]...)

		if cur.node == dest {
			found = append(found, Route{
				Hops:               cur.path,
				TotalFee:           cur.fee,
				SuccessProbability: successProbability(g, cur.path, amount),
			})
			continue
		}

		visited := map[xlntype.EntityID]bool{}
		for _, n := range cur.path {
			visited[n] = true
		}

		for _, e := range g.adj[cur.node] {
			if visited[e.to] {
				continue
			}
			required := requiredAmountAt(g, append(cur.path, e.to), amount)
			if required > e.capacity {
				continue
			}
			nextPath := append(append([]xlntype.EntityID{}, cur.path...), e.to)
			frontier = append(frontier, state{node: e.to, path: nextPath, fee: cur.fee + e.fee.Fee(amount)})
		}
	}

	return found
}

// requiredAmountAt computes the amount that must still be in flight at the
// last hop of path, working backwards from dest (spec §4.5: "amt := final;
// for i from n−1 downto 1: amt += fee_i(amt)").
func requiredAmountAt(g *Graph, path []xlntype.EntityID, final uint64) uint64 {
	amt := final
	for i := len(path) - 1; i > 0; i-- {
		hop := path[i-1]
		for _, e := range g.adj[hop] {
			if e.to == path[i] {
				amt += e.fee.Fee(amt)
				break
			}
		}
	}
	return amt
}

// successProbability estimates a route's likelihood of completing
// (spec §4.5: "∏ exp(−2·utilization_i)").
func successProbability(g *Graph, path []xlntype.EntityID, amount uint64) float64 {
	p := 1.0
	for i := 0; i < len(path)-1; i++ {
		for _, e := range g.adj[path[i]] {
			if e.to != path[i+1] || e.capacity == 0 {
				continue
			}
			utilization := float64(amount) / float64(e.capacity)
			p *= math.Exp(-2 * utilization)
			break
		}
	}
	return p
}
