package xlntype

import "time"

// Protocol-wide constants. Mirrors the teacher's thor.ForkConfig-style
// "named constants, not magic numbers" convention (thor/params_test.go).
const (
	// TickInterval is the default runtime cadence (spec §2, §5).
	TickInterval = 100 * time.Millisecond

	// TimeoutProposalMS bounds how long a proposer may sit silently on a
	// pending proposal before any validator may re-propose (spec §4.1).
	TimeoutProposalMS = 3000

	// SafetyDeltaBlocks is the timelock decrement between adjacent hops of
	// an HTLC route (spec §4.3 phase L, step 3). htlc.BuildHopPlans applies
	// the same decrement through its own constant; account.Machine.Lock
	// does not check it.
	SafetyDeltaBlocks = 10

	// DefaultMaxRoutes bounds the number of candidate routes the
	// pathfinder returns (spec §4.5).
	DefaultMaxRoutes = 100

	// DebtRetryBound is the retry bound for DependencyGap inputs (spec §7).
	// No code reads it: runtime.Tick drops inputs addressed to an unknown
	// entity or account at once, without retrying.
	DebtRetryBound = 8
)
