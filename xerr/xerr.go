// Package xerr defines the error taxonomy of spec.md §7, following the
// teacher's sentinel-plus-predicate idiom (bft.errConflictWithFinalized /
// bft.IsConflictWithFinalized in bft/types.go), generalized to one type per
// taxonomy member instead of one sentinel per case.
package xerr

import "fmt"

// Kind enumerates the taxonomy of spec.md §7.
type Kind uint8

const (
	// ConsensusReject: signature invalid, nonce/counter mismatch,
	// post-state-root mismatch, quorum failure. Reported to submitter;
	// does not mutate state.
	ConsensusReject Kind = iota
	// InvariantViolation: RCPAN breach, negative hold, overflow. Fails
	// the tx; state unchanged.
	InvariantViolation
	// TimeoutExceeded: proposal or HTLC timer. Triggers re-proposal or
	// resolve path.
	TimeoutExceeded
	// NotAuthorized: signer not on board, not in quorum, wrong proposer.
	// Dropped silently by the caller (no amplification).
	NotAuthorized
	// StateCorruption: Merkle integrity failure on recovery. Fatal.
	StateCorruption
	// DependencyGap: missing precondition (unknown account, stale
	// J-event). runtime.Tick drops such inputs without retrying them.
	DependencyGap
)

func (k Kind) String() string {
	switch k {
	case ConsensusReject:
		return "ConsensusReject"
	case InvariantViolation:
		return "InvariantViolation"
	case TimeoutExceeded:
		return "TimeoutExceeded"
	case NotAuthorized:
		return "NotAuthorized"
	case StateCorruption:
		return "StateCorruption"
	case DependencyGap:
		return "DependencyGap"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy-tagged error. Pure handlers return these; nothing
// escapes the pure boundary as a panic or log side effect.
type Error struct {
	Kind   Kind
	Reason string
	Err    error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds a tagged error around an existing cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Is reports whether err carries the given taxonomy kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// IsConsensusReject mirrors the teacher's per-case predicate convention.
func IsConsensusReject(err error) bool { return Is(err, ConsensusReject) }

// IsInvariantViolation mirrors the teacher's per-case predicate convention.
func IsInvariantViolation(err error) bool { return Is(err, InvariantViolation) }

// IsTimeoutExceeded mirrors the teacher's per-case predicate convention.
func IsTimeoutExceeded(err error) bool { return Is(err, TimeoutExceeded) }

// IsNotAuthorized mirrors the teacher's per-case predicate convention.
func IsNotAuthorized(err error) bool { return Is(err, NotAuthorized) }

// IsStateCorruption mirrors the teacher's per-case predicate convention.
func IsStateCorruption(err error) bool { return Is(err, StateCorruption) }

// IsDependencyGap mirrors the teacher's per-case predicate convention.
func IsDependencyGap(err error) bool { return Is(err, DependencyGap) }
