// Package xerr declares the engine's sentinel errors.
//
// Grounded on pkg/storage/types.go's sentinel-plus-wrapping idiom: a
// small fixed set of package-level sentinels, wrapped with
// fmt.Errorf("...: %w", ...) at the call site so callers can still
// errors.Is against the sentinel after context has been added. The core
// is total per spec §7 — these sentinels cover only the error kinds the
// spec actually names (non-convergence, a closed engine, and malformed
// caller-supplied shapes), never a generic catch-all.
package xerr

import "errors"

var (
	// ErrNonConvergent reports that an iterative scope failed to reach
	// a fixpoint within a host-imposed iteration budget. Per spec §7
	// this is surfaced by the host via probe inspection; the core
	// itself never times out internally, it only refuses to keep
	// iterating past the caller-supplied bound.
	ErrNonConvergent = errors.New("iterative scope did not converge within the iteration budget")

	// ErrClosedEngine reports a call against a saturation loop that has
	// already been stopped.
	ErrClosedEngine = errors.New("saturation loop is closed")

	// ErrShapeMismatch reports a stored shape whose operand slot count
	// does not match its kind's arity, as found by checkpoint restore.
	ErrShapeMismatch = errors.New("operand slot count does not match shape arity")
)
