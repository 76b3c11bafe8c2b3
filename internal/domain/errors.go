package domain

import "errors"

// Sentinel errors implementing the simulator's error taxonomy. Operations
// wrap these with context via fmt.Errorf("...: %w", ...) at the boundary
// of the operation that detects them; none are recovered internally
// except ErrLiquidityCrisis, which the path engine alone recovers from
// to mark a path failed (see internal/sim).
var (
	// ErrInvalidArgument marks a bad sign, size, enum value, or tick size.
	ErrInvalidArgument = errors.New("invalid_argument")
	// ErrIllegalState marks a re-set of a once-set global, or a book
	// operation that would cross when crossing is disallowed.
	ErrIllegalState = errors.New("illegal_state")
	// ErrUnsupported marks option math requested for a non-STRADDLE kind.
	ErrUnsupported = errors.New("unsupported")
	// ErrLiquidityCrisis marks a book read or mutate attempted while
	// safety checking is active and one side of the book is empty.
	ErrLiquidityCrisis = errors.New("liquidity_crisis")
)
