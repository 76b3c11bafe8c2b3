// Package lob implements the two-sided limit order book: a tick-aware
// price bar, the bid/ask price ladders, and the order-absorption
// operations that mutate them.
package lob

import (
	"fmt"
	"math"
	"sync"

	"github.com/efreitasn/microhedger/internal/domain"
)

// MachineEpsilon is the tolerance used for all "same price" / "drained
// volume" floating-point comparisons, mirroring the original engine's use
// of __DBL_EPSILON__.
const MachineEpsilon = 2.220446049250313e-16

// snapEpsilon nudges round() off exact .5 ties when snapping a price to
// the tick grid, mirroring the original engine's rounding offset.
const snapEpsilon = 1e-9

// minTickSize is the unset sentinel for the process-wide tick size: any
// tick size at or below it is treated as "no tick configured" and prices
// pass through unsnapped.
const minTickSize = 2 * MachineEpsilon

var (
	tickMu   sync.Mutex
	tickSize = minTickSize
)

// SetTickSize assigns the process-wide tick size exactly once. A second
// call fails with ErrIllegalState; a non-positive or sub-epsilon value
// fails with ErrInvalidArgument.
func SetTickSize(ts float64) error {
	tickMu.Lock()
	defer tickMu.Unlock()
	if tickSize > minTickSize {
		return fmt.Errorf("tick size already set to %v: %w", tickSize, domain.ErrIllegalState)
	}
	if ts < minTickSize {
		return fmt.Errorf("tick size must be a positive number above machine epsilon: %w", domain.ErrInvalidArgument)
	}
	tickSize = ts
	return nil
}

// TickSize returns the current process-wide tick size.
func TickSize() float64 {
	tickMu.Lock()
	defer tickMu.Unlock()
	return tickSize
}

// resetTickSizeForTest restores the unset sentinel. It is unexported and
// is called directly by this package's _test.go files.
func resetTickSizeForTest() {
	tickMu.Lock()
	defer tickMu.Unlock()
	tickSize = minTickSize
}

// snap rounds a raw price to the current tick grid, or returns it
// unchanged if no tick size has been configured.
func snap(p float64) float64 {
	ts := TickSize()
	if ts <= minTickSize {
		return p
	}
	return math.Round(p/ts+snapEpsilon) * ts
}
