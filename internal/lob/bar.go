package lob

import "math"

// Bar is a single price level: a (price, volume) pair. Price is always
// snapped to the process tick grid on construction. Volume is signed only
// when a Bar represents an order/execution report (sign encodes side);
// bars resting inside a Book always carry non-negative volume.
type Bar struct {
	price  float64
	volume float64
}

// NewBar constructs a Bar with its price snapped to the tick grid.
func NewBar(price, volume float64) Bar {
	return Bar{price: snap(price), volume: volume}
}

// Price returns the bar's tick-snapped price.
func (b Bar) Price() float64 { return b.price }

// Volume returns the bar's volume, signed when the bar is an order report.
func (b Bar) Volume() float64 { return b.volume }

// IsEmptyBar reports whether the bar's price is within half a tick of
// zero — the sentinel used for "no outstanding quote".
func (b Bar) IsEmptyBar() bool {
	return math.Abs(b.price) < TickSize()/2
}

// IsEmptyVolume reports whether the bar's volume is within machine
// epsilon of zero.
func (b Bar) IsEmptyVolume() bool {
	return math.Abs(b.volume) < MachineEpsilon
}

// IsEmpty reports whether the bar is the zero bar on both price and
// volume.
func (b Bar) IsEmpty() bool {
	return b.IsEmptyBar() && b.IsEmptyVolume()
}

// Same reports whether the bar's price equals p once p is snapped to the
// tick grid, within machine epsilon.
func (b Bar) Same(p float64) bool {
	return math.Abs(b.price-snap(p)) < MachineEpsilon
}

// Higher reports whether the bar's price is strictly above p (tick-aware).
func (b Bar) Higher(p float64) bool {
	return b.price > snap(p)-MachineEpsilon && !b.Same(p)
}

// Lower reports whether the bar's price is strictly below p (tick-aware).
func (b Bar) Lower(p float64) bool {
	return b.price < snap(p)+MachineEpsilon && !b.Same(p)
}

// HigherEqual reports Higher(p) || Same(p).
func (b Bar) HigherEqual(p float64) bool {
	return b.Higher(p) || b.Same(p)
}

// LowerEqual reports Lower(p) || Same(p).
func (b Bar) LowerEqual(p float64) bool {
	return b.Lower(p) || b.Same(p)
}

// BarStatus is the outcome of ExecuteAgainst: whether the bar retains any
// volume after the execution.
type BarStatus int

const (
	// Remove indicates the bar's volume drained to (within epsilon of)
	// zero and it should be erased from its side of the book.
	Remove BarStatus = iota
	// Keep indicates the bar still carries outstanding volume.
	Keep
)

// ExecuteAgainst consumes min(b.Volume(), v) from both the bar and the
// incoming volume, returning the bar with its volume reduced, the
// remaining incoming volume, and whether the bar should be removed.
//
// The original engine mutates an out-parameter volume in place; this
// value-typed signature returns the same information as a tuple instead
// (see spec design notes on preserved vs. refactored calling conventions).
func (b Bar) ExecuteAgainst(v float64) (remaining Bar, outstandingV float64, status BarStatus) {
	executed := math.Min(b.volume, v)
	newVolume := b.volume - executed
	outstandingV = v - executed
	remaining = Bar{price: b.price, volume: newVolume}
	if math.Abs(newVolume) < MachineEpsilon {
		return remaining, outstandingV, Remove
	}
	return remaining, outstandingV, Keep
}

// AddVolumeBy returns a copy of the bar with delta added to its volume
// unconditionally; callers enforce non-negativity where it matters.
func (b Bar) AddVolumeBy(delta float64) Bar {
	return Bar{price: b.price, volume: b.volume + delta}
}
