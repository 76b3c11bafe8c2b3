package lob

import (
	"fmt"
	"math"
	"sort"

	"github.com/efreitasn/microhedger/internal/domain"
)

// Book is a two-sided limit order book: bid and ask price ladders, each
// kept in ascending price order. The best bid is the last element of
// bids; the best ask is the first element of asks. At most one bar rests
// per price per side.
type Book struct {
	bids []Bar
	asks []Bar

	decayCoefficient float64
	safetyCheck      bool
}

// NewBook builds a Book from parallel price/volume slices for each side.
// Bars are sorted into ascending price order on each side before storage.
func NewBook(askPrices, askVolumes, bidPrices, bidVolumes []float64) (*Book, error) {
	asks, err := buildSide(askPrices, askVolumes)
	if err != nil {
		return nil, fmt.Errorf("ask side: %w", err)
	}
	bids, err := buildSide(bidPrices, bidVolumes)
	if err != nil {
		return nil, fmt.Errorf("bid side: %w", err)
	}
	return &Book{asks: asks, bids: bids}, nil
}

// NewBookWithDecay is NewBook plus an initial decay coefficient.
func NewBookWithDecay(decayCoefficient float64, askPrices, askVolumes, bidPrices, bidVolumes []float64) (*Book, error) {
	b, err := NewBook(askPrices, askVolumes, bidPrices, bidVolumes)
	if err != nil {
		return nil, err
	}
	b.decayCoefficient = decayCoefficient
	return b, nil
}

func buildSide(prices, volumes []float64) ([]Bar, error) {
	if len(prices) != len(volumes) {
		return nil, fmt.Errorf("price and volume slices must have equal length: %w", domain.ErrInvalidArgument)
	}
	bars := make([]Bar, len(prices))
	for i := range prices {
		bars[i] = NewBar(prices[i], volumes[i])
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].price < bars[j].price })
	return bars, nil
}

// SafetyCheck reports whether the book refuses reads/mutations while one
// side is empty.
func (b *Book) SafetyCheck() bool { return b.safetyCheck }

// SetSafetyCheck toggles the one-sided-market guard (see checkUnsafeCall).
func (b *Book) SetSafetyCheck(on bool) { b.safetyCheck = on }

// DecayCoefficient returns the book's stored decay coefficient, used by
// the zero-argument form of DecayOrders.
func (b *Book) DecayCoefficient() float64 { return b.decayCoefficient }

// SetDecayCoefficient sets the book's stored decay coefficient.
func (b *Book) SetDecayCoefficient(c float64) { b.decayCoefficient = c }

// Bid returns the best bid price, or 0 if there are no bids.
func (b *Book) Bid() float64 {
	if len(b.bids) == 0 {
		return 0
	}
	return b.bids[len(b.bids)-1].Price()
}

// Ask returns the best ask price, or 0 if there are no asks.
func (b *Book) Ask() float64 {
	if len(b.asks) == 0 {
		return 0
	}
	return b.asks[0].Price()
}

// Mid returns the midpoint of the best bid and best ask.
func (b *Book) Mid() float64 {
	return (b.Ask() + b.Bid()) * 0.5
}

// OneSideEmpty reports whether either side of the book has no resting
// bars.
func (b *Book) OneSideEmpty() bool {
	return len(b.asks) == 0 || len(b.bids) == 0
}

// checkUnsafeCall enforces the safety_check invariant: any read-or-mutate
// operation fails with ErrLiquidityCrisis if safety checking is on and one
// side of the book is empty.
func (b *Book) checkUnsafeCall() error {
	if b.safetyCheck && b.OneSideEmpty() {
		return fmt.Errorf("one side of the book is empty: %w", domain.ErrLiquidityCrisis)
	}
	return nil
}

func (b *Book) sideBars(s domain.Side) *[]Bar {
	if s > 0 {
		return &b.asks
	}
	return &b.bids
}

// ContainsPrice reports whether a bar rests at price p: SideAsk if on the
// ask side, SideBid if on the bid side, SideNone if neither. As a
// fast path, any price strictly between the best bid and best ask is
// reported as SideNone without scanning either side.
func (b *Book) ContainsPrice(p float64) (domain.Side, error) {
	if err := b.checkUnsafeCall(); err != nil {
		return domain.SideNone, err
	}
	bid, ask := b.Bid(), b.Ask()
	if p > bid && p < ask {
		return domain.SideNone, nil
	}
	side := domain.SideBid
	if p > bid {
		side = domain.SideAsk
	}
	for _, bar := range *b.sideBars(side) {
		if bar.Same(p) {
			return side, nil
		}
	}
	return domain.SideNone, nil
}

// PriceLocation returns the index at which a new bar at price p should be
// inserted into side s to preserve ascending order. It scans low to high
// and returns len(side) if p exceeds every existing price.
func (b *Book) PriceLocation(s domain.Side, p float64) (int, error) {
	if err := b.checkUnsafeCall(); err != nil {
		return 0, err
	}
	if s == domain.SideNone {
		return -1, fmt.Errorf("side must be non-zero: %w", domain.ErrInvalidArgument)
	}
	bars := *b.sideBars(s)
	sp := snap(p)
	for i, bar := range bars {
		if bar.Price() >= sp-MachineEpsilon {
			return i, nil
		}
	}
	return len(bars), nil
}

// barAt returns PriceLocation(s, p) and the bar at that index on side s;
// ok is false when the location is past the end of the side.
func (b *Book) barAt(s domain.Side, p float64) (int, Bar, bool) {
	bars := *b.sideBars(s)
	loc, err := b.PriceLocation(s, p)
	if err != nil || loc >= len(bars) {
		return loc, Bar{}, false
	}
	return loc, bars[loc], true
}

// AddLimitOrder rests a limit order of volume v at price p on side s. If
// p already rests on side s, v is added to that bar. If no bar rests at p
// and the order would cross — a sell (s > 0) at or below the best bid, or
// a buy (s < 0) at or above the best ask — it fails with ErrIllegalState;
// callers must route crossing limits through AbsorbLimitOrder instead. If
// p rests on the opposite side at the best bid/ask, the order executes
// against that bar and any remainder is re-posted at p; an opposite-side
// price beyond the best bid/ask fails with ErrInvalidArgument.
func (b *Book) AddLimitOrder(s domain.Side, p, v float64) error {
	if err := b.checkUnsafeCall(); err != nil {
		return err
	}
	if s == domain.SideNone {
		return nil
	}
	contains, err := b.ContainsPrice(p)
	if err != nil {
		return err
	}
	state := int(s) * int(contains)

	switch {
	case state == 0:
		if (s > 0 && p <= b.Bid()) || (s < 0 && p >= b.Ask()) {
			return fmt.Errorf("limit order at %v would cross the book: %w", p, domain.ErrIllegalState)
		}
		loc, err := b.PriceLocation(s, p)
		if err != nil {
			return err
		}
		bars := b.sideBars(s)
		*bars = insertBar(*bars, loc, NewBar(p, v))
		return nil

	case state > 0:
		loc, bar, ok := b.barAt(s, p)
		if !ok {
			return fmt.Errorf("expected existing bar at %v on same side: %w", p, domain.ErrInvalidArgument)
		}
		bars := b.sideBars(s)
		(*bars)[loc] = bar.AddVolumeBy(v)
		return nil

	default: // state < 0: opposite side holds price p; execute against it.
		if (s > 0 && p < b.Bid()) || (s < 0 && p > b.Ask()) {
			return fmt.Errorf("cannot post sell/buy limit order past bid/ask: %w", domain.ErrInvalidArgument)
		}
		otherSide := -s
		loc, bar, ok := b.barAt(otherSide, p)
		if !ok {
			return fmt.Errorf("expected existing bar at %v on opposite side: %w", p, domain.ErrInvalidArgument)
		}
		remaining, outstandingV, status := bar.ExecuteAgainst(v)
		otherBars := b.sideBars(otherSide)
		if status == Remove {
			*otherBars = removeBarAt(*otherBars, loc)
			if outstandingV > MachineEpsilon {
				return b.AddLimitOrder(s, p, outstandingV)
			}
			return nil
		}
		(*otherBars)[loc] = remaining
		return nil
	}
}

// CancelLimitOrder decrements the bar at (s, p) by v, removing it if the
// remaining volume falls below machine epsilon. It is a no-op if no bar
// rests at that price on that side.
func (b *Book) CancelLimitOrder(s domain.Side, p, v float64) error {
	if err := b.checkUnsafeCall(); err != nil {
		return err
	}
	contains, err := b.ContainsPrice(p)
	if err != nil {
		return err
	}
	if int(s)*int(contains) <= 0 {
		return nil
	}
	loc, bar, ok := b.barAt(s, p)
	if !ok {
		return nil
	}
	bars := b.sideBars(s)
	updated := bar.AddVolumeBy(-v)
	if updated.Volume() < MachineEpsilon {
		*bars = removeBarAt(*bars, loc)
		return nil
	}
	(*bars)[loc] = updated
	return nil
}

// AbsorbMarketOrder executes an incoming market order of sign s (+1 sell,
// -1 buy) and volume v against the opposite side in price-priority order.
// It returns the execution reports (price, signed executed volume) and
// the volume-weighted average fill price, or 0 if nothing filled.
func (b *Book) AbsorbMarketOrder(s domain.Side, v float64) ([]Bar, float64, error) {
	if err := b.checkUnsafeCall(); err != nil {
		return nil, 0, err
	}
	if s != domain.SideAsk && s != domain.SideBid {
		return nil, 0, fmt.Errorf("invalid sign for market order: %w", domain.ErrInvalidArgument)
	}

	executions := make([]Bar, 0)
	var vTotal, posTotal float64
	otherSide := -s
	otherBars := b.sideBars(otherSide)

	for v > MachineEpsilon && len(*otherBars) > 0 {
		idx := 0
		if otherSide < 0 {
			idx = len(*otherBars) - 1
		}
		bar := (*otherBars)[idx]
		remaining, outstandingV, status := bar.ExecuteAgainst(v)
		executedV := v - outstandingV
		vTotal += executedV
		posTotal += executedV * bar.Price()
		executions = append(executions, NewBar(bar.Price(), float64(otherSide)*executedV))
		v = outstandingV

		if status == Remove {
			*otherBars = removeBarAt(*otherBars, idx)
		} else {
			(*otherBars)[idx] = remaining
		}
	}

	if math.Abs(vTotal) > MachineEpsilon {
		return executions, posTotal / vTotal, nil
	}
	return executions, 0, nil
}

// AbsorbLimitOrder treats the crossing portion of a limit order as a
// market order against whichever top-of-book bars it crosses, then rests
// any remainder on side s at price p.
func (b *Book) AbsorbLimitOrder(s domain.Side, p, v float64) ([]Bar, error) {
	if err := b.checkUnsafeCall(); err != nil {
		return nil, err
	}
	if s == domain.SideNone {
		return nil, nil
	}

	executions := make([]Bar, 0)
	illegal := func() bool {
		return (s > 0 && p <= b.Bid()) || (s < 0 && p >= b.Ask())
	}

	for illegal() && v > MachineEpsilon {
		var topPrice float64
		if -s > 0 {
			topPrice = b.Ask()
		} else {
			topPrice = b.Bid()
		}
		loc, err := b.PriceLocation(-s, topPrice)
		if err != nil {
			return executions, err
		}
		topBars := *b.sideBars(-s)
		if loc >= len(topBars) {
			break
		}
		topVolume := topBars[loc].Volume()
		execVolume := math.Min(topVolume, v)
		v -= execVolume
		subExecutions, _, err := b.AbsorbMarketOrder(s, execVolume)
		if err != nil {
			return executions, err
		}
		executions = append(executions, subExecutions...)
	}

	if v > MachineEpsilon {
		contains, err := b.ContainsPrice(p)
		if err != nil {
			return executions, err
		}
		loc, err := b.PriceLocation(s, p)
		if err != nil {
			return executions, err
		}
		bars := b.sideBars(s)
		if contains == s {
			(*bars)[loc] = (*bars)[loc].AddVolumeBy(v)
		} else {
			*bars = insertBar(*bars, loc, NewBar(p, v))
		}
	}
	return executions, nil
}

// AbsorbGeneralOrder dispatches over {Limit, Market} and returns the
// execution reports produced. side == SideNone always returns no
// executions.
func (b *Book) AbsorbGeneralOrder(kind domain.OrderKind, p, v float64, s domain.Side) ([]Bar, error) {
	if s == domain.SideNone {
		return nil, nil
	}
	switch kind {
	case domain.Limit:
		return b.AbsorbLimitOrder(s, p, v)
	case domain.Market:
		executions, _, err := b.AbsorbMarketOrder(s, v)
		return executions, err
	default:
		return nil, fmt.Errorf("unknown order kind %v: %w", kind, domain.ErrInvalidArgument)
	}
}

// DecayOrders shrinks every resting bar's volume by
// exp(-coefficient*(mid-price)^2); bars closer to mid decay less. Decay
// never removes a bar — only explicit execution does.
func (b *Book) DecayOrders(coefficient float64) error {
	if err := b.checkUnsafeCall(); err != nil {
		return err
	}
	mid := b.Mid()
	for _, side := range []*[]Bar{&b.asks, &b.bids} {
		for i, bar := range *side {
			factor := math.Exp(-coefficient * (mid - bar.Price()) * (mid - bar.Price()))
			(*side)[i] = bar.AddVolumeBy((factor - 1) * bar.Volume())
		}
	}
	return nil
}

// DecayOrdersDefault decays with the book's stored decay coefficient.
func (b *Book) DecayOrdersDefault() error {
	return b.DecayOrders(b.decayCoefficient)
}

// GetTotalVolume sums the (unsigned) volume resting on side s. Callers
// wanting a signed trajectory negate the bid-side sum themselves.
func (b *Book) GetTotalVolume(s domain.Side) (float64, error) {
	if err := b.checkUnsafeCall(); err != nil {
		return 0, err
	}
	var total float64
	for _, bar := range *b.sideBars(s) {
		total += bar.Volume()
	}
	return total, nil
}

// Bids returns a defensive copy of the bid ladder, ascending by price.
func (b *Book) Bids() []Bar {
	out := make([]Bar, len(b.bids))
	copy(out, b.bids)
	return out
}

// Asks returns a defensive copy of the ask ladder, ascending by price.
func (b *Book) Asks() []Bar {
	out := make([]Bar, len(b.asks))
	copy(out, b.asks)
	return out
}

// Clone returns an independent deep copy of the book, suitable for
// retaining as a per-quarter snapshot while the original continues to
// mutate.
func (b *Book) Clone() *Book {
	return &Book{
		bids:             b.Bids(),
		asks:             b.Asks(),
		decayCoefficient: b.decayCoefficient,
		safetyCheck:      b.safetyCheck,
	}
}

func insertBar(bars []Bar, at int, bar Bar) []Bar {
	bars = append(bars, Bar{})
	copy(bars[at+1:], bars[at:])
	bars[at] = bar
	return bars
}

func removeBarAt(bars []Bar, at int) []Bar {
	return append(bars[:at], bars[at+1:]...)
}
