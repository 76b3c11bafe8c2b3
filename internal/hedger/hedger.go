// Package hedger implements the delta-gamma hedger: the state machine
// that maintains an option+stock inventory, tracks an outstanding quote,
// detects its execution against the realized tape, and re-quotes with a
// time-decaying aggressiveness schedule.
package hedger

import (
	"math"

	"github.com/efreitasn/microhedger/internal/domain"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/option"
)

// Hedger tracks an option book, a stock inventory, and a single
// outstanding quote. Delta and gamma are cached scalars recomputed at
// RecalcGreeks and ResetGammaContract.
type Hedger struct {
	optionPosition    float64
	impliedVolatility float64

	options []option.Leg
	stocks  []lob.Bar

	quote lob.Bar

	delta float64
	gamma float64
}

// New constructs an idle Hedger with the given option position size and
// implied volatility, used whenever a fresh straddle is opened.
func New(optionPosition, impliedVolatility float64) *Hedger {
	return &Hedger{
		optionPosition:    optionPosition,
		impliedVolatility: impliedVolatility,
	}
}

// Delta returns the portfolio delta: the sum of the option legs' deltas
// plus the net signed stock position.
func (h *Hedger) Delta(book *lob.Book, t float64) (float64, error) {
	total := 0.0
	for _, leg := range h.options {
		d, err := leg.Delta(h.impliedVolatility, book.Mid(), t)
		if err != nil {
			return 0, err
		}
		total += d
	}
	for _, bar := range h.stocks {
		total += bar.Volume()
	}
	return total, nil
}

// Gamma returns the portfolio gamma: the sum of the option legs' gammas.
// Stock contributes zero gamma.
func (h *Hedger) Gamma(book *lob.Book, t float64) (float64, error) {
	total := 0.0
	for _, leg := range h.options {
		g, err := leg.Gamma(h.impliedVolatility, book.Mid(), t)
		if err != nil {
			return 0, err
		}
		total += g
	}
	return total, nil
}

// CachedDelta returns the delta most recently computed by RecalcGreeks or
// ResetGammaContract.
func (h *Hedger) CachedDelta() float64 { return h.delta }

// CachedGamma returns the gamma most recently computed by RecalcGreeks or
// ResetGammaContract.
func (h *Hedger) CachedGamma() float64 { return h.gamma }

// ResetGammaContract clears the day's option and stock inventory and the
// outstanding quote, opens a fresh two-day straddle struck at the
// current mid, and recomputes cached greeks. It returns the Hedger to
// Idle regardless of its prior state.
func (h *Hedger) ResetGammaContract(time float64, book *lob.Book) error {
	h.stocks = nil
	h.quote = lob.Bar{}
	strike := book.Mid()
	leg := option.NewStraddle(time, time+2, strike, h.optionPosition)
	h.options = []option.Leg{leg}
	return h.RecalcGreeks(time, book)
}

// RecalcGreeks refreshes the cached delta/gamma at the book's current
// mid and time t.
func (h *Hedger) RecalcGreeks(t float64, book *lob.Book) error {
	d, err := h.Delta(book, t)
	if err != nil {
		return err
	}
	g, err := h.Gamma(book, t)
	if err != nil {
		return err
	}
	h.delta = d
	h.gamma = g
	return nil
}

// QuotePrice returns the price of the current outstanding quote. It is
// meaningless when there is no outstanding quote (IsQuoted reports
// false).
func (h *Hedger) QuotePrice() float64 { return h.quote.Price() }

// QuoteVolume returns the signed volume of the current outstanding
// quote: positive for a sell, negative for a buy, zero when idle.
func (h *Hedger) QuoteVolume() float64 { return h.quote.Volume() }

// IsQuoted reports whether a non-empty quote is outstanding.
func (h *Hedger) IsQuoted() bool {
	return !h.quote.IsEmptyBar() && !h.quote.IsEmptyVolume()
}

// IsOwnQuoteFilled reports whether the outstanding quote was filled by
// any execution in executionRounds, the list of per-tick execution
// reports produced during the current quarter. An execution (p, v)
// matches the quote iff its price is within machine epsilon of the
// quote price and it shares the quote's side; matching volume is
// consumed across rounds until the outstanding quote volume is met.
func (h *Hedger) IsOwnQuoteFilled(executionRounds [][]lob.Bar) bool {
	if !h.IsQuoted() {
		return false
	}
	target := math.Abs(h.quote.Volume())
	quoteSign := sign(h.quote.Volume())
	consumed := 0.0
	for _, round := range executionRounds {
		for _, exe := range round {
			if consumed >= target-lob.MachineEpsilon {
				return true
			}
			if !exe.Same(h.quote.Price()) {
				continue
			}
			if sign(exe.Volume()) != quoteSign {
				continue
			}
			consumed += math.Abs(exe.Volume())
		}
	}
	return consumed >= target-lob.MachineEpsilon
}

// PostOrder decides whether to (re-)quote given the executions observed
// this quarter, the current book, and t_q - the fraction of the current
// hour elapsed, in [0,1). It returns the zero quote (p=0, v=0, side=0)
// when no quoting action is needed: either the cached delta is
// negligible, or the outstanding quote is already filled (accounted for
// separately by UpdateInventory). Otherwise it records and returns a
// fresh outstanding quote sized to the cached delta's magnitude, with
// aggressiveness scaled by t_q.
func (h *Hedger) PostOrder(executionRounds [][]lob.Bar, book *lob.Book, tQ float64) (float64, float64, domain.Side) {
	if math.Abs(h.delta) < lob.MachineEpsilon {
		return 0, 0, domain.SideNone
	}
	if h.IsQuoted() && h.IsOwnQuoteFilled(executionRounds) {
		return 0, 0, domain.SideNone
	}

	side := domain.SideBid
	if h.delta > 0 {
		side = domain.SideAsk
	}
	v := math.Abs(h.delta)

	ask, bid := book.Ask(), book.Bid()
	spread := ask - bid
	halfSpread := 0.5 * spread
	p := bid
	if side == domain.SideAsk {
		p = ask
	}

	// Aggressiveness bands: the first moves the anchor out by half the
	// spread, the second leaves it at top of book, the third steps back by
	// a quarter of the spread, and the final retreat steps back by the full
	// spread, which lands the quote exactly on the opposite side's touch.
	switch {
	case tQ < 0.25:
		p += float64(side) * halfSpread
	case tQ < 0.5:
		// at top of book, no adjustment
	case tQ < 0.75:
		p -= float64(side) * 0.5 * halfSpread
	default:
		p -= float64(side) * spread
	}

	h.quote = lob.NewBar(p, float64(side)*v)
	return p, v, side
}

// UpdateInventory checks whether executionRounds fills the outstanding
// quote; if so it is booked into stocks (sign flipped, so a sell fill
// contributes a short position and a buy fill a long one) and the quote
// is reset to Idle (volume zeroed, price retained). It is a no-op when
// the quote is not filled by these rounds.
func (h *Hedger) UpdateInventory(executionRounds [][]lob.Bar) {
	if !h.IsOwnQuoteFilled(executionRounds) {
		return
	}
	h.stocks = append(h.stocks, lob.NewBar(h.quote.Price(), -h.quote.Volume()))
	h.quote = lob.NewBar(h.quote.Price(), 0)
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
