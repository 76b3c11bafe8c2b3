// Package option implements closed-form greeks for the option legs held
// by the hedger.
package option

import (
	"fmt"
	"math"

	"github.com/efreitasn/microhedger/internal/domain"
)

// Leg is a single option position: a kind, its inception and maturity
// times, a strike, and a signed position multiplier. Greeks scale
// linearly in position. A Leg is immutable after construction.
type Leg struct {
	Kind       domain.OptionKind
	TInception float64
	TMaturity  float64
	Strike     float64
	Position   float64
}

// NewStraddle constructs a STRADDLE leg maturing at tMaturity with the
// given strike and signed position.
func NewStraddle(tInception, tMaturity, strike, position float64) Leg {
	return Leg{
		Kind:       domain.Straddle,
		TInception: tInception,
		TMaturity:  tMaturity,
		Strike:     strike,
		Position:   position,
	}
}

// Delta returns the leg's delta under a normal-diffusion spot model with
// implied volatility vol (in price units), evaluated at spot with tau =
// TMaturity - t remaining. Only Straddle is implemented; any other kind
// fails with ErrUnsupported.
func (l Leg) Delta(vol, spot, t float64) (float64, error) {
	if l.Kind != domain.Straddle {
		return 0, fmt.Errorf("option kind %v: %w", l.Kind, domain.ErrUnsupported)
	}
	tau := l.TMaturity - t
	d := (spot - l.Strike) / vol / math.Sqrt(tau)
	return l.Position * (2*normalCDF(d) - 1), nil
}

// Gamma returns the leg's gamma. The formula is reproduced exactly as
// specified: it multiplies by (spot - strike) and so vanishes at the
// money rather than peaking there, unlike textbook option gamma. This is
// preserved verbatim for compatibility and is not a textbook gamma.
func (l Leg) Gamma(vol, spot, t float64) (float64, error) {
	if l.Kind != domain.Straddle {
		return 0, fmt.Errorf("option kind %v: %w", l.Kind, domain.ErrUnsupported)
	}
	tau := l.TMaturity - t
	invVolSqrtTau := 1.0 / vol / math.Sqrt(tau)
	x := (spot - l.Strike) * invVolSqrtTau
	gamma := 2 * normalPDF(x) * invVolSqrtTau / spot
	return l.Position * gamma * (spot - l.Strike), nil
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normalPDF is the standard normal probability density function.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
