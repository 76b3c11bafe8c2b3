// Package simrand implements the seeded stochastic order-flow generator
// that drives book mutation in a simulated path.
package simrand

import (
	"math"
	"math/rand/v2"

	"github.com/efreitasn/microhedger/internal/domain"
)

// Info configures a Driver. All probabilities are expected in [0,1];
// VolMin must be <= VolMax.
type Info struct {
	Seed           int64
	VolNews        float64
	OrderIntensity float64
	ProbLimit      float64
	ProbInformed   float64
	VolMin         float64
	VolMax         float64
	MeanSpread     float64
	VolSpread      float64
	ProbSign       float64
}

// Driver is a seeded source of news shocks, order counts, order types,
// and informed/uninformed order specs. Two Drivers built from identical
// Info values produce identical output sequences across ShockedPrice,
// NumOrders, and GenerateOrder (see package simrand tests).
type Driver struct {
	info Info
	rng  *rand.Rand
}

// New constructs a Driver deterministically seeded from info.Seed. The
// underlying generator is math/rand/v2's PCG source: unlike the original
// engine's <random> distributions (implementation-defined across C++
// standard libraries), this gives byte-for-byte reproducibility across
// Go toolchains for a fixed seed, which is what the determinism property
// in spec §8 actually requires.
func New(info Info) *Driver {
	seed := uint64(info.Seed)
	return &Driver{
		info: info,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

// ShockedPrice returns p plus a normal(0, VolNews) news shock.
func (d *Driver) ShockedPrice(p float64) float64 {
	return p + d.normal(0, d.info.VolNews)
}

// NumOrders draws a Poisson(OrderIntensity)-distributed order count for
// one quarter.
func (d *Driver) NumOrders() int {
	return d.poisson(d.info.OrderIntensity)
}

// GenerateOrder draws one exogenous order. mid is the book's current
// mid price (used as the uninformed reference price); fundamental is the
// current fundamental price (used as the informed reference price and,
// for informed market orders, to decide the trading direction).
func (d *Driver) GenerateOrder(mid, fundamental float64) (kind domain.OrderKind, price, volume float64, side domain.Side) {
	if d.bernoulli(d.info.ProbLimit) {
		kind = domain.Limit
	} else {
		kind = domain.Market
	}
	volume = d.uniform(d.info.VolMin, d.info.VolMax)
	informed := d.bernoulli(d.info.ProbInformed)

	switch kind {
	case domain.Market:
		if informed {
			// Sell when the book trades above fundamental value, buy
			// when it trades below.
			if mid > fundamental {
				side = domain.SideAsk
			} else {
				side = domain.SideBid
			}
		} else {
			side = d.sideFromBernoulli()
		}
	case domain.Limit:
		side = d.sideFromBernoulli()
		reference := mid
		if informed {
			reference = fundamental
		}
		price = reference + float64(side)*d.normal(d.info.MeanSpread, d.info.VolSpread)
	}
	return kind, price, volume, side
}

func (d *Driver) sideFromBernoulli() domain.Side {
	if d.bernoulli(d.info.ProbSign) {
		return domain.SideAsk
	}
	return domain.SideBid
}

func (d *Driver) normal(mean, stddev float64) float64 {
	if stddev == 0 {
		return mean
	}
	return mean + d.rng.NormFloat64()*stddev
}

func (d *Driver) uniform(lo, hi float64) float64 {
	if lo == hi {
		return lo
	}
	return lo + d.rng.Float64()*(hi-lo)
}

func (d *Driver) bernoulli(p float64) bool {
	return d.rng.Float64() < p
}

// poisson draws from a Poisson(lambda) distribution using Knuth's
// multiplicative algorithm, adequate for the small arrival intensities a
// quarter's order count is drawn from.
func (d *Driver) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= d.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
