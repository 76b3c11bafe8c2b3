package sim

import (
	"errors"

	"github.com/efreitasn/microhedger/internal/domain"
	"github.com/efreitasn/microhedger/internal/hedger"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/simrand"
)

// StatusHealthy and StatusFailed are the two values a Path's Status can
// take: a path either ran to completion or was aborted by a one-sided
// market collapse (ErrLiquidityCrisis).
const (
	StatusHealthy = 0
	StatusFailed  = -1
)

// Path is one simulated trajectory: the nested day/hour/quarter/tick loop
// that drives a working Book and a Hedger together, and the snapshot
// series recorded along the way. A Path is run once, by GenerateOnePath,
// and its snapshot slices are read-only afterward.
type Path struct {
	info    PathInfo
	randInf simrand.Info

	status int
	hedger *hedger.Hedger
	rand   *simrand.Driver

	bookSnapshots     []*lob.Book // quarter-wise
	midPriceSeries    []float64   // tick-wise
	fundamentalSeries []float64   // hour-wise
	hedgerDeltaSeries []float64   // hour-wise
	hedgerGammaSeries []float64   // hour-wise
}

// NewPath constructs an unrun Path from its shared configuration and a
// random driver already seeded for this path's index.
func NewPath(info PathInfo, randInfo simrand.Info) *Path {
	return &Path{
		info:    info,
		randInf: randInfo,
		hedger:  hedger.New(info.HedgerOptionPosition, info.HedgerImpliedVolatility),
		rand:    simrand.New(randInfo),
	}
}

// Status returns StatusHealthy or StatusFailed.
func (p *Path) Status() int { return p.status }

// BookSnapshots returns the quarter-wise book copies recorded during the
// run.
func (p *Path) BookSnapshots() []*lob.Book { return p.bookSnapshots }

// MidPriceSeries returns the tick-wise mid-price trajectory.
func (p *Path) MidPriceSeries() []float64 { return p.midPriceSeries }

// FundamentalSeries returns the hour-wise fundamental-price trajectory.
func (p *Path) FundamentalSeries() []float64 { return p.fundamentalSeries }

// HedgerDeltaSeries returns the hour-wise portfolio delta trajectory.
func (p *Path) HedgerDeltaSeries() []float64 { return p.hedgerDeltaSeries }

// HedgerGammaSeries returns the hour-wise portfolio gamma trajectory.
func (p *Path) HedgerGammaSeries() []float64 { return p.hedgerGammaSeries }

// GenerateOnePath runs the full day/hour/quarter/tick loop described in
// spec.md §4.6. A book operation that signals ErrLiquidityCrisis aborts
// the path: status is set to StatusFailed and the loops terminate early,
// leaving whatever partial state was recorded readable. Every other
// error propagates to the caller.
func (p *Path) GenerateOnePath() error {
	lastBook := p.info.InitialBook.Clone()
	lastBook.SetSafetyCheck(true)
	fundamental := p.info.InitialFundamental

	for day := 0; day < p.info.NDays; day++ {
		if err := p.hedger.ResetGammaContract(float64(day), lastBook); err != nil {
			if p.abortOnCrisis(err) {
				return nil
			}
			return err
		}

		for hour := 0; hour < p.info.NHours; hour++ {
			fundamentalHour := fundamental

			for quarter := 0; quarter < p.info.NQuarters; quarter++ {
				currBook := lastBook.Clone()

				nTicks := p.rand.NumOrders()
				executions := make([][]lob.Bar, 0, nTicks)
				for tick := 0; tick < nTicks; tick++ {
					if err := currBook.DecayOrdersDefault(); err != nil {
						if p.abortOnCrisis(err) {
							return nil
						}
						return err
					}
					kind, price, volume, side := p.rand.GenerateOrder(currBook.Mid(), fundamentalHour)
					exe, err := currBook.AbsorbGeneralOrder(kind, price, volume, side)
					if err != nil {
						if p.abortOnCrisis(err) {
							return nil
						}
						return err
					}
					executions = append(executions, exe)
					p.midPriceSeries = append(p.midPriceSeries, currBook.Mid())
				}

				filled := p.hedger.IsOwnQuoteFilled(executions)
				if !filled {
					quoteSide := domain.Side(domain.Sign(p.hedger.QuoteVolume()))
					if quoteSide != domain.SideNone {
						if err := currBook.CancelLimitOrder(quoteSide, p.hedger.QuotePrice(), absFloat(p.hedger.QuoteVolume())); err != nil {
							if p.abortOnCrisis(err) {
								return nil
							}
							return err
						}
					}
					hp, hv, hs := p.hedger.PostOrder(executions, currBook, float64(quarter)/float64(p.info.NQuarters))
					fill, err := currBook.AbsorbGeneralOrder(domain.Limit, hp, hv, hs)
					if err != nil {
						if p.abortOnCrisis(err) {
							return nil
						}
						return err
					}
					p.hedger.UpdateInventory([][]lob.Bar{fill})
				} else {
					p.hedger.UpdateInventory(executions)
				}

				lastBook = currBook
				p.bookSnapshots = append(p.bookSnapshots, currBook)
			}

			p.fundamentalSeries = append(p.fundamentalSeries, fundamental)
			fundamental = p.rand.ShockedPrice(fundamentalHour)

			t := float64(day) + float64(hour+1)/float64(p.info.NHours)
			if err := p.hedger.RecalcGreeks(t, lastBook); err != nil {
				if p.abortOnCrisis(err) {
					return nil
				}
				return err
			}
			p.hedgerDeltaSeries = append(p.hedgerDeltaSeries, p.hedger.CachedDelta())
			p.hedgerGammaSeries = append(p.hedgerGammaSeries, p.hedger.CachedGamma())
		}
	}
	return nil
}

// abortOnCrisis recovers exactly ErrLiquidityCrisis by marking the path
// failed; any other error is left for the caller to propagate.
func (p *Path) abortOnCrisis(err error) bool {
	if errors.Is(err, domain.ErrLiquidityCrisis) {
		p.status = StatusFailed
		return true
	}
	return false
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
