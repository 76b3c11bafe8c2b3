// Package sim implements the path-level and path-collection-level
// simulation: the nested day/hour/quarter/tick loop that drives a Book
// and a Hedger together, the per-path snapshot trajectories it records,
// and the aggregate market-quality metrics computed across many paths.
package sim

import (
	"github.com/efreitasn/microhedger/internal/domain"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/simrand"
)

// PathInfo is the shared, non-random configuration of one simulated
// path: the calendar shape (days/hours/quarters), the starting
// fundamental value, the starting book (its decay coefficient, if any,
// travels with it), and the hedger's static parameters.
type PathInfo struct {
	NDays                   int
	NHours                  int
	NQuarters               int
	InitialFundamental      float64
	InitialBook             *lob.Book
	HedgerOptionPosition    float64
	HedgerImpliedVolatility float64
}

// Clone returns a PathInfo with its own deep copy of InitialBook, so
// the original template is unaffected by a path that mutates its
// working book.
func (p PathInfo) Clone() PathInfo {
	c := p
	if p.InitialBook != nil {
		c.InitialBook = p.InitialBook.Clone()
	}
	return c
}

// GenerateScenarios clones template once per value in values, overriding
// the single field named by param in each clone. Unsupported Parameter
// values fail with ErrInvalidArgument.
func GenerateScenarios(template PathInfo, randTemplate simrand.Info, param domain.Parameter, values []float64) ([]PathInfo, []simrand.Info, error) {
	pathInfos := make([]PathInfo, len(values))
	randInfos := make([]simrand.Info, len(values))

	for i, v := range values {
		pi := template.Clone()
		ri := randTemplate

		switch param {
		case domain.NDays:
			pi.NDays = int(v)
		case domain.NHours:
			pi.NHours = int(v)
		case domain.NQuarters:
			pi.NQuarters = int(v)
		case domain.IniFundamental:
			pi.InitialFundamental = v
		case domain.HedgerOptionPosition:
			pi.HedgerOptionPosition = v
		case domain.HedgerImpliedVolatility:
			pi.HedgerImpliedVolatility = v
		case domain.RandomSeed:
			ri.Seed = int64(v)
		case domain.VolatilityFundamental:
			ri.VolNews = v
		case domain.OrderIntensity:
			ri.OrderIntensity = v
		case domain.ProbLimitOrder:
			ri.ProbLimit = v
		case domain.ProbInformed:
			ri.ProbInformed = v
		case domain.ProbBuy:
			ri.ProbSign = v
		case domain.VolumeMin:
			ri.VolMin = v
		case domain.VolumeMax:
			ri.VolMax = v
		case domain.SpreadMean:
			ri.MeanSpread = v
		case domain.SpreadVolatility:
			ri.VolSpread = v
		case domain.IniLOBVolume, domain.IniLOBDecay:
			return nil, nil, errUnsupportedParameter(param)
		default:
			return nil, nil, errUnsupportedParameter(param)
		}

		pathInfos[i] = pi
		randInfos[i] = ri
	}
	return pathInfos, randInfos, nil
}
