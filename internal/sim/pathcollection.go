package sim

import (
	"sync"

	"github.com/efreitasn/microhedger/internal/domain"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/simrand"
	"github.com/google/btree"
)

// PathCollection runs N independent paths seeded off a common base seed
// and reduces their recorded trajectories into the five aggregate
// market-quality metrics described in spec.md §4.7.
type PathCollection struct {
	nPaths             int
	templatePathInfo   PathInfo
	templateRandomInfo simrand.Info

	paths []*Path
}

// NewPathCollection builds a PathCollection of n unrun paths. Path i is
// seeded with templateRandomInfo.Seed + i; every other parameter is
// shared across all paths via a deep copy of templatePathInfo's book.
func NewPathCollection(n int, templatePathInfo PathInfo, templateRandomInfo simrand.Info) *PathCollection {
	paths := make([]*Path, n)
	for i := 0; i < n; i++ {
		ri := templateRandomInfo
		ri.Seed = templateRandomInfo.Seed + int64(i)
		paths[i] = NewPath(templatePathInfo.Clone(), ri)
	}
	return &PathCollection{
		nPaths:             n,
		templatePathInfo:   templatePathInfo,
		templateRandomInfo: templateRandomInfo,
		paths:              paths,
	}
}

// Paths returns the collection's Path values. Valid only after Generate.
func (pc *PathCollection) Paths() []*Path { return pc.paths }

// Generate runs every path to completion. Paths share no mutable state
// once constructed, so they run on a bounded worker pool; output is
// independent of scheduling order because each path's seed is
// deterministic and its result is written to its own fixed slot.
func (pc *PathCollection) Generate() error {
	const maxWorkers = 8
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	errs := make([]error, pc.nPaths)

	for i, p := range pc.paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p *Path) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = p.GenerateOnePath()
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// FindPathsWithStatus returns the indices of paths whose Status equals k.
func (pc *PathCollection) FindPathsWithStatus(k int) []int {
	var out []int
	for i, p := range pc.paths {
		if p.Status() == k {
			out = append(out, i)
		}
	}
	return out
}

// volumePoint is one entry of a per-path, per-side volume trajectory,
// ordered by its quarter-wise sequence number.
type volumePoint struct {
	seq    int
	volume float64
}

func volumePointLess(a, b volumePoint) bool { return a.seq < b.seq }

// LOBVolumeTrajectories returns pathID's total resting volume on side s
// at each recorded quarter-wise book snapshot, in sequence order. It
// supplements spec.md §6's "per-path snapshots for plotting" callers with
// the same accessor original_source/libs/PathCollection.hpp exposes as
// getLOBVolumeTrajectories. Volumes are reported unsigned for asks and
// negated for bids, matching spec.md §4.2's GetTotalVolume convention.
func (pc *PathCollection) LOBVolumeTrajectories(s domain.Side, pathID int) ([]float64, error) {
	if pathID < 0 || pathID >= len(pc.paths) {
		return nil, domain.ErrInvalidArgument
	}
	snapshots := pc.paths[pathID].BookSnapshots()

	tree := btree.NewG[volumePoint](32, volumePointLess)
	for seq, book := range snapshots {
		v, err := book.GetTotalVolume(s)
		if err != nil {
			return nil, err
		}
		if s == domain.SideBid {
			v = -v
		}
		tree.ReplaceOrInsert(volumePoint{seq: seq, volume: v})
	}

	out := make([]float64, 0, tree.Len())
	tree.Ascend(func(pt volumePoint) bool {
		out = append(out, pt.volume)
		return true
	})
	return out, nil
}

// Metrics is the fixed-order five-scalar vector spec.md §4.7 requires:
// failure rate, vol-1 (shock-variance-like), vol-2 (high-low range),
// liquidity-1 (mean bid-ask spread), and price-discovery error. The last
// four are averaged over healthy paths only; a path that failed
// contributes to FailureRate alone.
type Metrics struct {
	FailureRate    float64
	Vol1           float64
	Vol2           float64
	Liquidity1     float64
	PriceDiscovery float64
}

// Vector returns the metrics in the fixed order spec.md §4.7 specifies.
func (m Metrics) Vector() [5]float64 {
	return [5]float64{m.FailureRate, m.Vol1, m.Vol2, m.Liquidity1, m.PriceDiscovery}
}

// CalcLiquidityMetrics reduces every path's recorded trajectory into the
// aggregate Metrics. Healthy-path reductions divide by the number of
// healthy paths; if every path failed they are left at zero rather than
// dividing by zero.
func (pc *PathCollection) CalcLiquidityMetrics() Metrics {
	healthy := pc.FindPathsWithStatus(StatusHealthy)
	m := Metrics{
		FailureRate: 1 - float64(len(healthy))/float64(pc.nPaths),
	}
	if len(healthy) == 0 {
		return m
	}

	var vol1Sum, vol2Sum, liq1Sum, discoverySum float64
	for _, idx := range healthy {
		p := pc.paths[idx]
		vol1Sum += vol1ForPath(p.MidPriceSeries())
		vol2Sum += vol2ForPath(p.MidPriceSeries())

		liq1Sum += liquidity1ForPath(p.BookSnapshots())

		discoverySum += priceDiscoveryForPath(p.MidPriceSeries(), p.FundamentalSeries())
	}

	n := float64(len(healthy))
	m.Vol1 = vol1Sum / n
	m.Vol2 = vol2Sum / n
	m.Liquidity1 = liq1Sum / n
	m.PriceDiscovery = discoverySum / n
	return m
}

// vol1ForPath reproduces spec.md §4.7/§9's preserved quirk verbatim: the
// running mean accumulator is seeded with mid[0] rather than 0, and the
// divisor for the mean is len(midSeries) rather than the number of
// shocks, while the sum of squares runs over shocks (mid[t]-mid[t-1]).
func vol1ForPath(mid []float64) float64 {
	if len(mid) == 0 {
		return 0
	}
	meanAccumulator := mid[0]
	for t := 1; t < len(mid); t++ {
		meanAccumulator += mid[t] - mid[t-1]
	}
	mean := meanAccumulator / float64(len(mid))

	var sumSq float64
	nShocks := 0
	for t := 1; t < len(mid); t++ {
		shock := mid[t] - mid[t-1]
		d := mean - shock
		sumSq += d * d
		nShocks++
	}
	if nShocks == 0 {
		return 0
	}
	return sumSq / float64(nShocks)
}

// vol2ForPath is the high-low range of the mid-price series.
func vol2ForPath(mid []float64) float64 {
	if len(mid) == 0 {
		return 0
	}
	lo, hi := mid[0], mid[0]
	for _, v := range mid[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// liquidity1ForPath averages the bid-ask spread across a path's
// quarter-wise book snapshots.
func liquidity1ForPath(snapshots []*lob.Book) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	var sum float64
	for _, b := range snapshots {
		sum += b.Ask() - b.Bid()
	}
	return sum / float64(len(snapshots))
}

// priceDiscoveryForPath averages the squared deviation of mid from
// fundamental across however many fundamental snapshots were recorded
// (hour-wise), sampling the mid series at the same cadence.
func priceDiscoveryForPath(mid, fundamental []float64) float64 {
	n := len(fundamental)
	if n == 0 || len(mid) == 0 {
		return 0
	}
	step := len(mid) / n
	if step == 0 {
		step = 1
	}
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		idx := (i + 1) * step
		if idx >= len(mid) {
			idx = len(mid) - 1
		}
		d := mid[idx] - fundamental[i]
		sum += d * d
		count++
	}
	return sum / float64(count)
}
