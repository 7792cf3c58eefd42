// Package montecarlo characterizes sequencing risk by replaying a fixed
// set of realized trade outcomes in random order. The outcome multiset
// never changes, so final capital is order-invariant; only the drawdown
// path depends on ordering.
package montecarlo

import (
	"context"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tradesim/types"
)

type Config struct {
	// Simulations is the number of independent resamples.
	Simulations int

	// Seed makes the whole analysis reproducible. Resample i draws from
	// its own generator seeded with Seed+i, so parallel resamples stay
	// uncorrelated.
	Seed int64

	// DrawdownThreshold feeds the probability-of-drawdown-exceeding
	// output, as a fraction (0.20 = 20%).
	DrawdownThreshold float64

	// Parallel limits concurrent resamples; <=0 picks a sane default.
	Parallel int
}

// Distribution holds the percentile bands of one sampled quantity.
type Distribution struct {
	Min float64 `json:"min"`
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
	Max float64 `json:"max"`
}

type Result struct {
	Simulations       int          `json:"simulations"`
	Trades            int          `json:"trades"`
	FinalCapital      Distribution `json:"finalCapital"`
	ReturnPct         Distribution `json:"returnPct"`
	MaxDrawdown       Distribution `json:"maxDrawdown"`
	ProbProfit        float64      `json:"probProfit"`
	ProbDrawdownAbove float64      `json:"probDrawdownAbove"`
}

// Resample permutes the trade outcomes Simulations times and replays the
// equity path for each ordering. An empty trade list yields a degenerate
// zero-valued result. Cancelling ctx stops between resamples and the
// distributions cover the completed resamples only.
func Resample(ctx context.Context, cfg Config, trades []types.ClosedTrade, initialCapital decimal.Decimal) Result {
	pnls := make([]decimal.Decimal, len(trades))
	for i, t := range trades {
		pnls[i] = t.NetPnL
	}
	return ResamplePnL(ctx, cfg, pnls, initialCapital)
}

// ResamplePnL is Resample over raw net PnL values.
func ResamplePnL(ctx context.Context, cfg Config, pnls []decimal.Decimal, initialCapital decimal.Decimal) Result {
	if cfg.Simulations <= 0 {
		cfg.Simulations = 1000
	}
	res := Result{Trades: len(pnls)}
	if len(pnls) == 0 {
		return res
	}

	finals := make([]float64, cfg.Simulations)
	returns := make([]float64, cfg.Simulations)
	drawdowns := make([]float64, cfg.Simulations)
	completed := make([]bool, cfg.Simulations)

	limit := cfg.Parallel
	if limit <= 0 {
		limit = 8
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	initial, _ := initialCapital.Float64()
	for i := 0; i < cfg.Simulations; i++ {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			final, maxDD := replay(pnls, initialCapital, rng)

			f, _ := final.Float64()
			finals[i] = f
			if initial > 0 {
				returns[i] = (f - initial) / initial
			}
			drawdowns[i] = maxDD
			completed[i] = true
			return nil
		})
	}
	// Workers only return nil; Wait is a join point, not an error source.
	_ = g.Wait()

	var fs, rs, ds []float64
	for i := range completed {
		if completed[i] {
			fs = append(fs, finals[i])
			rs = append(rs, returns[i])
			ds = append(ds, drawdowns[i])
		}
	}
	if len(fs) == 0 {
		return res
	}

	res.Simulations = len(fs)
	res.FinalCapital = distributionOf(fs)
	res.ReturnPct = distributionOf(rs)
	res.MaxDrawdown = distributionOf(ds)

	profitable, exceeded := 0, 0
	for i := range fs {
		if fs[i] > initial {
			profitable++
		}
		if cfg.DrawdownThreshold > 0 && ds[i] > cfg.DrawdownThreshold {
			exceeded++
		}
	}
	res.ProbProfit = float64(profitable) / float64(len(fs))
	res.ProbDrawdownAbove = float64(exceeded) / float64(len(ds))
	return res
}

// replay walks one random ordering of the outcomes and tracks the
// deterministic equity path. Decimal addition is exact, so the final
// capital is identical for every permutation of the same multiset.
func replay(pnls []decimal.Decimal, initialCapital decimal.Decimal, rng *rand.Rand) (decimal.Decimal, float64) {
	order := rng.Perm(len(pnls))

	equity := initialCapital
	peak := initialCapital
	maxDD := 0.0
	for _, idx := range order {
		equity = equity.Add(pnls[idx])
		if equity.GreaterThan(peak) {
			peak = equity
		} else if peak.IsPositive() {
			dd, _ := peak.Sub(equity).Div(peak).Float64()
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return equity, maxDD
}

func distributionOf(xs []float64) Distribution {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return Distribution{
		Min: sorted[0],
		P5:  percentile(sorted, 5),
		P25: percentile(sorted, 25),
		P50: percentile(sorted, 50),
		P75: percentile(sorted, 75),
		P95: percentile(sorted, 95),
		Max: sorted[len(sorted)-1],
	}
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
