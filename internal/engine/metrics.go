package engine

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"tradesim/types"
)

// profitFactorNoLosses is reported when a run has profit but not a
// single losing trade, so the ratio stays finite and recognizable.
const profitFactorNoLosses = 999.0

// computeRiskMetrics derives the risk-adjusted metrics from the closed
// trade list and the equity curve. Metric groups are independent, so
// they run concurrently. Every degenerate ratio resolves to zero.
// Total return comes from the realized final capital, not the curve's
// last point, so it agrees with the post-liquidation summary fields.
func computeRiskMetrics(trades []types.ClosedTrade, curve []types.EquityPoint, initialCapital, finalCapital decimal.Decimal, cfg Config) types.RiskMetrics {
	var m types.RiskMetrics

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		returns := periodicReturns(curve, cfg.ResampleEvery)
		m.Sharpe = sharpeRatio(returns, cfg.PeriodsPerYear)
		m.Sortino = sortinoRatio(returns, cfg.PeriodsPerYear)
	}()
	go func() {
		defer wg.Done()
		m.MaxDrawdown, m.DrawdownDuration = maxDrawdownOf(curve)
	}()
	go func() {
		defer wg.Done()
		m.MaxWinStreak, m.MaxLossStreak = streaks(trades)
		m.ProfitFactor, m.RiskOfRuin = tradeRatios(trades)
	}()
	wg.Wait()

	if initialCapital.IsPositive() {
		m.TotalReturnPct, _ = finalCapital.Sub(initialCapital).Div(initialCapital).Float64()
	}
	if m.MaxDrawdown > 0 {
		m.Calmar = m.TotalReturnPct / m.MaxDrawdown
		profit, _ := totalNetPnL(trades).Float64()
		denom, _ := initialCapital.Float64()
		if denom > 0 {
			m.RecoveryFactor = profit / (m.MaxDrawdown * denom)
		}
	}
	return m
}

// periodicReturns resamples the equity curve at a fixed step cadence and
// returns the simple returns between consecutive samples. The cadence
// approximates daily returns from finer-grained steps.
func periodicReturns(curve []types.EquityPoint, every int) []float64 {
	if every < 1 {
		every = 1
	}
	if len(curve) < 2 {
		return nil
	}

	var out []float64
	prev := curve[0].Equity
	for i := every; i < len(curve); i += every {
		cur := curve[i].Equity
		if prev.IsPositive() {
			r, _ := cur.Sub(prev).Div(prev).Float64()
			out = append(out, r)
		}
		prev = cur
	}
	return out
}

func sharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdDev(returns, mean)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(periodsPerYear)
}

// sortinoRatio penalizes only downside deviation: the stddev is taken
// over the negative periodic returns alone.
func sortinoRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	dd := stdDev(downside, meanOf(downside))
	if dd == 0 {
		return 0
	}
	return meanOf(returns) / dd * math.Sqrt(periodsPerYear)
}

// tradeRatios computes profit factor and the risk-of-ruin heuristic.
// Risk of ruin is the simplified binary-outcome form
// ((1−w)/w)^(avgWin/|avgLoss|) × 100 clipped to [0,100]; it is a rough
// indicator, not a rigorous ruin probability.
func tradeRatios(trades []types.ClosedTrade) (profitFactor, riskOfRuin float64) {
	wins, losses := 0, 0
	sumWin, sumLoss := decimal.Zero, decimal.Zero
	for _, t := range trades {
		switch {
		case t.NetPnL.IsPositive():
			wins++
			sumWin = sumWin.Add(t.NetPnL)
		case t.NetPnL.IsNegative():
			losses++
			sumLoss = sumLoss.Add(t.NetPnL.Abs())
		}
	}

	switch {
	case sumLoss.IsZero() && sumWin.IsPositive():
		profitFactor = profitFactorNoLosses
	case sumLoss.IsPositive():
		pf, _ := sumWin.Div(sumLoss).Float64()
		profitFactor = pf
	}

	total := wins + losses
	if total == 0 {
		return profitFactor, 0
	}
	winRate := float64(wins) / float64(total)
	switch {
	case winRate == 0:
		riskOfRuin = 100
	case winRate == 1 || losses == 0:
		riskOfRuin = 0
	default:
		avgWin, _ := sumWin.Div(decimal.NewFromInt(int64(wins))).Float64()
		avgLoss, _ := sumLoss.Div(decimal.NewFromInt(int64(losses))).Float64()
		if avgLoss == 0 {
			return profitFactor, 0
		}
		riskOfRuin = math.Pow((1-winRate)/winRate, avgWin/avgLoss) * 100
		riskOfRuin = math.Min(100, math.Max(0, riskOfRuin))
	}
	return profitFactor, riskOfRuin
}

// streaks recomputes win/loss streak lengths over the full trade list.
// Intentionally independent of the incremental counters so the two
// reporting paths can be checked against each other.
func streaks(trades []types.ClosedTrade) (maxWin, maxLoss int) {
	curWin, curLoss := 0, 0
	for _, t := range trades {
		switch {
		case t.NetPnL.IsPositive():
			curWin++
			curLoss = 0
			if curWin > maxWin {
				maxWin = curWin
			}
		case t.NetPnL.IsNegative():
			curLoss++
			curWin = 0
			if curLoss > maxLoss {
				maxLoss = curLoss
			}
		default:
			curWin, curLoss = 0, 0
		}
	}
	return maxWin, maxLoss
}

func totalNetPnL(trades []types.ClosedTrade) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range trades {
		sum = sum.Add(t.NetPnL)
	}
	return sum
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the sample standard deviation.
func stdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var varianceSum float64
	for _, x := range xs {
		diff := x - mean
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(xs)-1))
}
