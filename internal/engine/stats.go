package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"tradesim/types"
)

// statsAggregator keeps the per-run counters incrementally, one update
// per closed trade, so the batch and live paths share the exact same
// accounting. Nothing here looks back at the full trade history.
type statsAggregator struct {
	breakevenBand float64
	st            types.TradeStats
}

func newStatsAggregator(breakevenBand float64) *statsAggregator {
	return &statsAggregator{breakevenBand: breakevenBand}
}

func (a *statsAggregator) observe(t types.ClosedTrade) {
	st := &a.st
	st.TotalTrades++
	st.TotalCommission = st.TotalCommission.Add(t.Commission)

	// Incremental mean keeps the holding period cheap to maintain over
	// arbitrarily long runs.
	delta := t.HoldingPeriod - st.AvgHoldingPeriod
	st.AvgHoldingPeriod += time.Duration(int64(delta) / int64(st.TotalTrades))

	if t.Direction == types.DirectionLong {
		st.LongTrades++
	} else {
		st.ShortTrades++
	}

	switch classify(t, a.breakevenBand) {
	case outcomeWin:
		st.WinningTrades++
		st.TotalProfit = st.TotalProfit.Add(t.NetPnL)
		if t.NetPnL.GreaterThan(st.LargestWin) {
			st.LargestWin = t.NetPnL
		}
		if t.Direction == types.DirectionLong {
			st.LongWins++
		} else {
			st.ShortWins++
		}
		st.CurrentWinStreak++
		st.CurrentLossStreak = 0
		if st.CurrentWinStreak > st.MaxWinStreak {
			st.MaxWinStreak = st.CurrentWinStreak
		}
	case outcomeLoss:
		st.LosingTrades++
		st.TotalLoss = st.TotalLoss.Add(t.NetPnL.Abs())
		if t.NetPnL.LessThan(st.LargestLoss) {
			st.LargestLoss = t.NetPnL
		}
		st.CurrentLossStreak++
		st.CurrentWinStreak = 0
		if st.CurrentLossStreak > st.MaxLossStreak {
			st.MaxLossStreak = st.CurrentLossStreak
		}
	default:
		st.BreakevenTrades++
		st.CurrentWinStreak = 0
		st.CurrentLossStreak = 0
	}
}

// snapshot fills in the derived fields and returns a copy.
func (a *statsAggregator) snapshot() types.TradeStats {
	st := a.st
	if st.TotalTrades > 0 {
		st.WinRate = float64(st.WinningTrades) / float64(st.TotalTrades)
	}
	if st.WinningTrades > 0 {
		st.AvgWin = st.TotalProfit.Div(decimal.NewFromInt(int64(st.WinningTrades)))
	}
	if st.LosingTrades > 0 {
		st.AvgLoss = st.TotalLoss.Div(decimal.NewFromInt(int64(st.LosingTrades)))
	}

	avgWin, _ := st.AvgWin.Float64()
	avgLoss, _ := st.AvgLoss.Float64()
	st.Expectancy = st.WinRate*avgWin - (1-st.WinRate)*avgLoss
	return st
}

type outcome int

const (
	outcomeBreakeven outcome = iota
	outcomeWin
	outcomeLoss
)

// classify buckets a trade by net PnL. The band widens the breakeven
// bucket to ±band×capitalAtRisk; a zero band means exact zero only.
func classify(t types.ClosedTrade, band float64) outcome {
	if band > 0 && t.CapitalAtRisk.IsPositive() {
		tolerance := t.CapitalAtRisk.Mul(decimal.NewFromFloat(band))
		if t.NetPnL.Abs().LessThanOrEqual(tolerance) {
			return outcomeBreakeven
		}
	}
	switch {
	case t.NetPnL.IsPositive():
		return outcomeWin
	case t.NetPnL.IsNegative():
		return outcomeLoss
	default:
		return outcomeBreakeven
	}
}
