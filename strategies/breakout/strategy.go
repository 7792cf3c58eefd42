// Package breakout implements a Donchian-channel breakout signal
// source: go long on a break of the highest high of the preceding
// channel window, short on a break of the lowest low, with ATR-scaled
// trade levels.
package breakout

import (
	"github.com/shopspring/decimal"

	"tradesim/types"
)

type Strategy struct {
	// Channel is the lookback window for the high/low channel, ATR the
	// true-range smoothing window.
	Channel int
	ATR     int

	// Confidence assigned to emitted signals; the engine filters on its
	// own minimum.
	Confidence float64

	// StopMult and TargetMult scale ATR into stop-loss and take-profit
	// distances.
	StopMult   float64
	TargetMult float64
}

func New() *Strategy {
	return &Strategy{
		Channel:    20,
		ATR:        14,
		Confidence: 0.8,
		StopMult:   2.0,
		TargetMult: 4.0,
	}
}

func (s *Strategy) Warmup() int {
	if s.Channel > s.ATR {
		return s.Channel + 1
	}
	return s.ATR + 1
}

func (s *Strategy) OnCandles(history []types.Candle) (types.Signal, bool) {
	if len(history) < s.Warmup() {
		return types.Signal{}, false
	}

	cur := history[len(history)-1]
	// Channel over the completed candles, excluding the current one.
	window := history[len(history)-1-s.Channel : len(history)-1]
	highest, lowest := channelHighLow(window)

	atr := calcATR(history, s.ATR)
	if atr.IsZero() {
		return types.Signal{}, false
	}
	stopDist := atr.Mul(decimal.NewFromFloat(s.StopMult))
	targetDist := atr.Mul(decimal.NewFromFloat(s.TargetMult))

	if cur.High.GreaterThan(highest) {
		return types.Signal{
			Action:      types.ActionLong,
			Confidence:  s.Confidence,
			EntryPrice:  cur.Close,
			StopLoss:    cur.Close.Sub(stopDist),
			TakeProfits: []decimal.Decimal{cur.Close.Add(targetDist)},
			RiskReward:  s.TargetMult / s.StopMult,
		}, true
	}
	if cur.Low.LessThan(lowest) {
		return types.Signal{
			Action:      types.ActionShort,
			Confidence:  s.Confidence,
			EntryPrice:  cur.Close,
			StopLoss:    cur.Close.Add(stopDist),
			TakeProfits: []decimal.Decimal{cur.Close.Sub(targetDist)},
			RiskReward:  s.TargetMult / s.StopMult,
		}, true
	}
	return types.Signal{}, false
}

func channelHighLow(candles []types.Candle) (decimal.Decimal, decimal.Decimal) {
	highest := candles[0].High
	lowest := candles[0].Low
	for _, c := range candles[1:] {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		if c.Low.LessThan(lowest) {
			lowest = c.Low
		}
	}
	return highest, lowest
}

// calcATR is a simple moving average of the true range over the last
// period candles.
func calcATR(history []types.Candle, period int) decimal.Decimal {
	if len(history) < period+1 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for i := len(history) - period; i < len(history); i++ {
		cur, prev := history[i], history[i-1]
		tr := cur.High.Sub(cur.Low)
		if hc := cur.High.Sub(prev.Close).Abs(); hc.GreaterThan(tr) {
			tr = hc
		}
		if lc := cur.Low.Sub(prev.Close).Abs(); lc.GreaterThan(tr) {
			tr = lc
		}
		sum = sum.Add(tr)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
