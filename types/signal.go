package types

import (
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionHold  Action = "HOLD"
)

// Signal is what a signal source emits for one step. Confidence is in
// [0,1]. TakeProfits holds up to three levels; the first one is the
// active target. A signal without usable trade levels is never acted on.
type Signal struct {
	Action      Action            `json:"action"`
	Confidence  float64           `json:"confidence"`
	EntryPrice  decimal.Decimal   `json:"entryPrice"`
	StopLoss    decimal.Decimal   `json:"stopLoss"`
	TakeProfits []decimal.Decimal `json:"takeProfits"`
	RiskReward  float64           `json:"riskReward"`
}

// Tradeable reports whether the signal carries the levels required to
// open a position.
func (s Signal) Tradeable() bool {
	if s.Action != ActionLong && s.Action != ActionShort {
		return false
	}
	if s.StopLoss.IsZero() || len(s.TakeProfits) == 0 || s.TakeProfits[0].IsZero() {
		return false
	}
	return !s.EntryPrice.IsZero()
}

func (s Signal) Direction() Direction {
	if s.Action == ActionShort {
		return DirectionShort
	}
	return DirectionLong
}
