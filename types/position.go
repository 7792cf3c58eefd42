package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTakeProfit   ExitReason = "TAKE_PROFIT"
	ExitReversal     ExitReason = "REVERSAL"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitEmergency    ExitReason = "EMERGENCY_STOP"
	ExitStale        ExitReason = "STALE"
	ExitRunEnd       ExitReason = "RUN_END"
)

// Position is an open simulated trade. It is owned exclusively by the
// position manager while open and mutated once per step with the current
// mark price and peak-gain tracking.
type Position struct {
	ID            uuid.UUID       `json:"id"`
	Instrument    string          `json:"instrument"`
	Direction     Direction       `json:"direction"`
	EntryTime     time.Time       `json:"entryTime"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	CapitalAtRisk decimal.Decimal `json:"capitalAtRisk"`
	Quantity      decimal.Decimal `json:"quantity"`
	StopLoss      decimal.Decimal `json:"stopLoss"`
	TakeProfit    decimal.Decimal `json:"takeProfit"`

	// UnrealizedPnL and PeakGain are refreshed every step while open.
	// PeakGain is the best unrealized return seen so far, as a fraction
	// of CapitalAtRisk.
	UnrealizedPnL decimal.Decimal `json:"unrealizedPnL"`
	PeakGain      float64         `json:"peakGain"`

	Origin Signal `json:"origin"`
}

// ClosedTrade is the immutable record emitted exactly once when a
// position reaches a terminal state.
type ClosedTrade struct {
	ID            uuid.UUID       `json:"id"`
	Instrument    string          `json:"instrument"`
	Direction     Direction       `json:"direction"`
	EntryTime     time.Time       `json:"entryTime"`
	ExitTime      time.Time       `json:"exitTime"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	ExitPrice     decimal.Decimal `json:"exitPrice"`
	Quantity      decimal.Decimal `json:"quantity"`
	CapitalAtRisk decimal.Decimal `json:"capitalAtRisk"`
	ExitReason    ExitReason      `json:"exitReason"`
	GrossPnL      decimal.Decimal `json:"grossPnL"`
	NetPnL        decimal.Decimal `json:"netPnL"`
	Commission    decimal.Decimal `json:"commission"`
	ReturnPct     float64         `json:"returnPct"`
	HoldingPeriod time.Duration   `json:"holdingPeriod"`
}
