package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EquityPoint is one sample of the mark-to-market equity curve. Exactly
// one point is appended per processed step, plus a seed point at step 0.
type EquityPoint struct {
	Step   int             `json:"step"`
	Equity decimal.Decimal `json:"equity"`
}

// Summary is the headline view of a run. Money fields are rounded to
// two decimal places; the full-precision accumulators stay internal to
// the simulation.
type Summary struct {
	InitialCapital decimal.Decimal `json:"initialCapital"`
	FinalCapital   decimal.Decimal `json:"finalCapital"`
	NetProfit      decimal.Decimal `json:"netProfit"`
	ReturnPct      float64         `json:"returnPct"`
	TotalTrades    int             `json:"totalTrades"`
	WinRate        float64         `json:"winRate"`
	ProfitFactor   float64         `json:"profitFactor"`
	MaxDrawdown    float64         `json:"maxDrawdown"`
	Sharpe         float64         `json:"sharpe"`
}

// TradeStats holds the incremental per-run counters maintained by the
// statistics aggregator, one update per closed trade.
type TradeStats struct {
	TotalTrades     int `json:"totalTrades"`
	WinningTrades   int `json:"winningTrades"`
	LosingTrades    int `json:"losingTrades"`
	BreakevenTrades int `json:"breakevenTrades"`

	LongTrades  int `json:"longTrades"`
	LongWins    int `json:"longWins"`
	ShortTrades int `json:"shortTrades"`
	ShortWins   int `json:"shortWins"`

	LargestWin  decimal.Decimal `json:"largestWin"`
	LargestLoss decimal.Decimal `json:"largestLoss"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	TotalLoss   decimal.Decimal `json:"totalLoss"`

	CurrentWinStreak  int `json:"currentWinStreak"`
	CurrentLossStreak int `json:"currentLossStreak"`
	MaxWinStreak      int `json:"maxWinStreak"`
	MaxLossStreak     int `json:"maxLossStreak"`

	TotalCommission  decimal.Decimal `json:"totalCommission"`
	AvgHoldingPeriod time.Duration   `json:"avgHoldingPeriod"`

	WinRate    float64         `json:"winRate"`
	AvgWin     decimal.Decimal `json:"avgWin"`
	AvgLoss    decimal.Decimal `json:"avgLoss"`
	Expectancy float64         `json:"expectancy"`
}

// RiskMetrics are derived from the equity curve and the closed-trade
// list after a run completes. Degenerate ratios resolve to zero, never
// to NaN.
type RiskMetrics struct {
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	Calmar           float64 `json:"calmar"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	DrawdownDuration int     `json:"drawdownDuration"`
	RecoveryFactor   float64 `json:"recoveryFactor"`
	RiskOfRuin       float64 `json:"riskOfRuin"`
	ProfitFactor     float64 `json:"profitFactor"`
	TotalReturnPct   float64 `json:"totalReturnPct"`
	MaxWinStreak     int     `json:"maxWinStreak"`
	MaxLossStreak    int     `json:"maxLossStreak"`
}

// RunSettings is the configuration snapshot stored with every result so
// a run stays reproducible after the fact.
type RunSettings struct {
	Instrument           string          `json:"instrument"`
	Mode                 string          `json:"mode"`
	InitialCapital       decimal.Decimal `json:"initialCapital"`
	PositionSizeFraction float64         `json:"positionSizeFraction"`
	MaxOpenPositions     int             `json:"maxOpenPositions"`
	CommissionRate       float64         `json:"commissionRate"`
	Slippage             float64         `json:"slippage"`
	Leverage             int             `json:"leverage"`
}

// RunResult is the immutable output of one simulation run. Error is set
// to ErrInsufficientData's message when the run aborted before any
// simulation; such a result carries no trades and no metrics and must be
// checked before any summary field is read.
type RunResult struct {
	ID        uuid.UUID     `json:"id"`
	Error     string        `json:"error,omitempty"`
	Summary   Summary       `json:"summary"`
	Stats     TradeStats    `json:"stats"`
	Metrics   RiskMetrics   `json:"metrics"`
	Trades    []ClosedTrade `json:"trades"`
	Equity    []EquityPoint `json:"equity"`
	Settings  RunSettings   `json:"settings"`
	Timestamp time.Time     `json:"timestamp"`
}
