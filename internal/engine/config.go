package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"tradesim/types"
)

type Mode string

const (
	ModeBatch Mode = "batch"
	ModeLive  Mode = "live"
)

// Config holds every knob of one simulation run. A zero value is not
// usable directly; start from DefaultBatchConfig or DefaultLiveConfig
// and override what the caller needs.
type Config struct {
	Instrument     string
	Mode           Mode
	InitialCapital decimal.Decimal

	// PositionSizeFraction is the fraction of equity put at risk per
	// trade in batch mode; RiskPerTrade is the live-mode equivalent.
	PositionSizeFraction float64
	RiskPerTrade         float64
	MaxPositionFraction  float64
	MaxOpenPositions     int
	CommissionRate       float64
	Slippage             float64
	Leverage             int
	MinConfidence        float64
	MinQuantity          decimal.Decimal

	// Fallback trade levels used when a signal omits them. Zero disables
	// the fallback, in which case such signals are ignored.
	StopLossPercent   float64
	TakeProfitPercent float64

	// StartIndex is the warm-up offset: candles before it are visible to
	// the signal source but never simulated.
	StartIndex int

	// Close-rule thresholds. Trailing arms once peak unrealized gain
	// reaches TrailActivate and fires when the gain has retraced by
	// TrailRetrace from that peak. All three are fractions of capital
	// at risk.
	ReversalConfidence float64
	TrailActivate      float64
	TrailRetrace       float64
	EmergencyStop      float64

	// A position open longer than StaleAfter with absolute gain below
	// StaleMove is closed as stale.
	StaleAfter time.Duration
	StaleMove  float64

	// BreakevenBand classifies a closed trade as breakeven when its
	// absolute net PnL is within this fraction of capital at risk.
	// Zero means exact-zero only.
	BreakevenBand float64

	// Risk-metric sampling: one periodic return every ResampleEvery
	// equity steps, annualized with PeriodsPerYear.
	ResampleEvery  int
	PeriodsPerYear float64

	// Progress enables the console progress bar on long batch replays.
	Progress bool
}

func DefaultBatchConfig() Config {
	return Config{
		Mode:                 ModeBatch,
		InitialCapital:       decimal.NewFromInt(10000),
		PositionSizeFraction: 0.10,
		RiskPerTrade:         0.03,
		MaxPositionFraction:  0.50,
		MaxOpenPositions:     3,
		CommissionRate:       0.001,
		Slippage:             0.0005,
		Leverage:             1,
		MinConfidence:        0.55,
		MinQuantity:          decimal.New(1, -4),
		StopLossPercent:      0.02,
		TakeProfitPercent:    0.04,
		ReversalConfidence:   0.65,
		TrailActivate:        0.05,
		TrailRetrace:         0.02,
		EmergencyStop:        0.10,
		StaleAfter:           72 * time.Hour,
		StaleMove:            0.005,
		ResampleEvery:        24,
		PeriodsPerYear:       365,
	}
}

func DefaultLiveConfig() Config {
	cfg := DefaultBatchConfig()
	cfg.Mode = ModeLive
	cfg.MaxOpenPositions = 20
	cfg.BreakevenBand = 0.005
	return cfg
}

// riskFraction selects the sizing fraction for the active mode.
func (c Config) riskFraction() float64 {
	if c.Mode == ModeLive {
		return c.RiskPerTrade
	}
	return c.PositionSizeFraction
}

func (c Config) leverage() decimal.Decimal {
	if c.Leverage < 1 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(c.Leverage))
}

func (c Config) settings() types.RunSettings {
	return types.RunSettings{
		Instrument:           c.Instrument,
		Mode:                 string(c.Mode),
		InitialCapital:       c.InitialCapital,
		PositionSizeFraction: c.riskFraction(),
		MaxOpenPositions:     c.MaxOpenPositions,
		CommissionRate:       c.CommissionRate,
		Slippage:             c.Slippage,
		Leverage:             c.Leverage,
	}
}
