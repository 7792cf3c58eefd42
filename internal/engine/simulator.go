package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"tradesim/types"
)

// ErrInsufficientData is the only condition that aborts a run outright.
// The returned result still carries the error string so persisted runs
// stay self-describing.
var ErrInsufficientData = errors.New("insufficient data")

// SignalSource is the external strategy collaborator. It receives the
// lookback window of candles up to and including the current step and
// either returns a signal or reports none.
type SignalSource interface {
	// Warmup is the number of candles the source needs before it can
	// produce its first signal.
	Warmup() int
	OnCandles(history []types.Candle) (types.Signal, bool)
}

// Run replays the candle series through a fresh simulation context.
// The loop is strictly sequential: a step's closes and equity update are
// committed before the next step is touched, because streak and
// drawdown-duration statistics are order-dependent.
//
// Cancelling ctx stops the replay between steps; open positions are
// liquidated at the last processed close and the result covers the
// completed steps only.
func Run(ctx context.Context, cfg Config, candles []types.Candle, src SignalSource) (*types.RunResult, error) {
	warmup := cfg.StartIndex
	if w := src.Warmup(); w > warmup {
		warmup = w
	}
	if len(candles) <= warmup {
		return &types.RunResult{
			ID:        uuid.New(),
			Error:     ErrInsufficientData.Error(),
			Settings:  cfg.settings(),
			Timestamp: time.Now().UTC(),
		}, ErrInsufficientData
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = newProgressBar(len(candles) - warmup)
	}

	sim := newSimulation(cfg)
	last := candles[warmup]
	for i := warmup; i < len(candles); i++ {
		if ctx.Err() != nil {
			break
		}
		c := candles[i]
		sig, ok := src.OnCandles(candles[:i+1])
		sim.advance(c, sig, ok)
		last = c
		if bar != nil {
			bar.Add(1)
		}
	}

	sim.closeAll(last.Close, last.CloseTime)
	return buildResult(sim), nil
}

func buildResult(sim *simulation) *types.RunResult {
	stats := sim.stats.snapshot()
	final := sim.capital
	metrics := computeRiskMetrics(sim.trades, sim.tracker.curve, sim.cfg.InitialCapital, final, sim.cfg)
	summary := types.Summary{
		InitialCapital: sim.cfg.InitialCapital.Round(2),
		FinalCapital:   final.Round(2),
		NetProfit:      final.Sub(sim.cfg.InitialCapital).Round(2),
		ReturnPct:      metrics.TotalReturnPct,
		TotalTrades:    stats.TotalTrades,
		WinRate:        stats.WinRate,
		ProfitFactor:   metrics.ProfitFactor,
		MaxDrawdown:    metrics.MaxDrawdown,
		Sharpe:         metrics.Sharpe,
	}

	return &types.RunResult{
		ID:        uuid.New(),
		Summary:   summary,
		Stats:     stats,
		Metrics:   metrics,
		Trades:    sim.trades,
		Equity:    sim.tracker.curve,
		Settings:  sim.cfg.settings(),
		Timestamp: time.Now().UTC(),
	}
}

func newProgressBar(steps int) *progressbar.ProgressBar {
	return progressbar.NewOptions(steps,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Simulating..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
