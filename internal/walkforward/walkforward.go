// Package walkforward runs a strategy over sliding train/test windows to
// expose in-sample-only profitability. Each test window goes through a
// freshly initialized simulation: fresh capital, no carried positions.
// The train period only sets the warm-up offset visible to the signal
// source.
package walkforward

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tradesim/internal/engine"
	"tradesim/types"
)

// Config controls window generation. All three sizes are in candles.
type Config struct {
	TrainPeriod int
	TestPeriod  int
	Step        int

	// Parallel limits concurrently running windows; <=0 means one per
	// window. Windows share no mutable state, so any limit is safe.
	Parallel int
}

// Window is one (train, test) pair, expressed as half-open candle index
// intervals: train [TrainStart, TestStart), test [TestStart, TestEnd).
type Window struct {
	Index      int
	TrainStart int
	TestStart  int
	TestEnd    int
}

// WindowResult couples a window with its independent run.
type WindowResult struct {
	Window Window
	Run    *types.RunResult
}

// Result aggregates the cross-window statistics. Consistency is the
// fraction of completed windows with a positive return.
type Result struct {
	Windows      []WindowResult
	Completed    int
	MeanReturn   float64
	MinReturn    float64
	MaxReturn    float64
	MeanDrawdown float64
	MaxDrawdown  float64
	Consistency  float64
}

// SourceFactory returns a fresh signal source per window, so no learned
// state leaks across windows.
type SourceFactory func() engine.SignalSource

// BuildWindows partitions the series into consecutive windows advancing
// by Step. Test windows never overlap when Step >= TestPeriod and tile
// the series exactly when Step == TestPeriod.
func BuildWindows(total int, cfg Config) ([]Window, error) {
	if cfg.TrainPeriod <= 0 || cfg.TestPeriod <= 0 || cfg.Step <= 0 {
		return nil, fmt.Errorf("walkforward: train=%d test=%d step=%d must all be positive",
			cfg.TrainPeriod, cfg.TestPeriod, cfg.Step)
	}

	var windows []Window
	for start := 0; start+cfg.TrainPeriod+cfg.TestPeriod <= total; start += cfg.Step {
		windows = append(windows, Window{
			Index:      len(windows),
			TrainStart: start,
			TestStart:  start + cfg.TrainPeriod,
			TestEnd:    start + cfg.TrainPeriod + cfg.TestPeriod,
		})
	}
	if len(windows) == 0 {
		return nil, engine.ErrInsufficientData
	}
	return windows, nil
}

// Run executes every window and aggregates across them. Windows are
// independent and run in parallel under the configured limit.
// Cancelling ctx skips the remaining windows; the aggregate covers the
// completed ones only.
func Run(ctx context.Context, cfg Config, engCfg engine.Config, candles []types.Candle, newSource SourceFactory) (*Result, error) {
	windows, err := BuildWindows(len(candles), cfg)
	if err != nil {
		return nil, err
	}

	runs := make([]*types.RunResult, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.Parallel
	if limit <= 0 {
		limit = len(windows)
	}
	g.SetLimit(limit)

	for _, w := range windows {
		w := w
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			wcfg := engCfg
			wcfg.StartIndex = w.TestStart - w.TrainStart
			wcfg.Progress = false

			slice := candles[w.TrainStart:w.TestEnd]
			run, err := engine.Run(gctx, wcfg, slice, newSource())
			if err != nil {
				if errors.Is(err, engine.ErrInsufficientData) {
					return nil
				}
				return fmt.Errorf("window %d: %w", w.Index, err)
			}
			runs[w.Index] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(windows, runs), nil
}

func aggregate(windows []Window, runs []*types.RunResult) *Result {
	res := &Result{}

	first := true
	positive := 0
	for i, w := range windows {
		run := runs[i]
		if run == nil {
			continue
		}
		res.Windows = append(res.Windows, WindowResult{Window: w, Run: run})
		res.Completed++

		ret := run.Metrics.TotalReturnPct
		dd := run.Metrics.MaxDrawdown

		res.MeanReturn += ret
		res.MeanDrawdown += dd
		if dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
		}
		if first {
			res.MinReturn, res.MaxReturn = ret, ret
			first = false
		} else {
			if ret < res.MinReturn {
				res.MinReturn = ret
			}
			if ret > res.MaxReturn {
				res.MaxReturn = ret
			}
		}
		if ret > 0 {
			positive++
		}
	}

	if res.Completed > 0 {
		n := float64(res.Completed)
		res.MeanReturn /= n
		res.MeanDrawdown /= n
		res.Consistency = float64(positive) / n
	}
	return res
}
