package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"tradesim/internal/api"
	"tradesim/internal/cfg"
	"tradesim/internal/engine"
	"tradesim/internal/feed"
	"tradesim/internal/montecarlo"
	"tradesim/internal/repository"
	"tradesim/internal/walkforward"
	"tradesim/strategies/breakout"
	"tradesim/types"
)

func main() {
	c := cfg.Load()
	logger := newLogger(c.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch strings.ToLower(c.Mode) {
	case "backtest":
		err = runBacktest(ctx, c, logger)
	case "live":
		err = runLive(ctx, c, logger)
	case "walkforward":
		err = runWalkForward(ctx, c, logger)
	case "montecarlo":
		err = runMonteCarlo(ctx, c, logger)
	default:
		logger.Fatal().Str("mode", c.Mode).Msg("unknown mode")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("mode", c.Mode).Msg("run failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func loadCandles(ctx context.Context, c cfg.Config, db *repository.Database) ([]types.Candle, error) {
	candles, err := db.GetCandles(ctx, c.Instrument, types.Interval(c.Interval), c.StartTime, c.EndTime)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	return candles, nil
}

// persist saves the result if a database is available. Persistence
// failure never fails a completed run; the report already went out.
func persist(ctx context.Context, db *repository.Database, res *types.RunResult, logger zerolog.Logger) {
	if db == nil || res == nil {
		return
	}
	if err := db.SaveRunResult(ctx, res); err != nil {
		logger.Error().Err(err).Str("runID", res.ID.String()).Msg("persist run result")
		return
	}
	logger.Info().Str("runID", res.ID.String()).Msg("run result saved")
}

func runBacktest(ctx context.Context, c cfg.Config, logger zerolog.Logger) error {
	db, err := repository.NewDatabase(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	candles, err := loadCandles(ctx, c, db)
	if err != nil {
		return err
	}
	logger.Info().Int("candles", len(candles)).Str("instrument", c.Instrument).Msg("starting backtest")

	engCfg := c.EngineConfig(false)
	engCfg.Progress = true

	res, runErr := engine.Run(ctx, engCfg, candles, breakout.New())
	engine.PrintRunReport(res)
	persist(context.WithoutCancel(ctx), db, res, logger)

	if runErr != nil {
		return runErr
	}
	if c.TradesCSV != "" {
		if err := engine.WriteTradesCSVFile(c.TradesCSV, res.Trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
		logger.Info().Str("path", c.TradesCSV).Int("trades", len(res.Trades)).Msg("trades exported")
	}
	return nil
}

func runLive(ctx context.Context, c cfg.Config, logger zerolog.Logger) error {
	// The run store is optional in live mode: without a database the
	// status API still serves the in-memory snapshot.
	var store api.RunStore
	db, err := repository.NewDatabase(ctx, c.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, running without run store")
	} else {
		store = db
		defer db.Close()
	}

	src := breakout.New()
	live := engine.NewLiveSimulator(c.EngineConfig(true), src, logger)
	wsFeed := feed.NewWSFeed(c.FeedURL, c.Instrument, types.Interval(c.Interval), logger)
	server := api.NewServer(c.ListenPort, live, store, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("status API stopped")
		}
	}()
	go wsFeed.Run(ctx)

	logger.Info().Str("instrument", c.Instrument).Str("interval", c.Interval).Msg("live simulation started")
	res := live.Run(ctx, wsFeed.Candles())

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("status API shutdown")
	}

	engine.PrintRunReport(res)
	persist(context.Background(), db, res, logger)
	return nil
}

func runWalkForward(ctx context.Context, c cfg.Config, logger zerolog.Logger) error {
	db, err := repository.NewDatabase(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	candles, err := loadCandles(ctx, c, db)
	if err != nil {
		return err
	}

	wfCfg := c.WalkForwardConfig()
	logger.Info().
		Int("candles", len(candles)).
		Int("train", wfCfg.TrainPeriod).
		Int("test", wfCfg.TestPeriod).
		Int("step", wfCfg.Step).
		Msg("starting walk-forward analysis")

	res, err := walkforward.Run(ctx, wfCfg, c.EngineConfig(false), candles,
		func() engine.SignalSource { return breakout.New() })
	if err != nil {
		return err
	}
	printWalkForwardReport(res)

	for _, wr := range res.Windows {
		persist(context.WithoutCancel(ctx), db, wr.Run, logger)
	}
	return nil
}

func runMonteCarlo(ctx context.Context, c cfg.Config, logger zerolog.Logger) error {
	db, err := repository.NewDatabase(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	candles, err := loadCandles(ctx, c, db)
	if err != nil {
		return err
	}

	engCfg := c.EngineConfig(false)
	engCfg.Progress = true

	res, err := engine.Run(ctx, engCfg, candles, breakout.New())
	if err != nil {
		return err
	}
	engine.PrintRunReport(res)
	persist(context.WithoutCancel(ctx), db, res, logger)

	mcCfg := c.MonteCarloConfig()
	logger.Info().
		Int("trades", len(res.Trades)).
		Int("simulations", mcCfg.Simulations).
		Int64("seed", mcCfg.Seed).
		Msg("starting monte carlo resampling")

	mc := montecarlo.Resample(ctx, mcCfg, res.Trades, engCfg.InitialCapital)
	printMonteCarloReport(mc)
	return nil
}

func printWalkForwardReport(res *walkforward.Result) {
	fmt.Println("===== Walk-Forward Report =====")
	fmt.Printf("Windows Completed:     %d\n", res.Completed)
	fmt.Printf("Mean Return:           %.2f%%\n", res.MeanReturn*100)
	fmt.Printf("Min Return:            %.2f%%\n", res.MinReturn*100)
	fmt.Printf("Max Return:            %.2f%%\n", res.MaxReturn*100)
	fmt.Printf("Mean Max Drawdown:     %.2f%%\n", res.MeanDrawdown*100)
	fmt.Printf("Worst Max Drawdown:    %.2f%%\n", res.MaxDrawdown*100)
	fmt.Printf("Consistency:           %.2f%%\n", res.Consistency*100)

	fmt.Println("\n-- Windows --")
	for _, wr := range res.Windows {
		fmt.Printf("  #%d [%d:%d) return %.2f%% drawdown %.2f%% trades %d\n",
			wr.Window.Index, wr.Window.TestStart, wr.Window.TestEnd,
			wr.Run.Metrics.TotalReturnPct*100, wr.Run.Metrics.MaxDrawdown*100,
			wr.Run.Stats.TotalTrades)
	}
	fmt.Println("===============================")
}

func printMonteCarloReport(res montecarlo.Result) {
	fmt.Println("===== Monte Carlo Report =====")
	fmt.Printf("Simulations:           %d\n", res.Simulations)
	fmt.Printf("Trades Resampled:      %d\n", res.Trades)
	if res.Trades == 0 {
		fmt.Println("No closed trades; nothing to resample.")
		fmt.Println("==============================")
		return
	}

	fmt.Println("\n-- Final Capital --")
	printDistribution(res.FinalCapital, false)
	fmt.Println("\n-- Return --")
	printDistribution(res.ReturnPct, true)
	fmt.Println("\n-- Max Drawdown --")
	printDistribution(res.MaxDrawdown, true)

	fmt.Println("\n-- Probabilities --")
	fmt.Printf("P(profit):             %.2f%%\n", res.ProbProfit*100)
	fmt.Printf("P(drawdown exceeded):  %.2f%%\n", res.ProbDrawdownAbove*100)
	fmt.Println("==============================")
}

func printDistribution(d montecarlo.Distribution, percent bool) {
	format := func(v float64) string {
		if percent {
			return fmt.Sprintf("%.2f%%", v*100)
		}
		return fmt.Sprintf("%.2f", v)
	}
	fmt.Printf("Min:                   %s\n", format(d.Min))
	fmt.Printf("P5:                    %s\n", format(d.P5))
	fmt.Printf("Median:                %s\n", format(d.P50))
	fmt.Printf("P95:                   %s\n", format(d.P95))
	fmt.Printf("Max:                   %s\n", format(d.Max))
}
