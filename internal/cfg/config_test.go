package cfg

import (
	"testing"

	"github.com/shopspring/decimal"

	"tradesim/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	c := Load()

	if c.Mode != "backtest" {
		t.Errorf("Mode = %q, want backtest", c.Mode)
	}
	if c.Instrument != "BTCUSDT" || c.Interval != "1h" {
		t.Errorf("instrument/interval = %q/%q", c.Instrument, c.Interval)
	}
	if c.InitialCapital != 10000 {
		t.Errorf("InitialCapital = %f, want 10000", c.InitialCapital)
	}
	if c.TrainPeriod != 500 || c.TestPeriod != 250 || c.WFStep != 250 {
		t.Errorf("walk-forward defaults = %d/%d/%d", c.TrainPeriod, c.TestPeriod, c.WFStep)
	}
	if c.SimulationCount != 1000 {
		t.Errorf("SimulationCount = %d, want 1000", c.SimulationCount)
	}
	if c.DrawdownThreshold != 0.20 {
		t.Errorf("DrawdownThreshold = %f, want 0.20", c.DrawdownThreshold)
	}
	if c.EndTime.Before(c.StartTime) {
		t.Errorf("EndTime %s before StartTime %s", c.EndTime, c.StartTime)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "live")
	t.Setenv("INSTRUMENT", "ETHUSDT")
	t.Setenv("INITIAL_CAPITAL", "25000")
	t.Setenv("MAX_OPEN_POSITIONS", "5")

	c := Load()
	if c.Mode != "live" {
		t.Errorf("Mode = %q, want live", c.Mode)
	}
	if c.Instrument != "ETHUSDT" {
		t.Errorf("Instrument = %q, want ETHUSDT", c.Instrument)
	}
	if c.InitialCapital != 25000 {
		t.Errorf("InitialCapital = %f, want 25000", c.InitialCapital)
	}
	if c.MaxOpenPositions != 5 {
		t.Errorf("MaxOpenPositions = %d, want 5", c.MaxOpenPositions)
	}
}

func TestEngineConfigModeMapping(t *testing.T) {
	c := Load()

	batch := c.EngineConfig(false)
	if batch.Mode != engine.ModeBatch {
		t.Errorf("batch Mode = %s", batch.Mode)
	}
	if batch.MaxOpenPositions != 3 {
		t.Errorf("batch MaxOpenPositions = %d, want the mode default 3", batch.MaxOpenPositions)
	}
	if !batch.InitialCapital.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("InitialCapital = %s", batch.InitialCapital)
	}

	live := c.EngineConfig(true)
	if live.Mode != engine.ModeLive {
		t.Errorf("live Mode = %s", live.Mode)
	}
	if live.MaxOpenPositions != 20 {
		t.Errorf("live MaxOpenPositions = %d, want the mode default 20", live.MaxOpenPositions)
	}
	if live.BreakevenBand == 0 {
		t.Error("live BreakevenBand should be nonzero")
	}
}

func TestEngineConfigExplicitMaxPositions(t *testing.T) {
	t.Setenv("MAX_OPEN_POSITIONS", "7")

	c := Load()
	if got := c.EngineConfig(false).MaxOpenPositions; got != 7 {
		t.Errorf("MaxOpenPositions = %d, want the explicit 7", got)
	}
	if got := c.EngineConfig(true).MaxOpenPositions; got != 7 {
		t.Errorf("live MaxOpenPositions = %d, want the explicit 7", got)
	}
}

func TestParseTime(t *testing.T) {
	fallback := Load().EndTime

	if got := parseTime("2024-03-01", fallback); got.Year() != 2024 || got.Month() != 3 {
		t.Errorf("date-only parse = %s", got)
	}
	if got := parseTime("2024-03-01T12:30:00Z", fallback); got.Hour() != 12 {
		t.Errorf("RFC3339 parse = %s", got)
	}
	if got := parseTime("not-a-time", fallback); !got.Equal(fallback) {
		t.Errorf("invalid input = %s, want fallback", got)
	}
	if got := parseTime("", fallback); !got.Equal(fallback) {
		t.Errorf("empty input = %s, want fallback", got)
	}
}
