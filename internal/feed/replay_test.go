package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

func TestReplayPreservesOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, 10)
	for i := range candles {
		candles[i] = types.Candle{
			Instrument: "BTCUSDT",
			Close:      decimal.NewFromInt(int64(100 + i)),
			OpenTime:   start.Add(time.Duration(i) * time.Hour),
		}
	}

	var got []types.Candle
	for c := range Replay(context.Background(), candles) {
		got = append(got, c)
	}

	if len(got) != len(candles) {
		t.Fatalf("received %d candles, want %d", len(got), len(candles))
	}
	for i := range got {
		if !got[i].Close.Equal(candles[i].Close) {
			t.Errorf("candle %d out of order: %s", i, got[i].Close)
		}
	}
}

func TestReplayCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	candles := make([]types.Candle, 1000)
	ch := Replay(ctx, candles)

	<-ch
	cancel()

	// The channel must close shortly after cancellation.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestParseKline(t *testing.T) {
	f := NewWSFeed("wss://example", "BTCUSDT", types.Hour, zerolog.Nop())

	closed := []byte(`{"e":"kline","k":{"t":1700000000000,"T":1700003599999,` +
		`"o":"100.5","h":"101","l":"99.5","c":"100.75","v":"1234.5","x":true}}`)
	c, ok, err := f.parse(closed)
	if err != nil || !ok {
		t.Fatalf("parse closed kline: ok=%v err=%v", ok, err)
	}
	if !c.Close.Equal(decimal.RequireFromString("100.75")) {
		t.Errorf("Close = %s, want 100.75", c.Close)
	}
	if c.Instrument != "BTCUSDT" || c.Interval != types.Hour {
		t.Errorf("instrument/interval = %s/%s", c.Instrument, c.Interval)
	}

	open := []byte(`{"e":"kline","k":{"o":"100","h":"101","l":"99","c":"100","v":"1","x":false}}`)
	if _, ok, err := f.parse(open); err != nil || ok {
		t.Errorf("unclosed kline must be skipped: ok=%v err=%v", ok, err)
	}

	other := []byte(`{"e":"trade"}`)
	if _, ok, err := f.parse(other); err != nil || ok {
		t.Errorf("non-kline event must be skipped: ok=%v err=%v", ok, err)
	}

	if _, _, err := f.parse([]byte(`{"e":"kline","k":{"o":"bad","x":true}}`)); err == nil {
		t.Error("malformed price must error")
	}
}
