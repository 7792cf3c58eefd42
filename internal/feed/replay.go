// Package feed provides candle sources for the simulators: a
// slice-backed replay feed for tests and batch-style live runs, and a
// websocket kline feed for live paper trading.
package feed

import (
	"context"

	"tradesim/types"
)

// Replay streams a pre-loaded candle series over a channel, preserving
// order. It closes the channel when the series is exhausted or ctx is
// cancelled.
func Replay(ctx context.Context, candles []types.Candle) <-chan types.Candle {
	out := make(chan types.Candle)
	go func() {
		defer close(out)
		for _, c := range candles {
			select {
			case <-ctx.Done():
				return
			case out <- c:
			}
		}
	}()
	return out
}
