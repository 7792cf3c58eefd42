package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

// DirectionStats is a per-direction breakdown of closed trades.
type DirectionStats struct {
	Trades int             `json:"trades"`
	Wins   int             `json:"wins"`
	NetPnL decimal.Decimal `json:"netPnL"`
}

// HourStats buckets closed trades by entry hour of day (UTC).
type HourStats struct {
	Trades int             `json:"trades"`
	Wins   int             `json:"wins"`
	NetPnL decimal.Decimal `json:"netPnL"`
}

// LiveStatus is the on-demand snapshot of a running live simulation.
type LiveStatus struct {
	Instrument    string                             `json:"instrument"`
	Equity        decimal.Decimal                    `json:"equity"`
	OpenPositions []types.Position                   `json:"openPositions"`
	Stats         types.TradeStats                   `json:"stats"`
	ByDirection   map[types.Direction]DirectionStats `json:"byDirection"`
	ByHour        map[int]HourStats                  `json:"byHour"`
	UpdatedAt     time.Time                          `json:"updatedAt"`
}

// LiveSimulator drives the event-driven paper-trading variant. All
// position mutation happens on the single Run goroutine, so two ticks
// are never evaluated concurrently; readers get consistent snapshots
// through the lock.
type LiveSimulator struct {
	mu         sync.RWMutex
	cfg        Config
	src        SignalSource
	sim        *simulation
	history    []types.Candle
	maxHistory int
	lastClose  decimal.Decimal
	updatedAt  time.Time
	log        zerolog.Logger
}

func NewLiveSimulator(cfg Config, src SignalSource, log zerolog.Logger) *LiveSimulator {
	maxHistory := 4 * src.Warmup()
	if maxHistory < 512 {
		maxHistory = 512
	}
	return &LiveSimulator{
		cfg:        cfg,
		src:        src,
		sim:        newSimulation(cfg),
		maxHistory: maxHistory,
		log:        log,
	}
}

// Run consumes ticks until the channel closes or ctx is cancelled. A
// stalled feed just delays processing; it never fails the run. On exit
// every open position is liquidated at the last seen close.
func (l *LiveSimulator) Run(ctx context.Context, ticks <-chan types.Candle) *types.RunResult {
	for {
		select {
		case <-ctx.Done():
			return l.finish()
		case c, ok := <-ticks:
			if !ok {
				return l.finish()
			}
			l.onTick(c)
		}
	}
}

func (l *LiveSimulator) onTick(c types.Candle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, c)
	if len(l.history) > l.maxHistory {
		l.history = l.history[len(l.history)-l.maxHistory:]
	}
	l.lastClose = c.Close
	l.updatedAt = c.CloseTime

	if len(l.history) <= l.src.Warmup() {
		return
	}

	before := len(l.sim.trades)
	sig, ok := l.src.OnCandles(l.history)
	l.sim.advance(c, sig, ok)

	for _, t := range l.sim.trades[before:] {
		l.log.Info().
			Str("instrument", t.Instrument).
			Str("direction", string(t.Direction)).
			Str("reason", string(t.ExitReason)).
			Str("netPnL", t.NetPnL.Round(2).String()).
			Msg("position closed")
	}
}

func (l *LiveSimulator) finish() *types.RunResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastClose.IsPositive() {
		l.sim.closeAll(l.lastClose, l.updatedAt)
	}
	return buildResult(l.sim)
}

// Snapshot returns the queryable live status: open positions, aggregate
// stats and the direction / time-of-day breakdowns.
func (l *LiveSimulator) Snapshot() LiveStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	open := make([]types.Position, 0, len(l.sim.open))
	for _, p := range l.sim.open {
		open = append(open, *p)
	}

	byDir := map[types.Direction]DirectionStats{
		types.DirectionLong:  {NetPnL: decimal.Zero},
		types.DirectionShort: {NetPnL: decimal.Zero},
	}
	byHour := make(map[int]HourStats)
	for _, t := range l.sim.trades {
		d := byDir[t.Direction]
		d.Trades++
		if t.NetPnL.IsPositive() {
			d.Wins++
		}
		d.NetPnL = d.NetPnL.Add(t.NetPnL)
		byDir[t.Direction] = d

		hour := t.EntryTime.UTC().Hour()
		h := byHour[hour]
		h.Trades++
		if t.NetPnL.IsPositive() {
			h.Wins++
		}
		h.NetPnL = h.NetPnL.Add(t.NetPnL)
		byHour[hour] = h
	}

	equity := l.sim.capital
	if l.lastClose.IsPositive() {
		equity = l.sim.equity(l.lastClose)
	}

	return LiveStatus{
		Instrument:    l.cfg.Instrument,
		Equity:        equity.Round(2),
		OpenPositions: open,
		Stats:         l.sim.stats.snapshot(),
		ByDirection:   byDir,
		ByHour:        byHour,
		UpdatedAt:     l.updatedAt,
	}
}
