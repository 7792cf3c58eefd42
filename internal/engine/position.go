package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

// simulation is the explicit per-run context: capital, open positions,
// closed trades and the equity curve all live here, never in package
// state, so independent runs can execute concurrently.
type simulation struct {
	cfg     Config
	capital decimal.Decimal // realized capital, full precision
	open    []*types.Position
	trades  []types.ClosedTrade
	tracker *equityTracker
	stats   *statsAggregator
	step    int
}

func newSimulation(cfg Config) *simulation {
	return &simulation{
		cfg:     cfg,
		capital: cfg.InitialCapital,
		tracker: newEquityTracker(cfg.InitialCapital),
		stats:   newStatsAggregator(cfg.BreakevenBand),
	}
}

// equity is realized capital plus the unrealized PnL of every open
// position at the given mark price.
func (s *simulation) equity(mark decimal.Decimal) decimal.Decimal {
	eq := s.capital
	for _, p := range s.open {
		eq = eq.Add(unrealizedPnL(p, mark))
	}
	return eq
}

// advance processes exactly one step: close checks for every open
// position in ascending entry-time order, then at most one open, then
// mark-to-market and one equity point. Effects are fully committed
// before the caller may feed the next step.
func (s *simulation) advance(c types.Candle, sig types.Signal, hasSig bool) {
	s.step++

	sort.SliceStable(s.open, func(i, j int) bool {
		return s.open[i].EntryTime.Before(s.open[j].EntryTime)
	})

	signalConsumed := false
	remaining := s.open[:0]
	for _, p := range s.open {
		reason, exitPrice, hit := s.closeReason(p, c, sig, hasSig)
		if !hit {
			remaining = append(remaining, p)
			continue
		}
		if reason == types.ExitReversal {
			signalConsumed = true
		}
		s.close(p, exitPrice, reason, c.CloseTime)
	}
	s.open = remaining

	if hasSig && !signalConsumed {
		s.maybeOpen(c, sig)
	}

	for _, p := range s.open {
		p.UnrealizedPnL = unrealizedPnL(p, c.Close)
		if gain := gainFraction(p); gain > p.PeakGain {
			p.PeakGain = gain
		}
	}

	s.tracker.append(s.step, s.equity(c.Close))
}

// closeReason evaluates the exit rules in fixed priority order,
// first match wins. Stop and target checks use the intrabar extremes,
// the later rules mark at the candle close.
func (s *simulation) closeReason(p *types.Position, c types.Candle, sig types.Signal, hasSig bool) (types.ExitReason, decimal.Decimal, bool) {
	long := p.Direction == types.DirectionLong

	if long && c.Low.LessThanOrEqual(p.StopLoss) || !long && c.High.GreaterThanOrEqual(p.StopLoss) {
		return types.ExitStopLoss, p.StopLoss, true
	}
	if long && c.High.GreaterThanOrEqual(p.TakeProfit) || !long && c.Low.LessThanOrEqual(p.TakeProfit) {
		return types.ExitTakeProfit, p.TakeProfit, true
	}

	if s.cfg.Mode == ModeLive && hasSig &&
		sig.Direction() != p.Direction && sig.Action != types.ActionHold &&
		sig.Confidence >= s.cfg.ReversalConfidence {
		return types.ExitReversal, c.Close, true
	}

	gain := markedGain(p, c.Close)
	if p.PeakGain >= s.cfg.TrailActivate && p.PeakGain-gain >= s.cfg.TrailRetrace {
		return types.ExitTrailingStop, c.Close, true
	}
	if gain <= -s.cfg.EmergencyStop {
		return types.ExitEmergency, c.Close, true
	}
	if s.cfg.StaleAfter > 0 && c.CloseTime.Sub(p.EntryTime) >= s.cfg.StaleAfter &&
		gain < s.cfg.StaleMove && gain > -s.cfg.StaleMove {
		return types.ExitStale, c.Close, true
	}
	return "", decimal.Zero, false
}

// maybeOpen applies the open conditions and instantiates a position when
// all of them hold. Signals without trade levels are silently ignored;
// fallback levels from the config fill the gap when enabled.
func (s *simulation) maybeOpen(c types.Candle, sig types.Signal) {
	sig = s.applyFallbackLevels(sig)

	if !sig.Tradeable() || sig.Confidence < s.cfg.MinConfidence {
		return
	}
	if len(s.open) >= s.cfg.MaxOpenPositions {
		return
	}
	for _, p := range s.open {
		if p.Instrument == c.Instrument {
			return
		}
	}

	equity := s.equity(c.Close)
	capitalAtRisk := equity.Mul(decimal.NewFromFloat(s.cfg.riskFraction()))
	entry := fillPrice(sig.Direction(), sig.EntryPrice, s.cfg.Slippage)
	qty := positionQuantity(s.cfg, equity, capitalAtRisk, entry, sig.StopLoss)
	if qty.LessThan(s.cfg.MinQuantity) {
		return
	}

	s.open = append(s.open, &types.Position{
		ID:            uuid.New(),
		Instrument:    c.Instrument,
		Direction:     sig.Direction(),
		EntryTime:     c.CloseTime,
		EntryPrice:    entry,
		CapitalAtRisk: capitalAtRisk,
		Quantity:      qty,
		StopLoss:      sig.StopLoss,
		TakeProfit:    sig.TakeProfits[0],
		Origin:        sig,
	})
}

func (s *simulation) applyFallbackLevels(sig types.Signal) types.Signal {
	if sig.Action == types.ActionHold || sig.EntryPrice.IsZero() {
		return sig
	}
	long := sig.Direction() == types.DirectionLong
	if sig.StopLoss.IsZero() && s.cfg.StopLossPercent > 0 {
		pct := decimal.NewFromFloat(s.cfg.StopLossPercent)
		if long {
			sig.StopLoss = sig.EntryPrice.Mul(decimal.NewFromInt(1).Sub(pct))
		} else {
			sig.StopLoss = sig.EntryPrice.Mul(decimal.NewFromInt(1).Add(pct))
		}
	}
	if len(sig.TakeProfits) == 0 && s.cfg.TakeProfitPercent > 0 {
		pct := decimal.NewFromFloat(s.cfg.TakeProfitPercent)
		if long {
			sig.TakeProfits = []decimal.Decimal{sig.EntryPrice.Mul(decimal.NewFromInt(1).Add(pct))}
		} else {
			sig.TakeProfits = []decimal.Decimal{sig.EntryPrice.Mul(decimal.NewFromInt(1).Sub(pct))}
		}
	}
	return sig
}

// close realizes a position. Capital moves exactly once per close, in
// step order, which is what makes the accounting identity hold.
func (s *simulation) close(p *types.Position, exitPrice decimal.Decimal, reason types.ExitReason, at time.Time) {
	gross := grossPnL(p.Direction, p.EntryPrice, exitPrice, p.Quantity)
	fee := tradeCommission(p.CapitalAtRisk, s.cfg.CommissionRate)
	net := gross.Sub(fee)

	returnPct := 0.0
	if p.CapitalAtRisk.IsPositive() {
		returnPct, _ = net.Div(p.CapitalAtRisk).Mul(decimal.NewFromInt(100)).Float64()
	}

	trade := types.ClosedTrade{
		ID:            p.ID,
		Instrument:    p.Instrument,
		Direction:     p.Direction,
		EntryTime:     p.EntryTime,
		ExitTime:      at,
		EntryPrice:    p.EntryPrice,
		ExitPrice:     exitPrice,
		Quantity:      p.Quantity,
		CapitalAtRisk: p.CapitalAtRisk,
		ExitReason:    reason,
		GrossPnL:      gross,
		NetPnL:        net,
		Commission:    fee,
		ReturnPct:     returnPct,
		HoldingPeriod: at.Sub(p.EntryTime),
	}

	s.capital = s.capital.Add(net)
	s.trades = append(s.trades, trade)
	s.stats.observe(trade)
}

// closeAll liquidates every remaining position at the given mark price.
// Used at run end and on live shutdown.
func (s *simulation) closeAll(mark decimal.Decimal, at time.Time) {
	sort.SliceStable(s.open, func(i, j int) bool {
		return s.open[i].EntryTime.Before(s.open[j].EntryTime)
	})
	for _, p := range s.open {
		s.close(p, mark, types.ExitRunEnd, at)
	}
	s.open = nil
}

// gainFraction is the unrealized return as a fraction of capital at
// risk, from the last mark.
func gainFraction(p *types.Position) float64 {
	if !p.CapitalAtRisk.IsPositive() {
		return 0
	}
	g, _ := p.UnrealizedPnL.Div(p.CapitalAtRisk).Float64()
	return g
}

func markedGain(p *types.Position, mark decimal.Decimal) float64 {
	if !p.CapitalAtRisk.IsPositive() {
		return 0
	}
	g, _ := unrealizedPnL(p, mark).Div(p.CapitalAtRisk).Float64()
	return g
}
