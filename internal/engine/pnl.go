package engine

import (
	"github.com/shopspring/decimal"

	"tradesim/types"
)

var two = decimal.NewFromInt(2)

// grossPnL is sign(direction) × (exit − entry) × quantity.
func grossPnL(direction types.Direction, entry, exit, quantity decimal.Decimal) decimal.Decimal {
	diff := exit.Sub(entry)
	if direction == types.DirectionShort {
		diff = diff.Neg()
	}
	return diff.Mul(quantity)
}

// tradeCommission charges the rate on capital at risk twice, once for
// each leg of the round trip.
func tradeCommission(capitalAtRisk decimal.Decimal, rate float64) decimal.Decimal {
	return capitalAtRisk.Mul(decimal.NewFromFloat(rate)).Mul(two)
}

func netPnL(direction types.Direction, entry, exit, quantity, capitalAtRisk decimal.Decimal, rate float64) decimal.Decimal {
	return grossPnL(direction, entry, exit, quantity).Sub(tradeCommission(capitalAtRisk, rate))
}

// unrealizedPnL marks an open position against the current price using
// the same formula as the realized calculation, without commission.
func unrealizedPnL(p *types.Position, mark decimal.Decimal) decimal.Decimal {
	return grossPnL(p.Direction, p.EntryPrice, mark, p.Quantity)
}

// fillPrice applies slippage against the trader on entry.
func fillPrice(direction types.Direction, price decimal.Decimal, slippage float64) decimal.Decimal {
	slip := price.Mul(decimal.NewFromFloat(slippage))
	if direction == types.DirectionShort {
		return price.Sub(slip)
	}
	return price.Add(slip)
}

// positionQuantity sizes a position as capitalAtRisk / |entry − stop| ×
// leverage. Both the loss realized at the stop (qty × |entry − stop|,
// which leverage inflates past capitalAtRisk) and the notional are
// capped at the configured maximum fraction of total equity.
func positionQuantity(cfg Config, equity, capitalAtRisk, entry, stop decimal.Decimal) decimal.Decimal {
	risk := entry.Sub(stop).Abs()
	if risk.IsZero() || entry.IsZero() {
		return decimal.Zero
	}
	qty := capitalAtRisk.Div(risk).Mul(cfg.leverage())

	maxExposure := equity.Mul(decimal.NewFromFloat(cfg.MaxPositionFraction))
	if qty.Mul(risk).GreaterThan(maxExposure) {
		qty = maxExposure.Div(risk)
	}
	if qty.Mul(entry).GreaterThan(maxExposure) {
		qty = maxExposure.Div(entry)
	}
	return qty
}
