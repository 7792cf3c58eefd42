package engine

import (
	"github.com/shopspring/decimal"

	"tradesim/types"
)

// equityTracker maintains the append-only equity curve together with the
// running peak and drawdown state. The curve always holds one point per
// processed step plus the seed point.
type equityTracker struct {
	curve []types.EquityPoint

	peak        decimal.Decimal
	maxDrawdown float64

	// sincePeak counts contiguous steps without a new peak; its maximum
	// is the drawdown duration.
	sincePeak    int
	maxSincePeak int
}

func newEquityTracker(initial decimal.Decimal) *equityTracker {
	return &equityTracker{
		curve: []types.EquityPoint{{Step: 0, Equity: initial}},
		peak:  initial,
	}
}

func (t *equityTracker) append(step int, equity decimal.Decimal) {
	t.curve = append(t.curve, types.EquityPoint{Step: step, Equity: equity})

	if equity.GreaterThan(t.peak) {
		t.peak = equity
		t.sincePeak = 0
		return
	}

	t.sincePeak++
	if t.sincePeak > t.maxSincePeak {
		t.maxSincePeak = t.sincePeak
	}
	if t.peak.IsPositive() {
		dd, _ := t.peak.Sub(equity).Div(t.peak).Float64()
		if dd > t.maxDrawdown {
			t.maxDrawdown = dd
		}
	}
}

// maxDrawdownOf recomputes peak drawdown and its duration in steps from
// a full curve. The reporting path uses this independently of the
// incremental tracker.
func maxDrawdownOf(curve []types.EquityPoint) (float64, int) {
	if len(curve) == 0 {
		return 0, 0
	}
	peak := curve[0].Equity
	maxDD := 0.0
	sincePeak, maxSince := 0, 0

	for _, pt := range curve[1:] {
		if pt.Equity.GreaterThan(peak) {
			peak = pt.Equity
			sincePeak = 0
			continue
		}
		sincePeak++
		if sincePeak > maxSince {
			maxSince = sincePeak
		}
		if peak.IsPositive() {
			dd, _ := peak.Sub(pt.Equity).Div(peak).Float64()
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD, maxSince
}
