package walkforward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/engine"
	"tradesim/types"
)

func TestBuildWindows(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		cfg     Config
		want    []Window
		wantErr error
	}{
		{
			name:  "tiling test windows",
			total: 1000,
			cfg:   Config{TrainPeriod: 500, TestPeriod: 250, Step: 250},
			want: []Window{
				{Index: 0, TrainStart: 0, TestStart: 500, TestEnd: 750},
				{Index: 1, TrainStart: 250, TestStart: 750, TestEnd: 1000},
			},
		},
		{
			name:  "single window",
			total: 750,
			cfg:   Config{TrainPeriod: 500, TestPeriod: 250, Step: 250},
			want: []Window{
				{Index: 0, TrainStart: 0, TestStart: 500, TestEnd: 750},
			},
		},
		{
			name:    "series too short",
			total:   749,
			cfg:     Config{TrainPeriod: 500, TestPeriod: 250, Step: 250},
			wantErr: engine.ErrInsufficientData,
		},
		{
			name:    "invalid sizes",
			total:   1000,
			cfg:     Config{TrainPeriod: 0, TestPeriod: 250, Step: 250},
			wantErr: errors.New("must all be positive"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildWindows(tt.total, tt.cfg)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected an error")
				}
				if errors.Is(tt.wantErr, engine.ErrInsufficientData) && !errors.Is(err, engine.ErrInsufficientData) {
					t.Fatalf("err = %v, want ErrInsufficientData", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildWindows() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("windows = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("window[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// When Step >= TestPeriod no two test windows may overlap.
func TestWindowsNonOverlapping(t *testing.T) {
	windows, err := BuildWindows(5000, Config{TrainPeriod: 400, TestPeriod: 200, Step: 200})
	if err != nil {
		t.Fatalf("BuildWindows() error = %v", err)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].TestStart < windows[i-1].TestEnd {
			t.Errorf("test windows %d and %d overlap: %+v %+v",
				i-1, i, windows[i-1], windows[i])
		}
	}
}

type stubSource struct{}

func (stubSource) Warmup() int { return 3 }

func (stubSource) OnCandles(history []types.Candle) (types.Signal, bool) {
	last := history[len(history)-1].Close
	return types.Signal{
		Action:      types.ActionLong,
		Confidence:  0.9,
		EntryPrice:  last,
		StopLoss:    last.Mul(decimal.RequireFromString("0.9")),
		TakeProfits: []decimal.Decimal{last.Mul(decimal.RequireFromString("1.05"))},
	}, true
}

func syntheticCandles(n int) []types.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, n)
	for i := range candles {
		price := decimal.NewFromFloat(100 + float64(i%50))
		candles[i] = types.Candle{
			Instrument: "BTCUSDT",
			Open:       price,
			High:       price.Add(decimal.RequireFromString("1")),
			Low:        price.Sub(decimal.RequireFromString("1")),
			Close:      price.Add(decimal.RequireFromString("0.5")),
			Volume:     decimal.NewFromInt(100),
			Interval:   types.Hour,
			OpenTime:   start.Add(time.Duration(i) * time.Hour),
			CloseTime:  start.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return candles
}

func TestRunAggregates(t *testing.T) {
	cfg := Config{TrainPeriod: 100, TestPeriod: 50, Step: 50, Parallel: 2}
	engCfg := engine.DefaultBatchConfig()
	candles := syntheticCandles(400)

	res, err := Run(context.Background(), cfg, engCfg, candles,
		func() engine.SignalSource { return stubSource{} })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantWindows := 6 // (400-150)/50 + 1
	if res.Completed != wantWindows {
		t.Errorf("Completed = %d, want %d", res.Completed, wantWindows)
	}
	if len(res.Windows) != wantWindows {
		t.Errorf("Windows = %d, want %d", len(res.Windows), wantWindows)
	}
	if res.MinReturn > res.MeanReturn || res.MeanReturn > res.MaxReturn {
		t.Errorf("mean %f outside [%f, %f]", res.MeanReturn, res.MinReturn, res.MaxReturn)
	}
	if res.MeanDrawdown > res.MaxDrawdown {
		t.Errorf("mean drawdown %f exceeds max %f", res.MeanDrawdown, res.MaxDrawdown)
	}
	if res.Consistency < 0 || res.Consistency > 1 {
		t.Errorf("Consistency = %f outside [0,1]", res.Consistency)
	}

	// Each window's run only covers its test slice: the equity curve has
	// one point per test candle plus the seed.
	for _, wr := range res.Windows {
		if got := len(wr.Run.Equity); got != cfg.TestPeriod+1 {
			t.Errorf("window %d equity length = %d, want %d",
				wr.Window.Index, got, cfg.TestPeriod+1)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{TrainPeriod: 100, TestPeriod: 50, Step: 50}
	res, err := Run(ctx, cfg, engine.DefaultBatchConfig(), syntheticCandles(400),
		func() engine.SignalSource { return stubSource{} })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Completed != 0 {
		t.Errorf("Completed = %d, want 0 after pre-cancelled context", res.Completed)
	}
}
