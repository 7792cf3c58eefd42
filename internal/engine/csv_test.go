package engine

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

func TestWriteTradesCSV(t *testing.T) {
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []types.ClosedTrade{
		{
			ID:            uuid.New(),
			Instrument:    "BTCUSDT",
			Direction:     types.DirectionLong,
			EntryTime:     entry,
			ExitTime:      entry.Add(6 * time.Hour),
			EntryPrice:    decimal.RequireFromString("100.5"),
			ExitPrice:     decimal.RequireFromString("105.25"),
			Quantity:      decimal.RequireFromString("2"),
			ExitReason:    types.ExitTakeProfit,
			GrossPnL:      decimal.RequireFromString("9.5"),
			NetPnL:        decimal.RequireFromString("7.5"),
			Commission:    decimal.RequireFromString("2"),
			ReturnPct:     0.75,
			HoldingPeriod: 6 * time.Hour,
		},
		{
			ID:            uuid.New(),
			Instrument:    "BTCUSDT",
			Direction:     types.DirectionShort,
			EntryTime:     entry.Add(12 * time.Hour),
			ExitTime:      entry.Add(13 * time.Hour),
			EntryPrice:    decimal.RequireFromString("110"),
			ExitPrice:     decimal.RequireFromString("112"),
			Quantity:      decimal.RequireFromString("1"),
			ExitReason:    types.ExitStopLoss,
			GrossPnL:      decimal.RequireFromString("-2"),
			NetPnL:        decimal.RequireFromString("-4"),
			Commission:    decimal.RequireFromString("2"),
			ReturnPct:     -0.4,
			HoldingPeriod: time.Hour,
		},
	}

	var buf bytes.Buffer
	if err := WriteTradesCSV(&buf, trades); err != nil {
		t.Fatalf("WriteTradesCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}

	header := records[0]
	if header[0] != "id" || header[8] != "exit_reason" || header[13] != "holding_period" {
		t.Errorf("unexpected header: %v", header)
	}

	want := []string{
		trades[0].ID.String(),
		"BTCUSDT",
		"LONG",
		"2024-03-01T10:00:00Z",
		"2024-03-01T16:00:00Z",
		"100.5",
		"105.25",
		"2",
		"TAKE_PROFIT",
		"9.5",
		"7.5",
		"2",
		"0.7500",
		"6h0m0s",
	}
	for i, w := range want {
		if records[1][i] != w {
			t.Errorf("row[%d] = %q, want %q", i, records[1][i], w)
		}
	}

	second := records[2]
	if second[2] != "SHORT" || second[8] != "STOP_LOSS" || second[12] != "-0.4000" {
		t.Errorf("second row = %v", second)
	}
}

func TestWriteTradesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTradesCSV(&buf, nil); err != nil {
		t.Fatalf("WriteTradesCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want header only", len(records))
	}
}
