package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"tradesim/types"
)

// WriteTradesCSVFile writes the closed trades to a CSV file at the given
// path.
func WriteTradesCSVFile(path string, trades []types.ClosedTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes trades to any io.Writer as CSV. Pass os.Stdout
// for debugging, or a file.
func WriteTradesCSV(w io.Writer, trades []types.ClosedTrade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"id",
		"instrument",
		"direction",
		"entry_time",
		"exit_time",
		"entry_price",
		"exit_price",
		"quantity",
		"exit_reason",
		"gross_pnl",
		"net_pnl",
		"commission",
		"return_pct",
		"holding_period",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.ID.String(),
			t.Instrument,
			string(t.Direction),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.Quantity.String(),
			string(t.ExitReason),
			t.GrossPnL.String(),
			t.NetPnL.String(),
			t.Commission.String(),
			strconv.FormatFloat(t.ReturnPct, 'f', 4, 64),
			t.HoldingPeriod.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
