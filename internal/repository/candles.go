package repository

import (
	"context"
	"time"

	"tradesim/types"
)

const candlesQuery = `
SELECT open, high, low, close, volume, open_time, close_time
FROM candles
WHERE instrument = $1 AND interval = $2 AND open_time >= $3 AND open_time < $4
ORDER BY open_time ASC`

// GetCandles loads the ordered candle series for one instrument and
// interval. The result is strictly increasing in open time by query
// order.
func (db *Database) GetCandles(ctx context.Context, instrument string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	rows, err := db.pool.Query(ctx, candlesQuery, instrument, string(interval), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		c := types.Candle{Instrument: instrument, Interval: interval}
		if err := rows.Scan(&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.OpenTime, &c.CloseTime); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}
