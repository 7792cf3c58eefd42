package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Instrument string          `json:"instrument"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     decimal.Decimal `json:"volume"`
	Interval   Interval        `json:"interval"`
	OpenTime   time.Time       `json:"openTime"`
	CloseTime  time.Time       `json:"closeTime"`
}
