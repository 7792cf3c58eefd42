package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

// WSFeed maintains one websocket connection to a kline stream and emits
// closed candles on a channel. Disconnects are retried with a fixed
// backoff; a stalled upstream only delays delivery.
type WSFeed struct {
	url        string
	instrument string
	interval   types.Interval

	readTimeout time.Duration
	backoff     time.Duration
	out         chan types.Candle
	log         zerolog.Logger
}

func NewWSFeed(url, instrument string, interval types.Interval, log zerolog.Logger) *WSFeed {
	return &WSFeed{
		url:         url,
		instrument:  instrument,
		interval:    interval,
		readTimeout: 60 * time.Second,
		backoff:     5 * time.Second,
		out:         make(chan types.Candle, 1024),
		log:         log,
	}
}

// Candles is the outbound stream. It closes after Run returns.
func (f *WSFeed) Candles() <-chan types.Candle {
	return f.out
}

// Run dials and pumps until ctx is cancelled.
func (f *WSFeed) Run(ctx context.Context) {
	defer close(f.out)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := f.pump(ctx); err != nil && ctx.Err() == nil {
			f.log.Warn().Err(err).Str("url", f.url).Msg("feed disconnected, retrying")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.backoff):
		}
	}
}

func (f *WSFeed) pump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.log.Info().Str("instrument", f.instrument).Msg("feed connected")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(f.readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		candle, ok, err := f.parse(raw)
		if err != nil {
			f.log.Debug().Err(err).Msg("unparseable feed message")
			continue
		}
		if !ok {
			continue
		}
		select {
		case f.out <- candle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *WSFeed) subscribe(conn *websocket.Conn) error {
	payload := map[string]any{
		"method": "SUBSCRIBE",
		"params": []string{strings.ToLower(f.instrument) + "@kline_" + string(f.interval)},
		"id":     time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

type wsKlineEvent struct {
	Event string `json:"e"`
	Kline struct {
		OpenTime  int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

// parse keeps only fully closed klines; partial updates are skipped so
// downstream consumers never see a candle twice.
func (f *WSFeed) parse(raw []byte) (types.Candle, bool, error) {
	var ev wsKlineEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return types.Candle{}, false, err
	}
	if ev.Event != "kline" || !ev.Kline.Closed {
		return types.Candle{}, false, nil
	}

	open, err := decimal.NewFromString(ev.Kline.Open)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("open: %w", err)
	}
	high, err := decimal.NewFromString(ev.Kline.High)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("high: %w", err)
	}
	low, err := decimal.NewFromString(ev.Kline.Low)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("low: %w", err)
	}
	cls, err := decimal.NewFromString(ev.Kline.Close)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("close: %w", err)
	}
	vol, err := decimal.NewFromString(ev.Kline.Volume)
	if err != nil {
		return types.Candle{}, false, fmt.Errorf("volume: %w", err)
	}

	return types.Candle{
		Instrument: f.instrument,
		Open:       open,
		High:       high,
		Low:        low,
		Close:      cls,
		Volume:     vol,
		Interval:   f.interval,
		OpenTime:   time.UnixMilli(ev.Kline.OpenTime),
		CloseTime:  time.UnixMilli(ev.Kline.CloseTime),
	}, true, nil
}
