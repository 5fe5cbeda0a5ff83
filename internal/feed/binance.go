package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"breakout-lab/internal/domain"
)

// Binance paging defaults.
const (
	DefaultPageLimit = 1000
	DefaultPagePause = 100 * time.Millisecond
	DefaultInterval  = "1m"
)

// KlineClient fetches one page of klines.
type KlineClient interface {
	Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error)
}

// SpotClient adapts the go-binance spot client to KlineClient.
type SpotClient struct {
	client *binance.Client
}

// NewSpotClient creates a spot market client. Keys may be empty: klines
// are public.
func NewSpotClient(apiKey, secretKey string) *SpotClient {
	c := binance.NewClient(apiKey, secretKey)
	c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return &SpotClient{client: c}
}

// Klines implements KlineClient. A zero end leaves the range open.
func (c *SpotClient) Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error) {
	svc := c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start).
		Limit(limit)
	if end > 0 {
		svc = svc.EndTime(end)
	}
	return svc.Do(ctx)
}

// Binance downloads klines page by page, advancing a cursor past the last
// open time of each page.
type Binance struct {
	Client   KlineClient
	Symbol   string
	Interval string // defaults to 1m
	Start    int64  // first open time, Unix ms
	End      int64  // last open time, Unix ms; 0 means up to now

	PageLimit int           // defaults to DefaultPageLimit
	Pause     time.Duration // minimum delay between pages, defaults to DefaultPagePause
}

// Name returns "binance".
func (Binance) Name() string { return "binance" }

// Load downloads the whole range.
func (b Binance) Load(ctx context.Context) ([]domain.Candle, error) {
	var all []domain.Candle
	err := b.Each(ctx, func(page []domain.Candle) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Each calls fn with every downloaded page in order. It stops at the first
// error from the client or fn.
func (b Binance) Each(ctx context.Context, fn func(page []domain.Candle) error) error {
	interval := b.Interval
	if interval == "" {
		interval = DefaultInterval
	}
	limit := b.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	pause := b.Pause
	if pause <= 0 {
		pause = DefaultPagePause
	}
	limiter := rate.NewLimiter(rate.Every(pause), 1)

	cursor := b.Start
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		klines, err := b.Client.Klines(ctx, b.Symbol, interval, cursor, b.End, limit)
		if err != nil {
			return fmt.Errorf("fetch klines from %d: %w", cursor, err)
		}
		if len(klines) == 0 {
			return nil
		}

		page, err := convertKlines(klines)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}

		cursor = page[len(page)-1].TimestampMs + 1
		if len(klines) < limit || (b.End > 0 && cursor > b.End) {
			return nil
		}
	}
}

func convertKlines(klines []*binance.Kline) ([]domain.Candle, error) {
	out := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		c := domain.Candle{TimestampMs: k.OpenTime}
		fields := []struct {
			raw string
			dst *float64
		}{
			{k.Open, &c.Open},
			{k.High, &c.High},
			{k.Low, &c.Low},
			{k.Close, &c.Close},
			{k.Volume, &c.Volume},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f.raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: kline %d value %q", ErrMalformedRow, k.OpenTime, f.raw)
			}
			*f.dst = v
		}
		out = append(out, c)
	}
	return out, nil
}
