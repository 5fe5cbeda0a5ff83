package domain

import "time"

// Candle is one fixed-granularity OHLCV bar from the feed.
// Corresponds to the candles table in ClickHouse.
type Candle struct {
	TimestampMs int64   // open time, Unix milliseconds
	Open        float64 // first trade price
	High        float64 // highest trade price
	Low         float64 // lowest trade price
	Close       float64 // last trade price
	Volume      float64 // base asset volume
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.TimestampMs).UTC()
}

// DailyAggregate is the running daily OHLCV bar built from candles that
// share a calendar day.
type DailyAggregate struct {
	DayStart time.Time // midnight of the day in the feed's location
	Open     float64   // fixed when the day is seeded
	High     float64   // widens monotonically
	Low      float64   // widens monotonically
	Close    float64   // last candle close
	Volume   float64   // accumulated candle volume
}

// Range returns High - Low.
func (d DailyAggregate) Range() float64 {
	return d.High - d.Low
}

// Targets holds the breakout levels for one trading day.
type Targets struct {
	Buy  float64 // long entry trigger
	Sell float64 // short entry trigger
}

// Supported candle intervals.
const (
	Interval1Min  = "1m"
	Interval5Min  = "5m"
	Interval1Hour = "1h"
)
