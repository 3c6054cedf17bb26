package market

import (
	"math"
	"time"
)

// Bar represents OHLCV (Open, High, Low, Close, Volume) candlestick data.
// Time is the bar open, UTC, inclusive. A bar is only ever built from at
// least one tick; empty windows are dropped, never zero-filled.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// HasNull reports whether any OHLC field is NaN. Bars aggregated by this
// module never carry NaN, but stored partitions written by other tools may.
func (b Bar) HasNull() bool {
	return math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close)
}
