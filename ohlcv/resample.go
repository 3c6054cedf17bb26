// Package ohlcv derives coarser bars from the canonical 1-minute layer and
// from raw tick streams.
package ohlcv

import (
	"sort"

	"github.com/rustyeddy/dukas/market"
)

// Resample buckets 1-minute bars into half-open, left-labeled windows of the
// requested duration: Open=first, High=max, Low=min, Close=last, Volume=sum.
//
// A window containing any bar with a null (NaN) OHLC field is dropped whole;
// windows with no contributing bars are never emitted. Resample requires a
// duration timeframe; use TickGrouper for tick-count bars.
func Resample(m1 []market.Bar, tf market.Timeframe) []market.Bar {
	if tf.IsTicks() {
		panic("ohlcv: Resample requires a duration timeframe")
	}
	if len(m1) == 0 {
		return nil
	}
	if tf == market.M1 {
		out := make([]market.Bar, len(m1))
		copy(out, m1)
		return out
	}

	if !barsSorted(m1) {
		sorted := make([]market.Bar, len(m1))
		copy(sorted, m1)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Time.Before(sorted[j].Time)
		})
		m1 = sorted
	}

	d := tf.Duration()

	var (
		out  []market.Bar
		cur  market.Bar
		open bool
		null bool
	)
	flush := func() {
		if open && !null {
			out = append(out, cur)
		}
	}

	for _, b := range m1 {
		w := b.Time.Truncate(d)
		if !open || !w.Equal(cur.Time) {
			flush()
			cur = market.Bar{
				Time:   w,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			}
			open = true
			null = b.HasNull()
			continue
		}

		if b.HasNull() {
			null = true
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	flush()
	return out
}

func barsSorted(bars []market.Bar) bool {
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Before(bars[i-1].Time) {
			return false
		}
	}
	return true
}
