package ticks

import (
	"sort"
	"time"

	"github.com/rustyeddy/dukas/market"
)

// AggregateM1 buckets ticks into half-open minute windows [m, m+1min),
// labeled by window start. Open/High/Low/Close come from the bid price and
// Volume from the bid volume; ask-side values are decoded but intentionally
// unused here. Windows with no ticks are omitted entirely.
//
// Input is expected in non-decreasing time order (file order within one
// hour); out-of-order input is re-sorted on a copy.
func AggregateM1(in []market.Tick) []market.Bar {
	if len(in) == 0 {
		return nil
	}
	if !timesSorted(in) {
		sorted := make([]market.Tick, len(in))
		copy(sorted, in)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Time.Before(sorted[j].Time)
		})
		in = sorted
	}

	var (
		bars []market.Bar
		cur  market.Bar
		open bool
	)
	for _, tk := range in {
		m := tk.Time.Truncate(time.Minute)
		if !open || !m.Equal(cur.Time) {
			if open {
				bars = append(bars, cur)
			}
			cur = market.Bar{
				Time:   m,
				Open:   tk.Bid,
				High:   tk.Bid,
				Low:    tk.Bid,
				Close:  tk.Bid,
				Volume: tk.BidVolume,
			}
			open = true
			continue
		}

		if tk.Bid > cur.High {
			cur.High = tk.Bid
		}
		if tk.Bid < cur.Low {
			cur.Low = tk.Bid
		}
		cur.Close = tk.Bid
		cur.Volume += tk.BidVolume
	}
	bars = append(bars, cur)
	return bars
}

func timesSorted(in []market.Tick) bool {
	for i := 1; i < len(in); i++ {
		if in[i].Time.Before(in[i-1].Time) {
			return false
		}
	}
	return true
}
