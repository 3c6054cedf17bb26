package ohlcv

import "github.com/rustyeddy/dukas/market"

// TickGrouper builds fixed-count bars from a raw tick stream: every run of N
// consecutive ticks becomes one bar, timestamped at the first tick of the
// run. Groups carry across Push calls so hour boundaries do not split bars.
//
// Unlike duration bars, a trailing partial group (< N ticks) is still a bar;
// it is emitted by Flush at end of stream. N=1 is a tick-for-tick identity.
type TickGrouper struct {
	n       int
	pending []market.Tick
}

func NewTickGrouper(n int) *TickGrouper {
	if n < 1 {
		n = 1
	}
	return &TickGrouper{n: n}
}

// Push consumes the next chunk of ticks and returns every completed bar.
func (g *TickGrouper) Push(tks []market.Tick) []market.Bar {
	if len(tks) == 0 {
		return nil
	}

	g.pending = append(g.pending, tks...)

	var out []market.Bar
	for len(g.pending) >= g.n {
		out = append(out, barFromTicks(g.pending[:g.n]))
		g.pending = g.pending[g.n:]
	}
	if len(g.pending) == 0 {
		g.pending = nil
	}
	return out
}

// Flush emits the trailing partial group, if any. The grouper is reusable
// afterwards.
func (g *TickGrouper) Flush() (market.Bar, bool) {
	if len(g.pending) == 0 {
		return market.Bar{}, false
	}
	b := barFromTicks(g.pending)
	g.pending = nil
	return b, true
}

func barFromTicks(group []market.Tick) market.Bar {
	b := market.Bar{
		Time:  group[0].Time,
		Open:  group[0].Bid,
		High:  group[0].Bid,
		Low:   group[0].Bid,
		Close: group[len(group)-1].Bid,
	}
	for _, tk := range group {
		if tk.Bid > b.High {
			b.High = tk.Bid
		}
		if tk.Bid < b.Low {
			b.Low = tk.Bid
		}
		b.Volume += tk.BidVolume
	}
	return b
}
