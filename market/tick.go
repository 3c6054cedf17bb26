package market

import "time"

// Tick is a single Dukascopy quote event. Prices are fixed-point i32 scaled
// by 100000 on the wire; in memory they are plain float64.
//
// Ticks are ephemeral: they exist for the duration of one ingestion pass and
// are never persisted.
type Tick struct {
	Time      time.Time
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
