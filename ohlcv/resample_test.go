package ohlcv

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/dukas/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hourStart = time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)

// minuteBars builds n consecutive 1m bars starting at start.
func minuteBars(start time.Time, n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		px := 1.1 + float64(i)*0.0001
		bars[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   px,
			High:   px + 0.0002,
			Low:    px - 0.0002,
			Close:  px + 0.0001,
			Volume: 1,
		}
	}
	return bars
}

func TestResampleHourFromFullMinutes(t *testing.T) {
	t.Parallel()

	m1 := minuteBars(hourStart, 60)
	out := Resample(m1, market.Timeframe{Count: 1, Unit: market.UnitHour})

	require.Len(t, out, 1)
	b := out[0]
	assert.Equal(t, hourStart, b.Time)
	assert.InDelta(t, m1[0].Open, b.Open, 1e-9)
	assert.InDelta(t, m1[59].Close, b.Close, 1e-9)
	assert.InDelta(t, m1[59].High, b.High, 1e-9)
	assert.InDelta(t, m1[0].Low, b.Low, 1e-9)
	assert.InDelta(t, 60, b.Volume, 1e-9)
}

func TestResampleDropsWindowWithNullField(t *testing.T) {
	t.Parallel()

	m1 := minuteBars(hourStart, 120)
	m1[30].High = math.NaN() // poisons the first hour only

	out := Resample(m1, market.Timeframe{Count: 1, Unit: market.UnitHour})
	require.Len(t, out, 1)
	assert.Equal(t, hourStart.Add(time.Hour), out[0].Time)
}

func TestResampleLeftLabeledWindows(t *testing.T) {
	t.Parallel()

	// Bars at 10:03 and 10:07 land in the 10:00 and 10:05 5m windows.
	bars := []market.Bar{
		{Time: hourStart.Add(3 * time.Minute), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Time: hourStart.Add(7 * time.Minute), Open: 2, High: 2, Low: 2, Close: 2, Volume: 2},
	}

	out := Resample(bars, market.Timeframe{Count: 5, Unit: market.UnitMinute})
	require.Len(t, out, 2)
	assert.Equal(t, hourStart, out[0].Time)
	assert.Equal(t, hourStart.Add(5*time.Minute), out[1].Time)
	assert.InDelta(t, 1, out[0].Volume, 1e-9)
	assert.InDelta(t, 2, out[1].Volume, 1e-9)
}

func TestResampleSkipsEmptyWindows(t *testing.T) {
	t.Parallel()

	// A 6-hour hole between contributing minutes must not produce bars.
	bars := []market.Bar{
		{Time: hourStart, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Time: hourStart.Add(6 * time.Hour), Open: 2, High: 2, Low: 2, Close: 2, Volume: 1},
	}

	out := Resample(bars, market.Timeframe{Count: 1, Unit: market.UnitHour})
	require.Len(t, out, 2)
	assert.Equal(t, hourStart, out[0].Time)
	assert.Equal(t, hourStart.Add(6*time.Hour), out[1].Time)
}

func TestResampleM1IsCopy(t *testing.T) {
	t.Parallel()

	m1 := minuteBars(hourStart, 3)
	out := Resample(m1, market.M1)

	require.Equal(t, m1, out)
	out[0].Open = 42
	assert.NotEqual(t, m1[0].Open, out[0].Open)
}

func TestResampleResortsInput(t *testing.T) {
	t.Parallel()

	m1 := minuteBars(hourStart, 3)
	shuffled := []market.Bar{m1[2], m1[0], m1[1]}

	out := Resample(shuffled, market.Timeframe{Count: 1, Unit: market.UnitHour})
	require.Len(t, out, 1)
	assert.InDelta(t, m1[0].Open, out[0].Open, 1e-9)
	assert.InDelta(t, m1[2].Close, out[0].Close, 1e-9)
}

func TestResampleEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Resample(nil, market.Timeframe{Count: 1, Unit: market.UnitHour}))
}

func TestResamplePanicsOnTickTimeframe(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		Resample(minuteBars(hourStart, 1), market.Timeframe{Count: 10, Unit: market.UnitTick})
	})
}
