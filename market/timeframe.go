package market

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrTimeframe is returned for strings that do not match the
// <positive integer><unit> grammar.
var ErrTimeframe = errors.New("invalid timeframe")

// Unit is the bucketing unit of a Timeframe.
type Unit byte

const (
	UnitTick   Unit = 't'
	UnitSecond Unit = 's'
	UnitMinute Unit = 'm'
	UnitHour   Unit = 'h'
	UnitDay    Unit = 'D'
	UnitWeek   Unit = 'W'
)

// Timeframe is either a tick count (Unit == UnitTick) or a wall-clock
// duration. Tick-count bars are built directly from raw ticks; duration bars
// are resampled from stored 1-minute bars.
type Timeframe struct {
	Count int
	Unit  Unit
}

// M1 is the canonical base layer: every duration timeframe is derived from
// stored 1-minute bars.
var M1 = Timeframe{Count: 1, Unit: UnitMinute}

// ParseTimeframe parses strings like "1m", "4h", "100t". Unknown units and
// non-positive counts are configuration errors, rejected before any I/O.
func ParseTimeframe(s string) (Timeframe, error) {
	if len(s) < 2 {
		return Timeframe{}, fmt.Errorf("%w: %q", ErrTimeframe, s)
	}

	unit := Unit(s[len(s)-1])
	switch unit {
	case UnitTick, UnitSecond, UnitMinute, UnitHour, UnitDay, UnitWeek:
	default:
		return Timeframe{}, fmt.Errorf("%w: unknown unit in %q", ErrTimeframe, s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("%w: bad count in %q", ErrTimeframe, s)
	}

	return Timeframe{Count: n, Unit: unit}, nil
}

// String returns the canonical form used in partition directory names.
func (tf Timeframe) String() string {
	return strconv.Itoa(tf.Count) + string(tf.Unit)
}

func (tf Timeframe) IsTicks() bool {
	return tf.Unit == UnitTick
}

// Duration returns the wall-clock width of one bar. Tick timeframes have no
// duration; callers must check IsTicks first.
func (tf Timeframe) Duration() time.Duration {
	c := time.Duration(tf.Count)
	switch tf.Unit {
	case UnitSecond:
		return c * time.Second
	case UnitMinute:
		return c * time.Minute
	case UnitHour:
		return c * time.Hour
	case UnitDay:
		return c * 24 * time.Hour
	case UnitWeek:
		return c * 7 * 24 * time.Hour
	}
	return 0
}
