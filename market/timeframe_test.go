package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Timeframe
		wantErr bool
	}{
		{in: "1m", want: Timeframe{1, UnitMinute}},
		{in: "15m", want: Timeframe{15, UnitMinute}},
		{in: "4h", want: Timeframe{4, UnitHour}},
		{in: "10s", want: Timeframe{10, UnitSecond}},
		{in: "1D", want: Timeframe{1, UnitDay}},
		{in: "2W", want: Timeframe{2, UnitWeek}},
		{in: "100t", want: Timeframe{100, UnitTick}},
		{in: "", wantErr: true},
		{in: "m", wantErr: true},
		{in: "0m", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "5x", wantErr: true},
		{in: "1d", wantErr: true}, // days are uppercase D
		{in: "1w", wantErr: true},
		{in: "h4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tf, err := ParseTimeframe(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTimeframe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tf)
			assert.Equal(t, tt.in, tf.String())
		})
	}
}

func TestTimeframeDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, M1.Duration())
	assert.Equal(t, 4*time.Hour, Timeframe{4, UnitHour}.Duration())
	assert.Equal(t, 24*time.Hour, Timeframe{1, UnitDay}.Duration())
	assert.Equal(t, 14*24*time.Hour, Timeframe{2, UnitWeek}.Duration())
	assert.Equal(t, time.Duration(0), Timeframe{100, UnitTick}.Duration())
	assert.True(t, Timeframe{100, UnitTick}.IsTicks())
	assert.False(t, M1.IsTicks())
}
