package ticks

import (
	"fmt"
	"path/filepath"
	"time"
)

// HourPath returns the on-disk location of one hourly tick file under the
// download root. Dukascopy uses zero-based months in the path: Jan=00.
func HourPath(root, asset string, t time.Time) string {
	t = t.UTC()
	return filepath.Join(root, asset,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())-1),
		fmt.Sprintf("%02d", t.Day()),
		fmt.Sprintf("%02dh_ticks.bi5", t.Hour()))
}

// Hours enumerates hour origins from start to end inclusive, truncated to
// the hour, in UTC.
func Hours(start, end time.Time) []time.Time {
	cur := start.UTC().Truncate(time.Hour)
	end = end.UTC()

	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.Add(time.Hour)
	}
	return out
}
