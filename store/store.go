// Package store persists OHLCV bars in parquet partitions keyed by
// (asset, timeframe, year, month). Partitions are independently readable and
// writable; directory names, not file content, are authoritative for
// enumeration.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/dukas/market"
)

var (
	// ErrRange is returned when a range read is given start > end.
	ErrRange = errors.New("range start after end")

	// ErrCorrupt marks a partition file that exists but cannot be parsed.
	// Unlike a missing file it is fatal: prior data may be unrecoverable.
	ErrCorrupt = errors.New("corrupt partition file")

	// ErrSchema is returned when bars handed to Upsert fail validation.
	ErrSchema = errors.New("invalid bar")
)

// Options tunes the on-disk representation.
type Options struct {
	// Compression is the parquet codec: zstd (default), snappy, lz4, gzip
	// or none.
	Compression string

	// MaxScanMonths caps month enumeration when a range read has a start
	// but no end, so a far-past start cannot turn into an unbounded scan.
	MaxScanMonths int
}

func DefaultOptions() Options {
	return Options{
		Compression:   "zstd",
		MaxScanMonths: 2400,
	}
}

// Store is a partitioned bar store rooted at a single directory.
//
// Upserts to the same partition serialize on a per-partition mutex; upserts
// to different partitions and all reads proceed in parallel. Reads racing a
// same-partition upsert see the pre- or post-upsert file, never a torn one
// (partition writes go through temp-file + rename).
type Store struct {
	root string
	opts Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(root string, opts Options) *Store {
	if opts.MaxScanMonths <= 0 {
		opts.MaxScanMonths = DefaultOptions().MaxScanMonths
	}
	return &Store{
		root:  root,
		opts:  opts,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) Root() string { return s.root }

func (s *Store) partitionLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk, ok := s.locks[path]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[path] = lk
	}
	return lk
}

// Upsert merges bars into their monthly partitions: read existing, append
// new, dedup by timestamp with the current call winning, sort, rewrite the
// whole file. Re-running with the same or overlapping data is always safe.
//
// Returns the total row count written across all touched partitions. The
// context is checked between partitions, never mid-write.
func (s *Store) Upsert(ctx context.Context, asset string, tf market.Timeframe, bars []market.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	in := make([]market.Bar, len(bars))
	copy(in, bars)
	for i := range in {
		if in[i].Time.IsZero() {
			return 0, fmt.Errorf("%w: zero timestamp at index %d", ErrSchema, i)
		}
		in[i].Time = in[i].Time.UTC()
	}

	// Stable by time so that, among duplicates within this call, later input
	// rows keep winning after the keep-last dedup.
	sort.SliceStable(in, func(i, j int) bool { return in[i].Time.Before(in[j].Time) })

	type ym struct {
		y int
		m time.Month
	}
	groups := make(map[ym][]market.Bar)
	var order []ym
	for _, b := range in {
		k := ym{b.Time.Year(), b.Time.Month()}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], b)
	}

	total := 0
	for _, k := range order {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.upsertPartition(asset, tf, k.y, k.m, groups[k])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *Store) upsertPartition(asset string, tf market.Timeframe, year int, month time.Month, add []market.Bar) (int, error) {
	path := PartitionPath(s.root, asset, tf, year, month)

	lk := s.partitionLock(path)
	lk.Lock()
	defer lk.Unlock()

	existing, err := readPartition(path)
	if err != nil {
		return 0, err
	}

	// Existing rows come first so keep-last favors this call's rows on
	// duplicate timestamps.
	merged := append(existing, add...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
	merged = dedupKeepLast(merged)

	if err := writePartition(path, merged, s.opts); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// LastTimestamp returns the maximum bar timestamp inside the
// lexicographically last existing (year, month) partition, or ok=false when
// the key has no partitions. The orchestrator uses it to resume ingestion.
func (s *Store) LastTimestamp(asset string, tf market.Timeframe) (time.Time, bool, error) {
	base := s.keyDir(asset, tf)

	years, err := listKeyed(base, "year=")
	if err != nil || len(years) == 0 {
		return time.Time{}, false, err
	}
	lastYear := years[len(years)-1]

	months, err := listKeyed(filepath.Join(base, fmt.Sprintf("year=%04d", lastYear)), "month=")
	if err != nil || len(months) == 0 {
		return time.Time{}, false, err
	}
	lastMonth := months[len(months)-1]

	bars, err := readPartition(PartitionPath(s.root, asset, tf, lastYear, time.Month(lastMonth)))
	if err != nil {
		return time.Time{}, false, err
	}
	if len(bars) == 0 {
		return time.Time{}, false, nil
	}

	last := bars[0].Time
	for _, b := range bars[1:] {
		if b.Time.After(last) {
			last = b.Time
		}
	}
	return last, true, nil
}

// LoadRange reads all bars for the key whose timestamps fall in
// [start, end], both inclusive. A zero time means unbounded on that side.
// Candidate partitions come from month enumeration when start is set, or
// from a full directory listing otherwise; missing files are gaps, not
// errors. The result is sorted ascending with no duplicate timestamps.
func (s *Store) LoadRange(ctx context.Context, asset string, tf market.Timeframe, start, end time.Time) ([]market.Bar, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrRange, start, end)
	}
	if !start.IsZero() {
		start = start.UTC()
	}
	if !end.IsZero() {
		end = end.UTC()
	}

	months, err := s.candidateMonths(asset, tf, start, end)
	if err != nil {
		return nil, err
	}

	var out []market.Bar
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := readPartition(PartitionPath(s.root, asset, tf, m.Year(), m.Month()))
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}

	filtered := out[:0]
	for _, b := range out {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		filtered = append(filtered, b)
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Time.Before(filtered[j].Time) })
	return dedupKeepLast(filtered), nil
}

// candidateMonths returns first-of-month UTC instants for every partition
// worth reading.
func (s *Store) candidateMonths(asset string, tf market.Timeframe, start, end time.Time) ([]time.Time, error) {
	if start.IsZero() {
		return s.listMonths(asset, tf)
	}

	var months []time.Time
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for {
		months = append(months, cur)
		next := cur.AddDate(0, 1, 0)
		if !end.IsZero() {
			if next.After(end) {
				break
			}
		} else if len(months) >= s.opts.MaxScanMonths {
			break
		}
		cur = next
	}
	return months, nil
}

func (s *Store) listMonths(asset string, tf market.Timeframe) ([]time.Time, error) {
	base := s.keyDir(asset, tf)

	years, err := listKeyed(base, "year=")
	if err != nil {
		return nil, err
	}

	var months []time.Time
	for _, y := range years {
		ms, err := listKeyed(filepath.Join(base, fmt.Sprintf("year=%04d", y)), "month=")
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			months = append(months, time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC))
		}
	}
	return months, nil
}

// Assets enumerates assets that have at least one partition directory.
func (s *Store) Assets() ([]string, error) {
	return listPrefixed(s.root, "asset=")
}

// Timeframes enumerates stored timeframes for one asset.
func (s *Store) Timeframes(asset string) ([]market.Timeframe, error) {
	names, err := listPrefixed(filepath.Join(s.root, "asset="+asset), "tf=")
	if err != nil {
		return nil, err
	}

	tfs := make([]market.Timeframe, 0, len(names))
	for _, n := range names {
		tf, err := market.ParseTimeframe(n)
		if err != nil {
			// Foreign directories under the root are not ours to interpret.
			continue
		}
		tfs = append(tfs, tf)
	}
	return tfs, nil
}

func (s *Store) keyDir(asset string, tf market.Timeframe) string {
	return filepath.Join(s.root, "asset="+asset, "tf="+tf.String())
}

// listKeyed returns the sorted integer values of "<prefix>NN" directories.
func listKeyed(dir, prefix string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var vals []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		v, err := strconv.Atoi(strings.TrimPrefix(e.Name(), prefix))
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	sort.Ints(vals)
	return vals, nil
}

// listPrefixed returns the sorted suffixes of "<prefix>name" directories.
func listPrefixed(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(e.Name(), prefix))
	}
	sort.Strings(names)
	return names, nil
}

func dedupKeepLast(bars []market.Bar) []market.Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
