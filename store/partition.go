package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/rustyeddy/dukas/market"
)

// PartitionFile is the single data file inside each partition directory.
const PartitionFile = "bars.parquet"

// barRow is the on-disk schema, one row per bar. Column names follow the
// classic OHLCV frame layout; datetime is unix milliseconds UTC.
type barRow struct {
	Datetime int64   `parquet:"datetime"`
	Open     float64 `parquet:"Open"`
	High     float64 `parquet:"High"`
	Low      float64 `parquet:"Low"`
	Close    float64 `parquet:"Close"`
	Volume   float64 `parquet:"Volume"`
}

func toRow(b market.Bar) barRow {
	return barRow{
		Datetime: b.Time.UnixMilli(),
		Open:     b.Open,
		High:     b.High,
		Low:      b.Low,
		Close:    b.Close,
		Volume:   b.Volume,
	}
}

func fromRow(r barRow) market.Bar {
	return market.Bar{
		Time:   time.UnixMilli(r.Datetime).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

// PartitionPath returns the location of the partition holding bars for one
// asset, timeframe and calendar month.
func PartitionPath(root, asset string, tf market.Timeframe, year int, month time.Month) string {
	return filepath.Join(root,
		"asset="+asset,
		"tf="+tf.String(),
		fmt.Sprintf("year=%04d", year),
		fmt.Sprintf("month=%02d", int(month)),
		PartitionFile)
}

func codec(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "zstd", "":
		return &parquet.Zstd
	case "lz4":
		return &parquet.Lz4Raw
	case "gzip":
		return &parquet.Gzip
	case "none":
		return &parquet.Uncompressed
	}
	return &parquet.Zstd
}

// readPartition loads one partition file. A missing file means "no data in
// that month" and yields (nil, nil); a present-but-unparsable file is
// ErrCorrupt and must never be silently skipped.
func readPartition(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// Validate the footer up front: NewGenericReader panics on malformed
	// input, OpenFile reports it as an error.
	pf, err := parquet.OpenFile(f, st.Size(), parquet.ReadBufferSize(1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	r := parquet.NewGenericReader[barRow](pf)
	defer r.Close()

	n := int(r.NumRows())
	if n == 0 {
		return nil, nil
	}

	rows := make([]barRow, n)
	if _, err := r.Read(rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	bars := make([]market.Bar, n)
	for i := range rows {
		bars[i] = fromRow(rows[i])
	}
	return bars, nil
}

// writePartition rewrites a whole partition file. The content lands in a
// .part sibling first and is renamed into place so a concurrent reader sees
// either the old file or the new one, never a torn write.
func writePartition(path string, bars []market.Bar, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := parquet.NewGenericWriter[barRow](f, parquet.Compression(codec(opts.Compression)))

	rows := make([]barRow, len(bars))
	for i := range bars {
		rows[i] = toRow(bars[i])
	}

	if _, err := w.Write(rows); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write partition %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("close partition writer %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
