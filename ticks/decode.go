package ticks

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/rustyeddy/dukas/market"
	"github.com/ulikunitz/xz/lzma"
)

// RecordWidth is the fixed size of one tick record in a decompressed hour
// file: {ms u32, bid i32, ask i32, bidVol f32, askVol f32}, all big-endian,
// packed with no delimiters or count header.
const RecordWidth = 20

// priceScale converts Dukascopy fixed-point prices to floats.
const priceScale = 100000.0

// ErrDecode marks an hour file that is present but undecodable (truncated
// LZMA stream, byte length not a multiple of RecordWidth). Callers treat it
// like a gap: log and move on.
var ErrDecode = errors.New("undecodable hour file")

// Decode turns the decompressed content of one hourly file into ticks.
// Each record's timestamp is origin plus its millisecond offset. Empty input
// is a gap, not an error. Output order equals file order; records are not
// re-sorted here.
func Decode(raw []byte, origin time.Time) ([]market.Tick, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw)%RecordWidth != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of record width %d",
			ErrDecode, len(raw), RecordWidth)
	}

	origin = origin.UTC()
	n := len(raw) / RecordWidth
	out := make([]market.Tick, 0, n)
	for i := 0; i < n; i++ {
		rec := raw[i*RecordWidth : (i+1)*RecordWidth]

		// Big-endian on the wire; convert to host representation before any
		// arithmetic so byte order never leaks into comparisons downstream.
		ms := binary.BigEndian.Uint32(rec[0:4])
		bid := int32(binary.BigEndian.Uint32(rec[4:8]))
		ask := int32(binary.BigEndian.Uint32(rec[8:12]))
		bidVol := math.Float32frombits(binary.BigEndian.Uint32(rec[12:16]))
		askVol := math.Float32frombits(binary.BigEndian.Uint32(rec[16:20]))

		out = append(out, market.Tick{
			Time:      origin.Add(time.Duration(ms) * time.Millisecond),
			Bid:       float64(bid) / priceScale,
			Ask:       float64(ask) / priceScale,
			BidVolume: float64(bidVol),
			AskVolume: float64(askVol),
		})
	}
	return out, nil
}

// ReadHour decompresses and decodes one hourly .bi5 file.
//
// A missing or zero-length file is a gap: (nil, nil). A file that fails to
// decompress or decode returns an error wrapping ErrDecode so callers can
// keep going. Anything else is a hard I/O error.
func ReadHour(path string, origin time.Time) ([]market.Tick, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	flat, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	tks, err := Decode(flat, origin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tks, nil
}
