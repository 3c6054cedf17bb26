// Package fetch downloads hourly Dukascopy .bi5 files into the local
// download tree consumed by the decoder. It never interprets file content;
// decode failures are the ingestion side's concern.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/dukas/ticks"
)

const DefaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

// Client fetches hour files with a small worker pool. Zero values fall back
// to usable defaults so tests can construct it field by field.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
	Workers   int
	Sleep     time.Duration // polite delay per request
	Log       *slog.Logger
}

// Stats summarizes one Fetch call.
type Stats struct {
	Fetched int // downloaded this run
	Skipped int // already on disk
	Missing int // 404: no data for that hour
	Failed  int // transport or server errors
}

// URL returns the remote location of one asset-hour. Dukascopy uses
// zero-based months in URLs, same as the local layout.
func (c *Client) URL(asset string, t time.Time) string {
	t = t.UTC()
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(base, "/"), asset,
		t.Year(), int(t.Month())-1, t.Day(), t.Hour())
}

// Fetch downloads every hour in [start, end] for the asset into root,
// skipping files already present. A 404 writes a zero-length marker so the
// hour is a known gap and is not re-requested on the next run. Per-hour
// failures are counted, not fatal; only context cancellation aborts.
func (c *Client) Fetch(ctx context.Context, root, asset string, start, end time.Time) (Stats, error) {
	hours := ticks.Hours(start, end)

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	jobs := make(chan time.Time)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		st Stats
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for origin := range jobs {
				if c.Sleep > 0 {
					time.Sleep(c.Sleep)
				}

				dst := ticks.HourPath(root, asset, origin)
				outcome, err := c.downloadIfMissing(ctx, asset, origin, dst)

				mu.Lock()
				switch {
				case err != nil:
					st.Failed++
				case outcome == outcomeSkipped:
					st.Skipped++
				case outcome == outcomeMissing:
					st.Missing++
				default:
					st.Fetched++
				}
				mu.Unlock()

				if err != nil {
					log.Warn("fetch failed", "asset", asset, "hour", origin, "err", err)
				}
			}
		}()
	}

	var ctxErr error
loop:
	for _, h := range hours {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break loop
		case jobs <- h:
		}
	}
	close(jobs)
	wg.Wait()

	return st, ctxErr
}

type outcome int

const (
	outcomeFetched outcome = iota
	outcomeSkipped
	outcomeMissing
)

func (c *Client) downloadIfMissing(ctx context.Context, asset string, origin time.Time, dst string) (outcome, error) {
	// A zero-length file is a valid "no data" marker; only absence triggers
	// a request.
	if _, err := os.Stat(dst); err == nil {
		return outcomeSkipped, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return outcomeFetched, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(asset, origin), nil)
	if err != nil {
		return outcomeFetched, err
	}
	ua := c.UserAgent
	if ua == "" {
		ua = "dukas-downloader/1.0"
	}
	req.Header.Set("User-Agent", ua)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return outcomeFetched, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Record the gap so the hour is never requested again.
		if err := os.WriteFile(dst, nil, 0o644); err != nil {
			return outcomeMissing, err
		}
		return outcomeMissing, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcomeFetched, fmt.Errorf("http status %d", resp.StatusCode)
	}

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return outcomeFetched, err
	}
	_, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return outcomeFetched, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return outcomeFetched, closeErr
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return outcomeFetched, err
	}
	return outcomeFetched, nil
}
