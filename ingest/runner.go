// Package ingest drives the decode → aggregate → upsert pipeline: hourly
// tick files become 1-minute bars, stored 1-minute bars become coarser
// duration bars, and raw tick streams become fixed-count bars.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rustyeddy/dukas/journal"
	"github.com/rustyeddy/dukas/market"
	"github.com/rustyeddy/dukas/ohlcv"
	"github.com/rustyeddy/dukas/pkg/id"
	"github.com/rustyeddy/dukas/store"
	"github.com/rustyeddy/dukas/ticks"
)

// Runner wires the pipeline together. It holds no state between runs; all
// resume information lives in the store itself.
type Runner struct {
	Store       *store.Store
	Journal     journal.Journal
	Log         *slog.Logger
	DownloadDir string
}

// Stats summarizes one Run.
type Stats struct {
	RunID         string
	Bars1m        int
	BarsResampled int
	Gaps          int
	Warnings      int
}

// Run ingests one asset over [start, end]: builds the canonical 1-minute
// layer hour by hour (resuming past the last stored 1-minute bar), then
// derives every requested coarser timeframe from it. Memory stays bounded
// by one hour of ticks plus one month of 1-minute bars regardless of range.
func (r *Runner) Run(ctx context.Context, asset string, start, end time.Time, tfs []market.Timeframe) (Stats, error) {
	if start.After(end) {
		return Stats{}, fmt.Errorf("%w: %s > %s", store.ErrRange, start, end)
	}

	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	jnl := r.Journal
	if jnl == nil {
		jnl = journal.Noop{}
	}

	st := Stats{RunID: id.New()}
	startedAt := time.Now().UTC()
	start, end = start.UTC(), end.UTC()

	if err := r.buildM1(ctx, log, jnl, &st, asset, start, end); err != nil {
		return st, err
	}

	var durTFs, tickTFs []market.Timeframe
	for _, tf := range tfs {
		switch {
		case tf == market.M1:
			// already materialized
		case tf.IsTicks():
			tickTFs = append(tickTFs, tf)
		default:
			durTFs = append(durTFs, tf)
		}
	}

	if err := r.resample(ctx, &st, asset, start, end, durTFs); err != nil {
		return st, err
	}
	if err := r.tickBars(ctx, log, jnl, &st, asset, start, end, tickTFs); err != nil {
		return st, err
	}

	run := journal.Run{
		ID:            st.RunID,
		Asset:         asset,
		Timeframes:    joinTimeframes(tfs),
		Start:         start,
		End:           end,
		Bars1m:        st.Bars1m,
		BarsResampled: st.BarsResampled,
		Gaps:          st.Gaps,
		Warnings:      st.Warnings,
		StartedAt:     startedAt,
		FinishedAt:    time.Now().UTC(),
	}
	if err := jnl.RecordRun(run); err != nil {
		log.Warn("journal write failed", "run", st.RunID, "err", err)
	}

	log.Info("ingest finished", "asset", asset, "run", st.RunID,
		"bars_1m", st.Bars1m, "bars_resampled", st.BarsResampled,
		"gaps", st.Gaps, "warnings", st.Warnings)
	return st, nil
}

// buildM1 streams hour files into the canonical 1-minute layer, one bounded
// chunk at a time.
func (r *Runner) buildM1(ctx context.Context, log *slog.Logger, jnl journal.Journal, st *Stats, asset string, start, end time.Time) error {
	hourStart := start.Truncate(time.Hour)
	if last, ok, err := r.Store.LastTimestamp(asset, market.M1); err != nil {
		return err
	} else if ok {
		if h := last.Truncate(time.Hour); h.After(hourStart) {
			hourStart = h
			log.Info("resuming ingest", "asset", asset, "from", hourStart)
		}
	}

	for _, origin := range ticks.Hours(hourStart, end) {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := ticks.HourPath(r.DownloadDir, asset, origin)
		tks, err := ticks.ReadHour(path, origin)
		switch {
		case errors.Is(err, ticks.ErrDecode):
			st.Warnings++
			log.Warn("skipping undecodable hour", "path", path, "err", err)
			r.recordHourError(log, jnl, st.RunID, origin, path, err)
			continue
		case err != nil:
			return err
		}
		if len(tks) == 0 {
			st.Gaps++
			continue
		}

		n, err := r.Store.Upsert(ctx, asset, market.M1, ticks.AggregateM1(tks))
		if err != nil {
			return err
		}
		st.Bars1m += n
	}
	return nil
}

// resample derives duration timeframes from the stored 1-minute layer,
// month by month.
func (r *Runner) resample(ctx context.Context, st *Stats, asset string, start, end time.Time, tfs []market.Timeframe) error {
	if len(tfs) == 0 {
		return nil
	}

	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		next := cur.AddDate(0, 1, 0)

		m1bars, err := r.Store.LoadRange(ctx, asset, market.M1, cur, next.Add(-time.Second))
		if err != nil {
			return err
		}
		if len(m1bars) > 0 {
			for _, tf := range tfs {
				out := ohlcv.Resample(m1bars, tf)
				if len(out) == 0 {
					continue
				}
				n, err := r.Store.Upsert(ctx, asset, tf, out)
				if err != nil {
					return err
				}
				st.BarsResampled += n
			}
		}
		cur = next
	}
	return nil
}

// tickBars streams raw ticks through a fixed-count grouper per timeframe.
// Groups carry across hour (and month) boundaries; the trailing partial
// group is still a bar.
func (r *Runner) tickBars(ctx context.Context, log *slog.Logger, jnl journal.Journal, st *Stats, asset string, start, end time.Time, tfs []market.Timeframe) error {
	for _, tf := range tfs {
		g := ohlcv.NewTickGrouper(tf.Count)

		for _, origin := range ticks.Hours(start, end) {
			if err := ctx.Err(); err != nil {
				return err
			}

			path := ticks.HourPath(r.DownloadDir, asset, origin)
			tks, err := ticks.ReadHour(path, origin)
			switch {
			case errors.Is(err, ticks.ErrDecode):
				// Already counted and journaled during the 1m pass.
				continue
			case err != nil:
				return err
			}
			if len(tks) == 0 {
				continue
			}

			bars := g.Push(tks)
			if len(bars) == 0 {
				continue
			}
			// Count emitted bars, not partition sizes: the same monthly
			// partition is rewritten once per hour here.
			if _, err := r.Store.Upsert(ctx, asset, tf, bars); err != nil {
				return err
			}
			st.BarsResampled += len(bars)
		}

		if b, ok := g.Flush(); ok {
			if _, err := r.Store.Upsert(ctx, asset, tf, []market.Bar{b}); err != nil {
				return err
			}
			st.BarsResampled++
		}
	}
	return nil
}

func (r *Runner) recordHourError(log *slog.Logger, jnl journal.Journal, runID string, hour time.Time, path string, cause error) {
	err := jnl.RecordHourError(journal.HourError{
		RunID:      runID,
		Hour:       hour,
		Path:       path,
		Reason:     cause.Error(),
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("journal write failed", "run", runID, "err", err)
	}
}

func joinTimeframes(tfs []market.Timeframe) string {
	parts := make([]string, len(tfs))
	for i, tf := range tfs {
		parts[i] = tf.String()
	}
	return strings.Join(parts, ",")
}
