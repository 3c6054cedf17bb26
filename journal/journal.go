// Package journal records ingestion runs and per-hour errors so incremental
// reruns can be audited and failed hours re-fetched later.
package journal

import "time"

// Run is one completed ingestion pass for a single asset.
type Run struct {
	ID            string // ULID, time-sortable
	Asset         string
	Timeframes    string // comma-joined, as requested
	Start         time.Time
	End           time.Time
	Bars1m        int
	BarsResampled int
	Gaps          int
	Warnings      int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// HourError is a recoverable per-hour failure (undecodable file, failed
// download) recorded for later inspection or re-fetch.
type HourError struct {
	RunID      string
	Hour       time.Time
	Path       string
	Reason     string
	RecordedAt time.Time
}

type Journal interface {
	RecordRun(Run) error
	RecordHourError(HourError) error
	Close() error
}

// Noop discards everything. Used when no journal path is configured.
type Noop struct{}

func (Noop) RecordRun(Run) error             { return nil }
func (Noop) RecordHourError(HourError) error { return nil }
func (Noop) Close() error                    { return nil }
