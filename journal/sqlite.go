package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, asset, timeframes, start_time, end_time, bars_1m, bars_resampled, gaps, warnings, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Asset, r.Timeframes, r.Start, r.End,
		r.Bars1m, r.BarsResampled, r.Gaps, r.Warnings, r.StartedAt, r.FinishedAt,
	)
	return err
}

func (j *SQLite) RecordHourError(e HourError) error {
	_, err := j.db.Exec(`
		INSERT INTO hour_errors
		(run_id, hour, path, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Hour, e.Path, e.Reason, e.RecordedAt,
	)
	return err
}

// ListRuns returns runs newest-first. ULID run IDs sort by creation time,
// so ordering by run_id is ordering by time.
func (j *SQLite) ListRuns(ctx context.Context, asset string) ([]Run, error) {
	q := `SELECT run_id, asset, timeframes, start_time, end_time,
		bars_1m, bars_resampled, gaps, warnings, started_at, finished_at
		FROM runs`
	args := []any{}
	if asset != "" {
		q += ` WHERE asset = ?`
		args = append(args, asset)
	}
	q += ` ORDER BY run_id DESC`

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Asset, &r.Timeframes, &r.Start, &r.End,
			&r.Bars1m, &r.BarsResampled, &r.Gaps, &r.Warnings, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListHourErrors returns the recoverable failures recorded for one run.
func (j *SQLite) ListHourErrors(ctx context.Context, runID string) ([]HourError, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, hour, path, reason, recorded_at
		FROM hour_errors WHERE run_id = ? ORDER BY hour`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HourError
	for rows.Next() {
		var e HourError
		if err := rows.Scan(&e.RunID, &e.Hour, &e.Path, &e.Reason, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
