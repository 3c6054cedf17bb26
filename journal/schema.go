// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	asset TEXT NOT NULL,
	timeframes TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars_1m INTEGER NOT NULL,
	bars_resampled INTEGER NOT NULL,
	gaps INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS hour_errors (
	run_id TEXT NOT NULL,
	hour DATETIME NOT NULL,
	path TEXT NOT NULL,
	reason TEXT NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hour_errors_run ON hour_errors(run_id);
`
