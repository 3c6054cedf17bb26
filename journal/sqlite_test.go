package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ingest.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','hour_errors')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["hour_errors"])
}

func TestSQLiteRecordAndListRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	started := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	r1 := Run{
		ID: "01HK0000000000000000000001", Asset: "EURUSD", Timeframes: "1m,1h",
		Start: started, End: started.AddDate(0, 1, 0),
		Bars1m: 1200, BarsResampled: 20, Gaps: 3, Warnings: 1,
		StartedAt: started, FinishedAt: started.Add(time.Minute),
	}
	r2 := r1
	r2.ID = "01HK0000000000000000000002"
	r2.Asset = "AUDUSD"

	require.NoError(t, j.RecordRun(r1))
	require.NoError(t, j.RecordRun(r2))

	runs, err := j.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, r2.ID, runs[0].ID) // newest first

	runs, err = j.ListRuns(ctx, "EURUSD")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "EURUSD", runs[0].Asset)
	assert.Equal(t, 1200, runs[0].Bars1m)
	assert.Equal(t, 3, runs[0].Gaps)
}

func TestSQLiteHourErrors(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	hour := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	e := HourError{
		RunID:      "01HK0000000000000000000001",
		Hour:       hour,
		Path:       "download/EURUSD/2024/00/08/10h_ticks.bi5",
		Reason:     "undecodable hour file",
		RecordedAt: hour.Add(time.Second),
	}
	require.NoError(t, j.RecordHourError(e))

	errs, err := j.ListHourErrors(ctx, e.RunID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, e.Path, errs[0].Path)
	assert.Equal(t, e.Reason, errs[0].Reason)

	errs, err = j.ListHourErrors(ctx, "other-run")
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestNoopJournal(t *testing.T) {
	t.Parallel()

	var j Journal = Noop{}
	assert.NoError(t, j.RecordRun(Run{}))
	assert.NoError(t, j.RecordHourError(HourError{}))
	assert.NoError(t, j.Close())
}
