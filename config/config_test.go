package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadTimeframe(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Ingest.Timeframes = []string{"1m", "7x"}
	assert.Error(t, cfg.Validate())

	cfg.Ingest.Timeframes = []string{"0m"}
	assert.Error(t, cfg.Validate())

	cfg.Ingest.Timeframes = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Download.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Compression = "brotli"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dukas.yaml")
	doc := `
download:
  dir: /tmp/dl
  base_url: https://example.com/datafeed
  workers: 4
  timeout_ms: 10000
  sleep_ms: 25
store:
  dir: /tmp/bars
  compression: snappy
journal:
  db_path: /tmp/ingest.db
ingest:
  timeframes: ["1m", "1h", "100t"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dl", cfg.Download.Dir)
	assert.Equal(t, 4, cfg.Download.Workers)
	assert.Equal(t, "snappy", cfg.Store.Compression)
	assert.Equal(t, "/tmp/ingest.db", cfg.Journal.DBPath)

	tfs, err := cfg.Timeframes()
	require.NoError(t, err)
	require.Len(t, tfs, 3)
	assert.True(t, tfs[2].IsTicks())
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dukas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  timeframes: [\"9q\"]\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
