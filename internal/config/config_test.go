package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  name: cinedex
  user: cinedex
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.DemoMode)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "local", cfg.Posters.Backend)
	assert.Equal(t, "./posters", cfg.Posters.Dir)
	assert.Equal(t, "http://localhost:8090", cfg.Inference.URL)
	assert.Equal(t, 120*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 10, cfg.Indexer.BatchSize)
	assert.Equal(t, 30*time.Minute, cfg.Indexer.StuckJobTimeout)
	assert.Equal(t, "/tmp/cinedex-indexer.lock", cfg.Indexer.LockFile)
	assert.Equal(t, 9091, cfg.Indexer.MetricsPort)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.Media.FFprobePath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  demo_mode: true
database:
  host: db.internal
  port: 5433
  name: archive
  user: indexer
  password: pw
nats:
  url: nats://queue:4222
posters:
  backend: minio
minio:
  endpoint: minio:9000
  bucket: posters
indexer:
  batch_size: 25
  stuck_job_timeout_minutes: 15
  metrics_port: 9100
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.DemoMode)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.Equal(t, "minio", cfg.Posters.Backend)
	assert.Equal(t, 25, cfg.Indexer.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.Indexer.StuckJobTimeout)
	assert.Equal(t, 9100, cfg.Indexer.MetricsPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  host: from-file
`)

	t.Setenv("CINEDEX_SERVER_PORT", "7070")
	t.Setenv("CINEDEX_DB_HOST", "from-env")
	t.Setenv("CINEDEX_DEMO_MODE", "true")
	t.Setenv("CINEDEX_NATS_URL", "nats://env:4222")
	t.Setenv("CINEDEX_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.True(t, cfg.Server.DemoMode)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "cinedex", User: "app", Password: "pw"}
	assert.Equal(t, "postgres://app:pw@db:5432/cinedex?sslmode=disable", d.DSN())
}
