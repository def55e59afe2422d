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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 5s
index:
  file: /var/lib/geo/index.gob
  partitions: 4
postgis:
  host: db.internal
  max_connections: 50
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/geo/index.gob", cfg.Index.File)
	assert.Equal(t, 4, cfg.Index.Partitions)
	assert.Equal(t, "db.internal", cfg.PostGIS.Host)
	assert.Equal(t, 5432, cfg.PostGIS.Port)
	assert.Equal(t, 50, cfg.PostGIS.MaxConnections)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
postgis:
  host: db.internal
`)
	t.Setenv("GEOBOUNDS_SERVER_ADDR", ":7070")
	t.Setenv("GEOBOUNDS_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("GEOBOUNDS_POSTGIS_MAX_CONNECTIONS", "8")
	t.Setenv("GEOBOUNDS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "db.internal", cfg.PostGIS.Host)
	assert.Equal(t, 8, cfg.PostGIS.MaxConnections)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_UnprefixedEnvIgnored(t *testing.T) {
	t.Setenv("USER", "someone-else")
	t.Setenv("HOST", "elsewhere")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.PostGIS.User)
	assert.Equal(t, "localhost", cfg.PostGIS.Host)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("GEOBOUNDS_INDEX_PARTITIONS", "many")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading config")
	})
}
