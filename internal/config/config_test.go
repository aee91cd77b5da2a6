package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.KeepArchive)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: http://symbols.example.com
timeout: 30s
keep_archive: true
log:
  level: debug
  pretty: false
`), 0o644))

	cfg := Default()
	require.NoError(t, loadFile(&cfg, path))

	assert.Equal(t, "http://symbols.example.com", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.KeepArchive)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://mirror.example.com\n"), 0o644))

	cfg := Default()
	require.NoError(t, loadFile(&cfg, path))

	assert.Equal(t, "http://mirror.example.com", cfg.ServerURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unclosed"), 0o644))

	cfg := Default()
	assert.Error(t, loadFile(&cfg, path))
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SYMFETCH_SERVER_URL", "http://env.example.com")
	t.Setenv("SYMFETCH_TIMEOUT", "90s")
	t.Setenv("SYMFETCH_KEEP_ARCHIVE", "true")
	t.Setenv("SYMFETCH_LOG_LEVEL", "warn")
	t.Setenv("SYMFETCH_LOG_PRETTY", "false")

	cfg := Default()
	require.NoError(t, LoadFromEnv(&cfg))

	assert.Equal(t, "http://env.example.com", cfg.ServerURL)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.KeepArchive)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadFromEnv_UnsetLeavesDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFromEnv(&cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SYMFETCH_TIMEOUT", "not-a-duration")

	cfg := Default()
	assert.Error(t, LoadFromEnv(&cfg))
}

func TestLoadFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("SYMFETCH_KEEP_ARCHIVE", "maybe")

	cfg := Default()
	assert.Error(t, LoadFromEnv(&cfg))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = ""
	assert.Error(t, cfg.validate())

	cfg = Default()
	cfg.Timeout = 0
	assert.Error(t, cfg.validate())

	assert.NoError(t, Default().validate())
}
