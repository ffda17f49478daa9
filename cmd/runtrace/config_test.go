package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"RUNTRACE_FIXTURE", "RUNTRACE_LOG_LEVEL", "RUNTRACE_LOG_FORMAT",
		"RUNTRACE_LOG_FILE", "RUNTRACE_THEME", "RUNTRACE_ENGINE", "RUNTRACE_COLUMNS",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg := loadConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "auto", cfg.Theme)
	assert.Equal(t, "expr", cfg.Engine)
	assert.Equal(t, 60, cfg.Columns)
	assert.Empty(t, cfg.Fixture)
	assert.Equal(t, filepath.Join(home, ".runtrace", "runtrace.log"), cfg.LogFile)
}

func TestLoadConfigSettingsFile(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".runtrace")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	settings := "log_level: debug\nengine: cel\ncolumns: 90\nfixture: /tmp/run.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(settings), 0o644))

	cfg := loadConfig()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "cel", cfg.Engine)
	assert.Equal(t, 90, cfg.Columns)
	assert.Equal(t, "/tmp/run.yaml", cfg.Fixture)
	assert.Equal(t, "auto", cfg.Theme)
}

func TestLoadConfigEnvOverridesSettings(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".runtrace")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("engine: cel\ntheme: dark\n"), 0o644))

	t.Setenv("RUNTRACE_ENGINE", "jq")
	t.Setenv("RUNTRACE_LOG_FORMAT", "json")
	t.Setenv("RUNTRACE_COLUMNS", "not-a-number")

	cfg := loadConfig()
	assert.Equal(t, "jq", cfg.Engine)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 60, cfg.Columns)
}

func TestLoadConfigIgnoresMalformedSettings(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".runtrace")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("columns: -4\n"), 0o644))

	cfg := loadConfig()
	assert.Equal(t, 60, cfg.Columns)
}
