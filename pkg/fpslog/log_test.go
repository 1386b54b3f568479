package fpslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionLoggerCarriesFields(t *testing.T) {
	entry := New(Options{Role: "conf", FPSName: "loop1", Pid: 4242})

	assert.Equal(t, "conf", entry.Data["role"])
	assert.Equal(t, "loop1", entry.Data["fps"])
	assert.Equal(t, 4242, entry.Data["pid"])
}

func TestNewDebugLoggerWritesToRoleFile(t *testing.T) {
	dir := t.TempDir()
	entry := New(Options{Role: "run", FPSName: "loop1", Pid: 99, ConfigDir: dir, Debug: true})

	entry.Info("started")

	content, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "started")
	assert.Contains(t, string(content), "loop1")
}

func TestNewDebugLoggerFallsBackToStderrOnBadConfigDir(t *testing.T) {
	entry := New(Options{Role: "ctrl", FPSName: "loop1", Pid: 1, ConfigDir: "/nonexistent/dir/that/cannot/exist", Debug: true})
	require.NotNil(t, entry)
}

func TestGetLogLevelDefaultsToDebug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, "debug", getLogLevel().String())
}

func TestGetLogLevelHonorsEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warning", getLogLevel().String())
}
