package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/uiterm"
	"github.com/milk-org/fps/pkg/fpsconfig"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("MILK_SHM_DIR", t.TempDir())
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)
	t.Setenv("CONFIG_DIR", t.TempDir())

	appConfig, err := fpsconfig.New("fps")
	require.NoError(t, err)

	app, err := NewApp(Options{
		WorkingDir: t.TempDir(),
		FifoPath:   filepath.Join(t.TempDir(), "ctrl.fifo"),
		AppConfig:  appConfig,
		Renderer:   uiterm.NewSilentRenderer(),
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestNewAppBuildsWithSilentRenderer(t *testing.T) {
	app := newTestApp(t)
	assert.NotNil(t, app.Scheduler)
	assert.NotNil(t, app.Interpreter)
}

func TestTickDrainsFifoLineIntoScheduler(t *testing.T) {
	app := newTestApp(t)

	fps, err := fpsstore.Create("aoloop0", t.TempDir(), 4)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	writer, err := os.OpenFile(app.fifoPath, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = writer.WriteString("cntinc probe\n")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	done, err := app.Tick()
	require.NoError(t, err)
	assert.False(t, done)

	app.Scheduler.Tick() // Tick() already ran one pass; this asserts a second is harmless
}

func TestTickReturnsTrueAfterExitSubmitted(t *testing.T) {
	app := newTestApp(t)

	app.Scheduler.Submit("exit")
	app.Scheduler.Tick()
	assert.True(t, app.Interpreter.ExitRequested)

	done, err := app.Tick()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestConsoleKeyToCommandMapsQToExit(t *testing.T) {
	assert.Equal(t, "exit", consoleKeyToCommand('q'))
	assert.Equal(t, "cntinc key", consoleKeyToCommand('z'))
}
