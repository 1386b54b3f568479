package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/milk-org/fps/internal/fpsstore"
)

func withTempShmAndConfigRoot(t *testing.T) string {
	t.Helper()
	shmDir := t.TempDir()
	t.Setenv("MILK_SHM_DIR", shmDir)
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)

	t.Setenv("CONFIG_DIR", t.TempDir())
	return shmDir
}

func TestRunExitsCleanlyWithoutConfRunSignal(t *testing.T) {
	withTempShmAndConfigRoot(t)

	fps, err := fpsstore.Create("aoloop0", t.TempDir(), 4)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	require.NoError(t, run("aoloop0", false, ""))
}

func TestRunAppliesShmRootOverride(t *testing.T) {
	overrideDir := t.TempDir()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)

	// Create the store under overrideDir, with MILK_SHM_DIR pointed there.
	t.Setenv("MILK_SHM_DIR", overrideDir)
	fpsstore.ResetShmRootCacheForTest()
	fps, err := fpsstore.Create("aoloop0", overrideDir, 4)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	// Point the env elsewhere so only run()'s --shm-dir override can find it.
	t.Setenv("MILK_SHM_DIR", t.TempDir())
	fpsstore.ResetShmRootCacheForTest()

	require.NoError(t, run("aoloop0", false, overrideDir))
}

func TestNoopConfFnNeverErrors(t *testing.T) {
	require.NoError(t, noopConfFn(nil))
}
