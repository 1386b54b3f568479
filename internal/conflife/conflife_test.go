package conflife

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
)

func withTempShmRoot(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MILK_SHM_DIR", dir)
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)
}

func TestProcessAliveForSelf(t *testing.T) {
	assert.True(t, ProcessAlive(int32(os.Getpid())))
}

func TestProcessAliveForZeroOrNegative(t *testing.T) {
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))
}

func TestProcessAliveForImpossiblePid(t *testing.T) {
	assert.False(t, ProcessAlive(1<<30))
}

func TestConfLoopRunsConfFnOnUpdateThenExits(t *testing.T) {
	withTempShmRoot(t)
	fps, err := fpsstore.Create("aoloop0", t.TempDir(), 4)
	require.NoError(t, err)
	defer fps.Disconnect()

	_, _, err = fps.AddEntry([]string{"loop", "gain"}, fpsvalue.Float64, "", fpsparam.Write)
	require.NoError(t, err)

	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalUpdate)

	calls := 0
	loop := NewConfLoop(fps, nil, func(f *fpsstore.FPS) error {
		calls++
		// clear CONFRUN so Run exits after this single pass
		f.Header.Signal = f.Header.Signal.Clear(fpsstore.SignalConfRun)
		return nil
	})
	loop.WaitUs = 100

	// SignalConfRun starts unset, so Run would exit immediately without
	// ever invoking ConfFn; set it so one pass happens before the ConfFn
	// itself clears it. Run() reloads the header from the mmap on every
	// iteration (it's meant to observe other processes' writes), so the
	// setup above must be flushed through before Run starts.
	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalConfRun)
	fps.WriteHeader()

	require.NoError(t, loop.Run())
	assert.Equal(t, 1, calls)
	assert.False(t, fps.Header.Signal.Has(fpsstore.SignalUpdate))
}

func TestConfLoopExitsImmediatelyWithoutConfRun(t *testing.T) {
	withTempShmRoot(t)
	fps, err := fpsstore.Create("aoloop1", t.TempDir(), 4)
	require.NoError(t, err)
	defer fps.Disconnect()

	calls := 0
	loop := NewConfLoop(fps, nil, func(f *fpsstore.FPS) error {
		calls++
		return nil
	})
	loop.WaitUs = 100

	require.NoError(t, loop.Run())
	assert.Equal(t, 0, calls)
}

func TestRunLoopClearsCmdRunAfterInvocation(t *testing.T) {
	withTempShmRoot(t)
	fps, err := fpsstore.Create("aoloop2", t.TempDir(), 4)
	require.NoError(t, err)
	fps.Header.Status = fps.Header.Status.Set(fpsstore.StatusCmdRun)
	fps.WriteHeader()
	require.NoError(t, fps.Disconnect())

	called := false
	loop := NewRunLoop("aoloop2", func(f *fpsstore.FPS) error {
		called = true
		return nil
	})
	require.NoError(t, loop.Run())
	assert.True(t, called)

	reconnected, err := fpsstore.Connect("aoloop2", fpsstore.ConnectCtrl)
	require.NoError(t, err)
	defer reconnected.Disconnect()
	assert.False(t, reconnected.Header.Status.Has(fpsstore.StatusCmdRun))
}

func TestRunLoopPropagatesRunFnError(t *testing.T) {
	withTempShmRoot(t)
	fps, err := fpsstore.Create("aoloop3", t.TempDir(), 4)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	loop := NewRunLoop("aoloop3", func(f *fpsstore.FPS) error {
		return assert.AnError
	})
	err = loop.Run()
	assert.Error(t, err)
}
