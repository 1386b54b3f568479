package interpreter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
	"github.com/milk-org/fps/internal/scheduler"
)

func newTestInterpreter(t *testing.T, fpsName string) (*Interpreter, *fpsstore.FPS) {
	t.Helper()
	shmDir := t.TempDir()
	t.Setenv("MILK_SHM_DIR", shmDir)
	fpsstore.ResetShmRootCacheForTest()
	t.Cleanup(fpsstore.ResetShmRootCacheForTest)

	workDir := t.TempDir()
	fps, err := fpsstore.Create(fpsName, workDir, 8)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	it := New(shmDir, workDir, nil, nil, nil)
	t.Cleanup(it.Close)
	return it, nil
}

func TestDispatchUnknownVerb(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	assert.Equal(t, scheduler.CmdNotFound, it.Dispatch("bogus aoloop0.loop.gain"))
}

func TestDispatchArityMismatch(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	assert.Equal(t, scheduler.CmdFail, it.Dispatch("setval aoloop0.loop.gain"))
}

func TestSetvalAndGetval(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	fps, err := fpsstore.Connect("aoloop0", fpsstore.ConnectCtrl)
	require.NoError(t, err)
	_, _, err = fps.AddEntry([]string{"loop", "gain"}, fpsvalue.Float64, "", fpsparam.Write)
	require.NoError(t, err)
	require.NoError(t, fps.Disconnect())

	status := it.Dispatch("setval aoloop0.loop.gain 0.75")
	assert.Equal(t, scheduler.CmdOK, status)
	assert.Equal(t, scheduler.CmdOK, it.Dispatch("getval aoloop0.loop.gain"))

	reread, err := fpsstore.Connect("aoloop0", fpsstore.ConnectCtrl)
	require.NoError(t, err)
	p, _, ok := reread.FindByFull("loop.gain")
	require.True(t, ok)
	assert.Equal(t, 0.75, p.Value.Current)
	assert.True(t, reread.Header.Signal.Has(fpsstore.SignalUpdate))
	require.NoError(t, reread.Disconnect())
}

func TestSetvalMissingParamIsNotFound(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	assert.Equal(t, scheduler.CmdNotFound, it.Dispatch("setval aoloop0.missing 1"))
}

func TestFwrvalAppendsLine(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	fps, err := fpsstore.Connect("aoloop0", fpsstore.ConnectCtrl)
	require.NoError(t, err)
	_, idx, err := fps.AddEntry([]string{"loop", "gain"}, fpsvalue.Float64, "", fpsparam.Write)
	require.NoError(t, err)
	fps.Parameters[idx].SetCurrentNumeric(1.5)
	fps.WriteParam(idx)
	require.NoError(t, fps.Disconnect())

	out := filepath.Join(t.TempDir(), "out.txt")
	assert.Equal(t, scheduler.CmdOK, it.Dispatch("fwrval aoloop0.loop.gain "+out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.5")
}

func TestExitSetsFlag(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	assert.Equal(t, scheduler.CmdOK, it.Dispatch("exit"))
	assert.True(t, it.ExitRequested)
}

func TestQueuePrioUpdatesScheduler(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	sched := scheduler.New(4, it, nil)
	it.WithScheduler(sched)

	assert.Equal(t, scheduler.CmdOK, it.Dispatch("queueprio 1 5"))
	prio, ok := sched.QueueSnapshot(1)
	require.True(t, ok)
	assert.Equal(t, 5, prio)
}

func TestRunWaitDoneReflectsCmdRunStatus(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	fps, err := fpsstore.Connect("aoloop0", fpsstore.ConnectCtrl)
	require.NoError(t, err)

	assert.True(t, it.RunWaitDone("aoloop0"))

	fps.Header.Status = fps.Header.Status.Set(fpsstore.StatusCmdRun)
	fps.WriteHeader()
	assert.False(t, it.RunWaitDone("aoloop0"))

	fps.Header.Status = fps.Header.Status.Clear(fpsstore.StatusCmdRun)
	fps.WriteHeader()
	assert.True(t, it.RunWaitDone("aoloop0"))
	require.NoError(t, fps.Disconnect())
}

func TestConfWaitDoneReflectsCheckedSignalAndErrCount(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	fps, err := fpsstore.Connect("aoloop0", fpsstore.ConnectCtrl)
	require.NoError(t, err)

	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalChecked)
	fps.WriteHeader()
	assert.False(t, it.ConfWaitDone("aoloop0"))

	fps.Header.Signal = fps.Header.Signal.Clear(fpsstore.SignalChecked)
	fps.Header.ConfErrCnt = 1
	fps.WriteHeader()
	assert.False(t, it.ConfWaitDone("aoloop0"))

	fps.Header.ConfErrCnt = 0
	fps.WriteHeader()
	assert.True(t, it.ConfWaitDone("aoloop0"))
	require.NoError(t, fps.Disconnect())
}

func TestRunWaitDoneTrueForUnreachableFPS(t *testing.T) {
	it, _ := newTestInterpreter(t, "aoloop0")
	assert.True(t, it.RunWaitDone("nosuchfps"))
}
