package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	calls []string
	next  StatusBits
}

func (f *fakeDispatcher) Dispatch(cmdString string) StatusBits {
	f.calls = append(f.calls, cmdString)
	return f.next
}

type fakeGates struct {
	runDone, confDone bool
}

func (g fakeGates) RunWaitDone(fpsName string) bool  { return g.runDone }
func (g fakeGates) ConfWaitDone(fpsName string) bool { return g.confDone }

func TestUngatedTaskCompletesOnDispatch(t *testing.T) {
	disp := &fakeDispatcher{next: CmdOK}
	s := New(4, disp, nil)

	isDirective, err := s.ApplyLine("getval aoloop0.loop.gain")
	require.NoError(t, err)
	assert.False(t, isDirective)

	s.Tick()

	require.Len(t, disp.calls, 1)
	assert.Equal(t, "getval aoloop0.loop.gain", disp.calls[0])

	s.Tick() // nothing left to dispatch
	assert.Len(t, disp.calls, 1)
}

func TestWaitOnRunGatesCompletion(t *testing.T) {
	disp := &fakeDispatcher{next: CmdOK}
	gates := &fakeGates{runDone: false}
	s := New(4, disp, gates)

	_, err := s.ApplyLine("waitonrunON")
	require.NoError(t, err)
	_, err = s.ApplyLine("confstart aoloop0.loop")
	require.NoError(t, err)

	s.Tick()
	require.Len(t, disp.calls, 1)

	// still gated: a second tick must not re-dispatch or complete it
	s.Tick()
	assert.Len(t, disp.calls, 1)

	gates.runDone = true
	s.Tick()
	assert.Len(t, disp.calls, 1) // no new task queued, just completion bookkeeping
}

func TestSetqindexRoutesToSelectedQueue(t *testing.T) {
	disp := &fakeDispatcher{next: CmdOK}
	s := New(4, disp, nil)

	_, err := s.ApplyLine("setqindex 2")
	require.NoError(t, err)
	_, err = s.ApplyLine("setqprio 20")
	require.NoError(t, err)
	_, err = s.ApplyLine("getval aoloop0.loop.gain")
	require.NoError(t, err)

	prio, ok := s.QueueSnapshot(2)
	require.True(t, ok)
	assert.Equal(t, 20, prio)

	s.Tick()
	require.Len(t, disp.calls, 1)
}

func TestPausedQueueNeverDispatches(t *testing.T) {
	disp := &fakeDispatcher{next: CmdOK}
	s := New(2, disp, nil)

	_, err := s.ApplyLine("setqindex 1")
	require.NoError(t, err)
	_, err = s.ApplyLine("setqprio 0")
	require.NoError(t, err)
	_, err = s.ApplyLine("getval aoloop0.loop.gain")
	require.NoError(t, err)

	s.Tick()
	assert.Empty(t, disp.calls)
}

func TestSetqindexOutOfRangeErrors(t *testing.T) {
	s := New(2, &fakeDispatcher{}, nil)
	_, err := s.ApplyLine("setqindex 5")
	assert.Error(t, err)
}
