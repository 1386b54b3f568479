package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndStopRealProcess(t *testing.T) {
	m := NewExecManager(nil, "sleep 5")

	pid, err := m.Start(RoleRun, "aoloop0")
	require.NoError(t, err)
	assert.Positive(t, pid)

	require.NoError(t, m.Stop(pid, false))
	time.Sleep(50 * time.Millisecond)
}

func TestStartPropagatesSpawnFailure(t *testing.T) {
	m := NewExecManager(nil, "this-binary-does-not-exist-anywhere")
	_, err := m.Start(RoleConf, "aoloop0")
	assert.Error(t, err)
}

func TestStopUnknownPidErrors(t *testing.T) {
	m := NewExecManager(nil, "sleep 5")
	err := m.Stop(999999, false)
	assert.Error(t, err)
}
