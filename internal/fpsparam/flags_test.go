package fpsparam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagsSetHasClear(t *testing.T) {
	var f Flags
	assert.False(t, f.Has(Active))

	f = f.Set(Active)
	assert.True(t, f.Has(Active))

	f = f.Clear(Active)
	assert.False(t, f.Has(Active))
}

func TestIsWritableInStateConf(t *testing.T) {
	f := WriteConf
	assert.True(t, f.IsWritableInState(true, false))
	assert.False(t, f.IsWritableInState(false, true))
	assert.False(t, f.IsWritableInState(false, false))
}

func TestIsWritableInStateRun(t *testing.T) {
	f := WriteRun
	assert.True(t, f.IsWritableInState(false, true))
	assert.False(t, f.IsWritableInState(true, false))
}

func TestIsWritableInStateDefault(t *testing.T) {
	f := Write
	assert.True(t, f.IsWritableInState(false, false))
	assert.False(t, f.IsWritableInState(true, false))
	assert.False(t, f.IsWritableInState(false, true))
}

func TestWithWriteStatusSetsAndClears(t *testing.T) {
	var f Flags
	f = f.WithWriteStatus(true)
	assert.True(t, f.Has(WriteStatus))

	f = f.WithWriteStatus(false)
	assert.False(t, f.Has(WriteStatus))
}
