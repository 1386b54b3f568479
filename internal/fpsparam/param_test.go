package fpsparam

import (
	"strings"
	"testing"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKeywordPathJoinsAndBounds(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.SetKeywordPath([]string{"wfs", "gain"}))
	assert.Equal(t, "wfs.gain", p.KeywordFull)
}

func TestSetKeywordPathRejectsTooManySegments(t *testing.T) {
	p := NewParameter()
	segments := make([]string, fpslimits.KWLevelsMax+1)
	for i := range segments {
		segments[i] = "a"
	}
	err := p.SetKeywordPath(segments)
	assert.Error(t, err)
}

func TestSetKeywordPathRejectsEmpty(t *testing.T) {
	p := NewParameter()
	assert.Error(t, p.SetKeywordPath(nil))
}

func TestSetKeywordPathRejectsOverlongFull(t *testing.T) {
	p := NewParameter()
	segments := []string{strings.Repeat("x", fpslimits.KWFullMax+1)}
	assert.Error(t, p.SetKeywordPath(segments))
}

func TestActivateIsIdempotent(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"wfs", "gain"}, fpsvalue.Float64, "gain", Write))
	assert.True(t, p.IsActive())

	p.SetCurrentNumeric(1.5)
	counter := p.UpdateCounter

	require.NoError(t, p.Activate([]string{"other", "path"}, fpsvalue.Int64, "changed", WriteRun))
	assert.Equal(t, "wfs.gain", p.KeywordFull, "second Activate must no-op on an already-active parameter")
	assert.Equal(t, counter, p.UpdateCounter)
}

func TestActivateTruncatesLongDescription(t *testing.T) {
	p := NewParameter()
	longDescr := strings.Repeat("d", fpslimits.DescrMax+50)
	require.NoError(t, p.Activate([]string{"a"}, fpsvalue.Int64, longDescr, Write))
	assert.Len(t, p.Description, fpslimits.DescrMax)
}

func TestActivateOnOffStartsOff(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"shutter"}, fpsvalue.OnOff, "shutter", Write))
	assert.False(t, p.IsOn())
}

func TestSetCurrentNumericIncrementsCounter(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"a"}, fpsvalue.Float64, "", Write))
	before := p.UpdateCounter
	p.SetCurrentNumeric(3.14)
	assert.Equal(t, before+1, p.UpdateCounter)
	assert.Equal(t, 3.14, p.Value.Current)
}

func TestSetCurrentStringIncrementsCounter(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"a"}, fpsvalue.String, "", Write))
	before := p.UpdateCounter
	p.SetCurrentString("hello")
	assert.Equal(t, before+1, p.UpdateCounter)
	assert.Equal(t, "hello", p.Value.Str)
}

func TestSetOnOffTogglesFlagAndCounter(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"a"}, fpsvalue.OnOff, "", Write))
	before := p.UpdateCounter

	p.SetOnOff(true)
	assert.True(t, p.IsOn())
	assert.Equal(t, before+1, p.UpdateCounter)

	p.SetOnOff(false)
	assert.False(t, p.IsOn())
	assert.Equal(t, before+2, p.UpdateCounter)
}

func TestFormattedCurrentDelegatesToCellWithOnOffState(t *testing.T) {
	p := NewParameter()
	require.NoError(t, p.Activate([]string{"a"}, fpsvalue.OnOff, "", Write))
	p.Value.Str = "off-label"
	p.Value.StrCompanion = "on-label"
	p.SetOnOff(true)

	assert.Equal(t, "1  on-label", p.FormattedCurrent())
}
