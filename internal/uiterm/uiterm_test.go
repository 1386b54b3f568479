package uiterm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilentRendererDiscardsEverything(t *testing.T) {
	r := NewSilentRenderer()
	assert.NoError(t, r.PrintLine("hello"))
	assert.NoError(t, r.SetAttribute(AttrBold))
	_, ok, err := r.ReadKeyNonBlocking()
	assert.False(t, ok)
	assert.NoError(t, err)
	cols, rows := r.Dimensions()
	assert.Equal(t, 0, cols)
	assert.Equal(t, 0, rows)
	assert.NoError(t, r.Close())
}

func TestStdioRendererPrintsPlainLines(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewStdioRenderer(&buf, nil)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.PrintLine("loop.gain = 0.75"))
	assert.Equal(t, "loop.gain = 0.75\n", buf.String())
}

func TestStdioRendererAppliesAttribute(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewStdioRenderer(&buf, nil)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.SetAttribute(AttrFgRed))
	require.NoError(t, r.PrintLine("error"))
	assert.True(t, strings.Contains(buf.String(), "error"))
}

func TestStdioRendererWithoutInputNeverReturnsKeys(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewStdioRenderer(&buf, nil)
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.ReadKeyNonBlocking()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestStdioRendererDimensionsFallBackWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewStdioRenderer(&buf, nil)
	require.NoError(t, err)
	defer r.Close()

	cols, rows := r.Dimensions()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24, rows)
}

func TestSelectSilentRenderer(t *testing.T) {
	t.Setenv("MILK_FPSCTRL_NOPRINT", "1")
	r, err := New()
	require.NoError(t, err)
	defer r.Close()
	_, ok := r.(*SilentRenderer)
	assert.True(t, ok)
}
