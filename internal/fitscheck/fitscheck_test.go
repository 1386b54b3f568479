package fitscheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFitsFileAcceptsSimpleCard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.fits")
	header := make([]byte, headerRecordSize)
	copy(header, "SIMPLE  =                    T / conforms to FITS standard")
	require.NoError(t, os.WriteFile(path, header, 0o644))

	assert.True(t, New().IsFitsFile(path))
}

func TestIsFitsFileRejectsOtherContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notfits.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a fits file at all"), 0o644))

	assert.False(t, New().IsFitsFile(path))
}

func TestIsFitsFileRejectsMissingFile(t *testing.T) {
	assert.False(t, New().IsFitsFile(filepath.Join(t.TempDir(), "nope.fits")))
}
