package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKeepsInjectedVersion(t *testing.T) {
	info := Resolve("1.2.3", "abcdef", "2026-01-01", "release")
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abcdef", info.Commit)
	assert.Equal(t, "release", info.BuildSource)
}

func TestResolveDefaultsBuildSourceWhenEmpty(t *testing.T) {
	info := Resolve("1.2.3", "abcdef", "2026-01-01", "")
	assert.Equal(t, "unknown", info.BuildSource)
}

func TestResolveFallsBackWhenVersionUnset(t *testing.T) {
	// With no ldflags-injected version, Resolve either keeps DefaultVersion
	// (no VCS stamp embedded in the test binary) or truncates a resolved
	// vcs.revision to 7 characters; either way it must not panic or leave
	// BuildSource empty.
	info := Resolve("", "", "", "")
	assert.NotEmpty(t, info.BuildSource)
	assert.True(t, info.Version == DefaultVersion || len(info.Version) <= 7)
}

func TestStringRendersAllFields(t *testing.T) {
	info := Info{Version: "1.2.3", Commit: "abcdef", Date: "2026-01-01", BuildSource: "release"}
	s := info.String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "abcdef")
	assert.Contains(t, s, "release")
}

func TestSafeTruncateShortensLongStrings(t *testing.T) {
	assert.Equal(t, "abcdefg", safeTruncate("abcdefghijk", 7))
	assert.Equal(t, "ab", safeTruncate("ab", 7))
}
