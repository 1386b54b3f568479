// Package buildinfo resolves a process's version/commit/date strings the
// same way the teacher's main.go does: ldflags-injected defaults, falling
// back to the Go module's embedded VCS stamp when those were never set
// (i.e. a "go install"-built binary rather than a release build).
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/samber/lo"
)

// DefaultVersion marks a binary built without ldflags-injected version
// info, triggering the debug.ReadBuildInfo() fallback.
const DefaultVersion = "unversioned"

// Info is one process's resolved build identity.
type Info struct {
	Version     string
	Commit      string
	Date        string
	BuildSource string
}

// Resolve takes the ldflags-injected values (any of which may be empty)
// and fills in commit/version/date from the module's VCS stamp when
// version is still DefaultVersion.
func Resolve(version, commit, date, buildSource string) Info {
	if buildSource == "" {
		buildSource = "unknown"
	}
	if version == "" {
		version = DefaultVersion
	}

	if version == DefaultVersion {
		if bi, ok := debug.ReadBuildInfo(); ok {
			revision, found := lo.Find(bi.Settings, func(s debug.BuildSetting) bool {
				return s.Key == "vcs.revision"
			})
			if found {
				commit = revision.Value
				version = safeTruncate(revision.Value, 7)
			}

			vcsTime, found := lo.Find(bi.Settings, func(s debug.BuildSetting) bool {
				return s.Key == "vcs.time"
			})
			if found {
				date = vcsTime.Value
			}
		}
	}

	return Info{Version: version, Commit: commit, Date: date, BuildSource: buildSource}
}

// String renders the multi-line banner flaggy/cobra print for --version.
func (i Info) String() string {
	return fmt.Sprintf(
		"%s\nDate: %s\nBuildSource: %s\nCommit: %s\nOS: %s\nArch: %s",
		i.Version, i.Date, i.BuildSource, i.Commit, runtime.GOOS, runtime.GOARCH,
	)
}

// safeTruncate is inlined here; the module has no shared utils package
// to import it from.
func safeTruncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
