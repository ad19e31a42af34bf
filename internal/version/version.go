// Package version exposes the build version of the biocat binary.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Version and Commit can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/biocat/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/biocat/internal/version.Commit=abc123"
//
// When unset they are filled from the embedded VCS build info, falling
// back to "dev" / "unknown".
var (
	Version = ""
	Commit  = ""

	resolveOnce sync.Once
)

// Full returns the full version string including commit.
func Full() string {
	resolveOnce.Do(resolve)
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

func resolve() {
	if Version != "" && Commit != "" {
		return
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		var revision, modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if Commit == "" && revision != "" {
			if len(revision) > 7 {
				revision = revision[:7]
			}
			Commit = revision
			if modified == "true" {
				Commit += "-dirty"
			}
		}
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}
