// Package version holds build metadata stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/angle.receiver/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for a -version flag. When GitSHA was not
// stamped it falls back to the VCS revision recorded by the Go toolchain.
func String(program string) string {
	sha := GitSHA
	if sha == "unknown" {
		if rev := vcsRevision(); rev != "" {
			sha = rev
		}
	}
	return fmt.Sprintf("%s %s (%s, built %s)", program, Version, sha, BuildTime)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
