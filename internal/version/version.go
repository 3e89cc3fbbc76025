// Package version provides build-time version information.
// Variables are set with -ldflags "-X github.com/open-cli-collective/sfbulk/internal/version.Version=..." during build.
package version

import "runtime"

// Build-time variables set via ldflags
var (
	// Version is the semantic version (from git tag or "dev")
	Version = "dev"

	// Commit is the git commit hash
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version string
func Info() string {
	return Version
}

// Full returns the full version information including commit and build date
func Full() string {
	return Version + " (commit: " + Commit + ", built: " + BuildDate + ")"
}

// UserAgent identifies sfbulk in API requests, e.g. "sfbulk/1.0.0 (linux/amd64)".
func UserAgent() string {
	return "sfbulk/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
