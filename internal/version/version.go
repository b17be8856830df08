// Package version holds the build version of the helpdesk binaries.
package version

// Version is set at build time with
// -ldflags "-X github.com/helpdeskhq/helpdesk/internal/version.Version=...".
var Version = "0.1.0-dev"

// GitCommit is the commit the binary was built from.
var GitCommit = ""

// String returns the version with the commit suffix when known.
func String() string {
	if GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
