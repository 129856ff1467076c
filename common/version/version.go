// Package version carries build metadata stamped in via ldflags.
package version

var (
	// Version is the semantic version.
	Version = "v0.0.0-dev"

	// GitCommit is the short git commit hash.
	GitCommit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info formats the build metadata for the CLI's version command.
func Info() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
