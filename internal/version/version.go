// Package version reports build information injected with -ldflags.
package version

import "fmt"

// Set with -ldflags "-X pattern-reader/internal/version.Version=..."
var (
	Version   = "1.0.0"
	BuildTime = "unknown" // UTC
	GitCommit = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
