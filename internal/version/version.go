// Package version holds build information set through -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the one-line form printed by the version command.
func String() string {
	return fmt.Sprintf("paramstudy %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
