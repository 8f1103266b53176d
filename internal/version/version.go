// Package version holds build metadata injected at link time.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a single-line version string for the CLI.
func Info() string {
	return fmt.Sprintf("devcoach %s (commit %s, built %s)", Version, Commit, Date)
}
