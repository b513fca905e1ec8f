// Package version exposes build metadata stamped at link time.
package version

import "fmt"

var (
	// Version is the semantic version, overridden via -ldflags.
	Version = "dev"
	// Commit is the short git revision.
	Commit = "unknown"
)

// GetInfo returns a human-readable version string.
func GetInfo() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
