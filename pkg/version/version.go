// Package version carries build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags at build time.
var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the Git hash the binary was built from.
	Commit = "<unknown>"
	// Date is the build timestamp.
	Date = "<unknown>"
)

// String returns the human-readable version line.
func String() string {
	return fmt.Sprintf("commitpulse %s (commit %s, built %s)", Version, Commit, Date)
}
