// Package version exposes build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time; defaults suit local development builds.
var (
	// Version is the semantic version of the build, e.g. v0.1.0.
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = ""
	// Date is the build timestamp in RFC3339.
	Date = ""
)

// Info returns version/build metadata suitable for logging.
func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"go":      runtime.Version(),
	}
}

// String renders a single-line version description.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
