// Package version holds the build identity shared by the CLI, the report
// formatters and the library API.
package version

// Version and Commit are set via ldflags at build time:
//
//	-X github.com/garagon/tatu/internal/version.Version=v0.3.0
var (
	Version = "dev"
	Commit  = "none"
)
