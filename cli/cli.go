// Package cli holds the command line wiring shared by pipeline binaries and
// the stagetrack inspection tool.
package cli

// Version and Date should be set at build time using ldflags, e.g.:
//
//	-ldflags "-X 'github.com/flarebyte/stagetrack/cli.Version=1.2.3' -X 'github.com/flarebyte/stagetrack/cli.Date=2026-02-09'"
var (
	Version string
	Date    string
)
