// Package buildinfo exposes version metadata for the CLI. Values can be
// overridden at build time via -ldflags; cli.Version and cli.Date are
// honored as fallbacks.
package buildinfo

import (
	"strings"

	"github.com/flarebyte/stagetrack/cli"
)

var (
	// Version is the semantic version or custom string. Defaults to cli.Version or "dev".
	Version = "dev"
	// Commit is the VCS commit hash (optional).
	Commit = ""
	// Date is the build time. Falls back to cli.Date.
	Date = ""
	// BuiltBy is an optional builder identifier.
	BuiltBy = ""
)

// Info is the resolved build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
}

// Current resolves the ldflags values and their cli fallbacks.
func Current() Info {
	i := Info{Version: Version, Commit: Commit, Date: Date, BuiltBy: BuiltBy}
	if i.Version == "" {
		i.Version = cli.Version
	}
	if i.Version == "" {
		i.Version = "dev"
	}
	if i.Date == "" {
		i.Date = cli.Date
	}
	return i
}

// ShortCommit is the commit abbreviated to seven characters.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Summary returns a concise single-line version string.
func Summary() string {
	i := Current()
	var parts []string
	if c := i.ShortCommit(); c != "" {
		parts = append(parts, "commit="+c)
	}
	if i.Date != "" {
		parts = append(parts, "date="+i.Date)
	}
	if len(parts) == 0 {
		return i.Version
	}
	return i.Version + " (" + strings.Join(parts, ", ") + ")"
}
