package version

import (
	"runtime/debug"
	"strings"
)

// Build metadata of the weft CLI, overridable at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Short returns Version, falling back to the module version recorded in the
// binary when the variable was blanked by -ldflags.
func Short() string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Fingerprint identifies the tool build for cache keys. Two binaries with
// the same fingerprint lower kernels identically.
func Fingerprint() string {
	if GitCommit == "" {
		return Short()
	}
	return Short() + "+" + GitCommit
}
