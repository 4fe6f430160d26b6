package presquile

import "runtime"

// Version is the semantic version of presquile.
const Version = "0.3.0"

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"` // set via ldflags
	BuildTime string `json:"build_time"` // set via ldflags
	GoVersion string `json:"go_version"`
}

// GetVersionInfo returns detailed version information.
//
// GitCommit and BuildTime are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/newfla/presquile.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/newfla/presquile.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/presquile
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
