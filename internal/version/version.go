// Package version provides build-time version information for vidroute.
//
// Version, Commit, and Date are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/vidroute/internal/version.Version=x.y.z \
//	                   -X github.com/jmylchreest/vidroute/internal/version.Commit=$(git rev-parse HEAD) \
//	                   -X github.com/jmylchreest/vidroute/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Builds installed with "go install" carry no ldflags; for those the module
// version and VCS revision recorded in the binary's build info are used.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// ApplicationName is the canonical name of this application.
const ApplicationName = "vidroute"

// Info contains structured version information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetInfo returns all version information, falling back to embedded build
// info for fields the linker did not set.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// ShortCommit returns the first eight characters of the commit, or "" when unknown.
func (i Info) ShortCommit() string {
	if i.Commit == "unknown" || len(i.Commit) < 8 {
		return ""
	}
	return i.Commit[:8]
}

// String returns a human-readable version string.
func String() string {
	info := GetInfo()
	if sc := info.ShortCommit(); sc != "" {
		return fmt.Sprintf("%s version %s (commit: %s, built: %s, %s, %s)",
			ApplicationName, info.Version, sc, info.Date, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("%s version %s (%s, %s)", ApplicationName, info.Version, info.GoVersion, info.Platform)
}

// Short returns the version for cobra's --version flag.
func Short() string {
	info := GetInfo()
	if sc := info.ShortCommit(); sc != "" {
		return fmt.Sprintf("%s (%s)", info.Version, sc)
	}
	return info.Version
}

// UserAgent returns a User-Agent string for the error-report sink.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", ApplicationName, GetInfo().Version)
}
