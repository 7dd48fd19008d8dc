// Package buildinfo provides build-time properties injected via ldflags.
package buildinfo

import "runtime/debug"

// Properties holds build-time properties injected via ldflags.
type Properties struct {
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Package-level variables for ldflags injection (unexported).
var (
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get returns the current build properties. When no commit was injected, the VCS revision
// recorded by the Go toolchain is used if there is one.
func Get() Properties {
	props := Properties{
		BuildTime: buildTime,
		GitCommit: gitCommit,
		GoVersion: "unknown",
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return props
	}
	props.GoVersion = info.GoVersion
	if props.GitCommit == "unknown" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				props.GitCommit = s.Value
			}
		}
	}
	return props
}
