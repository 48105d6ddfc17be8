package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/garagenode/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/garagenode/internal/version.Commit=abc123"
//
// If not set, they are populated from the VCS stamp in the build info, or
// fall back to "dev" with a timestamp.
var (
	// Version is the semantic version of the node and tools
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			// go install pkg@vX.Y.Z records the module version
			if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
				Version = info.Main.Version
			}
			Version, Commit = fromBuildInfo(info.Settings, Version, Commit)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whichever of version and commit is empty from the VCS
// settings recorded by the go tool.
func fromBuildInfo(settings []debug.BuildSetting, version, commit string) (string, string) {
	var vcsRevision, vcsModified, vcsTime string
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if commit == "" && vcsRevision != "" {
		commit = vcsRevision
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if vcsModified == "true" {
			commit += "-dirty"
		}
	}

	// Build info carries no tags, so the commit date stands in.
	if version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
	return version, commit
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent returns the product token sent by garage-ctl.
func UserAgent() string {
	return "garage-ctl/" + Version
}
