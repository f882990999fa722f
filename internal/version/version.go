// Package version reports the build version of the isoft binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/isoft/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/isoft/internal/version.Commit=abc1234"
//
// Unset values are filled from the module's VCS build info on first use, or
// fall back to "dev" and "unknown".
var (
	Version = ""
	Commit  = ""
)

var resolveOnce sync.Once

// Info describes the running build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func resolve() {
	resolveOnce.Do(func() {
		if Version == "" || Commit == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				fillFromSettings(info.Settings)
			}
		}
		if Version == "" {
			Version = "dev"
		}
		if Commit == "" {
			Commit = "unknown"
		}
	})
}

// fillFromSettings derives Commit (short hash, "-dirty" when modified) and a
// dated dev Version from VCS build settings.
func fillFromSettings(settings []debug.BuildSetting) {
	var revision, modified, vcsTime string
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision[:min(len(revision), 7)]
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = "dev-" + t.UTC().Format("20060102")
		}
	}
}

// Get returns the build description
func Get() Info {
	resolve()
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Full returns the version string including commit
func Full() string {
	resolve()
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is the User-Agent the device client sends
func UserAgent() string {
	resolve()
	return "isoft/" + Version
}
