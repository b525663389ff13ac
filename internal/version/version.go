// Package version reports the statickit build identity. Values are set
// with -ldflags and fall back to the module build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/conneroisu/statickit/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time,omitzero"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Get collects the build info.
func Get() BuildInfo {
	settings := vcsSettings()

	return BuildInfo{
		Version:   resolveVersion(settings),
		GitCommit: resolveCommit(settings),
		BuildTime: parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     settings["vcs.modified"] == "true",
	}
}

// Short renders "v1.2.0 (abc1234)" or "dev-abc1234".
func (b BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 {
		return b.Version
	}
	commit := b.GitCommit[:7]
	if b.Version == "dev" || strings.HasPrefix(b.Version, "dev-") {
		return "dev-" + commit
	}

	return fmt.Sprintf("%s (%s)", b.Version, commit)
}

// String renders one "Key: value" line per known field.
func (b BuildInfo) String() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		lines = append(lines, "Commit: "+b.GitCommit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)

	return strings.Join(lines, "\n")
}

// IsRelease reports whether the version names a release.
func (b BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}

func vcsSettings() map[string]string {
	out := make(map[string]string)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out["main.version"] = info.Main.Version
	for _, s := range info.Settings {
		out[s.Key] = s.Value
	}

	return out
}

func resolveVersion(settings map[string]string) string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if v := settings["main.version"]; v != "" && v != "(devel)" {
		return v
	}
	if rev := settings["vcs.revision"]; len(rev) >= 7 {
		return "dev-" + rev[:7]
	}

	return "dev"
}

func resolveCommit(settings map[string]string) string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return rev
	}

	return "unknown"
}

// parseTime accepts RFC 3339 with or without a zone. Anything else is the
// zero time.
func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
