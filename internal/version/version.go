// Package version reports the build identity of the tabshell binary.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule  = "pkt.systems/tabshell"
	unknownVersion = "v0.0.0-unknown"
)

// buildVersion is set via -ldflags "-X pkt.systems/tabshell/internal/version.buildVersion=...".
var buildVersion = ""

// Info is the build identity.
type Info struct {
	Module   string
	Version  string
	Revision string
	Time     time.Time
	Dirty    bool
}

// String renders "module version", with a +dirty suffix for modified trees.
func (i Info) String() string {
	v := i.Version
	if i.Dirty && !strings.HasSuffix(v, "+dirty") {
		v += "+dirty"
	}
	return fmt.Sprintf("%s %s", i.Module, v)
}

// Read collects the build identity of the running binary.
func Read() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info, buildVersion)
}

// Current returns the version without a dirty suffix.
func Current() string {
	return Read().Version
}

// Module returns the module path from build info when available.
func Module() string {
	return Read().Module
}

func fromBuildInfo(info *debug.BuildInfo, override string) Info {
	out := Info{Module: defaultModule, Version: unknownVersion}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		out.Revision, out.Time, out.Dirty = vcsSettings(info)
	}
	switch {
	case strings.TrimSpace(override) != "":
		out.Version = cleanVersion(override)
	case info != nil && usableVersion(info.Main.Version):
		out.Version = cleanVersion(info.Main.Version)
	case out.Revision != "" && !out.Time.IsZero():
		out.Version = pseudoVersion(out.Time, out.Revision)
	}
	return out
}

func usableVersion(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "(devel)"
}

func cleanVersion(v string) string {
	return strings.TrimSuffix(strings.TrimSpace(v), "+dirty")
}

func vcsSettings(info *debug.BuildInfo) (revision string, at time.Time, modified bool) {
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			if parsed, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				at = parsed.UTC()
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return revision, at, modified
}

func pseudoVersion(at time.Time, revision string) string {
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return "v0.0.0-" + at.UTC().Format("20060102150405") + "-" + revision
}
