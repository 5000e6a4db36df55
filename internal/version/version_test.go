package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func vcsInfo(revision, at, modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "example.test/mod", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: revision},
			{Key: "vcs.time", Value: at},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version, got %q", got)
	}
}

func TestPseudoVersionFromVCS(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := fromBuildInfo(vcsInfo("1234567890abcdef", ts.Format(time.RFC3339), "true"), "")
	if info.Version != "v0.0.0-20250102030405-1234567890ab" {
		t.Fatalf("unexpected pseudo version %q", info.Version)
	}
	if !info.Dirty {
		t.Fatalf("expected dirty flag")
	}
	if got := info.String(); got != "example.test/mod v0.0.0-20250102030405-1234567890ab+dirty" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestCleanTreeHasNoDirtySuffix(t *testing.T) {
	info := fromBuildInfo(vcsInfo("abcdef", "2026-03-04T05:06:07Z", "false"), "")
	if got := info.String(); got != "example.test/mod v0.0.0-20260304050607-abcdef" {
		t.Fatalf("unexpected clean version %q", got)
	}
}

func TestBadVCSTimeFallsBackToUnknown(t *testing.T) {
	info := fromBuildInfo(vcsInfo("abcdef", "yesterday", "false"), "")
	if info.Version != unknownVersion {
		t.Fatalf("expected unknown version, got %q", info.Version)
	}
}

func TestNilBuildInfoUsesDefaults(t *testing.T) {
	info := fromBuildInfo(nil, "")
	if info.Module != defaultModule || info.Version != unknownVersion {
		t.Fatalf("unexpected defaults %+v", info)
	}
}

func TestModuleVersionReported(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Path: "example.test/mod", Version: "v2.0.0"}}, "")
	if info.Version != "v2.0.0" || info.Module != "example.test/mod" {
		t.Fatalf("unexpected info %+v", info)
	}
	if got := Module(); got == "" {
		t.Fatalf("expected module path")
	}
}
