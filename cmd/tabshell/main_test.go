package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/tabshell/internal/appconfig"
)

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"run": false, "init": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected root command to include %s", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "tabshell") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestInitCommandWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	root := newRootCmd()
	root.SetArgs([]string{"init", "--config", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := appconfig.Load(path); err != nil {
		t.Fatalf("load written config: %v", err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"init", "--config", path})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected second init without --force to fail")
	}
	root = newRootCmd()
	root.SetArgs([]string{"init", "--config", path, "--force"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestRunRejectsBadPolicyBeforeLaunch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "config_version: 1\npolicy:\n  hostile:\n    - pattern: example.com\n      tier: primary\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", path})
	root.SetIn(strings.NewReader(""))
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected run to reject a primary tier hostile rule")
	}
}

func TestRunRejectsConflictingHeadlessFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--headless", "--headful", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected mutually exclusive flags to fail")
	}
}
