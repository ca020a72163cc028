package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), strings.NewReader(""), &stdout, &stderr, args)
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Plata") {
		t.Errorf("version output missing product name: %q", out)
	}
}

func TestVersionJSONOutput(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"version", "go_version", "os", "arch"} {
		if _, ok := info[key]; !ok {
			t.Errorf("missing key %q in JSON output", key)
		}
	}
}

func TestNoCommandPrintsUsage(t *testing.T) {
	out, err := runCLI(t)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	for _, want := range []string{"chat", "ask", "stats", "init", "version"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage missing command %q:\n%s", want, out)
		}
	}
}

func TestHelpFlag(t *testing.T) {
	out, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("help output missing usage: %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestUnknownFlag(t *testing.T) {
	if _, err := runCLI(t, "-bogus"); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestBadOutputFormat(t *testing.T) {
	if _, err := runCLI(t, "-o", "xml", "version"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestAskRequiresMessage(t *testing.T) {
	if _, err := runCLI(t, "ask"); err == nil {
		t.Error("expected error when ask has no message")
	}
}

func TestInitCreatesConfigOnce(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	first, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("config file is empty")
	}

	// Re-running init must not overwrite user edits.
	if err := os.WriteFile(configPath, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("edit config: %v", err)
	}
	if _, err := runCLI(t, "init", dir); err != nil {
		t.Fatalf("second init: %v", err)
	}
	second, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(second) != "log_level: debug\n" {
		t.Error("init overwrote an existing config file")
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	if _, err := runCLI(t, "-config", filepath.Join(t.TempDir(), "nope.yaml"), "stats"); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}
