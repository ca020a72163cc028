package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/plata
log_level: debug
classifier:
  neighbors: 5
  retrain_every: 20
  min_bootstrap: 8
sessions:
  snapshot: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/plata" {
		t.Errorf("DataDir = %q, want /var/lib/plata", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Classifier.Neighbors != 5 || cfg.Classifier.RetrainEvery != 20 || cfg.Classifier.MinBootstrap != 8 {
		t.Errorf("Classifier = %+v, want 5/20/8", cfg.Classifier)
	}
	if !cfg.Sessions.Snapshot {
		t.Error("Sessions.Snapshot = false, want true")
	}
}

func TestLoadEmptyConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "." {
		t.Errorf("DataDir = %q, want .", cfg.DataDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Classifier.Neighbors != 3 || cfg.Classifier.RetrainEvery != 10 || cfg.Classifier.MinBootstrap != 6 {
		t.Errorf("Classifier = %+v, want defaults 3/10/6", cfg.Classifier)
	}
	if cfg.Sessions.Snapshot {
		t.Error("Sessions.Snapshot should default to false")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "data_dir: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	if _, err := Load(writeConfig(t, "log_level: loud")); err == nil {
		t.Error("expected validation error")
	}
}

func TestValidateRejectsNegativeKnobs(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Classifier.Neighbors = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative neighbors")
	}
}

func TestFindConfigExplicitMustExist(t *testing.T) {
	if _, err := FindConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	path := writeConfig(t, "")
	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != path {
		t.Errorf("FindConfig = %q, want %q", got, path)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.DatabasePath(); got != filepath.Join("/data", "plata.db") {
		t.Errorf("DatabasePath = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"  WARN  ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestReplaceLogLevelNames(t *testing.T) {
	attr := slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(LevelTrace)}
	got := ReplaceLogLevelNames(nil, attr)
	if got.Value.String() != "TRACE" {
		t.Errorf("trace rendered as %q, want TRACE", got.Value.String())
	}

	attr = slog.Attr{Key: slog.LevelKey, Value: slog.AnyValue(slog.LevelInfo)}
	got = ReplaceLogLevelNames(nil, attr)
	if !strings.Contains(got.Value.String(), "INFO") {
		t.Errorf("info rendered as %q, want INFO untouched", got.Value.String())
	}
}
