package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != 20270 {
		t.Fatalf("port = %d, want default", cfg.Server.Port)
	}
	if cfg.Import.InternalProjectName != "Internal" {
		t.Fatalf("internal project name = %q", cfg.Import.InternalProjectName)
	}
	if len(cfg.Import.ReasonKeywords) == 0 {
		t.Fatal("default reason keywords missing")
	}
}

func TestLoadFromOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
port = 9001

[import]
reason_keywords = ["leave"]
internal_project_name = "Overhead"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Fatalf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Import.InternalProjectName != "Overhead" {
		t.Fatalf("internal project name = %q", cfg.Import.InternalProjectName)
	}
	if len(cfg.Import.ReasonKeywords) != 1 || cfg.Import.ReasonKeywords[0] != "leave" {
		t.Fatalf("reason keywords = %v", cfg.Import.ReasonKeywords)
	}
	// untouched sections keep their defaults
	if cfg.Data.DataDir != "data" {
		t.Fatalf("data dir = %q, want default", cfg.Data.DataDir)
	}
}

func TestLoadFromRejectsBadToml(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport="), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
