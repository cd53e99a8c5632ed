package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Temp dir without a config file
	tmpDir := t.TempDir()
	t.Setenv("IMESSAGE_MCP_HOME", tmpDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Query.MaxMessageLimit != 500 {
		t.Errorf("Query.MaxMessageLimit = %d, want 500", cfg.Query.MaxMessageLimit)
	}
	if !cfg.Automation.SendEnabled {
		t.Error("Automation.SendEnabled = false, want true")
	}
	if cfg.Store.DatabasePath != "" {
		t.Errorf("Store.DatabasePath = %q, want empty", cfg.Store.DatabasePath)
	}
	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("IMESSAGE_MCP_HOME", tmpDir)

	configContent := `
[store]
database_path = "/tmp/chat.db"

[query]
max_message_limit = 200

[automation]
send_enabled = false
`
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Store.DatabasePath != "/tmp/chat.db" {
		t.Errorf("Store.DatabasePath = %q, want /tmp/chat.db", cfg.Store.DatabasePath)
	}
	if cfg.Query.MaxMessageLimit != 200 {
		t.Errorf("Query.MaxMessageLimit = %d, want 200", cfg.Query.MaxMessageLimit)
	}
	if cfg.Automation.SendEnabled {
		t.Error("Automation.SendEnabled = true, want false")
	}
}

func TestLoadInvalidLimitFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("IMESSAGE_MCP_HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[query]\nmax_message_limit = -1\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Query.MaxMessageLimit != 500 {
		t.Errorf("Query.MaxMessageLimit = %d, want fallback 500", cfg.Query.MaxMessageLimit)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("IMESSAGE_MCP_HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("not toml ["), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() succeeded on malformed file")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestDefaultHomeEnvOverride(t *testing.T) {
	t.Setenv("IMESSAGE_MCP_HOME", "/custom/home")
	if got := DefaultHome(); got != "/custom/home" {
		t.Errorf("DefaultHome() = %q, want /custom/home", got)
	}
}
