// Package config handles loading the imessage-mcp-server configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Store      StoreConfig      `toml:"store"`
	Query      QueryConfig      `toml:"query"`
	Automation AutomationConfig `toml:"automation"`

	// Computed, not read from the file.
	HomeDir string `toml:"-"`
}

// StoreConfig controls where the Messages database is found.
type StoreConfig struct {
	// DatabasePath overrides the default ~/Library/Messages/chat.db.
	DatabasePath string `toml:"database_path"`
}

// QueryConfig caps result sizes across all query tools.
type QueryConfig struct {
	MaxMessageLimit int `toml:"max_message_limit"`
}

// AutomationConfig gates the osascript write path.
type AutomationConfig struct {
	// SendEnabled allows the send_message tool. Lookup stays available
	// regardless since it is read-only.
	SendEnabled bool `toml:"send_enabled"`
}

// DefaultHome returns the configuration directory, respecting
// IMESSAGE_MCP_HOME.
func DefaultHome() string {
	if h := os.Getenv("IMESSAGE_MCP_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".imessage-mcp"
	}
	return filepath.Join(home, ".imessage-mcp")
}

// Load reads configuration from the given file, or from
// <home>/config.toml when path is empty. A missing file yields defaults.
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()
	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Query: QueryConfig{
			MaxMessageLimit: 500,
		},
		Automation: AutomationConfig{
			SendEnabled: true,
		},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Query.MaxMessageLimit <= 0 {
		cfg.Query.MaxMessageLimit = 500
	}

	return cfg, nil
}
