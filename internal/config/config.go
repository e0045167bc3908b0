// Package config wires the CLI harness's viper singleton: a project ->
// user -> home search-path precedence, scoped to the handful of settings
// this harness actually has (database location, default actor identity,
// output mode, logging).
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Must be called once
// at startup before any Get* function is used.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	// 1. Walk up from CWD looking for a project-level .cattrans/config.yaml,
	// so commands work the same from any subdirectory of the workspace.
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".cattrans", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	// 2. User config directory (~/.config/cattrans/config.yaml).
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "cattrans", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	// 3. Home directory fallback (~/.cattrans/config.yaml).
	if !configFileSet {
		if homeDir, err := os.UserHomeDir(); err == nil {
			configPath := filepath.Join(homeDir, ".cattrans", "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("CATTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("db", "")
	v.SetDefault("actor", "")
	v.SetDefault("lock-timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	return nil
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a configuration value at runtime (e.g. from a parsed flag).
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// ResolveActor determines the acting translator's identity for audit
// purposes, in priority order: an explicit flag value, the configured
// "actor" setting, `git config user.name`, and finally the machine
// hostname.
func ResolveActor(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if actor := GetString("actor"); actor != "" {
		return actor
	}
	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "unknown"
}

// Settings is the typed shape of a workspace config.yaml. Unknown keys in a
// hand-edited file are simply ignored by viper; this struct exists so the
// starter file written by WriteDefaultConfig enumerates every supported knob.
type Settings struct {
	DB    string `yaml:"db,omitempty"`
	Actor string `yaml:"actor,omitempty"`
	JSON  bool   `yaml:"json"`
	Log   struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`
}

// WriteDefaultConfig writes a starter config.yaml at path unless one already
// exists, so a freshly initialized workspace leaves a discoverable, editable
// config behind rather than relying on invisible defaults.
func WriteDefaultConfig(path string, s Settings) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// DatabasePath resolves the workspace's SQLite file: an explicit flag value,
// the configured "db" setting, or the default "./.cattrans/workspace.db"
// relative to the current directory.
func DatabasePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if db := GetString("db"); db != "" {
		return db
	}
	return filepath.Join(".cattrans", "workspace.db")
}
