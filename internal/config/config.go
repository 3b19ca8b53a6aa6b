// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration resolved from the environment.
// Account metadata lives in the TOML file at ConfigPath; see File.
type Config struct {
	Dir               string
	ConfigPath        string
	ActiveSessionPath string
	DatabasePath      string
	LogPath           string
	LogLevel          string
	External          ExternalConfig
	// PollInterval overrides the config file's poll interval when non-zero.
	PollInterval  time.Duration
	Notifications bool
}

const appDirName = "claude-tracker"

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dir := getEnvString("CLAUDE_TRACKER_CONFIG_DIR", getDefaultConfigDir())

	cfg := &Config{
		Dir:               dir,
		ConfigPath:        filepath.Join(dir, "config.toml"),
		ActiveSessionPath: filepath.Join(dir, "active_session.json"),
		DatabasePath:      getEnvString("CLAUDE_TRACKER_DB_PATH", filepath.Join(dir, "usage.db")),
		LogPath:           getEnvString("CLAUDE_TRACKER_LOG_PATH", filepath.Join(dir, "tracker.log")),
		LogLevel:          getEnvString("CLAUDE_TRACKER_LOG_LEVEL", "info"),
		PollInterval:      getEnvDuration("CLAUDE_TRACKER_POLL_INTERVAL", 0),
		Notifications:     getEnvBool("CLAUDE_TRACKER_NOTIFY", true),
		External:          loadExternalConfig(),
	}

	if cfg.PollInterval > 0 && cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}

	if err := ensureDir(cfg.Dir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appDirName, ".env"))
	}

	return paths
}

// getDefaultConfigDir returns ~/.config/claude-tracker.
func getDefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".config", appDirName)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
