package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/fsutil"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

const (
	// DefaultPollIntervalSecs is used when the config file has no value.
	DefaultPollIntervalSecs = 180
	// MinPollIntervalSecs is the floor applied when loading.
	MinPollIntervalSecs = 30
	// MinPollInterval is MinPollIntervalSecs as a duration.
	MinPollInterval = MinPollIntervalSecs * time.Second
)

// Settings is the [settings] table of the config file.
type Settings struct {
	PollIntervalSecs uint64 `toml:"poll_interval_secs"`
	ActiveAccount    int    `toml:"active_account"`
}

// File is the on-disk config: settings plus the ordered account list.
// Secrets are never stored here.
type File struct {
	Settings Settings               `toml:"settings"`
	Accounts []models.AccountConfig `toml:"accounts"`
}

// DefaultFile returns an empty config with default settings.
func DefaultFile() File {
	return File{
		Settings: Settings{PollIntervalSecs: DefaultPollIntervalSecs},
		Accounts: []models.AccountConfig{},
	}
}

// PollInterval returns the configured poll interval.
func (f File) PollInterval() time.Duration {
	return time.Duration(f.Settings.PollIntervalSecs) * time.Second
}

// LoadFile reads the config at path. A missing file is created with
// defaults. The poll interval is raised to the floor if set lower.
func LoadFile(path string) (File, error) {
	cfg := DefaultFile()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := SaveFile(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, failure.Wrap(failure.KindConfigIO, "read config", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultFile(), failure.Wrap(failure.KindConfigIO, "parse config", err)
	}

	if cfg.Settings.PollIntervalSecs < MinPollIntervalSecs {
		logger.Warn("Poll interval below floor, clamping",
			"configured", cfg.Settings.PollIntervalSecs, "floor", MinPollIntervalSecs)
		cfg.Settings.PollIntervalSecs = MinPollIntervalSecs
	}
	if cfg.Accounts == nil {
		cfg.Accounts = []models.AccountConfig{}
	}

	return cfg, nil
}

// SaveFile writes cfg to path via temp file and rename.
func SaveFile(path string, cfg File) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return failure.Wrap(failure.KindConfigIO, "encode config", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return failure.Wrap(failure.KindConfigIO, "save config", fmt.Errorf("failed to write %s: %w", path, err))
	}
	return nil
}
