// ABOUTME: Settings for pushing leadline snapshots to a Charm KV server
// ABOUTME: Read from and written to charm-config.json under the XDG data dir

package charm

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is used whenever the file leaves host empty.
	DefaultCharmHost = "charm.2389.dev"

	AppName        = "leadline"
	ConfigFileName = "charm-config.json"

	// DefaultKeepBackups is the number of remote snapshots prune retains.
	DefaultKeepBackups = 10
)

type Config struct {
	Host           string        `json:"host,omitempty"`
	AutoSync       bool          `json:"auto_sync"`
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
	KeepBackups    int           `json:"keep_backups,omitempty"`
}

func DefaultConfig() *Config {
	cfg := &Config{AutoSync: true}
	cfg.fillDefaults()
	return cfg
}

// fillDefaults replaces zero values that would leave the client unusable.
func (c *Config) fillDefaults() {
	if c.Host == "" {
		c.Host = DefaultCharmHost
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = kv.DefaultStaleThreshold
	}
	if c.KeepBackups <= 0 {
		c.KeepBackups = DefaultKeepBackups
	}
}

// charmDir is swapped out by tests.
var charmDir = func() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func settingsFile() string {
	return filepath.Join(charmDir(), ConfigFileName)
}

// LoadConfig never fails on a missing or unreadable-as-JSON file; both yield
// DefaultConfig. Only I/O errors other than not-exist are returned.
func LoadConfig() (*Config, error) {
	raw, err := os.ReadFile(settingsFile())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return DefaultConfig(), nil
	case err != nil:
		return nil, err
	}

	cfg := DefaultConfig()
	if json.Unmarshal(raw, cfg) != nil {
		return DefaultConfig(), nil
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes through a temp file so a crash never leaves half a config.
func (c *Config) Save() error {
	dir := charmDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ConfigFileName+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), settingsFile())
}
