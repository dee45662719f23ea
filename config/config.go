// ABOUTME: Application configuration loaded from file, .env and environment
// ABOUTME: Resolves the data directory and derived export/backup paths
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG data directory and the env prefix.
	AppName = "leadline"

	DefaultHTTPAddr = ":8080"
	DefaultLogMode  = "dev"
	DefaultKPIBasis = "type"
)

type Config struct {
	DataDir       string `mapstructure:"data_dir"`
	DBPath        string `mapstructure:"db_path"`
	HTTPAddr      string `mapstructure:"http_addr"`
	LogMode       string `mapstructure:"log_mode"`
	Agent         string `mapstructure:"agent"`
	KPIBasis      string `mapstructure:"kpi_basis"`
	AutosaveSteps bool   `mapstructure:"autosave_steps"`
}

// Load reads configuration. configFile may be empty, in which case
// <data_dir>/config.yaml is used when present. Values from LEADLINE_* env
// vars (and a .env file in the working directory) take precedence.
func Load(configFile string) (*Config, error) {
	// Missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", filepath.Join(xdg.DataHome, AppName))
	v.SetDefault("db_path", "")
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("log_mode", DefaultLogMode)
	v.SetDefault("agent", os.Getenv("USER"))
	v.SetDefault("kpi_basis", DefaultKPIBasis)
	v.SetDefault("autosave_steps", true)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, AppName+".db")
	}

	switch cfg.KPIBasis {
	case "type", "outcome":
	default:
		return nil, fmt.Errorf("invalid kpi_basis %q (want type or outcome)", cfg.KPIBasis)
	}

	return cfg, nil
}

// ExportDir is where discovery exports are written.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports", "discovery")
}

// BackupDir is where store snapshots and database copies are written.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}
