package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ProfilesRoot string `toml:"profiles_root" envconfig:"TABTALLY_PROFILES_ROOT"`
	Profile      string `toml:"profile" envconfig:"TABTALLY_PROFILE"`
	SessionFile  string `toml:"session_file" envconfig:"TABTALLY_SESSION_FILE"`
	Top          int    `toml:"top" envconfig:"TABTALLY_TOP"`

	Report  ReportConfig  `toml:"report"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

type ReportConfig struct {
	APIURL      string        `toml:"api_url" envconfig:"API_URL"`
	AccessToken string        `toml:"access_token" envconfig:"ACCESS_TOKEN"`
	Retries     int           `toml:"retries" envconfig:"TABTALLY_REPORT_RETRIES"`
	Timeout     time.Duration `toml:"timeout" envconfig:"TABTALLY_REPORT_TIMEOUT"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled" envconfig:"TABTALLY_HISTORY"`
	DBPath  string `toml:"db_path" envconfig:"TABTALLY_HISTORY_DB"`
}

type LogConfig struct {
	Level       string `toml:"level" envconfig:"TABTALLY_LOG_LEVEL"`
	Development bool   `toml:"development" envconfig:"TABTALLY_LOG_DEV"`
}

// Load builds the configuration from defaults, then the optional TOML file
// (~/.config/tabtally/config.toml or $TABTALLY_CONFIG), then the environment.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Default(home)

	cfgPath := os.Getenv("TABTALLY_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join(home, ".config", "tabtally", "config.toml")
	}
	cfgPath = expandHome(cfgPath, home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	// expand ~ in paths
	cfg.ProfilesRoot = expandHome(cfg.ProfilesRoot, home)
	cfg.SessionFile = expandHome(cfg.SessionFile, home)
	cfg.History.DBPath = expandHome(cfg.History.DBPath, home)

	return cfg, nil
}

// Default returns the configuration used when nothing overrides it.
func Default(home string) *Config {
	return &Config{
		ProfilesRoot: profilesRoot(home),
		Top:          10,
		Report: ReportConfig{
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			DBPath: filepath.Join(home, ".config", "tabtally", "history.db"),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ValidateReport checks the settings the report command cannot run without.
func (c *Config) ValidateReport() error {
	var errs []error
	if c.Report.APIURL == "" {
		errs = append(errs, errors.New("api_url is not set (API_URL)"))
	}
	if c.Report.AccessToken == "" {
		errs = append(errs, errors.New("access_token is not set (ACCESS_TOKEN)"))
	}
	if c.Report.Retries < 0 {
		errs = append(errs, fmt.Errorf("report retries must be >= 0, got %d", c.Report.Retries))
	}
	return errors.Join(errs...)
}

// profilesRoot is the directory holding one sub-directory per Firefox profile.
func profilesRoot(home string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Mozilla", "Firefox", "Profiles")
		}
	}
	return filepath.Join(home, ".mozilla", "firefox")
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
