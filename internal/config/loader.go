package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const appName = "moodjournal"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The file is MOODJOURNAL_CONFIG when set (it must exist), otherwise
// config.yaml in the user config directory when present.
func Load() (Config, error) {
	var cfg Config

	path := strings.TrimSpace(os.Getenv("MOODJOURNAL_CONFIG"))
	explicitPath := path != ""
	if !explicitPath {
		path = defaultConfigPath()
	}

	if _, err := os.Stat(path); path != "" && err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return Config{}, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// resolvePaths fills data locations that have no static default.
func (c *Config) resolvePaths() error {
	if c.Journal.DBPath != "" && c.Journal.ClipsDir != "" && c.Rules.Path != "" {
		return nil
	}

	dataDir, err := dataHome()
	if err != nil {
		return err
	}
	if c.Journal.DBPath == "" {
		c.Journal.DBPath = filepath.Join(dataDir, "journal.db")
	}
	if c.Journal.ClipsDir == "" {
		c.Journal.ClipsDir = filepath.Join(dataDir, "clips")
	}
	if c.Rules.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Rules.Path = firstExisting(filepath.Join(dir, appName, "substitutions.rules"))
		}
	}
	return nil
}

func dataHome() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
