// Package clientconfig stores the command-line client's settings as YAML in
// the user's config directory.
package clientconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"focusroom/backend/internal/model"
)

const (
	AppName        = "focusroom"
	configFileName = "config.yaml"

	DefaultServerURL = "http://localhost:8080"
)

type Config struct {
	ServerURL    string `yaml:"server_url"`
	Token        string `yaml:"token,omitempty"`
	Email        string `yaml:"email,omitempty"`
	DeviceID     string `yaml:"device_id"`
	FocusMinutes int    `yaml:"focus_minutes"`
	BreakMinutes int    `yaml:"break_minutes"`

	dir string
}

func Default() Config {
	return Config{
		ServerURL:    DefaultServerURL,
		FocusMinutes: model.DefaultFocusSeconds / 60,
		BreakMinutes: model.DefaultBreakSeconds / 60,
	}
}

// DefaultDir is <user config dir>/focusroom.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the config from dir, or DefaultDir when dir is empty. A
// missing file yields defaults. A device id is generated and saved the
// first time one is missing.
func Load(dir string) (Config, error) {
	if dir == "" {
		resolved, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		dir = resolved
	}

	cfg := Default()
	cfg.dir = dir

	raw, err := os.ReadFile(cfg.Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	cfg.normalize()

	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c Config) Save() error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	// The file holds a bearer token.
	if err := os.WriteFile(c.Path(), serialized, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c Config) Dir() string {
	return c.dir
}

func (c Config) Path() string {
	return filepath.Join(c.dir, configFileName)
}

func (c Config) LoggedIn() bool {
	return c.Token != ""
}

func (c Config) FocusSeconds() int {
	return c.FocusMinutes * 60
}

func (c Config) BreakSeconds() int {
	return c.BreakMinutes * 60
}

func (c *Config) normalize() {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	maxMinutes := model.MaxSeconds / 60
	if c.FocusMinutes <= 0 || c.FocusMinutes > maxMinutes {
		c.FocusMinutes = model.DefaultFocusSeconds / 60
	}
	if c.BreakMinutes <= 0 || c.BreakMinutes > maxMinutes {
		c.BreakMinutes = model.DefaultBreakSeconds / 60
	}
}
