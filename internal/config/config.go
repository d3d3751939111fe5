package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	envparse "github.com/caarlos0/env/v6"

	"github.com/chasedut/anonchat/internal/api/messages"
	"github.com/chasedut/anonchat/internal/env"
	"github.com/chasedut/anonchat/internal/palette"
	"github.com/chasedut/anonchat/internal/poller"
)

const (
	appName        = "anonchat"
	ConfigFilename = "anonchat.json"

	// DataDirEnv selects the data directory when no flag is given.
	DataDirEnv = "ANONCHAT_DATA_DIR"

	defaultPollIntervalMS = 1000
)

type PaletteOptions struct {
	// Hex colours handed out to senders in order of first appearance
	Colors []string `json:"colors,omitempty"`
	// Colour for senders that are not in the observed set
	Fallback string `json:"fallback,omitempty"`
}

type Options struct {
	ServerURL      string          `json:"server_url,omitempty" env:"ANONCHAT_SERVER_URL"`
	PollIntervalMS int             `json:"poll_interval_ms,omitempty" env:"ANONCHAT_POLL_INTERVAL_MS"`
	DiffStrategy   string          `json:"diff_strategy,omitempty" env:"ANONCHAT_DIFF_STRATEGY"`
	Palette        *PaletteOptions `json:"palette,omitempty"`
	DataDirectory  string          `json:"data_directory,omitempty"`
	Debug          bool            `json:"debug,omitempty" env:"ANONCHAT_DEBUG"`
}

type Config struct {
	Options *Options `json:"options,omitempty"`
}

func defaults() *Config {
	return &Config{
		Options: &Options{
			ServerURL:      messages.DefaultBaseURL,
			PollIntervalMS: defaultPollIntervalMS,
			DiffStrategy:   poller.StrategyLength,
		},
	}
}

// DefaultDataDir returns $XDG_DATA_HOME/anonchat, falling back to
// ~/.local/share/anonchat.
func DefaultDataDir(e env.Env) string {
	if xdg := e.Get("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home := e.Get("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".local", "share", appName)
}

// Load builds the configuration from defaults, the config file in the data
// directory and the environment. dataDir overrides the directory lookup
// when set. Flags are applied by the caller, followed by Validate.
func Load(dataDir string, e env.Env) (*Config, error) {
	if e == nil {
		e = env.New()
	}
	if dataDir == "" {
		dataDir = e.Get(DataDirEnv)
	}
	if dataDir == "" {
		dataDir = DefaultDataDir(e)
	}

	cfg := defaults()
	if err := cfg.readFile(filepath.Join(dataDir, ConfigFilename)); err != nil {
		return nil, err
	}
	if err := envparse.Parse(cfg.Options, envparse.Options{Environment: env.Map(e)}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Options.DataDirectory = dataDir
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Options == nil {
		c.Options = defaults().Options
	}
	return nil
}

func (c *Config) Validate() error {
	o := c.Options
	if o == nil {
		return errors.New("config has no options")
	}
	u, err := url.Parse(o.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", o.ServerURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server_url %q: must be an http or https URL", o.ServerURL)
	}
	if o.PollIntervalMS <= 0 {
		return fmt.Errorf("invalid poll_interval_ms %d: must be positive", o.PollIntervalMS)
	}
	if _, err := poller.ReconcilerFor(o.DiffStrategy); err != nil {
		return err
	}
	if _, err := c.Palette(); err != nil {
		return err
	}
	if o.DataDirectory == "" {
		return errors.New("data_directory is empty")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Options.PollIntervalMS) * time.Millisecond
}

func (c *Config) Reconciler() (poller.Reconciler, error) {
	return poller.ReconcilerFor(c.Options.DiffStrategy)
}

// Palette returns the configured sender palette. Unset colours or fallback
// take the built-in ones.
func (c *Config) Palette() (palette.Palette, error) {
	p := c.Options.Palette
	if p == nil {
		return palette.Default(), nil
	}
	return palette.Parse(p.Fallback, p.Colors)
}

func (c *Config) LogFile() string {
	return filepath.Join(c.Options.DataDirectory, "logs", appName+".log")
}
