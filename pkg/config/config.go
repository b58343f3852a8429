// Package config handles configuration for springboard-runner.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// Defaults applied to zero-valued settings.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultPressDuration  = 1500 * time.Millisecond
	DefaultPollInterval   = 250 * time.Millisecond
	DefaultConnectTimeout = 30 * time.Second
	DefaultWDAURL         = "http://localhost:8100"
)

// Config represents the workspace configuration (springboard.yaml).
// Durations are written the Go way: "5s", "1500ms".
type Config struct {
	// Devices
	WDA []string `yaml:"wda"` // WebDriverAgent base URLs, one per device

	// Deletion
	Apps     []string `yaml:"apps"`     // Apps deleted when none are given on the command line
	Required bool     `yaml:"required"` // Fail when an icon is missing
	Strategy string   `yaml:"strategy"` // Built-in strategy name
	Script   string   `yaml:"script"`   // JavaScript strategy file, overrides Strategy

	// Timing
	Timeout        time.Duration `yaml:"timeout"`        // Element wait timeout
	PressDuration  time.Duration `yaml:"pressDuration"`  // Long press on the icon
	PollInterval   time.Duration `yaml:"pollInterval"`   // Delay between element lookups
	ConnectTimeout time.Duration `yaml:"connectTimeout"` // Wait for WDA /status

	// Output
	Report  string `yaml:"report"`  // JSON summary path
	LogFile string `yaml:"logFile"` // Log file path
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("invalid config %s", path)).
			WithCause(err)
	}

	return &cfg, nil
}

// LoadFromDir looks for springboard.yaml or springboard.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"springboard.yaml", "springboard.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if len(c.WDA) == 0 {
		c.WDA = []string{DefaultWDAURL}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PressDuration == 0 {
		c.PressDuration = DefaultPressDuration
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	for _, raw := range c.WDA {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return core.ErrInvalidConfig.
				WithMessage(fmt.Sprintf("invalid WDA URL %q", raw)).
				WithDetails(map[string]interface{}{"wda": raw})
		}
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"timeout", c.Timeout},
		{"pressDuration", c.PressDuration},
		{"pollInterval", c.PollInterval},
		{"connectTimeout", c.ConnectTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			return core.ErrInvalidConfig.
				WithMessage(fmt.Sprintf("%s must not be negative, got %s", d.name, d.value))
		}
	}
	return nil
}
