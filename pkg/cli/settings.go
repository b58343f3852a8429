package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/springboard-runner/pkg/config"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
)

// loadSettings merges the workspace config with command-line flags.
// Flags win over the config file; unset values fall back to defaults.
func loadSettings(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("wda-url") {
		cfg.WDA = c.StringSlice("wda-url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	if c.IsSet("connect-timeout") {
		cfg.ConnectTimeout = c.Duration("connect-timeout")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging opens the log file and, with --verbose, mirrors it to stderr.
// The returned func closes the log.
func setupLogging(c *cli.Context, cfg *config.Config) (func(), error) {
	if cfg.LogFile != "" {
		if err := logger.Init(cfg.LogFile); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}
	if c.Bool("verbose") {
		logger.SetVerbose(c.App.ErrWriter)
	}
	return func() {
		logger.SetVerbose(nil)
		logger.Close()
	}, nil
}
