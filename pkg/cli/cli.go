// Package cli provides the command-line interface for springboard-runner.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to springboard.yaml (default: ./springboard.yaml if present)",
		EnvVars: []string{"SPRINGBOARD_CONFIG"},
	},
	&cli.StringSliceFlag{
		Name:    "wda-url",
		Aliases: []string{"u"},
		Usage:   "WebDriverAgent base URL, repeat for several devices (default: http://localhost:8100)",
		EnvVars: []string{"SPRINGBOARD_WDA_URL"},
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "How long to wait for each element (default: 5s)",
		EnvVars: []string{"SPRINGBOARD_TIMEOUT"},
	},
	&cli.DurationFlag{
		Name:  "poll-interval",
		Usage: "Delay between element lookups while waiting (default: 250ms)",
	},
	&cli.DurationFlag{
		Name:  "connect-timeout",
		Usage: "How long to wait for WDA and the device lock (default: 30s)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Mirror log output to stderr",
		EnvVars: []string{"SPRINGBOARD_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Write the log to this file",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application writing to stdout and stderr.
func NewApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "springboard-runner",
		Usage:   "Delete apps from iOS home screens through WebDriverAgent",
		Version: Version,
		Description: `springboard-runner long-presses app icons on the iOS home screen and
walks the delete dialogs of iOS 12, 13 and 14+.

Examples:
  springboard-runner delete Maps Notes
  springboard-runner -u http://10.0.0.5:8100 -u http://10.0.0.6:8100 delete --required Maps
  springboard-runner delete --strategy ios13 --report out/summary.json Maps
  springboard-runner delete --script strategies/ios17.js Maps
  springboard-runner status`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			deleteCommand,
			strategiesCommand,
			statusCommand,
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		// Run returns exit errors; Execute turns them into an exit status.
		ExitErrHandler: func(*cli.Context, error) {},
		Writer:         stdout,
		ErrWriter:      stderr,
	}
}

// Execute runs the CLI.
func Execute() {
	app := NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
