package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/springboard-runner/pkg/config"
	"github.com/devicelab-dev/springboard-runner/pkg/core"
	wdadriver "github.com/devicelab-dev/springboard-runner/pkg/driver/wda"
	"github.com/devicelab-dev/springboard-runner/pkg/jsengine"
	"github.com/devicelab-dev/springboard-runner/pkg/lock"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
	"github.com/devicelab-dev/springboard-runner/pkg/report"
	"github.com/devicelab-dev/springboard-runner/pkg/springboard"
)

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "Delete apps from the home screen",
	ArgsUsage: "<app-name>...",
	Description: `Delete one or more apps by their home-screen name on every configured device.

Apps that are not installed are skipped unless --required is given.
The default strategy tries iOS 14+, then iOS 13, then iOS 12 gestures.

Examples:
  springboard-runner delete Maps
  springboard-runner delete --required --strategy ios14 Maps Notes
  springboard-runner delete --script strategies/custom.js --report out/run.json Maps`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "required",
			Usage: "Fail when an app icon is not found",
		},
		&cli.StringFlag{
			Name:    "strategy",
			Aliases: []string{"s"},
			Usage:   "Deletion strategy (see 'strategies')",
		},
		&cli.StringFlag{
			Name:  "script",
			Usage: "JavaScript strategy file defining deleteApp(app, icon)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON run summary to this file (relative paths go under the reports directory)",
		},
		&cli.DurationFlag{
			Name:  "press-duration",
			Usage: "Long press on the app icon (default: 1.5s)",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Maximum devices driven at once (0 = all)",
		},
	},
	Action: runDelete,
}

// deleteRun is everything a device worker needs.
type deleteRun struct {
	cfg      *config.Config
	apps     []string
	strategy springboard.Strategy
	out      *syncWriter
}

func runDelete(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.IsSet("required") {
		cfg.Required = c.Bool("required")
	}
	if c.IsSet("strategy") {
		cfg.Strategy = c.String("strategy")
		cfg.Script = ""
	}
	if c.IsSet("script") {
		cfg.Script = c.String("script")
	}
	if c.IsSet("report") {
		cfg.Report = c.String("report")
	}
	if c.IsSet("press-duration") {
		cfg.PressDuration = c.Duration("press-duration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	apps := c.Args().Slice()
	if len(apps) == 0 {
		apps = cfg.Apps
	}
	if len(apps) == 0 {
		return fmt.Errorf("at least one app name is required")
	}

	strategy, err := resolveStrategy(cfg)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(c, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := &deleteRun{
		cfg:      cfg,
		apps:     apps,
		strategy: strategy,
		out:      &syncWriter{w: c.App.Writer},
	}
	run.out.Printf("\n%sDeleting%s %d app(s) on %d device(s) using %s\n",
		color(colorBold), color(colorReset), len(apps), len(cfg.WDA), strategy.Name())

	summary := report.NewSummary()
	var g errgroup.Group
	if n := c.Int("parallel"); n > 0 {
		g.SetLimit(n)
	}
	setupErrs := make([]error, len(cfg.WDA))
	for i, endpoint := range cfg.WDA {
		g.Go(func() error {
			result, failures, err := run.device(ctx, endpoint)
			if err != nil {
				logger.Error("%s: %v", endpoint, err)
				printWarning(run.out, "%s: %v", endpoint, err)
				setupErrs[i] = fmt.Errorf("%s: %w", endpoint, err)
				failures = append(failures, report.Failure{
					Device:  endpoint,
					Message: err.Error(),
					Time:    time.Now(),
				})
			}
			summary.AddDevice(result, failures)
			return nil
		})
	}
	_ = g.Wait()
	summary.Finish()
	printSummary(run.out, summary)

	if cfg.Report != "" {
		path := reportPath(cfg.Report)
		if err := summary.WriteFile(path); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		run.out.Printf("  Report: %s\n", path)
	}

	if setupErr := errors.Join(setupErrs...); setupErr != nil {
		return cli.Exit(setupErr.Error(), 1)
	}
	if summary.Status == report.StatusFailed {
		return cli.Exit(fmt.Sprintf("%d deletion(s) failed", len(summary.Failures)), 1)
	}
	return nil
}

// resolveStrategy picks the script strategy when one is configured, else
// a built-in by name.
func resolveStrategy(cfg *config.Config) (springboard.Strategy, error) {
	if cfg.Script != "" {
		return jsengine.LoadStrategy(cfg.Script, cfg.Timeout)
	}
	return springboard.Lookup(cfg.Strategy, cfg.Timeout)
}

// reportPath places relative report paths under the reports directory.
func reportPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(config.GetReportsDir(), p)
}

// device deletes every app on one endpoint. Only setup problems (lock,
// connection) come back as errors; deletion failures are in the summary.
func (r *deleteRun) device(ctx context.Context, endpoint string) (core.RunSummary, []report.Failure, error) {
	result := core.RunSummary{Device: endpoint}

	lk, err := lock.ForEndpoint(config.GetLocksDir(), endpoint)
	if err != nil {
		return result, nil, err
	}
	lockCtx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()
	if err := lk.Lock(lockCtx); err != nil {
		return result, nil, err
	}
	defer lk.Unlock()

	sb, err := wdadriver.Connect(lockCtx, endpoint, r.cfg.PollInterval)
	if err != nil {
		return result, nil, err
	}
	defer func() {
		if err := sb.Close(); err != nil {
			logger.Warn("%s: close session: %v", endpoint, err)
		}
	}()

	rec := report.NewRecorder(endpoint)
	deleter := springboard.NewDeleter(sb, sb, rec, springboard.Options{
		Timeout:       r.cfg.Timeout,
		PressDuration: r.cfg.PressDuration,
		Strategy:      r.strategy,
	})

	for i, app := range r.apps {
		if ctx.Err() != nil {
			printWarning(r.out, "%s: interrupted before %s", endpoint, app)
			break
		}
		opts := []springboard.Option{springboard.At("app", i+1)}
		if r.cfg.Required {
			opts = append(opts, springboard.Required())
		}
		res := deleter.DeleteApp(app, opts...)
		printResult(r.out, endpoint, res)
		result.Add(*res)
	}
	return result, rec.Failures(), nil
}
