package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	wdadriver "github.com/devicelab-dev/springboard-runner/pkg/driver/wda"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Check that WebDriverAgent answers on every configured device",
	Action: func(c *cli.Context) error {
		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}
		out := &syncWriter{w: c.App.Writer}

		lines := make([]string, len(cfg.WDA))
		var g errgroup.Group
		for i, endpoint := range cfg.WDA {
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(c.Context, cfg.ConnectTimeout)
				defer cancel()
				line, err := probe(ctx, endpoint)
				lines[i] = line
				return err
			})
		}
		err = g.Wait()

		for _, line := range lines {
			out.Printf("%s\n", line)
		}
		if err != nil {
			return cli.Exit("", 1)
		}
		return nil
	},
}

// probe reports one endpoint's readiness as a printable line.
func probe(ctx context.Context, endpoint string) (string, error) {
	client := wdadriver.NewClientURL(endpoint)
	start := time.Now()
	if err := client.WaitForReady(ctx, time.Second); err != nil {
		return fmt.Sprintf("  %s✗%s %s %s%v%s",
			color(colorRed), color(colorReset), endpoint,
			color(colorGray), err, color(colorReset)), err
	}
	status, err := client.Status()
	if err != nil {
		return fmt.Sprintf("  %s✗%s %s %s%v%s",
			color(colorRed), color(colorReset), endpoint,
			color(colorGray), err, color(colorReset)), err
	}
	return fmt.Sprintf("  %s✓%s %s %s%s · %s%s",
		color(colorGreen), color(colorReset), endpoint,
		color(colorGray), describeStatus(status), formatDuration(time.Since(start)), color(colorReset)), nil
}

// describeStatus summarizes a WDA /status payload, e.g. "iOS 17.2".
func describeStatus(status map[string]interface{}) string {
	value, _ := status["value"].(map[string]interface{})
	osInfo, _ := value["os"].(map[string]interface{})
	name, _ := osInfo["name"].(string)
	version, _ := osInfo["version"].(string)
	switch {
	case name != "" && version != "":
		return name + " " + version
	case version != "":
		return "iOS " + version
	}
	return "ready"
}
