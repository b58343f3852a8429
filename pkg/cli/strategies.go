package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/springboard-runner/pkg/springboard"
)

var strategyDescriptions = map[string]string{
	"default": "ios14, then ios13, then ios12; stops at the first that applies",
	"ios14":   `taps "Remove App", then the "Delete App" alert button`,
	"ios13":   `taps "Delete App" in the icon context menu`,
	"ios12":   "taps the delete badge at the icon's top-left corner",
}

var strategiesCommand = &cli.Command{
	Name:  "strategies",
	Usage: "List the built-in deletion strategies",
	Action: func(c *cli.Context) error {
		out := &syncWriter{w: c.App.Writer}
		for _, name := range springboard.Names() {
			out.Printf("  %s%-8s%s %s\n", color(colorCyan), name, color(colorReset), strategyDescriptions[name])
		}
		out.Printf("\n  Custom strategies: --script FILE.js defining deleteApp(app, icon)\n")
		return nil
	},
}
