package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"golang.org/x/term"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = detectColors()

func detectColors() bool {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// syncWriter serializes output from concurrent device runs.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

func printResult(out *syncWriter, device string, r *core.DeletionResult) {
	dur := formatDuration(r.Duration)
	switch r.Status {
	case core.StatusDeleted:
		out.Printf("  %s✓%s %s %s[%s] %s · %s%s\n",
			color(colorGreen), color(colorReset), r.App,
			color(colorGray), device, r.Strategy, dur, color(colorReset))
	case core.StatusAbsent:
		out.Printf("  %s-%s %s %snot installed [%s]%s\n",
			color(colorCyan), color(colorReset), r.App,
			color(colorGray), device, color(colorReset))
	default:
		out.Printf("  %s✗%s %s %s[%s] %s%s\n",
			color(colorRed), color(colorReset), r.App,
			color(colorGray), device, r.ErrorCode(), color(colorReset))
		out.Printf("    %s╰─%s %s %s(%s)%s\n",
			color(colorGray), color(colorReset), r.Message(),
			color(colorGray), r.Location, color(colorReset))
	}
}

func printSummary(out *syncWriter, s *report.Summary) {
	tableWidth := 72
	out.Printf("\n%s\n", strings.Repeat("═", tableWidth))
	out.Printf("  %-40s %7s %7s %7s\n", "Device", "Deleted", "Absent", "Failed")
	out.Printf("%s\n", strings.Repeat("─", tableWidth))

	var deleted, absent, failed int
	for _, d := range s.Devices {
		name := d.Device
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		failColor := ""
		if d.Failed > 0 {
			failColor = color(colorRed)
		}
		out.Printf("  %-40s %7d %7d %s%7d%s\n", name, d.Deleted, d.Absent, failColor, d.Failed, color(colorReset))
		deleted += d.Deleted
		absent += d.Absent
		failed += d.Failed
	}

	out.Printf("%s\n", strings.Repeat("─", tableWidth))
	out.Printf("  %s%-40s%s %7d %7d %7d\n", color(colorBold), "TOTAL", color(colorReset), deleted, absent, failed)
	out.Printf("%s\n", strings.Repeat("═", tableWidth))

	elapsed := time.Since(s.StartTime)
	if s.EndTime != nil {
		elapsed = s.EndTime.Sub(s.StartTime)
	}
	statusColor := color(colorGreen)
	if s.Status == report.StatusFailed {
		statusColor = color(colorRed)
	}
	out.Printf("  %s%s%s in %s %s(run %s)%s\n",
		statusColor, strings.ToUpper(string(s.Status)), color(colorReset),
		strings.ToLower(units.HumanDuration(elapsed)),
		color(colorGray), s.RunID, color(colorReset))
}

func printWarning(out *syncWriter, format string, args ...interface{}) {
	out.Printf("  %s⚠%s %s\n", color(colorYellow), color(colorReset), fmt.Sprintf(format, args...))
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
