// Package reporttest adapts deletion failure reporting to Go tests.
package reporttest

import (
	"testing"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// ForTest reports failures to a Go test. The attributed location is part of
// the message since testing.TB cannot take an explicit file and line.
func ForTest(tb testing.TB) core.Reporter {
	return testReporter{tb: tb}
}

type testReporter struct {
	tb testing.TB
}

func (r testReporter) Fail(message string, loc core.Location) {
	r.tb.Helper()
	r.tb.Errorf("%s: %s", loc, message)
}
