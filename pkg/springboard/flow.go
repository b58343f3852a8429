// Package springboard deletes apps from the iOS home screen.
//
// A Deleter long-presses the app icon, runs a version-specific Strategy to
// reach the delete confirmation, confirms it and returns to the home screen.
// Failures go to the Reporter with the caller's file and line, the same way
// a test assertion would; they are never returned as Go errors.
package springboard

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultPressDuration = 1500 * time.Millisecond
)

// Options configures a Deleter.
type Options struct {
	// Timeout bounds every wait for an element (0 = DefaultTimeout).
	Timeout time.Duration
	// PressDuration is the long press that enters jiggle mode (0 = DefaultPressDuration).
	PressDuration time.Duration
	// Strategy is used when a call does not pass one (zero = Default(Timeout)).
	Strategy Strategy
}

// Deleter runs the delete-app flow against one Springboard session.
type Deleter struct {
	app      core.Application
	device   core.Device
	reporter core.Reporter
	opts     Options
}

// NewDeleter creates a Deleter bound to an application session.
func NewDeleter(app core.Application, device core.Device, reporter core.Reporter, opts Options) *Deleter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PressDuration <= 0 {
		opts.PressDuration = DefaultPressDuration
	}
	if opts.Strategy.delete == nil {
		opts.Strategy = Default(opts.Timeout)
	}
	return &Deleter{
		app:      app,
		device:   device,
		reporter: reporter,
		opts:     opts,
	}
}

// Timeout returns the element wait timeout in use.
func (d *Deleter) Timeout() time.Duration {
	return d.opts.Timeout
}

type callOptions struct {
	strategy Strategy
	required bool
	loc      core.Location
	hasLoc   bool
}

// Option customizes a single DeleteApp call.
type Option func(*callOptions)

// Using selects the strategy for this call.
func Using(s Strategy) Option {
	return func(o *callOptions) {
		o.strategy = s
	}
}

// Required makes a missing icon a failure instead of a no-op.
func Required() Option {
	return func(o *callOptions) {
		o.required = true
	}
}

// At attributes failures to the given source location instead of the caller.
func At(file string, line int) Option {
	return func(o *callOptions) {
		o.loc = core.Location{File: file, Line: line}
		o.hasLoc = true
	}
}

// DeleteApp deletes the app with the given display name.
//
// If the icon is missing and Required was not given, DeleteApp returns an
// absent result without touching the device.
func (d *Deleter) DeleteApp(name string, opts ...Option) *core.DeletionResult {
	co := callOptions{strategy: d.opts.Strategy}
	for _, opt := range opts {
		opt(&co)
	}
	if !co.hasLoc {
		co.loc = callerLocation(1)
	}

	result := &core.DeletionResult{
		App:       name,
		Strategy:  co.strategy.Name(),
		Location:  co.loc,
		StartTime: time.Now(),
	}
	d.run(name, co, result)
	result.Duration = time.Since(result.StartTime)
	return result
}

func (d *Deleter) run(name string, co callOptions, result *core.DeletionResult) {
	icon := d.app.Icon(name)
	if !available(icon, d.opts.Timeout) {
		if !co.required {
			logger.Info("icon %q not present, nothing to delete", name)
			result.Status = core.StatusAbsent
			return
		}
		d.fail(result, core.ErrIconNotFound.
			WithMessage(fmt.Sprintf("Application icon named '%s' not found.", name)))
		return
	}

	logger.Info("long pressing %q for %s", name, d.opts.PressDuration)
	if err := icon.Press(d.opts.PressDuration); err != nil {
		logger.Warn("long press on %q failed: %v", name, err)
	}

	if !co.strategy.Delete(d.app, icon) {
		d.fail(result, core.ErrBeginDeletion)
		return
	}

	confirm := FindAlertButton(d.app, "delete")
	if confirm == nil {
		d.fail(result, core.ErrDeleteButtonNotFound)
		return
	}
	if !available(confirm, d.opts.Timeout) {
		d.fail(result, core.ErrConfirmDelete)
		return
	}
	if err := confirm.Tap(); err != nil {
		d.fail(result, core.ErrConfirmDelete.WithCause(err))
		return
	}

	if err := d.device.PressHome(); err != nil {
		logger.Warn("home button press failed: %v", err)
	}
	logger.Info("deleted %q using %s", name, co.strategy.Name())
	result.Status = core.StatusDeleted
}

// fail reports exactly one failure for the call and marks the result failed.
func (d *Deleter) fail(result *core.DeletionResult, err *core.ExecutionError) {
	result.Status = core.StatusFailed
	result.Error = err.WithDetails(map[string]interface{}{"app": result.App})
	logger.Error("%s: %s", result.Location, err.Message)
	d.reporter.Fail(err.Message, result.Location)
}

// FindAlertButton returns the first alert button whose label contains
// substr, ignoring case, or nil.
func FindAlertButton(app core.Application, substr string) core.Element {
	needle := cases.Fold().String(substr)
	for _, button := range app.AlertButtons() {
		if strings.Contains(cases.Fold().String(button.Label()), needle) {
			return button
		}
	}
	return nil
}

func callerLocation(skip int) core.Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return core.Location{}
	}
	return core.Location{File: file, Line: line}
}
