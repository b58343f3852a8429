// Package mock provides an in-memory Springboard for testing without a device.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// Element is a scripted element. Zero value: does not exist.
type Element struct {
	Name     string
	Exists   bool
	Hittable bool
	Rect     core.Rect
	TapErr   error
	PressErr error

	// OnTap runs after a successful tap, e.g. to reveal the next dialog.
	OnTap func()

	// Instrumentation
	Waits   []time.Duration
	Taps    int
	Presses []time.Duration

	app *Application
}

// WaitForExistence returns Exists immediately and records the timeout.
func (e *Element) WaitForExistence(timeout time.Duration) bool {
	e.Waits = append(e.Waits, timeout)
	return e.Exists
}

// IsHittable returns Exists && Hittable.
func (e *Element) IsHittable() bool {
	return e.Exists && e.Hittable
}

// Tap records a tap.
func (e *Element) Tap() error {
	if e.TapErr != nil {
		return e.TapErr
	}
	e.Taps++
	e.record("tap:" + e.Name)
	if e.OnTap != nil {
		e.OnTap()
	}
	return nil
}

// Press records a long press.
func (e *Element) Press(duration time.Duration) error {
	if e.PressErr != nil {
		return e.PressErr
	}
	e.Presses = append(e.Presses, duration)
	e.record("press:" + e.Name)
	return nil
}

// Frame returns Rect.
func (e *Element) Frame() core.Rect {
	return e.Rect
}

// Label returns Name.
func (e *Element) Label() string {
	return e.Name
}

func (e *Element) record(event string) {
	if e.app != nil {
		e.app.record(event)
	}
}

// Application is a scripted Springboard.
type Application struct {
	Rect    core.Rect
	Icons   map[string]*Element
	Buttons map[string]*Element
	Alerts  []*Element
	TapErr  error

	// Instrumentation
	NormalizedTaps []core.Vector
	ButtonLookups  []string
	AlertLookups   int

	mu     sync.Mutex
	events []string
}

// New creates an empty application with the given frame.
func New(frame core.Rect) *Application {
	return &Application{
		Rect:    frame,
		Icons:   make(map[string]*Element),
		Buttons: make(map[string]*Element),
	}
}

// AddIcon adds a hittable icon.
func (a *Application) AddIcon(name string, frame core.Rect) *Element {
	e := &Element{Name: name, Exists: true, Hittable: true, Rect: frame, app: a}
	a.Icons[name] = e
	return e
}

// AddButton adds a hittable button.
func (a *Application) AddButton(label string) *Element {
	e := &Element{Name: label, Exists: true, Hittable: true, app: a}
	a.Buttons[label] = e
	return e
}

// AddAlertButton appends a hittable alert button.
func (a *Application) AddAlertButton(label string) *Element {
	e := &Element{Name: label, Exists: true, Hittable: true, app: a}
	a.Alerts = append(a.Alerts, e)
	return e
}

// Icon returns the named icon, or a missing element.
func (a *Application) Icon(name string) core.Element {
	if e, ok := a.Icons[name]; ok {
		return e
	}
	return &Element{Name: name, app: a}
}

// Button returns the labelled button, or a missing element.
func (a *Application) Button(label string) core.Element {
	a.ButtonLookups = append(a.ButtonLookups, label)
	if e, ok := a.Buttons[label]; ok {
		return e
	}
	return &Element{Name: label, app: a}
}

// AlertButtons returns the alert buttons that currently exist.
func (a *Application) AlertButtons() []core.Element {
	a.AlertLookups++
	var buttons []core.Element
	for _, e := range a.Alerts {
		if e.Exists {
			buttons = append(buttons, e)
		}
	}
	return buttons
}

// Frame returns Rect.
func (a *Application) Frame() core.Rect {
	return a.Rect
}

// TapNormalized records a coordinate tap.
func (a *Application) TapNormalized(offset core.Vector) error {
	if a.TapErr != nil {
		return a.TapErr
	}
	a.NormalizedTaps = append(a.NormalizedTaps, offset)
	a.record(fmt.Sprintf("tapNormalized:%.4f,%.4f", offset.DX, offset.DY))
	return nil
}

// Events returns the recorded gesture log in order.
func (a *Application) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

func (a *Application) record(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

// Device records home button presses.
type Device struct {
	HomePresses int
	Err         error

	app *Application
}

// NewDevice creates a device whose presses are logged into app's events.
func NewDevice(app *Application) *Device {
	return &Device{app: app}
}

// PressHome records a home press.
func (d *Device) PressHome() error {
	if d.Err != nil {
		return d.Err
	}
	d.HomePresses++
	if d.app != nil {
		d.app.record("home")
	}
	return nil
}
