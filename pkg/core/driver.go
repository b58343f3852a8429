// Package core defines the contracts between the deletion flow and the
// automation driver, device and reporting collaborators.
package core

import (
	"fmt"
	"time"
)

// Element is a handle into the live accessibility tree of an application.
// Handles are borrowed for the duration of one deletion call.
type Element interface {
	// WaitForExistence blocks until the element exists or the timeout elapses.
	WaitForExistence(timeout time.Duration) bool

	// IsHittable reports whether the element can receive a tap.
	IsHittable() bool

	// Tap taps the element.
	Tap() error

	// Press touches and holds the element for the given duration.
	Press(duration time.Duration) error

	// Frame returns the element bounds in points.
	Frame() Rect

	// Label returns the accessibility label, or "" if unavailable.
	Label() string
}

// Application is the process whose element tree is queried (Springboard).
type Application interface {
	// Icon returns the home-screen icon with the given display name.
	Icon(name string) Element

	// Button returns the button with the given label.
	Button(label string) Element

	// AlertButtons lists the buttons of the currently displayed alerts.
	AlertButtons() []Element

	// Frame returns the application frame in points.
	Frame() Rect

	// TapNormalized taps at a normalized offset of the application frame.
	TapNormalized(offset Vector) error
}

// Device controls the host device.
type Device interface {
	// PressHome returns the device to its home screen.
	PressHome() error
}

// Reporter receives test failures with caller attribution.
type Reporter interface {
	Fail(message string, loc Location)
}

// Location identifies the source line a failure is attributed to.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String returns "file:line".
func (l Location) String() string {
	if l.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Rect represents an element frame in points.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MinX returns the left edge.
func (r Rect) MinX() float64 { return r.X }

// MinY returns the top edge.
func (r Rect) MinY() float64 { return r.Y }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Vector is an offset expressed as a fraction (0.0-1.0) of a reference frame.
type Vector struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Point resolves the vector against a frame and returns absolute coordinates.
func (v Vector) Point(frame Rect) (float64, float64) {
	return frame.X + frame.Width*v.DX, frame.Y + frame.Height*v.DY
}
