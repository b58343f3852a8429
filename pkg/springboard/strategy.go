package springboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
)

// Labels of the controls exposed in jiggle mode.
const (
	RemoveAppLabel = "Remove App" // iOS 14+
	DeleteAppLabel = "Delete App" // iOS 13

	// cornerInset is how far inside the icon's top-left corner the iOS 12
	// delete badge is tapped.
	cornerInset = 3.0
)

// DeleteFunc drives the UI toward a confirmable deletion state. It returns
// true if a confirmation control is now reachable.
type DeleteFunc func(app core.Application, icon core.Element) bool

// Strategy is a named deletion policy for one OS generation.
type Strategy struct {
	name   string
	delete DeleteFunc
}

// NewStrategy creates a strategy from a function.
func NewStrategy(name string, fn DeleteFunc) Strategy {
	return Strategy{name: name, delete: fn}
}

// Name returns the strategy label.
func (s Strategy) Name() string {
	return s.name
}

// Delete runs the strategy. A panic inside the strategy is recovered and
// reported as false.
func (s Strategy) Delete(app core.Application, icon core.Element) (ok bool) {
	if s.delete == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("strategy %s panicked: %v", s.name, r)
			ok = false
		}
	}()
	return s.delete(app, icon)
}

// Any composes strategies into an ordered fallback chain. Strategies are
// tried left to right; evaluation stops at the first success.
func Any(name string, strategies ...Strategy) Strategy {
	return NewStrategy(name, func(app core.Application, icon core.Element) bool {
		for _, s := range strategies {
			if s.Delete(app, icon) {
				logger.Debug("strategy %s succeeded", s.Name())
				return true
			}
			logger.Debug("strategy %s did not apply", s.Name())
		}
		return false
	})
}

// Default tries the newest OS generation first.
func Default(timeout time.Duration) Strategy {
	return Any("default", IOS14(timeout), IOS13(timeout), IOS12())
}

// IOS14 taps "Remove App" and then accepts the second "Delete" dialog.
func IOS14(timeout time.Duration) Strategy {
	return NewStrategy("ios14", func(app core.Application, _ core.Element) bool {
		if !tapWhenAvailable(app.Button(RemoveAppLabel), timeout) {
			return false
		}

		// iOS 14 shows two confirmation dialogs.
		confirmation := FindAlertButton(app, "delete")
		if confirmation == nil {
			return false
		}
		return tapWhenAvailable(confirmation, timeout)
	})
}

// IOS13 taps "Delete App"; the flow's own confirmation step handles the dialog.
func IOS13(timeout time.Duration) Strategy {
	return NewStrategy("ios13", func(app core.Application, _ core.Element) bool {
		return tapWhenAvailable(app.Button(DeleteAppLabel), timeout)
	})
}

// IOS12 taps the delete badge just inside the icon's top-left corner.
// There is no control to check for, so it always reports success and
// leaves detection to the confirmation step.
func IOS12() Strategy {
	return NewStrategy("ios12", func(app core.Application, icon core.Element) bool {
		offset := CornerOffset(icon.Frame(), app.Frame())
		if err := app.TapNormalized(offset); err != nil {
			logger.Warn("corner tap at (%.4f, %.4f) failed: %v", offset.DX, offset.DY, err)
		}
		return true
	})
}

// CornerOffset returns the normalized position of the iOS 12 delete badge
// for an icon inside the application frame.
func CornerOffset(iconFrame, appFrame core.Rect) core.Vector {
	return core.Vector{
		DX: (iconFrame.MinX() + cornerInset) / appFrame.MaxX(),
		DY: (iconFrame.MinY() + cornerInset) / appFrame.MaxY(),
	}
}

// tapWhenAvailable waits for the element to exist and be hittable, then taps it.
func tapWhenAvailable(elem core.Element, timeout time.Duration) bool {
	if !available(elem, timeout) {
		return false
	}
	if err := elem.Tap(); err != nil {
		logger.Warn("tap on %q failed: %v", elem.Label(), err)
		return false
	}
	return true
}

func available(elem core.Element, timeout time.Duration) bool {
	return elem.WaitForExistence(timeout) && elem.IsHittable()
}

// registry maps strategy names to constructors, in priority order.
var registry = map[string]struct {
	priority int
	build    func(timeout time.Duration) Strategy
}{
	"default": {0, Default},
	"ios14":   {1, IOS14},
	"ios13":   {2, IOS13},
	"ios12":   {3, func(time.Duration) Strategy { return IOS12() }},
}

// Lookup resolves a strategy by name (case-insensitive).
func Lookup(name string, timeout time.Duration) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "default"
	}
	entry, ok := registry[key]
	if !ok {
		return Strategy{}, core.ErrUnknownStrategy.
			WithMessage(fmt.Sprintf("unknown deletion strategy %q (available: %s)", name, strings.Join(Names(), ", "))).
			WithDetails(map[string]interface{}{"strategy": name})
	}
	return entry.build(timeout), nil
}

// Names lists the registered strategies in priority order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return registry[names[i]].priority < registry[names[j]].priority
	})
	return names
}
