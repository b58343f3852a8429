package jsengine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
	"github.com/devicelab-dev/springboard-runner/pkg/springboard"
)

// EntryPoint is the function a strategy script must define. It receives
// the app and icon bindings and returns true once a confirmation control
// is reachable.
const EntryPoint = "deleteApp"

// RunDeadline bounds a single script invocation: the top-level code and
// the deleteApp call each get this long.
const RunDeadline = 2 * time.Minute

var runDeadline = RunDeadline

// LoadStrategy reads a strategy script from disk. The strategy is named
// after the file.
func LoadStrategy(path string, timeout time.Duration) (springboard.Strategy, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return springboard.Strategy{}, core.ErrInvalidScript.
			WithMessage(fmt.Sprintf("cannot read script %s", path)).
			WithCause(err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewStrategy("script:"+name, string(source), timeout)
}

// NewStrategy compiles source into a deletion strategy. The script is
// compiled and its top level evaluated once up front so that syntax
// errors and a missing deleteApp surface before any device is touched.
func NewStrategy(name, source string, timeout time.Duration) (springboard.Strategy, error) {
	program, err := goja.Compile(name, source, false)
	if err != nil {
		return springboard.Strategy{}, core.ErrInvalidScript.
			WithMessage(fmt.Sprintf("script %s does not compile", name)).
			WithCause(err)
	}

	probe := New(name)
	probe.SetVariable("timeout", timeout.Seconds())
	if _, err := probe.Run(program, runDeadline); err != nil {
		return springboard.Strategy{}, core.ErrInvalidScript.
			WithMessage(fmt.Sprintf("script %s failed to load", name)).
			WithCause(err)
	}
	if _, ok := probe.Function(EntryPoint); !ok {
		return springboard.Strategy{}, core.ErrInvalidScript.
			WithMessage(fmt.Sprintf("script %s does not define %s(app, icon)", name, EntryPoint))
	}

	s := &script{name: name, program: program, timeout: timeout}
	return springboard.NewStrategy(name, s.delete), nil
}

type script struct {
	name    string
	program *goja.Program
	timeout time.Duration
}

func (s *script) delete(app core.Application, icon core.Element) bool {
	e := New(s.name)
	b := &bindings{engine: e, app: app, icon: icon, timeout: s.timeout}
	e.SetVariable("timeout", s.timeout.Seconds())
	e.SetVariable("strategies", b.strategies())

	if _, err := e.Run(s.program, runDeadline); err != nil {
		logger.Error("strategy %s: %v", s.name, err)
		return false
	}
	fn, ok := e.Function(EntryPoint)
	if !ok {
		logger.Error("strategy %s: %s is not a function", s.name, EntryPoint)
		return false
	}

	ok, err := e.Call(fn, runDeadline, b.application(), b.element(icon))
	if err != nil {
		logger.Error("strategy %s: %v", s.name, err)
		return false
	}
	return ok
}

// bindings exposes the driver to a single script invocation.
type bindings struct {
	engine  *Engine
	app     core.Application
	icon    core.Element
	timeout time.Duration
}

func (b *bindings) application() *goja.Object {
	obj := b.engine.NewObject()
	obj.Set("icon", func(name string) *goja.Object {
		return b.element(b.app.Icon(name))
	})
	obj.Set("button", func(label string) *goja.Object {
		return b.element(b.app.Button(label))
	})
	obj.Set("alertButtons", func() []interface{} {
		out := []interface{}{}
		for _, button := range b.app.AlertButtons() {
			out = append(out, b.element(button))
		}
		return out
	})
	// alertButton(substr) returns null when no alert button matches.
	obj.Set("alertButton", func(substr string) goja.Value {
		button := springboard.FindAlertButton(b.app, substr)
		if button == nil {
			return b.engine.Null()
		}
		return b.element(button)
	})
	obj.Set("frame", func() core.Rect {
		return b.app.Frame()
	})
	obj.Set("tapNormalized", func(dx, dy float64) bool {
		if err := b.app.TapNormalized(core.Vector{DX: dx, DY: dy}); err != nil {
			logger.Warn("tapNormalized(%.4f, %.4f) failed: %v", dx, dy, err)
			return false
		}
		return true
	})
	return obj
}

func (b *bindings) element(el core.Element) *goja.Object {
	obj := b.engine.NewObject()
	// waitForExistence([seconds]) defaults to the configured timeout.
	obj.Set("waitForExistence", func(call goja.FunctionCall) goja.Value {
		wait := b.timeout
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			wait = seconds(arg.ToFloat())
		}
		return b.engine.runtime.ToValue(el.WaitForExistence(wait))
	})
	obj.Set("isHittable", el.IsHittable)
	obj.Set("tap", func() bool {
		if err := el.Tap(); err != nil {
			logger.Warn("script tap failed: %v", err)
			return false
		}
		return true
	})
	obj.Set("press", func(secs float64) bool {
		if err := el.Press(seconds(secs)); err != nil {
			logger.Warn("script press failed: %v", err)
			return false
		}
		return true
	})
	obj.Set("label", el.Label)
	obj.Set("frame", el.Frame)
	return obj
}

// strategies lets a script delegate to a built-in strategy, e.g.
// strategies.run("ios13").
func (b *bindings) strategies() *goja.Object {
	obj := b.engine.NewObject()
	obj.Set("names", springboard.Names)
	obj.Set("run", func(name string) bool {
		s, err := springboard.Lookup(name, b.timeout)
		if err != nil {
			logger.Warn("script asked for %v", err)
			return false
		}
		return s.Delete(b.app, b.icon)
	})
	return obj
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
