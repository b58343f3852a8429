// Package jsengine runs user-supplied JavaScript deletion strategies.
package jsengine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/springboard-runner/pkg/logger"
)

// Engine wraps a goja runtime with the builtins scripts can rely on.
// A runtime is not safe for concurrent use, so every script run gets its
// own Engine.
type Engine struct {
	runtime *goja.Runtime
	name    string
	mu      sync.Mutex
}

// New creates a new JS engine instance. name tags console output.
func New(name string) *Engine {
	e := &Engine{
		runtime: goja.New(),
		name:    name,
	}
	e.runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	e.setupConsole()
	return e
}

// setupConsole adds console.log, console.error, etc.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = fmt.Sprintf("%v", arg.Export())
			}
			log("[%s] %s", e.name, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("debug", makeConsoleFunc(logger.Debug))
	console.Set("error", makeConsoleFunc(logger.Error))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	e.runtime.Set("console", console)
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Set(name, value)
}

// Run executes a compiled program and returns its completion value. The
// run is interrupted if it goes past deadline; zero means no deadline.
func (e *Engine) Run(program *goja.Program, deadline time.Duration) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.interruptAfter(deadline)()

	result, err := e.runtime.RunProgram(program)
	if err != nil {
		return nil, fmt.Errorf("JS runtime error: %w", err)
	}
	return result, nil
}

// Function returns a global function by name.
func (e *Engine) Function(name string) (goja.Callable, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return goja.AssertFunction(e.runtime.Get(name))
}

// Call invokes fn and converts its result to a boolean. The call is
// interrupted if it runs past deadline.
func (e *Engine) Call(fn goja.Callable, deadline time.Duration, args ...interface{}) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer e.interruptAfter(deadline)()

	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = e.runtime.ToValue(arg)
	}
	result, err := fn(goja.Undefined(), values...)
	if err != nil {
		return false, fmt.Errorf("JS runtime error: %w", err)
	}
	return result.ToBoolean(), nil
}

// interruptAfter arms an interrupt for deadline and returns the func that
// disarms it. The interrupt flag is cleared so the runtime stays usable.
func (e *Engine) interruptAfter(deadline time.Duration) func() {
	if deadline <= 0 {
		return func() {}
	}
	timer := time.AfterFunc(deadline, func() {
		e.runtime.Interrupt(fmt.Sprintf("script exceeded %s", deadline))
	})
	return func() {
		timer.Stop()
		e.runtime.ClearInterrupt()
	}
}

// NewObject creates an empty JS object bound to this engine.
func (e *Engine) NewObject() *goja.Object {
	return e.runtime.NewObject()
}

// Null returns the JS null value.
func (e *Engine) Null() goja.Value {
	return goja.Null()
}
