package jsengine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/driver/mock"
	"github.com/devicelab-dev/springboard-runner/pkg/report/reporttest"
	"github.com/devicelab-dev/springboard-runner/pkg/springboard"
)

const testTimeout = 2 * time.Second

func newSpringboard() (*mock.Application, *mock.Element) {
	app := mock.New(core.Rect{Width: 300, Height: 600})
	icon := app.AddIcon("Maps", core.Rect{X: 10, Y: 20, Width: 60, Height: 60})
	return app, icon
}

func mustStrategy(t *testing.T, source string) springboard.Strategy {
	t.Helper()
	s, err := NewStrategy("test", source, testTimeout)
	if err != nil {
		t.Fatalf("NewStrategy failed: %v", err)
	}
	return s
}

func TestNewStrategySyntaxError(t *testing.T) {
	_, err := NewStrategy("broken", "function deleteApp(app, icon) {", testTimeout)
	if !errors.Is(err, core.ErrInvalidScript) {
		t.Errorf("Expected ErrInvalidScript, got %v", err)
	}
}

func TestNewStrategyMissingEntryPoint(t *testing.T) {
	_, err := NewStrategy("empty", "var x = 1;", testTimeout)
	if !errors.Is(err, core.ErrInvalidScript) {
		t.Fatalf("Expected ErrInvalidScript, got %v", err)
	}
	if !strings.Contains(err.Error(), EntryPoint) {
		t.Errorf("Expected error to name %s, got %v", EntryPoint, err)
	}
}

func TestNewStrategyTopLevelThrows(t *testing.T) {
	_, err := NewStrategy("throws", "throw new Error('nope'); function deleteApp() {}", testTimeout)
	if !errors.Is(err, core.ErrInvalidScript) {
		t.Errorf("Expected ErrInvalidScript, got %v", err)
	}
}

// shortDeadline lowers the script deadline for the duration of a test.
func shortDeadline(t *testing.T, d time.Duration) {
	t.Helper()
	old := runDeadline
	runDeadline = d
	t.Cleanup(func() { runDeadline = old })
}

func TestNewStrategyTopLevelLoopInterrupted(t *testing.T) {
	shortDeadline(t, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := NewStrategy("loop", "while (true) {}\nfunction deleteApp(app, icon) { return true }", testTimeout)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, core.ErrInvalidScript) {
			t.Errorf("Expected ErrInvalidScript, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected top-level loop to be interrupted")
	}
}

func TestScriptLoopIsFalse(t *testing.T) {
	app, icon := newSpringboard()
	s := mustStrategy(t, "function deleteApp(app, icon) { for (;;) {} }")
	shortDeadline(t, 50*time.Millisecond)

	start := time.Now()
	if s.Delete(app, icon) {
		t.Error("Expected interrupted script to report false")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected interrupt near the deadline, took %s", elapsed)
	}
}

func TestScriptTapsButton(t *testing.T) {
	app, icon := newSpringboard()
	remove := app.AddButton("Remove App")

	s := mustStrategy(t, `
		function deleteApp(app, icon) {
			const b = app.button("Remove App");
			return b.waitForExistence() && b.isHittable() && b.tap();
		}
	`)
	if s.Name() != "test" {
		t.Errorf("Expected name 'test', got '%s'", s.Name())
	}
	if !s.Delete(app, icon) {
		t.Fatal("Expected script strategy to succeed")
	}
	if remove.Taps != 1 {
		t.Errorf("Expected one tap, got %d", remove.Taps)
	}
	if len(remove.Waits) != 1 || remove.Waits[0] != testTimeout {
		t.Errorf("Expected wait with default timeout, got %v", remove.Waits)
	}
}

func TestScriptWaitSeconds(t *testing.T) {
	app, icon := newSpringboard()
	button := app.AddButton("Delete App")

	s := mustStrategy(t, `function deleteApp(app) { return app.button("Delete App").waitForExistence(0.5) }`)
	if !s.Delete(app, icon) {
		t.Fatal("Expected script strategy to succeed")
	}
	if len(button.Waits) != 1 || button.Waits[0] != 500*time.Millisecond {
		t.Errorf("Expected 500ms wait, got %v", button.Waits)
	}
}

func TestScriptAlertButton(t *testing.T) {
	app, icon := newSpringboard()
	app.AddAlertButton("Cancel")
	confirm := app.AddAlertButton("Delete App")

	s := mustStrategy(t, `
		function deleteApp(app) {
			const none = app.alertButton("reinstall");
			if (none !== null) return false;
			const labels = app.alertButtons().map(b => b.label());
			if (labels.join(",") !== "Cancel,Delete App") return false;
			return app.alertButton("DELETE").tap();
		}
	`)
	if !s.Delete(app, icon) {
		t.Fatal("Expected script strategy to succeed")
	}
	if confirm.Taps != 1 {
		t.Errorf("Expected confirm tapped once, got %d", confirm.Taps)
	}
}

func TestScriptCornerTap(t *testing.T) {
	app, icon := newSpringboard()

	s := mustStrategy(t, `
		function deleteApp(app, icon) {
			const f = icon.frame(), screen = app.frame();
			return app.tapNormalized((f.x + 3) / screen.width, (f.y + 3) / screen.height);
		}
	`)
	if !s.Delete(app, icon) {
		t.Fatal("Expected script strategy to succeed")
	}
	want := springboard.CornerOffset(icon.Rect, app.Rect)
	if len(app.NormalizedTaps) != 1 || app.NormalizedTaps[0] != want {
		t.Errorf("Expected tap at %+v, got %v", want, app.NormalizedTaps)
	}
}

func TestScriptPress(t *testing.T) {
	app, icon := newSpringboard()

	s := mustStrategy(t, `function deleteApp(app, icon) { return icon.press(1.5) }`)
	if !s.Delete(app, icon) {
		t.Fatal("Expected script strategy to succeed")
	}
	if len(icon.Presses) != 1 || icon.Presses[0] != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s press, got %v", icon.Presses)
	}
}

func TestScriptTapErrorIsFalse(t *testing.T) {
	app, icon := newSpringboard()
	button := app.AddButton("Remove App")
	button.TapErr = errors.New("stale element")

	s := mustStrategy(t, `function deleteApp(app) { return app.button("Remove App").tap() }`)
	if s.Delete(app, icon) {
		t.Error("Expected tap error to surface as false")
	}
}

func TestScriptThrowIsFalse(t *testing.T) {
	app, icon := newSpringboard()

	s := mustStrategy(t, `function deleteApp() { throw new Error("unexpected dialog") }`)
	if s.Delete(app, icon) {
		t.Error("Expected exception to surface as false")
	}
}

func TestScriptDelegatesToBuiltin(t *testing.T) {
	app, icon := newSpringboard()
	button := app.AddButton(springboard.DeleteAppLabel)

	s := mustStrategy(t, `
		function deleteApp() {
			if (!strategies.names().includes("ios13")) return false;
			return strategies.run("nonsense") || strategies.run("ios13");
		}
	`)
	if !s.Delete(app, icon) {
		t.Fatal("Expected delegated strategy to succeed")
	}
	if button.Taps != 1 {
		t.Errorf("Expected Delete App tapped once, got %d", button.Taps)
	}
}

func TestScriptTimeoutGlobal(t *testing.T) {
	app, icon := newSpringboard()

	s := mustStrategy(t, `function deleteApp() { return timeout === 2 }`)
	if !s.Delete(app, icon) {
		t.Error("Expected timeout global in seconds")
	}
}

func TestScriptInDeleter(t *testing.T) {
	app, _ := newSpringboard()
	remove := app.AddButton("Remove App")
	confirm := app.AddAlertButton("Delete")
	confirm.Exists = false
	remove.OnTap = func() { confirm.Exists = true }

	s := mustStrategy(t, `function deleteApp(app) { return app.button("Remove App").tap() }`)
	deleter := springboard.NewDeleter(app, mock.NewDevice(app), reporttest.ForTest(t), springboard.Options{Timeout: testTimeout})

	result := deleter.DeleteApp("Maps", springboard.Using(s), springboard.Required())
	if result.Status != core.StatusDeleted {
		t.Fatalf("Expected deleted, got %s", result.Status)
	}
	if result.Strategy != "test" {
		t.Errorf("Expected strategy 'test' on result, got '%s'", result.Strategy)
	}
	want := []string{"press:Maps", "tap:Remove App", "tap:Delete", "home"}
	if got := app.Events(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected events %v, got %v", want, got)
	}
}

func TestLoadStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ios15.js")
	if err := os.WriteFile(path, []byte(`function deleteApp() { return true }`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadStrategy(path, testTimeout)
	if err != nil {
		t.Fatalf("LoadStrategy failed: %v", err)
	}
	if s.Name() != "script:ios15" {
		t.Errorf("Expected name 'script:ios15', got '%s'", s.Name())
	}
}

func TestLoadStrategyMissingFile(t *testing.T) {
	_, err := LoadStrategy(filepath.Join(t.TempDir(), "missing.js"), testTimeout)
	if !errors.Is(err, core.ErrInvalidScript) {
		t.Errorf("Expected ErrInvalidScript, got %v", err)
	}
}
