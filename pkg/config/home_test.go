package config

import (
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_Fallback(t *testing.T) {
	ResetHome()
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "")

	// Binary-relative, user home or cwd; never empty.
	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "/first")

	first := GetHome()

	// Change env; should NOT affect cached value
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetLocksDir(t *testing.T) {
	ResetHome()
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "/test/home")

	got := GetLocksDir()
	want := filepath.Join("/test/home", "locks")
	if got != want {
		t.Errorf("GetLocksDir() = %q, want %q", got, want)
	}
}

func TestGetReportsDir(t *testing.T) {
	ResetHome()
	t.Setenv("SPRINGBOARD_RUNNER_HOME", "/test/home")

	got := GetReportsDir()
	want := filepath.Join("/test/home", "reports")
	if got != want {
		t.Errorf("GetReportsDir() = %q, want %q", got, want)
	}
}
