package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "springboard.yaml", `
wda:
  - http://10.0.0.5:8100
  - http://10.0.0.6:8100
apps:
  - Maps
  - Notes
required: true
strategy: ios13
script: strategies/custom.js
timeout: 10s
pressDuration: 2s
pollInterval: 100ms
connectTimeout: 1m
report: out/summary.json
logFile: out/run.log
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.WDA) != 2 || cfg.WDA[1] != "http://10.0.0.6:8100" {
		t.Errorf("expected two WDA urls, got %v", cfg.WDA)
	}
	if len(cfg.Apps) != 2 || cfg.Apps[0] != "Maps" {
		t.Errorf("expected apps [Maps Notes], got %v", cfg.Apps)
	}
	if !cfg.Required {
		t.Error("expected required true")
	}
	if cfg.Strategy != "ios13" || cfg.Script != "strategies/custom.js" {
		t.Errorf("unexpected strategy/script: %q %q", cfg.Strategy, cfg.Script)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %s", cfg.Timeout)
	}
	if cfg.PressDuration != 2*time.Second {
		t.Errorf("expected pressDuration 2s, got %s", cfg.PressDuration)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("expected pollInterval 100ms, got %s", cfg.PollInterval)
	}
	if cfg.ConnectTimeout != time.Minute {
		t.Errorf("expected connectTimeout 1m, got %s", cfg.ConnectTimeout)
	}
	if cfg.Report != "out/summary.json" || cfg.LogFile != "out/run.log" {
		t.Errorf("unexpected output paths: %q %q", cfg.Report, cfg.LogFile)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/springboard.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "springboard.yaml", `wda: [invalid yaml`)

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "springboard.yaml", `timeout: soon`)

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "springboard.yaml", ``)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.WDA) != 0 {
		t.Errorf("expected empty wda, got %v", cfg.WDA)
	}
}

func TestLoadFromDir_Yaml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "springboard.yaml", `strategy: ios14`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Strategy != "ios14" {
		t.Errorf("expected strategy ios14, got %s", cfg.Strategy)
	}
}

func TestLoadFromDir_Yml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "springboard.yml", `strategy: ios12`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Strategy != "ios12" {
		t.Errorf("expected strategy ios12, got %s", cfg.Strategy)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return empty config
	if cfg.Strategy != "" || len(cfg.WDA) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "springboard.yaml", `strategy: ios14`)
	writeConfig(t, dir, "springboard.yml", `strategy: ios13`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer springboard.yaml
	if cfg.Strategy != "ios14" {
		t.Errorf("expected strategy ios14 (from springboard.yaml), got %s", cfg.Strategy)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if len(cfg.WDA) != 1 || cfg.WDA[0] != DefaultWDAURL {
		t.Errorf("expected default WDA url, got %v", cfg.WDA)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %s, got %s", DefaultTimeout, cfg.Timeout)
	}
	if cfg.PressDuration != 1500*time.Millisecond {
		t.Errorf("expected press 1.5s, got %s", cfg.PressDuration)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("expected poll %s, got %s", DefaultPollInterval, cfg.PollInterval)
	}
	if cfg.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("expected connect timeout %s, got %s", DefaultConnectTimeout, cfg.ConnectTimeout)
	}
}

func TestApplyDefaults_KeepsValues(t *testing.T) {
	cfg := &Config{WDA: []string{"http://device:8100"}, Timeout: time.Second}
	cfg.ApplyDefaults()

	if cfg.WDA[0] != "http://device:8100" || cfg.Timeout != time.Second {
		t.Errorf("expected explicit values kept, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{WDA: []string{"http://localhost:8100"}}, false},
		{"https", Config{WDA: []string{"https://farm.example.com/wda/1"}}, false},
		{"no scheme", Config{WDA: []string{"localhost:8100"}}, true},
		{"bad scheme", Config{WDA: []string{"ftp://localhost:8100"}}, true},
		{"no host", Config{WDA: []string{"http://"}}, true},
		{"negative timeout", Config{Timeout: -time.Second}, true},
		{"negative poll", Config{PollInterval: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
