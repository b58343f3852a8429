package report

import (
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

func TestNewSummary(t *testing.T) {
	s := NewSummary()
	if s.RunID == "" {
		t.Error("Expected run ID")
	}
	if s.Status != StatusRunning {
		t.Errorf("Expected status running, got %s", s.Status)
	}
	if NewSummary().RunID == s.RunID {
		t.Error("Expected unique run IDs")
	}
}

func TestSummaryFinish(t *testing.T) {
	tests := []struct {
		name     string
		results  []core.DeletionResult
		failures []Failure
		want     Status
	}{
		{"all deleted", []core.DeletionResult{{App: "Maps", Status: core.StatusDeleted}}, nil, StatusPassed},
		{"absent is fine", []core.DeletionResult{{App: "Maps", Status: core.StatusAbsent}}, nil, StatusPassed},
		{"failed result", []core.DeletionResult{{App: "Maps", Status: core.StatusFailed}}, nil, StatusFailed},
		{"reported failure", nil, []Failure{{Message: "x"}}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummary()
			var run core.RunSummary
			for _, r := range tt.results {
				run.Add(r)
			}
			s.AddDevice(run, tt.failures)
			s.Finish()

			if s.Status != tt.want {
				t.Errorf("Status = %s, want %s", s.Status, tt.want)
			}
			if s.EndTime == nil {
				t.Error("Expected end time")
			}
		})
	}
}

func TestSummaryWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")

	s := NewSummary()
	run := core.RunSummary{Device: "http://localhost:8100"}
	run.Add(core.DeletionResult{App: "Maps", Status: core.StatusDeleted, Strategy: "default"})
	s.AddDevice(run, nil)
	s.Finish()

	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got.RunID != s.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, s.RunID)
	}
	if len(got.Devices) != 1 || got.Devices[0].Results[0].Status != core.StatusDeleted {
		t.Errorf("Unexpected devices: %+v", got.Devices)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
