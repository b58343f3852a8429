// Package report collects deletion failures and writes the JSON run summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the overall run status.
type Status string

// Status values.
const (
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Summary is the report file written at the end of a run.
type Summary struct {
	Version   string            `json:"version"`
	RunID     string            `json:"runId"`
	Status    Status            `json:"status"`
	StartTime time.Time         `json:"startTime"`
	EndTime   *time.Time        `json:"endTime,omitempty"`
	Devices   []core.RunSummary `json:"devices"`
	Failures  []Failure         `json:"failures"`

	mu sync.Mutex
}

// NewSummary starts a run summary with a fresh run ID.
func NewSummary() *Summary {
	return &Summary{
		Version:   Version,
		RunID:     uuid.NewString(),
		Status:    StatusRunning,
		StartTime: time.Now(),
		Failures:  []Failure{},
	}
}

// AddDevice records one device's results and failures.
func (s *Summary) AddDevice(run core.RunSummary, failures []Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Devices = append(s.Devices, run)
	s.Failures = append(s.Failures, failures...)
}

// Finish stamps the end time and computes the status.
func (s *Summary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := time.Now()
	s.EndTime = &end
	s.Status = StatusPassed
	if len(s.Failures) > 0 {
		s.Status = StatusFailed
	}
	for _, d := range s.Devices {
		if !d.Passed() {
			s.Status = StatusFailed
		}
	}
}

// WriteFile writes the summary as indented JSON.
func (s *Summary) WriteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return atomicWriteJSON(path, s)
}

// ReadFile loads a summary written by WriteFile.
func ReadFile(path string) (*Summary, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided report path
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &s, nil
}

// atomicWriteJSON writes to a temp file in the same directory and renames it.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
