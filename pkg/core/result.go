package core

import (
	"time"
)

// DeletionResult captures the outcome of deleting a single app
type DeletionResult struct {
	// Identity
	App      string `json:"app"`
	Strategy string `json:"strategy"`

	// Status
	Status DeletionStatus  `json:"status"`
	Error  *ExecutionError `json:"-"`

	// Attribution
	Location Location `json:"location"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
}

// Message returns the reported failure text, or "" on success.
func (r *DeletionResult) Message() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// ErrorCode returns the machine-readable failure code, or "" on success.
func (r *DeletionResult) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// RunSummary aggregates deletion results for one device.
type RunSummary struct {
	Device  string           `json:"device"`
	Results []DeletionResult `json:"results"`

	Total   int `json:"total"`
	Deleted int `json:"deleted"`
	Absent  int `json:"absent"`
	Failed  int `json:"failed"`
}

// Add appends a result and updates the counters.
func (s *RunSummary) Add(r DeletionResult) {
	s.Results = append(s.Results, r)
	s.Total++
	switch r.Status {
	case StatusDeleted:
		s.Deleted++
	case StatusAbsent:
		s.Absent++
	case StatusFailed:
		s.Failed++
	}
}

// Passed returns true if no deletion failed.
func (s *RunSummary) Passed() bool {
	return s.Failed == 0
}
