package report

import (
	"sync"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// Failure is a single reported failure.
type Failure struct {
	Device   string        `json:"device,omitempty"`
	Message  string        `json:"message"`
	Location core.Location `json:"location"`
	Time     time.Time     `json:"time"`
}

// Recorder collects failures. It is safe for concurrent use.
type Recorder struct {
	device   string
	mu       sync.Mutex
	failures []Failure
}

// NewRecorder creates a recorder that tags failures with a device name.
func NewRecorder(device string) *Recorder {
	return &Recorder{device: device}
}

// Fail implements core.Reporter.
func (r *Recorder) Fail(message string, loc core.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{
		Device:   r.device,
		Message:  message,
		Location: loc,
		Time:     time.Now(),
	})
}

// Failures returns a copy of the recorded failures.
func (r *Recorder) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Count returns the number of recorded failures.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}
