package report

import (
	"sync"
	"testing"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

func TestRecorderFail(t *testing.T) {
	r := NewRecorder("iPhone 15")
	r.Fail("Failed to confirm the delete.", core.Location{File: "cleanup_test.go", Line: 12})

	failures := r.Failures()
	if len(failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failures))
	}
	f := failures[0]
	if f.Device != "iPhone 15" {
		t.Errorf("Expected device 'iPhone 15', got '%s'", f.Device)
	}
	if f.Message != "Failed to confirm the delete." {
		t.Errorf("Unexpected message: %s", f.Message)
	}
	if f.Location.Line != 12 || f.Location.File != "cleanup_test.go" {
		t.Errorf("Unexpected location: %+v", f.Location)
	}
	if f.Time.IsZero() {
		t.Error("Expected failure time to be set")
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder("")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			r.Fail("boom", core.Location{File: "x.go", Line: line})
		}(i)
	}
	wg.Wait()

	if r.Count() != 20 {
		t.Errorf("Expected 20 failures, got %d", r.Count())
	}
}
