package core

import "fmt"

// DeletionStatus represents the outcome of one deleteApp call
type DeletionStatus int

const (
	StatusPending DeletionStatus = iota // Not yet started
	StatusDeleted                       // Icon removed and confirmed
	StatusAbsent                        // Icon not present and not required
	StatusFailed                        // A guarded step failed and was reported
)

// String returns the string representation of DeletionStatus
func (s DeletionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDeleted:
		return "deleted"
	case StatusAbsent:
		return "absent"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its name for JSON reports.
func (s DeletionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *DeletionStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []DeletionStatus{StatusPending, StatusDeleted, StatusAbsent, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown deletion status %q", text)
}

// IsSuccess returns true if the app is gone (deleted, or was never there)
func (s DeletionStatus) IsSuccess() bool {
	return s == StatusDeleted || s == StatusAbsent
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Icon, control or confirmation not found
	ErrCategoryConnection                      // WebDriverAgent unreachable, device busy
	ErrCategoryConfig                          // Invalid configuration, unknown strategy
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
