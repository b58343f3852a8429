package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: icon_not_found, begin_deletion_failed, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code, so copies made by the With* helpers
// still compare equal to the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Deletion flow errors. Messages are the exact failure texts reported to the
// test framework.
var (
	ErrIconNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "icon_not_found",
		Message:  "application icon not found",
	}
	ErrBeginDeletion = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "begin_deletion_failed",
		Message:  "Failed to begin the deletion process.",
	}
	ErrDeleteButtonNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "delete_button_not_found",
		Message:  "Failed to find the delete button.",
	}
	ErrConfirmDelete = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "confirm_delete_failed",
		Message:  "Failed to confirm the delete.",
	}
)

// Infrastructure errors
var (
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to WebDriverAgent",
	}
	ErrSessionFailed = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "session_failed",
		Message:  "could not create WebDriverAgent session",
	}
	ErrDeviceBusy = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "device_busy",
		Message:  "device is in use by another run",
	}

	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrUnknownStrategy = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "unknown_strategy",
		Message:  "unknown deletion strategy",
	}
	ErrInvalidScript = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_script",
		Message:  "invalid strategy script",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
