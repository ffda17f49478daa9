package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidInterval = "INVALID_INTERVAL"
	ErrCodeHierarchy       = "HIERARCHY_ERROR"
	ErrCodeDuplicateID     = "DUPLICATE_ID"
	ErrCodeQuery           = "QUERY_ERROR"
	ErrCodeExport          = "EXPORT_ERROR"
	ErrCodeIO              = "IO_ERROR"
)

// TraceError is the structured error type for all runtrace operations.
type TraceError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *TraceError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TraceError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TraceError.
func NewError(code, message string) *TraceError {
	return &TraceError{Code: code, Message: message}
}

// NewErrorf creates a new TraceError with a formatted message.
func NewErrorf(code, format string, args ...any) *TraceError {
	return &TraceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *TraceError) WithNode(nodeID string) *TraceError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *TraceError) WithCause(err error) *TraceError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *TraceError) WithDetails(details map[string]any) *TraceError {
	e.Details = details
	return e
}
