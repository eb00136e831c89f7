package mcp

import "fmt"

// ErrorCode classifies a tool failure for the calling assistant.
type ErrorCode string

const (
	ErrProtocolNotFound ErrorCode = "PROTOCOL_NOT_FOUND"
	ErrTriggerNotFound  ErrorCode = "TRIGGER_NOT_FOUND"
	ErrInvalidPath      ErrorCode = "INVALID_PATH"
	ErrIndexError       ErrorCode = "INDEX_ERROR"
	ErrUnknownTool      ErrorCode = "UNKNOWN_TOOL"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// ProtocolError is a structured, recoverable tool failure. It is always
// rendered into the tool result payload, never allowed to crash the server.
type ProtocolError struct {
	Code    ErrorCode
	Message string
	Details string
}

func (e *ProtocolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Error [%s]: %s\n%s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("Error [%s]: %s", e.Code, e.Message)
}

func newProtocolError(code ErrorCode, format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// wrapInternal converts an unexpected failure into the catch-all code while
// preserving the inner message.
func wrapInternal(err error) *ProtocolError {
	return &ProtocolError{Code: ErrInternal, Message: err.Error()}
}
