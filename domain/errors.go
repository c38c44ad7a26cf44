package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeFileNotFound          = "FILE_NOT_FOUND"
	ErrCodeConfigError           = "CONFIG_ERROR"
	ErrCodeOutputError           = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	ErrCodeToolExecution         = "TOOL_EXECUTION_ERROR"
	ErrCodePathResolution        = "PATH_RESOLUTION_ERROR"
	ErrCodeMalformedHistory      = "MALFORMED_HISTORY_RECORD"
	ErrCodeMissingMandatoryInput = "MISSING_MANDATORY_INPUT"
	ErrCodeAdapterError          = "ADAPTER_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewToolExecutionError is raised when an external tool cannot be spawned
// or its wait is interrupted. Fatal to the tool's work unit.
func NewToolExecutionError(tool string, cause error) error {
	return NewDomainError(ErrCodeToolExecution, fmt.Sprintf("failed to execute %s", tool), cause)
}

// NewPathResolutionError is raised when a tool-reported path cannot be
// mapped onto the source inventory. Recoverable: the finding is dropped.
func NewPathResolutionError(path string, cause error) error {
	return NewDomainError(ErrCodePathResolution, fmt.Sprintf("cannot resolve path %q", path), cause)
}

// NewMalformedHistoryRecordError describes one unreadable ledger line.
func NewMalformedHistoryRecordError(file string, line int, cause error) error {
	return NewDomainError(ErrCodeMalformedHistory, fmt.Sprintf("%s:%d: malformed history record", file, line), cause)
}

// NewMissingMandatoryInputError aborts a run before any tool executes.
func NewMissingMandatoryInputError(message string) error {
	return NewDomainError(ErrCodeMissingMandatoryInput, message, nil)
}

// NewAdapterError wraps a result file that does not match the schema the
// adapter expects (usually a tool version mismatch).
func NewAdapterError(source Source, path string, cause error) error {
	return NewDomainError(ErrCodeAdapterError, fmt.Sprintf("%s results %s could not be read", source, path), cause)
}

// IsCode reports whether err (or anything it wraps) is a DomainError with code.
func IsCode(err error, code string) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
