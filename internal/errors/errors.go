package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for host-level failures
type ErrorCode string

const (
	// ConfigInvalid indicates .reqls/config.json could not be loaded or validated
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// WorkspaceNotFound indicates the workspace root does not exist
	WorkspaceNotFound ErrorCode = "WORKSPACE_NOT_FOUND"
	// FileUnreadable indicates a requirement document could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// ProtocolError indicates a malformed protocol message
	ProtocolError ErrorCode = "PROTOCOL_ERROR"
	// SymbolNotFound indicates no symbol is declared at a path
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error is a reqls error with a stable code
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates an Error with the default fixes for code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates an Error without a cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// HasCode reports whether err carries code
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{
			Type:        EditFile,
			Path:        ".reqls/config.json",
			Description: "Fix or remove the workspace configuration",
		},
	},
	WorkspaceNotFound: {
		{
			Type:        RunCommand,
			Command:     "reqls check <workspace-root>",
			Description: "Point reqls at an existing directory",
		},
	},
	SymbolNotFound: {
		{
			Type:        RunCommand,
			Command:     "reqls symbols",
			Description: "List the declared symbol paths",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
