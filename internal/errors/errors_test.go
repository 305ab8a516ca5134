package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ConfigInvalid, "invalid config", cause)

	if err.Code != ConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ConfigInvalid)
	}
	if err.Message != "invalid config" {
		t.Errorf("Message = %q, want %q", err.Message, "invalid config")
	}
	if len(err.SuggestedFixes) != 1 || err.SuggestedFixes[0].Type != EditFile {
		t.Errorf("expected default edit-file fix, got %+v", err.SuggestedFixes)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      FileUnreadable,
			message:   "cannot read auth.req",
			cause:     errors.New("permission denied"),
			wantParts: []string{"FILE_UNREADABLE", "cannot read auth.req", "permission denied"},
		},
		{
			name:      "without cause",
			code:      SymbolNotFound,
			message:   "Symbol 'foo' not found",
			cause:     nil,
			wantParts: []string{"SYMBOL_NOT_FOUND", "Symbol 'foo' not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if Newf(ProtocolError, "bad frame %d", 3).Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading workspace: %w", Newf(WorkspaceNotFound, "no such directory"))
	if got := CodeOf(wrapped); got != WorkspaceNotFound {
		t.Errorf("CodeOf() = %v, want %v", got, WorkspaceNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf() = %v, want %v", got, InternalError)
	}
	if !HasCode(wrapped, WorkspaceNotFound) || HasCode(nil, WorkspaceNotFound) {
		t.Error("HasCode mismatch")
	}
}

func TestWithDetails(t *testing.T) {
	err := Newf(SymbolNotFound, "missing").WithDetails(map[string]string{"path": "auth"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["path"] != "auth" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(SymbolNotFound); len(fixes) != 1 || fixes[0].Command != "reqls symbols" {
		t.Errorf("unexpected fixes %+v", fixes)
	}
	if GetSuggestedFixes(InternalError) != nil {
		t.Error("expected no fixes for internal errors")
	}
}
