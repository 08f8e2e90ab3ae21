// GO TESTING BASICS:
// 1. Test files MUST end in _test.go; Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Go's idiomatic pattern for testing multiple cases. Instead of one function
// per case, define a slice of cases and loop: adding a case is one struct,
// and every case gets a name in the test output.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("report", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("username", "sakif"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid username or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable("fetching raw content failed"),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("report", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrNotFound",
			err:       Unauthorized("wrong password"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

// errors.Is must still find the sentinel after the service layer wraps the
// error with fmt.Errorf("...: %w", err); that's the whole point of Unwrap.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := Unauthorized("wrong password")
	wrapped := fmt.Errorf("logging in: %w", inner)

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("errors.Is() should match ErrUnauthorized through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should extract *AppError through wrapping")
	}
	if appErr.Message != "wrong password" {
		t.Errorf("Message = %q, want %q", appErr.Message, "wrong password")
	}
}

func TestAppError_Error(t *testing.T) {
	err := ValidationFailed("password", "password must be at least 6 characters")
	if err.Error() != "password must be at least 6 characters" {
		t.Errorf("Error() = %q, want the human-readable message", err.Error())
	}
	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
}
