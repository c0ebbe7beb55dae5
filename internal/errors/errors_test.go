package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCuratrError_Error(t *testing.T) {
	err := &CuratrError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "recipient not found",
	}

	expected := "NOT_FOUND: recipient not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("name is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "name is required" {
		t.Errorf("Message = %q, want %q", err.Message, "name is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("recipient", "01ABC")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01ABC" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01ABC")
	}
	if err.Details["kind"] != "recipient" {
		t.Errorf("Details[kind] = %v, want %q", err.Details["kind"], "recipient")
	}
}

func TestNewAlreadySaved(t *testing.T) {
	err := NewAlreadySaved(3, "r1")

	if err.Code != ErrConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrConflict)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["item_id"] != 3 {
		t.Errorf("Details[item_id] = %v, want 3", err.Details["item_id"])
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageUnavailable(cause)

	if err.Code != ErrStorageUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}

func TestNewInternal(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"with error", fmt.Errorf("boom"), "boom"},
		{"nil error", nil, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewInternal(tt.err)
			if got.Code != ErrInternal {
				t.Errorf("Code = %q, want %q", got.Code, ErrInternal)
			}
			if got.Status != 500 {
				t.Errorf("Status = %d, want 500", got.Status)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("item", "1"), ErrNotFound, true},
		{"different code", NewNotFound("item", "1"), ErrConflict, false},
		{"wrapped", fmt.Errorf("ctx: %w", NewConflict("dup")), ErrConflict, true},
		{"plain error", fmt.Errorf("plain"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	orig := NewInvalidRequest("bad")
	if got := As(fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("As() = %v, want original error", got)
	}

	got := As(fmt.Errorf("plain"))
	if got.Code != ErrInternal {
		t.Errorf("As(plain).Code = %q, want %q", got.Code, ErrInternal)
	}
}
