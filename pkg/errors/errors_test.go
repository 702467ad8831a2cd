package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"forbidden", Forbidden("not your booking"), CodeForbidden, http.StatusForbidden},
		{"invalid state", InvalidState("booking is not pending"), CodeInvalidState, http.StatusConflict},
		{"slot unavailable", SlotUnavailable("slot taken"), CodeSlotUnavailable, http.StatusConflict},
		{"duplicate booking", DuplicateBooking("already booked"), CodeDuplicateBooking, http.StatusConflict},
		{"inconsistency", Inconsistency("release failed", nil, nil), CodeInconsistency, http.StatusInternalServerError},
		{"invalid input", InvalidInput("bad date"), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("invalid body", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Mongo"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Slot"),
			expected: "NOT_FOUND: Slot not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("internal error", errors.New("connection reset")),
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Challenge", "abc")

	if err.Details["id"] != "abc" {
		t.Errorf("expected id 'abc', got %v", err.Details["id"])
	}
	if err.Details["resource"] != "Challenge" {
		t.Errorf("expected resource 'Challenge', got %v", err.Details["resource"])
	}
}

func TestInconsistency_CarriesIdentifiers(t *testing.T) {
	cause := errors.New("write timeout")
	err := Inconsistency("slot release failed", map[string]any{
		"slot_id":    "s1",
		"booking_id": "b1",
	}, cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected inconsistency to unwrap to its cause")
	}
	if err.Details["slot_id"] != "s1" || err.Details["booking_id"] != "b1" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Forbidden("no")
	wrapped := fmt.Errorf("engine: %w", appErr)
	regularErr := errors.New("regular error")

	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should find AppError through wrapping")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestIsAppErrorAndHasCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", SlotUnavailable("taken"))

	if !IsAppError(err) {
		t.Errorf("IsAppError() should return true for wrapped AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
	if !HasCode(err, CodeSlotUnavailable) {
		t.Errorf("HasCode() should match SLOT_UNAVAILABLE")
	}
	if HasCode(err, CodeNotFound) {
		t.Errorf("HasCode() should not match NOT_FOUND")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(DuplicateBooking("already booked").ToJSON())

	if !strings.Contains(body, CodeDuplicateBooking) {
		t.Errorf("ToJSON() should contain error code, got %s", body)
	}
	if !strings.Contains(body, "already booked") {
		t.Errorf("ToJSON() should contain error message, got %s", body)
	}
}
