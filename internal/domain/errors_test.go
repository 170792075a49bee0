package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrFaceNotFound,
			expected: "Face not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrFaceNotFound.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrStoreUnavailable.WithError(underlying)

	if newErr.Code != ErrStoreUnavailable.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrStoreUnavailable.Code)
	}

	if newErr.StatusCode != ErrStoreUnavailable.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrStoreUnavailable.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if ErrStoreUnavailable.Err != nil {
		t.Errorf("WithError must not mutate the predefined error")
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("gallery load: %w", ErrMalformedDescriptor.WithError(errors.New("bad float")))

	if !errors.Is(wrapped, ErrMalformedDescriptor) {
		t.Errorf("errors.Is should match copies with the same code")
	}

	if errors.Is(wrapped, ErrDimensionMismatch) {
		t.Errorf("errors.Is should not match a different code")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}
	if appErr.Code != "MALFORMED_DESCRIPTOR" {
		t.Errorf("Code = %v, want MALFORMED_DESCRIPTOR", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrUnauthorized, "UNAUTHORIZED", 401},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
		{ErrDeviceUnavailable, "DEVICE_UNAVAILABLE", 503},
		{ErrDeviceBusy, "DEVICE_BUSY", 409},
		{ErrCaptureFailed, "CAPTURE_FAILED", 503},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrMalformedDescriptor, "MALFORMED_DESCRIPTOR", 500},
		{ErrDimensionMismatch, "DIMENSION_MISMATCH", 422},
		{ErrFaceNotFound, "FACE_NOT_FOUND", 404},
		{ErrFaceBiometricExists, "FACE_BIOMETRIC_EXISTS", 409},
		{ErrNoRegisteredFaces, "NO_REGISTERED_FACES", 409},
		{ErrAlreadyRunning, "RECOGNITION_RUNNING", 409},
		{ErrStoreUnavailable, "STORE_UNAVAILABLE", 503},
		{ErrAttendanceNotFound, "ATTENDANCE_NOT_FOUND", 404},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
