package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches by code so copies produced by WithError still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Camera errors
	ErrDeviceUnavailable = &AppError{
		Code:       "DEVICE_UNAVAILABLE",
		Message:    "Camera device cannot be opened",
		StatusCode: 503,
	}

	ErrDeviceBusy = &AppError{
		Code:       "DEVICE_BUSY",
		Message:    "Camera is in use by another operation",
		StatusCode: 409,
	}

	ErrCaptureFailed = &AppError{
		Code:       "CAPTURE_FAILED",
		Message:    "Failed to capture frame",
		StatusCode: 503,
	}

	// Face errors
	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMalformedDescriptor = &AppError{
		Code:       "MALFORMED_DESCRIPTOR",
		Message:    "Stored face descriptor is malformed",
		StatusCode: 500,
	}

	ErrDimensionMismatch = &AppError{
		Code:       "DIMENSION_MISMATCH",
		Message:    "Face descriptor dimension does not match the gallery",
		StatusCode: 422,
	}

	ErrFaceNotFound = &AppError{
		Code:       "FACE_NOT_FOUND",
		Message:    "Face not found",
		StatusCode: 404,
	}

	ErrFaceNameExists = &AppError{
		Code:       "FACE_NAME_EXISTS",
		Message:    "A face is already registered under this name",
		StatusCode: 409,
	}

	ErrFaceBiometricExists = &AppError{
		Code:       "FACE_BIOMETRIC_EXISTS",
		Message:    "This face is already registered with another identity",
		StatusCode: 409,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrProviderUnavailable = &AppError{
		Code:       "FACE_PROVIDER_UNAVAILABLE",
		Message:    "Face analysis service is unavailable",
		StatusCode: 503,
	}

	// Recognition errors
	ErrNoRegisteredFaces = &AppError{
		Code:       "NO_REGISTERED_FACES",
		Message:    "No faces registered, register faces first",
		StatusCode: 409,
	}

	ErrAlreadyRunning = &AppError{
		Code:       "RECOGNITION_RUNNING",
		Message:    "Recognition is already running",
		StatusCode: 409,
	}

	// Storage errors
	ErrStoreUnavailable = &AppError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "Storage is unavailable",
		StatusCode: 503,
	}

	ErrAttendanceNotFound = &AppError{
		Code:       "ATTENDANCE_NOT_FOUND",
		Message:    "Attendance record not found",
		StatusCode: 404,
	}
)
