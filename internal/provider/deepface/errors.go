package deepface

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Sidecar failures. Each is returned together with the domain error that
// decides how the API reports it.
var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrNoFaceInResponse    = errors.New("deepface returned no embedding")
	ErrInvalidImageFormat  = errors.New("frame cannot be decoded for cropping")
)

// sidecarError wraps both errors so errors.Is matches either one.
func sidecarError(err error, appErr *domain.AppError, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %w", err, appErr)
	}
	return fmt.Errorf("%w: %w: %v", err, appErr, cause)
}
