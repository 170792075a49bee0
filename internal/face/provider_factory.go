package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/ponto/internal/config"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider/rekognition"
)

// ProviderType defines supported face provider backends
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace sidecar (locator and extractor)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition is AWS Rekognition (locator only)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process provider
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceProvider builds the locator and extractor named by the config.
// When both are DeepFace the same instance serves both, so the embeddings
// returned with the detection are reused.
//
// Environment variables:
//   - FACE_LOCATOR: "deepface", "rekognition" or "mock" (default: "deepface")
//   - FACE_EXTRACTOR: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL: DeepFace sidecar
//   - AWS_REGION: AWS region for Rekognition (credentials via the SDK chain)
func NewFaceProvider(ctx context.Context, cfg *config.Config) (provider.FaceProvider, error) {
	var shared *deepface.Provider
	deepFace := func() *deepface.Provider {
		if shared == nil {
			shared = createDeepFaceProvider(cfg)
		}
		return shared
	}

	mockProvider := mock.New()

	var extractor provider.DescriptorExtractor
	switch ProviderType(cfg.FaceExtractor) {
	case ProviderTypeDeepFace, "":
		extractor = deepFace()
	case ProviderTypeMock:
		extractor = mockProvider
	default:
		return nil, fmt.Errorf("unknown extractor type: %s (supported: %s, %s)",
			cfg.FaceExtractor, ProviderTypeDeepFace, ProviderTypeMock)
	}

	var locator provider.FaceLocator
	switch ProviderType(cfg.FaceLocator) {
	case ProviderTypeDeepFace, "":
		locator = deepFace()
	case ProviderTypeMock:
		locator = mockProvider
	case ProviderTypeRekognition:
		l, err := rekognition.NewLocator(ctx, rekognition.Config{
			Region:        cfg.AWSRegion,
			MinConfidence: rekognition.DefaultConfig().MinConfidence,
		})
		if err != nil {
			return nil, fmt.Errorf("create rekognition locator: %w", err)
		}
		locator = l
	default:
		return nil, fmt.Errorf("unknown locator type: %s (supported: %s, %s, %s)",
			cfg.FaceLocator, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}

	// Same backend on both sides needs no composite
	if fp, ok := locator.(provider.FaceProvider); ok && any(locator) == any(extractor) {
		return fp, nil
	}

	return &provider.Composite{Locator: locator, Extractor: extractor}, nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}

	return deepface.NewProvider(deepfaceConfig)
}
