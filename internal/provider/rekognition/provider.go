package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
)

// DetectFacesAPI is the slice of the Rekognition client the locator needs.
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MinConfidence drops detections below this score (0-100)
	MinConfidence float32
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 90,
	}
}

// Locator implements provider.FaceLocator using AWS Rekognition.
// Rekognition does not expose embeddings, so it is paired with another
// extractor through provider.Composite.
type Locator struct {
	api    DetectFacesAPI
	config Config
}

var _ provider.FaceLocator = (*Locator)(nil)

// NewLocator creates a locator using the AWS default credential chain
func NewLocator(ctx context.Context, cfg Config) (*Locator, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewLocatorWithAPI(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewLocatorWithAPI creates a locator over an existing client
func NewLocatorWithAPI(api DetectFacesAPI, cfg Config) *Locator {
	return &Locator{api: api, config: cfg}
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API.
// Rekognition answers with ratio boxes; they are converted to pixels using
// the decoded image size.
func (l *Locator) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	if len(img) == 0 {
		return nil, domain.ErrInvalidImage
	}
	if len(img) > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(
			fmt.Errorf("image too large (%d bytes, maximum %d)", len(img), maxImageSize))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	output, err := l.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: img},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		confidence := aws.ToFloat32(detail.Confidence)
		if confidence < l.config.MinConfidence {
			continue
		}

		box := toPixels(detail.BoundingBox, cfg.Width, cfg.Height)
		if box.Area() == 0 {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: box,
			Confidence:  float64(confidence) / 100.0,
		})
	}

	return faces, nil
}

// toPixels converts a ratio box to pixels, clamped to the image.
func toPixels(b *types.BoundingBox, width, height int) provider.BoundingBox {
	x0 := clamp(aws.ToFloat32(b.Left), 0, 1)
	y0 := clamp(aws.ToFloat32(b.Top), 0, 1)
	x1 := clamp(aws.ToFloat32(b.Left)+aws.ToFloat32(b.Width), 0, 1)
	y1 := clamp(aws.ToFloat32(b.Top)+aws.ToFloat32(b.Height), 0, 1)

	px := int(math.Round(float64(x0) * float64(width)))
	py := int(math.Round(float64(y0) * float64(height)))
	return provider.BoundingBox{
		X:      px,
		Y:      py,
		Width:  int(math.Round(float64(x1)*float64(width))) - px,
		Height: int(math.Round(float64(y1)*float64(height))) - py,
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
