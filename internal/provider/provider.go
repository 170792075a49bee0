package provider

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// FaceLocator finds face regions in an encoded image.
type FaceLocator interface {
	// DetectFaces returns the faces in detector order. No face is an empty
	// slice, not an error.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DescriptorExtractor turns one located face into a descriptor.
type DescriptorExtractor interface {
	ExtractDescriptor(ctx context.Context, image []byte, face DetectedFace) (domain.Descriptor, error)
}

// FaceProvider define a interface para provedores de reconhecimento facial
type FaceProvider interface {
	FaceLocator
	DescriptorExtractor
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", b.Width, b.Height, b.X, b.Y)
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Composite pairs a locator with an extractor from a different backend,
// e.g. Rekognition boxes with DeepFace descriptors.
type Composite struct {
	Locator   FaceLocator
	Extractor DescriptorExtractor
}

func (c *Composite) DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error) {
	return c.Locator.DetectFaces(ctx, image)
}

func (c *Composite) ExtractDescriptor(ctx context.Context, image []byte, face DetectedFace) (domain.Descriptor, error) {
	return c.Extractor.ExtractDescriptor(ctx, image, face)
}

var _ FaceProvider = (*Composite)(nil)
