package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

const (
	// DescriptorDimension matches the dlib face model
	DescriptorDimension = 128

	// minFaceImageSize is the smallest image the mock considers to hold a face
	minFaceImageSize = 1000
)

// Provider implementa provider.FaceProvider para testes e desenvolvimento.
// O mesmo conteúdo de imagem sempre gera o mesmo descritor.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

// DetectFaces reports one centered face for images large enough to hold one
// and no face for smaller ones.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	if len(image) < minFaceImageSize {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      64,
				Y:      48,
				Width:  160,
				Height: 160,
			},
			Confidence: 0.99,
		},
	}, nil
}

// ExtractDescriptor gera descritor determinístico baseado no hash da imagem
func (p *Provider) ExtractDescriptor(ctx context.Context, image []byte, face provider.DetectedFace) (domain.Descriptor, error) {
	if len(image) < minFaceImageSize {
		return nil, domain.ErrNoFaceDetected
	}

	return generateDescriptor(image), nil
}

// generateDescriptor gera descritor determinístico baseado no hash da imagem
func generateDescriptor(image []byte) domain.Descriptor {
	hash := sha256.Sum256(image)
	d := make(domain.Descriptor, DescriptorDimension)
	hashLen := len(hash)

	for i := 0; i < DescriptorDimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		d[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range d {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return d
	}

	for i := range d {
		d[i] /= norm
	}

	return d
}

var _ provider.FaceProvider = (*Provider)(nil)
