package deepface

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// skipDetector tells DeepFace the image is already a face crop
const skipDetector = "skip"

// Provider implements provider.FaceProvider using DeepFace API.
// /represent returns boxes and embeddings together, so the embeddings of the
// last detected frame are kept and served by ExtractDescriptor without a
// second round trip.
type Provider struct {
	client *Client

	mu   sync.Mutex
	last lastFrame
}

type lastFrame struct {
	key     [sha256.Size]byte
	results []RepresentResult
	valid   bool
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectFaces detects faces in the image
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image), "")
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	kept := make([]RepresentResult, 0, len(resp.Results))
	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		// enforce_detection=false returns the whole frame with zero confidence
		// when nothing was found
		if result.FaceConfidence != nil && *result.FaceConfidence <= 0 {
			continue
		}
		if result.FacialArea.W <= 0 || result.FacialArea.H <= 0 {
			continue
		}

		confidence := 1.0
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}

		kept = append(kept, result)
		faces = append(faces, provider.DetectedFace{
			BoundingBox: boxFromArea(result.FacialArea),
			Confidence:  confidence,
		})
	}

	p.mu.Lock()
	p.last = lastFrame{key: sha256.Sum256(image), results: kept, valid: true}
	p.mu.Unlock()

	return faces, nil
}

// ExtractDescriptor returns the embedding for one detected face
func (p *Provider) ExtractDescriptor(ctx context.Context, image []byte, face provider.DetectedFace) (domain.Descriptor, error) {
	if embedding, ok := p.cached(image, face.BoundingBox); ok {
		return embedding, nil
	}

	crop, err := cropFace(image, face.BoundingBox)
	if err != nil {
		return nil, fmt.Errorf("extract descriptor: %w", err)
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(crop), skipDetector)
	if err != nil {
		return nil, fmt.Errorf("extract descriptor: %w", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Embedding) == 0 {
		return nil, sidecarError(ErrNoFaceInResponse, domain.ErrNoFaceDetected, nil)
	}

	return domain.Descriptor(resp.Results[0].Embedding), nil
}

func (p *Provider) cached(image []byte, box provider.BoundingBox) (domain.Descriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.valid || p.last.key != sha256.Sum256(image) {
		return nil, false
	}

	for _, result := range p.last.results {
		if boxFromArea(result.FacialArea) == box && len(result.Embedding) > 0 {
			out := make(domain.Descriptor, len(result.Embedding))
			copy(out, result.Embedding)
			return out, true
		}
	}
	return nil, false
}

func boxFromArea(a FacialArea) provider.BoundingBox {
	return provider.BoundingBox{X: a.X, Y: a.Y, Width: a.W, Height: a.H}
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
