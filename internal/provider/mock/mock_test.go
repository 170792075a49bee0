package mock

import (
	"context"
	"testing"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

func TestProvider_DetectFaces(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		image     []byte
		wantFaces int
		wantErr   bool
	}{
		{
			name:      "valid image",
			image:     make([]byte, 5000),
			wantFaces: 1,
		},
		{
			name:      "image too small to hold a face",
			image:     make([]byte, 100),
			wantFaces: 0,
		},
		{
			name:    "empty image",
			image:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectFaces(ctx, tt.image)
			if (err != nil) != tt.wantErr {
				t.Errorf("DetectFaces() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("DetectFaces() got %d faces, want %d", len(faces), tt.wantFaces)
			}
		})
	}
}

func TestProvider_ExtractDescriptor(t *testing.T) {
	p := New()
	ctx := context.Background()

	image := make([]byte, 5000)
	for i := range image {
		image[i] = byte(i % 256)
	}

	d1, err := p.ExtractDescriptor(ctx, image, provider.DetectedFace{})
	if err != nil {
		t.Fatalf("ExtractDescriptor() error = %v", err)
	}

	if d1.Dim() != DescriptorDimension {
		t.Errorf("descriptor dimension = %d, want %d", d1.Dim(), DescriptorDimension)
	}

	d2, err := p.ExtractDescriptor(ctx, image, provider.DetectedFace{})
	if err != nil {
		t.Fatalf("ExtractDescriptor() error = %v", err)
	}
	if !d1.Equal(d2, 0) {
		t.Errorf("same image must produce the same descriptor")
	}

	other := make([]byte, 5000)
	d3, _ := p.ExtractDescriptor(ctx, other, provider.DetectedFace{})
	if d1.Equal(d3, 1e-6) {
		t.Errorf("different images should produce different descriptors")
	}

	if _, err := p.ExtractDescriptor(ctx, make([]byte, 10), provider.DetectedFace{}); err != domain.ErrNoFaceDetected {
		t.Errorf("ExtractDescriptor() error = %v, want ErrNoFaceDetected", err)
	}
}
