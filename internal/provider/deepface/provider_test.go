package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

func floatPtr(v float64) *float64 {
	return &v
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordedServer struct {
	mu       sync.Mutex
	requests []RepresentRequest
	respond  func(req RepresentRequest) RepresentResponse
}

func (s *recordedServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RepresentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(s.respond(req))
	}
}

func newTestProvider(t *testing.T, rs *recordedServer) *Provider {
	t.Helper()
	server := httptest.NewServer(rs.handler(t))
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RetryCount = 0
	return NewProvider(cfg)
}

func TestProvider_DetectFaces(t *testing.T) {
	rs := &recordedServer{respond: func(req RepresentRequest) RepresentResponse {
		return RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0.1, 0.2}, FacialArea: FacialArea{X: 10, Y: 20, W: 50, H: 60}, FaceConfidence: floatPtr(0.97)},
			{Embedding: []float64{0.3, 0.4}, FacialArea: FacialArea{X: 0, Y: 0, W: 640, H: 480}, FaceConfidence: floatPtr(0)},
			{Embedding: []float64{0.5, 0.6}, FacialArea: FacialArea{X: 100, Y: 120, W: 40, H: 40}},
		}}
	}}
	p := newTestProvider(t, rs)

	faces, err := p.DetectFaces(context.Background(), []byte("frame"))

	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, provider.BoundingBox{X: 10, Y: 20, Width: 50, Height: 60}, faces[0].BoundingBox)
	assert.InDelta(t, 0.97, faces[0].Confidence, 1e-9)
	assert.Equal(t, 1.0, faces[1].Confidence)
}

func TestProvider_DetectFacesNoFace(t *testing.T) {
	rs := &recordedServer{respond: func(req RepresentRequest) RepresentResponse {
		return RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0.3}, FacialArea: FacialArea{W: 640, H: 480}, FaceConfidence: floatPtr(0)},
		}}
	}}
	p := newTestProvider(t, rs)

	faces, err := p.DetectFaces(context.Background(), []byte("frame"))

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestProvider_DetectFacesEmptyImage(t *testing.T) {
	p := NewProvider(DefaultConfig())

	_, err := p.DetectFaces(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestProvider_ExtractDescriptorUsesDetectedEmbedding(t *testing.T) {
	rs := &recordedServer{respond: func(req RepresentRequest) RepresentResponse {
		return RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0.1, 0.2}, FacialArea: FacialArea{X: 1, Y: 2, W: 30, H: 30}},
			{Embedding: []float64{0.7, 0.8}, FacialArea: FacialArea{X: 50, Y: 2, W: 30, H: 30}},
		}}
	}}
	p := newTestProvider(t, rs)
	frame := []byte("frame")

	faces, err := p.DetectFaces(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, faces, 2)

	d, err := p.ExtractDescriptor(context.Background(), frame, faces[1])
	require.NoError(t, err)

	assert.Equal(t, domain.Descriptor{0.7, 0.8}, d)
	assert.Len(t, rs.requests, 1)
}

func TestProvider_ExtractDescriptorCropsUnknownFrame(t *testing.T) {
	rs := &recordedServer{respond: func(req RepresentRequest) RepresentResponse {
		return RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0.9, 0.1, 0.4}, FacialArea: FacialArea{W: 48, H: 48}},
		}}
	}}
	p := newTestProvider(t, rs)
	frame := testPNG(t, 200, 100)

	d, err := p.ExtractDescriptor(context.Background(), frame, provider.DetectedFace{
		BoundingBox: provider.BoundingBox{X: 20, Y: 20, Width: 40, Height: 40},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Descriptor{0.9, 0.1, 0.4}, d)
	require.Len(t, rs.requests, 1)
	assert.Equal(t, "skip", rs.requests[0].DetectorBackend)

	crop, err := base64.StdEncoding.DecodeString(rs.requests[0].Img)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(crop))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	// 40px box plus 8px margin on each side
	assert.Equal(t, 56, cfg.Width)
	assert.Equal(t, 56, cfg.Height)
}

func TestProvider_ExtractDescriptorEmptyResult(t *testing.T) {
	rs := &recordedServer{respond: func(req RepresentRequest) RepresentResponse {
		return RepresentResponse{}
	}}
	p := newTestProvider(t, rs)

	_, err := p.ExtractDescriptor(context.Background(), testPNG(t, 64, 64), provider.DetectedFace{
		BoundingBox: provider.BoundingBox{X: 0, Y: 0, Width: 64, Height: 64},
	})

	assert.ErrorIs(t, err, ErrNoFaceInResponse)
	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
}

func TestCropFace(t *testing.T) {
	frame := testPNG(t, 100, 100)

	t.Run("box clipped to image", func(t *testing.T) {
		crop, err := cropFace(frame, provider.BoundingBox{X: 80, Y: 80, Width: 40, Height: 40})
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(crop))
		require.NoError(t, err)
		assert.Equal(t, 28, cfg.Width)
		assert.Equal(t, 28, cfg.Height)
	})

	t.Run("box outside image", func(t *testing.T) {
		_, err := cropFace(frame, provider.BoundingBox{X: 500, Y: 500, Width: 10, Height: 10})
		assert.Error(t, err)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := cropFace([]byte("garbage"), provider.BoundingBox{Width: 10, Height: 10})
		assert.ErrorIs(t, err, ErrInvalidImageFormat)
		assert.ErrorIs(t, err, domain.ErrInvalidImage)
	})
}

func TestFitWithin(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 100, 50), fitWithin(100, 50, 512))
	assert.Equal(t, image.Rect(0, 0, 512, 256), fitWithin(1024, 512, 512))
	assert.Equal(t, image.Rect(0, 0, 256, 512), fitWithin(512, 1024, 512))
}
