package deepface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

const (
	// cropMargin widens the box so alignment sees the whole face
	cropMargin = 0.2
	// maxCropSide bounds the crop sent to the service
	maxCropSide = 512
)

// cropFace cuts the face box (plus margin) out of an encoded image and
// returns it as JPEG.
func cropFace(data []byte, box provider.BoundingBox) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, sidecarError(ErrInvalidImageFormat, domain.ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	mx := int(float64(box.Width) * cropMargin)
	my := int(float64(box.Height) * cropMargin)
	r := image.Rect(box.X-mx, box.Y-my, box.X+box.Width+mx, box.Y+box.Height+my).
		Add(bounds.Min).
		Intersect(bounds)
	if r.Empty() {
		return nil, errors.New("face box is outside the image")
	}

	dst := image.NewRGBA(fitWithin(r.Dx(), r.Dy(), maxCropSide))
	if dst.Bounds().Dx() == r.Dx() && dst.Bounds().Dy() == r.Dy() {
		draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, r, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w x h down, keeping the aspect ratio, so neither side
// exceeds limit.
func fitWithin(w, h, limit int) image.Rectangle {
	if w <= limit && h <= limit {
		return image.Rect(0, 0, w, h)
	}
	if w >= h {
		return image.Rect(0, 0, limit, max(1, h*limit/w))
	}
	return image.Rect(0, 0, max(1, w*limit/h), limit)
}
