//go:build gocv

package camera

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// WebcamDevice captures from a local video device through OpenCV.
type WebcamDevice struct {
	DeviceID int
}

func NewWebcamDevice(deviceID int) *WebcamDevice {
	return &WebcamDevice{DeviceID: deviceID}
}

func (d *WebcamDevice) Name() string {
	return fmt.Sprintf("webcam:%d", d.DeviceID)
}

func (d *WebcamDevice) Open(ctx context.Context) (Stream, error) {
	capture, err := gocv.OpenVideoCapture(d.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("open video capture: %w", err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, errors.New("video capture is not opened")
	}

	return &webcamStream{capture: capture, mat: gocv.NewMat()}, nil
}

type webcamStream struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// Read grabs one frame and encodes it as JPEG.
func (s *webcamStream) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, errors.New("no frame from video capture")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

func (s *webcamStream) Close() error {
	_ = s.mat.Close()
	return s.capture.Close()
}
