//go:build !gocv

package camera

import (
	"context"
	"errors"
	"fmt"
)

// WebcamDevice is unavailable in builds without the gocv tag.
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
	return nil, errors.New("webcam support requires building with -tags gocv")
}
