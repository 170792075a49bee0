package camera

import (
	"fmt"
	"time"
)

// DeviceOptions selects and configures a camera driver.
type DeviceOptions struct {
	Driver        string
	URL           string
	Dir           string
	DeviceID      int
	FrameInterval time.Duration
}

// NewDevice builds the device for the configured driver.
func NewDevice(opts DeviceOptions) (Device, error) {
	switch opts.Driver {
	case "snapshot":
		cfg := DefaultSnapshotConfig(opts.URL)
		if opts.FrameInterval > 0 {
			cfg.Interval = opts.FrameInterval
		}
		return NewSnapshotDevice(cfg), nil
	case "directory":
		return NewDirectoryDevice(opts.Dir, true, opts.FrameInterval), nil
	case "webcam":
		return NewWebcamDevice(opts.DeviceID), nil
	default:
		return nil, fmt.Errorf("unknown camera driver: %s", opts.Driver)
	}
}
