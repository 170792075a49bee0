package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

// DirectoryDevice replays image files from a directory in name order.
// Useful for demos and for exercising the pipeline without hardware.
type DirectoryDevice struct {
	Dir      string
	Loop     bool
	Interval time.Duration
}

func NewDirectoryDevice(dir string, loop bool, interval time.Duration) *DirectoryDevice {
	return &DirectoryDevice{Dir: dir, Loop: loop, Interval: interval}
}

func (d *DirectoryDevice) Name() string {
	return "directory"
}

func (d *DirectoryDevice) Open(ctx context.Context) (Stream, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(d.Dir, e.Name()))
		}
	}

	if len(files) == 0 {
		return nil, errors.New("frame directory has no images")
	}
	sort.Strings(files)

	return &directoryStream{device: d, files: files}, nil
}

type directoryStream struct {
	device *DirectoryDevice
	files  []string
	next   int
}

func (s *directoryStream) Read(ctx context.Context) ([]byte, error) {
	if s.next >= len(s.files) {
		if !s.device.Loop {
			return nil, io.EOF
		}
		s.next = 0
	}

	if s.device.Interval > 0 && s.next > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.device.Interval):
		}
	}

	path := s.files[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func (s *directoryStream) Close() error {
	return nil
}
