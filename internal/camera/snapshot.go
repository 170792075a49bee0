package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxSnapshotSize = 10 * 1024 * 1024 // 10MB

// SnapshotConfig configures an IP camera that serves one still image per GET.
type SnapshotConfig struct {
	URL      string
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultSnapshotConfig returns a Config with sensible defaults
func DefaultSnapshotConfig(url string) SnapshotConfig {
	return SnapshotConfig{
		URL:      url,
		Timeout:  5 * time.Second,
		Interval: 200 * time.Millisecond,
	}
}

// SnapshotDevice polls an HTTP snapshot endpoint.
type SnapshotDevice struct {
	config     SnapshotConfig
	httpClient *http.Client
}

func NewSnapshotDevice(config SnapshotConfig) *SnapshotDevice {
	return &SnapshotDevice{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (d *SnapshotDevice) Name() string {
	return "snapshot"
}

// Open fetches one frame to prove the camera answers.
func (d *SnapshotDevice) Open(ctx context.Context) (Stream, error) {
	s := &snapshotStream{device: d}
	if _, err := d.fetch(ctx); err != nil {
		return nil, err
	}
	s.last = time.Now()
	return s, nil
}

func (d *SnapshotDevice) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return data, nil
}

type snapshotStream struct {
	device *SnapshotDevice
	last   time.Time
}

// Read paces requests to the configured interval.
func (s *snapshotStream) Read(ctx context.Context) ([]byte, error) {
	if wait := s.device.config.Interval - time.Since(s.last); wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	s.last = time.Now()
	return s.device.fetch(ctx)
}

func (s *snapshotStream) Close() error {
	s.device.httpClient.CloseIdleConnections()
	return nil
}
