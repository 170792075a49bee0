package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Device opens a camera. Implementations are the capture drivers.
type Device interface {
	Open(ctx context.Context) (Stream, error)
	Name() string
}

// Stream is an opened camera. Read blocks until an encoded frame is available.
type Stream interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Frame is one captured image in its encoded form.
type Frame struct {
	Data       []byte
	Seq        uint64
	CapturedAt time.Time
}

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// FrameSource owns the camera handle and enforces Closed -> Open -> Closed.
type FrameSource struct {
	device Device
	logger *slog.Logger

	mu     sync.Mutex
	stream Stream
	state  State
	seq    uint64
}

func NewFrameSource(device Device, logger *slog.Logger) *FrameSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameSource{
		device: device,
		logger: logger.With("component", "camera", "device", device.Name()),
	}
}

// Open acquires the device. Opening an already open source is a no-op.
func (s *FrameSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateOpen {
		return nil
	}

	stream, err := s.device.Open(ctx)
	if err != nil {
		return domain.ErrDeviceUnavailable.WithError(fmt.Errorf("open %s: %w", s.device.Name(), err))
	}

	s.stream = stream
	s.state = StateOpen
	s.logger.Debug("camera opened")
	return nil
}

// Read returns the next frame. Failures are reported as ErrCaptureFailed;
// the caller decides whether to retry.
func (s *FrameSource) Read(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	stream := s.stream
	open := s.state == StateOpen
	s.mu.Unlock()

	if !open {
		return Frame{}, domain.ErrCaptureFailed.WithError(errors.New("camera is not open"))
	}

	data, err := stream.Read(ctx)
	if err != nil {
		return Frame{}, domain.ErrCaptureFailed.WithError(err)
	}
	if len(data) == 0 {
		return Frame{}, domain.ErrCaptureFailed.WithError(errors.New("empty frame"))
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	return Frame{Data: data, Seq: seq, CapturedAt: time.Now()}, nil
}

// Close releases the device. It is safe to call on a closed source and after
// a failed Open.
func (s *FrameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}

	err := s.stream.Close()
	s.stream = nil
	s.state = StateClosed
	s.logger.Debug("camera closed")

	if err != nil {
		return fmt.Errorf("close %s: %w", s.device.Name(), err)
	}
	return nil
}

func (s *FrameSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lease hands the camera to one owner at a time. Registration and
// recognition both go through it, so they never hold the device together.
type Lease struct {
	source *FrameSource

	mu    sync.Mutex
	owner string
}

func NewLease(device Device, logger *slog.Logger) *Lease {
	return &Lease{source: NewFrameSource(device, logger)}
}

// Acquire opens the camera for owner. It fails with ErrDeviceBusy while
// another owner holds it and with ErrDeviceUnavailable when it cannot open.
func (l *Lease) Acquire(ctx context.Context, owner string) (*FrameSource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner != "" {
		return nil, domain.ErrDeviceBusy.WithError(fmt.Errorf("camera held by %s", l.owner))
	}

	if err := l.source.Open(ctx); err != nil {
		_ = l.source.Close()
		return nil, err
	}

	l.owner = owner
	return l.source, nil
}

// Release closes the camera if owner holds it.
func (l *Lease) Release(owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner != owner {
		return nil
	}

	l.owner = ""
	return l.source.Close()
}

// Owner returns the current holder, empty when the camera is free.
func (l *Lease) Owner() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// Close releases the camera regardless of owner. Used at shutdown.
func (l *Lease) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.owner = ""
	return l.source.Close()
}
