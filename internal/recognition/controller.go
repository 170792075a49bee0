package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/camera"
	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/gallery"
	"github.com/saturnino-fabrica-de-software/ponto/internal/matcher"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// CameraOwner is the lease owner name used while recognition runs.
const CameraOwner = "recognition"

var (
	errClosed       = errors.New("recognition controller closed")
	errStartAborted = errors.New("recognition start aborted by stop")
)

// Recorder logs a recognized name. attendance.Log implements it.
type Recorder interface {
	Record(ctx context.Context, name string) (*domain.AttendanceRecord, bool, error)
}

// PhotoResolver maps a stored photo reference to a displayable one.
type PhotoResolver interface {
	Resolve(ref string) string
}

// Camera hands out the exclusive frame source. camera.Lease implements it.
type Camera interface {
	Acquire(ctx context.Context, owner string) (*camera.FrameSource, error)
	Release(owner string) error
}

type Config struct {
	Policy                 Policy
	Dimension              int
	MaxConsecutiveFailures int
	EventBuffer            int
}

func DefaultConfig() Config {
	return Config{
		Policy:                 PolicyFirst,
		MaxConsecutiveFailures: 2,
		EventBuffer:            256,
	}
}

// Status is a snapshot of the controller for the control surface.
type Status struct {
	State           State      `json:"state"`
	Starting        bool       `json:"starting,omitempty"`
	SessionID       string     `json:"session_id,omitempty"`
	GallerySize     int        `json:"gallery_size"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FramesProcessed uint64     `json:"frames_processed"`
	DroppedEvents   uint64     `json:"dropped_events"`
}

// Controller runs the recognition cycle: Idle until Start, then one worker
// reads frames, matches faces against the gallery snapshot taken at Start,
// and records attendance until Stop or a fatal capture error.
type Controller struct {
	faces    gallery.Source
	provider provider.FaceProvider
	matcher  *matcher.Matcher
	recorder Recorder
	photos   PhotoResolver
	camera   Camera
	config   Config
	logger   *slog.Logger

	events  chan Event
	dropped atomic.Uint64
	frames  atomic.Uint64

	mu        sync.Mutex
	state     State
	closed    bool
	stopFlag  *atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	sessionID string
	startedAt time.Time
	gallery   *gallery.Gallery
	starting  *startup
}

// startup tracks a Start that is loading the gallery or opening the camera
// outside the lock.
type startup struct {
	abort   context.CancelFunc
	aborted bool
	done    chan struct{}
}

func NewController(
	faces gallery.Source,
	faceProvider provider.FaceProvider,
	m *matcher.Matcher,
	recorder Recorder,
	photos PhotoResolver,
	cam Camera,
	config Config,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxConsecutiveFailures < 1 {
		config.MaxConsecutiveFailures = 1
	}
	if config.EventBuffer < 1 {
		config.EventBuffer = DefaultConfig().EventBuffer
	}
	if config.Policy == "" {
		config.Policy = PolicyFirst
	}

	return &Controller{
		faces:    faces,
		provider: faceProvider,
		matcher:  m,
		recorder: recorder,
		photos:   photos,
		camera:   cam,
		config:   config,
		logger:   logger.With("component", "recognition"),
		events:   make(chan Event, config.EventBuffer),
	}
}

// Events delivers the cycle's events in generation order. When nobody reads
// and the buffer is full, new events are dropped and counted in Status.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:           c.state,
		Starting:        c.starting != nil,
		FramesProcessed: c.frames.Load(),
		DroppedEvents:   c.dropped.Load(),
	}
	if c.state == StateRunning {
		st.SessionID = c.sessionID
		started := c.startedAt
		st.StartedAt = &started
	}
	if c.gallery != nil {
		st.GallerySize = c.gallery.Len()
	}
	return st
}

// Start loads a fresh gallery, takes the camera and spawns the worker.
// On any error the controller stays Idle and the camera is not held.
// The store and the camera are reached without holding the lock, so State
// and Status answer while Start is in progress.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed
	}
	if c.state == StateRunning || c.starting != nil {
		c.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	startCtx, abort := context.WithCancel(ctx)
	st := &startup{abort: abort, done: make(chan struct{})}
	c.starting = st
	c.mu.Unlock()

	g, source, err := c.prepare(startCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(st.done)
	c.starting = nil
	abort()

	if err != nil {
		if st.aborted {
			return errStartAborted
		}
		return err
	}
	if st.aborted || c.closed {
		if err := c.camera.Release(CameraOwner); err != nil {
			c.logger.Warn("failed to release camera", "error", err)
		}
		return errStartAborted
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	stopFlag := &atomic.Bool{}
	done := make(chan struct{})

	c.state = StateRunning
	c.stopFlag = stopFlag
	c.cancel = cancel
	c.done = done
	c.sessionID = uuid.NewString()
	c.startedAt = time.Now()
	c.gallery = g
	c.frames.Store(0)

	c.logger.Info("recognition started",
		"session_id", c.sessionID,
		"gallery_size", g.Len(),
		"skipped", g.Skipped(),
		"threshold", c.matcher.Threshold(),
		"policy", c.config.Policy,
	)
	c.emit(Event{Type: EventStarted, SessionID: c.sessionID})

	go c.run(sessionCtx, c.sessionID, source, g, stopFlag, done)
	return nil
}

func (c *Controller) prepare(ctx context.Context) (*gallery.Gallery, *camera.FrameSource, error) {
	g, err := gallery.Load(ctx, c.faces, c.config.Dimension, c.logger)
	if err != nil {
		return nil, nil, err
	}
	if g.IsEmpty() {
		return nil, nil, domain.ErrNoRegisteredFaces
	}

	source, err := c.camera.Acquire(ctx, CameraOwner)
	if err != nil {
		return nil, nil, err
	}
	return g, source, nil
}

// Stop asks the worker to finish and waits for it. A Start in progress is
// aborted. It is a no-op while Idle.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if st := c.starting; st != nil {
		st.aborted = true
		st.abort()
		c.mu.Unlock()
		<-st.done
		return nil
	}
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.stopFlag.Store(true)
	c.cancel()
	done := c.done
	c.mu.Unlock()

	<-done
	return nil
}

// Toggle starts when Idle and stops when Running. It returns the new state.
func (c *Controller) Toggle(ctx context.Context) (State, error) {
	if c.State() == StateRunning {
		if err := c.Stop(); err != nil {
			return StateRunning, err
		}
		return StateIdle, nil
	}
	if err := c.Start(ctx); err != nil {
		return StateIdle, err
	}
	return StateRunning, nil
}

// Close stops recognition and closes the event channel. Start fails afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	close(c.events)
	c.mu.Unlock()
	return nil
}

func (c *Controller) run(ctx context.Context, sessionID string, source *camera.FrameSource, g *gallery.Gallery, stopFlag *atomic.Bool, done chan struct{}) {
	var fatal error

	defer func() {
		if err := c.camera.Release(CameraOwner); err != nil {
			c.logger.Warn("failed to release camera", "error", err)
		}

		c.mu.Lock()
		c.state = StateIdle
		c.cancel()
		if fatal != nil {
			c.emit(Event{Type: EventStopped, SessionID: sessionID, Error: fatal.Error()})
		}
		c.emit(Event{Type: EventWaiting})
		c.mu.Unlock()

		c.logger.Info("recognition stopped", "session_id", sessionID, "frames", c.frames.Load())
		close(done)
	}()

	failures := 0
	for !stopFlag.Load() {
		frame, err := source.Read(ctx)
		if err != nil {
			if stopFlag.Load() || ctx.Err() != nil {
				return
			}
			failures++
			if failures >= c.config.MaxConsecutiveFailures {
				c.logger.Error("capture failed, ending session", "failures", failures, "error", err)
				fatal = err
				return
			}
			c.logger.Warn("capture failed", "failures", failures, "error", err)
			c.emit(Event{Type: EventCaptureFailed, SessionID: sessionID, Error: err.Error()})
			continue
		}
		failures = 0

		c.frames.Add(1)
		c.process(ctx, sessionID, frame, g)
	}
}

// process runs one frame through locate, extract, match and record.
func (c *Controller) process(ctx context.Context, sessionID string, frame camera.Frame, g *gallery.Gallery) {
	faces, err := c.provider.DetectFaces(ctx, frame.Data)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("face detection failed", "frame", frame.Seq, "error", err)
		c.emit(Event{Type: EventError, SessionID: sessionID, Frame: frame.Seq, Error: err.Error()})
		return
	}

	if len(faces) == 0 {
		c.emit(Event{Type: EventNoFace, SessionID: sessionID, Frame: frame.Seq})
		return
	}

	matched := 0
	for i, face := range faces {
		d, err := c.provider.ExtractDescriptor(ctx, frame.Data, face)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("descriptor extraction failed", "frame", frame.Seq, "region", i, "error", err)
			continue
		}

		id, ok, err := c.matcher.MatchChecked(d, g)
		if err != nil {
			c.logger.Warn("descriptor rejected", "frame", frame.Seq, "region", i, "error", err)
			continue
		}
		if !ok {
			continue
		}

		matched++
		c.emit(c.recordMatch(ctx, sessionID, frame, len(faces), id))

		if c.config.Policy == PolicyFirst {
			return
		}
	}

	if matched == 0 {
		c.emit(Event{Type: EventUnauthorized, SessionID: sessionID, Frame: frame.Seq, Regions: len(faces)})
	}
}

func (c *Controller) recordMatch(ctx context.Context, sessionID string, frame camera.Frame, regions int, id matcher.Identity) Event {
	ev := Event{
		Type:      EventMatched,
		SessionID: sessionID,
		Frame:     frame.Seq,
		Regions:   regions,
		FaceID:    id.FaceID,
		Name:      id.Name,
		Photo:     id.PhotoRef,
		Distance:  id.Distance,
	}
	if c.photos != nil {
		ev.Photo = c.photos.Resolve(id.PhotoRef)
	}

	// an accepted match is logged even if Stop lands mid-frame
	rec, logged, err := c.recorder.Record(context.WithoutCancel(ctx), id.Name)
	if err != nil {
		c.logger.Error("failed to record attendance", "name", id.Name, "error", err)
		ev.Error = err.Error()
		return ev
	}
	ev.Logged = logged
	if rec != nil {
		ev.RecordID = rec.ID
	}
	return ev
}

// emit never blocks the worker. Callers serialize through the worker or mu,
// so the channel order is the generation order.
func (c *Controller) emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case c.events <- ev:
	default:
		n := c.dropped.Add(1)
		c.logger.Warn("event dropped, no reader", "type", ev.Type, "dropped", n)
	}
}

// String is used in logs.
func (s Status) String() string {
	return fmt.Sprintf("%s session=%s gallery=%d frames=%d", s.State, s.SessionID, s.GallerySize, s.FramesProcessed)
}
