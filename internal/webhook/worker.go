package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

var ErrWorkerClosed = errors.New("webhook worker closed")

// Worker delivers jobs from an in-memory queue, retrying failures with
// exponential backoff. Jobs still queued when the process dies are lost.
type Worker struct {
	service *Service
	config  Config
	logger  *slog.Logger
	queue   chan *Job

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewWorker(service *Service, config Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	return &Worker{
		service: service,
		config:  config,
		logger:  logger.With("component", "webhook"),
		queue:   make(chan *Job, config.QueueSize),
	}
}

// Run delivers jobs until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("webhook worker started", "url", w.config.URL)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case job := <-w.queue:
			w.process(ctx, job)
		}
	}
}

// Enqueue encodes data as an event and queues it. A full queue drops the
// event.
func (w *Worker) Enqueue(eventType string, data interface{}) error {
	id := uuid.New()
	now := time.Now()

	payload, err := json.Marshal(EventPayload{
		ID:        id,
		Type:      eventType,
		Data:      data,
		Timestamp: now,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWorkerClosed
	}

	job := &Job{ID: id, EventType: eventType, Payload: payload, CreatedAt: now}
	w.pending.Add(1)
	select {
	case w.queue <- job:
		return nil
	default:
		w.pending.Done()
		w.logger.Warn("webhook queue full, event dropped", "event", eventType, "job_id", id)
		return fmt.Errorf("enqueue %s: queue full", eventType)
	}
}

// AttendanceLogged lets the worker receive attendance log notifications.
func (w *Worker) AttendanceLogged(ctx context.Context, record domain.AttendanceRecord) {
	if err := w.Enqueue(EventAttendanceLogged, record); err != nil && !errors.Is(err, ErrWorkerClosed) {
		w.logger.Error("failed to enqueue attendance webhook", "record_id", record.ID, "error", err)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	err := w.service.Send(ctx, job)
	if err == nil {
		w.logger.Info("webhook delivered", "job_id", job.ID, "event", job.EventType, "attempts", job.Attempts+1)
		w.pending.Done()
		return
	}

	job.Attempts++
	job.LastError = err.Error()

	if job.Attempts >= w.config.MaxAttempts {
		w.logger.Warn("webhook job failed", "job_id", job.ID, "attempts", job.Attempts, "error", err)
		w.pending.Done()
		return
	}

	delay := backoff(w.config.BaseDelay, job.Attempts)
	w.logger.Info("webhook job scheduled for retry",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"next_retry", time.Now().Add(delay),
	)

	time.AfterFunc(delay, func() {
		select {
		case w.queue <- job:
		default:
			w.logger.Warn("webhook queue full, retry dropped", "job_id", job.ID)
			w.pending.Done()
		}
	})
}

// backoff doubles the delay per failed attempt: base, 2*base, 4*base...
func backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return base << (attempts - 1)
}

// Close refuses new events and waits for queued deliveries, including
// retries, until ctx is done. Run must still be running for the queue to
// drain.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush webhooks: %w", ctx.Err())
	}
}
