package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

// DefaultDedupInterval is the minimum time between two records of one name.
const DefaultDedupInterval = 5 * time.Minute

var errLogClosed = errors.New("attendance log closed")

// Notifier is told about every record the log writes.
type Notifier interface {
	AttendanceLogged(ctx context.Context, record domain.AttendanceRecord)
}

// Log is the deduplicating writer in front of the attendance store.
type Log struct {
	repo      repository.AttendanceRepositoryInterface
	window    *window
	logger    *slog.Logger
	now       func() time.Time
	notifiers []Notifier

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

type Option func(*Log)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithNotifier registers a receiver of logged records. Receivers are called
// in registration order and must not block.
func WithNotifier(n Notifier) Option {
	return func(l *Log) {
		if n != nil {
			l.notifiers = append(l.notifiers, n)
		}
	}
}

func NewLog(repo repository.AttendanceRepositoryInterface, interval time.Duration, logger *slog.Logger, opts ...Option) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	if interval < 0 {
		interval = 0
	}

	l := &Log{
		repo:   repo,
		window: newWindow(interval),
		logger: logger.With("component", "attendance"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a record for name at the current time unless name was
// logged less than the dedup interval ago. A suppressed call returns
// logged=false and no error. A failed write leaves name unmarked.
func (l *Log) Record(ctx context.Context, name string) (*domain.AttendanceRecord, bool, error) {
	if err := l.begin(); err != nil {
		return nil, false, err
	}
	defer l.inflight.Done()

	// the window runs on the full clock, only the stored timestamp is truncated
	now := l.now()
	prev, had, ok := l.window.checkAndMark(name, now)
	if !ok {
		l.logger.Debug("attendance suppressed", "name", name, "last", prev)
		return nil, false, nil
	}

	rec := &domain.AttendanceRecord{Name: name, Timestamp: domain.Truncate(now)}
	if err := l.repo.Create(ctx, rec); err != nil {
		l.window.restore(name, now, prev, had)
		l.logger.Error("failed to record attendance", "name", name, "error", err)
		return nil, false, storeError(err)
	}

	l.logger.Info("attendance recorded", "id", rec.ID, "name", name)
	l.notify(ctx, *rec)
	return rec, true, nil
}

// Add writes a manual entry. It bypasses and does not touch the dedup window.
// A zero timestamp means now.
func (l *Log) Add(ctx context.Context, name string, ts time.Time) (*domain.AttendanceRecord, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	if err := l.begin(); err != nil {
		return nil, err
	}
	defer l.inflight.Done()

	if ts.IsZero() {
		ts = l.now()
	}

	rec := &domain.AttendanceRecord{Name: name, Timestamp: domain.Truncate(ts)}
	if err := l.repo.Create(ctx, rec); err != nil {
		return nil, storeError(err)
	}

	l.logger.Info("manual attendance recorded", "id", rec.ID, "name", name)
	l.notify(ctx, *rec)
	return rec, nil
}

func (l *Log) List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	records, err := l.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return records, nil
}

func (l *Log) Delete(ctx context.Context, id int64) error {
	if err := l.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrAttendanceNotFound) {
			return err
		}
		return storeError(err)
	}
	l.logger.Info("attendance deleted", "id", id)
	return nil
}

func (l *Log) Summary(ctx context.Context) (*domain.AttendanceSummary, error) {
	summary, err := l.repo.Summary(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return summary, nil
}

// Prune deletes records older than retention.
func (l *Log) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention)
	n, err := l.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, storeError(err)
	}
	if n > 0 {
		l.logger.Info("attendance pruned", "deleted", n, "cutoff", cutoff.Format(domain.TimestampLayout))
	}
	return n, nil
}

// ResetSession forgets every mark, so the next sighting of any name is logged.
func (l *Log) ResetSession() {
	l.window.reset()
	l.logger.Info("attendance session reset")
}

// Compact drops marks that have aged past the interval.
func (l *Log) Compact() int {
	return l.window.prune(l.now())
}

// Close refuses new writes and waits for in-flight ones.
func (l *Log) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush attendance log: %w", ctx.Err())
	}
}

func (l *Log) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return domain.ErrStoreUnavailable.WithError(errLogClosed)
	}
	l.inflight.Add(1)
	return nil
}

func (l *Log) notify(ctx context.Context, rec domain.AttendanceRecord) {
	for _, n := range l.notifiers {
		n.AttendanceLogged(ctx, rec)
	}
}

// storeError keeps domain errors and wraps anything else as StoreUnavailable.
func storeError(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrStoreUnavailable.WithError(err)
}
