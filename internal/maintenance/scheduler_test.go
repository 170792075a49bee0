package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeLog struct {
	mu        sync.Mutex
	resets    int
	compacts  int
	retention time.Duration
	pruneErr  error
}

func (f *fakeLog) ResetSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeLog) Compact() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compacts++
	return 0
}

func (f *fakeLog) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retention = retention
	return 3, f.pruneErr
}

func TestScheduler_Register(t *testing.T) {
	noop := func(ctx context.Context) error { return nil }

	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{name: "standard schedule", task: Task{Name: "a", Schedule: "0 0 * * *", Run: noop}},
		{name: "descriptor schedule", task: Task{Name: "b", Schedule: "@daily", Run: noop}},
		{name: "disabled", task: Task{Name: "c", Run: noop}},
		{name: "invalid schedule", task: Task{Name: "d", Schedule: "every day", Run: noop}, wantErr: true},
		{name: "seconds field rejected", task: Task{Name: "e", Schedule: "0 0 0 * * *", Run: noop}, wantErr: true},
		{name: "missing name", task: Task{Schedule: "@daily", Run: noop}, wantErr: true},
		{name: "missing run", task: Task{Name: "f", Schedule: "@daily"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			err := s.Register(tt.task)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScheduler_RegisterDuplicate(t *testing.T) {
	s := newTestScheduler()
	task := Task{Name: "a", Schedule: "@daily", Run: func(ctx context.Context) error { return nil }}

	require.NoError(t, s.Register(task))
	assert.Error(t, s.Register(task))
}

func TestScheduler_RunTask(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")

	var calls atomic.Int32
	require.NoError(t, s.Register(Task{Name: "ok", Run: func(ctx context.Context) error {
		calls.Add(1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}}))
	require.NoError(t, s.Register(Task{Name: "fails", Run: func(ctx context.Context) error {
		return boom
	}}))

	require.NoError(t, s.RunTask(context.Background(), "ok"))
	assert.Equal(t, int32(1), calls.Load())

	err := s.RunTask(context.Background(), "fails")
	assert.ErrorIs(t, err, boom)

	assert.Error(t, s.RunTask(context.Background(), "missing"))

	byName := map[string]TaskStatus{}
	for _, st := range s.Status() {
		byName[st.Name] = st
	}
	assert.Equal(t, 1, byName["ok"].Runs)
	assert.Empty(t, byName["ok"].LastError)
	assert.False(t, byName["ok"].LastRun.IsZero())
	assert.Equal(t, "boom", byName["fails"].LastError)
}

func TestScheduler_StatusNextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(Task{Name: "daily", Schedule: "@daily", Run: func(ctx context.Context) error { return nil }}))

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	status := s.Status()
	require.Len(t, status, 1)
	assert.True(t, status[0].NextRun.After(time.Now()))
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	s := newTestScheduler()

	var calls atomic.Int32
	require.NoError(t, s.Register(Task{Name: "tick", Schedule: "@every 1s", Run: func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}}))

	s.Start()
	s.Start()

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestTasks(t *testing.T) {
	log := &fakeLog{}
	s := newTestScheduler()

	require.NoError(t, s.Register(SessionReset(log, "0 0 * * *")))
	require.NoError(t, s.Register(Prune(log, "30 3 * * *", 30)))
	require.NoError(t, s.Register(Compact(log, "")))

	ctx := context.Background()
	require.NoError(t, s.RunTask(ctx, TaskSessionReset))
	require.NoError(t, s.RunTask(ctx, TaskPrune))
	require.NoError(t, s.RunTask(ctx, TaskCompact))

	assert.Equal(t, 1, log.resets)
	assert.Equal(t, 1, log.compacts)
	assert.Equal(t, 30*24*time.Hour, log.retention)

	log.pruneErr = errors.New("store down")
	assert.Error(t, s.RunTask(ctx, TaskPrune))
}
