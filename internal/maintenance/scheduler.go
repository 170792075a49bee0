package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a named job run on a standard five-field cron schedule.
type Task struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// TaskStatus is the last outcome of a task.
type TaskStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run,omitempty"`
	NextRun   time.Time `json:"next_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
}

type entry struct {
	task   Task
	id     cron.EntryID
	status TaskStatus
}

// Scheduler runs attendance housekeeping (session reset, retention) on cron
// schedules.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	tasks   map[string]*entry
	running bool
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With("component", "maintenance"),
		timeout: time.Minute,
		tasks:   make(map[string]*entry),
	}
}

// Register schedules task. An empty schedule leaves the task disabled but
// still runnable through RunTask.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Run == nil {
		return fmt.Errorf("register task: name and run are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("register task %s: already registered", task.Name)
	}

	e := &entry{
		task:   task,
		status: TaskStatus{Name: task.Name, Schedule: task.Schedule},
	}
	if task.Schedule != "" {
		id, err := s.cron.AddFunc(task.Schedule, func() {
			s.execute(context.Background(), e)
		})
		if err != nil {
			return fmt.Errorf("schedule task %s: %w", task.Name, err)
		}
		e.id = id
	}
	s.tasks[task.Name] = e

	s.logger.Info("task registered", "task", task.Name, "schedule", task.Schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "tasks", len(s.tasks))
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// RunTask executes a task immediately.
func (s *Scheduler) RunTask(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.tasks[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("task %s not found", name)
	}
	return s.execute(ctx, e)
}

func (s *Scheduler) Status() []TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, e := range s.tasks {
		st := e.status
		if e.id != 0 {
			st.NextRun = s.cron.Entry(e.id).Next
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) execute(ctx context.Context, e *entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := e.task.Run(ctx)

	s.mu.Lock()
	e.status.LastRun = start
	e.status.Runs++
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("task failed", "task", e.task.Name, "error", err, "duration", time.Since(start))
		return fmt.Errorf("run task %s: %w", e.task.Name, err)
	}
	s.logger.Info("task completed", "task", e.task.Name, "duration", time.Since(start))
	return nil
}
