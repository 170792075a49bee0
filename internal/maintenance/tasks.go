package maintenance

import (
	"context"
	"time"
)

const (
	TaskSessionReset = "session-reset"
	TaskPrune        = "prune-attendance"
	TaskCompact      = "compact-dedup"
)

// AttendanceLog is the housekeeping surface of attendance.Log.
type AttendanceLog interface {
	ResetSession()
	Compact() int
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// SessionReset forgets every dedup mark so the next sighting of anyone is
// logged again, typically at midnight.
func SessionReset(log AttendanceLog, schedule string) Task {
	return Task{
		Name:     TaskSessionReset,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			log.ResetSession()
			return nil
		},
	}
}

// Prune deletes records older than retentionDays.
func Prune(log AttendanceLog, schedule string, retentionDays int) Task {
	return Task{
		Name:     TaskPrune,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := log.Prune(ctx, time.Duration(retentionDays)*24*time.Hour)
			return err
		},
	}
}

// Compact drops expired dedup marks.
func Compact(log AttendanceLog, schedule string) Task {
	return Task{
		Name:     TaskCompact,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			log.Compact()
			return nil
		},
	}
}
