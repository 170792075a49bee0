// Package app assembles the attendance tracker from configuration. The API
// server and the ponto CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/ponto/internal/attendance"
	"github.com/saturnino-fabrica-de-software/ponto/internal/camera"
	"github.com/saturnino-fabrica-de-software/ponto/internal/config"
	"github.com/saturnino-fabrica-de-software/ponto/internal/database"
	"github.com/saturnino-fabrica-de-software/ponto/internal/face"
	"github.com/saturnino-fabrica-de-software/ponto/internal/maintenance"
	"github.com/saturnino-fabrica-de-software/ponto/internal/matcher"
	"github.com/saturnino-fabrica-de-software/ponto/internal/photo"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
	"github.com/saturnino-fabrica-de-software/ponto/internal/recognition"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository/sqlite"
	"github.com/saturnino-fabrica-de-software/ponto/internal/service"
)

// Store is one of the two storage backends behind the repository interfaces.
type Store struct {
	Faces      repository.FaceRepositoryInterface
	Attendance repository.AttendanceRepositoryInterface
	Pinger     repository.Pinger
	close      func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens and migrates the configured store.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		st, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Store{Faces: st.Faces, Attendance: st.Attendance, Pinger: st, close: st.Close}, nil

	case "postgres":
		if err := MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return &Store{
			Faces:      repository.NewFaceRepository(pool),
			Attendance: repository.NewAttendanceRepository(pool),
			Pinger:     pool,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

// MigratePostgres brings the Postgres schema up to date.
func MigratePostgres(dsn string) error {
	migrator, err := NewPostgresMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// NewPostgresMigrator opens a database/sql handle for golang-migrate. Closing
// the migrator closes the handle.
func NewPostgresMigrator(dsn string) (*database.Migrator, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db, err := database.NewPool(database.DefaultPoolConfig(dsn))
	if err != nil {
		return nil, err
	}

	migrator, err := database.NewMigrator(db, pcfg.ConnConfig.Database)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return migrator, nil
}

// Options adds notifiers (websocket hub, webhook) to the attendance log.
type Options struct {
	Notifiers []attendance.Notifier
}

// App is the assembled tracker.
type App struct {
	Config      *config.Config
	Store       *Store
	Provider    provider.FaceProvider
	Camera      *camera.Lease
	Photos      *photo.Store
	Matcher     *matcher.Matcher
	Attendance  *attendance.Log
	Recognition *recognition.Controller
	Faces       *service.FaceService
	Scheduler   *maintenance.Scheduler

	logger *slog.Logger
}

// New wires every component. Nothing is started: recognition stays Idle and
// the scheduler is not running.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := recognition.ParsePolicy(cfg.MatchPolicy)
	if err != nil {
		return nil, err
	}

	faceProvider, err := face.NewFaceProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create face provider: %w", err)
	}

	device, err := camera.NewDevice(camera.DeviceOptions{
		Driver:        cfg.CameraDriver,
		URL:           cfg.CameraURL,
		Dir:           cfg.CameraDir,
		DeviceID:      cfg.CameraDeviceID,
		FrameInterval: cfg.CameraFrameInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("create camera: %w", err)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Store:    store,
		Provider: faceProvider,
		Camera:   camera.NewLease(device, logger),
		Photos:   photo.NewStore(cfg.PhotosDir, cfg.DefaultPhoto),
		Matcher:  matcher.New(cfg.MatchThreshold),
		logger:   logger,
	}

	logOpts := make([]attendance.Option, 0, len(opts.Notifiers))
	for _, n := range opts.Notifiers {
		logOpts = append(logOpts, attendance.WithNotifier(n))
	}
	a.Attendance = attendance.NewLog(store.Attendance, cfg.DedupInterval, logger, logOpts...)

	a.Recognition = recognition.NewController(
		store.Faces,
		faceProvider,
		a.Matcher,
		a.Attendance,
		a.Photos,
		a.Camera,
		recognition.Config{
			Policy:                 policy,
			Dimension:              cfg.DescriptorDimension,
			MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
			EventBuffer:            recognition.DefaultConfig().EventBuffer,
		},
		logger,
	)

	a.Faces = service.NewFaceService(store.Faces, faceProvider, a.Matcher, a.Camera, a.Photos, logger).
		WithRecognition(a.Recognition).
		WithCountdown(cfg.RegisterCountdown).
		WithDimension(cfg.DescriptorDimension)

	a.Scheduler = maintenance.NewScheduler(logger)
	if err := a.registerTasks(); err != nil {
		_ = store.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) registerTasks() error {
	if err := a.Scheduler.Register(maintenance.SessionReset(a.Attendance, a.Config.SessionResetSchedule)); err != nil {
		return err
	}
	if err := a.Scheduler.Register(maintenance.Compact(a.Attendance, "@hourly")); err != nil {
		return err
	}
	if a.Config.AttendanceRetentionDays > 0 {
		task := maintenance.Prune(a.Attendance, a.Config.PruneSchedule, a.Config.AttendanceRetentionDays)
		if err := a.Scheduler.Register(task); err != nil {
			return err
		}
	}
	return nil
}

// Close stops recognition, releases the camera, flushes the attendance log and
// closes the store, in that order.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Recognition.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close recognition: %w", err))
	}
	if err := a.Camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := a.Attendance.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}
